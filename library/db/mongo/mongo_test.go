package mongo

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// swapHooks replaces the driver hooks for the duration of a test.
func swapHooks(t *testing.T, pingErr error) (connects, disconnects *int32) {
	t.Helper()

	oldConnect := connectMongo
	oldPing := pingMongo
	oldDisconnect := disconnectMongo
	connects, disconnects = new(int32), new(int32)

	connectMongo = func(ctx context.Context, clientOpts *options.ClientOptions) (*mongo.Client, error) {
		atomic.AddInt32(connects, 1)
		cli, err := mongo.NewClient(options.Client().ApplyURI("mongodb://example.com"))
		if err != nil {
			return nil, errors.Wrap(err, "new client")
		}
		return cli, nil
	}
	pingMongo = func(ctx context.Context, cli *mongo.Client) error {
		return pingErr
	}
	disconnectMongo = func(ctx context.Context, cli *mongo.Client) error {
		atomic.AddInt32(disconnects, 1)
		return nil
	}

	t.Cleanup(func() {
		connectMongo = oldConnect
		pingMongo = oldPing
		disconnectMongo = oldDisconnect
	})
	return connects, disconnects
}

func TestNewDBCloseOnce(t *testing.T) {
	connects, disconnects := swapHooks(t, nil)
	ctx := context.Background()

	d, err := NewDB(ctx, glog.Shared.Named("mongo_test"), DialInfo{Addr: "localhost:27017", DBName: "blog"})
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(connects))
	require.Equal(t, "blog", d.CurrentDB().Name())
	require.Equal(t, "posts", d.GetCol("posts").Name())
	require.NoError(t, d.Ping(ctx))

	require.NoError(t, d.Close(ctx))
	require.NoError(t, d.Close(ctx))
	require.Equal(t, int32(1), atomic.LoadInt32(disconnects))
}

func TestNewDBPingFailureDisconnects(t *testing.T) {
	_, disconnects := swapHooks(t, errors.New("no primary"))

	_, err := NewDB(context.Background(), glog.Shared.Named("mongo_test"), DialInfo{Addr: "localhost:27017", DBName: "blog"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no primary")
	require.Equal(t, int32(1), atomic.LoadInt32(disconnects))
}

func TestNewDBInvalidDialInfo(t *testing.T) {
	connects, _ := swapHooks(t, nil)

	_, err := NewDB(context.Background(), glog.Shared.Named("mongo_test"), DialInfo{DBName: "blog"})
	require.Error(t, err)
	_, err = NewDB(context.Background(), glog.Shared.Named("mongo_test"), DialInfo{Addr: "localhost:27017"})
	require.Error(t, err)
	require.Equal(t, int32(0), atomic.LoadInt32(connects))
}

func TestBuildMongoURI(t *testing.T) {
	tests := []struct {
		name string
		in   DialInfo
		want string
	}{
		{
			name: "no auth",
			in:   DialInfo{Addr: "localhost:27017", DBName: "blog"},
			want: "mongodb://localhost:27017/blog",
		},
		{
			name: "with credentials",
			in:   DialInfo{Addr: "db:27017", DBName: "blog", User: "admin", Pwd: "p@ss"},
			want: "mongodb://admin:p%40ss@db:27017/blog",
		},
		{
			name: "with auth source",
			in:   DialInfo{Addr: "db:27017", DBName: "blog", User: "u", Pwd: "p", AuthDB: "admin"},
			want: "mongodb://u:p@db:27017/blog?authSource=admin",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, buildMongoURI(tc.in))
		})
	}
}

func TestNotFound(t *testing.T) {
	require.True(t, NotFound(mongo.ErrNoDocuments))
	require.True(t, NotFound(errors.Wrap(mongo.ErrNoDocuments, "find post")))
	require.False(t, NotFound(errors.New("boom")))
	require.False(t, IsDuplicateKey(errors.New("boom")))
	require.True(t, IsDuplicateKey(mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}},
	}))
}

// Package mongo wraps the MongoDB client owned by the process.
package mongo

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultHeartbeat = 10 * time.Second
)

// DB is the handle injected into the data access layer.
type DB interface {
	// GetCol returns a collection of the current database
	GetCol(colName string) *mongo.Collection
	// CurrentDB returns the database named in DialInfo
	CurrentDB() *mongo.Database
	// Ping checks the primary is reachable
	Ping(ctx context.Context) error
	// Close disconnects the client, only the first call has effect
	Close(ctx context.Context) error
}

// DialInfo defines the MongoDB connection information.
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
	AuthDB string
}

// Validate checks the required fields are present.
func (d DialInfo) Validate() error {
	if strings.TrimSpace(d.Addr) == "" {
		return errors.New("mongo addr is empty")
	}
	if strings.TrimSpace(d.DBName) == "" {
		return errors.New("mongo db name is empty")
	}
	return nil
}

type db struct {
	logger    glog.Logger
	cli       *mongo.Client
	dbName    string
	closeOnce sync.Once
}

// hooks replaced in tests
var (
	connectMongo = func(ctx context.Context, clientOpts *options.ClientOptions) (*mongo.Client, error) {
		return mongo.Connect(ctx, clientOpts)
	}
	pingMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Ping(ctx, readpref.Primary())
	}
	disconnectMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Disconnect(ctx)
	}
)

// buildMongoURI builds a MongoDB connection URI from the given dial info.
func buildMongoURI(dialInfo DialInfo) string {
	uri := &url.URL{
		Scheme: "mongodb",
		Host:   dialInfo.Addr,
		Path:   "/" + dialInfo.DBName,
	}
	if dialInfo.User != "" || dialInfo.Pwd != "" {
		uri.User = url.UserPassword(dialInfo.User, dialInfo.Pwd)
	}
	if dialInfo.AuthDB != "" {
		query := url.Values{}
		query.Set("authSource", dialInfo.AuthDB)
		uri.RawQuery = query.Encode()
	}
	return uri.String()
}

// NewDB connects and pings the server, so a bad address fails at startup
// instead of on the first request.
func NewDB(ctx context.Context, logger glog.Logger, dialInfo DialInfo) (DB, error) {
	if err := dialInfo.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid dial info")
	}

	logger = logger.Named("mongo")
	logger.Info("try to connect to mongodb",
		zap.String("addr", dialInfo.Addr),
		zap.String("db", dialInfo.DBName),
	)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(buildMongoURI(dialInfo)).
		SetConnectTimeout(defaultTimeout).
		SetServerSelectionTimeout(defaultTimeout).
		SetHeartbeatInterval(defaultHeartbeat).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(5 * time.Minute)

	cli, err := connectMongo(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect db")
	}

	if err := pingMongo(ctx, cli); err != nil {
		_ = disconnectMongo(context.Background(), cli)
		return nil, errors.Wrap(err, "ping db")
	}

	return &db{
		logger: logger,
		cli:    cli,
		dbName: dialInfo.DBName,
	}, nil
}

// CurrentDB returns the database based on the dial info.
func (d *db) CurrentDB() *mongo.Database {
	return d.cli.Database(d.dbName)
}

// GetCol returns a collection handle by name.
func (d *db) GetCol(colName string) *mongo.Collection {
	return d.CurrentDB().Collection(colName)
}

// Ping checks the primary is reachable.
func (d *db) Ping(ctx context.Context) error {
	if err := pingMongo(ctx, d.cli); err != nil {
		return errors.Wrap(err, "ping db")
	}
	return nil
}

// Close disconnects the client, bounded by defaultTimeout.
func (d *db) Close(ctx context.Context) (err error) {
	d.closeOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		closeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		if err = disconnectMongo(closeCtx, d.cli); err != nil {
			err = errors.Wrap(err, "disconnect db")
			return
		}
		d.logger.Info("mongodb disconnected")
	})

	return err
}

// NotFound reports whether err means no document matched.
func NotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

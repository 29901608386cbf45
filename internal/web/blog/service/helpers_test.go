package service

import (
	"sync"
	"testing"
	"time"

	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/stretchr/testify/require"

	"github.com/blogcms/blog-api/internal/web/blog/service/storetest"
)

// testClock is a settable clock
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBlog(t *testing.T, opts ...Option) (*Blog, *storetest.Store, *testClock) {
	t.Helper()
	store := storetest.New()
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	svc, err := New(glog.Shared.Named("service_test"), store, opts...)
	require.NoError(t, err)
	return svc, store, clock
}


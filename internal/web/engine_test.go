package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/blogcms/blog-api/internal/web/blog/controller"
	"github.com/blogcms/blog-api/internal/web/blog/service"
	"github.com/blogcms/blog-api/internal/web/blog/service/storetest"
	"github.com/blogcms/blog-api/library/auth"
	"github.com/blogcms/blog-api/library/throttle"
)

func newTestEngine(t *testing.T, opts ...EngineOption) *gin.Engine {
	t.Helper()
	setupGinTestMode()

	logger := logSDK.Shared.Named("web_test")
	svc, err := service.New(logger, storetest.New())
	require.NoError(t, err)
	verifier, err := auth.NewVerifier([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	ctl, err := controller.New(svc, verifier)
	require.NoError(t, err)

	engine, err := NewEngine(logger, ctl, opts...)
	require.NoError(t, err)
	return engine
}

func TestEngineHealth(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success   bool      `json:"success"`
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "OK", body.Status)
	require.False(t, body.Timestamp.IsZero())

	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
}

func TestEngineNotFound(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"success":false,"message":"Route not found"}`, w.Body.String())
}

func TestEngineMetrics(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "blog_api_http_requests_total")
	require.Contains(t, w.Body.String(), `route="/api/posts"`)
}

func TestEngineRateLimit(t *testing.T) {
	t.Parallel()
	th, err := throttle.New(throttle.Config{TotalPerSec: 100, TotalBurst: 100, EachPerSec: 1, EachBurst: 2})
	require.NoError(t, err)
	engine := newTestEngine(t, WithThrottle(th))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// other clients keep their own bucket
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "203.0.113.8:4000"
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// metrics live outside /api and are not limited
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestEngineStatic(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "posts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "posts", "a.txt"), []byte("hello"), 0o644))

	engine := newTestEngine(t, WithStatic("/uploads", root))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/posts/a.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "hello", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/posts/missing.txt", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEngineOptions(t *testing.T) {
	t.Parallel()
	setupGinTestMode()

	_, err := NewEngine(logSDK.Shared, nil)
	require.Error(t, err)

	for _, opt := range []EngineOption{
		WithStatic("uploads", "/tmp"),
		WithStatic("/uploads", ""),
		WithThrottle(nil),
		WithCORSOrigins("*.", "ok.example.com"),
	} {
		o := &engineOption{}
		err := opt(o)
		if err == nil {
			_, err = allowCORS(o.corsOrigins)
		}
		require.Error(t, err)
	}
}

// TestContextFallback handlers pass *gin.Context to services, which must
// observe the request context and the request logger through it.
func TestContextFallback(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	type ctxKey struct{}
	var (
		gotValue   any
		gotLogger  bool
		gotGinCtx  bool
		gotDeadline bool
	)
	engine.GET("/probe", func(c *gin.Context) {
		ctx := context.Context(c)
		gotValue = ctx.Value(ctxKey{})
		gotLogger = gmw.GetLogger(ctx) != nil
		_, gotGinCtx = gmw.GetGinCtxFromStdCtx(ctx)
		_, gotDeadline = ctx.Deadline()
		c.Status(http.StatusNoContent)
	})

	ctx, cancel := context.WithTimeout(context.WithValue(context.Background(), ctxKey{}, "v"), time.Minute)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "v", gotValue)
	require.True(t, gotLogger)
	require.True(t, gotGinCtx)
	require.True(t, gotDeadline, "deadline of the request context must be visible")
}

func TestRunServerGracefulShutdown(t *testing.T) {
	t.Parallel()
	setupGinTestMode()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	router := gin.New()
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunServer(ctx, logSDK.Shared.Named("run_server_test"), addr, router)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}

	_, err = http.Get("http://" + addr + "/ping")
	require.Error(t, err)
}

// Package web gin server
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/blog/controller"
	"github.com/blogcms/blog-api/internal/web/envelope"
	"github.com/blogcms/blog-api/library/throttle"
)

// shutdownTimeout how long in-flight requests may take once shutdown begins
const shutdownTimeout = 10 * time.Second

type engineOption struct {
	corsOrigins  []string
	throttle     *throttle.Throttle
	staticPrefix string
	staticRoot   string
	now          func() time.Time
}

// EngineOption configures NewEngine
type EngineOption func(*engineOption) error

// WithCORSOrigins sets the allowed origins, see allowCORS for the patterns
func WithCORSOrigins(origins ...string) EngineOption {
	return func(o *engineOption) error {
		o.corsOrigins = append(o.corsOrigins, origins...)
		return nil
	}
}

// WithThrottle rate limits every /api route
func WithThrottle(t *throttle.Throttle) EngineOption {
	return func(o *engineOption) error {
		if t == nil {
			return errors.New("throttle is nil")
		}
		o.throttle = t
		return nil
	}
}

// WithStatic serves files under root at prefix
func WithStatic(prefix, root string) EngineOption {
	return func(o *engineOption) error {
		if prefix == "" || prefix[0] != '/' {
			return errors.Errorf("static prefix %q must start with '/'", prefix)
		}
		if root == "" {
			return errors.New("static root is empty")
		}
		o.staticPrefix, o.staticRoot = prefix, root
		return nil
	}
}

// NewEngine builds the HTTP handler of the blog API
func NewEngine(logger glog.Logger, blog *controller.Controller, opts ...EngineOption) (*gin.Engine, error) {
	if logger == nil {
		return nil, errors.New("logger is nil")
	}
	if blog == nil {
		return nil, errors.New("blog controller is nil")
	}

	opt := &engineOption{now: time.Now}
	for _, f := range opts {
		if err := f(opt); err != nil {
			return nil, errors.Wrap(err, "apply engine option")
		}
	}

	cors, err := allowCORS(opt.corsOrigins)
	if err != nil {
		return nil, errors.Wrap(err, "cors")
	}

	engine := gin.New()
	// handlers hand *gin.Context to services as a context.Context
	engine.ContextWithFallback = true
	engine.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLogger(logger.Named("gin")),
		),
		instrument,
		securityHeaders,
		cors,
	)

	engine.GET("/metrics", gin.WrapH(metricsHandler()))
	if opt.staticRoot != "" {
		engine.Static(opt.staticPrefix, opt.staticRoot)
	}

	api := engine.Group("/api")
	if opt.throttle != nil {
		api.Use(rateLimit(opt.throttle))
	}
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"status":    "OK",
			"timestamp": opt.now().UTC(),
		})
	})
	blog.Mount(api)

	engine.NoRoute(func(c *gin.Context) {
		envelope.Abort(c, http.StatusNotFound, "Route not found")
	})

	return engine, nil
}

// RunServer serves handler on addr until ctx is done, then drains
// in-flight requests for up to shutdownTimeout.
func RunServer(ctx context.Context, logger glog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on http", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server exit")
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server exit")
	}
	return nil
}

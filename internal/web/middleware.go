package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/envelope"
	"github.com/blogcms/blog-api/library/throttle"
)

// originMatcher one entry of the CORS allow list
type originMatcher struct {
	any    bool
	host   string
	suffix string
	scheme string
}

func (m originMatcher) match(u *url.URL) bool {
	if m.any {
		return true
	}
	if m.scheme != "" && !strings.EqualFold(m.scheme, u.Scheme) {
		return false
	}

	host := strings.ToLower(u.Host)
	if m.suffix != "" {
		return strings.HasSuffix(host, m.suffix) || host == strings.TrimPrefix(m.suffix, ".")
	}
	return host == m.host
}

// parseOrigin accepts `*`, `https://blog.example.com`, `blog.example.com:3000`
// and `*.example.com`, which also matches example.com itself.
func parseOrigin(raw string) (originMatcher, error) {
	raw = strings.TrimSpace(raw)
	if raw == "*" {
		return originMatcher{any: true}, nil
	}

	var m originMatcher
	if scheme, rest, ok := strings.Cut(raw, "://"); ok {
		m.scheme = strings.ToLower(scheme)
		raw = rest
	}
	raw = strings.ToLower(strings.TrimSuffix(raw, "/"))
	if raw == "" || strings.ContainsAny(raw, "/?#") {
		return m, errors.Errorf("invalid origin %q", raw)
	}

	if suffix, ok := strings.CutPrefix(raw, "*."); ok {
		if suffix == "" || strings.Contains(suffix, "*") {
			return m, errors.Errorf("invalid origin pattern %q", raw)
		}
		m.suffix = "." + suffix
		return m, nil
	}
	if strings.Contains(raw, "*") {
		return m, errors.Errorf("invalid origin pattern %q", raw)
	}

	m.host = raw
	return m, nil
}

// allowCORS answers cross-origin requests from the configured origins.
// Preflights from other origins are refused, plain requests from them get
// no CORS headers and are left to the browser to block.
func allowCORS(origins []string) (gin.HandlerFunc, error) {
	matchers := make([]originMatcher, 0, len(origins))
	for _, o := range origins {
		m, err := parseOrigin(o)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	allowed := func(origin string) bool {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		for _, m := range matchers {
			if m.match(u) {
				return true
			}
		}
		return false
	}

	return func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" {
			ctx.Next()
			return
		}

		if !allowed(origin) {
			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusForbidden)
				return
			}
			ctx.Next()
			return
		}

		ctx.Header("Access-Control-Allow-Origin", origin)
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
		ctx.Header("Access-Control-Max-Age", "86400")
		ctx.Header("Vary", "Origin")

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}, nil
}

func securityHeaders(ctx *gin.Context) {
	h := ctx.Writer.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "SAMEORIGIN")
	h.Set("X-XSS-Protection", "0")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Cross-Origin-Resource-Policy", "cross-origin")
	ctx.Next()
}

// rateLimit rejects callers whose bucket is empty with 429
func rateLimit(t *throttle.Throttle) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !t.Allow(ctx.ClientIP()) {
			envelope.Abort(ctx, http.StatusTooManyRequests,
				"Too many requests from this IP, please try again later")
			return
		}
		ctx.Next()
	}
}

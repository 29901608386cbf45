package web

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ginModeOnce sync.Once
)

func setupGinTestMode() {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}

func TestAllowCORS(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	cors, err := allowCORS([]string{"https://blog.example.com", "*.example.org", "localhost:3000"})
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		origin         string
		expectedStatus int
		expectedCORS   bool
	}{
		{
			name:           "No origin header - should pass through",
			method:         "GET",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Exact origin - GET request",
			method:         "GET",
			origin:         "https://blog.example.com",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
		},
		{
			name:           "Exact origin with other scheme",
			method:         "GET",
			origin:         "http://blog.example.com",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Exact origin - OPTIONS preflight",
			method:         "OPTIONS",
			origin:         "https://blog.example.com",
			expectedStatus: http.StatusNoContent,
			expectedCORS:   true,
		},
		{
			name:           "Wildcard subdomain",
			method:         "POST",
			origin:         "https://admin.example.org",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
		},
		{
			name:           "Wildcard covers the apex",
			method:         "GET",
			origin:         "http://example.org",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
		},
		{
			name:           "Multiple level subdomain",
			method:         "GET",
			origin:         "https://api.v2.example.org",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
		},
		{
			name:           "Case insensitive domain matching",
			method:         "GET",
			origin:         "https://Blog.EXAMPLE.ORG",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
		},
		{
			name:           "Host with port",
			method:         "GET",
			origin:         "http://localhost:3000",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
		},
		{
			name:           "Host with other port",
			method:         "GET",
			origin:         "http://localhost:4000",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid origin - OPTIONS preflight",
			method:         "OPTIONS",
			origin:         "https://evil.com",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Invalid origin - GET request",
			method:         "GET",
			origin:         "https://evil.com",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Suffix trick",
			method:         "GET",
			origin:         "https://example.org.evil.com",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Domain that contains example.org but is not subdomain",
			method:         "GET",
			origin:         "https://notexample.org",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid origin with malformed URL",
			method:         "GET",
			origin:         "not-a-valid-url",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(cors)
			router.Any("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Status code mismatch")
			if tt.expectedCORS {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
				assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
				assert.Equal(t, "Origin", w.Header().Get("Vary"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestAllowCORSAnyOrigin(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	cors, err := allowCORS([]string{"*"})
	require.NoError(t, err)

	router := gin.New()
	router.Use(cors)
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://anything.test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://anything.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAllowCORSNoOrigins(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	cors, err := allowCORS(nil)
	require.NoError(t, err)

	router := gin.New()
	router.Use(cors)
	router.Any("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestParseOrigin(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"*", "https://blog.example.com", "blog.example.com", "*.example.com", "localhost:3000", "https://a.example.com/"} {
		_, err := parseOrigin(raw)
		require.NoError(t, err, raw)
	}

	for _, raw := range []string{"", "https://", "*.", "a.*.example.com", "https://example.com/path", "example.com?x=1"} {
		_, err := parseOrigin(raw)
		require.Error(t, err, raw)
	}
}

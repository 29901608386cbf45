package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// minimalConfig returns the smallest configuration that passes validation.
func minimalConfig() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"db": map[string]any{
				"blog": map[string]any{
					"addr": "localhost:27017",
					"db":   "blog",
				},
			},
			"auth": map[string]any{
				"secret": "0123456789abcdef0123",
			},
		},
	}
}

// setKey sets a dotted key inside a nested map, creating levels as needed.
func setKey(root map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	current := root
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// TestValidateStartupConfigWithGetterMinimal verifies the minimal configuration passes validation.
func TestValidateStartupConfigWithGetterMinimal(t *testing.T) {
	err := validateStartupConfigWithGetter(newMapConfigGetter(minimalConfig()))
	require.NoError(t, err)
}

// TestValidateStartupConfigWithGetterEmpty verifies empty configuration names every required key.
func TestValidateStartupConfigWithGetterEmpty(t *testing.T) {
	err := validateStartupConfigWithGetter(newMapConfigGetter(map[string]any{}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "settings.db.blog.addr is required")
	require.Contains(t, err.Error(), "settings.db.blog.db is required")
	require.Contains(t, err.Error(), "settings.auth.secret is required")
}

func TestValidateStartupConfigWithGetterNil(t *testing.T) {
	require.Error(t, validateStartupConfigWithGetter(nil))
}

// TestValidateStartupConfigWithGetterInvalid verifies each malformed value is reported by key.
func TestValidateStartupConfigWithGetterInvalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{name: "mongo addr with scheme", key: "settings.db.blog.addr", value: "mongodb://localhost", wantErr: "settings.db.blog.addr must be a valid host"},
		{name: "short secret", key: "settings.auth.secret", value: "short", wantErr: "settings.auth.secret must be at least 16"},
		{name: "negative redis db", key: "settings.db.redis.db", value: -1, wantErr: "settings.db.redis.db must be >= 0"},
		{name: "zero redis ttl", key: "settings.db.redis.ttl_sec", value: 0, wantErr: "settings.db.redis.ttl_sec must be >= 1"},
		{name: "fractional max bytes", key: "settings.upload.max_bytes", value: 1.5, wantErr: "settings.upload.max_bytes must be an integer"},
		{name: "relative public prefix", key: "settings.upload.public_prefix", value: "uploads", wantErr: "settings.upload.public_prefix must be empty or start with '/'"},
		{name: "unknown backend", key: "settings.upload.backend", value: "s3", wantErr: "settings.upload.backend must be one of [local, minio]"},
		{name: "cors not a list", key: "settings.web.cors_origins", value: 42, wantErr: "settings.web.cors_origins must be a list of strings"},
		{name: "cors blank entry", key: "settings.web.cors_origins", value: []any{"https://a.example.com", " "}, wantErr: "settings.web.cors_origins[1] must not be empty"},
		{name: "zero rate", key: "settings.web.rate_limit.per_sec", value: 0, wantErr: "settings.web.rate_limit.per_sec must be >= 1"},
		{name: "bad telegram api", key: "settings.notify.telegram.api", value: "not a url", wantErr: "settings.notify.telegram.api must be a valid absolute URL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := minimalConfig()
			setKey(cfg, tc.key, tc.value)
			if strings.HasPrefix(tc.key, "settings.notify.telegram.") {
				setKey(cfg, "settings.notify.telegram.token", "123:abc")
				setKey(cfg, "settings.notify.telegram.chat_id", 42)
			}

			err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

// TestValidateStartupConfigWithGetterRateRelation verifies burst must cover the rate.
func TestValidateStartupConfigWithGetterRateRelation(t *testing.T) {
	cfg := minimalConfig()
	setKey(cfg, "settings.web.rate_limit.per_sec", 10)
	setKey(cfg, "settings.web.rate_limit.burst", 5)

	err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
	require.Error(t, err)
	require.Contains(t, err.Error(), "settings.web.rate_limit.burst must be >= settings.web.rate_limit.per_sec")
}

// TestValidateStartupConfigWithGetterMinio verifies minio credentials are only required for the minio backend.
func TestValidateStartupConfigWithGetterMinio(t *testing.T) {
	cfg := minimalConfig()
	setKey(cfg, "settings.upload.minio.endpoint", "https://bad")
	require.NoError(t, validateStartupConfigWithGetter(newMapConfigGetter(cfg)), "ignored for local backend")

	setKey(cfg, "settings.upload.backend", "minio")
	err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
	require.Error(t, err)
	require.Contains(t, err.Error(), "settings.upload.minio.endpoint must be a valid host")
	require.Contains(t, err.Error(), "settings.upload.minio.bucket is required")

	setKey(cfg, "settings.upload.minio.endpoint", "minio.internal:9000")
	setKey(cfg, "settings.upload.minio.access_key", "ak")
	setKey(cfg, "settings.upload.minio.secret_key", "sk")
	setKey(cfg, "settings.upload.minio.bucket", "blog")
	setKey(cfg, "settings.upload.minio.secure", "yes")
	require.NoError(t, validateStartupConfigWithGetter(newMapConfigGetter(cfg)))
}

// TestValidateStartupConfigWithGetterTelegram verifies chat_id is required once a token is set.
func TestValidateStartupConfigWithGetterTelegram(t *testing.T) {
	cfg := minimalConfig()
	setKey(cfg, "settings.notify.telegram.token", "123:abc")

	err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
	require.Error(t, err)
	require.Contains(t, err.Error(), "settings.notify.telegram.chat_id is required")

	setKey(cfg, "settings.notify.telegram.chat_id", "-100123")
	require.NoError(t, validateStartupConfigWithGetter(newMapConfigGetter(cfg)))
}

// TestValidateStartupConfigWithGetterValidConfig verifies a complete configuration passes validation.
func TestValidateStartupConfigWithGetterValidConfig(t *testing.T) {
	cfg := minimalConfig()
	setKey(cfg, "settings.db.blog.user", "blog")
	setKey(cfg, "settings.db.blog.pwd", "secret")
	setKey(cfg, "settings.db.blog.auth_db", "admin")
	setKey(cfg, "settings.db.redis.addr", "localhost:6379")
	setKey(cfg, "settings.db.redis.db", 2)
	setKey(cfg, "settings.db.redis.ttl_sec", 300)
	setKey(cfg, "settings.upload.dir", "uploads")
	setKey(cfg, "settings.upload.public_prefix", "/uploads")
	setKey(cfg, "settings.upload.max_bytes", 5242880)
	setKey(cfg, "settings.web.cors_origins", []any{"https://blog.example.com", "*.example.com"})
	setKey(cfg, "settings.web.rate_limit.per_sec", 1)
	setKey(cfg, "settings.web.rate_limit.burst", 100)
	setKey(cfg, "settings.notify.telegram.token", "123:abc")
	setKey(cfg, "settings.notify.telegram.chat_id", 42)
	setKey(cfg, "settings.notify.telegram.api", "https://api.telegram.org")

	require.NoError(t, validateStartupConfigWithGetter(newMapConfigGetter(cfg)))
}

// newMapConfigGetter builds a dotted-path getter for nested map-based test configuration.
// It accepts a nested map and returns a getter function compatible with validateStartupConfigWithGetter.
func newMapConfigGetter(root map[string]any) configGetter {
	return func(key string) any {
		if key == "" {
			return nil
		}

		parts := strings.Split(key, ".")
		var current any = root
		for _, part := range parts {
			nextMap, ok := current.(map[string]any)
			if !ok {
				return nil
			}

			next, exists := nextMap[part]
			if !exists {
				return nil
			}
			current = next
		}

		return current
	}
}

package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

// minAuthSecretLen shortest accepted token signing secret
const minAuthSecretLen = 16

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateBlogDBConfig(get, &validationErrs)
	validateRedisConfig(get, &validationErrs)
	validateAuthConfig(get, &validationErrs)
	validateUploadConfig(get, &validationErrs)
	validateWebConfig(get, &validationErrs)
	validateNotifyConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateBlogDBConfig validates the mongo connection settings.
func validateBlogDBConfig(get configGetter, errs *[]string) {
	validateRequiredHost(get, "settings.db.blog.addr", errs)
	validateRequiredString(get, "settings.db.blog.db", errs)
	validateOptionalStringNonEmpty(get, "settings.db.blog.auth_db", errs)
}

// validateRedisConfig validates redis-related startup configuration values.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateRedisConfig(get configGetter, errs *[]string) {
	if get("settings.db.redis.addr") != nil {
		validateRequiredHost(get, "settings.db.redis.addr", errs)
	}
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
	validateOptionalIntMin(get, "settings.db.redis.ttl_sec", 1, errs)
}

// validateAuthConfig requires a signing secret long enough for HS256.
func validateAuthConfig(get configGetter, errs *[]string) {
	raw := get("settings.auth.secret")
	if raw == nil {
		appendValidationError(errs, "settings.auth.secret is required")
		return
	}

	secret, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "settings.auth.secret must be a string")
		return
	}
	if len(secret) < minAuthSecretLen {
		appendValidationError(errs, "settings.auth.secret must be at least %d characters", minAuthSecretLen)
	}
}

// validateUploadConfig validates the upload backend and its limits.
// Minio credentials are only required when minio is the selected backend.
func validateUploadConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.upload.dir", errs)
	validateOptionalPathPrefix(get, "settings.upload.public_prefix", errs)
	validateOptionalInt64Min(get, "settings.upload.max_bytes", 1, errs)

	backend := "local"
	if raw := get("settings.upload.backend"); raw != nil {
		value, parseErr := parseStrictString(raw)
		if parseErr != nil {
			appendValidationError(errs, "settings.upload.backend must be a string")
			return
		}
		backend = strings.ToLower(strings.TrimSpace(value))
	}

	switch backend {
	case "local":
	case "minio":
		validateRequiredHost(get, "settings.upload.minio.endpoint", errs)
		validateRequiredString(get, "settings.upload.minio.access_key", errs)
		validateRequiredString(get, "settings.upload.minio.secret_key", errs)
		validateRequiredString(get, "settings.upload.minio.bucket", errs)
		validateOptionalBool(get, "settings.upload.minio.secure", errs)
		validateOptionalURL(get, "settings.upload.minio.public_url", errs)
	default:
		appendValidationError(errs, "settings.upload.backend must be one of [local, minio]")
	}
}

// validateWebConfig validates CORS origins and rate limits.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateWebConfig(get configGetter, errs *[]string) {
	if raw := get("settings.web.cors_origins"); raw != nil {
		origins, ok := toStringSlice(raw)
		if !ok {
			appendValidationError(errs, "settings.web.cors_origins must be a list of strings")
		}
		for i, o := range origins {
			if strings.TrimSpace(o) == "" {
				appendValidationError(errs, "settings.web.cors_origins[%d] must not be empty", i)
			}
		}
	}

	validateOptionalIntMin(get, "settings.web.rate_limit.per_sec", 1, errs)
	validateOptionalIntMin(get, "settings.web.rate_limit.burst", 1, errs)
	validateOptionalIntMin(get, "settings.web.rate_limit.total_per_sec", 1, errs)
	validateOptionalIntMin(get, "settings.web.rate_limit.total_burst", 1, errs)
	validateBurstRelation(get, "settings.web.rate_limit.per_sec", "settings.web.rate_limit.burst", errs)
	validateBurstRelation(get, "settings.web.rate_limit.total_per_sec", "settings.web.rate_limit.total_burst", errs)
}

// validateBurstRelation requires burst >= rate when both are set.
func validateBurstRelation(get configGetter, rateKey, burstKey string, errs *[]string) {
	rateRaw, burstRaw := get(rateKey), get(burstKey)
	if rateRaw == nil || burstRaw == nil {
		return
	}

	rate, rateErr := parseStrictInt(rateRaw)
	burst, burstErr := parseStrictInt(burstRaw)
	if rateErr == nil && burstErr == nil && burst < rate {
		appendValidationError(errs, "%s must be >= %s", burstKey, rateKey)
	}
}

// validateNotifyConfig validates the telegram notifier, chat_id is
// required once a token is configured.
func validateNotifyConfig(get configGetter, errs *[]string) {
	if get("settings.notify.telegram.token") == nil {
		return
	}

	validateRequiredString(get, "settings.notify.telegram.token", errs)
	validateOptionalURL(get, "settings.notify.telegram.api", errs)

	raw := get("settings.notify.telegram.chat_id")
	if raw == nil {
		appendValidationError(errs, "settings.notify.telegram.chat_id is required")
		return
	}
	if id, parseErr := parseStrictInt64(raw); parseErr != nil || id == 0 {
		appendValidationError(errs, "settings.notify.telegram.chat_id must be a non-zero integer")
	}
}

// validateOptionalBool validates an optionally configured boolean key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalInt64Min validates an optionally configured int64 key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalInt64Min(get configGetter, key string, min int64, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt64(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalPathPrefix validates an optionally configured URL base path.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalPathPrefix(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string path", key)
		return
	}

	if !isValidBasePath(value) {
		appendValidationError(errs, "%s must be empty or start with '/'", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	if get(key) == nil {
		return
	}
	validateRequiredString(get, key, errs)
}

// validateRequiredString validates that key is set to a non-empty string.
func validateRequiredString(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		appendValidationError(errs, "%s is required", key)
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// validateRequiredHost validates that key is set to a `host[:port]` without scheme.
func validateRequiredHost(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		appendValidationError(errs, "%s is required", key)
		return
	}

	host, parseErr := parseStrictString(raw)
	if parseErr != nil || !isValidHost(host) {
		appendValidationError(errs, "%s must be a valid host", key)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
// It accepts a raw value and returns the parsed boolean and whether parsing succeeded.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictInt64 parses a value as a strict int64.
// It accepts a raw value and returns the parsed int64 and an error when parsing fails.
func parseStrictInt64(value any) (int64, error) {
	parsed, err := parseStrictInt(value)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int64(parsed), nil
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// toStringSlice accepts a YAML list of strings, or a single comma separated string.
func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case string:
		return strings.Split(v, ","), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// isValidBasePath validates a base path used for URL prefixes.
// It accepts a path string and returns whether it is empty or starts with '/'.
func isValidBasePath(path string) bool {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return true
	}
	return strings.HasPrefix(trimmed, "/")
}

// isValidHost validates a host string without scheme or path components.
// It accepts a host string and returns true when the host is syntactically acceptable.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") {
		return false
	}
	return true
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}

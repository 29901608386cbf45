package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

func TestSanitizeOptionalText(t *testing.T) {
	got, err := sanitizeOptionalText("  hello  ", 10)
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	got, err = sanitizeOptionalText("   ", 10)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = sanitizeOptionalText("a\x00b", 10)
	require.ErrorContains(t, err, "null byte")

	_, err = sanitizeOptionalText(strings.Repeat("界", 11), 10)
	require.ErrorContains(t, err, "at most 10")
}

func TestSanitizeRequiredText(t *testing.T) {
	_, err := sanitizeRequiredText(" ", 10)
	require.ErrorContains(t, err, "is required")

	got, err := sanitizeRequiredText(" ok ", 10)
	require.NoError(t, err)
	require.Equal(t, "ok", got)
}

func TestSanitizeColor(t *testing.T) {
	got, err := sanitizeColor("")
	require.NoError(t, err)
	require.Equal(t, model.DefaultCategoryColor, got)

	for _, ok := range []string{"#fff", "#A1b2C3"} {
		got, err = sanitizeColor(ok)
		require.NoError(t, err)
		require.Equal(t, ok, got)
	}

	for _, bad := range []string{"fff", "#ffff", "#ggg", "red"} {
		_, err = sanitizeColor(bad)
		require.Error(t, err, bad)
	}
}

func TestNormalizeTags(t *testing.T) {
	verr := new(model.ValidationError)
	got := normalizeTags(verr, []string{" Go ", "go", "", "Web", "GO"})
	require.NoError(t, verr.Err())
	require.Equal(t, []string{"go", "web"}, got)

	require.Equal(t, []string{}, normalizeTags(verr, nil))

	verr = new(model.ValidationError)
	normalizeTags(verr, []string{strings.Repeat("x", maxPostTagLength+1)})
	require.Error(t, verr.Err())
}

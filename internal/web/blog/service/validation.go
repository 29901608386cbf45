package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

const (
	// maxPostTitleLength caps the length of post titles.
	maxPostTitleLength = 200
	// maxPostExcerptLength caps the length of post excerpts.
	maxPostExcerptLength = 300
	// maxPostTagLength caps the length of a single tag.
	maxPostTagLength = 50
	// maxPostTags caps the number of tags on a post.
	maxPostTags = 30
	// maxMetaTitleLength caps SEO titles.
	maxMetaTitleLength = 60
	// maxMetaDescriptionLength caps SEO descriptions.
	maxMetaDescriptionLength = 160
	// maxCategoryNameLength caps the length of category names.
	maxCategoryNameLength = 50
	// maxCategoryDescriptionLength caps the length of category descriptions.
	maxCategoryDescriptionLength = 500
	// maxCommentAuthorNameLen caps the length of comment author names.
	maxCommentAuthorNameLen = 100
	// maxCommentContentLength caps the length of comment content.
	maxCommentContentLength = 1000
	// maxContactMessageLength caps the length of contact messages.
	maxContactMessageLength = 5000
)

var hexColorRegexp = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// sanitizeOptionalText trims input, checks for null bytes, enforces maxLen runes, and returns the sanitized value.
// The returned error message reads well after the field name.
func sanitizeOptionalText(input string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	if strings.ContainsRune(trimmed, '\x00') {
		return "", errors.New("contains invalid null byte")
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", errors.Errorf("must be at most %d characters", maxLen)
	}
	return trimmed, nil
}

// sanitizeRequiredText is sanitizeOptionalText that also rejects blank input.
func sanitizeRequiredText(input string, maxLen int) (string, error) {
	trimmed, err := sanitizeOptionalText(input, maxLen)
	if err != nil {
		return "", err
	}
	if trimmed == "" {
		return "", errors.New("is required")
	}
	return trimmed, nil
}

// checkOptional runs sanitizeOptionalText and records a failure against field.
func checkOptional(verr *model.ValidationError, field, input string, maxLen int) string {
	v, err := sanitizeOptionalText(input, maxLen)
	if err != nil {
		verr.Add(field, "%s", err.Error())
		return input
	}
	return v
}

// checkRequired runs sanitizeRequiredText and records a failure against field.
func checkRequired(verr *model.ValidationError, field, input string, maxLen int) string {
	v, err := sanitizeRequiredText(input, maxLen)
	if err != nil {
		verr.Add(field, "%s", err.Error())
		return input
	}
	return v
}

// sanitizeColor returns the default color for blank input.
func sanitizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return model.DefaultCategoryColor, nil
	}
	if !hexColorRegexp.MatchString(color) {
		return "", errors.New("must be a hex color like #3B82F6")
	}
	return color, nil
}

// normalizeTags lowercases, trims and dedupes tags, keeping first-seen order.
func normalizeTags(verr *model.ValidationError, tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > maxPostTagLength {
			verr.Add("tags", "each tag must be at most %d characters", maxPostTagLength)
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxPostTags {
		verr.Add("tags", "must have at most %d tags", maxPostTags)
	}

	return out
}

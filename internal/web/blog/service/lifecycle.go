package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

var (
	slugStripRegexp  = regexp.MustCompile(`[^\p{L}\p{N}\s_-]+`)
	slugSpaceRegexp  = regexp.MustCompile(`[\s_]+`)
	slugHyphenRegexp = regexp.MustCompile(`-{2,}`)
)

// Slugify lowercases s and reduces it to letters, digits and single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripRegexp.ReplaceAllString(s, "")
	s = slugSpaceRegexp.ReplaceAllString(s, "-")
	s = slugHyphenRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// PreparePost validates next and fills its derived fields before it is persisted.
//
// prev is the stored state and nil when next is being created. Fields owned by
// the store (id, creation time, first publication time) are carried over from prev.
// The slug is derived on creation with a time based suffix, and re-derived
// without a suffix whenever the title changes. Excerpt and reading time are
// derived only when the content changed.
func PreparePost(prev, next *model.Post, now time.Time) error {
	verr := new(model.ValidationError)

	next.Title = checkRequired(verr, "title", next.Title, maxPostTitleLength)
	if strings.TrimSpace(next.Content) == "" {
		verr.Add("content", "is required")
	}
	next.Excerpt = checkOptional(verr, "excerpt", next.Excerpt, maxPostExcerptLength)
	if next.Category.IsZero() {
		verr.Add("category", "is required")
	}
	if next.Author.IsZero() {
		verr.Add("author", "is required")
	}

	if next.Status == "" {
		next.Status = model.PostStatusDraft
	} else if !next.Status.Valid() {
		verr.Add("status", "must be one of [draft published archived]")
	}
	if next.ContentType == "" {
		next.ContentType = model.ContentTypeMarkdown
	} else if !next.ContentType.Valid() {
		verr.Add("contentType", "must be one of [markdown html richtext]")
	}

	next.Tags = normalizeTags(verr, next.Tags)
	next.SEO.MetaTitle = checkOptional(verr, "seo.metaTitle", next.SEO.MetaTitle, maxMetaTitleLength)
	next.SEO.MetaDescription = checkOptional(verr, "seo.metaDescription",
		next.SEO.MetaDescription, maxMetaDescriptionLength)

	var base string
	if prev == nil || prev.Title != next.Title {
		if base = Slugify(next.Title); base == "" && next.Title != "" {
			verr.Add("title", "must contain at least one letter or digit")
		}
	}
	if err := verr.Err(); err != nil {
		return err
	}

	switch {
	case prev == nil:
		next.Slug = fmt.Sprintf("%s-%04d", base, now.UnixMilli()%10000)
	case base != "":
		next.Slug = base
	default:
		next.Slug = prev.Slug
	}

	if prev == nil || prev.Content != next.Content || prev.ContentType != next.ContentType {
		text := PlainText(next.Content, next.ContentType)
		if next.Excerpt == "" {
			next.Excerpt = Excerpt(text)
		}
		next.ReadingTime = ReadingTime(text)
	}

	if prev != nil && prev.PublishedAt != nil {
		next.PublishedAt = prev.PublishedAt
	}
	if next.Status == model.PostStatusPublished && next.PublishedAt == nil {
		t := now
		next.PublishedAt = &t
	}

	if next.SEO.MetaTitle == "" {
		next.SEO.MetaTitle = Truncate(next.Title, maxMetaTitleLength)
	}
	if next.SEO.MetaDescription == "" {
		next.SEO.MetaDescription = Truncate(next.Excerpt, maxMetaDescriptionLength)
	}

	if prev == nil {
		next.CreatedAt = now
	} else {
		next.ID = prev.ID
		next.CreatedAt = prev.CreatedAt
	}
	next.UpdatedAt = now
	return nil
}

// PrepareCategory validates next and fills its derived fields before it is persisted.
//
// prev is nil on creation. The slug follows the name without any suffix,
// uniqueness is left to the store.
func PrepareCategory(prev, next *model.Category, now time.Time) error {
	verr := new(model.ValidationError)

	next.Name = checkRequired(verr, "name", next.Name, maxCategoryNameLength)
	next.Description = checkOptional(verr, "description", next.Description, maxCategoryDescriptionLength)
	if color, err := sanitizeColor(next.Color); err != nil {
		verr.Add("color", "%s", err.Error())
	} else {
		next.Color = color
	}
	if prev != nil && next.ParentCategory != nil && *next.ParentCategory == prev.ID {
		verr.Add("parentCategory", "must not be the category itself")
	}
	next.SEO.MetaTitle = checkOptional(verr, "seo.metaTitle", next.SEO.MetaTitle, maxMetaTitleLength)
	next.SEO.MetaDescription = checkOptional(verr, "seo.metaDescription",
		next.SEO.MetaDescription, maxMetaDescriptionLength)

	slug := next.Slug
	if prev == nil || prev.Name != next.Name {
		if slug = Slugify(next.Name); slug == "" && utf8.RuneCountInString(next.Name) > 0 {
			verr.Add("name", "must contain at least one letter or digit")
		}
	} else {
		slug = prev.Slug
	}
	if err := verr.Err(); err != nil {
		return err
	}
	next.Slug = slug

	if next.SEO.MetaTitle == "" {
		next.SEO.MetaTitle = Truncate(next.Name, maxMetaTitleLength)
	}
	if next.SEO.MetaDescription == "" {
		next.SEO.MetaDescription = Truncate(next.Description, maxMetaDescriptionLength)
	}

	if prev == nil {
		next.CreatedAt = now
	} else {
		next.ID = prev.ID
		next.CreatedAt = prev.CreatedAt
	}
	next.UpdatedAt = now
	return nil
}

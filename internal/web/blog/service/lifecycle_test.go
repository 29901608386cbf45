package service

import (
	"strings"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

func newDraft() *model.Post {
	return &model.Post{
		Title:    "Hello World",
		Content:  "Some **markdown** content",
		Category: primitive.NewObjectID(),
		Author:   primitive.NewObjectID(),
	}
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
	for _, f := range verr.Fields {
		if f.Field == field {
			return
		}
	}
	require.Failf(t, "missing field error", "field %q not in %+v", field, verr.Fields)
}

func TestPreparePost_Create(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 1234*int(time.Millisecond), time.UTC)
	p := newDraft()
	p.Tags = []string{"Go", " go ", "Web"}

	require.NoError(t, PreparePost(nil, p, now))
	require.Regexp(t, `^hello-world-\d{4}$`, p.Slug)
	require.Equal(t, model.PostStatusDraft, p.Status)
	require.Equal(t, model.ContentTypeMarkdown, p.ContentType)
	require.Equal(t, []string{"go", "web"}, p.Tags)
	require.Equal(t, "Some markdown content", p.Excerpt)
	require.Equal(t, 1, p.ReadingTime)
	require.Nil(t, p.PublishedAt)
	require.Equal(t, "Hello World", p.SEO.MetaTitle)
	require.Equal(t, "Some markdown content", p.SEO.MetaDescription)
	require.Equal(t, now, p.CreatedAt)
	require.Equal(t, now, p.UpdatedAt)
}

func TestPreparePost_SlugSuffixDiffers(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a, b := newDraft(), newDraft()
	require.NoError(t, PreparePost(nil, a, now))
	require.NoError(t, PreparePost(nil, b, now.Add(7*time.Millisecond)))
	require.NotEqual(t, a.Slug, b.Slug)
	require.True(t, strings.HasPrefix(b.Slug, "hello-world-"))
}

func TestPreparePost_Rename(t *testing.T) {
	now := time.Now().UTC()
	prev := newDraft()
	require.NoError(t, PreparePost(nil, prev, now))

	next := *prev
	require.NoError(t, PreparePost(prev, &next, now.Add(time.Minute)))
	require.Equal(t, prev.Slug, next.Slug, "unchanged title keeps slug")

	next = *prev
	next.Title = "Brand New Title"
	require.NoError(t, PreparePost(prev, &next, now.Add(time.Minute)))
	require.Equal(t, "brand-new-title", next.Slug)
	require.Equal(t, prev.CreatedAt, next.CreatedAt)
	require.Equal(t, now.Add(time.Minute), next.UpdatedAt)
}

func TestPreparePost_PublishedAtStable(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newDraft()
	p.Status = model.PostStatusPublished
	require.NoError(t, PreparePost(nil, p, t0))
	require.NotNil(t, p.PublishedAt)
	require.Equal(t, t0, *p.PublishedAt)

	draft := *p
	draft.Status = model.PostStatusDraft
	require.NoError(t, PreparePost(p, &draft, t0.Add(time.Hour)))
	require.Equal(t, t0, *draft.PublishedAt)

	again := draft
	again.Status = model.PostStatusPublished
	require.NoError(t, PreparePost(&draft, &again, t0.Add(2*time.Hour)))
	require.Equal(t, t0, *again.PublishedAt)
}

func TestPreparePost_ExcerptKept(t *testing.T) {
	now := time.Now().UTC()
	p := newDraft()
	p.Excerpt = "hand written"
	require.NoError(t, PreparePost(nil, p, now))

	next := *p
	next.Content = strings.Repeat("word ", 450)
	require.NoError(t, PreparePost(p, &next, now))
	require.Equal(t, "hand written", next.Excerpt)
	require.Equal(t, 3, next.ReadingTime)
}

func TestPreparePost_ExcerptDerivedOnlyWhenContentChanges(t *testing.T) {
	now := time.Now().UTC()
	p := newDraft()
	require.NoError(t, PreparePost(nil, p, now))

	next := *p
	next.Excerpt = ""
	require.NoError(t, PreparePost(p, &next, now))
	require.Empty(t, next.Excerpt)

	next.Content = strings.Repeat("x ", 150)
	require.NoError(t, PreparePost(p, &next, now))
	require.True(t, strings.HasSuffix(next.Excerpt, "..."))
}

func TestPreparePost_Invalid(t *testing.T) {
	now := time.Now().UTC()

	p := &model.Post{Status: "bogus", ContentType: "pdf"}
	err := PreparePost(nil, p, now)
	for _, field := range []string{"title", "content", "category", "author", "status", "contentType"} {
		requireFieldError(t, err, field)
	}

	p = newDraft()
	p.Title = "!!!"
	requireFieldError(t, PreparePost(nil, p, now), "title")

	p = newDraft()
	p.Title = strings.Repeat("t", maxPostTitleLength+1)
	requireFieldError(t, PreparePost(nil, p, now), "title")

	p = newDraft()
	p.SEO.MetaTitle = strings.Repeat("t", maxMetaTitleLength+1)
	requireFieldError(t, PreparePost(nil, p, now), "seo.metaTitle")
}

func TestPrepareCategory(t *testing.T) {
	now := time.Now().UTC()
	c := &model.Category{Name: "  Web Development ", Description: "All about the web"}
	require.NoError(t, PrepareCategory(nil, c, now))
	require.Equal(t, "Web Development", c.Name)
	require.Equal(t, "web-development", c.Slug)
	require.Equal(t, model.DefaultCategoryColor, c.Color)
	require.Equal(t, "Web Development", c.SEO.MetaTitle)
	require.Equal(t, "All about the web", c.SEO.MetaDescription)
	require.Equal(t, now, c.CreatedAt)

	c.ID = primitive.NewObjectID()
	next := *c
	next.Name = "Frontend"
	require.NoError(t, PrepareCategory(c, &next, now.Add(time.Second)))
	require.Equal(t, "frontend", next.Slug)
	require.Equal(t, c.ID, next.ID)
	require.Equal(t, c.CreatedAt, next.CreatedAt)

	self := *c
	self.ParentCategory = &c.ID
	requireFieldError(t, PrepareCategory(c, &self, now), "parentCategory")

	bad := &model.Category{Name: "x", Color: "blue"}
	requireFieldError(t, PrepareCategory(nil, bad, now), "color")

	long := &model.Category{Name: strings.Repeat("n", maxCategoryNameLength+1)}
	requireFieldError(t, PrepareCategory(nil, long, now), "name")
}

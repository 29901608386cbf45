package dto

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

func requireFields(t *testing.T, err error, fields ...string) {
	t.Helper()

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
	got := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		got = append(got, f.Field)
	}
	require.ElementsMatch(t, fields, got)
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		page, limit, total int64
		want               PageInfo
	}{
		{1, 10, 0, PageInfo{CurrentPage: 1, TotalPages: 0, Limit: 10}},
		{1, 10, 10, PageInfo{CurrentPage: 1, TotalPages: 1, Limit: 10}},
		{1, 10, 11, PageInfo{CurrentPage: 1, TotalPages: 2, HasNextPage: true, Limit: 10}},
		{2, 10, 11, PageInfo{CurrentPage: 2, TotalPages: 2, HasPrevPage: true, Limit: 10}},
		{3, 10, 11, PageInfo{CurrentPage: 3, TotalPages: 2, HasPrevPage: true, Limit: 10}},
		{2, 3, 10, PageInfo{CurrentPage: 2, TotalPages: 4, HasNextPage: true, HasPrevPage: true, Limit: 3}},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, NewPageInfo(tc.page, tc.limit, tc.total))
	}
}

func TestPostPaginationJSON(t *testing.T) {
	raw, err := json.Marshal(PostPagination{PageInfo: NewPageInfo(1, 10, 25), TotalPosts: 25})
	require.NoError(t, err)
	require.JSONEq(t, `{"currentPage":1,"totalPages":3,"hasNextPage":true,"hasPrevPage":false,"limit":10,"totalPosts":25}`, string(raw))
}

func TestParsePostListQuery(t *testing.T) {
	author := primitive.NewObjectID()
	q := url.Values{
		"page":     {"2"},
		"limit":    {"5"},
		"tags":     {"Go, gin ,go,"},
		"author":   {author.Hex()},
		"search":   {" WWDC "},
		"sort":     {"trending"},
		"dateFrom": {"2026-01-01"},
		"dateTo":   {"2026-02-01T10:00:00+08:00"},
		"status":   {"draft"},
	}

	p, err := ParsePostListQuery(q, false)
	require.NoError(t, err)
	require.Equal(t, int64(2), p.Page.Page)
	require.Equal(t, int64(5), p.Limit)
	require.Equal(t, int64(5), p.Skip())
	require.Equal(t, []string{"go", "gin"}, p.Tags)
	require.Equal(t, author, *p.Author)
	require.Equal(t, "WWDC", p.Search)
	require.Equal(t, PostSortTrending, p.Sort)
	require.Equal(t, "2026-01-01T00:00:00Z", p.DateFrom.Format("2006-01-02T15:04:05Z07:00"))
	require.Equal(t, 2, p.DateTo.Hour())
	// public lists ignore status
	require.Empty(t, p.Status)

	p, err = ParsePostListQuery(url.Values{"status": {"draft"}, "sort": {"title"}}, true)
	require.NoError(t, err)
	require.Equal(t, model.PostStatusDraft, p.Status)
	require.Equal(t, PostSortTitle, p.Sort)

	p, err = ParsePostListQuery(url.Values{}, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), p.Page.Page)
	require.Equal(t, int64(DefaultPageLimit), p.Limit)
	require.Equal(t, PostSortLatest, p.Sort)
}

func TestParsePostListQueryInvalid(t *testing.T) {
	_, err := ParsePostListQuery(url.Values{
		"page":   {"0"},
		"limit":  {"51"},
		"sort":   {"title"},
		"author": {"nope"},
		"dateTo": {"yesterday"},
	}, false)
	requireFields(t, err, "page", "limit", "sort", "author", "dateTo")

	_, err = ParsePostListQuery(url.Values{"sort": {"trending"}, "status": {"deleted"}}, true)
	requireFields(t, err, "sort", "status")

	_, err = ParsePostListQuery(url.Values{"limit": {"abc"}}, true)
	requireFields(t, err, "limit")
}

func TestDecodeJSON(t *testing.T) {
	var patch PostPatch
	require.NoError(t, DecodeJSON(strings.NewReader(`{"title":"new","tags":["a"]}`), &patch))
	require.Equal(t, "new", *patch.Title)
	require.Nil(t, patch.Content)

	err := DecodeJSON(strings.NewReader(`{"title":"new","views":100}`), &PostPatch{})
	requireFields(t, err, "views")

	err = DecodeJSON(strings.NewReader(`{"title":1}`), &PostPatch{})
	requireFields(t, err, "title")

	err = DecodeJSON(strings.NewReader(`{"title":`), &PostPatch{})
	requireFields(t, err, "body")

	err = DecodeJSON(strings.NewReader(``), &PostPatch{})
	requireFields(t, err, "body")

	err = DecodeJSON(strings.NewReader(`{"category":"xyz","relatedPosts":["nope"]}`), &PostPatch{})
	requireFields(t, err, "category", "relatedPosts[0]")

	err = DecodeJSON(strings.NewReader(`{"externalLinks":[{"title":"","url":"not a url"}]}`), &PostPatch{})
	requireFields(t, err, "externalLinks[0].title", "externalLinks[0].url")
}

func TestDecodeCreateComment(t *testing.T) {
	var req CreateCommentRequest
	err := DecodeJSON(strings.NewReader(`{"author":"","email":"bad","content":"hi"}`), &req)
	requireFields(t, err, "author", "email")

	err = DecodeJSON(strings.NewReader(`{"author":"a","email":"a@b.co","content":"`+strings.Repeat("x", 1001)+`"}`), &req)
	requireFields(t, err, "content")

	require.NoError(t, DecodeJSON(strings.NewReader(`{"author":"a","email":"a@b.co","content":"hi"}`), &req))
}

func TestPostPatchApply(t *testing.T) {
	cat := primitive.NewObjectID()
	rel := primitive.NewObjectID()
	p := &model.Post{Title: "old", Content: "body", Tags: []string{"x"}, CommentsEnabled: true}

	title := "new"
	catHex := cat.Hex()
	off := false
	related := []string{rel.Hex()}
	patch := &PostPatch{Title: &title, Category: &catHex, CommentsEnabled: &off, RelatedPosts: &related}
	require.NoError(t, patch.Apply(p))

	require.Equal(t, "new", p.Title)
	require.Equal(t, "body", p.Content)
	require.Equal(t, []string{"x"}, p.Tags)
	require.Equal(t, cat, p.Category)
	require.False(t, p.CommentsEnabled)
	require.Equal(t, []primitive.ObjectID{rel}, p.RelatedPosts)
}

func TestCategoryPatchApply(t *testing.T) {
	parent := primitive.NewObjectID()
	c := &model.Category{Name: "Go", ParentCategory: &parent, IsActive: true}

	empty := ""
	inactive := false
	require.NoError(t, (&CategoryPatch{ParentCategory: &empty, IsActive: &inactive}).Apply(c))
	require.Nil(t, c.ParentCategory)
	require.False(t, c.IsActive)
	require.Equal(t, "Go", c.Name)

	hex := parent.Hex()
	require.NoError(t, (&CategoryPatch{ParentCategory: &hex}).Apply(c))
	require.Equal(t, parent, *c.ParentCategory)
}

func TestPostViewJSON(t *testing.T) {
	catID := primitive.NewObjectID()
	p := &model.Post{Title: "t", Content: "long body", Category: catID}
	cat := &model.Category{ID: catID, Name: "Go", Slug: "go", Color: "#fff"}

	raw, err := json.Marshal(NewPostView(p, cat, false))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.NotContains(t, got, "content")
	require.Equal(t, "go", got["category"].(map[string]any)["slug"])

	raw, err = json.Marshal(NewPostView(p, cat, true))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"content":"long body"`)
}

package dto

import (
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

// CreatePostRequest body of POST /posts.
// Length and enum rules of the post itself are checked when it is prepared
// for persistence, tags here only cover shapes the model cannot express.
// Fields that need parsing are named apart from model.Post so copier never
// fills them.
type CreatePostRequest struct {
	Title          string              `json:"title"`
	Content        string              `json:"content"`
	Excerpt        string              `json:"excerpt"`
	FeaturedImage  model.FeaturedImage `json:"featuredImage"`
	CategoryID     string              `json:"category" validate:"required,mongodb"`
	Tags           []string            `json:"tags" validate:"max=30"`
	Status         model.PostStatus    `json:"status"`
	ScheduledFor   *time.Time          `json:"scheduledFor"`
	SEO            model.PostSEO       `json:"seo"`
	ContentType    model.ContentType   `json:"contentType"`
	RelatedPostIDs []string            `json:"relatedPosts" validate:"omitempty,dive,mongodb"`
	AllowComments  *bool               `json:"commentsEnabled"`
	ExternalLinks  []model.Link        `json:"externalLinks" validate:"omitempty,dive"`
	AffiliateLinks []model.Link        `json:"affiliateLinks" validate:"omitempty,dive"`
	ShowAdSense    *bool               `json:"adSenseEnabled"`
}

// PostPatch body of PUT /posts/:id, nil fields are left untouched.
type PostPatch struct {
	Title           *string              `json:"title"`
	Content         *string              `json:"content"`
	Excerpt         *string              `json:"excerpt"`
	FeaturedImage   *model.FeaturedImage `json:"featuredImage"`
	Category        *string              `json:"category" validate:"omitempty,mongodb"`
	Tags            *[]string            `json:"tags" validate:"omitempty,max=30"`
	Status          *model.PostStatus    `json:"status"`
	ScheduledFor    *time.Time           `json:"scheduledFor"`
	SEO             *model.PostSEO       `json:"seo"`
	ContentType     *model.ContentType   `json:"contentType"`
	RelatedPosts    *[]string            `json:"relatedPosts" validate:"omitempty,dive,mongodb"`
	CommentsEnabled *bool                `json:"commentsEnabled"`
	ExternalLinks   *[]model.Link        `json:"externalLinks" validate:"omitempty,dive"`
	AffiliateLinks  *[]model.Link        `json:"affiliateLinks" validate:"omitempty,dive"`
	AdSenseEnabled  *bool                `json:"adSenseEnabled"`
	Analytics       *model.Analytics     `json:"analytics"`
}

// Apply copies every set field onto p.
func (pp *PostPatch) Apply(p *model.Post) error {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Content != nil {
		p.Content = *pp.Content
	}
	if pp.Excerpt != nil {
		p.Excerpt = *pp.Excerpt
	}
	if pp.FeaturedImage != nil {
		p.FeaturedImage = *pp.FeaturedImage
	}
	if pp.Category != nil {
		id, err := primitive.ObjectIDFromHex(*pp.Category)
		if err != nil {
			return model.Invalid("category", "must be a valid id")
		}
		p.Category = id
	}
	if pp.Tags != nil {
		p.Tags = *pp.Tags
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.ScheduledFor != nil {
		p.ScheduledFor = pp.ScheduledFor
	}
	if pp.SEO != nil {
		p.SEO = *pp.SEO
	}
	if pp.ContentType != nil {
		p.ContentType = *pp.ContentType
	}
	if pp.RelatedPosts != nil {
		ids, err := ParseObjectIDs("relatedPosts", *pp.RelatedPosts)
		if err != nil {
			return err
		}
		p.RelatedPosts = ids
	}
	if pp.CommentsEnabled != nil {
		p.CommentsEnabled = *pp.CommentsEnabled
	}
	if pp.ExternalLinks != nil {
		p.ExternalLinks = *pp.ExternalLinks
	}
	if pp.AffiliateLinks != nil {
		p.AffiliateLinks = *pp.AffiliateLinks
	}
	if pp.AdSenseEnabled != nil {
		p.AdSenseEnabled = *pp.AdSenseEnabled
	}
	if pp.Analytics != nil {
		p.Analytics = *pp.Analytics
	}

	return nil
}

// ParseObjectIDs converts hex ids, field names the failing input.
func ParseObjectIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, model.Invalid(field, "must contain valid ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// PostSort ordering of a post list
type PostSort string

const (
	PostSortLatest   PostSort = "latest"
	PostSortOldest   PostSort = "oldest"
	PostSortPopular  PostSort = "popular"
	PostSortTrending PostSort = "trending"
	PostSortTitle    PostSort = "title"
	PostSortViews    PostSort = "views"
)

var (
	publicPostSorts = []PostSort{PostSortLatest, PostSortOldest, PostSortPopular, PostSortTrending}
	adminPostSorts  = []PostSort{PostSortLatest, PostSortOldest, PostSortTitle, PostSortViews}
)

// PostListParams parsed query of the post list routes
type PostListParams struct {
	Page
	Admin bool
	// Category ObjectID hex or slug
	Category string
	Tags     []string
	Author   *primitive.ObjectID
	Search   string
	Sort     PostSort
	DateFrom *time.Time
	DateTo   *time.Time
	// Status only honoured for admins, public lists are always published
	Status model.PostStatus
}

// ParsePostListQuery validates the query string of GET /posts and
// GET /posts/admin. Nothing is queried when it returns an error.
func ParsePostListQuery(q url.Values, admin bool) (*PostListParams, error) {
	verr := new(model.ValidationError)
	params := &PostListParams{
		Page:     ParsePage(q, DefaultPageLimit, MaxPageLimit, verr),
		Admin:    admin,
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
		Sort:     PostSortLatest,
	}

	if len([]rune(params.Search)) > 200 {
		verr.Add("search", "must be at most 200 characters")
	}

	if raw := q.Get("tags"); raw != "" {
		params.Tags = splitTags(raw)
	}

	if raw := strings.TrimSpace(q.Get("author")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			verr.Add("author", "must be a valid id")
		} else {
			params.Author = &id
		}
	}

	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		allowed := publicPostSorts
		if admin {
			allowed = adminPostSorts
		}
		if !containsSort(allowed, PostSort(raw)) {
			verr.Add("sort", "must be one of %s", joinSorts(allowed))
		} else {
			params.Sort = PostSort(raw)
		}
	}

	var err error
	if params.DateFrom, err = parseDate(q.Get("dateFrom")); err != nil {
		verr.Add("dateFrom", "must be a date like 2006-01-02 or RFC3339")
	}
	if params.DateTo, err = parseDate(q.Get("dateTo")); err != nil {
		verr.Add("dateTo", "must be a date like 2006-01-02 or RFC3339")
	}

	if admin {
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			if !model.PostStatus(raw).Valid() {
				verr.Add("status", "must be one of [draft published archived]")
			} else {
				params.Status = model.PostStatus(raw)
			}
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return params, nil
}

// splitTags parses `a, B ,a` into [a b].
func splitTags(raw string) []string {
	var (
		tags []string
		seen = map[string]bool{}
	)
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, model.Invalid("date", "unknown format")
}

func containsSort(sorts []PostSort, s PostSort) bool {
	for _, v := range sorts {
		if v == s {
			return true
		}
	}
	return false
}

func joinSorts(sorts []PostSort) string {
	ss := make([]string, 0, len(sorts))
	for _, s := range sorts {
		ss = append(ss, string(s))
	}
	return "[" + strings.Join(ss, " ") + "]"
}

// SortField one key of a sort specification
type SortField struct {
	Field string
	Desc  bool
}

// PostFilter store-independent post filter, zero fields match everything.
type PostFilter struct {
	Status     model.PostStatus
	CategoryID *primitive.ObjectID
	// Tags matches posts carrying any of them
	Tags     []string
	AuthorID *primitive.ObjectID
	// Search case-insensitive substring over title, content, excerpt and tags
	Search        string
	PublishedFrom *time.Time
	PublishedTo   *time.Time
}

// PostQuery filter plus window
type PostQuery struct {
	Filter PostFilter
	Sort   []SortField
	Skip   int64
	Limit  int64
}

// CategorySummary populated category reference of a post
type CategorySummary struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Slug  string             `json:"slug"`
	Color string             `json:"color"`
}

// NewCategorySummary returns nil for a nil category
func NewCategorySummary(c *model.Category) *CategorySummary {
	if c == nil {
		return nil
	}
	return &CategorySummary{ID: c.ID, Name: c.Name, Slug: c.Slug, Color: c.Color}
}

// PostView post with its category populated. Content is omitted when empty,
// list views clear it.
type PostView struct {
	*model.Post
	Category *CategorySummary `json:"category"`
	Content  string           `json:"content,omitempty"`
}

// NewPostView builds a view, withContent is false for lists
func NewPostView(p *model.Post, cat *model.Category, withContent bool) *PostView {
	v := &PostView{
		Post:     p,
		Category: NewCategorySummary(cat),
	}
	if withContent {
		v.Content = p.Content
	}
	return v
}

// PostList response of the post list routes
type PostList struct {
	Posts      []*PostView    `json:"posts"`
	Pagination PostPagination `json:"pagination"`
}

// PostDetail response of GET /posts/:slug
type PostDetail struct {
	Post         *PostView   `json:"post"`
	RelatedPosts []*PostView `json:"relatedPosts"`
}

// LikeResult response of POST /posts/:id/like
type LikeResult struct {
	Likes int64 `json:"likes"`
}

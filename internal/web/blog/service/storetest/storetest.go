// Package storetest provides in-memory stores for tests.
package storetest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
)

// Store is an in-memory store evaluating the same filters the dao translates to bson.
// Fields may be read and tweaked directly by single goroutine tests.
type Store struct {
	mu         sync.Mutex
	Posts      map[primitive.ObjectID]*model.Post
	Categories map[primitive.ObjectID]*model.Category
	Comments   map[primitive.ObjectID]*model.Comment
	Contacts   []*model.Contact
	writes     int
}

// New returns an empty store
func New() *Store {
	return &Store{
		Posts:      map[primitive.ObjectID]*model.Post{},
		Categories: map[primitive.ObjectID]*model.Category{},
		Comments:   map[primitive.ObjectID]*model.Comment{},
	}
}

func (m *Store) InsertPost(_ context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.Posts {
		if o.Slug == p.Slug {
			return model.Conflict("post slug %q already exists", p.Slug)
		}
	}
	p.ID = primitive.NewObjectID()
	cp := *p
	m.Posts[p.ID] = &cp
	m.writes++
	return nil
}

func (m *Store) GetPostByID(_ context.Context, id primitive.ObjectID) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Posts[id]
	if !ok {
		return nil, model.NotFound("post not found")
	}
	cp := *p
	return &cp, nil
}

func (m *Store) GetPostBySlug(_ context.Context, slug string, status model.PostStatus) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Posts {
		if p.Slug == slug && (status == "" || p.Status == status) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, model.NotFound("post not found")
}

// SavePost keeps the stored counters, like the $set in the mongo store.
func (m *Store) SavePost(_ context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Posts[p.ID]
	if !ok {
		return model.NotFound("post not found")
	}
	for id, o := range m.Posts {
		if id != p.ID && o.Slug == p.Slug {
			return model.Conflict("post slug %q already exists", p.Slug)
		}
	}
	cp := *p
	cp.Views, cp.Likes, cp.CommentCount = old.Views, old.Likes, old.CommentCount
	m.Posts[p.ID] = &cp
	m.writes++
	return nil
}

func (m *Store) DeletePost(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Posts[id]; !ok {
		return model.NotFound("post not found")
	}
	delete(m.Posts, id)
	m.writes++
	return nil
}

func matchPost(p *model.Post, f *dto.PostFilter) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.CategoryID != nil && p.Category != *f.CategoryID {
		return false
	}
	if f.AuthorID != nil && p.Author != *f.AuthorID {
		return false
	}
	if len(f.Tags) != 0 {
		var hit bool
		for _, want := range f.Tags {
			for _, tag := range p.Tags {
				hit = hit || tag == want
			}
		}
		if !hit {
			return false
		}
	}
	if f.PublishedFrom != nil && (p.PublishedAt == nil || p.PublishedAt.Before(*f.PublishedFrom)) {
		return false
	}
	if f.PublishedTo != nil && (p.PublishedAt == nil || p.PublishedAt.After(*f.PublishedTo)) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		hay := strings.ToLower(strings.Join(append([]string{p.Title, p.Content, p.Excerpt}, p.Tags...), "\n"))
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

func comparePostField(a, b *model.Post, field string) int {
	cmpInt := func(x, y int64) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	cmpTime := func(x, y *time.Time) int {
		var xv, yv int64
		if x != nil {
			xv = x.UnixNano()
		}
		if y != nil {
			yv = y.UnixNano()
		}
		return cmpInt(xv, yv)
	}

	switch field {
	case "publishedAt":
		return cmpTime(a.PublishedAt, b.PublishedAt)
	case "createdAt":
		return cmpTime(&a.CreatedAt, &b.CreatedAt)
	case "views":
		return cmpInt(a.Views, b.Views)
	case "likes":
		return cmpInt(a.Likes, b.Likes)
	case "title":
		return strings.Compare(a.Title, b.Title)
	}
	panic("unknown sort field " + field)
}

func (m *Store) FindPosts(_ context.Context, q *dto.PostQuery) ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Post
	for _, p := range m.Posts {
		if matchPost(p, &q.Filter) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		for _, f := range q.Sort {
			c := comparePostField(out[i], out[j], f.Field)
			if f.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})

	return window(out, q.Skip, q.Limit), nil
}

func window[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return nil
	}
	items = items[skip:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

func (m *Store) CountPosts(_ context.Context, f *dto.PostFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.Posts {
		if matchPost(p, f) {
			n++
		}
	}
	return n, nil
}

func (m *Store) FindRelatedPosts(_ context.Context, p *model.Post, limit int64) ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Post
	for _, o := range m.Posts {
		if o.ID == p.ID || !o.IsPublished() {
			continue
		}
		related := o.Category == p.Category
		for _, t := range o.Tags {
			for _, pt := range p.Tags {
				related = related || t == pt
			}
		}
		for _, id := range p.RelatedPosts {
			related = related || id == o.ID
		}
		if related {
			cp := *o
			cp.Content = ""
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	return window(out, 0, limit), nil
}

func (m *Store) IncPostCounter(_ context.Context, id primitive.ObjectID, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Posts[id]
	if !ok {
		return 0, model.NotFound("post not found")
	}
	switch field {
	case "views":
		p.Views += delta
		return p.Views, nil
	case "likes":
		p.Likes += delta
		return p.Likes, nil
	case "commentCount":
		p.CommentCount += delta
		return p.CommentCount, nil
	}
	return 0, errors.Errorf("unknown counter %q", field)
}

func (m *Store) TagHistogram(_ context.Context, limit int64) ([]model.TagCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, p := range m.Posts {
		if p.IsPublished() {
			for _, t := range p.Tags {
				counts[t]++
			}
		}
	}
	out := make([]model.TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, model.TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return window(out, 0, limit), nil
}

func (m *Store) CountPostsByCategory(_ context.Context, id primitive.ObjectID) (int64, error) {
	return m.CountPosts(context.Background(), &dto.PostFilter{CategoryID: &id})
}

func (m *Store) InsertCategory(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.Categories {
		if o.Slug == c.Slug || o.Name == c.Name {
			return model.Conflict("category %q already exists", c.Name)
		}
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	m.Categories[c.ID] = &cp
	m.writes++
	return nil
}

func (m *Store) GetCategoryByID(_ context.Context, id primitive.ObjectID) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Categories[id]
	if !ok {
		return nil, model.NotFound("category not found")
	}
	cp := *c
	return &cp, nil
}

func (m *Store) GetCategoryBySlug(_ context.Context, slug string, activeOnly bool) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Categories {
		if c.Slug == slug && (!activeOnly || c.IsActive) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, model.NotFound("category not found")
}

func (m *Store) ReplaceCategory(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[c.ID]; !ok {
		return model.NotFound("category not found")
	}
	cp := *c
	m.Categories[c.ID] = &cp
	m.writes++
	return nil
}

func (m *Store) DeleteCategory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[id]; !ok {
		return model.NotFound("category not found")
	}
	delete(m.Categories, id)
	m.writes++
	return nil
}

func (m *Store) filterCategories(keep func(*model.Category) bool) []*model.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Category
	for _, c := range m.Categories {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (m *Store) ListCategories(_ context.Context, activeOnly bool) ([]*model.Category, error) {
	return m.filterCategories(func(c *model.Category) bool { return !activeOnly || c.IsActive }), nil
}

func (m *Store) ListSubcategories(_ context.Context, parentID primitive.ObjectID, activeOnly bool) ([]*model.Category, error) {
	return m.filterCategories(func(c *model.Category) bool {
		return c.ParentCategory != nil && *c.ParentCategory == parentID && (!activeOnly || c.IsActive)
	}), nil
}

func (m *Store) GetCategoriesByIDs(_ context.Context, ids []primitive.ObjectID) ([]*model.Category, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return m.filterCategories(func(c *model.Category) bool { return want[c.ID] }), nil
}

func (m *Store) CountSubcategories(ctx context.Context, id primitive.ObjectID) (int64, error) {
	subs, err := m.ListSubcategories(ctx, id, false)
	return int64(len(subs)), err
}

func (m *Store) CategoryStats(_ context.Context, publishedOnly bool) ([]model.CategoryStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := map[primitive.ObjectID]*model.CategoryStat{}
	for _, p := range m.Posts {
		if publishedOnly && !p.IsPublished() {
			continue
		}
		st, ok := stats[p.Category]
		if !ok {
			st = &model.CategoryStat{ID: p.Category}
			stats[p.Category] = st
		}
		st.PostCount++
		st.TotalViews += p.Views
	}
	out := make([]model.CategoryStat, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	return out, nil
}

func (m *Store) InsertComment(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID()
	cp := *c
	m.Comments[c.ID] = &cp
	m.writes++
	return nil
}

func (m *Store) GetCommentByID(_ context.Context, id primitive.ObjectID) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return nil, model.NotFound("comment not found")
	}
	cp := *c
	return &cp, nil
}

func (m *Store) ApproveComment(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return false, model.NotFound("comment not found")
	}
	if c.IsApproved {
		return false, nil
	}
	c.IsApproved = true
	m.writes++
	return true, nil
}

func matchComment(c *model.Comment, f *dto.CommentFilter) bool {
	if f.PostID != nil && c.PostID != *f.PostID {
		return false
	}
	if f.Approved != nil && c.IsApproved != *f.Approved {
		return false
	}
	if f.RootOnly && c.ParentID != nil {
		return false
	}
	if f.ParentIDs != nil {
		if c.ParentID == nil {
			return false
		}
		var hit bool
		for _, id := range f.ParentIDs {
			hit = hit || id == *c.ParentID
		}
		if !hit {
			return false
		}
	}
	return true
}

func (m *Store) FindComments(_ context.Context, q *dto.CommentQuery) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Comment
	for _, c := range m.Comments {
		if matchComment(c, &q.Filter) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if q.Oldest {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return window(out, q.Skip, q.Limit), nil
}

func (m *Store) CountComments(_ context.Context, f *dto.CommentFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.Comments {
		if matchComment(c, f) {
			n++
		}
	}
	return n, nil
}

func (m *Store) DeleteComments(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.Comments[id]; ok {
			delete(m.Comments, id)
			n++
		}
	}
	m.writes++
	return n, nil
}

func (m *Store) DeleteCommentsByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.Comments {
		if c.PostID == postID {
			delete(m.Comments, id)
			n++
		}
	}
	m.writes++
	return n, nil
}

func (m *Store) InsertContact(_ context.Context, c *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID()
	cp := *c
	m.Contacts = append(m.Contacts, &cp)
	return nil
}

// Writes counts successful mutations
func (m *Store) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Cache is an in-memory redis.Cache
type Cache struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{data: map[string][]byte{}}
}

func (c *Cache) GetJSON(_ context.Context, key string, v any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (c *Cache) SetJSON(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// Keys lists cached keys
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.data))
	for k := range c.data {
		out = append(out, k)
	}
	return out
}

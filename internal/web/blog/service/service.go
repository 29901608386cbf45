// Package service implements the blog's business rules on top of a store.
package service

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	glog "github.com/Laisky/go-utils/v6/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/library"
	"github.com/blogcms/blog-api/library/db/redis"
	"github.com/blogcms/blog-api/library/notify"
	"github.com/blogcms/blog-api/library/storage"
)

// PostStore persists posts
type PostStore interface {
	InsertPost(ctx context.Context, p *model.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	GetPostBySlug(ctx context.Context, slug string, status model.PostStatus) (*model.Post, error)
	SavePost(ctx context.Context, p *model.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	FindPosts(ctx context.Context, q *dto.PostQuery) ([]*model.Post, error)
	CountPosts(ctx context.Context, f *dto.PostFilter) (int64, error)
	FindRelatedPosts(ctx context.Context, p *model.Post, limit int64) ([]*model.Post, error)
	IncPostCounter(ctx context.Context, id primitive.ObjectID, field string, delta int64) (int64, error)
	TagHistogram(ctx context.Context, limit int64) ([]model.TagCount, error)
	CountPostsByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

// CategoryStore persists categories
type CategoryStore interface {
	InsertCategory(ctx context.Context, c *model.Category) error
	GetCategoryByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string, activeOnly bool) (*model.Category, error)
	ReplaceCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
	ListCategories(ctx context.Context, activeOnly bool) ([]*model.Category, error)
	ListSubcategories(ctx context.Context, parentID primitive.ObjectID, activeOnly bool) ([]*model.Category, error)
	GetCategoriesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Category, error)
	CountSubcategories(ctx context.Context, id primitive.ObjectID) (int64, error)
	CategoryStats(ctx context.Context, publishedOnly bool) ([]model.CategoryStat, error)
}

// CommentStore persists comments
type CommentStore interface {
	InsertComment(ctx context.Context, c *model.Comment) error
	GetCommentByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error)
	ApproveComment(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindComments(ctx context.Context, q *dto.CommentQuery) ([]*model.Comment, error)
	CountComments(ctx context.Context, f *dto.CommentFilter) (int64, error)
	DeleteComments(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}

// ContactStore persists contact messages
type ContactStore interface {
	InsertContact(ctx context.Context, c *model.Contact) error
}

// Store everything the service needs, implemented by dao.Blog
type Store interface {
	PostStore
	CategoryStore
	CommentStore
	ContactStore
}

// Blog is the blog service
type Blog struct {
	logger         glog.Logger
	store          Store
	cache          redis.Cache
	notifier       notify.Notifier
	files          storage.Store
	maxUploadBytes int64
	now            func() time.Time
}

// Option configures Blog
type Option func(*Blog) error

// WithCache caches aggregates, the default caches nothing
func WithCache(c redis.Cache) Option {
	return func(b *Blog) error {
		if c == nil {
			return errors.New("cache is nil")
		}
		b.cache = c
		return nil
	}
}

// WithNotifier delivers contact messages, the default drops them
func WithNotifier(n notify.Notifier) Option {
	return func(b *Blog) error {
		if n == nil {
			return errors.New("notifier is nil")
		}
		b.notifier = n
		return nil
	}
}

// WithFileStore enables uploads
func WithFileStore(s storage.Store, maxBytes int64) Option {
	return func(b *Blog) error {
		if s == nil {
			return errors.New("file store is nil")
		}
		if maxBytes <= 0 {
			return errors.Errorf("max upload bytes must be positive, got %d", maxBytes)
		}
		b.files = s
		b.maxUploadBytes = maxBytes
		return nil
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(b *Blog) error {
		b.now = now
		return nil
	}
}

// New create blog service
func New(logger glog.Logger, store Store, opts ...Option) (*Blog, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}

	b := &Blog{
		logger:         logger.Named("blog_service"),
		store:          store,
		cache:          redis.Nop{},
		notifier:       notify.Nop{},
		maxUploadBytes: DefaultMaxUploadBytes,
		now:            library.UTCNow,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	return b, nil
}

// loggerFrom prefers the request logger carried by ctx
func (s *Blog) loggerFrom(ctx context.Context) glog.Logger {
	if ctx != nil {
		if logger := gmw.GetLogger(ctx); logger != nil {
			return logger
		}
	}
	return s.logger
}

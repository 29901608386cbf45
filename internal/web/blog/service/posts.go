package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/library/auth"
	"github.com/blogcms/blog-api/library/db/redis"
)

const (
	// DefaultTrendingLimit posts returned by Trending when no limit is given
	DefaultTrendingLimit = 5
	// MaxTrendingLimit upper bound of Trending's limit
	MaxTrendingLimit = 20
	// relatedPostsLimit posts attached to a post detail
	relatedPostsLimit = 3
	// tagHistogramLimit tags returned by Tags
	tagHistogramLimit = 50
)

// ListPosts returns one page of posts matching params.
func (s *Blog) ListPosts(ctx context.Context, params *dto.PostListParams) (*dto.PostList, error) {
	list := &dto.PostList{Posts: []*dto.PostView{}}

	q, ok, err := s.buildPostQuery(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "build post query")
	}
	if !ok {
		list.Pagination = dto.PostPagination{PageInfo: dto.NewPageInfo(params.Page.Page, params.Limit, 0)}
		return list, nil
	}

	var (
		posts []*model.Post
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if posts, err = s.store.FindPosts(gctx, q); err != nil {
			return errors.Wrap(err, "find posts")
		}
		return nil
	})
	g.Go(func() (err error) {
		if total, err = s.store.CountPosts(gctx, &q.Filter); err != nil {
			return errors.Wrap(err, "count posts")
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	if list.Posts, err = s.postViews(ctx, posts, false); err != nil {
		return nil, err
	}
	list.Pagination = dto.PostPagination{
		PageInfo:   dto.NewPageInfo(params.Page.Page, params.Limit, total),
		TotalPosts: total,
	}
	return list, nil
}

// Trending returns the most viewed posts published within the trending window.
func (s *Blog) Trending(ctx context.Context, limit int64) ([]*dto.PostView, error) {
	if limit == 0 {
		limit = DefaultTrendingLimit
	}
	if limit < 1 || limit > MaxTrendingLimit {
		return nil, model.Invalid("limit", "must be an integer between 1 and %d", MaxTrendingLimit)
	}

	posts, err := s.store.FindPosts(ctx, &dto.PostQuery{
		Filter: dto.PostFilter{
			Status:        model.PostStatusPublished,
			PublishedFrom: trendingSince(nil, s.now()),
		},
		Sort:  postSort(dto.PostSortTrending, false),
		Limit: limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "find trending posts")
	}

	return s.postViews(ctx, posts, false)
}

// Tags returns the most used tags of published posts.
func (s *Blog) Tags(ctx context.Context) ([]model.TagCount, error) {
	logger := s.loggerFrom(ctx)

	var tags []model.TagCount
	if ok, err := s.cache.GetJSON(ctx, redis.KeyTagHistogram, &tags); err != nil {
		logger.Warn("read tag histogram from cache", zap.Error(err))
	} else if ok {
		return tags, nil
	}

	tags, err := s.store.TagHistogram(ctx, tagHistogramLimit)
	if err != nil {
		return nil, errors.Wrap(err, "load tag histogram")
	}
	if tags == nil {
		tags = []model.TagCount{}
	}

	if err = s.cache.SetJSON(ctx, redis.KeyTagHistogram, tags); err != nil {
		logger.Warn("write tag histogram to cache", zap.Error(err))
	}
	return tags, nil
}

// GetPostBySlug returns a published post with a few related posts.
//
// Every read except the author's own counts as a view.
func (s *Blog) GetPostBySlug(ctx context.Context, slug string, caller *auth.Identity) (*dto.PostDetail, error) {
	post, err := s.store.GetPostBySlug(ctx, slug, model.PostStatusPublished)
	if err != nil {
		return nil, errors.Wrapf(err, "get post %q", slug)
	}

	if caller == nil || caller.UserID != post.Author.Hex() {
		views, err := s.store.IncPostCounter(ctx, post.ID, "views", 1)
		if err != nil {
			return nil, errors.Wrap(err, "count view")
		}
		post.Views = views
	}

	related, err := s.store.FindRelatedPosts(ctx, post, relatedPostsLimit)
	if err != nil {
		return nil, errors.Wrap(err, "find related posts")
	}

	views, err := s.postViews(ctx, append([]*model.Post{post}, related...), false)
	if err != nil {
		return nil, err
	}
	views[0].Content = post.Content

	return &dto.PostDetail{Post: views[0], RelatedPosts: views[1:]}, nil
}

// GetPost returns any post by id, for admins.
func (s *Blog) GetPost(ctx context.Context, id primitive.ObjectID) (*dto.PostView, error) {
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get post %s", id.Hex())
	}
	return s.postView(ctx, post)
}

// CreatePost stores a new post written by caller.
func (s *Blog) CreatePost(ctx context.Context, caller *auth.Identity,
	req *dto.CreatePostRequest) (*dto.PostView, error) {
	authorID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Author:          authorID,
		CommentsEnabled: true,
		AdSenseEnabled:  true,
	}
	if err = copier.Copy(post, req); err != nil {
		return nil, errors.Wrap(err, "copy post request")
	}
	if post.Category, err = primitive.ObjectIDFromHex(req.CategoryID); err != nil {
		return nil, model.Invalid("category", "must be a valid id")
	}
	if post.RelatedPosts, err = dto.ParseObjectIDs("relatedPosts", req.RelatedPostIDs); err != nil {
		return nil, err
	}
	if req.AllowComments != nil {
		post.CommentsEnabled = *req.AllowComments
	}
	if req.ShowAdSense != nil {
		post.AdSenseEnabled = *req.ShowAdSense
	}
	if post.ExternalLinks == nil {
		post.ExternalLinks = []model.Link{}
	}
	if post.AffiliateLinks == nil {
		post.AffiliateLinks = []model.Link{}
	}

	if err = s.requireCategory(ctx, post.Category); err != nil {
		return nil, err
	}
	if err = PreparePost(nil, post, s.now()); err != nil {
		return nil, err
	}
	if err = s.store.InsertPost(ctx, post); err != nil {
		return nil, errors.Wrap(err, "insert post")
	}

	s.invalidatePostCaches(ctx)
	s.loggerFrom(ctx).Info("post created",
		zap.String("id", post.ID.Hex()), zap.String("slug", post.Slug))
	return s.postView(ctx, post)
}

// UpdatePost applies patch to the stored post.
func (s *Blog) UpdatePost(ctx context.Context, id primitive.ObjectID, patch *dto.PostPatch) (*dto.PostView, error) {
	prev, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get post %s", id.Hex())
	}

	next := *prev
	if err = patch.Apply(&next); err != nil {
		return nil, err
	}
	if next.Category != prev.Category {
		if err = s.requireCategory(ctx, next.Category); err != nil {
			return nil, err
		}
	}
	if err = PreparePost(prev, &next, s.now()); err != nil {
		return nil, err
	}
	if err = s.store.SavePost(ctx, &next); err != nil {
		return nil, errors.Wrapf(err, "save post %s", id.Hex())
	}
	s.invalidatePostCaches(ctx)

	// counters may have moved since prev was read
	saved, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "reload post %s", id.Hex())
	}
	return s.postView(ctx, saved)
}

// DeletePost removes a post together with its comments.
func (s *Blog) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeletePost(ctx, id); err != nil {
		return errors.Wrapf(err, "delete post %s", id.Hex())
	}

	n, err := s.store.DeleteCommentsByPost(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "delete comments of post %s", id.Hex())
	}

	s.invalidatePostCaches(ctx)
	s.loggerFrom(ctx).Info("post deleted",
		zap.String("id", id.Hex()), zap.Int64("comments", n))
	return nil
}

// LikePost adds one like and returns the new total.
func (s *Blog) LikePost(ctx context.Context, id primitive.ObjectID) (int64, error) {
	likes, err := s.store.IncPostCounter(ctx, id, "likes", 1)
	if err != nil {
		return 0, errors.Wrapf(err, "like post %s", id.Hex())
	}
	return likes, nil
}

func (s *Blog) requireCategory(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.store.GetCategoryByID(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Invalid("category", "does not exist")
		}
		return errors.Wrapf(err, "get category %s", id.Hex())
	}
	return nil
}

func (s *Blog) postView(ctx context.Context, post *model.Post) (*dto.PostView, error) {
	views, err := s.postViews(ctx, []*model.Post{post}, true)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// postViews attaches category summaries to posts
func (s *Blog) postViews(ctx context.Context, posts []*model.Post, withContent bool) ([]*dto.PostView, error) {
	ids := make([]primitive.ObjectID, 0, len(posts))
	seen := map[primitive.ObjectID]bool{}
	for _, p := range posts {
		if !seen[p.Category] {
			seen[p.Category] = true
			ids = append(ids, p.Category)
		}
	}

	cats := map[primitive.ObjectID]*model.Category{}
	if len(ids) != 0 {
		found, err := s.store.GetCategoriesByIDs(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "load categories of posts")
		}
		for _, c := range found {
			cats[c.ID] = c
		}
	}

	views := make([]*dto.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, dto.NewPostView(p, cats[p.Category], withContent))
	}
	return views, nil
}

func (s *Blog) invalidatePostCaches(ctx context.Context) {
	if err := s.cache.Delete(ctx,
		redis.KeyTagHistogram,
		redis.KeyCategoryCountsActive,
		redis.KeyCategoryCountsAll,
	); err != nil {
		s.loggerFrom(ctx).Warn("invalidate post caches", zap.Error(err))
	}
}

func callerID(caller *auth.Identity) (primitive.ObjectID, error) {
	if caller == nil {
		return primitive.NilObjectID, model.Unauthorized("authentication required")
	}
	id, err := primitive.ObjectIDFromHex(caller.UserID)
	if err != nil {
		return primitive.NilObjectID, model.Unauthorized("token subject is not a user id")
	}
	return id, nil
}

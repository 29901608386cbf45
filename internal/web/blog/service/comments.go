package service

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
)

// maxReplyDepth bounds how deep replies are loaded and deleted
const maxReplyDepth = 32

// buildCommentTree organizes comments into a tree structure,
// comments whose parent is not in the slice are dropped
func buildCommentTree(roots, replies []*model.Comment) []*model.Comment {
	commentMap := make(map[primitive.ObjectID]*model.Comment, len(roots)+len(replies))
	for _, c := range roots {
		commentMap[c.ID] = c
	}
	for _, c := range replies {
		commentMap[c.ID] = c
	}

	for _, c := range replies {
		if c.ParentID == nil {
			continue
		}
		if parent, ok := commentMap[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}

	return roots
}

// ListComments returns one page of approved top-level comments of a
// published post, each with its approved replies nested oldest first.
func (s *Blog) ListComments(ctx context.Context, postID primitive.ObjectID, page dto.Page) (*dto.CommentList, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, errors.Wrapf(err, "get post %s", postID.Hex())
	}
	if !post.IsPublished() {
		return nil, model.NotFound("post not found")
	}

	approved := true
	filter := dto.CommentFilter{PostID: &postID, Approved: &approved, RootOnly: true}

	var (
		roots []*model.Comment
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if roots, err = s.store.FindComments(gctx, &dto.CommentQuery{
			Filter: filter,
			Skip:   page.Skip(),
			Limit:  page.Limit,
		}); err != nil {
			return errors.Wrap(err, "find comments")
		}
		return nil
	})
	g.Go(func() (err error) {
		if total, err = s.store.CountComments(gctx, &filter); err != nil {
			return errors.Wrap(err, "count comments")
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	replies, err := s.loadReplies(ctx, roots, &approved)
	if err != nil {
		return nil, err
	}

	for _, c := range roots {
		c.Email = ""
	}
	for _, c := range replies {
		c.Email = ""
	}
	if roots == nil {
		roots = []*model.Comment{}
	}

	return &dto.CommentList{
		Comments: buildCommentTree(roots, replies),
		Pagination: dto.CommentPagination{
			PageInfo:      dto.NewPageInfo(page.Page, page.Limit, total),
			TotalComments: total,
		},
	}, nil
}

// loadReplies walks down from parents one level at a time
func (s *Blog) loadReplies(ctx context.Context, parents []*model.Comment, approved *bool) ([]*model.Comment, error) {
	var all []*model.Comment
	frontier := make([]primitive.ObjectID, 0, len(parents))
	for _, p := range parents {
		frontier = append(frontier, p.ID)
	}

	for depth := 0; len(frontier) != 0 && depth < maxReplyDepth; depth++ {
		level, err := s.store.FindComments(ctx, &dto.CommentQuery{
			Filter: dto.CommentFilter{Approved: approved, ParentIDs: frontier},
			Oldest: true,
		})
		if err != nil {
			return nil, errors.Wrap(err, "find replies")
		}

		frontier = make([]primitive.ObjectID, 0, len(level))
		for _, c := range level {
			frontier = append(frontier, c.ID)
		}
		all = append(all, level...)
	}

	return all, nil
}

// CreateComment stores a comment awaiting moderation.
func (s *Blog) CreateComment(ctx context.Context, postID primitive.ObjectID,
	req *dto.CreateCommentRequest) (*model.Comment, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, errors.Wrapf(err, "get post %s", postID.Hex())
	}
	if !post.IsPublished() {
		return nil, model.NotFound("post not found")
	}
	if !post.CommentsEnabled {
		return nil, model.Forbidden("comments are disabled for this post")
	}

	verr := new(model.ValidationError)
	now := s.now()
	c := &model.Comment{
		PostID:    postID,
		Author:    checkRequired(verr, "author", req.Author, maxCommentAuthorNameLen),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Content:   checkRequired(verr, "content", req.Content, maxCommentContentLength),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = verr.Err(); err != nil {
		return nil, err
	}

	if req.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			return nil, model.Invalid("parentId", "must be a valid id")
		}
		parent, err := s.store.GetCommentByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.Invalid("parentId", "does not exist")
			}
			return nil, errors.Wrapf(err, "get parent comment %s", parentID.Hex())
		}
		if parent.PostID != postID {
			return nil, model.Invalid("parentId", "belongs to another post")
		}
		c.ParentID = &parentID
	}

	if err = s.store.InsertComment(ctx, c); err != nil {
		return nil, errors.Wrap(err, "insert comment")
	}

	s.loggerFrom(ctx).Info("comment awaiting moderation",
		zap.String("id", c.ID.Hex()), zap.String("post", postID.Hex()))
	return c, nil
}

// PendingComments returns comments awaiting moderation, newest first.
func (s *Blog) PendingComments(ctx context.Context, page dto.Page) (*dto.CommentList, error) {
	approved := false
	filter := dto.CommentFilter{Approved: &approved}

	comments, err := s.store.FindComments(ctx, &dto.CommentQuery{
		Filter: filter,
		Skip:   page.Skip(),
		Limit:  page.Limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "find pending comments")
	}
	total, err := s.store.CountComments(ctx, &filter)
	if err != nil {
		return nil, errors.Wrap(err, "count pending comments")
	}
	if comments == nil {
		comments = []*model.Comment{}
	}

	return &dto.CommentList{
		Comments: comments,
		Pagination: dto.CommentPagination{
			PageInfo:      dto.NewPageInfo(page.Page, page.Limit, total),
			TotalComments: total,
		},
	}, nil
}

// ApproveComment publishes a comment, approving twice changes nothing.
func (s *Blog) ApproveComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	c, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get comment %s", id.Hex())
	}

	changed, err := s.store.ApproveComment(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "approve comment %s", id.Hex())
	}
	if changed {
		if _, err = s.store.IncPostCounter(ctx, c.PostID, "commentCount", 1); err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				return nil, errors.Wrap(err, "count approved comment")
			}
			s.loggerFrom(ctx).Warn("approved comment of missing post",
				zap.String("id", id.Hex()), zap.String("post", c.PostID.Hex()))
		}
	}

	c.IsApproved = true
	c.UpdatedAt = s.now()
	return c, nil
}

// DeleteComment removes a comment with every reply beneath it
// and returns how many comments were removed.
func (s *Blog) DeleteComment(ctx context.Context, id primitive.ObjectID) (int64, error) {
	c, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return 0, errors.Wrapf(err, "get comment %s", id.Hex())
	}

	replies, err := s.loadReplies(ctx, []*model.Comment{c}, nil)
	if err != nil {
		return 0, err
	}

	ids := []primitive.ObjectID{c.ID}
	var approved int64
	if c.IsApproved {
		approved++
	}
	for _, r := range replies {
		ids = append(ids, r.ID)
		if r.IsApproved {
			approved++
		}
	}

	deleted, err := s.store.DeleteComments(ctx, ids)
	if err != nil {
		return 0, errors.Wrap(err, "delete comments")
	}

	if approved > 0 {
		if _, err = s.store.IncPostCounter(ctx, c.PostID, "commentCount", -approved); err != nil &&
			!errors.Is(err, model.ErrNotFound) {
			return 0, errors.Wrap(err, "uncount deleted comments")
		}
	}

	s.loggerFrom(ctx).Info("comments deleted",
		zap.String("id", id.Hex()), zap.Int64("deleted", deleted))
	return deleted, nil
}

package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/library"
)

// InsertComment inserts c and sets its ID.
func (d *Blog) InsertComment(ctx context.Context, c *model.Comment) error {
	ret, err := d.GetCommentsCol().InsertOne(ctx, c)
	if err != nil {
		return errors.Wrap(err, "insert comment")
	}

	c.ID = ret.InsertedID.(primitive.ObjectID)
	return nil
}

// GetCommentByID load comment by id
func (d *Blog) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	c := new(model.Comment)
	if err := d.GetCommentsCol().
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).
		Decode(c); err != nil {
		return nil, notFoundOr(err, model.NotFound("comment not found"), "find comment by id")
	}

	return c, nil
}

// ApproveComment marks id approved, returns false if it already was.
// The check and the update are one operation, so concurrent approvals
// report true only once.
func (d *Blog) ApproveComment(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ret, err := d.GetCommentsCol().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "isApproved", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "isApproved", Value: true},
			{Key: "updatedAt", Value: library.UTCNow()},
		}}},
	)
	if err != nil {
		return false, errors.Wrap(err, "approve comment")
	}

	return ret.ModifiedCount > 0, nil
}

// FindComments load comments matching q
func (d *Blog) FindComments(ctx context.Context, q *dto.CommentQuery) ([]*model.Comment, error) {
	dir := -1
	if q.Oldest {
		dir = 1
	}
	opt := options.Find().SetSort(bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}})
	if q.Skip > 0 {
		opt.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opt.SetLimit(q.Limit)
	}

	cur, err := d.GetCommentsCol().Find(ctx, commentFilterBSON(&q.Filter), opt)
	if err != nil {
		return nil, errors.Wrap(err, "find comments")
	}
	defer cur.Close(ctx) //nolint:errcheck

	comments := []*model.Comment{}
	if err = cur.All(ctx, &comments); err != nil {
		return nil, errors.Wrap(err, "load comments")
	}

	return comments, nil
}

// CountComments count comments matching f
func (d *Blog) CountComments(ctx context.Context, f *dto.CommentFilter) (int64, error) {
	n, err := d.GetCommentsCol().CountDocuments(ctx, commentFilterBSON(f))
	if err != nil {
		return 0, errors.Wrap(err, "count comments")
	}

	return n, nil
}

// DeleteComments delete comments by ids, returns how many were removed
func (d *Blog) DeleteComments(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ret, err := d.GetCommentsCol().DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return 0, errors.Wrap(err, "delete comments")
	}

	return ret.DeletedCount, nil
}

// DeleteCommentsByPost delete every comment of a post
func (d *Blog) DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	ret, err := d.GetCommentsCol().DeleteMany(ctx, bson.D{{Key: "postId", Value: postID}})
	if err != nil {
		return 0, errors.Wrap(err, "delete comments of post")
	}

	return ret.DeletedCount, nil
}

package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/library/db/mongo"
)

// counters that may be changed with IncPostCounter
var postCounters = map[string]bool{
	"views":        true,
	"likes":        true,
	"commentCount": true,
}

// InsertPost inserts p and sets its ID.
func (d *Blog) InsertPost(ctx context.Context, p *model.Post) error {
	ret, err := d.GetPostsCol().InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKey(err) {
			return model.Conflict("post slug %q already exists", p.Slug)
		}
		return errors.Wrap(err, "insert post")
	}

	p.ID = ret.InsertedID.(primitive.ObjectID)
	return nil
}

// GetPostByID load post by id
func (d *Blog) GetPostByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	p := new(model.Post)
	if err := d.GetPostsCol().
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).
		Decode(p); err != nil {
		return nil, notFoundOr(err, model.NotFound("post not found"), "find post by id")
	}

	return p, nil
}

// GetPostBySlug load post by slug, an empty status matches any status
func (d *Blog) GetPostBySlug(ctx context.Context, slug string, status model.PostStatus) (*model.Post, error) {
	filter := bson.D{{Key: "slug", Value: slug}}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}

	p := new(model.Post)
	if err := d.GetPostsCol().FindOne(ctx, filter).Decode(p); err != nil {
		return nil, notFoundOr(err, model.NotFound("post %q not found", slug), "find post by slug")
	}

	return p, nil
}

// postSetDoc marshals p into a $set document without _id and the counters,
// which only ever change through IncPostCounter.
func postSetDoc(p *model.Post) (bson.D, error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "marshal post")
	}
	var doc bson.D
	if err = bson.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal post")
	}

	set := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key == "_id" || postCounters[e.Key] {
			continue
		}
		set = append(set, e)
	}

	return set, nil
}

// SavePost writes every field of p except the counters, so increments
// landing between a read and this write are kept.
func (d *Blog) SavePost(ctx context.Context, p *model.Post) error {
	set, err := postSetDoc(p)
	if err != nil {
		return err
	}

	ret, err := d.GetPostsCol().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: p.ID}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		if mongo.IsDuplicateKey(err) {
			return model.Conflict("post slug %q already exists", p.Slug)
		}
		return errors.Wrap(err, "save post")
	}
	if ret.MatchedCount == 0 {
		return model.NotFound("post not found")
	}

	return nil
}

// DeletePost delete post by id
func (d *Blog) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	ret, err := d.GetPostsCol().DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return errors.Wrap(err, "delete post")
	}
	if ret.DeletedCount == 0 {
		return model.NotFound("post not found")
	}

	return nil
}

// FindPosts load one window of posts
func (d *Blog) FindPosts(ctx context.Context, q *dto.PostQuery) ([]*model.Post, error) {
	opt := options.Find().SetSort(sortBSON(q.Sort))
	if q.Skip > 0 {
		opt.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opt.SetLimit(q.Limit)
	}

	cur, err := d.GetPostsCol().Find(ctx, postFilterBSON(&q.Filter), opt)
	if err != nil {
		return nil, errors.Wrap(err, "find posts")
	}
	defer cur.Close(ctx) //nolint:errcheck

	posts := []*model.Post{}
	if err = cur.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "load posts")
	}

	return posts, nil
}

// CountPosts count posts matching f
func (d *Blog) CountPosts(ctx context.Context, f *dto.PostFilter) (int64, error) {
	n, err := d.GetPostsCol().CountDocuments(ctx, postFilterBSON(f))
	if err != nil {
		return 0, errors.Wrap(err, "count posts")
	}

	return n, nil
}

// FindRelatedPosts loads published posts sharing p's category or any of
// its tags, or explicitly listed in p.RelatedPosts. p itself is excluded.
func (d *Blog) FindRelatedPosts(ctx context.Context, p *model.Post, limit int64) ([]*model.Post, error) {
	or := bson.A{bson.D{{Key: "category", Value: p.Category}}}
	if len(p.Tags) != 0 {
		or = append(or, bson.D{{Key: "tags", Value: bson.D{{Key: "$in", Value: p.Tags}}}})
	}
	if len(p.RelatedPosts) != 0 {
		or = append(or, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: p.RelatedPosts}}}})
	}

	filter := bson.D{
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: p.ID}}},
		{Key: "status", Value: model.PostStatusPublished},
		{Key: "$or", Value: or},
	}
	cur, err := d.GetPostsCol().Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.D{{Key: "content", Value: 0}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find related posts")
	}
	defer cur.Close(ctx) //nolint:errcheck

	posts := []*model.Post{}
	if err = cur.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "load related posts")
	}

	return posts, nil
}

// IncPostCounter atomically adds delta to one of the post counters and
// returns the new value.
func (d *Blog) IncPostCounter(ctx context.Context, id primitive.ObjectID, field string, delta int64) (int64, error) {
	if !postCounters[field] {
		return 0, errors.Errorf("unknown post counter %q", field)
	}

	doc := bson.M{}
	if err := d.GetPostsCol().FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: field, Value: delta}}}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.D{{Key: field, Value: 1}}),
	).Decode(&doc); err != nil {
		return 0, notFoundOr(err, model.NotFound("post not found"), "inc post counter")
	}

	return counterValue(field, doc[field])
}

// counterValue reads a numeric counter decoded from bson
func counterValue(field string, v any) (int64, error) {
	switch n := v.(type) {
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, errors.Errorf("unexpected type %T of post counter %q", v, field)
	}
}

// TagHistogram counts tags over published posts, most used first.
func (d *Blog) TagHistogram(ctx context.Context, limit int64) ([]model.TagCount, error) {
	pipeline := mongoLib.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: model.PostStatusPublished}}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tags"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cur, err := d.GetPostsCol().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate tags")
	}
	defer cur.Close(ctx) //nolint:errcheck

	tags := []model.TagCount{}
	if err = cur.All(ctx, &tags); err != nil {
		return nil, errors.Wrap(err, "load tags")
	}

	return tags, nil
}

// CountPostsByCategory number of posts in a category, of any status
func (d *Blog) CountPostsByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	n, err := d.GetPostsCol().CountDocuments(ctx, bson.D{{Key: "category", Value: categoryID}})
	if err != nil {
		return 0, errors.Wrap(err, "count posts by category")
	}

	return n, nil
}

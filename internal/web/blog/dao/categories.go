package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/library/db/mongo"
)

// categorySort sortOrder asc, then name asc
var categorySort = bson.D{{Key: "sortOrder", Value: 1}, {Key: "name", Value: 1}}

func categoryConflict(err error, c *model.Category, msg string) error {
	if mongo.IsDuplicateKey(err) {
		return model.Conflict("category name %q or slug %q already exists", c.Name, c.Slug)
	}
	return errors.Wrap(err, msg)
}

// InsertCategory inserts c and sets its ID.
func (d *Blog) InsertCategory(ctx context.Context, c *model.Category) error {
	ret, err := d.GetCategoriesCol().InsertOne(ctx, c)
	if err != nil {
		return categoryConflict(err, c, "insert category")
	}

	c.ID = ret.InsertedID.(primitive.ObjectID)
	return nil
}

// GetCategoryByID load category by id
func (d *Blog) GetCategoryByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	c := new(model.Category)
	if err := d.GetCategoriesCol().
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).
		Decode(c); err != nil {
		return nil, notFoundOr(err, model.NotFound("category not found"), "find category by id")
	}

	return c, nil
}

// GetCategoryBySlug load category by slug
func (d *Blog) GetCategoryBySlug(ctx context.Context, slug string, activeOnly bool) (*model.Category, error) {
	filter := bson.D{{Key: "slug", Value: slug}}
	if activeOnly {
		filter = append(filter, bson.E{Key: "isActive", Value: true})
	}

	c := new(model.Category)
	if err := d.GetCategoriesCol().FindOne(ctx, filter).Decode(c); err != nil {
		return nil, notFoundOr(err, model.NotFound("category %q not found", slug), "find category by slug")
	}

	return c, nil
}

// ReplaceCategory overwrites the stored category with c
func (d *Blog) ReplaceCategory(ctx context.Context, c *model.Category) error {
	ret, err := d.GetCategoriesCol().ReplaceOne(ctx, bson.D{{Key: "_id", Value: c.ID}}, c)
	if err != nil {
		return categoryConflict(err, c, "replace category")
	}
	if ret.MatchedCount == 0 {
		return model.NotFound("category not found")
	}

	return nil
}

// DeleteCategory delete category by id
func (d *Blog) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	ret, err := d.GetCategoriesCol().DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if ret.DeletedCount == 0 {
		return model.NotFound("category not found")
	}

	return nil
}

func (d *Blog) findCategories(ctx context.Context, filter bson.D) ([]*model.Category, error) {
	cur, err := d.GetCategoriesCol().Find(ctx, filter, options.Find().SetSort(categorySort))
	if err != nil {
		return nil, errors.Wrap(err, "find categories")
	}
	defer cur.Close(ctx) //nolint:errcheck

	cats := []*model.Category{}
	if err = cur.All(ctx, &cats); err != nil {
		return nil, errors.Wrap(err, "load categories")
	}

	return cats, nil
}

// ListCategories load all categories ordered by sortOrder and name
func (d *Blog) ListCategories(ctx context.Context, activeOnly bool) ([]*model.Category, error) {
	filter := bson.D{}
	if activeOnly {
		filter = append(filter, bson.E{Key: "isActive", Value: true})
	}

	return d.findCategories(ctx, filter)
}

// ListSubcategories load direct children of parentID
func (d *Blog) ListSubcategories(ctx context.Context, parentID primitive.ObjectID, activeOnly bool) ([]*model.Category, error) {
	filter := bson.D{{Key: "parentCategory", Value: parentID}}
	if activeOnly {
		filter = append(filter, bson.E{Key: "isActive", Value: true})
	}

	return d.findCategories(ctx, filter)
}

// GetCategoriesByIDs load categories by ids, missing ids are skipped
func (d *Blog) GetCategoriesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Category, error) {
	if len(ids) == 0 {
		return []*model.Category{}, nil
	}

	return d.findCategories(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
}

// CountSubcategories number of direct children of id
func (d *Blog) CountSubcategories(ctx context.Context, id primitive.ObjectID) (int64, error) {
	n, err := d.GetCategoriesCol().CountDocuments(ctx, bson.D{{Key: "parentCategory", Value: id}})
	if err != nil {
		return 0, errors.Wrap(err, "count subcategories")
	}

	return n, nil
}

// CategoryStats aggregates post count and views per category.
func (d *Blog) CategoryStats(ctx context.Context, publishedOnly bool) ([]model.CategoryStat, error) {
	pipeline := mongoLib.Pipeline{}
	if publishedOnly {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "status", Value: model.PostStatusPublished},
		}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$category"},
		{Key: "postCount", Value: bson.D{{Key: "$sum", Value: 1}}},
		{Key: "totalViews", Value: bson.D{{Key: "$sum", Value: "$views"}}},
	}}})

	cur, err := d.GetPostsCol().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate category stats")
	}
	defer cur.Close(ctx) //nolint:errcheck

	stats := []model.CategoryStat{}
	if err = cur.All(ctx, &stats); err != nil {
		return nil, errors.Wrap(err, "load category stats")
	}

	return stats, nil
}

// Package dao contains all the data access object used in the application.
package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogcms/blog-api/library/db/mongo"
)

const (
	colPosts      = "posts"
	colCategories = "categories"
	colComments   = "comments"
	colContacts   = "contacts"
)

// Blog dao type
type Blog struct {
	logger glog.Logger
	db     mongo.DB
}

// New create new dao
func New(logger glog.Logger, db mongo.DB) *Blog {
	return &Blog{
		logger: logger,
		db:     db,
	}
}

// GetPostsCol get posts collection
func (d *Blog) GetPostsCol() *mongoLib.Collection {
	return d.db.GetCol(colPosts)
}

// GetCategoriesCol get categories collection
func (d *Blog) GetCategoriesCol() *mongoLib.Collection {
	return d.db.GetCol(colCategories)
}

// GetCommentsCol get comments collection
func (d *Blog) GetCommentsCol() *mongoLib.Collection {
	return d.db.GetCol(colComments)
}

// GetContactsCol get contacts collection
func (d *Blog) GetContactsCol() *mongoLib.Collection {
	return d.db.GetCol(colContacts)
}

// indexes declares every index the application relies on.
// The unique ones are what actually guarantee unique slugs and names.
func indexes() map[string][]mongoLib.IndexModel {
	return map[string][]mongoLib.IndexModel{
		colPosts: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "publishedAt", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colCategories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "parentCategory", Value: 1}}},
			{Keys: bson.D{{Key: "sortOrder", Value: 1}, {Key: "name", Value: 1}}},
		},
		colComments: {
			{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "isApproved", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "parentId", Value: 1}}},
		},
		colContacts: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
}

// EnsureIndexes creates missing indexes, existing ones are left alone.
func (d *Blog) EnsureIndexes(ctx context.Context) error {
	for col, models := range indexes() {
		names, err := d.db.GetCol(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return errors.Wrapf(err, "create indexes for %q", col)
		}
		d.logger.Info("ensure indexes", zap.String("col", col), zap.Strings("indexes", names))
	}

	return nil
}

// notFoundOr translates the driver's no-document error into a model
// not-found error and wraps everything else.
func notFoundOr(err error, notFound error, msg string) error {
	if mongo.NotFound(err) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

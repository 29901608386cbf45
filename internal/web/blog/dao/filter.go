package dao

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
)

// postFilterBSON translates f into a mongo filter.
func postFilterBSON(f *dto.PostFilter) bson.D {
	filter := bson.D{}
	if f == nil {
		return filter
	}

	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.CategoryID != nil {
		filter = append(filter, bson.E{Key: "category", Value: *f.CategoryID})
	}
	if len(f.Tags) != 0 {
		filter = append(filter, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: f.Tags}}})
	}
	if f.AuthorID != nil {
		filter = append(filter, bson.E{Key: "author", Value: *f.AuthorID})
	}
	if f.PublishedFrom != nil || f.PublishedTo != nil {
		rng := bson.D{}
		if f.PublishedFrom != nil {
			rng = append(rng, bson.E{Key: "$gte", Value: *f.PublishedFrom})
		}
		if f.PublishedTo != nil {
			rng = append(rng, bson.E{Key: "$lte", Value: *f.PublishedTo})
		}
		filter = append(filter, bson.E{Key: "publishedAt", Value: rng})
	}
	if f.Search != "" {
		// user input is matched literally, never as a pattern
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "content", Value: re}},
			bson.D{{Key: "excerpt", Value: re}},
			bson.D{{Key: "tags", Value: re}},
		}})
	}

	return filter
}

// sortBSON translates sort fields, _id is appended as a tie-breaker so
// pages are stable.
func sortBSON(fields []dto.SortField) bson.D {
	sort := bson.D{}
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: -1})
}

// commentFilterBSON translates f into a mongo filter.
func commentFilterBSON(f *dto.CommentFilter) bson.D {
	filter := bson.D{}
	if f == nil {
		return filter
	}

	if f.PostID != nil {
		filter = append(filter, bson.E{Key: "postId", Value: *f.PostID})
	}
	if f.Approved != nil {
		filter = append(filter, bson.E{Key: "isApproved", Value: *f.Approved})
	}
	if f.RootOnly {
		filter = append(filter, bson.E{Key: "parentId", Value: nil})
	}
	if f.ParentIDs != nil {
		filter = append(filter, bson.E{Key: "parentId", Value: bson.D{{Key: "$in", Value: f.ParentIDs}}})
	}

	return filter
}

package service

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
)

// trendingWindow how far back trending posts may be published
const trendingWindow = 7 * 24 * time.Hour

// postSort maps a sort key onto store sort fields.
// Admin lists order by creation since drafts have no publication time.
func postSort(sort dto.PostSort, admin bool) []dto.SortField {
	dateField := "publishedAt"
	if admin {
		dateField = "createdAt"
	}

	switch sort {
	case dto.PostSortOldest:
		return []dto.SortField{{Field: dateField}}
	case dto.PostSortPopular, dto.PostSortTrending:
		return []dto.SortField{{Field: "views", Desc: true}, {Field: "likes", Desc: true}}
	case dto.PostSortTitle:
		return []dto.SortField{{Field: "title"}}
	case dto.PostSortViews:
		return []dto.SortField{{Field: "views", Desc: true}}
	default:
		return []dto.SortField{{Field: dateField, Desc: true}}
	}
}

// trendingSince narrows from to the trending window ending at now
func trendingSince(from *time.Time, now time.Time) *time.Time {
	since := now.Add(-trendingWindow)
	if from != nil && from.After(since) {
		return from
	}
	return &since
}

// buildPostQuery translates list parameters into a store query.
//
// The second return value is false when the category names nothing,
// the caller should answer with an empty page without asking the store.
func (s *Blog) buildPostQuery(ctx context.Context,
	params *dto.PostListParams) (*dto.PostQuery, bool, error) {
	q := &dto.PostQuery{
		Filter: dto.PostFilter{
			Status:        model.PostStatusPublished,
			Tags:          params.Tags,
			AuthorID:      params.Author,
			Search:        params.Search,
			PublishedFrom: params.DateFrom,
			PublishedTo:   params.DateTo,
		},
		Sort:  postSort(params.Sort, params.Admin),
		Skip:  params.Skip(),
		Limit: params.Limit,
	}
	if params.Admin {
		q.Filter.Status = params.Status
	}
	if params.Sort == dto.PostSortTrending {
		q.Filter.PublishedFrom = trendingSince(q.Filter.PublishedFrom, s.now())
	}

	if params.Category != "" {
		if id, err := primitive.ObjectIDFromHex(params.Category); err == nil {
			q.Filter.CategoryID = &id
		} else {
			cat, err := s.store.GetCategoryBySlug(ctx, params.Category, false)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return nil, false, nil
				}
				return nil, false, errors.Wrapf(err, "get category %q", params.Category)
			}
			q.Filter.CategoryID = &cat.ID
		}
	}

	return q, true, nil
}

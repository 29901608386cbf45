package redis

import "time"

const (
	keyPrefix = "blog/"

	// KeyTagHistogram caches the published tag histogram
	KeyTagHistogram = "posts/tags"
	// KeyCategoryCountsActive caches with-counts over active categories
	KeyCategoryCountsActive = "categories/counts/active"
	// KeyCategoryCountsAll caches with-counts over every category
	KeyCategoryCountsAll = "categories/counts/all"

	defaultTTL = 5 * time.Minute
)

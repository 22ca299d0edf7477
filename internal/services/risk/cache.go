package risk

import (
	"context"
	"fmt"
	"time"

	"fuelpass/internal/models"
	"fuelpass/internal/repositories/cache"
)

// ratingCacheTTL bounds how long a rating may be served without touching the
// database. Evaluations overwrite the entry immediately.
const ratingCacheTTL = time.Hour

type RatingCache interface {
	PutRating(ctx context.Context, userID string, rating *models.CustomerRating) error
	GetRating(ctx context.Context, userID string) (*models.CustomerRating, bool, error)
}

type redisRatingCache struct {
	cache *cache.CacheService
}

func NewRatingCache(c *cache.CacheService) RatingCache {
	return &redisRatingCache{cache: c}
}

func ratingKey(userID string) string {
	return fmt.Sprintf("rating:%s", userID)
}

func (r *redisRatingCache) PutRating(ctx context.Context, userID string, rating *models.CustomerRating) error {
	return r.cache.SetWithTTL(ctx, ratingKey(userID), rating, ratingCacheTTL)
}

func (r *redisRatingCache) GetRating(ctx context.Context, userID string) (*models.CustomerRating, bool, error) {
	var rating models.CustomerRating
	ok, err := r.cache.Get(ctx, ratingKey(userID), &rating)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rating, true, nil
}

// NoopRatingCache disables caching; used in tests.
type NoopRatingCache struct{}

func (NoopRatingCache) PutRating(context.Context, string, *models.CustomerRating) error {
	return nil
}

func (NoopRatingCache) GetRating(context.Context, string) (*models.CustomerRating, bool, error) {
	return nil, false, nil
}

// Package filteroption serves the dropdown vocabularies. The endpoint never
// fails: a warm redis cache is tried first, then the database, and any field
// the database cannot supply degrades to the fixed defaults.
package filteroption

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/redis"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

const cacheKey = "aster:filter-options"

// OptionsReader is the storage surface the service needs
type OptionsReader interface {
	Distinct(ctx context.Context) (*models.FilterOptions, error)
}

type Service struct {
	options  OptionsReader
	cache    *redis.Client
	cacheTTL time.Duration
	logger   ectologger.Logger
}

// NewService builds the options service. The cache client may be nil; the
// service then always reads from the database.
func NewService(options OptionsReader, cache *redis.Client, cacheTTL time.Duration, logger ectologger.Logger) *Service {
	return &Service{
		options:  options,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetOptions returns the filter vocabularies. It never returns an error;
// total storage failure yields the full default vocabulary.
func (s *Service) GetOptions(ctx context.Context) *models.FilterOptions {
	ctx, span := tracing.StartSpan(ctx, "filteroption.Service.GetOptions")
	defer span.End()

	if cached := s.fromCache(ctx); cached != nil {
		return cached
	}

	options, err := s.options.Distinct(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Falling back to default filter options")
		metrics.RecordOptionsFallback("all")
		defaults := models.DefaultFilterOptions()
		return &defaults
	}

	s.fillDefaults(ctx, options)
	s.storeCache(ctx, options)

	return options
}

// fillDefaults backfills any empty field so the dropdowns stay populated even
// when the dataset is empty or partially loaded.
func (s *Service) fillDefaults(ctx context.Context, options *models.FilterOptions) {
	defaults := models.DefaultFilterOptions()

	if len(options.Regions) == 0 {
		metrics.RecordOptionsFallback("regions")
		options.Regions = defaults.Regions
	}
	if len(options.Categories) == 0 {
		metrics.RecordOptionsFallback("categories")
		options.Categories = defaults.Categories
	}
	if len(options.Tags) == 0 {
		metrics.RecordOptionsFallback("tags")
		options.Tags = defaults.Tags
	}
	if len(options.PaymentMethods) == 0 {
		metrics.RecordOptionsFallback("payment_methods")
		options.PaymentMethods = defaults.PaymentMethods
	}
}

func (s *Service) fromCache(ctx context.Context) *models.FilterOptions {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, cacheKey)
	if err != nil || raw == "" {
		metrics.RecordOptionsCache("miss")
		return nil
	}

	var options models.FilterOptions
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Dropping unreadable cached filter options")
		metrics.RecordOptionsCache("miss")
		return nil
	}

	metrics.RecordOptionsCache("hit")
	return &options
}

func (s *Service) storeCache(ctx context.Context, options *models.FilterOptions) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(options)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, cacheKey, string(raw), s.cacheTTL); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to cache filter options")
	}
}

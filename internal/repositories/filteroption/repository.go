// Package filteroption reads the distinct filter vocabularies used to
// populate dashboard dropdowns.
package filteroption

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Repository reads distinct filter values across the whole dataset
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Distinct returns the distinct value sets over the entire dataset. Fields
// with no rows come back as empty slices; callers decide how to degrade.
func (r *Repository) Distinct(ctx context.Context) (*models.FilterOptions, error) {
	ctx, span := tracing.StartSpan(ctx, "filteroption.Repository.Distinct")
	defer span.End()
	defer func(start time.Time) {
		metrics.DatabaseQueryDuration.WithLabelValues("filter_options").Observe(time.Since(start).Seconds())
	}(time.Now())

	options := &models.FilterOptions{}

	queries := []struct {
		name  string
		query string
		dest  *[]string
	}{
		{
			name:  "regions",
			query: `SELECT DISTINCT region FROM customers WHERE region IS NOT NULL AND region <> '' ORDER BY region`,
			dest:  &options.Regions,
		},
		{
			name:  "categories",
			query: `SELECT DISTINCT category FROM products WHERE category IS NOT NULL AND category <> '' ORDER BY category`,
			dest:  &options.Categories,
		},
		{
			name:  "tags",
			query: `SELECT DISTINCT tag FROM products, unnest(tags) AS tag WHERE tag <> '' ORDER BY tag`,
			dest:  &options.Tags,
		},
		{
			name:  "payment_methods",
			query: `SELECT DISTINCT payment_method FROM sales WHERE payment_method <> '' ORDER BY payment_method`,
			dest:  &options.PaymentMethods,
		},
	}

	for _, q := range queries {
		if err := r.db.SelectContext(ctx, q.dest, q.query); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"field": q.name}).Error("Failed to read distinct filter values")
			return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to read distinct %s", q.name)
		}
	}

	return options, nil
}

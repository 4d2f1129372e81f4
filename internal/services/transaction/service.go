// Package transaction assembles the listing and employee performance
// responses: one paged row query plus one unpaged aggregate, merged into the
// data/pagination/stats envelope.
package transaction

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/query"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// SaleReader is the storage surface the service needs
type SaleReader interface {
	List(ctx context.Context, spec *query.FilterSpec) ([]models.SaleRecord, int64, error)
	Stats(ctx context.Context, spec *query.FilterSpec) (*models.SaleStats, error)
	EmployeePerformance(ctx context.Context, search string, page, limit int) ([]models.EmployeePerformance, int64, *models.SaleStats, error)
}

type Service struct {
	sales  SaleReader
	logger ectologger.Logger
}

func NewService(sales SaleReader, logger ectologger.Logger) *Service {
	return &Service{
		sales:  sales,
		logger: logger,
	}
}

// ListSales executes the paged row query and the full-set aggregate
// concurrently; both are independent reads against the same filter.
func (s *Service) ListSales(ctx context.Context, spec *query.FilterSpec) (*models.SaleListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Service.ListSales")
	defer span.End()

	if len(spec.Fallbacks) > 0 {
		s.logger.WithContext(ctx).WithFields(map[string]any{"fallbacks": spec.Fallbacks}).Info("Coerced invalid filter input to defaults")
		metrics.FilterFallbacksTotal.Add(float64(len(spec.Fallbacks)))
	}

	var (
		wg       sync.WaitGroup
		records  []models.SaleRecord
		total    int64
		stats    *models.SaleStats
		listErr  error
		statsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		records, total, listErr = s.sales.List(ctx, spec)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = s.sales.Stats(ctx, spec)
	}()
	wg.Wait()

	if listErr != nil {
		return nil, listErr
	}
	if statsErr != nil {
		return nil, statsErr
	}

	if records == nil {
		records = []models.SaleRecord{}
	}

	return &models.SaleListResponse{
		Data:       records,
		Pagination: paginate(total, spec.Page, spec.Limit),
		Stats:      *stats,
	}, nil
}

// ListEmployeePerformance returns the grouped salesperson view. Pagination
// counts distinct salespersons after the optional name search.
func (s *Service) ListEmployeePerformance(ctx context.Context, search string, page, limit int) (*models.EmployeeListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Service.ListEmployeePerformance")
	defer span.End()

	rows, total, stats, err := s.sales.EmployeePerformance(ctx, search, page, limit)
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []models.EmployeePerformance{}
	}

	return &models.EmployeeListResponse{
		Data:       rows,
		Pagination: paginate(total, page, limit),
		Stats:      *stats,
	}, nil
}

// paginate computes the envelope; totalPages rounds up so a partial final
// page still counts.
func paginate(total int64, page, limit int) models.Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return models.Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

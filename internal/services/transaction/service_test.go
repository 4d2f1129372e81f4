package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/query"
)

type fakeSaleReader struct {
	records []models.SaleRecord
	total   int64
	stats   models.SaleStats

	employees     []models.EmployeePerformance
	employeeTotal int64

	listErr  error
	statsErr error
}

func (f *fakeSaleReader) List(_ context.Context, _ *query.FilterSpec) ([]models.SaleRecord, int64, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.records, f.total, nil
}

func (f *fakeSaleReader) Stats(_ context.Context, _ *query.FilterSpec) (*models.SaleStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &f.stats, nil
}

func (f *fakeSaleReader) EmployeePerformance(_ context.Context, _ string, _, _ int) ([]models.EmployeePerformance, int64, *models.SaleStats, error) {
	if f.listErr != nil {
		return nil, 0, nil, f.listErr
	}
	return f.employees, f.employeeTotal, &f.stats, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestListSales(t *testing.T) {
	t.Run("should merge page, count and stats into the envelope", func(t *testing.T) {
		reader := &fakeSaleReader{
			records: []models.SaleRecord{{ID: 1}, {ID: 2}},
			total:   25,
			stats:   models.SaleStats{TotalUnits: 80, TotalAmount: 1200.5, TotalDiscount: 75.25},
		}
		service := NewService(reader, testLogger())

		spec := &query.FilterSpec{Page: 1, Limit: 10}
		resp, err := service.ListSales(context.Background(), spec)

		assert.NoError(t, err)
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, int64(25), resp.Pagination.Total)
		assert.Equal(t, 3, resp.Pagination.TotalPages)
		assert.Equal(t, int64(80), resp.Stats.TotalUnits)
		assert.Equal(t, 1200.5, resp.Stats.TotalAmount)
	})

	t.Run("should return empty data instead of null when nothing matches", func(t *testing.T) {
		reader := &fakeSaleReader{}
		service := NewService(reader, testLogger())

		resp, err := service.ListSales(context.Background(), &query.FilterSpec{Page: 1, Limit: 10})

		assert.NoError(t, err)
		assert.NotNil(t, resp.Data)
		assert.Empty(t, resp.Data)
		assert.Equal(t, 0, resp.Pagination.TotalPages)
		assert.Zero(t, resp.Stats.TotalUnits)
	})

	t.Run("should fail the request when the page query fails", func(t *testing.T) {
		reader := &fakeSaleReader{
			listErr: httperror.NewHTTPError(http.StatusInternalServerError, "failed to list sales"),
		}
		service := NewService(reader, testLogger())

		resp, err := service.ListSales(context.Background(), &query.FilterSpec{Page: 1, Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, resp)
	})

	t.Run("should fail the request when the aggregate query fails", func(t *testing.T) {
		reader := &fakeSaleReader{
			statsErr: httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate sale stats"),
		}
		service := NewService(reader, testLogger())

		resp, err := service.ListSales(context.Background(), &query.FilterSpec{Page: 1, Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestListEmployeePerformance(t *testing.T) {
	t.Run("should paginate the grouped employee list", func(t *testing.T) {
		reader := &fakeSaleReader{
			employees: []models.EmployeePerformance{
				{SalespersonID: "E1", EmployeeName: "Asha", TotalAmount: 900},
				{SalespersonID: "E2", EmployeeName: "Ravi", TotalAmount: 400},
			},
			employeeTotal: 12,
			stats:         models.SaleStats{TotalUnits: 300},
		}
		service := NewService(reader, testLogger())

		resp, err := service.ListEmployeePerformance(context.Background(), "", 2, 5)

		assert.NoError(t, err)
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, int64(12), resp.Pagination.Total)
		assert.Equal(t, 2, resp.Pagination.Page)
		assert.Equal(t, 3, resp.Pagination.TotalPages)
		assert.Equal(t, int64(300), resp.Stats.TotalUnits)
	})

	t.Run("should serialize employees keyed on employeeId", func(t *testing.T) {
		reader := &fakeSaleReader{
			employees: []models.EmployeePerformance{
				{SalespersonID: "E1", EmployeeName: "Asha", TotalAmount: 900},
			},
			employeeTotal: 1,
		}
		service := NewService(reader, testLogger())

		resp, err := service.ListEmployeePerformance(context.Background(), "", 1, 10)
		assert.NoError(t, err)

		raw, err := json.Marshal(resp)
		assert.NoError(t, err)
		assert.Contains(t, string(raw), `"employeeId":"E1"`)
		assert.NotContains(t, string(raw), "salespersonId")
	})

	t.Run("should surface storage failures", func(t *testing.T) {
		reader := &fakeSaleReader{
			listErr: httperror.NewHTTPError(http.StatusInternalServerError, "failed to list employee performance"),
		}
		service := NewService(reader, testLogger())

		resp, err := service.ListEmployeePerformance(context.Background(), "", 1, 10)

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestPaginate(t *testing.T) {
	t.Run("should round total pages up", func(t *testing.T) {
		assert.Equal(t, 3, paginate(25, 1, 10).TotalPages)
		assert.Equal(t, 1, paginate(10, 1, 10).TotalPages)
		assert.Equal(t, 0, paginate(0, 1, 10).TotalPages)
	})
}

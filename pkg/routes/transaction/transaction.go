package transaction

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/config"
	filteroptionsvc "github.com/Ramsey-B/aster/internal/services/filteroption"
	transactionsvc "github.com/Ramsey-B/aster/internal/services/transaction"
	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/query"
)

// Register registers transaction routes
func Register(g *echo.Group) {
	g.GET("", ListTransactions)
	g.GET("/options", GetFilterOptions)
	g.GET("/employees", ListEmployeePerformance)
}

// ListTransactions returns one filtered, sorted page of sales plus aggregate
// stats over the full filtered set
func ListTransactions(c echo.Context) error {
	start := time.Now()
	ctx := c.Request().Context()

	ctx, service, err := ectoinject.GetContext[*transactionsvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	spec := query.ParseFilterSpec(c.QueryParams(), pageDefaults(ctx))

	resp, err := service.ListSales(ctx, &spec)
	if err != nil {
		metrics.RecordQuery("transactions", "error", time.Since(start).Seconds())
		return err
	}

	metrics.RecordQuery("transactions", "success", time.Since(start).Seconds())
	return c.JSON(http.StatusOK, resp)
}

// GetFilterOptions returns the dropdown vocabularies. Always succeeds;
// degrades to the default vocabulary when storage is unavailable.
func GetFilterOptions(c echo.Context) error {
	start := time.Now()
	ctx := c.Request().Context()

	ctx, service, err := ectoinject.GetContext[*filteroptionsvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	options := service.GetOptions(ctx)

	metrics.RecordQuery("options", "success", time.Since(start).Seconds())
	return c.JSON(http.StatusOK, options)
}

// ListEmployeePerformance returns the grouped per-salesperson aggregation
func ListEmployeePerformance(c echo.Context) error {
	start := time.Now()
	ctx := c.Request().Context()

	ctx, service, err := ectoinject.GetContext[*transactionsvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	defaults := pageDefaults(ctx)
	page := parsePositive(c.QueryParam("page"), 1)
	limit := parsePositive(c.QueryParam("limit"), defaults.DefaultLimit)
	if limit > defaults.MaxLimit {
		limit = defaults.MaxLimit
	}

	resp, err := service.ListEmployeePerformance(ctx, c.QueryParam("search"), page, limit)
	if err != nil {
		metrics.RecordQuery("employees", "error", time.Since(start).Seconds())
		return err
	}

	metrics.RecordQuery("employees", "success", time.Since(start).Seconds())
	return c.JSON(http.StatusOK, resp)
}

func pageDefaults(ctx context.Context) query.PageDefaults {
	_, cfg, err := ectoinject.GetContext[*config.Config](ctx)
	if err != nil || cfg == nil {
		return query.PageDefaults{DefaultLimit: 10, MaxLimit: 100}
	}

	return query.PageDefaults{DefaultLimit: cfg.DefaultPageSize, MaxLimit: cfg.MaxPageSize}
}

func parsePositive(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if value, err := strconv.Atoi(raw); err == nil && value >= 1 {
		return value
	}
	return fallback
}

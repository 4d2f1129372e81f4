// Package sale reads the denormalized sales view. Every filter, sort and page
// window is pushed into SQL; nothing is filtered in application memory.
package sale

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/query"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Repository queries the sales fact table joined to its dimensions
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

// saleColumns is the joined projection behind SaleRecord. Dimension columns
// coalesce to empty values so a dangling foreign key never drops the sale.
var saleColumns = []string{
	"s.sale_id",
	"s.transaction_id",
	"s.sale_date",
	"s.customer_id",
	"COALESCE(c.name, '') AS customer_name",
	"COALESCE(c.phone_number, '') AS phone_number",
	"COALESCE(c.gender, '') AS gender",
	"COALESCE(c.age, 0) AS age",
	"COALESCE(c.region, '') AS customer_region",
	"COALESCE(c.customer_type, '') AS customer_type",
	"s.product_id",
	"COALESCE(p.name, '') AS product_name",
	"COALESCE(p.brand, '') AS brand",
	"COALESCE(p.category, '') AS product_category",
	"COALESCE(p.tags, '{}') AS tags",
	"s.quantity",
	"s.price_per_unit",
	"s.discount_percentage",
	"s.total_amount",
	"s.final_amount",
	"s.payment_method",
	"s.order_status",
	"s.delivery_type",
	"s.store_id",
	"COALESCE(st.location, '') AS store_location",
	"s.salesperson_id",
	"COALESCE(e.name, '') AS employee_name",
}

// List returns one page of matching sales plus the total match count. The
// count covers every row satisfying the filter, not just the fetched page.
func (r *Repository) List(ctx context.Context, spec *query.FilterSpec) ([]models.SaleRecord, int64, error) {
	ctx, span := tracing.StartSpan(ctx, "sale.Repository.List")
	defer span.End()
	defer observe("sale_list", time.Now())

	// Count total
	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	joinDimensions(countSb)
	applyFilters(countSb, spec)

	countQuery, countArgs := countSb.Build()
	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"page": spec.Page, "limit": spec.Limit}).Error("Failed to count sales")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count sales")
	}

	// Fetch page
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(saleColumns...)
	joinDimensions(sb)
	applyFilters(sb, spec)
	sb.OrderBy(orderClauses(spec)...)
	sb.Limit(spec.Limit).Offset(spec.Offset())

	pageQuery, pageArgs := sb.Build()
	var records []models.SaleRecord
	if err := r.db.SelectContext(ctx, &records, pageQuery, pageArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"page": spec.Page, "limit": spec.Limit, "sort_by": spec.SortBy}).Error("Failed to list sales")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list sales")
	}

	return records, total, nil
}

// Stats aggregates the full filtered set regardless of pagination. Discount
// per row is total minus final, clamped at zero.
func (r *Repository) Stats(ctx context.Context, spec *query.FilterSpec) (*models.SaleStats, error) {
	ctx, span := tracing.StartSpan(ctx, "sale.Repository.Stats")
	defer span.End()
	defer observe("sale_stats", time.Now())

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"COALESCE(SUM(s.quantity), 0) AS total_units",
		"COALESCE(SUM(s.total_amount), 0) AS total_amount",
		"COALESCE(SUM(GREATEST(s.total_amount - s.final_amount, 0)), 0) AS total_discount",
	)
	joinDimensions(sb)
	applyFilters(sb, spec)

	statsQuery, statsArgs := sb.Build()
	var stats models.SaleStats
	if err := r.db.GetContext(ctx, &stats, statsQuery, statsArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to aggregate sale stats")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate sale stats")
	}

	return &stats, nil
}

// EmployeePerformance groups sales by salesperson, optionally narrowed by a
// case-insensitive name search, and paginates the grouped rows. The returned
// stats sum across every matching salesperson, not just the current page.
func (r *Repository) EmployeePerformance(ctx context.Context, search string, page, limit int) ([]models.EmployeePerformance, int64, *models.SaleStats, error) {
	ctx, span := tracing.StartSpan(ctx, "sale.Repository.EmployeePerformance")
	defer span.End()
	defer observe("employee_performance", time.Now())

	// Count distinct salespersons
	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(DISTINCT s.salesperson_id)")
	joinEmployee(countSb)
	applyEmployeeSearch(countSb, search)

	countQuery, countArgs := countSb.Build()
	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"search": search}).Error("Failed to count salespersons")
		return nil, 0, nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count salespersons")
	}

	// Fetch grouped page
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"s.salesperson_id",
		"COALESCE(e.name, '') AS employee_name",
		"COALESCE(SUM(s.quantity), 0) AS total_units",
		"COALESCE(SUM(s.total_amount), 0) AS total_amount",
		"COALESCE(SUM(GREATEST(s.total_amount - s.final_amount, 0)), 0) AS total_discount",
	)
	joinEmployee(sb)
	applyEmployeeSearch(sb, search)
	sb.GroupBy("s.salesperson_id", "e.name")
	sb.OrderBy("total_amount DESC", "s.salesperson_id ASC")
	sb.Limit(limit).Offset((page - 1) * limit)

	pageQuery, pageArgs := sb.Build()
	var rows []models.EmployeePerformance
	if err := r.db.SelectContext(ctx, &rows, pageQuery, pageArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"search": search, "page": page, "limit": limit}).Error("Failed to list employee performance")
		return nil, 0, nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list employee performance")
	}

	// Sums are linear, so aggregating the underlying sales equals summing the
	// grouped rows.
	statsSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	statsSb.Select(
		"COALESCE(SUM(s.quantity), 0) AS total_units",
		"COALESCE(SUM(s.total_amount), 0) AS total_amount",
		"COALESCE(SUM(GREATEST(s.total_amount - s.final_amount, 0)), 0) AS total_discount",
	)
	joinEmployee(statsSb)
	applyEmployeeSearch(statsSb, search)

	statsQuery, statsArgs := statsSb.Build()
	var stats models.SaleStats
	if err := r.db.GetContext(ctx, &stats, statsQuery, statsArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"search": search}).Error("Failed to aggregate employee stats")
		return nil, 0, nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate employee stats")
	}

	return rows, total, &stats, nil
}

func joinDimensions(sb *sqlbuilder.SelectBuilder) {
	sb.From("sales s")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "customers c", "c.customer_id = s.customer_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "products p", "p.product_id = s.product_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "stores st", "st.store_id = s.store_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "employees e", "e.employee_id = s.salesperson_id")
}

func joinEmployee(sb *sqlbuilder.SelectBuilder) {
	sb.From("sales s")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "employees e", "e.employee_id = s.salesperson_id")
}

// applyFilters pushes every active FilterSpec predicate into the builder as a
// conjunction. Search is its own OR across customer name and phone.
func applyFilters(sb *sqlbuilder.SelectBuilder, spec *query.FilterSpec) {
	var where []string

	if spec.Search != "" {
		pattern := likePattern(spec.Search)
		where = append(where, sb.Or(
			sb.ILike("c.name", pattern),
			sb.ILike("c.phone_number", pattern),
		))
	}
	if len(spec.Regions) > 0 {
		where = append(where, sb.In("c.region", toAny(spec.Regions)...))
	}
	if len(spec.Genders) > 0 {
		where = append(where, sb.In("c.gender", toAny(spec.Genders)...))
	}
	if len(spec.Categories) > 0 {
		where = append(where, sb.In("p.category", toAny(spec.Categories)...))
	}
	if len(spec.PaymentMethods) > 0 {
		where = append(where, sb.In("s.payment_method", toAny(spec.PaymentMethods)...))
	}
	if len(spec.Tags) > 0 {
		// Overlap against the product tag array; matches when the product
		// carries at least one requested tag.
		where = append(where, fmt.Sprintf("p.tags && %s", sb.Var(pq.Array(spec.Tags))))
	}
	if spec.MinAge != nil {
		where = append(where, sb.GreaterEqualThan("c.age", *spec.MinAge))
	}
	if spec.MaxAge != nil {
		where = append(where, sb.LessEqualThan("c.age", *spec.MaxAge))
	}
	if spec.StartDate != nil {
		where = append(where, sb.GreaterEqualThan("s.sale_date", *spec.StartDate))
	}
	if spec.EndDate != nil {
		where = append(where, sb.LessEqualThan("s.sale_date", *spec.EndDate))
	}

	if len(where) > 0 {
		sb.Where(where...)
	}
}

func applyEmployeeSearch(sb *sqlbuilder.SelectBuilder, search string) {
	if search == "" {
		return
	}
	sb.Where(sb.ILike("e.name", likePattern(search)))
}

var sortColumns = map[query.SortField]string{
	query.SortByDate:         "s.sale_date",
	query.SortByQuantity:     "s.quantity",
	query.SortByCustomerName: "c.name",
}

// orderClauses maps the requested sort onto SQL with a deterministic tie-break
// on sale_id so paging is stable.
func orderClauses(spec *query.FilterSpec) []string {
	column, ok := sortColumns[spec.SortBy]
	if !ok {
		column = "s.sale_date"
	}

	direction := "DESC"
	if spec.SortOrder == query.SortAsc {
		direction = "ASC"
	}

	return []string{
		fmt.Sprintf("%s %s", column, direction),
		"s.sale_id DESC",
	}
}

// likePattern wraps a search term for substring matching, escaping LIKE
// metacharacters so user input cannot widen the match.
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func observe(operation string, start time.Time) {
	metrics.DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

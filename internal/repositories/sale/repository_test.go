package sale

import (
	"testing"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/aster/pkg/query"
)

func buildWhere(spec *query.FilterSpec) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	joinDimensions(sb)
	applyFilters(sb, spec)
	return sb.Build()
}

func TestApplyFilters(t *testing.T) {
	t.Run("should build no predicates for an empty spec", func(t *testing.T) {
		sql, args := buildWhere(&query.FilterSpec{})

		assert.NotContains(t, sql, "WHERE")
		assert.Empty(t, args)
	})

	t.Run("should join every dimension table", func(t *testing.T) {
		sql, _ := buildWhere(&query.FilterSpec{})

		assert.Contains(t, sql, "LEFT JOIN customers c ON c.customer_id = s.customer_id")
		assert.Contains(t, sql, "LEFT JOIN products p ON p.product_id = s.product_id")
		assert.Contains(t, sql, "LEFT JOIN stores st ON st.store_id = s.store_id")
		assert.Contains(t, sql, "LEFT JOIN employees e ON e.employee_id = s.salesperson_id")
	})

	t.Run("should match search against name or phone", func(t *testing.T) {
		sql, args := buildWhere(&query.FilterSpec{Search: "priya"})

		assert.Contains(t, sql, "c.name ILIKE")
		assert.Contains(t, sql, "c.phone_number ILIKE")
		assert.Contains(t, sql, " OR ")
		assert.Equal(t, []any{"%priya%", "%priya%"}, args)
	})

	t.Run("should escape LIKE metacharacters in search", func(t *testing.T) {
		_, args := buildWhere(&query.FilterSpec{Search: "50%_off"})

		assert.Equal(t, `%50\%\_off%`, args[0])
	})

	t.Run("should build set-membership predicates", func(t *testing.T) {
		spec := &query.FilterSpec{
			Regions:        []string{"East", "West"},
			PaymentMethods: []string{"Cash"},
		}

		sql, args := buildWhere(spec)

		assert.Contains(t, sql, "c.region IN")
		assert.Contains(t, sql, "s.payment_method IN")
		assert.Equal(t, []any{"East", "West", "Cash"}, args)
	})

	t.Run("should build a tag overlap predicate", func(t *testing.T) {
		sql, args := buildWhere(&query.FilterSpec{Tags: []string{"premium", "eco"}})

		assert.Contains(t, sql, "p.tags &&")
		assert.Len(t, args, 1)
	})

	t.Run("should build inclusive age and date bounds", func(t *testing.T) {
		minAge, maxAge := 18, 65
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
		spec := &query.FilterSpec{
			MinAge:    &minAge,
			MaxAge:    &maxAge,
			StartDate: &start,
			EndDate:   &end,
		}

		sql, args := buildWhere(spec)

		assert.Contains(t, sql, "c.age >=")
		assert.Contains(t, sql, "c.age <=")
		assert.Contains(t, sql, "s.sale_date >=")
		assert.Contains(t, sql, "s.sale_date <=")
		assert.Len(t, args, 4)
	})

	t.Run("should AND independent filters together", func(t *testing.T) {
		spec := &query.FilterSpec{
			Search:  "raj",
			Regions: []string{"North"},
		}

		sql, _ := buildWhere(spec)

		assert.Contains(t, sql, " AND ")
	})
}

func TestOrderClauses(t *testing.T) {
	t.Run("should default to date descending with sale_id tie-break", func(t *testing.T) {
		clauses := orderClauses(&query.FilterSpec{SortBy: query.SortByDate, SortOrder: query.SortDesc})

		assert.Equal(t, []string{"s.sale_date DESC", "s.sale_id DESC"}, clauses)
	})

	t.Run("should sort quantity ascending when requested", func(t *testing.T) {
		clauses := orderClauses(&query.FilterSpec{SortBy: query.SortByQuantity, SortOrder: query.SortAsc})

		assert.Equal(t, []string{"s.quantity ASC", "s.sale_id DESC"}, clauses)
	})

	t.Run("should map customerName onto the joined column", func(t *testing.T) {
		clauses := orderClauses(&query.FilterSpec{SortBy: query.SortByCustomerName, SortOrder: query.SortAsc})

		assert.Equal(t, []string{"c.name ASC", "s.sale_id DESC"}, clauses)
	})

	t.Run("should fall back to date for an unknown field", func(t *testing.T) {
		clauses := orderClauses(&query.FilterSpec{SortBy: query.SortField("price"), SortOrder: query.SortDesc})

		assert.Equal(t, []string{"s.sale_date DESC", "s.sale_id DESC"}, clauses)
	})
}

package sale_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	salerepo "github.com/Ramsey-B/aster/internal/repositories/sale"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/query"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "aster"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	return database.NewDatabaseInstance(db, getTestLogger())
}

func seedFixture(t *testing.T, db database.DB) {
	ctx := context.Background()

	for _, stmt := range []string{
		`DELETE FROM sales`,
		`DELETE FROM customers`,
		`DELETE FROM products`,
		`DELETE FROM stores`,
		`DELETE FROM employees`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	customers := []struct {
		id, name, phone, gender string
		age                     int
		region                  string
	}{
		{"C1", "Priya Sharma", "9876543210", "FEMALE", 34, "East"},
		{"C2", "Rajesh Kumar", "9123456780", "MALE", 52, "West"},
		{"C3", "Anil Mehta", "9001122334", "MALE", 41, "East"},
	}
	for _, c := range customers {
		_, err := db.ExecContext(ctx,
			`INSERT INTO customers (customer_id, name, phone_number, gender, age, region, customer_type) VALUES ($1, $2, $3, $4, $5, $6, 'REGULAR')`,
			c.id, c.name, c.phone, c.gender, c.age, c.region)
		require.NoError(t, err)
	}

	products := []struct {
		id, name, category string
		tags               []string
	}{
		{"P1", "Desk Lamp", "Electronics", []string{"premium", "new"}},
		{"P2", "Notebook", "Stationery", []string{"budget"}},
	}
	for _, p := range products {
		_, err := db.ExecContext(ctx,
			`INSERT INTO products (product_id, name, brand, category, tags) VALUES ($1, $2, '', $3, $4)`,
			p.id, p.name, p.category, pq.Array(p.tags))
		require.NoError(t, err)
	}

	_, err := db.ExecContext(ctx, `INSERT INTO stores (store_id, location) VALUES ('S1', 'Mumbai')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO employees (employee_id, name) VALUES ('E1', 'Asha Verma'), ('E2', 'Ravi Iyer')`)
	require.NoError(t, err)

	sales := []struct {
		txn, date, customer, product, salesperson string
		quantity                                  int
		total, final                              float64
		payment                                   string
	}{
		{"T1", "2024-01-10", "C1", "P1", "E1", 3, 100, 90, "CASH"},
		{"T2", "2024-01-11", "C2", "P2", "E1", 2, 50, 50, "UPI"},
		{"T3", "2024-01-12", "C3", "P1", "E2", 5, 200, 150, "CASH"},
		// dangling dimension keys; must still list with empty fields
		{"T4", "2024-01-13", "MISSING", "MISSING", "MISSING", 1, 10, 10, "CASH"},
	}
	for _, s := range sales {
		_, err := db.ExecContext(ctx,
			`INSERT INTO sales (transaction_id, sale_date, customer_id, product_id, store_id, salesperson_id, quantity, price_per_unit, discount_percentage, total_amount, final_amount, payment_method, order_status, delivery_type)
			 VALUES ($1, $2, $3, $4, 'S1', $5, $6, 0, 0, $7, $8, $9, 'DELIVERED', 'PICKUP')`,
			s.txn, s.date, s.customer, s.product, s.salesperson, s.quantity, s.total, s.final, s.payment)
		require.NoError(t, err)
	}
}

func TestRepositoryIntegration(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	seedFixture(t, db)

	repo := salerepo.NewRepository(db, getTestLogger())
	ctx := context.Background()

	t.Run("should count the full filtered set independent of the page", func(t *testing.T) {
		spec := &query.FilterSpec{Page: 1, Limit: 2, SortBy: query.SortByDate, SortOrder: query.SortDesc}

		records, total, err := repo.List(ctx, spec)

		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, int64(4), total)
	})

	t.Run("should default missing relations to empty fields", func(t *testing.T) {
		spec := &query.FilterSpec{Search: "", Page: 1, Limit: 10, SortBy: query.SortByDate, SortOrder: query.SortDesc}

		records, _, err := repo.List(ctx, spec)

		require.NoError(t, err)
		var found bool
		for _, r := range records {
			if r.TransactionID == "T4" {
				found = true
				assert.Empty(t, r.CustomerName)
				assert.Empty(t, r.ProductName)
				assert.Empty(t, r.EmployeeName)
				assert.Zero(t, r.Age)
				assert.Empty(t, []string(r.Tags))
			}
		}
		assert.True(t, found, "sale with dangling keys must still be listed")
	})

	t.Run("should filter by region and tag overlap", func(t *testing.T) {
		spec := &query.FilterSpec{
			Regions: []string{"East"},
			Tags:    []string{"premium"},
			Page:    1, Limit: 10,
			SortBy: query.SortByDate, SortOrder: query.SortDesc,
		}

		records, total, err := repo.List(ctx, spec)

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, r := range records {
			assert.Equal(t, "East", r.CustomerRegion)
		}
	})

	t.Run("should search name or phone case-insensitively", func(t *testing.T) {
		spec := &query.FilterSpec{Search: "priya", Page: 1, Limit: 10, SortBy: query.SortByDate, SortOrder: query.SortDesc}

		_, total, err := repo.List(ctx, spec)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		spec.Search = "9123456"
		_, total, err = repo.List(ctx, spec)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("should aggregate the full filtered set with clamped discount", func(t *testing.T) {
		spec := &query.FilterSpec{PaymentMethods: []string{"CASH"}, Page: 1, Limit: 1, SortBy: query.SortByDate, SortOrder: query.SortDesc}

		stats, err := repo.Stats(ctx, spec)

		require.NoError(t, err)
		assert.Equal(t, int64(9), stats.TotalUnits)
		assert.Equal(t, 310.0, stats.TotalAmount)
		assert.Equal(t, 60.0, stats.TotalDiscount)
	})

	t.Run("should group employee performance and sum across all matches", func(t *testing.T) {
		rows, total, stats, err := repo.EmployeePerformance(ctx, "", 1, 10)

		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.NotEmpty(t, rows)
		// highest revenue first
		assert.Equal(t, "E2", rows[0].SalespersonID)
		assert.Equal(t, int64(5), rows[0].TotalUnits)
		assert.Equal(t, 50.0, rows[0].TotalDiscount)
		assert.Equal(t, int64(11), stats.TotalUnits)
	})

	t.Run("should narrow employees by name search", func(t *testing.T) {
		rows, total, _, err := repo.EmployeePerformance(ctx, "asha", 1, 10)

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, "E1", rows[0].SalespersonID)
		assert.Equal(t, int64(5), rows[0].TotalUnits)
		assert.Equal(t, 150.0, rows[0].TotalAmount)
		assert.Equal(t, 10.0, rows[0].TotalDiscount)
	})

	t.Run("should page identically on repeated requests", func(t *testing.T) {
		spec := &query.FilterSpec{Page: 1, Limit: 2, SortBy: query.SortByDate, SortOrder: query.SortDesc}

		first, _, err := repo.List(ctx, spec)
		require.NoError(t, err)
		second, _, err := repo.List(ctx, spec)
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID, fmt.Sprintf("row %d differs between identical requests", i))
		}
	})
}

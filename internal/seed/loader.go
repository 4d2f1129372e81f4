// Package seed bulk-loads the sales dataset from CSV. One-shot ETL; never
// runs at request time.
package seed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Ramsey-B/aster/pkg/database"
)

// Summary reports how many distinct entities a load produced
type Summary struct {
	Customers int
	Products  int
	Stores    int
	Employees int
	Sales     int
}

type customerRow struct {
	id           string
	name         string
	phone        string
	gender       string
	age          int
	region       string
	customerType string
}

type productRow struct {
	id       string
	name     string
	brand    string
	category string
	tags     []string
}

type storeRow struct {
	id       string
	location string
}

type employeeRow struct {
	id   string
	name string
}

type saleRow struct {
	transactionID      string
	date               string
	customerID         string
	productID          string
	storeID            string
	salespersonID      string
	quantity           int
	pricePerUnit       float64
	discountPercentage float64
	totalAmount        float64
	finalAmount        float64
	paymentMethod      string
	orderStatus        string
	deliveryType       string
}

type Loader struct {
	db        database.DB
	logger    ectologger.Logger
	batchSize int
}

func NewLoader(db database.DB, logger ectologger.Logger, batchSize int) *Loader {
	if batchSize < 1 {
		batchSize = 1000
	}
	return &Loader{
		db:        db,
		logger:    logger,
		batchSize: batchSize,
	}
}

// LoadFile reads and loads a CSV file from disk
func (l *Loader) LoadFile(ctx context.Context, path string) (*Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	return l.Load(ctx, file)
}

// Load parses the CSV stream, dedupes dimension rows, and upserts everything
// in batches. Re-running on the same file is idempotent.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	customers := map[string]customerRow{}
	products := map[string]productRow{}
	stores := map[string]storeRow{}
	employees := map[string]employeeRow{}
	var sales []saleRow

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.WithContext(ctx).WithError(err).Warn("Skipping malformed CSV record")
			continue
		}

		customerID := orGenerated(field(record, "Customer ID"), "CUST")
		productID := orGenerated(field(record, "Product ID"), "PROD")
		storeID := orGenerated(field(record, "Store ID"), "STORE")
		salespersonID := orGenerated(field(record, "Salesperson ID"), "SALES")

		if _, ok := customers[customerID]; !ok {
			customers[customerID] = customerRow{
				id:           customerID,
				name:         orDefault(field(record, "Customer Name"), "Unknown"),
				phone:        field(record, "Phone Number"),
				gender:       normalizeEnum(field(record, "Gender"), "UNKNOWN"),
				age:          parseInt(field(record, "Age")),
				region:       field(record, "Customer Region"),
				customerType: normalizeEnum(field(record, "Customer Type"), "OTHER"),
			}
		}

		if _, ok := products[productID]; !ok {
			products[productID] = productRow{
				id:       productID,
				name:     orDefault(field(record, "Product Name"), "Unknown Product"),
				brand:    field(record, "Brand"),
				category: field(record, "Product Category"),
				tags:     normalizeTags(field(record, "Tags")),
			}
		}

		if _, ok := stores[storeID]; !ok {
			stores[storeID] = storeRow{
				id:       storeID,
				location: field(record, "Store Location"),
			}
		}

		if _, ok := employees[salespersonID]; !ok {
			employees[salespersonID] = employeeRow{
				id:   salespersonID,
				name: orDefault(field(record, "Employee Name"), "Unknown Employee"),
			}
		}

		sales = append(sales, saleRow{
			transactionID:      orGenerated(field(record, "Transaction ID"), "TXN"),
			date:               parseDate(field(record, "Date")),
			customerID:         customerID,
			productID:          productID,
			storeID:            storeID,
			salespersonID:      salespersonID,
			quantity:           parseInt(field(record, "Quantity")),
			pricePerUnit:       parseFloat(field(record, "Price per Unit")),
			discountPercentage: parseFloat(field(record, "Discount Percentage")),
			totalAmount:        parseFloat(field(record, "Total Amount")),
			finalAmount:        parseFloat(field(record, "Final Amount")),
			paymentMethod:      normalizeEnum(field(record, "Payment Method"), "OTHER"),
			orderStatus:        normalizeEnum(field(record, "Order Status"), "PENDING"),
			deliveryType:       normalizeEnum(field(record, "Delivery Type"), "OTHER"),
		})
	}

	summary := &Summary{
		Customers: len(customers),
		Products:  len(products),
		Stores:    len(stores),
		Employees: len(employees),
		Sales:     len(sales),
	}
	l.logger.WithContext(ctx).WithFields(map[string]any{
		"customers": summary.Customers,
		"products":  summary.Products,
		"stores":    summary.Stores,
		"employees": summary.Employees,
		"sales":     summary.Sales,
	}).Info("Parsed dataset")

	if err := l.upsertCustomers(ctx, values(customers)); err != nil {
		return nil, err
	}
	if err := l.upsertProducts(ctx, values(products)); err != nil {
		return nil, err
	}
	if err := l.upsertStores(ctx, values(stores)); err != nil {
		return nil, err
	}
	if err := l.upsertEmployees(ctx, values(employees)); err != nil {
		return nil, err
	}
	if err := l.upsertSales(ctx, sales); err != nil {
		return nil, err
	}

	return summary, nil
}

func (l *Loader) upsertCustomers(ctx context.Context, rows []customerRow) error {
	return inBatches(rows, l.batchSize, func(batch []customerRow) error {
		ib := database.NewInsertBuilder().
			InsertInto("customers").
			Cols("customer_id", "name", "phone_number", "gender", "age", "region", "customer_type")
		for _, row := range batch {
			ib = ib.Values(row.id, row.name, row.phone, row.gender, row.age, nullable(row.region), row.customerType)
		}
		ub := ib.OnConflict("customer_id")
		ub.Set(
			ub.Assign("name", database.Excluded("name")),
			ub.Assign("phone_number", database.Excluded("phone_number")),
			ub.Assign("gender", database.Excluded("gender")),
			ub.Assign("age", database.Excluded("age")),
			ub.Assign("region", database.Excluded("region")),
			ub.Assign("customer_type", database.Excluded("customer_type")),
		)

		return l.exec(ctx, "customers", ib)
	})
}

func (l *Loader) upsertProducts(ctx context.Context, rows []productRow) error {
	return inBatches(rows, l.batchSize, func(batch []productRow) error {
		ib := database.NewInsertBuilder().
			InsertInto("products").
			Cols("product_id", "name", "brand", "category", "tags")
		for _, row := range batch {
			ib = ib.Values(row.id, row.name, row.brand, row.category, pq.Array(row.tags))
		}
		ub := ib.OnConflict("product_id")
		ub.Set(
			ub.Assign("name", database.Excluded("name")),
			ub.Assign("brand", database.Excluded("brand")),
			ub.Assign("category", database.Excluded("category")),
			ub.Assign("tags", database.Excluded("tags")),
		)

		return l.exec(ctx, "products", ib)
	})
}

func (l *Loader) upsertStores(ctx context.Context, rows []storeRow) error {
	return inBatches(rows, l.batchSize, func(batch []storeRow) error {
		ib := database.NewInsertBuilder().
			InsertInto("stores").
			Cols("store_id", "location")
		for _, row := range batch {
			ib = ib.Values(row.id, row.location)
		}
		ub := ib.OnConflict("store_id")
		ub.Set(ub.Assign("location", database.Excluded("location")))

		return l.exec(ctx, "stores", ib)
	})
}

func (l *Loader) upsertEmployees(ctx context.Context, rows []employeeRow) error {
	return inBatches(rows, l.batchSize, func(batch []employeeRow) error {
		ib := database.NewInsertBuilder().
			InsertInto("employees").
			Cols("employee_id", "name")
		for _, row := range batch {
			ib = ib.Values(row.id, row.name)
		}
		ub := ib.OnConflict("employee_id")
		ub.Set(ub.Assign("name", database.Excluded("name")))

		return l.exec(ctx, "employees", ib)
	})
}

func (l *Loader) upsertSales(ctx context.Context, rows []saleRow) error {
	batchNum := 0
	return inBatches(rows, l.batchSize, func(batch []saleRow) error {
		batchNum++
		ib := database.NewInsertBuilder().
			InsertInto("sales").
			Cols(
				"transaction_id", "sale_date", "customer_id", "product_id", "store_id", "salesperson_id",
				"quantity", "price_per_unit", "discount_percentage", "total_amount", "final_amount",
				"payment_method", "order_status", "delivery_type",
			)
		for _, row := range batch {
			ib = ib.Values(
				row.transactionID, row.date, row.customerID, row.productID, row.storeID, row.salespersonID,
				row.quantity, row.pricePerUnit, row.discountPercentage, row.totalAmount, row.finalAmount,
				row.paymentMethod, row.orderStatus, row.deliveryType,
			)
		}
		ub := ib.OnConflict("transaction_id")
		ub.Set(
			ub.Assign("sale_date", database.Excluded("sale_date")),
			ub.Assign("customer_id", database.Excluded("customer_id")),
			ub.Assign("product_id", database.Excluded("product_id")),
			ub.Assign("store_id", database.Excluded("store_id")),
			ub.Assign("salesperson_id", database.Excluded("salesperson_id")),
			ub.Assign("quantity", database.Excluded("quantity")),
			ub.Assign("price_per_unit", database.Excluded("price_per_unit")),
			ub.Assign("discount_percentage", database.Excluded("discount_percentage")),
			ub.Assign("total_amount", database.Excluded("total_amount")),
			ub.Assign("final_amount", database.Excluded("final_amount")),
			ub.Assign("payment_method", database.Excluded("payment_method")),
			ub.Assign("order_status", database.Excluded("order_status")),
			ub.Assign("delivery_type", database.Excluded("delivery_type")),
		)

		if err := l.exec(ctx, "sales", ib); err != nil {
			return err
		}
		l.logger.WithContext(ctx).WithFields(map[string]any{"batch": batchNum, "rows": len(batch)}).Info("Inserted sales batch")
		return nil
	})
}

func (l *Loader) exec(ctx context.Context, table string, ib *database.InsertBuilder) error {
	sql, args := ib.Build()
	if _, err := l.db.ExecContext(ctx, sql, args...); err != nil {
		l.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": table}).Error("Failed to upsert batch")
		return fmt.Errorf("failed to upsert into %s: %w", table, err)
	}
	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

// normalizeEnum uppercases and snake-cases a categorical value so the same
// label never lands in the store under two spellings.
func normalizeEnum(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return whitespace.ReplaceAllString(strings.ToUpper(value), "_")
}

func normalizeTags(raw string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func parseDate(raw string) string {
	layouts := []string{"2006-01-02", time.RFC3339, "01/02/2006", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if date, err := time.Parse(layout, raw); err == nil {
			return date.Format("2006-01-02")
		}
	}
	return time.Now().UTC().Format("2006-01-02")
}

func parseInt(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func parseFloat(raw string) float64 {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func orGenerated(value, prefix string) string {
	if value != "" {
		return value
	}
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func values[K comparable, V any](m map[K]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func inBatches[T any](rows []T, size int, fn func(batch []T) error) error {
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		if err := fn(rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

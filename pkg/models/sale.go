package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
)

// SaleID is the numeric sale key, rendered as a string on the wire.
type SaleID int64

func (id SaleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(id), 10))
}

func (id *SaleID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		*id = SaleID(parsed)
		return nil
	}
	var numeric int64
	if err := json.Unmarshal(data, &numeric); err != nil {
		return err
	}
	*id = SaleID(numeric)
	return nil
}

// Date is a calendar date. It scans from a DATE column and marshals
// as YYYY-MM-DD without a time component.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.parse(raw)
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		d.Time = v
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	case nil:
		d.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", value)
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) parse(raw string) error {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			d.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", raw)
}

// SaleRecord is the flattened sale row returned by the listing endpoint.
// The projection joins customers, products, stores and employees onto the
// sales table; missing dimension rows surface as empty strings instead of
// dropping the sale.
type SaleRecord struct {
	ID                 SaleID         `json:"_id" db:"sale_id"`
	TransactionID      string         `json:"transactionId" db:"transaction_id"`
	Date               Date           `json:"date" db:"sale_date"`
	CustomerID         string         `json:"customerId" db:"customer_id"`
	CustomerName       string         `json:"customerName" db:"customer_name"`
	PhoneNumber        string         `json:"phoneNumber" db:"phone_number"`
	Gender             string         `json:"gender" db:"gender"`
	Age                int            `json:"age" db:"age"`
	CustomerRegion     string         `json:"customerRegion" db:"customer_region"`
	CustomerType       string         `json:"customerType" db:"customer_type"`
	ProductID          string         `json:"productId" db:"product_id"`
	ProductName        string         `json:"productName" db:"product_name"`
	Brand              string         `json:"brand" db:"brand"`
	ProductCategory    string         `json:"productCategory" db:"product_category"`
	Tags               pq.StringArray `json:"tags" db:"tags"`
	Quantity           int            `json:"quantity" db:"quantity"`
	PricePerUnit       float64        `json:"pricePerUnit" db:"price_per_unit"`
	DiscountPercentage float64        `json:"discountPercentage" db:"discount_percentage"`
	TotalAmount        float64        `json:"totalAmount" db:"total_amount"`
	FinalAmount        float64        `json:"finalAmount" db:"final_amount"`
	PaymentMethod      string         `json:"paymentMethod" db:"payment_method"`
	OrderStatus        string         `json:"orderStatus" db:"order_status"`
	DeliveryType       string         `json:"deliveryType" db:"delivery_type"`
	StoreID            string         `json:"storeId" db:"store_id"`
	StoreLocation      string         `json:"storeLocation" db:"store_location"`
	SalespersonID      string         `json:"salespersonId" db:"salesperson_id"`
	EmployeeName       string         `json:"employeeName" db:"employee_name"`
}

// SaleStats aggregates the full filtered set, not just the current page.
type SaleStats struct {
	TotalUnits    int64   `json:"totalUnits" db:"total_units"`
	TotalAmount   float64 `json:"totalAmount" db:"total_amount"`
	TotalDiscount float64 `json:"totalDiscount" db:"total_discount"`
}

// Pagination describes the page window of a listing response.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// SaleListResponse is the envelope for GET /api/transactions.
type SaleListResponse struct {
	Data       []SaleRecord `json:"data"`
	Pagination Pagination   `json:"pagination"`
	Stats      SaleStats    `json:"stats"`
}

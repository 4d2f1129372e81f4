package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleRecordJSON(t *testing.T) {
	record := SaleRecord{
		ID:            42,
		TransactionID: "TXN_001",
		Date:          Date{time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		CustomerName:  "Asha",
	}

	raw, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	t.Run("should render _id as a string", func(t *testing.T) {
		assert.Equal(t, "42", decoded["_id"])
	})

	t.Run("should render date as a calendar date", func(t *testing.T) {
		assert.Equal(t, "2024-01-10", decoded["date"])
	})

	t.Run("should round trip through unmarshal", func(t *testing.T) {
		var back SaleRecord
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, record.ID, back.ID)
		assert.Equal(t, record.Date.Time, back.Date.Time)
	})
}

func TestDateScan(t *testing.T) {
	t.Run("should scan a time value", func(t *testing.T) {
		var date Date
		require.NoError(t, date.Scan(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), date.Time)
	})

	t.Run("should scan a text value", func(t *testing.T) {
		var date Date
		require.NoError(t, date.Scan([]byte("2024-03-05")))
		assert.Equal(t, 5, date.Day())
	})

	t.Run("should reject unsupported values", func(t *testing.T) {
		var date Date
		assert.Error(t, date.Scan(42))
	})
}

func TestEmployeePerformanceJSON(t *testing.T) {
	row := EmployeePerformance{
		SalespersonID: "EMP_001",
		EmployeeName:  "Asha",
		TotalUnits:    5,
		TotalAmount:   150,
		TotalDiscount: 10,
	}

	raw, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	t.Run("should key the employee on employeeId", func(t *testing.T) {
		assert.Equal(t, "EMP_001", decoded["employeeId"])
		assert.NotContains(t, decoded, "salespersonId")
	})

	t.Run("should keep the aggregate fields", func(t *testing.T) {
		assert.Equal(t, float64(5), decoded["totalUnits"])
		assert.Equal(t, float64(150), decoded["totalAmount"])
		assert.Equal(t, float64(10), decoded["totalDiscount"])
	})
}

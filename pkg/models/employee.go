package models

// EmployeePerformance is one grouped row of the employee aggregation view.
// Rows group by salesperson id and sum over every sale that salesperson made
// within the current filter set.
type EmployeePerformance struct {
	SalespersonID string  `json:"employeeId" db:"salesperson_id"`
	EmployeeName  string  `json:"employeeName" db:"employee_name"`
	TotalUnits    int64   `json:"totalUnits" db:"total_units"`
	TotalAmount   float64 `json:"totalAmount" db:"total_amount"`
	TotalDiscount float64 `json:"totalDiscount" db:"total_discount"`
}

// EmployeeListResponse is the envelope for GET /api/transactions/employees.
// Pagination counts distinct salespersons; stats sum across every grouped row,
// not just the current page.
type EmployeeListResponse struct {
	Data       []EmployeePerformance `json:"data"`
	Pagination Pagination            `json:"pagination"`
	Stats      SaleStats             `json:"stats"`
}

package models

// FilterOptions lists the values the dashboard can filter on. Served from the
// database when possible, from the fixed defaults when not.
type FilterOptions struct {
	Regions        []string `json:"regions"`
	Categories     []string `json:"categories"`
	Tags           []string `json:"tags"`
	PaymentMethods []string `json:"paymentMethods"`
}

// DefaultFilterOptions is the degraded-mode vocabulary. The options endpoint
// never fails; any field the database cannot supply falls back to these.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		Regions:        []string{"North", "South", "East", "West", "Central"},
		Categories:     []string{"Electronics", "Clothing", "Beauty", "Grocery", "Sports"},
		Tags:           []string{"premium", "budget", "new", "eco", "sale"},
		PaymentMethods: []string{"Cash", "Credit Card", "Debit Card", "UPI", "Wallet"},
	}
}

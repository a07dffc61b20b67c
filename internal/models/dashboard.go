package models

// CenterSummary is the per-collection-center slice of the dashboard.
// Summaries are always computed across all centers, even when the
// dashboard itself is filtered to one.
type CenterSummary struct {
	CenterID       string  `json:"center_id"`
	Patients       int     `json:"patients"`
	Invoices       int     `json:"invoices"`
	PendingReports int     `json:"pending_reports"`
	Revenue        float64 `json:"revenue"`
}

// Dashboard is a derived read-model. It is recomputed from the store
// snapshot after every mutation and never mutated directly.
type Dashboard struct {
	TotalPatients int `json:"total_patients"`
	TotalDoctors  int `json:"total_doctors"`
	TotalTests    int `json:"total_tests"`
	TotalInvoices int `json:"total_invoices"`
	TotalReports  int `json:"total_reports"`

	PatientsToday int     `json:"patients_today"`
	InvoicesToday int     `json:"invoices_today"`
	RevenueToday  float64 `json:"revenue_today"`
	ActivityToday int     `json:"activity_today"`

	PendingReports  int `json:"pending_reports"`
	CriticalReports int `json:"critical_reports"`
	UnpaidInvoices  int `json:"unpaid_invoices"`
	OverdueInvoices int `json:"overdue_invoices"`
	LowStockItems   int `json:"low_stock_items"`

	TotalRevenue  float64 `json:"total_revenue"`
	Outstanding   float64 `json:"outstanding"`
	TotalExpenses float64 `json:"total_expenses"`
	NetRevenue    float64 `json:"net_revenue"`

	Centers []CenterSummary `json:"centers"`
}

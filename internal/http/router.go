// Package http assembles the API surface: public auth routes, the
// authenticated /api subtree with per-route permission checks, and the
// operational endpoints (health, metrics).
package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lims-backend/internal/handlers"
	"lims-backend/internal/middleware"
)

// Handlers bundles every handler the router mounts
type Handlers struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Tests     *handlers.TestHandler
	Invoices  *handlers.InvoiceHandler
	Reports   *handlers.ReportHandler
	Dashboard *handlers.DashboardHandler
	Patients  *handlers.PatientHandler
	Doctors   *handlers.DoctorHandler
	Inventory *handlers.InventoryHandler
	AuditLogs *handlers.AuditLogHandler
	Exports   *handlers.ExportHandler
	Razorpay  *handlers.RazorpayHandler
	TOTP      *handlers.TOTPHandler
	Health    *handlers.HealthHandler
}

// NewRouter wires all routes. Everything under /api requires a valid
// token; mutating routes additionally require the matching capability.
func NewRouter(h *Handlers, authMW *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/auth/signup", h.Auth.Signup).Methods("POST")
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")

	// Webhook is authenticated by its gateway signature, not a token
	r.HandleFunc("/webhooks/razorpay", h.Razorpay.HandleWebhook).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMW.Authenticate)

	perm := func(module, action string, fn http.HandlerFunc) http.Handler {
		return middleware.RequirePermission(module, action)(fn)
	}

	// Test catalog
	api.Handle("/tests", perm("tests", "view", h.Tests.ListTests)).Methods("GET")
	api.Handle("/tests", perm("tests", "create", h.Tests.CreateTest)).Methods("POST")
	api.Handle("/tests/{id:[0-9]+}", perm("tests", "view", h.Tests.GetTest)).Methods("GET")
	api.Handle("/tests/{id:[0-9]+}", perm("tests", "update", h.Tests.UpdateTest)).Methods("PUT")
	api.Handle("/tests/{id:[0-9]+}", perm("tests", "delete", h.Tests.DeleteTest)).Methods("DELETE")

	// Invoices and payments
	api.Handle("/invoices", perm("invoices", "view", h.Invoices.ListInvoices)).Methods("GET")
	api.Handle("/invoices", perm("invoices", "create", h.Invoices.CreateInvoice)).Methods("POST")
	api.Handle("/invoices/{id:[0-9]+}", perm("invoices", "view", h.Invoices.GetInvoice)).Methods("GET")
	api.Handle("/invoices/{id:[0-9]+}", perm("invoices", "update", h.Invoices.UpdateInvoice)).Methods("PUT")
	api.Handle("/invoices/{id:[0-9]+}", perm("invoices", "delete", h.Invoices.DeleteInvoice)).Methods("DELETE")
	api.Handle("/invoices/{id:[0-9]+}/payments", perm("invoices", "update", h.Invoices.RecordPayment)).Methods("POST")

	// Online payments
	api.Handle("/payments/orders", perm("invoices", "update", h.Razorpay.CreateOrder)).Methods("POST")
	api.Handle("/payments/verify", perm("invoices", "update", h.Razorpay.VerifyPayment)).Methods("POST")
	api.Handle("/payments/transactions", perm("invoices", "view", h.Razorpay.ListTransactions)).Methods("GET")

	// Reports
	api.Handle("/reports", perm("reports", "view", h.Reports.ListReports)).Methods("GET")
	api.Handle("/reports/{id:[0-9]+}", perm("reports", "view", h.Reports.GetReport)).Methods("GET")
	api.Handle("/reports/{id:[0-9]+}", perm("reports", "update", h.Reports.UpdateReport)).Methods("PUT")
	api.Handle("/reports/{id:[0-9]+}/start", perm("reports", "update", h.Reports.MarkInProgress)).Methods("POST")
	api.Handle("/reports/{id:[0-9]+}/complete", perm("reports", "update", h.Reports.MarkCompleted)).Methods("POST")
	api.Handle("/reports/{id:[0-9]+}/verify", perm("reports", "verify", h.Reports.VerifyReport)).Methods("POST")
	api.Handle("/reports/{id:[0-9]+}/decline", perm("reports", "verify", h.Reports.DeclineReport)).Methods("POST")
	api.Handle("/reports/{id:[0-9]+}/undo", perm("reports", "verify", h.Reports.UndoVerification)).Methods("POST")
	api.Handle("/reports/{id:[0-9]+}/lock", perm("reports", "verify", h.Reports.LockReport)).Methods("POST")
	api.Handle("/reports/{id:[0-9]+}/comments", perm("reports", "update", h.Reports.AddComment)).Methods("POST")
	api.Handle("/reports/{id:[0-9]+}/attachments", perm("reports", "update", h.Reports.AddAttachment)).Methods("POST")

	// Dashboard
	api.Handle("/dashboard", perm("dashboard", "view", h.Dashboard.GetDashboard)).Methods("GET")

	// Registries
	api.Handle("/patients", perm("patients", "view", h.Patients.ListPatients)).Methods("GET")
	api.Handle("/patients", perm("patients", "create", h.Patients.CreatePatient)).Methods("POST")
	api.Handle("/doctors", perm("doctors", "view", h.Doctors.ListDoctors)).Methods("GET")
	api.Handle("/doctors", perm("doctors", "create", h.Doctors.CreateDoctor)).Methods("POST")
	api.Handle("/stock", perm("stock", "view", h.Inventory.ListStock)).Methods("GET")
	api.Handle("/stock", perm("stock", "update", h.Inventory.UpsertStockItem)).Methods("POST")
	api.Handle("/expenses", perm("expenses", "view", h.Inventory.ListExpenses)).Methods("GET")
	api.Handle("/expenses", perm("expenses", "create", h.Inventory.CreateExpense)).Methods("POST")

	// Audit trail and notifications
	api.Handle("/audit-logs", perm("audit", "view", h.AuditLogs.ListAuditLogs)).Methods("GET")
	api.Handle("/notifications", perm("audit", "view", h.AuditLogs.ListNotifications)).Methods("GET")
	api.Handle("/notifications/read", perm("audit", "view", h.AuditLogs.MarkNotificationsRead)).Methods("POST")

	// Exports
	api.Handle("/exports/invoices/{id:[0-9]+}/pdf", perm("invoices", "view", h.Exports.InvoicePDF)).Methods("GET")
	api.Handle("/exports/reports/{id:[0-9]+}/pdf", perm("reports", "view", h.Exports.ReportPDF)).Methods("GET")
	api.Handle("/exports/invoices.csv", perm("invoices", "view", h.Exports.InvoicesCSV)).Methods("GET")

	// Users and second factor
	api.HandleFunc("/me", h.Users.GetCurrentUser).Methods("GET")
	api.Handle("/users", perm("users", "view", h.Users.ListUsers)).Methods("GET")
	api.Handle("/users/{id:[0-9]+}", perm("users", "view", h.Users.GetUser)).Methods("GET")
	api.HandleFunc("/totp/setup", h.TOTP.Setup).Methods("POST")
	api.HandleFunc("/totp/enable", h.TOTP.Enable).Methods("POST")
	api.HandleFunc("/totp/disable", h.TOTP.Disable).Methods("POST")
	api.HandleFunc("/totp/status", h.TOTP.Status).Methods("GET")

	return r
}

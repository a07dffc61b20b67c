package store

import "lims-backend/internal/models"

// List accessors return id-ordered slices of the live records. Callers
// holding only a View must not mutate them.

func (st *State) PatientList() []*models.Patient   { return sortedValues(st.Patients) }
func (st *State) DoctorList() []*models.Doctor     { return sortedValues(st.Doctors) }
func (st *State) TestList() []*models.Test         { return sortedValues(st.Tests) }
func (st *State) InvoiceList() []*models.Invoice   { return sortedValues(st.Invoices) }
func (st *State) ReportList() []*models.Report     { return sortedValues(st.Reports) }
func (st *State) StockList() []*models.StockItem   { return sortedValues(st.Stock) }
func (st *State) ExpenseList() []*models.Expense   { return sortedValues(st.Expenses) }
func (st *State) AuditLogList() []*models.AuditLog { return sortedValues(st.AuditLogs) }
func (st *State) UserList() []*models.User         { return sortedValues(st.Users) }

func (st *State) NotificationList() []*models.Notification {
	return sortedValues(st.Notifications)
}

func (st *State) OnlineTxList() []*models.OnlineTransaction {
	return sortedValues(st.OnlineTx)
}

// OnlineTxByOrderID finds a transaction by its gateway order id
func (st *State) OnlineTxByOrderID(orderID string) *models.OnlineTransaction {
	for _, t := range st.OnlineTx {
		if t.RazorpayOrderID == orderID {
			return t
		}
	}
	return nil
}

// UserByEmail finds a user by login email
func (st *State) UserByEmail(email string) *models.User {
	for _, u := range st.Users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// ReportByInvoiceID finds the report linked to an invoice (1:1)
func (st *State) ReportByInvoiceID(invoiceID int) *models.Report {
	for _, r := range st.Reports {
		if r.InvoiceID == invoiceID {
			return r
		}
	}
	return nil
}

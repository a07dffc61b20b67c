package services

import (
	"context"
	"fmt"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// RegistryService covers the simple registries the dashboard aggregates
// over: patients, referring doctors, stock items and expenses. These
// have no cascade logic of their own.
type RegistryService struct {
	Store    *store.Store
	Recorder *AuditRecorder
}

func NewRegistryService(st *store.Store, recorder *AuditRecorder) *RegistryService {
	return &RegistryService{Store: st, Recorder: recorder}
}

// CreatePatient registers a patient
func (s *RegistryService) CreatePatient(ctx context.Context, req *models.CreatePatientRequest, userID int) (*models.Patient, error) {
	var created *models.Patient
	err := s.Store.Update(func(st *store.State) error {
		p := &models.Patient{
			ID:                 st.NextID(store.ColPatients),
			Name:               req.Name,
			Age:                req.Age,
			Gender:             req.Gender,
			Phone:              req.Phone,
			Email:              req.Email,
			Address:            req.Address,
			CollectionCenterID: req.CollectionCenterID,
			CreatedAt:          timeutil.Now(),
		}
		st.Patients[p.ID] = p
		st.Touch(store.ColPatients)
		s.Recorder.Log(st, userID, models.AuditActionCreate, "patients",
			fmt.Sprintf("Registered patient %q", p.Name))
		created = p
		return nil
	})
	return created, err
}

// ListPatients returns all patients
func (s *RegistryService) ListPatients(ctx context.Context) []*models.Patient {
	var out []*models.Patient
	s.Store.View(func(st *store.State) { out = st.PatientList() })
	return out
}

// CreateDoctor adds a referring doctor
func (s *RegistryService) CreateDoctor(ctx context.Context, req *models.CreateDoctorRequest, userID int) (*models.Doctor, error) {
	var created *models.Doctor
	err := s.Store.Update(func(st *store.State) error {
		d := &models.Doctor{
			ID:                st.NextID(store.ColDoctors),
			Name:              req.Name,
			Specialty:         req.Specialty,
			Phone:             req.Phone,
			Email:             req.Email,
			CommissionPercent: req.CommissionPercent,
			CreatedAt:         timeutil.Now(),
		}
		st.Doctors[d.ID] = d
		st.Touch(store.ColDoctors)
		s.Recorder.Log(st, userID, models.AuditActionCreate, "doctors",
			fmt.Sprintf("Added doctor %q", d.Name))
		created = d
		return nil
	})
	return created, err
}

// ListDoctors returns all doctors
func (s *RegistryService) ListDoctors(ctx context.Context) []*models.Doctor {
	var out []*models.Doctor
	s.Store.View(func(st *store.State) { out = st.DoctorList() })
	return out
}

// UpsertStockItem creates a stock item or replaces its quantities
func (s *RegistryService) UpsertStockItem(ctx context.Context, item *models.StockItem, userID int) (*models.StockItem, error) {
	var saved *models.StockItem
	err := s.Store.Update(func(st *store.State) error {
		item.UpdatedAt = timeutil.Now()
		if item.ID == 0 {
			item.ID = st.NextID(store.ColStock)
			s.Recorder.Log(st, userID, models.AuditActionCreate, "stock",
				fmt.Sprintf("Added stock item %q (qty %d)", item.Name, item.Quantity))
		} else {
			if _, ok := st.Stock[item.ID]; !ok {
				return ErrNotFound
			}
			s.Recorder.Log(st, userID, models.AuditActionUpdate, "stock",
				fmt.Sprintf("Updated stock item %q (qty %d)", item.Name, item.Quantity))
		}
		st.Stock[item.ID] = item
		st.Touch(store.ColStock)
		saved = item
		return nil
	})
	return saved, err
}

// ListStock returns all stock items
func (s *RegistryService) ListStock(ctx context.Context) []*models.StockItem {
	var out []*models.StockItem
	s.Store.View(func(st *store.State) { out = st.StockList() })
	return out
}

// CreateExpense records an operating expense
func (s *RegistryService) CreateExpense(ctx context.Context, e *models.Expense, userID int) (*models.Expense, error) {
	var created *models.Expense
	err := s.Store.Update(func(st *store.State) error {
		e.ID = st.NextID(store.ColExpenses)
		e.CreatedBy = userID
		e.CreatedAt = timeutil.Now()
		if e.Date.IsZero() {
			e.Date = e.CreatedAt
		}
		st.Expenses[e.ID] = e
		st.Touch(store.ColExpenses)
		s.Recorder.Log(st, userID, models.AuditActionCreate, "expenses",
			fmt.Sprintf("Recorded expense %.2f (%s)", e.Amount, e.Category))
		created = e
		return nil
	})
	return created, err
}

// ListExpenses returns all expenses
func (s *RegistryService) ListExpenses(ctx context.Context) []*models.Expense {
	var out []*models.Expense
	s.Store.View(func(st *store.State) { out = st.ExpenseList() })
	return out
}

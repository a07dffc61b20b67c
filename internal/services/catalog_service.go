package services

import (
	"context"
	"fmt"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// CatalogService owns CRUD on the master test catalog. Updates and
// deletes cascade into every invoice and report that references the
// test, so a catalog edit can never leave dangling references behind.
type CatalogService struct {
	Store    *store.Store
	Recorder *AuditRecorder
}

func NewCatalogService(st *store.Store, recorder *AuditRecorder) *CatalogService {
	return &CatalogService{Store: st, Recorder: recorder}
}

// CreateTest adds a catalog test
func (s *CatalogService) CreateTest(ctx context.Context, req *models.CreateTestRequest, userID int) (*models.Test, error) {
	var created *models.Test
	err := s.Store.Update(func(st *store.State) error {
		now := timeutil.Now()
		t := &models.Test{
			ID:                 st.NextID(store.ColTests),
			Name:               req.Name,
			Category:           req.Category,
			Price:              req.Price,
			SampleType:         req.SampleType,
			ReferenceRange:     req.ReferenceRange,
			Unit:               req.Unit,
			Parameters:         req.Parameters,
			IsActive:           true,
			CollectionCenterID: req.CollectionCenterID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		st.Tests[t.ID] = t
		st.Touch(store.ColTests)

		s.Recorder.Log(st, userID, models.AuditActionCreate, "tests",
			fmt.Sprintf("Created test %q (price %.2f)", t.Name, t.Price))
		s.Recorder.Notify(st, models.NotificationSuccess, "tests",
			"Test added", fmt.Sprintf("%s added to the catalog", t.Name), models.PriorityNormal)

		created = t
		return nil
	})
	return created, err
}

// UpdateTest edits a catalog test and cascades display-field changes
// into dependent invoices and reports.
func (s *CatalogService) UpdateTest(ctx context.Context, id int, req *models.UpdateTestRequest, userID int) (*models.Test, error) {
	var updated *models.Test
	err := s.Store.Update(func(st *store.State) error {
		t, ok := st.Tests[id]
		if !ok {
			return ErrNotFound
		}

		changes := []FieldChange{}
		if req.Name != nil {
			changes = append(changes, FieldChange{"name", t.Name, *req.Name})
			t.Name = *req.Name
		}
		if req.Category != nil {
			changes = append(changes, FieldChange{"category", t.Category, *req.Category})
			t.Category = *req.Category
		}
		if req.Price != nil {
			changes = append(changes, FieldChange{"price", t.Price, *req.Price})
			t.Price = *req.Price
		}
		if req.SampleType != nil {
			changes = append(changes, FieldChange{"sample_type", t.SampleType, *req.SampleType})
			t.SampleType = *req.SampleType
		}
		if req.ReferenceRange != nil {
			changes = append(changes, FieldChange{"reference_range", t.ReferenceRange, *req.ReferenceRange})
			t.ReferenceRange = *req.ReferenceRange
		}
		if req.Unit != nil {
			changes = append(changes, FieldChange{"unit", t.Unit, *req.Unit})
			t.Unit = *req.Unit
		}
		if req.Parameters != nil {
			changes = append(changes, FieldChange{"parameters", len(t.Parameters), len(*req.Parameters)})
			t.Parameters = *req.Parameters
		}
		if req.IsActive != nil {
			changes = append(changes, FieldChange{"is_active", t.IsActive, *req.IsActive})
			t.IsActive = *req.IsActive
		}
		t.UpdatedAt = timeutil.Now()
		st.Touch(store.ColTests)

		invoices, reports := s.cascadeTestUpdate(st, t, userID)

		detail := DiffDetail(changes)
		if detail == "" {
			detail = "No field changes"
		}
		s.Recorder.Log(st, userID, models.AuditActionUpdate, "tests",
			fmt.Sprintf("Updated test %q: %s", t.Name, detail))
		if invoices > 0 || reports > 0 {
			s.Recorder.Notify(st, models.NotificationInfo, "tests", "Test updated",
				fmt.Sprintf("%s updated; refreshed %d invoice(s) and %d report(s)", t.Name, invoices, reports),
				models.PriorityNormal)
		}

		updated = t
		return nil
	})
	return updated, err
}

// DeleteTest removes a catalog test and sweeps the reference out of
// every invoice and report. Deleting an id that does not exist is a
// no-op.
func (s *CatalogService) DeleteTest(ctx context.Context, id int, userID int) error {
	return s.Store.Update(func(st *store.State) error {
		t, ok := st.Tests[id]
		if !ok {
			return nil
		}
		name := t.Name
		delete(st.Tests, id)
		st.Touch(store.ColTests)

		invoices, reports := s.cascadeTestDelete(st, id, userID)

		s.Recorder.Log(st, userID, models.AuditActionDelete, "tests",
			fmt.Sprintf("Deleted test %q", name))
		if invoices > 0 || reports > 0 {
			// One summary warning for the whole sweep, not one per record
			s.Recorder.Notify(st, models.NotificationWarning, "tests", "Test deleted",
				fmt.Sprintf("%s removed; %d invoice(s) and %d report(s) were updated", name, invoices, reports),
				models.PriorityHigh)
		}
		return nil
	})
}

// GetTest returns one catalog test
func (s *CatalogService) GetTest(ctx context.Context, id int) (*models.Test, error) {
	var t *models.Test
	s.Store.View(func(st *store.State) {
		if found, ok := st.Tests[id]; ok {
			cp := *found
			t = &cp
		}
	})
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// ListTests returns the catalog ordered by id
func (s *CatalogService) ListTests(ctx context.Context) []*models.Test {
	var out []*models.Test
	s.Store.View(func(st *store.State) {
		out = st.TestList()
	})
	return out
}

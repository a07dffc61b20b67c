package store

import (
	"context"
	"testing"

	"lims-backend/internal/models"
	"lims-backend/internal/persistence"
	"lims-backend/internal/timeutil"
)

func TestSequences(t *testing.T) {
	st := New(persistence.NewMemory())

	var first, second int
	var invNum string
	st.Update(func(s *State) error {
		first = s.NextID(ColPatients)
		second = s.NextID(ColPatients)
		invNum = s.NextInvoiceNumber()
		return nil
	})

	if first != 1 || second != 2 {
		t.Errorf("NextID sequence = %d, %d", first, second)
	}
	if invNum != "INV-000001" {
		t.Errorf("invoice number = %q", invNum)
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	port := persistence.NewMemory()

	st := New(port)
	err := st.Update(func(s *State) error {
		p := &models.Patient{ID: s.NextID(ColPatients), Name: "Asha Verma", Age: 34, CreatedAt: timeutil.Now()}
		s.Patients[p.ID] = p

		inv := &models.Invoice{
			ID:            s.NextID(ColInvoices),
			InvoiceNumber: s.NextInvoiceNumber(),
			PatientID:     p.ID,
			TotalAmount:   500,
			FinalAmount:   500,
			Status:        models.InvoiceStatusDue,
			CreatedAt:     timeutil.Now(),
		}
		s.Invoices[inv.ID] = inv

		s.Touch(ColPatients, ColInvoices)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// Update saves in the background; Flush makes the state durable
	if err := st.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded := New(port)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	reloaded.View(func(s *State) {
		p, ok := s.Patients[1]
		if !ok {
			t.Fatal("patient not restored")
		}
		if p.Name != "Asha Verma" || p.Age != 34 {
			t.Errorf("patient = %+v", p)
		}
		inv, ok := s.Invoices[1]
		if !ok {
			t.Fatal("invoice not restored")
		}
		if inv.InvoiceNumber != "INV-000001" || inv.FinalAmount != 500 {
			t.Errorf("invoice = %+v", inv)
		}
	})

	// Sequences continue from the restored data, never reuse IDs
	reloaded.Update(func(s *State) error {
		if id := s.NextID(ColPatients); id != 2 {
			t.Errorf("patient seq after reload = %d, want 2", id)
		}
		if n := s.NextInvoiceNumber(); n != "INV-000002" {
			t.Errorf("invoice number after reload = %q", n)
		}
		return nil
	})
}

func TestLoadEmptyPort(t *testing.T) {
	st := New(persistence.NewMemory())
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load from empty port: %v", err)
	}
	st.Update(func(s *State) error {
		if id := s.NextID(ColTests); id != 1 {
			t.Errorf("seq on fresh store = %d", id)
		}
		return nil
	})
}

func TestSnapshot(t *testing.T) {
	st := New(persistence.NewMemory())
	st.Update(func(s *State) error {
		d := &models.Doctor{ID: s.NextID(ColDoctors), Name: "Dr. Rao"}
		s.Doctors[d.ID] = d
		s.Touch(ColDoctors)
		return nil
	})

	data, err := st.Snapshot(ColDoctors)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(data) == 0 || string(data) == "null" {
		t.Errorf("snapshot = %q", data)
	}

	if _, err := st.Snapshot("unknown"); err == nil {
		t.Error("expected error for unknown collection")
	}
}

package services

import (
	"testing"

	"lims-backend/internal/models"
	"lims-backend/internal/persistence"
	"lims-backend/internal/store"
)

func TestDiffDetail(t *testing.T) {
	t.Run("renders only changed fields", func(t *testing.T) {
		got := DiffDetail([]FieldChange{
			{Field: "name", Old: "CBC", New: "Complete Blood Count"},
			{Field: "price", Old: 300.0, New: 300.0},
			{Field: "unit", Old: "g/dL", New: "mg/dL"},
		})
		want := "name: CBC -> Complete Blood Count; unit: g/dL -> mg/dL"
		if got != want {
			t.Errorf("DiffDetail = %q, want %q", got, want)
		}
	})

	t.Run("empty when nothing changed", func(t *testing.T) {
		got := DiffDetail([]FieldChange{
			{Field: "price", Old: 300.0, New: 300.0},
		})
		if got != "" {
			t.Errorf("DiffDetail = %q, want empty", got)
		}
	})

	t.Run("mixed types compare by rendered value", func(t *testing.T) {
		got := DiffDetail([]FieldChange{
			{Field: "discount", Old: 0.0, New: 50.0},
		})
		if got != "discount: 0 -> 50" {
			t.Errorf("DiffDetail = %q", got)
		}
	})
}

func TestRecorderAppends(t *testing.T) {
	st := store.New(persistence.NewMemory())
	rec := NewAuditRecorder()

	err := st.Update(func(s *store.State) error {
		rec.Log(s, 7, "update", "tests", "name: CBC -> CBC Panel")
		rec.Log(s, 7, "delete", "tests", "removed test CBC Panel")
		rec.Notify(s, models.NotificationWarning, "tests",
			"Test deleted", "CBC Panel removed from catalog", models.PriorityHigh)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var logs []*models.AuditLog
	var notes []*models.Notification
	st.View(func(s *store.State) {
		logs = s.AuditLogList()
		notes = s.NotificationList()
	})

	if len(logs) != 2 {
		t.Fatalf("audit logs = %d, want 2", len(logs))
	}
	if logs[0].ID == logs[1].ID {
		t.Error("audit log IDs not unique")
	}
	if logs[0].UserID != 7 || logs[0].Module != "tests" {
		t.Errorf("first entry = %+v", logs[0])
	}
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	if notes[0].IsRead {
		t.Error("new notification should be unread")
	}
	if notes[0].Priority != models.PriorityHigh {
		t.Errorf("priority = %q", notes[0].Priority)
	}
}

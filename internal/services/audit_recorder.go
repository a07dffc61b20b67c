package services

import (
	"fmt"
	"strings"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// AuditRecorder appends audit entries and user-facing notifications.
// It carries no business logic; callers invoke it from inside the same
// store.Update that performs the mutation, so the audit trail is never
// out of step with the data.
type AuditRecorder struct{}

func NewAuditRecorder() *AuditRecorder {
	return &AuditRecorder{}
}

// Log appends one immutable audit entry
func (r *AuditRecorder) Log(st *store.State, userID int, action, module, detail string) {
	entry := &models.AuditLog{
		ID:        st.NextID(store.ColAuditLogs),
		UserID:    userID,
		Action:    action,
		Module:    module,
		Detail:    detail,
		Timestamp: timeutil.Now(),
	}
	st.AuditLogs[entry.ID] = entry
	st.Touch(store.ColAuditLogs)
}

// Notify appends one notification
func (r *AuditRecorder) Notify(st *store.State, typ, category, title, message, priority string) {
	n := &models.Notification{
		ID:        st.NextID(store.ColNotifications),
		Type:      typ,
		Category:  category,
		Title:     title,
		Message:   message,
		CreatedAt: timeutil.Now(),
		IsRead:    false,
		Priority:  priority,
	}
	st.Notifications[n.ID] = n
	st.Touch(store.ColNotifications)
}

// FieldChange is one entry of a structured before/after diff
type FieldChange struct {
	Field string
	Old   interface{}
	New   interface{}
}

// DiffDetail renders field changes into the audit detail format.
// Unchanged pairs are dropped, so callers can pass every candidate
// field and let the recorder decide what is worth recording.
func DiffDetail(changes []FieldChange) string {
	var parts []string
	for _, c := range changes {
		oldV := fmt.Sprintf("%v", c.Old)
		newV := fmt.Sprintf("%v", c.New)
		if oldV == newV {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s -> %s", c.Field, oldV, newV))
	}
	return strings.Join(parts, "; ")
}

package handlers

import (
	"net/http"
	"strconv"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/pkg/utils"
)

// AuditLogHandler serves the read-only audit trail and notifications
type AuditLogHandler struct {
	Store *store.Store
}

func NewAuditLogHandler(st *store.Store) *AuditLogHandler {
	return &AuditLogHandler{Store: st}
}

// ListAuditLogs returns audit entries newest first, optionally limited
// via ?limit= and filtered via ?module=.
func (h *AuditLogHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var logs []*models.AuditLog
	h.Store.View(func(st *store.State) {
		for _, entry := range st.AuditLogList() {
			if module != "" && entry.Module != module {
				continue
			}
			cp := *entry
			logs = append(logs, &cp)
		}
	})

	// newest first
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	utils.JSON(w, http.StatusOK, logs)
}

func (h *AuditLogHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"

	var out []*models.Notification
	h.Store.View(func(st *store.State) {
		for _, n := range st.NotificationList() {
			if unreadOnly && n.IsRead {
				continue
			}
			cp := *n
			out = append(out, &cp)
		}
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	utils.JSON(w, http.StatusOK, out)
}

// MarkNotificationsRead marks every notification read
func (h *AuditLogHandler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	err := h.Store.Update(func(st *store.State) error {
		for _, n := range st.Notifications {
			n.IsRead = true
		}
		st.Touch(store.ColNotifications)
		return nil
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Notifications marked read"})
}

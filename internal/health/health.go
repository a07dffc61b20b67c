package health

import (
	"context"
	"time"

	"lims-backend/internal/store"
)

type HealthChecker struct {
	store *store.Store
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Persistence PersistenceHealth `json:"persistence"`
}

type PersistenceHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

func NewHealthChecker(st *store.Store) *HealthChecker {
	return &HealthChecker{store: st}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	p := h.checkPersistence()

	status := "healthy"
	if p.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{Status: status, Persistence: p}
}

func (h *HealthChecker) checkPersistence() PersistenceHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return PersistenceHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return PersistenceHealth{Status: "healthy", ResponseTime: responseTime}
}

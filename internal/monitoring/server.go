// Package monitoring runs a small operational dashboard on a separate
// port: system and persistence stats over HTTP, plus a websocket feed
// that pushes alerts (persistence failures, high latency, unverified
// critical reports) as they fire.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
)

type Server struct {
	store      *store.Store
	port       int
	startedAt  time.Time
	alerts     []Alert
	alertsMux  sync.RWMutex
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Alert
}

type Alert struct {
	ID        int       `json:"id"`
	Severity  string    `json:"severity"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

type Stats struct {
	PersistenceStatus string  `json:"persistence_status"`
	ResponseTime      int64   `json:"response_time_ms"`
	ActiveAlerts      int     `json:"active_alerts"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	DiskPercent       float64 `json:"disk_percent"`
	MemoryUsed        string  `json:"memory_used"`
	MemoryTotal       string  `json:"memory_total"`
	DiskUsed          string  `json:"disk_used"`
	DiskTotal         string  `json:"disk_total"`
	Uptime            string  `json:"uptime"`

	Patients         int `json:"patients"`
	Invoices         int `json:"invoices"`
	Reports          int `json:"reports"`
	PendingReports   int `json:"pending_reports"`
	CriticalUnsigned int `json:"critical_unsigned"`
	OverdueInvoices  int `json:"overdue_invoices"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewServer(st *store.Store, port int) *Server {
	return &Server{
		store:     st,
		port:      port,
		startedAt: time.Now(),
		alerts:    make([]Alert, 0),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Alert),
	}
}

func (ms *Server) Start() {
	r := mux.NewRouter()

	r.HandleFunc("/api/stats", ms.getStats).Methods("GET")
	r.HandleFunc("/api/alerts", ms.getAlerts).Methods("GET")
	r.HandleFunc("/ws", ms.handleWebSocket)

	go ms.handleBroadcast()
	go ms.monitorHealth()

	addr := fmt.Sprintf(":%d", ms.port)
	log.Printf("[Monitoring] Dashboard running on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func (ms *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats := ms.collectStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (ms *Server) collectStats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := ms.store.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	persistenceStatus := "healthy"
	if err != nil {
		persistenceStatus = "unhealthy"
	}

	cpuPercents, _ := cpu.Percent(time.Second, false)
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	var patients, invoices, reports, pendingReports, criticalUnsigned, overdueInvoices int
	ms.store.View(func(st *store.State) {
		patients = len(st.Patients)
		invoices = len(st.Invoices)
		reports = len(st.Reports)
		for _, rep := range st.Reports {
			if rep.Status == models.ReportStatusPending || rep.Status == models.ReportStatusInProgress {
				pendingReports++
			}
			if rep.CriticalValues && rep.Status != models.ReportStatusVerified && rep.Status != models.ReportStatusLocked {
				criticalUnsigned++
			}
		}
		for _, inv := range st.Invoices {
			if inv.Status == models.InvoiceStatusOverdue {
				overdueInvoices++
			}
		}
	})

	ms.alertsMux.RLock()
	activeAlertCount := 0
	for _, alert := range ms.alerts {
		if !alert.Resolved {
			activeAlertCount++
		}
	}
	ms.alertsMux.RUnlock()

	return Stats{
		PersistenceStatus: persistenceStatus,
		ResponseTime:      responseTime,
		ActiveAlerts:      activeAlertCount,
		CPUPercent:        cpuPercent,
		MemoryPercent:     memStats.UsedPercent,
		DiskPercent:       diskStats.UsedPercent,
		MemoryUsed:        formatBytes(memStats.Used),
		MemoryTotal:       formatBytes(memStats.Total),
		DiskUsed:          formatBytes(diskStats.Used),
		DiskTotal:         formatBytes(diskStats.Total),
		Uptime:            formatUptime(int(time.Since(ms.startedAt).Seconds())),
		Patients:          patients,
		Invoices:          invoices,
		Reports:           reports,
		PendingReports:    pendingReports,
		CriticalUnsigned:  criticalUnsigned,
		OverdueInvoices:   overdueInvoices,
	}
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(seconds int) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func (ms *Server) getAlerts(w http.ResponseWriter, r *http.Request) {
	ms.alertsMux.RLock()
	defer ms.alertsMux.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ms.alerts)
}

func (ms *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Monitoring] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	ms.clientsMux.Lock()
	ms.clients[conn] = true
	ms.clientsMux.Unlock()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			ms.clientsMux.Lock()
			delete(ms.clients, conn)
			ms.clientsMux.Unlock()
			break
		}
	}
}

func (ms *Server) handleBroadcast() {
	for alert := range ms.broadcast {
		ms.clientsMux.Lock()
		for client := range ms.clients {
			if err := client.WriteJSON(alert); err != nil {
				client.Close()
				delete(ms.clients, client)
			}
		}
		ms.clientsMux.Unlock()
	}
}

func (ms *Server) raiseAlert(severity, typ, message string) {
	alert := Alert{
		Severity:  severity,
		Type:      typ,
		Message:   message,
		Timestamp: time.Now(),
	}
	ms.alertsMux.Lock()
	alert.ID = len(ms.alerts) + 1
	ms.alerts = append(ms.alerts, alert)
	ms.alertsMux.Unlock()

	ms.broadcast <- alert
}

func (ms *Server) monitorHealth() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	lastCriticalUnsigned := 0
	for range ticker.C {
		stats := ms.collectStats()

		if stats.PersistenceStatus == "unhealthy" {
			ms.raiseAlert("critical", "persistence_down", "Persistence backend is unreachable")
		}
		if stats.ResponseTime > 1000 {
			ms.raiseAlert("warning", "high_latency", fmt.Sprintf("Persistence response time: %dms", stats.ResponseTime))
		}
		if stats.CriticalUnsigned > lastCriticalUnsigned {
			ms.raiseAlert("critical", "critical_results",
				fmt.Sprintf("%d reports with critical values awaiting verification", stats.CriticalUnsigned))
		}
		lastCriticalUnsigned = stats.CriticalUnsigned
	}
}

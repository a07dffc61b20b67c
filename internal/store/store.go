// Package store holds the in-memory entity collections the domain
// engine mutates. A single mutex serializes writers; every mutation runs
// inside Update so cascades across collections are never observable
// half-applied. Saves through the persistence port are fire-and-forget.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"lims-backend/internal/models"
	"lims-backend/internal/persistence"
)

// Collection names, shared with the persistence port
const (
	ColPatients      = "patients"
	ColDoctors       = "doctors"
	ColTests         = "tests"
	ColInvoices      = "invoices"
	ColReports       = "reports"
	ColStock         = "stock"
	ColExpenses      = "expenses"
	ColAuditLogs     = "audit_logs"
	ColNotifications = "notifications"
	ColUsers         = "users"
	ColOnlineTx      = "online_transactions"
)

// Collections lists every persisted collection
func Collections() []string {
	return []string{
		ColPatients, ColDoctors, ColTests, ColInvoices, ColReports,
		ColStock, ColExpenses, ColAuditLogs, ColNotifications, ColUsers,
		ColOnlineTx,
	}
}

// State is the mutable view handed to Update/View callbacks. Callers
// mark the collections they touched so only those are flushed.
type State struct {
	Patients      map[int]*models.Patient
	Doctors       map[int]*models.Doctor
	Tests         map[int]*models.Test
	Invoices      map[int]*models.Invoice
	Reports       map[int]*models.Report
	Stock         map[int]*models.StockItem
	Expenses      map[int]*models.Expense
	AuditLogs     map[int]*models.AuditLog
	Notifications map[int]*models.Notification
	Users         map[int]*models.User
	OnlineTx      map[int]*models.OnlineTransaction

	seq        map[string]int
	invoiceSeq int
	dirty      map[string]bool
}

// NextID returns the next identity for a collection
func (st *State) NextID(collection string) int {
	st.seq[collection]++
	return st.seq[collection]
}

// NextInvoiceNumber returns the next sequential invoice number
func (st *State) NextInvoiceNumber() string {
	st.invoiceSeq++
	return fmt.Sprintf("INV-%06d", st.invoiceSeq)
}

// Touch marks collections dirty for the post-update flush
func (st *State) Touch(collections ...string) {
	for _, c := range collections {
		st.dirty[c] = true
	}
}

func newState() State {
	return State{
		Patients:      make(map[int]*models.Patient),
		Doctors:       make(map[int]*models.Doctor),
		Tests:         make(map[int]*models.Test),
		Invoices:      make(map[int]*models.Invoice),
		Reports:       make(map[int]*models.Report),
		Stock:         make(map[int]*models.StockItem),
		Expenses:      make(map[int]*models.Expense),
		AuditLogs:     make(map[int]*models.AuditLog),
		Notifications: make(map[int]*models.Notification),
		Users:         make(map[int]*models.User),
		OnlineTx:      make(map[int]*models.OnlineTransaction),
		seq:           make(map[string]int),
		dirty:         make(map[string]bool),
	}
}

// Store owns the state and the persistence round-trip
type Store struct {
	mu    sync.RWMutex
	state State
	port  persistence.Port
}

func New(port persistence.Port) *Store {
	return &Store{state: newState(), port: port}
}

// Update runs fn under the write lock. If fn returns nil, every
// collection it touched is snapshotted and saved in the background;
// business logic never waits on the save.
func (s *Store) Update(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.dirty = make(map[string]bool)
	if err := fn(&s.state); err != nil {
		return err
	}

	snapshots := make(map[string][]byte, len(s.state.dirty))
	for col := range s.state.dirty {
		data, err := s.marshalCollection(col)
		if err != nil {
			log.Printf("[Store] Failed to snapshot %s: %v", col, err)
			continue
		}
		snapshots[col] = data
	}
	if len(snapshots) > 0 {
		go s.save(snapshots)
	}
	return nil
}

// View runs fn under the read lock
func (s *Store) View(fn func(st *State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

func (s *Store) save(snapshots map[string][]byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for col, data := range snapshots {
		if err := s.port.Save(ctx, col, data); err != nil {
			log.Printf("[Store] Failed to save %s: %v", col, err)
		}
	}
}

// Load reads every collection from the port and rebuilds the identity
// sequences. Missing collections start empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, col := range Collections() {
		data, err := s.port.Load(ctx, col)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", col, err)
		}
		if data == nil {
			continue
		}
		if err := s.unmarshalCollection(col, data); err != nil {
			return fmt.Errorf("failed to decode %s: %w", col, err)
		}
	}
	s.rebuildSequences()
	return nil
}

// Flush synchronously saves every collection. Used at shutdown and by
// the backup scheduler; normal mutations save in the background instead.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	snapshots := make(map[string][]byte, len(Collections()))
	for _, col := range Collections() {
		data, err := s.marshalCollection(col)
		if err != nil {
			s.mu.RUnlock()
			return err
		}
		snapshots[col] = data
	}
	s.mu.RUnlock()

	for col, data := range snapshots {
		if err := s.port.Save(ctx, col, data); err != nil {
			return fmt.Errorf("failed to save %s: %w", col, err)
		}
	}
	return nil
}

// Snapshot returns the marshaled form of one collection, for backups.
func (s *Store) Snapshot(collection string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marshalCollection(collection)
}

// Ping reports persistence health
func (s *Store) Ping(ctx context.Context) error {
	return s.port.Ping(ctx)
}

func (s *Store) rebuildSequences() {
	st := &s.state
	st.seq[ColPatients] = maxKey(st.Patients)
	st.seq[ColDoctors] = maxKey(st.Doctors)
	st.seq[ColTests] = maxKey(st.Tests)
	st.seq[ColInvoices] = maxKey(st.Invoices)
	st.seq[ColReports] = maxKey(st.Reports)
	st.seq[ColStock] = maxKey(st.Stock)
	st.seq[ColExpenses] = maxKey(st.Expenses)
	st.seq[ColAuditLogs] = maxKey(st.AuditLogs)
	st.seq[ColNotifications] = maxKey(st.Notifications)
	st.seq[ColUsers] = maxKey(st.Users)
	st.seq[ColOnlineTx] = maxKey(st.OnlineTx)

	for _, inv := range st.Invoices {
		n := strings.TrimPrefix(inv.InvoiceNumber, "INV-")
		if v, err := strconv.Atoi(n); err == nil && v > st.invoiceSeq {
			st.invoiceSeq = v
		}
	}
}

func maxKey[T any](m map[int]*T) int {
	max := 0
	for id := range m {
		if id > max {
			max = id
		}
	}
	return max
}

func sortedValues[T any](m map[int]*T) []*T {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func (s *Store) marshalCollection(col string) ([]byte, error) {
	switch col {
	case ColPatients:
		return json.Marshal(sortedValues(s.state.Patients))
	case ColDoctors:
		return json.Marshal(sortedValues(s.state.Doctors))
	case ColTests:
		return json.Marshal(sortedValues(s.state.Tests))
	case ColInvoices:
		return json.Marshal(sortedValues(s.state.Invoices))
	case ColReports:
		return json.Marshal(sortedValues(s.state.Reports))
	case ColStock:
		return json.Marshal(sortedValues(s.state.Stock))
	case ColExpenses:
		return json.Marshal(sortedValues(s.state.Expenses))
	case ColAuditLogs:
		return json.Marshal(sortedValues(s.state.AuditLogs))
	case ColNotifications:
		return json.Marshal(sortedValues(s.state.Notifications))
	case ColUsers:
		return json.Marshal(sortedValues(s.state.Users))
	case ColOnlineTx:
		return json.Marshal(sortedValues(s.state.OnlineTx))
	}
	return nil, fmt.Errorf("unknown collection %q", col)
}

func decodeInto[T any](data []byte, dst map[int]*T, id func(*T) int) error {
	var records []*T
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	for _, rec := range records {
		dst[id(rec)] = rec
	}
	return nil
}

func (s *Store) unmarshalCollection(col string, data []byte) error {
	st := &s.state
	switch col {
	case ColPatients:
		return decodeInto(data, st.Patients, func(p *models.Patient) int { return p.ID })
	case ColDoctors:
		return decodeInto(data, st.Doctors, func(d *models.Doctor) int { return d.ID })
	case ColTests:
		return decodeInto(data, st.Tests, func(t *models.Test) int { return t.ID })
	case ColInvoices:
		return decodeInto(data, st.Invoices, func(i *models.Invoice) int { return i.ID })
	case ColReports:
		return decodeInto(data, st.Reports, func(r *models.Report) int { return r.ID })
	case ColStock:
		return decodeInto(data, st.Stock, func(i *models.StockItem) int { return i.ID })
	case ColExpenses:
		return decodeInto(data, st.Expenses, func(e *models.Expense) int { return e.ID })
	case ColAuditLogs:
		return decodeInto(data, st.AuditLogs, func(a *models.AuditLog) int { return a.ID })
	case ColNotifications:
		return decodeInto(data, st.Notifications, func(n *models.Notification) int { return n.ID })
	case ColUsers:
		return decodeInto(data, st.Users, func(u *models.User) int { return u.ID })
	case ColOnlineTx:
		return decodeInto(data, st.OnlineTx, func(t *models.OnlineTransaction) int { return t.ID })
	}
	return fmt.Errorf("unknown collection %q", col)
}

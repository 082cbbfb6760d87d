package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/notify"
	"github.com/reviewcrew/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// Transaction fakes. The services begin and commit their own transactions;
// the mocks below ignore the tx entirely, so a no-op tx is enough.
// ---------------------------------------------------------------------------

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeDB struct{}

func (fakeDB) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

// ---------------------------------------------------------------------------
// In-memory worker store. Implements the worker-repo interfaces of the
// wallet, referral and lifecycle services.
// ---------------------------------------------------------------------------

type mockWorkers struct {
	mu      sync.Mutex
	workers map[int64]*models.Worker
}

func newMockWorkers(ws ...*models.Worker) *mockWorkers {
	m := &mockWorkers{workers: make(map[int64]*models.Worker)}
	for _, w := range ws {
		cp := *w
		m.workers[w.ID] = &cp
	}
	return m
}

func (m *mockWorkers) get(id int64) (*models.Worker, error) {
	w, ok := m.workers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *w
	return &cp, nil
}

func (m *mockWorkers) GetByID(_ context.Context, id int64) (*models.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockWorkers) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id int64) (*models.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockWorkers) Credit(_ context.Context, _ pgx.Tx, id int64, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	w.Balance += amount
	return w.Balance, nil
}

func (m *mockWorkers) Debit(_ context.Context, _ pgx.Tx, id int64, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	if !ok || w.Balance < amount {
		return 0, pgx.ErrNoRows
	}
	w.Balance -= amount
	return w.Balance, nil
}

func (m *mockWorkers) RecordCompletion(_ context.Context, _ pgx.Tx, id int64, reward int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	w.Balance += reward
	w.TotalEarned += reward
	w.TasksCompleted++
	return w.Balance, nil
}

func (m *mockWorkers) ApplyReferralBonus(_ context.Context, _ pgx.Tx, id int64, bonus int64, ambassador bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	w.Balance += bonus
	w.SuccessfulReferrals++
	w.IsAmbassador = w.IsAmbassador || ambassador
	return w.Balance, nil
}

func (m *mockWorkers) balance(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workers[id].Balance
}

func (m *mockWorkers) snapshot(id int64) models.Worker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.workers[id]
}

// ---------------------------------------------------------------------------
// In-memory wallet entry log.
// ---------------------------------------------------------------------------

type mockEntries struct {
	mu       sync.Mutex
	entries  []*models.WalletEntry
	failNext bool
}

func (m *mockEntries) CreateTx(_ context.Context, _ pgx.Tx, e *models.WalletEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("entry store unavailable")
	}
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockEntries) byType(entryType string) []*models.WalletEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.WalletEntry
	for _, e := range m.entries {
		if e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockEntries) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ---------------------------------------------------------------------------
// In-memory withdrawal store.
// ---------------------------------------------------------------------------

type mockWithdrawals struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.WithdrawalRequest
}

func newMockWithdrawals() *mockWithdrawals {
	return &mockWithdrawals{requests: make(map[uuid.UUID]*models.WithdrawalRequest)}
}

func (m *mockWithdrawals) Create(_ context.Context, _ pgx.Tx, w *models.WithdrawalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.requests[w.ID] = &cp
	return nil
}

func (m *mockWithdrawals) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *w
	return &cp, nil
}

func (m *mockWithdrawals) SetStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, status, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.requests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	w.Status = status
	w.AdminComment = comment
	return nil
}

func (m *mockWithdrawals) pendingSum(workerID int64) int64 {
	var sum int64
	for _, w := range m.requests {
		if w.WorkerID == workerID && w.Status == models.WithdrawalPending {
			sum += w.Amount
		}
	}
	return sum
}

func (m *mockWithdrawals) PendingSum(_ context.Context, _ pgx.Tx, workerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingSum(workerID), nil
}

func (m *mockWithdrawals) PendingSumRead(_ context.Context, workerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingSum(workerID), nil
}

func (m *mockWithdrawals) status(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id].Status
}

// ---------------------------------------------------------------------------
// In-memory referral edge store.
// ---------------------------------------------------------------------------

type mockEdges struct {
	mu    sync.Mutex
	edges map[int64]*models.ReferralEdge // keyed by referred id
}

func newMockEdges(es ...*models.ReferralEdge) *mockEdges {
	m := &mockEdges{edges: make(map[int64]*models.ReferralEdge)}
	for _, e := range es {
		cp := *e
		m.edges[e.ReferredID] = &cp
	}
	return m
}

func (m *mockEdges) CreateEdge(_ context.Context, referrerID, referredID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.edges[referredID]; ok {
		return repository.ErrEdgeExists
	}
	m.edges[referredID] = &models.ReferralEdge{ReferrerID: referrerID, ReferredID: referredID}
	return nil
}

func (m *mockEdges) GetByReferred(_ context.Context, referredID int64) (*models.ReferralEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.edges[referredID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (m *mockEdges) GetByReferredForUpdate(_ context.Context, _ pgx.Tx, referredID int64) (*models.ReferralEdge, error) {
	return m.GetByReferred(context.Background(), referredID)
}

func (m *mockEdges) MarkBonusPaid(_ context.Context, _ pgx.Tx, referredID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.edges[referredID]
	if !ok {
		return pgx.ErrNoRows
	}
	e.BonusPaid = true
	return nil
}

// ---------------------------------------------------------------------------
// In-memory task pool. Serves both the allocator queries and the lifecycle's
// mark-seen writes.
// ---------------------------------------------------------------------------

type mockPool struct {
	mu    sync.Mutex
	items []*models.TaskItem
	seen  map[int64]map[uuid.UUID]bool
}

func newMockPool(items ...*models.TaskItem) *mockPool {
	return &mockPool{items: items, seen: make(map[int64]map[uuid.UUID]bool)}
}

func item(category uuid.UUID) *models.TaskItem {
	return &models.TaskItem{ID: uuid.New(), CategoryID: category}
}

func (m *mockPool) MarkSeen(_ context.Context, _ pgx.Tx, workerID int64, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[workerID] == nil {
		m.seen[workerID] = make(map[uuid.UUID]bool)
	}
	m.seen[workerID][itemID] = true
	return nil
}

func (m *mockPool) hasSeen(workerID int64, itemID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[workerID][itemID]
}

func (m *mockPool) GetItemTx(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.TaskItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockPool) UntouchedCategoryIDs(_ context.Context, _ pgx.Tx, workerID int64) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	touched := make(map[uuid.UUID]bool)
	for _, it := range m.items {
		if m.seen[workerID][it.ID] {
			touched[it.CategoryID] = true
		}
	}
	found := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, it := range m.items {
		if touched[it.CategoryID] || found[it.CategoryID] {
			continue
		}
		found[it.CategoryID] = true
		ids = append(ids, it.CategoryID)
	}
	return ids, nil
}

func (m *mockPool) UnseenItems(_ context.Context, _ pgx.Tx, workerID int64, categoryID, excludeCategoryID *uuid.UUID) ([]*models.TaskItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TaskItem
	for _, it := range m.items {
		if m.seen[workerID][it.ID] {
			continue
		}
		if categoryID != nil && it.CategoryID != *categoryID {
			continue
		}
		if excludeCategoryID != nil && it.CategoryID == *excludeCategoryID {
			continue
		}
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// In-memory assignment store, one slot per worker.
// ---------------------------------------------------------------------------

type mockAssignments struct {
	mu    sync.Mutex
	slots map[int64]*models.TaskAssignment
}

func newMockAssignments() *mockAssignments {
	return &mockAssignments{slots: make(map[int64]*models.TaskAssignment)}
}

func (m *mockAssignments) GetByWorker(_ context.Context, workerID int64) (*models.TaskAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.slots[workerID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssignments) GetByWorkerForUpdate(_ context.Context, _ pgx.Tx, workerID int64) (*models.TaskAssignment, error) {
	return m.GetByWorker(context.Background(), workerID)
}

func (m *mockAssignments) Create(_ context.Context, _ pgx.Tx, a *models.TaskAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[a.WorkerID]; ok {
		return repository.ErrSlotOccupied
	}
	cp := *a
	m.slots[a.WorkerID] = &cp
	return nil
}

func (m *mockAssignments) Update(_ context.Context, _ pgx.Tx, a *models.TaskAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[a.WorkerID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	m.slots[a.WorkerID] = &cp
	return nil
}

func (m *mockAssignments) Delete(_ context.Context, _ pgx.Tx, workerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, workerID)
	return nil
}

func (m *mockAssignments) state(workerID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.slots[workerID]
	if !ok {
		return ""
	}
	return a.State
}

// ---------------------------------------------------------------------------
// Notice capture.
// ---------------------------------------------------------------------------

type noticeLog struct {
	mu      sync.Mutex
	notices []notify.SendMessageArgs
}

func (n *noticeLog) enqueue(_ context.Context, _ pgx.Tx, args notify.SendMessageArgs) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, args)
	return nil
}

func (n *noticeLog) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

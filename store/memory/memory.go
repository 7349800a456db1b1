// Package memory provides an in-memory overtime.Store for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store holds everything behind one mutex. The lock makes the
// read-modify-check in UpdateDecision atomic, which is the compare-and-set
// the approval race requires.
type Store struct {
	mu        sync.RWMutex
	users     map[overtime.NIK]overtime.User
	requests  map[overtime.RequestID]overtime.OvertimeRequest
	audits    []overtime.AuditEntry
	nextID    overtime.RequestID
	nextAudit int64
}

var _ overtime.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:     make(map[overtime.NIK]overtime.User),
		requests:  make(map[overtime.RequestID]overtime.OvertimeRequest),
		nextID:    1,
		nextAudit: 1,
	}
}

// =============================================================================
// USER STORE
// =============================================================================

func (s *Store) SaveUser(_ context.Context, u overtime.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.NIK]; exists {
		return overtime.ErrDuplicateNik
	}
	s.users[u.NIK] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, nik overtime.NIK) (*overtime.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[nik]
	if !ok {
		return nil, overtime.ErrUserNotFound
	}
	copied := u
	return &copied, nil
}

func (s *Store) ListUsers(_ context.Context) ([]overtime.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]overtime.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u overtime.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.NIK]; !ok {
		return overtime.ErrUserNotFound
	}
	s.users[u.NIK] = u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, nik overtime.NIK) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[nik]; !ok {
		return overtime.ErrUserNotFound
	}
	delete(s.users, nik)
	return nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func (s *Store) CreateRequest(_ context.Context, r *overtime.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	s.requests[r.ID] = *r
	return nil
}

func (s *Store) GetRequest(_ context.Context, id overtime.RequestID) (*overtime.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, overtime.ErrNotFound
	}
	copied := r
	return &copied, nil
}

func (s *Store) ListRequests(_ context.Context) ([]overtime.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]overtime.OvertimeRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) ListRequestsByOwner(_ context.Context, nik overtime.NIK) ([]overtime.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []overtime.OvertimeRequest
	for _, r := range s.requests {
		if r.OwnerNIK == nik {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// UpdateDecision applies a transitioned record only while the stored
// record still matches the prior read it was computed from: overall
// status pending and both slot statuses unchanged. The compare and the
// write happen under one lock, so a second approver acting on a stale
// read cannot erase the first slot's signature.
func (s *Store) UpdateDecision(_ context.Context, prev, next overtime.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.requests[next.ID]
	if !ok {
		return overtime.ErrNotFound
	}
	if cur.Status != overtime.StatusPending ||
		cur.Approver1Status != prev.Approver1Status ||
		cur.Approver2Status != prev.Approver2Status {
		return overtime.ErrStateConflict
	}
	s.requests[next.ID] = next
	return nil
}

func (s *Store) UpdateRequest(_ context.Context, r overtime.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.requests[r.ID]
	if !ok {
		return overtime.ErrNotFound
	}
	if cur.Status == overtime.StatusApproved {
		return overtime.ErrForbidden
	}
	s.requests[r.ID] = r
	return nil
}

func (s *Store) DeleteRequest(_ context.Context, id overtime.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return overtime.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) AppendAudit(_ context.Context, e overtime.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextAudit
	s.nextAudit++
	s.audits = append(s.audits, e)
	return nil
}

func (s *Store) AuditForRequest(_ context.Context, id overtime.RequestID) ([]overtime.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []overtime.AuditEntry
	for _, e := range s.audits {
		if e.RequestID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func sortNewestFirst(rs []overtime.OvertimeRequest) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].ID > rs[j].ID
		}
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
}

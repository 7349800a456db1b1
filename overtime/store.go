/*
store.go - Persistence interfaces for users, requests, and audit entries

PURPOSE:
  Defines the interface between the domain logic and the database.
  Implementations exist for SQLite (production) and in-memory
  (tests/dev); both must honor the same contracts.

KEY INTERFACES:
  UserStore:    Directory records keyed by NIK
  RequestStore: Overtime requests with conditional decision writes
  AuditLog:     Append-only record of who did what
  Store:        Everything a service needs, in one place

CONCURRENCY CONTRACT:
  UpdateDecision is the single write that resolves the approval race.
  It must apply the transitioned record ONLY while the stored record
  still matches the state the transition was computed from: overall
  status pending AND both slot statuses equal to the prior read. The
  slot compare matters: one approval leaves the overall status pending,
  so an overall-only check would let a second writer with a stale read
  erase the first slot's signature. A writer that loses the race gets
  ErrStateConflict, never a silent overwrite. All read methods are
  snapshot reads and need no coordination with the write path.

IMMUTABILITY:
  UpdateRequest (owner edits) must refuse records whose stored status is
  approved. The audit log is append-only; no update or delete exists.

SEE ALSO:
  - store/sqlite: Production implementation (conditional UPDATE)
  - store/memory: In-memory implementation (check under lock)
*/
package overtime

import "context"

// =============================================================================
// USER STORE
// =============================================================================

// UserStore persists directory records.
type UserStore interface {
	// SaveUser inserts a new user. Fails with ErrDuplicateNik when the
	// NIK is already registered.
	SaveUser(ctx context.Context, u User) error

	// GetUser returns the user for a NIK, or ErrUserNotFound.
	GetUser(ctx context.Context, nik NIK) (*User, error)

	// ListUsers returns all users ordered by name.
	ListUsers(ctx context.Context) ([]User, error)

	// UpdateUser replaces an existing record. ErrUserNotFound if absent.
	UpdateUser(ctx context.Context, u User) error

	// DeleteUser removes the role and profile record. Historical
	// requests are not touched.
	DeleteUser(ctx context.Context, nik NIK) error
}

// =============================================================================
// REQUEST STORE
// =============================================================================

// RequestStore persists overtime requests.
type RequestStore interface {
	// CreateRequest inserts a request and assigns its ID. The caller is
	// responsible for validation and the initial pending state.
	CreateRequest(ctx context.Context, r *OvertimeRequest) error

	// GetRequest returns the request for an id, or ErrNotFound.
	GetRequest(ctx context.Context, id RequestID) (*OvertimeRequest, error)

	// ListRequests returns all requests, newest first.
	ListRequests(ctx context.Context) ([]OvertimeRequest, error)

	// ListRequestsByOwner returns one user's requests, newest first.
	ListRequestsByOwner(ctx context.Context, nik NIK) ([]OvertimeRequest, error)

	// UpdateDecision applies next, a transitioned record produced by
	// Decide, where prev is the record the transition was computed
	// from. The write succeeds only while the stored overall status is
	// still pending AND both stored slot statuses equal prev's;
	// otherwise ErrStateConflict (or ErrNotFound for an unknown id).
	// Slot fields and overall status are written together, never
	// separately.
	UpdateDecision(ctx context.Context, prev, next OvertimeRequest) error

	// UpdateRequest replaces an owner-editable record. Fails with
	// ErrForbidden when the stored status is approved (approved
	// requests are immutable), ErrNotFound for an unknown id.
	UpdateRequest(ctx context.Context, r OvertimeRequest) error

	// DeleteRequest removes a request. ErrNotFound for an unknown id.
	DeleteRequest(ctx context.Context, id RequestID) error
}

// =============================================================================
// AUDIT LOG - append-only
// =============================================================================

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, e AuditEntry) error
	AuditForRequest(ctx context.Context, id RequestID) ([]AuditEntry, error)
}

// =============================================================================
// AGGREGATE
// =============================================================================

// Store is everything the services need from persistence.
type Store interface {
	UserStore
	RequestStore
	AuditLog
}

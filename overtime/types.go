/*
Package overtime implements a two-step overtime request and approval
workflow for a single flat organization.

PURPOSE:
  This package contains the domain model and core logic: users with a
  fixed four-role hierarchy, overtime requests with two independent
  approver slots, the approval state machine that combines slot decisions
  into an overall status, and per-user reporting.

KEY CONCEPTS IN THIS FILE (types.go):
  - NIK: unique employee identifier, the human-facing login key
  - Role: tagged enum over the four roles (employee/approver1/approver2/admin)
  - User: directory record with optional approver references
  - OvertimeRequest: a request with per-slot approval sub-state
  - Actor: the authenticated identity performing an operation

DESIGN PRINCIPLES:
  1. Explicit actors: every operation takes the acting user as an
     argument, never ambient "current user" state
  2. Typed references: "no approver assigned" is a nil *NIK, not a
     magic string sentinel
  3. Precision: durations use decimal.Decimal, not float64
  4. Exhaustive role handling: role-conditioned branches switch over the
     Role enum and reject unknown values

SEE ALSO:
  - approval.go: State transition logic
  - duration.go: Overnight-aware duration arithmetic
  - store.go: Persistence interfaces
*/
package overtime

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// NIK is the unique employee identifier string (Nomor Induk Karyawan).
// It doubles as the login key; the source of a NIK (manual entry, QR
// decode) is outside this package.
type NIK string

// RequestID identifies an overtime request. Assigned by the store.
type RequestID int64

// =============================================================================
// ROLES
// =============================================================================

// Role is the fixed four-role hierarchy.
type Role string

const (
	RoleEmployee  Role = "employee"
	RoleApprover1 Role = "approver1"
	RoleApprover2 Role = "approver2"
	RoleAdmin     Role = "admin"
)

// ParseRole converts a raw string into a Role, rejecting anything
// outside the fixed hierarchy.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleEmployee, RoleApprover1, RoleApprover2, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleApprover1, RoleApprover2, RoleAdmin:
		return true
	}
	return false
}

// CanApprove reports whether this role may act on approval slots.
func (r Role) CanApprove() bool {
	switch r {
	case RoleApprover1, RoleApprover2, RoleAdmin:
		return true
	case RoleEmployee:
		return false
	}
	return false
}

// =============================================================================
// STATUSES AND DECISIONS
// =============================================================================

// Status is the state of a request or of a single approver slot.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision is an approve/reject action by an approver or admin.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision converts a raw string into a Decision.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApprove, DecisionReject:
		return Decision(s), nil
	default:
		return "", fmt.Errorf("%w: unknown decision %q", ErrValidation, s)
	}
}

// status returns the slot/overall status a decision resolves to.
func (d Decision) status() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// =============================================================================
// USER - Directory record
// =============================================================================

// User is a directory record. Approver1/Approver2 name the NIKs
// configured to sign this user's requests; nil means not assigned.
type User struct {
	NIK         NIK
	Name        string
	PickupPoint string
	Role        Role
	Approver1   *NIK
	Approver2   *NIK

	// PasswordHash is a bcrypt hash. Empty for records created before
	// login was enforced; such users cannot authenticate.
	PasswordHash string

	CreatedAt time.Time
}

// Actor is the authenticated identity performing an operation.
// It is resolved from a login token by the API layer and passed
// explicitly into every core operation.
type Actor struct {
	NIK  NIK
	Name string
	Role Role
}

// ActorOf builds an Actor from a directory record.
func ActorOf(u User) Actor {
	return Actor{NIK: u.NIK, Name: u.Name, Role: u.Role}
}

// =============================================================================
// OVERTIME REQUEST
// =============================================================================

// OvertimeRequest is one submission with its approval sub-state.
// OwnerName and Category are denormalized snapshots taken at submission
// time so historical requests survive user deletion and catalog edits.
type OvertimeRequest struct {
	ID        RequestID
	OwnerNIK  NIK
	OwnerName string

	CategoryKey string
	Category    string // display name snapshot
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM, 24h
	EndTime     string // HH:MM, 24h
	Duration    decimal.Decimal // elapsed hours
	Reason      string

	Status          Status
	Approver1Status Status
	Approver2Status Status

	// Recorded display name of whoever acted on each slot; nil until acted.
	Approver1Name *string
	Approver2Name *string

	Approver1ActedAt *time.Time
	Approver2ActedAt *time.Time

	CreatedAt time.Time
}

// Terminal reports whether the overall status is approved or rejected.
func (r *OvertimeRequest) Terminal() bool {
	return r.Status.Terminal()
}

// =============================================================================
// AUDIT
// =============================================================================

// AuditAction classifies an audit log entry.
type AuditAction string

const (
	AuditSubmitted  AuditAction = "submitted"
	AuditApproved   AuditAction = "approved"
	AuditRejected   AuditAction = "rejected"
	AuditOverridden AuditAction = "overridden"
	AuditEdited     AuditAction = "edited"
	AuditDeleted    AuditAction = "deleted"
)

// AuditEntry records who did what to a request and when.
// The audit log is append-only; an admin override does not erase the
// earlier approver entries, so overturned decisions stay reconstructable.
type AuditEntry struct {
	ID        int64
	RequestID RequestID
	ActorNIK  NIK
	ActorName string
	ActorRole Role
	Action    AuditAction
	Detail    string
	At        time.Time
}

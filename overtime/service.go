/*
service.go - Request lifecycle service

PURPOSE:
  The write-side entry points for overtime requests: submission with
  full validation, approver inbox queries, decision application, owner
  edits, and deletion. Every operation takes the acting user explicitly.

SUBMISSION FLOW:
  1. Resolve the owner NIK in the directory (ErrUserNotFound)
  2. Validate category key against the catalog
  3. Validate date and times, compute duration from the final chosen
     times (never blindly from catalog defaults)
  4. Reject zero/negative durations (start == end is degenerate)
  5. Persist in state pending/pending/pending and audit the submission

DECISION FLOW:
  1. Load the request (ErrNotFound)
  2. Run the state machine (approval.go) for the acting role
  3. Persist via the store's conditional UpdateDecision, passing the
     read the transition was computed from; a losing concurrent writer
     (even one targeting the other slot) surfaces ErrStateConflict
  4. Append the audit entry

  The slot update and overall-status recompute travel in one record and
  one conditional write, so partial state is never observable.

SEE ALSO:
  - approval.go: Decide
  - report.go: Read-side aggregation
*/
package overtime

import (
	"context"
	"fmt"
	"log"
	"time"
)

// SubmitInput carries a new submission. Start/end are the final chosen
// times; callers pre-filling from the catalog pass the (possibly
// overridden) values here.
type SubmitInput struct {
	OwnerNIK    NIK
	CategoryKey string
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM
	EndTime     string // HH:MM
	Reason      string
}

// RequestService owns the request lifecycle.
type RequestService struct {
	Store Store

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewRequestService creates a request service backed by the given store.
func NewRequestService(store Store) *RequestService {
	return &RequestService{Store: store, Now: time.Now}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates and persists a new overtime request in the initial
// pending/pending/pending state, returning its assigned id.
func (s *RequestService) Submit(ctx context.Context, in SubmitInput) (RequestID, error) {
	owner, err := s.Store.GetUser(ctx, in.OwnerNIK)
	if err != nil {
		return 0, err
	}

	cat, err := LookupCategory(in.CategoryKey)
	if err != nil {
		return 0, err
	}

	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return 0, &ValidationError{Field: "date", Message: fmt.Sprintf("malformed date %q, want YYYY-MM-DD", in.Date)}
	}

	duration, err := ComputeDuration(in.StartTime, in.EndTime)
	if err != nil {
		return 0, err
	}
	if !duration.IsPositive() {
		return 0, &ValidationError{Field: "end_time", Message: "duration must be greater than zero"}
	}

	if in.Reason == "" {
		return 0, &ValidationError{Field: "reason", Message: "must not be empty"}
	}

	now := s.Now()
	req := OvertimeRequest{
		OwnerNIK:        owner.NIK,
		OwnerName:       owner.Name,
		CategoryKey:     cat.Key,
		Category:        cat.Name,
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Duration:        duration,
		Reason:          in.Reason,
		Status:          StatusPending,
		Approver1Status: StatusPending,
		Approver2Status: StatusPending,
		CreatedAt:       now,
	}
	if err := s.Store.CreateRequest(ctx, &req); err != nil {
		return 0, err
	}

	s.audit(ctx, AuditEntry{
		RequestID: req.ID,
		ActorNIK:  owner.NIK,
		ActorName: owner.Name,
		ActorRole: owner.Role,
		Action:    AuditSubmitted,
		Detail:    fmt.Sprintf("%s %s %s-%s", cat.Name, in.Date, in.StartTime, in.EndTime),
		At:        now,
	})
	return req.ID, nil
}

// =============================================================================
// LISTING
// =============================================================================

// ListAll returns every request, newest first. Monitoring view for
// admins and approvers.
func (s *RequestService) ListAll(ctx context.Context) ([]OvertimeRequest, error) {
	return s.Store.ListRequests(ctx)
}

// ListByOwner returns one user's own requests, newest first.
func (s *RequestService) ListByOwner(ctx context.Context, nik NIK) ([]OvertimeRequest, error) {
	return s.Store.ListRequestsByOwner(ctx, nik)
}

// PendingForApprover returns the requests still awaiting the given
// NIK's signature. A request qualifies when its owner has this NIK
// configured in a slot, that slot is still pending, and the overall
// status is still pending. A slot the actor already resolved never
// reappears in their inbox.
func (s *RequestService) PendingForApprover(ctx context.Context, nik NIK) ([]OvertimeRequest, error) {
	all, err := s.Store.ListRequests(ctx)
	if err != nil {
		return nil, err
	}

	// Owner configs are looked up once per distinct owner.
	owners := make(map[NIK]*User)
	var out []OvertimeRequest
	for _, req := range all {
		if req.Status != StatusPending || req.OwnerNIK == nik {
			continue
		}
		owner, ok := owners[req.OwnerNIK]
		if !ok {
			owner, err = s.Store.GetUser(ctx, req.OwnerNIK)
			if err != nil {
				if IsNotFound(err) {
					// Owner deleted since submission; nobody's inbox.
					owners[req.OwnerNIK] = nil
					continue
				}
				return nil, err
			}
			owners[req.OwnerNIK] = owner
		}
		if owner == nil {
			continue
		}
		slot1 := owner.Approver1 != nil && *owner.Approver1 == nik && req.Approver1Status == StatusPending
		slot2 := owner.Approver2 != nil && *owner.Approver2 == nik && req.Approver2Status == StatusPending
		if slot1 || slot2 {
			out = append(out, req)
		}
	}
	return out, nil
}

// =============================================================================
// DECIDE
// =============================================================================

// ApplyDecision runs the state machine for one approve/reject action
// and persists the result atomically.
func (s *RequestService) ApplyDecision(ctx context.Context, id RequestID, actor Actor, decision Decision) (*OvertimeRequest, error) {
	cur, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	next, err := Decide(*cur, actor, decision, now)
	if err != nil {
		return nil, err
	}

	if err := s.Store.UpdateDecision(ctx, *cur, next); err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		RequestID: id,
		ActorNIK:  actor.NIK,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    auditAction(actor, decision),
		Detail:    string(decision),
		At:        now,
	})
	return &next, nil
}

// =============================================================================
// OWNER EDIT / DELETE
// =============================================================================

// Update applies an owner edit to a not-yet-approved request. Times and
// category are re-validated and the duration recomputed; approval slots
// are left untouched.
func (s *RequestService) Update(ctx context.Context, id RequestID, actor Actor, in SubmitInput) (*OvertimeRequest, error) {
	cur, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.OwnerNIK != actor.NIK {
		return nil, &ForbiddenError{Reason: "only the owner may edit a request"}
	}
	if cur.Status == StatusApproved {
		return nil, &ForbiddenError{Reason: "approved requests are immutable"}
	}

	cat, err := LookupCategory(in.CategoryKey)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return nil, &ValidationError{Field: "date", Message: fmt.Sprintf("malformed date %q, want YYYY-MM-DD", in.Date)}
	}
	duration, err := ComputeDuration(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	if !duration.IsPositive() {
		return nil, &ValidationError{Field: "end_time", Message: "duration must be greater than zero"}
	}
	if in.Reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "must not be empty"}
	}

	next := *cur
	next.CategoryKey = cat.Key
	next.Category = cat.Name
	next.Date = in.Date
	next.StartTime = in.StartTime
	next.EndTime = in.EndTime
	next.Duration = duration
	next.Reason = in.Reason
	if err := s.Store.UpdateRequest(ctx, next); err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		RequestID: id,
		ActorNIK:  actor.NIK,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    AuditEdited,
		At:        s.Now(),
	})
	return &next, nil
}

// Delete removes a request. Admins may delete any request; the owner
// may delete their own only while it is still pending.
func (s *RequestService) Delete(ctx context.Context, id RequestID, actor Actor) error {
	cur, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case actor.Role == RoleAdmin:
	case cur.OwnerNIK == actor.NIK && cur.Status == StatusPending:
	default:
		return &ForbiddenError{Reason: "only the admin, or the owner while pending, may delete a request"}
	}
	if err := s.Store.DeleteRequest(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, AuditEntry{
		RequestID: id,
		ActorNIK:  actor.NIK,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    AuditDeleted,
		At:        s.Now(),
	})
	return nil
}

// AuditTrail returns the audit entries recorded for a request.
func (s *RequestService) AuditTrail(ctx context.Context, id RequestID) ([]AuditEntry, error) {
	if _, err := s.Store.GetRequest(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.AuditForRequest(ctx, id)
}

// audit appends best-effort: a failed audit write never fails the
// already-committed operation. The failure is logged because the trail
// is the only record of decisions an admin override later overwrote.
func (s *RequestService) audit(ctx context.Context, e AuditEntry) {
	if err := s.Store.AppendAudit(ctx, e); err != nil {
		log.Printf("Failed to append audit entry (request %d, action %s): %v", e.RequestID, e.Action, err)
	}
}

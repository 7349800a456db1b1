/*
approval.go - The approval state machine

PURPOSE:
  Decides whether a given actor may approve/reject a given request and
  how the two per-slot decisions combine into the overall status. This
  is the only code allowed to mutate approval state.

STATE MODEL:
  A request is Pending(a1, a2) with a1, a2 in {pending, approved,
  rejected}, collapsing to an overall Approved or Rejected:

    - either slot rejected        => overall rejected (immediately final)
    - both slots approved         => overall approved
    - anything else               => overall pending

ROLE-TO-SLOT MAPPING:
  approver1 acts only on slot 1, approver2 only on slot 2. An admin
  override resolves the whole request in one action and force-syncs both
  slots to the decision, so displays never show a stale pending slot
  next to a terminal overall status. Employees never approve.

TERMINALITY:
  Once overall status is approved or rejected, every further Decide call
  fails with ErrForbidden. Repeating a decision on a resolved request is
  therefore idempotently denied.

PURITY:
  Decide is a pure transition function: it takes the current record and
  returns the transitioned copy. Persistence (and the concurrency check
  against racing writers) lives in the store's UpdateDecision.

SEE ALSO:
  - service.go: ApplyDecision wires Decide to the store
  - store.go: UpdateDecision's conditional-write contract
*/
package overtime

import (
	"fmt"
	"time"
)

// Decide applies one approve/reject action to a request and returns the
// transitioned copy. The input record is not modified. It fails with a
// ForbiddenError when the actor's role or the request's state does not
// permit the transition.
func Decide(req OvertimeRequest, actor Actor, decision Decision, at time.Time) (OvertimeRequest, error) {
	if req.Terminal() {
		return req, &ForbiddenError{Reason: fmt.Sprintf("request %d is already %s", req.ID, req.Status)}
	}

	resolved := decision.status()
	name := actor.Name

	switch actor.Role {
	case RoleEmployee:
		return req, &ForbiddenError{Reason: "employees may not approve or reject requests"}

	case RoleApprover1:
		if req.Approver1Status != StatusPending {
			return req, &ForbiddenError{Reason: "approver1 slot is already resolved"}
		}
		req.Approver1Status = resolved
		req.Approver1Name = &name
		req.Approver1ActedAt = &at

	case RoleApprover2:
		if req.Approver2Status != StatusPending {
			return req, &ForbiddenError{Reason: "approver2 slot is already resolved"}
		}
		req.Approver2Status = resolved
		req.Approver2Name = &name
		req.Approver2ActedAt = &at

	case RoleAdmin:
		// Override: resolve the whole request in one action. Both slots
		// are force-set to the admin's decision; any earlier independent
		// slot decision survives only in the audit log.
		req.Approver1Status = resolved
		req.Approver2Status = resolved
		req.Approver1Name = &name
		req.Approver2Name = &name
		req.Approver1ActedAt = &at
		req.Approver2ActedAt = &at
		req.Status = resolved
		return req, nil

	default:
		return req, &ForbiddenError{Reason: fmt.Sprintf("unknown role %q", actor.Role)}
	}

	req.Status = overallStatus(req.Approver1Status, req.Approver2Status)
	return req, nil
}

// overallStatus derives the overall request status from the two slots.
// A single rejection is terminal regardless of the other slot; approval
// requires both signatures.
func overallStatus(a1, a2 Status) Status {
	if a1 == StatusRejected || a2 == StatusRejected {
		return StatusRejected
	}
	if a1 == StatusApproved && a2 == StatusApproved {
		return StatusApproved
	}
	return StatusPending
}

// auditAction classifies a decision for the audit log.
func auditAction(actor Actor, decision Decision) AuditAction {
	if actor.Role == RoleAdmin {
		return AuditOverridden
	}
	if decision == DecisionApprove {
		return AuditApproved
	}
	return AuditRejected
}

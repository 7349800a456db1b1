/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- The demo directory with all four roles wired together
	- Requests in every approval state for in-flight
	- Demo accounts can authenticate
*/
package api

import (
	"context"
	"testing"

	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/memory"
)

func setupScenarioHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(memory.New(), NewTokenAuth("test-secret"))
}

func TestScenario_SmallOrg(t *testing.T) {
	// GIVEN: Small org scenario
	// WHEN: Loading the scenario
	// THEN: The full role hierarchy exists and demo logins work

	handler := setupScenarioHandler(t)
	ctx := context.Background()

	if err := handler.loadSmallOrg(ctx); err != nil {
		t.Fatalf("Failed to load small-org scenario: %v", err)
	}

	users, err := handler.Directory.ListAll(ctx)
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}
	if len(users) != 5 {
		t.Errorf("Expected 5 users, got %d", len(users))
	}

	// The employee is wired to the approver chain.
	emp, err := handler.Directory.GetByNIK(ctx, "2001")
	if err != nil {
		t.Fatalf("Failed to load employee: %v", err)
	}
	if emp.Approver1 == nil || *emp.Approver1 != "1001" {
		t.Errorf("Employee approver1 = %v, want 1001", emp.Approver1)
	}
	if emp.Approver2 == nil || *emp.Approver2 != "1002" {
		t.Errorf("Employee approver2 = %v, want 1002", emp.Approver2)
	}

	// The supervisor reports to the manager.
	sup, err := handler.Directory.GetByNIK(ctx, "1001")
	if err != nil {
		t.Fatalf("Failed to load supervisor: %v", err)
	}
	if sup.Role != overtime.RoleApprover1 || sup.Approver2 == nil || *sup.Approver2 != "1002" {
		t.Errorf("Supervisor not wired to manager: %+v", sup)
	}

	// Every demo account authenticates with "demo".
	for _, u := range users {
		if !CheckPassword(u.PasswordHash, "demo") {
			t.Errorf("Demo password rejected for %s", u.NIK)
		}
	}
}

func TestScenario_InFlight(t *testing.T) {
	// GIVEN: In-flight scenario
	// WHEN: Loading the scenario
	// THEN: Requests exist in every approval state

	handler := setupScenarioHandler(t)
	ctx := context.Background()

	if err := handler.loadInFlight(ctx); err != nil {
		t.Fatalf("Failed to load in-flight scenario: %v", err)
	}

	requests, err := handler.Requests.ListAll(ctx)
	if err != nil {
		t.Fatalf("Failed to list requests: %v", err)
	}
	if len(requests) != 4 {
		t.Fatalf("Expected 4 requests, got %d", len(requests))
	}

	counts := map[overtime.Status]int{}
	halfApproved := 0
	for _, r := range requests {
		counts[r.Status]++
		if r.Status == overtime.StatusPending && r.Approver1Status == overtime.StatusApproved {
			halfApproved++
		}
	}
	if counts[overtime.StatusPending] != 2 {
		t.Errorf("Expected 2 pending requests, got %d", counts[overtime.StatusPending])
	}
	if halfApproved != 1 {
		t.Errorf("Expected 1 half-approved request, got %d", halfApproved)
	}
	if counts[overtime.StatusApproved] != 1 {
		t.Errorf("Expected 1 approved request, got %d", counts[overtime.StatusApproved])
	}
	if counts[overtime.StatusRejected] != 1 {
		t.Errorf("Expected 1 rejected request, got %d", counts[overtime.StatusRejected])
	}

	// The supervisor's inbox only holds the fully pending request.
	inbox, err := handler.Requests.PendingForApprover(ctx, "1001")
	if err != nil {
		t.Fatalf("Failed to load inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Errorf("Expected 1 request in supervisor inbox, got %d", len(inbox))
	}
}

/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Populates the store with realistic data for demos. Each scenario
  creates a small org with the four roles wired together, plus sample
  requests in various approval states.

AVAILABLE SCENARIOS:
  small-org:     Admin, one approver chain, two employees, no requests
  in-flight:     Same org with requests pending, half-approved,
                 approved, and rejected

NOTE:
  Scenarios assume an empty or disposable store. Only use in
  development/demo environments. Every demo account's password is
  "demo".

SEE ALSO:
  - server.go: Route wiring
  - handlers.go: writeJSON/writeError helpers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/overtime-engine/overtime"
)

// ScenarioDTO describes one loadable scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{ID: "small-org", Name: "Small Organization", Description: "Admin, approver chain, and two employees"},
	{ID: "in-flight", Name: "In-Flight Requests", Description: "Small org with requests in every approval state"},
}

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario populates the store with the selected scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "small-org":
		err = h.loadSmallOrg(ctx)
	case "in-flight":
		err = h.loadInFlight(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("no scenario %q", req.ScenarioID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// loadSmallOrg creates the demo directory: one admin, an
// approver2, an approver1 reporting to them, and two employees wired to
// the approver chain.
func (h *Handler) loadSmallOrg(ctx context.Context) error {
	hash, err := HashPassword("demo")
	if err != nil {
		return err
	}

	a1 := overtime.NIK("1001")
	a2 := overtime.NIK("1002")
	users := []overtime.User{
		{NIK: "9000", Name: "Dewi Admin", Role: overtime.RoleAdmin},
		{NIK: "1002", Name: "Siti Manager", Role: overtime.RoleApprover2},
		{NIK: "1001", Name: "Budi Supervisor", Role: overtime.RoleApprover1, Approver2: &a2},
		{NIK: "2001", Name: "Agus Employee", Role: overtime.RoleEmployee, Approver1: &a1, Approver2: &a2, PickupPoint: "Gate 3"},
		{NIK: "2002", Name: "Rina Employee", Role: overtime.RoleEmployee, Approver1: &a1, Approver2: &a2, PickupPoint: "Gate 1"},
	}
	for _, u := range users {
		u.PasswordHash = hash
		if err := h.Directory.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to create %s: %w", u.NIK, err)
		}
	}
	return nil
}

// loadInFlight builds on small-org with requests in every state.
func (h *Handler) loadInFlight(ctx context.Context) error {
	if err := h.loadSmallOrg(ctx); err != nil {
		return err
	}

	submissions := []overtime.SubmitInput{
		{OwnerNIK: "2001", CategoryKey: "shift1_weekday", Date: "2025-06-02", StartTime: "16:40", EndTime: "19:00", Reason: "Line changeover support"},
		{OwnerNIK: "2001", CategoryKey: "shift2_offday", Date: "2025-06-07", StartTime: "19:30", EndTime: "04:30", Reason: "Weekend maintenance window"},
		{OwnerNIK: "2002", CategoryKey: "shift1_offday", Date: "2025-06-08", StartTime: "07:30", EndTime: "16:40", Reason: "Inventory count"},
		{OwnerNIK: "2002", CategoryKey: "shift1_friday", Date: "2025-06-06", StartTime: "17:15", EndTime: "19:05", Reason: "Shipment deadline"},
	}
	var ids []overtime.RequestID
	for _, in := range submissions {
		id, err := h.Requests.Submit(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to submit demo request: %w", err)
		}
		ids = append(ids, id)
	}

	supervisor := overtime.Actor{NIK: "1001", Name: "Budi Supervisor", Role: overtime.RoleApprover1}
	manager := overtime.Actor{NIK: "1002", Name: "Siti Manager", Role: overtime.RoleApprover2}

	// ids[0] stays fully pending.
	// ids[1]: half-approved (supervisor only).
	if _, err := h.Requests.ApplyDecision(ctx, ids[1], supervisor, overtime.DecisionApprove); err != nil {
		return err
	}
	// ids[2]: fully approved.
	if _, err := h.Requests.ApplyDecision(ctx, ids[2], supervisor, overtime.DecisionApprove); err != nil {
		return err
	}
	if _, err := h.Requests.ApplyDecision(ctx, ids[2], manager, overtime.DecisionApprove); err != nil {
		return err
	}
	// ids[3]: rejected by the manager.
	if _, err := h.Requests.ApplyDecision(ctx, ids[3], manager, overtime.DecisionReject); err != nil {
		return err
	}
	return nil
}

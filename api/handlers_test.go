/*
handlers_test.go - HTTP-level tests for the overtime API

Tests for:
- Login and bearer-token auth (shared 401 for bad NIK/password)
- Submit -> approve -> approve over HTTP, and the error mappings
  (403 for employee decisions, 404 unknown id, 400 validation)
- Admin gating on directory management
- Report endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/memory"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type testServer struct {
	*httptest.Server
	handler *Handler
}

// newTestServer starts an API over a fresh in-memory store seeded with
// the standard org: admin ADM, approver2 A2, approver1 A1, employee E1.
// Every account's password is "demo".
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.New()
	h := NewHandler(store, NewTokenAuth("test-secret"))

	hash, err := HashPassword("demo")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	a1 := overtime.NIK("A1")
	a2 := overtime.NIK("A2")
	seed := []overtime.User{
		{NIK: "ADM", Name: "The Admin", Role: overtime.RoleAdmin, PasswordHash: hash},
		{NIK: "A2", Name: "Second Approver", Role: overtime.RoleApprover2, PasswordHash: hash},
		{NIK: "A1", Name: "First Approver", Role: overtime.RoleApprover1, Approver2: &a2, PasswordHash: hash},
		{NIK: "E1", Name: "The Employee", Role: overtime.RoleEmployee, Approver1: &a1, Approver2: &a2, PasswordHash: hash},
	}
	for _, u := range seed {
		if err := h.Directory.Create(context.Background(), u); err != nil {
			t.Fatalf("Failed to seed %s: %v", u.NIK, err)
		}
	}

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, handler: h}
}

// login returns a bearer token for one of the seeded accounts.
func (ts *testServer) login(t *testing.T, nik string) string {
	t.Helper()
	status, body := ts.do(t, "POST", "/api/login", "", LoginRequest{NIK: nik, Password: "demo"})
	if status != http.StatusOK {
		t.Fatalf("Login as %s failed: %d %s", nik, status, body)
	}
	var resp LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	return resp.Token
}

// do performs one request and returns status plus raw body.
func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return resp.StatusCode, out.Bytes()
}

func (ts *testServer) submit(t *testing.T, token string) RequestDTO {
	t.Helper()
	status, body := ts.do(t, "POST", "/api/requests/", token, SubmitRequestRequest{
		CategoryKey: "shift2_offday",
		Date:        "2025-06-07",
		StartTime:   "19:30",
		EndTime:     "04:30",
		Reason:      "maintenance window",
	})
	if status != http.StatusCreated {
		t.Fatalf("Submit failed: %d %s", status, body)
	}
	var dto RequestDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		t.Fatalf("Failed to decode request: %v", err)
	}
	return dto
}

// =============================================================================
// AUTH
// =============================================================================

func TestLogin_SameResponseForUnknownNikAndWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	s1, b1 := ts.do(t, "POST", "/api/login", "", LoginRequest{NIK: "NOPE", Password: "demo"})
	s2, b2 := ts.do(t, "POST", "/api/login", "", LoginRequest{NIK: "E1", Password: "wrong"})
	if s1 != http.StatusUnauthorized || s2 != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", s1, s2)
	}
	// An attacker must not be able to tell the two cases apart.
	if string(b1) != string(b2) {
		t.Errorf("responses differ: %s vs %s", b1, b2)
	}
}

func TestAuth_MissingOrBadToken(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, "GET", "/api/me", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", status)
	}
	status, _ = ts.do(t, "GET", "/api/me", "not-a-jwt", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("garbage token: got %d, want 401", status)
	}
}

func TestAuth_RoleChangeRevokesStaleToken(t *testing.T) {
	// The 12h token only identifies the session; role comes from the
	// directory on every request. A demotion mid-session must strip
	// approval rights without waiting for expiry.
	ts := newTestServer(t)
	empToken := ts.login(t, "E1")
	a1Token := ts.login(t, "A1")
	admToken := ts.login(t, "ADM")

	created := ts.submit(t, empToken)

	// Demote A1 to employee while their token is still live.
	status, body := ts.do(t, "PUT", "/api/users/A1/role", admToken, UpdateRoleRequest{Role: "employee"})
	if status != http.StatusOK {
		t.Fatalf("demotion failed: %d %s", status, body)
	}

	status, _ = ts.do(t, "POST", fmt.Sprintf("/api/requests/%d/approve", created.ID), a1Token, nil)
	if status != http.StatusForbidden {
		t.Errorf("demoted approver with stale token: got %d, want 403", status)
	}

	// A deleted account's token stops working entirely.
	status, _ = ts.do(t, "DELETE", "/api/users/A1", admToken, nil)
	if status != http.StatusOK {
		t.Fatalf("delete failed: %d", status)
	}
	status, _ = ts.do(t, "GET", "/api/me", a1Token, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("deleted account token: got %d, want 401", status)
	}
}

func TestMe_ReturnsOwnRecord(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "E1")

	status, body := ts.do(t, "GET", "/api/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("GET /api/me failed: %d %s", status, body)
	}
	var dto UserDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if dto.NIK != "E1" || dto.Role != "employee" {
		t.Errorf("me = %+v", dto)
	}
}

// =============================================================================
// REQUEST LIFECYCLE OVER HTTP
// =============================================================================

func TestRequestFlow_SubmitApproveApprove(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.login(t, "E1")
	a1Token := ts.login(t, "A1")
	a2Token := ts.login(t, "A2")

	created := ts.submit(t, empToken)
	if created.Status != "pending" || created.Duration != 9.0 {
		t.Fatalf("created = %+v", created)
	}

	// The request sits in both approver inboxes.
	status, body := ts.do(t, "GET", "/api/requests/pending", a1Token, nil)
	if status != http.StatusOK {
		t.Fatalf("pending list failed: %d %s", status, body)
	}
	var inbox []RequestDTO
	if err := json.Unmarshal(body, &inbox); err != nil {
		t.Fatalf("Failed to decode inbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].ID != created.ID {
		t.Fatalf("A1 inbox = %+v", inbox)
	}

	// First approval.
	status, body = ts.do(t, "POST", fmt.Sprintf("/api/requests/%d/approve", created.ID), a1Token, nil)
	if status != http.StatusOK {
		t.Fatalf("A1 approve failed: %d %s", status, body)
	}
	var afterA1 RequestDTO
	json.Unmarshal(body, &afterA1)
	if afterA1.Status != "pending" || afterA1.Approver1Status != "approved" {
		t.Errorf("after A1: %+v", afterA1)
	}
	if afterA1.Approver1Name == nil || *afterA1.Approver1Name != "First Approver" {
		t.Errorf("approver1 name not recorded: %v", afterA1.Approver1Name)
	}

	// Second approval resolves the request.
	status, body = ts.do(t, "POST", fmt.Sprintf("/api/requests/%d/approve", created.ID), a2Token, nil)
	if status != http.StatusOK {
		t.Fatalf("A2 approve failed: %d %s", status, body)
	}
	var afterA2 RequestDTO
	json.Unmarshal(body, &afterA2)
	if afterA2.Status != "approved" {
		t.Errorf("after A2: status = %s, want approved", afterA2.Status)
	}

	// Any further decision is 403, admin included.
	admToken := ts.login(t, "ADM")
	status, _ = ts.do(t, "POST", fmt.Sprintf("/api/requests/%d/reject", created.ID), admToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("decision on resolved request: got %d, want 403", status)
	}
}

func TestRequestFlow_EmployeeCannotDecideOrMonitor(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.login(t, "E1")
	created := ts.submit(t, empToken)

	status, _ := ts.do(t, "POST", fmt.Sprintf("/api/requests/%d/approve", created.ID), empToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("employee approve: got %d, want 403", status)
	}
	status, _ = ts.do(t, "GET", "/api/requests/", empToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("employee monitoring list: got %d, want 403", status)
	}

	// Their own list works.
	status, body := ts.do(t, "GET", "/api/requests/mine", empToken, nil)
	if status != http.StatusOK {
		t.Fatalf("mine failed: %d %s", status, body)
	}
	var mine []RequestDTO
	if err := json.Unmarshal(body, &mine); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("mine = %+v", mine)
	}
}

func TestRequestFlow_ErrorMappings(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.login(t, "E1")
	admToken := ts.login(t, "ADM")

	// 400: validation failure surfaces field details.
	status, body := ts.do(t, "POST", "/api/requests/", empToken, SubmitRequestRequest{
		CategoryKey: "shift1_weekday", Date: "2025-06-02",
		StartTime: "16:40", EndTime: "16:40", Reason: "zero",
	})
	if status != http.StatusBadRequest {
		t.Errorf("zero duration submit: got %d %s, want 400", status, body)
	}

	// 400: unknown category.
	status, _ = ts.do(t, "POST", "/api/requests/", empToken, SubmitRequestRequest{
		CategoryKey: "shift9", Date: "2025-06-02",
		StartTime: "16:40", EndTime: "19:00", Reason: "x",
	})
	if status != http.StatusBadRequest {
		t.Errorf("unknown category: got %d, want 400", status)
	}

	// 404: unknown id.
	status, _ = ts.do(t, "POST", "/api/requests/999/approve", admToken, nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown id: got %d, want 404", status)
	}

	// 400: non-numeric id.
	status, _ = ts.do(t, "POST", "/api/requests/abc/approve", admToken, nil)
	if status != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", status)
	}
}

func TestRequestFlow_OwnerEditAndDelete(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.login(t, "E1")
	admToken := ts.login(t, "ADM")

	created := ts.submit(t, empToken)

	// Owner edit while pending.
	status, body := ts.do(t, "PUT", fmt.Sprintf("/api/requests/%d", created.ID), empToken, SubmitRequestRequest{
		CategoryKey: "shift1_weekday", Date: "2025-06-03",
		StartTime: "16:40", EndTime: "19:00", Reason: "moved",
	})
	if status != http.StatusOK {
		t.Fatalf("owner edit failed: %d %s", status, body)
	}
	var edited RequestDTO
	json.Unmarshal(body, &edited)
	if edited.CategoryKey != "shift1_weekday" {
		t.Errorf("edit not applied: %+v", edited)
	}

	// Approve, then edits are 403.
	if status, body = ts.do(t, "POST", fmt.Sprintf("/api/requests/%d/approve", created.ID), admToken, nil); status != http.StatusOK {
		t.Fatalf("admin approve failed: %d %s", status, body)
	}
	status, _ = ts.do(t, "PUT", fmt.Sprintf("/api/requests/%d", created.ID), empToken, SubmitRequestRequest{
		CategoryKey: "shift1_weekday", Date: "2025-06-03",
		StartTime: "16:40", EndTime: "19:00", Reason: "too late",
	})
	if status != http.StatusForbidden {
		t.Errorf("edit after approval: got %d, want 403", status)
	}

	// Owner delete of a resolved request is 403; admin delete works.
	status, _ = ts.do(t, "DELETE", fmt.Sprintf("/api/requests/%d", created.ID), empToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("owner delete of resolved: got %d, want 403", status)
	}
	status, _ = ts.do(t, "DELETE", fmt.Sprintf("/api/requests/%d", created.ID), admToken, nil)
	if status != http.StatusOK {
		t.Errorf("admin delete: got %d, want 200", status)
	}
}

func TestAuditTrail_Endpoint(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.login(t, "E1")
	a1Token := ts.login(t, "A1")

	created := ts.submit(t, empToken)
	if status, body := ts.do(t, "POST", fmt.Sprintf("/api/requests/%d/approve", created.ID), a1Token, nil); status != http.StatusOK {
		t.Fatalf("approve failed: %d %s", status, body)
	}

	status, body := ts.do(t, "GET", fmt.Sprintf("/api/requests/%d/audit", created.ID), empToken, nil)
	if status != http.StatusOK {
		t.Fatalf("audit failed: %d %s", status, body)
	}
	var trail []AuditEntryDTO
	if err := json.Unmarshal(body, &trail); err != nil {
		t.Fatalf("Failed to decode trail: %v", err)
	}
	if len(trail) != 2 || trail[0].Action != "submitted" || trail[1].Action != "approved" {
		t.Errorf("trail = %+v", trail)
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

func TestUsers_AdminGate(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.login(t, "E1")
	admToken := ts.login(t, "ADM")

	newUser := CreateUserRequest{
		NIK: "E2", Name: "Second Employee", Role: "employee",
		Approver1: strPtr("A1"), Approver2: strPtr("A2"), Password: "demo",
	}

	status, _ := ts.do(t, "POST", "/api/users/", empToken, newUser)
	if status != http.StatusForbidden {
		t.Errorf("employee create user: got %d, want 403", status)
	}

	status, body := ts.do(t, "POST", "/api/users/", admToken, newUser)
	if status != http.StatusCreated {
		t.Fatalf("admin create user: %d %s", status, body)
	}

	// The new account can log in.
	status, _ = ts.do(t, "POST", "/api/login", "", LoginRequest{NIK: "E2", Password: "demo"})
	if status != http.StatusOK {
		t.Errorf("new user login: got %d, want 200", status)
	}

	// Hierarchy violations surface as 400.
	status, _ = ts.do(t, "POST", "/api/users/", admToken, CreateUserRequest{
		NIK: "B1", Name: "Lone", Role: "approver1", Password: "demo",
	})
	if status != http.StatusBadRequest {
		t.Errorf("approver1 without superior: got %d, want 400", status)
	}

	// Duplicate NIK is 400.
	status, _ = ts.do(t, "POST", "/api/users/", admToken, newUser)
	if status != http.StatusBadRequest {
		t.Errorf("duplicate nik: got %d, want 400", status)
	}
}

func TestUsers_RoleFilter(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "E1")

	status, body := ts.do(t, "GET", "/api/users/?role=approver2", token, nil)
	if status != http.StatusOK {
		t.Fatalf("role filter failed: %d %s", status, body)
	}
	var users []UserDTO
	if err := json.Unmarshal(body, &users); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(users) != 1 || users[0].NIK != "A2" {
		t.Errorf("filtered users = %+v", users)
	}
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReports_EndToEnd(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.login(t, "E1")
	admToken := ts.login(t, "ADM")

	created := ts.submit(t, empToken)
	if status, body := ts.do(t, "POST", fmt.Sprintf("/api/requests/%d/approve", created.ID), admToken, nil); status != http.StatusOK {
		t.Fatalf("approve failed: %d %s", status, body)
	}

	status, body := ts.do(t, "GET", "/api/reports/?from=2025-06-01&to=2025-06-30", admToken, nil)
	if status != http.StatusOK {
		t.Fatalf("report failed: %d %s", status, body)
	}
	var report []UserSummaryDTO
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if len(report) != 1 || report[0].NIK != "E1" || report[0].ApprovedRequests != 1 || report[0].TotalHours != 9.0 {
		t.Errorf("report = %+v", report)
	}

	status, body = ts.do(t, "GET", "/api/reports/statistics?from=2025-06-01&to=2025-06-30", admToken, nil)
	if status != http.StatusOK {
		t.Fatalf("statistics failed: %d %s", status, body)
	}
	var stats StatisticsDTO
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("Failed to decode statistics: %v", err)
	}
	if stats.TotalRequests != 1 || stats.TotalHours != 9.0 {
		t.Errorf("stats = %+v", stats)
	}

	// Malformed period is 400.
	status, _ = ts.do(t, "GET", "/api/reports/?from=garbage&to=2025-06-30", admToken, nil)
	if status != http.StatusBadRequest {
		t.Errorf("bad period: got %d, want 400", status)
	}
}

func strPtr(s string) *string { return &s }

/*
handlers.go - HTTP API handlers for the overtime workflow

PURPOSE:
  Exposes the overtime engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/login                   Resolve NIK+password to a token
    GET    /api/me                      Introspect the current actor

  Users (admin):
    GET    /api/users                   List directory
    POST   /api/users                   Register user
    GET    /api/users/{nik}             Get one record
    PUT    /api/users/{nik}/role        Reassign role/approvers
    DELETE /api/users/{nik}             Delete user
  Profile (self-service):
    PUT    /api/profile                 Edit own name/pickup point

  Requests:
    POST   /api/requests                Submit
    GET    /api/requests                Monitoring list (approvers/admin)
    GET    /api/requests/mine           Own requests
    GET    /api/requests/pending        Approver inbox
    POST   /api/requests/{id}/approve   Approve
    POST   /api/requests/{id}/reject    Reject
    PUT    /api/requests/{id}           Owner edit (until approved)
    DELETE /api/requests/{id}           Delete (admin, or owner while pending)
    GET    /api/requests/{id}/audit     Audit trail

  Reports:
    GET    /api/reports?from=&to=       Per-user summaries
    GET    /api/reports/statistics      Organization totals

  Catalog:
    GET    /api/categories              Fixed category catalog

ERROR HANDLING:
  Domain errors map onto HTTP status:
  - 400: Validation errors, unknown category, duplicate NIK
  - 401: Missing/invalid token
  - 403: Forbidden transitions, wrong role
  - 404: Unknown request or user
  - 409: Lost concurrency race (retryable after re-fetch)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     overtime.Store
	Directory *overtime.Directory
	Requests  *overtime.RequestService
	Reporter  *overtime.Reporter
	Auth      *TokenAuth
}

// NewHandler wires the services over one store.
func NewHandler(store overtime.Store, auth *TokenAuth) *Handler {
	return &Handler{
		Store:     store,
		Directory: overtime.NewDirectory(store),
		Requests:  overtime.NewRequestService(store),
		Reporter:  overtime.NewReporter(store),
		Auth:      auth,
	}
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login resolves a NIK+password pair to a session token.
// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Directory.GetByNIK(r.Context(), overtime.NIK(req.NIK))
	if err != nil || !CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown NIK and wrong password.
		writeError(w, http.StatusUnauthorized, "Invalid NIK or password", nil)
		return
	}

	token, err := h.Auth.Issue(*user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: toUserDTO(*user)})
}

// Me returns the current actor's directory record.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	user, err := h.Directory.GetByNIK(r.Context(), actor.NIK)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

// ListUsers returns the whole directory.
// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []overtime.User
	var err error

	// Optional ?role= filter to populate approver pickers.
	if roleStr := r.URL.Query().Get("role"); roleStr != "" {
		role, parseErr := overtime.ParseRole(roleStr)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "Unknown role", parseErr)
			return
		}
		users, err = h.Directory.ListByRole(r.Context(), role)
	} else {
		users, err = h.Directory.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser registers a new directory record.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	role, err := overtime.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown role", err)
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password must not be empty", nil)
		return
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	user := overtime.User{
		NIK:          overtime.NIK(req.NIK),
		Name:         req.Name,
		PickupPoint:  req.PickupPoint,
		Role:         role,
		Approver1:    strNIK(req.Approver1),
		Approver2:    strNIK(req.Approver2),
		PasswordHash: hash,
	}
	if err := h.Directory.Create(r.Context(), user); err != nil {
		writeError(w, statusFor(err), "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// GetUser returns one directory record.
// GET /api/users/{nik}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	nik := overtime.NIK(chi.URLParam(r, "nik"))
	user, err := h.Directory.GetByNIK(r.Context(), nik)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// UpdateUserRole reassigns role and approver references.
// PUT /api/users/{nik}/role
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	nik := overtime.NIK(chi.URLParam(r, "nik"))
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role, err := overtime.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown role", err)
		return
	}
	if err := h.Directory.UpdateRole(r.Context(), nik, role, strNIK(req.Approver1), strNIK(req.Approver2)); err != nil {
		writeError(w, statusFor(err), "Failed to update role", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteUser removes role and profile records. Historical requests are
// kept with their name/NIK snapshot.
// DELETE /api/users/{nik}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	nik := overtime.NIK(chi.URLParam(r, "nik"))
	if err := h.Directory.Delete(r.Context(), nik); err != nil {
		writeError(w, statusFor(err), "Failed to delete user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// UpdateProfile applies the self-service edit (name, pickup point).
// PUT /api/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Directory.UpdateProfile(r.Context(), actor.NIK, req.Name, req.PickupPoint); err != nil {
		writeError(w, statusFor(err), "Failed to update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// =============================================================================
// CATALOG ENDPOINT
// =============================================================================

// ListCategories returns the fixed category catalog.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	cats := overtime.ListCategories()
	dtos := make([]CategoryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = CategoryDTO{Key: c.Key, Name: c.Name, DefaultStart: c.DefaultStart, DefaultEnd: c.DefaultEnd}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

// SubmitRequest creates an overtime request owned by the current actor.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Requests.Submit(r.Context(), overtime.SubmitInput{
		OwnerNIK:    actor.NIK,
		CategoryKey: req.CategoryKey,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Reason:      req.Reason,
	})
	if err != nil {
		writeError(w, statusFor(err), "Failed to submit request", err)
		return
	}

	created, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load created request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*created))
}

// ListRequests is the monitoring view: every request, newest first.
// Employees use /mine instead.
// GET /api/requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	if actorFrom(r.Context()).Role == overtime.RoleEmployee {
		writeError(w, http.StatusForbidden, "Monitoring is for approvers and admins", nil)
		return
	}
	requests, err := h.Requests.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ListMyRequests returns the current actor's own submissions.
// GET /api/requests/mine
func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Requests.ListByOwner(r.Context(), actorFrom(r.Context()).NIK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ListPendingRequests is the approver inbox: requests still awaiting
// the current actor's slot.
// GET /api/requests/pending
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Requests.PendingForApprover(r.Context(), actorFrom(r.Context()).NIK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ApproveRequest applies an approve decision.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, overtime.DecisionApprove)
}

// RejectRequest applies a reject decision.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, overtime.DecisionReject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision overtime.Decision) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	updated, err := h.Requests.ApplyDecision(r.Context(), id, actorFrom(r.Context()), decision)
	if err != nil {
		writeError(w, statusFor(err), "Failed to apply decision", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*updated))
}

// UpdateRequest applies an owner edit (blocked once approved).
// PUT /api/requests/{id}
func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	actor := actorFrom(r.Context())
	updated, err := h.Requests.Update(r.Context(), id, actor, overtime.SubmitInput{
		OwnerNIK:    actor.NIK,
		CategoryKey: req.CategoryKey,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Reason:      req.Reason,
	})
	if err != nil {
		writeError(w, statusFor(err), "Failed to update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*updated))
}

// DeleteRequest removes a request (admin, or owner while pending).
// DELETE /api/requests/{id}
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	if err := h.Requests.Delete(r.Context(), id, actorFrom(r.Context())); err != nil {
		writeError(w, statusFor(err), "Failed to delete request", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetAuditTrail returns the audit entries for a request.
// GET /api/requests/{id}/audit
func (h *Handler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	entries, err := h.Requests.AuditTrail(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load audit trail", err)
		return
	}
	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditEntryDTO{
			ActorNIK:  string(e.ActorNIK),
			ActorName: e.ActorName,
			ActorRole: string(e.ActorRole),
			Action:    string(e.Action),
			Detail:    e.Detail,
			At:        e.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// GenerateReport returns per-user summaries for an inclusive period.
// GET /api/reports?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	summaries, err := h.Reporter.GenerateReport(r.Context(), from, to)
	if err != nil {
		writeError(w, statusFor(err), "Failed to generate report", err)
		return
	}
	dtos := make([]UserSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = UserSummaryDTO{
			NIK:              string(s.NIK),
			Name:             s.Name,
			TotalRequests:    s.TotalRequests,
			ApprovedRequests: s.ApprovedRequests,
			RejectedRequests: s.RejectedRequests,
			PendingRequests:  s.PendingRequests,
			TotalHours:       s.TotalHours.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GenerateStatistics returns the organization-wide totals.
// GET /api/reports/statistics?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GenerateStatistics(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	stats, err := h.Reporter.GenerateStatistics(r.Context(), from, to)
	if err != nil {
		writeError(w, statusFor(err), "Failed to generate statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, StatisticsDTO{
		TotalRequests:    stats.TotalRequests,
		ApprovedRequests: stats.ApprovedRequests,
		RejectedRequests: stats.RejectedRequests,
		PendingRequests:  stats.PendingRequests,
		TotalHours:       stats.TotalHours.InexactFloat64(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func requestID(w http.ResponseWriter, r *http.Request) (overtime.RequestID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id", err)
		return 0, false
	}
	return overtime.RequestID(id), true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case overtime.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, overtime.ErrForbidden):
		return http.StatusForbidden
	case overtime.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, overtime.ErrStateConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in the domain services, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// USERS
// =============================================================================

// UserDTO represents a directory record in API responses.
type UserDTO struct {
	NIK         string  `json:"nik"`
	Name        string  `json:"name"`
	PickupPoint string  `json:"pickup_point,omitempty"`
	Role        string  `json:"role"`
	Approver1   *string `json:"approver1,omitempty"`
	Approver2   *string `json:"approver2,omitempty"`
}

// CreateUserRequest is the admin request to register a user.
type CreateUserRequest struct {
	NIK         string  `json:"nik"`
	Name        string  `json:"name"`
	PickupPoint string  `json:"pickup_point"`
	Role        string  `json:"role"`
	Approver1   *string `json:"approver1"`
	Approver2   *string `json:"approver2"`
	Password    string  `json:"password"`
}

// UpdateRoleRequest reassigns a user's role and approver references.
type UpdateRoleRequest struct {
	Role      string  `json:"role"`
	Approver1 *string `json:"approver1"`
	Approver2 *string `json:"approver2"`
}

// UpdateProfileRequest is the self-service profile edit.
type UpdateProfileRequest struct {
	Name        string `json:"name"`
	PickupPoint string `json:"pickup_point"`
}

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest carries the NIK (typed or QR-decoded upstream) and password.
type LoginRequest struct {
	NIK      string `json:"nik"`
	Password string `json:"password"`
}

// LoginResponse returns the session token and the resolved identity.
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// RequestDTO represents an overtime request in API responses.
type RequestDTO struct {
	ID              int64   `json:"id"`
	NIK             string  `json:"nik"`
	Name            string  `json:"name"`
	CategoryKey     string  `json:"category_key"`
	Category        string  `json:"category"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Duration        float64 `json:"duration"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	Approver1Status string  `json:"approver1_status"`
	Approver2Status string  `json:"approver2_status"`
	Approver1Name   *string `json:"approver1_name"`
	Approver2Name   *string `json:"approver2_name"`
	Approver1At     *string `json:"approver1_acted_at,omitempty"`
	Approver2At     *string `json:"approver2_acted_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// SubmitRequestRequest is the submission body. Start/end default from
// the chosen category but may be overridden by the submitter.
type SubmitRequestRequest struct {
	CategoryKey string `json:"category_key"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Reason      string `json:"reason"`
}

// CategoryDTO is one catalog entry.
type CategoryDTO struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	DefaultStart string `json:"default_start"`
	DefaultEnd   string `json:"default_end"`
}

// AuditEntryDTO is one audit log line for a request.
type AuditEntryDTO struct {
	ActorNIK  string `json:"actor_nik"`
	ActorName string `json:"actor_name"`
	ActorRole string `json:"actor_role"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	At        string `json:"at"`
}

// =============================================================================
// REPORTS
// =============================================================================

// UserSummaryDTO is one user's totals in a report period.
type UserSummaryDTO struct {
	NIK              string  `json:"nik"`
	Name             string  `json:"name"`
	TotalRequests    int     `json:"total_requests"`
	ApprovedRequests int     `json:"approved_requests"`
	RejectedRequests int     `json:"rejected_requests"`
	PendingRequests  int     `json:"pending_requests"`
	TotalHours       float64 `json:"total_hours"`
}

// StatisticsDTO is the organization-wide roll-up.
type StatisticsDTO struct {
	TotalRequests    int     `json:"total_requests"`
	ApprovedRequests int     `json:"approved_requests"`
	RejectedRequests int     `json:"rejected_requests"`
	PendingRequests  int     `json:"pending_requests"`
	TotalHours       float64 `json:"total_hours"`
}

// ErrorResponse is the error body for all non-2xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toUserDTO(u overtime.User) UserDTO {
	return UserDTO{
		NIK:         string(u.NIK),
		Name:        u.Name,
		PickupPoint: u.PickupPoint,
		Role:        string(u.Role),
		Approver1:   nikPtr(u.Approver1),
		Approver2:   nikPtr(u.Approver2),
	}
}

func toRequestDTO(r overtime.OvertimeRequest) RequestDTO {
	return RequestDTO{
		ID:              int64(r.ID),
		NIK:             string(r.OwnerNIK),
		Name:            r.OwnerName,
		CategoryKey:     r.CategoryKey,
		Category:        r.Category,
		Date:            r.Date,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Duration:        r.Duration.InexactFloat64(),
		Reason:          r.Reason,
		Status:          string(r.Status),
		Approver1Status: string(r.Approver1Status),
		Approver2Status: string(r.Approver2Status),
		Approver1Name:   r.Approver1Name,
		Approver2Name:   r.Approver2Name,
		Approver1At:     timePtr(r.Approver1ActedAt),
		Approver2At:     timePtr(r.Approver2ActedAt),
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toRequestDTOs(rs []overtime.OvertimeRequest) []RequestDTO {
	out := make([]RequestDTO, len(rs))
	for i, r := range rs {
		out[i] = toRequestDTO(r)
	}
	return out
}

func nikPtr(n *overtime.NIK) *string {
	if n == nil {
		return nil
	}
	s := string(*n)
	return &s
}

func strNIK(s *string) *overtime.NIK {
	if s == nil || *s == "" {
		return nil
	}
	n := overtime.NIK(*s)
	return &n
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

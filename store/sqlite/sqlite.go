/*
Package sqlite provides the SQLite-backed implementation of overtime.Store.

PURPOSE:
  Persists users, overtime requests, and the audit log. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  users:             Directory records keyed by NIK
  overtime_requests: Requests with per-slot approval sub-state
  audit_log:         Append-only record of actions

APPROVAL RACE:
  UpdateDecision issues a single conditional UPDATE scoped to
  "... WHERE id = ? AND status = 'pending' AND approver1_status = ?
  AND approver2_status = ?" with the slot statuses of the read the
  transition was computed from. The slot fields and the recomputed
  overall status travel in that one statement, so partial writes are
  impossible and a concurrent writer that lost the race — including a
  second approver whose read predates the first approver's commit —
  sees zero affected rows and gets overtime.ErrStateConflict.

WAL MODE:
  The database is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./overtime.db")   // or ":memory:"
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - overtime/store.go: Interface contracts
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/overtime"
)

// Store implements overtime.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ overtime.Store = (*Store)(nil)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		nik TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		pickup_point TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		approver1_nik TEXT,
		approver2_nik TEXT,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS overtime_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nik TEXT NOT NULL,
		name TEXT NOT NULL,
		category_key TEXT NOT NULL,
		category TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		duration TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		approver1_status TEXT NOT NULL DEFAULT 'pending',
		approver2_status TEXT NOT NULL DEFAULT 'pending',
		approver1_name TEXT,
		approver2_name TEXT,
		approver1_acted_at TEXT,
		approver2_acted_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id INTEGER NOT NULL,
		actor_nik TEXT NOT NULL,
		actor_name TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_nik ON overtime_requests(nik);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON overtime_requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_date ON overtime_requests(date);
	CREATE INDEX IF NOT EXISTS idx_audit_request ON audit_log(request_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USER STORE
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u overtime.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE nik = ?)`, string(u.NIK)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check nik: %w", err)
	}
	if exists {
		return overtime.ErrDuplicateNik
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (nik, name, pickup_point, role, approver1_nik, approver2_nik, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(u.NIK), u.Name, u.PickupPoint, string(u.Role),
		nikOrNull(u.Approver1), nikOrNull(u.Approver2),
		u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, nik overtime.NIK) (*overtime.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT nik, name, pickup_point, role, approver1_nik, approver2_nik, password_hash, created_at
		FROM users WHERE nik = ?`, string(nik))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, overtime.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]overtime.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT nik, name, pickup_point, role, approver1_nik, approver2_nik, password_hash, created_at
		FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []overtime.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u overtime.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = ?, pickup_point = ?, role = ?, approver1_nik = ?, approver2_nik = ?, password_hash = ?
		WHERE nik = ?`,
		u.Name, u.PickupPoint, string(u.Role),
		nikOrNull(u.Approver1), nikOrNull(u.Approver2),
		u.PasswordHash, string(u.NIK))
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return noneAffectedIs(res, overtime.ErrUserNotFound)
}

func (s *Store) DeleteUser(ctx context.Context, nik overtime.NIK) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE nik = ?`, string(nik))
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return noneAffectedIs(res, overtime.ErrUserNotFound)
}

// =============================================================================
// REQUEST STORE
// =============================================================================

const requestColumns = `id, nik, name, category_key, category, date, start_time, end_time,
	duration, reason, status, approver1_status, approver2_status,
	approver1_name, approver2_name, approver1_acted_at, approver2_acted_at, created_at`

func (s *Store) CreateRequest(ctx context.Context, r *overtime.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO overtime_requests
			(nik, name, category_key, category, date, start_time, end_time,
			 duration, reason, status, approver1_status, approver2_status,
			 approver1_name, approver2_name, approver1_acted_at, approver2_acted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.OwnerNIK), r.OwnerName, r.CategoryKey, r.Category,
		r.Date, r.StartTime, r.EndTime,
		r.Duration.String(), r.Reason,
		string(r.Status), string(r.Approver1Status), string(r.Approver2Status),
		strOrNull(r.Approver1Name), strOrNull(r.Approver2Name),
		timeOrNull(r.Approver1ActedAt), timeOrNull(r.Approver2ActedAt),
		r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	r.ID = overtime.RequestID(id)
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id overtime.RequestID) (*overtime.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM overtime_requests WHERE id = ?`, int64(id))
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, overtime.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return r, nil
}

func (s *Store) ListRequests(ctx context.Context) ([]overtime.OvertimeRequest, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM overtime_requests ORDER BY created_at DESC, id DESC`)
}

func (s *Store) ListRequestsByOwner(ctx context.Context, nik overtime.NIK) ([]overtime.OvertimeRequest, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM overtime_requests WHERE nik = ? ORDER BY created_at DESC, id DESC`,
		string(nik))
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]overtime.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var out []overtime.OvertimeRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// UpdateDecision writes the transitioned approval state. The WHERE
// clause is the compare-and-set: the row must still be pending overall
// AND both slot statuses must match the prior read the transition was
// computed from, so a stale writer cannot reset a slot another approver
// already resolved. Slots plus overall status land in one statement.
func (s *Store) UpdateDecision(ctx context.Context, prev, next overtime.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE overtime_requests
		SET status = ?, approver1_status = ?, approver2_status = ?,
		    approver1_name = ?, approver2_name = ?,
		    approver1_acted_at = ?, approver2_acted_at = ?
		WHERE id = ? AND status = 'pending'
		  AND approver1_status = ? AND approver2_status = ?`,
		string(next.Status), string(next.Approver1Status), string(next.Approver2Status),
		strOrNull(next.Approver1Name), strOrNull(next.Approver2Name),
		timeOrNull(next.Approver1ActedAt), timeOrNull(next.Approver2ActedAt),
		int64(next.ID),
		string(prev.Approver1Status), string(prev.Approver2Status))
	if err != nil {
		return fmt.Errorf("failed to update decision: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return s.decisionFailure(ctx, next.ID)
	}
	return nil
}

// decisionFailure distinguishes a lost race from a missing row.
func (s *Store) decisionFailure(ctx context.Context, id overtime.RequestID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM overtime_requests WHERE id = ?)`, int64(id)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check request: %w", err)
	}
	if exists {
		return overtime.ErrStateConflict
	}
	return overtime.ErrNotFound
}

func (s *Store) UpdateRequest(ctx context.Context, r overtime.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE overtime_requests
		SET category_key = ?, category = ?, date = ?, start_time = ?, end_time = ?,
		    duration = ?, reason = ?
		WHERE id = ? AND status != 'approved'`,
		r.CategoryKey, r.Category, r.Date, r.StartTime, r.EndTime,
		r.Duration.String(), r.Reason, int64(r.ID))
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM overtime_requests WHERE id = ?)`, int64(r.ID)).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check request: %w", err)
		}
		if exists {
			return overtime.ErrForbidden
		}
		return overtime.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, id overtime.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM overtime_requests WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return noneAffectedIs(res, overtime.ErrNotFound)
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, e overtime.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (request_id, actor_nik, actor_name, actor_role, action, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(e.RequestID), string(e.ActorNIK), e.ActorName, string(e.ActorRole),
		string(e.Action), e.Detail, e.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) AuditForRequest(ctx context.Context, id overtime.RequestID) ([]overtime.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, actor_nik, actor_name, actor_role, action, detail, at
		FROM audit_log WHERE request_id = ? ORDER BY id`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []overtime.AuditEntry
	for rows.Next() {
		var e overtime.AuditEntry
		var reqID int64
		var nik, role, at string
		if err := rows.Scan(&e.ID, &reqID, &nik, &e.ActorName, &role, &e.Action, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.RequestID = overtime.RequestID(reqID)
		e.ActorNIK = overtime.NIK(nik)
		e.ActorRole = overtime.Role(role)
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("failed to parse audit timestamp: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*overtime.User, error) {
	var u overtime.User
	var nik, role, createdAt string
	var a1, a2 sql.NullString
	if err := row.Scan(&nik, &u.Name, &u.PickupPoint, &role, &a1, &a2, &u.PasswordHash, &createdAt); err != nil {
		return nil, err
	}
	u.NIK = overtime.NIK(nik)
	u.Role = overtime.Role(role)
	u.Approver1 = nullNIK(a1)
	u.Approver2 = nullNIK(a2)
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	u.CreatedAt = t
	return &u, nil
}

func scanRequest(row rowScanner) (*overtime.OvertimeRequest, error) {
	var r overtime.OvertimeRequest
	var id int64
	var nik, status, a1Status, a2Status, duration, createdAt string
	var a1Name, a2Name, a1At, a2At sql.NullString
	if err := row.Scan(&id, &nik, &r.OwnerName, &r.CategoryKey, &r.Category,
		&r.Date, &r.StartTime, &r.EndTime, &duration, &r.Reason,
		&status, &a1Status, &a2Status,
		&a1Name, &a2Name, &a1At, &a2At, &createdAt); err != nil {
		return nil, err
	}
	r.ID = overtime.RequestID(id)
	r.OwnerNIK = overtime.NIK(nik)
	r.Status = overtime.Status(status)
	r.Approver1Status = overtime.Status(a1Status)
	r.Approver2Status = overtime.Status(a2Status)
	r.Approver1Name = nullStr(a1Name)
	r.Approver2Name = nullStr(a2Name)

	d, err := decimal.NewFromString(duration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}
	r.Duration = d

	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if r.Approver1ActedAt, err = nullTime(a1At); err != nil {
		return nil, err
	}
	if r.Approver2ActedAt, err = nullTime(a2At); err != nil {
		return nil, err
	}
	return &r, nil
}

func noneAffectedIs(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return sentinel
	}
	return nil
}

func nikOrNull(n *overtime.NIK) any {
	if n == nil {
		return nil
	}
	return string(*n)
}

func strOrNull(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func nullNIK(s sql.NullString) *overtime.NIK {
	if !s.Valid {
		return nil
	}
	n := overtime.NIK(s.String)
	return &n
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return &t, nil
}

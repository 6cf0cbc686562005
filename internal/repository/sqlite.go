package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/joshuadwray/audition-scoring/internal/migrations"
	"github.com/joshuadwray/audition-scoring/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing only when fn succeeds
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}

// rowsAffectedOrNotFound converts a zero-row update into ErrNotFound
func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Session Methods ====================

const sessionColumns = `id, name, date, session_code, status, is_locked, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*models.Session, error) {
	var s models.Session
	var status string
	if err := row.Scan(&s.ID, &s.Name, &s.Date, &s.SessionCode, &status, &s.IsLocked, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	return &s, nil
}

// CreateSession inserts a session. The code is stored upper-cased.
func (r *Repository) CreateSession(ctx context.Context, s *models.Session, pinHash string) error {
	s.ID = newID(s.ID)
	s.SessionCode = strings.ToUpper(s.SessionCode)
	if s.Status == "" {
		s.Status = models.SessionSetup
	}
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name, date, admin_pin_hash, session_code, status, is_locked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Name, s.Date, pinHash, s.SessionCode, string(s.Status), s.IsLocked, s.CreatedAt, s.UpdatedAt)
	return mapError(err)
}

// GetSession retrieves a session by ID
func (r *Repository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// GetSessionByCode retrieves a session by its join code, ignoring case
func (r *Repository) GetSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_code = ?`, strings.ToUpper(code)))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// GetSessionPINHash returns the stored admin PIN hash
func (r *Repository) GetSessionPINHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT admin_pin_hash FROM sessions WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return hash, err
}

// ListSessions returns all sessions, newest first
func (r *Repository) ListSessions(ctx context.Context) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// UpdateSession applies the non-nil fields of u
func (r *Repository) UpdateSession(ctx context.Context, id string, u models.SessionUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *u.Date)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res)
}

// SetSessionLock sets the lock flag and the accompanying status together
func (r *Repository) SetSessionLock(ctx context.Context, id string, locked bool, status models.SessionStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET is_locked = ?, status = ?, updated_at = ? WHERE id = ?
	`, locked, string(status), now(), id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteSession removes a session and everything it owns
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		// Instances reference materials without a cascade, so groups go first
		if _, err := tx.ExecContext(ctx, `DELETE FROM dancer_groups WHERE session_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return rowsAffectedOrNotFound(res)
	})
}

// IsSessionLocked reads the lock flag fresh from the store
func (r *Repository) IsSessionLocked(ctx context.Context, id string) (bool, error) {
	var locked bool
	err := r.db.QueryRowContext(ctx, `SELECT is_locked FROM sessions WHERE id = ?`, id).Scan(&locked)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	return locked, err
}

// ==================== Dancer Methods ====================

const dancerColumns = `id, session_id, dancer_number, name, grade, created_at`

func scanDancer(row interface{ Scan(...any) error }) (*models.Dancer, error) {
	var d models.Dancer
	var grade sql.NullInt64
	if err := row.Scan(&d.ID, &d.SessionID, &d.DancerNumber, &d.Name, &grade, &d.CreatedAt); err != nil {
		return nil, err
	}
	if grade.Valid {
		g := int(grade.Int64)
		d.Grade = &g
	}
	return &d, nil
}

// ListDancers returns a session's dancers ordered by number
func (r *Repository) ListDancers(ctx context.Context, sessionID string) ([]models.Dancer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dancerColumns+` FROM dancers WHERE session_id = ? ORDER BY dancer_number`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dancers := []models.Dancer{}
	for rows.Next() {
		d, err := scanDancer(rows)
		if err != nil {
			return nil, err
		}
		dancers = append(dancers, *d)
	}
	return dancers, rows.Err()
}

// GetDancer retrieves a dancer by ID
func (r *Repository) GetDancer(ctx context.Context, id string) (*models.Dancer, error) {
	d, err := scanDancer(r.db.QueryRowContext(ctx, `SELECT `+dancerColumns+` FROM dancers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

// CreateDancer inserts a dancer; a repeated number yields ErrDuplicate
func (r *Repository) CreateDancer(ctx context.Context, d *models.Dancer) error {
	d.ID = newID(d.ID)
	d.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dancers (id, session_id, dancer_number, name, grade, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ID, d.SessionID, d.DancerNumber, d.Name, d.Grade, d.CreatedAt)
	return mapError(err)
}

// CountScoresForDancer counts score rows referencing a dancer
func (r *Repository) CountScoresForDancer(ctx context.Context, dancerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores WHERE dancer_id = ?`, dancerID).Scan(&count)
	return count, err
}

// PurgeDancer deletes a dancer with its scores and prunes it from every
// group roster in the session
func (r *Repository) PurgeDancer(ctx context.Context, sessionID, dancerID string) (PurgeResult, error) {
	var result PurgeResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE dancer_id = ?`, dancerID)
		if err != nil {
			return err
		}
		result.ScoresDeleted, _ = res.RowsAffected()

		rows, err := tx.QueryContext(ctx, `SELECT id, dancer_ids FROM dancer_groups WHERE session_id = ?`, sessionID)
		if err != nil {
			return err
		}
		pruned := make(map[string][]string)
		for rows.Next() {
			var id, raw string
			if err := rows.Scan(&id, &raw); err != nil {
				rows.Close()
				return err
			}
			ids, err := decodeIDs(raw)
			if err != nil {
				rows.Close()
				return err
			}
			kept := removeID(ids, dancerID)
			if len(kept) != len(ids) {
				pruned[id] = kept
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for id, ids := range pruned {
			if _, err := tx.ExecContext(ctx, `UPDATE dancer_groups SET dancer_ids = ? WHERE id = ?`, encodeIDs(ids), id); err != nil {
				return err
			}
			result.GroupsUpdated++
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM dancers WHERE id = ? AND session_id = ?`, dancerID, sessionID)
		if err != nil {
			return err
		}
		return rowsAffectedOrNotFound(res)
	})
	return result, err
}

func removeID(ids []string, target string) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != target {
			kept = append(kept, id)
		}
	}
	return kept
}

func encodeIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

func decodeIDs(raw string) ([]string, error) {
	ids := []string{}
	if raw == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ==================== Material Methods ====================

// CreateMaterial inserts a material
func (r *Repository) CreateMaterial(ctx context.Context, m *models.Material) error {
	m.ID = newID(m.ID)
	m.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO materials (id, session_id, name, created_at) VALUES (?, ?, ?, ?)
	`, m.ID, m.SessionID, m.Name, m.CreatedAt)
	return mapError(err)
}

// GetMaterial retrieves a material by ID
func (r *Repository) GetMaterial(ctx context.Context, id string) (*models.Material, error) {
	var m models.Material
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, name, created_at FROM materials WHERE id = ?
	`, id).Scan(&m.ID, &m.SessionID, &m.Name, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMaterials returns a session's materials in creation order
func (r *Repository) ListMaterials(ctx context.Context, sessionID string) ([]models.Material, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, name, created_at FROM materials WHERE session_id = ? ORDER BY created_at, rowid
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := []models.Material{}
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Name, &m.CreatedAt); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// ==================== Judge Methods ====================

const judgeColumns = `id, session_id, name, judge_pin, is_admin_judge, is_active, created_at`

func scanJudge(row interface{ Scan(...any) error }) (*models.Judge, error) {
	var j models.Judge
	if err := row.Scan(&j.ID, &j.SessionID, &j.Name, &j.JudgePIN, &j.IsAdminJudge, &j.IsActive, &j.CreatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repository) queryJudge(ctx context.Context, where string, args ...any) (*models.Judge, error) {
	j, err := scanJudge(r.db.QueryRowContext(ctx, `SELECT `+judgeColumns+` FROM judges WHERE `+where, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return j, err
}

// ListJudges returns a session's judges in creation order
func (r *Repository) ListJudges(ctx context.Context, sessionID string) ([]models.Judge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+judgeColumns+` FROM judges WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	judges := []models.Judge{}
	for rows.Next() {
		j, err := scanJudge(rows)
		if err != nil {
			return nil, err
		}
		judges = append(judges, *j)
	}
	return judges, rows.Err()
}

// GetJudge retrieves a judge by ID
func (r *Repository) GetJudge(ctx context.Context, id string) (*models.Judge, error) {
	return r.queryJudge(ctx, `id = ?`, id)
}

// CreateJudge inserts a judge. A PIN already used in the session, or a second
// active admin-judge, yields ErrDuplicate.
func (r *Repository) CreateJudge(ctx context.Context, j *models.Judge) error {
	j.ID = newID(j.ID)
	j.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO judges (id, session_id, name, judge_pin, is_admin_judge, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.SessionID, j.Name, j.JudgePIN, j.IsAdminJudge, j.IsActive, j.CreatedAt)
	return mapError(err)
}

// GetActiveAdminJudge returns the session's active admin-judge
func (r *Repository) GetActiveAdminJudge(ctx context.Context, sessionID string) (*models.Judge, error) {
	return r.queryJudge(ctx, `session_id = ? AND is_admin_judge = 1 AND is_active = 1`, sessionID)
}

// FindActiveJudgeByPIN matches an active judge by PIN within a session
func (r *Repository) FindActiveJudgeByPIN(ctx context.Context, sessionID, pin string) (*models.Judge, error) {
	return r.queryJudge(ctx, `session_id = ? AND judge_pin = ? AND is_active = 1`, sessionID, pin)
}

// DeactivateJudge soft-deletes a judge
func (r *Repository) DeactivateJudge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE judges SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res)
}

// CountActiveJudges counts the session's currently active judges
func (r *Repository) CountActiveJudges(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM judges WHERE session_id = ? AND is_active = 1`, sessionID).Scan(&count)
	return count, err
}

// ==================== Audit Methods ====================

// LogAdminAction appends an audit entry
func (r *Repository) LogAdminAction(ctx context.Context, sessionID, actionType string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	var sid any
	if sessionID != "" {
		sid = sessionID
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO admin_actions (session_id, action_type, details, created_at) VALUES (?, ?, ?, ?)
	`, sid, actionType, string(raw), now())
	return err
}

// ListAdminActions returns a session's audit entries, newest first.
// A non-positive limit returns every entry.
func (r *Repository) ListAdminActions(ctx context.Context, sessionID string, limit int) ([]models.AdminAction, error) {
	query := `SELECT id, session_id, action_type, details, created_at FROM admin_actions
		WHERE session_id = ? ORDER BY id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := []models.AdminAction{}
	for rows.Next() {
		var a models.AdminAction
		var sid sql.NullString
		var raw string
		if err := rows.Scan(&a.ID, &sid, &a.ActionType, &raw, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.SessionID = sid.String
		if err := json.Unmarshal([]byte(raw), &a.Details); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/joshuadwray/audition-scoring/internal/models"
)

// ==================== Group Methods ====================

const groupColumns = `id, session_id, group_number, template_id, material_id, dancer_ids,
	status, pushed_at, completed_at, is_archived, created_at`

// scanGroup reads a dancer_groups row into its variant. A null material
// marks a template.
func scanGroup(row interface{ Scan(...any) error }) (models.DancerGroup, error) {
	var (
		id, sessionID, rawIDs  string
		groupNumber            int
		templateID, materialID sql.NullString
		status                 sql.NullString
		pushedAt, completedAt  sql.NullTime
		isArchived             bool
		createdAt              time.Time
	)
	if err := row.Scan(&id, &sessionID, &groupNumber, &templateID, &materialID, &rawIDs,
		&status, &pushedAt, &completedAt, &isArchived, &createdAt); err != nil {
		return nil, err
	}
	dancerIDs, err := decodeIDs(rawIDs)
	if err != nil {
		return nil, err
	}

	if !materialID.Valid {
		return &models.Template{
			ID:          id,
			SessionID:   sessionID,
			GroupNumber: groupNumber,
			DancerIDs:   dancerIDs,
			IsArchived:  isArchived,
			CreatedAt:   createdAt,
		}, nil
	}

	inst := &models.Instance{
		ID:         id,
		SessionID:  sessionID,
		Template:   models.TemplateRef{ID: templateID.String, GroupNumber: groupNumber},
		MaterialID: materialID.String,
		DancerIDs:  dancerIDs,
		Status:     models.GroupStatus(status.String),
		IsArchived: isArchived,
		CreatedAt:  createdAt,
	}
	if pushedAt.Valid {
		t := pushedAt.Time
		inst.PushedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		inst.CompletedAt = &t
	}
	return inst, nil
}

// CreateTemplate inserts a template; a group number already used by another
// template in the session yields ErrDuplicate
func (r *Repository) CreateTemplate(ctx context.Context, t *models.Template) error {
	t.ID = newID(t.ID)
	t.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dancer_groups (id, session_id, group_number, dancer_ids, is_archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.SessionID, t.GroupNumber, encodeIDs(t.DancerIDs), t.IsArchived, t.CreatedAt)
	return mapError(err)
}

// NextGroupNumber returns one more than the highest template number in the session
func (r *Repository) NextGroupNumber(ctx context.Context, sessionID string) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(group_number) FROM dancer_groups WHERE session_id = ? AND material_id IS NULL
	`, sessionID).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

// CreateInstance inserts a pushed instance
func (r *Repository) CreateInstance(ctx context.Context, inst *models.Instance) error {
	inst.ID = newID(inst.ID)
	inst.CreatedAt = now()
	if inst.Status == "" {
		inst.Status = models.GroupActive
	}

	var templateID any
	if inst.Template.ID != "" {
		templateID = inst.Template.ID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dancer_groups (id, session_id, group_number, template_id, material_id, dancer_ids,
			status, pushed_at, completed_at, is_archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inst.ID, inst.SessionID, inst.Template.GroupNumber, templateID, inst.MaterialID,
		encodeIDs(inst.DancerIDs), string(inst.Status), inst.PushedAt, inst.CompletedAt,
		inst.IsArchived, inst.CreatedAt)
	return mapError(err)
}

// GetGroup retrieves a template or instance by ID
func (r *Repository) GetGroup(ctx context.Context, id string) (models.DancerGroup, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM dancer_groups WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return g, err
}

// ListGroups returns groups matching f ordered by group number then push order
func (r *Repository) ListGroups(ctx context.Context, f models.GroupFilter) ([]models.DancerGroup, error) {
	where := []string{"session_id = ?"}
	args := []any{f.SessionID}

	switch f.Kind {
	case models.KindTemplate:
		where = append(where, "material_id IS NULL")
	case models.KindInstance:
		where = append(where, "material_id IS NOT NULL")
	}
	if f.MaterialID != "" {
		where = append(where, "material_id = ?")
		args = append(args, f.MaterialID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.GroupNumber > 0 {
		where = append(where, "group_number = ?")
		args = append(args, f.GroupNumber)
	}
	if !f.IncludeArchived {
		where = append(where, "is_archived = 0")
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+groupColumns+` FROM dancer_groups
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY group_number, created_at, rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []models.DancerGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// LatestActiveInstance returns the most recently pushed active, unarchived instance
func (r *Repository) LatestActiveInstance(ctx context.Context, sessionID string) (*models.Instance, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM dancer_groups
		WHERE session_id = ? AND material_id IS NOT NULL AND status = 'active' AND is_archived = 0
		ORDER BY pushed_at DESC, rowid DESC LIMIT 1`, sessionID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return g.(*models.Instance), nil
}

// ActivateInstance moves a queued instance to active. It reports false when
// the instance was not queued.
func (r *Repository) ActivateInstance(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dancer_groups SET status = 'active', pushed_at = ? WHERE id = ? AND status = 'queued'
	`, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CompleteInstance moves an active instance to completed. It reports false
// when the instance was not active.
func (r *Repository) CompleteInstance(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dancer_groups SET status = 'completed', completed_at = ? WHERE id = ? AND status = 'active'
	`, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RetractInstance marks an instance retracted and optionally removes its
// scores and submissions. It returns the number of scores deleted.
func (r *Repository) RetractInstance(ctx context.Context, id string, deleteScores bool) (int64, error) {
	var deleted int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE dancer_groups SET status = 'retracted' WHERE id = ? AND material_id IS NOT NULL
		`, id)
		if err != nil {
			return err
		}
		if err := rowsAffectedOrNotFound(res); err != nil {
			return err
		}
		if !deleteScores {
			return nil
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM scores WHERE group_id = ?`, id)
		if err != nil {
			return err
		}
		deleted, _ = res.RowsAffected()
		_, err = tx.ExecContext(ctx, `DELETE FROM score_submissions WHERE group_id = ?`, id)
		return err
	})
	return deleted, err
}

// ArchiveGroupFamily archives a template and every instance sharing its number
func (r *Repository) ArchiveGroupFamily(ctx context.Context, sessionID string, groupNumber int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dancer_groups SET is_archived = 1 WHERE session_id = ? AND group_number = ?
	`, sessionID, groupNumber)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Score Methods ====================

const scoreColumns = `s.id, s.group_id, s.judge_id, s.dancer_id,
	s.technique, s.musicality, s.expression, s.timing, s.presentation, s.submitted_at, s.updated_at`

func scanScore(row interface{ Scan(...any) error }) (*models.Score, error) {
	var s models.Score
	var values [5]sql.NullFloat64
	if err := row.Scan(&s.ID, &s.GroupID, &s.JudgeID, &s.DancerID,
		&values[0], &values[1], &values[2], &values[3], &values[4], &s.SubmittedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	for i, c := range models.Categories {
		if values[i].Valid {
			s.Set(c, models.Float(values[i].Float64))
		}
	}
	return &s, nil
}

// SubmitScores records a submission and its score rows atomically. A second
// submission for the same group and judge yields ErrDuplicate and writes nothing.
func (r *Repository) SubmitScores(ctx context.Context, sub *models.ScoreSubmission, scores []models.Score) error {
	sub.ID = newID(sub.ID)
	sub.SubmittedAt = now()
	sub.ScoreCount = len(scores)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO score_submissions (id, group_id, judge_id, score_count, submitted_at)
			VALUES (?, ?, ?, ?, ?)
		`, sub.ID, sub.GroupID, sub.JudgeID, sub.ScoreCount, sub.SubmittedAt); err != nil {
			return mapError(err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO scores (id, group_id, judge_id, dancer_id,
				technique, musicality, expression, timing, presentation, submitted_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range scores {
			s := &scores[i]
			s.ID = newID(s.ID)
			s.GroupID = sub.GroupID
			s.JudgeID = sub.JudgeID
			s.SubmittedAt = sub.SubmittedAt
			s.UpdatedAt = sub.SubmittedAt
			if _, err := stmt.ExecContext(ctx, s.ID, s.GroupID, s.JudgeID, s.DancerID,
				s.Technique, s.Musicality, s.Expression, s.Timing, s.Presentation,
				s.SubmittedAt, s.UpdatedAt); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetScore retrieves a score by ID
func (r *Repository) GetScore(ctx context.Context, id string) (*models.Score, error) {
	s, err := scanScore(r.db.QueryRowContext(ctx, `SELECT `+scoreColumns+` FROM scores s WHERE s.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// ListScores returns scores matching f in submission order
func (r *Repository) ListScores(ctx context.Context, f models.ScoreFilter) ([]models.Score, error) {
	var where []string
	var args []any
	add := func(clause, value string) {
		if value != "" {
			where = append(where, clause)
			args = append(args, value)
		}
	}
	add("g.session_id = ?", f.SessionID)
	add("s.group_id = ?", f.GroupID)
	add("s.judge_id = ?", f.JudgeID)
	add("s.dancer_id = ?", f.DancerID)
	add("g.material_id = ?", f.MaterialID)

	query := `SELECT ` + scoreColumns + ` FROM scores s JOIN dancer_groups g ON g.id = s.group_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY s.submitted_at, s.rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := []models.Score{}
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *s)
	}
	return scores, rows.Err()
}

// UpdateScore overwrites a score's category values
func (r *Repository) UpdateScore(ctx context.Context, id string, values models.ScoreValues, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scores SET technique = ?, musicality = ?, expression = ?, timing = ?, presentation = ?, updated_at = ?
		WHERE id = ?
	`, values.Technique, values.Musicality, values.Expression, values.Timing, values.Presentation, at, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res)
}

// ==================== Submission Methods ====================

// HasSubmission reports whether a judge has submitted for a group
func (r *Repository) HasSubmission(ctx context.Context, groupID, judgeID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM score_submissions WHERE group_id = ? AND judge_id = ?
	`, groupID, judgeID).Scan(&count)
	return count > 0, err
}

// CountSubmittedJudges counts currently active judges who have submitted for a group
func (r *Repository) CountSubmittedJudges(ctx context.Context, groupID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT ss.judge_id)
		FROM score_submissions ss
		JOIN judges j ON j.id = ss.judge_id
		WHERE ss.group_id = ? AND j.is_active = 1
	`, groupID).Scan(&count)
	return count, err
}

// ListSubmissions returns a session's submissions with judge names,
// optionally narrowed to one group
func (r *Repository) ListSubmissions(ctx context.Context, sessionID, groupID string) ([]models.ScoreSubmission, error) {
	query := `
		SELECT ss.id, ss.group_id, ss.judge_id, j.name, ss.score_count, ss.submitted_at
		FROM score_submissions ss
		JOIN dancer_groups g ON g.id = ss.group_id
		JOIN judges j ON j.id = ss.judge_id
		WHERE g.session_id = ?`
	args := []any{sessionID}
	if groupID != "" {
		query += ` AND ss.group_id = ?`
		args = append(args, groupID)
	}
	query += ` ORDER BY ss.submitted_at, ss.rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []models.ScoreSubmission{}
	for rows.Next() {
		var s models.ScoreSubmission
		if err := rows.Scan(&s.ID, &s.GroupID, &s.JudgeID, &s.JudgeName, &s.ScoreCount, &s.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/placementhub/placement-api/internal/models"
)

// TrainingRepository manages persistence for training sessions and attendance.
type TrainingRepository struct {
	db *sqlx.DB
}

// NewTrainingRepository constructs a TrainingRepository.
func NewTrainingRepository(db *sqlx.DB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

const sessionColumns = `id, title, description, topic, trainer_id, venue, start_time, end_time, capacity, status, target_departments, created_at, updated_at`

// CreateSession inserts a new training session.
func (r *TrainingRepository) CreateSession(ctx context.Context, session *models.TrainingSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = models.SessionStatusScheduled
	}
	const query = `INSERT INTO training_sessions (id, title, description, topic, trainer_id, venue, start_time, end_time, capacity, status, target_departments, created_at, updated_at)
        VALUES (:id, :title, :description, :topic, :trainer_id, :venue, :start_time, :end_time, :capacity, :status, :target_departments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindSession fetches a session by ID.
func (r *TrainingRepository) FindSession(ctx context.Context, id string) (*models.TrainingSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_sessions WHERE id = $1 LIMIT 1`, sessionColumns)
	var session models.TrainingSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// ListSessions returns sessions matching the provided filters.
func (r *TrainingRepository) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.TrainingSession, int, error) {
	baseQuery := `FROM training_sessions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.TrainerID != "" {
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", len(args)+1))
		args = append(args, filter.TrainerID)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY start_time DESC LIMIT %d OFFSET %d", sessionColumns, baseQuery, pageSize, offset)

	var sessions []models.TrainingSession
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

// UpdateSessionStatus transitions a session's lifecycle state.
func (r *TrainingRepository) UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus) error {
	const query = `UPDATE training_sessions SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// UpsertAttendance records attendance marks, replacing earlier marks for
// the same student and session.
func (r *TrainingRepository) UpsertAttendance(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	const query = `INSERT INTO attendance_records (id, session_id, student_id, status, marked_by, marked_at)
        VALUES (:id, :session_id, :student_id, :status, :marked_by, :marked_at)
        ON CONFLICT (session_id, student_id) DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at`
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.MarkedAt.IsZero() {
			rec.MarkedAt = time.Now().UTC()
		}
		if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}
	}
	return nil
}

// AttendanceBySession lists attendance marks for a session.
func (r *TrainingRepository) AttendanceBySession(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, session_id, student_id, status, marked_by, marked_at FROM attendance_records WHERE session_id = $1 ORDER BY marked_at`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("attendance by session: %w", err)
	}
	return records, nil
}

// AttendanceSummary aggregates a student's attendance across completed
// sessions. Excused absences do not count against the rate.
func (r *TrainingRepository) AttendanceSummary(ctx context.Context, studentID string) (*models.AttendanceSummary, error) {
	const query = `SELECT
        $1::uuid AS student_id,
        COUNT(*) AS total_sessions,
        COUNT(*) FILTER (WHERE status = 'present') AS present,
        COUNT(*) FILTER (WHERE status = 'absent') AS absent,
        COUNT(*) FILTER (WHERE status = 'excused') AS excused,
        CASE WHEN COUNT(*) FILTER (WHERE status <> 'excused') = 0 THEN 0
            ELSE COUNT(*) FILTER (WHERE status = 'present') * 100.0 / COUNT(*) FILTER (WHERE status <> 'excused')
        END AS attendance_rate
        FROM attendance_records WHERE student_id = $1`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, studentID); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return &summary, nil
}

// CountSessionsBetween counts sessions starting in a time window.
func (r *TrainingRepository) CountSessionsBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM training_sessions WHERE start_time >= $1 AND start_time < $2 AND status <> 'cancelled'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, from, to); err != nil {
		return 0, fmt.Errorf("count sessions between: %w", err)
	}
	return count, nil
}

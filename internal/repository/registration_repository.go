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

// RegistrationRepository manages persistence for drive registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, drive_id, position_id, student_id, status, resume_id, current_round, remarks, registered_at, updated_at`

// Create inserts a new registration.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.DriveRegistration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = now
	}
	reg.UpdatedAt = now
	if reg.Status == "" {
		reg.Status = models.RegistrationStatusRegistered
	}
	const query = `INSERT INTO drive_registrations (id, drive_id, position_id, student_id, status, resume_id, current_round, remarks, registered_at, updated_at)
        VALUES (:id, :drive_id, :position_id, :student_id, :status, :resume_id, :current_round, :remarks, :registered_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// FindByID fetches a registration by ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.DriveRegistration, error) {
	query := fmt.Sprintf(`SELECT %s FROM drive_registrations WHERE id = $1 LIMIT 1`, registrationColumns)
	var reg models.DriveRegistration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// Exists reports whether a student already registered for a drive.
func (r *RegistrationRepository) Exists(ctx context.Context, driveID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM drive_registrations WHERE drive_id = $1 AND student_id = $2 AND status <> $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, driveID, studentID, models.RegistrationStatusWithdrawn); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// List returns registrations matching the provided filters.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.DriveRegistration, int, error) {
	baseQuery := `FROM drive_registrations WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.DriveID != "" {
		conditions = append(conditions, fmt.Sprintf("drive_id = $%d", len(args)+1))
		args = append(args, filter.DriveID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("student_id IN (SELECT user_id FROM student_profiles WHERE personal_info->>'department' = $%d)", len(args)+1))
		args = append(args, filter.Department)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY registered_at DESC LIMIT %d OFFSET %d", registrationColumns, baseQuery, pageSize, offset)

	var regs []models.DriveRegistration
	if err := r.db.SelectContext(ctx, &regs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return regs, total, nil
}

// UpdateStatus advances a registration through the pipeline.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, currentRound *int, remarks string) error {
	query := `UPDATE drive_registrations SET status = $2, remarks = $3, updated_at = $4`
	args := []interface{}{id, status, remarks, time.Now().UTC()}
	if currentRound != nil {
		query += fmt.Sprintf(", current_round = $%d", len(args)+1)
		args = append(args, *currentRound)
	}
	query += " WHERE id = $1"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}

// Summary aggregates registration outcomes for a drive.
func (r *RegistrationRepository) Summary(ctx context.Context, driveID string) (*models.RegistrationSummary, error) {
	const query = `SELECT
        $1::uuid AS drive_id,
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'shortlisted') AS shortlisted,
        COUNT(*) FILTER (WHERE status = 'selected') AS selected,
        COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
        COUNT(*) FILTER (WHERE status = 'withdrawn') AS withdrawn
        FROM drive_registrations WHERE drive_id = $1`
	var summary models.RegistrationSummary
	if err := r.db.GetContext(ctx, &summary, query, driveID); err != nil {
		return nil, fmt.Errorf("registration summary: %w", err)
	}
	return &summary, nil
}

// CountSelectedStudents counts distinct students with a selected outcome.
func (r *RegistrationRepository) CountSelectedStudents(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT student_id) FROM drive_registrations WHERE status = 'selected'`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count selected students: %w", err)
	}
	return count, nil
}

// CountByStudent counts active registrations for a student.
func (r *RegistrationRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM drive_registrations WHERE student_id = $1 AND status <> 'withdrawn'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("count student registrations: %w", err)
	}
	return count, nil
}

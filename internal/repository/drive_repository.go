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

// DriveRepository manages persistence for company drives and their positions.
type DriveRepository struct {
	db *sqlx.DB
}

// NewDriveRepository constructs a DriveRepository.
func NewDriveRepository(db *sqlx.DB) *DriveRepository {
	return &DriveRepository{db: db}
}

const driveColumns = `id, company_name, company_logo_url, description, status, mode, venue, drive_date, registration_open, registration_end, eligibility_rule_id, rounds, contact_email, created_by, created_at, updated_at`

// Create inserts a drive together with its positions in one transaction.
func (r *DriveRepository) Create(ctx context.Context, drive *models.CompanyDrive) error {
	if drive.ID == "" {
		drive.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if drive.CreatedAt.IsZero() {
		drive.CreatedAt = now
	}
	drive.UpdatedAt = now
	if drive.Status == "" {
		drive.Status = models.DriveStatusUpcoming
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create drive: %w", err)
	}
	defer tx.Rollback()

	const driveQuery = `INSERT INTO company_drives (id, company_name, company_logo_url, description, status, mode, venue, drive_date, registration_open, registration_end, eligibility_rule_id, rounds, contact_email, created_by, created_at, updated_at)
        VALUES (:id, :company_name, :company_logo_url, :description, :status, :mode, :venue, :drive_date, :registration_open, :registration_end, :eligibility_rule_id, :rounds, :contact_email, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, driveQuery, drive); err != nil {
		return fmt.Errorf("create drive: %w", err)
	}

	const posQuery = `INSERT INTO drive_positions (id, drive_id, title, package_lpa, location, positions_available, registered, skills_required, created_at)
        VALUES (:id, :drive_id, :title, :package_lpa, :location, :positions_available, :registered, :skills_required, :created_at)`
	for i := range drive.Positions {
		pos := &drive.Positions[i]
		if pos.ID == "" {
			pos.ID = uuid.NewString()
		}
		pos.DriveID = drive.ID
		if pos.CreatedAt.IsZero() {
			pos.CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, posQuery, pos); err != nil {
			return fmt.Errorf("create drive position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create drive: %w", err)
	}
	return nil
}

// FindByID fetches a drive with its positions.
func (r *DriveRepository) FindByID(ctx context.Context, id string) (*models.CompanyDrive, error) {
	query := fmt.Sprintf(`SELECT %s FROM company_drives WHERE id = $1 LIMIT 1`, driveColumns)
	var drive models.CompanyDrive
	if err := r.db.GetContext(ctx, &drive, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find drive: %w", err)
	}

	positions, err := r.PositionsByDrive(ctx, id)
	if err != nil {
		return nil, err
	}
	drive.Positions = positions
	return &drive, nil
}

// PositionsByDrive lists all positions offered by a drive.
func (r *DriveRepository) PositionsByDrive(ctx context.Context, driveID string) ([]models.DrivePosition, error) {
	const query = `SELECT id, drive_id, title, package_lpa, location, positions_available, registered, skills_required, created_at FROM drive_positions WHERE drive_id = $1 ORDER BY created_at`
	var positions []models.DrivePosition
	if err := r.db.SelectContext(ctx, &positions, query, driveID); err != nil {
		return nil, fmt.Errorf("list drive positions: %w", err)
	}
	return positions, nil
}

// FindPosition fetches a single position by ID.
func (r *DriveRepository) FindPosition(ctx context.Context, id string) (*models.DrivePosition, error) {
	const query = `SELECT id, drive_id, title, package_lpa, location, positions_available, registered, skills_required, created_at FROM drive_positions WHERE id = $1 LIMIT 1`
	var pos models.DrivePosition
	if err := r.db.GetContext(ctx, &pos, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find position: %w", err)
	}
	return &pos, nil
}

// List returns drives matching the provided filters.
func (r *DriveRepository) List(ctx context.Context, filter models.DriveFilter) ([]models.CompanyDrive, int, error) {
	baseQuery := `FROM company_drives WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Mode != "" {
		conditions = append(conditions, fmt.Sprintf("mode = $%d", len(args)+1))
		args = append(args, filter.Mode)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(company_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("drive_date >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("drive_date <= $%d", len(args)+1))
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY drive_date DESC LIMIT %d OFFSET %d", driveColumns, baseQuery, pageSize, offset)

	var drives []models.CompanyDrive
	if err := r.db.SelectContext(ctx, &drives, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list drives: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count drives: %w", err)
	}
	return drives, total, nil
}

// Update modifies an existing drive.
func (r *DriveRepository) Update(ctx context.Context, drive *models.CompanyDrive) error {
	drive.UpdatedAt = time.Now().UTC()
	const query = `UPDATE company_drives SET description = :description, status = :status, venue = :venue, drive_date = :drive_date, registration_open = :registration_open, registration_end = :registration_end, eligibility_rule_id = :eligibility_rule_id, rounds = :rounds, contact_email = :contact_email, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, drive); err != nil {
		return fmt.Errorf("update drive: %w", err)
	}
	return nil
}

// UpdateStatus transitions a drive's lifecycle state.
func (r *DriveRepository) UpdateStatus(ctx context.Context, id string, status models.DriveStatus) error {
	const query = `UPDATE company_drives SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update drive status: %w", err)
	}
	return nil
}

// IncrementRegistered bumps a position's registration counter, but only
// while seats remain. Returns false when the position is already full so
// the caller can reject the registration without a race.
func (r *DriveRepository) IncrementRegistered(ctx context.Context, positionID string) (bool, error) {
	const query = `UPDATE drive_positions SET registered = registered + 1 WHERE id = $1 AND registered < positions_available`
	res, err := r.db.ExecContext(ctx, query, positionID)
	if err != nil {
		return false, fmt.Errorf("increment registered: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment registered rows: %w", err)
	}
	return affected == 1, nil
}

// DecrementRegistered releases a seat when a registration is withdrawn.
func (r *DriveRepository) DecrementRegistered(ctx context.Context, positionID string) error {
	const query = `UPDATE drive_positions SET registered = registered - 1 WHERE id = $1 AND registered > 0`
	if _, err := r.db.ExecContext(ctx, query, positionID); err != nil {
		return fmt.Errorf("decrement registered: %w", err)
	}
	return nil
}

// CountByStatus groups drives by lifecycle state.
func (r *DriveRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM company_drives GROUP BY status`
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count drives by status: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

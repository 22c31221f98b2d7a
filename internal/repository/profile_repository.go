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

// ProfileRepository manages persistence for student profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, user_id, personal_info, academic_info, skills, experience, achievements, resumes, social_links, visibility, completeness_score, created_at, updated_at`

// FindByUserID fetches the profile belonging to a user account.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles WHERE user_id = $1 LIMIT 1`, profileColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by user: %w", err)
	}
	return &profile, nil
}

// FindByID fetches a profile by its own identifier.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles WHERE id = $1 LIMIT 1`, profileColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// Create inserts a new student profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if profile.Visibility == "" {
		profile.Visibility = models.ProfileVisibilityPrivate
	}
	const query = `INSERT INTO student_profiles (id, user_id, personal_info, academic_info, skills, experience, achievements, resumes, social_links, visibility, completeness_score, created_at, updated_at)
        VALUES (:id, :user_id, :personal_info, :academic_info, :skills, :experience, :achievements, :resumes, :social_links, :visibility, :completeness_score, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Update replaces the mutable sections of a profile.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.StudentProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_profiles SET personal_info = :personal_info, academic_info = :academic_info, skills = :skills, experience = :experience, achievements = :achievements, resumes = :resumes, social_links = :social_links, visibility = :visibility, completeness_score = :completeness_score, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// List returns profiles matching the provided filters. Department, batch,
// and CGPA filters reach into the JSONB sections.
func (r *ProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfile, int, error) {
	baseQuery := `FROM student_profiles WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("personal_info->>'department' = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("personal_info->>'batch' = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.MinCGPA != nil {
		conditions = append(conditions, fmt.Sprintf("(academic_info->>'cgpa')::numeric >= $%d", len(args)+1))
		args = append(args, *filter.MinCGPA)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(personal_info->>'name') LIKE $%d OR LOWER(personal_info->>'roll_number') LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY updated_at DESC LIMIT %d OFFSET %d", profileColumns, baseQuery, pageSize, offset)

	var profiles []models.StudentProfile
	if err := r.db.SelectContext(ctx, &profiles, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}
	return profiles, total, nil
}

// UpdateCompleteness stores a recomputed completeness score.
func (r *ProfileRepository) UpdateCompleteness(ctx context.Context, id string, score int) error {
	const query = `UPDATE student_profiles SET completeness_score = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, score, time.Now().UTC()); err != nil {
		return fmt.Errorf("update completeness: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/placementhub/placement-api/internal/models"
)

// ResumeRepository manages persistence for builder resumes and templates.
type ResumeRepository struct {
	db *sqlx.DB
}

// NewResumeRepository constructs a ResumeRepository.
func NewResumeRepository(db *sqlx.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

const resumeColumns = `id, student_id, title, template_id, content, ats_score, ats_analysis, is_default, created_at, updated_at`

// Create inserts a new resume.
func (r *ResumeRepository) Create(ctx context.Context, resume *models.Resume) error {
	if resume.ID == "" {
		resume.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if resume.CreatedAt.IsZero() {
		resume.CreatedAt = now
	}
	resume.UpdatedAt = now
	const query = `INSERT INTO resumes (id, student_id, title, template_id, content, ats_score, ats_analysis, is_default, created_at, updated_at)
        VALUES (:id, :student_id, :title, :template_id, :content, :ats_score, :ats_analysis, :is_default, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resume); err != nil {
		return fmt.Errorf("create resume: %w", err)
	}
	return nil
}

// FindByID fetches a resume by ID.
func (r *ResumeRepository) FindByID(ctx context.Context, id string) (*models.Resume, error) {
	query := fmt.Sprintf(`SELECT %s FROM resumes WHERE id = $1 LIMIT 1`, resumeColumns)
	var resume models.Resume
	if err := r.db.GetContext(ctx, &resume, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find resume: %w", err)
	}
	return &resume, nil
}

// ListByStudent returns all resumes owned by a student.
func (r *ResumeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Resume, error) {
	query := fmt.Sprintf(`SELECT %s FROM resumes WHERE student_id = $1 ORDER BY updated_at DESC`, resumeColumns)
	var resumes []models.Resume
	if err := r.db.SelectContext(ctx, &resumes, query, studentID); err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return resumes, nil
}

// Update replaces a resume's content and analysis.
func (r *ResumeRepository) Update(ctx context.Context, resume *models.Resume) error {
	resume.UpdatedAt = time.Now().UTC()
	const query = `UPDATE resumes SET title = :title, template_id = :template_id, content = :content, ats_score = :ats_score, ats_analysis = :ats_analysis, is_default = :is_default, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, resume); err != nil {
		return fmt.Errorf("update resume: %w", err)
	}
	return nil
}

// Delete removes a resume.
func (r *ResumeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM resumes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	return nil
}

// ClearDefault unsets the default flag on all of a student's resumes.
// Called before marking a different resume as default.
func (r *ResumeRepository) ClearDefault(ctx context.Context, studentID string) error {
	const query = `UPDATE resumes SET is_default = FALSE, updated_at = $2 WHERE student_id = $1 AND is_default = TRUE`
	if _, err := r.db.ExecContext(ctx, query, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear default resume: %w", err)
	}
	return nil
}

// DefaultATSScore returns the ATS score of a student's default resume,
// or the best score across resumes when none is marked default.
func (r *ResumeRepository) DefaultATSScore(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COALESCE(
        (SELECT ats_score FROM resumes WHERE student_id = $1 AND is_default = TRUE LIMIT 1),
        (SELECT MAX(ats_score) FROM resumes WHERE student_id = $1),
        0)`
	var score int
	if err := r.db.GetContext(ctx, &score, query, studentID); err != nil {
		return 0, fmt.Errorf("default ats score: %w", err)
	}
	return score, nil
}

// CountScored counts resumes that have been through ATS analysis.
func (r *ResumeRepository) CountScored(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM resumes WHERE ats_score > 0`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count scored resumes: %w", err)
	}
	return count, nil
}

// AverageATSScore returns the mean ATS score across scored resumes.
func (r *ResumeRepository) AverageATSScore(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(AVG(ats_score), 0) FROM resumes WHERE ats_score > 0`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		return 0, fmt.Errorf("average ats score: %w", err)
	}
	return avg, nil
}

// ListTemplates returns the selectable resume templates.
func (r *ResumeRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]models.ResumeTemplate, error) {
	query := `SELECT id, name, description, preview_url, active, created_at FROM resume_templates`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`
	var templates []models.ResumeTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list resume templates: %w", err)
	}
	return templates, nil
}

// FindTemplate fetches one template by ID.
func (r *ResumeRepository) FindTemplate(ctx context.Context, id string) (*models.ResumeTemplate, error) {
	const query = `SELECT id, name, description, preview_url, active, created_at FROM resume_templates WHERE id = $1 LIMIT 1`
	var tpl models.ResumeTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find resume template: %w", err)
	}
	return &tpl, nil
}

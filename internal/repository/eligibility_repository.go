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

// EligibilityRepository manages persistence for eligibility rules,
// evaluation results, and overrides.
type EligibilityRepository struct {
	db *sqlx.DB
}

// NewEligibilityRepository constructs an EligibilityRepository.
func NewEligibilityRepository(db *sqlx.DB) *EligibilityRepository {
	return &EligibilityRepository{db: db}
}

// CreateRule inserts a new eligibility rule.
func (r *EligibilityRepository) CreateRule(ctx context.Context, rule *models.EligibilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	const query = `INSERT INTO eligibility_rules (id, name, description, criteria, drive_id, priority, created_by, active, created_at, updated_at)
        VALUES (:id, :name, :description, :criteria, :drive_id, :priority, :created_by, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create eligibility rule: %w", err)
	}
	return nil
}

// FindRule fetches a rule by ID.
func (r *EligibilityRepository) FindRule(ctx context.Context, id string) (*models.EligibilityRule, error) {
	const query = `SELECT id, name, description, criteria, drive_id, priority, created_by, active, created_at, updated_at FROM eligibility_rules WHERE id = $1 LIMIT 1`
	var rule models.EligibilityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find eligibility rule: %w", err)
	}
	return &rule, nil
}

// ListRules returns all rules, optionally only active ones.
func (r *EligibilityRepository) ListRules(ctx context.Context, activeOnly bool) ([]models.EligibilityRule, error) {
	query := `SELECT id, name, description, criteria, drive_id, priority, created_by, active, created_at, updated_at FROM eligibility_rules`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY priority DESC, created_at DESC`
	var rules []models.EligibilityRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list eligibility rules: %w", err)
	}
	return rules, nil
}

// UpdateRule modifies an existing rule.
func (r *EligibilityRepository) UpdateRule(ctx context.Context, rule *models.EligibilityRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE eligibility_rules SET name = :name, description = :description, criteria = :criteria, drive_id = :drive_id, priority = :priority, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update eligibility rule: %w", err)
	}
	return nil
}

// FindApplicable picks the rule governing a drive: the highest-priority
// active rule scoped to that drive or global.
func (r *EligibilityRepository) FindApplicable(ctx context.Context, driveID string) (*models.EligibilityRule, error) {
	const query = `SELECT id, name, description, criteria, drive_id, priority, created_by, active, created_at, updated_at
        FROM eligibility_rules
        WHERE active = TRUE AND (drive_id = $1 OR drive_id IS NULL)
        ORDER BY priority DESC, created_at DESC LIMIT 1`
	var rule models.EligibilityRule
	if err := r.db.GetContext(ctx, &rule, query, driveID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find applicable eligibility rule: %w", err)
	}
	return &rule, nil
}

// SaveResult persists an evaluation result.
func (r *EligibilityRepository) SaveResult(ctx context.Context, result *models.EligibilityResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.EvaluatedAt.IsZero() {
		result.EvaluatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO eligibility_results (id, student_id, rule_id, drive_id, eligible, score, checks, explanation, recommendations, overridden, evaluated_at)
        VALUES (:id, :student_id, :rule_id, :drive_id, :eligible, :score, :checks, :explanation, :recommendations, :overridden, :evaluated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("save eligibility result: %w", err)
	}
	return nil
}

// LatestResult fetches the most recent evaluation of a student against a rule.
func (r *EligibilityRepository) LatestResult(ctx context.Context, studentID, ruleID string) (*models.EligibilityResult, error) {
	const query = `SELECT id, student_id, rule_id, drive_id, eligible, score, checks, explanation, recommendations, overridden, evaluated_at
        FROM eligibility_results WHERE student_id = $1 AND rule_id = $2 ORDER BY evaluated_at DESC LIMIT 1`
	var result models.EligibilityResult
	if err := r.db.GetContext(ctx, &result, query, studentID, ruleID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("latest eligibility result: %w", err)
	}
	return &result, nil
}

// ResultsByStudent lists a student's evaluation history.
func (r *EligibilityRepository) ResultsByStudent(ctx context.Context, studentID string) ([]models.EligibilityResult, error) {
	const query = `SELECT id, student_id, rule_id, drive_id, eligible, score, checks, explanation, recommendations, overridden, evaluated_at
        FROM eligibility_results WHERE student_id = $1 ORDER BY evaluated_at DESC`
	var results []models.EligibilityResult
	if err := r.db.SelectContext(ctx, &results, query, studentID); err != nil {
		return nil, fmt.Errorf("results by student: %w", err)
	}
	return results, nil
}

// CreateOverride records a manual eligibility override.
func (r *EligibilityRepository) CreateOverride(ctx context.Context, override *models.EligibilityOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	if override.CreatedAt.IsZero() {
		override.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO eligibility_overrides (id, result_id, student_id, drive_id, reason, granted_by, created_at)
        VALUES (:id, :result_id, :student_id, :drive_id, :reason, :granted_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, override); err != nil {
		return fmt.Errorf("create eligibility override: %w", err)
	}
	return nil
}

// FindOverride returns an override for a student and drive, if any.
func (r *EligibilityRepository) FindOverride(ctx context.Context, studentID, driveID string) (*models.EligibilityOverride, error) {
	const query = `SELECT id, result_id, student_id, drive_id, reason, granted_by, created_at
        FROM eligibility_overrides WHERE student_id = $1 AND drive_id = $2 LIMIT 1`
	var override models.EligibilityOverride
	if err := r.db.GetContext(ctx, &override, query, studentID, driveID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find eligibility override: %w", err)
	}
	return &override, nil
}

// Stats aggregates evaluation outcomes for a rule.
func (r *EligibilityRepository) Stats(ctx context.Context, ruleID string) (*models.EligibilityStats, error) {
	const query = `SELECT
        $1::uuid AS rule_id,
        COUNT(*) AS total_checked,
        COUNT(*) FILTER (WHERE eligible) AS eligible_count,
        COALESCE(AVG(score), 0) AS average_score,
        COUNT(*) FILTER (WHERE overridden) AS override_count
        FROM eligibility_results WHERE rule_id = $1`
	var stats models.EligibilityStats
	if err := r.db.GetContext(ctx, &stats, query, ruleID); err != nil {
		return nil, fmt.Errorf("eligibility stats: %w", err)
	}
	return &stats, nil
}

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

// TestRepository manages persistence for mock tests and attempt results.
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository constructs a TestRepository.
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

const testColumns = `id, title, description, category, difficulty, duration_minutes, total_points, questions, status, tags, created_by, created_at, updated_at`

// Create inserts a new mock test.
func (r *TestRepository) Create(ctx context.Context, test *models.MockTest) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if test.CreatedAt.IsZero() {
		test.CreatedAt = now
	}
	test.UpdatedAt = now
	if test.Status == "" {
		test.Status = models.TestStatusDraft
	}
	const query = `INSERT INTO mock_tests (id, title, description, category, difficulty, duration_minutes, total_points, questions, status, tags, created_by, created_at, updated_at)
        VALUES (:id, :title, :description, :category, :difficulty, :duration_minutes, :total_points, :questions, :status, :tags, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

// FindByID fetches a test by ID including questions.
func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.MockTest, error) {
	query := fmt.Sprintf(`SELECT %s FROM mock_tests WHERE id = $1 LIMIT 1`, testColumns)
	var test models.MockTest
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find test: %w", err)
	}
	return &test, nil
}

// List returns tests matching the provided filters.
func (r *TestRepository) List(ctx context.Context, filter models.TestFilter) ([]models.MockTest, int, error) {
	baseQuery := `FROM mock_tests WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", len(args)+1))
		args = append(args, filter.Difficulty)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", testColumns, baseQuery, pageSize, offset)

	var tests []models.MockTest
	if err := r.db.SelectContext(ctx, &tests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list tests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tests: %w", err)
	}
	return tests, total, nil
}

// UpdateStatus transitions a test's publication state.
func (r *TestRepository) UpdateStatus(ctx context.Context, id string, status models.TestStatus) error {
	const query = `UPDATE mock_tests SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update test status: %w", err)
	}
	return nil
}

// SaveResult persists a graded attempt.
func (r *TestRepository) SaveResult(ctx context.Context, result *models.TestResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.SubmittedAt.IsZero() {
		result.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO test_results (id, test_id, student_id, score, total_points, percentage, correct, wrong, skipped, time_taken_secs, category_scores, answers, submitted_at)
        VALUES (:id, :test_id, :student_id, :score, :total_points, :percentage, :correct, :wrong, :skipped, :time_taken_secs, :category_scores, :answers, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("save test result: %w", err)
	}
	return nil
}

// ResultsByStudent lists a student's attempt history.
func (r *TestRepository) ResultsByStudent(ctx context.Context, studentID string) ([]models.TestResult, error) {
	const query = `SELECT id, test_id, student_id, score, total_points, percentage, correct, wrong, skipped, time_taken_secs, category_scores, answers, submitted_at
        FROM test_results WHERE student_id = $1 ORDER BY submitted_at DESC`
	var results []models.TestResult
	if err := r.db.SelectContext(ctx, &results, query, studentID); err != nil {
		return nil, fmt.Errorf("results by student: %w", err)
	}
	return results, nil
}

// ResultsByTest lists every attempt on one test, newest first.
func (r *TestRepository) ResultsByTest(ctx context.Context, testID string) ([]models.TestResult, error) {
	const query = `SELECT id, test_id, student_id, score, total_points, percentage, correct, wrong, skipped, time_taken_secs, category_scores, answers, submitted_at
        FROM test_results WHERE test_id = $1 ORDER BY submitted_at DESC`
	var results []models.TestResult
	if err := r.db.SelectContext(ctx, &results, query, testID); err != nil {
		return nil, fmt.Errorf("results by test: %w", err)
	}
	return results, nil
}

// AveragePercentageByStudent returns the mean attempt percentage.
func (r *TestRepository) AveragePercentageByStudent(ctx context.Context, studentID string) (float64, error) {
	const query = `SELECT COALESCE(AVG(percentage), 0) FROM test_results WHERE student_id = $1`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, studentID); err != nil {
		return 0, fmt.Errorf("average percentage: %w", err)
	}
	return avg, nil
}

// Leaderboard ranks students on a test by their best attempt, breaking
// ties by the faster time.
func (r *TestRepository) Leaderboard(ctx context.Context, testID string, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT
        ROW_NUMBER() OVER (ORDER BY best.score DESC, best.time_taken_secs ASC) AS rank,
        best.student_id, u.full_name AS student_name, best.score, best.percentage, best.time_taken_secs, best.attempts
        FROM (
            SELECT DISTINCT ON (student_id) student_id, score, percentage, time_taken_secs,
                COUNT(*) OVER (PARTITION BY student_id) AS attempts
            FROM test_results WHERE test_id = $1
            ORDER BY student_id, score DESC, time_taken_secs ASC
        ) best
        JOIN users u ON u.id = best.student_id
        ORDER BY best.score DESC, best.time_taken_secs ASC
        LIMIT %d`, limit)
	var entries []models.LeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, query, testID); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}

// Performance aggregates attempt outcomes per test.
func (r *TestRepository) Performance(ctx context.Context, testID string) (*models.TestPerformance, error) {
	const query = `SELECT t.id AS test_id, t.title,
        COUNT(r.id) AS attempts,
        COALESCE(AVG(r.score), 0) AS average_score,
        COALESCE(MAX(r.score), 0) AS highest_score,
        COALESCE(AVG(CASE WHEN r.percentage >= 50 THEN 1.0 ELSE 0.0 END) * 100, 0) AS pass_rate
        FROM mock_tests t LEFT JOIN test_results r ON r.test_id = t.id
        WHERE t.id = $1 GROUP BY t.id, t.title`
	var perf models.TestPerformance
	if err := r.db.GetContext(ctx, &perf, query, testID); err != nil {
		return nil, fmt.Errorf("test performance: %w", err)
	}
	return &perf, nil
}

// CountPublished counts tests students can currently attempt.
func (r *TestRepository) CountPublished(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM mock_tests WHERE status = 'published'`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count published tests: %w", err)
	}
	return count, nil
}

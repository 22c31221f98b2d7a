package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/placementhub/placement-api/internal/models"
)

// AnalyticsRepository exposes read-optimised aggregate queries for
// dashboard and reporting endpoints.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CountStudents counts active student accounts.
func (r *AnalyticsRepository) CountStudents(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = 'STUDENT' AND is_active = true`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// UsersByRole breaks active accounts down per role.
func (r *AnalyticsRepository) UsersByRole(ctx context.Context) (map[string]int, error) {
	const query = `SELECT role, COUNT(*) AS count FROM users WHERE is_active = true GROUP BY role`
	rows := []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[row.Role] = row.Count
	}
	return result, nil
}

// CountRegistrations counts non-withdrawn registrations across all drives.
func (r *AnalyticsRepository) CountRegistrations(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM drive_registrations WHERE status <> 'withdrawn'`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// AverageTestPercentage returns the mean percentage across every attempt.
func (r *AnalyticsRepository) AverageTestPercentage(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(AVG(percentage), 0) FROM test_results`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		return 0, fmt.Errorf("average test percentage: %w", err)
	}
	return avg, nil
}

// DepartmentPlacements aggregates placement outcomes per department. The
// department comes from the profile document, so students without a
// profile are not counted.
func (r *AnalyticsRepository) DepartmentPlacements(ctx context.Context) ([]models.DepartmentPlacement, error) {
	const query = `SELECT
        sp.personal_info->>'department' AS department,
        COUNT(DISTINCT sp.user_id) AS students,
        COUNT(DISTINCT dr.student_id) FILTER (WHERE dr.status = 'selected') AS placed,
        CASE WHEN COUNT(DISTINCT sp.user_id) = 0 THEN 0
            ELSE COUNT(DISTINCT dr.student_id) FILTER (WHERE dr.status = 'selected') * 100.0 / COUNT(DISTINCT sp.user_id)
        END AS rate,
        COALESCE(AVG(dp.package_lpa) FILTER (WHERE dr.status = 'selected'), 0) AS average_package
        FROM student_profiles sp
        LEFT JOIN drive_registrations dr ON dr.student_id = sp.user_id
        LEFT JOIN drive_positions dp ON dp.id = dr.position_id
        WHERE COALESCE(sp.personal_info->>'department', '') <> ''
        GROUP BY sp.personal_info->>'department'
        ORDER BY rate DESC`
	var rows []models.DepartmentPlacement
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("department placements: %w", err)
	}
	return rows, nil
}

// ReadinessInputs gathers the per-student signals the readiness score is
// computed from. The composite score itself is filled in by the caller.
func (r *AnalyticsRepository) ReadinessInputs(ctx context.Context, department string) ([]models.ReadinessReport, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT
        u.id AS student_id,
        u.name AS student_name,
        COALESCE(att.rate, 0) AS attendance_rate,
        COALESCE(tr.avg_pct, 0) AS avg_test_percentage,
        COALESCE(res.ats, 0) AS ats_score,
        COALESCE(sp.completeness_score, 0) AS completeness_score,
        COALESCE(tr.attempts, 0) AS tests_attempted,
        COALESCE(reg.total, 0) AS drives_registered
        FROM users u
        JOIN student_profiles sp ON sp.user_id = u.id
        LEFT JOIN (
            SELECT student_id,
                CASE WHEN COUNT(*) FILTER (WHERE status <> 'excused') = 0 THEN 0
                    ELSE COUNT(*) FILTER (WHERE status = 'present') * 100.0 / COUNT(*) FILTER (WHERE status <> 'excused')
                END AS rate
            FROM attendance_records GROUP BY student_id
        ) att ON att.student_id = u.id
        LEFT JOIN (
            SELECT student_id, AVG(percentage) AS avg_pct, COUNT(*) AS attempts
            FROM test_results GROUP BY student_id
        ) tr ON tr.student_id = u.id
        LEFT JOIN (
            SELECT student_id, COALESCE(MAX(ats_score) FILTER (WHERE is_default), MAX(ats_score)) AS ats
            FROM resumes GROUP BY student_id
        ) res ON res.student_id = u.id
        LEFT JOIN (
            SELECT student_id, COUNT(*) AS total
            FROM drive_registrations WHERE status <> 'withdrawn' GROUP BY student_id
        ) reg ON reg.student_id = u.id
        WHERE u.role = 'STUDENT' AND u.is_active = true`)
	var args []interface{}
	if department != "" {
		args = append(args, department)
		builder.WriteString(fmt.Sprintf(" AND sp.personal_info->>'department' = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY u.name")

	var rows []models.ReadinessReport
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("readiness inputs: %w", err)
	}
	return rows, nil
}

// StudentAttendance aggregates attendance per student, optionally scoped
// to one department.
func (r *AnalyticsRepository) StudentAttendance(ctx context.Context, department string) ([]models.AttendanceSummary, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT
        ar.student_id,
        COUNT(*) AS total_sessions,
        COUNT(*) FILTER (WHERE ar.status = 'present') AS present,
        COUNT(*) FILTER (WHERE ar.status = 'absent') AS absent,
        COUNT(*) FILTER (WHERE ar.status = 'excused') AS excused,
        CASE WHEN COUNT(*) FILTER (WHERE ar.status <> 'excused') = 0 THEN 0
            ELSE COUNT(*) FILTER (WHERE ar.status = 'present') * 100.0 / COUNT(*) FILTER (WHERE ar.status <> 'excused')
        END AS attendance_rate
        FROM attendance_records ar`)
	var args []interface{}
	if department != "" {
		args = append(args, department)
		builder.WriteString(fmt.Sprintf(` JOIN student_profiles sp ON sp.user_id = ar.student_id
        WHERE sp.personal_info->>'department' = $%d`, len(args)))
	}
	builder.WriteString(" GROUP BY ar.student_id ORDER BY attendance_rate DESC")

	var rows []models.AttendanceSummary
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("student attendance: %w", err)
	}
	return rows, nil
}

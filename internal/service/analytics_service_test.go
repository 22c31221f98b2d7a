package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
)

type analyticsAggregatesStub struct {
	students      int
	byRole        map[string]int
	registrations int
	avgTest       float64
	departments   []models.DepartmentPlacement
	readiness     []models.ReadinessReport
}

func (s analyticsAggregatesStub) CountStudents(ctx context.Context) (int, error) {
	return s.students, nil
}

func (s analyticsAggregatesStub) UsersByRole(ctx context.Context) (map[string]int, error) {
	return s.byRole, nil
}

func (s analyticsAggregatesStub) CountRegistrations(ctx context.Context) (int, error) {
	return s.registrations, nil
}

func (s analyticsAggregatesStub) AverageTestPercentage(ctx context.Context) (float64, error) {
	return s.avgTest, nil
}

func (s analyticsAggregatesStub) DepartmentPlacements(ctx context.Context) ([]models.DepartmentPlacement, error) {
	return s.departments, nil
}

func (s analyticsAggregatesStub) ReadinessInputs(ctx context.Context, department string) ([]models.ReadinessReport, error) {
	return s.readiness, nil
}

type analyticsDrivesStub struct {
	byStatus map[string]int
}

func (s analyticsDrivesStub) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.byStatus, nil
}

type analyticsRegistrationsStub struct {
	selected   int
	perStudent int
}

func (s analyticsRegistrationsStub) CountSelectedStudents(ctx context.Context) (int, error) {
	return s.selected, nil
}

func (s analyticsRegistrationsStub) CountByStudent(ctx context.Context, studentID string) (int, error) {
	return s.perStudent, nil
}

type analyticsTestsStub struct {
	published int
	avg       float64
	results   []models.TestResult
}

func (s analyticsTestsStub) CountPublished(ctx context.Context) (int, error) {
	return s.published, nil
}

func (s analyticsTestsStub) AveragePercentageByStudent(ctx context.Context, studentID string) (float64, error) {
	return s.avg, nil
}

func (s analyticsTestsStub) ResultsByStudent(ctx context.Context, studentID string) ([]models.TestResult, error) {
	return s.results, nil
}

type analyticsResumesStub struct {
	avgATS float64
	scored int
	ats    int
}

func (s analyticsResumesStub) AverageATSScore(ctx context.Context) (float64, error) {
	return s.avgATS, nil
}

func (s analyticsResumesStub) CountScored(ctx context.Context) (int, error) {
	return s.scored, nil
}

func (s analyticsResumesStub) DefaultATSScore(ctx context.Context, studentID string) (int, error) {
	return s.ats, nil
}

type analyticsTrainingStub struct {
	summary  *models.AttendanceSummary
	sessions int
}

func (s analyticsTrainingStub) AttendanceSummary(ctx context.Context, studentID string) (*models.AttendanceSummary, error) {
	return s.summary, nil
}

func (s analyticsTrainingStub) CountSessionsBetween(ctx context.Context, from, to time.Time) (int, error) {
	return s.sessions, nil
}

type analyticsProfilesStub struct {
	profile *models.StudentProfile
}

func (s analyticsProfilesStub) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	return s.profile, nil
}

type analyticsUnreadStub struct {
	unread int
	calls  int
}

func (s *analyticsUnreadStub) UnreadCount(ctx context.Context, userID string, role models.UserRole, department string) (int, error) {
	s.calls++
	return s.unread, nil
}

type analyticsExportsStub struct {
	queued int
}

func (s analyticsExportsStub) CountQueued(ctx context.Context) (int, error) {
	return s.queued, nil
}

type hitRateStub struct {
	rate float64
}

func (s hitRateStub) CacheHitRate() float64 { return s.rate }

func newAnalyticsServiceForTest(cache *cacheStub, unread *analyticsUnreadStub) *AnalyticsService {
	profile := &models.StudentProfile{CompletenessScore: 88}
	profile.Personal.Name = "Priya Raman"

	return NewAnalyticsService(AnalyticsServiceParams{
		Aggregates: analyticsAggregatesStub{
			students:      200,
			byRole:        map[string]int{"STUDENT": 200, "OFFICER": 3},
			registrations: 450,
			avgTest:       72.5,
			departments: []models.DepartmentPlacement{
				{Department: "CSE", Students: 80, Placed: 40, Rate: 50},
			},
			readiness: []models.ReadinessReport{
				{StudentID: "stu-1", AttendanceRate: 90, AvgTestPercentage: 80, ATSScore: 70},
			},
		},
		Drives:        analyticsDrivesStub{byStatus: map[string]int{"ongoing": 4, "upcoming": 6}},
		Registrations: analyticsRegistrationsStub{selected: 50, perStudent: 3},
		Tests: analyticsTestsStub{
			published: 12,
			avg:       80,
			results:   []models.TestResult{{StudentID: "stu-1"}, {StudentID: "stu-1"}},
		},
		Resumes:       analyticsResumesStub{avgATS: 64.2, scored: 150, ats: 70},
		Training:      analyticsTrainingStub{summary: &models.AttendanceSummary{StudentID: "stu-1", AttendanceRate: 90}, sessions: 5},
		Profiles:      analyticsProfilesStub{profile: profile},
		Notifications: unread,
		Exports:       analyticsExportsStub{queued: 2},
		Cache:         cache,
		Metrics:       hitRateStub{rate: 0.85},
		Logger:        zap.NewNop(),
	})
}

func TestAnalyticsServiceDashboard(t *testing.T) {
	cache := newCacheStub()
	unread := &analyticsUnreadStub{unread: 7}
	svc := newAnalyticsServiceForTest(cache, unread)

	overview, err := svc.Dashboard(context.Background(), "student-1", models.RoleStudent, "CSE")
	require.NoError(t, err)
	assert.Equal(t, 200, overview.TotalStudents)
	assert.Equal(t, 4, overview.ActiveDrives)
	assert.Equal(t, 6, overview.UpcomingDrives)
	assert.Equal(t, 50, overview.StudentsPlaced)
	assert.Equal(t, 25.0, overview.PlacementRate)
	assert.Equal(t, 5, overview.SessionsThisWeek)
	assert.Equal(t, 7, overview.UnreadNotifications)
	assert.Contains(t, cache.store, "dashboard:overview")
	assert.Equal(t, 1, unread.calls)
}

func TestAnalyticsServiceReadiness(t *testing.T) {
	svc := newAnalyticsServiceForTest(newCacheStub(), &analyticsUnreadStub{})

	report, err := svc.Readiness(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Priya Raman", report.StudentName)
	assert.Equal(t, 90.0, report.AttendanceRate)
	assert.Equal(t, 70, report.ATSScore)
	assert.Equal(t, 88, report.CompletenessScore)
	assert.Equal(t, 2, report.TestsAttempted)
	assert.Equal(t, 3, report.DrivesRegistered)
	// 0.3*90 + 0.4*80 + 0.3*70
	assert.Equal(t, 80, report.ReadinessScore)
}

func TestAnalyticsServiceReadinessReportsScoresRows(t *testing.T) {
	svc := newAnalyticsServiceForTest(newCacheStub(), &analyticsUnreadStub{})

	rows, err := svc.ReadinessReports(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 80, rows[0].ReadinessScore)
	assert.False(t, rows[0].GeneratedAt.IsZero())
}

func TestAnalyticsServiceSystem(t *testing.T) {
	svc := newAnalyticsServiceForTest(newCacheStub(), &analyticsUnreadStub{})

	metrics, err := svc.System(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, metrics.UsersByRole["STUDENT"])
	assert.Equal(t, 12, metrics.TestsPublished)
	assert.Equal(t, 150, metrics.ResumesScored)
	assert.Equal(t, 2, metrics.ExportsQueued)
	assert.Equal(t, 0.85, metrics.CacheHitRate)
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/scoring"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
)

type analyticsAggregates interface {
	CountStudents(ctx context.Context) (int, error)
	UsersByRole(ctx context.Context) (map[string]int, error)
	CountRegistrations(ctx context.Context) (int, error)
	AverageTestPercentage(ctx context.Context) (float64, error)
	DepartmentPlacements(ctx context.Context) ([]models.DepartmentPlacement, error)
	ReadinessInputs(ctx context.Context, department string) ([]models.ReadinessReport, error)
}

type analyticsDriveCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type analyticsRegistrationCounter interface {
	CountSelectedStudents(ctx context.Context) (int, error)
	CountByStudent(ctx context.Context, studentID string) (int, error)
}

type analyticsTestStats interface {
	CountPublished(ctx context.Context) (int, error)
	AveragePercentageByStudent(ctx context.Context, studentID string) (float64, error)
	ResultsByStudent(ctx context.Context, studentID string) ([]models.TestResult, error)
}

type analyticsResumeStats interface {
	AverageATSScore(ctx context.Context) (float64, error)
	CountScored(ctx context.Context) (int, error)
	DefaultATSScore(ctx context.Context, studentID string) (int, error)
}

type analyticsTrainingStats interface {
	AttendanceSummary(ctx context.Context, studentID string) (*models.AttendanceSummary, error)
	CountSessionsBetween(ctx context.Context, from, to time.Time) (int, error)
}

type analyticsProfileLoader interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

type analyticsUnreadCounter interface {
	UnreadCount(ctx context.Context, userID string, role models.UserRole, department string) (int, error)
}

type analyticsExportCounter interface {
	CountQueued(ctx context.Context) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheHitRater interface {
	CacheHitRate() float64
}

type dbQueryTimer interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// AnalyticsServiceParams groups constructor dependencies.
type AnalyticsServiceParams struct {
	Aggregates    analyticsAggregates
	Drives        analyticsDriveCounter
	Registrations analyticsRegistrationCounter
	Tests         analyticsTestStats
	Resumes       analyticsResumeStats
	Training      analyticsTrainingStats
	Profiles      analyticsProfileLoader
	Notifications analyticsUnreadCounter
	Exports       analyticsExportCounter
	Cache         dashboardCache
	Metrics       cacheHitRater
	DBTimer       dbQueryTimer
	Logger        *zap.Logger
	CacheTTL      time.Duration
}

// AnalyticsService composes dashboard, readiness, and system snapshots
// from the per-domain repositories.
type AnalyticsService struct {
	aggregates    analyticsAggregates
	drives        analyticsDriveCounter
	registrations analyticsRegistrationCounter
	tests         analyticsTestStats
	resumes       analyticsResumeStats
	training      analyticsTrainingStats
	profiles      analyticsProfileLoader
	notifications analyticsUnreadCounter
	exports       analyticsExportCounter
	cache         dashboardCache
	metrics       cacheHitRater
	dbTimer       dbQueryTimer
	logger        *zap.Logger
	now           func() time.Time
	cacheTTL      time.Duration
}

// NewAnalyticsService constructs an AnalyticsService with sane defaults.
func NewAnalyticsService(params AnalyticsServiceParams) *AnalyticsService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnalyticsService{
		aggregates:    params.Aggregates,
		drives:        params.Drives,
		registrations: params.Registrations,
		tests:         params.Tests,
		resumes:       params.Resumes,
		training:      params.Training,
		profiles:      params.Profiles,
		notifications: params.Notifications,
		exports:       params.Exports,
		cache:         params.Cache,
		metrics:       params.Metrics,
		dbTimer:       params.DBTimer,
		logger:        logger,
		now:           time.Now,
		cacheTTL:      ttl,
	}
}

const dashboardCacheKey = "dashboard:overview"

// Dashboard returns the aggregate overview. The shared counters are
// cached; the unread notification count is per-viewer and stitched in
// after the cache lookup.
func (s *AnalyticsService) Dashboard(ctx context.Context, viewerID string, role models.UserRole, department string) (*models.DashboardOverview, error) {
	overview, err := s.sharedOverview(ctx)
	if err != nil {
		return nil, err
	}
	if s.notifications != nil {
		unread, err := s.notifications.UnreadCount(ctx, viewerID, role, department)
		if err != nil {
			s.logger.Warn("unread count failed for dashboard", zap.Error(err))
		} else {
			overview.UnreadNotifications = unread
		}
	}
	return overview, nil
}

func (s *AnalyticsService) sharedOverview(ctx context.Context) (*models.DashboardOverview, error) {
	if s.cache != nil {
		var cached models.DashboardOverview
		if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	overview, err := s.composeOverview(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, overview, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return overview, nil
}

func (s *AnalyticsService) composeOverview(ctx context.Context) (*models.DashboardOverview, error) {
	totalStudents, err := s.aggregates.CountStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	driveCounts, err := s.drives.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count drives")
	}
	totalRegistrations, err := s.aggregates.CountRegistrations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}
	placed, err := s.registrations.CountSelectedStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count placements")
	}
	avgATS, err := s.resumes.AverageATSScore(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to average resume scores")
	}
	avgTest, err := s.aggregates.AverageTestPercentage(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to average test scores")
	}

	weekStart := startOfWeek(s.now().UTC())
	sessions, err := s.training.CountSessionsBetween(ctx, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions")
	}

	overview := &models.DashboardOverview{
		TotalStudents:      totalStudents,
		ActiveDrives:       driveCounts[string(models.DriveStatusOngoing)],
		UpcomingDrives:     driveCounts[string(models.DriveStatusUpcoming)],
		TotalRegistrations: totalRegistrations,
		StudentsPlaced:     placed,
		AverageATSScore:    avgATS,
		AverageTestScore:   avgTest,
		SessionsThisWeek:   sessions,
		GeneratedAt:        s.now().UTC(),
	}
	if totalStudents > 0 {
		overview.PlacementRate = float64(placed) * 100 / float64(totalStudents)
	}
	return overview, nil
}

// Departments breaks placement numbers down per department.
func (s *AnalyticsService) Departments(ctx context.Context) ([]models.DepartmentPlacement, error) {
	start := time.Now()
	rows, err := s.aggregates.DepartmentPlacements(ctx)
	if s.dbTimer != nil {
		s.dbTimer.ObserveDBQuery("department_placements", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department placements")
	}
	return rows, nil
}

// Readiness scores one student's placement readiness from their
// attendance, test history, and best resume.
func (s *AnalyticsService) Readiness(ctx context.Context, studentID string) (*models.ReadinessReport, error) {
	profile, err := s.profiles.FindByUserID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
	}

	attendance, err := s.training.AttendanceSummary(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	avgTest, err := s.tests.AveragePercentageByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test history")
	}
	results, err := s.tests.ResultsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test history")
	}
	ats, err := s.resumes.DefaultATSScore(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resume score")
	}
	registered, err := s.registrations.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}

	report := &models.ReadinessReport{
		StudentID:         studentID,
		StudentName:       profile.Personal.Name,
		AttendanceRate:    attendance.AttendanceRate,
		AvgTestPercentage: avgTest,
		ATSScore:          ats,
		CompletenessScore: profile.CompletenessScore,
		ReadinessScore:    scoring.ReadinessScore(attendance.AttendanceRate, avgTest, ats),
		TestsAttempted:    len(results),
		DrivesRegistered:  registered,
		GeneratedAt:       s.now().UTC(),
	}
	return report, nil
}

// ReadinessReports scores every active student, optionally scoped to one
// department.
func (s *AnalyticsService) ReadinessReports(ctx context.Context, department string) ([]models.ReadinessReport, error) {
	start := time.Now()
	rows, err := s.aggregates.ReadinessInputs(ctx, department)
	if s.dbTimer != nil {
		s.dbTimer.ObserveDBQuery("readiness_inputs", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load readiness inputs")
	}
	now := s.now().UTC()
	for i := range rows {
		rows[i].ReadinessScore = scoring.ReadinessScore(rows[i].AttendanceRate, rows[i].AvgTestPercentage, rows[i].ATSScore)
		rows[i].GeneratedAt = now
	}
	return rows, nil
}

// System returns the operational snapshot shown to admins.
func (s *AnalyticsService) System(ctx context.Context) (*models.SystemMetrics, error) {
	byRole, err := s.aggregates.UsersByRole(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}
	byStatus, err := s.drives.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count drives")
	}
	published, err := s.tests.CountPublished(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tests")
	}
	scored, err := s.resumes.CountScored(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count resumes")
	}
	queued := 0
	if s.exports != nil {
		queued, err = s.exports.CountQueued(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count exports")
		}
	}

	metrics := &models.SystemMetrics{
		UsersByRole:    byRole,
		DrivesByStatus: byStatus,
		TestsPublished: published,
		ResumesScored:  scored,
		ExportsQueued:  queued,
		GeneratedAt:    s.now().UTC(),
	}
	if s.metrics != nil {
		metrics.CacheHitRate = s.metrics.CacheHitRate()
	}
	return metrics, nil
}

// startOfWeek returns midnight on the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

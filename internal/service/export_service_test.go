package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/pkg/storage"
)

type exportRegistrationsStub struct {
	regs    []models.DriveRegistration
	filters []models.RegistrationFilter
}

func (s *exportRegistrationsStub) List(ctx context.Context, filter models.RegistrationFilter) ([]models.DriveRegistration, int, error) {
	s.filters = append(s.filters, filter)
	if filter.Page > 1 {
		return nil, len(s.regs), nil
	}
	return s.regs, len(s.regs), nil
}

type exportTestsStub struct {
	test    *models.MockTest
	results []models.TestResult
}

func (s exportTestsStub) FindByID(ctx context.Context, id string) (*models.MockTest, error) {
	return s.test, nil
}

func (s exportTestsStub) ResultsByTest(ctx context.Context, testID string) ([]models.TestResult, error) {
	return s.results, nil
}

type exportAnalyticsStub struct {
	attendance []models.AttendanceSummary
	readiness  []models.ReadinessReport
}

func (s exportAnalyticsStub) StudentAttendance(ctx context.Context, department string) ([]models.AttendanceSummary, error) {
	return s.attendance, nil
}

func (s exportAnalyticsStub) ReadinessInputs(ctx context.Context, department string) ([]models.ReadinessReport, error) {
	return s.readiness, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.SignedURLSigner) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	registrations := &exportRegistrationsStub{regs: []models.DriveRegistration{
		{ID: "reg-1", DriveID: "drive-1", PositionID: "pos-1", StudentID: "stu-1", Status: models.RegistrationStatusRegistered, RegisteredAt: time.Now()},
	}}
	tests := exportTestsStub{
		test: &models.MockTest{ID: "test-1", Title: "Aptitude Round 1"},
		results: []models.TestResult{
			{StudentID: "stu-1", Score: 8, TotalPoints: 10, Percentage: 80, Correct: 4, Wrong: 1, SubmittedAt: time.Now()},
		},
	}
	analytics := exportAnalyticsStub{
		attendance: []models.AttendanceSummary{
			{StudentID: "stu-1", TotalSessions: 10, Present: 9, Absent: 1, AttendanceRate: 90},
		},
		readiness: []models.ReadinessReport{
			{StudentID: "stu-1", StudentName: "Priya Raman", AttendanceRate: 90, AvgTestPercentage: 80, ATSScore: 70, CompletenessScore: 88},
		},
	}

	svc := NewExportService(registrations, tests, analytics, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)
	return svc, signer
}

func TestExportServiceGenerateRegistrationsCSV(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	driveID := "drive-1"
	job := &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeRegistrations,
		Params: models.ExportJobParams{DriveID: &driveID, Format: models.ExportFormatCSV},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RelativePath)
	assert.NotEmpty(t, result.Token)
	assert.Contains(t, result.URL, "/api/v1/exports/download/")

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	file.Close()
}

func TestExportServiceRegistrationsDepartmentFilter(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	regs := &exportRegistrationsStub{regs: []models.DriveRegistration{
		{ID: "reg-1", DriveID: "drive-1", PositionID: "pos-1", StudentID: "stu-1", Status: models.RegistrationStatusRegistered, RegisteredAt: time.Now()},
	}}
	svc := NewExportService(regs, exportTestsStub{}, exportAnalyticsStub{}, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)

	dept := "CSE"
	job := &models.ExportJob{
		ID:     "job-dept",
		Type:   models.ExportTypeRegistrations,
		Params: models.ExportJobParams{Department: &dept, Format: models.ExportFormatCSV},
	}
	_, err = svc.Generate(context.Background(), job)
	require.NoError(t, err)

	require.NotEmpty(t, regs.filters)
	assert.Equal(t, "CSE", regs.filters[0].Department)
}

func TestExportServiceGenerateReadinessPDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-2",
		Type:   models.ExportTypeReadiness,
		Params: models.ExportJobParams{Format: models.ExportFormatPDF},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, result.Format)
}

func TestExportServiceGenerateTestResultsRequiresTestID(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-3",
		Type:   models.ExportTypeTestResults,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
	}

	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

func TestExportServiceParseTokenRoundTrip(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-4",
		Type:   models.ExportTypeAttendance,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, job.ID, jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

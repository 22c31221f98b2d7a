package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/scoring"
	"github.com/placementhub/placement-api/pkg/export"
	"github.com/placementhub/placement-api/pkg/storage"
)

type exportRegistrationSource interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.DriveRegistration, int, error)
}

type exportTestSource interface {
	FindByID(ctx context.Context, id string) (*models.MockTest, error)
	ResultsByTest(ctx context.Context, testID string) ([]models.TestResult, error)
}

type exportAnalyticsSource interface {
	StudentAttendance(ctx context.Context, department string) ([]models.AttendanceSummary, error)
	ReadinessInputs(ctx context.Context, department string) ([]models.ReadinessReport, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds export datasets and persists the rendered files.
type ExportService struct {
	registrations exportRegistrationSource
	tests         exportTestSource
	analytics     exportAnalyticsSource
	storage       exportFileStorage
	csv           csvRenderer
	pdf           pdfRenderer
	signer        *storage.SignedURLSigner
	logger        *zap.Logger
	cfg           ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(registrations exportRegistrationSource, tests exportTestSource, analytics exportAnalyticsSource, store exportFileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		registrations: registrations,
		tests:         tests,
		analytics:     analytics,
		storage:       store,
		csv:           csv,
		pdf:           pdf,
		signer:        signer,
		logger:        logger,
		cfg:           cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", job.Type, sanitizeFilename(scopeLabel(job.Params)), timestamp, job.Params.Format)
}

func scopeLabel(params models.ExportJobParams) string {
	switch {
	case params.DriveID != nil && *params.DriveID != "":
		return *params.DriveID
	case params.TestID != nil && *params.TestID != "":
		return *params.TestID
	case params.Department != nil && *params.Department != "":
		return *params.Department
	default:
		return "all"
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeRegistrations:
		return s.buildRegistrationsDataset(ctx, job.Params)
	case models.ExportTypeTestResults:
		return s.buildTestResultsDataset(ctx, job.Params)
	case models.ExportTypeAttendance:
		return s.buildAttendanceDataset(ctx, job.Params)
	case models.ExportTypeReadiness:
		return s.buildReadinessDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildRegistrationsDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	filter := models.RegistrationFilter{
		DriveID:    derefStr(params.DriveID),
		Department: derefStr(params.Department),
		Page:       1,
		PageSize:   100,
	}
	var dataRows []map[string]string
	for {
		regs, total, err := s.registrations.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, reg := range regs {
			dataRows = append(dataRows, map[string]string{
				"Registration ID": reg.ID,
				"Drive ID":        reg.DriveID,
				"Position ID":     reg.PositionID,
				"Student ID":      reg.StudentID,
				"Status":          string(reg.Status),
				"Round":           fmt.Sprintf("%d", reg.CurrentRound),
				"Registered At":   reg.RegisteredAt.UTC().Format(time.RFC3339),
			})
		}
		if len(dataRows) >= total || len(regs) == 0 {
			break
		}
		filter.Page++
	}
	dataset := export.Dataset{
		Headers: []string{"Registration ID", "Drive ID", "Position ID", "Student ID", "Status", "Round", "Registered At"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Drive Registrations %s", scopeLabel(params))
	return dataset, title, nil
}

func (s *ExportService) buildTestResultsDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	testID := derefStr(params.TestID)
	if testID == "" {
		return export.Dataset{}, "", fmt.Errorf("test results export requires a test id")
	}
	test, err := s.tests.FindByID(ctx, testID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	results, err := s.tests.ResultsByTest(ctx, testID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(results))
	for _, res := range results {
		dataRows = append(dataRows, map[string]string{
			"Student ID":     res.StudentID,
			"Score":          fmt.Sprintf("%d", res.Score),
			"Total Points":   fmt.Sprintf("%d", res.TotalPoints),
			"Percentage":     fmt.Sprintf("%d", res.Percentage),
			"Correct":        fmt.Sprintf("%d", res.Correct),
			"Wrong":          fmt.Sprintf("%d", res.Wrong),
			"Skipped":        fmt.Sprintf("%d", res.Skipped),
			"Time Taken (s)": fmt.Sprintf("%d", res.TimeTakenSecs),
			"Submitted At":   res.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student ID", "Score", "Total Points", "Percentage", "Correct", "Wrong", "Skipped", "Time Taken (s)", "Submitted At"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Test Results: %s", test.Title)
	return dataset, title, nil
}

func (s *ExportService) buildAttendanceDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	summaries, err := s.analytics.StudentAttendance(ctx, derefStr(params.Department))
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(summaries))
	for _, row := range summaries {
		dataRows = append(dataRows, map[string]string{
			"Student ID":     row.StudentID,
			"Sessions":       fmt.Sprintf("%d", row.TotalSessions),
			"Present":        fmt.Sprintf("%d", row.Present),
			"Absent":         fmt.Sprintf("%d", row.Absent),
			"Excused":        fmt.Sprintf("%d", row.Excused),
			"Attendance (%)": fmt.Sprintf("%.2f", row.AttendanceRate),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student ID", "Sessions", "Present", "Absent", "Excused", "Attendance (%)"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Training Attendance %s", scopeLabel(params))
	return dataset, title, nil
}

func (s *ExportService) buildReadinessDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	rows, err := s.analytics.ReadinessInputs(ctx, derefStr(params.Department))
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		readiness := scoring.ReadinessScore(row.AttendanceRate, row.AvgTestPercentage, row.ATSScore)
		dataRows = append(dataRows, map[string]string{
			"Student ID":      row.StudentID,
			"Name":            row.StudentName,
			"Attendance (%)":  fmt.Sprintf("%.2f", row.AttendanceRate),
			"Avg Test (%)":    fmt.Sprintf("%.2f", row.AvgTestPercentage),
			"ATS Score":       fmt.Sprintf("%d", row.ATSScore),
			"Completeness":    fmt.Sprintf("%d", row.CompletenessScore),
			"Readiness Score": fmt.Sprintf("%d", readiness),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Attendance (%)", "Avg Test (%)", "ATS Score", "Completeness", "Readiness Score"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Placement Readiness %s", scopeLabel(params))
	return dataset, title, nil
}

func derefStr(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

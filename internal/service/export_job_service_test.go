package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/repository"
	"github.com/placementhub/placement-api/pkg/jobs"
)

type exportJobStoreStub struct {
	jobs      map[string]*models.ExportJob
	listCalls int
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	r.listCalls++
	var finished []models.ExportJob
	for _, job := range r.jobs {
		if job.Status != models.ExportStatusFinished || job.FinishedAt == nil || !job.FinishedAt.Before(cutoff) {
			continue
		}
		finished = append(finished, *job)
		if len(finished) == limit {
			break
		}
	}
	return finished, nil
}

func (r *exportJobStoreStub) DeleteByID(ctx context.Context, id string) error {
	if _, ok := r.jobs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.jobs, id)
	return nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (q *dispatcherStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newExportJobServiceForTest(t *testing.T) (*ExportJobService, *exportJobStoreStub, *dispatcherStub, *ExportService) {
	t.Helper()
	repo := newExportJobStoreStub()
	queue := &dispatcherStub{}
	exporter, _ := newExportServiceForTest(t)
	svc := NewExportJobService(repo, queue, exporter, nil, zap.NewNop(), ExportJobConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      3,
	})
	return svc, repo, queue, exporter
}

func TestExportJobServiceCreateJob(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)

	job, err := svc.CreateJob(context.Background(), "officer-1", models.CreateExportRequest{
		Type:   models.ExportTypeRegistrations,
		Format: models.ExportFormatCSV,
	})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	assert.Contains(t, repo.jobs, job.ID)
}

func TestExportJobServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)
	queue.err = errors.New("queue closed")

	_, err := svc.CreateJob(context.Background(), "officer-1", models.CreateExportRequest{
		Type:   models.ExportTypeAttendance,
		Format: models.ExportFormatCSV,
	})
	require.Error(t, err)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportJobServiceCreateJobTestResultsNeedsTestID(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)

	_, err := svc.CreateJob(context.Background(), "officer-1", models.CreateExportRequest{
		Type:   models.ExportTypeTestResults,
		Format: models.ExportFormatCSV,
	})
	require.Error(t, err)
}

func TestExportJobServiceGetStatusOwnership(t *testing.T) {
	svc, repo, _, _ := newExportJobServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-1",
		Type:      models.ExportTypeRegistrations,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusFinished,
		Progress:  100,
		CreatedBy: "officer-1",
	}
	repo.jobs[job.ID] = job

	got, err := svc.GetStatus(context.Background(), job.ID, "officer-1", models.RoleOfficer)
	require.NoError(t, err)
	assert.Equal(t, job.Status, got.Status)

	_, err = svc.GetStatus(context.Background(), job.ID, "officer-2", models.RoleOfficer)
	require.Error(t, err)

	_, err = svc.GetStatus(context.Background(), job.ID, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
}

func TestExportJobServiceResolveDownload(t *testing.T) {
	svc, repo, _, exporter := newExportJobServiceForTest(t)
	job := &models.ExportJob{
		ID:        "job-download",
		Type:      models.ExportTypeAttendance,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusFinished,
		Progress:  100,
		CreatedBy: "officer-1",
	}
	repo.jobs[job.ID] = job
	result, err := exporter.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL
	now := time.Now()
	job.FinishedAt = &now

	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(result.RelativePath), download.Filename)
	download.File.Close()
}

func TestExportJobServiceCleanupPurgesExpiredJobs(t *testing.T) {
	svc, repo, _, exporter := newExportJobServiceForTest(t)

	expiredAt := time.Now().Add(-2 * time.Hour)
	// More than two listing pages worth of expired rows, none with a
	// stored artifact.
	for i := 0; i < 2*cleanupBatchSize+10; i++ {
		id := uuid.NewString()
		finished := expiredAt
		repo.jobs[id] = &models.ExportJob{
			ID:         id,
			Type:       models.ExportTypeRegistrations,
			Params:     models.ExportJobParams{Format: models.ExportFormatCSV},
			Status:     models.ExportStatusFinished,
			Progress:   100,
			CreatedBy:  "officer-1",
			FinishedAt: &finished,
		}
	}

	// One expired job with a real file behind its download URL.
	withFile := &models.ExportJob{
		ID:        "job-expired-file",
		Type:      models.ExportTypeRegistrations,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusFinished,
		Progress:  100,
		CreatedBy: "officer-1",
	}
	repo.jobs[withFile.ID] = withFile
	result, err := exporter.Generate(context.Background(), withFile)
	require.NoError(t, err)
	withFile.ResultURL = &result.URL
	withFile.FinishedAt = &expiredAt

	// Survivors: a freshly finished job and a queued one.
	recent := time.Now()
	repo.jobs["job-recent"] = &models.ExportJob{
		ID:         "job-recent",
		Type:       models.ExportTypeAttendance,
		Params:     models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:     models.ExportStatusFinished,
		Progress:   100,
		CreatedBy:  "officer-1",
		FinishedAt: &recent,
	}
	repo.jobs["job-queued"] = &models.ExportJob{
		ID:        "job-queued",
		Type:      models.ExportTypeRegistrations,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusQueued,
		CreatedBy: "officer-1",
	}

	svc.cleanupExpired(context.Background())

	assert.Len(t, repo.jobs, 2)
	assert.Contains(t, repo.jobs, "job-recent")
	assert.Contains(t, repo.jobs, "job-queued")
	assert.LessOrEqual(t, repo.listCalls, 4, "cleanup must not re-list rows it already purged")

	_, err = exporter.Open(result.RelativePath)
	assert.Error(t, err, "expired export file should be removed from storage")
}

type generatorStub struct {
	result *ExportResult
	err    error
}

func (g generatorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func TestExportWorkerHandleSuccess(t *testing.T) {
	repo := newExportJobStoreStub()
	repo.jobs["job-1"] = &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeRegistrations,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	worker := NewExportWorker(repo, generatorStub{result: &ExportResult{URL: "/api/v1/exports/download/token"}}, nil, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, repo.jobs["job-1"].Status)
	assert.Equal(t, 100, repo.jobs["job-1"].Progress)
}

func TestExportWorkerHandleFailureRequeuesThenFails(t *testing.T) {
	repo := newExportJobStoreStub()
	repo.jobs["job-1"] = &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeRegistrations,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	worker := NewExportWorker(repo, generatorStub{err: errors.New("boom")}, nil, 2, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, repo.jobs["job-1"].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, repo.jobs["job-1"].Status)
}

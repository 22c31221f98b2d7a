package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/scoring"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
	"github.com/placementhub/placement-api/pkg/export"
)

type resumeRepoStub struct {
	resumes    map[string]*models.Resume
	templates  map[string]*models.ResumeTemplate
	clearCalls int
}

func newResumeRepoStub() *resumeRepoStub {
	tmpl := &models.ResumeTemplate{ID: "modern", Name: "Modern", Active: true}
	return &resumeRepoStub{
		resumes:   map[string]*models.Resume{},
		templates: map[string]*models.ResumeTemplate{tmpl.ID: tmpl},
	}
}

func (r *resumeRepoStub) Create(ctx context.Context, resume *models.Resume) error {
	if resume.ID == "" {
		resume.ID = uuid.NewString()
	}
	r.resumes[resume.ID] = resume
	return nil
}

func (r *resumeRepoStub) FindByID(ctx context.Context, id string) (*models.Resume, error) {
	resume, ok := r.resumes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return resume, nil
}

func (r *resumeRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.Resume, error) {
	var out []models.Resume
	for _, resume := range r.resumes {
		if resume.StudentID == studentID {
			out = append(out, *resume)
		}
	}
	return out, nil
}

func (r *resumeRepoStub) Update(ctx context.Context, resume *models.Resume) error {
	if _, ok := r.resumes[resume.ID]; !ok {
		return sql.ErrNoRows
	}
	r.resumes[resume.ID] = resume
	return nil
}

func (r *resumeRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.resumes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.resumes, id)
	return nil
}

func (r *resumeRepoStub) ClearDefault(ctx context.Context, studentID string) error {
	r.clearCalls++
	for _, resume := range r.resumes {
		if resume.StudentID == studentID {
			resume.IsDefault = false
		}
	}
	return nil
}

func (r *resumeRepoStub) ListTemplates(ctx context.Context, activeOnly bool) ([]models.ResumeTemplate, error) {
	var out []models.ResumeTemplate
	for _, tmpl := range r.templates {
		if !activeOnly || tmpl.Active {
			out = append(out, *tmpl)
		}
	}
	return out, nil
}

func (r *resumeRepoStub) FindTemplate(ctx context.Context, id string) (*models.ResumeTemplate, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return tmpl, nil
}

type resumeStorageStub struct {
	saved map[string][]byte
}

func (s *resumeStorageStub) Save(filename string, data []byte) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	return "/data/" + filename, nil
}

func sampleResumeContent() models.ResumeContent {
	return models.ResumeContent{
		Contact: models.ResumeContact{
			Name:     "Priya Raman",
			Email:    "priya@univ.edu",
			Phone:    "+91 9800000000",
			Location: "Chennai",
		},
		Summary: "Final-year CSE student focused on backend systems and data pipelines.",
		Education: []models.ResumeEducation{
			{Institution: "Anna University", Degree: "B.E.", Field: "CSE", StartYear: 2022, EndYear: 2026, Grade: "8.6 CGPA"},
		},
		Experience: []models.ResumeExperience{
			{Company: "Acme Labs", Role: "Backend Intern", StartDate: "2025-05", EndDate: "2025-07", Description: "Reduced API latency by 40% across 12 services."},
		},
		Projects: []models.ResumeProject{
			{Title: "Campus Portal", Description: "REST API serving 3000 students", Technologies: []string{"Go", "PostgreSQL"}},
		},
		TechnicalSkills: []string{"Go", "SQL", "Docker", "REST"},
		SoftSkills:      []string{"Communication", "Teamwork"},
	}
}

func newResumeServiceForTest(repo *resumeRepoStub, store *resumeStorageStub) *ResumeService {
	return NewResumeService(repo, store, export.NewPDFExporter(), nil, zap.NewNop())
}

func TestResumeServiceSaveRunsAnalysis(t *testing.T) {
	repo := newResumeRepoStub()
	svc := newResumeServiceForTest(repo, &resumeStorageStub{})

	content := sampleResumeContent()
	resume, err := svc.Save(context.Background(), "student-1", models.SaveResumeRequest{
		Title:      "Backend Resume",
		TemplateID: "modern",
		Content:    content,
	})
	require.NoError(t, err)

	want := scoring.AnalyzeResume(content)
	assert.Equal(t, want.Score, resume.ATSScore)
	assert.Greater(t, resume.ATSScore, 0)
	assert.NotEmpty(t, resume.ATSAnalysis.Checks)
	assert.Contains(t, repo.resumes, resume.ID)
}

func TestResumeServiceSaveUnknownTemplate(t *testing.T) {
	repo := newResumeRepoStub()
	svc := newResumeServiceForTest(repo, &resumeStorageStub{})

	_, err := svc.Save(context.Background(), "student-1", models.SaveResumeRequest{
		Title:      "Backend Resume",
		TemplateID: "does-not-exist",
		Content:    sampleResumeContent(),
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestResumeServiceSaveDefaultDemotesPrevious(t *testing.T) {
	repo := newResumeRepoStub()
	svc := newResumeServiceForTest(repo, &resumeStorageStub{})

	first, err := svc.Save(context.Background(), "student-1", models.SaveResumeRequest{
		Title:      "First",
		TemplateID: "modern",
		Content:    sampleResumeContent(),
		IsDefault:  true,
	})
	require.NoError(t, err)
	require.True(t, first.IsDefault)

	second, err := svc.Save(context.Background(), "student-1", models.SaveResumeRequest{
		Title:      "Second",
		TemplateID: "modern",
		Content:    sampleResumeContent(),
		IsDefault:  true,
	})
	require.NoError(t, err)

	assert.True(t, second.IsDefault)
	assert.False(t, repo.resumes[first.ID].IsDefault)
	assert.Equal(t, 2, repo.clearCalls)
}

func TestResumeServiceUpdateForeignResume(t *testing.T) {
	repo := newResumeRepoStub()
	svc := newResumeServiceForTest(repo, &resumeStorageStub{})

	resume, err := svc.Save(context.Background(), "student-1", models.SaveResumeRequest{
		Title:      "Backend Resume",
		TemplateID: "modern",
		Content:    sampleResumeContent(),
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "student-2", resume.ID, models.SaveResumeRequest{
		Title:      "Hijacked",
		TemplateID: "modern",
		Content:    sampleResumeContent(),
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestResumeServiceDelete(t *testing.T) {
	repo := newResumeRepoStub()
	svc := newResumeServiceForTest(repo, &resumeStorageStub{})

	resume, err := svc.Save(context.Background(), "student-1", models.SaveResumeRequest{
		Title:      "Backend Resume",
		TemplateID: "modern",
		Content:    sampleResumeContent(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "student-1", resume.ID))
	assert.NotContains(t, repo.resumes, resume.ID)
}

func TestResumeServiceRenderStoresPDF(t *testing.T) {
	repo := newResumeRepoStub()
	store := &resumeStorageStub{}
	svc := newResumeServiceForTest(repo, store)

	resume, err := svc.Save(context.Background(), "student-1", models.SaveResumeRequest{
		Title:      "Backend Resume",
		TemplateID: "modern",
		Content:    sampleResumeContent(),
	})
	require.NoError(t, err)

	path, err := svc.Render(context.Background(), "student-1", resume.ID)
	require.NoError(t, err)

	key := fmt.Sprintf("resumes/student-1/%s.pdf", resume.ID)
	assert.Equal(t, "/data/"+key, path)
	require.Contains(t, store.saved, key)
	assert.True(t, len(store.saved[key]) > 4 && string(store.saved[key][:4]) == "%PDF")
}

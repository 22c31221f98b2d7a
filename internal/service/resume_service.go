package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/scoring"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
	"github.com/placementhub/placement-api/pkg/export"
)

type resumeRepository interface {
	Create(ctx context.Context, resume *models.Resume) error
	FindByID(ctx context.Context, id string) (*models.Resume, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Resume, error)
	Update(ctx context.Context, resume *models.Resume) error
	Delete(ctx context.Context, id string) error
	ClearDefault(ctx context.Context, studentID string) error
	ListTemplates(ctx context.Context, activeOnly bool) ([]models.ResumeTemplate, error)
	FindTemplate(ctx context.Context, id string) (*models.ResumeTemplate, error)
}

type resumeStorage interface {
	Save(filename string, data []byte) (string, error)
}

// ResumeService handles builder resumes, ATS analysis, and PDF rendering.
type ResumeService struct {
	repo      resumeRepository
	storage   resumeStorage
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResumeService constructs the resume service.
func NewResumeService(repo resumeRepository, storage resumeStorage, pdf *export.PDFExporter, validate *validator.Validate, logger *zap.Logger) *ResumeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeService{repo: repo, storage: storage, pdf: pdf, validator: validate, logger: logger}
}

// Save creates a builder resume and runs ATS analysis on it.
func (s *ResumeService) Save(ctx context.Context, studentID string, req models.SaveResumeRequest) (*models.Resume, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resume payload")
	}

	if _, err := s.repo.FindTemplate(ctx, req.TemplateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}

	analysis := scoring.AnalyzeResume(req.Content)

	if req.IsDefault {
		if err := s.repo.ClearDefault(ctx, studentID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear default")
		}
	}

	resume := &models.Resume{
		StudentID:   studentID,
		Title:       req.Title,
		TemplateID:  req.TemplateID,
		Content:     models.ResumeContentDoc{ResumeContent: req.Content},
		ATSScore:    analysis.Score,
		ATSAnalysis: models.ATSAnalysisDoc{ATSAnalysis: analysis},
		IsDefault:   req.IsDefault,
	}
	if err := s.repo.Create(ctx, resume); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resume")
	}
	return resume, nil
}

// Update replaces a resume's content and re-runs ATS analysis.
func (s *ResumeService) Update(ctx context.Context, studentID, resumeID string, req models.SaveResumeRequest) (*models.Resume, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resume payload")
	}

	resume, err := s.ownedResume(ctx, studentID, resumeID)
	if err != nil {
		return nil, err
	}

	analysis := scoring.AnalyzeResume(req.Content)

	if req.IsDefault && !resume.IsDefault {
		if err := s.repo.ClearDefault(ctx, studentID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear default")
		}
	}

	resume.Title = req.Title
	resume.TemplateID = req.TemplateID
	resume.Content = models.ResumeContentDoc{ResumeContent: req.Content}
	resume.ATSScore = analysis.Score
	resume.ATSAnalysis = models.ATSAnalysisDoc{ATSAnalysis: analysis}
	resume.IsDefault = req.IsDefault

	if err := s.repo.Update(ctx, resume); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resume")
	}
	return resume, nil
}

// Get returns one resume with its analysis.
func (s *ResumeService) Get(ctx context.Context, studentID, resumeID string) (*models.Resume, error) {
	return s.ownedResume(ctx, studentID, resumeID)
}

// List returns a student's resumes.
func (s *ResumeService) List(ctx context.Context, studentID string) ([]models.Resume, error) {
	resumes, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resumes")
	}
	return resumes, nil
}

// Delete removes a resume owned by the student.
func (s *ResumeService) Delete(ctx context.Context, studentID, resumeID string) error {
	if _, err := s.ownedResume(ctx, studentID, resumeID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, resumeID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resume")
	}
	return nil
}

// Analyze re-runs ATS analysis without persisting, for live feedback in
// the builder.
func (s *ResumeService) Analyze(ctx context.Context, content models.ResumeContent) models.ATSAnalysis {
	return scoring.AnalyzeResume(content)
}

// Templates lists the selectable resume layouts.
func (s *ResumeService) Templates(ctx context.Context) ([]models.ResumeTemplate, error) {
	templates, err := s.repo.ListTemplates(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// Render produces a PDF of the resume and stores it, returning the
// storage path.
func (s *ResumeService) Render(ctx context.Context, studentID, resumeID string) (string, error) {
	resume, err := s.ownedResume(ctx, studentID, resumeID)
	if err != nil {
		return "", err
	}

	doc := resumeDataset(resume)
	payload, err := s.pdf.Render(doc, resume.Title)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render resume")
	}

	path := fmt.Sprintf("resumes/%s/%s.pdf", studentID, resumeID)
	stored, err := s.storage.Save(path, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store resume pdf")
	}
	return stored, nil
}

func (s *ResumeService) ownedResume(ctx context.Context, studentID, resumeID string) (*models.Resume, error) {
	resume, err := s.repo.FindByID(ctx, resumeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resume not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resume")
	}
	if resume.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "resume belongs to another student")
	}
	return resume, nil
}

// resumeDataset flattens resume content into the tabular shape the PDF
// exporter renders.
func resumeDataset(resume *models.Resume) export.Dataset {
	c := resume.Content.ResumeContent
	row := func(section, detail string) map[string]string {
		return map[string]string{"Section": section, "Detail": detail}
	}
	rows := []map[string]string{
		row("Name", c.Contact.Name),
		row("Email", c.Contact.Email),
		row("Phone", c.Contact.Phone),
		row("Location", c.Contact.Location),
		row("Summary", c.Summary),
		row("Technical Skills", strings.Join(c.TechnicalSkills, ", ")),
		row("Soft Skills", strings.Join(c.SoftSkills, ", ")),
	}
	for _, e := range c.Education {
		rows = append(rows, row("Education", fmt.Sprintf("%s, %s (%d-%d) %s", e.Institution, e.Degree, e.StartYear, e.EndYear, e.Grade)))
	}
	for _, e := range c.Experience {
		rows = append(rows, row("Experience", fmt.Sprintf("%s, %s (%s to %s)", e.Company, e.Role, e.StartDate, e.EndDate)))
	}
	for _, p := range c.Projects {
		rows = append(rows, row("Project", fmt.Sprintf("%s: %s", p.Title, p.Description)))
	}
	return export.Dataset{
		Headers: []string{"Section", "Detail"},
		Rows:    rows,
	}
}

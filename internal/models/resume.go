package models

import (
	"database/sql/driver"
	"time"
)

// ResumeContact is the contact header of a structured resume.
type ResumeContact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// ResumeEducation is one education entry in a resume.
type ResumeEducation struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartYear   int    `json:"start_year"`
	EndYear     int    `json:"end_year"`
	Grade       string `json:"grade"`
}

// ResumeExperience is one work or internship entry in a resume.
type ResumeExperience struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// ResumeProject is one project entry in a resume.
type ResumeProject struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Link         string   `json:"link,omitempty"`
}

// ResumeContent is the full structured body of a builder resume.
type ResumeContent struct {
	Contact         ResumeContact      `json:"contact"`
	Summary         string             `json:"summary"`
	Education       []ResumeEducation  `json:"education"`
	Experience      []ResumeExperience `json:"experience"`
	Projects        []ResumeProject    `json:"projects"`
	TechnicalSkills []string           `json:"technical_skills"`
	SoftSkills      []string           `json:"soft_skills"`
	Certifications  []string           `json:"certifications"`
}

// Resume is a stored builder resume with its latest ATS analysis.
type Resume struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	Title       string           `db:"title" json:"title"`
	TemplateID  string           `db:"template_id" json:"template_id"`
	Content     ResumeContentDoc `db:"content" json:"content"`
	ATSScore    int              `db:"ats_score" json:"ats_score"`
	ATSAnalysis ATSAnalysisDoc   `db:"ats_analysis" json:"ats_analysis"`
	IsDefault   bool             `db:"is_default" json:"is_default"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// ATSCheck is one scored component of an ATS analysis.
type ATSCheck struct {
	Component string `json:"component"`
	Passed    bool   `json:"passed"`
	Points    int    `json:"points"`
	MaxPoints int    `json:"max_points"`
	Hint      string `json:"hint,omitempty"`
}

// ATSAnalysis is the full outcome of scoring a resume.
type ATSAnalysis struct {
	Score           int        `json:"score"`
	Checks          []ATSCheck `json:"checks"`
	MatchedKeywords []string   `json:"matched_keywords"`
	MissingKeywords []string   `json:"missing_keywords"`
	Suggestions     []string   `json:"suggestions"`
	Optimized       bool       `json:"optimized"`
	AnalyzedAt      time.Time  `json:"analyzed_at"`
}

// ResumeTemplate is a selectable layout for rendered resumes.
type ResumeTemplate struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	PreviewURL  string    `db:"preview_url" json:"preview_url,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SaveResumeRequest creates or replaces a builder resume.
type SaveResumeRequest struct {
	Title      string        `json:"title" validate:"required"`
	TemplateID string        `json:"template_id" validate:"required"`
	Content    ResumeContent `json:"content" validate:"required"`
	IsDefault  bool          `json:"is_default"`
}

type ResumeContentDoc struct{ ResumeContent }

func (d ResumeContentDoc) Value() (driver.Value, error) { return jsonbValue(d.ResumeContent) }
func (d *ResumeContentDoc) Scan(v interface{}) error    { return jsonbScan(&d.ResumeContent, v) }

type ATSAnalysisDoc struct{ ATSAnalysis }

func (d ATSAnalysisDoc) Value() (driver.Value, error) { return jsonbValue(d.ATSAnalysis) }
func (d *ATSAnalysisDoc) Scan(v interface{}) error    { return jsonbScan(&d.ATSAnalysis, v) }

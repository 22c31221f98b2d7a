package models

import (
	"database/sql/driver"
	"time"
)

// PersonalInfo carries the identity section of a student profile.
type PersonalInfo struct {
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Department string `json:"department"`
	Batch      string `json:"batch"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// AcademicInfo is the academic record used by eligibility evaluation.
type AcademicInfo struct {
	CGPA              float64 `json:"cgpa"`
	CurrentSemester   int     `json:"current_semester"`
	Backlogs          int     `json:"backlogs"`
	StandingArrears   int     `json:"standing_arrears"`
	TenthPercentage   float64 `json:"tenth_percentage"`
	TenthBoard        string  `json:"tenth_board"`
	TenthYear         int     `json:"tenth_year"`
	TwelfthPercentage float64 `json:"twelfth_percentage"`
	TwelfthBoard      string  `json:"twelfth_board"`
	TwelfthYear       int     `json:"twelfth_year"`
	PassoutYear       int     `json:"passout_year"`
}

// SkillSet groups technical and soft skills.
type SkillSet struct {
	Technical  []string `json:"technical"`
	SoftSkills []string `json:"soft_skills"`
	Languages  []string `json:"languages"`
}

// Internship describes a prior internship engagement.
type Internship struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// ProjectEntry describes a student project.
type ProjectEntry struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Duration     string   `json:"duration"`
	Link         string   `json:"link,omitempty"`
}

// ExperienceInfo aggregates internships and projects.
type ExperienceInfo struct {
	Internships []Internship   `json:"internships"`
	Projects    []ProjectEntry `json:"projects"`
}

// Achievement is a dated accomplishment record.
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Type        string `json:"type"`
}

// ResumeRef points at an uploaded resume document.
type ResumeRef struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
	IsDefault  bool      `json:"is_default"`
}

// SocialLinks holds optional external profile URLs.
type SocialLinks struct {
	GitHub    string `json:"github,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// StudentProfile is the one-to-one extension of a student user.
type StudentProfile struct {
	ID                string            `db:"id" json:"id"`
	UserID            string            `db:"user_id" json:"user_id"`
	Personal          PersonalInfoDoc   `db:"personal_info" json:"personal_info"`
	Academic          AcademicInfoDoc   `db:"academic_info" json:"academic_info"`
	Skills            SkillSetDoc       `db:"skills" json:"skills"`
	Experience        ExperienceDoc     `db:"experience" json:"experience"`
	Achievements      AchievementsDoc   `db:"achievements" json:"achievements"`
	Resumes           ResumeRefsDoc     `db:"resumes" json:"resumes"`
	Social            SocialLinksDoc    `db:"social_links" json:"social_links"`
	Visibility        ProfileVisibility `db:"visibility" json:"visibility"`
	CompletenessScore int               `db:"completeness_score" json:"completeness_score"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// ProfileVisibility labels who may view a profile.
type ProfileVisibility string

const (
	ProfileVisibilityPublic  ProfileVisibility = "public"
	ProfileVisibilityPrivate ProfileVisibility = "private"
)

// ProfileFilter captures query parameters for listing profiles.
type ProfileFilter struct {
	Department string
	Batch      string
	MinCGPA    *float64
	Search     string
	Page       int
	PageSize   int
}

// JSONB wrappers so sqlx can persist document-shaped sections.

type PersonalInfoDoc struct{ PersonalInfo }

func (d PersonalInfoDoc) Value() (driver.Value, error) { return jsonbValue(d.PersonalInfo) }
func (d *PersonalInfoDoc) Scan(v interface{}) error    { return jsonbScan(&d.PersonalInfo, v) }

type AcademicInfoDoc struct{ AcademicInfo }

func (d AcademicInfoDoc) Value() (driver.Value, error) { return jsonbValue(d.AcademicInfo) }
func (d *AcademicInfoDoc) Scan(v interface{}) error    { return jsonbScan(&d.AcademicInfo, v) }

type SkillSetDoc struct{ SkillSet }

func (d SkillSetDoc) Value() (driver.Value, error) { return jsonbValue(d.SkillSet) }
func (d *SkillSetDoc) Scan(v interface{}) error    { return jsonbScan(&d.SkillSet, v) }

type ExperienceDoc struct{ ExperienceInfo }

func (d ExperienceDoc) Value() (driver.Value, error) { return jsonbValue(d.ExperienceInfo) }
func (d *ExperienceDoc) Scan(v interface{}) error    { return jsonbScan(&d.ExperienceInfo, v) }

type AchievementsDoc struct {
	Items []Achievement
}

func (d AchievementsDoc) Value() (driver.Value, error) { return jsonbValue(d.Items) }
func (d *AchievementsDoc) Scan(v interface{}) error    { return jsonbScan(&d.Items, v) }

type ResumeRefsDoc struct {
	Items []ResumeRef
}

func (d ResumeRefsDoc) Value() (driver.Value, error) { return jsonbValue(d.Items) }
func (d *ResumeRefsDoc) Scan(v interface{}) error    { return jsonbScan(&d.Items, v) }

type SocialLinksDoc struct{ SocialLinks }

func (d SocialLinksDoc) Value() (driver.Value, error) { return jsonbValue(d.SocialLinks) }
func (d *SocialLinksDoc) Scan(v interface{}) error    { return jsonbScan(&d.SocialLinks, v) }

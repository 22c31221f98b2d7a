package models

import (
	"database/sql/driver"
	"time"
)

// EligibilityCriteria is the configurable rule set a drive evaluates
// candidates against. Optional thresholds are pointers: a nil field means
// the criterion is not part of this rule.
type EligibilityCriteria struct {
	MinCGPA               float64  `json:"min_cgpa" validate:"gte=0,lte=10"`
	MaxBacklogs           int      `json:"max_backlogs" validate:"gte=0"`
	AllowedDepartments    []string `json:"allowed_departments" validate:"required,min=1"`
	NoStandingArrears     *bool    `json:"no_standing_arrears,omitempty"`
	MinTenthPercentage    *float64 `json:"min_tenth_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	MinTwelfthPercentage  *float64 `json:"min_twelfth_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	AllowedPassoutYears   []int    `json:"allowed_passout_years,omitempty"`
}

// EligibilityRule is a stored, named criteria set. A nil DriveID makes
// the rule global; several rules may apply to one drive and the check
// picks the highest-priority active one.
type EligibilityRule struct {
	ID          string                 `db:"id" json:"id"`
	Name        string                 `db:"name" json:"name"`
	Description string                 `db:"description" json:"description"`
	Criteria    EligibilityCriteriaDoc `db:"criteria" json:"criteria"`
	DriveID     *string                `db:"drive_id" json:"drive_id,omitempty"`
	Priority    int                    `db:"priority" json:"priority"`
	CreatedBy   string                 `db:"created_by" json:"created_by"`
	Active      bool                   `db:"active" json:"active"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `db:"updated_at" json:"updated_at"`
}

// CriterionCheck is the outcome of one criterion inside an evaluation.
type CriterionCheck struct {
	Criterion string `json:"criterion"`
	Required  string `json:"required"`
	Actual    string `json:"actual"`
	Passed    bool   `json:"passed"`
	Weight    int    `json:"weight"`
}

// EligibilityResult is a persisted evaluation of one student against one rule.
type EligibilityResult struct {
	ID              string             `db:"id" json:"id"`
	StudentID       string             `db:"student_id" json:"student_id"`
	RuleID          string             `db:"rule_id" json:"rule_id"`
	DriveID         *string            `db:"drive_id" json:"drive_id,omitempty"`
	Eligible        bool               `db:"eligible" json:"eligible"`
	Score           int                `db:"score" json:"score"`
	Checks          CriterionChecksDoc `db:"checks" json:"checks"`
	Explanation     string             `db:"explanation" json:"explanation"`
	Recommendations RecommendationsDoc `db:"recommendations" json:"recommendations"`
	Overridden      bool               `db:"overridden" json:"overridden"`
	EvaluatedAt     time.Time          `db:"evaluated_at" json:"evaluated_at"`
}

// EligibilityOverride lets an officer admit a student a rule rejected.
type EligibilityOverride struct {
	ID        string    `db:"id" json:"id"`
	ResultID  string    `db:"result_id" json:"result_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	DriveID   string    `db:"drive_id" json:"drive_id"`
	Reason    string    `db:"reason" json:"reason"`
	GrantedBy string    `db:"granted_by" json:"granted_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateRuleRequest is the payload for defining an eligibility rule.
type CreateRuleRequest struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description"`
	Criteria    EligibilityCriteria `json:"criteria" validate:"required"`
	DriveID     *string             `json:"drive_id,omitempty" validate:"omitempty,uuid"`
	Priority    int                 `json:"priority" validate:"gte=0"`
}

// OverrideRequest grants an eligibility override for a drive.
type OverrideRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	DriveID   string `json:"drive_id" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"required,min=10"`
}

// EligibilityStats aggregates evaluation outcomes for a rule.
type EligibilityStats struct {
	RuleID        string  `db:"rule_id" json:"rule_id"`
	TotalChecked  int     `db:"total_checked" json:"total_checked"`
	EligibleCount int     `db:"eligible_count" json:"eligible_count"`
	AverageScore  float64 `db:"average_score" json:"average_score"`
	OverrideCount int     `db:"override_count" json:"override_count"`
}

type EligibilityCriteriaDoc struct{ EligibilityCriteria }

func (d EligibilityCriteriaDoc) Value() (driver.Value, error) { return jsonbValue(d.EligibilityCriteria) }
func (d *EligibilityCriteriaDoc) Scan(v interface{}) error {
	return jsonbScan(&d.EligibilityCriteria, v)
}

type CriterionChecksDoc struct {
	Items []CriterionCheck
}

func (d CriterionChecksDoc) Value() (driver.Value, error) { return jsonbValue(d.Items) }
func (d *CriterionChecksDoc) Scan(v interface{}) error    { return jsonbScan(&d.Items, v) }

type RecommendationsDoc struct {
	Items []string
}

func (d RecommendationsDoc) Value() (driver.Value, error) { return jsonbValue(d.Items) }
func (d *RecommendationsDoc) Scan(v interface{}) error    { return jsonbScan(&d.Items, v) }

package models

import (
	"time"

	"github.com/lib/pq"
)

// DriveStatus is the lifecycle state of a company drive.
type DriveStatus string

const (
	DriveStatusUpcoming  DriveStatus = "upcoming"
	DriveStatusOngoing   DriveStatus = "ongoing"
	DriveStatusCompleted DriveStatus = "completed"
	DriveStatusCancelled DriveStatus = "cancelled"
)

// DriveMode tells whether a drive runs on campus, off campus, or virtually.
type DriveMode string

const (
	DriveModeOnCampus  DriveMode = "on-campus"
	DriveModeOffCampus DriveMode = "off-campus"
	DriveModeVirtual   DriveMode = "virtual"
)

// CompanyDrive is a placement drive announced by a company.
type CompanyDrive struct {
	ID               string         `db:"id" json:"id"`
	CompanyName      string         `db:"company_name" json:"company_name"`
	CompanyLogoURL   string         `db:"company_logo_url" json:"company_logo_url,omitempty"`
	Description      string         `db:"description" json:"description"`
	Status           DriveStatus    `db:"status" json:"status"`
	Mode             DriveMode      `db:"mode" json:"mode"`
	Venue            string         `db:"venue" json:"venue,omitempty"`
	DriveDate        time.Time      `db:"drive_date" json:"drive_date"`
	RegistrationOpen time.Time      `db:"registration_open" json:"registration_open"`
	RegistrationEnd  time.Time      `db:"registration_end" json:"registration_end"`
	EligibilityRule  *string        `db:"eligibility_rule_id" json:"eligibility_rule_id,omitempty"`
	Rounds           pq.StringArray `db:"rounds" json:"rounds"`
	ContactEmail     string         `db:"contact_email" json:"contact_email,omitempty"`
	CreatedBy        string         `db:"created_by" json:"created_by"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`

	Positions []DrivePosition `db:"-" json:"positions,omitempty"`
}

// DrivePosition is one role offered in a drive. Registrations count against
// positions_available, so positions live in their own table rather than a
// JSON document on the drive.
type DrivePosition struct {
	ID                 string         `db:"id" json:"id"`
	DriveID            string         `db:"drive_id" json:"drive_id"`
	Title              string         `db:"title" json:"title"`
	PackageLPA         float64        `db:"package_lpa" json:"package_lpa"`
	Location           string         `db:"location" json:"location"`
	PositionsAvailable int            `db:"positions_available" json:"positions_available"`
	Registered         int            `db:"registered" json:"registered"`
	SkillsRequired     pq.StringArray `db:"skills_required" json:"skills_required"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

// CreateDriveRequest is the payload for announcing a drive.
type CreateDriveRequest struct {
	CompanyName      string                  `json:"company_name" validate:"required"`
	CompanyLogoURL   string                  `json:"company_logo_url"`
	Description      string                  `json:"description" validate:"required"`
	Mode             DriveMode               `json:"mode" validate:"required,oneof=on-campus off-campus virtual"`
	Venue            string                  `json:"venue"`
	DriveDate        time.Time               `json:"drive_date" validate:"required"`
	RegistrationOpen time.Time               `json:"registration_open" validate:"required"`
	RegistrationEnd  time.Time               `json:"registration_end" validate:"required"`
	EligibilityRule  *string                 `json:"eligibility_rule_id"`
	Rounds           []string                `json:"rounds"`
	ContactEmail     string                  `json:"contact_email" validate:"omitempty,email"`
	Positions        []CreatePositionRequest `json:"positions" validate:"required,min=1,dive"`
}

// CreatePositionRequest describes one position within a new drive.
type CreatePositionRequest struct {
	Title              string   `json:"title" validate:"required"`
	PackageLPA         float64  `json:"package_lpa" validate:"gte=0"`
	Location           string   `json:"location"`
	PositionsAvailable int      `json:"positions_available" validate:"required,gt=0"`
	SkillsRequired     []string `json:"skills_required"`
}

// UpdateDriveRequest carries partial drive updates.
type UpdateDriveRequest struct {
	Description      *string      `json:"description"`
	Status           *DriveStatus `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
	Venue            *string      `json:"venue"`
	DriveDate        *time.Time   `json:"drive_date"`
	RegistrationOpen *time.Time   `json:"registration_open"`
	RegistrationEnd  *time.Time   `json:"registration_end"`
	EligibilityRule  *string      `json:"eligibility_rule_id"`
	Rounds           []string     `json:"rounds"`
	ContactEmail     *string      `json:"contact_email" validate:"omitempty,email"`
}

// DriveFilter captures query parameters for listing drives.
type DriveFilter struct {
	Status   DriveStatus
	Mode     DriveMode
	Search   string
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	PageSize int
}

package models

import "time"

// RegistrationStatus tracks a student's progress through a drive.
type RegistrationStatus string

const (
	RegistrationStatusRegistered  RegistrationStatus = "registered"
	RegistrationStatusShortlisted RegistrationStatus = "shortlisted"
	RegistrationStatusInterviewed RegistrationStatus = "interviewed"
	RegistrationStatusSelected    RegistrationStatus = "selected"
	RegistrationStatusRejected    RegistrationStatus = "rejected"
	RegistrationStatusWithdrawn   RegistrationStatus = "withdrawn"
)

// DriveRegistration links a student to a drive position.
type DriveRegistration struct {
	ID           string             `db:"id" json:"id"`
	DriveID      string             `db:"drive_id" json:"drive_id"`
	PositionID   string             `db:"position_id" json:"position_id"`
	StudentID    string             `db:"student_id" json:"student_id"`
	Status       RegistrationStatus `db:"status" json:"status"`
	ResumeID     *string            `db:"resume_id" json:"resume_id,omitempty"`
	CurrentRound int                `db:"current_round" json:"current_round"`
	Remarks      string             `db:"remarks" json:"remarks,omitempty"`
	RegisteredAt time.Time          `db:"registered_at" json:"registered_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// RegisterForDriveRequest is the student-facing registration payload.
type RegisterForDriveRequest struct {
	PositionID string  `json:"position_id" validate:"required,uuid"`
	ResumeID   *string `json:"resume_id" validate:"omitempty,uuid"`
}

// UpdateRegistrationRequest advances or closes a registration.
type UpdateRegistrationRequest struct {
	Status       RegistrationStatus `json:"status" validate:"required,oneof=registered shortlisted interviewed selected rejected withdrawn"`
	CurrentRound *int               `json:"current_round" validate:"omitempty,gte=0"`
	Remarks      string             `json:"remarks"`
}

// RegistrationFilter captures query parameters for listing registrations.
type RegistrationFilter struct {
	DriveID    string
	StudentID  string
	Status     RegistrationStatus
	Department string
	Page       int
	PageSize   int
}

// RegistrationSummary aggregates registration outcomes for a drive.
type RegistrationSummary struct {
	DriveID     string `db:"drive_id" json:"drive_id"`
	Total       int    `db:"total" json:"total"`
	Shortlisted int    `db:"shortlisted" json:"shortlisted"`
	Selected    int    `db:"selected" json:"selected"`
	Rejected    int    `db:"rejected" json:"rejected"`
	Withdrawn   int    `db:"withdrawn" json:"withdrawn"`
}

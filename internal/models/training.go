package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionStatus is the lifecycle state of a training session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusOngoing   SessionStatus = "ongoing"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// TrainingSession is a scheduled training event run by a trainer.
type TrainingSession struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Topic       string         `db:"topic" json:"topic"`
	TrainerID   string         `db:"trainer_id" json:"trainer_id"`
	Venue       string         `db:"venue" json:"venue"`
	StartTime   time.Time      `db:"start_time" json:"start_time"`
	EndTime     time.Time      `db:"end_time" json:"end_time"`
	Capacity    int            `db:"capacity" json:"capacity"`
	Status      SessionStatus  `db:"status" json:"status"`
	TargetDepts pq.StringArray `db:"target_departments" json:"target_departments"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AttendanceStatus marks a student's presence at a session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// AttendanceRecord is one student's attendance mark for one session.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	SessionID string           `db:"session_id" json:"session_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	MarkedAt  time.Time        `db:"marked_at" json:"marked_at"`
}

// AttendanceSummary aggregates a student's attendance across sessions.
type AttendanceSummary struct {
	StudentID      string  `db:"student_id" json:"student_id"`
	TotalSessions  int     `db:"total_sessions" json:"total_sessions"`
	Present        int     `db:"present" json:"present"`
	Absent         int     `db:"absent" json:"absent"`
	Excused        int     `db:"excused" json:"excused"`
	AttendanceRate float64 `db:"attendance_rate" json:"attendance_rate"`
}

// CreateSessionRequest schedules a training session.
type CreateSessionRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Topic       string    `json:"topic" validate:"required"`
	Venue       string    `json:"venue"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
	TargetDepts []string  `json:"target_departments"`
}

// MarkAttendanceRequest records attendance for multiple students at once.
type MarkAttendanceRequest struct {
	Records []AttendanceMark `json:"records" validate:"required,min=1,dive"`
}

// AttendanceMark is one entry inside a bulk attendance submission.
type AttendanceMark struct {
	StudentID string           `json:"student_id" validate:"required,uuid"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent excused"`
}

// SessionFilter captures query parameters for listing sessions.
type SessionFilter struct {
	Status    SessionStatus
	TrainerID string
	FromDate  *time.Time
	ToDate    *time.Time
	Page      int
	PageSize  int
}

package models

import "time"

// DashboardOverview is the aggregate snapshot shown on the officer dashboard.
type DashboardOverview struct {
	TotalStudents       int       `json:"total_students"`
	ActiveDrives        int       `json:"active_drives"`
	UpcomingDrives      int       `json:"upcoming_drives"`
	TotalRegistrations  int       `json:"total_registrations"`
	StudentsPlaced      int       `json:"students_placed"`
	PlacementRate       float64   `json:"placement_rate"`
	AverageATSScore     float64   `json:"average_ats_score"`
	AverageTestScore    float64   `json:"average_test_score"`
	SessionsThisWeek    int       `json:"sessions_this_week"`
	UnreadNotifications int       `json:"unread_notifications"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// DepartmentPlacement breaks placement numbers down per department.
type DepartmentPlacement struct {
	Department  string  `db:"department" json:"department"`
	Students    int     `db:"students" json:"students"`
	Placed      int     `db:"placed" json:"placed"`
	Rate        float64 `db:"rate" json:"rate"`
	AveragePack float64 `db:"average_package" json:"average_package"`
}

// ReadinessReport scores one student's placement readiness.
type ReadinessReport struct {
	StudentID         string    `db:"student_id" json:"student_id"`
	StudentName       string    `db:"student_name" json:"student_name"`
	AttendanceRate    float64   `db:"attendance_rate" json:"attendance_rate"`
	AvgTestPercentage float64   `db:"avg_test_percentage" json:"avg_test_percentage"`
	ATSScore          int       `db:"ats_score" json:"ats_score"`
	CompletenessScore int       `db:"completeness_score" json:"completeness_score"`
	ReadinessScore    int       `db:"-" json:"readiness_score"`
	TestsAttempted    int       `db:"tests_attempted" json:"tests_attempted"`
	DrivesRegistered  int       `db:"drives_registered" json:"drives_registered"`
	GeneratedAt       time.Time `db:"-" json:"generated_at"`
}

// TestPerformance aggregates attempt outcomes for one test.
type TestPerformance struct {
	TestID       string  `db:"test_id" json:"test_id"`
	Title        string  `db:"title" json:"title"`
	Attempts     int     `db:"attempts" json:"attempts"`
	AverageScore float64 `db:"average_score" json:"average_score"`
	HighestScore int     `db:"highest_score" json:"highest_score"`
	PassRate     float64 `db:"pass_rate" json:"pass_rate"`
}

// SystemMetrics is the operational snapshot exposed to admins.
type SystemMetrics struct {
	UsersByRole    map[string]int `json:"users_by_role"`
	DrivesByStatus map[string]int `json:"drives_by_status"`
	TestsPublished int            `json:"tests_published"`
	ResumesScored  int            `json:"resumes_scored"`
	ExportsQueued  int            `json:"exports_queued"`
	CacheHitRate   float64        `json:"cache_hit_rate"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

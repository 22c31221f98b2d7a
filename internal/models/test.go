package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
)

// TestDifficulty labels how hard a mock test is.
type TestDifficulty string

const (
	TestDifficultyEasy   TestDifficulty = "easy"
	TestDifficultyMedium TestDifficulty = "medium"
	TestDifficultyHard   TestDifficulty = "hard"
)

// TestStatus is the publication state of a mock test.
type TestStatus string

const (
	TestStatusDraft     TestStatus = "draft"
	TestStatusPublished TestStatus = "published"
	TestStatusArchived  TestStatus = "archived"
)

// Question is one multiple-choice question in a mock test. CorrectAnswer
// is stripped before a test is served to students.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Category      string   `json:"category"`
	Points        int      `json:"points"`
	Explanation   string   `json:"explanation,omitempty"`
}

// MockTest is a timed assessment students attempt.
type MockTest struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Description     string         `db:"description" json:"description"`
	Category        string         `db:"category" json:"category"`
	Difficulty      TestDifficulty `db:"difficulty" json:"difficulty"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	TotalPoints     int            `db:"total_points" json:"total_points"`
	Questions       QuestionsDoc   `db:"questions" json:"questions"`
	Status          TestStatus     `db:"status" json:"status"`
	Tags            pq.StringArray `db:"tags" json:"tags"`
	CreatedBy       string         `db:"created_by" json:"created_by"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// TestResult records one graded attempt.
type TestResult struct {
	ID             string            `db:"id" json:"id"`
	TestID         string            `db:"test_id" json:"test_id"`
	StudentID      string            `db:"student_id" json:"student_id"`
	Score          int               `db:"score" json:"score"`
	TotalPoints    int               `db:"total_points" json:"total_points"`
	Percentage     int               `db:"percentage" json:"percentage"`
	Correct        int               `db:"correct" json:"correct"`
	Wrong          int               `db:"wrong" json:"wrong"`
	Skipped        int               `db:"skipped" json:"skipped"`
	TimeTakenSecs  int               `db:"time_taken_secs" json:"time_taken_secs"`
	CategoryScores CategoryScoresDoc `db:"category_scores" json:"category_scores"`
	Answers        AnswersDoc        `db:"answers" json:"answers"`
	SubmittedAt    time.Time         `db:"submitted_at" json:"submitted_at"`
}

// SubmitTestRequest carries the student's answers keyed by question ID.
type SubmitTestRequest struct {
	Answers       map[string]string `json:"answers" validate:"required"`
	TimeTakenSecs int               `json:"time_taken_secs" validate:"gte=0"`
}

// CreateTestRequest is the trainer payload for authoring a test.
type CreateTestRequest struct {
	Title           string         `json:"title" validate:"required"`
	Description     string         `json:"description"`
	Category        string         `json:"category" validate:"required"`
	Difficulty      TestDifficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
	DurationMinutes int            `json:"duration_minutes" validate:"required,gt=0"`
	Questions       []Question     `json:"questions" validate:"required,min=1"`
	Tags            []string       `json:"tags"`
}

// TestFilter captures query parameters for listing tests.
type TestFilter struct {
	Category   string
	Difficulty TestDifficulty
	Status     TestStatus
	Search     string
	Page       int
	PageSize   int
}

// LeaderboardEntry ranks a student on a test by best attempt.
type LeaderboardEntry struct {
	Rank          int    `db:"rank" json:"rank"`
	StudentID     string `db:"student_id" json:"student_id"`
	StudentName   string `db:"student_name" json:"student_name"`
	Score         int    `db:"score" json:"score"`
	Percentage    int    `db:"percentage" json:"percentage"`
	TimeTakenSecs int    `db:"time_taken_secs" json:"time_taken_secs"`
	Attempts      int    `db:"attempts" json:"attempts"`
}

type QuestionsDoc struct {
	Items []Question
}

func (d QuestionsDoc) Value() (driver.Value, error) { return jsonbValue(d.Items) }
func (d *QuestionsDoc) Scan(v interface{}) error    { return jsonbScan(&d.Items, v) }

type CategoryScoresDoc struct {
	Scores map[string]int
}

func (d CategoryScoresDoc) Value() (driver.Value, error) { return jsonbValue(d.Scores) }
func (d *CategoryScoresDoc) Scan(v interface{}) error    { return jsonbScan(&d.Scores, v) }

type AnswersDoc struct {
	Answers map[string]string
}

func (d AnswersDoc) Value() (driver.Value, error) { return jsonbValue(d.Answers) }
func (d *AnswersDoc) Scan(v interface{}) error    { return jsonbScan(&d.Answers, v) }

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/scoring"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
)

type testRepository interface {
	Create(ctx context.Context, test *models.MockTest) error
	FindByID(ctx context.Context, id string) (*models.MockTest, error)
	List(ctx context.Context, filter models.TestFilter) ([]models.MockTest, int, error)
	UpdateStatus(ctx context.Context, id string, status models.TestStatus) error
	SaveResult(ctx context.Context, result *models.TestResult) error
	ResultsByStudent(ctx context.Context, studentID string) ([]models.TestResult, error)
	Leaderboard(ctx context.Context, testID string, limit int) ([]models.LeaderboardEntry, error)
	Performance(ctx context.Context, testID string) (*models.TestPerformance, error)
}

type leaderboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// TestService handles mock test authoring, attempts, and rankings.
type TestService struct {
	repo      testRepository
	cache     leaderboardCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTestService constructs the test service.
func NewTestService(repo testRepository, cache leaderboardCache, validate *validator.Validate, logger *zap.Logger) *TestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create authors a new mock test in draft state. Question IDs and the
// total point budget are assigned here.
func (s *TestService) Create(ctx context.Context, createdBy string, req models.CreateTestRequest) (*models.MockTest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}

	total := 0
	for i := range req.Questions {
		q := &req.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.Points <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "every question needs a positive point value")
		}
		if q.CorrectAnswer == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "every question needs a correct answer")
		}
		total += q.Points
	}

	test := &models.MockTest{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Difficulty:      req.Difficulty,
		DurationMinutes: req.DurationMinutes,
		TotalPoints:     total,
		Questions:       models.QuestionsDoc{Items: req.Questions},
		Tags:            pq.StringArray(req.Tags),
		CreatedBy:       createdBy,
	}
	if err := s.repo.Create(ctx, test); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create test")
	}
	return test, nil
}

// Publish makes a draft test available to students.
func (s *TestService) Publish(ctx context.Context, id string) error {
	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test")
	}
	if test.Status == models.TestStatusPublished {
		return appErrors.Clone(appErrors.ErrConflict, "test is already published")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.TestStatusPublished); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish test")
	}
	return nil
}

// Get returns a test. For students the correct answers and explanations
// are stripped so the payload is safe to serve before an attempt.
func (s *TestService) Get(ctx context.Context, id string, viewerRole models.UserRole) (*models.MockTest, error) {
	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test")
	}
	if viewerRole == models.RoleStudent {
		if test.Status != models.TestStatusPublished {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		sanitized := make([]models.Question, len(test.Questions.Items))
		copy(sanitized, test.Questions.Items)
		for i := range sanitized {
			sanitized[i].CorrectAnswer = ""
			sanitized[i].Explanation = ""
		}
		test.Questions.Items = sanitized
	}
	return test, nil
}

// List returns tests and pagination metadata. Students only see
// published tests.
func (s *TestService) List(ctx context.Context, filter models.TestFilter, viewerRole models.UserRole) ([]models.MockTest, *models.Pagination, error) {
	if viewerRole == models.RoleStudent {
		filter.Status = models.TestStatusPublished
	}
	tests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tests")
	}
	for i := range tests {
		// Listings never carry question bodies.
		tests[i].Questions.Items = nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return tests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Submit grades an attempt and persists the result.
func (s *TestService) Submit(ctx context.Context, studentID, testID string, req models.SubmitTestRequest) (*models.TestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	test, err := s.repo.FindByID(ctx, testID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test")
	}
	if test.Status != models.TestStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "test is not open for attempts")
	}

	graded := scoring.GradeAttempt(test.Questions.Items, req.Answers)

	result := &models.TestResult{
		TestID:         testID,
		StudentID:      studentID,
		Score:          graded.Score,
		TotalPoints:    graded.TotalPoints,
		Percentage:     graded.Percentage,
		Correct:        graded.Correct,
		Wrong:          graded.Wrong,
		Skipped:        graded.Skipped,
		TimeTakenSecs:  req.TimeTakenSecs,
		CategoryScores: models.CategoryScoresDoc{Scores: graded.CategoryScores},
		Answers:        models.AnswersDoc{Answers: req.Answers},
	}
	if err := s.repo.SaveResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save result")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "leaderboard:"+testID+":*"); err != nil {
			s.logger.Warn("failed to invalidate leaderboard cache", zap.Error(err))
		}
	}
	return result, nil
}

// History returns a student's attempt history.
func (s *TestService) History(ctx context.Context, studentID string) ([]models.TestResult, error) {
	results, err := s.repo.ResultsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	return results, nil
}

// Leaderboard ranks students on a test, serving from cache when warm.
func (s *TestService) Leaderboard(ctx context.Context, testID string, limit int) ([]models.LeaderboardEntry, error) {
	cacheKey := fmt.Sprintf("leaderboard:%s:%d", testID, limit)
	if s.cache != nil {
		var cached []models.LeaderboardEntry
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	entries, err := s.repo.Leaderboard(ctx, testID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, entries, 5*time.Minute); err != nil {
			s.logger.Warn("failed to cache leaderboard", zap.Error(err))
		}
	}
	return entries, nil
}

// Performance aggregates attempt outcomes for one test.
func (s *TestService) Performance(ctx context.Context, testID string) (*models.TestPerformance, error) {
	perf, err := s.repo.Performance(ctx, testID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance")
	}
	return perf, nil
}

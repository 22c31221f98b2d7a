package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
)

type testRepoStub struct {
	tests   map[string]*models.MockTest
	results []*models.TestResult
}

func newTestRepoStub() *testRepoStub {
	return &testRepoStub{tests: map[string]*models.MockTest{}}
}

func (r *testRepoStub) Create(ctx context.Context, test *models.MockTest) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	if test.Status == "" {
		test.Status = models.TestStatusDraft
	}
	r.tests[test.ID] = test
	return nil
}

func (r *testRepoStub) FindByID(ctx context.Context, id string) (*models.MockTest, error) {
	test, ok := r.tests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *test
	return &copied, nil
}

func (r *testRepoStub) List(ctx context.Context, filter models.TestFilter) ([]models.MockTest, int, error) {
	var tests []models.MockTest
	for _, test := range r.tests {
		if filter.Status != "" && test.Status != filter.Status {
			continue
		}
		tests = append(tests, *test)
	}
	return tests, len(tests), nil
}

func (r *testRepoStub) UpdateStatus(ctx context.Context, id string, status models.TestStatus) error {
	test, ok := r.tests[id]
	if !ok {
		return sql.ErrNoRows
	}
	test.Status = status
	return nil
}

func (r *testRepoStub) SaveResult(ctx context.Context, result *models.TestResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	r.results = append(r.results, result)
	return nil
}

func (r *testRepoStub) ResultsByStudent(ctx context.Context, studentID string) ([]models.TestResult, error) {
	var results []models.TestResult
	for _, result := range r.results {
		if result.StudentID == studentID {
			results = append(results, *result)
		}
	}
	return results, nil
}

func (r *testRepoStub) Leaderboard(ctx context.Context, testID string, limit int) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{{Rank: 1, StudentID: "student-1"}}, nil
}

func (r *testRepoStub) Performance(ctx context.Context, testID string) (*models.TestPerformance, error) {
	return &models.TestPerformance{TestID: testID}, nil
}

type cacheStub struct {
	store   map[string][]byte
	deletes []string
}

func newCacheStub() *cacheStub {
	return &cacheStub{store: map[string][]byte{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.store[key] = nil
	return nil
}

func (c *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.deletes = append(c.deletes, pattern)
	return nil
}

func sampleCreateTestRequest() models.CreateTestRequest {
	return models.CreateTestRequest{
		Title:           "Aptitude Round 1",
		Category:        "aptitude",
		Difficulty:      models.TestDifficultyMedium,
		DurationMinutes: 30,
		Questions: []models.Question{
			{Text: "2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: "4", Category: "math", Points: 2},
			{Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectAnswer: "Paris", Category: "gk", Points: 3},
		},
	}
}

func newTestServiceForTest() (*TestService, *testRepoStub, *cacheStub) {
	repo := newTestRepoStub()
	cache := newCacheStub()
	svc := NewTestService(repo, cache, nil, zap.NewNop())
	return svc, repo, cache
}

func TestTestServiceCreateAssignsIDsAndTotals(t *testing.T) {
	svc, _, _ := newTestServiceForTest()

	test, err := svc.Create(context.Background(), "trainer-1", sampleCreateTestRequest())
	require.NoError(t, err)
	assert.Equal(t, 5, test.TotalPoints)
	assert.Equal(t, models.TestStatusDraft, test.Status)
	for _, q := range test.Questions.Items {
		assert.NotEmpty(t, q.ID)
	}
}

func TestTestServiceGetStripsAnswersForStudents(t *testing.T) {
	svc, repo, _ := newTestServiceForTest()
	created, err := svc.Create(context.Background(), "trainer-1", sampleCreateTestRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Publish(context.Background(), created.ID))

	got, err := svc.Get(context.Background(), created.ID, models.RoleStudent)
	require.NoError(t, err)
	for _, q := range got.Questions.Items {
		assert.Empty(t, q.CorrectAnswer)
		assert.Empty(t, q.Explanation)
	}

	// The stored copy keeps its answers.
	stored := repo.tests[created.ID]
	assert.Equal(t, "4", stored.Questions.Items[0].CorrectAnswer)
}

func TestTestServiceGetHidesDraftsFromStudents(t *testing.T) {
	svc, _, _ := newTestServiceForTest()
	created, err := svc.Create(context.Background(), "trainer-1", sampleCreateTestRequest())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID, models.RoleStudent)
	require.Error(t, err)

	_, err = svc.Get(context.Background(), created.ID, models.RoleTrainer)
	require.NoError(t, err)
}

func TestTestServicePublishTwiceConflicts(t *testing.T) {
	svc, _, _ := newTestServiceForTest()
	created, err := svc.Create(context.Background(), "trainer-1", sampleCreateTestRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Publish(context.Background(), created.ID))
	require.Error(t, svc.Publish(context.Background(), created.ID))
}

func TestTestServiceSubmitGradesAttempt(t *testing.T) {
	svc, repo, cache := newTestServiceForTest()
	created, err := svc.Create(context.Background(), "trainer-1", sampleCreateTestRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Publish(context.Background(), created.ID))

	questions := repo.tests[created.ID].Questions.Items
	answers := map[string]string{
		questions[0].ID: "4",
		questions[1].ID: "Lyon",
	}
	result, err := svc.Submit(context.Background(), "student-1", created.ID, models.SubmitTestRequest{
		Answers:       answers,
		TimeTakenSecs: 600,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 5, result.TotalPoints)
	assert.Equal(t, 40, result.Percentage)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 1, result.Wrong)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, cache.deletes, 1)
	assert.Contains(t, cache.deletes[0], created.ID)
}

func TestTestServiceSubmitDraftRejected(t *testing.T) {
	svc, _, _ := newTestServiceForTest()
	created, err := svc.Create(context.Background(), "trainer-1", sampleCreateTestRequest())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "student-1", created.ID, models.SubmitTestRequest{
		Answers: map[string]string{},
	})
	require.Error(t, err)
}

func TestTestServiceLeaderboardCachesEntries(t *testing.T) {
	svc, _, cache := newTestServiceForTest()

	entries, err := svc.Leaderboard(context.Background(), "test-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, cache.store, "leaderboard:test-1:10")
}

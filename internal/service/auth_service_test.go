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
	"golang.org/x/crypto/bcrypt"

	"github.com/placementhub/placement-api/internal/models"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
)

type authRepoStub struct {
	users      map[string]*models.User
	tokens     map[string]*models.RefreshToken
	audits     []models.AuditLog
	revokedAll []string
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		users:  map[string]*models.User{},
		tokens: map[string]*models.RefreshToken{},
	}
}

func (r *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (r *authRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *authRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = user
	return nil
}

func (r *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.LastLogin = &ts
	return nil
}

func (r *authRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = updatedAt
	return nil
}

func (r *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	r.revokedAll = append(r.revokedAll, userID)
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (r *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (r *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range r.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.audits = append(r.audits, *log)
	return nil
}

type profileCreatorStub struct {
	profiles []*models.StudentProfile
}

func (p *profileCreatorStub) Create(ctx context.Context, profile *models.StudentProfile) error {
	p.profiles = append(p.profiles, profile)
	return nil
}

func newAuthServiceForTest(repo *authRepoStub, profiles *profileCreatorStub) *AuthService {
	return NewAuthService(repo, profiles, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "placement-api",
	})
}

func seedUser(repo *authRepoStub, email, password string, active bool) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Priya Raman",
		Role:         models.RoleStudent,
		Department:   "CSE",
		Active:       active,
	}
	repo.users[user.ID] = user
	return user
}

func TestAuthServiceRegisterCreatesStudentWithProfile(t *testing.T) {
	repo := newAuthRepoStub()
	profiles := &profileCreatorStub{}
	svc := newAuthServiceForTest(repo, profiles)

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:      "priya@univ.edu",
		Password:   "s3cure-pass",
		FullName:   "Priya Raman",
		Department: "CSE",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleStudent, info.Role)
	assert.Equal(t, "CSE", info.Department)

	require.Len(t, profiles.profiles, 1)
	assert.Equal(t, info.ID, profiles.profiles[0].UserID)
	assert.Equal(t, "Priya Raman", profiles.profiles[0].Personal.Name)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionRegister, repo.audits[0].Action)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(repo, "priya@univ.edu", "s3cure-pass", true)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:      "priya@univ.edu",
		Password:   "s3cure-pass",
		FullName:   "Priya Raman",
		Department: "CSE",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceLoginIssuesValidTokens(t *testing.T) {
	repo := newAuthRepoStub()
	user := seedUser(repo, "priya@univ.edu", "s3cure-pass", true)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "priya@univ.edu",
		Password: "s3cure-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "CSE", claims.Department)

	stored, err := repo.FindRefreshToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
	assert.False(t, stored.Revoked)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(repo, "priya@univ.edu", "s3cure-pass", true)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "priya@univ.edu",
		Password: "wrong-pass",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(repo, "priya@univ.edu", "s3cure-pass", false)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "priya@univ.edu",
		Password: "s3cure-pass",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub()
	user := seedUser(repo, "priya@univ.edu", "s3cure-pass", true)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	old := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     "old-refresh-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), old))

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: old.Token})
	require.NoError(t, err)
	assert.NotEqual(t, old.Token, resp.RefreshToken)
	assert.True(t, old.Revoked, "used refresh token should be revoked")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	repo := newAuthRepoStub()
	user := seedUser(repo, "priya@univ.edu", "s3cure-pass", true)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	expired := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     "expired-token",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), expired))

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: expired.Token})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceLogoutRejectsForeignToken(t *testing.T) {
	repo := newAuthRepoStub()
	owner := seedUser(repo, "priya@univ.edu", "s3cure-pass", true)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    owner.ID,
		Token:     "owner-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))

	err := svc.Logout(context.Background(), token.Token, uuid.NewString(), models.LoginRequest{})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.False(t, token.Revoked)
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	repo := newAuthRepoStub()
	user := seedUser(repo, "priya@univ.edu", "s3cure-pass", true)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "s3cure-pass",
		NewPassword: "even-m0re-secure",
	})
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("even-m0re-secure")))
	assert.Contains(t, repo.revokedAll, user.ID)
}

func TestAuthServiceChangePasswordWrongOldPassword(t *testing.T) {
	repo := newAuthRepoStub()
	user := seedUser(repo, "priya@univ.edu", "s3cure-pass", true)
	svc := newAuthServiceForTest(repo, &profileCreatorStub{})

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "not-the-password",
		NewPassword: "even-m0re-secure",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, repo.revokedAll)
}

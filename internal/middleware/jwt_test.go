package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	"github.com/campus-connect/campus-connect-api/internal/service"
)

type stubIdentityRepo struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{
		users:  make(map[string]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
}

func (r *stubIdentityRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u1"
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *stubIdentityRepo) Update(_ context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *stubIdentityRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (r *stubIdentityRepo) RevokeUserRefreshTokens(_ context.Context, _ string) error {
	return nil
}

func (r *stubIdentityRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *stubIdentityRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := r.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (r *stubIdentityRepo) RevokeRefreshToken(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (r *stubIdentityRepo) CreateAuditLog(_ context.Context, _ *models.AuditLog) error {
	return nil
}

func newGateFixture(t *testing.T) (*stubIdentityRepo, *service.AuthService, *models.AuthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newStubIdentityRepo()
	svc := service.NewAuthService(repo, nil, zap.NewNop(), service.AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "campus-connect",
	})

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:       "Alice",
		Email:      "alice@campus.edu",
		Password:   "secret123",
		StudentID:  "CS2021001",
		Department: "CS",
		Year:       3,
		Phone:      "9876543210",
	})
	require.NoError(t, err)
	return repo, svc, resp
}

func protectedRouter(svc *service.AuthService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(svc)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"role": claims.Role})
	})
	r.GET("/protected", handlers...)
	return r
}

func doAuthorized(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRejectsSuspendedAccount(t *testing.T) {
	repo, svc, resp := newGateFixture(t)
	r := protectedRouter(svc)

	rec := doAuthorized(r, resp.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	repo.users[resp.User.ID].Status = models.StatusSuspended

	rec = doAuthorized(r, resp.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "not active")
}

func TestJWTRejectsRemovedAccount(t *testing.T) {
	repo, svc, resp := newGateFixture(t)
	r := protectedRouter(svc)

	delete(repo.users, resp.User.ID)

	rec := doAuthorized(r, resp.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestJWTUsesLiveRoleNotTokenRole(t *testing.T) {
	repo, svc, resp := newGateFixture(t)

	// Promote the account in storage. The login-time token still says
	// student, but a staff-only route must honor the current role.
	repo.users[resp.User.ID].Role = models.RoleStaff

	r := protectedRouter(svc, RequireRoles(models.RoleStaff))
	rec := doAuthorized(r, resp.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(models.RoleStaff))
}

func TestJWTRejectsDemotedAdminToken(t *testing.T) {
	repo, svc, resp := newGateFixture(t)

	// Issue a token while the account holds the admin role.
	repo.users[resp.User.ID].Role = models.RoleAdmin
	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    resp.User.Email,
		Password: "secret123",
	})
	require.NoError(t, err)

	repo.users[resp.User.ID].Role = models.RoleStudent

	r := protectedRouter(svc, RequireRoles(models.RoleAdmin))
	rec := doAuthorized(r, login.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOptionalJWTTreatsInactiveAsAnonymous(t *testing.T) {
	repo, svc, resp := newGateFixture(t)
	repo.users[resp.User.ID].Status = models.StatusSuspended

	r := gin.New()
	r.GET("/open", OptionalJWT(svc), func(c *gin.Context) {
		_, authed := c.Get(ContextUserKey)
		c.JSON(http.StatusOK, gin.H{"authenticated": authed})
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
}

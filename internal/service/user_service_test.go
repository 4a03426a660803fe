package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	auditLogs []models.AuditLog
	deleted   []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepo) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	users := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, *user)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceListDefaultsPagination(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1"}
	svc := newUserService(repo)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceUpdateSelf(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Name: "Alice", Role: models.RoleStudent}
	svc := newUserService(repo)

	name := "  Alice Cooper "
	user, err := svc.Update(context.Background(), "u1", &models.JWTClaims{UserID: "u1", Role: models.RoleStudent},
		models.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", user.Name)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserUpdate, repo.auditLogs[0].Action)
}

func TestUserServiceUpdateRoleRequiresAdmin(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Role: models.RoleStudent}
	svc := newUserService(repo)

	role := models.RoleStaff
	_, err := svc.Update(context.Background(), "u1", &models.JWTClaims{UserID: "u1", Role: models.RoleStudent},
		models.UpdateUserRequest{Role: &role})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Contains(t, appErr.Message, "admins")

	user, err := svc.Update(context.Background(), "u1", &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin},
		models.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, user.Role)
}

func TestUserServiceUpdateOtherUserForbidden(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1"}
	svc := newUserService(repo)

	name := "Mallory"
	_, err := svc.Update(context.Background(), "u1", &models.JWTClaims{UserID: "u2", Role: models.RoleStudent},
		models.UpdateUserRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}

func TestUserServiceDeleteAdminOnly(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1"}
	svc := newUserService(repo)

	err := svc.Delete(context.Background(), "u1", &models.JWTClaims{UserID: "u2", Role: models.RoleStaff})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), "u1", &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}))
	assert.Equal(t, []string{"u1"}, repo.deleted)
}

func TestUserServiceGetMissing(t *testing.T) {
	svc := newUserService(newMockUserRepo())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

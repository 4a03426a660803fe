package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

type mockLostItemRepo struct {
	items map[string]*models.LostItem
}

func newMockLostItemRepo() *mockLostItemRepo {
	return &mockLostItemRepo{items: make(map[string]*models.LostItem)}
}

func (m *mockLostItemRepo) Create(_ context.Context, item *models.LostItem) error {
	if item.ID == "" {
		item.ID = "l1"
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockLostItemRepo) FindByID(_ context.Context, id string) (*models.LostItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (m *mockLostItemRepo) List(_ context.Context) ([]models.LostItem, error) {
	items := make([]models.LostItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, *item)
	}
	return items, nil
}

func (m *mockLostItemRepo) GetWithReporter(ctx context.Context, id string) (*models.LostItem, error) {
	return m.FindByID(ctx, id)
}

func (m *mockLostItemRepo) Update(_ context.Context, item *models.LostItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *mockLostItemRepo) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *mockLostItemRepo) SetStatus(_ context.Context, id string, status models.LostItemStatus) error {
	item, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.Status = status
	return nil
}

func newLostItemService(repo *mockLostItemRepo) *LostItemService {
	return NewLostItemService(repo, validator.New(), zap.NewNop())
}

func TestLostItemServiceCreate(t *testing.T) {
	repo := newMockLostItemRepo()
	svc := newLostItemService(repo)

	req := models.CreateLostItemRequest{
		Title:       "Blue backpack",
		Description: "Left near the library entrance",
		Location:    "Central Library",
		DateLost:    time.Now().Add(-24 * time.Hour),
	}
	req.Image.URL = "https://cdn.example.com/items/backpack.jpg"

	item, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "u1"}, req)
	require.NoError(t, err)
	assert.Equal(t, models.ItemLost, item.Status)
	assert.Equal(t, "u1", item.ReportedBy)
	assert.Equal(t, "https://cdn.example.com/items/backpack.jpg", item.Image.URL)
}

func TestLostItemServiceUpdateReporterOnly(t *testing.T) {
	repo := newMockLostItemRepo()
	repo.items["l1"] = &models.LostItem{ID: "l1", ReportedBy: "u1"}
	svc := newLostItemService(repo)

	title := "Black backpack"
	_, err := svc.Update(context.Background(), "l1", &models.JWTClaims{UserID: "u2", Role: models.RoleStudent},
		models.UpdateLostItemRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	updated, err := svc.Update(context.Background(), "l1", &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin},
		models.UpdateLostItemRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Black backpack", updated.Title)
}

func TestLostItemServiceMarkFoundByAnyUser(t *testing.T) {
	repo := newMockLostItemRepo()
	repo.items["l1"] = &models.LostItem{ID: "l1", ReportedBy: "u1", Status: models.ItemLost}
	svc := newLostItemService(repo)

	item, err := svc.MarkFound(context.Background(), "l1", &models.JWTClaims{UserID: "u2", Email: "finder@campus.edu"},
		models.FinderContact{Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, models.ItemFound, item.Status)
	require.NotNil(t, item.Finder)
	assert.Equal(t, "Bob", item.Finder.Name)
	assert.Equal(t, "finder@campus.edu", item.Finder.Email)
}

func TestLostItemServiceClaim(t *testing.T) {
	repo := newMockLostItemRepo()
	repo.items["l1"] = &models.LostItem{ID: "l1", ReportedBy: "u1", Status: models.ItemFound}
	svc := newLostItemService(repo)

	item, err := svc.Claim(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemClaimed, item.Status)
}

func TestLostItemServiceClaimMissing(t *testing.T) {
	repo := newMockLostItemRepo()
	svc := newLostItemService(repo)

	_, err := svc.Claim(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestLostItemServiceDeleteReporterOrAdmin(t *testing.T) {
	repo := newMockLostItemRepo()
	repo.items["l1"] = &models.LostItem{ID: "l1", ReportedBy: "u1"}
	svc := newLostItemService(repo)

	err := svc.Delete(context.Background(), "l1", &models.JWTClaims{UserID: "u2", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	require.NoError(t, svc.Delete(context.Background(), "l1", &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}))
	_, ok := repo.items["l1"]
	assert.False(t, ok)
}

package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	"github.com/campus-connect/campus-connect-api/internal/repository"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

type mockBookRepo struct {
	books      map[string]*models.Book
	requests   map[string][]models.BookRequest
	hasRequest bool
	likedState bool

	createCalled     bool
	createRequestErr error
	updateStatusErr  error
}

func newMockBookRepo() *mockBookRepo {
	return &mockBookRepo{
		books:    make(map[string]*models.Book),
		requests: make(map[string][]models.BookRequest),
	}
}

func (m *mockBookRepo) Create(_ context.Context, book *models.Book) error {
	m.createCalled = true
	if book.ID == "" {
		book.ID = "b1"
	}
	m.books[book.ID] = book
	return nil
}

func (m *mockBookRepo) FindByID(_ context.Context, id string) (*models.Book, error) {
	book, ok := m.books[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *book
	return &copied, nil
}

func (m *mockBookRepo) ListAvailable(_ context.Context) ([]models.Book, error) {
	books := make([]models.Book, 0, len(m.books))
	for _, book := range m.books {
		if book.Availability == models.BookAvailable {
			books = append(books, *book)
		}
	}
	return books, nil
}

func (m *mockBookRepo) GetWithOwner(ctx context.Context, id string) (*models.Book, error) {
	return m.FindByID(ctx, id)
}

func (m *mockBookRepo) Update(_ context.Context, book *models.Book) error {
	m.books[book.ID] = book
	return nil
}

func (m *mockBookRepo) Delete(_ context.Context, id string) error {
	delete(m.books, id)
	return nil
}

func (m *mockBookRepo) IncrementViews(_ context.Context, id string) error {
	if book, ok := m.books[id]; ok {
		book.Views++
	}
	return nil
}

func (m *mockBookRepo) ToggleLike(_ context.Context, _, _ string) (bool, error) {
	m.likedState = !m.likedState
	return m.likedState, nil
}

func (m *mockBookRepo) HasLiked(_ context.Context, _, _ string) (bool, error) {
	return m.likedState, nil
}

func (m *mockBookRepo) CreateRequest(_ context.Context, req *models.BookRequest) error {
	if m.createRequestErr != nil {
		return m.createRequestErr
	}
	req.ID = "r1"
	m.requests[req.BookID] = append(m.requests[req.BookID], *req)
	return nil
}

func (m *mockBookRepo) HasRequest(_ context.Context, _, _ string) (bool, error) {
	return m.hasRequest, nil
}

func (m *mockBookRepo) ListRequests(_ context.Context, bookID string) ([]models.BookRequest, error) {
	return m.requests[bookID], nil
}

func (m *mockBookRepo) UpdateRequestStatus(_ context.Context, _, _ string, _ models.RequestStatus) error {
	return m.updateStatusErr
}

func (m *mockBookRepo) MarkSold(_ context.Context, id, soldTo string, soldAt time.Time) error {
	book, ok := m.books[id]
	if !ok {
		return sql.ErrNoRows
	}
	book.Availability = models.BookSold
	book.SoldTo = &soldTo
	book.SoldAt = &soldAt
	return nil
}

type mockUserDirectory struct {
	users map[string]*models.User
}

func (m *mockUserDirectory) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, 0, zap.NewNop(), false)
}

func newBookService(repo *mockBookRepo, users *mockUserDirectory) *BookService {
	return NewBookService(repo, users, disabledCache(), validator.New(), zap.NewNop())
}

func validBookRequest() models.CreateBookRequest {
	price := 450.0
	return models.CreateBookRequest{
		Title:      "Introduction to Algorithms",
		Author:     "Cormen",
		Subject:    "Algorithms",
		Department: "CS",
		Semester:   5,
		Condition:  "good",
		Price:      &price,
		Location:   "Hostel B",
		Tags:       []string{" algorithms ", ""},
	}
}

func TestBookServiceCreateRejectsJuniors(t *testing.T) {
	repo := newMockBookRepo()
	users := &mockUserDirectory{users: map[string]*models.User{
		"u1": {ID: "u1", Year: 2, Role: models.RoleStudent},
	}}
	svc := newBookService(repo, users)

	_, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "u1"}, validBookRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Contains(t, appErr.Message, "senior students")
	assert.False(t, repo.createCalled)
}

func TestBookServiceCreateDefaults(t *testing.T) {
	repo := newMockBookRepo()
	users := &mockUserDirectory{users: map[string]*models.User{
		"u1": {ID: "u1", Year: 4, Role: models.RoleStudent},
	}}
	svc := newBookService(repo, users)

	book, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "u1"}, validBookRequest())
	require.NoError(t, err)
	assert.Equal(t, models.BookAvailable, book.Availability)
	assert.True(t, book.IsNegotiable)
	assert.Equal(t, models.ContactBoth, book.PreferredContact)
	assert.Equal(t, "u1", book.SharedBy)
	assert.Equal(t, []string{"algorithms"}, []string(book.Tags))
}

func TestBookServiceCreateValidation(t *testing.T) {
	repo := newMockBookRepo()
	users := &mockUserDirectory{users: map[string]*models.User{
		"u1": {ID: "u1", Year: 4},
	}}
	svc := newBookService(repo, users)

	req := validBookRequest()
	req.Price = nil

	_, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "u1"}, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.createCalled)
}

func TestBookServiceUpdateOwnerOnly(t *testing.T) {
	repo := newMockBookRepo()
	repo.books["b1"] = &models.Book{ID: "b1", SharedBy: "u1"}
	svc := newBookService(repo, &mockUserDirectory{})

	title := "New title"
	_, err := svc.Update(context.Background(), "b1", &models.JWTClaims{UserID: "u2"}, models.UpdateBookRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}

func TestBookServiceRequestInterestDuplicate(t *testing.T) {
	repo := newMockBookRepo()
	repo.books["b1"] = &models.Book{ID: "b1", SharedBy: "u1"}
	repo.hasRequest = true
	svc := newBookService(repo, &mockUserDirectory{})

	_, err := svc.RequestInterest(context.Background(), "b1", &models.JWTClaims{UserID: "u2"}, models.RequestBookPayload{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestBookServiceRequestInterestUniqueRace(t *testing.T) {
	repo := newMockBookRepo()
	repo.books["b1"] = &models.Book{ID: "b1", SharedBy: "u1"}
	repo.createRequestErr = &pq.Error{Code: "23505"}
	svc := newBookService(repo, &mockUserDirectory{})

	_, err := svc.RequestInterest(context.Background(), "b1", &models.JWTClaims{UserID: "u2"}, models.RequestBookPayload{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErrors.FromError(err).Code)
}

func TestBookServiceUpdateRequestStatusConflict(t *testing.T) {
	repo := newMockBookRepo()
	repo.books["b1"] = &models.Book{ID: "b1", SharedBy: "u1"}
	repo.updateStatusErr = repository.ErrRequestAlreadyAccepted
	svc := newBookService(repo, &mockUserDirectory{})

	_, err := svc.UpdateRequestStatus(context.Background(), "b1", "r2", &models.JWTClaims{UserID: "u1"},
		models.UpdateRequestStatusPayload{Status: models.RequestAccepted})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Contains(t, appErr.Message, "already been accepted")
}

func TestBookServiceMarkSold(t *testing.T) {
	repo := newMockBookRepo()
	repo.books["b1"] = &models.Book{ID: "b1", SharedBy: "u1", Availability: models.BookReserved}
	svc := newBookService(repo, &mockUserDirectory{})

	book, err := svc.MarkSold(context.Background(), "b1", &models.JWTClaims{UserID: "u1"},
		models.MarkSoldPayload{SoldTo: "7a6f0a41-3a51-4c5e-9a6e-9cf8dd2c4b58"})
	require.NoError(t, err)
	assert.Equal(t, models.BookSold, book.Availability)
	require.NotNil(t, book.SoldTo)
	assert.Equal(t, "7a6f0a41-3a51-4c5e-9a6e-9cf8dd2c4b58", *book.SoldTo)
}

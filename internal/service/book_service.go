package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	"github.com/campus-connect/campus-connect-api/internal/repository"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

const booksCachePrefix = "books:"

type bookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id string) (*models.Book, error)
	ListAvailable(ctx context.Context) ([]models.Book, error)
	GetWithOwner(ctx context.Context, id string) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, bookID, userID string) (bool, error)
	HasLiked(ctx context.Context, bookID, userID string) (bool, error)
	CreateRequest(ctx context.Context, req *models.BookRequest) error
	HasRequest(ctx context.Context, bookID, studentID string) (bool, error)
	ListRequests(ctx context.Context, bookID string) ([]models.BookRequest, error)
	UpdateRequestStatus(ctx context.Context, bookID, requestID string, status models.RequestStatus) error
	MarkSold(ctx context.Context, id, soldTo string, soldAt time.Time) error
}

type bookUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// BookService implements the book listing lifecycle.
type BookService struct {
	repo      bookRepository
	users     bookUserDirectory
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookService constructs a BookService instance.
func NewBookService(repo bookRepository, users bookUserDirectory, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *BookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BookService{repo: repo, users: users, cache: cache, validator: validate, logger: logger}
}

// Create stores a new listing. Only seniors may share books; seniority is
// checked against the live account, not the token snapshot.
func (s *BookService) Create(ctx context.Context, caller *models.JWTClaims, req models.CreateBookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}

	owner, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Access denied. User not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !owner.IsSenior() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only senior students (year 3 and above) can share books")
	}

	book := &models.Book{
		Title:            req.Title,
		Author:           req.Author,
		ISBN:             req.ISBN,
		Subject:          req.Subject,
		Department:       req.Department,
		Semester:         req.Semester,
		Description:      req.Description,
		Condition:        models.BookCondition(req.Condition),
		Price:            *req.Price,
		OriginalPrice:    req.OriginalPrice,
		SharedBy:         owner.ID,
		Availability:     models.BookAvailable,
		Tags:             normalizeTags(req.Tags),
		IsNegotiable:     true,
		Location:         req.Location,
		PreferredContact: models.ContactBoth,
		Notes:            req.Notes,
	}
	if req.IsNegotiable != nil {
		book.IsNegotiable = *req.IsNegotiable
	}
	if req.PreferredContact != "" {
		book.PreferredContact = models.ContactMethod(req.PreferredContact)
	}

	if err := s.repo.Create(ctx, book); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "A book with this ISBN already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create book")
	}

	s.invalidateCache(ctx)
	return book, nil
}

// List returns available listings, newest first, served from cache when warm.
func (s *BookService) List(ctx context.Context) ([]models.Book, error) {
	cacheKey := booksCachePrefix + "available"

	var cached []models.Book
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	books, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list books")
	}

	if err := s.cache.Set(ctx, cacheKey, books, 0); err != nil {
		s.logger.Debug("book list cache set failed", zap.Error(err))
	}
	return books, nil
}

// Get returns one listing with owner and requester profiles attached. Every
// read bumps the view counter.
func (s *BookService) Get(ctx context.Context, id, viewerID string) (*models.Book, error) {
	book, err := s.repo.GetWithOwner(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Book not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to increment book views", zap.String("book_id", id), zap.Error(err))
	} else {
		book.Views++
	}

	requests, err := s.repo.ListRequests(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book requests")
	}
	book.Requests = requests

	if viewerID != "" {
		liked, err := s.repo.HasLiked(ctx, id, viewerID)
		if err != nil {
			s.logger.Warn("failed to resolve viewer like", zap.Error(err))
		}
		book.Liked = liked
	}

	return book, nil
}

// Update applies a validated partial update. Owner only.
func (s *BookService) Update(ctx context.Context, id string, caller *models.JWTClaims, req models.UpdateBookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}

	book, err := s.ownedBook(ctx, id, caller.UserID, "update this book")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Subject != nil {
		book.Subject = *req.Subject
	}
	if req.Department != nil {
		book.Department = *req.Department
	}
	if req.Semester != nil {
		book.Semester = *req.Semester
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.Condition != nil {
		book.Condition = models.BookCondition(*req.Condition)
	}
	if req.Price != nil {
		book.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		book.OriginalPrice = req.OriginalPrice
	}
	if req.Tags != nil {
		book.Tags = normalizeTags(req.Tags)
	}
	if req.IsNegotiable != nil {
		book.IsNegotiable = *req.IsNegotiable
	}
	if req.Location != nil {
		book.Location = *req.Location
	}
	if req.PreferredContact != nil {
		book.PreferredContact = models.ContactMethod(*req.PreferredContact)
	}
	if req.Notes != nil {
		book.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update book")
	}

	s.invalidateCache(ctx)
	return book, nil
}

// Delete removes a listing and its embedded requests. Owner only.
func (s *BookService) Delete(ctx context.Context, id string, caller *models.JWTClaims) error {
	if _, err := s.ownedBook(ctx, id, caller.UserID, "delete this book"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete book")
	}

	s.invalidateCache(ctx)
	return nil
}

// ToggleLike flips the caller's like and returns the new state with the
// refreshed listing.
func (s *BookService) ToggleLike(ctx context.Context, id string, caller *models.JWTClaims) (bool, *models.Book, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil, appErrors.Clone(appErrors.ErrNotFound, "Book not found")
		}
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}

	liked, err := s.repo.ToggleLike(ctx, id, caller.UserID)
	if err != nil {
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle like")
	}

	book, err := s.repo.GetWithOwner(ctx, id)
	if err != nil {
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}
	book.Liked = liked

	return liked, book, nil
}

// RequestInterest appends an interest request; one per (listing, student)
// pair regardless of status.
func (s *BookService) RequestInterest(ctx context.Context, id string, caller *models.JWTClaims, payload models.RequestBookPayload) (*models.Book, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Book not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}

	exists, err := s.repo.HasRequest(ctx, id, caller.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing request")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "")
	}

	request := &models.BookRequest{
		BookID:       id,
		StudentID:    caller.UserID,
		Message:      payload.Message,
		ContactEmail: payload.ContactInfo.Email,
		ContactPhone: payload.ContactInfo.Phone,
		Status:       models.RequestPending,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	return s.bookWithRequests(ctx, id)
}

// UpdateRequestStatus sets an interest request's status. Owner only;
// accepting reserves the listing.
func (s *BookService) UpdateRequestStatus(ctx context.Context, id, requestID string, caller *models.JWTClaims, payload models.UpdateRequestStatusPayload) (*models.Book, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	if _, err := s.ownedBook(ctx, id, caller.UserID, "update this request"); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRequestStatus(ctx, id, requestID, payload.Status); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Request not found")
		case errors.Is(err, repository.ErrRequestAlreadyAccepted):
			return nil, appErrors.Clone(appErrors.ErrConflict, "Another request has already been accepted for this book")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
		}
	}

	s.invalidateCache(ctx)
	return s.bookWithRequests(ctx, id)
}

// MarkSold finalizes a listing with the buyer. Owner only.
func (s *BookService) MarkSold(ctx context.Context, id string, caller *models.JWTClaims, payload models.MarkSoldPayload) (*models.Book, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sold payload")
	}

	if _, err := s.ownedBook(ctx, id, caller.UserID, "mark this book as sold"); err != nil {
		return nil, err
	}

	if err := s.repo.MarkSold(ctx, id, payload.SoldTo, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark book sold")
	}

	s.invalidateCache(ctx)
	return s.bookWithRequests(ctx, id)
}

func (s *BookService) ownedBook(ctx context.Context, id, callerID, action string) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Book not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}
	if book.SharedBy != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to "+action)
	}
	return book, nil
}

func (s *BookService) bookWithRequests(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.repo.GetWithOwner(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}
	requests, err := s.repo.ListRequests(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book requests")
	}
	book.Requests = requests
	return book, nil
}

func (s *BookService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, booksCachePrefix+"*"); err != nil {
		s.logger.Debug("book cache invalidation failed", zap.Error(err))
	}
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

type lostItemRepository interface {
	Create(ctx context.Context, item *models.LostItem) error
	FindByID(ctx context.Context, id string) (*models.LostItem, error)
	List(ctx context.Context) ([]models.LostItem, error)
	GetWithReporter(ctx context.Context, id string) (*models.LostItem, error)
	Update(ctx context.Context, item *models.LostItem) error
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status models.LostItemStatus) error
}

// LostItemService implements the lost item report lifecycle.
type LostItemService struct {
	repo      lostItemRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLostItemService constructs a LostItemService instance.
func NewLostItemService(repo lostItemRepository, validate *validator.Validate, logger *zap.Logger) *LostItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LostItemService{repo: repo, validator: validate, logger: logger}
}

// Create stores a new report in the "lost" state.
func (s *LostItemService) Create(ctx context.Context, caller *models.JWTClaims, req models.CreateLostItemRequest) (*models.LostItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lost item payload")
	}

	item := &models.LostItem{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.Image.URL,
		ImageID:     req.Image.PublicID,
		Location:    req.Location,
		DateLost:    req.DateLost,
		Status:      models.ItemLost,
		ReportedBy:  caller.UserID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lost item")
	}

	item.Decorate()
	return item, nil
}

// List returns all reports newest first with reporter name and email.
func (s *LostItemService) List(ctx context.Context) ([]models.LostItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lost items")
	}
	for i := range items {
		items[i].Decorate()
	}
	return items, nil
}

// Get returns one report with the reporter profile including phone.
func (s *LostItemService) Get(ctx context.Context, id string) (*models.LostItem, error) {
	item, err := s.repo.GetWithReporter(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lost item")
	}
	item.Decorate()
	return item, nil
}

// Update applies a validated partial update. Reporter only.
func (s *LostItemService) Update(ctx context.Context, id string, caller *models.JWTClaims, req models.UpdateLostItemRequest) (*models.LostItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lost item payload")
	}

	item, err := s.reportedItem(ctx, id, caller, "update this item")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Location != nil {
		item.Location = *req.Location
	}
	if req.DateLost != nil {
		item.DateLost = *req.DateLost
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.FinderContact != nil {
		item.FinderName = req.FinderContact.Name
		item.FinderEmail = req.FinderContact.Email
		item.FinderPhone = req.FinderContact.Phone
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lost item")
	}

	item.Decorate()
	return item, nil
}

// MarkFound records that the item was found. Any signed-in user may report a
// find; their contact details are stored for the owner to follow up.
func (s *LostItemService) MarkFound(ctx context.Context, id string, caller *models.JWTClaims, contact models.FinderContact) (*models.LostItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lost item")
	}

	item.Status = models.ItemFound
	item.FinderName = contact.Name
	item.FinderEmail = contact.Email
	item.FinderPhone = contact.Phone
	if item.FinderEmail == "" {
		item.FinderEmail = caller.Email
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark item found")
	}

	item.Decorate()
	return item, nil
}

// Claim closes the report once the owner has the item back. Not restricted
// to the reporter: whoever holds the item may confirm the handover.
func (s *LostItemService) Claim(ctx context.Context, id string) (*models.LostItem, error) {
	if err := s.repo.SetStatus(ctx, id, models.ItemClaimed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim item")
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lost item")
	}
	item.Decorate()
	return item, nil
}

// Delete removes a report. Reporter or admin only.
func (s *LostItemService) Delete(ctx context.Context, id string, caller *models.JWTClaims) error {
	if _, err := s.reportedItem(ctx, id, caller, "delete this item"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lost item")
	}
	return nil
}

func (s *LostItemService) reportedItem(ctx context.Context, id string, caller *models.JWTClaims, action string) (*models.LostItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lost item")
	}
	if item.ReportedBy != caller.UserID && caller.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to "+action)
	}
	return item, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

const problemsCachePrefix = "problems:"

type problemRepository interface {
	Create(ctx context.Context, problem *models.Problem, images []models.Image) error
	FindByID(ctx context.Context, id string) (*models.Problem, error)
	List(ctx context.Context) ([]models.Problem, error)
	GetWithReporter(ctx context.Context, id string) (*models.Problem, error)
	ListImages(ctx context.Context, problemID string) ([]models.Image, error)
	Update(ctx context.Context, problem *models.Problem) error
	Delete(ctx context.Context, id string) error
	Vote(ctx context.Context, problemID, userID string, direction models.VoteDirection) error
	ViewerVote(ctx context.Context, problemID, userID string) (*models.VoteDirection, error)
	AddComment(ctx context.Context, comment *models.ProblemComment) error
	ListComments(ctx context.Context, problemID string) ([]models.ProblemComment, error)
	SetStatus(ctx context.Context, id string, status models.ProblemStatus, resolution *models.Resolution) error
}

// ProblemService implements the problem report lifecycle: reports, votes,
// comments and the privileged status workflow.
type ProblemService struct {
	repo      problemRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProblemService constructs a ProblemService instance.
func NewProblemService(repo problemRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ProblemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProblemService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create stores a new report in the "open" state with medium priority unless
// the reporter says otherwise.
func (s *ProblemService) Create(ctx context.Context, caller *models.JWTClaims, req models.CreateProblemRequest) (*models.Problem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid problem payload")
	}

	problem := &models.Problem{
		Title:       req.Title,
		Description: req.Description,
		Category:    models.ProblemCategory(req.Category),
		Priority:    models.PriorityMedium,
		Location:    req.Location,
		IsAnonymous: req.IsAnonymous,
		ReportedBy:  caller.UserID,
		Status:      models.ProblemOpen,
		Tags:        req.Tags,
	}
	if req.Priority != "" {
		problem.Priority = models.ProblemPriority(req.Priority)
	}
	if problem.Tags == nil {
		problem.Tags = []string{}
	}

	if err := s.repo.Create(ctx, problem, req.Images); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create problem")
	}

	problem.Images = req.Images
	if problem.Images == nil {
		problem.Images = []models.Image{}
	}
	s.invalidateCache(ctx)
	s.decorate(problem)
	return problem, nil
}

// List returns all reports newest first with vote counts and reporter
// identity, served from cache when warm. Anonymous reports keep the
// reporter hidden.
func (s *ProblemService) List(ctx context.Context) ([]models.Problem, error) {
	cacheKey := problemsCachePrefix + "all"

	var cached []models.Problem
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	problems, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list problems")
	}
	for i := range problems {
		s.decorate(&problems[i])
	}

	if err := s.cache.Set(ctx, cacheKey, problems, 0); err != nil {
		s.logger.Debug("problem cache set failed", zap.Error(err))
	}
	return problems, nil
}

// Get returns one report with images, comments, vote counts and — when the
// viewer is signed in — their current vote.
func (s *ProblemService) Get(ctx context.Context, id, viewerID string) (*models.Problem, error) {
	problem, err := s.repo.GetWithReporter(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Problem not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem")
	}

	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem images")
	}
	problem.Images = images

	comments, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	problem.Comments = comments

	if viewerID != "" {
		vote, err := s.repo.ViewerVote(ctx, id, viewerID)
		if err != nil {
			s.logger.Warn("failed to resolve viewer vote", zap.Error(err))
		}
		problem.ViewerVote = vote
	}

	s.decorate(problem)
	return problem, nil
}

// Update applies a validated partial update. Reporter only.
func (s *ProblemService) Update(ctx context.Context, id string, caller *models.JWTClaims, req models.UpdateProblemRequest) (*models.Problem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid problem payload")
	}

	problem, err := s.reportedProblem(ctx, id, caller, "update this problem")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		problem.Title = *req.Title
	}
	if req.Description != nil {
		problem.Description = *req.Description
	}
	if req.Category != nil {
		problem.Category = models.ProblemCategory(*req.Category)
	}
	if req.Priority != nil {
		problem.Priority = models.ProblemPriority(*req.Priority)
	}
	if req.Location != nil {
		problem.Location = *req.Location
	}
	if req.IsAnonymous != nil {
		problem.IsAnonymous = *req.IsAnonymous
	}
	if req.Tags != nil {
		problem.Tags = req.Tags
	}

	if err := s.repo.Update(ctx, problem); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update problem")
	}

	s.invalidateCache(ctx)
	s.decorate(problem)
	return problem, nil
}

// Delete removes a report with its votes, comments and images. Reporter or
// admin only.
func (s *ProblemService) Delete(ctx context.Context, id string, caller *models.JWTClaims) error {
	if _, err := s.reportedProblem(ctx, id, caller, "delete this problem"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete problem")
	}

	s.invalidateCache(ctx)
	return nil
}

// Vote places the caller in exactly the requested direction list. Voting the
// same direction again is a no-op at the data level; switching direction
// moves the voter across lists atomically.
func (s *ProblemService) Vote(ctx context.Context, id string, caller *models.JWTClaims, payload models.VotePayload) (*models.Problem, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vote payload")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Problem not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem")
	}

	if err := s.repo.Vote(ctx, id, caller.UserID, payload.Type); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record vote")
	}

	s.invalidateCache(ctx)
	return s.Get(ctx, id, caller.UserID)
}

// Comment appends a comment to the report.
func (s *ProblemService) Comment(ctx context.Context, id string, caller *models.JWTClaims, payload models.CommentPayload) (*models.Problem, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Problem not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem")
	}

	comment := &models.ProblemComment{
		ProblemID:   id,
		UserID:      caller.UserID,
		Text:        payload.Text,
		IsAnonymous: payload.IsAnonymous,
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}

	s.invalidateCache(ctx)
	return s.Get(ctx, id, caller.UserID)
}

// SetStatus transitions the report through its workflow. Admin and staff
// only; resolving stamps who resolved it and when.
func (s *ProblemService) SetStatus(ctx context.Context, id string, caller *models.JWTClaims, payload models.UpdateProblemStatusPayload) (*models.Problem, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if caller.Role != models.RoleAdmin && caller.Role != models.RoleStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to update problem status")
	}

	var resolution *models.Resolution
	if payload.Status == models.ProblemResolved {
		resolution = &models.Resolution{
			Description: payload.Resolution,
			ResolvedBy:  caller.UserID,
			ResolvedAt:  time.Now().UTC(),
		}
	}

	if err := s.repo.SetStatus(ctx, id, payload.Status, resolution); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Problem not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update problem status")
	}

	s.invalidateCache(ctx)
	return s.Get(ctx, id, caller.UserID)
}

func (s *ProblemService) decorate(problem *models.Problem) {
	problem.NetVotes = problem.UpvoteCount - problem.DownvoteCount
	if problem.IsAnonymous {
		problem.Reporter = nil
	}
	if problem.Images == nil {
		problem.Images = []models.Image{}
	}
	problem.Decorate()
}

func (s *ProblemService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, problemsCachePrefix+"*"); err != nil {
		s.logger.Debug("problem cache invalidation failed", zap.Error(err))
	}
}

func (s *ProblemService) reportedProblem(ctx context.Context, id string, caller *models.JWTClaims, action string) (*models.Problem, error) {
	problem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Problem not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem")
	}
	if problem.ReportedBy != caller.UserID && caller.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to "+action)
	}
	return problem, nil
}

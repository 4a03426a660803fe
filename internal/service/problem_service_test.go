package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

type mockProblemRepo struct {
	problems map[string]*models.Problem
	comments map[string][]models.ProblemComment
	votes    map[string]models.VoteDirection

	voteCalled      bool
	setStatusCalled bool
	lastResolution  *models.Resolution
	setStatusErr    error
	listCalls       int
}

func newMockProblemRepo() *mockProblemRepo {
	return &mockProblemRepo{
		problems: make(map[string]*models.Problem),
		comments: make(map[string][]models.ProblemComment),
		votes:    make(map[string]models.VoteDirection),
	}
}

func (m *mockProblemRepo) Create(_ context.Context, problem *models.Problem, _ []models.Image) error {
	if problem.ID == "" {
		problem.ID = "p1"
	}
	m.problems[problem.ID] = problem
	return nil
}

func (m *mockProblemRepo) FindByID(_ context.Context, id string) (*models.Problem, error) {
	problem, ok := m.problems[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *problem
	return &copied, nil
}

func (m *mockProblemRepo) List(_ context.Context) ([]models.Problem, error) {
	m.listCalls++
	problems := make([]models.Problem, 0, len(m.problems))
	for _, problem := range m.problems {
		problems = append(problems, *problem)
	}
	return problems, nil
}

func (m *mockProblemRepo) GetWithReporter(ctx context.Context, id string) (*models.Problem, error) {
	problem, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if problem.Reporter == nil {
		problem.Reporter = &models.PublicProfile{ID: problem.ReportedBy, Name: "Reporter"}
	}
	return problem, nil
}

func (m *mockProblemRepo) ListImages(_ context.Context, _ string) ([]models.Image, error) {
	return nil, nil
}

func (m *mockProblemRepo) Update(_ context.Context, problem *models.Problem) error {
	m.problems[problem.ID] = problem
	return nil
}

func (m *mockProblemRepo) Delete(_ context.Context, id string) error {
	delete(m.problems, id)
	return nil
}

func (m *mockProblemRepo) Vote(_ context.Context, problemID, userID string, direction models.VoteDirection) error {
	m.voteCalled = true
	m.votes[problemID+":"+userID] = direction
	return nil
}

func (m *mockProblemRepo) ViewerVote(_ context.Context, problemID, userID string) (*models.VoteDirection, error) {
	direction, ok := m.votes[problemID+":"+userID]
	if !ok {
		return nil, nil
	}
	return &direction, nil
}

func (m *mockProblemRepo) AddComment(_ context.Context, comment *models.ProblemComment) error {
	comment.ID = "c1"
	m.comments[comment.ProblemID] = append(m.comments[comment.ProblemID], *comment)
	return nil
}

func (m *mockProblemRepo) ListComments(_ context.Context, problemID string) ([]models.ProblemComment, error) {
	return m.comments[problemID], nil
}

func (m *mockProblemRepo) SetStatus(_ context.Context, id string, status models.ProblemStatus, resolution *models.Resolution) error {
	m.setStatusCalled = true
	m.lastResolution = resolution
	if m.setStatusErr != nil {
		return m.setStatusErr
	}
	problem, ok := m.problems[id]
	if !ok {
		return sql.ErrNoRows
	}
	problem.Status = status
	if resolution != nil {
		problem.ResolutionDescription = &resolution.Description
		problem.ResolvedBy = &resolution.ResolvedBy
		resolvedAt := resolution.ResolvedAt
		problem.ResolvedAt = &resolvedAt
	}
	return nil
}

func newProblemService(repo *mockProblemRepo) *ProblemService {
	return NewProblemService(repo, disabledCache(), validator.New(), zap.NewNop())
}

type memoryCacheRepo struct {
	data map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

func TestProblemServiceCreateDefaultsPriority(t *testing.T) {
	repo := newMockProblemRepo()
	svc := newProblemService(repo)

	problem, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "u1"}, models.CreateProblemRequest{
		Title:       "Broken AC",
		Description: "AC in lab 3 is broken",
		Category:    "infrastructure",
		Location:    "Lab 3",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, problem.Priority)
	assert.Equal(t, models.ProblemOpen, problem.Status)
	assert.Equal(t, "u1", problem.ReportedBy)
	assert.NotNil(t, problem.Images)
	assert.NotNil(t, []string(problem.Tags))
}

func TestProblemServiceVoteInvalidDirection(t *testing.T) {
	repo := newMockProblemRepo()
	repo.problems["p1"] = &models.Problem{ID: "p1", ReportedBy: "u1"}
	svc := newProblemService(repo)

	_, err := svc.Vote(context.Background(), "p1", &models.JWTClaims{UserID: "u2"}, models.VotePayload{Type: "sideways"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.voteCalled)
}

func TestProblemServiceVoteSwitchesDirection(t *testing.T) {
	repo := newMockProblemRepo()
	repo.problems["p1"] = &models.Problem{ID: "p1", ReportedBy: "u1"}
	svc := newProblemService(repo)
	caller := &models.JWTClaims{UserID: "u2"}

	problem, err := svc.Vote(context.Background(), "p1", caller, models.VotePayload{Type: models.Upvote})
	require.NoError(t, err)
	require.NotNil(t, problem.ViewerVote)
	assert.Equal(t, models.Upvote, *problem.ViewerVote)

	problem, err = svc.Vote(context.Background(), "p1", caller, models.VotePayload{Type: models.Downvote})
	require.NoError(t, err)
	require.NotNil(t, problem.ViewerVote)
	assert.Equal(t, models.Downvote, *problem.ViewerVote)
}

func TestProblemServiceAnonymousHidesReporter(t *testing.T) {
	repo := newMockProblemRepo()
	repo.problems["p1"] = &models.Problem{ID: "p1", ReportedBy: "u1", IsAnonymous: true, UpvoteCount: 4, DownvoteCount: 1}
	svc := newProblemService(repo)

	problem, err := svc.Get(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Nil(t, problem.Reporter)
	assert.Equal(t, 3, problem.NetVotes)
}

func TestProblemServiceUpdateReporterOrAdmin(t *testing.T) {
	repo := newMockProblemRepo()
	repo.problems["p1"] = &models.Problem{ID: "p1", ReportedBy: "u1"}
	svc := newProblemService(repo)

	title := "Updated"
	_, err := svc.Update(context.Background(), "p1", &models.JWTClaims{UserID: "u2", Role: models.RoleStudent},
		models.UpdateProblemRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	updated, err := svc.Update(context.Background(), "p1", &models.JWTClaims{UserID: "u9", Role: models.RoleAdmin},
		models.UpdateProblemRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
}

func TestProblemServiceSetStatusForbiddenForStudents(t *testing.T) {
	repo := newMockProblemRepo()
	repo.problems["p1"] = &models.Problem{ID: "p1", ReportedBy: "u1"}
	svc := newProblemService(repo)

	_, err := svc.SetStatus(context.Background(), "p1", &models.JWTClaims{UserID: "u1", Role: models.RoleStudent},
		models.UpdateProblemStatusPayload{Status: models.ProblemInProgress})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
	assert.False(t, repo.setStatusCalled)
}

func TestProblemServiceResolveStampsResolution(t *testing.T) {
	repo := newMockProblemRepo()
	repo.problems["p1"] = &models.Problem{ID: "p1", ReportedBy: "u1"}
	svc := newProblemService(repo)

	problem, err := svc.SetStatus(context.Background(), "p1", &models.JWTClaims{UserID: "staff1", Role: models.RoleStaff},
		models.UpdateProblemStatusPayload{Status: models.ProblemResolved, Resolution: "Replaced the unit"})
	require.NoError(t, err)
	require.NotNil(t, repo.lastResolution)
	assert.Equal(t, "staff1", repo.lastResolution.ResolvedBy)
	require.NotNil(t, problem.Resolution)
	assert.Equal(t, "Replaced the unit", problem.Resolution.Description)
	assert.Equal(t, models.ProblemResolved, problem.Status)
}

func TestProblemServiceSetStatusMissingProblem(t *testing.T) {
	repo := newMockProblemRepo()
	svc := newProblemService(repo)

	_, err := svc.SetStatus(context.Background(), "missing", &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin},
		models.UpdateProblemStatusPayload{Status: models.ProblemClosed})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestProblemServiceCommentAppends(t *testing.T) {
	repo := newMockProblemRepo()
	repo.problems["p1"] = &models.Problem{ID: "p1", ReportedBy: "u1"}
	svc := newProblemService(repo)

	problem, err := svc.Comment(context.Background(), "p1", &models.JWTClaims{UserID: "u2"},
		models.CommentPayload{Text: "Same in lab 4"})
	require.NoError(t, err)
	require.Len(t, problem.Comments, 1)
	assert.Equal(t, "Same in lab 4", problem.Comments[0].Text)
	assert.Equal(t, "u2", problem.Comments[0].UserID)
}

func TestProblemServiceListCachesAndInvalidates(t *testing.T) {
	repo := newMockProblemRepo()
	repo.problems["p1"] = &models.Problem{ID: "p1", ReportedBy: "u1"}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewProblemService(repo, cache, validator.New(), zap.NewNop())

	problems, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 1)

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Vote(context.Background(), "p1", &models.JWTClaims{UserID: "u2"}, models.VotePayload{Type: models.Upvote})
	require.NoError(t, err)

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

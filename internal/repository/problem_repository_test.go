package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/campus-connect-api/internal/models"
)

func problemRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "description", "category", "priority", "location", "is_anonymous", "reported_by",
		"status", "assigned_to", "tags", "resolution_description", "resolved_by", "resolved_at",
		"created_at", "updated_at", "upvote_count", "downvote_count",
		"reporter.id", "reporter.name", "reporter.email",
	}).AddRow(
		"p1", "Broken AC", "AC in lab 3 is broken", "infrastructure", "high", "Lab 3", false, "u1",
		"open", nil, "{}", nil, nil, nil,
		now, now, 5, 1,
		"u1", "Alice", "alice@campus.edu",
	)
}

func TestProblemRepositoryListWithVoteCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProblemRepository(db)

	mock.ExpectQuery("FROM problems p JOIN users u ON u.id = p.reported_by").
		WillReturnRows(problemRows())

	problems, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, 5, problems[0].UpvoteCount)
	assert.Equal(t, 1, problems[0].DownvoteCount)
	assert.Equal(t, "Alice", problems[0].Reporter.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryVoteSwitchesDirection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProblemRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM problem_votes WHERE problem_id = $1 AND user_id = $2")).
		WithArgs("p1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO problem_votes").
		WithArgs("p1", "u2", models.Downvote, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Vote(context.Background(), "p1", "u2", models.Downvote))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryViewerVoteAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProblemRepository(db)

	mock.ExpectQuery("SELECT direction FROM problem_votes").
		WithArgs("p1", "u2").
		WillReturnError(sql.ErrNoRows)

	direction, err := repo.ViewerVote(context.Background(), "p1", "u2")
	require.NoError(t, err)
	assert.Nil(t, direction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositorySetStatusWithResolution(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProblemRepository(db)

	resolvedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE problems SET status = $2, resolution_description = $3, resolved_by = $4, resolved_at = $5, updated_at = $6 WHERE id = $1")).
		WithArgs("p1", models.ProblemResolved, "Replaced the unit", "staff1", resolvedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetStatus(context.Background(), "p1", models.ProblemResolved, &models.Resolution{
		Description: "Replaced the unit",
		ResolvedBy:  "staff1",
		ResolvedAt:  resolvedAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositorySetStatusMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProblemRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE problems SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("missing", models.ProblemClosed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "missing", models.ProblemClosed, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProblemRepositoryListComments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProblemRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "problem_id", "user_id", "text", "is_anonymous", "created_at",
		"author.id", "author.name", "author.email",
	}).
		AddRow("c1", "p1", "u2", "Same in lab 4", false, now, "u2", "Bob", "bob@campus.edu").
		AddRow("c2", "p1", "u3", "Facilities notified", false, now.Add(time.Minute), "u3", "Cara", "cara@campus.edu")

	mock.ExpectQuery("FROM problem_comments c JOIN users u ON u.id = c.user_id").
		WithArgs("p1").
		WillReturnRows(rows)

	comments, err := repo.ListComments(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Bob", comments[0].Author.Name)
	assert.True(t, comments[0].CreatedAt.Before(comments[1].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

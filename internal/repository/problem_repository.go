package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-connect/campus-connect-api/internal/models"
)

const problemColumns = `p.id, p.title, p.description, p.category, p.priority, p.location, p.is_anonymous, p.reported_by, p.status, p.assigned_to, p.tags, p.resolution_description, p.resolved_by, p.resolved_at, p.created_at, p.updated_at`

const commentColumns = `c.id, c.problem_id, c.user_id, c.text, c.is_anonymous, c.created_at`

const voteCountSelects = `
		(SELECT COUNT(*) FROM problem_votes v WHERE v.problem_id = p.id AND v.direction = 'upvote') AS upvote_count,
		(SELECT COUNT(*) FROM problem_votes v WHERE v.problem_id = p.id AND v.direction = 'downvote') AS downvote_count`

// ProblemRepository provides database access for problem reports, their
// votes and comments.
type ProblemRepository struct {
	db *sqlx.DB
}

// NewProblemRepository creates a new instance of ProblemRepository.
func NewProblemRepository(db *sqlx.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

type problemRow struct {
	models.Problem
	Reporter models.PublicProfile `db:"reporter"`
}

type commentRow struct {
	models.ProblemComment
	Author models.PublicProfile `db:"author"`
}

// Create inserts a new problem report with its image references.
func (r *ProblemRepository) Create(ctx context.Context, problem *models.Problem, images []models.Image) error {
	if problem.ID == "" {
		problem.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	problem.CreatedAt = now
	problem.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin problem create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO problems (id, title, description, category, priority, location, is_anonymous, reported_by, status, assigned_to, tags, created_at, updated_at)
		VALUES (:id, :title, :description, :category, :priority, :location, :is_anonymous, :reported_by, :status, :assigned_to, :tags, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, problem); err != nil {
		return fmt.Errorf("create problem: %w", err)
	}

	for _, img := range images {
		if _, err := tx.ExecContext(ctx, `INSERT INTO problem_images (id, problem_id, url, public_id) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), problem.ID, img.URL, img.PublicID); err != nil {
			return fmt.Errorf("create problem image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit problem create: %w", err)
	}
	return nil
}

// FindByID returns one report without attached profiles.
func (r *ProblemRepository) FindByID(ctx context.Context, id string) (*models.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems p WHERE p.id = $1 LIMIT 1`
	var problem models.Problem
	if err := r.db.GetContext(ctx, &problem, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find problem by id: %w", err)
	}
	return &problem, nil
}

// List returns all reports with reporter name/email and vote counts,
// newest first.
func (r *ProblemRepository) List(ctx context.Context) ([]models.Problem, error) {
	query := `SELECT ` + problemColumns + `,` + voteCountSelects + `,
		u.id AS "reporter.id", u.name AS "reporter.name", u.email AS "reporter.email"
		FROM problems p JOIN users u ON u.id = p.reported_by
		ORDER BY p.created_at DESC`

	var rows []problemRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}

	problems := make([]models.Problem, 0, len(rows))
	for i := range rows {
		problem := rows[i].Problem
		reporter := rows[i].Reporter
		problem.Reporter = &reporter
		problems = append(problems, problem)
	}
	return problems, nil
}

// GetWithReporter returns one report with the reporter profile and vote
// counts attached.
func (r *ProblemRepository) GetWithReporter(ctx context.Context, id string) (*models.Problem, error) {
	query := `SELECT ` + problemColumns + `,` + voteCountSelects + `,
		u.id AS "reporter.id", u.name AS "reporter.name", u.email AS "reporter.email"
		FROM problems p JOIN users u ON u.id = p.reported_by
		WHERE p.id = $1 LIMIT 1`

	var row problemRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get problem: %w", err)
	}
	problem := row.Problem
	reporter := row.Reporter
	problem.Reporter = &reporter
	return &problem, nil
}

// ListImages returns the stored image references for a problem.
func (r *ProblemRepository) ListImages(ctx context.Context, problemID string) ([]models.Image, error) {
	const query = `SELECT url, public_id FROM problem_images WHERE problem_id = $1`
	var images []struct {
		URL      string `db:"url"`
		PublicID string `db:"public_id"`
	}
	if err := r.db.SelectContext(ctx, &images, query, problemID); err != nil {
		return nil, fmt.Errorf("list problem images: %w", err)
	}
	result := make([]models.Image, 0, len(images))
	for _, img := range images {
		result = append(result, models.Image{URL: img.URL, PublicID: img.PublicID})
	}
	return result, nil
}

// Update persists mutable report fields.
func (r *ProblemRepository) Update(ctx context.Context, problem *models.Problem) error {
	problem.UpdatedAt = time.Now().UTC()
	const query = `UPDATE problems SET title = :title, description = :description, category = :category, priority = :priority, location = :location, is_anonymous = :is_anonymous, tags = :tags, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, problem); err != nil {
		return fmt.Errorf("update problem: %w", err)
	}
	return nil
}

// Delete removes the report. Votes, comments and images cascade.
func (r *ProblemRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM problems WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	return nil
}

// Vote removes any prior membership in both direction lists, then records
// the chosen direction. Running inside one transaction keeps a voter in at
// most one list even under concurrent casts.
func (r *ProblemRepository) Vote(ctx context.Context, problemID, userID string, direction models.VoteDirection) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM problem_votes WHERE problem_id = $1 AND user_id = $2`, problemID, userID); err != nil {
		return fmt.Errorf("clear vote: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO problem_votes (problem_id, user_id, direction, created_at) VALUES ($1, $2, $3, $4)`,
		problemID, userID, direction, time.Now().UTC()); err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote: %w", err)
	}
	return nil
}

// ViewerVote returns the direction the user voted, if any.
func (r *ProblemRepository) ViewerVote(ctx context.Context, problemID, userID string) (*models.VoteDirection, error) {
	const query = `SELECT direction FROM problem_votes WHERE problem_id = $1 AND user_id = $2 LIMIT 1`
	var direction models.VoteDirection
	if err := r.db.GetContext(ctx, &direction, query, problemID, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("viewer vote: %w", err)
	}
	return &direction, nil
}

// AddComment appends a comment to a problem.
func (r *ProblemRepository) AddComment(ctx context.Context, comment *models.ProblemComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO problem_comments (id, problem_id, user_id, text, is_anonymous, created_at)
		VALUES (:id, :problem_id, :user_id, :text, :is_anonymous, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// ListComments returns a problem's comments with author profiles, oldest
// first.
func (r *ProblemRepository) ListComments(ctx context.Context, problemID string) ([]models.ProblemComment, error) {
	query := `SELECT ` + commentColumns + `,
		u.id AS "author.id", u.name AS "author.name", u.email AS "author.email"
		FROM problem_comments c JOIN users u ON u.id = c.user_id
		WHERE c.problem_id = $1
		ORDER BY c.created_at ASC`

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, problemID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]models.ProblemComment, 0, len(rows))
	for i := range rows {
		comment := rows[i].ProblemComment
		author := rows[i].Author
		comment.Author = &author
		comments = append(comments, comment)
	}
	return comments, nil
}

// SetStatus transitions the report status. Resolving attaches the
// resolution record in the same statement.
func (r *ProblemRepository) SetStatus(ctx context.Context, id string, status models.ProblemStatus, resolution *models.Resolution) error {
	var res sql.Result
	var err error
	if resolution != nil {
		const query = `UPDATE problems SET status = $2, resolution_description = $3, resolved_by = $4, resolved_at = $5, updated_at = $6 WHERE id = $1`
		res, err = r.db.ExecContext(ctx, query, id, status, resolution.Description, resolution.ResolvedBy, resolution.ResolvedAt, time.Now().UTC())
	} else {
		const query = `UPDATE problems SET status = $2, updated_at = $3 WHERE id = $1`
		res, err = r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	}
	if err != nil {
		return fmt.Errorf("set problem status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("problem status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-connect/campus-connect-api/internal/models"
)

// ErrRequestAlreadyAccepted signals that a listing already carries an
// accepted interest request.
var ErrRequestAlreadyAccepted = errors.New("another request is already accepted for this book")

const bookColumns = `b.id, b.title, b.author, b.isbn, b.subject, b.department, b.semester, b.description, b.condition, b.price, b.original_price, b.shared_by, b.availability, b.tags, b.is_negotiable, b.location, b.preferred_contact, b.notes, b.sold_to, b.sold_at, b.views, b.created_at, b.updated_at`

const requestColumns = `r.id, r.book_id, r.student_id, r.message, r.contact_email, r.contact_phone, r.status, r.requested_at`

// BookRepository provides database access for book listings and their
// interest requests and likes.
type BookRepository struct {
	db *sqlx.DB
}

// NewBookRepository creates a new instance of BookRepository.
func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

type bookRow struct {
	models.Book
	Owner models.PublicProfile `db:"owner"`
}

type requestRow struct {
	models.BookRequest
	Student models.PublicProfile `db:"student"`
}

// Create inserts a new listing.
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	const query = `INSERT INTO books (id, title, author, isbn, subject, department, semester, description, condition, price, original_price, shared_by, availability, tags, is_negotiable, location, preferred_contact, notes, views, created_at, updated_at)
		VALUES (:id, :title, :author, :isbn, :subject, :department, :semester, :description, :condition, :price, :original_price, :shared_by, :availability, :tags, :is_negotiable, :location, :preferred_contact, :notes, :views, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// FindByID returns a listing without attached profiles.
func (r *BookRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.id = $1 LIMIT 1`
	var book models.Book
	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find book by id: %w", err)
	}
	return &book, nil
}

// ListAvailable returns available listings with owner public profiles,
// newest first.
func (r *BookRepository) ListAvailable(ctx context.Context) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + `,
		(SELECT COUNT(*) FROM book_likes l WHERE l.book_id = b.id) AS like_count,
		u.id AS "owner.id", u.name AS "owner.name", u.email AS "owner.email", u.department AS "owner.department", u.year AS "owner.year"
		FROM books b JOIN users u ON u.id = b.shared_by
		WHERE b.availability = $1
		ORDER BY b.created_at DESC`

	var rows []bookRow
	if err := r.db.SelectContext(ctx, &rows, query, models.BookAvailable); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	books := make([]models.Book, 0, len(rows))
	for i := range rows {
		book := rows[i].Book
		owner := rows[i].Owner
		book.Owner = &owner
		books = append(books, book)
	}
	return books, nil
}

// GetWithOwner returns one listing with the owner's profile including phone.
func (r *BookRepository) GetWithOwner(ctx context.Context, id string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + `,
		(SELECT COUNT(*) FROM book_likes l WHERE l.book_id = b.id) AS like_count,
		u.id AS "owner.id", u.name AS "owner.name", u.email AS "owner.email", u.department AS "owner.department", u.year AS "owner.year", u.phone AS "owner.phone"
		FROM books b JOIN users u ON u.id = b.shared_by
		WHERE b.id = $1 LIMIT 1`

	var row bookRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	book := row.Book
	owner := row.Owner
	book.Owner = &owner
	return &book, nil
}

// Update persists mutable listing fields.
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now().UTC()
	const query = `UPDATE books SET title = :title, author = :author, isbn = :isbn, subject = :subject, department = :department, semester = :semester, description = :description, condition = :condition, price = :price, original_price = :original_price, tags = :tags, is_negotiable = :is_negotiable, location = :location, preferred_contact = :preferred_contact, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// Delete removes the listing. Likes and requests cascade.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM books WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter by one.
func (r *BookRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE books SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// ToggleLike flips the caller's membership in the liker list and reports the
// resulting state. The delete and insert run in one transaction so two
// concurrent toggles stay linearizable.
func (r *BookRepository) ToggleLike(ctx context.Context, bookID, userID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin like toggle: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM book_likes WHERE book_id = $1 AND user_id = $2`, bookID, userID)
	if err != nil {
		return false, fmt.Errorf("unlike book: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("like toggle rows: %w", err)
	}

	liked := false
	if removed == 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO book_likes (book_id, user_id, created_at) VALUES ($1, $2, $3)`, bookID, userID, time.Now().UTC()); err != nil {
			return false, fmt.Errorf("like book: %w", err)
		}
		liked = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit like toggle: %w", err)
	}
	return liked, nil
}

// HasLiked reports whether the user is in the listing's liker list.
func (r *BookRepository) HasLiked(ctx context.Context, bookID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM book_likes WHERE book_id = $1 AND user_id = $2)`
	var liked bool
	if err := r.db.GetContext(ctx, &liked, query, bookID, userID); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}

// CreateRequest appends an interest request. The unique (book_id, student_id)
// constraint rejects duplicates regardless of status.
func (r *BookRepository) CreateRequest(ctx context.Context, req *models.BookRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO book_requests (id, book_id, student_id, message, contact_email, contact_phone, status, requested_at)
		VALUES (:id, :book_id, :student_id, :message, :contact_email, :contact_phone, :status, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create book request: %w", err)
	}
	return nil
}

// HasRequest reports whether the student already requested this listing.
func (r *BookRepository) HasRequest(ctx context.Context, bookID, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM book_requests WHERE book_id = $1 AND student_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, bookID, studentID); err != nil {
		return false, fmt.Errorf("check book request: %w", err)
	}
	return exists, nil
}

// ListRequests returns a listing's requests with requester profiles.
func (r *BookRepository) ListRequests(ctx context.Context, bookID string) ([]models.BookRequest, error) {
	query := `SELECT ` + requestColumns + `,
		u.id AS "student.id", u.name AS "student.name", u.email AS "student.email", u.department AS "student.department", u.year AS "student.year"
		FROM book_requests r JOIN users u ON u.id = r.student_id
		WHERE r.book_id = $1
		ORDER BY r.requested_at ASC`

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, bookID); err != nil {
		return nil, fmt.Errorf("list book requests: %w", err)
	}

	requests := make([]models.BookRequest, 0, len(rows))
	for i := range rows {
		req := rows[i].BookRequest
		student := rows[i].Student
		req.Student = &student
		requests = append(requests, req)
	}
	return requests, nil
}

// UpdateRequestStatus sets an interest request's status. Accepting a request
// reserves the listing; at most one request per listing may be accepted.
func (r *BookRepository) UpdateRequestStatus(ctx context.Context, bookID, requestID string, status models.RequestStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin request update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if status == models.RequestAccepted {
		var accepted int
		if err := tx.GetContext(ctx, &accepted, `SELECT COUNT(*) FROM book_requests WHERE book_id = $1 AND status = $2 AND id <> $3`, bookID, models.RequestAccepted, requestID); err != nil {
			return fmt.Errorf("count accepted requests: %w", err)
		}
		if accepted > 0 {
			return ErrRequestAlreadyAccepted
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE book_requests SET status = $3 WHERE id = $2 AND book_id = $1`, bookID, requestID, status)
	if err != nil {
		return fmt.Errorf("update book request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("request update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if status == models.RequestAccepted {
		if _, err := tx.ExecContext(ctx, `UPDATE books SET availability = $2, updated_at = $3 WHERE id = $1`, bookID, models.BookReserved, time.Now().UTC()); err != nil {
			return fmt.Errorf("reserve book: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit request update: %w", err)
	}
	return nil
}

// MarkSold finalizes the listing with buyer and timestamp.
func (r *BookRepository) MarkSold(ctx context.Context, id, soldTo string, soldAt time.Time) error {
	const query = `UPDATE books SET availability = $2, sold_to = $3, sold_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.BookSold, soldTo, soldAt); err != nil {
		return fmt.Errorf("mark book sold: %w", err)
	}
	return nil
}

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

const lostItemColumns = `i.id, i.title, i.description, i.image_url, i.image_id, i.location, i.date_lost, i.finder_name, i.finder_email, i.finder_phone, i.status, i.reported_by, i.created_at, i.updated_at`

// LostItemRepository provides database access for lost item reports.
type LostItemRepository struct {
	db *sqlx.DB
}

// NewLostItemRepository creates a new instance of LostItemRepository.
func NewLostItemRepository(db *sqlx.DB) *LostItemRepository {
	return &LostItemRepository{db: db}
}

type lostItemRow struct {
	models.LostItem
	Reporter models.PublicProfile `db:"reporter"`
}

// Create inserts a new lost item report.
func (r *LostItemRepository) Create(ctx context.Context, item *models.LostItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	const query = `INSERT INTO lost_items (id, title, description, image_url, image_id, location, date_lost, finder_name, finder_email, finder_phone, status, reported_by, created_at, updated_at)
		VALUES (:id, :title, :description, :image_url, :image_id, :location, :date_lost, :finder_name, :finder_email, :finder_phone, :status, :reported_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create lost item: %w", err)
	}
	return nil
}

// FindByID returns one report without the reporter profile.
func (r *LostItemRepository) FindByID(ctx context.Context, id string) (*models.LostItem, error) {
	query := `SELECT ` + lostItemColumns + ` FROM lost_items i WHERE i.id = $1 LIMIT 1`
	var item models.LostItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lost item by id: %w", err)
	}
	return &item, nil
}

// List returns all reports with reporter name and email, newest first.
func (r *LostItemRepository) List(ctx context.Context) ([]models.LostItem, error) {
	query := `SELECT ` + lostItemColumns + `,
		u.id AS "reporter.id", u.name AS "reporter.name", u.email AS "reporter.email"
		FROM lost_items i JOIN users u ON u.id = i.reported_by
		ORDER BY i.created_at DESC`

	var rows []lostItemRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list lost items: %w", err)
	}

	items := make([]models.LostItem, 0, len(rows))
	for i := range rows {
		item := rows[i].LostItem
		reporter := rows[i].Reporter
		item.Reporter = &reporter
		items = append(items, item)
	}
	return items, nil
}

// GetWithReporter returns one report with the reporter's profile including
// phone.
func (r *LostItemRepository) GetWithReporter(ctx context.Context, id string) (*models.LostItem, error) {
	query := `SELECT ` + lostItemColumns + `,
		u.id AS "reporter.id", u.name AS "reporter.name", u.email AS "reporter.email", u.phone AS "reporter.phone"
		FROM lost_items i JOIN users u ON u.id = i.reported_by
		WHERE i.id = $1 LIMIT 1`

	var row lostItemRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get lost item: %w", err)
	}
	item := row.LostItem
	reporter := row.Reporter
	item.Reporter = &reporter
	return &item, nil
}

// Update persists mutable report fields.
func (r *LostItemRepository) Update(ctx context.Context, item *models.LostItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lost_items SET title = :title, description = :description, image_url = :image_url, image_id = :image_id, location = :location, date_lost = :date_lost, finder_name = :finder_name, finder_email = :finder_email, finder_phone = :finder_phone, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update lost item: %w", err)
	}
	return nil
}

// Delete removes the report.
func (r *LostItemRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM lost_items WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete lost item: %w", err)
	}
	return nil
}

// SetStatus transitions the report status.
func (r *LostItemRepository) SetStatus(ctx context.Context, id string, status models.LostItemStatus) error {
	const query = `UPDATE lost_items SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set lost item status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("lost item status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

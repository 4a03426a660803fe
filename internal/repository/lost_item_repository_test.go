package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/campus-connect-api/internal/models"
)

func lostItemRows(withPhone bool) *sqlmock.Rows {
	now := time.Now()
	columns := []string{
		"id", "title", "description", "image_url", "image_id", "location", "date_lost",
		"finder_name", "finder_email", "finder_phone", "status", "reported_by", "created_at", "updated_at",
		"reporter.id", "reporter.name", "reporter.email",
	}
	values := []driver.Value{
		"l1", "Blue backpack", "Left near the library", "https://cdn.example.com/b.jpg", "", "Central Library", now.Add(-24 * time.Hour),
		"", "", "", "lost", "u1", now, now,
		"u1", "Alice", "alice@campus.edu",
	}
	if withPhone {
		columns = append(columns, "reporter.phone")
		values = append(values, "9876543210")
	}
	return sqlmock.NewRows(columns).AddRow(values...)
}

func TestLostItemRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostItemRepository(db)

	mock.ExpectQuery("FROM lost_items i JOIN users u ON u.id = i.reported_by").
		WillReturnRows(lostItemRows(false))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ItemLost, items[0].Status)
	assert.Equal(t, "Alice", items[0].Reporter.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLostItemRepositoryGetWithReporterPhone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostItemRepository(db)

	mock.ExpectQuery("FROM lost_items i JOIN users u ON u.id = i.reported_by").
		WithArgs("l1").
		WillReturnRows(lostItemRows(true))

	item, err := repo.GetWithReporter(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", item.Reporter.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLostItemRepositorySetStatusMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostItemRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lost_items SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("missing", models.ItemClaimed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "missing", models.ItemClaimed)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

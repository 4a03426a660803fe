package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

type stubProblemSource struct {
	problems []models.Problem
}

func (s *stubProblemSource) List(_ context.Context) ([]models.Problem, error) {
	return s.problems, nil
}

func exportFixture() *stubProblemSource {
	return &stubProblemSource{problems: []models.Problem{
		{
			Title:         "Broken AC",
			Category:      models.CategoryInfrastructure,
			Priority:      models.PriorityHigh,
			Status:        models.ProblemOpen,
			Location:      "Lab 3",
			Reporter:      &models.PublicProfile{Name: "Alice"},
			UpvoteCount:   5,
			DownvoteCount: 1,
			CreatedAt:     time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		},
		{
			Title:       "Hostel wifi down",
			Category:    models.CategoryHostel,
			Priority:    models.PriorityUrgent,
			Status:      models.ProblemInProgress,
			Location:    "Hostel A",
			IsAnonymous: true,
			Reporter:    &models.PublicProfile{Name: "Bob"},
			CreatedAt:   time.Date(2025, 3, 11, 20, 0, 0, 0, time.UTC),
		},
	}}
}

func TestExportServiceProblemsCSV(t *testing.T) {
	svc := NewExportService(exportFixture(), nil, nil, zap.NewNop())

	file, err := svc.Problems(context.Background(), ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "problems_"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := string(file.Payload)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Title,Category,Priority,Status,Location,Reporter,Upvotes,Downvotes,Reported At", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Broken AC")
	assert.Contains(t, lines[1], "Alice")
	assert.Contains(t, lines[2], "Anonymous")
	assert.NotContains(t, body, "Bob")
}

func TestExportServiceProblemsPDF(t *testing.T) {
	svc := NewExportService(exportFixture(), nil, nil, zap.NewNop())

	file, err := svc.Problems(context.Background(), ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	assert.True(t, len(file.Payload) > 0)
	assert.Equal(t, "%PDF", string(file.Payload[:4]))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := NewExportService(exportFixture(), nil, nil, zap.NewNop())

	_, err := svc.Problems(context.Background(), ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestParseExportFormat(t *testing.T) {
	format, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportCSV, format)

	format, err = ParseExportFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, ExportPDF, format)

	_, err = ParseExportFormat("xlsx")
	require.Error(t, err)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-connect/campus-connect-api/internal/models"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
	"github.com/campus-connect/campus-connect-api/pkg/export"
)

// ExportFormat is a supported problem export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportProblemSource interface {
	List(ctx context.Context) ([]models.Problem, error)
}

// ExportService renders the problem register as a downloadable file for
// administrative review.
type ExportService struct {
	problems exportProblemSource
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(problems exportProblemSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{problems: problems, csv: csv, pdf: pdf, logger: logger}
}

// Problems renders every problem report in the requested format.
func (s *ExportService) Problems(ctx context.Context, format ExportFormat) (*ExportFile, error) {
	problems, err := s.problems.List(ctx)
	if err != nil {
		return nil, err
	}

	dataset := buildProblemDataset(problems)
	timestamp := time.Now().UTC().Format("20060102_150405")

	switch format {
	case ExportCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("problems_%s.csv", timestamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ExportPDF:
		payload, err := s.pdf.Render(dataset, "Problem Reports")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("problems_%s.pdf", timestamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "Unsupported export format")
	}
}

func buildProblemDataset(problems []models.Problem) export.Dataset {
	headers := []string{"Title", "Category", "Priority", "Status", "Location", "Reporter", "Upvotes", "Downvotes", "Reported At"}
	rows := make([]map[string]string, 0, len(problems))
	for _, p := range problems {
		reporter := "Anonymous"
		if !p.IsAnonymous && p.Reporter != nil {
			reporter = p.Reporter.Name
		}
		rows = append(rows, map[string]string{
			"Title":       p.Title,
			"Category":    string(p.Category),
			"Priority":    string(p.Priority),
			"Status":      string(p.Status),
			"Location":    p.Location,
			"Reporter":    reporter,
			"Upvotes":     fmt.Sprintf("%d", p.UpvoteCount),
			"Downvotes":   fmt.Sprintf("%d", p.DownvoteCount),
			"Reported At": p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// ParseExportFormat normalizes the query parameter, defaulting to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return ExportCSV, nil
	case "pdf":
		return ExportPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "Unsupported export format")
	}
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/pkg/export"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type summaryProvider interface {
	Summary(ctx context.Context, filter models.StudentFilter) (*models.AllocationSummary, bool, error)
}

type csvRenderer interface {
	Render(report export.Report) ([]byte, error)
}

type pdfRenderer interface {
	Render(report export.Report) ([]byte, error)
}

// ExportResult is a rendered document ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders allocation summaries as downloadable documents.
type ExportService struct {
	summaries summaryProvider
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(summaries summaryProvider, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{summaries: summaries, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportSummary renders the allocation summary for filter in the requested format.
func (s *ExportService) ExportSummary(ctx context.Context, filter models.StudentFilter, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	summary, _, err := s.summaries.Summary(ctx, filter)
	if err != nil {
		return nil, err
	}
	report := buildSummaryReport(summary)

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		payload, err = s.pdf.Render(report)
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(report)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("allocation_summary_%s_%s.%s",
		sanitizeFilename(filter.DepartmentID), s.now().UTC().Format("20060102_150405"), format)
	s.logger.Info("allocation summary exported", zap.String("format", format), zap.Int("bytes", len(payload)))
	return &ExportResult{Filename: filename, ContentType: contentType, Data: payload}, nil
}

func buildSummaryReport(summary *models.AllocationSummary) export.Report {
	overview := export.Dataset{
		Title:   "Overview",
		Headers: []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Total Students", "Value": fmt.Sprintf("%d", summary.TotalStudents)},
			{"Metric": "Allocated", "Value": fmt.Sprintf("%d", summary.Allocated)},
			{"Metric": "Unallocated", "Value": fmt.Sprintf("%d", summary.Unallocated)},
			{"Metric": "Allocation (%)", "Value": fmt.Sprintf("%.2f", summary.AllocationPercentage)},
			{"Metric": "Urgent", "Value": fmt.Sprintf("%d", summary.Urgent)},
			{"Metric": "Generated At", "Value": summary.GeneratedAt.UTC().Format(time.RFC3339)},
		},
	}

	subjects := export.Dataset{
		Title:   "Subjects",
		Headers: []string{"Subject", "Allocated", "Unallocated"},
		Rows:    make([]map[string]string, 0, len(summary.Subjects)),
	}
	for _, row := range summary.Subjects {
		subjects.Rows = append(subjects.Rows, map[string]string{
			"Subject":     row.Subject,
			"Allocated":   fmt.Sprintf("%d", row.Allocated),
			"Unallocated": fmt.Sprintf("%d", row.Unallocated),
		})
	}

	tutors := export.Dataset{
		Title:   "Tutor Utilization",
		Headers: []string{"Tutor ID", "Tutor", "Committed", "Capacity", "Utilization (%)"},
		Rows:    make([]map[string]string, 0, len(summary.Tutors)),
	}
	for _, row := range summary.Tutors {
		tutors.Rows = append(tutors.Rows, map[string]string{
			"Tutor ID":        row.TutorID,
			"Tutor":           row.TutorName,
			"Committed":       fmt.Sprintf("%d", row.Committed),
			"Capacity":        fmt.Sprintf("%d", row.Capacity),
			"Utilization (%)": fmt.Sprintf("%.2f", row.Utilization),
		})
	}

	return export.Report{Title: "Allocation Summary", Sections: []export.Dataset{overview, subjects, tutors}}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

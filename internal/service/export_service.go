package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/redditharbor/harbor-api/internal/models"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
	"github.com/redditharbor/harbor-api/pkg/export"
)

// Export formats accepted by GET /export/{job_id}.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

var csvHeaders = []string{"id", "title", "score", "upvote_ratio", "num_comments", "author", "subreddit", "created_utc", "url"}

// anonymousLabel stands in for redacted authors in flat exports, where a
// null cell would read as missing data rather than a policy choice.
const anonymousLabel = "Anonymous"

type exportSubmissionStore interface {
	ListByJob(ctx context.Context, jobID string) ([]models.Submission, error)
}

type statsProvider interface {
	Statistics(ctx context.Context) (*models.Stats, error)
}

// ExportResult carries rendered bytes with download metadata.
type ExportResult struct {
	Data        []byte
	Filename    string
	ContentType string
}

// jsonDocument is the enclosing object of the json export format.
type jsonDocument struct {
	JobID        string              `json:"job_id"`
	ExportDate   time.Time           `json:"export_date"`
	TotalRecords int                 `json:"total_records"`
	Data         []models.Submission `json:"data"`
}

// ExportService renders a job's collected submissions into downloadable
// files, and the aggregate statistics into a PDF summary.
type ExportService struct {
	jobs        jobReader
	submissions exportSubmissionStore
	stats       statsProvider
	csv         *export.CSVExporter
	json        *export.JSONExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(jobs jobReader, submissions exportSubmissionStore, stats statsProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		jobs:        jobs,
		submissions: submissions,
		stats:       stats,
		csv:         export.NewCSVExporter(),
		json:        export.NewJSONExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// Export renders the stored submissions of a job in the requested format.
// Unknown jobs are not found; known jobs without stored data yield NO_DATA
// regardless of lifecycle state.
func (s *ExportService) Export(ctx context.Context, jobID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case FormatCSV, FormatJSON, FormatJSONL:
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}

	job, err := s.jobs.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collection job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection job")
	}

	subs, err := s.submissions.ListByJob(ctx, job.JobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	if len(subs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoData, "no collected data for this job")
	}

	var payload []byte
	var contentType string
	switch format {
	case FormatCSV:
		payload, err = s.renderCSV(subs)
		contentType = "text/csv"
	case FormatJSON:
		payload, err = s.json.RenderDocument(jsonDocument{
			JobID:        job.JobID,
			ExportDate:   time.Now().UTC(),
			TotalRecords: len(subs),
			Data:         subs,
		})
		contentType = "application/json"
	case FormatJSONL:
		items := make([]interface{}, len(subs))
		for i := range subs {
			items[i] = subs[i]
		}
		payload, err = s.json.RenderLines(items)
		contentType = "application/jsonl"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Data:        payload,
		Filename:    fmt.Sprintf("reddit-data-%s.%s", job.JobID, format),
		ContentType: contentType,
	}, nil
}

func (s *ExportService) renderCSV(subs []models.Submission) ([]byte, error) {
	rows := make([]map[string]string, 0, len(subs))
	for _, sub := range subs {
		author := anonymousLabel
		if sub.Author != nil && *sub.Author != "" {
			author = *sub.Author
		}
		url := ""
		if sub.URL != nil {
			url = *sub.URL
		}
		rows = append(rows, map[string]string{
			"id":           sub.RedditID,
			"title":        sub.Title,
			"score":        strconv.Itoa(sub.Score),
			"upvote_ratio": fmt.Sprintf("%.1f%%", sub.UpvoteRatio*100),
			"num_comments": strconv.Itoa(sub.NumComments),
			"author":       author,
			"subreddit":    sub.Subreddit,
			"created_utc":  sub.CreatedUTC.UTC().Format(time.RFC3339),
			"url":          url,
		})
	}
	return s.csv.Render(export.Dataset{Headers: csvHeaders, Rows: rows})
}

// StatsSummaryPDF renders the current aggregate statistics as a one-page
// PDF report.
func (s *ExportService) StatsSummaryPDF(ctx context.Context) (*ExportResult, error) {
	stats, err := s.stats.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	rows := []map[string]string{
		{"metric": "Total jobs", "value": strconv.Itoa(stats.Jobs.Total)},
		{"metric": "Queued jobs", "value": strconv.Itoa(stats.Jobs.Queued)},
		{"metric": "Running jobs", "value": strconv.Itoa(stats.Jobs.Running)},
		{"metric": "Completed jobs", "value": strconv.Itoa(stats.Jobs.Completed)},
		{"metric": "Failed jobs", "value": strconv.Itoa(stats.Jobs.Failed)},
		{"metric": "Cancelled jobs", "value": strconv.Itoa(stats.Jobs.Cancelled)},
		{"metric": "Stored submissions", "value": strconv.Itoa(stats.Data.TotalSubmissions)},
		{"metric": "Stored comments", "value": strconv.Itoa(stats.Data.TotalComments)},
	}
	for _, top := range stats.TopSubreddits {
		rows = append(rows, map[string]string{
			"metric": fmt.Sprintf("Jobs for r/%s", top.Subreddit),
			"value":  strconv.Itoa(top.JobCount),
		})
	}

	payload, err := s.pdf.Render(export.Dataset{Headers: []string{"metric", "value"}, Rows: rows}, "Collection Statistics")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statistics pdf")
	}

	return &ExportResult{
		Data:        payload,
		Filename:    fmt.Sprintf("reddit-stats-%s.pdf", time.Now().UTC().Format("2006-01-02")),
		ContentType: "application/pdf",
	}, nil
}

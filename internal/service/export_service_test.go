package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redditharbor/harbor-api/internal/models"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
)

type statsProviderStub struct {
	stats *models.Stats
}

func (s *statsProviderStub) Statistics(ctx context.Context) (*models.Stats, error) {
	return s.stats, nil
}

func exportFixtures(t *testing.T) (*ExportService, *jobStoreStub, *submissionStoreStub) {
	t.Helper()
	jobStore := newJobStoreStub()
	jobStore.jobs["job-1"] = &models.CollectionJob{
		ID: 1, JobID: "job-1", Subreddit: "golang",
		SortMode: models.SortHot, PostLimit: 2, Status: models.JobStatusCompleted,
	}

	author := "gopher"
	subStore := &submissionStoreStub{
		subs: []models.Submission{
			{
				RedditID:    "abc",
				Title:       "hello world",
				Score:       42,
				UpvoteRatio: 0.95,
				NumComments: 3,
				Author:      &author,
				Subreddit:   "golang",
				CreatedUTC:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			},
			{
				RedditID:    "def",
				Title:       "anonymous post",
				Score:       7,
				UpvoteRatio: 0.5,
				NumComments: 0,
				Author:      nil,
				Subreddit:   "golang",
				CreatedUTC:  time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
			},
		},
	}
	svc := NewExportService(jobStore, subStore, &statsProviderStub{stats: &models.Stats{}}, zap.NewNop())
	return svc, jobStore, subStore
}

func TestExportServiceCSV(t *testing.T) {
	svc, _, _ := exportFixtures(t)

	result, err := svc.Export(context.Background(), "job-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "reddit-data-job-1.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	lines := strings.Split(strings.TrimRight(string(result.Data), "\n"), "\n")
	// Header plus one line per submission.
	require.Len(t, lines, 3)
	assert.Equal(t, "id,title,score,upvote_ratio,num_comments,author,subreddit,created_utc,url", lines[0])
	assert.Contains(t, lines[1], "95.0%")
	assert.Contains(t, lines[1], "gopher")
	// Redacted authors export as a fixed label.
	assert.Contains(t, lines[2], "Anonymous")
}

func TestExportServiceJSON(t *testing.T) {
	svc, _, _ := exportFixtures(t)

	result, err := svc.Export(context.Background(), "job-1", "json")
	require.NoError(t, err)
	assert.Equal(t, "reddit-data-job-1.json", result.Filename)
	assert.Equal(t, "application/json", result.ContentType)

	var doc struct {
		JobID        string            `json:"job_id"`
		ExportDate   time.Time         `json:"export_date"`
		TotalRecords int               `json:"total_records"`
		Data         []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &doc))
	assert.Equal(t, "job-1", doc.JobID)
	assert.Equal(t, 2, doc.TotalRecords)
	assert.Len(t, doc.Data, 2)
	assert.False(t, doc.ExportDate.IsZero())
}

func TestExportServiceJSONL(t *testing.T) {
	svc, _, _ := exportFixtures(t)

	result, err := svc.Export(context.Background(), "job-1", "jsonl")
	require.NoError(t, err)
	assert.Equal(t, "reddit-data-job-1.jsonl", result.Filename)
	assert.Equal(t, "application/jsonl", result.ContentType)

	lines := strings.Split(strings.TrimRight(string(result.Data), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var obj map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &obj))
		assert.Contains(t, obj, "id")
		assert.Contains(t, obj, "title")
	}
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc, _, _ := exportFixtures(t)

	_, err := svc.Export(context.Background(), "job-1", "xml")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, appErrors.FromError(err).Code)
}

func TestExportServiceUnknownJob(t *testing.T) {
	svc, _, _ := exportFixtures(t)

	_, err := svc.Export(context.Background(), "missing", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceNoData(t *testing.T) {
	svc, jobStore, subStore := exportFixtures(t)
	jobStore.jobs["job-2"] = &models.CollectionJob{ID: 2, JobID: "job-2", Subreddit: "golang", Status: models.JobStatusCompleted}
	subStore.subs = nil

	_, err := svc.Export(context.Background(), "job-2", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoData.Code, appErrors.FromError(err).Code)
}

func TestExportServiceStatsSummaryPDF(t *testing.T) {
	jobStore := newJobStoreStub()
	stats := &models.Stats{
		Jobs:          models.JobCounts{Total: 2, Completed: 2},
		Data:          models.DataCounts{TotalSubmissions: 10, TotalComments: 4},
		TopSubreddits: []models.SubredditCount{{Subreddit: "golang", JobCount: 2}},
	}
	svc := NewExportService(jobStore, &submissionStoreStub{}, &statsProviderStub{stats: stats}, zap.NewNop())

	result, err := svc.StatsSummaryPDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
	assert.True(t, strings.HasPrefix(result.Filename, "reddit-stats-"))
}

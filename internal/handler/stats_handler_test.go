package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redditharbor/harbor-api/internal/models"
	"github.com/redditharbor/harbor-api/internal/service"
)

type statsQuerierMock struct {
	stats *models.Stats
	err   error
}

func (m *statsQuerierMock) Statistics(ctx context.Context) (*models.Stats, error) {
	return m.stats, m.err
}

type statsExporterMock struct {
	result *service.ExportResult
	err    error
}

func (m *statsExporterMock) StatsSummaryPDF(ctx context.Context) (*service.ExportResult, error) {
	return m.result, m.err
}

func TestStatsHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	querier := &statsQuerierMock{
		stats: &models.Stats{
			Jobs: models.JobCounts{Total: 5, Completed: 3},
			Data: models.DataCounts{TotalSubmissions: 100, TotalComments: 250},
		},
	}
	h := NewStatsHandler(querier, &statsExporterMock{})

	c, w := newGinContext(http.MethodGet, "/stats", nil)
	h.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":5`)
	assert.Contains(t, w.Body.String(), `"total_submissions":100`)
}

func TestStatsHandlerSummaryPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &statsExporterMock{
		result: &service.ExportResult{
			Data:        []byte("%PDF-1.3"),
			Filename:    "reddit-stats-2024-03-01.pdf",
			ContentType: "application/pdf",
		},
	}
	h := NewStatsHandler(&statsQuerierMock{}, exporter)

	c, w := newGinContext(http.MethodGet, "/stats/summary.pdf", nil)
	h.SummaryPDF(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
}

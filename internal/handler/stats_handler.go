package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/redditharbor/harbor-api/internal/models"
	"github.com/redditharbor/harbor-api/internal/service"
	"github.com/redditharbor/harbor-api/pkg/response"
)

type statsQuerier interface {
	Statistics(ctx context.Context) (*models.Stats, error)
}

type statsExporter interface {
	StatsSummaryPDF(ctx context.Context) (*service.ExportResult, error)
}

// StatsHandler serves aggregate statistics.
type StatsHandler struct {
	query   statsQuerier
	exports statsExporter
}

// NewStatsHandler constructs handler.
func NewStatsHandler(query statsQuerier, exports statsExporter) *StatsHandler {
	return &StatsHandler{query: query, exports: exports}
}

// Stats godoc
// @Summary Aggregate collection statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	stats, err := h.query.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// SummaryPDF godoc
// @Summary Statistics summary as PDF
// @Tags Stats
// @Produce application/pdf
// @Success 200 {file} file
// @Router /stats/summary.pdf [get]
func (h *StatsHandler) SummaryPDF(c *gin.Context) {
	result, err := h.exports.StatsSummaryPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

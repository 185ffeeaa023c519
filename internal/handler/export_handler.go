package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/redditharbor/harbor-api/internal/service"
	"github.com/redditharbor/harbor-api/pkg/response"
)

type dataExporter interface {
	Export(ctx context.Context, jobID, format string) (*service.ExportResult, error)
}

// ExportHandler serves file downloads of collected data.
type ExportHandler struct {
	exports dataExporter
}

// NewExportHandler constructs handler.
func NewExportHandler(exports dataExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Download a job's collected data
// @Tags Export
// @Produce octet-stream
// @Param job_id path string true "Job ID"
// @Param format query string false "Export format (csv, json, jsonl)" default(csv)
// @Success 200 {file} file
// @Router /export/{job_id} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	result, err := h.exports.Export(c.Request.Context(), c.Param("job_id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/redditharbor/harbor-api/internal/models"
	"github.com/redditharbor/harbor-api/pkg/response"
)

type submissionQuerier interface {
	ListSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, models.Pagination, error)
}

// DataHandler serves collected submissions.
type DataHandler struct {
	query submissionQuerier
}

// NewDataHandler constructs handler.
func NewDataHandler(query submissionQuerier) *DataHandler {
	return &DataHandler{query: query}
}

// List godoc
// @Summary Query collected submissions
// @Tags Data
// @Produce json
// @Param job_id query string false "Filter by job ID"
// @Param subreddit query string false "Filter by subreddit"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /data [get]
func (h *DataHandler) List(c *gin.Context) {
	filter := models.SubmissionFilter{
		JobID:     c.Query("job_id"),
		Subreddit: c.Query("subreddit"),
		Limit:     queryInt(c, "limit"),
		Offset:    queryInt(c, "offset"),
	}
	subs, pagination, err := h.query.ListSubmissions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, &pagination)
}

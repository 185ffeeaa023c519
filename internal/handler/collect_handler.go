package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/redditharbor/harbor-api/internal/dto"
	"github.com/redditharbor/harbor-api/internal/models"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
	"github.com/redditharbor/harbor-api/pkg/response"
)

type jobLifecycle interface {
	CreateJob(ctx context.Context, req dto.CollectionRequest) (*dto.CollectionResponse, error)
	GetStatus(ctx context.Context, jobID string) (*dto.JobStatusResponse, error)
	Cancel(ctx context.Context, jobID string) (*dto.CancelResponse, error)
}

type jobQuerier interface {
	ListJobs(ctx context.Context, filter models.JobFilter) ([]models.CollectionJob, models.Pagination, error)
}

// CollectHandler exposes the collection job endpoints.
type CollectHandler struct {
	jobs  jobLifecycle
	query jobQuerier
}

// NewCollectHandler constructs handler.
func NewCollectHandler(jobs jobLifecycle, query jobQuerier) *CollectHandler {
	return &CollectHandler{jobs: jobs, query: query}
}

// Collect godoc
// @Summary Start a collection job
// @Tags Collection
// @Accept json
// @Produce json
// @Param request body dto.CollectionRequest true "Collection parameters"
// @Success 202 {object} response.Envelope
// @Router /collect [post]
func (h *CollectHandler) Collect(c *gin.Context) {
	var req dto.CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	resp, err := h.jobs.CreateJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}

// Status godoc
// @Summary Collection job status
// @Tags Collection
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /status/{job_id} [get]
func (h *CollectHandler) Status(c *gin.Context) {
	resp, err := h.jobs.GetStatus(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// List godoc
// @Summary List collection jobs
// @Tags Collection
// @Produce json
// @Param status query string false "Filter by status"
// @Param subreddit query string false "Filter by subreddit"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *CollectHandler) List(c *gin.Context) {
	filter := models.JobFilter{
		Subreddit: c.Query("subreddit"),
		Limit:     queryInt(c, "limit"),
		Offset:    queryInt(c, "offset"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.JobStatus(raw)
		filter.Status = &status
	}
	jobList, pagination, err := h.query.ListJobs(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobList, &pagination)
}

// Cancel godoc
// @Summary Cancel a collection job
// @Tags Collection
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /jobs/{job_id} [delete]
func (h *CollectHandler) Cancel(c *gin.Context) {
	resp, err := h.jobs.Cancel(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redditharbor/harbor-api/internal/dto"
	"github.com/redditharbor/harbor-api/internal/models"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
)

type jobLifecycleMock struct {
	createResp *dto.CollectionResponse
	createErr  error
	statusResp *dto.JobStatusResponse
	statusErr  error
	cancelResp *dto.CancelResponse
	cancelErr  error
}

func (m *jobLifecycleMock) CreateJob(ctx context.Context, req dto.CollectionRequest) (*dto.CollectionResponse, error) {
	return m.createResp, m.createErr
}

func (m *jobLifecycleMock) GetStatus(ctx context.Context, jobID string) (*dto.JobStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *jobLifecycleMock) Cancel(ctx context.Context, jobID string) (*dto.CancelResponse, error) {
	return m.cancelResp, m.cancelErr
}

type jobQuerierMock struct {
	jobs       []models.CollectionJob
	pagination models.Pagination
	err        error
	lastFilter models.JobFilter
}

func (m *jobQuerierMock) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.CollectionJob, models.Pagination, error) {
	m.lastFilter = filter
	return m.jobs, m.pagination, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestCollectHandlerCollect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &jobLifecycleMock{
		createResp: &dto.CollectionResponse{JobID: "job-1", Status: models.JobStatusQueued, Message: "accepted"},
	}
	h := NewCollectHandler(mockSvc, &jobQuerierMock{})

	payload, _ := json.Marshal(dto.CollectionRequest{Subreddit: "golang", PostLimit: 10})
	c, w := newGinContext(http.MethodPost, "/collect", payload)

	h.Collect(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestCollectHandlerCollectBadBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewCollectHandler(&jobLifecycleMock{}, &jobQuerierMock{})

	c, w := newGinContext(http.MethodPost, "/collect", []byte("{not json"))
	h.Collect(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectHandlerCollectValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &jobLifecycleMock{
		createErr: appErrors.Clone(appErrors.ErrValidation, "post_limit must be positive"),
	}
	h := NewCollectHandler(mockSvc, &jobQuerierMock{})

	payload, _ := json.Marshal(dto.CollectionRequest{Subreddit: "golang"})
	c, w := newGinContext(http.MethodPost, "/collect", payload)
	h.Collect(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrValidation.Code)
}

func TestCollectHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &jobLifecycleMock{
		statusResp: &dto.JobStatusResponse{JobID: "job-1", Status: models.JobStatusRunning, Progress: 50},
	}
	h := NewCollectHandler(mockSvc, &jobQuerierMock{})

	c, w := newGinContext(http.MethodGet, "/status/job-1", nil)
	c.Params = gin.Params{{Key: "job_id", Value: "job-1"}}
	h.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"progress":50`)
}

func TestCollectHandlerStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &jobLifecycleMock{statusErr: appErrors.ErrNotFound}
	h := NewCollectHandler(mockSvc, &jobQuerierMock{})

	c, w := newGinContext(http.MethodGet, "/status/missing", nil)
	c.Params = gin.Params{{Key: "job_id", Value: "missing"}}
	h.Status(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollectHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	querier := &jobQuerierMock{
		jobs:       []models.CollectionJob{{JobID: "job-1", Status: models.JobStatusCompleted}},
		pagination: models.Pagination{Limit: 20, TotalCount: 1},
	}
	h := NewCollectHandler(&jobLifecycleMock{}, querier)

	c, w := newGinContext(http.MethodGet, "/jobs?status=completed&limit=20", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, querier.lastFilter.Status)
	assert.Equal(t, models.JobStatusCompleted, *querier.lastFilter.Status)
	assert.Equal(t, 20, querier.lastFilter.Limit)
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}

func TestCollectHandlerCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &jobLifecycleMock{
		cancelResp: &dto.CancelResponse{JobID: "job-1", Status: models.JobStatusCancelled},
	}
	h := NewCollectHandler(mockSvc, &jobQuerierMock{})

	c, w := newGinContext(http.MethodDelete, "/jobs/job-1", nil)
	c.Params = gin.Params{{Key: "job_id", Value: "job-1"}}
	h.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cancelled")
}

func TestCollectHandlerCancelConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &jobLifecycleMock{cancelErr: appErrors.ErrInvalidTransition}
	h := NewCollectHandler(mockSvc, &jobQuerierMock{})

	c, w := newGinContext(http.MethodDelete, "/jobs/job-1", nil)
	c.Params = gin.Params{{Key: "job_id", Value: "job-1"}}
	h.Cancel(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrInvalidTransition.Code)
}

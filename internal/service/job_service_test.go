package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redditharbor/harbor-api/internal/dto"
	"github.com/redditharbor/harbor-api/internal/models"
	"github.com/redditharbor/harbor-api/internal/repository"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
	"github.com/redditharbor/harbor-api/pkg/jobs"
)

type jobStoreStub struct {
	jobs      map[string]*models.CollectionJob
	nextID    int64
	createErr error
}

func newJobStoreStub() *jobStoreStub {
	return &jobStoreStub{jobs: map[string]*models.CollectionJob{}}
}

func (s *jobStoreStub) Create(ctx context.Context, job *models.CollectionJob) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	job.ID = s.nextID
	if job.JobID == "" {
		job.JobID = fmt.Sprintf("job-%d", s.nextID)
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	s.jobs[job.JobID] = job
	return nil
}

func (s *jobStoreStub) GetByJobID(ctx context.Context, jobID string) (*models.CollectionJob, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

// UpdateWhereStatus mirrors the conditional update semantics of the real
// store: the write applies only while the current status is expected.
func (s *jobStoreStub) UpdateWhereStatus(ctx context.Context, jobID string, expected []models.JobStatus, params repository.UpdateJobParams) (bool, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return false, nil
	}
	matched := false
	for _, status := range expected {
		if job.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.TotalPosts != nil {
		job.TotalPosts = *params.TotalPosts
	}
	if params.CollectedPosts != nil {
		job.CollectedPosts = *params.CollectedPosts
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	return true, nil
}

func (s *jobStoreStub) List(ctx context.Context, filter models.JobFilter) ([]models.CollectionJob, int, error) {
	var out []models.CollectionJob
	for _, job := range s.jobs {
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		out = append(out, *job)
	}
	return out, len(out), nil
}

func (s *jobStoreStub) ListQueuedIDs(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	for id, job := range s.jobs {
		if job.Status == models.JobStatusQueued {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type userStoreStub struct {
	users map[int64]*models.User
}

func (s *userStoreStub) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if s.users == nil {
		return nil, sql.ErrNoRows
	}
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newJobServiceForTest(t *testing.T) (*JobService, *jobStoreStub, *queueStub) {
	t.Helper()
	store := newJobStoreStub()
	queue := &queueStub{}
	svc := NewJobService(store, &userStoreStub{}, queue, nil, nil, validator.New(), zap.NewNop(), 1000)
	return svc, store, queue
}

func TestJobServiceCreateJob(t *testing.T) {
	svc, store, queue := newJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), dto.CollectionRequest{
		Subreddit: "golang",
		PostLimit: 50,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.JobID)
	assert.Equal(t, models.JobStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.JobID, queue.jobs[0].Payload)

	stored := store.jobs[resp.JobID]
	require.NotNil(t, stored)
	assert.Equal(t, models.SortHot, stored.SortMode)
	assert.Equal(t, 0, stored.Progress)
	assert.Equal(t, models.JobStatusQueued, stored.Status)
}

func TestJobServiceCreateJobValidation(t *testing.T) {
	svc, _, queue := newJobServiceForTest(t)

	cases := []dto.CollectionRequest{
		{PostLimit: 10},                                              // missing subreddit
		{Subreddit: "golang"},                                        // missing post limit
		{Subreddit: "golang", PostLimit: -1},                         // negative post limit
		{Subreddit: "golang", PostLimit: 10, SortMode: "trending"},   // unknown sort
		{Subreddit: "golang", PostLimit: 5000},                       // above maximum
	}
	for _, req := range cases {
		_, err := svc.CreateJob(context.Background(), req)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
	assert.Empty(t, queue.jobs)
}

func TestJobServiceCreateJobUnknownUser(t *testing.T) {
	svc, _, _ := newJobServiceForTest(t)

	userID := int64(99)
	_, err := svc.CreateJob(context.Background(), dto.CollectionRequest{
		Subreddit: "golang",
		PostLimit: 10,
		UserID:    &userID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReferenceNotFound.Code, appErrors.FromError(err).Code)
}

func TestJobServiceCreateJobEnqueueFailure(t *testing.T) {
	svc, store, queue := newJobServiceForTest(t)
	queue.err = errors.New("queue closed")

	_, err := svc.CreateJob(context.Background(), dto.CollectionRequest{
		Subreddit: "golang",
		PostLimit: 10,
	})
	require.Error(t, err)

	// The persisted job must not stay queued forever.
	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.JobStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestJobServiceGetStatusNotFound(t *testing.T) {
	svc, _, _ := newJobServiceForTest(t)

	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestJobServiceLifecycleTransitions(t *testing.T) {
	svc, store, _ := newJobServiceForTest(t)
	resp, err := svc.CreateJob(context.Background(), dto.CollectionRequest{Subreddit: "golang", PostLimit: 10})
	require.NoError(t, err)
	jobID := resp.JobID

	ok, err := svc.Begin(context.Background(), jobID, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusRunning, store.jobs[jobID].Status)
	assert.Equal(t, 10, store.jobs[jobID].TotalPosts)

	// Begin is not re-entrant: the job already left the queued state.
	ok, err = svc.Begin(context.Background(), jobID, 10)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.RecordProgress(context.Background(), jobID, 5, 10))
	assert.Equal(t, 50, store.jobs[jobID].Progress)
	assert.Equal(t, 5, store.jobs[jobID].CollectedPosts)

	done, err := svc.Complete(context.Background(), jobID, 8)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, models.JobStatusCompleted, store.jobs[jobID].Status)
	assert.Equal(t, 100, store.jobs[jobID].Progress)
	// Completion records what was actually collected as the final total.
	assert.Equal(t, 8, store.jobs[jobID].TotalPosts)
	assert.Equal(t, 8, store.jobs[jobID].CollectedPosts)

	// Terminal states accept no further transitions.
	failed, err := svc.Fail(context.Background(), jobID, "too late")
	require.NoError(t, err)
	require.False(t, failed)
	assert.Equal(t, models.JobStatusCompleted, store.jobs[jobID].Status)
}

func TestJobServiceRecordProgressRequiresRunning(t *testing.T) {
	svc, store, _ := newJobServiceForTest(t)
	resp, err := svc.CreateJob(context.Background(), dto.CollectionRequest{Subreddit: "golang", PostLimit: 10})
	require.NoError(t, err)

	// The job is still queued; the counters must stay untouched and the
	// call must surface the bad transition.
	err = svc.RecordProgress(context.Background(), resp.JobID, 5, 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, store.jobs[resp.JobID].Progress)
	assert.Equal(t, 0, store.jobs[resp.JobID].CollectedPosts)
}

func TestJobServiceCancelQueued(t *testing.T) {
	svc, store, _ := newJobServiceForTest(t)
	resp, err := svc.CreateJob(context.Background(), dto.CollectionRequest{Subreddit: "golang", PostLimit: 10})
	require.NoError(t, err)

	cancel, err := svc.Cancel(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, cancel.Status)
	assert.Equal(t, models.JobStatusCancelled, store.jobs[resp.JobID].Status)
}

func TestJobServiceCancelTerminal(t *testing.T) {
	svc, store, _ := newJobServiceForTest(t)
	resp, err := svc.CreateJob(context.Background(), dto.CollectionRequest{Subreddit: "golang", PostLimit: 10})
	require.NoError(t, err)
	store.jobs[resp.JobID].Status = models.JobStatusCompleted

	_, err = svc.Cancel(context.Background(), resp.JobID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestJobServiceCancelUnknown(t *testing.T) {
	svc, _, _ := newJobServiceForTest(t)

	_, err := svc.Cancel(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestJobServiceRecoverPendingJobs(t *testing.T) {
	svc, store, queue := newJobServiceForTest(t)
	for i := 0; i < 3; i++ {
		_, err := svc.CreateJob(context.Background(), dto.CollectionRequest{Subreddit: "golang", PostLimit: 10})
		require.NoError(t, err)
	}
	require.Len(t, queue.jobs, 3)
	queue.jobs = nil
	require.Len(t, store.jobs, 3)

	svc.RecoverPendingJobs(context.Background())
	assert.Len(t, queue.jobs, 3)
}

func TestProgressFor(t *testing.T) {
	assert.Equal(t, 0, progressFor(0, 0))
	assert.Equal(t, 0, progressFor(5, 0))
	assert.Equal(t, 50, progressFor(5, 10))
	assert.Equal(t, 100, progressFor(15, 10))
	assert.Equal(t, 0, progressFor(-5, 10))
}

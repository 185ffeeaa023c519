package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/redditharbor/harbor-api/internal/dto"
	"github.com/redditharbor/harbor-api/internal/models"
	"github.com/redditharbor/harbor-api/internal/repository"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
	"github.com/redditharbor/harbor-api/pkg/jobs"
)

type collectionJobStore interface {
	Create(ctx context.Context, job *models.CollectionJob) error
	GetByJobID(ctx context.Context, jobID string) (*models.CollectionJob, error)
	UpdateWhereStatus(ctx context.Context, jobID string, expected []models.JobStatus, params repository.UpdateJobParams) (bool, error)
	List(ctx context.Context, filter models.JobFilter) ([]models.CollectionJob, int, error)
	ListQueuedIDs(ctx context.Context, limit int) ([]string, error)
}

type userStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// QueueTypeCollect tags collection work on the dispatch queue.
const QueueTypeCollect = "collect"

// JobService owns the collection job lifecycle: it accepts requests, hands
// work to the queue, and is the single writer of status transitions. All
// transitions go through conditional updates keyed on the expected current
// status, so concurrent writers race on the database row, not on memory.
type JobService struct {
	repo         collectionJobStore
	users        userStore
	queue        jobDispatcher
	cache        *CacheService
	metrics      *MetricsService
	validate     *validator.Validate
	logger       *zap.Logger
	maxPostLimit int
}

// NewJobService constructs the job service.
func NewJobService(repo collectionJobStore, users userStore, queue jobDispatcher, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, maxPostLimit int) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if maxPostLimit <= 0 {
		maxPostLimit = 1000
	}
	return &JobService{
		repo:         repo,
		users:        users,
		queue:        queue,
		cache:        cache,
		metrics:      metrics,
		validate:     validate,
		logger:       logger,
		maxPostLimit: maxPostLimit,
	}
}

// CreateJob validates the request, persists a queued job, and enqueues the
// collection run. Enqueue failure marks the job failed instead of leaving it
// queued forever.
func (s *JobService) CreateJob(ctx context.Context, req dto.CollectionRequest) (*dto.CollectionResponse, error) {
	if req.SortMode == "" {
		req.SortMode = models.SortHot
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collection request")
	}
	if !req.SortMode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported sort type %q", req.SortMode))
	}
	if req.PostLimit > s.maxPostLimit {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("post_limit exceeds maximum of %d", s.maxPostLimit))
	}
	if req.UserID != nil {
		if _, err := s.users.FindByID(ctx, *req.UserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrReferenceNotFound, "user does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")
		}
	}

	job := &models.CollectionJob{
		UserID:          req.UserID,
		Subreddit:       req.Subreddit,
		SortMode:        req.SortMode,
		PostLimit:       req.PostLimit,
		IncludeComments: req.IncludeComments,
		AnonymizeUsers:  req.AnonymizeUsers,
		Status:          models.JobStatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create collection job")
	}
	s.afterWrite(ctx, models.JobStatusQueued)

	if err := s.queue.Enqueue(jobs.Job{ID: job.JobID, Type: QueueTypeCollect, Payload: job.JobID}); err != nil {
		msg := "failed to enqueue collection job"
		if _, failErr := s.Fail(ctx, job.JobID, msg); failErr != nil {
			s.logger.Sugar().Warnw("failed to mark unqueued job failed", "job_id", job.JobID, "error", failErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}

	return &dto.CollectionResponse{
		JobID:   job.JobID,
		Status:  job.Status,
		Message: fmt.Sprintf("collection of r/%s accepted", job.Subreddit),
	}, nil
}

// GetStatus returns the current job snapshot.
func (s *JobService) GetStatus(ctx context.Context, jobID string) (*dto.JobStatusResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return dto.JobStatusFromModel(job), nil
}

// Begin moves a queued job to running and pins the expected total. The
// boolean result is false when the job left the queued state first, which
// tells the worker to walk away.
func (s *JobService) Begin(ctx context.Context, jobID string, totalPosts int) (bool, error) {
	running := models.JobStatusRunning
	zero := 0
	ok, err := s.repo.UpdateWhereStatus(ctx, jobID, []models.JobStatus{models.JobStatusQueued}, repository.UpdateJobParams{
		Status:     &running,
		Progress:   &zero,
		TotalPosts: &totalPosts,
	})
	if err != nil {
		return false, err
	}
	if ok {
		s.afterWrite(ctx, running)
	}
	return ok, nil
}

// RecordProgress updates collected counts while the job is running. Progress
// is derived from counts and clamped to [0, 100]. Recording progress on a
// job that is not running leaves the counters untouched and fails.
func (s *JobService) RecordProgress(ctx context.Context, jobID string, collected, total int) error {
	progress := progressFor(collected, total)
	ok, err := s.repo.UpdateWhereStatus(ctx, jobID, []models.JobStatus{models.JobStatusRunning}, repository.UpdateJobParams{
		Progress:       &progress,
		CollectedPosts: &collected,
	})
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "job is not running")
	}
	return nil
}

// Complete finishes a running job, recording how many items the run actually
// yielded as both the final total and the collected count: a listing that
// runs dry below the requested limit finishes with the real totals, not the
// limit Begin pinned. Returns false when the job is no longer running
// (e.g. cancelled mid-run), in which case nothing was written.
func (s *JobService) Complete(ctx context.Context, jobID string, collected int) (bool, error) {
	completed := models.JobStatusCompleted
	full := 100
	ok, err := s.repo.UpdateWhereStatus(ctx, jobID, []models.JobStatus{models.JobStatusRunning}, repository.UpdateJobParams{
		Status:         &completed,
		Progress:       &full,
		TotalPosts:     &collected,
		CollectedPosts: &collected,
	})
	if err != nil {
		return false, err
	}
	if ok {
		s.afterWrite(ctx, completed)
	}
	return ok, nil
}

// Fail marks a queued or running job failed with the given message.
func (s *JobService) Fail(ctx context.Context, jobID, message string) (bool, error) {
	failed := models.JobStatusFailed
	ok, err := s.repo.UpdateWhereStatus(ctx, jobID, []models.JobStatus{models.JobStatusQueued, models.JobStatusRunning}, repository.UpdateJobParams{
		Status:       &failed,
		ErrorMessage: &message,
	})
	if err != nil {
		return false, err
	}
	if ok {
		s.afterWrite(ctx, failed)
	}
	return ok, nil
}

// Cancel moves a queued or running job to cancelled. Cancelling a running
// job is cooperative: the worker observes the new status at its next
// checkpoint and stops.
func (s *JobService) Cancel(ctx context.Context, jobID string) (*dto.CancelResponse, error) {
	cancelled := models.JobStatusCancelled
	ok, err := s.repo.UpdateWhereStatus(ctx, jobID, []models.JobStatus{models.JobStatusQueued, models.JobStatusRunning}, repository.UpdateJobParams{
		Status: &cancelled,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel collection job")
	}
	if !ok {
		// No row matched: either the job does not exist or it already
		// reached a terminal state. Re-fetch to tell the two apart.
		job, err := s.getJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("job is already %s", job.Status))
	}
	s.afterWrite(ctx, cancelled)

	return &dto.CancelResponse{
		JobID:   jobID,
		Status:  cancelled,
		Message: "collection job cancelled",
	}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart so accepted
// work is not stranded.
func (s *JobService) RecoverPendingJobs(ctx context.Context) {
	ids, err := s.repo.ListQueuedIDs(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued collection jobs", "error", err)
		return
	}
	for _, id := range ids {
		if err := s.queue.Enqueue(jobs.Job{ID: id, Type: QueueTypeCollect, Payload: id}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", id, "error", err)
		}
	}
	if len(ids) > 0 {
		s.logger.Sugar().Infow("requeued pending collection jobs", "count", len(ids))
	}
}

func (s *JobService) getJob(ctx context.Context, jobID string) (*models.CollectionJob, error) {
	job, err := s.repo.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collection job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection job")
	}
	return job, nil
}

// afterWrite publishes side effects of a successful lifecycle write.
func (s *JobService) afterWrite(ctx context.Context, status models.JobStatus) {
	s.metrics.RecordJobTransition(string(status))
	if s.cache != nil {
		s.cache.InvalidateStats(ctx)
	}
}

func progressFor(collected, total int) int {
	if total <= 0 {
		return 0
	}
	progress := collected * 100 / total
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/redditharbor/harbor-api/internal/models"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
)

const (
	defaultSubmissionPageSize = 50
	maxSubmissionPageSize     = 1000
	defaultJobPageSize        = 20
	maxJobPageSize            = 100
)

type submissionLister interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	CountSubmissions(ctx context.Context) (int, error)
	CountComments(ctx context.Context) (int, error)
}

type jobAggregator interface {
	List(ctx context.Context, filter models.JobFilter) ([]models.CollectionJob, int, error)
	CountByStatus(ctx context.Context) (models.JobCounts, error)
	TopSubreddits(ctx context.Context, limit int) ([]models.SubredditCount, error)
}

// QueryService serves the read side: paginated submissions, job listings,
// and aggregate statistics with a read-through cache.
type QueryService struct {
	submissions submissionLister
	jobs        jobAggregator
	cache       *CacheService
	logger      *zap.Logger
	topTargets  int
}

// NewQueryService constructs the query service.
func NewQueryService(submissions submissionLister, jobs jobAggregator, cache *CacheService, logger *zap.Logger, topTargets int) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topTargets <= 0 {
		topTargets = 10
	}
	return &QueryService{
		submissions: submissions,
		jobs:        jobs,
		cache:       cache,
		logger:      logger,
		topTargets:  topTargets,
	}
}

// ListSubmissions returns stored submissions matching the filter. An unknown
// job id yields an empty page, not an error.
func (s *QueryService) ListSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, models.Pagination, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSubmissionPageSize
	}
	if filter.Limit > maxSubmissionPageSize {
		filter.Limit = maxSubmissionPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	subs, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, models.Pagination{Limit: filter.Limit, Offset: filter.Offset, TotalCount: total}, nil
}

// ListJobs returns tracked jobs matching the filter, newest first.
func (s *QueryService) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.CollectionJob, models.Pagination, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown job status %q", *filter.Status))
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultJobPageSize
	}
	if filter.Limit > maxJobPageSize {
		filter.Limit = maxJobPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	jobList, total, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list jobs")
	}
	if jobList == nil {
		jobList = []models.CollectionJob{}
	}
	return jobList, models.Pagination{Limit: filter.Limit, Offset: filter.Offset, TotalCount: total}, nil
}

// Statistics returns aggregate counters, served from cache when warm. Job
// writes invalidate the cached copy, so a miss recomputes from live counts.
func (s *QueryService) Statistics(ctx context.Context) (*models.Stats, error) {
	var cached models.Stats
	if hit, err := s.cache.Get(ctx, StatsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats, err := s.computeStatistics(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, StatsCacheKey, stats, 0); err != nil {
		s.logger.Sugar().Warnw("failed to cache statistics", "error", err)
	}
	return stats, nil
}

func (s *QueryService) computeStatistics(ctx context.Context) (*models.Stats, error) {
	jobCounts, err := s.jobs.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate job counts")
	}
	totalSubmissions, err := s.submissions.CountSubmissions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count submissions")
	}
	totalComments, err := s.submissions.CountComments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count comments")
	}
	tops, err := s.jobs.TopSubreddits(ctx, s.topTargets)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank subreddits")
	}
	if tops == nil {
		tops = []models.SubredditCount{}
	}

	return &models.Stats{
		Jobs: jobCounts,
		Data: models.DataCounts{
			TotalSubmissions: totalSubmissions,
			TotalComments:    totalComments,
		},
		TopSubreddits: tops,
	}, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/redditharbor/harbor-api/internal/collector"
	"github.com/redditharbor/harbor-api/internal/models"
	"github.com/redditharbor/harbor-api/pkg/jobs"
)

type submissionIngester interface {
	IngestBatch(ctx context.Context, jobID int64, batch []models.SubmissionWithComments) error
}

type jobReader interface {
	GetByJobID(ctx context.Context, jobID string) (*models.CollectionJob, error)
}

// errRunCancelled aborts a collection run when the job was cancelled from
// the outside. It never leaves the worker.
var errRunCancelled = errors.New("collection run cancelled")

// anonymousAuthor replaces usernames when a job requests anonymization.
// Downstream consumers (queries, exports) see no trace of the original name.
func anonymousAuthor() *string { return nil }

// CollectionWorker bridges queue jobs to the collection engine. It drives
// the lifecycle of a single run: begin, ingest batches with progress
// checkpoints, then complete or fail. Cancellation is checked at every
// batch boundary.
type CollectionWorker struct {
	lifecycle   *JobService
	jobs        jobReader
	submissions submissionIngester
	engine      collector.Engine
	metrics     *MetricsService
	logger      *zap.Logger
	batchSize   int
}

// NewCollectionWorker constructs a worker.
func NewCollectionWorker(lifecycle *JobService, jobs jobReader, submissions submissionIngester, engine collector.Engine, metrics *MetricsService, logger *zap.Logger, batchSize int) *CollectionWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 25
	}
	return &CollectionWorker{
		lifecycle:   lifecycle,
		jobs:        jobs,
		submissions: submissions,
		engine:      engine,
		metrics:     metrics,
		logger:      logger,
		batchSize:   batchSize,
	}
}

// Handle processes one queued collection job. Failures of the run itself are
// recorded on the job row and reported as handled (nil), so the queue never
// retries work whose outcome is already persisted.
func (w *CollectionWorker) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := w.jobs.GetByJobID(ctx, queued.Payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Sugar().Warnw("queued job vanished", "job_id", queued.Payload)
			return nil
		}
		return err
	}

	ok, err := w.lifecycle.Begin(ctx, job.JobID, job.PostLimit)
	if err != nil {
		return err
	}
	if !ok {
		// Left the queued state before we got here (cancelled, or another
		// worker claimed it). Nothing to do.
		return nil
	}

	start := time.Now()
	collected := 0

	runErr := w.engine.Collect(ctx, collector.Params{
		Subreddit:       job.Subreddit,
		SortMode:        job.SortMode,
		PostLimit:       job.PostLimit,
		IncludeComments: job.IncludeComments,
	}, func(ctx context.Context, batch []collector.SubmissionData) error {
		// Engine pages can be large; ingest in smaller chunks so progress and
		// cancellation checkpoints stay fine-grained.
		for start := 0; start < len(batch); start += w.batchSize {
			end := start + w.batchSize
			if end > len(batch) {
				end = len(batch)
			}
			chunk := batch[start:end]

			if cancelled, err := w.isCancelled(ctx, job.JobID); err != nil {
				return err
			} else if cancelled {
				return errRunCancelled
			}
			if err := w.submissions.IngestBatch(ctx, job.ID, w.convertBatch(job, chunk)); err != nil {
				return err
			}
			collected += len(chunk)
			if err := w.lifecycle.RecordProgress(ctx, job.JobID, collected, job.PostLimit); err != nil {
				w.logger.Sugar().Warnw("failed to record progress", "job_id", job.JobID, "error", err)
			}
		}
		return nil
	})

	switch {
	case errors.Is(runErr, errRunCancelled):
		w.logger.Sugar().Infow("collection run cancelled", "job_id", job.JobID, "collected", collected)
		return nil
	case runErr != nil:
		if _, err := w.lifecycle.Fail(ctx, job.JobID, runErr.Error()); err != nil {
			w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.JobID, "error", err)
		}
		w.logger.Sugar().Warnw("collection run failed", "job_id", job.JobID, "error", runErr)
		return nil
	}

	done, err := w.lifecycle.Complete(ctx, job.JobID, collected)
	if err != nil {
		return err
	}
	if !done {
		// Cancelled between the last checkpoint and completion. The
		// cancelled status wins; collected data stays queryable.
		w.logger.Sugar().Infow("completion skipped for cancelled job", "job_id", job.JobID)
		return nil
	}

	w.metrics.ObserveCollectionRun(time.Since(start), collected)
	w.logger.Sugar().Infow("collection run finished",
		"job_id", job.JobID, "subreddit", job.Subreddit, "collected", collected,
		"duration", time.Since(start))
	return nil
}

func (w *CollectionWorker) isCancelled(ctx context.Context, jobID string) (bool, error) {
	job, err := w.jobs.GetByJobID(ctx, jobID)
	if err != nil {
		return false, err
	}
	return job.Status == models.JobStatusCancelled, nil
}

// convertBatch maps engine output onto storage models, applying the job's
// anonymization setting to both submissions and comments.
func (w *CollectionWorker) convertBatch(job *models.CollectionJob, batch []collector.SubmissionData) []models.SubmissionWithComments {
	out := make([]models.SubmissionWithComments, 0, len(batch))
	for _, data := range batch {
		sub := models.Submission{
			CollectionJobID: job.ID,
			RedditID:        data.RedditID,
			Title:           data.Title,
			Score:           data.Score,
			UpvoteRatio:     data.UpvoteRatio,
			NumComments:     data.NumComments,
			Subreddit:       data.Subreddit,
			CreatedUTC:      data.CreatedUTC,
		}
		if data.Selftext != "" {
			text := data.Selftext
			sub.Selftext = &text
		}
		if data.URL != "" {
			u := data.URL
			sub.URL = &u
		}
		if job.AnonymizeUsers {
			sub.Author = anonymousAuthor()
		} else if data.Author != "" {
			author := data.Author
			sub.Author = &author
		}

		comments := make([]models.Comment, 0, len(data.Comments))
		for _, c := range data.Comments {
			comment := models.Comment{
				RedditID:   c.RedditID,
				Body:       c.Body,
				Score:      c.Score,
				CreatedUTC: c.CreatedUTC,
			}
			if job.AnonymizeUsers {
				comment.Author = anonymousAuthor()
			} else if c.Author != "" {
				author := c.Author
				comment.Author = &author
			}
			comments = append(comments, comment)
		}

		out = append(out, models.SubmissionWithComments{Submission: sub, Comments: comments})
	}
	return out
}

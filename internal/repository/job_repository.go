package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/redditharbor/harbor-api/internal/models"
)

const jobColumns = `id, job_id, user_id, subreddit, sort_mode, post_limit, include_comments, anonymize_users, status, progress, total_posts, collected_posts, error_message, created_at, updated_at`

// JobRepository persists collection job rows.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job row with generated defaults.
func (r *JobRepository) Create(ctx context.Context, job *models.CollectionJob) error {
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	const query = `INSERT INTO collection_jobs (job_id, user_id, subreddit, sort_mode, post_limit, include_comments, anonymize_users, status, progress, total_posts, collected_posts, error_message, created_at, updated_at)
VALUES (:job_id, :user_id, :subreddit, :sort_mode, :post_limit, :include_comments, :anonymize_users, :status, :progress, :total_posts, :collected_posts, :error_message, :created_at, :updated_at)
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, job)
	if err != nil {
		return translate(err, "create collection job")
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&job.ID); err != nil {
			return fmt.Errorf("scan collection job id: %w", err)
		}
	}
	return nil
}

// GetByJobID returns a job row by its external identifier.
func (r *JobRepository) GetByJobID(ctx context.Context, jobID string) (*models.CollectionJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM collection_jobs WHERE job_id = $1 LIMIT 1`, jobColumns)
	var job models.CollectionJob
	if err := r.db.GetContext(ctx, &job, query, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get collection job: %w", err)
	}
	return &job, nil
}

// UpdateJobParams defines the mutable lifecycle fields.
type UpdateJobParams struct {
	Status         *models.JobStatus
	Progress       *int
	TotalPosts     *int
	CollectedPosts *int
	ErrorMessage   *string
}

// UpdateWhereStatus applies the provided changes as a single conditional
// update that only succeeds while the job is in one of the expected
// statuses. The boolean result reports whether a row was updated, which is
// how concurrent transitions on the same job are serialized.
func (r *JobRepository) UpdateWhereStatus(ctx context.Context, jobID string, expected []models.JobStatus, params UpdateJobParams) (bool, error) {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *params.Status)
	}
	if params.Progress != nil {
		set = append(set, fmt.Sprintf("progress = $%d", len(args)+1))
		args = append(args, *params.Progress)
	}
	if params.TotalPosts != nil {
		set = append(set, fmt.Sprintf("total_posts = $%d", len(args)+1))
		args = append(args, *params.TotalPosts)
	}
	if params.CollectedPosts != nil {
		set = append(set, fmt.Sprintf("collected_posts = $%d", len(args)+1))
		args = append(args, *params.CollectedPosts)
	}
	if params.ErrorMessage != nil {
		set = append(set, fmt.Sprintf("error_message = $%d", len(args)+1))
		args = append(args, *params.ErrorMessage)
	}
	if len(set) == 0 {
		return false, nil
	}

	set = append(set, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())

	statuses := make([]string, len(expected))
	for i, s := range expected {
		statuses[i] = string(s)
	}
	query := fmt.Sprintf("UPDATE collection_jobs SET %s WHERE job_id = $%d AND status = ANY($%d)",
		strings.Join(set, ", "), len(args)+1, len(args)+2)
	args = append(args, jobID, pq.Array(statuses))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update collection job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update collection job rows: %w", err)
	}
	return affected > 0, nil
}

// List returns jobs matching the filter with the total match count.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.CollectionJob, int, error) {
	baseQuery := `FROM collection_jobs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Subreddit != "" {
		conditions = append(conditions, fmt.Sprintf("subreddit = $%d", len(args)+1))
		args = append(args, filter.Subreddit)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		jobColumns, baseQuery, filter.Limit, filter.Offset)
	var jobList []models.CollectionJob
	if err := r.db.SelectContext(ctx, &jobList, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list collection jobs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count collection jobs: %w", err)
	}

	return jobList, total, nil
}

// ListQueuedIDs fetches external ids of queued jobs, oldest first (used for
// cold start recovery).
func (r *JobRepository) ListQueuedIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT job_id FROM collection_jobs WHERE status = 'queued' ORDER BY created_at ASC LIMIT $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, limit); err != nil {
		return nil, fmt.Errorf("list queued jobs: %w", err)
	}
	return ids, nil
}

// CountByStatus aggregates jobs per lifecycle status in one round trip.
func (r *JobRepository) CountByStatus(ctx context.Context) (models.JobCounts, error) {
	const query = `SELECT
COUNT(*) AS total,
COUNT(*) FILTER (WHERE status = 'queued') AS queued,
COUNT(*) FILTER (WHERE status = 'running') AS running,
COUNT(*) FILTER (WHERE status = 'completed') AS completed,
COUNT(*) FILTER (WHERE status = 'failed') AS failed,
COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled
FROM collection_jobs`
	var counts models.JobCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return models.JobCounts{}, fmt.Errorf("count jobs by status: %w", err)
	}
	return counts, nil
}

// TopSubreddits returns the most requested targets by job count.
func (r *JobRepository) TopSubreddits(ctx context.Context, limit int) ([]models.SubredditCount, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT subreddit, COUNT(*) AS job_count FROM collection_jobs GROUP BY subreddit ORDER BY job_count DESC, subreddit ASC LIMIT $1`
	var tops []models.SubredditCount
	if err := r.db.SelectContext(ctx, &tops, query, limit); err != nil {
		return nil, fmt.Errorf("top subreddits: %w", err)
	}
	return tops, nil
}

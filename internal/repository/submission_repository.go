package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/redditharbor/harbor-api/internal/models"
)

const submissionColumns = `s.id, s.collection_job_id, s.reddit_id, s.title, s.selftext, s.url, s.score, s.upvote_ratio, s.num_comments, s.author, s.subreddit, s.created_utc, s.collected_at`

// SubmissionRepository persists collected submissions and their comments.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// IngestBatch stores a batch of submissions with their comments in a single
// transaction, so readers never observe a submission with replies from a
// different ingestion batch.
func (r *SubmissionRepository) IngestBatch(ctx context.Context, jobID int64, batch []models.SubmissionWithComments) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertSubmission = `INSERT INTO submissions (collection_job_id, reddit_id, title, selftext, url, score, upvote_ratio, num_comments, author, subreddit, created_utc, collected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`
	const insertComment = `INSERT INTO comments (submission_id, reddit_id, body, score, author, created_utc, collected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now().UTC()
	for i := range batch {
		sub := &batch[i].Submission
		sub.CollectionJobID = jobID
		if sub.CollectedAt.IsZero() {
			sub.CollectedAt = now
		}
		var submissionID int64
		err := tx.QueryRowxContext(ctx, insertSubmission,
			sub.CollectionJobID, sub.RedditID, sub.Title, sub.Selftext, sub.URL,
			sub.Score, sub.UpvoteRatio, sub.NumComments, sub.Author, sub.Subreddit,
			sub.CreatedUTC, sub.CollectedAt,
		).Scan(&submissionID)
		if err != nil {
			return translate(err, "insert submission")
		}
		sub.ID = submissionID

		for j := range batch[i].Comments {
			comment := &batch[i].Comments[j]
			comment.SubmissionID = submissionID
			if comment.CollectedAt.IsZero() {
				comment.CollectedAt = now
			}
			if _, err := tx.ExecContext(ctx, insertComment,
				comment.SubmissionID, comment.RedditID, comment.Body, comment.Score,
				comment.Author, comment.CreatedUTC, comment.CollectedAt,
			); err != nil {
				return translate(err, "insert comment")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest batch: %w", err)
	}
	return nil
}

// List returns submissions matching the filter with the total match count.
// Results are ordered by insertion id so paginated reads are stable.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	baseQuery := `FROM submissions s JOIN collection_jobs j ON j.id = s.collection_job_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.JobID != "" {
		conditions = append(conditions, fmt.Sprintf("j.job_id = $%d", len(args)+1))
		args = append(args, filter.JobID)
	}
	if filter.Subreddit != "" {
		conditions = append(conditions, fmt.Sprintf("s.subreddit = $%d", len(args)+1))
		args = append(args, filter.Subreddit)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY s.id ASC LIMIT %d OFFSET %d",
		submissionColumns, baseQuery, filter.Limit, filter.Offset)
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	return subs, total, nil
}

// ListByJob fetches every submission of a job, ordered by insertion id.
func (r *SubmissionRepository) ListByJob(ctx context.Context, jobID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions s JOIN collection_jobs j ON j.id = s.collection_job_id WHERE j.job_id = $1 ORDER BY s.id ASC`, submissionColumns)
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, jobID); err != nil {
		return nil, fmt.Errorf("list submissions by job: %w", err)
	}
	return subs, nil
}

// CountSubmissions returns the total number of stored submissions.
func (r *SubmissionRepository) CountSubmissions(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions`); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return total, nil
}

// CountComments returns the total number of stored comments.
func (r *SubmissionRepository) CountComments(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments`); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return total, nil
}

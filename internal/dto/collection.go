package dto

import (
	"time"

	"github.com/redditharbor/harbor-api/internal/models"
)

// CollectionRequest captures the POST /collect payload.
type CollectionRequest struct {
	Subreddit       string          `json:"subreddit" validate:"required,max=100"`
	SortMode        models.SortMode `json:"sort_type"`
	PostLimit       int             `json:"post_limit" validate:"required,gt=0"`
	IncludeComments bool            `json:"include_comments"`
	AnonymizeUsers  bool            `json:"anonymize_users"`
	UserID          *int64          `json:"user_id,omitempty"`
}

// CollectionResponse is returned after a collection job is accepted.
type CollectionResponse struct {
	JobID   string           `json:"job_id"`
	Status  models.JobStatus `json:"status"`
	Message string           `json:"message"`
}

// JobStatusResponse is the job snapshot served by GET /status/{job_id}.
type JobStatusResponse struct {
	JobID          string           `json:"job_id"`
	Subreddit      string           `json:"subreddit"`
	SortMode       models.SortMode  `json:"sort_type"`
	Status         models.JobStatus `json:"status"`
	Progress       int              `json:"progress"`
	TotalPosts     int              `json:"total_posts"`
	CollectedPosts int              `json:"collected_posts"`
	ErrorMessage   *string          `json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CancelResponse acknowledges a cancellation.
type CancelResponse struct {
	JobID   string           `json:"job_id"`
	Status  models.JobStatus `json:"status"`
	Message string           `json:"message"`
}

// JobStatusFromModel maps a stored job onto its API snapshot.
func JobStatusFromModel(job *models.CollectionJob) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:          job.JobID,
		Subreddit:      job.Subreddit,
		SortMode:       job.SortMode,
		Status:         job.Status,
		Progress:       job.Progress,
		TotalPosts:     job.TotalPosts,
		CollectedPosts: job.CollectedPosts,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

package models

import "time"

// JobStatus captures the collection job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted out of the status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether the status is one of the known enumeration values.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// SortMode enumerates the listing orders accepted by the collection engine.
type SortMode string

const (
	SortHot SortMode = "hot"
	SortNew SortMode = "new"
	SortTop SortMode = "top"
)

// Valid reports whether the sort mode is part of the fixed enumeration.
func (m SortMode) Valid() bool {
	switch m {
	case SortHot, SortNew, SortTop:
		return true
	default:
		return false
	}
}

// CollectionJob is one tracked collection request stored in collection_jobs.
type CollectionJob struct {
	ID              int64      `db:"id" json:"-"`
	JobID           string     `db:"job_id" json:"job_id"`
	UserID          *int64     `db:"user_id" json:"user_id,omitempty"`
	Subreddit       string     `db:"subreddit" json:"subreddit"`
	SortMode        SortMode   `db:"sort_mode" json:"sort_mode"`
	PostLimit       int        `db:"post_limit" json:"post_limit"`
	IncludeComments bool       `db:"include_comments" json:"include_comments"`
	AnonymizeUsers  bool       `db:"anonymize_users" json:"anonymize_users"`
	Status          JobStatus  `db:"status" json:"status"`
	Progress        int        `db:"progress" json:"progress"`
	TotalPosts      int        `db:"total_posts" json:"total_posts"`
	CollectedPosts  int        `db:"collected_posts" json:"collected_posts"`
	ErrorMessage    *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// JobFilter captures filtering criteria for listing jobs.
type JobFilter struct {
	Status    *JobStatus
	Subreddit string
	Limit     int
	Offset    int
}

// Pagination contains pagination metadata returned in list responses.
// TotalCount reflects the match count before limit/offset are applied.
type Pagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	TotalCount int `json:"total_count"`
}

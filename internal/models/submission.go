package models

import "time"

// Submission is one collected post stored in the submissions table.
// Author is nil exactly when the owning job requested anonymization.
type Submission struct {
	ID              int64     `db:"id" json:"-"`
	CollectionJobID int64     `db:"collection_job_id" json:"-"`
	RedditID        string    `db:"reddit_id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Selftext        *string   `db:"selftext" json:"selftext,omitempty"`
	URL             *string   `db:"url" json:"url,omitempty"`
	Score           int       `db:"score" json:"score"`
	UpvoteRatio     float64   `db:"upvote_ratio" json:"upvote_ratio"`
	NumComments     int       `db:"num_comments" json:"num_comments"`
	Author          *string   `db:"author" json:"author"`
	Subreddit       string    `db:"subreddit" json:"subreddit"`
	CreatedUTC      time.Time `db:"created_utc" json:"created_utc"`
	CollectedAt     time.Time `db:"collected_at" json:"collected_at"`
}

// SubmissionWithComments bundles a submission and its replies for atomic
// ingestion: both land in the store in one batch or not at all.
type SubmissionWithComments struct {
	Submission Submission
	Comments   []Comment
}

// SubmissionFilter captures filtering criteria for listing submissions.
// JobID refers to the external job identifier.
type SubmissionFilter struct {
	JobID     string
	Subreddit string
	Limit     int
	Offset    int
}

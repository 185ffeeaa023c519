package models

import "time"

// Comment is one collected reply stored in the comments table, owned by a
// submission. The anonymization invariant matches Submission.Author.
type Comment struct {
	ID           int64     `db:"id" json:"-"`
	SubmissionID int64     `db:"submission_id" json:"-"`
	RedditID     string    `db:"reddit_id" json:"id"`
	Body         string    `db:"body" json:"body"`
	Score        int       `db:"score" json:"score"`
	Author       *string   `db:"author" json:"author"`
	CreatedUTC   time.Time `db:"created_utc" json:"created_utc"`
	CollectedAt  time.Time `db:"collected_at" json:"collected_at"`
}

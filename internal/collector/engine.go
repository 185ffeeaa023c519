package collector

import (
	"context"
	"time"

	"github.com/redditharbor/harbor-api/internal/models"
)

// Params describes one collection run against a subreddit listing.
type Params struct {
	Subreddit       string
	SortMode        models.SortMode
	PostLimit       int
	IncludeComments bool
}

// CommentData is a collected reply before persistence.
type CommentData struct {
	RedditID   string
	Body       string
	Score      int
	Author     string
	CreatedUTC time.Time
}

// SubmissionData is a collected post before persistence. Comments is empty
// unless the run requested them.
type SubmissionData struct {
	RedditID    string
	Title       string
	Selftext    string
	URL         string
	Score       int
	UpvoteRatio float64
	NumComments int
	Author      string
	Subreddit   string
	CreatedUTC  time.Time
	Comments    []CommentData
}

// Sink receives collected submissions in listing order. A sink error aborts
// the run.
type Sink func(ctx context.Context, batch []SubmissionData) error

// Engine fetches subreddit content from an external source. Implementations
// page through the listing and hand batches to the sink until PostLimit
// submissions were delivered or the listing is exhausted.
type Engine interface {
	Collect(ctx context.Context, params Params, sink Sink) error
}

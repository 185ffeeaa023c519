package models

// JobCounts aggregates jobs per lifecycle status.
type JobCounts struct {
	Total     int `db:"total" json:"total"`
	Queued    int `db:"queued" json:"queued"`
	Running   int `db:"running" json:"running"`
	Completed int `db:"completed" json:"completed"`
	Failed    int `db:"failed" json:"failed"`
	Cancelled int `db:"cancelled" json:"cancelled"`
}

// DataCounts aggregates stored content volumes.
type DataCounts struct {
	TotalSubmissions int `json:"total_submissions"`
	TotalComments    int `json:"total_comments"`
}

// SubredditCount ranks a subreddit by the number of jobs targeting it.
type SubredditCount struct {
	Subreddit string `db:"subreddit" json:"subreddit"`
	JobCount  int    `db:"job_count" json:"job_count"`
}

// Stats is the aggregate statistics payload served by GET /stats.
type Stats struct {
	Jobs          JobCounts        `json:"jobs"`
	Data          DataCounts       `json:"data"`
	TopSubreddits []SubredditCount `json:"top_subreddits"`
}

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/redditharbor/harbor-api/pkg/config"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
)

const listingPageSize = 100

// RedditEngine collects submissions from the public Reddit JSON listing API.
// It needs no credentials; Reddit serves /r/{subreddit}/{sort}.json to any
// client with a descriptive User-Agent.
type RedditEngine struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

// NewRedditEngine builds an engine from collector configuration.
func NewRedditEngine(cfg config.CollectorConfig, logger *zap.Logger) *RedditEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RedditEngine{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type listingEnvelope struct {
	Data struct {
		After    string      `json:"after"`
		Children []thingItem `json:"children"`
	} `json:"data"`
}

type thingItem struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postPayload struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
}

type commentPayload struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
}

// Collect pages through the subreddit listing, optionally hydrates comments,
// and streams batches to the sink until params.PostLimit is reached.
func (e *RedditEngine) Collect(ctx context.Context, params Params, sink Sink) error {
	remaining := params.PostLimit
	after := ""

	for remaining > 0 {
		pageSize := remaining
		if pageSize > listingPageSize {
			pageSize = listingPageSize
		}

		listing, err := e.fetchListing(ctx, params, pageSize, after)
		if err != nil {
			return err
		}
		if len(listing.Data.Children) == 0 {
			return nil
		}

		batch := make([]SubmissionData, 0, len(listing.Data.Children))
		for _, child := range listing.Data.Children {
			if child.Kind != "t3" {
				continue
			}
			var post postPayload
			if err := json.Unmarshal(child.Data, &post); err != nil {
				return appErrors.Wrap(err, appErrors.ErrCollectionFailed.Code, appErrors.ErrCollectionFailed.Status, "malformed listing entry")
			}
			sub := SubmissionData{
				RedditID:    post.ID,
				Title:       post.Title,
				Selftext:    post.Selftext,
				URL:         post.URL,
				Score:       post.Score,
				UpvoteRatio: post.UpvoteRatio,
				NumComments: post.NumComments,
				Author:      post.Author,
				Subreddit:   post.Subreddit,
				CreatedUTC:  epochToTime(post.CreatedUTC),
			}
			if params.IncludeComments {
				comments, err := e.fetchComments(ctx, params.Subreddit, post.ID)
				if err != nil {
					return err
				}
				sub.Comments = comments
			}
			batch = append(batch, sub)
			remaining--
			if remaining == 0 {
				break
			}
		}

		if len(batch) > 0 {
			if err := sink(ctx, batch); err != nil {
				return err
			}
		}

		after = listing.Data.After
		if after == "" {
			return nil
		}
	}

	return nil
}

func (e *RedditEngine) fetchListing(ctx context.Context, params Params, limit int, after string) (*listingEnvelope, error) {
	endpoint := fmt.Sprintf("%s/r/%s/%s.json", e.baseURL, url.PathEscape(params.Subreddit), params.SortMode)
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")
	if after != "" {
		query.Set("after", after)
	}

	var listing listingEnvelope
	if err := e.getJSON(ctx, endpoint+"?"+query.Encode(), &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// fetchComments returns top-level replies of a submission. Nested replies and
// "more" stubs are skipped.
func (e *RedditEngine) fetchComments(ctx context.Context, subreddit, postID string) ([]CommentData, error) {
	endpoint := fmt.Sprintf("%s/r/%s/comments/%s.json?raw_json=1", e.baseURL, url.PathEscape(subreddit), url.PathEscape(postID))

	var pages []listingEnvelope
	if err := e.getJSON(ctx, endpoint, &pages); err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, nil
	}

	var comments []CommentData
	for _, child := range pages[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var payload commentPayload
		if err := json.Unmarshal(child.Data, &payload); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCollectionFailed.Code, appErrors.ErrCollectionFailed.Status, "malformed comment entry")
		}
		if payload.Body == "" {
			continue
		}
		comments = append(comments, CommentData{
			RedditID:   payload.ID,
			Body:       payload.Body,
			Score:      payload.Score,
			Author:     payload.Author,
			CreatedUTC: epochToTime(payload.CreatedUTC),
		})
	}
	return comments, nil
}

func (e *RedditEngine) getJSON(ctx context.Context, rawURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCollectionFailed.Code, appErrors.ErrCollectionFailed.Status, "collection source unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Sugar().Warnw("collection source returned error", "url", rawURL, "status", resp.StatusCode)
		return appErrors.Wrap(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			appErrors.ErrCollectionFailed.Code, appErrors.ErrCollectionFailed.Status,
			fmt.Sprintf("collection source returned status %d", resp.StatusCode),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCollectionFailed.Code, appErrors.ErrCollectionFailed.Status, "malformed collection response")
	}
	return nil
}

func epochToTime(epoch float64) time.Time {
	return time.Unix(int64(epoch), 0).UTC()
}

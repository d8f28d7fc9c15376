package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ActivityPoster/internal/config"
	"ActivityPoster/internal/domain"
	"ActivityPoster/internal/ports"
	"ActivityPoster/internal/retry"
)

// The events feed serves at most 300 events, three pages at per_page=100.
const maxEventPages = 3

// Client reads a user's public event feed and groups what falls inside the
// reporting window.
type Client struct {
	apiURL   string
	username string
	token    string
	perPage  int
	client   *http.Client
	policy   retry.Policy
	logger   *slog.Logger
}

var _ ports.ActivitySource = (*Client)(nil)

// NewClient builds an activity source from configuration.
func NewClient(cfg config.GitHubConfig, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	return &Client{
		apiURL:   strings.TrimRight(cfg.APIURL, "/"),
		username: cfg.Username,
		token:    cfg.Token,
		perPage:  perPage,
		client:   httpClient,
		policy:   retry.DefaultPolicy(),
		logger:   log,
	}
}

type eventPayload struct {
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Commits []struct {
			Message string `json:"message"`
		} `json:"commits"`
		PullRequest struct {
			Title  string `json:"title"`
			Number int    `json:"number"`
			Body   string `json:"body"`
		} `json:"pull_request"`
		Issue struct {
			Title  string `json:"title"`
			Number int    `json:"number"`
			Body   string `json:"body"`
		} `json:"issue"`
	} `json:"payload"`
}

// FetchSince walks the event feed page by page, keeps commit, pull-request
// and issue events created after since, and groups them by repository and
// kind. An empty result is a valid idle week, not an error.
func (c *Client) FetchSince(ctx context.Context, since time.Time) (domain.GroupedActivity, error) {
	grouped := domain.GroupedActivity{}

	for page := 1; page <= maxEventPages; page++ {
		pageURL, err := c.buildPageURL(page)
		if err != nil {
			return nil, err
		}

		events, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		c.debug("fetched events page", "page", page, "events", len(events))

		reachedWindowEdge := false
		for _, raw := range events {
			event, ok := mapEvent(raw)
			if !ok {
				continue
			}
			// The feed is reverse-chronological: the first event older
			// than the window ends the walk.
			if event.CreatedAt.Before(since) {
				reachedWindowEdge = true
				break
			}
			grouped.Add(event.Repo, event.Kind, describe(event))
		}

		if reachedWindowEdge || len(events) < c.perPage {
			break
		}
	}

	return grouped, nil
}

func (c *Client) buildPageURL(page int) (string, error) {
	parsed, err := url.Parse(fmt.Sprintf("%s/users/%s/events", c.apiURL, url.PathEscape(c.username)))
	if err != nil {
		return "", fmt.Errorf("invalid events url: %w", err)
	}
	query := parsed.Query()
	query.Set("per_page", strconv.Itoa(c.perPage))
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]eventPayload, error) {
	var events []eventPayload

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Authorization", "token "+c.token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch events: %w (%w)", err, domain.ErrNetwork)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return retry.Permanent(fmt.Errorf("github status %s: %w", resp.Status, domain.ErrAuth))
		case resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("github status %s: %w", resp.Status, domain.ErrNetwork)
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return retry.Permanent(fmt.Errorf("github status %s: %s", resp.Status, strings.TrimSpace(string(body))))
		}

		if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
			return retry.Permanent(fmt.Errorf("decode events: %w", err))
		}
		return nil
	}

	if err := retry.Do(ctx, c.policy, op); err != nil {
		return nil, err
	}
	return events, nil
}

// mapEvent converts one raw feed entry into a domain event. Unsupported
// event types are dropped.
func mapEvent(raw eventPayload) (domain.ActivityEvent, bool) {
	createdAt, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return domain.ActivityEvent{}, false
	}

	event := domain.ActivityEvent{
		Repo:      raw.Repo.Name,
		CreatedAt: createdAt,
	}

	switch raw.Type {
	case "PushEvent":
		event.Kind = domain.KindCommit
		event.Description = fmt.Sprintf("Pushed %d commit(s)", len(raw.Payload.Commits))
		messages := make([]string, 0, len(raw.Payload.Commits))
		for _, commit := range raw.Payload.Commits {
			messages = append(messages, commit.Message)
		}
		event.Body = strings.Join(messages, "\n")
	case "PullRequestEvent":
		pr := raw.Payload.PullRequest
		event.Kind = domain.KindPullRequest
		event.Description = fmt.Sprintf("PR: %s (#%d)", pr.Title, pr.Number)
		event.Body = pr.Body
	case "IssuesEvent":
		issue := raw.Payload.Issue
		event.Kind = domain.KindIssue
		event.Description = fmt.Sprintf("Issue: %s (#%d)", issue.Title, issue.Number)
		event.Body = issue.Body
	default:
		return domain.ActivityEvent{}, false
	}

	return event, true
}

// describe folds the event body into the grouped description so commit
// messages and PR/issue bodies survive into the summary.
func describe(event domain.ActivityEvent) string {
	if event.Body == "" {
		return event.Description
	}
	return event.Description + " with content: " + event.Body
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

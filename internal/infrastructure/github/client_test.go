package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ActivityPoster/internal/config"
	"ActivityPoster/internal/domain"
	"ActivityPoster/internal/retry"
)

func testClient(serverURL string, perPage int) *Client {
	c := NewClient(config.GitHubConfig{
		APIURL:   serverURL,
		Username: "octocat",
		Token:    "pat",
		PerPage:  perPage,
	}, nil, nil)
	c.policy = retry.Policy{MaxRetries: 2, InitialInterval: time.Millisecond}
	return c
}

func eventsJSON(now time.Time) string {
	recent := now.Format(time.RFC3339)
	stale := now.Add(-10 * 24 * time.Hour).Format(time.RFC3339)
	return fmt.Sprintf(`[
	  {"type":"PushEvent","created_at":%q,"repo":{"name":"octocat/api"},
	   "payload":{"commits":[{"message":"added login"},{"message":"fix tests"}]}},
	  {"type":"PullRequestEvent","created_at":%q,"repo":{"name":"octocat/api"},
	   "payload":{"pull_request":{"title":"Retry policy","number":7,"body":"bounded backoff"}}},
	  {"type":"IssuesEvent","created_at":%q,"repo":{"name":"octocat/docs"},
	   "payload":{"issue":{"title":"Broken link","number":12,"body":""}}},
	  {"type":"WatchEvent","created_at":%q,"repo":{"name":"octocat/api"},"payload":{}},
	  {"type":"PushEvent","created_at":%q,"repo":{"name":"octocat/old"},
	   "payload":{"commits":[{"message":"ancient"}]}}
	]`, recent, recent, recent, recent, stale)
}

func TestFetchSinceGroupsByRepoAndKind(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token pat" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("unexpected per_page %q", got)
		}
		_, _ = w.Write([]byte(eventsJSON(now)))
	}))
	defer server.Close()

	grouped, err := testClient(server.URL, 100).FetchSince(context.Background(), now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("FetchSince error: %v", err)
	}

	if len(grouped) != 2 {
		t.Fatalf("expected 2 repos, got %d: %v", len(grouped), grouped)
	}

	api := grouped["octocat/api"]
	if len(api[domain.KindCommit]) != 1 {
		t.Fatalf("expected 1 commit group entry, got %v", api[domain.KindCommit])
	}
	commit := api[domain.KindCommit][0]
	if commit != "Pushed 2 commit(s) with content: added login\nfix tests" {
		t.Fatalf("unexpected commit description: %q", commit)
	}
	if pr := api[domain.KindPullRequest][0]; pr != "PR: Retry policy (#7) with content: bounded backoff" {
		t.Fatalf("unexpected pr description: %q", pr)
	}

	// WatchEvent dropped, old push dropped by the window.
	if issue := grouped["octocat/docs"][domain.KindIssue][0]; issue != "Issue: Broken link (#12)" {
		t.Fatalf("unexpected issue description: %q", issue)
	}
}

func TestFetchSinceEmptyFeedIsNotAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	grouped, err := testClient(server.URL, 100).FetchSince(context.Background(), time.Now().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("FetchSince error: %v", err)
	}
	if !grouped.Empty() {
		t.Fatalf("expected empty activity, got %v", grouped)
	}
}

func TestFetchSinceAuthFailureIsFatalAndNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 100).FetchSince(context.Background(), time.Now().Add(-7*24*time.Hour))
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("auth failure retried: %d calls", calls.Load())
	}
}

func TestFetchSinceRetriesServerErrors(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(eventsJSON(now)))
	}))
	defer server.Close()

	grouped, err := testClient(server.URL, 100).FetchSince(context.Background(), now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("FetchSince error after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if grouped.Empty() {
		t.Fatal("expected grouped activity after recovery")
	}
}

func TestFetchSinceExhaustedRetriesReturnNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 100).FetchSince(context.Background(), time.Now().Add(-7*24*time.Hour))
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestFetchSinceStopsPagingAtWindowEdge(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	var pages atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		switch r.URL.Query().Get("page") {
		case "1":
			// Full page of in-window events forces a second page.
			_, _ = fmt.Fprintf(w, `[
			  {"type":"PushEvent","created_at":%q,"repo":{"name":"octocat/api"},
			   "payload":{"commits":[{"message":"one"}]}},
			  {"type":"PushEvent","created_at":%q,"repo":{"name":"octocat/api"},
			   "payload":{"commits":[{"message":"two"}]}}
			]`, now.Format(time.RFC3339), now.Format(time.RFC3339))
		default:
			// Second page starts with an out-of-window event.
			_, _ = fmt.Fprintf(w, `[
			  {"type":"PushEvent","created_at":%q,"repo":{"name":"octocat/old"},
			   "payload":{"commits":[{"message":"ancient"}]}}
			]`, now.Add(-30*24*time.Hour).Format(time.RFC3339))
		}
	}))
	defer server.Close()

	grouped, err := testClient(server.URL, 2).FetchSince(context.Background(), now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("FetchSince error: %v", err)
	}
	if pages.Load() != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", pages.Load())
	}
	if _, ok := grouped["octocat/old"]; ok {
		t.Fatal("out-of-window event leaked into grouping")
	}
	if len(grouped["octocat/api"][domain.KindCommit]) != 2 {
		t.Fatalf("expected 2 commit entries, got %v", grouped["octocat/api"])
	}
}

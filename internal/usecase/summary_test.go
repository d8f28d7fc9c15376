package usecase

import (
	"strings"
	"testing"

	"ActivityPoster/internal/domain"
)

func TestBuildWeeklySummaryOneLinePerGroupEntry(t *testing.T) {
	t.Parallel()

	activity := domain.GroupedActivity{}
	activity.Add("octocat/api", domain.KindCommit, "Pushed 1 commit(s) with content: added login")
	activity.Add("octocat/api", domain.KindPullRequest, "PR: Retry policy (#7)")
	activity.Add("octocat/docs", domain.KindIssue, "Issue: Broken link (#12)")
	activity.Add("octocat/api", domain.KindCommit, "Pushed 3 commit(s) with content: refactor")

	summary := BuildWeeklySummary(activity)

	// Header plus one line per description, none dropped.
	if len(summary.Lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %v", len(summary.Lines), summary.Lines)
	}
	if summary.Lines[0] != "Last week:" {
		t.Fatalf("unexpected header: %q", summary.Lines[0])
	}

	text := summary.Text()
	for _, want := range []string{
		"- Pushed 1 commit(s) with content: added login in octocat/api",
		"- Pushed 3 commit(s) with content: refactor in octocat/api",
		"- Merged PR: Retry policy (#7) in octocat/api",
		"- Worked on Issue: Broken link (#12) in octocat/docs",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestBuildWeeklySummaryIsDeterministic(t *testing.T) {
	t.Parallel()

	activity := domain.GroupedActivity{}
	activity.Add("b/repo", domain.KindCommit, "Pushed 1 commit(s)")
	activity.Add("a/repo", domain.KindIssue, "Issue: x (#1)")
	activity.Add("a/repo", domain.KindCommit, "Pushed 2 commit(s)")

	first := BuildWeeklySummary(activity).Text()
	for i := 0; i < 10; i++ {
		if got := BuildWeeklySummary(activity).Text(); got != first {
			t.Fatalf("summary output varies between runs:\n%s\nvs\n%s", first, got)
		}
	}

	if !strings.Contains(first, "a/repo") || strings.Index(first, "a/repo") > strings.Index(first, "b/repo") {
		t.Fatalf("repositories not emitted in sorted order:\n%s", first)
	}
}

func TestBuildWeeklySummaryEmptyActivityPlaceholder(t *testing.T) {
	t.Parallel()

	summary := BuildWeeklySummary(domain.GroupedActivity{})
	if len(summary.Lines) != 1 {
		t.Fatalf("expected single placeholder line, got %v", summary.Lines)
	}
	if summary.Text() != "No activity found in the last 7 days." {
		t.Fatalf("unexpected placeholder: %q", summary.Text())
	}
	if summary.Text() == "" {
		t.Fatal("summary must never be empty")
	}
}

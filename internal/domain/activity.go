package domain

import (
	"strings"
	"time"
)

// EventKind classifies a unit of developer activity on the hosting platform.
type EventKind string

const (
	KindCommit      EventKind = "commit"
	KindPullRequest EventKind = "pull-request"
	KindIssue       EventKind = "issue"
)

// ActivityEvent is one recorded action fetched from the GitHub events feed.
// Immutable after construction; discarded once summarized.
type ActivityEvent struct {
	Repo        string
	Kind        EventKind
	Description string
	Body        string
	CreatedAt   time.Time
}

// GroupedActivity maps repository name to event kind to the ordered
// descriptions collected inside the reporting window.
type GroupedActivity map[string]map[EventKind][]string

// Add appends a description under its repo/kind bucket, preserving order.
func (g GroupedActivity) Add(repo string, kind EventKind, description string) {
	kinds, ok := g[repo]
	if !ok {
		kinds = map[EventKind][]string{}
		g[repo] = kinds
	}
	kinds[kind] = append(kinds[kind], description)
}

// Empty reports whether no activity survived filtering.
func (g GroupedActivity) Empty() bool {
	return len(g) == 0
}

// WeeklySummary is the human-readable digest fed into post generation.
// Lines is never empty: an idle week yields a single placeholder line.
type WeeklySummary struct {
	Lines []string
}

// Text joins the summary lines for presentation and prompting.
func (s WeeklySummary) Text() string {
	return strings.Join(s.Lines, "\n")
}

// PostIdea is one topic returned by the ideas request: a short heading and
// a body detailed enough to stand as post content on its own.
type PostIdea struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Platform names the social network a post targets.
type Platform string

const (
	PlatformLinkedIn Platform = "LinkedIn"
	PlatformTwitter  Platform = "Twitter"
)

// PostStatus tracks a post through the editorial flow in the remote database.
type PostStatus string

const (
	StatusDraft  PostStatus = "Draft"
	StatusPosted PostStatus = "Posted"
)

// GeneratedPost is one AI-produced marketing item ready for upload. The
// in-memory value is discarded once its database record exists.
type GeneratedPost struct {
	Title    string
	Content  string
	Date     time.Time
	Platform Platform
	Status   PostStatus
}

package usecase

import (
	"fmt"
	"sort"

	"ActivityPoster/internal/domain"
)

const noActivityLine = "No activity found in the last 7 days."

// kindPhrases renders each event kind the way the weekly digest reads.
var kindPhrases = map[domain.EventKind]string{
	domain.KindCommit:      "%s in %s",
	domain.KindPullRequest: "Merged %s in %s",
	domain.KindIssue:       "Worked on %s in %s",
}

// BuildWeeklySummary flattens grouped activity into the digest fed to post
// generation. Output is deterministic: repositories and kinds are emitted in
// sorted order, entries within a group in arrival order, one line per entry.
// An idle week yields the explicit placeholder line, never an empty block.
func BuildWeeklySummary(activity domain.GroupedActivity) domain.WeeklySummary {
	if activity.Empty() {
		return domain.WeeklySummary{Lines: []string{noActivityLine}}
	}

	repos := make([]string, 0, len(activity))
	for repo := range activity {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	lines := []string{"Last week:"}
	for _, repo := range repos {
		kinds := activity[repo]
		for _, kind := range sortedKinds(kinds) {
			phrase, ok := kindPhrases[kind]
			if !ok {
				phrase = "%s in %s"
			}
			for _, description := range kinds[kind] {
				lines = append(lines, "- "+fmt.Sprintf(phrase, description, repo))
			}
		}
	}

	return domain.WeeklySummary{Lines: lines}
}

func sortedKinds(kinds map[domain.EventKind][]string) []domain.EventKind {
	out := make([]domain.EventKind, 0, len(kinds))
	for kind := range kinds {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

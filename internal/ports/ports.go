package ports

import (
	"context"
	"time"

	"ActivityPoster/internal/domain"
)

// ActivitySource pulls one user's activity recorded since the given instant.
type ActivitySource interface {
	FetchSince(ctx context.Context, since time.Time) (domain.GroupedActivity, error)
}

// PostGenerator turns a weekly summary into exactly count marketing posts.
// Implementations must return count posts or an error, never fewer.
type PostGenerator interface {
	GeneratePosts(ctx context.Context, summary string, count int) ([]domain.GeneratedPost, error)
}

// PostStore persists one generated post as a remote database record and
// returns the created record identifier.
type PostStore interface {
	CreatePost(ctx context.Context, post domain.GeneratedPost) (string, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

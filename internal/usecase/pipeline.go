package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ActivityPoster/internal/domain"
	"ActivityPoster/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.ActivitySource
	Generator ports.PostGenerator
	Store     ports.PostStore
	Logger    *slog.Logger

	// PostCount defaults to 5, Window to 7 days.
	PostCount int
	Window    time.Duration
	Now       func() time.Time
}

// Pipeline runs the weekly fetch → summarize → generate → upload sequence.
// Each stage feeds the next; there is no cross-stage retry and no state is
// re-entered.
type Pipeline struct {
	source    ports.ActivitySource
	generator ports.PostGenerator
	store     ports.PostStore
	logger    *slog.Logger
	postCount int
	window    time.Duration
	now       func() time.Time
}

// Report describes the outcome of one run.
type Report struct {
	RunID     string
	Posts     int
	Saved     int
	PageIDs   []string
	UploadErr []error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	postCount := deps.PostCount
	if postCount <= 0 {
		postCount = 5
	}
	window := deps.Window
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:    deps.Source,
		generator: deps.Generator,
		store:     deps.Store,
		logger:    deps.Logger,
		postCount: postCount,
		window:    window,
		now:       now,
	}
}

// Run executes the pipeline once. A fatal stage error aborts the remaining
// stages; per-post upload failures do not abort sibling uploads and are
// aggregated into both the report and the returned error.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log := p.log().With("run_id", report.RunID)

	since := p.now().Add(-p.window)
	activity, err := p.source.FetchSince(ctx, since)
	if err != nil {
		log.Error("stage failed", "stage", "fetch", "error", err)
		return report, fmt.Errorf("fetch activity: %w", err)
	}
	log.Info("activity fetched", "repos", len(activity))

	summary := BuildWeeklySummary(activity)
	log.Info("summary built", "lines", len(summary.Lines))

	posts, err := p.generator.GeneratePosts(ctx, summary.Text(), p.postCount)
	if err != nil {
		log.Error("stage failed", "stage", "generate", "error", err)
		return report, fmt.Errorf("generate posts: %w", err)
	}
	if len(posts) != p.postCount {
		err := fmt.Errorf("generator returned %d posts, want %d: %w", len(posts), p.postCount, domain.ErrGeneration)
		log.Error("stage failed", "stage", "generate", "error", err)
		return report, fmt.Errorf("generate posts: %w", err)
	}
	report.Posts = len(posts)

	runDate := p.now()
	for i := range posts {
		posts[i].Date = runDate

		pageID, err := p.store.CreatePost(ctx, posts[i])
		if err != nil {
			uploadErr := &domain.UploadError{Index: i, Title: posts[i].Title, Err: err}
			report.UploadErr = append(report.UploadErr, uploadErr)
			log.Error("post upload failed", "post", i+1, "title", posts[i].Title, "error", err)
			continue
		}
		report.Saved++
		report.PageIDs = append(report.PageIDs, pageID)
		log.Info("post uploaded", "post", i+1, "page_id", pageID)
	}

	log.Info("run finished", "saved", report.Saved, "posts", report.Posts)
	if len(report.UploadErr) > 0 {
		return report, fmt.Errorf("upload posts: saved %d of %d: %w",
			report.Saved, report.Posts, errors.Join(report.UploadErr...))
	}
	return report, nil
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

package app

import (
	"context"
	"log/slog"

	"ActivityPoster/internal/config"
	"ActivityPoster/internal/domain"
	"ActivityPoster/internal/infrastructure/github"
	"ActivityPoster/internal/infrastructure/llm"
	"ActivityPoster/internal/infrastructure/notion"
	"ActivityPoster/internal/infrastructure/scheduler"
	"ActivityPoster/internal/logging"
	"ActivityPoster/internal/usecase"
)

// Application wires configuration to adapters and the pipeline use case.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	source := github.NewClient(cfg.GitHub, nil, baseLogger.With("component", "github"))
	generator := llm.NewOpenAIGenerator(cfg.OpenAI, domain.Platform(cfg.Pipeline.Platform), nil, baseLogger.With("component", "openai"))
	store := notion.NewClient(cfg.Notion, nil, baseLogger.With("component", "notion"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Generator: generator,
		Store:     store,
		Logger:    baseLogger.With("component", "pipeline"),
		PostCount: cfg.Pipeline.PostCount,
		Window:    cfg.GitHub.Window(),
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline}
}

// Run executes one pipeline pass, or hands the pipeline to the built-in
// ticker when the scheduler is enabled.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Scheduler.Enabled {
		driver := scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval())
		sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
		if err := sched.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return sched.Stop(context.Background())
	}

	report, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("weekly run complete", "saved", report.Saved, "posts", report.Posts)
	return nil
}

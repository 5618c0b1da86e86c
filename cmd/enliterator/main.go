// Command enliterator runs the pipeline orchestration controller: it loads
// configuration, wires every stage job's collaborators, and drives every
// running or retry-due PipelineRun forward on a fixed poll interval until
// told to stop (spec.md §4.1, §6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"

	"github.com/enliterator/enliterator/internal/config"
	"github.com/enliterator/enliterator/pkg/ekn/embedding"
	"github.com/enliterator/enliterator/pkg/ekn/graph"
	"github.com/enliterator/enliterator/pkg/ekn/notify"
	"github.com/enliterator/enliterator/pkg/ekn/observability"
	"github.com/enliterator/enliterator/pkg/ekn/rights"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/services"
	"github.com/enliterator/enliterator/pkg/ekn/stages"
	"github.com/enliterator/enliterator/pkg/ekn/store"
	"github.com/enliterator/enliterator/pkg/shared/logging"
)

// runCacheTTL bounds how long a stage job's cached intermediate state
// survives in Redis (pkg/ekn/runner/cache.go); not config-surfaced since no
// deployment in spec.md §6 ever needed to tune it separately from the
// run-lock TTL.
const runCacheTTL = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "enliterator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := "config.yaml"
	if v := os.Getenv("ENLITERATOR_CONFIG"); v != "" {
		configPath = v
	}

	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	defer watcher.Close()
	cfg := watcher.Current()

	log, err := logging.NewZapLogr(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening relational store: %w", err)
	}
	defer db.Close()
	repo := store.New(db, log)

	graphStore, err := graph.NewStore(cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.MultiDatabaseSupported, log)
	if err != nil {
		return fmt.Errorf("opening graph store: %w", err)
	}
	defer graphStore.Close(context.Background())

	if cfg.VerbGlossaryPath != "" {
		glossaryWatcher, err := watchVerbGlossary(cfg.VerbGlossaryPath, log)
		if err != nil {
			return fmt.Errorf("loading verb glossary: %w", err)
		}
		defer glossaryWatcher.Close()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	locker := runner.NewRedisLocker(redisClient)
	cache := runner.NewRunCache(redisClient, runCacheTTL)

	rightsSvc, err := services.NewRightsService(cfg.Rights)
	if err != nil {
		return fmt.Errorf("constructing rights service: %w", err)
	}
	extractionSvc, err := services.NewExtractionService(cfg.Extraction)
	if err != nil {
		return fmt.Errorf("constructing extraction service: %w", err)
	}
	embeddingSvc, err := services.NewEmbeddingService(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("constructing embedding service: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingSvc, log)

	policy, err := rights.Compile(ctx)
	if err != nil {
		return fmt.Errorf("compiling rights policy: %w", err)
	}

	jobs := map[runner.Stage]runner.Job{
		runner.StageIntake:               stages.NewIntakeJob(newFSSource(cfg.IngestSourcePath), repo, log),
		runner.StageRightsProvenance:     stages.NewRightsJob(rightsSvc, repo, cfg.TestRightsOverride, log),
		runner.StageLexiconBootstrap:     stages.NewLexiconJob(extractionSvc, repo, log),
		runner.StagePoolExtraction:       stages.NewPoolJob(extractionSvc, repo, log),
		runner.StageGraphAssembly:        stages.NewGraphAssemblyJob(repo, graphStore, cfg.Graph.ProvisionPollTimeout, cfg.Runner.OrphanPreserveWindow, log),
		runner.StageEmbeddings:           stages.NewEmbeddingsJob(repo, graphStore, embedder, policy, cfg.Embedding.Dimensions, log),
		runner.StageLiteracyScoring:      stages.NewScoringJob(repo, graphStore, log),
		runner.StageDeliverables:         stages.NewDeliverablesJob(repo, policy, stages.NewHTTPDeliverableBuilder(cfg.Deliverables), log),
		runner.StageFineTuneDatasetBuild: stages.NewFineTuneJob(repo, policy, stages.NewHTTPFineTuneDatasetBuilder(cfg.FineTune), log),
	}

	notifier := notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL, cfg.Notify.SlackChannel, log)

	orchestrator := runner.NewRunner(repo, locker, cache, jobs, log,
		runner.WithRetryPolicy(
			cfg.Runner.MaxRetries,
			time.Duration(cfg.Runner.RetryBackoffInitialMs)*time.Millisecond,
			time.Duration(cfg.Runner.RetryBackoffCapMs)*time.Millisecond,
		),
		runner.WithNotifier(notifier.Notify),
		runner.WithMetricsRecorder(func(stage runner.Stage, outcome string, duration time.Duration) {
			observability.RecordStageRun(stage.String(), outcome, duration)
		}),
	)
	pool := runner.NewWorkerPool(cfg.Runner.Concurrency)

	obsServers := startObservabilityServers(cfg.Server, log)
	defer stopObservabilityServers(obsServers)

	log.Info("enliterator controller started", "poll_interval", cfg.Runner.PollInterval, "concurrency", cfg.Runner.Concurrency)
	pollLoop(ctx, repo, orchestrator, pool, cfg.Runner.PollInterval, log)
	log.Info("enliterator controller stopped")
	return nil
}

// pollLoop drives every running or retry-due PipelineRun once per tick
// until ctx is canceled (spec.md §4.1: automatic advancement without an
// operator polling for it).
func pollLoop(ctx context.Context, repo *store.Repository, orchestrator *runner.Runner, pool *runner.WorkerPool, interval time.Duration, log logr.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := repo.ListDrivableRuns(ctx)
			if err != nil {
				log.Error(err, "listing drivable pipeline runs")
				continue
			}
			if len(ids) == 0 {
				continue
			}
			if err := pool.Drive(ctx, orchestrator, ids); err != nil {
				log.Error(err, "driving pipeline runs", "run_count", len(ids))
			}
		}
	}
}

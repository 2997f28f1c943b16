// Command replay publishes the demo CSV data sets onto the feed, one goroutine per topic.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"toolEaseRt/internal/config"
	"toolEaseRt/internal/platform/broker"
	"toolEaseRt/internal/shared/logging"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if _, _, err := logging.Setup(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}

	pub, err := broker.NewFeedPublisher(cfg.Feed)
	if err != nil {
		slog.Error("replay publisher setup failed", slog.String("driver", cfg.Feed.Driver), slog.Any("error", err))
		os.Exit(1)
	}
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs := resolveJobs(cfg.Replay.DataDir, cfg.Topics)
	if len(jobs) == 0 {
		slog.Error("no csv files to replay", slog.String("dir", cfg.Replay.DataDir))
		os.Exit(1)
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job replayJob) {
			defer wg.Done()
			sent, err := runJob(ctx, pub, job, cfg.Replay.Delay, cfg.Replay.Loop)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("replay failed", slog.String("subject", job.subject), slog.Any("error", err))
			}
			slog.Info("replay done", slog.String("subject", job.subject), slog.Int("published", sent))
		}(job)
	}
	wg.Wait()
}

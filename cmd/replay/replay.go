package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"toolEaseRt/internal/modules/realtime/application/port"
	"toolEaseRt/internal/modules/realtime/domain"
	"toolEaseRt/internal/shared/normalization"
)

// replayJob publishes one CSV file onto one feed subject.
type replayJob struct {
	subject string
	path    string
	// delay overrides the global row delay when positive.
	delay time.Duration
}

// resolveJobs pairs every route with its CSV file. The route's file name wins
// over <key>.csv; routes with no file on disk are skipped.
func resolveJobs(dir string, routes []domain.TopicRoute) []replayJob {
	var jobs []replayJob
	for _, route := range routes {
		candidates := []string{route.Key + ".csv"}
		if route.File != "" {
			candidates = append([]string{route.File}, candidates...)
		}
		found := ""
		for _, name := range candidates {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				found = path
				break
			}
		}
		if found == "" {
			slog.Warn("replay csv not found", slog.String("topic", route.Name), slog.String("dir", dir))
			continue
		}
		jobs = append(jobs, replayJob{subject: domain.FeedSubject(route.Name), path: found, delay: route.Delay})
	}
	return jobs
}

// readRows loads a CSV file as JSON payloads, one per data row.
func readRows(r io.Reader) ([][]byte, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var payloads [][]byte
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return payloads, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(payloads)+1, err)
		}
		payload, err := json.Marshal(normalization.Row(header, cells))
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", len(payloads)+1, err)
		}
		payloads = append(payloads, payload)
	}
}

// runJob publishes every row of the job's file, waiting the job's own delay (or
// the given default) between rows. It returns the number of rows published;
// publish errors are logged and skipped.
func runJob(ctx context.Context, pub port.FeedPublisher, job replayJob, delay time.Duration, loop bool) (int, error) {
	file, err := os.Open(job.path)
	if err != nil {
		return 0, err
	}
	payloads, err := readRows(file)
	file.Close()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", job.path, err)
	}
	slog.Info("replay loaded", slog.String("subject", job.subject), slog.String("file", job.path), slog.Int("rows", len(payloads)))

	if job.delay > 0 {
		delay = job.delay
	}
	sent := 0
	for {
		for _, payload := range payloads {
			if err := pub.Publish(ctx, job.subject, payload); err != nil {
				if ctx.Err() != nil {
					return sent, ctx.Err()
				}
				slog.Warn("replay publish error", slog.String("subject", job.subject), slog.Any("error", err))
				continue
			}
			sent++
			slog.Debug("replay published", slog.String("subject", job.subject), slog.Int("bytes", len(payload)))
			if !wait(ctx, delay) {
				return sent, ctx.Err()
			}
		}
		if !loop || len(payloads) == 0 {
			return sent, nil
		}
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

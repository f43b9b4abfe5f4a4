package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// writeMaxElapsed bounds the retries of a single destination write.
const writeMaxElapsed = 30 * time.Second

func newWriteBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = writeMaxElapsed
	return bo
}

// Scheduler exports the store to one or more destinations, once or on an
// interval.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger
	newBackoff   func() backoff.BackOff

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from s to the given
// destinations at the specified interval.
func NewScheduler(s Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		newBackoff:   newWriteBackoff,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick. A non-positive interval runs the initial sync only.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.logResult(s.SyncOnce(ctx))
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logResult(s.SyncOnce(ctx))
		}
	}
}

func (s *Scheduler) logResult(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("sync failed", "err", err)
	}
}

// SyncOnce exports the store and writes the result to every destination.
// A failing destination does not stop the others; their errors are joined.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.source, &buf); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	data := buf.Bytes()

	var errs []error
	for i, dest := range s.destinations {
		if err := s.write(ctx, i, dest, data); err != nil {
			errs = append(errs, fmt.Errorf("destination %s: %w", destName(i, dest), err))
		}
	}

	s.logger.Info("sync completed",
		"destinations", len(s.destinations),
		"failed", len(errs),
		"bytes", len(data),
	)
	return errors.Join(errs...)
}

// write retries transient destination failures with exponential backoff.
func (s *Scheduler) write(ctx context.Context, i int, dest Destination, data []byte) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := dest.Write(ctx, data)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		s.logger.Warn("sync destination write failed",
			"destination", destName(i, dest),
			"attempt", attempt,
			"err", err,
		)
		return err
	}, backoff.WithContext(s.newBackoff(), ctx))
}

func destName(i int, dest Destination) string {
	if str, ok := dest.(fmt.Stringer); ok {
		return str.String()
	}
	return fmt.Sprintf("#%d", i)
}

package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/tablefn/internal/store"
)

// Scheduler runs periodic snapshots of a set of tables to one or more
// destinations.
type Scheduler struct {
	store        store.Store
	targets      []Target
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports targets from the store to
// the given destinations at the specified interval.
func NewScheduler(s store.Store, targets []Target, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:        s,
		targets:      targets,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic export. It runs an initial export immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce exports every target to every destination. Failures are logged
// and counted; one failing table does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) (failures int) {
	for _, t := range s.targets {
		var buf bytes.Buffer
		if err := ExportJSONL(ctx, s.store.Table(t.Table), t.Key, &buf); err != nil {
			s.logger.Error("export failed", "table", t.Table, "err", err)
			failures++
			continue
		}
		data := buf.Bytes()

		for i, dest := range s.destinations {
			if err := dest.Write(ctx, t.FileName(), data); err != nil {
				s.logger.Error("export destination write failed", "table", t.Table, "destination", fmt.Sprintf("%d", i), "err", err)
				failures++
			}
		}
		s.logger.Info("export completed", "table", t.Table, "destinations", len(s.destinations), "bytes", len(data))
	}
	return failures
}

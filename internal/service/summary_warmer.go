package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/pkg/jobs"
)

// SummaryWarmer recomputes allocation summaries in the background after
// class writes invalidate them.
type SummaryWarmer struct {
	queue     *jobs.Queue
	summaries summaryProvider
	logger    *zap.Logger
}

// NewSummaryWarmer constructs a warmer. Call Start before Trigger.
func NewSummaryWarmer(summaries summaryProvider, cfg jobs.QueueConfig) *SummaryWarmer {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	w := &SummaryWarmer{summaries: summaries, logger: cfg.Logger}
	w.queue = jobs.NewQueue("summary-warmer", w.handle, cfg)
	return w
}

// Start launches the worker pool.
func (w *SummaryWarmer) Start(ctx context.Context) { w.queue.Start(ctx) }

// Stop waits for in-flight recomputations to finish.
func (w *SummaryWarmer) Stop() { w.queue.Stop() }

// Trigger schedules a recomputation for filter.
func (w *SummaryWarmer) Trigger(filter models.StudentFilter) {
	if _, err := w.queue.Enqueue(jobs.Job{Key: makeSummaryCacheKey(filter), Payload: filter}); err != nil {
		w.logger.Debug("summary warm skipped", zap.Error(err))
	}
}

func (w *SummaryWarmer) handle(ctx context.Context, job jobs.Job) error {
	filter, ok := job.Payload.(models.StudentFilter)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	if _, _, err := w.summaries.Summary(ctx, filter); err != nil {
		return err
	}
	w.logger.Debug("allocation summary warmed", zap.String("key", job.Key))
	return nil
}

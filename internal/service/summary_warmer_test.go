package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/pkg/jobs"
)

type recordingSummaries struct {
	filters chan models.StudentFilter
}

func (r *recordingSummaries) Summary(ctx context.Context, filter models.StudentFilter) (*models.AllocationSummary, bool, error) {
	r.filters <- filter
	return &models.AllocationSummary{}, false, nil
}

func TestSummaryWarmerRecomputesTriggeredFilter(t *testing.T) {
	summaries := &recordingSummaries{filters: make(chan models.StudentFilter, 4)}
	warmer := NewSummaryWarmer(summaries, jobs.QueueConfig{Workers: 1})
	warmer.Start(context.Background())
	defer warmer.Stop()

	warmer.Trigger(models.StudentFilter{DepartmentID: "dept-1"})

	select {
	case filter := <-summaries.filters:
		assert.Equal(t, "dept-1", filter.DepartmentID)
	case <-time.After(2 * time.Second):
		t.Fatal("summary was not recomputed")
	}
}

func TestSummaryWarmerIgnoresTriggerBeforeStart(t *testing.T) {
	summaries := &recordingSummaries{filters: make(chan models.StudentFilter, 1)}
	warmer := NewSummaryWarmer(summaries, jobs.QueueConfig{})

	require.NotPanics(t, func() { warmer.Trigger(models.StudentFilter{}) })
	assert.Empty(t, summaries.filters)
}

type triggerRecorder struct {
	filters []models.StudentFilter
}

func (r *triggerRecorder) Trigger(filter models.StudentFilter) {
	r.filters = append(r.filters, filter)
}

func TestSchedulingServiceTriggersWarmerOnWrite(t *testing.T) {
	svc := NewSchedulingService(nil, nil, nil, nil, nil, nil, nil, nil, nil, SchedulingServiceConfig{})
	recorder := &triggerRecorder{}
	svc.SetSummaryWarmer(recorder)

	svc.invalidate(context.Background())

	assert.Equal(t, []models.StudentFilter{{}}, recorder.filters)
}

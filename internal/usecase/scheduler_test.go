package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"newspulse/internal/domain"
	"newspulse/internal/source"
)

type countingSource struct {
	calls atomic.Int64
}

func (c *countingSource) Name() string { return "hackernews" }

func (c *countingSource) FetchLatest(context.Context) ([]domain.Article, error) {
	c.calls.Add(1)
	return nil, nil
}

func TestSchedulerRunsPeriodically(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	registry := source.NewRegistry()
	registry.Register(src)
	ingestor := NewIngestor(IngestDeps{Sources: registry})

	ctx, cancel := context.WithCancel(context.Background())
	NewScheduler(ingestor, 20*time.Millisecond, nil).Start(ctx)

	assert.Eventually(t, func() bool {
		return src.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond, "expected the immediate run plus at least one tick")

	cancel()
	time.Sleep(50 * time.Millisecond)
	settled := src.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, src.calls.Load(), "runs continued after cancellation")
}

func TestSchedulerDisabled(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	registry := source.NewRegistry()
	registry.Register(src)
	ingestor := NewIngestor(IngestDeps{Sources: registry})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	NewScheduler(ingestor, 0, nil).Start(ctx)
	NewScheduler(nil, time.Second, nil).Start(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, src.calls.Load())
}

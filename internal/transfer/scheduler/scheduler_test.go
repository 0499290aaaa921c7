package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
)

type fakeTasks struct {
	mu        sync.Mutex
	pending   []entity.Task
	processed []string
	procErr   map[string]error
	cleaned   time.Duration
}

func (f *fakeTasks) PendingTasks(ctx context.Context) ([]entity.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeTasks) ProcessExport(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, taskID)
	return f.procErr[taskID]
}

func (f *fakeTasks) CleanupExpired(ctx context.Context, retention time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = retention
	return 2, nil
}

func TestSweepPendingResumesExportsOnly(t *testing.T) {
	tasks := &fakeTasks{
		pending: []entity.Task{
			{ID: "e-1", Kind: entity.KindExport},
			{ID: "i-1", Kind: entity.KindImport},
			{ID: "e-2", Kind: entity.KindExport},
		},
		procErr: map[string]error{"e-1": fmt.Errorf("boom")},
	}

	s, err := New(context.Background(), tasks, Config{})
	require.NoError(t, err)

	// A failing export must not stop the rest of the sweep.
	s.sweepPending()
	assert.Equal(t, []string{"e-1", "e-2"}, tasks.processed)
}

func TestSweepExpiredUsesConfiguredRetention(t *testing.T) {
	tasks := &fakeTasks{}

	s, err := New(context.Background(), tasks, Config{Retention: 48 * time.Hour})
	require.NoError(t, err)

	s.sweepExpired()
	assert.Equal(t, 48*time.Hour, tasks.cleaned)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "@every 1m", cfg.PendingSpec)
	assert.Equal(t, "0 2 * * *", cfg.ExpirySpec)
	assert.Equal(t, 7*24*time.Hour, cfg.Retention)
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(context.Background(), &fakeTasks{}, Config{PendingSpec: "not a spec"})
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s, err := New(context.Background(), &fakeTasks{}, Config{})
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

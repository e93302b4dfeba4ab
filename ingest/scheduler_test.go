package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/store-insights/ingest"
	"github.com/stretchr/testify/require"
)

type countingSyncer struct {
	calls chan struct{}
}

func (c *countingSyncer) SyncAll(ctx context.Context) ([]*ingest.Report, error) {
	c.calls <- struct{}{}
	return nil, nil
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := ingest.NewScheduler(&countingSyncer{}, "every hour", false)
	require.Error(t, err)

	s, err := ingest.NewScheduler(&countingSyncer{}, "", false)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestScheduler_RunOnStartupAndStop(t *testing.T) {
	syncer := &countingSyncer{calls: make(chan struct{}, 1)}
	s, err := ingest.NewScheduler(syncer, "0 0 1 1 *", true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-syncer.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("startup sync did not run")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

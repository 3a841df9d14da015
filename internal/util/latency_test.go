package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimulateLatencyZeroReturnsImmediately(t *testing.T) {
	assert.NoError(t, SimulateLatency(context.Background(), 0))
}

func TestSimulateLatencyWaits(t *testing.T) {
	start := time.Now()
	assert.NoError(t, SimulateLatency(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSimulateLatencyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SimulateLatency(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Serializes(t *testing.T) {
	g := NewGate()

	require.NoError(t, g.Acquire(context.Background()))

	// Second acquire must block until the permit is released.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, g.Acquire(ctx))

	g.Release()

	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}

func TestGate_ReleaseUnblocksWaiter(t *testing.T) {
	g := NewGate()
	require.NoError(t, g.Acquire(context.Background()))

	acquired := make(chan error, 1)
	go func() {
		acquired <- g.Acquire(context.Background())
	}()

	g.Release()

	select {
	case err := <-acquired:
		require.NoError(t, err)
		g.Release()
	case <-time.After(time.Second):
		t.Fatal("waiter was never unblocked")
	}
}

func TestNoopGate_NeverBlocks(t *testing.T) {
	g := NoopGate{}

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Acquire(context.Background()))
	}
	g.Release()
}

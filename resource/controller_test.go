package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Builds(t *testing.T) {
	c := NewController(Config{MaxConcurrentBuilds: 2})
	assert.Equal(t, 2, c.Parallelism())

	require.NoError(t, c.AcquireBuild(context.Background(), 10))
	require.NoError(t, c.AcquireBuild(context.Background(), 5))
	assert.Equal(t, int64(15), c.StagedElements())
	assert.Equal(t, int64(2), c.RunningBuilds())

	assert.False(t, c.TryAcquireBuild(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireBuild(ctx, 1), context.DeadlineExceeded)

	c.ReleaseBuild(10)
	assert.True(t, c.TryAcquireBuild(1))
	assert.Equal(t, int64(6), c.StagedElements())
}

func TestController_StagedElements(t *testing.T) {
	c := NewController(Config{MaxConcurrentBuilds: 4, MaxStagedElements: 100})

	require.NoError(t, c.AcquireBuild(context.Background(), 80))
	assert.False(t, c.TryAcquireBuild(30))
	assert.True(t, c.TryAcquireBuild(20))

	c.ReleaseBuild(80)
	c.ReleaseBuild(20)

	// Oversized builds are clamped to the budget and admitted alone.
	require.NoError(t, c.AcquireBuild(context.Background(), 1000))
	assert.False(t, c.TryAcquireBuild(1))
	c.ReleaseBuild(1000)
	assert.Equal(t, int64(0), c.StagedElements())
}

func TestController_Defaults(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, int64(1), c.Config().MaxConcurrentBuilds)
	assert.Equal(t, 1, c.Parallelism())
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireBuild(context.Background(), 100))
	assert.True(t, c.TryAcquireBuild(100))
	c.ReleaseBuild(100)
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	assert.Equal(t, 1, c.Parallelism())
	assert.Equal(t, int64(0), c.StagedElements())
}

func TestRateLimited(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)
	n, err := w.Write(make([]byte, 3<<20/2))
	require.NoError(t, err)
	assert.Equal(t, 3<<20/2, n)

	r := NewRateLimitedReader(context.Background(), bytes.NewReader([]byte("hello")), c)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRateLimited_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 16})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewRateLimitedWriter(ctx, io.Discard, c)
	_, err := w.Write(make([]byte, 64))
	assert.Error(t, err)
}

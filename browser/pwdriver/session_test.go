package pwdriver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedReturnsResult(t *testing.T) {
	v, err := bounded(context.Background(), time.Second, func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	boom := errors.New("boom")
	_, err = bounded(context.Background(), time.Second, func() (interface{}, error) {
		return nil, boom
	})
	assert.Equal(t, boom, err)
}

func TestBoundedGivesUpAfterTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	started := time.Now()
	_, err := bounded(context.Background(), 50*time.Millisecond, func() (interface{}, error) {
		<-release
		return nil, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(started), time.Second)
}

func TestBoundedStopsWhenContextIsCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := bounded(ctx, time.Minute, func() (interface{}, error) {
		<-release
		return nil, nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBoundedDoesNotCallWithDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := bounded(ctx, time.Second, func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}

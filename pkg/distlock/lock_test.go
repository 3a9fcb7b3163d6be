package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopLockerNeverBlocks(t *testing.T) {
	var l Locker = Noop{}

	require.NoError(t, l.Lock(context.Background(), time.Millisecond))
	require.NoError(t, l.Unlock(context.Background()))
}

func TestErrLockTimeoutIsDistinct(t *testing.T) {
	assert.NotErrorIs(t, ErrLockTimeout, context.DeadlineExceeded)
	assert.Error(t, ErrLockTimeout)
}

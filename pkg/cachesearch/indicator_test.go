package cachesearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireReleaseSymmetry(t *testing.T) {
	assert.False(t, IsSearching())

	release := acquire()
	assert.True(t, IsSearching())

	release()
	assert.False(t, IsSearching())
}

func TestConcurrentAcquiresNest(t *testing.T) {
	assert.False(t, IsSearching())

	releaseA := acquire()
	releaseB := acquire()
	assert.True(t, IsSearching())

	releaseA()
	assert.True(t, IsSearching(), "one search still in flight")

	releaseB()
	assert.False(t, IsSearching())
}

package clusterrole

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticCheckerReflectsInitialValue(t *testing.T) {
	assert.True(t, NewStaticChecker(true).IsCompactorNode())
	assert.False(t, NewStaticChecker(false).IsCompactorNode())
}

func TestStaticCheckerSetTakesEffectImmediately(t *testing.T) {
	c := NewStaticChecker(false)
	assert.False(t, c.IsCompactorNode())

	c.Set(true)
	assert.True(t, c.IsCompactorNode())

	c.Set(false)
	assert.False(t, c.IsCompactorNode())
}

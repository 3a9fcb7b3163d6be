// Package clusterrole exposes the process-wide "is this node a
// compactor" descriptor the scheduler (component G) consults before
// running any compaction. Real ring-based ownership/sharding is a
// larger concern this core's spec doesn't ask for; this is the single
// boolean spec.md's scheduler actually needs.
package clusterrole

import "go.uber.org/atomic"

// Checker reports whether the current process should run the
// file-list compactor.
type Checker interface {
	IsCompactorNode() bool
}

// StaticChecker is a Checker backed by an atomic flag that can be
// flipped at runtime (e.g. by a control-plane membership update)
// without restarting the process.
type StaticChecker struct {
	isCompactor atomic.Bool
}

// NewStaticChecker returns a Checker initialised to isCompactor.
func NewStaticChecker(isCompactor bool) *StaticChecker {
	c := &StaticChecker{}
	c.isCompactor.Store(isCompactor)
	return c
}

func (c *StaticChecker) IsCompactorNode() bool {
	return c.isCompactor.Load()
}

// Set updates the role, taking effect on the next scheduler tick.
func (c *StaticChecker) Set(isCompactor bool) {
	c.isCompactor.Store(isCompactor)
}

// SPDX-License-Identifier: AGPL-3.0-only
// Provenance-includes-location: https://github.com/grafana/mimir/blob/main/pkg/compactor/compactor.go
// Provenance-includes-license: AGPL-3.0-only
// Provenance-includes-copyright: The Mimir Authors.

package compactor

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"

	"github.com/zincobserve/filelistcore/pkg/clusterrole"
)

// Scheduler drives Compactor.Compact on a fixed interval (component G),
// skipping ticks on nodes the cluster hasn't assigned the compactor
// role to. The role is re-checked on every tick so a role change takes
// effect without a restart.
type Scheduler struct {
	services.Service

	cfg       Config
	compactor *Compactor
	role      clusterrole.Checker
	logger    log.Logger
}

// NewScheduler builds a Scheduler. Role may be nil, in which case the
// scheduler always runs (used for single-binary / local-mode setups).
func NewScheduler(cfg Config, compactor *Compactor, role clusterrole.Checker, logger log.Logger) *Scheduler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if role == nil {
		role = clusterrole.NewStaticChecker(true)
	}

	s := &Scheduler{
		cfg:       cfg,
		compactor: compactor,
		role:      role,
		logger:    log.With(logger, "component", "file-list-compactor-scheduler"),
	}
	s.Service = services.NewBasicService(nil, s.running, nil)
	return s
}

// running ticks Compact at cfg.Interval. Nothing runs at startup: a
// time.Ticker first fires once a full interval has elapsed, and every
// fire, the first included, runs a tick. A per-tick error is logged, not propagated: a single
// bad merge shouldn't bring the scheduler service down, since the next
// tick will simply retry the same (still-unadvanced) offset.
func (s *Scheduler) running(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	if !s.role.IsCompactorNode() {
		level.Debug(s.logger).Log("msg", "this node is not assigned the file-list compactor role, skipping tick")
		return
	}

	if err := s.compactor.Compact(ctx, nil); err != nil {
		level.Error(s.logger).Log("msg", "file-list compaction run failed", "err", err)
	}
}

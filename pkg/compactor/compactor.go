// SPDX-License-Identifier: AGPL-3.0-only
// Provenance-includes-location: https://github.com/cortexproject/cortex/blob/master/pkg/compactor/compactor.go
// Provenance-includes-license: Apache-2.0
// Provenance-includes-copyright: The Cortex Authors.

// Package compactor implements the hourly file-list compactor
// (component F) and the scheduler that drives it (component G): it
// merges per-hour file-list manifests in object storage into a single
// coalesced manifest, honoring tombstones and coordinating across the
// cluster via a distributed lock.
package compactor

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/zincobserve/filelistcore/pkg/streamschema"
)

// OffsetStore is the compact-offset dependency (component D) the
// compactor needs: per-stream readiness plus the global file-list
// watermark. pkg/compactoffset.Store satisfies this.
type OffsetStore interface {
	ListStreamOffsets(ctx context.Context) (map[streamschema.StreamRef]time.Time, error)
	GetFileListOffset(ctx context.Context) (time.Time, error)
	SetFileListOffset(ctx context.Context, t time.Time) error
}

// SchemaRegistry is the schema-registry dependency (component E).
// pkg/streamschema.Registry satisfies this.
type SchemaRegistry interface {
	ListStreams(ctx context.Context) ([]streamschema.StreamRef, error)
	CreatedAt(ctx context.Context, ref streamschema.StreamRef) (time.Time, error)
}

// Locker is the distributed-lock dependency (component C).
// pkg/distlock.Locker satisfies this.
type Locker interface {
	Lock(ctx context.Context, timeout time.Duration) error
	Unlock(ctx context.Context) error
}

// Bucket is the object-store dependency (component B).
// pkg/storage/bucket.Client satisfies this.
type Bucket interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Compactor runs the hourly file-list merge (§4.1).
type Compactor struct {
	cfg     Config
	bucket  Bucket
	locker  Locker
	offsets OffsetStore
	schema  SchemaRegistry
	metrics *Metrics
	logger  log.Logger
}

// New builds a Compactor.
func New(cfg Config, bucket Bucket, locker Locker, offsets OffsetStore, schema SchemaRegistry, metrics *Metrics, logger log.Logger) *Compactor {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Compactor{
		cfg:     cfg,
		bucket:  bucket,
		locker:  locker,
		offsets: offsets,
		schema:  schema,
		metrics: metrics,
		logger:  log.With(logger, "component", "file-list-compactor"),
	}
}

// Compact implements spec.md §4.1's algorithm: resolve a starting
// instant, quantize it to an hour, verify every stream has caught up
// through that hour, merge the hour, and advance the global offset.
// It is idempotent: calling it again before ingest advances the
// earliest data is a no-op.
func (c *Compactor) Compact(ctx context.Context, offset *time.Time) error {
	c.metrics.mergesStarted.Inc()

	start, err := c.resolveStart(ctx, offset)
	if err != nil {
		return errors.Wrap(err, "resolve file-list compaction start")
	}
	if start.IsZero() {
		level.Debug(c.logger).Log("msg", "no streams to compact")
		c.metrics.mergesSkipped.Inc()
		return nil
	}

	hourStart := start.Truncate(time.Hour).UTC()

	ready, err := c.verifyReadiness(ctx, hourStart)
	if err != nil {
		return errors.Wrap(err, "verify per-stream compaction readiness")
	}
	if !ready {
		c.metrics.mergesSkipped.Inc()
		return nil
	}

	published, err := c.mergeHour(ctx, hourStart)
	if err != nil {
		c.metrics.mergesFailed.Inc()
		return errors.Wrapf(err, "merge hour %s", hourStart)
	}
	if !published {
		c.metrics.mergesSkipped.Inc()
		return nil
	}

	newOffset := hourStart.Add(time.Hour)
	if err := c.offsets.SetFileListOffset(ctx, newOffset); err != nil {
		return errors.Wrap(err, "advance file-list compact offset")
	}

	c.metrics.mergesCompleted.Inc()
	c.metrics.lastSuccessTimestamp.SetToCurrentTime()
	c.metrics.fileListOffsetSeconds.Set(float64(newOffset.Unix()))
	return nil
}

// resolveStart implements §4.1 step 1: if the caller supplied an
// offset, use it; otherwise fall back to the current global file-list
// offset. An unset global offset with no streams registered is a
// no-op, signalled by returning the zero Time.
func (c *Compactor) resolveStart(ctx context.Context, offset *time.Time) (time.Time, error) {
	if offset != nil && !offset.IsZero() {
		return offset.UTC(), nil
	}

	current, err := c.offsets.GetFileListOffset(ctx)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "get file-list offset")
	}
	if !current.IsZero() {
		return current.UTC(), nil
	}

	streams, err := c.schema.ListStreams(ctx)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "list streams")
	}
	if len(streams) == 0 {
		return time.Time{}, nil
	}

	var earliest time.Time
	for _, ref := range streams {
		createdAt, err := c.schema.CreatedAt(ctx, ref)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "created_at for %s/%s/%s", ref.OrgID, ref.StreamType, ref.Stream)
		}
		if earliest.IsZero() || createdAt.Before(earliest) {
			earliest = createdAt
		}
	}
	return earliest.UTC(), nil
}

// verifyReadiness implements §4.1 step 3 and invariant 4: F never
// advances the global offset past hour H unless every per-stream
// offset v satisfies v - 1h >= H_start. We compare against the
// quantized hourStart, not the raw caller-supplied offset, since that
// is the only reading consistent with the invariant as stated.
func (c *Compactor) verifyReadiness(ctx context.Context, hourStart time.Time) (bool, error) {
	offsets, err := c.offsets.ListStreamOffsets(ctx)
	if err != nil {
		return false, errors.Wrap(err, "list per-stream compact offsets")
	}
	if len(offsets) == 0 {
		return false, nil
	}

	for ref, v := range offsets {
		if v.Add(-time.Hour).Before(hourStart) {
			level.Debug(c.logger).Log(
				"msg", "stream has not caught up to the target hour, skipping this run",
				"org_id", ref.OrgID, "stream_type", ref.StreamType, "stream", ref.Stream,
				"stream_offset", v, "target_hour", hourStart,
			)
			return false, nil
		}
	}
	return true, nil
}

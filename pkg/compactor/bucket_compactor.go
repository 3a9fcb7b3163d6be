// SPDX-License-Identifier: AGPL-3.0-only
// Provenance-includes-location: https://github.com/thanos-io/thanos/blob/2be2db77/pkg/compact/compact.go
// Provenance-includes-license: Apache-2.0
// Provenance-includes-copyright: The Thanos Authors.

package compactor

import (
	"bytes"
	"context"
	"math/rand"
	"path"
	"sort"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/concurrency"
	"github.com/grafana/dskit/multierror"
	"github.com/oklog/ulid"
	"github.com/pkg/errors"

	"github.com/zincobserve/filelistcore/pkg/distlock"
	"github.com/zincobserve/filelistcore/pkg/filelist"
)

// manifestPrefix is the object-store key prefix under which hourly
// file-list manifests live, keyed by the hour they cover. Within an
// hour's directory, per-writer manifests accumulate under arbitrary
// names (written by the ingest-side per-stream compactors, out of
// scope here) and mergedObjectName is the single canonical manifest F
// folds them down to.
const (
	manifestPrefix   = "file_list"
	mergedObjectName = "merged.json.zst"
)

func hourDir(hourStart time.Time) string {
	return path.Join(manifestPrefix, hourStart.UTC().Format("2006/01/02/15")) + "/"
}

func mergedKey(hourStart time.Time) string {
	return hourDir(hourStart) + mergedObjectName
}

// mergeHour runs the LOCKED -> LISTED -> MERGED -> PUBLISHED ->
// CLEANED -> DONE state machine from spec.md §4.1 for a single hour.
// It returns true only when a new merged manifest was actually
// published; the caller must not advance the global offset otherwise.
func (c *Compactor) mergeHour(ctx context.Context, hourStart time.Time) (bool, error) {
	runID := newRunID()
	logger := log.With(c.logger, "run_id", runID, "hour", hourStart)

	locker := c.locker
	if c.cfg.LocalMode {
		locker = distlock.Noop{}
	}

	lockWaitStart := time.Now()
	lockErr := locker.Lock(ctx, c.cfg.LockTimeout)
	c.metrics.lockWaitSeconds.Observe(time.Since(lockWaitStart).Seconds())
	if lockErr != nil {
		if errors.Is(lockErr, distlock.ErrLockTimeout) {
			c.metrics.lockTimeouts.Inc()
			level.Debug(logger).Log("msg", "file-list compaction lock held elsewhere, will retry next tick")
			return false, nil
		}
		return false, errors.Wrap(lockErr, "acquire file-list compaction lock")
	}
	defer func() {
		if err := locker.Unlock(context.Background()); err != nil {
			level.Warn(logger).Log("msg", "failed to release file-list compaction lock", "err", err)
		}
	}()

	// LISTED: enumerate every input manifest object for this hour.
	// Re-running after a previous publish picks up only the merged
	// object itself, which the <= 1 short-circuit below turns into a
	// no-op, making this step idempotent.
	dir := hourDir(hourStart)
	inputs, err := c.bucket.List(ctx, dir)
	if err != nil {
		return false, errors.Wrapf(err, "list input manifests under %s", dir)
	}
	sort.Strings(inputs)

	if len(inputs) <= 1 {
		level.Debug(logger).Log("msg", "fewer than two input manifests, nothing to merge", "count", len(inputs))
		return false, nil
	}

	// MERGED: fetch every input concurrently, then fold them together
	// serially to avoid synchronizing the merge map across goroutines.
	records, err := fetchAndMerge(ctx, c.bucket, inputs, c.cfg.FetchConcurrency)
	if err != nil {
		return false, errors.Wrap(err, "fetch and merge input manifests")
	}

	var buf bytes.Buffer
	if err := filelist.EncodeManifest(&buf, records); err != nil {
		return false, errors.Wrap(err, "encode merged manifest")
	}

	// PUBLISHED: an upload failure here is not fatal to the run. The
	// inputs are untouched, so the next tick retries the same merge
	// from scratch; we log and skip rather than propagate.
	outputKey := mergedKey(hourStart)
	if err := c.uploadWithRetries(ctx, outputKey, buf.Bytes()); err != nil {
		c.metrics.mergeUploadFailures.Inc()
		level.Error(logger).Log("msg", "failed to upload merged manifest, will retry next run", "key", outputKey, "err", err)
		return false, nil
	}

	// CLEANED: remove the inputs now superseded by outputKey. A
	// deletion failure here is logged, not fatal: the input was
	// already folded into the published manifest, so a leftover input
	// is an orphan to clean up later, not a correctness problem.
	var deleteErrs multierror.MultiError
	for _, key := range inputs {
		if key == outputKey {
			continue
		}
		if err := c.bucket.Delete(ctx, key); err != nil {
			c.metrics.inputsDeleteFailed.Inc()
			deleteErrs.Add(errors.Wrapf(err, "delete %s", key))
			continue
		}
		c.metrics.inputsDeleted.Inc()
	}
	if err := deleteErrs.Err(); err != nil {
		level.Warn(logger).Log("msg", "failed to delete some merged input manifests, they will be retried next run", "err", err)
	}

	level.Info(logger).Log("msg", "published merged file-list manifest", "key", outputKey, "records", len(records), "inputs", len(inputs))

	// DONE
	return true, nil
}

// newRunID generates a correlation id for one mergeHour invocation,
// threaded through its log lines so a single run's steps can be
// grepped out of a shared compactor log.
func newRunID() ulid.ULID {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// uploadWithRetries retries a transient manifest upload failure with
// exponential backoff, the same pattern compactUserWithRetries uses
// for a whole-user compaction attempt.
func (c *Compactor) uploadWithRetries(ctx context.Context, key string, data []byte) error {
	var lastErr error

	retries := backoff.New(ctx, backoff.Config{
		MinBackoff: c.cfg.UploadRetryMinWait,
		MaxBackoff: c.cfg.UploadRetryMaxWait,
		MaxRetries: c.cfg.UploadRetries,
	})

	for retries.Ongoing() {
		lastErr = c.bucket.Put(ctx, key, data)
		if lastErr == nil {
			return nil
		}
		retries.Wait()
	}
	return lastErr
}

// fetchAndMerge downloads every input manifest with bounded
// concurrency, then folds their records together applying the
// tombstone-absorbing merge rule from spec.md §3: a deleted record
// overwrites whatever is already present for its key, and a
// non-deleted record never overwrites an existing record.
func fetchAndMerge(ctx context.Context, bkt Bucket, inputs []string, concurrencyLimit int) ([]filelist.FileKey, error) {
	decoded := make([][]filelist.FileKey, len(inputs))

	err := concurrency.ForEachJob(ctx, len(inputs), concurrencyLimit, func(ctx context.Context, idx int) error {
		raw, err := bkt.Get(ctx, inputs[idx])
		if err != nil {
			return errors.Wrapf(err, "get %s", inputs[idx])
		}
		records, err := filelist.DecodeManifest(bytes.NewReader(raw))
		if err != nil {
			return errors.Wrapf(err, "decode %s", inputs[idx])
		}
		decoded[idx] = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged := make(map[string]filelist.FileKey)
	var order []string
	for _, records := range decoded {
		for _, rec := range records {
			existing, ok := merged[rec.Key]
			if !ok {
				merged[rec.Key] = rec
				order = append(order, rec.Key)
				continue
			}
			if rec.Deleted && !existing.Deleted {
				merged[rec.Key] = rec
			}
		}
	}

	sort.Strings(order)
	out := make([]filelist.FileKey, 0, len(order))
	for _, key := range order {
		rec := merged[key]
		if rec.Deleted {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

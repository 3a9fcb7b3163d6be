// Package cachesearch implements the cache-layer search executor: it
// finds files still sitting in the local write-ahead directory, filters
// them against a query predicate, and hands the survivors to the
// embedded SQL executor. It also owns the process-wide searching
// indicator (component I) that gates write-ahead-file eviction.
package cachesearch

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/zincobserve/filelistcore/pkg/sqlexec"
)

// fileSizer returns the on-disk size of path, used for the
// scanned-bytes accounting. It is a seam for tests; production code
// uses os.Stat.
type fileSizer func(path string) (int64, error)

func statFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Searcher enumerates a local write-ahead directory and executes
// queries over the files it finds there (component H).
type Searcher struct {
	walDir   string
	executor sqlexec.Executor
	sizeOf   fileSizer
	metrics  *Metrics
	logger   log.Logger
}

// NewSearcher builds a Searcher rooted at walDir (the configured
// common.data_wal_dir).
func NewSearcher(walDir string, executor sqlexec.Executor, metrics *Metrics, logger log.Logger) *Searcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Searcher{
		walDir:   walDir,
		executor: executor,
		sizeOf:   statFileSize,
		metrics:  metrics,
		logger:   logger,
	}
}

// Search implements §4.2: glob the WAL directory for the query's
// org/stream, keep files the predicate matches, and dispatch the
// survivors to the SQL executor tagged as a cache search.
func (s *Searcher) Search(ctx context.Context, sessionID string, query sqlexec.Query, streamType sqlexec.StreamType) (map[string]sqlexec.PartitionResult, int, int64, error) {
	s.metrics.searchesStarted.Inc()

	release := acquire()
	defer release()

	root, err := filepath.EvalSymlinks(s.walDir)
	if err != nil {
		level.Warn(s.logger).Log("msg", "cache search: wal root cannot be canonicalized, treating as no local files", "dir", s.walDir, "err", err)
		return map[string]sqlexec.PartitionResult{}, 0, 0, nil
	}

	pattern := filepath.Join(root, "files", query.OrgID(), string(streamType), query.StreamName(), "*.json")
	candidates, err := filepath.Glob(pattern)
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "glob %s", pattern)
	}

	matched := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		logical, ok := logicalPath(root, candidate)
		if !ok {
			level.Debug(s.logger).Log("msg", "cache search: candidate outside wal root, skipping", "path", candidate)
			continue
		}
		if query.MatchSource(logical, false, streamType) {
			matched = append(matched, candidate)
		}
	}

	if len(matched) == 0 {
		return map[string]sqlexec.PartitionResult{}, 0, 0, nil
	}

	var scannedBytes int64
	for _, p := range matched {
		size, err := s.sizeOf(p)
		if err != nil {
			level.Warn(s.logger).Log("msg", "cache search: failed to stat matched file", "path", p, "err", err)
			continue
		}
		scannedBytes += size
	}

	s.metrics.filesMatched.Add(float64(len(matched)))
	s.metrics.bytesScanned.Add(float64(scannedBytes))

	result, err := s.executor.Exec(
		ctx,
		sqlexec.Session{ID: sessionID, Tag: "cache"},
		streamType,
		nil,
		map[string]string{},
		query,
		matched,
		sqlexec.FormatJSON,
	)
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "execute cache search")
	}

	return result, len(matched), scannedBytes, nil
}

// logicalPath reconstructs the repository-relative logical path for a
// WAL file: strip root, then replace "_" with "/" in the file-name
// component only, joined with the parent directory via forward
// slashes regardless of host path separator.
func logicalPath(root, candidate string) (string, bool) {
	rel, err := filepath.Rel(root, candidate)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}

	dir, file := filepath.Split(rel)
	logical := path.Join(filepath.ToSlash(dir), strings.ReplaceAll(file, "_", "/"))
	return logical, true
}

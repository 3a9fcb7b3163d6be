package cachesearch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zincobserve/filelistcore/pkg/sqlexec"
)

func testMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

type fakeQuery struct {
	orgID      string
	streamName string
	match      func(path string) bool
}

func (q fakeQuery) OrgID() string      { return q.orgID }
func (q fakeQuery) StreamName() string { return q.streamName }
func (q fakeQuery) MatchSource(path string, _ bool, _ sqlexec.StreamType) bool {
	if q.match == nil {
		return true
	}
	return q.match(path)
}

type fakeExecutor struct {
	calls     int
	lastPaths []string
	result    map[string]sqlexec.PartitionResult
	err       error
}

func (e *fakeExecutor) Exec(_ context.Context, _ sqlexec.Session, _ sqlexec.StreamType, _ any, _ map[string]string, _ sqlexec.Query, filePaths []string, _ sqlexec.FormatHint) (map[string]sqlexec.PartitionResult, error) {
	e.calls++
	e.lastPaths = filePaths
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func writeWALFile(t *testing.T, root, org, streamType, stream, fileName string, contents []byte) string {
	t.Helper()
	dir := filepath.Join(root, "files", org, streamType, stream)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, fileName)
	require.NoError(t, os.WriteFile(p, contents, 0o644))
	return p
}

func TestSearchWithWALHit(t *testing.T) {
	root := t.TempDir()
	writeWALFile(t, root, "org1", "logs", "web", "2024_01_15_03_abc.json", []byte("0123456789"))

	exec := &fakeExecutor{result: map[string]sqlexec.PartitionResult{"p0": {}}}
	s := NewSearcher(root, exec, testMetrics(), nil)

	assert.False(t, IsSearching())

	query := fakeQuery{orgID: "org1", streamName: "web"}
	result, fileCount, scannedBytes, err := s.Search(context.Background(), "sess1", query, sqlexec.StreamTypeLogs)
	require.NoError(t, err)
	assert.Equal(t, 1, fileCount)
	assert.EqualValues(t, 10, scannedBytes)
	assert.Len(t, result, 1)
	assert.Equal(t, 1, exec.calls)
	require.Len(t, exec.lastPaths, 1)
	assert.True(t, strings.HasSuffix(exec.lastPaths[0], "2024_01_15_03_abc.json"))

	assert.False(t, IsSearching())
}

func TestSearchNoWALFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "files", "org1", "logs", "web"), 0o755))

	exec := &fakeExecutor{}
	s := NewSearcher(root, exec, testMetrics(), nil)

	query := fakeQuery{orgID: "org1", streamName: "web"}
	result, fileCount, scannedBytes, err := s.Search(context.Background(), "sess1", query, sqlexec.StreamTypeLogs)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Equal(t, 0, fileCount)
	assert.EqualValues(t, 0, scannedBytes)
	assert.Equal(t, 0, exec.calls, "executor must not be invoked when nothing matched")
}

func TestSearchPredicateFiltersCandidates(t *testing.T) {
	root := t.TempDir()
	writeWALFile(t, root, "org1", "logs", "web", "keep_me.json", []byte("x"))
	writeWALFile(t, root, "org1", "logs", "web", "drop_me.json", []byte("xx"))

	exec := &fakeExecutor{result: map[string]sqlexec.PartitionResult{}}
	s := NewSearcher(root, exec, testMetrics(), nil)

	query := fakeQuery{
		orgID:      "org1",
		streamName: "web",
		match: func(path string) bool {
			return strings.Contains(path, "keep/me")
		},
	}

	_, fileCount, _, err := s.Search(context.Background(), "sess1", query, sqlexec.StreamTypeLogs)
	require.NoError(t, err)
	assert.Equal(t, 1, fileCount)
}

func TestSearchMissingWALRootReturnsEmpty(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	exec := &fakeExecutor{}
	s := NewSearcher(missing, exec, testMetrics(), nil)

	query := fakeQuery{orgID: "org1", streamName: "web"}
	result, fileCount, scannedBytes, err := s.Search(context.Background(), "sess1", query, sqlexec.StreamTypeLogs)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Equal(t, 0, fileCount)
	assert.EqualValues(t, 0, scannedBytes)
}

func TestLogicalPathReplacesUnderscoresInFileNameOnly(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "files", "org_with_underscore", "logs")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	full := filepath.Join(sub, "2024_01_15_03_abc.json")

	logical, ok := logicalPath(root, full)
	require.True(t, ok)
	assert.Equal(t, "files/org_with_underscore/logs/2024/01/15/03/abc.json", logical)
}

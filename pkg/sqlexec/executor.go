// Package sqlexec defines the boundary between this core and the
// embedded columnar query engine. The core invokes Executor; it does
// not implement query planning or execution itself (out of scope per
// spec.md §1/§6).
package sqlexec

import (
	"context"
	"encoding/json"
)

// StreamType enumerates the kinds of stream this core knows how to
// route a cache search for.
type StreamType string

const (
	StreamTypeLogs     StreamType = "logs"
	StreamTypeMetrics  StreamType = "metrics"
	StreamTypeTraces   StreamType = "traces"
	StreamTypeMetadata StreamType = "metadata"
	StreamTypeFileList StreamType = "file_list"
)

// FormatHint tells the executor how to shape its result.
type FormatHint string

// FormatJSON is the only format hint the cache searcher uses.
const FormatJSON FormatHint = "json"

// Session carries tracing identity through to the executor.
type Session struct {
	ID  string
	Tag string
}

// Query is the parsed query object the caller passes into Search. It
// exposes just enough for the cache searcher to scope its file glob
// and filter candidates; everything else about the query (its AST,
// time range, projections) is opaque to this core.
type Query interface {
	OrgID() string
	StreamName() string

	// MatchSource reports whether the file at path is a candidate for
	// this query. isRemote is always false for cache (write-ahead)
	// files; streamType narrows matching to the stream kind being
	// searched.
	MatchSource(path string, isRemote bool, streamType StreamType) bool
}

// PartitionResult is one partition's worth of opaque query output, as
// produced by the embedded columnar engine.
type PartitionResult struct {
	Data json.RawMessage
}

// Executor is the embedded columnar query engine's entry point.
type Executor interface {
	Exec(
		ctx context.Context,
		session Session,
		streamType StreamType,
		schemaOverride any,
		options map[string]string,
		query Query,
		filePaths []string,
		format FormatHint,
	) (map[string]PartitionResult, error)
}

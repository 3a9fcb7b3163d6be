// Package compactoffset tracks compaction progress watermarks: one
// microsecond instant per stream, plus a single global instant for the
// file-list compactor itself.
package compactoffset

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zincobserve/filelistcore/pkg/streamschema"
)

const (
	streamPrefix   = "compact/offset/stream/"
	fileListOffset = "compact/offset/file_list"
)

// kv is the slice of the etcd client Store needs, narrowed so tests can
// supply a fake without standing up a real cluster.
type kv interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
}

// Store is the etcd-backed compact-offset store (component D).
type Store struct {
	kv kv
}

// NewStore builds a Store on top of an etcd client's KV surface.
func NewStore(client *clientv3.Client) *Store {
	return &Store{kv: client}
}

// ListStreamOffsets returns every recorded per-stream compact offset.
func (s *Store) ListStreamOffsets(ctx context.Context) (map[streamschema.StreamRef]time.Time, error) {
	resp, err := s.kv.Get(ctx, streamPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "list per-stream compact offsets")
	}

	out := make(map[streamschema.StreamRef]time.Time, len(resp.Kvs))
	for _, item := range resp.Kvs {
		ref, ok := parseStreamKey(strings.TrimPrefix(string(item.Key), streamPrefix))
		if !ok {
			continue
		}
		micros, err := strconv.ParseInt(string(item.Value), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse offset for %s", item.Key)
		}
		out[ref] = microsToTime(micros)
	}
	return out, nil
}

// SetStreamOffset writes the per-stream compact offset for ref. Not
// part of the spec's read path for F, but the natural counterpart
// ingest-side per-stream compactors (out of scope) use to advance it.
func (s *Store) SetStreamOffset(ctx context.Context, ref streamschema.StreamRef, t time.Time) error {
	_, err := s.kv.Put(ctx, streamPrefix+formatStreamKey(ref), strconv.FormatInt(timeToMicros(t), 10))
	return errors.Wrapf(err, "set compact offset for %s/%s/%s", ref.OrgID, ref.StreamType, ref.Stream)
}

// GetFileListOffset returns the global file-list compacted-through
// instant, or the zero Time if none has been written yet.
func (s *Store) GetFileListOffset(ctx context.Context) (time.Time, error) {
	resp, err := s.kv.Get(ctx, fileListOffset)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "get file_list compact offset")
	}
	if len(resp.Kvs) == 0 {
		return time.Time{}, nil
	}
	micros, err := strconv.ParseInt(string(resp.Kvs[0].Value), 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse file_list compact offset")
	}
	return microsToTime(micros), nil
}

// SetFileListOffset advances the global file-list compacted-through
// instant. Callers (the compactor) are responsible for only ever
// calling this with a non-decreasing value.
func (s *Store) SetFileListOffset(ctx context.Context, t time.Time) error {
	_, err := s.kv.Put(ctx, fileListOffset, strconv.FormatInt(timeToMicros(t), 10))
	return errors.Wrap(err, "set file_list compact offset")
}

func formatStreamKey(ref streamschema.StreamRef) string {
	return ref.OrgID + "/" + ref.StreamType + "/" + ref.Stream
}

func parseStreamKey(key string) (streamschema.StreamRef, bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 {
		return streamschema.StreamRef{}, false
	}
	return streamschema.StreamRef{OrgID: parts[0], StreamType: parts[1], Stream: parts[2]}, true
}

func microsToTime(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}

func timeToMicros(t time.Time) int64 {
	return t.UnixMicro()
}

package compactoffset

import (
	"context"
	"strconv"
	"testing"
	"time"

	mvccpb "go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zincobserve/filelistcore/pkg/streamschema"
)

// fakeKV is an in-memory stand-in for the slice of clientv3.KV this
// package depends on.
type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

// Get ignores opts and instead infers prefix-vs-exact lookup from the
// key shape: every prefix query this package issues passes a key
// ending in "/" (see streamPrefix), every exact query does not.
func (f *fakeKV) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	if len(key) > 0 && key[len(key)-1] == '/' {
		var kvs []*mvccpb.KeyValue
		for k, v := range f.data {
			if len(k) >= len(key) && k[:len(key)] == key {
				kvs = append(kvs, &mvccpb.KeyValue{Key: []byte(k), Value: []byte(v)})
			}
		}
		return &clientv3.GetResponse{Kvs: kvs}, nil
	}

	v, ok := f.data[key]
	if !ok {
		return &clientv3.GetResponse{}, nil
	}
	return &clientv3.GetResponse{Kvs: []*mvccpb.KeyValue{{Key: []byte(key), Value: []byte(v)}}}, nil
}

func (f *fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.data[key] = val
	return &clientv3.PutResponse{}, nil
}

func newTestStore() (*Store, *fakeKV) {
	kv := newFakeKV()
	return &Store{kv: kv}, kv
}

func TestFileListOffsetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	got, err := store.GetFileListOffset(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	want := time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetFileListOffset(ctx, want))

	got, err = store.GetFileListOffset(ctx)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestListStreamOffsets(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()

	ref := streamschema.StreamRef{OrgID: "org1", StreamType: "logs", Stream: "web"}
	when := time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC)
	kv.data[streamPrefix+formatStreamKey(ref)] = strconv.FormatInt(timeToMicros(when), 10)

	offsets, err := store.ListStreamOffsets(ctx)
	require.NoError(t, err)
	require.Contains(t, offsets, ref)
	assert.True(t, when.Equal(offsets[ref]))
}

func TestSetStreamOffset(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	ref := streamschema.StreamRef{OrgID: "org1", StreamType: "logs", Stream: "web"}
	when := time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetStreamOffset(ctx, ref, when))

	offsets, err := store.ListStreamOffsets(ctx)
	require.NoError(t, err)
	assert.True(t, when.Equal(offsets[ref]))
}

// Package filelist implements the wire format for file-list manifests:
// compressed, newline-delimited records describing object-store files
// belonging to one compaction hour.
package filelist

import (
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileKey is one record inside a manifest. Besides key and deleted, a
// record may carry an arbitrary statistics blob and other top-level
// fields written by ingest; those must round-trip unmodified through
// merge, so FileKey keeps them as opaque raw JSON rather than a fixed
// struct.
type FileKey struct {
	Key     string
	Deleted bool

	extra map[string]jsoniter.RawMessage
}

// NewFileKey builds a FileKey with no extra fields, for tests and for
// synthesizing tombstone records.
func NewFileKey(key string, deleted bool) FileKey {
	return FileKey{Key: key, Deleted: deleted}
}

const (
	fieldKey     = "key"
	fieldDeleted = "deleted"
)

// MarshalJSON writes key, deleted and every preserved extra field as
// one JSON object whose fields appear in sorted field-name order, so
// repeated encodes of the same logical record are byte-identical.
func (fk FileKey) MarshalJSON() ([]byte, error) {
	extraKeys := make([]string, 0, len(fk.extra))
	for k := range fk.extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)

	out := map[string]jsoniter.RawMessage{}
	keyJSON, err := json.Marshal(fk.Key)
	if err != nil {
		return nil, errors.Wrap(err, "marshal key")
	}
	deletedJSON, err := json.Marshal(fk.Deleted)
	if err != nil {
		return nil, errors.Wrap(err, "marshal deleted")
	}
	out[fieldKey] = keyJSON
	out[fieldDeleted] = deletedJSON
	for _, k := range extraKeys {
		out[k] = fk.extra[k]
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes key and deleted, preserving every other
// top-level field verbatim for round-trip.
func (fk *FileKey) UnmarshalJSON(data []byte) error {
	raw := map[string]jsoniter.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "unmarshal record")
	}

	keyRaw, ok := raw[fieldKey]
	if !ok {
		return errors.New("record missing required field \"key\"")
	}
	if err := json.Unmarshal(keyRaw, &fk.Key); err != nil {
		return errors.Wrap(err, "unmarshal key")
	}
	delete(raw, fieldKey)

	if deletedRaw, ok := raw[fieldDeleted]; ok {
		if err := json.Unmarshal(deletedRaw, &fk.Deleted); err != nil {
			return errors.Wrap(err, "unmarshal deleted")
		}
		delete(raw, fieldDeleted)
	}

	if len(raw) > 0 {
		fk.extra = raw
	} else {
		fk.extra = nil
	}
	return nil
}

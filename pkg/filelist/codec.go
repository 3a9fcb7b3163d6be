package filelist

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// maxRecordSize bounds a single decoded manifest line; a corrupt or
// adversarial manifest shouldn't be able to force an unbounded buffer
// grow inside bufio.Scanner.
const maxRecordSize = 8 << 20

// EncodeManifest writes records as a zstd-compressed frame of
// newline-delimited JSON, one record per line, in the order given.
// Callers that want deterministic output across merges should sort
// records (e.g. by Key) before calling this.
func EncodeManifest(w io.Writer, records []FileKey) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "open zstd encoder")
	}

	for _, rec := range records {
		line, err := rec.MarshalJSON()
		if err != nil {
			return errors.Wrapf(err, "marshal record %q", rec.Key)
		}
		if _, err := zw.Write(line); err != nil {
			_ = zw.Close()
			return errors.Wrap(err, "write record")
		}
		if _, err := zw.Write([]byte{'\n'}); err != nil {
			_ = zw.Close()
			return errors.Wrap(err, "write record separator")
		}
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close zstd encoder")
	}
	return nil
}

// DecodeManifest reads a manifest produced by EncodeManifest, skipping
// blank lines. A malformed record aborts the whole decode: the caller
// (the file-list compactor) treats this as a data error that must
// propagate rather than silently drop a tombstone.
func DecodeManifest(r io.Reader) ([]FileKey, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open zstd decoder")
	}
	defer zr.Close()

	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	var records []FileKey
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec FileKey
		if err := rec.UnmarshalJSON(line); err != nil {
			return nil, errors.Wrap(err, "decode manifest record")
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan manifest")
	}
	return records, nil
}

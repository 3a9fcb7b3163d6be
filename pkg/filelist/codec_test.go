package filelist

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	records := []FileKey{
		NewFileKey("files/org1/logs/web/2024/01/15/03/a.json", false),
		NewFileKey("files/org1/logs/web/2024/01/15/03/b.json", true),
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeManifest(&buf, records))

	got, err := DecodeManifest(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0].Key, got[0].Key)
	assert.Equal(t, records[0].Deleted, got[0].Deleted)
	assert.Equal(t, records[1].Key, got[1].Key)
	assert.Equal(t, records[1].Deleted, got[1].Deleted)
}

func TestUnknownFieldsRoundTrip(t *testing.T) {
	line := []byte(`{"key":"a","deleted":false,"min_ts":1,"max_ts":2,"records":10}`)

	var rec FileKey
	require.NoError(t, rec.UnmarshalJSON(line))
	assert.Equal(t, "a", rec.Key)
	assert.False(t, rec.Deleted)

	out, err := rec.MarshalJSON()
	require.NoError(t, err)

	var roundTripped FileKey
	require.NoError(t, roundTripped.UnmarshalJSON(out))
	assert.Equal(t, rec.extra, roundTripped.extra)
}

func TestEncodeIsDeterministic(t *testing.T) {
	records := []FileKey{NewFileKey("a", false), NewFileKey("b", true)}

	var buf1, buf2 bytes.Buffer
	require.NoError(t, EncodeManifest(&buf1, records))
	require.NoError(t, EncodeManifest(&buf2, records))
	assert.Equal(t, buf1.Bytes(), buf2.Bytes())
}

func TestDecodeSkipsBlankLines(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte("\n{\"key\":\"a\",\"deleted\":false}\n\n  \n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got, err := DecodeManifest(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Key)
}

func TestDecodeRejectsMalformedRecord(t *testing.T) {
	var broken bytes.Buffer
	zw, err := zstd.NewWriter(&broken)
	require.NoError(t, err)
	_, err = zw.Write([]byte("not json\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = DecodeManifest(&broken)
	require.Error(t, err)
}

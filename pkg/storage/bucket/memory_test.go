package bucket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryClient(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryClient()

	require.NoError(t, c.Put(ctx, "file_list/2024/01/15/03/a.json.zst", []byte("a")))
	require.NoError(t, c.Put(ctx, "file_list/2024/01/15/03/b.json.zst", []byte("b")))
	require.NoError(t, c.Put(ctx, "file_list/2024/01/15/04/c.json.zst", []byte("c")))

	keys, err := c.List(ctx, "file_list/2024/01/15/03/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"file_list/2024/01/15/03/a.json.zst",
		"file_list/2024/01/15/03/b.json.zst",
	}, keys)

	data, err := c.Get(ctx, "file_list/2024/01/15/03/a.json.zst")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)

	require.NoError(t, c.Delete(ctx, "file_list/2024/01/15/03/a.json.zst"))
	_, err = c.Get(ctx, "file_list/2024/01/15/03/a.json.zst")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

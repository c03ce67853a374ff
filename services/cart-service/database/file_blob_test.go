package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBlobStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileBlobStorage(t.TempDir())
	require.NoError(t, err)

	blob, err := fs.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, fs.Set(ctx, "user-1", []byte(`{"version":1}`)))
	require.NoError(t, fs.Set(ctx, "user-1", []byte(`{"version":1,"items":[]}`)))

	blob, err = fs.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"items":[]}`, string(blob))

	require.NoError(t, fs.Delete(ctx, "user-1"))
	require.NoError(t, fs.Delete(ctx, "user-1"))
	blob, err = fs.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestFileBlobStorage_LeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileBlobStorage(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Set(ctx, "../../etc/passwd", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^cart-[0-9a-f]{32}\.json$`, entries[0].Name())
}

package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStorePutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "cameras/abc.jpg", strings.NewReader("jpeg-bytes"), 10, "image/jpeg"))

	data, err := os.ReadFile(filepath.Join(root, "cameras", "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "cameras/abc.jpg"))
	_, err = os.Stat(filepath.Join(root, "cameras", "abc.jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "cameras/abc.jpg"), "deleting twice is fine")
}

func TestDiskStorePutRemovesPartialFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root)
	require.NoError(t, err)

	broken := io.MultiReader(strings.NewReader("half a jpeg"), iotest.ErrReader(errors.New("connection reset")))
	err = store.Put(context.Background(), "cameras/partial.jpg", broken, 100, "image/jpeg")
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(root, "cameras", "partial.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStoreKeepsKeysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(filepath.Join(root, "media"))
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "../../escape.jpg", strings.NewReader("x"), 1, ""))

	_, err = os.Stat(filepath.Join(root, "media", "escape.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStoreRejectsEmptyRoot(t *testing.T) {
	_, err := NewDiskStore("  ")
	assert.Error(t, err)
}

func TestPublicPath(t *testing.T) {
	assert.Equal(t, "/uploads/cameras/abc.png", PublicPath("cameras/abc.png"))
}

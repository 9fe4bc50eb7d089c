package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEmptyFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestDiscoverImageFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFile(t, filepath.Join(dir, "b.png"))
	writeEmptyFile(t, filepath.Join(dir, "a.jpg"))
	writeEmptyFile(t, filepath.Join(dir, "notes.txt"))

	files, err := discoverImageFiles([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), files[1])
}

func TestDiscoverImageFiles_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFile(t, filepath.Join(dir, "top.png"))
	writeEmptyFile(t, filepath.Join(dir, "sub", "nested.png"))

	flat, err := discoverImageFiles([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	all, err := discoverImageFiles([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDiscoverImageFiles_Patterns(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFile(t, filepath.Join(dir, "keep_01.png"))
	writeEmptyFile(t, filepath.Join(dir, "keep_02.png"))
	writeEmptyFile(t, filepath.Join(dir, "skip_01.png"))

	files, err := discoverImageFiles([]string{dir}, false, []string{"keep_*.png"}, nil)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = discoverImageFiles([]string{dir}, false, nil, []string{"skip_*"})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = discoverImageFiles([]string{dir}, false, []string{"keep_*"}, []string{"keep_02*"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "keep_01.png"), files[0])
}

func TestDiscoverImageFiles_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "single.png")
	writeEmptyFile(t, img)

	files, err := discoverImageFiles([]string{img}, false, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, img, files[0])
}

func TestDiscoverImageFiles_MissingPath(t *testing.T) {
	_, err := discoverImageFiles([]string{"/nonexistent/path"}, false, nil, nil)
	require.Error(t, err)
}

func TestShouldIncludeFile_UnsupportedFormat(t *testing.T) {
	assert.False(t, shouldIncludeFile("/tmp/readme.md", nil, nil))
	assert.True(t, shouldIncludeFile("/tmp/photo.jpeg", nil, nil))
}

func TestDiscoverImageFiles_CSVList(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFile(t, filepath.Join(dir, "a.png"))
	writeEmptyFile(t, filepath.Join(dir, "sub", "b.jpg"))

	list := filepath.Join(dir, "images.csv")
	content := "Filename\na.png\nsub/b.jpg,extra column\n\nmissing.txt\n"
	require.NoError(t, os.WriteFile(list, []byte(content), 0o600))

	files, err := discoverImageFiles([]string{list}, false, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.png"), files[0])
	assert.Equal(t, filepath.Join(dir, "sub", "b.jpg"), files[1])
}

func TestDiscoverImageFiles_CSVListPatterns(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFile(t, filepath.Join(dir, "keep.png"))
	writeEmptyFile(t, filepath.Join(dir, "skip.jpg"))

	list := filepath.Join(dir, "images.csv")
	require.NoError(t, os.WriteFile(list, []byte("keep.png\nskip.jpg\n"), 0o600))

	files, err := discoverImageFiles([]string{list}, false, []string{"*.png"}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "keep.png"), files[0])
}

package vision

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classIndex = `{
  "0": ["n01440764", "tench"],
  "1": ["n02814533", "beach_wagon"],
  "2": ["n04285008", "sports_car"],
  "3": ["n02123045", "tabby"]
}`

func TestLoadImageNetIndex(t *testing.T) {
	labels, err := LoadImageNetIndex(strings.NewReader(classIndex))
	require.NoError(t, err)
	require.Len(t, labels, 4)
	assert.Equal(t, Class{ID: "n04285008", Label: "sports_car"}, labels[2])
}

func TestLoadImageNetIndexErrors(t *testing.T) {
	_, err := LoadImageNetIndex(strings.NewReader(`not json`))
	assert.Error(t, err)

	_, err = LoadImageNetIndex(strings.NewReader(`{"x": ["n0", "a"]}`))
	assert.Error(t, err)

	_, err = LoadImageNetIndex(strings.NewReader(`{"5": ["n0", "a"]}`))
	assert.ErrorContains(t, err, "out of range")
}

func TestLoadImageNetIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte(classIndex), 0o644))

	labels, err := LoadImageNetIndexFile(path)
	require.NoError(t, err)
	assert.Len(t, labels, 4)

	_, err = LoadImageNetIndexFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTopK(t *testing.T) {
	labels, err := LoadImageNetIndex(strings.NewReader(classIndex))
	require.NoError(t, err)

	scores := []float32{0.05, 0.30, 0.60, 0.05}
	top := TopK(scores, labels, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "sports_car", top[0].Label)
	assert.Equal(t, "n04285008", top[0].ClassID)
	assert.Equal(t, "beach_wagon", top[1].Label)
	assert.Equal(t, "tench", top[2].Label, "ties keep index order")
}

func TestTopKBounds(t *testing.T) {
	assert.Nil(t, TopK([]float32{0.1}, nil, 0))
	assert.Nil(t, TopK(nil, nil, 3))

	top := TopK([]float32{0.2, 0.8}, nil, 5)
	require.Len(t, top, 2)
	assert.Equal(t, "1", top[0].Label)
}

package export

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habib256/wilderness/heightfield"
)

func testField(t *testing.T, size int, seed int64) *heightfield.Field {
	t.Helper()
	f, err := heightfield.New(size)
	require.NoError(t, err)
	rng := heightfield.NewRNG(seed)
	for i := range f.Data {
		f.Data[i] = rng.Float64()
	}
	f.Normalize()
	return f
}

func TestPNG16RoundTrip(t *testing.T) {
	f := testField(t, 16, 1)
	path := filepath.Join(t.TempDir(), "height.png")

	require.NoError(t, SavePNG16(f, path, nil))

	loaded, err := LoadPNG(path)
	require.NoError(t, err)
	require.Equal(t, f.Size, loaded.Size)
	for i := range f.Data {
		// 16-bit quantization bounds the round-trip error.
		assert.InDelta(t, f.Data[i], loaded.Data[i], 1.0/65535+1e-9, "cell %d", i)
	}
}

func TestPNG8Save(t *testing.T) {
	f := testField(t, 8, 2)
	path := filepath.Join(t.TempDir(), "preview.png")

	require.NoError(t, SavePNG8(f, path, nil))

	loaded, err := LoadPNG(path)
	require.NoError(t, err)
	require.Equal(t, 8, loaded.Size)
	for i := range f.Data {
		assert.InDelta(t, f.Data[i], loaded.Data[i], 1.0/255+1e-9, "cell %d", i)
	}
}

func TestLoadPNGRejectsNonSquare(t *testing.T) {
	// An 8-bit PNG with mismatched edges.
	path := filepath.Join(t.TempDir(), "wide.png")
	writeNonSquarePNG(t, path)

	_, err := LoadPNG(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "square")
}

func TestRawRoundTrip(t *testing.T) {
	f := testField(t, 12, 3)
	path := filepath.Join(t.TempDir(), "height.r32")

	require.NoError(t, SaveRaw(f, path, nil))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)
	require.Equal(t, f.Size, loaded.Size)
	for i := range f.Data {
		// float32 storage bounds the round-trip error.
		assert.InDelta(t, f.Data[i], loaded.Data[i], 1e-6, "cell %d", i)
	}
}

func TestLoadRawRejectsMalformedDumps(t *testing.T) {
	dir := t.TempDir()

	odd := filepath.Join(dir, "odd.r32")
	require.NoError(t, os.WriteFile(odd, []byte{1, 2, 3}, 0o644))
	_, err := LoadRaw(odd)
	assert.Error(t, err, "length not divisible by four")

	rect := filepath.Join(dir, "rect.r32")
	require.NoError(t, os.WriteFile(rect, make([]byte, 4*12), 0o644))
	_, err = LoadRaw(rect)
	assert.Error(t, err, "twelve values cannot form a square grid")
}

func writeNonSquarePNG(t *testing.T, path string) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, image.NewGray(image.Rect(0, 0, 6, 4))))
}

func TestSavePNG16ReportsCreateFailure(t *testing.T) {
	f := testField(t, 4, 4)
	err := SavePNG16(f, filepath.Join(t.TempDir(), "missing", "height.png"), nil)
	assert.Error(t, err)
}

package prep

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0-readme.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1-broken.png"), []byte("nope"), 0o644))
	writePNG(t, filepath.Join(dir, "2-ref.png"), 4, 3, 10)
	writePNG(t, filepath.Join(dir, "3-big.png"), 8, 6, 200)
	writePNG(t, filepath.Join(dir, "sub", "4-last.png"), 4, 3, 30)
	writePNG(t, filepath.Join(dir, "sub", "5-extra.png"), 4, 3, 40)

	ds, err := Build(context.Background(), Options{InputDir: dir, MaxImages: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Meta.Shape.Time)
	assert.Equal(t, 3, ds.Meta.Shape.Height)
	assert.Equal(t, 4, ds.Meta.Shape.Width)
	require.NotNil(t, ds.Meta.Source)
	assert.Equal(t, "2-ref.png", ds.Meta.Source.ReferenceImage)
	assert.Equal(t, []string{"2-ref.png", "3-big.png", "4-last.png"}, ds.Meta.Source.UsedImages)

	assert.Equal(t, byte(10), ds.At(0, 1, 2))
	assert.InDelta(t, 200, int(ds.At(1, 2, 3)), 1, "uniform image keeps its value when resized")
	assert.Equal(t, byte(30), ds.At(2, 0, 0))
}

func TestBuildReferenceFollowsComponentOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "scan-b", "x.png"), 5, 2, 70)
	writePNG(t, filepath.Join(dir, "scan", "b.png"), 3, 2, 20)

	ds, err := Build(context.Background(), Options{InputDir: dir})
	require.NoError(t, err)
	require.NotNil(t, ds.Meta.Source)
	assert.Equal(t, "b.png", ds.Meta.Source.ReferenceImage, "scan/ sorts before scan-b/")
	assert.Equal(t, []string{"b.png", "x.png"}, ds.Meta.Source.UsedImages)
	assert.Equal(t, 3, ds.Meta.Shape.Width)
	assert.Equal(t, byte(20), ds.At(0, 0, 0))
}

func TestBuildDefaultsMaxImages(t *testing.T) {
	dir := t.TempDir()
	for i := range 12 {
		writePNG(t, filepath.Join(dir, string(rune('a'+i))+".png"), 2, 2, uint8(i))
	}
	ds, err := Build(context.Background(), Options{InputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxImages, ds.Meta.Shape.Time)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(context.Background(), Options{InputDir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	_, err = Build(context.Background(), Options{InputDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoFiles)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	_, err = Build(context.Background(), Options{InputDir: dir})
	assert.ErrorIs(t, err, ErrNoValidImage)
}

func TestBuildCancelled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, Options{InputDir: dir})
	assert.ErrorIs(t, err, context.Canceled)
}


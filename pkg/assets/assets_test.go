package assets

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, p string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

func TestNextFreePath(t *testing.T) {
	dir := t.TempDir()

	p, err := NextFreePath(dir, "oreo-delight", ".png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "oreo-delight.png"), p)

	touch(t, filepath.Join(dir, "oreo-delight.png"))
	touch(t, filepath.Join(dir, "oreo-delight_1.png"))
	p, err = NextFreePath(dir, "oreo-delight", "png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "oreo-delight_2.png"), p)

	// a different extension does not collide
	p, err = NextFreePath(dir, "oreo-delight", ".jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "oreo-delight.jpg"), p)
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.PNG"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "._a.jpg"))
	touch(t, filepath.Join(dir, "sub", "c.webp"))
	touch(t, filepath.Join(dir, ".cache", "d.png"))

	flat, err := ListImages(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.PNG"}, flat)

	deep, err := ListImages(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.PNG", filepath.Join("sub", "c.webp")}, deep)

	_, err = ListImages(filepath.Join(dir, "missing"), false)
	assert.Error(t, err)
}

func TestMoveAndCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	touch(t, src)

	dst := filepath.Join(dir, "out", "renamed.png")
	require.NoError(t, Move(src, dst))
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)

	cp := filepath.Join(dir, "copy", "c.png")
	require.NoError(t, CopyFile(dst, cp))
	assert.FileExists(t, dst)
	assert.Equal(t, int64(1), Size(cp))

	assert.Error(t, copyRemove(filepath.Join(dir, "nope"), filepath.Join(dir, "x")))
}

func TestCopyFileOntoItself(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "oreo-delight.png")
	require.NoError(t, os.WriteFile(p, []byte("render bytes"), 0o644))

	require.NoError(t, CopyFile(p, p))
	require.NoError(t, CopyFile(p, filepath.Join(dir, ".", "oreo-delight.png")))
	require.NoError(t, Move(p, p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "render bytes", string(b))
}

func TestCompressJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.png")
	img := imaging.New(2400, 1200, color.NRGBA{0, 0, 0, 0})
	img = imaging.Paste(img, imaging.New(100, 100, color.NRGBA{200, 30, 30, 255}), image.Pt(0, 0))
	require.NoError(t, imaging.Save(img, src))

	dst := filepath.Join(dir, "out", OutputName("big.png", JPEG))
	res, err := Compress(src, dst, CompressOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "big.jpg"), dst)
	assert.Greater(t, res.Before, int64(0))
	assert.Greater(t, res.After, int64(0))

	out, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, 1200, out.Bounds().Dx())
	assert.Equal(t, 600, out.Bounds().Dy())

	// transparent area flattened to white
	r, g, b, _ := out.At(1000, 500).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestCompressKeepsSmallImagesAndPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.jpg")
	require.NoError(t, imaging.Save(imaging.New(300, 200, color.White), src))

	dst := filepath.Join(dir, OutputName(src, PNG))
	_, err := Compress(src, dst, CompressOptions{Format: PNG})
	require.NoError(t, err)
	out, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 200), out.Bounds())

	_, err = Compress(filepath.Join(dir, "missing.png"), dst, CompressOptions{})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JPG")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)
	_, err = ParseFormat("gif")
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestCompressResultReduction(t *testing.T) {
	assert.InDelta(t, 75.0, CompressResult{Before: 400, After: 100}.Reduction(), 0.001)
	assert.Equal(t, 0.0, CompressResult{}.Reduction())
}

func TestRemoveWatermark(t *testing.T) {
	img := imaging.New(100, 100, color.NRGBA{255, 0, 0, 255})
	// badge in the bottom-right corner
	img = imaging.Paste(img, imaging.New(10, 10, color.NRGBA{0, 0, 255, 255}), image.Pt(90, 90))

	out := RemoveWatermark(img, DefaultCropFraction)
	assert.Equal(t, img.Bounds(), out.Bounds())

	r, _, b, _ := out.At(5, 5).RGBA()
	assert.Equal(t, uint32(255), r>>8, "top-left untouched")
	assert.Equal(t, uint32(0), b>>8)

	// the corner is now a blur, not the solid badge colour
	r, _, b, _ = out.At(95, 95).RGBA()
	assert.Less(t, b>>8, uint32(255))
	assert.Greater(t, r>>8, uint32(0))

	same := RemoveWatermark(img, 0)
	assert.Equal(t, img.Pix, same.Pix)
}

func TestCleanStem(t *testing.T) {
	assert.Equal(t, "abc123-x", CleanStem("Gemini_Generated_Image_abc123 x"))
}

package signals

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakeassets/pkg/matcher"
)

func solid(c color.Color) image.Image {
	return imaging.New(200, 200, c)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		c    color.NRGBA
		want []matcher.ColorBucket
	}{
		{"pink", color.NRGBA{R: 240, G: 120, B: 140, A: 255}, []matcher.ColorBucket{matcher.Pink}},
		{"brown", color.NRGBA{R: 100, G: 60, B: 40, A: 255}, []matcher.ColorBucket{matcher.Brown, matcher.Chocolate}},
		{"white", color.NRGBA{R: 250, G: 250, B: 245, A: 255}, []matcher.ColorBucket{matcher.White}},
		{"golden", color.NRGBA{R: 220, G: 180, B: 60, A: 255}, []matcher.ColorBucket{matcher.Golden}},
		{"grey", color.NRGBA{R: 160, G: 160, B: 160, A: 255}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.c))
		})
	}
}

func TestColorBucketsSolid(t *testing.T) {
	got := ColorBuckets(solid(color.NRGBA{R: 240, G: 120, B: 140, A: 255}))
	assert.Equal(t, matcher.ColorSet(matcher.Pink), got)
}

func TestColorBucketsTwoTone(t *testing.T) {
	img := imaging.New(300, 300, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	img = imaging.Paste(img, imaging.New(300, 150, color.NRGBA{R: 100, G: 60, B: 40, A: 255}), image.Pt(0, 150))

	got := ColorBuckets(img)
	assert.Contains(t, got, matcher.White)
	assert.Contains(t, got, matcher.Brown)
	assert.Contains(t, got, matcher.Chocolate)
	assert.NotContains(t, got, matcher.Pink)
}

func TestDominantColors(t *testing.T) {
	assert.Nil(t, DominantColors(nil, 3))
	cs := DominantColors(solid(color.NRGBA{R: 1, G: 2, B: 3, A: 255}), 3)
	require.Len(t, cs, 1)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, cs[0])
}

func TestColorBucketsFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "golden.png")
	require.NoError(t, imaging.Save(solid(color.NRGBA{R: 220, G: 180, B: 60, A: 255}), p))

	got, err := ColorBucketsFile(p)
	require.NoError(t, err)
	assert.Equal(t, matcher.ColorSet(matcher.Golden), got)

	_, err = ColorBucketsFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestFolderHints(t *testing.T) {
	tests := []struct {
		dir  string
		want map[matcher.FolderHint]struct{}
	}{
		{"/renders/Vegan Shakes", matcher.FolderSet(matcher.HintVegan)},
		{"assets/icecream", matcher.FolderSet(matcher.HintCone)},
		{"assets/Cones/", matcher.FolderSet(matcher.HintCone)},
		{"ShotShakes", matcher.FolderSet(matcher.HintShotShake)},
		{"z image output", matcher.FolderSet(matcher.HintStraightShake)},
		{"straight", matcher.FolderSet(matcher.HintStraightShake)},
		{"misc", matcher.FolderSet()},
	}
	for _, tc := range tests {
		t.Run(tc.dir, func(t *testing.T) {
			assert.Equal(t, tc.want, FolderHints(tc.dir))
		})
	}
}

// Package signals derives cheap, local evidence from an image: dominant color buckets
// and hints from the folder it was found in.
package signals

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"

	"shakeassets/pkg/matcher"
)

const (
	sampleSize = 150
	sampleStep = 10
	topColors  = 3
)

// DominantColors returns up to k of the most frequent exact colors in a 150x150
// downscale of img, sampling every 10th pixel in raster order. Ties keep first-seen order.
func DominantColors(img image.Image, k int) []color.NRGBA {
	if img == nil || img.Bounds().Empty() || k <= 0 {
		return nil
	}
	small := imaging.Resize(img, sampleSize, sampleSize, imaging.Box)

	counts := map[color.NRGBA]int{}
	var order []color.NRGBA
	n := 0
	for i := 0; i+3 < len(small.Pix); i += 4 {
		if n%sampleStep == 0 {
			c := color.NRGBA{R: small.Pix[i], G: small.Pix[i+1], B: small.Pix[i+2], A: 255}
			if counts[c] == 0 {
				order = append(order, c)
			}
			counts[c]++
		}
		n++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > k {
		order = order[:k]
	}
	return order
}

// Classify maps one color to the buckets it falls in. A dark brown counts as both
// brown and chocolate.
func Classify(c color.NRGBA) []matcher.ColorBucket {
	r, g, b := int(c.R), int(c.G), int(c.B)
	var out []matcher.ColorBucket
	if r > 200 && g < 150 && b < 150 {
		out = append(out, matcher.Pink)
	}
	if r < 150 && g < 120 && b < 100 {
		out = append(out, matcher.Brown, matcher.Chocolate)
	}
	if r > 200 && g > 200 && b > 200 {
		out = append(out, matcher.White)
	}
	if r > 180 && g > 150 && b < 100 {
		out = append(out, matcher.Golden)
	}
	return out
}

// ColorBuckets classifies the three dominant colors of img.
func ColorBuckets(img image.Image) map[matcher.ColorBucket]struct{} {
	set := matcher.ColorSet()
	for _, c := range DominantColors(img, topColors) {
		for _, b := range Classify(c) {
			set[b] = struct{}{}
		}
	}
	return set
}

// ColorBucketsFile opens path and classifies it.
func ColorBucketsFile(path string) (map[matcher.ColorBucket]struct{}, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return ColorBuckets(img), nil
}

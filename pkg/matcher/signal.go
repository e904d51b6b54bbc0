package matcher

import (
	"strings"

	"shakeassets/pkg/menu"
)

// ColorBucket is a coarse dominant-color class of an image.
type ColorBucket string

const (
	Pink      ColorBucket = "pink"
	Brown     ColorBucket = "brown"
	Chocolate ColorBucket = "chocolate"
	White     ColorBucket = "white"
	Golden    ColorBucket = "golden"
)

// FolderHint is a category hint derived from where an image was found.
type FolderHint string

const (
	HintVegan         FolderHint = "vegan"
	HintCone          FolderHint = "cone"
	HintShotShake     FolderHint = "shotshake"
	HintStraightShake FolderHint = "straightshake"
)

// colorKeywords lists the item keywords each bucket is consistent with.
var colorKeywords = map[ColorBucket][]string{
	Pink:      {"strawberry"},
	Brown:     {"chocolate", "milo"},
	Chocolate: {"chocolate"},
	White:     {"vanilla"},
	Golden:    {"caramel"},
}

var folderCategory = map[FolderHint]menu.Category{
	HintVegan:         menu.Vegan,
	HintCone:          menu.IceCream,
	HintShotShake:     menu.ShotShake,
	HintStraightShake: menu.StraightShake,
}

// Signal is the evidence gathered for one image. Zero values mean absent.
type Signal struct {
	OCRText string
	// VisionText is nil when no vision description was requested or it failed.
	VisionText *string
	Colors     map[ColorBucket]struct{}
	Folder     map[FolderHint]struct{}
}

// Vision returns the trimmed vision description or "".
func (s Signal) Vision() string {
	if s.VisionText == nil {
		return ""
	}
	return strings.TrimSpace(*s.VisionText)
}

// WithVision returns a copy of s carrying text as the vision description.
func (s Signal) WithVision(text string) Signal {
	s.VisionText = &text
	return s
}

// ColorSet builds a bucket set.
func ColorSet(bs ...ColorBucket) map[ColorBucket]struct{} {
	out := make(map[ColorBucket]struct{}, len(bs))
	for _, b := range bs {
		out[b] = struct{}{}
	}
	return out
}

// FolderSet builds a hint set.
func FolderSet(hs ...FolderHint) map[FolderHint]struct{} {
	out := make(map[FolderHint]struct{}, len(hs))
	for _, h := range hs {
		out[h] = struct{}{}
	}
	return out
}

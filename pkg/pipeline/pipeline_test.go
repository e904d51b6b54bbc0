package pipeline

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakeassets/pkg/matcher"
	"shakeassets/pkg/menu"
	"shakeassets/pkg/ocr"
)

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) ExtractText(context.Context, string) (string, error) { return f.text, f.err }

type fakeVision struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeVision) Describe(_ context.Context, _ string, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func testCatalog(t *testing.T) *menu.Catalog {
	t.Helper()
	cat, err := menu.Load(filepath.Join("..", "menu", "testdata", "menu_items.json"))
	require.NoError(t, err)
	return cat
}

func pinkImage(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "render.png")
	require.NoError(t, imaging.Save(imaging.New(64, 64, color.NRGBA{240, 100, 120, 255}), p))
	return p
}

func TestIdentifyCombinesSignals(t *testing.T) {
	v := &fakeVision{answer: "1. \"Vegan Berry\"\nbecause it is pink"}
	p := New(testCatalog(t), matcher.New(matcher.DefaultConfig()),
		WithOCR(fakeOCR{text: "oat"}), WithVision(v))

	res, sig := p.Identify(context.Background(), pinkImage(t), "Vegan Delights")
	assert.Equal(t, "vegan-berry", res.ItemID)
	assert.Equal(t, "oat", sig.OCRText)
	assert.Equal(t, "Vegan Berry", sig.Vision())
	assert.Contains(t, sig.Colors, matcher.Pink)
	assert.Contains(t, sig.Folder, matcher.HintVegan)

	require.Len(t, v.prompts, 1)
	assert.Contains(t, v.prompts[0], "Oreo Delight, Milo Magic")
}

func TestSignalFailuresAreEmpty(t *testing.T) {
	v := &fakeVision{err: errors.New("quota exceeded")}
	p := New(testCatalog(t), matcher.New(matcher.DefaultConfig()),
		WithOCR(fakeOCR{err: errors.New("tesseract missing")}), WithVision(v), WithColors(false))

	res, sig := p.Identify(context.Background(), pinkImage(t), "renders")
	assert.False(t, res.Matched())
	assert.Empty(t, sig.OCRText)
	assert.Nil(t, sig.VisionText)
	assert.Empty(t, sig.Colors)
	assert.Empty(t, sig.Folder)
}

func TestNoTextAndMissingFile(t *testing.T) {
	p := New(testCatalog(t), matcher.New(matcher.DefaultConfig()), WithOCR(fakeOCR{err: ocr.ErrNoText}))
	sig := p.Signals(context.Background(), filepath.Join(t.TempDir(), "gone.png"), "Icecream cones")
	assert.Empty(t, sig.OCRText)
	assert.Empty(t, sig.Colors)
	assert.Contains(t, sig.Folder, matcher.HintCone)

	// folder hint plus colour alone: cone folder (30) + white (15) reaches the threshold
	white := matcher.Signal{Colors: matcher.ColorSet(matcher.White), Folder: sig.Folder}
	assert.Equal(t, "vanilla-cone", p.Score(white).ItemID)
}

func TestCancelledContextSkipsVision(t *testing.T) {
	v := &fakeVision{answer: "Oreo Delight"}
	p := New(testCatalog(t), matcher.New(matcher.DefaultConfig()), WithVision(v), WithColors(false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sig := p.Signals(ctx, pinkImage(t), "")
	assert.Nil(t, sig.VisionText)
	assert.Empty(t, v.prompts)
}

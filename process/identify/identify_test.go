package identify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakeassets/pkg/matcher"
	"shakeassets/pkg/menu"
	"shakeassets/pkg/pipeline"
)

// visionByName answers with a title chosen by file name.
type visionByName map[string]string

func (v visionByName) Describe(_ context.Context, path, _ string) (string, error) {
	if a, ok := v[filepath.Base(path)]; ok {
		return a, nil
	}
	return "", errors.New("no idea")
}

func newPipeline(t *testing.T, answers visionByName) *pipeline.Pipeline {
	t.Helper()
	cat, err := menu.Load(filepath.Join("..", "..", "pkg", "menu", "testdata", "menu_items.json"))
	require.NoError(t, err)
	return pipeline.New(cat, matcher.New(matcher.DefaultConfig()),
		pipeline.WithVision(answers), pipeline.WithColors(false))
}

func touch(t *testing.T, p string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("img"), 0o644))
}

func strp(s string) *string { return &s }

func TestRunRenamesWithCollisionSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "oreo-delight.png"))
	touch(t, filepath.Join(dir, "oreo-delight_1.png"))
	touch(t, filepath.Join(dir, "render1.png"))
	touch(t, filepath.Join(dir, "noise.jpg"))

	p := newPipeline(t, visionByName{"render1.png": "Oreo Delight"})
	sum, err := Run(context.Background(), p, Options{Dir: dir})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "oreo-delight_2.png"))
	assert.NoFileExists(t, filepath.Join(dir, "render1.png"))
	assert.NoFileExists(t, filepath.Join(dir, lockName))
	assert.Equal(t, 1, sum.Renamed)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, 15, sum.Threshold)

	report, err := ReadReport(filepath.Join(dir, ReportName))
	require.NoError(t, err)
	require.Len(t, report, 4)
	assert.Equal(t, Record{Original: "noise.jpg"}, report[0])
	assert.Equal(t, "render1.png", report[3].Original)
	assert.Equal(t, strp("oreo-delight_2.png"), report[3].New)
	assert.Equal(t, strp("oreo-delight"), report[3].Item)
	assert.GreaterOrEqual(t, report[3].Score, 15)
}

func TestRunKeepsAlreadyNamedFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "milo-magic_3.jpg"))
	p := newPipeline(t, visionByName{"milo-magic_3.jpg": "Milo Magic"})

	sum, err := Run(context.Background(), p, Options{Dir: dir})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "milo-magic_3.jpg"))
	assert.Equal(t, 0, sum.Renamed)
	assert.Equal(t, strp("milo-magic_3.jpg"), sum.Records[0].New)
}

func TestRunDryRunAndOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "named")
	touch(t, filepath.Join(dir, "Vegan Delights", "a.webp"))
	p := newPipeline(t, visionByName{"a.webp": "Vegan Berry"})

	sum, err := Run(context.Background(), p, Options{Dir: dir, Output: out, Recursive: true, DryRun: true})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "Vegan Delights", "a.webp"))
	assert.NoDirExists(t, out)
	require.Len(t, sum.Records, 1)
	assert.Equal(t, "Vegan Delights/a.webp", sum.Records[0].Original)
	assert.Equal(t, strp("vegan-berry.webp"), sum.Records[0].New)

	sum, err = Run(context.Background(), p, Options{Dir: dir, Output: out, Recursive: true})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "vegan-berry.webp"))
	assert.Equal(t, 1, sum.Renamed)
}

func TestRunErrors(t *testing.T) {
	p := newPipeline(t, nil)
	_, err := Run(context.Background(), p, Options{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	dir := t.TempDir()
	holder, err := NewRunner(p, Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()
	_, err = Run(context.Background(), p, Options{Dir: dir})
	assert.ErrorIs(t, err, ErrLocked)
}

func TestProcessRecordsIOErrors(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRunner(newPipeline(t, nil), Options{Dir: dir})
	require.NoError(t, err)

	rec := r.Process(context.Background(), "vanished.png")
	assert.NotEmpty(t, rec.Error)
	assert.Nil(t, rec.New)
	assert.Equal(t, 1, r.Summary().Failed)
}

func TestRunInterrupted(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.png"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := Run(ctx, newPipeline(t, nil), Options{Dir: dir})
	require.NoError(t, err)
	assert.True(t, sum.Interrupted)
	assert.Empty(t, sum.Records)

	b, err := os.ReadFile(filepath.Join(dir, ReportName))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestAlreadyNamed(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"oreo-delight.png", true},
		{"oreo-delight_12.png", true},
		{"oreo-delight_x.png", false},
		{"oreo-delight-2.png", false},
		{"oreo-delight.jpg", false},
		{"milo-magic.png", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, alreadyNamed(tc.name, "oreo-delight", ".png"), tc.name)
	}
}

func TestSummaryToRun(t *testing.T) {
	sum := &Summary{
		Dir:        "renders",
		StartedAt:  time.Unix(100, 0),
		FinishedAt: time.Unix(160, 0),
		Threshold:  15,
		Renamed:    1,
		Records: []Record{
			{Original: "a.png", New: strp("oreo-delight.png"), Item: strp("oreo-delight"), Score: 165},
			{Original: "b.png", Error: "permission denied"},
		},
	}
	run := sum.ToRun()
	assert.Equal(t, 2, run.Total)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, int64(160), run.FinishedAt.Unix())
	assert.Equal(t, "oreo-delight", *run.Records[0].ItemID)
	assert.Nil(t, run.Records[1].ItemID)
	assert.Equal(t, "permission denied", run.Records[1].Error)
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRunner(newPipeline(t, visionByName{"new.png": "Baileys Cream"}), Options{Dir: dir})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()
	// let the watcher register before the file appears
	time.Sleep(100 * time.Millisecond)
	touch(t, filepath.Join(dir, "new.png"))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "baileys-cream.png"))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	report, err := ReadReport(filepath.Join(dir, ReportName))
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, strp("baileys-cream"), report[0].Item)
}

package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\nfake")

func TestLocalRawImage(t *testing.T) {
	var got localRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngMagic)
	}))
	defer srv.Close()

	g := NewLocal(Config{BaseURL: srv.URL + "/", Seed: 42})
	data, err := g.Generate(context.Background(), "a pink shake")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, data)
	assert.Equal(t, "a pink shake", got.Prompt)
	assert.Equal(t, 1024, got.Width)
	assert.Equal(t, 9, got.Steps)
	require.NotNil(t, got.Seed)
	assert.Equal(t, int64(42), *got.Seed)
}

func TestLocalJSONImageAndRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"images": []string{"data:image/png;base64," + base64.StdEncoding.EncodeToString(pngMagic)},
		})
	}))
	defer srv.Close()

	g := NewLocal(Config{BaseURL: srv.URL})
	var slept []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error { slept = append(slept, d); return nil }

	data, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, data)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, slept, 1)
}

func TestLocalClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	g := NewLocal(Config{BaseURL: srv.URL})
	g.sleep = func(context.Context, time.Duration) error { return nil }
	_, err := g.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLocalBackoffStopsOnCancel(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := NewLocal(Config{BaseURL: srv.URL})
	g.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return sleepCtx(ctx, time.Hour)
	}

	start := time.Now()
	_, err := g.Generate(ctx, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

func TestLocalEmptyJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	_, err := NewLocal(Config{BaseURL: srv.URL}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNoImage)
}

type fakeModels struct {
	parts []*genai.Part
	cfg   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, _ []*genai.Content,
	cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.cfg = cfg
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: f.parts}}},
	}, nil
}

func TestGeminiGenerate(t *testing.T) {
	fake := &fakeModels{parts: []*genai.Part{
		{Text: "here you go"},
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: pngMagic}},
	}}
	g := &Gemini{models: fake, model: DefaultGeminiModel, limiter: Config{}.limiter()}

	data, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, data)
	require.NotNil(t, fake.cfg)
	assert.Contains(t, fake.cfg.ResponseModalities, "IMAGE")

	fake.parts = []*genai.Part{{Text: "I cannot draw that"}}
	_, err = g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "b64_json", body["response_format"])
		assert.Equal(t, "512x512", body["size"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(pngMagic)}},
		})
	}))
	defer srv.Close()

	g, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL + "/v1/", Width: 512, Height: 512})
	require.NoError(t, err)
	data, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, data)
}

func TestNew(t *testing.T) {
	g, err := New(context.Background(), "z-image", Config{})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, g)

	_, err = New(context.Background(), "gemini", Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = New(context.Background(), "openai", Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = New(context.Background(), "midjourney", Config{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestConfigNormalized(t *testing.T) {
	c := Config{Width: -1, GuidanceScale: -2, APIKey: " k "}.normalized()
	assert.Equal(t, defaultSize, c.Width)
	assert.Equal(t, defaultSize, c.Height)
	assert.Equal(t, 0.0, c.GuidanceScale)
	assert.Equal(t, "k", c.APIKey)
}

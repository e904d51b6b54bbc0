package vision

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func writePNG(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "shake.png")
	require.NoError(t, imaging.Save(imaging.New(8, 8, color.White), p))
	return p
}

type fakeModels struct {
	reply    string
	err      error
	gotModel string
	gotParts []*genai.Part
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content,
	_ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	if len(contents) > 0 {
		f.gotParts = contents[0].Parts
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestTitlePromptListsTitles(t *testing.T) {
	p := TitlePrompt([]string{"Oreo Delight", "Milo Magic"})
	assert.Contains(t, p, "Oreo Delight, Milo Magic")
	assert.Contains(t, p, "EXACT name")
}

func TestCleanAnswer(t *testing.T) {
	cases := map[string]string{
		"Oreo Delight":                   "Oreo Delight",
		"  \"Oreo Delight\"\n(confident)": "Oreo Delight",
		"1. Milo Magic.":                 "Milo Magic",
		"**Jäger Bomb**":                 "Jäger Bomb",
		"":                               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanAnswer(in), "input %q", in)
	}
}

func TestGeminiDescribe(t *testing.T) {
	fake := &fakeModels{reply: "  Oreo Delight \n"}
	g := newGemini(fake, "", nil)

	out, err := g.Describe(context.Background(), writePNG(t), "which one?")
	require.NoError(t, err)
	assert.Equal(t, "Oreo Delight", out)
	assert.Equal(t, DefaultGeminiModel, fake.gotModel)
	require.Len(t, fake.gotParts, 2)
	assert.Equal(t, "which one?", fake.gotParts[0].Text)
	require.NotNil(t, fake.gotParts[1].InlineData)
	assert.Equal(t, "image/png", fake.gotParts[1].InlineData.MIMEType)
}

func TestGeminiErrors(t *testing.T) {
	g := newGemini(&fakeModels{err: errors.New("quota")}, "m", nil)
	_, err := g.Describe(context.Background(), writePNG(t), "p")
	assert.ErrorContains(t, err, "quota")

	g = newGemini(&fakeModels{reply: "   "}, "m", nil)
	_, err = g.Describe(context.Background(), writePNG(t), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = g.Describe(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "p")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConstructorsNeedKey(t *testing.T) {
	_, err := NewGemini(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = NewOpenAI(Config{APIKey: "  "})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewProvider(t *testing.T) {
	d, err := New(context.Background(), "none", Config{})
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = New(context.Background(), "clip", Config{APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	d, err = New(context.Background(), "openai", Config{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, d)

	d, err = New(context.Background(), "gemini", Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.Nil(t, d)
}

func TestOpenAIDescribe(t *testing.T) {
	var gotModel, gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Type     string `json:"type"`
					ImageURL struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		for _, m := range body.Messages {
			for _, c := range m.Content {
				if c.Type == "image_url" {
					gotURL = c.ImageURL.URL
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"1. Milo Magic."}}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	out, err := Identify(context.Background(), c, writePNG(t), []string{"Milo Magic"})
	require.NoError(t, err)
	assert.Equal(t, "Milo Magic", out)
	assert.Equal(t, DefaultOpenAIModel, gotModel)
	assert.True(t, strings.HasPrefix(gotURL, "data:image/png;base64,"), gotURL)
}

func TestIdentifyWithoutBackend(t *testing.T) {
	_, err := Identify(context.Background(), nil, "x.png", nil)
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestNewLimiter(t *testing.T) {
	assert.True(t, NewLimiter(0).Allow())
	l := NewLimiter(60)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

package vision

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"shakeassets/pkg/logging"
)

// DefaultGeminiModel is used when Config.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the slice of *genai.Models the describer needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini describes images with the Gemini API.
type Gemini struct {
	models  contentGenerator
	model   string
	limiter *rate.Limiter
}

// NewGemini creates a Gemini API client. It does not call the API.
func NewGemini(ctx context.Context, cfg Config, opts ...Option) (*Gemini, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrNoAPIKey
	}
	o := buildOptions(cfg, opts)
	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newGemini(client.Models, cfg.Model, o.limiter), nil
}

func newGemini(models contentGenerator, model string, limiter *rate.Limiter) *Gemini {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &Gemini{models: models, model: model, limiter: limiter}
}

// Describe sends the prompt and the image bytes in one user turn.
func (g *Gemini) Describe(ctx context.Context, path, prompt string) (string, error) {
	data, mt, err := readImage(path)
	if err != nil {
		return "", err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(data, mt),
		}, genai.Role(genai.RoleUser)),
	}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	logging.L().Debugf("VISION gemini %s -> %q", path, logging.Snippet(text, 80))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

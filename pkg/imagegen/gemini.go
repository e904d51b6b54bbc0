package imagegen

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"shakeassets/pkg/logging"
)

// DefaultGeminiModel can return inline image parts.
const DefaultGeminiModel = "gemini-2.5-flash-image-preview"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates images through the Gemini API.
type Gemini struct {
	models  contentGenerator
	model   string
	limiter *rate.Limiter
}

// NewGemini validates the key and builds the client.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	cfg = cfg.normalized()
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient(),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: client.Models, model: model, limiter: cfg.limiter()}, nil
}

// Generate returns the first inline image part of the response.
func (g *Gemini) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 &&
				strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				return part.InlineData.Data, nil
			}
		}
	}
	logging.L().Warnf("GEN gemini returned no image; text=%q", logging.Snippet(resp.Text(), 120))
	return nil, ErrNoImage
}

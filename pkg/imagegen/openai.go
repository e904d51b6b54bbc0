package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// DefaultOpenAIModel is used when Config.Model is empty.
const DefaultOpenAIModel = "dall-e-3"

// OpenAI generates images with the Images API, requesting base64 payloads.
type OpenAI struct {
	client  openai.Client
	model   string
	size    openai.ImageGenerateParamsSize
	limiter *rate.Limiter
}

// NewOpenAI builds the client without calling the API.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	cfg = cfg.normalized()
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.httpClient()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   model,
		size:    openai.ImageGenerateParamsSize(fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)),
		limiter: cfg.limiter(),
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(o.model),
		N:              openai.Int(1),
		Size:           o.size,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai images: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}

package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"shakeassets/pkg/logging"
)

// DefaultOpenAIModel is used when Config.Model is empty.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI describes images through the chat completions API. BaseURL may point at any
// compatible server.
type OpenAI struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAI builds the client without calling the API.
func NewOpenAI(cfg Config, opts ...Option) (*OpenAI, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrNoAPIKey
	}
	o := buildOptions(cfg, opts)
	reqOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), model: model, limiter: o.limiter}, nil
}

// Describe sends the image inline as a data URL.
func (c *OpenAI) Describe(ctx context.Context, path, prompt string) (string, error) {
	data, mt, err := readImage(path)
	if err != nil {
		return "", err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	dataURL := "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
	parts := []openai.ChatCompletionContentPartUnionParam{
		{OfText: &openai.ChatCompletionContentPartTextParam{Text: prompt}},
		{OfImageURL: &openai.ChatCompletionContentPartImageParam{
			ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
		}},
	}
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts},
			}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	logging.L().Debugf("VISION openai %s -> %q", path, logging.Snippet(text, 80))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

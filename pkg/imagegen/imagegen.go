// Package imagegen produces placeholder product images from text prompts.
package imagegen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Generator turns a prompt into encoded image bytes (PNG unless the backend says otherwise).
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Config is shared by every backend; each uses the fields it understands.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	Width         int
	Height        int
	Steps         int
	GuidanceScale float64
	// Seed is passed to the local backend when non-zero.
	Seed int64

	RequestsPerMinute int
	TimeoutSeconds    int
}

const (
	defaultSize    = 1024
	defaultTimeout = 5 * time.Minute
)

func (c Config) normalized() Config {
	if c.Width <= 0 {
		c.Width = defaultSize
	}
	if c.Height <= 0 {
		c.Height = defaultSize
	}
	if c.Steps <= 0 {
		c.Steps = 9
	}
	if c.GuidanceScale < 0 {
		c.GuidanceScale = 0
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Model = strings.TrimSpace(c.Model)
	return c
}

func (c Config) httpClient() *http.Client {
	timeout := defaultTimeout
	if c.TimeoutSeconds > 0 {
		timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (c Config) limiter() *rate.Limiter {
	if c.RequestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.RequestsPerMinute)), 1)
}

// New returns the backend named by provider: "gemini", "openai" or "local" (alias "z-image").
func New(ctx context.Context, provider string, cfg Config) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini", "google":
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai":
		o, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	case "local", "z-image", "zimage":
		return NewLocal(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

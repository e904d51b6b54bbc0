// Package vision asks a multimodal model which menu item an image shows.
package vision

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Describer returns a free-text answer about the image at path.
type Describer interface {
	Describe(ctx context.Context, path, prompt string) (string, error)
}

// Config captures what a backend needs to reach its API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// RequestsPerMinute paces calls; zero means unlimited.
	RequestsPerMinute int
	TimeoutSeconds    int
}

const defaultTimeout = 60 * time.Second

type options struct {
	limiter    *rate.Limiter
	httpClient *http.Client
}

// Option customizes a backend.
type Option func(*options)

// WithLimiter shares one limiter between several clients.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		if l != nil {
			o.limiter = l
		}
	}
}

// WithHTTPClient overrides the HTTP client (tests point it at httptest servers).
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

func buildOptions(cfg Config, opts []Option) options {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	o := options{
		limiter:    NewLimiter(cfg.RequestsPerMinute),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewLimiter converts a per-minute budget to a limiter; rpm <= 0 is unlimited.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// New builds the backend named by provider: "gemini", "openai", or "none"/"" for nil.
func New(ctx context.Context, provider string, cfg Config, opts ...Option) (Describer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "none", "off":
		return nil, nil
	case "gemini", "google":
		g, err := NewGemini(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai":
		o, err := NewOpenAI(cfg, opts...)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// TitlePrompt asks for exactly one catalog title.
func TitlePrompt(titles []string) string {
	return "Identify this milkshake or ice cream image. Choose the EXACT name from this list:\n\n" +
		strings.Join(titles, ", ") +
		"\n\nRespond with ONLY the exact name from the list above, nothing else."
}

var leadingNumber = regexp.MustCompile(`^\s*\d+\s*[.)]\s*`)

// CleanAnswer keeps the first line of a model reply and strips list numbering,
// quotes and trailing punctuation.
func CleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = leadingNumber.ReplaceAllString(s, "")
	s = strings.NewReplacer(`"`, "", "'", "", "*", "", "`", "").Replace(s)
	return strings.TrimRight(strings.TrimSpace(s), ".!")
}

// Identify runs d with the title prompt and returns the cleaned answer.
func Identify(ctx context.Context, d Describer, path string, titles []string) (string, error) {
	if d == nil {
		return "", ErrNoBackend
	}
	out, err := d.Describe(ctx, path, TitlePrompt(titles))
	if err != nil {
		return "", err
	}
	return CleanAnswer(out), nil
}

func readImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return data, mimeType(path, data), nil
}

func mimeType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return http.DetectContentType(data)
}

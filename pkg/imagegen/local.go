package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"shakeassets/pkg/logging"
)

// DefaultLocalURL is where the local diffusion server listens by default.
const DefaultLocalURL = "http://127.0.0.1:7860"

const localAttempts = 3

// Local talks to a diffusion model served on the operator's machine (e.g. Z-Image Turbo).
// POST {BaseURL}/generate with a JSON body; the reply is either raw image bytes or
// JSON carrying a base64 "image" field.
type Local struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	sleep   func(context.Context, time.Duration) error
}

type localRequest struct {
	Prompt        string  `json:"prompt"`
	Model         string  `json:"model,omitempty"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Steps         int     `json:"num_inference_steps"`
	GuidanceScale float64 `json:"guidance_scale"`
	Seed          *int64  `json:"seed,omitempty"`
}

type localResponse struct {
	Image  string   `json:"image"`
	Images []string `json:"images"`
	Error  string   `json:"error"`
}

// NewLocal never fails; the server is only contacted by Generate.
func NewLocal(cfg Config) *Local {
	cfg = cfg.normalized()
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLocalURL
	}
	return &Local{cfg: cfg, client: cfg.httpClient(), limiter: cfg.limiter(), sleep: sleepCtx}
}

func (l *Local) Generate(ctx context.Context, prompt string) ([]byte, error) {
	req := localRequest{
		Prompt:        prompt,
		Model:         l.cfg.Model,
		Width:         l.cfg.Width,
		Height:        l.cfg.Height,
		Steps:         l.cfg.Steps,
		GuidanceScale: l.cfg.GuidanceScale,
	}
	if l.cfg.Seed != 0 {
		seed := l.cfg.Seed
		req.Seed = &seed
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(l.cfg.BaseURL, "/") + "/generate"

	var lastErr error
	for attempt := 1; attempt <= localAttempts; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		data, retry, err := l.post(ctx, endpoint, body)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		logging.L().Warnf("GEN local attempt %d failed: %v", attempt, err)
		if err := l.sleep(ctx, time.Duration(attempt*500)*time.Millisecond); err != nil {
			return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
		}
	}
	return nil, lastErr
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// post returns retry=true for transport errors and 5xx replies.
func (l *Local) post(ctx context.Context, endpoint string, body []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("local generate: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("local generate: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("local generate: status %d: %s", resp.StatusCode, logging.Snippet(string(payload), 200))
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		if len(payload) == 0 {
			return nil, false, ErrNoImage
		}
		return payload, false, nil
	}
	var out localResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, false, fmt.Errorf("local generate: %s", out.Error)
	}
	b64 := out.Image
	if b64 == "" && len(out.Images) > 0 {
		b64 = out.Images[0]
	}
	if i := strings.Index(b64, ","); strings.HasPrefix(b64, "data:") && i >= 0 {
		b64 = b64[i+1:]
	}
	if b64 == "" {
		return nil, false, ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}
	return data, false, nil
}

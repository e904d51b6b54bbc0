package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakeassets/pkg/matcher"
)

// clearEnv blanks every variable Load consults for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SHAKES_MENU_PATH", "SHAKES_MATCHER_THRESHOLD", "SHAKES_MATCHER_VISION_PRIORITY",
		"SHAKES_VISION_PROVIDER", "SHAKES_VISION_API_KEY", "SHAKES_GENERATE_PROVIDER",
		"SHAKES_GENERATE_API_KEY", "SHAKES_COMPRESS_FORMAT", "SHAKES_COMPRESS_QUALITY",
		"SHAKES_DB_DSN", "DB_DSN", "SHAKES_SERVER_JWT_SECRET", "JWT_SECRET", "SHAKES_LOG_LEVEL",
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "menu_items.json", cfg.Menu.Path)
	assert.Equal(t, matcher.DefaultConfig(), cfg.Matcher.ToMatcher())
	assert.Equal(t, "gemini", cfg.Vision.Provider)
	assert.Equal(t, "local", cfg.Generate.Provider)
	assert.Equal(t, 1024, cfg.Generate.Width)
	assert.Equal(t, 300, cfg.Generate.TimeoutSeconds)
	assert.Equal(t, 85, cfg.Compress.Quality)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Empty(t, cfg.Vision.APIKey)

	assert.Equal(t, cfg, Default())
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("SHAKES_MATCHER_THRESHOLD", "40")
	t.Setenv("SHAKES_MATCHER_VISION_PRIORITY", "false")
	t.Setenv("SHAKES_VISION_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DB_DSN", "postgres://localhost/shakes")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Matcher.Threshold)
	assert.False(t, cfg.Matcher.VisionPriority)
	assert.Equal(t, "sk-test", cfg.Vision.APIKey)
	assert.Equal(t, "postgres://localhost/shakes", cfg.DB.DSN)
	assert.Equal(t, "s3cret", cfg.Server.JWTSecret)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
menu:
  path: data/menu.json
matcher:
  threshold: 5
  folder_hint_weight: 0
generate:
  provider: gemini
  api_key: from-file
  width: 512
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "data/menu.json", cfg.Menu.Path)
	assert.Equal(t, 5, cfg.Matcher.Threshold)
	assert.Equal(t, 0, cfg.Matcher.FolderHintWeight)
	assert.Equal(t, "from-file", cfg.Generate.APIKey)
	assert.Equal(t, 512, cfg.Generate.Width)
	assert.Equal(t, 1024, cfg.Generate.Height)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"negative threshold", map[string]string{"SHAKES_MATCHER_THRESHOLD": "-1"}},
		{"bad vision provider", map[string]string{"SHAKES_VISION_PROVIDER": "clip"}},
		{"bad generate provider", map[string]string{"SHAKES_GENERATE_PROVIDER": "midjourney"}},
		{"bad format", map[string]string{"SHAKES_COMPRESS_FORMAT": "gif"}},
		{"bad quality", map[string]string{"SHAKES_COMPRESS_QUALITY": "0"}},
		{"bad log level", map[string]string{"SHAKES_LOG_LEVEL": "loud"}},
		{"empty menu", map[string]string{"SHAKES_MENU_PATH": " "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte("# comment\nexport DB_DSN=\"postgres://x\"\nJWT_SECRET=kept\n\nnot a pair\n"), 0o644))
	t.Setenv("JWT_SECRET", "already")

	require.NoError(t, LoadDotEnv(p))
	assert.Equal(t, "postgres://x", os.Getenv("DB_DSN"))
	assert.Equal(t, "already", os.Getenv("JWT_SECRET"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

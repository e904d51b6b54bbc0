// Package config loads the settings shared by the batch tools and the review server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"shakeassets/pkg/matcher"
)

// Config holds all configuration for the tools.
type Config struct {
	Menu     MenuConfig     `mapstructure:"menu"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
	Vision   ProviderConfig `mapstructure:"vision"`
	Generate GenerateConfig `mapstructure:"generate"`
	Compress CompressConfig `mapstructure:"compress"`
	DB       DBConfig       `mapstructure:"db"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type MenuConfig struct {
	Path string `mapstructure:"path"`
}

// MatcherConfig mirrors matcher.Config with file/env friendly keys.
type MatcherConfig struct {
	TitleExactWeight         int  `mapstructure:"title_exact_weight"`
	TitleWordWeight          int  `mapstructure:"title_word_weight"`
	VisionTitleWordWeight    int  `mapstructure:"vision_title_word_weight"`
	KeywordWeight            int  `mapstructure:"keyword_weight"`
	SalientKeywordWeight     int  `mapstructure:"salient_keyword_weight"`
	FolderHintWeight         int  `mapstructure:"folder_hint_weight"`
	ColorHintWeight          int  `mapstructure:"color_hint_weight"`
	VisionPriorityMultiplier int  `mapstructure:"vision_priority_multiplier"`
	Threshold                int  `mapstructure:"threshold"`
	VisionPriority           bool `mapstructure:"vision_priority"`
}

// ToMatcher converts to the matcher's own type.
func (m MatcherConfig) ToMatcher() matcher.Config {
	return matcher.Config{
		TitleExactWeight:         m.TitleExactWeight,
		TitleWordWeight:          m.TitleWordWeight,
		VisionTitleWordWeight:    m.VisionTitleWordWeight,
		KeywordWeight:            m.KeywordWeight,
		SalientKeywordWeight:     m.SalientKeywordWeight,
		FolderHintWeight:         m.FolderHintWeight,
		ColorHintWeight:          m.ColorHintWeight,
		VisionPriorityMultiplier: m.VisionPriorityMultiplier,
		AcceptanceThreshold:      m.Threshold,
		VisionPriority:           m.VisionPriority,
	}
}

// ProviderConfig describes a remote model backend.
type ProviderConfig struct {
	Provider          string `mapstructure:"provider"`
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
}

// ResolveAPIKey falls back to the provider's conventional environment variable.
func (p ProviderConfig) ResolveAPIKey() string {
	if k := strings.TrimSpace(p.APIKey); k != "" {
		return k
	}
	var names []string
	switch strings.ToLower(p.Provider) {
	case "gemini", "google":
		names = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}
	case "openai":
		names = []string{"OPENAI_API_KEY"}
	}
	for _, n := range names {
		if k := strings.TrimSpace(os.Getenv(n)); k != "" {
			return k
		}
	}
	return ""
}

type GenerateConfig struct {
	ProviderConfig `mapstructure:",squash"`
	OutputDir      string  `mapstructure:"output_dir"`
	Width          int     `mapstructure:"width"`
	Height         int     `mapstructure:"height"`
	Steps          int     `mapstructure:"steps"`
	GuidanceScale  float64 `mapstructure:"guidance_scale"`
	Seed           int64   `mapstructure:"seed"`
}

type CompressConfig struct {
	MaxWidth  int    `mapstructure:"max_width"`
	MaxHeight int    `mapstructure:"max_height"`
	Quality   int    `mapstructure:"quality"`
	Format    string `mapstructure:"format"`
	Workers   int    `mapstructure:"workers"`
}

type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
	UploadDir string `mapstructure:"upload_dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads shakes.yaml (or the file at path when non-empty), SHAKES_* environment
// variables and the legacy variable names, in increasing precedence over the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("shakes")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SHAKES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Vision.APIKey = cfg.Vision.ResolveAPIKey()
	cfg.Generate.APIKey = cfg.Generate.ResolveAPIKey()
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("menu.path", "menu_items.json")

	d := matcher.DefaultConfig()
	v.SetDefault("matcher.title_exact_weight", d.TitleExactWeight)
	v.SetDefault("matcher.title_word_weight", d.TitleWordWeight)
	v.SetDefault("matcher.vision_title_word_weight", d.VisionTitleWordWeight)
	v.SetDefault("matcher.keyword_weight", d.KeywordWeight)
	v.SetDefault("matcher.salient_keyword_weight", d.SalientKeywordWeight)
	v.SetDefault("matcher.folder_hint_weight", d.FolderHintWeight)
	v.SetDefault("matcher.color_hint_weight", d.ColorHintWeight)
	v.SetDefault("matcher.vision_priority_multiplier", d.VisionPriorityMultiplier)
	v.SetDefault("matcher.threshold", d.AcceptanceThreshold)
	v.SetDefault("matcher.vision_priority", d.VisionPriority)

	v.SetDefault("vision.provider", "gemini")
	v.SetDefault("vision.requests_per_minute", 15)
	v.SetDefault("vision.timeout_seconds", 60)

	v.SetDefault("generate.provider", "local")
	v.SetDefault("generate.output_dir", "images/generated")
	v.SetDefault("generate.width", 1024)
	v.SetDefault("generate.height", 1024)
	v.SetDefault("generate.steps", 9)
	v.SetDefault("generate.guidance_scale", 0.0)
	v.SetDefault("generate.timeout_seconds", 300)

	v.SetDefault("compress.max_width", 1200)
	v.SetDefault("compress.max_height", 1200)
	v.SetDefault("compress.quality", 85)
	v.SetDefault("compress.format", "jpeg")
	v.SetDefault("compress.workers", 0)

	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("server.addr", ":8081")
	v.SetDefault("server.upload_dir", "tmp/uploads")

	v.SetDefault("log.level", "info")
}

// bindEnv wires keys without defaults, plus the variable names the tools used before
// the SHAKES_ prefix existed.
func bindEnv(v *viper.Viper) error {
	binds := map[string][]string{
		"vision.api_key":    {"SHAKES_VISION_API_KEY"},
		"vision.base_url":   {"SHAKES_VISION_BASE_URL"},
		"vision.model":      {"SHAKES_VISION_MODEL"},
		"generate.api_key":  {"SHAKES_GENERATE_API_KEY"},
		"generate.base_url": {"SHAKES_GENERATE_BASE_URL"},
		"generate.model":    {"SHAKES_GENERATE_MODEL"},
		"generate.seed":     {"SHAKES_GENERATE_SEED"},
		"db.dsn":            {"SHAKES_DB_DSN", "DB_DSN"},
		"server.jwt_secret": {"SHAKES_SERVER_JWT_SECRET", "JWT_SECRET"},
	}
	for key, envs := range binds {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Menu.Path) == "" {
		return fmt.Errorf("menu path is required (set SHAKES_MENU_PATH)")
	}
	if cfg.Matcher.Threshold < 0 {
		return fmt.Errorf("matcher threshold must be >= 0, got %d", cfg.Matcher.Threshold)
	}
	switch strings.ToLower(cfg.Vision.Provider) {
	case "", "none", "off", "gemini", "google", "openai":
	default:
		return fmt.Errorf("vision provider must be gemini, openai or none, got: %s", cfg.Vision.Provider)
	}
	switch strings.ToLower(cfg.Generate.Provider) {
	case "gemini", "google", "openai", "local", "z-image", "zimage":
	default:
		return fmt.Errorf("generate provider must be gemini, openai or local, got: %s", cfg.Generate.Provider)
	}
	switch strings.ToLower(cfg.Compress.Format) {
	case "jpeg", "jpg", "png":
	default:
		return fmt.Errorf("compress format must be jpeg or png, got: %s", cfg.Compress.Format)
	}
	if cfg.Compress.Quality < 1 || cfg.Compress.Quality > 100 {
		return fmt.Errorf("compress quality must be 1-100, got %d", cfg.Compress.Quality)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got: %s", cfg.Log.Level)
	}
	return nil
}

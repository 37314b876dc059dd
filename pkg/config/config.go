// Package config reads process configuration from the environment and an
// optional YAML batch file.
package config

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned when no Gemini API key is configured.
var ErrMissingCredentials = errors.New("GEMINI_API_KEY or GOOGLE_API_KEY must be set")

const (
	DefaultOutputDir    = "vlogs"
	DefaultPollInterval = 10 * time.Second
	DefaultMaxPolls     = 90
	DefaultPort         = "8080"
)

type Config struct {
	GeminiAPIKey string
	OpenAIAPIKey string
	XAIAPIKey    string

	// ScriptProvider selects the script inferencer: gemini, openai or grok.
	ScriptProvider string
	ScriptModel    string

	OutputDir    string
	PollInterval time.Duration
	MaxPolls     int
	Port         string
	LogLevel     log.Level
}

// FromEnv reads the configuration. Malformed numeric values are reported
// rather than silently replaced.
func FromEnv() (*Config, error) {
	c := &Config{
		GeminiAPIKey:   cmp.Or(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		XAIAPIKey:      os.Getenv("XAI_API_KEY"),
		ScriptProvider: strings.ToLower(cmp.Or(os.Getenv("SCRIPT_PROVIDER"), "gemini")),
		ScriptModel:    os.Getenv("SCRIPT_MODEL"),
		OutputDir:      cmp.Or(os.Getenv("OUTPUT_DIR"), DefaultOutputDir),
		PollInterval:   DefaultPollInterval,
		MaxPolls:       DefaultMaxPolls,
		Port:           cmp.Or(os.Getenv("PORT"), DefaultPort),
		LogLevel:       log.InfoLevel,
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q", v)
		}
		c.PollInterval = d
	}
	if v := os.Getenv("MAX_POLLS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_POLLS %q", v)
		}
		c.MaxPolls = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		lvl, err := log.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
		c.LogLevel = lvl
	}

	switch c.ScriptProvider {
	case "gemini", "openai", "grok":
	default:
		return nil, fmt.Errorf("unknown SCRIPT_PROVIDER %q", c.ScriptProvider)
	}
	return c, nil
}

// Validate checks that the credentials needed by the selected providers exist.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return ErrMissingCredentials
	}
	switch c.ScriptProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for the openai script provider", ErrMissingCredentials)
		}
	case "grok":
		if c.XAIAPIKey == "" {
			return fmt.Errorf("%w: XAI_API_KEY is required for the grok script provider", ErrMissingCredentials)
		}
	}
	return nil
}

// NewGenAIClient builds the genai client shared by every stage of the process.
func (c *Config) NewGenAIClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.GeminiAPIKey, Backend: genai.BackendGeminiAPI})
}

// Apply sets the global log level.
func (c *Config) Apply() {
	log.SetLevel(c.LogLevel)
}

// Idea is one entry of a batch file.
type Idea struct {
	Idea        string `yaml:"idea"`
	Scenes      int    `yaml:"scenes,omitempty"`
	Character   string `yaml:"character,omitempty"`
	Traits      string `yaml:"traits,omitempty"`
	VideoType   string `yaml:"video_type,omitempty"`
	Style       string `yaml:"style,omitempty"`
	Camera      string `yaml:"camera,omitempty"`
	AspectRatio string `yaml:"aspect_ratio,omitempty"`
}

// Batch is the YAML batch file. Top level fields are defaults for every idea.
type Batch struct {
	OutputDir string `yaml:"output_dir,omitempty"`
	Defaults  Idea   `yaml:"defaults,omitempty"`
	Ideas     []Idea `yaml:"ideas"`
}

// LoadBatch reads a YAML batch file. Each idea inherits unset fields from Defaults.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return ParseBatch(data)
}

func ParseBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	if len(b.Ideas) == 0 {
		return nil, errors.New("batch file contains no ideas")
	}
	for i := range b.Ideas {
		idea := &b.Ideas[i]
		if strings.TrimSpace(idea.Idea) == "" {
			return nil, fmt.Errorf("ideas[%d]: idea is required", i)
		}
		idea.Scenes = cmp.Or(idea.Scenes, b.Defaults.Scenes)
		idea.Character = cmp.Or(idea.Character, b.Defaults.Character)
		idea.Traits = cmp.Or(idea.Traits, b.Defaults.Traits)
		idea.VideoType = cmp.Or(idea.VideoType, b.Defaults.VideoType)
		idea.Style = cmp.Or(idea.Style, b.Defaults.Style)
		idea.Camera = cmp.Or(idea.Camera, b.Defaults.Camera)
		idea.AspectRatio = cmp.Or(idea.AspectRatio, b.Defaults.AspectRatio)
	}
	return &b, nil
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/dgallion1/docscope/internal/embed"
	"github.com/dgallion1/docscope/internal/store"
)

type Config struct {
	Port     string `mapstructure:"port" yaml:"port"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Pathstore  PathstoreConfig  `mapstructure:"pathstore" yaml:"pathstore"`
	Mongo      MongoConfig      `mapstructure:"mongo" yaml:"mongo"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings" yaml:"embeddings"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Query      QueryConfig      `mapstructure:"query" yaml:"query"`

	// Worker pool
	Workers      int `mapstructure:"workers" yaml:"workers"`
	MaxQueueSize int `mapstructure:"max_queue_size" yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `mapstructure:"job_ttl" yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `mapstructure:"pdf_fallback_pdftotext" yaml:"pdf_fallback_pdftotext"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

type PathstoreConfig struct {
	URL    string `mapstructure:"url" yaml:"url"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri" yaml:"uri"`
	Database string `mapstructure:"database" yaml:"database"`
}

type EmbeddingsConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	Dim       int    `mapstructure:"dim" yaml:"dim"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

type ClassifierConfig struct {
	Provider         string  `mapstructure:"provider" yaml:"provider"`
	Threshold        float64 `mapstructure:"threshold" yaml:"threshold"`
	AnthropicAPIKey  string  `mapstructure:"anthropic_api_key" yaml:"anthropic_api_key"`
	AnthropicModel   string  `mapstructure:"anthropic_model" yaml:"anthropic_model"`
	AnthropicBaseURL string  `mapstructure:"anthropic_base_url" yaml:"anthropic_base_url"`
}

type QueryConfig struct {
	TopK             int           `mapstructure:"top_k" yaml:"top_k"`
	SummarySentences int           `mapstructure:"summary_sentences" yaml:"summary_sentences"`
	MinDocuments     int           `mapstructure:"min_documents" yaml:"min_documents"`
	MaxDocuments     int           `mapstructure:"max_documents" yaml:"max_documents"`
	Concurrency      int           `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:     "8090",
		LogLevel: "info",
		Store:    StoreConfig{Backend: "file", Dir: "./data"},
		Pathstore: PathstoreConfig{
			URL: "http://localhost:8080",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "docscope",
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "hashing",
			Model:     "text-embedding-3-small",
			Dim:       embed.DefaultDim,
			MaxTokens: 512,
		},
		Classifier: ClassifierConfig{
			Provider:         "lexical",
			Threshold:        0.8,
			AnthropicModel:   "claude-sonnet-4-5-20250929",
			AnthropicBaseURL: "https://api.anthropic.com",
		},
		Query: QueryConfig{
			TopK:             5,
			SummarySentences: 2,
			MinDocuments:     3,
			MaxDocuments:     10,
			Concurrency:      4,
			Timeout:          60 * time.Second,
		},
		Workers:              4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("pathstore.url", d.Pathstore.URL)
	v.SetDefault("pathstore.api_key", d.Pathstore.APIKey)
	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("embeddings.provider", d.Embeddings.Provider)
	v.SetDefault("embeddings.model", d.Embeddings.Model)
	v.SetDefault("embeddings.api_key", d.Embeddings.APIKey)
	v.SetDefault("embeddings.base_url", d.Embeddings.BaseURL)
	v.SetDefault("embeddings.dim", d.Embeddings.Dim)
	v.SetDefault("embeddings.max_tokens", d.Embeddings.MaxTokens)
	v.SetDefault("classifier.provider", d.Classifier.Provider)
	v.SetDefault("classifier.threshold", d.Classifier.Threshold)
	v.SetDefault("classifier.anthropic_api_key", d.Classifier.AnthropicAPIKey)
	v.SetDefault("classifier.anthropic_model", d.Classifier.AnthropicModel)
	v.SetDefault("classifier.anthropic_base_url", d.Classifier.AnthropicBaseURL)
	v.SetDefault("query.top_k", d.Query.TopK)
	v.SetDefault("query.summary_sentences", d.Query.SummarySentences)
	v.SetDefault("query.min_documents", d.Query.MinDocuments)
	v.SetDefault("query.max_documents", d.Query.MaxDocuments)
	v.SetDefault("query.concurrency", d.Query.Concurrency)
	v.SetDefault("query.timeout", d.Query.Timeout)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("max_queue_size", d.MaxQueueSize)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("job_ttl", d.JobTTL)
	v.SetDefault("pdf_fallback_pdftotext", d.PDFFallbackPdftotext)
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	d := Default()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.Embeddings.Dim <= 0 {
		c.Embeddings.Dim = d.Embeddings.Dim
	}
	if c.Embeddings.MaxTokens <= 0 {
		c.Embeddings.MaxTokens = d.Embeddings.MaxTokens
	}
	if c.Classifier.Threshold <= 0 || c.Classifier.Threshold >= 1 {
		c.Classifier.Threshold = d.Classifier.Threshold
	}
	if c.Query.TopK <= 0 {
		c.Query.TopK = d.Query.TopK
	}
	if c.Query.SummarySentences <= 0 {
		c.Query.SummarySentences = d.Query.SummarySentences
	}
	if c.Query.MinDocuments <= 0 {
		c.Query.MinDocuments = d.Query.MinDocuments
	}
	if c.Query.MaxDocuments <= 0 {
		c.Query.MaxDocuments = d.Query.MaxDocuments
	}
	if c.Query.Concurrency <= 0 {
		c.Query.Concurrency = d.Query.Concurrency
	}
	if c.Query.Timeout <= 0 {
		c.Query.Timeout = d.Query.Timeout
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Embeddings.Provider = strings.ToLower(strings.TrimSpace(c.Embeddings.Provider))
	c.Classifier.Provider = strings.ToLower(strings.TrimSpace(c.Classifier.Provider))
}

// Validate checks the settings every entry point needs.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "", "file", "memory", "pathstore", "mongo":
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.Embeddings.Provider {
	case "", "hashing":
	case "openai":
		if c.Embeddings.APIKey == "" && c.Embeddings.BaseURL == "" {
			return errors.New("embeddings.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown embeddings.provider %q", c.Embeddings.Provider)
	}
	switch c.Classifier.Provider {
	case "", "lexical", "none":
	case "anthropic":
		if c.Classifier.AnthropicAPIKey == "" {
			return errors.New("classifier.anthropic_api_key is required for the anthropic provider")
		}
	default:
		return fmt.Errorf("unknown classifier.provider %q", c.Classifier.Provider)
	}
	if c.Query.MinDocuments > c.Query.MaxDocuments {
		return fmt.Errorf("query.min_documents (%d) exceeds query.max_documents (%d)", c.Query.MinDocuments, c.Query.MaxDocuments)
	}
	return nil
}

// ValidateServer additionally requires the settings the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.APIKey == "" {
		return errors.New("api_key is required")
	}
	return c.Validate()
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// StoreOptions maps the store settings onto store.Options.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:         c.Store.Backend,
		Dir:             c.Store.Dir,
		PathstoreURL:    c.Pathstore.URL,
		PathstoreAPIKey: c.Pathstore.APIKey,
		MongoURI:        c.Mongo.URI,
		MongoDatabase:   c.Mongo.Database,
	}
}

// EncoderConfig maps the embedding settings onto embed.EncoderConfig.
func (c Config) EncoderConfig() embed.EncoderConfig {
	return embed.EncoderConfig{
		Provider: c.Embeddings.Provider,
		Model:    c.Embeddings.Model,
		APIKey:   c.Embeddings.APIKey,
		BaseURL:  c.Embeddings.BaseURL,
		Dim:      c.Embeddings.Dim,
	}
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    Config
	callbacks []func(Config)
}

// NewManager creates a config manager and loads the initial config from
// defaults, the optional YAML file and DOCSCOPE_* environment variables.
func NewManager(cfgFile string) (*Manager, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DOCSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.docscope")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cm := &Manager{v: v}
	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg
	return cm, nil
}

// Load is a shorthand for NewManager(cfgFile).Get().
func Load(cfgFile string) (Config, error) {
	cm, err := NewManager(cfgFile)
	if err != nil {
		return Config{}, err
	}
	return cm.Get(), nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// File returns the config file in use, or "" when running on defaults.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// Watch enables hot-reloading of the config file. It is a no-op when no
// file was loaded. Reloads that fail to parse keep the previous config.
func (cm *Manager) Watch() {
	if cm.File() == "" {
		return
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			slog.Warn("config reload failed", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

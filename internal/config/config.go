package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ProviderConfig selects and configures the augmentation provider.
type ProviderConfig struct {
	Type           string `yaml:"type"`
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
	Audience       string `yaml:"audience"`
	// Dimension is only used by the local provider.
	Dimension int `yaml:"dimension"`
}

// ChunkerConfig holds chunk sizing and fan-out granularity.
type ChunkerConfig struct {
	PageChars   int `yaml:"page_chars"`
	PageWindow  int `yaml:"page_window"`
	CSVRows     int `yaml:"csv_rows"`
	XLSXRows    int `yaml:"xlsx_rows"`
	SampleRows  int `yaml:"sample_rows"`
	GroupSize   int `yaml:"group_size"`
	MaxInFlight int `yaml:"max_in_flight"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Mongo    *MongoConfig    `yaml:"mongo,omitempty"`
	SQLite   *SQLiteConfig   `yaml:"sqlite,omitempty"`
	PGVector *PGVectorConfig `yaml:"pgvector,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Redis    *RedisConfig    `yaml:"redis,omitempty"`
}

// MongoConfig contains connection details for a MongoDB collection.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// SQLiteConfig points at a local database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PGVectorConfig contains connection details for postgres with pgvector.
type PGVectorConfig struct {
	DSN       string `yaml:"dsn"`
	Table     string `yaml:"table"`
	Dimension int    `yaml:"dimension"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RedisConfig contains connection details for redis.
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// ReconcileConfig configures the object store reconciliation loop.
type ReconcileConfig struct {
	Interval string     `yaml:"interval"`
	Source   string     `yaml:"source"`
	S3       *S3Config  `yaml:"s3,omitempty"`
	Dir      *DirConfig `yaml:"dir,omitempty"`
	// Server, when set, uploads missing documents through the HTTP API instead
	// of the in-process service.
	Server string `yaml:"server"`
}

// S3Config identifies the bucket holding source documents.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// DirConfig points at a local directory holding source documents.
type DirConfig struct {
	Path string `yaml:"path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Provider    ProviderConfig    `yaml:"provider"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Reconcile   ReconcileConfig   `yaml:"reconcile"`
}

// ReconcileInterval parses the configured polling interval.
func (c *AppConfig) ReconcileInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Reconcile.Interval)
	if err != nil {
		return 0, fmt.Errorf("config: reconcile interval %q: %w", c.Reconcile.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: reconcile interval must be positive")
	}
	return d, nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// ${VAR} references are expanded from the environment before parsing.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	expanded := os.ExpandEnv(string(data))
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docvec/config.yaml.
// If neither exists, it writes defaults to ~/.config/docvec/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docvec", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		VectorStore: VectorStoreConfig{Type: "memory"},
		Provider:    ProviderConfig{Type: "local"},
		Reconcile:   ReconcileConfig{Source: "dir"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8888"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	applyProviderDefaults(&cfg.Provider)
	applyChunkerDefaults(&cfg.Chunker)
	applyStoreDefaults(&cfg.VectorStore)
	if cfg.Reconcile.Interval == "" {
		cfg.Reconcile.Interval = "10s"
	}
	if cfg.Reconcile.Source == "" {
		cfg.Reconcile.Source = "s3"
	}
}

func applyProviderDefaults(p *ProviderConfig) {
	if p.Type == "" {
		p.Type = "openai"
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://api.openai.com/v1"
	}
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = "OPENAI_API_KEY"
	}
	if p.ChatModel == "" {
		p.ChatModel = "gpt-4o-mini"
	}
	if p.EmbeddingModel == "" {
		p.EmbeddingModel = "text-embedding-ada-002"
	}
	if p.TimeoutSecs == 0 {
		p.TimeoutSecs = 60
	}
	if p.Audience == "" {
		p.Audience = "Food Safety and Quality Professional"
	}
	if p.Dimension == 0 {
		p.Dimension = 256
	}
}

func applyChunkerDefaults(c *ChunkerConfig) {
	if c.PageChars <= 0 {
		c.PageChars = 5000
	}
	// A negative window disables neighbouring pages.
	if c.PageWindow == 0 {
		c.PageWindow = 2
	}
	if c.PageWindow < 0 {
		c.PageWindow = 0
	}
	if c.CSVRows <= 0 {
		c.CSVRows = 25
	}
	if c.XLSXRows <= 0 {
		c.XLSXRows = 10
	}
	if c.SampleRows <= 0 {
		c.SampleRows = 5
	}
	if c.GroupSize <= 0 {
		c.GroupSize = 5
	}
	if c.MaxInFlight < 0 {
		c.MaxInFlight = 0
	}
}

func applyStoreDefaults(v *VectorStoreConfig) {
	if v.Type == "" {
		v.Type = "memory"
	}
	switch v.Type {
	case "mongo":
		if v.Mongo == nil {
			v.Mongo = &MongoConfig{}
		}
		if v.Mongo.URI == "" {
			v.Mongo.URI = "mongodb://localhost:27017"
		}
		if v.Mongo.Database == "" {
			v.Mongo.Database = "docvec"
		}
		if v.Mongo.Collection == "" {
			v.Mongo.Collection = "vector_store"
		}
	case "sqlite":
		if v.SQLite == nil {
			v.SQLite = &SQLiteConfig{}
		}
		if v.SQLite.Path == "" {
			v.SQLite.Path = "docvec.db"
		}
	case "pgvector":
		if v.PGVector == nil {
			v.PGVector = &PGVectorConfig{}
		}
		if v.PGVector.Table == "" {
			v.PGVector.Table = "vector_records"
		}
		if v.PGVector.Dimension == 0 {
			v.PGVector.Dimension = 1536
		}
	case "qdrant":
		if v.Qdrant == nil {
			v.Qdrant = &QdrantConfig{}
		}
		if v.Qdrant.URL == "" {
			v.Qdrant.URL = "http://localhost:6333"
		}
		if v.Qdrant.Collection == "" {
			v.Qdrant.Collection = "vector_records"
		}
		if v.Qdrant.Dimension == 0 {
			v.Qdrant.Dimension = 1536
		}
		if v.Qdrant.TimeoutSecs == 0 {
			v.Qdrant.TimeoutSecs = 15
		}
	case "redis":
		if v.Redis == nil {
			v.Redis = &RedisConfig{}
		}
		if v.Redis.URL == "" {
			v.Redis.URL = "redis://localhost:6379/0"
		}
		if v.Redis.Prefix == "" {
			v.Redis.Prefix = "docvec"
		}
	}
}

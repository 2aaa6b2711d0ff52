package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"oraculo-educacao/internal/models"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	BackendMemory   = "memory"
	BackendPgvector = "pgvector"

	envPrefix = "ORACULO_"
)

// DotEnvFile is read before the environment is consulted. A missing file is ignored.
var DotEnvFile = ".env"

type Config struct {
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	EmbedLLM  LLMConfig       `yaml:"embed_llm"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
	Index     IndexConfig     `yaml:"index"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type KnowledgeConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
	NoHeader  bool   `yaml:"no_header"`
	Sheet     string `yaml:"sheet"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Key         string        `yaml:"key"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	KeepAlive   string        `yaml:"keep_alive"`
	NumCtx      int           `yaml:"num_ctx"`
}

type RAGConfig struct {
	TopK       int    `yaml:"top_k"`
	PromptFile string `yaml:"prompt_file"`
}

type IndexConfig struct {
	Backend       string `yaml:"backend"`
	Collection    string `yaml:"collection"`
	SnapshotPath  string `yaml:"snapshot_path"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the settings used when neither the file nor the environment
// provides a value. Endpoints and model ids have no defaults.
func Default() *Config {
	return &Config{
		Knowledge: KnowledgeConfig{Path: "knowledge_base.csv", Delimiter: ","},
		EmbedLLM:  LLMConfig{Provider: ProviderOllama},
		LLM:       LLMConfig{Provider: ProviderOllama, Timeout: 5 * time.Minute},
		RAG:       RAGConfig{TopK: models.DefaultTopK},
		Index:     IndexConfig{Backend: BackendMemory, Collection: "knowledge_base"},
		Server:    ServerConfig{Addr: ":8501", SessionTTL: 2 * time.Hour},
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

// LoadConfig reads the YAML file at path (skipped when path is empty), then
// applies .env and ORACULO_* environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &models.ConfigurationError{Key: "config", Msg: "cannot read " + path, Err: err}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &models.ConfigurationError{Key: "config", Msg: "cannot parse " + path, Err: err}
		}
	}

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &models.ConfigurationError{Key: "dotenv", Msg: "cannot load " + DotEnvFile, Err: err}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"KNOWLEDGE_PATH":    &c.Knowledge.Path,
		"EMBED_PROVIDER":    &c.EmbedLLM.Provider,
		"EMBED_BASE_URL":    &c.EmbedLLM.BaseURL,
		"EMBED_MODEL":       &c.EmbedLLM.Model,
		"EMBED_API_KEY":     &c.EmbedLLM.Key,
		"LLM_PROVIDER":      &c.LLM.Provider,
		"LLM_BASE_URL":      &c.LLM.BaseURL,
		"LLM_MODEL":         &c.LLM.Model,
		"LLM_API_KEY":       &c.LLM.Key,
		"INDEX_BACKEND":     &c.Index.Backend,
		"INDEX_SNAPSHOT":    &c.Index.SnapshotPath,
		"INDEX_KEY":         &c.Index.EncryptionKey,
		"DATABASE_DSN":      &c.Database.DSN,
		"DATABASE_PASSWORD": &c.Database.Password,
		"SERVER_ADDR":       &c.Server.Addr,
		"LOG_LEVEL":         &c.Log.Level,
		"LOG_FORMAT":        &c.Log.Format,
		"LOG_FILE":          &c.Log.File,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "TOP_K"); ok {
		k, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &models.ConfigurationError{Key: envPrefix + "TOP_K", Msg: "must be an integer", Err: err}
		}
		c.RAG.TopK = k
	}
	if v, ok := os.LookupEnv(envPrefix + "LLM_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return &models.ConfigurationError{Key: envPrefix + "LLM_TIMEOUT", Msg: "must be a duration", Err: err}
		}
		c.LLM.Timeout = d
	}
	return nil
}

// Validate fails on the first missing or inconsistent setting.
func (c *Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"knowledge.path", c.Knowledge.Path},
		{"embed_llm.base_url", c.EmbedLLM.BaseURL},
		{"embed_llm.model", c.EmbedLLM.Model},
		{"llm.base_url", c.LLM.BaseURL},
		{"llm.model", c.LLM.Model},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &models.ConfigurationError{Key: r.key, Msg: "is required"}
		}
	}

	if err := c.EmbedLLM.validate("embed_llm"); err != nil {
		return err
	}
	if err := c.LLM.validate("llm"); err != nil {
		return err
	}

	if len([]rune(c.Knowledge.Delimiter)) > 1 {
		return &models.ConfigurationError{Key: "knowledge.delimiter", Msg: "must be a single character"}
	}
	if c.RAG.TopK < 1 {
		return &models.ConfigurationError{Key: "rag.top_k", Msg: "must be at least 1"}
	}

	switch c.Index.Backend {
	case BackendMemory:
		if c.Index.EncryptionKey != "" && len(c.Index.EncryptionKey) != 32 {
			return &models.ConfigurationError{Key: "index.encryption_key", Msg: "must be 32 bytes long"}
		}
	case BackendPgvector:
		if c.Database.DSN == "" {
			return &models.ConfigurationError{Key: "database.dsn", Msg: "is required for the pgvector backend"}
		}
	default:
		return &models.ConfigurationError{Key: "index.backend", Msg: "unknown backend " + strconv.Quote(c.Index.Backend)}
	}
	if c.Index.Collection == "" {
		return &models.ConfigurationError{Key: "index.collection", Msg: "is required"}
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return &models.ConfigurationError{Key: "log.level", Msg: "unknown level " + strconv.Quote(c.Log.Level)}
	}
	return nil
}

func (l LLMConfig) validate(prefix string) error {
	switch l.Provider {
	case ProviderOllama:
	case ProviderOpenAI:
		if l.Key == "" {
			return &models.ConfigurationError{Key: prefix + ".key", Msg: "is required for the openai provider"}
		}
	default:
		return &models.ConfigurationError{Key: prefix + ".provider", Msg: "unknown provider " + strconv.Quote(l.Provider)}
	}
	if l.Timeout < 0 {
		return &models.ConfigurationError{Key: prefix + ".timeout", Msg: "must not be negative"}
	}
	return nil
}


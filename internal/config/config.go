package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Corpus     CorpusConfig     `yaml:"corpus" mapstructure:"corpus"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Interview  InterviewConfig  `yaml:"interview" mapstructure:"interview"`
	Session    SessionConfig    `yaml:"session" mapstructure:"session"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CorpusConfig configures the reference-document source and chunking policy.
type CorpusConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	DocumentName string `yaml:"document_name" mapstructure:"document_name"`
	ChunkSize    int    `yaml:"chunk_size" mapstructure:"chunk_size"`
	Overlap      int    `yaml:"overlap" mapstructure:"overlap"`
}

// CacheConfig configures the embedding cache backend.
type CacheConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// JinaConfig holds Jina AI embeddings API settings.
type JinaConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Model     string  `yaml:"model" mapstructure:"model"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// InterviewConfig configures the adaptive interview loop.
type InterviewConfig struct {
	MinQuestions        int     `yaml:"min_questions" mapstructure:"min_questions"`
	MaxQuestions        int     `yaml:"max_questions" mapstructure:"max_questions"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	DuplicateThreshold  float64 `yaml:"duplicate_threshold" mapstructure:"duplicate_threshold"`
	QuestionRetrievalK  int     `yaml:"question_retrieval_k" mapstructure:"question_retrieval_k"`
	ReportRetrievalK    int     `yaml:"report_retrieval_k" mapstructure:"report_retrieval_k"`
}

// SessionConfig configures the HTTP session store.
type SessionConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ResilienceConfig tunes retries and the completion circuit breaker.
type ResilienceConfig struct {
	RetryMaxAttempts        int     `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryInitialBackoffMs   int     `yaml:"retry_initial_backoff_ms" mapstructure:"retry_initial_backoff_ms"`
	RetryMaxBackoffMs       int     `yaml:"retry_max_backoff_ms" mapstructure:"retry_max_backoff_ms"`
	RetryMultiplier         float64 `yaml:"retry_multiplier" mapstructure:"retry_multiplier"`
	RetryJitterFraction     float64 `yaml:"retry_jitter_fraction" mapstructure:"retry_jitter_fraction"`
	CircuitFailureThreshold int     `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetTimeoutSecs int     `yaml:"circuit_reset_timeout_secs" mapstructure:"circuit_reset_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AIACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("corpus.path", "ai_act.txt")
	v.SetDefault("corpus.document_name", "EU_AI_Act")
	v.SetDefault("corpus.chunk_size", 800)
	v.SetDefault("corpus.overlap", 150)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.dsn", "aiact_embeddings.db")
	v.SetDefault("jina.base_url", "https://api.jina.ai")
	v.SetDefault("jina.model", "jina-embeddings-v3")
	v.SetDefault("jina.rate_limit", 3)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.timeout_secs", 120)
	v.SetDefault("interview.min_questions", 3)
	v.SetDefault("interview.max_questions", 15)
	v.SetDefault("interview.confidence_threshold", 0.75)
	v.SetDefault("interview.duplicate_threshold", 0.75)
	v.SetDefault("interview.question_retrieval_k", 5)
	v.SetDefault("interview.report_retrieval_k", 15)
	v.SetDefault("session.capacity", 128)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("resilience.retry_max_attempts", 3)
	v.SetDefault("resilience.retry_initial_backoff_ms", 500)
	v.SetDefault("resilience.retry_max_backoff_ms", 30000)
	v.SetDefault("resilience.retry_multiplier", 2.0)
	v.SetDefault("resilience.retry_jitter_fraction", 0.25)
	v.SetDefault("resilience.circuit_failure_threshold", 5)
	v.SetDefault("resilience.circuit_reset_timeout_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Queue       QueueConfig       `toml:"queue"`
	Storage     StorageConfig     `toml:"storage"`
	Upload      UploadConfig      `toml:"upload"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Embeddings  EmbeddingsConfig  `toml:"embeddings"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Evidence    EvidenceConfig    `toml:"evidence"`
	Tasks       TasksConfig       `toml:"tasks"`
	Logging     LoggingConfig     `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"`      // e.g., "1s" - how often workers poll for messages
	Concurrency       int    `toml:"concurrency" validate:"gt=0"`
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g., "60m" - message visibility timeout for redelivery
	SoftTimeout       string `toml:"soft_timeout"`       // Executor deadline, must be shorter than visibility timeout
	MaxReceive        int    `toml:"max_receive" validate:"gt=0"`
	QueueName         string `toml:"queue_name"` // Queue name prefix in Badger
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Documents string `toml:"documents" validate:"required"` // Root of the per-topic blob directories
	Staging   string `toml:"staging" validate:"required"`   // Holding area for uploads awaiting processing
}

// UploadConfig bounds what the upload endpoint accepts.
type UploadConfig struct {
	MaxFileSize  int64    `toml:"max_file_size" validate:"gt=0"` // Bytes
	AllowedTypes []string `toml:"allowed_types"`                 // Accepted MIME types
}

// ChunkingConfig controls how extracted text is split into citable pieces.
type ChunkingConfig struct {
	MaxChars int    `toml:"max_chars" validate:"gt=0"` // Upper bound per chunk
	SplitTag string `toml:"split_tag"`                 // Line separator, default "\n"
}

// EmbeddingsConfig selects and tunes the embedding provider.
type EmbeddingsConfig struct {
	Provider  string `toml:"provider" validate:"oneof=gemini openai"` // "gemini" or "openai"
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension" validate:"gt=0"` // Output dimensionality, fixed per deployment
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`   // OpenAI-compatible endpoint (openai provider only)
	RateLimit string `toml:"rate_limit"` // Minimum interval between provider calls, e.g. "200ms"
	Timeout   string `toml:"timeout"`    // Per-call timeout as duration string
}

// VectorStoreConfig selects the vector backend. The set is closed: the
// factory switches on Provider, no capability probing at runtime.
type VectorStoreConfig struct {
	Provider     string       `toml:"provider" validate:"oneof=badger qdrant"`
	IVFThreshold int          `toml:"ivf_threshold"` // Row count at which the embedded store builds its bucket index
	Qdrant       QdrantConfig `toml:"qdrant"`
}

// QdrantConfig holds connection details for a remote Qdrant instance.
type QdrantConfig struct {
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// EvidenceConfig tunes search and claim verification.
type EvidenceConfig struct {
	DefaultLimit    int     `toml:"default_limit" validate:"gt=0"` // Results returned when the request omits a limit
	VerifyThreshold float64 `toml:"verify_threshold"`              // Score cutoff separating supporting from refuting
}

// TasksConfig controls task execution record retention.
type TasksConfig struct {
	RetentionDays   int    `toml:"retention_days" validate:"gt=0"`
	CleanupSchedule string `toml:"cleanup_schedule"` // Cron schedule for the retention sweep
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in citatum.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       2, // Ingestion is embedding-bound, not CPU-bound
			VisibilityTimeout: "60m",
			SoftTimeout:       "55m", // Leaves room to record failure before redelivery
			MaxReceive:        3,
			QueueName:         "citatum_tasks",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Filesystem: FilesystemConfig{
				Documents: "./data/documents",
				Staging:   "./data/staging",
			},
		},
		Upload: UploadConfig{
			MaxFileSize: 50 * 1024 * 1024, // 50MB
			AllowedTypes: []string{
				"application/pdf",
				"text/plain",
			},
		},
		Chunking: ChunkingConfig{
			MaxChars: 1500,
			SplitTag: "\n",
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "gemini",
			Model:     "gemini-embedding-001",
			Dimension: 768,
			RateLimit: "200ms",
			Timeout:   "2m",
		},
		VectorStore: VectorStoreConfig{
			Provider:     "badger",
			IVFThreshold: 10000,
			Qdrant: QdrantConfig{
				URL:     "http://localhost:6333",
				Timeout: "30s",
			},
		},
		Evidence: EvidenceConfig{
			DefaultLimit:    10,
			VerifyThreshold: 0.5,
		},
		Tasks: TasksConfig{
			RetentionDays:   7,
			CleanupSchedule: "0 * * * *", // Hourly
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI flags.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: CITATUM_ENV, fallback: GO_ENV)
	if env := os.Getenv("CITATUM_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("CITATUM_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CITATUM_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Queue configuration
	if pollInterval := os.Getenv("CITATUM_QUEUE_POLL_INTERVAL"); pollInterval != "" {
		config.Queue.PollInterval = pollInterval
	}
	if concurrency := os.Getenv("CITATUM_QUEUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = c
		}
	}
	if visibilityTimeout := os.Getenv("CITATUM_QUEUE_VISIBILITY_TIMEOUT"); visibilityTimeout != "" {
		config.Queue.VisibilityTimeout = visibilityTimeout
	}
	if softTimeout := os.Getenv("CITATUM_QUEUE_SOFT_TIMEOUT"); softTimeout != "" {
		config.Queue.SoftTimeout = softTimeout
	}
	if maxReceive := os.Getenv("CITATUM_QUEUE_MAX_RECEIVE"); maxReceive != "" {
		if mr, err := strconv.Atoi(maxReceive); err == nil {
			config.Queue.MaxReceive = mr
		}
	}
	if queueName := os.Getenv("CITATUM_QUEUE_NAME"); queueName != "" {
		config.Queue.QueueName = queueName
	}

	// Storage configuration
	if badgerPath := os.Getenv("CITATUM_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if documentsDir := os.Getenv("CITATUM_DOCUMENTS_DIR"); documentsDir != "" {
		config.Storage.Filesystem.Documents = documentsDir
	}
	if stagingDir := os.Getenv("CITATUM_STAGING_DIR"); stagingDir != "" {
		config.Storage.Filesystem.Staging = stagingDir
	}

	// Upload configuration
	if maxFileSize := os.Getenv("CITATUM_UPLOAD_MAX_FILE_SIZE"); maxFileSize != "" {
		if mfs, err := strconv.ParseInt(maxFileSize, 10, 64); err == nil {
			config.Upload.MaxFileSize = mfs
		}
	}
	if allowedTypes := os.Getenv("CITATUM_UPLOAD_ALLOWED_TYPES"); allowedTypes != "" {
		types := []string{}
		for _, t := range strings.Split(allowedTypes, ",") {
			trimmed := strings.TrimSpace(t)
			if trimmed != "" {
				types = append(types, trimmed)
			}
		}
		if len(types) > 0 {
			config.Upload.AllowedTypes = types
		}
	}

	// Chunking configuration
	if maxChars := os.Getenv("CITATUM_CHUNKING_MAX_CHARS"); maxChars != "" {
		if mc, err := strconv.Atoi(maxChars); err == nil {
			config.Chunking.MaxChars = mc
		}
	}
	if splitTag := os.Getenv("CITATUM_CHUNKING_SPLIT_TAG"); splitTag != "" {
		config.Chunking.SplitTag = splitTag
	}

	// Embeddings configuration
	if provider := os.Getenv("CITATUM_EMBEDDINGS_PROVIDER"); provider != "" {
		config.Embeddings.Provider = provider
	}
	if model := os.Getenv("CITATUM_EMBEDDINGS_MODEL"); model != "" {
		config.Embeddings.Model = model
	}
	if dimension := os.Getenv("CITATUM_EMBEDDINGS_DIMENSION"); dimension != "" {
		if d, err := strconv.Atoi(dimension); err == nil {
			config.Embeddings.Dimension = d
		}
	}
	if apiKey := os.Getenv("CITATUM_EMBEDDINGS_API_KEY"); apiKey != "" {
		config.Embeddings.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Embeddings.APIKey = apiKey
	}
	if baseURL := os.Getenv("CITATUM_EMBEDDINGS_BASE_URL"); baseURL != "" {
		config.Embeddings.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("CITATUM_EMBEDDINGS_RATE_LIMIT"); rateLimit != "" {
		config.Embeddings.RateLimit = rateLimit
	}
	if timeout := os.Getenv("CITATUM_EMBEDDINGS_TIMEOUT"); timeout != "" {
		config.Embeddings.Timeout = timeout
	}

	// Vector store configuration
	if provider := os.Getenv("CITATUM_VECTOR_STORE_PROVIDER"); provider != "" {
		config.VectorStore.Provider = provider
	}
	if threshold := os.Getenv("CITATUM_VECTOR_STORE_IVF_THRESHOLD"); threshold != "" {
		if t, err := strconv.Atoi(threshold); err == nil {
			config.VectorStore.IVFThreshold = t
		}
	}
	if url := os.Getenv("CITATUM_QDRANT_URL"); url != "" {
		config.VectorStore.Qdrant.URL = url
	}
	if apiKey := os.Getenv("CITATUM_QDRANT_API_KEY"); apiKey != "" {
		config.VectorStore.Qdrant.APIKey = apiKey
	}

	// Evidence configuration
	if limit := os.Getenv("CITATUM_EVIDENCE_DEFAULT_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Evidence.DefaultLimit = l
		}
	}
	if threshold := os.Getenv("CITATUM_EVIDENCE_VERIFY_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Evidence.VerifyThreshold = t
		}
	}

	// Tasks configuration
	if retention := os.Getenv("CITATUM_TASKS_RETENTION_DAYS"); retention != "" {
		if r, err := strconv.Atoi(retention); err == nil {
			config.Tasks.RetentionDays = r
		}
	}
	if schedule := os.Getenv("CITATUM_TASKS_CLEANUP_SCHEDULE"); schedule != "" {
		config.Tasks.CleanupSchedule = schedule
	}

	// Logging configuration
	if level := os.Getenv("CITATUM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("CITATUM_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("CITATUM_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks structural constraints and the duration strings that
// validator tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"queue.poll_interval":      c.Queue.PollInterval,
		"queue.visibility_timeout": c.Queue.VisibilityTimeout,
		"queue.soft_timeout":       c.Queue.SoftTimeout,
		"embeddings.rate_limit":    c.Embeddings.RateLimit,
		"embeddings.timeout":       c.Embeddings.Timeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s %q: %w", name, value, err)
		}
	}

	soft := c.SoftTimeout()
	hard := c.VisibilityTimeout()
	if soft >= hard {
		return fmt.Errorf("invalid configuration: queue.soft_timeout %s must be shorter than queue.visibility_timeout %s", soft, hard)
	}

	return nil
}

// VisibilityTimeout parses the configured visibility timeout, falling back
// to one hour on a bad value.
func (c *Config) VisibilityTimeout() time.Duration {
	d, err := time.ParseDuration(c.Queue.VisibilityTimeout)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// PollInterval parses the worker poll interval, falling back to one second.
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Queue.PollInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// SoftTimeout parses the executor deadline, falling back to 55 minutes.
func (c *Config) SoftTimeout() time.Duration {
	d, err := time.ParseDuration(c.Queue.SoftTimeout)
	if err != nil || d <= 0 {
		return 55 * time.Minute
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

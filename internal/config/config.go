package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig
	DB           DBConfig
	S3           S3Config
	Log          LogConfig
	CORS         CORSConfig
	Queue        QueueConfig
	OCR          OCRConfig
	Pipeline     PipelineConfig
	Artifact     ArtifactConfig
	PropertyData PropertyDataConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// QueueConfig holds processing queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// OCRProviderConfig holds settings for a single vision engine provider.
type OCRProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// OCRConfig holds vision engine settings for the primary VLM and the
// secondary fallback engine.
type OCRConfig struct {
	Primary   OCRProviderConfig `mapstructure:"primary"`
	Secondary OCRProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary engine config, or nil if not configured.
func (o *OCRConfig) SecondaryConfig() *OCRProviderConfig {
	if o.Secondary.Provider != "" {
		return &o.Secondary
	}
	return nil
}

// PipelineConfig holds extraction and diagram detection tuning.
type PipelineConfig struct {
	AlgorithmVersion   int     `mapstructure:"algorithm_version"`
	LowTextThreshold   int     `mapstructure:"low_text_threshold"`
	MinDocumentChars   int     `mapstructure:"min_document_chars"`
	RenderZoom         float64 `mapstructure:"render_zoom"`
	MaxDiagramPages    int     `mapstructure:"max_diagram_pages"`
	DiagramMaxRetries  int     `mapstructure:"diagram_max_retries"`
	DiagramBackoffSecs int     `mapstructure:"diagram_backoff_secs"`
	ReuseDiagramHints  bool    `mapstructure:"reuse_diagram_hints"`
}

// ArtifactConfig holds content-addressing settings.
type ArtifactConfig struct {
	// HMACKey keys the content hash so cache keys cannot be forged by a
	// party that only knows the hashing scheme.
	HMACKey string `mapstructure:"hmac_key"`
}

// PropertyProviderConfig holds settings for one valuation API provider.
type PropertyProviderConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	ClientSecret string  `mapstructure:"client_secret"`
	RatePerSec   float64 `mapstructure:"rate_per_sec"`
	TimeoutSecs  int     `mapstructure:"timeout_secs"`
}

// PropertyDataConfig holds Domain and CoreLogic client settings.
type PropertyDataConfig struct {
	Domain       PropertyProviderConfig `mapstructure:"domain"`
	CoreLogic    PropertyProviderConfig `mapstructure:"corelogic"`
	CacheTTLSecs int                    `mapstructure:"cache_ttl_secs"`
}

// Load reads configuration from environment variables with the STRATADOC_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STRATADOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "stratadoc")
	v.SetDefault("db.password", "stratadoc_secret")
	v.SetDefault("db.name", "stratadoc_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "ap-southeast-2")
	v.SetDefault("s3.bucket", "stratadoc-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 2)

	// OCR defaults
	v.SetDefault("ocr.primary.provider", "gemini")
	v.SetDefault("ocr.primary.api_key", "")
	v.SetDefault("ocr.primary.default_model", "gemini-2.0-flash")
	v.SetDefault("ocr.primary.timeout_secs", 120)
	v.SetDefault("ocr.secondary.provider", "")
	v.SetDefault("ocr.secondary.api_key", "")
	v.SetDefault("ocr.secondary.default_model", "gpt-4o-mini")
	v.SetDefault("ocr.secondary.timeout_secs", 120)

	// Pipeline defaults
	v.SetDefault("pipeline.algorithm_version", 1)
	v.SetDefault("pipeline.low_text_threshold", 100)
	v.SetDefault("pipeline.min_document_chars", 100)
	v.SetDefault("pipeline.render_zoom", 2.0)
	v.SetDefault("pipeline.max_diagram_pages", 15)
	v.SetDefault("pipeline.diagram_max_retries", 3)
	v.SetDefault("pipeline.diagram_backoff_secs", 1)
	v.SetDefault("pipeline.reuse_diagram_hints", true)

	// Artifact defaults
	v.SetDefault("artifact.hmac_key", "change-me-in-production")

	// Property data defaults
	v.SetDefault("property_data.domain.base_url", "https://api.domain.com.au")
	v.SetDefault("property_data.domain.api_key", "")
	v.SetDefault("property_data.domain.rate_per_sec", 2)
	v.SetDefault("property_data.domain.timeout_secs", 30)
	v.SetDefault("property_data.corelogic.base_url", "https://api.corelogic.asia")
	v.SetDefault("property_data.corelogic.api_key", "")
	v.SetDefault("property_data.corelogic.client_secret", "")
	v.SetDefault("property_data.corelogic.rate_per_sec", 1)
	v.SetDefault("property_data.corelogic.timeout_secs", 30)
	v.SetDefault("property_data.cache_ttl_secs", 900)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                         "STRATADOC_SERVER_PORT",
		"server.read_timeout":                 "STRATADOC_SERVER_READ_TIMEOUT",
		"server.write_timeout":                "STRATADOC_SERVER_WRITE_TIMEOUT",
		"server.environment":                  "STRATADOC_SERVER_ENVIRONMENT",
		"db.host":                             "STRATADOC_DB_HOST",
		"db.port":                             "STRATADOC_DB_PORT",
		"db.user":                             "STRATADOC_DB_USER",
		"db.password":                         "STRATADOC_DB_PASSWORD",
		"db.name":                             "STRATADOC_DB_NAME",
		"db.sslmode":                          "STRATADOC_DB_SSLMODE",
		"db.max_open":                         "STRATADOC_DB_MAX_OPEN",
		"db.max_idle":                         "STRATADOC_DB_MAX_IDLE",
		"s3.region":                           "STRATADOC_S3_REGION",
		"s3.bucket":                           "STRATADOC_S3_BUCKET",
		"s3.endpoint":                         "STRATADOC_S3_ENDPOINT",
		"s3.access_key":                       "STRATADOC_S3_ACCESS_KEY",
		"s3.secret_key":                       "STRATADOC_S3_SECRET_KEY",
		"s3.max_file_size_mb":                 "STRATADOC_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":                   "STRATADOC_S3_PRESIGN_EXPIRY",
		"log.level":                           "STRATADOC_LOG_LEVEL",
		"log.format":                          "STRATADOC_LOG_FORMAT",
		"cors.allowed_origins":                "STRATADOC_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":            "STRATADOC_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                   "STRATADOC_QUEUE_MAX_RETRIES",
		"queue.concurrency":                   "STRATADOC_QUEUE_CONCURRENCY",
		"ocr.primary.provider":                "STRATADOC_OCR_PRIMARY_PROVIDER",
		"ocr.primary.api_key":                 "STRATADOC_OCR_PRIMARY_API_KEY",
		"ocr.primary.default_model":           "STRATADOC_OCR_PRIMARY_DEFAULT_MODEL",
		"ocr.primary.timeout_secs":            "STRATADOC_OCR_PRIMARY_TIMEOUT_SECS",
		"ocr.secondary.provider":              "STRATADOC_OCR_SECONDARY_PROVIDER",
		"ocr.secondary.api_key":               "STRATADOC_OCR_SECONDARY_API_KEY",
		"ocr.secondary.default_model":         "STRATADOC_OCR_SECONDARY_DEFAULT_MODEL",
		"ocr.secondary.timeout_secs":          "STRATADOC_OCR_SECONDARY_TIMEOUT_SECS",
		"pipeline.algorithm_version":          "STRATADOC_PIPELINE_ALGORITHM_VERSION",
		"pipeline.low_text_threshold":         "STRATADOC_PIPELINE_LOW_TEXT_THRESHOLD",
		"pipeline.min_document_chars":         "STRATADOC_PIPELINE_MIN_DOCUMENT_CHARS",
		"pipeline.render_zoom":                "STRATADOC_PIPELINE_RENDER_ZOOM",
		"pipeline.max_diagram_pages":          "STRATADOC_PIPELINE_MAX_DIAGRAM_PAGES",
		"pipeline.diagram_max_retries":        "STRATADOC_PIPELINE_DIAGRAM_MAX_RETRIES",
		"pipeline.diagram_backoff_secs":       "STRATADOC_PIPELINE_DIAGRAM_BACKOFF_SECS",
		"pipeline.reuse_diagram_hints":        "STRATADOC_PIPELINE_REUSE_DIAGRAM_HINTS",
		"artifact.hmac_key":                   "STRATADOC_ARTIFACT_HMAC_KEY",
		"property_data.domain.base_url":       "STRATADOC_PROPERTY_DATA_DOMAIN_BASE_URL",
		"property_data.domain.api_key":        "STRATADOC_PROPERTY_DATA_DOMAIN_API_KEY",
		"property_data.domain.rate_per_sec":   "STRATADOC_PROPERTY_DATA_DOMAIN_RATE_PER_SEC",
		"property_data.domain.timeout_secs":   "STRATADOC_PROPERTY_DATA_DOMAIN_TIMEOUT_SECS",
		"property_data.corelogic.base_url":    "STRATADOC_PROPERTY_DATA_CORELOGIC_BASE_URL",
		"property_data.corelogic.api_key":     "STRATADOC_PROPERTY_DATA_CORELOGIC_API_KEY",
		"property_data.corelogic.client_secret": "STRATADOC_PROPERTY_DATA_CORELOGIC_CLIENT_SECRET",
		"property_data.corelogic.rate_per_sec":  "STRATADOC_PROPERTY_DATA_CORELOGIC_RATE_PER_SEC",
		"property_data.corelogic.timeout_secs":  "STRATADOC_PROPERTY_DATA_CORELOGIC_TIMEOUT_SECS",
		"property_data.cache_ttl_secs":          "STRATADOC_PROPERTY_DATA_CACHE_TTL_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if STRATADOC_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("STRATADOC_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	cfg.OCR = OCRConfig{
		Primary: OCRProviderConfig{
			Provider:     v.GetString("ocr.primary.provider"),
			APIKey:       v.GetString("ocr.primary.api_key"),
			DefaultModel: v.GetString("ocr.primary.default_model"),
			TimeoutSecs:  v.GetInt("ocr.primary.timeout_secs"),
		},
		Secondary: OCRProviderConfig{
			Provider:     v.GetString("ocr.secondary.provider"),
			APIKey:       v.GetString("ocr.secondary.api_key"),
			DefaultModel: v.GetString("ocr.secondary.default_model"),
			TimeoutSecs:  v.GetInt("ocr.secondary.timeout_secs"),
		},
	}

	cfg.Pipeline = PipelineConfig{
		AlgorithmVersion:   v.GetInt("pipeline.algorithm_version"),
		LowTextThreshold:   v.GetInt("pipeline.low_text_threshold"),
		MinDocumentChars:   v.GetInt("pipeline.min_document_chars"),
		RenderZoom:         v.GetFloat64("pipeline.render_zoom"),
		MaxDiagramPages:    v.GetInt("pipeline.max_diagram_pages"),
		DiagramMaxRetries:  v.GetInt("pipeline.diagram_max_retries"),
		DiagramBackoffSecs: v.GetInt("pipeline.diagram_backoff_secs"),
		ReuseDiagramHints:  v.GetBool("pipeline.reuse_diagram_hints"),
	}

	cfg.Artifact = ArtifactConfig{
		HMACKey: v.GetString("artifact.hmac_key"),
	}

	cfg.PropertyData = PropertyDataConfig{
		Domain: PropertyProviderConfig{
			BaseURL:     v.GetString("property_data.domain.base_url"),
			APIKey:      v.GetString("property_data.domain.api_key"),
			RatePerSec:  v.GetFloat64("property_data.domain.rate_per_sec"),
			TimeoutSecs: v.GetInt("property_data.domain.timeout_secs"),
		},
		CoreLogic: PropertyProviderConfig{
			BaseURL:      v.GetString("property_data.corelogic.base_url"),
			APIKey:       v.GetString("property_data.corelogic.api_key"),
			ClientSecret: v.GetString("property_data.corelogic.client_secret"),
			RatePerSec:   v.GetFloat64("property_data.corelogic.rate_per_sec"),
			TimeoutSecs:  v.GetInt("property_data.corelogic.timeout_secs"),
		},
		CacheTTLSecs: v.GetInt("property_data.cache_ttl_secs"),
	}

	return cfg, nil
}

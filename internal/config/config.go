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
	Server   ServerConfig
	DB       DBConfig
	JWT      JWTConfig
	S3       S3Config
	Log      LogConfig
	Parser   ParserConfig
	Currency CurrencyConfig
	Import   ImportConfig
	CORS     CORSConfig
	Email    EmailConfig
}

// EmailConfig holds import summary email settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ParserProviderConfig holds settings for a single language-understanding provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	BaseURL      string `mapstructure:"base_url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds the ordered provider chain used for vendor extraction.
type ParserConfig struct {
	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
	Tertiary  ParserProviderConfig `mapstructure:"tertiary"`
}

// Providers returns the configured providers in fallback order, skipping empty slots.
func (p *ParserConfig) Providers() []*ParserProviderConfig {
	var out []*ParserProviderConfig
	for _, c := range []*ParserProviderConfig{&p.Primary, &p.Secondary, &p.Tertiary} {
		if c.Provider != "" {
			out = append(out, c)
		}
	}
	return out
}

// CurrencyConfig holds exchange-rate service settings.
type CurrencyConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	TimeoutSecs       int           `mapstructure:"timeout_secs"`
}

// ImportConfig holds settings for the vendor import pipeline.
type ImportConfig struct {
	MaxPDFSizeMB    int64         `mapstructure:"max_pdf_size_mb"`
	DefaultCurrency string        `mapstructure:"default_currency"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	ArchiveSources  bool          `mapstructure:"archive_sources"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
}

// MaxPDFBytes returns the PDF size cap in bytes.
func (i *ImportConfig) MaxPDFBytes() int64 {
	return i.MaxPDFSizeMB * 1024 * 1024
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

// JWTConfig holds bearer token verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds settings for the import source archive bucket.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the WEDDINGPLAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WEDDINGPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	// PDF extraction can take minutes
	v.SetDefault("server.write_timeout", "240s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "weddingplan")
	v.SetDefault("db.password", "weddingplan_secret")
	v.SetDefault("db.name", "weddingplan_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "weddingplan")

	// S3 defaults
	v.SetDefault("s3.region", "eu-west-1")
	v.SetDefault("s3.bucket", "weddingplan-imports")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Parser defaults
	v.SetDefault("parser.primary.provider", "claude")
	v.SetDefault("parser.primary.api_key", "")
	v.SetDefault("parser.primary.default_model", "")
	v.SetDefault("parser.primary.base_url", "")
	v.SetDefault("parser.primary.max_retries", 2)
	v.SetDefault("parser.primary.timeout_secs", 180)
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.secondary.api_key", "")
	v.SetDefault("parser.secondary.default_model", "")
	v.SetDefault("parser.secondary.base_url", "")
	v.SetDefault("parser.secondary.max_retries", 2)
	v.SetDefault("parser.secondary.timeout_secs", 180)
	v.SetDefault("parser.tertiary.provider", "")
	v.SetDefault("parser.tertiary.api_key", "")
	v.SetDefault("parser.tertiary.default_model", "")
	v.SetDefault("parser.tertiary.base_url", "")
	v.SetDefault("parser.tertiary.max_retries", 2)
	v.SetDefault("parser.tertiary.timeout_secs", 180)

	// Currency defaults
	v.SetDefault("currency.base_url", "https://api.frankfurter.app")
	v.SetDefault("currency.api_key", "")
	v.SetDefault("currency.requests_per_second", 2)
	v.SetDefault("currency.cache_ttl", "1h")
	v.SetDefault("currency.timeout_secs", 10)

	// Import defaults
	v.SetDefault("import.max_pdf_size_mb", 20)
	v.SetDefault("import.default_currency", "EUR")
	v.SetDefault("import.session_ttl", "2h")
	v.SetDefault("import.archive_sources", false)
	v.SetDefault("import.sweep_interval", "5m")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-west-1")
	v.SetDefault("email.from_address", "noreply@weddingplan.app")
	v.SetDefault("email.from_name", "Wedding Plan")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "WEDDINGPLAN_SERVER_PORT",
		"server.read_timeout":            "WEDDINGPLAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "WEDDINGPLAN_SERVER_WRITE_TIMEOUT",
		"server.environment":             "WEDDINGPLAN_SERVER_ENVIRONMENT",
		"db.host":                        "WEDDINGPLAN_DB_HOST",
		"db.port":                        "WEDDINGPLAN_DB_PORT",
		"db.user":                        "WEDDINGPLAN_DB_USER",
		"db.password":                    "WEDDINGPLAN_DB_PASSWORD",
		"db.name":                        "WEDDINGPLAN_DB_NAME",
		"db.sslmode":                     "WEDDINGPLAN_DB_SSLMODE",
		"db.max_open":                    "WEDDINGPLAN_DB_MAX_OPEN",
		"db.max_idle":                    "WEDDINGPLAN_DB_MAX_IDLE",
		"jwt.secret":                     "WEDDINGPLAN_JWT_SECRET",
		"jwt.issuer":                     "WEDDINGPLAN_JWT_ISSUER",
		"s3.region":                      "WEDDINGPLAN_S3_REGION",
		"s3.bucket":                      "WEDDINGPLAN_S3_BUCKET",
		"s3.endpoint":                    "WEDDINGPLAN_S3_ENDPOINT",
		"s3.access_key":                  "WEDDINGPLAN_S3_ACCESS_KEY",
		"s3.secret_key":                  "WEDDINGPLAN_S3_SECRET_KEY",
		"log.level":                      "WEDDINGPLAN_LOG_LEVEL",
		"log.format":                     "WEDDINGPLAN_LOG_FORMAT",
		"cors.allowed_origins":           "WEDDINGPLAN_CORS_ALLOWED_ORIGINS",
		"parser.primary.provider":        "WEDDINGPLAN_PARSER_PRIMARY_PROVIDER",
		"parser.primary.api_key":         "WEDDINGPLAN_PARSER_PRIMARY_API_KEY",
		"parser.primary.default_model":   "WEDDINGPLAN_PARSER_PRIMARY_DEFAULT_MODEL",
		"parser.primary.base_url":        "WEDDINGPLAN_PARSER_PRIMARY_BASE_URL",
		"parser.primary.max_retries":     "WEDDINGPLAN_PARSER_PRIMARY_MAX_RETRIES",
		"parser.primary.timeout_secs":    "WEDDINGPLAN_PARSER_PRIMARY_TIMEOUT_SECS",
		"parser.secondary.provider":      "WEDDINGPLAN_PARSER_SECONDARY_PROVIDER",
		"parser.secondary.api_key":       "WEDDINGPLAN_PARSER_SECONDARY_API_KEY",
		"parser.secondary.default_model": "WEDDINGPLAN_PARSER_SECONDARY_DEFAULT_MODEL",
		"parser.secondary.base_url":      "WEDDINGPLAN_PARSER_SECONDARY_BASE_URL",
		"parser.secondary.max_retries":   "WEDDINGPLAN_PARSER_SECONDARY_MAX_RETRIES",
		"parser.secondary.timeout_secs":  "WEDDINGPLAN_PARSER_SECONDARY_TIMEOUT_SECS",
		"parser.tertiary.provider":       "WEDDINGPLAN_PARSER_TERTIARY_PROVIDER",
		"parser.tertiary.api_key":        "WEDDINGPLAN_PARSER_TERTIARY_API_KEY",
		"parser.tertiary.default_model":  "WEDDINGPLAN_PARSER_TERTIARY_DEFAULT_MODEL",
		"parser.tertiary.base_url":       "WEDDINGPLAN_PARSER_TERTIARY_BASE_URL",
		"parser.tertiary.max_retries":    "WEDDINGPLAN_PARSER_TERTIARY_MAX_RETRIES",
		"parser.tertiary.timeout_secs":   "WEDDINGPLAN_PARSER_TERTIARY_TIMEOUT_SECS",
		"currency.base_url":              "WEDDINGPLAN_CURRENCY_BASE_URL",
		"currency.api_key":               "WEDDINGPLAN_CURRENCY_API_KEY",
		"currency.requests_per_second":   "WEDDINGPLAN_CURRENCY_REQUESTS_PER_SECOND",
		"currency.cache_ttl":             "WEDDINGPLAN_CURRENCY_CACHE_TTL",
		"currency.timeout_secs":          "WEDDINGPLAN_CURRENCY_TIMEOUT_SECS",
		"import.max_pdf_size_mb":         "WEDDINGPLAN_IMPORT_MAX_PDF_SIZE_MB",
		"import.default_currency":        "WEDDINGPLAN_IMPORT_DEFAULT_CURRENCY",
		"import.session_ttl":             "WEDDINGPLAN_IMPORT_SESSION_TTL",
		"import.archive_sources":         "WEDDINGPLAN_IMPORT_ARCHIVE_SOURCES",
		"import.sweep_interval":          "WEDDINGPLAN_IMPORT_SWEEP_INTERVAL",
		"email.provider":                 "WEDDINGPLAN_EMAIL_PROVIDER",
		"email.region":                   "WEDDINGPLAN_EMAIL_REGION",
		"email.from_address":             "WEDDINGPLAN_EMAIL_FROM_ADDRESS",
		"email.from_name":                "WEDDINGPLAN_EMAIL_FROM_NAME",
		"email.frontend_url":             "WEDDINGPLAN_EMAIL_FRONTEND_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if WEDDINGPLAN_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("WEDDINGPLAN_SERVER_PORT") == "" {
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
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Parser = ParserConfig{
		Primary:   loadProvider(v, "parser.primary"),
		Secondary: loadProvider(v, "parser.secondary"),
		Tertiary:  loadProvider(v, "parser.tertiary"),
	}

	cfg.Currency = CurrencyConfig{
		BaseURL:           v.GetString("currency.base_url"),
		APIKey:            v.GetString("currency.api_key"),
		RequestsPerSecond: v.GetFloat64("currency.requests_per_second"),
		CacheTTL:          v.GetDuration("currency.cache_ttl"),
		TimeoutSecs:       v.GetInt("currency.timeout_secs"),
	}

	cfg.Import = ImportConfig{
		MaxPDFSizeMB:    v.GetInt64("import.max_pdf_size_mb"),
		DefaultCurrency: strings.ToUpper(v.GetString("import.default_currency")),
		SessionTTL:      v.GetDuration("import.session_ttl"),
		ArchiveSources:  v.GetBool("import.archive_sources"),
		SweepInterval:   v.GetDuration("import.sweep_interval"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}

	return cfg, nil
}

func loadProvider(v *viper.Viper, prefix string) ParserProviderConfig {
	return ParserProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		BaseURL:      v.GetString(prefix + ".base_url"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/tiendatttt234/GoGo-Be/pkg/database"
	pkgconfig "github.com/tiendatttt234/GoGo-Be/pkg/config"
)

// DefaultJWTSecret is the shipped development secret. It is rejected outside
// development.
const DefaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the GoGo API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"4000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	TrustProxy      bool          `env:"TRUST_PROXY" envDefault:"false"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"gogo"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"gogo_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"gogo"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMs  int   `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis
	RedisURL      string `env:"REDIS_URL"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ReconcilerEnabled bool     `env:"RECONCILER_ENABLED" envDefault:"true"`
	ReconcilerGroupID string   `env:"RECONCILER_GROUP_ID" envDefault:"gogo-reconciler"`

	// JWT
	JWTSecret         string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessTokenTTL time.Duration `env:"JWT_ACCESS_TOKEN_TTL" envDefault:"360h"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Reviews
	ReviewRatingMin float64 `env:"REVIEW_RATING_MIN" envDefault:"0"`
	ReviewRatingMax float64 `env:"REVIEW_RATING_MAX" envDefault:"5"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000,https://go-go-fe.vercel.app,https://www.gogoreview.xyz" envSeparator:","`

	// Rate limiting
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"15m"`

	// Admin routes
	AdminAllowedCIDRs []string `env:"ADMIN_ALLOWED_CIDRS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load gogo config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	if err := pkgconfig.ValidatePort("HTTP port", c.HTTPPort); err != nil {
		return err
	}
	if err := pkgconfig.ValidatePort("postgres port", c.PostgresPort); err != nil {
		return err
	}
	if err := pkgconfig.ValidateSecret(c.Environment, c.JWTSecret, DefaultJWTSecret, 32); err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}
	if c.JWTAccessTokenTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TOKEN_TTL must be positive, got %s", c.JWTAccessTokenTTL)
	}
	if c.ReviewRatingMin < 0 || c.ReviewRatingMin >= c.ReviewRatingMax {
		return fmt.Errorf("invalid review rating bound [%g, %g]", c.ReviewRatingMin, c.ReviewRatingMax)
	}
	if c.LoginRateLimit < 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must not be negative, got %d", c.LoginRateLimit)
	}
	if c.LoginRateWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_WINDOW must be positive, got %s", c.LoginRateWindow)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}
	return nil
}

// PostgresConfig returns the pool configuration for pkg/database.
func (c *Config) PostgresConfig() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// RedisConfig returns the client configuration for pkg/database.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		URL:      c.RedisURL,
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

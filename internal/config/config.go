package config

import (
	"fmt"     // Error wrapping
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // String manipulation
	"time"    // Durations

	"github.com/joho/godotenv" // For loading .env files
	"gopkg.in/yaml.v3"         // For the optional config file
)

// Config holds the application configuration
type Config struct {
	AppPort  string `yaml:"appPort"`  // Application port
	IsProd   bool   `yaml:"isProd"`   // Is production environment
	LogLevel string `yaml:"logLevel"` // logrus level name

	DBDriver   string `yaml:"dbDriver"`   // mysql or postgres
	DBUser     string `yaml:"dbUser"`     // Database user
	DBPassword string `yaml:"dbPassword"` // Database password
	DBHost     string `yaml:"dbHost"`     // Database host
	DBPort     string `yaml:"dbPort"`     // Database port
	DBName     string `yaml:"dbName"`     // Database name

	RedisAddr    string `yaml:"redisAddr"`    // Redis server address
	RedisPass    string `yaml:"redisPass"`    // Redis password
	RedisDB      int    `yaml:"redisDB"`      // Redis database for sessions
	CacheRedisDB int    `yaml:"cacheRedisDB"` // Redis database for catalog and exchange caches

	SessionTTLSeconds int    `yaml:"sessionTTLSeconds"` // Sliding session lifetime
	AdminEmail        string `yaml:"adminEmail"`        // Bootstrap admin email
	AdminPassword     string `yaml:"adminPassword"`     // Bootstrap admin password
	DefaultCurrency   string `yaml:"defaultCurrency"`   // Currency for new users
	ExchangeAPIBase   string `yaml:"exchangeAPIBase"`   // Exchange rate API base URL

	MediaBackend   string `yaml:"mediaBackend"`   // disk or minio
	MediaRoot      string `yaml:"mediaRoot"`      // Disk media root
	MinioEndpoint  string `yaml:"minioEndpoint"`  // MinIO endpoint host:port
	MinioAccessKey string `yaml:"minioAccessKey"` // MinIO access key
	MinioSecretKey string `yaml:"minioSecretKey"` // MinIO secret key
	MinioBucket    string `yaml:"minioBucket"`    // MinIO bucket
	MinioUseSSL    bool   `yaml:"minioUseSSL"`    // MinIO over TLS

	LoginRateLimitPerMinute int `yaml:"loginRateLimitPerMinute"` // Per-IP auth attempts per minute, 0 disables
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		AppPort:                 "8000",
		LogLevel:                "info",
		DBDriver:                "mysql",
		DBHost:                  "localhost",
		DBPort:                  "3306",
		DBName:                  "general_store",
		RedisAddr:               "localhost:6379",
		RedisDB:                 0,
		CacheRedisDB:            1,
		SessionTTLSeconds:       60 * 60 * 24 * 14,
		AdminEmail:              "admin@pixelnostalgia.mx",
		AdminPassword:           "change-me-now",
		DefaultCurrency:         "USD",
		ExchangeAPIBase:         "https://api.exchangerate.host",
		MediaBackend:            "disk",
		MediaRoot:               "media",
		MinioBucket:             "camera-media",
		LoginRateLimitPerMinute: 20,
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file and environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := Default()    // Start from defaults
	// Layer the YAML file named by CONFIG_FILE, if any
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err // Unreadable or malformed file
		}
	}
	cfg.applyEnv() // Environment wins over file and defaults
	if err := cfg.Validate(); err != nil {
		return nil, err // Reject unusable settings early
	}
	return cfg, nil
}

// loadFile overlays values found in a YAML file
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) // Read whole file
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// applyEnv overlays every variable that is set
func (c *Config) applyEnv() {
	setString(&c.AppPort, "APP_PORT")                                         // Application port
	setBool(&c.IsProd, "IS_PROD")                                             // Is production environment
	setString(&c.LogLevel, "LOG_LEVEL")                                       // Log level
	setString(&c.DBDriver, "DB_DRIVER")                                       // Database driver
	setString(&c.DBUser, "DB_USER")                                           // Database user
	setString(&c.DBPassword, "DB_PASSWORD")                                   // Database password
	setString(&c.DBHost, "DB_HOST")                                           // Database host
	setString(&c.DBPort, "DB_PORT")                                           // Database port
	setString(&c.DBName, "DB_NAME")                                           // Database name
	setString(&c.RedisAddr, "REDIS_ADDR")                                     // Redis server address
	setString(&c.RedisPass, "REDIS_PASS")                                     // Redis password
	setInt(&c.RedisDB, "REDIS_DB")                                            // Session database number
	setInt(&c.CacheRedisDB, "CACHE_REDIS_DB")                                 // Cache database number
	setInt(&c.SessionTTLSeconds, "SESSION_TTL_SECONDS")                       // Session lifetime
	setString(&c.AdminEmail, "ADMIN_EMAIL")                                   // Bootstrap admin email
	setString(&c.AdminPassword, "ADMIN_PASSWORD")                             // Bootstrap admin password
	setString(&c.DefaultCurrency, "DEFAULT_CURRENCY")                         // Default currency
	setString(&c.ExchangeAPIBase, "EXCHANGE_API_BASE")                        // Exchange API
	setString(&c.MediaBackend, "MEDIA_BACKEND")                               // Media backend
	setString(&c.MediaRoot, "MEDIA_ROOT")                                     // Media root
	setString(&c.MinioEndpoint, "MINIO_ENDPOINT")                             // MinIO endpoint
	setString(&c.MinioAccessKey, "MINIO_ACCESS_KEY")                          // MinIO access key
	setString(&c.MinioSecretKey, "MINIO_SECRET_KEY")                          // MinIO secret key
	setString(&c.MinioBucket, "MINIO_BUCKET")                                 // MinIO bucket
	setBool(&c.MinioUseSSL, "MINIO_USE_SSL")                                  // MinIO TLS
	setInt(&c.LoginRateLimitPerMinute, "LOGIN_RATE_LIMIT_PER_MINUTE")         // Auth rate limit
	c.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.DefaultCurrency)) // Normalize currency
	c.AdminEmail = strings.ToLower(strings.TrimSpace(c.AdminEmail))           // Normalize email
}

// Validate checks settings that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("config: SESSION_TTL_SECONDS must be positive, got %d", c.SessionTTLSeconds)
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("config: DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency)
	}
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.MediaBackend {
	case "disk", "minio":
	default:
		return fmt.Errorf("config: unsupported MEDIA_BACKEND %q", c.MediaBackend)
	}
	return nil
}

// SessionTTL is SessionTTLSeconds as a duration
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v) == "true"
	}
}

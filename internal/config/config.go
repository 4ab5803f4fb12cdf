package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Shopify     ShopifyConfig
	Storefront  StorefrontConfig
	Security    SecurityConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string // MIGRATIONS_PATH: directory read by golang-migrate
}

// DSN returns the postgres:// URL used by golang-migrate
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient opens a client for cfg and pings it
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// ShopifyConfig holds the app credentials from the Partners dashboard
type ShopifyConfig struct {
	ClientID     string // SHOPIFY_CLIENT_ID (API key)
	ClientSecret string // SHOPIFY_CLIENT_SECRET: OAuth exchange, HMAC and session token signing key
	APIVersion   string
	Scopes       string
	RedirectURI  string // APP_REDIRECT_URI: must point at /auth/callback
	ScriptTagURL string // STOREFRONT_SCRIPT_URL: registered as a script tag on install; empty skips it
}

// StorefrontConfig describes the hidden surrogate product used to carry add-on prices
type StorefrontConfig struct {
	SurrogateProductID string
	SurrogateVariantID string
	SurrogateSKU       string
	SurrogateUnitPrice string
	SelectionTTL       time.Duration
	PurgeInterval      time.Duration
}

type SecurityConfig struct {
	TokenEncKeyB64 string // TOKEN_ENC_KEY_B64: 32 bytes, base64
	AdminKeyHash   string // ADMIN_API_KEY_HASH: bcrypt hash of the operator API key; empty disables key auth
}

// Load reads .env and the environment and checks the settings the server cannot run without
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.Shopify.ClientID == "" {
		return nil, fmt.Errorf("SHOPIFY_CLIENT_ID is required")
	}
	if cfg.Shopify.ClientSecret == "" {
		return nil, fmt.Errorf("SHOPIFY_CLIENT_SECRET is required")
	}
	if cfg.Security.TokenEncKeyB64 == "" {
		return nil, fmt.Errorf("TOKEN_ENC_KEY_B64 is required")
	}

	return cfg, nil
}

// LoadUnchecked is Load without the credential checks, for tools that only touch
// Redis or the storefront
func LoadUnchecked() (*Config, error) {
	return read()
}

func read() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:           getEnvOrViper("DB_HOST", "localhost"),
			Port:           getEnvOrViper("DB_PORT", "5432"),
			User:           getEnvOrViper("DB_USER", "postgres"),
			Password:       getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:         getEnvOrViper("DB_NAME", "productaddons"),
			SSLMode:        getEnvOrViper("DB_SSLMODE", "disable"),
			MigrationsPath: getEnvOrViper("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Shopify: ShopifyConfig{
			ClientID:     strings.TrimSpace(getEnvOrViper("SHOPIFY_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getEnvOrViper("SHOPIFY_CLIENT_SECRET", "")),
			APIVersion:   getEnvOrViper("SHOPIFY_API_VERSION", "2025-01"),
			Scopes:       getEnvOrViper("SHOPIFY_SCOPES", "read_products,write_script_tags"),
			RedirectURI:  strings.TrimSpace(getEnvOrViper("APP_REDIRECT_URI", "")),
			ScriptTagURL: strings.TrimSpace(getEnvOrViper("STOREFRONT_SCRIPT_URL", "")),
		},
		Storefront: StorefrontConfig{
			SurrogateProductID: strings.TrimSpace(getEnvOrViper("SURROGATE_PRODUCT_ID", "")),
			SurrogateVariantID: strings.TrimSpace(getEnvOrViper("SURROGATE_VARIANT_ID", "")),
			SurrogateSKU:       getEnvOrViper("SURROGATE_SKU", "ADDON-PRICE-ADJ"),
			SurrogateUnitPrice: getEnvOrViper("SURROGATE_UNIT_PRICE", "0.01"),
			SelectionTTL:       getDurationOrDefault("SELECTION_TTL", 24*time.Hour),
			PurgeInterval:      getDurationOrDefault("SELECTION_PURGE_INTERVAL", 15*time.Minute),
		},
		Security: SecurityConfig{
			TokenEncKeyB64: strings.TrimSpace(getEnvOrViper("TOKEN_ENC_KEY_B64", "")),
			AdminKeyHash:   strings.TrimSpace(getEnvOrViper("ADMIN_API_KEY_HASH", "")),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

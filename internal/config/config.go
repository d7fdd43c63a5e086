// Package config loads process configuration from TABLEFN_* environment
// variables, optionally layered over a TOML file named by TABLEFN_CONFIG.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Bcrypt cost bounds accepted by TABLEFN_BCRYPT_COST.
const (
	MinBcryptCost = 4
	MaxBcryptCost = 31
)

type Config struct {
	Backend          string // TABLEFN_BACKEND (default "dynamodb")
	Region           string // TABLEFN_REGION (default "us-east-1")
	DynamoDBEndpoint string // TABLEFN_DYNAMODB_ENDPOINT (DynamoDB Local, LocalStack)
	DatabaseURL      string // TABLEFN_DATABASE_URL (required for postgres)

	Tables Tables

	BcryptCost int    // TABLEFN_BCRYPT_COST (default 10)
	NATSURL    string // TABLEFN_NATS_URL (optional, empty = no events)

	HTTPAddr  string // TABLEFN_HTTP_ADDR (default ":8080")
	GRPCAddr  string // TABLEFN_GRPC_ADDR (default ":9090")
	AuthToken string // TABLEFN_AUTH_TOKEN (optional, empty = auth disabled)

	// Export settings
	ExportInterval   time.Duration // TABLEFN_EXPORT_INTERVAL (default 0 = disabled)
	ExportS3Bucket   string        // TABLEFN_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Prefix   string        // TABLEFN_EXPORT_S3_KEY_PREFIX (default "tablefn/")
	ExportS3Endpoint string        // TABLEFN_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)

	LogLevel  string // TABLEFN_LOG_LEVEL (default "info")
	LogFormat string // TABLEFN_LOG_FORMAT ("json" or "text"; empty = caller's choice)
}

// Tables names the backing tables and secondary indexes.
type Tables struct {
	Accounts      string `toml:"accounts"`             // TABLEFN_ACCOUNTS_TABLE
	Notifications string `toml:"notifications"`        // TABLEFN_NOTIFICATIONS_TABLE
	Orders        string `toml:"orders"`               // TABLEFN_ORDERS_TABLE
	LoginIndex    string `toml:"accounts_login_index"` // TABLEFN_ACCOUNTS_LOGIN_INDEX
	UserIndex     string `toml:"orders_user_index"`    // TABLEFN_ORDERS_USER_INDEX
}

// File is the shape of the optional TOML configuration file.
type File struct {
	Backend          string `toml:"backend"`
	Region           string `toml:"region"`
	DynamoDBEndpoint string `toml:"dynamodb_endpoint"`
	DatabaseURL      string `toml:"database_url"`
	NATSURL          string `toml:"nats_url"`
	Tables           Tables `toml:"tables"`
}

// Load reads the configuration. Values from the environment override the
// TOML file, which overrides the built-in defaults.
func Load() (*Config, error) {
	var file File
	if path := os.Getenv("TABLEFN_CONFIG"); path != "" {
		md, err := toml.DecodeFile(path, &file)
		if err != nil {
			return nil, fmt.Errorf("TABLEFN_CONFIG: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("TABLEFN_CONFIG: unknown keys %v", undecoded)
		}
	}

	c := &Config{
		Backend:          envOrDefault("TABLEFN_BACKEND", or(file.Backend, BackendDynamoDB)),
		Region:           envOrDefault("TABLEFN_REGION", or(file.Region, "us-east-1")),
		DynamoDBEndpoint: envOrDefault("TABLEFN_DYNAMODB_ENDPOINT", file.DynamoDBEndpoint),
		DatabaseURL:      envOrDefault("TABLEFN_DATABASE_URL", file.DatabaseURL),
		Tables: Tables{
			Accounts:      envOrDefault("TABLEFN_ACCOUNTS_TABLE", or(file.Tables.Accounts, "accounts")),
			Notifications: envOrDefault("TABLEFN_NOTIFICATIONS_TABLE", or(file.Tables.Notifications, "notifications")),
			Orders:        envOrDefault("TABLEFN_ORDERS_TABLE", or(file.Tables.Orders, "orders")),
			LoginIndex:    envOrDefault("TABLEFN_ACCOUNTS_LOGIN_INDEX", or(file.Tables.LoginIndex, "loginEmail-index")),
			UserIndex:     envOrDefault("TABLEFN_ORDERS_USER_INDEX", or(file.Tables.UserIndex, "userId-index")),
		},
		NATSURL:          envOrDefault("TABLEFN_NATS_URL", file.NATSURL),
		HTTPAddr:         envOrDefault("TABLEFN_HTTP_ADDR", ":8080"),
		GRPCAddr:         envOrDefault("TABLEFN_GRPC_ADDR", ":9090"),
		AuthToken:        os.Getenv("TABLEFN_AUTH_TOKEN"),
		ExportS3Bucket:   os.Getenv("TABLEFN_EXPORT_S3_BUCKET"),
		ExportS3Prefix:   envOrDefault("TABLEFN_EXPORT_S3_KEY_PREFIX", "tablefn/"),
		ExportS3Endpoint: os.Getenv("TABLEFN_EXPORT_S3_ENDPOINT"),
		LogLevel:         strings.ToLower(envOrDefault("TABLEFN_LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(os.Getenv("TABLEFN_LOG_FORMAT")),
	}

	switch c.Backend {
	case BackendDynamoDB, BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("TABLEFN_DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return nil, fmt.Errorf("TABLEFN_BACKEND: unknown backend %q", c.Backend)
	}

	cost, err := strconv.Atoi(envOrDefault("TABLEFN_BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("TABLEFN_BCRYPT_COST: %w", err)
	}
	if cost < MinBcryptCost || cost > MaxBcryptCost {
		return nil, fmt.Errorf("TABLEFN_BCRYPT_COST: %d out of range [%d, %d]", cost, MinBcryptCost, MaxBcryptCost)
	}
	c.BcryptCost = cost

	intervalStr := envOrDefault("TABLEFN_EXPORT_INTERVAL", "0")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("TABLEFN_EXPORT_INTERVAL: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("TABLEFN_EXPORT_INTERVAL: must not be negative")
	}
	c.ExportInterval = d

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("TABLEFN_LOG_LEVEL: unknown level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "json", "text":
	default:
		return nil, fmt.Errorf("TABLEFN_LOG_FORMAT: unknown format %q", c.LogFormat)
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

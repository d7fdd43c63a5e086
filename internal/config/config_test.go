package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads; they are cleared between tests.
var allEnvVars = []string{
	"TABLEFN_CONFIG", "TABLEFN_BACKEND", "TABLEFN_REGION", "TABLEFN_DYNAMODB_ENDPOINT",
	"TABLEFN_DATABASE_URL", "TABLEFN_ACCOUNTS_TABLE", "TABLEFN_NOTIFICATIONS_TABLE",
	"TABLEFN_ORDERS_TABLE", "TABLEFN_ACCOUNTS_LOGIN_INDEX", "TABLEFN_ORDERS_USER_INDEX",
	"TABLEFN_BCRYPT_COST", "TABLEFN_NATS_URL", "TABLEFN_HTTP_ADDR", "TABLEFN_GRPC_ADDR",
	"TABLEFN_AUTH_TOKEN", "TABLEFN_EXPORT_INTERVAL", "TABLEFN_EXPORT_S3_BUCKET",
	"TABLEFN_EXPORT_S3_KEY_PREFIX", "TABLEFN_EXPORT_S3_ENDPOINT", "TABLEFN_LOG_LEVEL",
	"TABLEFN_LOG_FORMAT",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tablefn.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Config{
		Backend: BackendDynamoDB,
		Region:  "us-east-1",
		Tables: Tables{
			Accounts:      "accounts",
			Notifications: "notifications",
			Orders:        "orders",
			LoginIndex:    "loginEmail-index",
			UserIndex:     "userId-index",
		},
		BcryptCost:     10,
		HTTPAddr:       ":8080",
		GRPCAddr:       ":9090",
		ExportS3Prefix: "tablefn/",
		LogLevel:       "info",
	}
	if *cfg != want {
		t.Errorf("Load() = %+v\nwant     %+v", *cfg, want)
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name:    "PostgresRequiresURL",
			env:     map[string]string{"TABLEFN_BACKEND": "postgres"},
			wantErr: true,
		},
		{
			name: "Postgres",
			env: map[string]string{
				"TABLEFN_BACKEND":      "postgres",
				"TABLEFN_DATABASE_URL": "postgres://localhost/tablefn",
			},
			check: func(t *testing.T, c *Config) {
				if c.DatabaseURL != "postgres://localhost/tablefn" {
					t.Errorf("DatabaseURL = %q", c.DatabaseURL)
				}
			},
		},
		{
			name:    "UnknownBackend",
			env:     map[string]string{"TABLEFN_BACKEND": "mongo"},
			wantErr: true,
		},
		{
			name: "CustomTables",
			env: map[string]string{
				"TABLEFN_ACCOUNTS_TABLE":    "prod-accounts",
				"TABLEFN_ORDERS_USER_INDEX": "owner-index",
			},
			check: func(t *testing.T, c *Config) {
				if c.Tables.Accounts != "prod-accounts" || c.Tables.UserIndex != "owner-index" {
					t.Errorf("Tables = %+v", c.Tables)
				}
				if c.Tables.Orders != "orders" {
					t.Errorf("Orders = %q, want default", c.Tables.Orders)
				}
			},
		},
		{
			name:    "CostNotANumber",
			env:     map[string]string{"TABLEFN_BCRYPT_COST": "high"},
			wantErr: true,
		},
		{
			name:    "CostTooLow",
			env:     map[string]string{"TABLEFN_BCRYPT_COST": "3"},
			wantErr: true,
		},
		{
			name: "CostMinimum",
			env:  map[string]string{"TABLEFN_BCRYPT_COST": "4"},
			check: func(t *testing.T, c *Config) {
				if c.BcryptCost != 4 {
					t.Errorf("BcryptCost = %d", c.BcryptCost)
				}
			},
		},
		{
			name:    "InvalidInterval",
			env:     map[string]string{"TABLEFN_EXPORT_INTERVAL": "soon"},
			wantErr: true,
		},
		{
			name:    "NegativeInterval",
			env:     map[string]string{"TABLEFN_EXPORT_INTERVAL": "-1m"},
			wantErr: true,
		},
		{
			name: "Export",
			env: map[string]string{
				"TABLEFN_EXPORT_INTERVAL":      "10m",
				"TABLEFN_EXPORT_S3_BUCKET":     "snapshots",
				"TABLEFN_EXPORT_S3_KEY_PREFIX": "prod/",
				"TABLEFN_EXPORT_S3_ENDPOINT":   "http://minio:9000",
			},
			check: func(t *testing.T, c *Config) {
				if c.ExportInterval != 10*time.Minute || c.ExportS3Bucket != "snapshots" ||
					c.ExportS3Prefix != "prod/" || c.ExportS3Endpoint != "http://minio:9000" {
					t.Errorf("export settings = %+v", c)
				}
			},
		},
		{
			name:    "UnknownLogLevel",
			env:     map[string]string{"TABLEFN_LOG_LEVEL": "loud"},
			wantErr: true,
		},
		{
			name: "LogLevelCaseInsensitive",
			env:  map[string]string{"TABLEFN_LOG_LEVEL": "DEBUG", "TABLEFN_LOG_FORMAT": "Text"},
			check: func(t *testing.T, c *Config) {
				if c.LogLevel != "debug" || c.LogFormat != "text" {
					t.Errorf("LogLevel = %q, LogFormat = %q", c.LogLevel, c.LogFormat)
				}
			},
		},
		{
			name:    "UnknownLogFormat",
			env:     map[string]string{"TABLEFN_LOG_FORMAT": "xml"},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.check != nil {
				tc.check(t, cfg)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TABLEFN_CONFIG", writeConfigFile(t, `
backend = "memory"
region = "eu-west-1"
nats_url = "nats://file:4222"

[tables]
accounts = "file-accounts"
orders_user_index = "file-user-index"
`))
	t.Setenv("TABLEFN_REGION", "ap-south-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Errorf("Backend = %q, want value from file", cfg.Backend)
	}
	if cfg.Region != "ap-south-1" {
		t.Errorf("Region = %q, env should win over file", cfg.Region)
	}
	if cfg.NATSURL != "nats://file:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.Tables.Accounts != "file-accounts" || cfg.Tables.UserIndex != "file-user-index" {
		t.Errorf("Tables = %+v", cfg.Tables)
	}
	if cfg.Tables.Notifications != "notifications" {
		t.Errorf("Notifications = %q, want default", cfg.Tables.Notifications)
	}
}

func TestLoadFileErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		path func(t *testing.T) string
	}{
		{"Missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.toml") }},
		{"Malformed", func(t *testing.T) string { return writeConfigFile(t, "backend = ") }},
		{"UnknownKey", func(t *testing.T) string { return writeConfigFile(t, `colour = "blue"`) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv("TABLEFN_CONFIG", tc.path(t))
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"Set", "TABLEFN_TEST_VAR", "custom", "default", "custom"},
		{"Empty", "TABLEFN_TEST_VAR", "", "default", "default"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			if got := envOrDefault(tc.key, tc.fallback); got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}

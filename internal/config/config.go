package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Platform  PlatformConfig  `json:"platform"`
	Oracle    OracleConfig    `json:"oracle"`
	Security  SecurityConfig  `json:"security"`
	Metastore MetastoreConfig `json:"metastore"`
	Mirror    MirrorConfig    `json:"mirror"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DatabaseConfig represents the analytics mirror database configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// PlatformConfig seeds the admin-configurable marketplace parameters
type PlatformConfig struct {
	Owner        string   `json:"owner"`
	FeeBps       int64    `json:"fee_bps"`
	FeeRecipient string   `json:"fee_recipient"`
	Assets       []string `json:"assets"`
}

// OracleConfig bounds how old external price data may be
type OracleConfig struct {
	MaxQuoteAge time.Duration `json:"max_quote_age"`
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// MetastoreConfig points at the content-addressed document bucket
type MetastoreConfig struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

// MirrorConfig controls the event flush schedule
type MirrorConfig struct {
	FlushSpec string `json:"flush_spec"`
	FeedSize  int    `json:"feed_size"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "carbonmark_mirror",
			SSLMode: "disable",
		},
		Platform: PlatformConfig{
			Owner:        "platform-admin",
			FeeBps:       250,
			FeeRecipient: "platform-treasury",
			Assets:       []string{"USDC"},
		},
		Oracle: OracleConfig{
			MaxQuoteAge: 5 * time.Minute,
		},
		Metastore: MetastoreConfig{
			Bucket: "carbonmark-docs",
			Prefix: "documents",
		},
		Mirror: MirrorConfig{
			FlushSpec: "*/10 * * * * *",
			FeedSize:  4096,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if owner := os.Getenv("PLATFORM_OWNER"); owner != "" {
		config.Platform.Owner = owner
	}
	if recipient := os.Getenv("PLATFORM_FEE_RECIPIENT"); recipient != "" {
		config.Platform.FeeRecipient = recipient
	}
	if bps := os.Getenv("PLATFORM_FEE_BPS"); bps != "" {
		if v, err := strconv.ParseInt(bps, 10, 64); err == nil {
			config.Platform.FeeBps = v
		}
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if bucket := os.Getenv("METASTORE_BUCKET"); bucket != "" {
		config.Metastore.Bucket = bucket
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for catalog-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8088"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Catalog database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Warehouse configuration (SQL Server source of scanned metadata)
	Warehouse WarehouseConfig `yaml:"warehouse"`

	// Redis configuration for the capability cache (optional)
	Redis RedisConfig `yaml:"redis"`

	// Permissions configuration
	Permissions PermissionsConfig `yaml:"permissions"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL catalog database configuration.
type DatabaseConfig struct {
	Host             string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port             int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User             string `yaml:"user" env:"PGUSER" env-default:"catalog"`
	Password         string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database         string `yaml:"database" env:"PGDATABASE" env-default:"catalog_engine"`
	MaxConnections   int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode          string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	StatementTimeout string `yaml:"statement_timeout" env:"PGSTATEMENT_TIMEOUT" env-default:"5s"`
	MigrationsPath   string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// WarehouseConfig holds the SQL Server warehouse connection settings.
// The warehouse is the system of record for table/column metadata;
// catalog-engine only reads listings and invokes the scan procedure.
type WarehouseConfig struct {
	Host     string `yaml:"host" env:"WAREHOUSE_HOST" env-default:""`
	Port     int    `yaml:"port" env:"WAREHOUSE_PORT" env-default:"1433"`
	User     string `yaml:"user" env:"WAREHOUSE_USER" env-default:""`
	Password string `yaml:"-" env:"WAREHOUSE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"WAREHOUSE_DATABASE" env-default:""`
	// ScanProcedure is the stored procedure that refreshes warehouse metadata.
	ScanProcedure string `yaml:"scan_procedure" env:"WAREHOUSE_SCAN_PROCEDURE" env-default:"dbo.usp_refresh_metadata"`
}

// RedisConfig holds Redis configuration for the role-capability cache.
// If Host is empty, caching is disabled and lookups always hit Postgres.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	// CapabilityTTLSeconds is how long cached role capabilities stay fresh.
	CapabilityTTLSeconds int `yaml:"capability_ttl_seconds" env:"REDIS_CAPABILITY_TTL_SECONDS" env-default:"300"`
}

// PermissionsConfig holds role-capability bootstrap settings.
type PermissionsConfig struct {
	// RoleMapPath is an optional YAML file with role->capability overrides,
	// applied to the database mapping at startup.
	RoleMapPath string `yaml:"role_map_path" env:"PERMISSIONS_ROLE_MAP_PATH" env-default:""`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ConnectionString returns a SQL Server connection string for the warehouse.
func (c *WarehouseConfig) ConnectionString() string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	q := url.Values{}
	q.Set("database", c.Database)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsConfigured returns true if a warehouse connection is configured.
func (c *WarehouseConfig) IsConfigured() bool {
	return c.Host != ""
}

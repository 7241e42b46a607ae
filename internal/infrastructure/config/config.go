package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	EAV      EAVConfig
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host        string
	Port        int
	MetricsPort int // Port for Prometheus metrics HTTP server
}

// CacheConfig configures the cache of table descriptions and store lists
type CacheConfig struct {
	Enabled    bool
	MaxItems   int
	TTLMinutes int
}

// TTL returns the configured time-to-live
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// EAVConfig lists the entity types served and their additional attribute tables
type EAVConfig struct {
	EntityTypes      []string
	AdditionalTables map[string]string // entity type code -> additional attribute table
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// FindProjectRoot returns the nearest parent directory containing go.mod
func FindProjectRoot() (string, error) {
	return findProjectRoot()
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	// Set config file name based on environment
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(projectRoot)

	// Read config file (optional, ignore error if not found)
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 50051)
	viper.SetDefault("METRICS_PORT", 9090)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 15432)
	viper.SetDefault("DB_USER", "eav")
	viper.SetDefault("DB_NAME", fmt.Sprintf("eav_%s", env))
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)

	viper.SetDefault("CACHE_ENABLED", true)
	viper.SetDefault("CACHE_MAX_ITEMS", 1024)
	viper.SetDefault("CACHE_TTL_MINUTES", 10)

	viper.SetDefault("EAV_ENTITY_TYPES", "alekseon_custom_form_record")
	viper.SetDefault("EAV_ADDITIONAL_TABLES", "alekseon_custom_form_record:alekseon_custom_form_attribute")

	return nil
}

// Load loads configuration from viper
func Load() (*Config, error) {
	// DB_PASSWORD is required for security
	dbPassword := viper.GetString("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required (set via environment variable or .env file)")
	}

	additionalTables, err := ParseAdditionalTables(viper.GetString("EAV_ADDITIONAL_TABLES"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("SERVER_HOST"),
			Port:        viper.GetInt("SERVER_PORT"),
			MetricsPort: viper.GetInt("METRICS_PORT"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetInt("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     dbPassword,
			Database:     viper.GetString("DB_NAME"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Cache: CacheConfig{
			Enabled:    viper.GetBool("CACHE_ENABLED"),
			MaxItems:   viper.GetInt("CACHE_MAX_ITEMS"),
			TTLMinutes: viper.GetInt("CACHE_TTL_MINUTES"),
		},
		EAV: EAVConfig{
			EntityTypes:      splitList(viper.GetString("EAV_ENTITY_TYPES")),
			AdditionalTables: additionalTables,
		},
	}

	if len(config.EAV.EntityTypes) == 0 {
		return nil, fmt.Errorf("EAV_ENTITY_TYPES must list at least one entity type")
	}

	return config, nil
}

// ParseAdditionalTables parses "code:table,code2:table2"
func ParseAdditionalTables(s string) (map[string]string, error) {
	result := make(map[string]string)
	for _, item := range splitList(s) {
		code, table, ok := strings.Cut(item, ":")
		code, table = strings.TrimSpace(code), strings.TrimSpace(table)
		if !ok || code == "" || table == "" {
			return nil, fmt.Errorf("invalid EAV_ADDITIONAL_TABLES entry %q, want entity_type:table", item)
		}
		result[code] = table
	}
	return result, nil
}

func splitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}

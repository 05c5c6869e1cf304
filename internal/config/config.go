package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/statusboardhq/statusboard/internal/nagios"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Server Configuration
	HTTPPort int

	// Public base URL, used for links in RSS feeds
	BaseURL string

	// Database Configuration
	DatabaseURL string

	// Status file ingestion
	StatusFilePath     string
	PollInterval       time.Duration
	ReadTimeout        time.Duration
	StalenessThreshold time.Duration
	MaxPollFailures    int

	// Visibility filter (optional YAML file)
	FilterPath string
	Filter     nagios.Filter

	// Incident retention
	RetentionDays     int
	RetentionInterval time.Duration

	// Authentication Configuration
	AdminUsername  string
	AdminPassword  string
	JWTSecret      string
	JWTExpiryHours int

	// Notifications
	SlackToken   string
	SlackChannel string

	// Origins allowed to make credentialed cross-origin requests;
	// empty means the status API is readable from any origin
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPPort = getEnvAsIntOrDefault("HTTP_PORT", 3000)
	cfg.BaseURL = getEnvOrDefault("BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.HTTPPort))
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", "statusboard.db")

	cfg.StatusFilePath = getEnvOrDefault("STATUS_FILE", "/var/lib/nagios/status.dat")
	cfg.PollInterval = getEnvAsDurationOrDefault("POLL_INTERVAL", 30*time.Second)
	cfg.ReadTimeout = getEnvAsDurationOrDefault("STATUS_READ_TIMEOUT", 10*time.Second)
	cfg.StalenessThreshold = getEnvAsDurationOrDefault("STALENESS_THRESHOLD", 5*time.Minute)
	cfg.MaxPollFailures = getEnvAsIntOrDefault("MAX_POLL_FAILURES", 3)

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.StalenessThreshold <= 0 {
		return nil, fmt.Errorf("STALENESS_THRESHOLD must be positive, got %s", cfg.StalenessThreshold)
	}

	cfg.FilterPath = os.Getenv("FILTER_FILE")
	if cfg.FilterPath != "" {
		filter, err := LoadFilter(cfg.FilterPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load filter file: %w", err)
		}
		cfg.Filter = filter
	}

	cfg.RetentionDays = getEnvAsIntOrDefault("RETENTION_DAYS", 90)
	cfg.RetentionInterval = getEnvAsDurationOrDefault("RETENTION_INTERVAL", 24*time.Hour)

	cfg.AdminUsername = getEnvOrDefault("ADMIN_USERNAME", "admin")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD") // No default - must be set
	cfg.JWTExpiryHours = getEnvAsIntOrDefault("JWT_EXPIRY_HOURS", 24)

	// JWT Secret: auto-generate and persist if not provided via env var
	dataDir := getEnvOrDefault("DATA_DIR", "/var/lib/statusboard")
	cfg.JWTSecret = loadOrGenerateJWTSecret(filepath.Join(dataDir, ".jwt_secret"))

	cfg.SlackToken = os.Getenv("SLACK_TOKEN")
	cfg.SlackChannel = getEnvOrDefault("SLACK_CHANNEL", "#incidents")

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// filterFile is the on-disk YAML shape of the visibility filter
type filterFile struct {
	Hostgroups    []string `yaml:"hostgroups"`
	Servicegroups []string `yaml:"servicegroups"`
	Hosts         []string `yaml:"hosts"`
	Services      []struct {
		Host    string `yaml:"host"`
		Service string `yaml:"service"`
	} `yaml:"services"`
}

// LoadFilter reads the visibility filter from a YAML file. An empty file
// yields the zero filter, which selects everything.
func LoadFilter(path string) (nagios.Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nagios.Filter{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var ff filterFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nagios.Filter{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	filter := nagios.Filter{
		Hostgroups:    ff.Hostgroups,
		Servicegroups: ff.Servicegroups,
		Hosts:         ff.Hosts,
	}
	for _, s := range ff.Services {
		if s.Host == "" || s.Service == "" {
			return nagios.Filter{}, fmt.Errorf("filter entry in %s needs both host and service", path)
		}
		filter.Services = append(filter.Services, nagios.ServiceKey{
			HostName:           s.Host,
			ServiceDescription: s.Service,
		})
	}
	return filter, nil
}

// loadOrGenerateJWTSecret loads JWT secret from file or generates a new one
func loadOrGenerateJWTSecret(secretPath string) string {
	// First check if JWT_SECRET env var is set (allows override)
	if envSecret := os.Getenv("JWT_SECRET"); envSecret != "" {
		log.Printf("Using JWT secret from environment variable")
		return envSecret
	}

	// Try to load existing secret from file
	if data, err := os.ReadFile(secretPath); err == nil {
		secret := strings.TrimSpace(string(data))
		if secret != "" {
			log.Printf("Loaded JWT secret from %s", secretPath)
			return secret
		}
	}

	// Generate new secret
	secret := generateSecureSecret(32) // 256 bits

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(secretPath), 0755); err != nil {
		log.Printf("Warning: Could not create directory for JWT secret: %v", err)
		return secret
	}

	// Save secret to file
	if err := os.WriteFile(secretPath, []byte(secret), 0600); err != nil {
		log.Printf("Warning: Could not save JWT secret to file: %v", err)
	} else {
		log.Printf("Generated and saved new JWT secret to %s", secretPath)
	}

	return secret
}

// generateSecureSecret generates a cryptographically secure random string
func generateSecureSecret(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		// Fallback to a less secure but functional default (should never happen)
		log.Printf("Warning: Could not generate secure random bytes: %v", err)
		return "fallback-insecure-secret-please-set-jwt-secret-env"
	}
	return hex.EncodeToString(b)
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the value of an environment variable as an integer or a default value
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault parses an environment variable as a Go
// duration string ("30s", "5m"); bare integers are taken as seconds
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: invalid duration for %s: %q, using default %s", key, value, defaultValue)
	return defaultValue
}

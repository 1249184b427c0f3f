// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Scraper   ScraperConfig
	Extractor ExtractorConfig
	Gemini    GeminiConfig
	Grouper   GrouperConfig
	Server    ServerConfig
	Watch     WatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds local data storage configuration.
// The base path hosts the product store, search index, price history
// database, and scrape checkpoints.
type DataConfig struct {
	BasePath string
}

// ScraperConfig holds catalog scraping configuration.
type ScraperConfig struct {
	BaseURL            string
	Category           string        // Category slug to scrape (e.g., dormitorio)
	RatePreset         string        // safe, balanced, or fast
	Delay              time.Duration // Custom base delay (overrides preset when > 0)
	DelayVariation     time.Duration // Custom random delay variation (overrides preset when > 0)
	MaxPages           int           // 0 = all pages
	MaxRetries         int           // Retry attempts for failed requests (default: 5)
	RetryBackoff       time.Duration // Base wait for exponential retry backoff (default: 2s)
	CheckpointInterval int           // Pages between checkpoint saves (default: 10)
	Resume             bool          // Resume from the stored checkpoint for the category
	Deduplicate        bool          // Drop duplicate SKUs keeping first occurrence (default: true)
	IncludeMarketplace bool          // Keep third-party marketplace products (default: false)
	OutputPath         string        // Optional JSON dump of the scraped products
}

// ExtractorConfig holds attribute extraction configuration.
type ExtractorConfig struct {
	Workers             int     // Concurrent extraction workers (0 = NumCPU)
	ConfidenceThreshold float64 // Minimum confidence for grouping (default: 0.7)
}

// GeminiConfig holds the LLM extraction backend configuration.
type GeminiConfig struct {
	APIKey     string
	Model      string        // Default: gemini-2.5-flash
	BatchSize  int           // Products per request (default: 25)
	BatchDelay time.Duration // Pause between uncached requests (default: 4.5s)
}

// GrouperConfig holds hierarchy building configuration.
type GrouperConfig struct {
	InputPath  string // Scraped products JSON to group
	OutputPath string // Hierarchy JSON destination (default: {input}_grouped.json)
	Backend    string // Extraction backend: regex or gemini (default: regex)
	DryRun     bool   // Estimate cost without calling the extraction backend
	NoIndex    bool   // Skip the search index rebuild after grouping
	Report     bool   // Print validation and statistics reports
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port              string        // Server port (default: 8080)
	ReadTimeout       time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout      time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout       time.Duration // HTTP idle timeout (default: 60s)
	RequestsPerMinute int           // Per-client API rate limit (0 = disabled, default: 120)
}

// WatchConfig holds input directory watching configuration.
type WatchConfig struct {
	Dir         string        // Directory to watch for product dumps (empty = disabled)
	SettleDelay time.Duration // Quiet period before a file is considered complete (default: 2s)
}

// RatePresets are the supported scrape pacing presets.
var RatePresets = map[string]bool{
	"safe":     true,
	"balanced": true,
	"fast":     true,
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for local data storage")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Scraper flags
	baseURL := flag.String("base-url", "", "Catalog API base URL")
	category := flag.String("category", "", "Category slug to scrape (e.g., dormitorio)")
	ratePreset := flag.String("rate", "", "Rate preset: safe (3-5s), balanced (2-3s), fast (1-1.5s)")
	delay := flag.String("delay", "", "Custom base delay between pages (overrides preset)")
	delayVariation := flag.String("delay-variation", "", "Custom random delay variation (overrides preset)")
	maxPages := flag.String("max-pages", "", "Maximum pages to scrape (0 = all)")
	maxRetries := flag.String("max-retries", "", "Maximum retry attempts for failed requests (default: 5)")
	retryBackoff := flag.String("retry-backoff", "", "Base wait for exponential retry backoff (default: 2s)")
	checkpointInterval := flag.String("checkpoint-interval", "", "Pages between checkpoint saves (default: 10)")
	resume := flag.String("resume", "", "Resume from the stored checkpoint for the category (default: false)")
	deduplicate := flag.String("deduplicate", "", "Drop duplicate SKUs keeping first occurrence (default: true)")
	includeMarketplace := flag.String("include-marketplace", "", "Include marketplace products (default: false)")

	// Extractor flags
	workers := flag.String("workers", "", "Concurrent extraction workers (0 = all CPUs)")
	confidenceThreshold := flag.String("confidence-threshold", "", "Minimum confidence for grouping (default: 0.7)")

	// Gemini flags
	apiKey := flag.String("api-key", "", "Gemini API key (or GEMINI_API_KEY env var)")
	geminiModel := flag.String("gemini-model", "", "Gemini model name (default: gemini-2.5-flash)")
	batchSize := flag.String("batch-size", "", "Products per Gemini request (default: 25)")
	geminiBatchDelay := flag.String("gemini-batch-delay", "", "Pause between uncached Gemini requests (default: 4.5s)")

	// Grouper flags
	input := flag.String("input", "", "Scraped products JSON file to group")
	output := flag.String("output", "", "Output file path")
	backend := flag.String("backend", "", "Extraction backend: regex or gemini (default: regex)")
	dryRun := flag.String("dry-run", "", "Estimate cost without extraction calls (default: false)")
	noIndex := flag.String("no-index", "", "Skip the search index rebuild after grouping (default: false)")
	report := flag.String("report", "", "Print validation and statistics reports (default: false)")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	rateLimit := flag.String("rate-limit", "", "Per-client API requests per minute, 0 disables (default: 120)")

	// Watch flags
	watchDir := flag.String("watch", "", "Directory to watch for product dumps (empty = disabled)")
	watchSettle := flag.String("watch-settle", "", "Quiet period before a watched file is processed (default: 2s)")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Scraper: ScraperConfig{
			BaseURL:            getConfigValue(*baseURL, "CATALOG_BASE_URL", "https://simple.ripley.com.pe"),
			Category:           getConfigValue(*category, "SCRAPE_CATEGORY", ""),
			RatePreset:         getConfigValue(*ratePreset, "SCRAPE_RATE", "safe"),
			MaxPages:           getIntConfigValue(*maxPages, "SCRAPE_MAX_PAGES", 0),
			MaxRetries:         getIntConfigValue(*maxRetries, "SCRAPE_MAX_RETRIES", 5),
			CheckpointInterval: getIntConfigValue(*checkpointInterval, "SCRAPE_CHECKPOINT_INTERVAL", 10),
			Resume:             getBoolConfigValue(*resume, "SCRAPE_RESUME", false),
			Deduplicate:        getBoolConfigValue(*deduplicate, "SCRAPE_DEDUPLICATE", true),
			IncludeMarketplace: getBoolConfigValue(*includeMarketplace, "SCRAPE_INCLUDE_MARKETPLACE", false),
			OutputPath:         getConfigValue(*output, "OUTPUT_PATH", ""),
		},
		Extractor: ExtractorConfig{
			Workers:             getIntConfigValue(*workers, "EXTRACT_WORKERS", 0),
			ConfidenceThreshold: getFloatConfigValue(*confidenceThreshold, "CONFIDENCE_THRESHOLD", 0.7),
		},
		Gemini: GeminiConfig{
			APIKey:    getConfigValue(*apiKey, "GEMINI_API_KEY", ""),
			Model:     getConfigValue(*geminiModel, "GEMINI_MODEL", "gemini-2.5-flash"),
			BatchSize: getIntConfigValue(*batchSize, "GEMINI_BATCH_SIZE", 25),
		},
		Grouper: GrouperConfig{
			InputPath:  getConfigValue(*input, "INPUT_PATH", ""),
			OutputPath: getConfigValue(*output, "OUTPUT_PATH", ""),
			Backend:    getConfigValue(*backend, "EXTRACT_BACKEND", "regex"),
			DryRun:     getBoolConfigValue(*dryRun, "DRY_RUN", false),
			NoIndex:    getBoolConfigValue(*noIndex, "NO_INDEX", false),
			Report:     getBoolConfigValue(*report, "GROUPER_REPORT", false),
		},
		Server: ServerConfig{
			Port:              getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			RequestsPerMinute: getIntConfigValue(*rateLimit, "SERVER_RATE_LIMIT", 120),
		},
		Watch: WatchConfig{
			Dir: getConfigValue(*watchDir, "WATCH_DIR", ""),
		},
	}

	// Parse durations.
	var err error
	if cfg.Scraper.Delay, err = parseDurationValue(*delay, "SCRAPE_DELAY", 0); err != nil {
		return nil, fmt.Errorf("invalid delay: %w", err)
	}
	if cfg.Scraper.DelayVariation, err = parseDurationValue(*delayVariation, "SCRAPE_DELAY_VARIATION", 0); err != nil {
		return nil, fmt.Errorf("invalid delay variation: %w", err)
	}
	if cfg.Scraper.RetryBackoff, err = parseDurationValue(*retryBackoff, "SCRAPE_RETRY_BACKOFF", 2*time.Second); err != nil {
		return nil, fmt.Errorf("invalid retry backoff: %w", err)
	}
	if cfg.Gemini.BatchDelay, err = parseDurationValue(*geminiBatchDelay, "GEMINI_BATCH_DELAY", 4500*time.Millisecond); err != nil {
		return nil, fmt.Errorf("invalid gemini batch delay: %w", err)
	}
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Watch.SettleDelay, err = parseDurationValue(*watchSettle, "WATCH_SETTLE_DELAY", 2*time.Second); err != nil {
		return nil, fmt.Errorf("invalid watch settle delay: %w", err)
	}

	// Expand and validate the data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if !RatePresets[c.Scraper.RatePreset] {
		return fmt.Errorf("invalid rate preset: %s (must be safe, balanced, or fast)", c.Scraper.RatePreset)
	}

	if c.Extractor.ConfidenceThreshold < 0 || c.Extractor.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be between 0 and 1, got %.2f", c.Extractor.ConfidenceThreshold)
	}

	if c.Grouper.Backend != "regex" && c.Grouper.Backend != "gemini" {
		return fmt.Errorf("invalid extraction backend: %s (must be regex or gemini)", c.Grouper.Backend)
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/RipleyScraper/data if not specified.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "RipleyScraper", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue returns a duration from flag, env var, or default.
func parseDurationValue(flagValue, envKey string, defaultValue time.Duration) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

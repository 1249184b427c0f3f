package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Scraper: ScraperConfig{
			RatePreset: "safe",
		},
		Extractor: ExtractorConfig{
			ConfidenceThreshold: 0.7,
		},
		Grouper: GrouperConfig{
			Backend: "regex",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_RatePresets(t *testing.T) {
	tests := []struct {
		preset string
		valid  bool
	}{
		{"safe", true},
		{"balanced", true},
		{"fast", true},
		{"turbo", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			cfg := validConfig()
			cfg.Scraper.RatePreset = tt.preset

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_ConfidenceThreshold(t *testing.T) {
	tests := []struct {
		threshold float64
		valid     bool
	}{
		{0.0, true},
		{0.7, true},
		{1.0, true},
		{-0.1, false},
		{1.5, false},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Extractor.ConfidenceThreshold = tt.threshold

		err := cfg.Validate()
		if tt.valid {
			assert.NoError(t, err, "threshold %.2f", tt.threshold)
		} else {
			assert.Error(t, err, "threshold %.2f", tt.threshold)
		}
	}
}

func TestValidate_Backends(t *testing.T) {
	tests := []struct {
		backend string
		valid   bool
	}{
		{"regex", true},
		{"gemini", true},
		{"llama", false},
		{"", false},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Grouper.Backend = tt.backend

		err := cfg.Validate()
		if tt.valid {
			assert.NoError(t, err, "backend %q", tt.backend)
		} else {
			assert.Error(t, err, "backend %q", tt.backend)
		}
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data base path cannot be empty")
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}

	err := cfg.expandDataPath()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	expected := filepath.Join(homeDir, "RipleyScraper", "data")
	assert.Equal(t, expected, cfg.Data.BasePath)
}

func TestExpandDataPath_TildeExpansion(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "~/scraper-data"}}

	err := cfg.expandDataPath()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	expected := filepath.Join(homeDir, "scraper-data")
	assert.Equal(t, expected, cfg.Data.BasePath)
}

func TestExpandDataPath_RelativePath(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "relative/data"}}

	err := cfg.expandDataPath()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
	assert.Contains(t, cfg.Data.BasePath, "relative/data")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	// Flag value takes priority.
	result := getConfigValue("flag-value", "ENV_KEY", "default-value")
	assert.Equal(t, "flag-value", result)

	// Env var when flag is empty.
	os.Setenv("TEST_ENV_KEY", "env-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_ENV_KEY")      //nolint:errcheck // Test cleanup

	result = getConfigValue("", "TEST_ENV_KEY", "default-value")
	assert.Equal(t, "env-value", result)

	// Default when both are empty.
	result = getConfigValue("", "NONEXISTENT_KEY", "default-value")
	assert.Equal(t, "default-value", result)
}

func TestGetFloatConfigValue(t *testing.T) {
	assert.Equal(t, 0.85, getFloatConfigValue("0.85", "UNUSED", 0.7))
	assert.Equal(t, 0.7, getFloatConfigValue("", "NONEXISTENT_KEY", 0.7))
	assert.Equal(t, 0.7, getFloatConfigValue("not-a-number", "UNUSED", 0.7))
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("3s", "UNUSED", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	d, err = parseDurationValue("", "NONEXISTENT_KEY", 4500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 4500*time.Millisecond, d)

	_, err = parseDurationValue("banana", "UNUSED", time.Second)
	assert.Error(t, err)
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
ENV=staging
LOG_LEVEL=debug
GEMINI_API_KEY="secret value"
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	os.Unsetenv("ENV")            //nolint:errcheck // Test cleanup
	os.Unsetenv("LOG_LEVEL")      //nolint:errcheck // Test cleanup
	os.Unsetenv("GEMINI_API_KEY") //nolint:errcheck // Test cleanup
	defer func() {
		os.Unsetenv("ENV")            //nolint:errcheck // Test cleanup
		os.Unsetenv("LOG_LEVEL")      //nolint:errcheck // Test cleanup
		os.Unsetenv("GEMINI_API_KEY") //nolint:errcheck // Test cleanup
	}()

	err = loadEnvFile(envFile)
	require.NoError(t, err)

	assert.Equal(t, "staging", os.Getenv("ENV"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "secret value", os.Getenv("GEMINI_API_KEY"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	err = loadEnvFile(envFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	err := loadEnvFile("/nonexistent/file/.env")
	assert.Error(t, err)
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	os.Setenv("TEST_VAR", "original-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_VAR")           //nolint:errcheck // Test cleanup

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte(`TEST_VAR=new-value`), 0o644)
	require.NoError(t, err)

	err = loadEnvFile(envFile)
	require.NoError(t, err)

	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}

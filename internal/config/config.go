package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fmuoria/ats-resume-checker/internal/llm"
)

// Config holds application configuration
type Config struct {
	GeminiAPIKey          string `json:"gemini_api_key,omitempty"`
	GoogleCloudProject    string `json:"google_cloud_project"`
	GoogleCloudLocation   string `json:"google_cloud_location"`
	GoogleCredentialsPath string `json:"google_credentials_path"`
	GmailCredentialsPath  string `json:"gmail_credentials_path"`
	GmailTokenPath        string `json:"gmail_token_path"`
	Model                 string `json:"model"`
	AITimeoutSeconds      int    `json:"ai_timeout_seconds"`
	AITotalTimeoutSeconds int    `json:"ai_total_timeout_seconds"`
	AIMaxChars            int    `json:"ai_max_chars"`
	AIMaxRetries          int    `json:"ai_max_retries"`
	AIRequestDelaySeconds int    `json:"ai_request_delay_seconds"`
	UploadsDir            string `json:"uploads_dir"`
	Port                  int    `json:"port"`
	VocabularyPath        string `json:"vocabulary_path,omitempty"`
	LogLevel              string `json:"log_level"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		GoogleCloudLocation:   "us-central1",
		GmailTokenPath:        "token.json",
		Model:                 llm.DefaultModel,
		AITimeoutSeconds:      60,
		AITotalTimeoutSeconds: 120,
		AIMaxChars:            15000,
		AIMaxRetries:          3,
		AIRequestDelaySeconds: 4,
		UploadsDir:            "uploads",
		Port:                  8080,
		LogLevel:              "info",
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/ATSResumeChecker/config.json
// On Unix: ~/.config/ATSResumeChecker/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "ATSResumeChecker")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "ATSResumeChecker")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load builds the configuration from defaults, the JSON file at path (the
// default config path when empty), a .env file in the working directory and
// finally the process environment.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}

	// godotenv never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnvOverrides replaces fields with any matching environment variables
func (c *Config) ApplyEnvOverrides() error {
	strs := map[string]*string{
		"GOOGLE_GEMINI_API_KEY":          &c.GeminiAPIKey,
		"GOOGLE_CLOUD_PROJECT":           &c.GoogleCloudProject,
		"GOOGLE_CLOUD_LOCATION":          &c.GoogleCloudLocation,
		"GOOGLE_APPLICATION_CREDENTIALS": &c.GoogleCredentialsPath,
		"GMAIL_CREDENTIALS_PATH":         &c.GmailCredentialsPath,
		"GMAIL_TOKEN_PATH":               &c.GmailTokenPath,
		"LLM_MODEL":                      &c.Model,
		"UPLOADS_DIR":                    &c.UploadsDir,
		"VOCABULARY_PATH":                &c.VocabularyPath,
		"LOG_LEVEL":                      &c.LogLevel,
	}
	for key, field := range strs {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		"PORT":                     &c.Port,
		"AI_TIMEOUT_SECONDS":       &c.AITimeoutSeconds,
		"AI_TOTAL_TIMEOUT_SECONDS": &c.AITotalTimeoutSeconds,
		"AI_MAX_CHARS":             &c.AIMaxChars,
		"AI_MAX_RETRIES":           &c.AIMaxRetries,
		"AI_REQUEST_DELAY_SECONDS": &c.AIRequestDelaySeconds,
	}
	for key, field := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = n
	}

	return nil
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks numeric bounds and that referenced files exist
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.AITimeoutSeconds <= 0 {
		return fmt.Errorf("ai_timeout_seconds must be positive, got %d", c.AITimeoutSeconds)
	}
	if c.AITotalTimeoutSeconds < c.AITimeoutSeconds {
		return fmt.Errorf("ai_total_timeout_seconds must be at least ai_timeout_seconds, got %d", c.AITotalTimeoutSeconds)
	}
	if c.AIMaxChars <= 0 {
		return fmt.Errorf("ai_max_chars must be positive, got %d", c.AIMaxChars)
	}
	if c.AIMaxRetries < 0 {
		return fmt.Errorf("ai_max_retries cannot be negative, got %d", c.AIMaxRetries)
	}
	if c.AIRequestDelaySeconds < 0 {
		return fmt.Errorf("ai_request_delay_seconds cannot be negative, got %d", c.AIRequestDelaySeconds)
	}
	if c.UploadsDir == "" {
		return fmt.Errorf("uploads_dir is required")
	}
	if c.GoogleCloudProject != "" && c.GoogleCloudLocation == "" {
		return fmt.Errorf("google_cloud_location is required when google_cloud_project is set")
	}

	files := []struct{ name, path string }{
		{"google credentials", c.GoogleCredentialsPath},
		{"gmail credentials", c.GmailCredentialsPath},
		{"vocabulary", c.VocabularyPath},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			return fmt.Errorf("%s file not found: %w", f.name, err)
		}
	}

	return nil
}

// ApplyToEnv exports credentials for the Google client libraries, which read
// them from the environment
func (c *Config) ApplyToEnv() {
	if c.GoogleCloudProject != "" {
		os.Setenv("GOOGLE_CLOUD_PROJECT", c.GoogleCloudProject)
	}
	if c.GoogleCloudLocation != "" {
		os.Setenv("GOOGLE_CLOUD_LOCATION", c.GoogleCloudLocation)
	}
	if c.GoogleCredentialsPath != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleCredentialsPath)
	}
}

// LLMOptions returns the generative model client settings
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		APIKey:    c.GeminiAPIKey,
		ProjectID: c.GoogleCloudProject,
		Location:  c.GoogleCloudLocation,
		Model:     c.Model,
	}
}

// AITimeout is the per-call model deadline
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// AITotalTimeout bounds one resume's model scoring, retries included
func (c *Config) AITotalTimeout() time.Duration {
	return time.Duration(c.AITotalTimeoutSeconds) * time.Second
}

// RequestDelay is the minimum spacing between model calls in a batch review
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.AIRequestDelaySeconds) * time.Second
}

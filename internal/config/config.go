// Package config holds operator-level configuration for a ticketwash
// installation: where state lives, which entity detector to use, and how
// the HTTP surface is tuned. Values resolve from env vars (TICKETWASH_*)
// or a ticketwash.config.yaml file, with env taking precedence. Ticket
// content never flows through this package.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the TICKETWASH_ prefix
// (e.g. "ner_model" → TICKETWASH_NER_MODEL) and to a YAML field in
// ticketwash.config.yaml.
const (
	KeyDataDir       = "data_dir"
	KeyVendorList    = "vendor_list"
	KeyNERProvider   = "ner_provider"
	KeyNERModel      = "ner_model"
	KeyOllamaBaseURL = "ollama_base_url"
	KeyOpenAIBaseURL = "openai_base_url"
	KeyOpenAIAPIKey  = "openai_api_key"
	KeyListenAddr    = "listen_addr"
	KeyGlobalRPM     = "global_rpm"
	KeyPerCallerRPM  = "per_caller_rpm"
)

// Defaults for everything that has a sensible zero-config value.
const (
	DefaultNERProvider  = "ollama"
	DefaultNERModel     = "llama3.2"
	DefaultOllamaURL    = "http://localhost:11434"
	DefaultListenAddr   = ":8414"
	DefaultGlobalRPM    = 600
	DefaultPerCallerRPM = 120
)

// Config holds resolved operator-level configuration for a ticketwash
// process.
type Config struct {
	DataDir       string // base directory for state (~/.ticketwash)
	VendorList    string // optional extra vendor allow-list file
	NERProvider   string // "ollama" or "openai"
	NERModel      string // model name passed to the provider
	OllamaBaseURL string // Ollama API endpoint
	OpenAIBaseURL string // custom OpenAI-compatible endpoint ("" = hosted)
	OpenAIAPIKey  string
	ListenAddr    string // serve command bind address
	GlobalRPM     int    // total sanitize requests/minute across callers
	PerCallerRPM  int    // per-remote-addr sanitize requests/minute
}

// AuditDBPath returns the full path to the audit SQLite database.
func (c *Config) AuditDBPath() string {
	return filepath.Join(c.DataDir, "audit.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

// Load resolves configuration from viper (already primed with config
// file and env bindings by the CLI root).
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:       viper.GetString(KeyDataDir),
		VendorList:    viper.GetString(KeyVendorList),
		NERProvider:   viper.GetString(KeyNERProvider),
		NERModel:      viper.GetString(KeyNERModel),
		OllamaBaseURL: viper.GetString(KeyOllamaBaseURL),
		OpenAIBaseURL: viper.GetString(KeyOpenAIBaseURL),
		OpenAIAPIKey:  viper.GetString(KeyOpenAIAPIKey),
		ListenAddr:    viper.GetString(KeyListenAddr),
		GlobalRPM:     viper.GetInt(KeyGlobalRPM),
		PerCallerRPM:  viper.GetInt(KeyPerCallerRPM),
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory for data_dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".ticketwash")
	}
	if cfg.NERProvider == "" {
		cfg.NERProvider = DefaultNERProvider
	}
	if cfg.NERModel == "" {
		cfg.NERModel = DefaultNERModel
	}
	if cfg.OllamaBaseURL == "" {
		cfg.OllamaBaseURL = DefaultOllamaURL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.GlobalRPM <= 0 {
		cfg.GlobalRPM = DefaultGlobalRPM
	}
	if cfg.PerCallerRPM <= 0 {
		cfg.PerCallerRPM = DefaultPerCallerRPM
	}

	return cfg, nil
}

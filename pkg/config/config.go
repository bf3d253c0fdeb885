package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Database  DatabaseConfig  `mapstructure:"database"`
	History   HistoryConfig   `mapstructure:"history"`
}

type AnalyzerConfig struct {
	Model                 string  `mapstructure:"model"`
	Temperature           float64 `mapstructure:"temperature"`
	TopP                  float64 `mapstructure:"top_p"`
	ReasoningEffort       string  `mapstructure:"reasoning_effort"`
	SystemPrompt          string  `mapstructure:"system_prompt"`
	MergeSystemPrompt     string  `mapstructure:"merge_system_prompt"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds"`
	AutoAnalyze           bool    `mapstructure:"auto_analyze"`
	DebounceMillis        int     `mapstructure:"debounce_ms"`
}

type ProvidersConfig struct {
	OpenAI ProviderConfig `mapstructure:"openai"`
	XAI    ProviderConfig `mapstructure:"xai"`
	Gemini ProviderConfig `mapstructure:"gemini"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type HistoryConfig struct {
	ExportDir string `mapstructure:"export_dir"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("history.export_dir", "conversations")
	v.SetDefault("analyzer.model", "gpt-4o")
	v.SetDefault("analyzer.temperature", 1.0)
	v.SetDefault("analyzer.top_p", 1.0)
	v.SetDefault("analyzer.request_timeout_seconds", 120)
	v.SetDefault("analyzer.auto_analyze", false)
	v.SetDefault("analyzer.debounce_ms", 1500)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Per-provider keys may come from the environment instead of the file
	if key := v.GetString("OPENAI_API_KEY"); key != "" {
		config.Providers.OpenAI.APIKey = key
	}
	if key := v.GetString("XAI_API_KEY"); key != "" {
		config.Providers.XAI.APIKey = key
	}
	if key := v.GetString("GEMINI_API_KEY"); key != "" {
		config.Providers.Gemini.APIKey = key
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Analyzer.Model == "" {
		return fmt.Errorf("analyzer.model must not be empty")
	}
	if t := c.Analyzer.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("analyzer.temperature must be in [0, 2], got %v", t)
	}
	if p := c.Analyzer.TopP; p < 0 || p > 1 {
		return fmt.Errorf("analyzer.top_p must be in [0, 1], got %v", p)
	}
	return nil
}

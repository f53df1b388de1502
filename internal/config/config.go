package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Twitter TwitterConfig `yaml:"twitter"`
	Scraper ScraperConfig `yaml:"scraper"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`

	// Hosted is set when running in the hosted deployment environment
	// (WEBSITE_HOSTNAME present). It flips the headless default and moves
	// the profile and log paths to the writable /home mount.
	Hosted bool `yaml:"-"`
}

type TwitterConfig struct {
	BaseURL string `yaml:"base_url"`

	// Credentials come from the environment only, never from the file.
	Username    string `yaml:"-"`
	Password    string `yaml:"-"`
	PhoneNumber string `yaml:"-"`
}

type ScraperConfig struct {
	Headless   bool   `yaml:"headless"`
	UserAgent  string `yaml:"user_agent"`
	ProfileDir string `yaml:"profile_dir"`

	MaxPosts int `yaml:"max_posts"`

	// Timeouts are in seconds.
	ElementTimeout   int `yaml:"element_timeout"`
	ShortTimeout     int `yaml:"short_timeout"`
	LoginTimeout     int `yaml:"login_timeout"`
	OperationTimeout int `yaml:"operation_timeout"`
	SessionTimeout   int `yaml:"session_timeout"`

	ScrollAttempts int `yaml:"scroll_attempts"`
}

type CacheConfig struct {
	TTL        int `yaml:"ttl"`
	MaxEntries int `yaml:"max_entries"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Load(configFile string) (*Config, error) {
	// .env file is optional, so don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := defaults()
	cfg.Hosted = os.Getenv("WEBSITE_HOSTNAME") != ""
	if cfg.Hosted {
		cfg.Scraper.Headless = true
		cfg.Scraper.ProfileDir = "/home/chrome-profiles"
		cfg.Logging.File = "/home/LogFiles/app.log"
	}

	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables if they exist
	if baseURL := os.Getenv("TWITTER_BASE_URL"); baseURL != "" {
		cfg.Twitter.BaseURL = baseURL
	}
	cfg.Twitter.Username = os.Getenv("TWITTER_USERNAME")
	cfg.Twitter.Password = os.Getenv("TWITTER_PASSWORD")
	cfg.Twitter.PhoneNumber = os.Getenv("TWITTER_PHONE_NUMBER")
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if headless := os.Getenv("HEADLESS"); headless != "" {
		cfg.Scraper.Headless = headless == "true" || headless == "1"
	}

	// The API never returns more than maxPostsCap posts per query.
	if cfg.Scraper.MaxPosts <= 0 {
		cfg.Scraper.MaxPosts = defaultMaxPosts
	}
	if cfg.Scraper.MaxPosts > maxPostsCap {
		cfg.Scraper.MaxPosts = maxPostsCap
	}

	return cfg, nil
}

const (
	defaultMaxPosts = 5
	maxPostsCap     = 10
)

func defaults() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL: "https://x.com",
		},
		Scraper: ScraperConfig{
			Headless:         false,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ProfileDir:       filepath.Join(os.TempDir(), "timehealer-profiles"),
			MaxPosts:         defaultMaxPosts,
			ElementTimeout:   10,
			ShortTimeout:     3,
			LoginTimeout:     10,
			OperationTimeout: 180,
			SessionTimeout:   300,
			ScrollAttempts:   3,
		},
		Cache: CacheConfig{
			TTL:        3600,
			MaxEntries: 100,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join("logs", "app.log"),
		},
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	EnvStoreKey        = "STORE_KEY"
	EnvStoreURL        = "STORE_URL"
	EnvChainMainnetURL = "CHAIN_MAINNET_URL"
	EnvChainTestnetURL = "CHAIN_TESTNET_URL"

	DefaultListen = "0.0.0.0:8686"

	BackendMeilisearch = "meilisearch"
	BackendSQLite      = "sqlite"
)

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	Listen string      `toml:"listen"`
	Store  StoreConfig `toml:"store"`
	Chain  ChainConfig `toml:"chain"`
}

type StoreConfig struct {
	Backend      string   `toml:"backend"`
	URL          string   `toml:"url"`
	Key          string   `toml:"key"`
	SQLitePath   string   `toml:"sqlite_path"`
	MainnetIndex string   `toml:"mainnet_index"`
	TestnetIndex string   `toml:"testnet_index"`
	Timeout      Duration `toml:"timeout"`
}

type ChainConfig struct {
	Enabled          bool     `toml:"enabled"`
	MainnetURL       string   `toml:"mainnet_url"`
	TestnetURL       string   `toml:"testnet_url"`
	Pallet           string   `toml:"pallet"`
	StorageItem      string   `toml:"storage_item"`
	DialTimeout      Duration `toml:"dial_timeout"`
	ConcurrentFetch  bool     `toml:"concurrent_fetch"`
	FetchConcurrency int      `toml:"fetch_concurrency"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Index returns the search index name for the selected network.
func (s StoreConfig) Index(mainnet bool) string {
	if mainnet {
		return s.MainnetIndex
	}
	return s.TestnetIndex
}

// Endpoint returns the chain endpoint for the selected network.
func (c ChainConfig) Endpoint(mainnet bool) string {
	if mainnet {
		return c.MainnetURL
	}
	return c.TestnetURL
}

func GetDefaultConfig() *Config {
	cfg := &Config{
		Chain: ChainConfig{Enabled: true},
	}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendMeilisearch
	}
	if c.Store.MainnetIndex == "" {
		c.Store.MainnetIndex = "mainnet_files"
	}
	if c.Store.TestnetIndex == "" {
		c.Store.TestnetIndex = "testnet_files"
	}
	if c.Store.Timeout.Duration <= 0 {
		c.Store.Timeout = Duration{10 * time.Second}
	}
	if c.Store.SQLitePath == "" {
		if dir, err := GetDefaultDataDir(); err == nil {
			c.Store.SQLitePath = filepath.Join(dir, "index.db")
		}
	}
	if c.Chain.Pallet == "" {
		c.Chain.Pallet = "FileSystem"
	}
	if c.Chain.StorageItem == "" {
		c.Chain.StorageItem = "Metadata"
	}
	if c.Chain.DialTimeout.Duration <= 0 {
		c.Chain.DialTimeout = Duration{15 * time.Second}
	}
	if c.Chain.FetchConcurrency <= 0 {
		c.Chain.FetchConcurrency = 4
	}
}

// applyEnv overrides connection settings from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvStoreURL); v != "" {
		c.Store.URL = v
	}
	if v := getenv(EnvStoreKey); v != "" {
		c.Store.Key = v
	}
	if v := getenv(EnvChainMainnetURL); v != "" {
		c.Chain.MainnetURL = v
	}
	if v := getenv(EnvChainTestnetURL); v != "" {
		c.Chain.TestnetURL = v
	}
}

// LoadConfig reads .env from the working directory if present, then the
// TOML file at configPath if it exists, then applies environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return LoadConfigWithEnv(configPath, os.Getenv)
}

// LoadConfigWithEnv is LoadConfig with an explicit environment lookup.
func LoadConfigWithEnv(configPath string, getenv func(string) string) (*Config, error) {
	cfg := &Config{Chain: ChainConfig{Enabled: true}}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults plus environment
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.setDefaults()
	cfg.applyEnv(getenv)
	return cfg, nil
}

// Validate checks that the selected backends have what they need. Loading
// does not validate so commands needing only part of the config can run.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Backend {
	case BackendMeilisearch:
		if c.Store.URL == "" {
			problems = append(problems, "store.url (or "+EnvStoreURL+") is required for the meilisearch backend")
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store.backend %q", c.Store.Backend))
	}

	if c.Chain.Enabled {
		if c.Chain.MainnetURL == "" {
			problems = append(problems, "chain.mainnet_url (or "+EnvChainMainnetURL+") is required when chain.enabled")
		}
		if c.Chain.TestnetURL == "" {
			problems = append(problems, "chain.testnet_url (or "+EnvChainTestnetURL+") is required when chain.enabled")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SaveTemplateConfig writes the commented sample configuration.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template := configTemplate
	if c.Store.SQLitePath != "" {
		template = strings.Replace(template, "/home/user/.local/share/metaquery/index.db", c.Store.SQLitePath, 1)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

// GetDefaultDataDir returns the directory for the local search index.
func GetDefaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "metaquery"), nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "metaquery", "config.toml"), nil
}

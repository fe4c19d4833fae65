package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	BackendBleve   = "bleve"
	BackendAlgolia = "algolia"
)

const (
	defaultPort              = "8080"
	defaultResultsPerPage    = 20
	defaultMaxResultsPerPage = 100
)

// deprecatedKeys maps keys accepted by older deployments to the key that replaced them.
var deprecatedKeys = map[string]string{
	"HAYSTACK_SEARCH_RESULTS_PER_PAGE": "search.results_per_page",
	"search.per_page":                  "search.results_per_page",
	"search.searchqueryset_filters":    "search.filters",
}

type Config struct {
	config *viper.Viper
}

func Load() (*Config, error) {

	env := os.Getenv(keyEnv)
	if len(env) == 0 {
		env = envLocal
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	setDefaults(viperConfig)
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}
	cfg.migrateDeprecatedKeys()

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("log.level", "info")
	v.SetDefault("search.backend", BackendBleve)
	v.SetDefault("search.results_per_page", defaultResultsPerPage)
	v.SetDefault("search.max_results_per_page", defaultMaxResultsPerPage)
	v.SetDefault("search.load_all", true)
	v.SetDefault("search.include_spelling", true)
}

// migrateDeprecatedKeys copies values set under a deprecated key onto the current key,
// unless the current key was set explicitly. It runs once, at load time.
func (c *Config) migrateDeprecatedKeys() {
	oldKeys := make([]string, 0, len(deprecatedKeys))
	for oldKey := range deprecatedKeys {
		oldKeys = append(oldKeys, oldKey)
	}
	sort.Strings(oldKeys)

	for _, oldKey := range oldKeys {
		newKey := deprecatedKeys[oldKey]
		if !c.config.IsSet(oldKey) {
			continue
		}
		if c.config.InConfig(newKey) {
			slog.Warn("config key is deprecated and ignored, the replacement key is set in the config file", "deprecated", oldKey, "replacement", newKey)
			continue
		}
		slog.Warn("config key is deprecated, use the replacement key instead", "deprecated", oldKey, "replacement", newKey)
		c.config.Set(newKey, c.config.Get(oldKey))
	}
}

func (c *Config) GetPort() string {
	port := c.config.GetString("PORT")
	if len(port) == 0 {
		port = c.config.GetString("server.port")
	}

	return port
}

func (c *Config) GetLogLevel() string {
	level := c.config.GetString("LOG_LEVEL")
	if len(level) == 0 {
		level = c.config.GetString("log.level")
	}

	return level
}

func (c *Config) GetKVDBPath() string {
	kvdbPath := c.config.GetString("KVDB_PATH")
	if len(kvdbPath) == 0 {
		kvdbPath = c.config.GetString("database.kvdb_path")
	}

	return kvdbPath
}

func (c *Config) GetIndexPath() string {
	indexPath := c.config.GetString("INDEX_PATH")
	if len(indexPath) == 0 {
		indexPath = c.config.GetString("database.index_path")
	}

	return indexPath
}

func (c *Config) GetStoragePath() string {
	storagePath := c.config.GetString("STORAGE_PATH")
	if len(storagePath) == 0 {
		storagePath = c.config.GetString("database.storage_path")
	}

	return storagePath
}

func (c *Config) GetSearchBackend() string {
	backend := c.config.GetString("SEARCH_BACKEND")
	if len(backend) == 0 {
		backend = c.config.GetString("search.backend")
	}

	return backend
}

func (c *Config) GetResultsPerPage() int {
	if c.config.IsSet("RESULTS_PER_PAGE") {
		return c.config.GetInt("RESULTS_PER_PAGE")
	}

	return c.config.GetInt("search.results_per_page")
}

func (c *Config) GetMaxResultsPerPage() int {
	if c.config.IsSet("MAX_RESULTS_PER_PAGE") {
		return c.config.GetInt("MAX_RESULTS_PER_PAGE")
	}

	return c.config.GetInt("search.max_results_per_page")
}

func (c *Config) GetLoadAll() bool {
	if c.config.IsSet("LOAD_ALL") {
		return c.config.GetBool("LOAD_ALL")
	}

	return c.config.GetBool("search.load_all")
}

func (c *Config) GetIncludeSpelling() bool {
	if c.config.IsSet("INCLUDE_SPELLING") {
		return c.config.GetBool("INCLUDE_SPELLING")
	}

	return c.config.GetBool("search.include_spelling")
}

// GetSearchFilters returns the field/value pairs every query is restricted to.
func (c *Config) GetSearchFilters() map[string]string {
	return c.config.GetStringMapString("search.filters")
}

// GetPrepareFields returns the output key to lookup path mapping used to prepare results.
func (c *Config) GetPrepareFields() map[string]string {
	return c.config.GetStringMapString("search.fields")
}

func (c *Config) GetAlgoliaAppID() string {
	appID := c.config.GetString("ALGOLIA_APP_ID")
	if len(appID) == 0 {
		appID = c.config.GetString("algolia.app_id")
	}

	return appID
}

func (c *Config) GetAlgoliaAPIKey() string {
	apiKey := c.config.GetString("ALGOLIA_API_KEY")
	if len(apiKey) == 0 {
		apiKey = c.config.GetString("algolia.api_key")
	}

	return apiKey
}

func (c *Config) GetAlgoliaIndex() string {
	index := c.config.GetString("ALGOLIA_INDEX")
	if len(index) == 0 {
		index = c.config.GetString("algolia.index")
	}

	return index
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}

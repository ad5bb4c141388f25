// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"app.environment":         "APP_ENVIRONMENT",
	"lark.app_id":             "LARK_APP_ID",
	"lark.app_secret":         "LARK_APP_SECRET",
	"lark.base_app_token":     "LARK_BASE_APP_TOKEN",
	"lark.table_id":           "LARK_TABLE_ID",
	"lark.domain":             "LARK_DOMAIN",
	"lark.timeout":            "LARK_TIMEOUT",
	"redis.address":           "REDIS_ADDRESS",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"logging.level":           "LOG_LEVEL",
	"logging.format":          "LOG_FORMAT",
	"metrics.pushgateway_url": "METRICS_PUSHGATEWAY_URL",
	"metrics.job":             "METRICS_JOB",
	"tracing.exporter":        "TRACING_EXPORTER",
}

// Load reads configs/config.yaml (if present), the config.<env>.yaml
// overlay and the environment. Missing Lark credentials are not an error
// here; they fail when a client is constructed.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in YAML values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "lark-ats"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Lark.Domain == "" {
		cfg.Lark.Domain = DomainLark
	}
	if cfg.Lark.Timeout == 0 {
		cfg.Lark.Timeout = 30000
	}
	if cfg.Lark.PageSize == 0 {
		cfg.Lark.PageSize = 100
	}

	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "lark-ats"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = cfg.App.Name
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = TracingExporterLog
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Lark.Timeout < 0 {
		return fmt.Errorf("lark.timeout must be positive")
	}
	if cfg.Lark.PageSize < 0 || cfg.Lark.PageSize > 500 {
		return fmt.Errorf("lark.page_size must be between 1 and 500")
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}
	switch cfg.Tracing.Exporter {
	case TracingExporterNone, TracingExporterLog:
	default:
		return fmt.Errorf("tracing.exporter must be none or log")
	}
	return nil
}

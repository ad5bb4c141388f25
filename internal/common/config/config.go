// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Lark    LarkConfig    `mapstructure:"lark"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LarkConfig holds the credentials and destination of the Base app.
// AppID and AppSecret are only enforced when a Lark client is built.
type LarkConfig struct {
	AppID        string `mapstructure:"app_id" validate:"required"`
	AppSecret    string `mapstructure:"app_secret" validate:"required"`
	BaseAppToken string `mapstructure:"base_app_token"`
	TableID      string `mapstructure:"table_id"`
	Domain       string `mapstructure:"domain"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	PageSize     int    `mapstructure:"page_size"`
}

const (
	DomainLark   = "lark"
	DomainFeishu = "feishu"

	larkBaseURL   = "https://open.larksuite.com"
	feishuBaseURL = "https://open.feishu.cn"
)

// BaseURL resolves Domain to an API origin. Anything other than the two
// named domains is treated as an explicit URL.
func (l LarkConfig) BaseURL() string {
	switch strings.ToLower(strings.TrimSpace(l.Domain)) {
	case "", DomainLark:
		return larkBaseURL
	case DomainFeishu:
		return feishuBaseURL
	default:
		return strings.TrimSuffix(l.Domain, "/")
	}
}

// RedisConfig enables the shared tenant token cache when Address is set.
type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig points the CLIs at a Prometheus Pushgateway. The commands
// exit after one operation, so metrics are pushed rather than scraped.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

func (m MetricsConfig) Enabled() bool {
	return m.PushgatewayURL != ""
}

const (
	TracingExporterNone = "none"
	TracingExporterLog  = "log"
)

// TracingConfig selects where finished spans go. "log" writes them through
// the structured logger at debug level.
type TracingConfig struct {
	Exporter string `mapstructure:"exporter"`
}

func (c *Config) String() string {
	return fmt.Sprintf("app=%s env=%s lark.domain=%s lark.table_id=%s redis=%t",
		c.App.Name, c.App.Environment, c.Lark.Domain, c.Lark.TableID, c.Redis.Enabled())
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

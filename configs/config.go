// Package configs provides configuration structures and utilities for productdash.
// It offers mechanisms for loading, validating, and saving configuration from various sources
// including JSON and YAML files. The configuration covers the remote product service,
// the dashboard, the page cache, the HTTP surfaces and logging.
//
// Package configs 提供productdash的配置结构和工具。
// 它提供从各种来源（包括JSON和YAML文件）加载、验证和保存配置的机制。
// 配置涵盖远程产品服务、仪表盘、页面缓存、HTTP接口和日志。
package configs

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Humphrey-He/productdash/pkg/cache"
	"github.com/Humphrey-He/productdash/pkg/codec"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for productdash.
//
// Config 表示productdash的完整配置。
type Config struct {
	// Service locates the remote product resource
	// Service 定位远程产品资源
	Service ServiceConfig `json:"service" yaml:"service" mapstructure:"service"`

	// Dashboard configures the state manager
	// Dashboard 配置状态管理器
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard" mapstructure:"dashboard"`

	// Cache configures the store behind the query cache
	// Cache 配置查询缓存背后的存储
	Cache CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`

	// Server configures the dashboard HTTP surface
	// Server 配置仪表盘HTTP接口
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`

	// MockService configures the local stand-in for the remote service
	// MockService 配置远程服务的本地替身
	MockService MockServiceConfig `json:"mock_service" yaml:"mock_service" mapstructure:"mock_service"`

	// Metrics configures the metrics endpoint
	// Metrics 配置指标端点
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`

	// Log configures the logging behavior
	// Log 配置日志行为
	Log LogConfig `json:"log" yaml:"log" mapstructure:"log"`

	// Extensions configures optional features like hot reloading
	// Extensions 配置可选功能，如热重载
	Extensions ExtensionsConfig `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
}

// ServiceConfig locates the remote product service.
//
// ServiceConfig 定位远程产品服务。
type ServiceConfig struct {
	// BaseURL is the service root, e.g. https://dummyjson.com
	// BaseURL 是服务根地址，例如 https://dummyjson.com
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Resource is the collection path segment
	// Resource 是集合路径段
	Resource string `json:"resource" yaml:"resource" mapstructure:"resource"`

	// Delay is an artificial pause before every call (0 = none)
	// Delay 是每次调用前的人为停顿（0 = 无）
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// Timeout bounds each call (0 = unbounded)
	// Timeout 限制每次调用的时长（0 = 不限制）
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DashboardConfig configures the state manager.
type DashboardConfig struct {
	// PageSize is the number of products per page
	// PageSize 是每页的产品数量
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`
}

// CacheConfig contains settings for the page store.
//
// CacheConfig 包含页面存储的设置。
type CacheConfig struct {
	// Name is the identifier for this cache instance
	// Name 是此缓存实例的标识符
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Backend is "memory" or "redis"
	// Backend 为 "memory" 或 "redis"
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// MaxEntries is the maximum number of pages the memory store holds (0 = unlimited)
	// MaxEntries 是内存存储可容纳的最大页面数（0 = 无限制）
	MaxEntries int `json:"max_entries" yaml:"max_entries" mapstructure:"max_entries"`

	// DefaultTTL is how long a fetched page stays usable (0 = until invalidated)
	// DefaultTTL 是获取的页面保持可用的时长（0 = 直到失效）
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`

	// RedisAddr is the redis address for the redis backend
	// RedisAddr 是redis后端的地址
	RedisAddr string `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`

	// Prefix namespaces redis keys
	// Prefix 为redis键添加命名空间
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Codec is the redis value encoding, "json" or "gob"
	// Codec 是redis值的编码方式，"json" 或 "gob"
	Codec string `json:"codec" yaml:"codec" mapstructure:"codec"`
}

// ServerConfig configures the dashboard HTTP surface.
type ServerConfig struct {
	// Addr is the listen address
	// Addr 是监听地址
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ShutdownTimeout bounds graceful shutdown
	// ShutdownTimeout 限制优雅关闭的时长
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// MockServiceConfig configures the local product service stand-in.
type MockServiceConfig struct {
	// Addr is the listen address
	// Addr 是监听地址
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Latency is added to every request
	// Latency 添加到每个请求
	Latency time.Duration `json:"latency" yaml:"latency" mapstructure:"latency"`

	// Seed is the number of products created at start
	// Seed 是启动时创建的产品数量
	Seed int `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// MetricsConfig contains settings for metrics exposition.
//
// MetricsConfig 包含指标暴露的设置。
type MetricsConfig struct {
	// Enable determines whether the metrics endpoint is served
	// Enable 确定是否提供指标端点
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`

	// Path is the route of the Prometheus text endpoint
	// Path 是Prometheus文本端点的路由
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig contains settings for logging.
// These settings control the logging behavior, including
// log level, format, and output destination.
//
// LogConfig 包含日志记录的设置。
// 这些设置控制日志行为，包括日志级别、格式和输出目的地。
type LogConfig struct {
	// Level sets the minimum log level ("debug", "info", "warn", "error")
	// Level 设置最低日志级别（"debug"、"info"、"warn"、"error"）
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format specifies the log format ("text", "json")
	// Format 指定日志格式（"text"、"json"）
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output determines where logs are written ("stdout", "stderr", "file")
	// Output 确定日志写入的位置（"stdout"、"stderr"、"file"）
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// FilePath is the path to the log file when Output is "file"
	// FilePath 是当Output为"file"时的日志文件路径
	FilePath string `json:"file_path" yaml:"file_path" mapstructure:"file_path"`
}

// ExtensionsConfig contains settings for extensions.
//
// ExtensionsConfig 包含扩展的设置。
type ExtensionsConfig struct {
	// HotReload contains settings for dynamic configuration reloading
	// HotReload 包含动态配置重新加载的设置
	HotReload HotReloadConfig `json:"hot_reload" yaml:"hot_reload" mapstructure:"hot_reload"`
}

// HotReloadConfig contains settings for hot reloading.
//
// HotReloadConfig 包含热重载的设置。
type HotReloadConfig struct {
	// Enable determines whether hot reloading is active
	// Enable 确定是否启用热重载
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`
}

// DefaultConfig returns a new Config with default values.
// This provides a starting point for configuration with reasonable defaults
// for all settings, which can then be customized as needed.
//
// DefaultConfig 返回具有默认值的新Config。
// 这为所有设置提供了具有合理默认值的配置起点，
// 然后可以根据需要进行自定义。
//
// Returns:
//   - *Config: A new configuration instance with default values
//
// 返回：
//   - *Config: 具有默认值的新配置实例
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:  "https://dummyjson.com",
			Resource: "products",
			Delay:    0,
			Timeout:  10 * time.Second,
		},
		Dashboard: DashboardConfig{
			PageSize: 10,
		},
		Cache: CacheConfig{
			Name:       "productdash",
			Backend:    cache.BackendMemory,
			MaxEntries: 1000,
			DefaultTTL: 5 * time.Minute,
			RedisAddr:  "localhost:6379",
			Prefix:     "productdash:",
			Codec:      "json",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		MockService: MockServiceConfig{
			Addr:    ":8081",
			Latency: 300 * time.Millisecond,
			Seed:    100,
		},
		Metrics: MetricsConfig{
			Enable: true,
			Path:   "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Extensions: ExtensionsConfig{
			HotReload: HotReloadConfig{
				Enable: false,
			},
		},
	}
}

// LoadFromFile loads configuration from a file.
// It supports both YAML and JSON formats, automatically
// detecting the format based on the file extension.
//
// LoadFromFile 从文件加载配置。
// 它支持YAML和JSON格式，根据文件扩展名自动检测格式。
//
// Parameters:
//   - filename: Path to the configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if loading fails
func LoadFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer file.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "yaml", "yml", "json":
	default:
		return nil, fmt.Errorf("unsupported configuration file format: .%s", ext)
	}
	return LoadFromReader(file, ext)
}

// LoadFromReader loads configuration from an io.Reader.
// Fields absent from the input keep their defaults.
//
// LoadFromReader 从io.Reader加载配置。输入中缺少的字段保持默认值。
//
// Parameters:
//   - r: The reader providing the configuration data
//   - format: The format of the data ("json", "yaml", or "yml")
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if loading fails
func LoadFromReader(r io.Reader, format string) (*Config, error) {
	config := DefaultConfig()
	var err error

	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.NewDecoder(r).Decode(config)
	case "json":
		err = json.NewDecoder(r).Decode(config)
	default:
		return nil, fmt.Errorf("unsupported configuration format: %s", format)
	}

	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
// It supports both YAML and JSON formats, automatically
// selecting the format based on the file extension.
//
// SaveToFile 将配置保存到文件。
// 它支持YAML和JSON格式，根据文件扩展名自动选择格式。
func (c *Config) SaveToFile(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".yaml", ".yml", ".json":
	default:
		return fmt.Errorf("unsupported configuration file format: %s", ext)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer file.Close()

	if ext == ".json" {
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(c)
	} else {
		encoder := yaml.NewEncoder(file)
		defer encoder.Close()
		err = encoder.Encode(c)
	}
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return nil
}

// Validate validates the configuration.
// It checks that all settings have valid values and
// that there are no conflicts or inconsistencies.
//
// Validate 验证配置。
// 它检查所有设置是否具有有效值，并且没有冲突或不一致。
//
// Returns:
//   - error: An error describing the validation failure, or nil if valid
func (c *Config) Validate() error {
	// Validate service settings
	// 验证服务设置
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("service.base_url must be an absolute URL")
	}
	if c.Service.Resource == "" || strings.Contains(c.Service.Resource, "/") {
		return fmt.Errorf("service.resource must be a single path segment")
	}
	if c.Service.Delay < 0 || c.Service.Timeout < 0 {
		return fmt.Errorf("service.delay and service.timeout must be non-negative")
	}

	if c.Dashboard.PageSize <= 0 {
		return fmt.Errorf("dashboard.page_size must be positive")
	}

	// Validate cache settings
	// 验证缓存设置
	if err := c.Cache.Options().Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl must be non-negative")
	}
	if _, err := codec.GetCodec(c.Cache.Codec); err != nil {
		return fmt.Errorf("cache.codec: %w", err)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.MockService.Seed < 0 || c.MockService.Latency < 0 {
		return fmt.Errorf("mock_service.seed and mock_service.latency must be non-negative")
	}
	if c.Metrics.Enable && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	// Validate log settings
	// 验证日志设置
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be one of: text, json")
	}
	switch c.Log.Output {
	case "stdout", "stderr", "file":
	default:
		return fmt.Errorf("log.output must be one of: stdout, stderr, file")
	}
	if c.Log.Output == "file" && c.Log.FilePath == "" {
		return fmt.Errorf("log.file_path must be specified when log.output is 'file'")
	}

	return nil
}

// Options converts the cache section into a pkg/cache configuration.
// An unknown codec name falls back to JSON; Validate reports it.
//
// Options 将缓存部分转换为pkg/cache配置。
func (c CacheConfig) Options() *cache.Config {
	cd, err := codec.GetCodec(c.Codec)
	if err != nil {
		cd = codec.DefaultCodec()
	}
	return &cache.Config{
		Name:       c.Name,
		Backend:    c.Backend,
		MaxEntries: c.MaxEntries,
		DefaultTTL: c.DefaultTTL,
		RedisAddr:  c.RedisAddr,
		Prefix:     c.Prefix,
		Codec:      cd,
	}
}

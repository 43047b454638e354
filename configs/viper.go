// Package configs provides configuration structures and utilities for productdash.
// This file implements Viper-based configuration management with environment
// overrides and hot reloading support.
//
// Package configs 提供productdash的配置结构和工具。
// 本文件实现基于Viper的配置管理，支持环境变量覆盖和热重载。
package configs

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PRODUCTDASH_SERVICE_BASE_URL.
const EnvPrefix = "PRODUCTDASH"

// ViperConfig wraps a Config with Viper functionality for hot reloading.
// It provides thread-safe access to configuration and supports dynamic
// updates when the underlying configuration file changes.
//
// ViperConfig 使用Viper功能包装Config以支持热重载。
// 它提供对配置的线程安全访问，并支持在底层配置文件更改时进行动态更新。
type ViperConfig struct {
	*Config                     // Embedded configuration / 嵌入的配置
	viper       *viper.Viper    // Viper instance for configuration management / 用于配置管理的Viper实例
	configFile  string          // Path to the configuration file / 配置文件路径
	logger      *slog.Logger    // Reload diagnostics / 重载诊断日志
	mu          sync.RWMutex    // Mutex for thread-safe access / 用于线程安全访问的互斥锁
	subscribers []func(*Config) // List of subscribers to notify on config changes / 配置更改时要通知的订阅者列表
}

// NewViperConfig creates a new ViperConfig.
// It layers defaults, the optional file and PRODUCTDASH_* environment
// variables, then validates the result. An empty configFile skips the file.
//
// NewViperConfig 创建一个新的ViperConfig。
// 它依次叠加默认值、可选的配置文件和PRODUCTDASH_*环境变量，然后验证结果。
// configFile为空时跳过文件。
//
// Parameters:
//   - configFile: Path to the configuration file, may be empty
//
// Returns:
//   - *ViperConfig: A new ViperConfig instance
//   - error: An error if loading or validation fails
//
// 参数：
//   - configFile: 配置文件的路径，可以为空
//
// 返回：
//   - *ViperConfig: 一个新的ViperConfig实例
//   - error: 如果加载或验证失败则返回错误
func NewViperConfig(configFile string) (*ViperConfig, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(configFile), "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	return &ViperConfig{
		Config:      config,
		viper:       v,
		configFile:  configFile,
		logger:      slog.Default(),
		subscribers: make([]func(*Config), 0),
	}, nil
}

func decode(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// setDefaults registers every key so environment variables override keys
// missing from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("service.base_url", d.Service.BaseURL)
	v.SetDefault("service.resource", d.Service.Resource)
	v.SetDefault("service.delay", d.Service.Delay)
	v.SetDefault("service.timeout", d.Service.Timeout)

	v.SetDefault("dashboard.page_size", d.Dashboard.PageSize)

	v.SetDefault("cache.name", d.Cache.Name)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("cache.default_ttl", d.Cache.DefaultTTL)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("cache.codec", d.Cache.Codec)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("mock_service.addr", d.MockService.Addr)
	v.SetDefault("mock_service.latency", d.MockService.Latency)
	v.SetDefault("mock_service.seed", d.MockService.Seed)

	v.SetDefault("metrics.enable", d.Metrics.Enable)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.file_path", d.Log.FilePath)

	v.SetDefault("extensions.hot_reload.enable", d.Extensions.HotReload.Enable)
}

// SetLogger replaces the logger used for reload diagnostics.
func (vc *ViperConfig) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	vc.mu.Lock()
	vc.logger = logger
	vc.mu.Unlock()
}

// EnableHotReload enables hot reloading of the configuration file.
// When the configuration file changes, the configuration is automatically
// reloaded and all subscribers are notified. An invalid file is logged and
// the previous configuration stays in effect.
//
// EnableHotReload 启用配置文件的热重载。
// 当配置文件更改时，配置会自动重新加载，并通知所有订阅者。
// 无效的文件会被记录，之前的配置继续生效。
func (vc *ViperConfig) EnableHotReload() {
	if vc.configFile == "" {
		return
	}
	vc.viper.OnConfigChange(func(e fsnotify.Event) {
		vc.reload(e.Name)
	})
	vc.viper.WatchConfig()
}

func (vc *ViperConfig) reload(name string) {
	vc.mu.RLock()
	logger := vc.logger
	vc.mu.RUnlock()

	logger.Info("config file changed", "file", name)
	newConfig, err := decode(vc.viper)
	if err != nil {
		logger.Warn("config reload rejected", "error", err)
		return
	}

	vc.mu.Lock()
	vc.Config = newConfig
	subscribers := make([]func(*Config), len(vc.subscribers))
	copy(subscribers, vc.subscribers)
	vc.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber(newConfig)
	}
}

// Subscribe adds a subscriber that will be notified when the configuration changes.
// The subscriber function is called with the new configuration as its argument.
//
// Subscribe 添加一个在配置更改时将被通知的订阅者。
// 订阅者函数将以新配置作为其参数被调用。
//
// Parameters:
//   - subscriber: A function to call when the configuration changes
func (vc *ViperConfig) Subscribe(subscriber func(*Config)) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.subscribers = append(vc.subscribers, subscriber)
}

// Get returns the current configuration.
// This method is thread-safe and can be called concurrently.
//
// Get 返回当前配置。
// 此方法是线程安全的，可以并发调用。
func (vc *ViperConfig) Get() *Config {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.Config
}

// LoadViperConfig loads a configuration using Viper.
// Hot reloading is enabled when enableHotReload is set or the loaded
// configuration asks for it.
//
// LoadViperConfig 使用Viper加载配置。
// 当enableHotReload为true或加载的配置要求时启用热重载。
//
// Parameters:
//   - configFile: Path to the configuration file, may be empty
//   - enableHotReload: Whether to enable hot reloading
//
// Returns:
//   - *ViperConfig: A new ViperConfig instance
//   - error: An error if loading fails
func LoadViperConfig(configFile string, enableHotReload bool) (*ViperConfig, error) {
	vc, err := NewViperConfig(configFile)
	if err != nil {
		return nil, err
	}

	if enableHotReload || vc.Config.Extensions.HotReload.Enable {
		vc.EnableHotReload()
	}

	return vc, nil
}

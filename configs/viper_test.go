// Package configs provides configuration structures and utilities for productdash.
// This file contains tests for the Viper-based configuration functionality.
//
// Package configs 提供productdash的配置结构和工具。
// 本文件包含基于Viper的配置功能的测试。
package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// TestViperConfigFromFile verifies that values are read from a YAML file
// and that missing keys keep their defaults.
//
// TestViperConfigFromFile 验证从YAML文件读取值，缺少的键保持默认值。
func TestViperConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
service:
  base_url: "http://localhost:8081"
  delay: 2s
dashboard:
  page_size: 20
cache:
  default_ttl: 30s
`)

	vc, err := NewViperConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	config := vc.Get()

	if config.Service.BaseURL != "http://localhost:8081" {
		t.Errorf("Expected base url from file, got %s", config.Service.BaseURL)
	}
	if config.Service.Delay != 2*time.Second {
		t.Errorf("Expected delay 2s, got %v", config.Service.Delay)
	}
	if config.Dashboard.PageSize != 20 {
		t.Errorf("Expected page size 20, got %d", config.Dashboard.PageSize)
	}
	if config.Cache.DefaultTTL != 30*time.Second {
		t.Errorf("Expected ttl 30s, got %v", config.Cache.DefaultTTL)
	}
	if config.Service.Resource != "products" {
		t.Errorf("Expected default resource, got %s", config.Service.Resource)
	}
}

// TestViperConfigEnvOverride verifies PRODUCTDASH_* variables win over the file.
//
// TestViperConfigEnvOverride 验证PRODUCTDASH_*环境变量优先于配置文件。
func TestViperConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "dashboard:\n  page_size: 20\n")

	t.Setenv("PRODUCTDASH_DASHBOARD_PAGE_SIZE", "7")
	t.Setenv("PRODUCTDASH_SERVICE_RESOURCE", "items")
	t.Setenv("PRODUCTDASH_MOCK_SERVICE_LATENCY", "50ms")

	vc, err := NewViperConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	config := vc.Get()
	if config.Dashboard.PageSize != 7 {
		t.Errorf("Expected page size 7 from env, got %d", config.Dashboard.PageSize)
	}
	if config.Service.Resource != "items" {
		t.Errorf("Expected resource from env, got %s", config.Service.Resource)
	}
	if config.MockService.Latency != 50*time.Millisecond {
		t.Errorf("Expected latency 50ms, got %v", config.MockService.Latency)
	}
}

// TestViperConfigWithoutFile verifies defaults load when no file is given.
func TestViperConfigWithoutFile(t *testing.T) {
	vc, err := NewViperConfig("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if vc.Get().Server.Addr != ":8080" {
		t.Errorf("Expected default server addr, got %s", vc.Get().Server.Addr)
	}
}

// TestViperConfigRejectsInvalid verifies validation runs after decoding.
func TestViperConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "dashboard:\n  page_size: 0\n")
	if _, err := NewViperConfig(path); err == nil {
		t.Error("Expected error for zero page size")
	}
	if _, err := NewViperConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

// TestReloadNotifiesSubscribers checks that a valid change replaces the
// configuration and reaches subscribers while an invalid one is ignored.
//
// TestReloadNotifiesSubscribers 检查有效的更改会替换配置并通知订阅者，
// 无效的更改被忽略。
func TestReloadNotifiesSubscribers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "dashboard:\n  page_size: 10\n")

	vc, err := NewViperConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	var got []int
	vc.Subscribe(func(c *Config) { got = append(got, c.Dashboard.PageSize) })

	writeFile(t, path, "dashboard:\n  page_size: 15\n")
	if err := vc.viper.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	vc.reload(path)

	writeFile(t, path, "dashboard:\n  page_size: -1\n")
	if err := vc.viper.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	vc.reload(path)

	if len(got) != 1 || got[0] != 15 {
		t.Errorf("Expected one notification with 15, got %v", got)
	}
	if vc.Get().Dashboard.PageSize != 15 {
		t.Errorf("Expected current page size 15, got %d", vc.Get().Dashboard.PageSize)
	}
}

// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIBaseURL     string
	RequestTimeout time.Duration

	// Rate Limit（クライアント側の自己抑制）
	RateLimitPerMin int
	RateLimitBurst  int

	// Credential Store
	CredentialDBPath string

	// Asset Fetch（プロフィール画像等の外部リソース取得）
	AssetFetchTimeout time.Duration
	AssetMaxSize      int64
	AssetCacheDir     string

	// Metrics（空の場合は無効）
	MetricsAddr string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.APIBaseURL = os.Getenv("INTERNLINK_API_BASE_URL")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "INTERNLINK_API_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	// 末尾スラッシュはパス結合時に二重になるため除去する
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	// Optional fields with defaults
	var err error

	cfg.RequestTimeout, err = getEnvDuration("INTERNLINK_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.RateLimitPerMin, err = getEnvInt("INTERNLINK_RATE_LIMIT_PER_MIN", 120)
	if err != nil {
		return nil, err
	}

	cfg.RateLimitBurst, err = getEnvInt("INTERNLINK_RATE_LIMIT_BURST", 30)
	if err != nil {
		return nil, err
	}

	cfg.CredentialDBPath = os.Getenv("INTERNLINK_CREDENTIALS_PATH")
	if cfg.CredentialDBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.CredentialDBPath = filepath.Join(home, ".internlink", "credentials.db")
	}

	cfg.AssetFetchTimeout, err = getEnvDuration("INTERNLINK_ASSET_FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.AssetMaxSize, err = getEnvInt64("INTERNLINK_ASSET_MAX_SIZE", 5*1024*1024)
	if err != nil {
		return nil, err
	}

	cfg.AssetCacheDir = os.Getenv("INTERNLINK_ASSET_CACHE_DIR")
	if cfg.AssetCacheDir == "" {
		cfg.AssetCacheDir = filepath.Join(filepath.Dir(cfg.CredentialDBPath), "assets")
	}

	cfg.MetricsAddr = os.Getenv("INTERNLINK_METRICS_ADDR")

	cfg.LogLevel = os.Getenv("INTERNLINK_LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// getEnvInt は環境変数を整数として読み込む。未設定の場合はデフォルト値を返す。
func getEnvInt(key string, defaultVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", key, s)
	}
	return v, nil
}

// getEnvInt64 は環境変数を64ビット整数として読み込む。未設定の場合はデフォルト値を返す。
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", key, s)
	}
	return v, nil
}

// getEnvDuration は環境変数をtime.Durationとして読み込む。未設定の場合はデフォルト値を返す。
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, s)
	}
	return v, nil
}

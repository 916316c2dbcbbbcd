// Package config loads the pipeline's configuration from environment
// variables (and an optional .env file) into one explicit struct, per
// SPEC_FULL.md §2/§9: "Global config object -> explicit config struct
// enumerating every recognized setting."
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config enumerates every tunable the pipeline recognizes. Each field has a
// fixed default; a named subset is overridable via environment variables.
type Config struct {
	// LLM provider (DeepSeek, OpenAI-compatible).
	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string

	APIMaxRetries int
	APIRetryDelay time.Duration
	APITimeout    time.Duration

	RequestTimeout time.Duration
	RequestDelay   time.Duration

	MaxContentLength          int
	TitleSimilarityThreshold  float64
	MaxNewsPerCategory        int
	ClusterSimilarityThreshold float64
	ClusterMinArticles        int
	ClusterTimeWindowHours    int
	MaxCandidateTopics        int
	ArchiveRetainDays         int
	TranslateFreeTimeout      time.Duration
	TranslateBatchSize        int
	SummarizeBatchSize        int
	DedupTitleThreshold       float64

	// Downstream publisher credentials; empty means "skip, with a warning".
	WeChatAppID        string
	WeChatAppSecret    string
	WeComWebhookURL    string
	FeishuAppID        string
	FeishuAppSecret    string
	FeishuBitableToken string
	FeishuTableID      string

	SharedDataDir string
	LogLevel      string

	DataDir string
}

// Defaults returns the fixed defaults named in spec.md §9's settings table.
func Defaults() *Config {
	return &Config{
		DeepSeekBaseURL: "https://api.deepseek.com/v1",
		DeepSeekModel:   "deepseek-chat",

		APIMaxRetries: 3,
		APIRetryDelay: 2 * time.Second,
		APITimeout:    60 * time.Second,

		RequestTimeout: 30 * time.Second,
		RequestDelay:   1 * time.Second,

		MaxContentLength:          3000,
		TitleSimilarityThreshold:  0.8,
		MaxNewsPerCategory:        10,
		ClusterSimilarityThreshold: 0.58,
		ClusterMinArticles:        4,
		ClusterTimeWindowHours:    28,
		MaxCandidateTopics:        8,
		ArchiveRetainDays:         45,
		TranslateFreeTimeout:      8 * time.Second,
		TranslateBatchSize:        5,
		SummarizeBatchSize:        2,
		DedupTitleThreshold:       0.8,

		SharedDataDir: "data",
		LogLevel:      "info",
		DataDir:       "data",
	}
}

// Load reads an optional .env file, binds the recognized environment
// variables from spec.md §6 over the defaults, and returns the result.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	cfg := Defaults()

	cfg.DeepSeekAPIKey = envOr("DEEPSEEK_API_KEY", cfg.DeepSeekAPIKey)
	cfg.DeepSeekBaseURL = envOr("DEEPSEEK_BASE_URL", cfg.DeepSeekBaseURL)
	cfg.DeepSeekModel = envOr("DEEPSEEK_MODEL", cfg.DeepSeekModel)

	cfg.WeChatAppID = envOr("WECHAT_APP_ID", cfg.WeChatAppID)
	cfg.WeChatAppSecret = envOr("WECHAT_APP_SECRET", cfg.WeChatAppSecret)
	cfg.WeComWebhookURL = envOr("WECOM_WEBHOOK_URL", cfg.WeComWebhookURL)
	cfg.FeishuAppID = envOr("FEISHU_APP_ID", cfg.FeishuAppID)
	cfg.FeishuAppSecret = envOr("FEISHU_APP_SECRET", cfg.FeishuAppSecret)
	cfg.FeishuBitableToken = envOr("FEISHU_BITABLE_TOKEN", cfg.FeishuBitableToken)
	cfg.FeishuTableID = envOr("FEISHU_TABLE_ID", cfg.FeishuTableID)

	cfg.SharedDataDir = envOr("SHARED_DATA_DIR", cfg.SharedDataDir)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	if n, ok := envInt("API_MAX_RETRIES"); ok {
		cfg.APIMaxRetries = n
	}
	if d, ok := envSeconds("API_RETRY_DELAY"); ok {
		cfg.APIRetryDelay = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envSeconds(key string) (time.Duration, bool) {
	n, ok := envInt(key)
	if !ok {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/travel-tavern/backend/internal/service/ai/groq"
)

// LLM providers understood by AIConfig.
const (
	ProviderGroq = "groq"
	ProviderArk  = "ark"
)

// Store drivers understood by StoreConfig.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Store    StoreConfig
	Traveler TravelerConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	traveler := TravelerConfig{
		CSVPath: getEnvOrDefault("TRAVELER_CSV", "TravelPreference.csv"),
	}

	return &Config{Server: server, AI: ai, Store: store, Traveler: traveler}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	SessionCookie  string
	SanitizeHTML   bool
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	addr, err := parseAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}

	rps := 2.0
	if override, err := parseOptionalFloatEnv("RATE_LIMIT_RPS"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		rps = *override
	}

	burst := 5
	if override, err := parseOptionalIntEnv("RATE_LIMIT_BURST"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		burst = *override
	}

	sanitize, err := parseBoolEnv("SANITIZE_HTML", true)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Addr:           addr,
		CORSOrigins:    splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		SessionCookie:  getEnvOrDefault("SESSION_COOKIE", "travelchat_session"),
		SanitizeHTML:   sanitize,
	}, nil
}

func parseAddr(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	// Groq (OpenAI compatible) settings.
	GroqAPIKey       string
	GroqBaseURL      string
	GroqModel        string
	GroqEnabledTools []string

	// Ark settings.
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string

	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	// HistoryLimit 每轮请求携带的历史消息条数；零值表示默认的 10 条
	HistoryLimit   int
	Timeout        time.Duration
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGroq:
		return c.GroqAPIKey != "" && c.GroqModel != ""
	case ProviderArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	default:
		return false
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s credentials or model missing", c.Provider)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	if c.Provider == ProviderGroq {
		return groq.NewChatModel(ctx, &groq.Config{
			BaseURL:      c.GroqBaseURL,
			APIKey:       c.GroqAPIKey,
			Model:        c.GroqModel,
			Temperature:  temperature,
			TopP:         topP,
			MaxTokens:    maxTokens,
			EnabledTools: c.GroqEnabledTools,
			Timeout:      c.Timeout,
		})
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		temperature = floatPtr(1)
	}

	topP, err := parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}
	if topP == nil {
		topP = floatPtr(1)
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens == nil {
		val := 1024
		maxTokens = &val
	}

	stream, err := parseBoolEnv("LLM_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return AIConfig{}, fmt.Errorf("invalid HISTORY_LIMIT value %d: must be positive", *override)
		}
		historyLimit = *override
	}

	timeout, err := parseDurationEnv("LLM_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:         strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		GroqAPIKey:       strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		GroqBaseURL:      getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:        getEnvOrDefault("GROQ_MODEL", "groq/compound"),
		GroqEnabledTools: splitList(getEnvOrDefault("GROQ_ENABLED_TOOLS", "web_search,code_interpreter,visit_website")),
		APIKey:           strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:        strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:        strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:            strings.TrimSpace(os.Getenv("Model")),
		BaseURL:          getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:           getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:      temperature,
		TopP:             topP,
		MaxTokens:        maxTokens,
		StreamResponse:   stream,
		HistoryLimit:     historyLimit,
		Timeout:          timeout,
	}

	if cfg.Provider == "" {
		cfg.Provider = ProviderGroq
		if cfg.GroqAPIKey == "" && (cfg.APIKey != "" || cfg.AccessKey != "") {
			cfg.Provider = ProviderArk
		}
	}
	if cfg.Provider != ProviderGroq && cfg.Provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", cfg.Provider)
	}

	return cfg, nil
}

// StoreConfig 描述会话存储配置。
type StoreConfig struct {
	Driver     string
	SQLiteDSN  string
	RedisURL   string
	SessionTTL time.Duration
}

func loadStoreConfig() (StoreConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return StoreConfig{}, err
	}

	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverMemory))
	switch driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value %q", driver)
	}

	return StoreConfig{
		Driver:     driver,
		SQLiteDSN:  getEnvOrDefault("SQLITE_DSN", "travelchat.db"),
		RedisURL:   getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL: ttl,
	}, nil
}

// TravelerConfig 指向旅行者偏好数据。
type TravelerConfig struct {
	CSVPath string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func floatPtr(v float64) *float64 {
	return &v
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

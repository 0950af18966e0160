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
)

// AI providers.
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Send policies for concurrent sends on one session.
const (
	SendPolicyReject = "reject"
	SendPolicyQueue  = "queue"
)

// Storage drivers for durable state.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// DefaultAttachmentMaxBytes is the 5 MiB upload ceiling.
const DefaultAttachmentMaxBytes int64 = 5 * 1024 * 1024

// DefaultMaxFramePixels caps decoded camera frames at 4096x4096.
const DefaultMaxFramePixels int64 = 4096 * 4096

// Config 聚合整个服务的配置项。
type Config struct {
	Server     ServerConfig
	AI         AIConfig
	Chat       ChatConfig
	Storage    StorageConfig
	Mood       MoodConfig
	Attachment AttachmentConfig
	Identity   IdentityConfig
	Log        LogConfig
	Metrics    MetricsConfig
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

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	mood, err := loadMoodConfig()
	if err != nil {
		return nil, err
	}

	attachment, err := loadAttachmentConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		AI:         ai,
		Chat:       chat,
		Storage:    storage,
		Mood:       mood,
		Attachment: attachment,
		Identity:   IdentityConfig{GoogleClientID: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))},
		Log:        logCfg,
		Metrics:    MetricsConfig{Enabled: metricsEnabled},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string
	Timeout  time.Duration

	GeminiAPIKey      string
	GeminiChatModel   string
	GeminiTitleModel  string
	GeminiSearchModel string

	ArkAPIKey      string
	ArkAccessKey   string
	ArkSecretKey   string
	ArkModel       string
	ArkBaseURL     string
	ArkRegion      string
	ArkTemperature *float64
	ArkTopP        *float64
	ArkMaxTokens   *int
}

// Enabled 表示当前 provider 是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	case ProviderArk:
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	default:
		return false
	}
}

// NewChatModel 使用 Ark 配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk || !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.ArkTemperature != nil {
		val := float32(*c.ArkTemperature)
		temperature = &val
	}

	var topP *float32
	if c.ArkTopP != nil {
		val := float32(*c.ArkTopP)
		topP = &val
	}

	var maxTokens *int
	if c.ArkMaxTokens != nil {
		val := *c.ArkMaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	geminiKey := firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY")

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	switch provider {
	case "":
		provider = ProviderArk
		if geminiKey != "" {
			provider = ProviderGemini
		}
	case ProviderGemini, ProviderArk:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:          provider,
		Timeout:           timeout,
		GeminiAPIKey:      geminiKey,
		GeminiChatModel:   getEnvOrDefault("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
		GeminiTitleModel:  getEnvOrDefault("GEMINI_TITLE_MODEL", "gemini-3-flash-preview"),
		GeminiSearchModel: getEnvOrDefault("GEMINI_SEARCH_MODEL", "gemini-2.5-flash"),
		ArkAPIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:          strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		ArkTemperature:    temperature,
		ArkTopP:           topP,
		ArkMaxTokens:      maxTokens,
	}, nil
}

// ChatConfig 控制发送行为。
type ChatConfig struct {
	SendPolicy string
}

func loadChatConfig() (ChatConfig, error) {
	policy := strings.ToLower(getEnvOrDefault("CHAT_SEND_POLICY", SendPolicyReject))
	switch policy {
	case SendPolicyReject, SendPolicyQueue:
		return ChatConfig{SendPolicy: policy}, nil
	default:
		return ChatConfig{}, fmt.Errorf("invalid CHAT_SEND_POLICY value %q", policy)
	}
}

// StorageConfig 描述持久化存储。
type StorageConfig struct {
	Driver string
	Path   string
}

func loadStorageConfig() (StorageConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", StorageFile))
	switch driver {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_DRIVER value %q", driver)
	}

	path := strings.TrimSpace(os.Getenv("STORAGE_PATH"))
	if path == "" {
		path = "./data"
		if driver == StorageSQLite {
			path = "./data/mindbloom.db"
		}
	}
	return StorageConfig{Driver: driver, Path: path}, nil
}

// MoodConfig 描述心情日志。
type MoodConfig struct {
	Location *time.Location
	SeedDemo bool
}

func loadMoodConfig() (MoodConfig, error) {
	loc := time.Local
	if name := strings.TrimSpace(os.Getenv("MOOD_TIMEZONE")); name != "" {
		parsed, err := time.LoadLocation(name)
		if err != nil {
			return MoodConfig{}, fmt.Errorf("invalid MOOD_TIMEZONE value %q: %w", name, err)
		}
		loc = parsed
	}

	seed, err := parseBoolEnv("MOOD_SEED_DEMO", false)
	if err != nil {
		return MoodConfig{}, err
	}
	return MoodConfig{Location: loc, SeedDemo: seed}, nil
}

// AttachmentConfig 描述附件上传限制。
type AttachmentConfig struct {
	MaxBytes int64
	// 解码前按图像头校验的像素上限
	MaxFramePixels int64
}

func loadAttachmentConfig() (AttachmentConfig, error) {
	cfg := AttachmentConfig{
		MaxBytes:       DefaultAttachmentMaxBytes,
		MaxFramePixels: DefaultMaxFramePixels,
	}

	limit, err := parseOptionalIntEnv("ATTACHMENT_MAX_BYTES")
	if err != nil {
		return AttachmentConfig{}, err
	}
	if limit != nil {
		if *limit <= 0 {
			return AttachmentConfig{}, fmt.Errorf("invalid ATTACHMENT_MAX_BYTES value %d", *limit)
		}
		cfg.MaxBytes = int64(*limit)
	}

	pixels, err := parseOptionalIntEnv("ATTACHMENT_MAX_FRAME_PIXELS")
	if err != nil {
		return AttachmentConfig{}, err
	}
	if pixels != nil {
		if *pixels <= 0 {
			return AttachmentConfig{}, fmt.Errorf("invalid ATTACHMENT_MAX_FRAME_PIXELS value %d", *pixels)
		}
		cfg.MaxFramePixels = int64(*pixels)
	}
	return cfg, nil
}

// IdentityConfig 描述第三方登录。
type IdentityConfig struct {
	GoogleClientID string
}

// Enabled reports whether sign-in can be verified.
func (c IdentityConfig) Enabled() bool {
	return c.GoogleClientID != ""
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() (LogConfig, error) {
	level := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q", level)
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
	switch format {
	case "json", "console":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}
	return LogConfig{Level: level, Format: format}, nil
}

// MetricsConfig 描述指标暴露。
type MetricsConfig struct {
	Enabled bool
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
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
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
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

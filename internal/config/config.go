package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "invwe-data/common/config"

	"gopkg.in/yaml.v3"
)

// Config invwe-data（HTTP API）配置
// 加载顺序：默认值 -> CONFIG_FILE（YAML，可选）-> 环境变量
type Config struct {
	HTTP struct {
		Addr            string        `yaml:"addr"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"http"`
	DBEnabled bool                     `yaml:"db_enabled"`
	Database  commoncfg.DatabaseConfig `yaml:"database"`
	// RunMigrations 启动时执行 goose up
	RunMigrations bool                  `yaml:"run_migrations"`
	Redis         commoncfg.RedisConfig `yaml:"redis"`
	Log           struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	AlertStream AlertStreamConfig `yaml:"alert_stream"`
	Redirects   RedirectsConfig   `yaml:"redirects"`
	// AdminAPIEnabled 是否开放 /admin/api/v1/tenants（开发/开通使用）
	AdminAPIEnabled bool `yaml:"admin_api_enabled"`
	// AdminUserIDs 可调用平台管理接口的用户（principal user_id）
	AdminUserIDs []string `yaml:"admin_user_ids"`
	// SeedDemoData DB 未启用时向内存仓库写入演示数据
	SeedDemoData bool `yaml:"seed_demo_data"`
}

// AuthMode 登录用户解析方式
type AuthMode string

const (
	AuthModeJWT     AuthMode = "jwt"
	AuthModeOIDC    AuthMode = "oidc"
	AuthModeSession AuthMode = "session"
	AuthModeHeader  AuthMode = "header"
)

// AuthConfig 认证配置
type AuthConfig struct {
	Mode         AuthMode      `yaml:"mode"`
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTAudience  string        `yaml:"jwt_audience"`
	OIDCIssuer   string        `yaml:"oidc_issuer"`
	OIDCAudience string        `yaml:"oidc_audience"`
	OIDCJWKSURL  string        `yaml:"oidc_jwks_url"` // 非空时跳过 discovery
	IdPBaseURL   string        `yaml:"idp_base_url"`  // session 模式
	IdPAPIKey    string        `yaml:"idp_api_key"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

// MQTTConfig 低库存告警发布配置
type MQTTConfig struct {
	Enabled              bool   `yaml:"enabled"`
	TopicPrefix          string `yaml:"topic_prefix"`
	commoncfg.MQTTConfig `yaml:",inline"`
}

// AlertStreamConfig 低库存告警写入 Redis Stream 的配置
type AlertStreamConfig struct {
	Enabled bool   `yaml:"enabled"`
	Stream  string `yaml:"stream"`
	MaxLen  int64  `yaml:"max_len"` // 近似裁剪长度，<=0 不裁剪
}

// RedirectsConfig 前端跳转路径
type RedirectsConfig struct {
	SignIn          string `yaml:"sign_in"`
	SelectInventory string `yaml:"select_inventory"`
	PendingApproval string `yaml:"pending_approval"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.RequestTimeout = 15 * time.Second
	cfg.HTTP.ShutdownTimeout = 10 * time.Second

	// 默认启用 DB；连接失败时回退到内存仓库
	cfg.DBEnabled = true
	cfg.Database = commoncfg.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Password:        "postgres",
		Database:        "invwe",
		SSLMode:         "disable",
		MaxConns:        20,
		MaxIdle:         5,
		ConnMaxLifetime: 30 * time.Minute,
	}
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	cfg.Auth.Mode = AuthModeHeader
	cfg.Auth.SessionTTL = 5 * time.Minute

	cfg.MQTT.TopicPrefix = "inventory"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "invwe-data"
	cfg.MQTT.QoS = 1

	cfg.AlertStream.Stream = "inventory:stock-alerts"
	cfg.AlertStream.MaxLen = 10000

	cfg.Redirects = RedirectsConfig{
		SignIn:          "/sign-in",
		SelectInventory: "/select_inventory",
		PendingApproval: "/pending-approval",
	}
	return cfg
}

// Load 读取配置
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.RequestTimeout = parseDuration(os.Getenv("HTTP_REQUEST_TIMEOUT"), cfg.HTTP.RequestTimeout)
	cfg.HTTP.ShutdownTimeout = parseDuration(os.Getenv("HTTP_SHUTDOWN_TIMEOUT"), cfg.HTTP.ShutdownTimeout)

	cfg.DBEnabled = parseBool(os.Getenv("DB_ENABLED"), cfg.DBEnabled)
	cfg.Database.LoadFromEnv("DB")
	cfg.RunMigrations = parseBool(os.Getenv("DB_RUN_MIGRATIONS"), cfg.RunMigrations)
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Auth.Mode = AuthMode(strings.ToLower(getEnv("AUTH_MODE", string(cfg.Auth.Mode))))
	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTAudience = getEnv("AUTH_JWT_AUDIENCE", cfg.Auth.JWTAudience)
	cfg.Auth.OIDCIssuer = getEnv("AUTH_OIDC_ISSUER", cfg.Auth.OIDCIssuer)
	cfg.Auth.OIDCAudience = getEnv("AUTH_OIDC_AUDIENCE", cfg.Auth.OIDCAudience)
	cfg.Auth.OIDCJWKSURL = getEnv("AUTH_OIDC_JWKS_URL", cfg.Auth.OIDCJWKSURL)
	cfg.Auth.IdPBaseURL = getEnv("AUTH_IDP_BASE_URL", cfg.Auth.IdPBaseURL)
	cfg.Auth.IdPAPIKey = getEnv("AUTH_IDP_API_KEY", cfg.Auth.IdPAPIKey)
	cfg.Auth.SessionTTL = parseDuration(os.Getenv("AUTH_SESSION_TTL"), cfg.Auth.SessionTTL)

	// MQTT 低库存告警（默认禁用，禁用时只写日志）
	cfg.MQTT.Enabled = parseBool(os.Getenv("MQTT_ENABLED"), cfg.MQTT.Enabled)
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", cfg.MQTT.TopicPrefix)
	cfg.MQTT.MQTTConfig.LoadFromEnv("MQTT")

	cfg.AlertStream.Enabled = parseBool(os.Getenv("ALERT_STREAM_ENABLED"), cfg.AlertStream.Enabled)
	cfg.AlertStream.Stream = getEnv("ALERT_STREAM_NAME", cfg.AlertStream.Stream)
	if v, err := strconv.ParseInt(os.Getenv("ALERT_STREAM_MAX_LEN"), 10, 64); err == nil {
		cfg.AlertStream.MaxLen = v
	}

	cfg.Redirects.SignIn = getEnv("REDIRECT_SIGN_IN", cfg.Redirects.SignIn)
	cfg.Redirects.SelectInventory = getEnv("REDIRECT_SELECT_INVENTORY", cfg.Redirects.SelectInventory)
	cfg.Redirects.PendingApproval = getEnv("REDIRECT_PENDING_APPROVAL", cfg.Redirects.PendingApproval)

	cfg.AdminAPIEnabled = parseBool(os.Getenv("ADMIN_API_ENABLED"), cfg.AdminAPIEnabled)
	if v := os.Getenv("ADMIN_USER_IDS"); v != "" {
		cfg.AdminUserIDs = nil
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
			}
		}
	}
	cfg.SeedDemoData = parseBool(os.Getenv("SEED_DEMO_DATA"), cfg.SeedDemoData)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate 检查认证模式所需的参数
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeHeader:
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required for auth mode %q", c.Auth.Mode)
		}
	case AuthModeOIDC:
		if c.Auth.OIDCIssuer == "" {
			return fmt.Errorf("AUTH_OIDC_ISSUER is required for auth mode %q", c.Auth.Mode)
		}
	case AuthModeSession:
		if c.Auth.IdPBaseURL == "" {
			return fmt.Errorf("AUTH_IDP_BASE_URL is required for auth mode %q", c.Auth.Mode)
		}
	default:
		return fmt.Errorf("invalid auth mode %q", c.Auth.Mode)
	}
	if c.AdminAPIEnabled && len(c.AdminUserIDs) == 0 {
		return fmt.Errorf("ADMIN_USER_IDS is required when the admin API is enabled")
	}
	if c.AlertStream.Enabled && c.AlertStream.Stream == "" {
		return fmt.Errorf("ALERT_STREAM_NAME is required when the alert stream is enabled")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid MQTT QoS %d", c.MQTT.QoS)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// NeedsRedis session 缓存或告警 Stream 需要 Redis
func (c *Config) NeedsRedis() bool {
	return c.Auth.Mode == AuthModeSession || c.AlertStream.Enabled
}

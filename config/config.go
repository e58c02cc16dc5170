package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"` // 通知中相对链接的绝对化前缀
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（限流、周报分布式锁）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// MailConfig 邮件配置
// Provider: sendgrid | console（console 仅写日志，用于开发环境）
type MailConfig struct {
	Provider       string `mapstructure:"provider"`
	SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromName       string `mapstructure:"from_name"`
	FromAddress    string `mapstructure:"from_address"`
	SubjectPrefix  string `mapstructure:"subject_prefix"`
}

// TelegramConfig Telegram 外部调用配置
// Bot Token 等运行时配置保存在数据库 telegram_bot_configs 表中
type TelegramConfig struct {
	APIEndpoint  string        `mapstructure:"api_endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// DigestConfig 周报任务配置
type DigestConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Schedule       string `mapstructure:"schedule"` // cron 表达式（分 时 日 月 周）
	Timezone       string `mapstructure:"timezone"`
	InactivityDays int    `mapstructure:"inactivity_days"`
	LookbackDays   int    `mapstructure:"lookback_days"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "superviseme")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "24h")

	v.SetDefault("mail.provider", "console")
	v.SetDefault("mail.from_name", "SuperviseMe")
	v.SetDefault("mail.from_address", "noreply@superviseme.local")
	v.SetDefault("mail.subject_prefix", "[SuperviseMe] ")

	v.SetDefault("telegram.api_endpoint", "https://api.telegram.org/bot%s/%s")
	v.SetDefault("telegram.timeout", "10s")
	v.SetDefault("telegram.retry_backoff", "2s")

	v.SetDefault("digest.enabled", true)
	v.SetDefault("digest.schedule", "0 9 * * 1") // 每周一 09:00
	v.SetDefault("digest.timezone", "Local")
	v.SetDefault("digest.inactivity_days", 14)
	v.SetDefault("digest.lookback_days", 7)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SUPERVISEME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Mail.Provider {
	case "console":
	case "sendgrid":
		if c.Mail.SendgridAPIKey == "" {
			return fmt.Errorf("配置校验失败: mail.provider=sendgrid 时 mail.sendgrid_api_key 不能为空")
		}
	default:
		return fmt.Errorf("配置校验失败: 未知的 mail.provider %q", c.Mail.Provider)
	}
	if c.Digest.InactivityDays <= 0 {
		return fmt.Errorf("配置校验失败: digest.inactivity_days 必须大于 0")
	}
	if c.Digest.LookbackDays <= 0 {
		return fmt.Errorf("配置校验失败: digest.lookback_days 必须大于 0")
	}
	if c.Telegram.Timeout <= 0 {
		return fmt.Errorf("配置校验失败: telegram.timeout 必须大于 0")
	}
	return nil
}

// Location 解析周报任务使用的时区，"Local" 或空值表示部署机本地时区
func (c *DigestConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无效的时区 %q: %w", c.Timezone, err)
	}
	return loc, nil
}

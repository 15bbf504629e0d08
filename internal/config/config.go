package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务总配置
// 主密钥与 KDF 盐只从环境变量读取, 永远不写进 yaml
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Service  ServiceConfig  `yaml:"service" json:"service"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka" json:"kafka"`
	Clients  ClientsConfig  `yaml:"clients" json:"clients"`
	JWT      JWTConfig      `yaml:"jwt" json:"jwt"`
	Crypto   CryptoConfig   `yaml:"-" json:"-"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Alert    AlertConfig    `yaml:"alert" json:"alert"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port int    `yaml:"port" json:"port"`
	Mode string `yaml:"mode" json:"mode"` // debug, release
}

// ServiceConfig 服务标识
type ServiceConfig struct {
	Name string `yaml:"name" json:"name"`
	Env  string `yaml:"env" json:"env"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string `yaml:"host" json:"host"`
	Port            int    `yaml:"port" json:"port"`
	Database        string `yaml:"database" json:"database"`
	User            string `yaml:"user" json:"user"`
	Password        string `yaml:"password" json:"password"`
	MaxConnections  int    `yaml:"max_connections" json:"max_connections"`
	MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime"` // 秒
}

// DSN 返回 GORM/sql 连接字符串
func (c *PostgresConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=disable"
}

// MigrateURL 返回 golang-migrate 使用的连接字符串
func (c *PostgresConfig) MigrateURL() string {
	return "postgres://" + c.User + ":" + c.Password +
		"@" + c.Host + ":" + strconv.Itoa(c.Port) +
		"/" + c.Database + "?sslmode=disable"
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addresses []string `yaml:"addresses" json:"addresses"`
	Password  string   `yaml:"password" json:"password"`
	DB        int      `yaml:"db" json:"db"`
	PoolSize  int      `yaml:"pool_size" json:"pool_size"`
}

// KafkaConfig Kafka 配置, Brokers 为空时不启用变更事件投递
type KafkaConfig struct {
	Brokers  []string `yaml:"brokers" json:"brokers"`
	ClientID string   `yaml:"client_id" json:"client_id"`
	Topic    string   `yaml:"topic" json:"topic"`
}

// ClientsConfig 下游服务 HTTP 地址
type ClientsConfig struct {
	Extraction string `yaml:"extraction" json:"extraction"`
	Mapping    string `yaml:"mapping" json:"mapping"`
	TimeoutMs  int    `yaml:"timeout_ms" json:"timeout_ms"`
}

// JWTConfig 管理端认证配置
type JWTConfig struct {
	Secret          string `yaml:"secret" json:"secret"`
	ExpireHours     int    `yaml:"expire_hours" json:"expire_hours"`
	MaxAttempts     int    `yaml:"max_attempts" json:"max_attempts"`
	LockDurationMin int    `yaml:"lock_duration_min" json:"lock_duration_min"`
}

// CryptoConfig 配置加密密钥, 仅环境变量
type CryptoConfig struct {
	MasterKey string `yaml:"-" json:"-"`
	KDFSalt   string `yaml:"-" json:"-"`
}

// StoreConfig 配置中心行为参数
type StoreConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
}

// CacheTTL 解析后的缓存存活时长
func (c *StoreConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AlertConfig 告警 webhook 配置, WebhookURL 为空时不启用
type AlertConfig struct {
	WebhookURL     string `yaml:"webhook_url" json:"webhook_url"`
	WebhookType    string `yaml:"webhook_type" json:"webhook_type"` // teams, slack, generic
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, console
}

var envRegex = regexp.MustCompile(`\$\{([^:}]+)(?::([^}]*))?\}`)

// ExpandEnv 展开环境变量, 支持 ${VAR:DEFAULT} 格式
func ExpandEnv(s string) string {
	return envRegex.ReplaceAllStringFunc(s, func(m string) string {
		matches := envRegex.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		key := matches[1]
		var defaultVal string
		if len(matches) > 2 {
			defaultVal = matches[2]
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return defaultVal
	})
}

// Load 加载配置: 默认值 → yaml 文件 → 环境变量注入的密钥
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			expanded := ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, err
			}
		}
	}

	// 密钥只认环境变量, 即使 yaml 里写了也不读
	cfg.Crypto.MasterKey = os.Getenv("CONFIG_MASTER_KEY")
	cfg.Crypto.KDFSalt = GetEnv("CONFIG_KDF_SALT", "doc-admin-static-salt-v1")

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: GetEnvInt("HTTP_PORT", 8090),
			Mode: GetEnv("GIN_MODE", "debug"),
		},
		Service: ServiceConfig{
			Name: "doc-admin",
			Env:  GetEnv("ENV", "dev"),
		},
		Postgres: PostgresConfig{
			Host:            GetEnv("POSTGRES_HOST", "localhost"),
			Port:            GetEnvInt("POSTGRES_PORT", 5432),
			Database:        GetEnv("POSTGRES_DATABASE", "doc_admin"),
			User:            GetEnv("POSTGRES_USER", "doc"),
			Password:        GetEnv("POSTGRES_PASSWORD", "doc123"),
			MaxConnections:  GetEnvInt("POSTGRES_MAX_CONNS", 30),
			MaxIdleConns:    GetEnvInt("POSTGRES_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: GetEnvInt("POSTGRES_CONN_MAX_LIFETIME", 3600),
		},
		Redis: RedisConfig{
			Addresses: GetEnvSlice("REDIS_ADDR", []string{"localhost:6379"}),
			Password:  GetEnv("REDIS_PASSWORD", ""),
			DB:        GetEnvInt("REDIS_DB", 0),
			PoolSize:  GetEnvInt("REDIS_POOL_SIZE", 20),
		},
		Kafka: KafkaConfig{
			Brokers:  GetEnvSlice("KAFKA_BROKERS", nil),
			ClientID: GetEnv("KAFKA_CLIENT_ID", "doc-admin"),
			Topic:    GetEnv("KAFKA_CONFIG_TOPIC", "doc.config.changes"),
		},
		Clients: ClientsConfig{
			Extraction: GetEnv("EXTRACTION_SERVICE_URL", "http://localhost:8081"),
			Mapping:    GetEnv("MAPPING_SERVICE_URL", "http://localhost:8082"),
			TimeoutMs:  GetEnvInt("CLIENT_TIMEOUT_MS", 3000),
		},
		JWT: JWTConfig{
			Secret:          GetEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours:     GetEnvInt("JWT_EXPIRE_HOURS", 8),
			MaxAttempts:     GetEnvInt("LOGIN_MAX_ATTEMPTS", 5),
			LockDurationMin: GetEnvInt("LOGIN_LOCK_DURATION_MIN", 30),
		},
		Store: StoreConfig{
			CacheTTLSeconds: GetEnvInt("CONFIG_CACHE_TTL_SECONDS", 30),
		},
		Alert: AlertConfig{
			WebhookURL:     GetEnv("ALERT_WEBHOOK_URL", ""),
			WebhookType:    GetEnv("ALERT_WEBHOOK_TYPE", "teams"),
			TimeoutSeconds: GetEnvInt("ALERT_TIMEOUT_SECONDS", 10),
		},
		Log: LogConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "json"),
		},
	}
}

// GetEnv 获取环境变量, 支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt 获取整数环境变量
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice 获取逗号分隔的字符串切片
func GetEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

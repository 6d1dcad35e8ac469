package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fogelran/people-match/internal/service/matching"
)

// Драйверы хранилища
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Matching  MatchingConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// StorageConfig определяет, где живут вопросы и ответы
type StorageConfig struct {
	// Driver: "postgres" или "memory". По умолчанию "postgres".
	Driver string `mapstructure:"driver"`
	// SeedQuestions: заполнять ли пустое хранилище стартовыми вопросами
	SeedQuestions bool `mapstructure:"seed_questions"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Enabled: без Redis кеш подбора пар живёт в памяти процесса, а rate limiting выключен
	Enabled bool `mapstructure:"enabled"`

	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт).
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// KeyPrefix: префикс всех ключей кеша
	KeyPrefix string `mapstructure:"key_prefix"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// MatchingConfig содержит настройки подбора пар
type MatchingConfig struct {
	MinEvidence     int  `mapstructure:"min_evidence"`
	Symmetric       bool `mapstructure:"symmetric"`
	MaxRetries      int  `mapstructure:"max_retries"`
	RetryIntervalMs int  `mapstructure:"retry_interval_ms"`
	CacheTTLSec     int  `mapstructure:"cache_ttl_sec"`
}

// RateLimitConfig содержит лимиты запросов к /api/register и /api/login (нужен Redis)
type RateLimitConfig struct {
	AuthMaxRequests int `mapstructure:"auth_max_requests"`
	AuthWindowSec   int `mapstructure:"auth_window_sec"`
}

// ToMatchingConfig переводит настройки в конфигурацию сервиса подбора пар
func (m *MatchingConfig) ToMatchingConfig() *matching.Config {
	return &matching.Config{
		MinEvidence:   m.MinEvidence,
		Symmetric:     m.Symmetric,
		MaxRetries:    m.MaxRetries,
		RetryInterval: time.Duration(m.RetryIntervalMs) * time.Millisecond,
		MatchCacheTTL: time.Duration(m.CacheTTLSec) * time.Second,
	}
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RegisterFlags регистрирует флаги командной строки, которые перекрывают файл и окружение
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "config/config.yaml", "path to the config file")
	fs.String("server.port", "", "HTTP port")
	fs.String("storage.driver", "", "storage driver: postgres or memory")
}

// setDefaults задаёт значения по умолчанию
func setDefaults(vip *viper.Viper) {
	defaults := matching.DefaultConfig()

	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readTimeout", 10)
	vip.SetDefault("server.writeTimeout", 10)
	vip.SetDefault("server.shutdown_timeout", 10)
	vip.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	vip.SetDefault("storage.driver", StorageDriverPostgres)
	vip.SetDefault("storage.seed_questions", true)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.key_prefix", "people-match")

	vip.SetDefault("jwt.expirationHrs", 24)

	vip.SetDefault("rate_limit.auth_max_requests", 5)
	vip.SetDefault("rate_limit.auth_window_sec", 60)

	vip.SetDefault("matching.min_evidence", defaults.MinEvidence)
	vip.SetDefault("matching.symmetric", defaults.Symmetric)
	vip.SetDefault("matching.max_retries", defaults.MaxRetries)
	vip.SetDefault("matching.retry_interval_ms", int(defaults.RetryInterval/time.Millisecond))
	vip.SetDefault("matching.cache_ttl_sec", int(defaults.MatchCacheTTL/time.Second))
}

// bindEnv привязывает переменные окружения ЯВНО
func bindEnv(vip *viper.Viper) {
	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("storage.driver", "STORAGE_DRIVER")
	vip.BindEnv("storage.seed_questions", "STORAGE_SEED_QUESTIONS")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.enabled", "REDIS_ENABLED")
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("matching.min_evidence", "MATCHING_MIN_EVIDENCE")
	vip.BindEnv("matching.symmetric", "MATCHING_SYMMETRIC")
}

// Load загружает конфигурацию: умолчания < файл < окружение < флаги.
// flags может быть nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := read(configPath, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorage загружает конфигурацию для утилит, которым нужно только хранилище
// (cmd/migrate). Проверяются лишь секции storage и database.
func LoadStorage(configPath string) (*Config, error) {
	cfg, err := read(configPath, nil)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// read собирает конфигурацию из умолчаний, файла, окружения и флагов без проверки
func read(configPath string, flags *pflag.FlagSet) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, без глобального состояния

	setDefaults(vip)
	bindEnv(vip)

	if flags != nil {
		// Привязываем только явно заданные флаги, пустые значения не затирают файл
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Changed && f.Name != "config" {
				vip.BindPFlag(f.Name, f)
			}
		})
	}

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: хватает окружения и умолчаний
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Storage Driver: %s", cfg.Storage.Driver)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Enabled: %t (mode: %s)", cfg.Redis.Enabled, cfg.Redis.Mode)
		log.Printf("JWT Expiration Hours: %d", cfg.JWT.ExpirationHrs)
		log.Printf("Matching: min_evidence=%d symmetric=%t", cfg.Matching.MinEvidence, cfg.Matching.Symmetric)
		log.Printf("-----------------------------------------")
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры сервера
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.Redis.Enabled && len(c.Redis.Addrs) == 0 && c.Redis.Addr == "" {
		return fmt.Errorf("redis is enabled but no address is configured (check REDIS_ADDR env var)")
	}
	if c.Matching.MaxRetries < 0 {
		return fmt.Errorf("matching.max_retries must not be negative")
	}
	return nil
}

// ValidateStorage проверяет секции storage и database
func (c *Config) ValidateStorage() error {
	switch c.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.Storage.Driver)
	}
	return nil
}

package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Exam     ExamConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
	// AllowedOrigins - источники, которым разрешены CORS-запросы
	AllowedOrigins []string `mapstructure:"allowed_origins"`
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

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Для 'single' используется первый адрес.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит настройки проверки токенов доступа
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	Issuer        string `mapstructure:"issuer"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// ExamConfig содержит настройки экзаменационного движка
type ExamConfig struct {
	// Нижние границы баллов для наград
	FirstPrize    float64 `mapstructure:"first_prize"`
	SecondPrize   float64 `mapstructure:"second_prize"`
	ThirdPrize    float64 `mapstructure:"third_prize"`
	Participation float64 `mapstructure:"participation"`

	RankingLockTTLSec  int `mapstructure:"ranking_lock_ttl_sec"`
	RankingLockWaitSec int `mapstructure:"ranking_lock_wait_sec"`
	RankingCacheTTLSec int `mapstructure:"ranking_cache_ttl_sec"`

	// Лимит запросов сдачи и черновиков на пользователя
	SubmitRateLimit     int `mapstructure:"submit_rate_limit"`
	SubmitRateWindowSec int `mapstructure:"submit_rate_window_sec"`
}

// RankingLockTTL возвращает время жизни блокировки пересчета рейтинга
func (e ExamConfig) RankingLockTTL() time.Duration {
	return time.Duration(e.RankingLockTTLSec) * time.Second
}

// RankingLockWait возвращает время ожидания занятой блокировки
func (e ExamConfig) RankingLockWait() time.Duration {
	return time.Duration(e.RankingLockWaitSec) * time.Second
}

// RankingCacheTTL возвращает время жизни кеша рейтинга
func (e ExamConfig) RankingCacheTTL() time.Duration {
	return time.Duration(e.RankingCacheTTLSec) * time.Second
}

// SubmitRateWindow возвращает окно лимита сдачи
func (e ExamConfig) SubmitRateWindow() time.Duration {
	return time.Duration(e.SubmitRateWindowSec) * time.Second
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
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readTimeout", 15)
	vip.SetDefault("server.writeTimeout", 15)
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("jwt.issuer", "contest-exam-api")
	vip.SetDefault("jwt.expirationHrs", 24)

	vip.SetDefault("exam.first_prize", 95)
	vip.SetDefault("exam.second_prize", 85)
	vip.SetDefault("exam.third_prize", 75)
	vip.SetDefault("exam.participation", 60)
	vip.SetDefault("exam.ranking_lock_ttl_sec", 30)
	vip.SetDefault("exam.ranking_lock_wait_sec", 5)
	vip.SetDefault("exam.ranking_cache_ttl_sec", 60)
	vip.SetDefault("exam.submit_rate_limit", 30)
	vip.SetDefault("exam.submit_rate_window_sec", 60)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния
	setDefaults(vip)

	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.issuer", "JWT_ISSUER")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.allowed_origins", "SERVER_ALLOWED_ORIGINS")

	// Привязка для Exam
	vip.BindEnv("exam.ranking_lock_ttl_sec", "EXAM_RANKING_LOCK_TTL_SEC")
	vip.BindEnv("exam.ranking_cache_ttl_sec", "EXAM_RANKING_CACHE_TTL_SEC")
	vip.BindEnv("exam.submit_rate_limit", "EXAM_SUBMIT_RATE_LIMIT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: значения придут из окружения
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
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

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Issuer: %s", cfg.JWT.Issuer)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Award thresholds: %.2f/%.2f/%.2f/%.2f",
			cfg.Exam.FirstPrize, cfg.Exam.SecondPrize, cfg.Exam.ThirdPrize, cfg.Exam.Participation)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	e := c.Exam
	if !(e.FirstPrize >= e.SecondPrize && e.SecondPrize >= e.ThirdPrize && e.ThirdPrize >= e.Participation) {
		return fmt.Errorf("award thresholds must be non-increasing: %.2f/%.2f/%.2f/%.2f",
			e.FirstPrize, e.SecondPrize, e.ThirdPrize, e.Participation)
	}
	if e.RankingLockTTLSec <= 0 {
		return fmt.Errorf("exam.ranking_lock_ttl_sec must be positive")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Geo      GeoConfig
	Worker   WorkerConfig
	Live     LiveConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	AllowOrigins string
}

// DatabaseConfig - настройки встроенного хранилища.
// Driver: sqlite3 (по умолчанию), pgx или postgres.
type DatabaseConfig struct {
	Driver          string
	Path            string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	StatsCacheTTL time.Duration
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// GeoConfig - параметры гео-запросов по умолчанию
type GeoConfig struct {
	DefaultRadiusKm  float64
	MinRadiusKm      float64
	MaxRadiusKm      float64
	DefaultLimit     int
	AlertRadiusKm    float64
	DefaultSpeedKmh  float64
	ReportThreshold  int
	HelperCoverageKm int
}

type WorkerConfig struct {
	SyncEnabled  bool
	SyncInterval time.Duration
	SyncBatch    int
	SyncStream   string
}

type LiveConfig struct {
	ChannelPrefix string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")
	v.SetDefault("API_CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_PATH", "siempreabierto.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)

	v.SetDefault("STATS_CACHE_TTL", 3600)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	v.SetDefault("GEO_DEFAULT_RADIUS_KM", 20.0)
	v.SetDefault("GEO_MIN_RADIUS_KM", 0.1)
	v.SetDefault("GEO_MAX_RADIUS_KM", 100.0)
	v.SetDefault("GEO_DEFAULT_LIMIT", 50)
	v.SetDefault("GEO_ALERT_RADIUS_KM", 5.0)
	v.SetDefault("GEO_DEFAULT_SPEED_KMH", 60.0)
	v.SetDefault("COMMUNITY_REPORT_THRESHOLD", 3)
	v.SetDefault("HELPER_COVERAGE_DEFAULT_KM", 20)

	v.SetDefault("WORKER_SYNC_ENABLED", true)
	v.SetDefault("WORKER_SYNC_INTERVAL", 3600)
	v.SetDefault("WORKER_SYNC_BATCH", 100)
	v.SetDefault("WORKER_SYNC_STREAM", "stream:contributions")

	v.SetDefault("LIVE_CHANNEL_PREFIX", "siempreabierto:changes")
}

// Load читает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile читает конфигурацию из указанного файла; отсутствие файла не считается ошибкой
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var pathErr *fs.PathError
			if !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("API_HOST"),
			Port:         v.GetInt("API_PORT"),
			Env:          v.GetString("API_ENV"),
			AllowOrigins: v.GetString("API_CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Path:            v.GetString("DB_PATH"),
			DSN:             v.GetString("DB_DSN"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			StatsCacheTTL: time.Duration(v.GetInt("STATS_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Geo: GeoConfig{
			DefaultRadiusKm:  v.GetFloat64("GEO_DEFAULT_RADIUS_KM"),
			MinRadiusKm:      v.GetFloat64("GEO_MIN_RADIUS_KM"),
			MaxRadiusKm:      v.GetFloat64("GEO_MAX_RADIUS_KM"),
			DefaultLimit:     v.GetInt("GEO_DEFAULT_LIMIT"),
			AlertRadiusKm:    v.GetFloat64("GEO_ALERT_RADIUS_KM"),
			DefaultSpeedKmh:  v.GetFloat64("GEO_DEFAULT_SPEED_KMH"),
			ReportThreshold:  v.GetInt("COMMUNITY_REPORT_THRESHOLD"),
			HelperCoverageKm: v.GetInt("HELPER_COVERAGE_DEFAULT_KM"),
		},
		Worker: WorkerConfig{
			SyncEnabled:  v.GetBool("WORKER_SYNC_ENABLED"),
			SyncInterval: time.Duration(v.GetInt("WORKER_SYNC_INTERVAL")) * time.Second,
			SyncBatch:    v.GetInt("WORKER_SYNC_BATCH"),
			SyncStream:   v.GetString("WORKER_SYNC_STREAM"),
		},
		Live: LiveConfig{
			ChannelPrefix: v.GetString("LIVE_CHANNEL_PREFIX"),
		},
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite3"
	}
	if cfg.Worker.SyncInterval <= 0 {
		cfg.Worker.SyncInterval = time.Hour
	}
	if cfg.Worker.SyncBatch <= 0 {
		cfg.Worker.SyncBatch = 100
	}

	return cfg, nil
}

// Default возвращает конфигурацию со значениями по умолчанию (используется в тестах)
func Default() *Config {
	cfg, _ := LoadFile("")
	return cfg
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseDSN возвращает строку подключения для выбранного драйвера
func (c *Config) GetDatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}

	switch c.Database.Driver {
	case "pgx", "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.DBName,
			c.Database.SSLMode,
		)
	default:
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", c.Database.Path)
	}
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

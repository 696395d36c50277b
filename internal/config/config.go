package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Storage       StorageConfig
	Tracing       TracingConfig `mapstructure:"tracing"`
	Redis         RedisConfig
	CORS          CORSConfig          `mapstructure:"cors"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Practice      PracticeConfig      `mapstructure:"practice"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Pronunciation PronunciationConfig `mapstructure:"pronunciation"`
	Audio         AudioConfig         `mapstructure:"audio"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// DatabaseConfig Driver 为 mysql 或 sqlite；sqlite 时只使用 Path
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	Path      string
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string        `mapstructure:"type"`
	LocalPath     string        `mapstructure:"local_path"`
	MinioEndpoint string        `mapstructure:"minio_endpoint"`
	MinioAccessID string        `mapstructure:"minio_access_key"`
	MinioSecret   string        `mapstructure:"minio_secret_key"`
	MinioBucket   string        `mapstructure:"minio_bucket"`
	MinioSecure   bool          `mapstructure:"minio_secure"`
	OSSEndpoint   string        `mapstructure:"oss_endpoint"`
	OSSAccessKey  string        `mapstructure:"oss_access_key"`
	OSSSecretKey  string        `mapstructure:"oss_secret_key"`
	OSSBucket     string        `mapstructure:"oss_bucket"`
	SignedURLTTL  time.Duration `mapstructure:"signed_url_ttl"`
	// 本地存储时拼接给外部服务访问的地址
	PublicBaseURL string        `mapstructure:"public_base_url"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// PracticeConfig 练习会话相关参数
type PracticeConfig struct {
	ActiveWindow    time.Duration `mapstructure:"active_window"`
	MaxBatch        int           `mapstructure:"max_batch"`
	LeaderboardTop  int           `mapstructure:"leaderboard_top"`
	LeaderboardTTL  time.Duration `mapstructure:"leaderboard_ttl"`
	CacheWarmPeriod time.Duration `mapstructure:"cache_warm_period"`
}

// ScoreTier 分数（或正确率×100）达到 MinScore 即获得 Points
type ScoreTier struct {
	Name     string `mapstructure:"name"`
	MinScore int    `mapstructure:"min_score"`
	Points   int    `mapstructure:"points"`
}

// ScoringConfig 积分规则，全部可热更新
type ScoringConfig struct {
	Timezone                string      `mapstructure:"timezone"`
	QuizCorrectPoints       int         `mapstructure:"quiz_correct_points"`
	MasteryPoints           int         `mapstructure:"mastery_points"`
	SpeakingMasteryScore    int         `mapstructure:"speaking_mastery_score"`
	SpeakingTiers           []ScoreTier `mapstructure:"speaking_tiers"`
	QuizCompletionTiers     []ScoreTier `mapstructure:"quiz_completion_tiers"`
	SpeakingCompletionTiers []ScoreTier `mapstructure:"speaking_completion_tiers"`
}

type PronunciationConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AudioConfig 录音上传与转码
type AudioConfig struct {
	Transcode  bool  `mapstructure:"transcode"`
	SampleRate int   `mapstructure:"sample_rate"`
	MaxBytes   int64 `mapstructure:"max_bytes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.path", "data/vocab.db")

	v.SetDefault("jwt.expire_hours", 72)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("storage.signed_url_ttl", 15*time.Minute)
	v.SetDefault("storage.public_base_url", "http://localhost:8080")

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)

	v.SetDefault("practice.active_window", 24*time.Hour)
	v.SetDefault("practice.max_batch", 50)
	v.SetDefault("practice.leaderboard_top", 100)
	v.SetDefault("practice.leaderboard_ttl", time.Minute)
	v.SetDefault("practice.cache_warm_period", time.Minute)

	v.SetDefault("scoring.timezone", "Local")
	v.SetDefault("scoring.quiz_correct_points", 10)
	v.SetDefault("scoring.mastery_points", 5)
	v.SetDefault("scoring.speaking_mastery_score", 70)
	v.SetDefault("scoring.speaking_tiers", []map[string]interface{}{
		{"name": "excellent", "min_score": 80, "points": 15},
		{"name": "good", "min_score": 60, "points": 10},
		{"name": "fair", "min_score": 40, "points": 5},
		{"name": "effort", "min_score": 0, "points": 2},
	})
	v.SetDefault("scoring.quiz_completion_tiers", []map[string]interface{}{
		{"name": "gold", "min_score": 90, "points": 50},
		{"name": "silver", "min_score": 70, "points": 30},
		{"name": "bronze", "min_score": 0, "points": 10},
	})
	v.SetDefault("scoring.speaking_completion_tiers", []map[string]interface{}{
		{"name": "gold", "min_score": 80, "points": 50},
		{"name": "silver", "min_score": 60, "points": 30},
		{"name": "bronze", "min_score": 0, "points": 10},
	})

	v.SetDefault("pronunciation.language", "en-US")
	v.SetDefault("pronunciation.timeout", 8*time.Second)

	v.SetDefault("audio.transcode", false)
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.max_bytes", 10<<20)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("VOCAB")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Pronunciation
	v.BindEnv("pronunciation.base_url", "PRONUNCIATION_BASE_URL")
	v.BindEnv("pronunciation.api_key", "PRONUNCIATION_API_KEY")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// Validate 校验启动时必须满足的约束
func (c *Config) Validate() error {
	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Practice.MaxBatch <= 0 {
		return fmt.Errorf("practice.max_batch must be positive, got %d", c.Practice.MaxBatch)
	}
	if c.Practice.ActiveWindow <= 0 {
		return fmt.Errorf("practice.active_window must be positive")
	}
	if _, err := c.Scoring.Location(); err != nil {
		return fmt.Errorf("scoring.timezone: %w", err)
	}
	for name, tiers := range map[string][]ScoreTier{
		"speaking_tiers":            c.Scoring.SpeakingTiers,
		"quiz_completion_tiers":     c.Scoring.QuizCompletionTiers,
		"speaking_completion_tiers": c.Scoring.SpeakingCompletionTiers,
	} {
		if len(tiers) == 0 {
			return fmt.Errorf("scoring.%s must not be empty", name)
		}
	}
	return nil
}

// Location 返回用于计算"自然日"和统计周期的时区
func (s ScoringConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

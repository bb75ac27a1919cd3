package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Allocation AllocationConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN renders a lib/pq keyword/value connection string tagged with appName.
func (c DatabaseConfig) DSN(appName string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, appName)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr is the host:port pair dialled by the Redis client.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// JWTConfig holds the shared secret used to verify tokens minted by the auth service.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs summary caching.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ScoringWeights are the maximum points awarded per compatibility component.
type ScoringWeights struct {
	Grade      float64 `mapstructure:"ALLOCATION_WEIGHT_GRADE"`
	Board      float64 `mapstructure:"ALLOCATION_WEIGHT_BOARD"`
	Subject    float64 `mapstructure:"ALLOCATION_WEIGHT_SUBJECT"`
	TestScore  float64 `mapstructure:"ALLOCATION_WEIGHT_TEST_SCORE"`
	Rating     float64 `mapstructure:"ALLOCATION_WEIGHT_RATING"`
	Completion float64 `mapstructure:"ALLOCATION_WEIGHT_COMPLETION"`
}

// AllocationConfig tunes the allocation engine and its reporting.
type AllocationConfig struct {
	TutorCapacity   int
	MaxCandidates   int
	UrgentAfter     time.Duration
	PlanTTL         time.Duration
	ParallelScoring bool
	Weights         ScoringWeights
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	weights, err := decodeWeights(v)
	if err != nil {
		return nil, err
	}

	cfg.Allocation = AllocationConfig{
		TutorCapacity:   positiveOr(v.GetInt("ALLOCATION_TUTOR_CAPACITY"), 8),
		MaxCandidates:   positiveOr(v.GetInt("ALLOCATION_MAX_CANDIDATES"), 3),
		UrgentAfter:     parseDuration(v.GetString("ALLOCATION_URGENT_AFTER"), 5*24*time.Hour),
		PlanTTL:         parseDuration(v.GetString("ALLOCATION_PLAN_TTL"), 30*time.Minute),
		ParallelScoring: v.GetBool("ALLOCATION_PARALLEL_SCORING"),
		Weights:         weights,
	}

	return cfg, nil
}

// DefaultWeights returns the stock compatibility weights (25/20/25/15/10/5).
func DefaultWeights() ScoringWeights {
	return ScoringWeights{Grade: 25, Board: 20, Subject: 25, TestScore: 15, Rating: 10, Completion: 5}
}

func decodeWeights(v *viper.Viper) (ScoringWeights, error) {
	raw := map[string]interface{}{}
	for _, key := range []string{
		"ALLOCATION_WEIGHT_GRADE",
		"ALLOCATION_WEIGHT_BOARD",
		"ALLOCATION_WEIGHT_SUBJECT",
		"ALLOCATION_WEIGHT_TEST_SCORE",
		"ALLOCATION_WEIGHT_RATING",
		"ALLOCATION_WEIGHT_COMPLETION",
	} {
		raw[key] = v.Get(key)
	}

	var weights ScoringWeights
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &weights,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return ScoringWeights{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return ScoringWeights{}, err
	}
	return weights, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutoring")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	defaults := DefaultWeights()
	v.SetDefault("ALLOCATION_TUTOR_CAPACITY", 8)
	v.SetDefault("ALLOCATION_MAX_CANDIDATES", 3)
	v.SetDefault("ALLOCATION_URGENT_AFTER", "120h")
	v.SetDefault("ALLOCATION_PLAN_TTL", "30m")
	v.SetDefault("ALLOCATION_PARALLEL_SCORING", true)
	v.SetDefault("ALLOCATION_WEIGHT_GRADE", defaults.Grade)
	v.SetDefault("ALLOCATION_WEIGHT_BOARD", defaults.Board)
	v.SetDefault("ALLOCATION_WEIGHT_SUBJECT", defaults.Subject)
	v.SetDefault("ALLOCATION_WEIGHT_TEST_SCORE", defaults.TestScore)
	v.SetDefault("ALLOCATION_WEIGHT_RATING", defaults.Rating)
	v.SetDefault("ALLOCATION_WEIGHT_COMPLETION", defaults.Completion)
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

package config

import (
	"strings"
	"time"

	"go-reminder-api/core/constants"
	"go-reminder-api/core/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Push     PushConfig
	Travel   TravelConfig
	Reminder ReminderConfig
}

type ServerConfig struct {
	Port     int
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type PushConfig struct {
	Endpoint string
	Timeout  time.Duration
}

type TravelConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// ReminderConfig holds the scheduling knobs. The offset and debounce values
// mirror the product defaults but are deliberately configuration, not
// hard-coded behavior.
type ReminderConfig struct {
	TimeOffset        time.Duration
	DebounceThreshold time.Duration
	Lookahead         time.Duration
	ReconcileEvery    time.Duration
}

var instance *Config

func Get() *Config {
	return instance
}

// Load reads .env (if present) and the environment into the process config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 7070)
	v.SetDefault("server.loglevel", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "reminders")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")

	v.SetDefault("push.endpoint", "https://exp.host")
	v.SetDefault("push.timeout", "10s")

	v.SetDefault("travel.endpoint", "https://router.project-osrm.org")
	v.SetDefault("travel.timeout", "10s")

	v.SetDefault("reminder.time_offset_minutes", constants.DefaultTimeOffsetMinutes)
	v.SetDefault("reminder.debounce_minutes", constants.DefaultDebounceMinutes)
	v.SetDefault("reminder.lookahead_hours", constants.DefaultLookaheadHours)
	v.SetDefault("reminder.reconcile_minutes", constants.DefaultReconcileMinutes)

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetInt("server.port"),
			LogLevel: v.GetString("server.loglevel"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		Push: PushConfig{
			Endpoint: v.GetString("push.endpoint"),
			Timeout:  v.GetDuration("push.timeout"),
		},
		Travel: TravelConfig{
			Endpoint: v.GetString("travel.endpoint"),
			Timeout:  v.GetDuration("travel.timeout"),
		},
		Reminder: ReminderConfig{
			TimeOffset:        time.Duration(v.GetInt("reminder.time_offset_minutes")) * time.Minute,
			DebounceThreshold: time.Duration(v.GetInt("reminder.debounce_minutes")) * time.Minute,
			Lookahead:         time.Duration(v.GetInt("reminder.lookahead_hours")) * time.Hour,
			ReconcileEvery:    time.Duration(v.GetInt("reminder.reconcile_minutes")) * time.Minute,
		},
	}

	if cfg.JWT.Secret == "" {
		logger.Warn("JWT secret is not set, protected routes will reject all requests")
	}

	instance = cfg
	return cfg, nil
}

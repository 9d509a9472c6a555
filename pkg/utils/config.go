package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	Email    EmailConfig
	SMS      SMSConfig
	Redis    RedisConfig
	Cron     CronConfig
	Visit    VisitConfig
	Notify   NotifyConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	Timezone        string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type SessionConfig struct {
	ExpiryHours int
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// IsConfigured reports whether outgoing email can be sent over SMTP.
func (c EmailConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

type SMSConfig struct {
	Enabled bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CronConfig struct {
	Secret        string
	SweepInterval time.Duration
	LockTTL       time.Duration
}

// VisitConfig holds the lifecycle policy knobs.
type VisitConfig struct {
	CheckInWindow      time.Duration
	EditLead           time.Duration
	BulkCancelLead     time.Duration
	CancelLead         time.Duration
	MissedAfter        time.Duration
	WarnAfter          time.Duration
	StaleCheckInAfter  time.Duration
	SingleScan         bool
	DiscountCodePrefix string
}

type NotifyConfig struct {
	RatePerSecond float64
	Burst         int
	SendTimeout   time.Duration
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads the given env file (if present) and overlays the process environment.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "bondoutfit")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("SESSION_EXPIRY_HOURS", 24)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMS_ENABLED", false)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SWEEP_INTERVAL", "0s")
	v.SetDefault("SWEEP_LOCK_TTL", "5m")
	v.SetDefault("VISIT_CHECKIN_WINDOW", "2h")
	v.SetDefault("VISIT_EDIT_LEAD", "2h")
	v.SetDefault("VISIT_BULK_CANCEL_LEAD", "1h")
	v.SetDefault("VISIT_CANCEL_LEAD", "0s")
	v.SetDefault("SWEEP_MISSED_AFTER", "2h")
	v.SetDefault("SWEEP_WARN_AFTER", "30m")
	v.SetDefault("SWEEP_STALE_CHECKIN_AFTER", "4h")
	v.SetDefault("VISIT_SINGLE_SCAN", false)
	v.SetDefault("DISCOUNT_CODE_PREFIX", "SVD-")
	v.SetDefault("NOTIFY_RATE_PER_SECOND", 10.0)
	v.SetDefault("NOTIFY_BURST", 20)
	v.SetDefault("NOTIFY_SEND_TIMEOUT", "30s")

	if err := v.ReadInConfig(); err != nil {
		// .env is optional in containers, the environment carries everything
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			Timezone:        v.GetString("APP_TIMEZONE"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Session: SessionConfig{
			ExpiryHours: v.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
		SMS: SMSConfig{
			Enabled: v.GetBool("SMS_ENABLED"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cron: CronConfig{
			Secret:        v.GetString("CRON_SECRET"),
			SweepInterval: v.GetDuration("SWEEP_INTERVAL"),
			LockTTL:       v.GetDuration("SWEEP_LOCK_TTL"),
		},
		Visit: VisitConfig{
			CheckInWindow:      v.GetDuration("VISIT_CHECKIN_WINDOW"),
			EditLead:           v.GetDuration("VISIT_EDIT_LEAD"),
			BulkCancelLead:     v.GetDuration("VISIT_BULK_CANCEL_LEAD"),
			CancelLead:         v.GetDuration("VISIT_CANCEL_LEAD"),
			MissedAfter:        v.GetDuration("SWEEP_MISSED_AFTER"),
			WarnAfter:          v.GetDuration("SWEEP_WARN_AFTER"),
			StaleCheckInAfter:  v.GetDuration("SWEEP_STALE_CHECKIN_AFTER"),
			SingleScan:         v.GetBool("VISIT_SINGLE_SCAN"),
			DiscountCodePrefix: v.GetString("DISCOUNT_CODE_PREFIX"),
		},
		Notify: NotifyConfig{
			RatePerSecond: v.GetFloat64("NOTIFY_RATE_PER_SECOND"),
			Burst:         v.GetInt("NOTIFY_BURST"),
			SendTimeout:   v.GetDuration("NOTIFY_SEND_TIMEOUT"),
		},
	}

	return config, nil
}

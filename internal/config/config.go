package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Booking   BookingConfig   `yaml:"booking"`
	Mail      MailConfig      `yaml:"mail"`
	Notify    NotifyConfig    `yaml:"notify"`
	Reminders RemindersConfig `yaml:"reminders"`
	Retry     RetryConfig     `yaml:"retry"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" env:"DATABASE_DSN"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type AuthConfig struct {
	JWTSecret   string   `yaml:"jwt_secret" env:"JWT_SECRET"`
	AdminEmails []string `yaml:"admin_emails" env:"ADMIN_EMAILS" env-separator:","`
}

type BookingConfig struct {
	JoinBuffer   time.Duration `yaml:"join_buffer"`
	ReminderLead time.Duration `yaml:"reminder_lead"`
	MaxNotes     int           `yaml:"max_notes"`
}

type MailConfig struct {
	Host     string        `yaml:"host" env:"SMTP_HOST"`
	Port     int           `yaml:"port" env:"SMTP_PORT"`
	Username string        `yaml:"username" env:"SMTP_USERNAME"`
	Password string        `yaml:"password" env:"SMTP_PASSWORD"`
	From     string        `yaml:"from" env:"SMTP_FROM"`
	BaseURL  string        `yaml:"base_url" env:"FRONTEND_BASE_URL"`
	Timeout  time.Duration `yaml:"timeout"`
}

type NotifyConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type RemindersConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	Lease        time.Duration `yaml:"lease"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBase    time.Duration `yaml:"retry_base"`
	RetryMax     time.Duration `yaml:"retry_max"`
}

type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxElapsed      time.Duration `yaml:"max_elapsed"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}

	if c.Booking.JoinBuffer == 0 {
		c.Booking.JoinBuffer = 30 * time.Minute
	}
	if c.Booking.ReminderLead == 0 {
		c.Booking.ReminderLead = 6 * time.Hour
	}
	if c.Booking.MaxNotes == 0 {
		c.Booking.MaxNotes = 2000
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = 465
	}
	if c.Mail.Timeout == 0 {
		c.Mail.Timeout = 10 * time.Second
	}
	if c.Mail.BaseURL == "" {
		c.Mail.BaseURL = "http://localhost:3000"
	}

	if c.Notify.Workers == 0 {
		c.Notify.Workers = 4
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = 256
	}

	if c.Reminders.PollInterval == 0 {
		c.Reminders.PollInterval = 30 * time.Second
	}
	if c.Reminders.BatchSize == 0 {
		c.Reminders.BatchSize = 50
	}
	if c.Reminders.Lease == 0 {
		c.Reminders.Lease = 2 * time.Minute
	}
	if c.Reminders.MaxAttempts == 0 {
		c.Reminders.MaxAttempts = 5
	}
	if c.Reminders.RetryBase == 0 {
		c.Reminders.RetryBase = time.Minute
	}
	if c.Reminders.RetryMax == 0 {
		c.Reminders.RetryMax = time.Hour
	}

	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = 100 * time.Millisecond
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = 2 * time.Second
	}
	if c.Retry.MaxElapsed == 0 {
		c.Retry.MaxElapsed = 10 * time.Second
	}
}

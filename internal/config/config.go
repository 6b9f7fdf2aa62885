// Package config loads daemon settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/softener-guard/internal/gpio"
)

// EnvPrefix namespaces environment overrides, e.g. SOFTENER_MAX_RETRIES.
const EnvPrefix = "SOFTENER"

// Config holds every tunable of the daemon.
type Config struct {
	Chip      string
	RelayPin  int
	SensorPin int

	Window       time.Duration
	Poll         time.Duration
	MinFlow      time.Duration
	Overrun      time.Duration
	MinBackwash  time.Duration
	PowerOffHold time.Duration
	MaxRetries   int
	ReportHour   int

	Hostname      string
	NotifyTimeout time.Duration

	Broker   string
	HTTPAddr string
	DBPath   string

	PushoverToken  string
	PushoverUser   string
	TelegramToken  string
	TelegramChatID int64

	LogLevel  string
	LogFormat string

	PrintState bool
}

// newFlagSet declares every flag with its default.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("softener-guard", pflag.ContinueOnError)

	fs.String("config", "", "Optional config file (yaml, toml or json)")
	fs.String("env-file", ".env", "Optional dotenv file loaded before reading the environment")

	fs.String("gpio-chip", gpio.DefaultChip, "GPIO character device")
	fs.Int("relay-pin", gpio.DefaultPinRelay, "BCM pin number driving the power relay")
	fs.Int("sensor-pin", gpio.DefaultPinSensor, "BCM pin number of the flow switch")

	fs.Duration("window", 20*time.Second, "Flow observation window")
	fs.Duration("poll", 10*time.Millisecond, "Sensor polling interval within a window")
	fs.Duration("min-flow", 5*time.Second, "Active time within a window above which water counts as flowing")
	fs.Duration("overrun", 180*time.Second, "Backwash duration after which the softener is restarted")
	fs.Duration("min-backwash", 60*time.Second, "Shortest flow period reported as a completed backwash")
	fs.Duration("power-off-hold", 10*time.Second, "How long the softener stays unpowered during a restart")
	fs.Int("max-retries", 2, "Restarts after the first one before giving up")
	fs.Int("report-hour", 4, "Local hour of the daily still-alive notification")

	fs.String("hostname", "", "Name used in notifications (defaults to the system hostname)")
	fs.Duration("notify-timeout", 10*time.Second, "Upper bound for each notification or record call")

	fs.String("broker", "", "MQTT broker address, e.g. tcp://192.168.1.200:1883 (empty disables)")
	fs.String("http", "", "HTTP status address, e.g. :8080 (empty disables)")
	fs.String("db", "waterflow.db", "SQLite event log path (empty disables)")

	fs.String("pushover-token", "", "Pushover application token")
	fs.String("pushover-user", "", "Pushover user key")
	fs.String("telegram-token", "", "Telegram bot token")
	fs.Int64("telegram-chat-id", 0, "Telegram chat id")

	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-format", "json", "Log format: json or console")

	fs.Bool("print-state", false, "Print current flow sensor state and exit")
	return fs
}

// Load parses args (without the program name) and resolves every setting.
// Precedence: flag > environment > config file > default.
func Load(args []string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if envFile, _ := fs.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		Chip:           v.GetString("gpio-chip"),
		RelayPin:       v.GetInt("relay-pin"),
		SensorPin:      v.GetInt("sensor-pin"),
		Window:         v.GetDuration("window"),
		Poll:           v.GetDuration("poll"),
		MinFlow:        v.GetDuration("min-flow"),
		Overrun:        v.GetDuration("overrun"),
		MinBackwash:    v.GetDuration("min-backwash"),
		PowerOffHold:   v.GetDuration("power-off-hold"),
		MaxRetries:     v.GetInt("max-retries"),
		ReportHour:     v.GetInt("report-hour"),
		Hostname:       v.GetString("hostname"),
		NotifyTimeout:  v.GetDuration("notify-timeout"),
		Broker:         v.GetString("broker"),
		HTTPAddr:       v.GetString("http"),
		DBPath:         v.GetString("db"),
		PushoverToken:  v.GetString("pushover-token"),
		PushoverUser:   v.GetString("pushover-user"),
		TelegramToken:  v.GetString("telegram-token"),
		TelegramChatID: v.GetInt64("telegram-chat-id"),
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
		PrintState:     v.GetBool("print-state"),
	}

	if cfg.Hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			h = "unknown"
		}
		cfg.Hostname = h
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the supervisor cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.RelayPin < 0 || c.SensorPin < 0 {
		errs = append(errs, errors.New("pin numbers must not be negative"))
	}
	if c.RelayPin == c.SensorPin {
		errs = append(errs, fmt.Errorf("relay and sensor share pin %d", c.RelayPin))
	}
	if c.Window <= 0 {
		errs = append(errs, errors.New("window must be positive"))
	}
	if c.Poll <= 0 || c.Poll > c.Window {
		errs = append(errs, fmt.Errorf("poll %v must be positive and no longer than window %v", c.Poll, c.Window))
	}
	if c.MinFlow < 0 || c.MinFlow >= c.Window {
		errs = append(errs, fmt.Errorf("min-flow %v must be within [0, window %v)", c.MinFlow, c.Window))
	}
	if c.Overrun <= 0 {
		errs = append(errs, errors.New("overrun must be positive"))
	}
	if c.MinBackwash < 0 {
		errs = append(errs, errors.New("min-backwash must not be negative"))
	}
	if c.PowerOffHold <= 0 {
		errs = append(errs, errors.New("power-off-hold must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max-retries must not be negative"))
	}
	if c.ReportHour < 0 || c.ReportHour > 23 {
		errs = append(errs, fmt.Errorf("report-hour %d out of range 0-23", c.ReportHour))
	}
	if c.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("notify-timeout must be positive"))
	}
	if (c.PushoverToken == "") != (c.PushoverUser == "") {
		errs = append(errs, errors.New("pushover-token and pushover-user must be set together"))
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		errs = append(errs, errors.New("telegram-chat-id is required with telegram-token"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

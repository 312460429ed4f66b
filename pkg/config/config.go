package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendCalDAV = "caldav"
	BackendGoogle = "google"
	BackendNone   = "none"
)

type Config struct {
	Address        string
	InternalDomain string
	Timezone       string

	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
	SMTPSecure bool

	CalendarBackend   string
	CalDAVCalendarURL string
	CalDAVUsername    string
	CalDAVPassword    string

	GoogleCredentialsFile string
	GoogleTokenFile       string
	GoogleCalendarID      string

	TelegramToken  string
	TelegramChatID int64

	AdapterTimeout   time.Duration
	ReminderInterval time.Duration
	ReminderWindow   time.Duration
}

// Load reads the configuration from the environment. A .env file is optional
// when the variables come from elsewhere (Docker, CI).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Address:        lookupEnv("ADDRESS", ":8080"),
		InternalDomain: lookupEnv("INTERNAL_DOMAIN", "example.com"),
		Timezone:       lookupEnv("TIMEZONE", "UTC"),

		SMTPHost:   os.Getenv("SMTP_HOST"),
		SMTPPort:   lookupEnvInt("SMTP_PORT", 587),
		SMTPUser:   os.Getenv("SMTP_USER"),
		SMTPPass:   os.Getenv("SMTP_PASS"),
		SMTPFrom:   os.Getenv("SMTP_FROM"),
		SMTPSecure: lookupEnvBool("SMTP_SECURE", false),

		CalendarBackend:   lookupEnv("CALENDAR_BACKEND", BackendNone),
		CalDAVCalendarURL: os.Getenv("CALDAV_CALENDAR_URL"),
		CalDAVUsername:    os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:    os.Getenv("CALDAV_PASSWORD"),

		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleTokenFile:       lookupEnv("GOOGLE_TOKEN_FILE", "token.json"),
		GoogleCalendarID:      os.Getenv("GOOGLE_CALENDAR_ID"),

		TelegramToken:  os.Getenv("TG_TOKEN"),
		TelegramChatID: lookupEnvInt64("TG_CHAT_ID", 0),

		AdapterTimeout:   lookupEnvDuration("ADAPTER_TIMEOUT", 15*time.Second),
		ReminderInterval: lookupEnvDuration("REMINDER_INTERVAL", time.Minute),
		ReminderWindow:   lookupEnvDuration("REMINDER_WINDOW", 10*time.Minute),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("config: SMTP_HOST is required")
	}
	if c.SMTPFrom == "" {
		return fmt.Errorf("config: SMTP_FROM is required")
	}
	switch c.CalendarBackend {
	case BackendCalDAV:
		if c.CalDAVCalendarURL == "" {
			return fmt.Errorf("config: CALDAV_CALENDAR_URL is required for the caldav backend")
		}
	case BackendGoogle:
		if c.GoogleCredentialsFile == "" {
			return fmt.Errorf("config: GOOGLE_CREDENTIALS_FILE is required for the google backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("config: unknown CALENDAR_BACKEND %q", c.CalendarBackend)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("config: TG_CHAT_ID is required when TG_TOKEN is set")
	}
	return nil
}

func lookupEnv(key, defaultValue string) string {
	result := os.Getenv(key)
	if result == "" {
		return defaultValue
	}
	return result
}

func lookupEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return i
}

func lookupEnvInt64(key string, defaultValue int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultValue
	}
	return i
}

func lookupEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func lookupEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

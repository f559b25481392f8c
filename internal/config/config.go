package config

import (
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata" // peak hour timezones must resolve in minimal images

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
	Database   Database   `yaml:"database"`
	S3         S3         `yaml:"s3"`
	Ayrshare   Ayrshare   `yaml:"ayrshare"`
	Instagram  Instagram  `yaml:"instagram"`
	Email      Email      `yaml:"email"`
	Brevo      Brevo      `yaml:"brevo"`
	SMTP       SMTP       `yaml:"smtp"`
	Blogger    Blogger    `yaml:"blogger"`
	OpenAI     OpenAI     `yaml:"openai"`
	NewsAPI    NewsAPI    `yaml:"newsapi"`
	Slack      Slack      `yaml:"slack"`
	Publish    Publish    `yaml:"publish"`
	PeakHours  PeakHours  `yaml:"peak_hours"`
	Dispatcher Dispatcher `yaml:"dispatcher"`
	Automation Automation `yaml:"automation"`
}

// Server holds HTTP server configuration
type Server struct {
	Host           string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port           string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"90s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Log holds logger configuration
type Log struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format     string `yaml:"format" env:"LOG_FORMAT" env-default:"json"` // json, text
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"30"`
}

// Database holds database configuration.
// An empty DSN selects in-memory stores.
type Database struct {
	PostgresDSN  string        `yaml:"postgres_dsn" env:"DATABASE_URL"`
	MaxConns     int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"25"`
	MinConns     int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"2"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"DB_CONN_LIFETIME" env-default:"30m"`
	Migrate      bool          `yaml:"migrate" env:"DB_MIGRATE" env-default:"true"`
}

// S3 holds S3/MinIO media storage configuration.
// Uploads are disabled when Bucket is empty.
type S3 struct {
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string `yaml:"public_url" env:"S3_PUBLIC_URL"`
}

// Ayrshare holds social posting API configuration
type Ayrshare struct {
	APIKey  string `yaml:"api_key" env:"AYRSHARE_API_KEY"`
	BaseURL string `yaml:"base_url" env:"AYRSHARE_BASE_URL" env-default:"https://api.ayrshare.com/api"`
}

// Instagram holds Instagram Graph API configuration.
// When UserID and AccessToken are set, instagram publishes through the Graph API.
type Instagram struct {
	BaseURL      string        `yaml:"base_url" env:"INSTAGRAM_BASE_URL" env-default:"https://graph.instagram.com"`
	APIVersion   string        `yaml:"api_version" env:"INSTAGRAM_API_VERSION" env-default:"v21.0"`
	UserID       string        `yaml:"user_id" env:"INSTAGRAM_USER_ID"`
	AccessToken  string        `yaml:"access_token" env:"INSTAGRAM_ACCESS_TOKEN"`
	PollAttempts int           `yaml:"poll_attempts" env:"INSTAGRAM_POLL_ATTEMPTS" env-default:"5"`
	PollInterval time.Duration `yaml:"poll_interval" env:"INSTAGRAM_POLL_INTERVAL" env-default:"3s"`
}

// GraphEnabled reports whether Graph API credentials are configured
func (i Instagram) GraphEnabled() bool {
	return i.UserID != "" && i.AccessToken != ""
}

// Email holds email channel configuration
type Email struct {
	Provider       string   `yaml:"provider" env:"EMAIL_PROVIDER" env-default:"brevo"` // brevo, smtp
	SenderName     string   `yaml:"sender_name" env:"EMAIL_SENDER_NAME" env-default:"Automarketer"`
	SenderEmail    string   `yaml:"sender_email" env:"EMAIL_SENDER_EMAIL"`
	DefaultSubject string   `yaml:"default_subject" env:"EMAIL_DEFAULT_SUBJECT" env-default:"Marketing Update"`
	Recipients     []string `yaml:"recipients" env:"EMAIL_RECIPIENTS" env-separator:","`
}

// Brevo holds Brevo transactional email configuration
type Brevo struct {
	APIKey  string `yaml:"api_key" env:"BREVO_API_KEY"`
	BaseURL string `yaml:"base_url" env:"BREVO_BASE_URL" env-default:"https://api.brevo.com/v3"`
}

// SMTP holds SMTP relay configuration
type SMTP struct {
	Host        string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port        int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username    string `yaml:"username" env:"SMTP_USERNAME"`
	Password    string `yaml:"password" env:"SMTP_PASSWORD"`
	InsecureTLS bool   `yaml:"insecure_tls" env:"SMTP_INSECURE_TLS" env-default:"false"`
}

// Blogger holds Blogger v3 configuration
type Blogger struct {
	BlogID  string `yaml:"blog_id" env:"BLOGGER_BLOG_ID"`
	APIKey  string `yaml:"api_key" env:"BLOGGER_API_KEY"`
	BaseURL string `yaml:"base_url" env:"BLOGGER_BASE_URL" env-default:"https://www.googleapis.com/blogger/v3"`
}

// OpenAI holds content generation configuration.
// Without an API key the template generator is used.
type OpenAI struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Model   string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
}

// NewsAPI holds trending topic source configuration.
// Without an API key the static topic list is used.
type NewsAPI struct {
	APIKey   string `yaml:"api_key" env:"NEWSAPI_API_KEY"`
	BaseURL  string `yaml:"base_url" env:"NEWSAPI_BASE_URL" env-default:"https://newsapi.org/v2"`
	PageSize int    `yaml:"page_size" env:"NEWSAPI_PAGE_SIZE" env-default:"10"`
}

// Slack holds failure notification configuration
type Slack struct {
	Token   string `yaml:"token" env:"SLACK_TOKEN"`
	Channel string `yaml:"channel" env:"SLACK_CHANNEL"`
}

// Enabled reports whether failures are posted to Slack
func (s Slack) Enabled() bool {
	return s.Token != "" && s.Channel != ""
}

// Publish holds orchestrator configuration
type Publish struct {
	TargetTimeout    time.Duration `yaml:"target_timeout" env:"PUBLISH_TARGET_TIMEOUT" env-default:"30s"`
	BreakerEnabled   bool          `yaml:"breaker_enabled" env:"PUBLISH_BREAKER_ENABLED" env-default:"false"`
	BreakerFailures  uint          `yaml:"breaker_failures" env:"PUBLISH_BREAKER_FAILURES" env-default:"5"`
	BreakerWindow    uint          `yaml:"breaker_window" env:"PUBLISH_BREAKER_WINDOW" env-default:"10"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay" env:"PUBLISH_BREAKER_OPEN_DELAY" env-default:"1m"`
}

// PeakHours holds peak hour registry configuration
type PeakHours struct {
	Defaults []int  `yaml:"defaults" env:"PEAK_HOURS_DEFAULTS" env-separator:"," env-default:"9,12,15,18,20"`
	Timezone string `yaml:"timezone" env:"PEAK_HOURS_TIMEZONE" env-default:"UTC"`
}

// Location resolves the configured timezone
func (p PeakHours) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// Dispatcher holds schedule queue dispatch configuration
type Dispatcher struct {
	Enabled      bool          `yaml:"enabled" env:"DISPATCHER_ENABLED" env-default:"true"`
	Interval     time.Duration `yaml:"interval" env:"DISPATCHER_INTERVAL" env-default:"30s"`
	BatchSize    int           `yaml:"batch_size" env:"DISPATCHER_BATCH_SIZE" env-default:"50"`
	Concurrency  int           `yaml:"concurrency" env:"DISPATCHER_CONCURRENCY" env-default:"4"`
	StaleTimeout time.Duration `yaml:"stale_timeout" env:"DISPATCHER_STALE_TIMEOUT" env-default:"15m"`
	MaxJitter    time.Duration `yaml:"max_jitter" env:"DISPATCHER_MAX_JITTER" env-default:"5s"`
}

// Automation holds automation loop defaults
type Automation struct {
	DefaultInterval  time.Duration `yaml:"default_interval" env:"AUTOMATION_DEFAULT_INTERVAL" env-default:"1h"`
	DefaultPlatforms []string      `yaml:"default_platforms" env:"AUTOMATION_DEFAULT_PLATFORMS" env-separator:"," env-default:"twitter,linkedin"`
	DefaultMode      string        `yaml:"default_mode" env:"AUTOMATION_DEFAULT_MODE" env-default:"post_now"`
	TickTimeout      time.Duration `yaml:"tick_timeout" env:"AUTOMATION_TICK_TIMEOUT" env-default:"5m"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks values cleanenv cannot express
func (c Config) Validate() error {
	switch strings.ToLower(c.Email.Provider) {
	case "brevo", "smtp":
	default:
		return fmt.Errorf("email provider must be brevo or smtp, got %q", c.Email.Provider)
	}

	for _, h := range c.PeakHours.Defaults {
		if h < 0 || h > 23 {
			return fmt.Errorf("peak hour %d out of range 0..23", h)
		}
	}

	if _, err := c.PeakHours.Location(); err != nil {
		return err
	}

	if c.Publish.BreakerEnabled && (c.Publish.BreakerWindow == 0 || c.Publish.BreakerFailures > c.Publish.BreakerWindow) {
		return fmt.Errorf("breaker failures (%d) must be within a non-empty window (%d)", c.Publish.BreakerFailures, c.Publish.BreakerWindow)
	}

	switch c.Automation.DefaultMode {
	case "post_now", "schedule_peak":
	default:
		return fmt.Errorf("automation default mode must be post_now or schedule_peak, got %q", c.Automation.DefaultMode)
	}

	return nil
}

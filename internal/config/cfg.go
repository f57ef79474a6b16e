package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Host           string `envconfig:"SERVER_HOST"     default:"0.0.0.0"`
	Port           string `envconfig:"SERVER_PORT"     default:"8080"`
	ReadTimeout    int    `envconfig:"SERVER_TIMEOUT"  default:"10"`
	RequestTimeout int    `envconfig:"REQUEST_TIMEOUT" default:"30"`
}

type CORS struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type Store struct {
	Driver         string `envconfig:"STORE_DRIVER"       default:"mongo"`
	MongoURI       string `envconfig:"MONGODB_URI"`
	Database       string `envconfig:"MONGODB_DB"         default:"GF-DB"`
	Collection     string `envconfig:"MONGODB_COLLECTION" default:"subscribers"`
	SQLitePath     string `envconfig:"SQLITE_PATH"        default:"subscribers.db"`
	ConnectTimeout int    `envconfig:"DB_CONNECT_TIMEOUT" default:"10"`
}

// SMTP values are optional. A missing sender or credentials is reported per request.
type SMTP struct {
	Host     string `envconfig:"SMTP_HOST"     default:"email-smtp.eu-west-1.amazonaws.com"`
	Port     string `envconfig:"SMTP_PORT"     default:"587"`
	TLSMode  string `envconfig:"SMTP_TLS_MODE" default:"starttls"`
	Username string `envconfig:"SES_SMTP_USERNAME"`
	Password string `envconfig:"SES_SMTP_PASSWORD"`
	From     string `envconfig:"SENDER_EMAIL"`
	FromName string `envconfig:"SENDER_NAME"   default:"Gianluca Fornaciari"`
	Bcc      string `envconfig:"ADMIN_BCC_EMAIL"`
	Timeout  int    `envconfig:"SMTP_TIMEOUT"  default:"30"`
}

type Breaker struct {
	TimeInterval int    `envconfig:"BREAKER_INTERVAL"   default:"60"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT"    default:"30"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type Brand struct {
	Website  string `envconfig:"BRAND_PRIMARY_WEBSITE"`
	LinkedIn string `envconfig:"BRAND_PRIMARY_LINKEDIN"`
	X        string `envconfig:"BRAND_PRIMARY_X"`
	EbookURL string `envconfig:"EBOOK_URL"`
	Owner    string `envconfig:"BRAND_OWNER" default:"Gianluca Fornaciari"`
}

type Config struct {
	Server  Server
	CORS    CORS
	Store   Store
	SMTP    SMTP
	Breaker Breaker
	Brand   Brand

	LogsPath      string `envconfig:"LOGS_PATH"           default:"./logs/subscribe-api.log"`
	MailAuditPath string `envconfig:"MAIL_AUDIT_LOG_PATH" default:"./logs/mail-audit.log"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (s *Server) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func (s *Store) ConnectTimeoutDuration() time.Duration {
	return time.Duration(s.ConnectTimeout) * time.Second
}

func (s *SMTP) Address() string {
	return s.Host + ":" + s.Port
}

func (s *SMTP) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Event    EventConfig
	Fonts    FontsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds the document store connection settings
type DatabaseConfig struct {
	Driver       string // sqlite, postgres
	Path         string // sqlite file path
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// StorageConfig holds photo storage settings
type StorageConfig struct {
	Driver  string // local, s3
	BaseDir string // local driver root

	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	Prefix       string
}

// UploadConfig limits registration uploads
type UploadConfig struct {
	MaxPhotoBytes int64
	ReadTimeout   time.Duration
}

// EventConfig holds the texts printed in the report title block and PDF metadata
type EventConfig struct {
	Organization string
	Name         string
	Section      string
}

// FontsConfig 替换内置 Go 字体的 TTF/OTF 文件；相对路径以 Dir 为根，留空则使用内置字体
type FontsConfig struct {
	Dir    string
	Body   string
	Bold   string
	Italic string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with EVENTPASS_ prefix (e.g., EVENTPASS_STORAGE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("EVENTPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("database.driver")),
			Path:         v.GetString("database.path"),
			Host:         v.GetString("database.host"),
			Port:         v.GetInt("database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			DBName:       v.GetString("database.dbname"),
			SSLMode:      v.GetString("database.sslmode"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(v.GetString("storage.driver")),
			BaseDir:      v.GetString("storage.base_dir"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			Prefix:       v.GetString("storage.prefix"),
		},
		Upload: UploadConfig{
			MaxPhotoBytes: v.GetInt64("upload.max_photo_bytes"),
			ReadTimeout:   v.GetDuration("upload.read_timeout"),
		},
		Event: EventConfig{
			Organization: v.GetString("event.organization"),
			Name:         v.GetString("event.name"),
			Section:      v.GetString("event.section"),
		},
		Fonts: FontsConfig{
			Dir:    v.GetString("fonts.dir"),
			Body:   v.GetString("fonts.body"),
			Bold:   v.GetString("fonts.bold"),
			Italic: v.GetString("fonts.italic"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "eventpass")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/eventpass.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "eventpass")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.base_dir", "uploads")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_path_style", true)

	v.SetDefault("upload.max_photo_bytes", 5<<20)
	v.SetDefault("upload.read_timeout", 30*time.Second)

	v.SetDefault("event.organization", "Organization")
	v.SetDefault("event.name", "Annual Gathering")
	v.SetDefault("event.section", "Registered Participants")

	v.SetDefault("fonts.dir", "fonts")
	v.SetDefault("fonts.body", "")
	v.SetDefault("fonts.bold", "")
	v.SetDefault("fonts.italic", "")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("database.host and database.dbname are required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.BaseDir == "" {
			return errors.New("storage.base_dir is required for local storage")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.Storage.Driver)
	}

	if c.Upload.MaxPhotoBytes <= 0 {
		return errors.New("upload.max_photo_bytes must be positive")
	}
	return nil
}

// DSN returns the postgres connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

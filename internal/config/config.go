package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FORMS_SERVER_PORT.
const EnvPrefix = "FORMS"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Output    OutputConfig    `mapstructure:"output"`
	Converter ConverterConfig `mapstructure:"converter"`
	Mail      MailConfig      `mapstructure:"mail"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// RateLimit is the sustained requests per second allowed per client on
	// the public form endpoints; zero disables limiting.
	RateLimit   float64  `mapstructure:"rate_limit"`
	RateBurst   int      `mapstructure:"rate_burst"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// TemplatesConfig points at the two registration templates.
type TemplatesConfig struct {
	Named      string `mapstructure:"named"`
	Positional string `mapstructure:"positional"`
}

// OutputConfig controls where generated forms land and how long they stay.
type OutputConfig struct {
	Dir          string        `mapstructure:"dir"`
	Retention    time.Duration `mapstructure:"retention"`
	CleanupCron  string        `mapstructure:"cleanup_cron"`
	KeepTempDocx bool          `mapstructure:"keep_temp_docx"`
}

// ConverterConfig selects the PDF backend.
type ConverterConfig struct {
	Backend  string        `mapstructure:"backend"`
	Binary   string        `mapstructure:"binary"`
	Timeout  time.Duration `mapstructure:"timeout"`
	FontPath string        `mapstructure:"font_path"`
}

// MailConfig selects the mail provider. An empty provider disables email.
type MailConfig struct {
	Provider         string     `mapstructure:"provider"`
	FromAddress      string     `mapstructure:"from_address"`
	FromName         string     `mapstructure:"from_name"`
	SMTP             SMTPConfig `mapstructure:"smtp"`
	SESRegion        string     `mapstructure:"ses_region"`
	ConfigurationSet string     `mapstructure:"configuration_set"`
}

// SMTPConfig represents the relay credentials
type SMTPConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	SSL                bool   `mapstructure:"ssl"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// StorageConfig configures the object store that keeps approved forms.
type StorageConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UsePathStyle    bool          `mapstructure:"use_path_style"`
	PresignTTL      time.Duration `mapstructure:"presign_ttl"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	Path           string        `mapstructure:"path"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
}

// AuthConfig protects the admin endpoints.
type AuthConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Supported driver, backend and provider names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendLibreOffice = "libreoffice"
	BackendText        = "text"

	ProviderSMTP = "smtp"
	ProviderSES  = "ses"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.idle_timeout", time.Minute)
	v.SetDefault("server.rate_limit", 2.0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("templates.named", "templates/volDoc.docx")
	v.SetDefault("templates.positional", "templates/volDoc.docx")

	v.SetDefault("output.dir", "forms")
	v.SetDefault("output.retention", 30*24*time.Hour)
	v.SetDefault("output.cleanup_cron", "0 0 3 * * *")

	v.SetDefault("converter.backend", BackendLibreOffice)
	v.SetDefault("converter.binary", "soffice")
	v.SetDefault("converter.timeout", 90*time.Second)

	v.SetDefault("mail.from_name", "המינהל הקהילתי לב העיר")
	v.SetDefault("mail.smtp.port", 587)

	v.SetDefault("storage.presign_ttl", 7*24*time.Hour)
	v.SetDefault("storage.key_prefix", "bituahForms")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "forms.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.db_name", "volunteer_forms")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", time.Hour)

	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("logging.level", "info")

	// Keys without a meaningful default are still registered so that
	// AutomaticEnv overrides reach them on Unmarshal.
	for _, key := range []string{
		"converter.font_path",
		"mail.provider", "mail.from_address", "mail.ses_region", "mail.configuration_set",
		"mail.smtp.host", "mail.smtp.username", "mail.smtp.password",
		"storage.bucket", "storage.region", "storage.endpoint",
		"storage.access_key_id", "storage.secret_access_key",
		"database.user", "database.password",
		"auth.jwt_secret", "auth.admin_password_hash",
	} {
		v.SetDefault(key, "")
	}
	for _, key := range []string{
		"output.keep_temp_docx",
		"mail.smtp.ssl", "mail.smtp.insecure_skip_verify",
		"storage.enabled", "storage.use_path_style",
		"auth.enabled",
		"logging.development",
	} {
		v.SetDefault(key, false)
	}
}

// LoadConfig loads configuration from defaults, the optional config file, a
// .env file in the working directory and FORMS_* environment variables, in
// increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Templates.Named == "" {
		errs = append(errs, errors.New("templates.named is required"))
	}
	if c.Templates.Positional == "" {
		errs = append(errs, errors.New("templates.positional is required"))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}

	switch c.Converter.Backend {
	case BackendLibreOffice:
		if c.Converter.Binary == "" {
			errs = append(errs, errors.New("converter.binary is required for the libreoffice backend"))
		}
	case BackendText:
	default:
		errs = append(errs, fmt.Errorf("converter.backend %q is not supported", c.Converter.Backend))
	}

	switch c.Mail.Provider {
	case "":
	case ProviderSMTP:
		if c.Mail.SMTP.Host == "" {
			errs = append(errs, errors.New("mail.smtp.host is required for the smtp provider"))
		}
		if c.Mail.FromAddress == "" {
			errs = append(errs, errors.New("mail.from_address is required"))
		}
	case ProviderSES:
		if c.Mail.SESRegion == "" {
			errs = append(errs, errors.New("mail.ses_region is required for the ses provider"))
		}
		if c.Mail.FromAddress == "" {
			errs = append(errs, errors.New("mail.from_address is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("mail.provider %q is not supported", c.Mail.Provider))
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required when storage is enabled"))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("database.host and database.db_name are required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("auth.jwt_secret is required when auth is enabled"))
		}
		if c.Auth.AdminPasswordHash == "" {
			errs = append(errs, errors.New("auth.admin_password_hash is required when auth is enabled"))
		}
	}

	return errors.Join(errs...)
}

// GetDatabaseURL returns the connection string for the configured driver.
func (c *DatabaseConfig) GetDatabaseURL() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

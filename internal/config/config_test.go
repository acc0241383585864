package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.GetServerAddr())
	assert.Equal(t, BackendLibreOffice, cfg.Converter.Backend)
	assert.Equal(t, 90*time.Second, cfg.Converter.Timeout)
	assert.Equal(t, "bituahForms", cfg.Storage.KeyPrefix)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Empty(t, cfg.Mail.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "forms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8081
output:
  dir: /srv/forms
converter:
  backend: text
  timeout: 30s
mail:
  provider: smtp
  from_address: office@example.org
  smtp:
    host: smtp.example.org
`), 0o644))

	t.Setenv("FORMS_SERVER_PORT", "9090")
	t.Setenv("FORMS_MAIL_SMTP_PASSWORD", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/forms", cfg.Output.Dir)
	assert.Equal(t, BackendText, cfg.Converter.Backend)
	assert.Equal(t, 30*time.Second, cfg.Converter.Timeout)
	assert.Equal(t, "smtp.example.org", cfg.Mail.SMTP.Host)
	assert.Equal(t, 587, cfg.Mail.SMTP.Port)
	assert.Equal(t, "from-env", cfg.Mail.SMTP.Password)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FORMS_AUTH_JWT_SECRET=dotenv-secret\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FORMS_AUTH_JWT_SECRET") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "dotenv-secret", cfg.Auth.JWTSecret)
}

func TestLoadConfig_BadFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: 5000},
		Templates: TemplatesConfig{Named: "named.docx", Positional: "positional.docx"},
		Output:    OutputConfig{Dir: "forms"},
		Converter: ConverterConfig{Backend: BackendLibreOffice, Binary: "soffice"},
		Database:  DatabaseConfig{Driver: DriverSQLite, Path: "forms.db"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "template", mutate: func(c *Config) { c.Templates.Positional = "" }, wantErr: "templates.positional"},
		{name: "output dir", mutate: func(c *Config) { c.Output.Dir = "" }, wantErr: "output.dir"},
		{name: "backend", mutate: func(c *Config) { c.Converter.Backend = "word" }, wantErr: "converter.backend"},
		{name: "smtp host", mutate: func(c *Config) {
			c.Mail.Provider = ProviderSMTP
			c.Mail.FromAddress = "a@example.org"
		}, wantErr: "mail.smtp.host"},
		{name: "ses region", mutate: func(c *Config) {
			c.Mail.Provider = ProviderSES
			c.Mail.FromAddress = "a@example.org"
		}, wantErr: "mail.ses_region"},
		{name: "provider", mutate: func(c *Config) { c.Mail.Provider = "fax" }, wantErr: "mail.provider"},
		{name: "bucket", mutate: func(c *Config) { c.Storage.Enabled = true }, wantErr: "storage.bucket"},
		{name: "driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "jwt", mutate: func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.AdminPasswordHash = "hash"
		}, wantErr: "auth.jwt_secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	sqlite := DatabaseConfig{Driver: DriverSQLite, Path: "forms.db"}
	assert.Equal(t, "forms.db", sqlite.GetDatabaseURL())

	pg := DatabaseConfig{Driver: DriverPostgres, User: "u", Password: "p", Host: "db", Port: 5432, DBName: "forms", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/forms?sslmode=disable", pg.GetDatabaseURL())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger(LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))

	_, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

package internal

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultport/internal/converter"
	"github.com/starford/vaultport/internal/linter"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var extRe = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Convert ConvertConfig     `yaml:"convert"`
	Lint    linter.Config     `yaml:"lint"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Convert.Validate(); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if err := c.Lint.Validate(); err != nil {
		return fmt.Errorf("lint: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ConvertConfig describes one export tree and the vault it becomes.
type ConvertConfig struct {
	Source          string   `yaml:"source"`
	Dest            string   `yaml:"dest"`
	AttachmentsDir  string   `yaml:"attachments_dir"`
	AssetExtensions []string `yaml:"asset_extensions"`
	Exclude         []string `yaml:"exclude"`
	Catalog         bool     `yaml:"catalog"`
	SkipUnchanged   bool     `yaml:"skip_unchanged"`
}

// Validate validates the conversion configuration.
func (c *ConvertConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required),
		validation.Field(&c.Dest, validation.Required),
		validation.Field(&c.AttachmentsDir, validation.Required),
		validation.Field(&c.AssetExtensions, validation.Each(validation.Match(extRe).Error("must look like .png"))),
		validation.Field(&c.Exclude, validation.Each(validation.By(validGlob))),
		validation.Field(&c.Catalog, validation.When(c.SkipUnchanged,
			validation.Required.Error("must be enabled when skip_unchanged is set"))),
	)
}

func validGlob(v any) error {
	s, _ := v.(string)
	if !doublestar.ValidatePattern(s) {
		return fmt.Errorf("invalid glob %q", s)
	}
	return nil
}

// SQLiteConfig holds SQLite catalog configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Convert: ConvertConfig{
			Source:          "./export",
			Dest:            "./vault",
			AttachmentsDir:  converter.DefaultAttachmentsDir,
			AssetExtensions: append([]string(nil), converter.DefaultAssetExtensions...),
			Exclude:         []string{"**/.DS_Store", "**/.git/**", "**/node_modules/**"},
		},
		Lint: linter.DefaultConfig(),
		SQLite: SQLiteConfig{
			Path: "./vaultport.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

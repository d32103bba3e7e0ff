/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package internal

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	FolderPath        string `yaml:"folder-path"`
	DBName            string `yaml:"db-name" env:"VAILETH_DB_NAME"`
	HTTPServerPort    uint16 `yaml:"http-server-port" env:"VAILETH_HTTP_PORT"`
	TemplateDirectory string `yaml:"template-directory" env:"VAILETH_TEMPLATE_DIRECTORY"`
	ReadTimeout       int64  `yaml:"read-timeout" env:"VAILETH_READ_TIMEOUT"`   // Seconds
	WriteTimeout      int64  `yaml:"write-timeout" env:"VAILETH_WRITE_TIMEOUT"` // Seconds
	SecretKey         string `yaml:"secret-key" env:"VAILETH_SECRET_KEY"`       // Signs the session cookie
	SecureCookies     bool   `yaml:"secure-cookies" env:"VAILETH_SECURE_COOKIES"`

	EnableLogging bool   `yaml:"enable-logging" env:"VAILETH_ENABLE_LOGGING"`
	LogLevel      string `yaml:"log-level" env:"VAILETH_LOG_LEVEL"`
	LogFormat     string `yaml:"log-format" env:"VAILETH_LOG_FORMAT"`

	Identity IdentityConfig `yaml:"identity"`

	PresenceWindow time.Duration `yaml:"presence-window" env:"VAILETH_PRESENCE_WINDOW"` // How long a user stays online after their last request
	StatusTTL      time.Duration `yaml:"status-ttl" env:"VAILETH_STATUS_TTL"`           // Lifetime of a status update
	RateLimit      float64       `yaml:"rate-limit" env:"VAILETH_RATE_LIMIT"`           // Mutating requests per second per user
	RateBurst      int           `yaml:"rate-burst" env:"VAILETH_RATE_BURST"`
}

// Settings shared with the OAuth broker
type IdentityConfig struct {
	LoginURL        string `yaml:"login-url" env:"VAILETH_IDENTITY_LOGIN_URL"` // Where /auth/login sends the browser
	AssertionSecret string `yaml:"assertion-secret" env:"VAILETH_IDENTITY_SECRET"`
	Issuer          string `yaml:"issuer" env:"VAILETH_IDENTITY_ISSUER"`
	Audience        string `yaml:"audience" env:"VAILETH_IDENTITY_AUDIENCE"`
}

const (
	DefaultHTTPServerPort = 8080
	DefaultPresenceWindow = 5 * time.Minute
	DefaultStatusTTL      = 24 * time.Hour
)

// LoadConfig reads folderPath/.cfg, then lets folderPath/.env and the process environment override it.
// The file is YAML, JSON files are accepted as well.
func LoadConfig(folderPath string) (*Config, error) {

	file, err := os.OpenFile(filepath.Join(folderPath, ".cfg"), os.O_RDONLY, 0755)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var config *Config = &Config{}
	if err = yaml.Unmarshal(payload, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file.Name(), err)
	}

	if err := godotenv.Load(filepath.Join(folderPath, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := envdecode.Decode(config); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if config.FolderPath == "" {
		config.FolderPath = folderPath
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.DBName == "" {
		c.DBName = "vaileth.db"
	}
	if c.HTTPServerPort == 0 {
		c.HTTPServerPort = DefaultHTTPServerPort
	}
	if c.TemplateDirectory == "" {
		c.TemplateDirectory = "web/templates"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.PresenceWindow == 0 {
		c.PresenceWindow = DefaultPresenceWindow
	}
	if c.StatusTTL == 0 {
		c.StatusTTL = DefaultStatusTTL
	}
	if c.RateLimit == 0 {
		c.RateLimit = 5
	}
	if c.RateBurst == 0 {
		c.RateBurst = 20
	}
}

// Validate reports the first setting the server cannot start with
func (c *Config) Validate() error {
	switch {
	case len(c.SecretKey) < 32:
		return fmt.Errorf("secret-key must be at least 32 characters long")
	case c.Identity.AssertionSecret == "":
		return fmt.Errorf("identity.assertion-secret is required")
	case c.Identity.LoginURL == "":
		return fmt.Errorf("identity.login-url is required")
	case c.PresenceWindow < 0 || c.StatusTTL < 0:
		return fmt.Errorf("durations must be positive")
	case c.RateLimit < 0 || c.RateBurst < 0:
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

// DBPath resolves the database file inside the config folder
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.DBName) {
		return c.DBName
	}
	return filepath.Join(c.FolderPath, c.DBName)
}

func RetrieveWebTemplates(templateDir string) (map[string][]string, error) {

	mapping := make(map[string][]string)

	layoutPath := filepath.Join(templateDir, "layouts")
	layoutFiles, err := filepath.Glob(filepath.Join(layoutPath, "*.html"))
	if err != nil {
		return nil, err
	}

	pageFiles, err := filepath.Glob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, err
	}
	if len(pageFiles) == 0 {
		return nil, fmt.Errorf("no page templates in %s", templateDir)
	}

	for _, page := range pageFiles {
		files := append([]string{}, layoutFiles...)
		files = append(files, page)
		mapping[filepath.Base(page)] = files
	}

	return mapping, nil
}

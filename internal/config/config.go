// Package config provides configuration management for the StructSim console.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/constants"
)

// Config is the console configuration.
//
// Config file location:
//   - Unix: ~/.config/structsim/console.conf
//   - Windows: %APPDATA%\structsim\console.conf
//
// INI format:
//
//	[platform]
//	api_url = http://localhost:5000/api
//	timeout_seconds = 30
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 8080
//	user =
//	no_proxy = localhost,127.0.0.1
//
//	[console]
//	color = true
//	assume_yes = false
//
// The session token is not stored here; see Session.
type Config struct {
	APIURL         string
	TimeoutSeconds int

	// Token is resolved at runtime (flag, env or session file), never saved to console.conf.
	Token string

	Proxy   ProxyConfig
	Console ConsoleConfig
}

// ProxyConfig holds outbound proxy settings.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "basic" or "ntlm".
	Mode     string
	Host     string
	Port     int
	User     string
	Password string // never written to disk
	NoProxy  string
}

// ConsoleConfig holds presentation settings.
type ConsoleConfig struct {
	// Color enables styled toast output.
	Color bool

	// AssumeYes answers every confirmation with yes (same as --yes).
	AssumeYes bool
}

// Validation errors
var (
	ErrMissingAPIURL    = errors.New("api_url is required")
	ErrInvalidAPIURL    = errors.New("api_url must be an absolute http(s) URL")
	ErrMissingToken     = errors.New("not logged in: run 'structsim-console login' or set STRUCTSIM_TOKEN")
	ErrInvalidProxyMode = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost = errors.New("proxy host is required for basic and ntlm proxy modes")
	ErrInvalidTimeout   = errors.New("timeout_seconds must be between 1 and 600")
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIURL = "STRUCTSIM_API_URL"
	EnvToken  = "STRUCTSIM_TOKEN"
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		APIURL:         constants.DefaultAPIURL,
		TimeoutSeconds: int(constants.APIRequestTimeout / time.Second),
		Proxy: ProxyConfig{
			Mode: "no-proxy",
			Port: 8080,
		},
		Console: ConsoleConfig{
			Color: true,
		},
	}
}

// DefaultConfigPath returns the default path for console.conf.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "console.conf"), nil
}

// ConfigDir returns the directory holding console.conf and the session file.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to get home directory: %w", herr)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, constants.ConfigDirName), nil
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	platform := iniFile.Section("platform")
	cfg.APIURL = platform.Key("api_url").MustString(cfg.APIURL)
	cfg.TimeoutSeconds = platform.Key("timeout_seconds").MustInt(cfg.TimeoutSeconds)

	proxy := iniFile.Section("proxy")
	cfg.Proxy.Mode = proxy.Key("mode").MustString(cfg.Proxy.Mode)
	cfg.Proxy.Host = proxy.Key("host").String()
	cfg.Proxy.Port = proxy.Key("port").MustInt(cfg.Proxy.Port)
	cfg.Proxy.User = proxy.Key("user").String()
	cfg.Proxy.NoProxy = proxy.Key("no_proxy").String()

	console := iniFile.Section("console")
	cfg.Console.Color = console.Key("color").MustBool(cfg.Console.Color)
	cfg.Console.AssumeYes = console.Key("assume_yes").MustBool(false)

	return cfg, nil
}

// Save writes configuration to an INI file.
// Creates parent directories if they don't exist. The token and proxy
// password are never written.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	platform, err := iniFile.NewSection("platform")
	if err != nil {
		return fmt.Errorf("failed to create platform section: %w", err)
	}
	platform.Key("api_url").SetValue(cfg.APIURL)
	platform.Key("timeout_seconds").SetValue(fmt.Sprintf("%d", cfg.TimeoutSeconds))

	proxy, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxy.Key("mode").SetValue(cfg.Proxy.Mode)
	proxy.Key("host").SetValue(cfg.Proxy.Host)
	proxy.Key("port").SetValue(fmt.Sprintf("%d", cfg.Proxy.Port))
	proxy.Key("user").SetValue(cfg.Proxy.User)
	proxy.Key("no_proxy").SetValue(cfg.Proxy.NoProxy)

	console, err := iniFile.NewSection("console")
	if err != nil {
		return fmt.Errorf("failed to create console section: %w", err)
	}
	console.Key("color").SetValue(fmt.Sprintf("%t", cfg.Console.Color))
	console.Key("assume_yes").SetValue(fmt.Sprintf("%t", cfg.Console.AssumeYes))

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// ApplyEnv overrides the API URL and token from the environment when set.
func (cfg *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Token = v
	}
}

// Timeout returns the per-request timeout.
func (cfg *Config) Timeout() time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return constants.APIRequestTimeout
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// Set updates a single setting by its INI key ("api_url", "proxy.mode", ...).
// Used by 'config set'.
func (cfg *Config) Set(key, value string) error {
	var err error
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "api_url", "platform.api_url":
		cfg.APIURL = value
	case "timeout_seconds", "platform.timeout_seconds":
		_, err = fmt.Sscanf(value, "%d", &cfg.TimeoutSeconds)
	case "proxy.mode":
		cfg.Proxy.Mode = value
	case "proxy.host":
		cfg.Proxy.Host = value
	case "proxy.port":
		_, err = fmt.Sscanf(value, "%d", &cfg.Proxy.Port)
	case "proxy.user":
		cfg.Proxy.User = value
	case "proxy.no_proxy":
		cfg.Proxy.NoProxy = value
	case "console.color":
		cfg.Console.Color = parseBool(value)
	case "console.assume_yes":
		cfg.Console.AssumeYes = parseBool(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return cfg.Validate()
}

// Validate checks settings that do not depend on being logged in.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return ErrMissingAPIURL
	}
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidAPIURL
	}
	if cfg.TimeoutSeconds < 1 || cfg.TimeoutSeconds > 600 {
		return ErrInvalidTimeout
	}
	switch strings.ToLower(cfg.Proxy.Mode) {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.Proxy.Host) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxyMode
	}
	return nil
}

// ValidateForConnection additionally requires a session token.
func (cfg *Config) ValidateForConnection() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

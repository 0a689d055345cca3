package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.APIURL != "http://localhost:5000/api" {
		t.Errorf("expected default APIURL http://localhost:5000/api, got %s", cfg.APIURL)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("expected default TimeoutSeconds 30, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Proxy.Mode != "no-proxy" {
		t.Errorf("expected default proxy mode no-proxy, got %s", cfg.Proxy.Mode)
	}
	if !cfg.Console.Color {
		t.Error("expected color to default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "console.conf")

	cfg := NewConfig()
	cfg.APIURL = "https://structsim.example.com/api"
	cfg.TimeoutSeconds = 45
	cfg.Token = "should-not-be-saved"
	cfg.Proxy = ProxyConfig{
		Mode:     "basic",
		Host:     "proxy.example.com",
		Port:     3128,
		User:     "alice",
		Password: "secret",
		NoProxy:  "localhost,127.0.0.1",
	}
	cfg.Console.Color = false
	cfg.Console.AssumeYes = true

	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if strings.Contains(string(raw), "should-not-be-saved") || strings.Contains(string(raw), "secret") {
		t.Errorf("token or proxy password written to config file:\n%s", raw)
	}

	if runtime.GOOS != "windows" {
		info, _ := os.Stat(configPath)
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %04o", perm)
		}
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.APIURL != cfg.APIURL {
		t.Errorf("APIURL mismatch: expected %s, got %s", cfg.APIURL, loaded.APIURL)
	}
	if loaded.TimeoutSeconds != 45 {
		t.Errorf("TimeoutSeconds mismatch: expected 45, got %d", loaded.TimeoutSeconds)
	}
	if loaded.Proxy.Mode != "basic" || loaded.Proxy.Host != "proxy.example.com" || loaded.Proxy.Port != 3128 {
		t.Errorf("proxy mismatch: %+v", loaded.Proxy)
	}
	if loaded.Proxy.User != "alice" || loaded.Proxy.NoProxy != "localhost,127.0.0.1" {
		t.Errorf("proxy user/no_proxy mismatch: %+v", loaded.Proxy)
	}
	if loaded.Proxy.Password != "" {
		t.Error("proxy password should not round-trip through the file")
	}
	if loaded.Token != "" {
		t.Error("token should not round-trip through the file")
	}
	if loaded.Console.Color || !loaded.Console.AssumeYes {
		t.Errorf("console mismatch: %+v", loaded.Console)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil {
		t.Fatalf("Load of missing file should not fail: %v", err)
	}
	if cfg.APIURL != NewConfig().APIURL {
		t.Errorf("expected default APIURL, got %s", cfg.APIURL)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.conf")
	content := "[platform]\napi_url = https://sim.internal/api\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIURL != "https://sim.internal/api" {
		t.Errorf("APIURL = %s", cfg.APIURL)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("missing timeout should keep default, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Proxy.Mode != "no-proxy" {
		t.Errorf("missing proxy mode should keep default, got %s", cfg.Proxy.Mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"empty url", func(c *Config) { c.APIURL = "" }, ErrMissingAPIURL},
		{"relative url", func(c *Config) { c.APIURL = "/api" }, ErrInvalidAPIURL},
		{"ftp url", func(c *Config) { c.APIURL = "ftp://host/api" }, ErrInvalidAPIURL},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }, ErrInvalidTimeout},
		{"huge timeout", func(c *Config) { c.TimeoutSeconds = 601 }, ErrInvalidTimeout},
		{"unknown proxy mode", func(c *Config) { c.Proxy.Mode = "kerberos" }, ErrInvalidProxyMode},
		{"ntlm without host", func(c *Config) { c.Proxy.Mode = "ntlm" }, ErrMissingProxyHost},
		{"ntlm with host", func(c *Config) { c.Proxy.Mode = "ntlm"; c.Proxy.Host = "p" }, nil},
		{"basic without host", func(c *Config) { c.Proxy.Mode = "basic" }, ErrMissingProxyHost},
		{"basic with host", func(c *Config) { c.Proxy.Mode = "basic"; c.Proxy.Host = "p" }, nil},
		{"system proxy", func(c *Config) { c.Proxy.Mode = "system" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForConnection(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.ValidateForConnection(); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
	cfg.Token = "abc"
	if err := cfg.ValidateForConnection(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestSet(t *testing.T) {
	cfg := NewConfig()

	if err := cfg.Set("api_url", "https://other.example.com/api"); err != nil {
		t.Fatalf("Set api_url: %v", err)
	}
	if cfg.APIURL != "https://other.example.com/api" {
		t.Errorf("APIURL = %s", cfg.APIURL)
	}
	if err := cfg.Set("timeout_seconds", "12"); err != nil || cfg.TimeoutSeconds != 12 {
		t.Errorf("Set timeout_seconds: err=%v value=%d", err, cfg.TimeoutSeconds)
	}
	if err := cfg.Set("console.assume_yes", "yes"); err != nil || !cfg.Console.AssumeYes {
		t.Errorf("Set console.assume_yes: err=%v value=%v", err, cfg.Console.AssumeYes)
	}
	if err := cfg.Set("timeout_seconds", "soon"); err == nil {
		t.Error("expected error for non-numeric timeout")
	}
	if err := cfg.Set("proxy.mode", "basic"); !errors.Is(err, ErrMissingProxyHost) {
		t.Errorf("expected ErrMissingProxyHost after setting basic mode, got %v", err)
	}
	if err := cfg.Set("nonsense", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://env.example.com/api")
	t.Setenv(EnvToken, "env-token")

	cfg := NewConfig()
	cfg.ApplyEnv()

	if cfg.APIURL != "https://env.example.com/api" {
		t.Errorf("APIURL = %s", cfg.APIURL)
	}
	if cfg.Token != "env-token" {
		t.Errorf("Token = %s", cfg.Token)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")

	if _, err := LoadSession(path); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for missing file, got %v", err)
	}

	s := &Session{
		Token: "jwt-token",
		User: &models.User{
			Name:            "admin",
			Email:           "admin@example.com",
			PermissionCodes: []models.Permission{models.PermManageConfig},
		},
		APIURL: "http://localhost:5000/api",
	}
	if err := SaveSession(path, s); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if s.SavedAt.IsZero() {
		t.Error("SaveSession should stamp SavedAt")
	}

	if runtime.GOOS != "windows" {
		info, _ := os.Stat(path)
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %04o", perm)
		}
	}

	loaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if loaded.Token != "jwt-token" {
		t.Errorf("Token = %s", loaded.Token)
	}
	if loaded.User == nil || !loaded.User.HasPermission(models.PermManageConfig) {
		t.Errorf("user not restored: %+v", loaded.User)
	}

	if err := ClearSession(path); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	if err := ClearSession(path); err != nil {
		t.Errorf("ClearSession on missing file should succeed, got %v", err)
	}
	if _, err := LoadSession(path); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after clear, got %v", err)
	}
}

func TestSaveSessionRejectsEmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	if err := SaveSession(path, &Session{Token: "  "}); err == nil {
		t.Error("expected error for empty token")
	}
	if err := SaveSession(path, nil); err == nil {
		t.Error("expected error for nil session")
	}
}

func TestResolveToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	if err := SaveSession(path, &Session{Token: "from-session"}); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvToken, "")
	if tok, src := ResolveToken("", path); tok != "from-session" || src != "session" {
		t.Errorf("got (%s, %s), want (from-session, session)", tok, src)
	}

	t.Setenv(EnvToken, "from-env")
	if tok, src := ResolveToken("", path); tok != "from-env" || src != "environment" {
		t.Errorf("got (%s, %s), want (from-env, environment)", tok, src)
	}

	if tok, src := ResolveToken(" from-flag ", path); tok != "from-flag" || src != "flag" {
		t.Errorf("got (%s, %s), want (from-flag, flag)", tok, src)
	}

	t.Setenv(EnvToken, "")
	if tok, src := ResolveToken("", filepath.Join(t.TempDir(), "none")); tok != "" || src != "" {
		t.Errorf("got (%s, %s), want empty", tok, src)
	}
}

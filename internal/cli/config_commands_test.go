package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/config"
)

// TestConfigPath tests the config path command
func TestConfigPath(t *testing.T) {
	cmd := newConfigPathCmd()
	if cmd == nil {
		t.Fatal("newConfigPathCmd() returned nil")
	}

	if cmd.Use != "path" {
		t.Errorf("Expected Use='path', got '%s'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description is empty")
	}
}

// TestConfigShow tests the config show command
func TestConfigShow(t *testing.T) {
	cmd := newConfigShowCmd()
	if cmd == nil {
		t.Fatal("newConfigShowCmd() returned nil")
	}

	if cmd.Use != "show" {
		t.Errorf("Expected Use='show', got '%s'", cmd.Use)
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}
}

// TestConfigTest tests the config test command
func TestConfigTest(t *testing.T) {
	cmd := newConfigTestCmd()
	if cmd == nil {
		t.Fatal("newConfigTestCmd() returned nil")
	}

	if cmd.Use != "test" {
		t.Errorf("Expected Use='test', got '%s'", cmd.Use)
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}
}

// TestConfigInit tests the config init command structure
func TestConfigInit(t *testing.T) {
	cmd := newConfigInitCmd()
	if cmd == nil {
		t.Fatal("newConfigInitCmd() returned nil")
	}

	if cmd.Use != "init" {
		t.Errorf("Expected Use='init', got '%s'", cmd.Use)
	}

	// Check for force flag
	forceFlag := cmd.Flags().Lookup("force")
	if forceFlag == nil {
		t.Error("force flag not found")
	}
}

// TestConfigCmd tests the parent config command
func TestConfigCmd(t *testing.T) {
	cmd := newConfigCmd()
	if cmd == nil {
		t.Fatal("newConfigCmd() returned nil")
	}

	if cmd.Use != "config" {
		t.Errorf("Expected Use='config', got '%s'", cmd.Use)
	}

	// Check subcommands exist
	subcommands := cmd.Commands()
	expectedSubcommands := map[string]bool{
		"init": false,
		"show": false,
		"set":  false,
		"test": false,
		"path": false,
	}

	for _, subcmd := range subcommands {
		if _, exists := expectedSubcommands[subcmd.Name()]; exists {
			expectedSubcommands[subcmd.Name()] = true
		}
	}

	for name, found := range expectedSubcommands {
		if !found {
			t.Errorf("Expected subcommand '%s' not found", name)
		}
	}
}

// runRoot executes the full command tree with args and returns stdout and stderr.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvToken, "")

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConfigSetWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.conf")

	out, _, err := runRoot(t, "--config", path, "config", "set", "api_url", "https://structsim.example.com/api")
	if err != nil {
		t.Fatalf("config set error = %v", err)
	}
	if !strings.Contains(out, "api_url = https://structsim.example.com/api") {
		t.Errorf("unexpected output %q", out)
	}

	if _, _, err := runRoot(t, "--config", path, "config", "set", "console.color", "false"); err != nil {
		t.Fatalf("config set error = %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "https://structsim.example.com/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Console.Color {
		t.Error("console.color should be false")
	}
}

func TestConfigSetRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.conf")

	if _, _, err := runRoot(t, "--config", path, "config", "set", "no.such.key", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, _, err := runRoot(t, "--config", path, "config", "set", "api_url", "not a url"); err == nil {
		t.Error("expected error for invalid api_url")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid settings must not create the config file")
	}
}

func TestConfigShowHidesToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.conf")

	out, _, err := runRoot(t, "--config", path, "--token", "secret-token-value", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(out, "secret-token-value") {
		t.Error("config show must never print the token")
	}
	if !strings.Contains(out, "<set from flag (18 chars)>") {
		t.Errorf("token summary missing from %q", out)
	}
	if !strings.Contains(out, "file does not exist") {
		t.Errorf("missing-file notice missing from %q", out)
	}
}

func TestConfigPathShowsSessionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.conf")

	out, _, err := runRoot(t, "--config", path, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(out, path) || !strings.Contains(out, filepath.Join(dir, "session")) {
		t.Errorf("unexpected output %q", out)
	}
}

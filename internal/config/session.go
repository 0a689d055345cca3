package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// Session is the persisted login: the bearer token and the user it was issued to.
// Stored as JSON with 0600 permissions next to console.conf.
type Session struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user,omitempty"`
	APIURL  string       `json:"apiUrl,omitempty"`
	SavedAt time.Time    `json:"savedAt"`
}

// ErrNoSession is returned by LoadSession when nobody is logged in.
var ErrNoSession = errors.New("no saved session")

// DefaultSessionPath returns the path of the session file.
func DefaultSessionPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}

// LoadSession reads the session file. A missing or empty file yields ErrNoSession.
func LoadSession(path string) (*Session, error) {
	if path == "" {
		var err error
		if path, err = DefaultSessionPath(); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat session file: %w", err)
	}

	// Session files should be readable only by owner (0600 or stricter)
	if runtime.GOOS != "windows" && info.Mode().Perm()&0077 != 0 {
		fmt.Fprintf(os.Stderr, "Warning: session file %s has insecure permissions %04o. Consider using 'chmod 600 %s'\n",
			path, info.Mode().Perm(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrNoSession
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if strings.TrimSpace(s.Token) == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// SaveSession writes the session file atomically with owner-only permissions.
func SaveSession(path string, s *Session) error {
	if s == nil || strings.TrimSpace(s.Token) == "" {
		return fmt.Errorf("cannot save empty session")
	}
	if path == "" {
		var err error
		if path, err = DefaultSessionPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save session file: %w", err)
	}
	return nil
}

// ClearSession removes the session file. Removing a missing file is not an error.
func ClearSession(path string) error {
	if path == "" {
		var err error
		if path, err = DefaultSessionPath(); err != nil {
			return err
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ResolveToken returns the bearer token and where it came from.
//
// Priority (highest to lowest):
//  1. flag (explicit --token)
//  2. environment (STRUCTSIM_TOKEN)
//  3. session file
//
// Returns ("", "") if no token is found.
func ResolveToken(flagToken, sessionPath string) (string, string) {
	if t := strings.TrimSpace(flagToken); t != "" {
		return t, "flag"
	}
	if t := strings.TrimSpace(os.Getenv(EnvToken)); t != "" {
		return t, "environment"
	}
	if s, err := LoadSession(sessionPath); err == nil {
		return s.Token, "session"
	}
	return "", ""
}

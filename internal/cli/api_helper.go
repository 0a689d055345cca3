// Package cli provides API client helper functions.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/api"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/config"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/confirm"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/constants"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/editor"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/events"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/notify"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/store"
)

// sessionFile returns where the login is persisted: next to the config file
// given with --config, otherwise in the default config directory.
func sessionFile() string {
	if cfgFile != "" {
		return filepath.Join(filepath.Dir(cfgFile), "session")
	}
	path, err := config.DefaultSessionPath()
	if err != nil {
		return ""
	}
	return path
}

// loadConfig merges, highest first: flags, environment, saved session,
// config file, defaults. The second result names where the token came from.
func loadConfig() (*config.Config, string, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, "", err
	}
	cfg.ApplyEnv()
	if apiBaseURL != "" {
		cfg.APIURL = apiBaseURL
	}

	token, source := config.ResolveToken(flagToken, sessionFile())
	cfg.Token = token

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, source, nil
}

// getAPIClient loads configuration and creates an API client. With
// requireToken set it fails early when nobody is logged in or the saved
// token has expired.
func getAPIClient(requireToken bool) (*api.Client, error) {
	cfg, source, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if requireToken {
		if err := cfg.ValidateForConnection(); err != nil {
			return nil, err
		}
		if exp, ok := api.TokenExpiry(cfg.Token); ok {
			if time.Now().After(exp) {
				GetLogger().Debug().Str("source", source).Time("exp", exp).Msg("token expired")
				return nil, api.ErrSessionExpired
			}
			if time.Until(exp) < constants.SessionExpiryWarning {
				GetLogger().Warn().Time("exp", exp).Msgf("session expires soon, run '%s login' to renew it", constants.AppName)
			}
		}
	}

	client, err := api.NewClient(cfg, GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// app wires the editing controller for one command invocation.
type app struct {
	client *api.Client
	bus    *events.EventBus
	stores *store.Registry
	editor *editor.Controller

	stopWatch context.CancelFunc
}

// newApp creates the API client, stores and controller. Toasts go to errOut.
// With formChecks set, drafts are validated locally before they are sent.
func newApp(ctx context.Context, errOut io.Writer, formChecks bool) (*app, error) {
	client, err := getAPIClient(true)
	if err != nil {
		return nil, err
	}
	cfg := client.GetConfig()
	log := GetLogger()

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	watchCtx, stop := context.WithCancel(ctx)
	go log.WatchEvents(watchCtx, bus)

	stores := store.NewRegistry(client, bus)
	table := editor.Descriptors(client, stores)
	if formChecks {
		table = editor.WithFormChecks(table)
	}
	ctrl := editor.New(table, editor.Options{
		Notifier:  notify.Multi{notify.NewTerminal(errOut, cfg.Console.Color), notify.NewBus(bus)},
		Confirmer: confirm.ForStdin(assumeYes || cfg.Console.AssumeYes, errOut),
		Bus:       bus,
		Logger:    log,
	})

	return &app{
		client:    client,
		bus:       bus,
		stores:    stores,
		editor:    ctrl,
		stopWatch: stop,
	}, nil
}

// requireManageConfig checks the token against the platform and that its
// user may change configuration.
func (a *app) requireManageConfig(ctx context.Context) error {
	user, err := a.client.Heartbeat(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("%w: run '%s login'", err, constants.AppName)
		}
		return fmt.Errorf("failed to verify session: %w", err)
	}
	if !user.HasPermission(models.PermManageConfig) {
		return fmt.Errorf("permission denied: %s lacks %s", user.Email, models.PermManageConfig)
	}
	return nil
}

// Close stops the event watcher and reports request metrics at debug level.
func (a *app) Close() {
	total, byPath := a.client.Stats()
	GetLogger().Debug().Int64("calls", total).Interface("by_path", byPath).Msg("API usage")
	a.stopWatch()
	a.bus.Close()
}

// appFor is the common prologue of entity commands. Commands without a
// --validate flag never check drafts locally.
func appFor(cmd *cobra.Command) (*app, error) {
	formChecks, _ := cmd.Flags().GetBool("validate")
	return newApp(GetContext(), cmd.ErrOrStderr(), formChecks)
}

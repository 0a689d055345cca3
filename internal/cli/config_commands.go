// Package cli provides configuration management commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/config"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/constants"
)

// configPath returns the --config path or the default one.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage " + constants.AppName + " configuration",
		Long: `Configuration management commands for ` + constants.AppName + `.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  set   - Change one setting
  test  - Test the platform connection
  path  - Show configuration file path`,
	}

	// Add config subcommands
	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for ` + constants.AppName + `.

The configuration is saved to ~/.config/structsim/console.conf (or the
--config path). Use --force to overwrite an existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			path, err := configPath()
			if err != nil {
				return err
			}

			// Check if config already exists
			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Fprintln(out, "StructSim Console Setup")
			fmt.Fprintln(out, "=======================")
			fmt.Fprintln(out)

			cfg := config.NewConfig()

			if cfg.APIURL, err = promptLine(out, "API URL", cfg.APIURL); err != nil {
				return err
			}

			timeout, err := promptLine(out, "Request timeout in seconds", strconv.Itoa(cfg.TimeoutSeconds))
			if err != nil {
				return err
			}
			if v, err := strconv.Atoi(timeout); err == nil && v > 0 {
				cfg.TimeoutSeconds = v
			}

			fmt.Fprintln(out)
			answer, err := promptLine(out, "Configure proxy? [y/N]", "")
			if err != nil {
				return err
			}
			if a := strings.ToLower(answer); a == "y" || a == "yes" {
				fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
				if cfg.Proxy.Mode, err = promptLine(out, "Proxy mode", "system"); err != nil {
					return err
				}
				if cfg.Proxy.Mode == "basic" || cfg.Proxy.Mode == "ntlm" {
					if cfg.Proxy.Host, err = promptLine(out, "Proxy host", ""); err != nil {
						return err
					}
					port, err := promptLine(out, "Proxy port", "8080")
					if err != nil {
						return err
					}
					if v, err := strconv.Atoi(port); err == nil && v > 0 {
						cfg.Proxy.Port = v
					}
					if cfg.Proxy.User, err = promptLine(out, "Proxy user (optional)", ""); err != nil {
						return err
					}
				}
				if cfg.Proxy.NoProxy, err = promptLine(out, "Hosts that bypass the proxy (comma separated)", "localhost,127.0.0.1"); err != nil {
					return err
				}
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			logger.Info().Str("path", path).Msg("Configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			fmt.Fprintf(out, "Log in with: %s login\n", constants.AppName)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/structsim/console.conf)
  2. Saved session (token)
  3. Environment variables (STRUCTSIM_API_URL, STRUCTSIM_TOKEN)
  4. Command-line flags (--api-url, --token)

Priority: flags > environment > session > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, source, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Current Configuration")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Platform:")
			fmt.Fprintf(out, "  API URL:  %s\n", cfg.APIURL)
			fmt.Fprintf(out, "  Timeout:  %ds\n", cfg.TimeoutSeconds)
			if cfg.Token != "" {
				// Never display any portion of the token
				fmt.Fprintf(out, "  Token:    <set from %s (%d chars)>\n", source, len(cfg.Token))
			} else {
				fmt.Fprintln(out, "  Token:    <not logged in>")
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Proxy:")
			fmt.Fprintf(out, "  Mode:     %s\n", cfg.Proxy.Mode)
			if cfg.Proxy.Host != "" {
				fmt.Fprintf(out, "  Host:     %s\n", cfg.Proxy.Host)
				fmt.Fprintf(out, "  Port:     %d\n", cfg.Proxy.Port)
			}
			if cfg.Proxy.User != "" {
				fmt.Fprintf(out, "  User:     %s\n", cfg.Proxy.User)
			}
			if cfg.Proxy.NoProxy != "" {
				fmt.Fprintf(out, "  No proxy: %s\n", cfg.Proxy.NoProxy)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Console:")
			fmt.Fprintf(out, "  Color:      %t\n", cfg.Console.Color)
			fmt.Fprintf(out, "  Assume yes: %t\n", cfg.Console.AssumeYes)
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Configuration file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			return nil
		},
	}

	return cmd
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: `Change one setting and save the configuration file.

Keys:
  api_url, timeout_seconds,
  proxy.mode, proxy.host, proxy.port, proxy.user, proxy.no_proxy,
  console.color, console.assume_yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			// Start from the file only: flags and environment are not persisted.
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the platform connection",
		Long: `Test the platform connection with the current configuration and session.

Use this to verify your login and network connectivity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			client, err := getAPIClient(true)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "API URL: %s\n", client.BaseURL())
			fmt.Fprintln(out, "Testing connection...")

			// Test connection with timeout
			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			user, err := client.Heartbeat(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Connection FAILED")
				return fmt.Errorf("connection test failed: %w", err)
			}

			logger.Info().Msg("Connection test successful")
			fmt.Fprintln(out, "✓ Connection SUCCESSFUL")
			fmt.Fprintf(out, "  Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file and the session file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path, err := configPath()
			if err != nil {
				return err
			}
			if cfgFile == "" {
				fmt.Fprintln(out, "Default configuration path:")
			} else {
				fmt.Fprintln(out, "Configuration path (from --config flag):")
			}
			fmt.Fprintf(out, "  %s\n", path)
			fmt.Fprintf(out, "Session file:\n  %s\n", sessionFile())
			fmt.Fprintln(out)

			// Check if file exists
			if fileInfo, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: ✓ File exists")
				fmt.Fprintf(out, "Modified: %s\n", fileInfo.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Create a configuration file with: %s config init\n", constants.AppName)
			}
			return nil
		},
	}

	return cmd
}

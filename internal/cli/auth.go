// Package cli provides login, logout and whoami.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/api"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/config"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/constants"
)

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Long: `Log in to the StructSim platform. The token is saved to the session file
next to the configuration file (owner-only permissions) and used by later
commands until it expires or you log out.

The password is asked for when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			var err error
			if strings.TrimSpace(email) == "" {
				if email, err = promptLine(cmd.ErrOrStderr(), "Email", ""); err != nil {
					return fmt.Errorf("failed to read email: %w", err)
				}
			}
			if password == "" {
				if password, err = promptPassword(cmd.ErrOrStderr(), "Password"); err != nil {
					return err
				}
			}

			client, err := getAPIClient(false)
			if err != nil {
				return err
			}

			resp, err := client.Login(GetContext(), email, password)
			if err != nil {
				return err
			}

			session := &config.Session{
				Token:  resp.Token,
				User:   &resp.User,
				APIURL: client.BaseURL(),
			}
			path := sessionFile()
			if err := config.SaveSession(path, session); err != nil {
				return err
			}
			logger.Debug().Str("path", path).Msg("session saved")

			fmt.Fprintf(out, "✓ Logged in as %s <%s>\n", resp.User.Name, resp.User.Email)
			if exp, ok := api.TokenExpiry(resp.Token); ok {
				fmt.Fprintf(out, "  Session expires %s\n", exp.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")

	return cmd
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			client, err := getAPIClient(false)
			if err != nil {
				return err
			}
			if client.Token() != "" {
				if err := client.Logout(GetContext()); err != nil {
					// The local session is removed regardless.
					logger.Warn().Err(err).Msg("platform logout failed")
				}
			}

			if err := config.ClearSession(sessionFile()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
			return nil
		},
	}
}

// newWhoamiCmd creates the 'whoami' command.
func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			_, source, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := getAPIClient(true)
			if err != nil {
				if api.IsUnauthorized(err) {
					return fmt.Errorf("%w: run '%s login'", err, constants.AppName)
				}
				return err
			}

			user, err := client.Heartbeat(GetContext())
			if err != nil {
				if api.IsUnauthorized(err) {
					return fmt.Errorf("%w: run '%s login'", err, constants.AppName)
				}
				return err
			}

			fmt.Fprintf(out, "User:        %s <%s>\n", user.Name, user.Email)
			if user.Role != "" {
				fmt.Fprintf(out, "Role:        %s\n", user.Role)
			}
			perms := make([]string, 0, len(user.EffectivePermissions()))
			for _, p := range user.EffectivePermissions() {
				perms = append(perms, string(p))
			}
			if len(perms) == 0 {
				perms = []string{"(none)"}
			}
			fmt.Fprintf(out, "Permissions: %s\n", strings.Join(perms, ", "))
			fmt.Fprintf(out, "Token from:  %s\n", source)
			if exp, ok := api.TokenExpiry(client.Token()); ok {
				fmt.Fprintf(out, "Expires:     %s (in %s)\n",
					exp.Local().Format("2006-01-02 15:04"), time.Until(exp).Round(time.Minute))
			}
			return nil
		},
	}
}

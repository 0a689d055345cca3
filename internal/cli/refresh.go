package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// newRefreshCmd creates the 'refresh' command.
func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload every configuration list",
		Long: `Reload all configuration lists: the definition lists in one base-data call,
then the lists it does not cover. Kinds that fail are reported; the others
still load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFor(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			refreshErr := a.stores.RefreshAll(GetContext())

			out := cmd.OutOrStdout()
			for _, kind := range models.AllKinds {
				st := a.stores.Get(kind)
				switch {
				case st.LastError() != nil:
					fmt.Fprintf(out, "  ✗ %-22s %v\n", kind.Command(), st.LastError())
				case st.LastRefreshed().IsZero():
					fmt.Fprintf(out, "  - %-22s not loaded\n", kind.Command())
				default:
					fmt.Fprintf(out, "  ✓ %-22s %d\n", kind.Command(), st.Len())
				}
			}
			if refreshErr != nil {
				return fmt.Errorf("refresh incomplete: %w", refreshErr)
			}
			return nil
		},
	}
}

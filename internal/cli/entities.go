// Package cli provides configuration entity commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/constants"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// newEntityCmd creates the command group of one entity kind, e.g. 'solvers'.
func newEntityCmd(kind models.Kind) *cobra.Command {
	entityCmd := &cobra.Command{
		Use:     kind.Command(),
		Aliases: []string{string(kind)},
		Short:   fmt.Sprintf("Manage %ss", kind.Label()),
		Long: fmt.Sprintf(`Commands for the %[1]s configuration list.

  list    - Show all %[1]ss
  get     - Show one %[1]s
  create  - Create a %[1]s
  edit    - Change fields of a %[1]s
  delete  - Delete a %[1]s (asks for confirmation)

create, edit and delete require the %[2]s permission.`, kind.Label(), models.PermManageConfig),
	}

	entityCmd.AddCommand(newEntityListCmd(kind))
	entityCmd.AddCommand(newEntityGetCmd(kind))
	entityCmd.AddCommand(newEntityCreateCmd(kind))
	entityCmd.AddCommand(newEntityEditCmd(kind))
	entityCmd.AddCommand(newEntityDeleteCmd(kind))

	return entityCmd
}

// newEntityListCmd creates the '<kind> list' command.
func newEntityListCmd(kind models.Kind) *cobra.Command {
	var (
		search     string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %ss", kind.Label()),
		Long: fmt.Sprintf(`List every %[1]s, ordered by sort hint then id.

Examples:
  # List all
  %[2]s %[3]s list

  # Search by name, code or key
  %[2]s %[3]s list --search abc

  # Get JSON output
  %[2]s %[3]s list --json`, kind.Label(), constants.AppName, kind.Command()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			a, err := appFor(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			st := a.stores.Get(kind)
			if err := st.Refresh(ctx); err != nil {
				return fmt.Errorf("failed to list %ss: %w", kind.Label(), err)
			}
			items := st.Search(search)

			out := cmd.OutOrStdout()
			if outputJSON {
				return printJSON(out, items)
			}
			printRecords(out, kind, items)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name, code or key")
	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")

	return cmd
}

// newEntityGetCmd creates the '<kind> get' command.
func newEntityGetCmd(kind models.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show one %s as JSON", kind.Label()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := appFor(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			item, err := a.client.GetEntity(GetContext(), kind, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
}

// newEntityCreateCmd creates the '<kind> create' command.
func newEntityCreateCmd(kind models.Kind) *cobra.Command {
	var draft draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", kind.Label()),
		Long: fmt.Sprintf(`Create a %[1]s. Fields not given keep their defaults.

Examples:
  %[2]s %[3]s create --set name=NAME --set code=CODE
  %[2]s %[3]s create -f draft.yaml`, kind.Label(), constants.AppName, kind.Command()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := draft.fields()
			if err != nil {
				return err
			}
			return saveEntity(cmd, kind, 0, fields)
		},
	}

	draft.register(cmd)
	return cmd
}

// newEntityEditCmd creates the '<kind> edit' command.
func newEntityEditCmd(kind models.Kind) *cobra.Command {
	var draft draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: fmt.Sprintf("Change fields of a %s", kind.Label()),
		Long: fmt.Sprintf(`Load a %[1]s, apply the given fields and save it.

Examples:
  %[2]s %[3]s edit 3 --set name=NEW_NAME
  %[2]s %[3]s edit 3 -f changes.yaml`, kind.Label(), constants.AppName, kind.Command()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if draft.empty() {
				return fmt.Errorf("nothing to change: pass --set or --file")
			}
			fields, err := draft.fields()
			if err != nil {
				return err
			}
			return saveEntity(cmd, kind, id, fields)
		},
	}

	draft.register(cmd)
	return cmd
}

// saveEntity runs one editing session: open (create when id is 0), apply
// fields, save.
func saveEntity(cmd *cobra.Command, kind models.Kind, id int64, fields models.Record) error {
	ctx := GetContext()

	a, err := appFor(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireManageConfig(ctx); err != nil {
		return err
	}

	var item models.Record
	if id != 0 {
		if item, err = a.client.GetEntity(ctx, kind, id); err != nil {
			return err
		}
	}

	if err := a.editor.OpenModal(kind, item); err != nil {
		return err
	}
	defer a.editor.CloseModal()

	for _, key := range fields.Keys() {
		a.editor.UpdateFormData(key, fields[key])
	}
	if err := a.editor.HandleSave(ctx); err != nil {
		return &shownError{err: err}
	}

	GetLogger().Debug().Str("kind", kind.String()).Int("items", a.stores.Get(kind).Len()).Msg("saved")
	return nil
}

// newEntityDeleteCmd creates the '<kind> delete' command.
func newEntityDeleteCmd(kind models.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", kind.Label()),
		Long: fmt.Sprintf(`Delete a %[1]s after confirmation. Use --yes to skip the question.

Example:
  %[2]s %[3]s delete 3`, kind.Label(), constants.AppName, kind.Command()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := appFor(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireManageConfig(ctx); err != nil {
				return err
			}

			item, err := a.client.GetEntity(ctx, kind, id)
			if err != nil {
				return err
			}

			deleted, err := a.editor.HandleDelete(ctx, kind, id, item.Name())
			if err != nil {
				return &shownError{err: err}
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			}
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// listColumns are the fields shown by 'list' per kind, after id and name.
var listColumns = map[models.Kind][]string{
	models.KindProject:      {"code"},
	models.KindSimType:      {"code", "category"},
	models.KindParamDef:     {"key", "unit", "minVal", "maxVal"},
	models.KindSolver:       {"code", "version", "cpuCoreMin", "cpuCoreMax", "cpuCoreDefault"},
	models.KindConditionDef: {"code", "category", "unit"},
	models.KindOutputDef:    {"code", "unit", "dataType"},
	models.KindFoldType:     {"code", "angle"},
}

func printRecords(out io.Writer, kind models.Kind, items []models.Record) {
	if len(items) == 0 {
		fmt.Fprintf(out, "No %ss found\n", kind.Label())
		return
	}

	fmt.Fprintf(out, "Found %d %s(s):\n\n", len(items), kind.Label())

	cols := append([]string{models.FieldID, models.FieldName}, listColumns[kind]...)
	cols = append(cols, models.FieldSort)

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	for _, item := range items {
		for i, c := range cols {
			if w := lipgloss.Width(item.String(c)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	printRow := func(values []string) {
		var b strings.Builder
		b.WriteString(" ")
		for i, v := range values {
			b.WriteString(" ")
			b.WriteString(v)
			if i < len(values)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(v)+1))
			}
		}
		fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
	}

	printRow(cols)
	for _, item := range items {
		values := make([]string, len(cols))
		for i, c := range cols {
			values[i] = item.String(c)
		}
		printRow(values)
	}
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

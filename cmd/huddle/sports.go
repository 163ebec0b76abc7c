package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/huddle/internal/app"
	"github.com/MrSnakeDoc/huddle/internal/catalog"
	"github.com/MrSnakeDoc/huddle/internal/config"
	"github.com/MrSnakeDoc/huddle/internal/domain"
	"github.com/MrSnakeDoc/huddle/internal/logger"
	"github.com/MrSnakeDoc/huddle/internal/utils"
)

// openCatalog connects the configured backend and loads the catalog from it.
// The returned closer releases the backend.
var openCatalog = func(ctx context.Context) (*catalog.Store, io.Closer, error) {
	cfg := config.Load()
	level := cfg.LogLevel
	if level != "debug" {
		level = "warn"
	}
	log := logger.New(level, cfg.PrettyLog)

	backend, err := app.OpenBackend(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cat, err := app.NewCatalog(cfg, backend, log)
	if err != nil {
		utils.Close(backend)
		return nil, nil, err
	}
	if err := cat.Load(ctx); err != nil {
		utils.Close(backend)
		return nil, nil, err
	}
	return cat, backend, nil
}

func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, cat *catalog.Store) error) error {
	ctx := cmd.Context()
	cat, closer, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer utils.Close(closer)
	return fn(ctx, cat)
}

func checkIcon(icon string) error {
	if !domain.IsKnownIcon(icon) {
		return fmt.Errorf("unknown icon %q (see \"huddle sports icons\")", icon)
	}
	return nil
}

// withHint adds the closest existing name to a not-found error.
func withHint(cat *catalog.Store, name string, err error) error {
	if !errors.Is(err, catalog.ErrNotFound) {
		return err
	}
	if names := domain.Suggest(cat.Sports(), name, 1); len(names) > 0 {
		return fmt.Errorf("%w (did you mean %q?)", err, names[0])
	}
	return err
}

var sportsCmd = &cobra.Command{
	Use:   "sports",
	Short: "Manage the sports catalog",
	Long: `Manage the sports catalog directly in the configured storage backend.

Examples:
  huddle sports list --visible
  huddle sports add "Table Tennis" --icon tennisball-outline --color "#EC407A"
  huddle sports edit Tennis --name Padel
  huddle sports toggle Yoga
  huddle sports delete Padel`,
}

// ─────────────────────────────────────────────────────────────────
// list
// ─────────────────────────────────────────────────────────────────

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sports",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	listVisible bool
	listQuery   string
	listJSON    bool
)

func runList(cmd *cobra.Command, args []string) error {
	return withCatalog(cmd, func(_ context.Context, cat *catalog.Store) error {
		sports := cat.Sports()
		if listVisible {
			sports = domain.Visible(sports)
		}
		if listQuery != "" {
			sports = domain.Search(sports, listQuery)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sports)
		}

		if len(sports) == 0 {
			fmt.Fprintln(out, "No sports found.")
			return nil
		}

		tty := isTerminal(out)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCOLOR\tICON\tVISIBLE")
		for _, s := range sports {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s", s.Name, s.Color, s.Icon, yesNo(!s.Hidden))
			// escape codes stay in the trailing cell, outside aligned columns
			if tty {
				fmt.Fprintf(tw, "  %s", swatch(s.Color))
			}
			fmt.Fprintln(tw)
		}
		return tw.Flush()
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ─────────────────────────────────────────────────────────────────
// add
// ─────────────────────────────────────────────────────────────────

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a sport",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var (
	addColor  string
	addIcon   string
	addHidden bool
)

func runAdd(cmd *cobra.Command, args []string) error {
	sport := domain.Sport{Name: args[0], Color: addColor, Icon: addIcon, Hidden: addHidden}.Normalize().WithDefaults()
	if err := checkIcon(sport.Icon); err != nil {
		return err
	}

	return withCatalog(cmd, func(ctx context.Context, cat *catalog.Store) error {
		if err := cat.Add(ctx, sport); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", sport.Name)
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────
// edit
// ─────────────────────────────────────────────────────────────────

var editCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a sport",
	Long: `Edit a sport. Only the flags given change; the others keep their
current value.

Examples:
  huddle sports edit Tennis --color "#000000"
  huddle sports edit Tennis --name Padel --hidden=false`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editName   string
	editColor  string
	editIcon   string
	editHidden bool
)

func runEdit(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	flags := cmd.Flags()
	if !flags.Changed("name") && !flags.Changed("color") && !flags.Changed("icon") && !flags.Changed("hidden") {
		return fmt.Errorf("nothing to change: pass at least one of --name, --color, --icon, --hidden")
	}
	if flags.Changed("icon") {
		if err := checkIcon(editIcon); err != nil {
			return err
		}
	}

	return withCatalog(cmd, func(ctx context.Context, cat *catalog.Store) error {
		err := cat.Update(ctx, name, func(sport domain.Sport) domain.Sport {
			if flags.Changed("name") {
				sport.Name = editName
			}
			if flags.Changed("color") {
				sport.Color = editColor
			}
			if flags.Changed("icon") {
				sport.Icon = editIcon
			}
			if flags.Changed("hidden") {
				sport.Hidden = editHidden
			}
			return sport
		})
		if err != nil {
			return withHint(cat, name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", name)
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────
// delete, toggle
// ─────────────────────────────────────────────────────────────────

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a sport",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withCatalog(cmd, func(ctx context.Context, cat *catalog.Store) error {
		if err := cat.Delete(ctx, args[0]); err != nil {
			return withHint(cat, args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", strings.TrimSpace(args[0]))
		return nil
	})
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <name>",
	Short: "Hide a visible sport or show a hidden one",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

func runToggle(cmd *cobra.Command, args []string) error {
	return withCatalog(cmd, func(ctx context.Context, cat *catalog.Store) error {
		name := strings.TrimSpace(args[0])
		if err := cat.ToggleVisibility(ctx, name); err != nil {
			return withHint(cat, name, err)
		}
		state := "visible"
		if s, _ := cat.Get(name); s.Hidden {
			state = "hidden"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", name, state)
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────
// icons
// ─────────────────────────────────────────────────────────────────

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "List the icons a sport can use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, icon := range domain.Icons {
			if icon == domain.DefaultIcon {
				fmt.Fprintf(out, "%s (default)\n", icon)
				continue
			}
			fmt.Fprintln(out, icon)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listVisible, "visible", false, "show only visible sports")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "filter by name (case-insensitive)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")

	addCmd.Flags().StringVar(&addColor, "color", domain.DefaultColor, "hex color")
	addCmd.Flags().StringVar(&addIcon, "icon", domain.DefaultIcon, "icon name")
	addCmd.Flags().BoolVar(&addHidden, "hidden", false, "add the sport hidden")

	editCmd.Flags().StringVar(&editName, "name", "", "rename the sport")
	editCmd.Flags().StringVar(&editColor, "color", "", "set the color")
	editCmd.Flags().StringVar(&editIcon, "icon", "", "set the icon")
	editCmd.Flags().BoolVar(&editHidden, "hidden", false, "hide or show the sport")

	sportsCmd.AddCommand(listCmd, addCmd, editCmd, deleteCmd, toggleCmd, iconsCmd)
	rootCmd.AddCommand(sportsCmd)
}

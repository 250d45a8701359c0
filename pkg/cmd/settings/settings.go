package settings

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/rgpanel/internal/config"
	"github.com/Paintersrp/rgpanel/internal/state"
	tui "github.com/Paintersrp/rgpanel/internal/tui/settings"
)

func NewCmdSettings(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"settings"},
		Short:   "Show or change settings",
		Long:    "This command allows you to adjust your settings directly from the CLI tool.",
		Example: heredoc.Doc(`
			rgp config show
			rgp config edit
			rgp config set search.exclude_globs "vendor/**,*.min.js"
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, s.Config)
		},
	}

	cmd.AddCommand(
		newCmdShow(s),
		newCmdPath(s),
		newCmdSet(s),
		newCmdEdit(s),
	)
	return cmd
}

func newCmdShow(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, s.Config)
		},
	}
}

func newCmdPath(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), s.Config.GetConfigPath())
			return nil
		},
	}
}

func newCmdSet(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: heredoc.Docf(`
			Changes one setting and saves the file. List values are comma
			separated.

			Keys: %s
		`, strings.Join(config.Keys(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.Config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated.\n", args[0])
			return nil
		},
	}
}

func newCmdEdit(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit settings interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(s.Config)
		},
	}
}

func show(cmd *cobra.Command, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

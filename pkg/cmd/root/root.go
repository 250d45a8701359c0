package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Paintersrp/rgpanel/internal/constants"
	"github.com/Paintersrp/rgpanel/internal/state"
	"github.com/Paintersrp/rgpanel/pkg/cmd/panel"
	"github.com/Paintersrp/rgpanel/pkg/cmd/search"
	"github.com/Paintersrp/rgpanel/pkg/cmd/settings"
)

func NewCmdRoot(s *state.State) (*cobra.Command, error) {
	var (
		rgPath   string
		logLevel string
		term     string
	)

	cmd := &cobra.Command{
		Use:     "rgp [dir]",
		Short:   "Search a project with ripgrep and browse the results.",
		Version: constants.Version,
		Long: heredoc.Doc(`
			A ripgrep front end. Results stream in as rg finds them, grouped by
			file, and can be opened in your editor at the matching line.

			  rgp                   open the results panel on the current directory
			  rgp search foo ./src  print matches for foo under ./src
		`),
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return panel.Run(s, dir, term)
		},
	}

	cmd.PersistentFlags().StringVar(&rgPath, "rg", "", "Path to the rg executable")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	if err := viper.BindPFlag("ripgrep.path", cmd.PersistentFlags().Lookup("rg")); err != nil {
		return nil, err
	}
	if err := viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level")); err != nil {
		return nil, err
	}

	cmd.Flags().StringVarP(&term, "term", "t", "", "Search term to run on open")

	cmd.AddCommand(
		search.NewCmdSearch(s),
		panel.NewCmdPanel(s),
		settings.NewCmdSettings(s),
	)

	return cmd, nil
}

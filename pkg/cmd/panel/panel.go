package panel

import (
	"github.com/MakeNowJust/heredoc/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/rgpanel/internal/state"
	"github.com/Paintersrp/rgpanel/internal/tui/results"
)

// runProgram is replaced in tests so the model can be built without a terminal.
var runProgram = func(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func NewCmdPanel(s *state.State) *cobra.Command {
	var term string

	cmd := &cobra.Command{
		Use:     "panel [dir]",
		Aliases: []string{"p"},
		Short:   "Open the interactive results panel",
		Long: heredoc.Doc(`
			Opens a panel that searches dir (the current directory by default) as
			you type. Results are grouped by file and refresh when files change.
		`),
		Example: heredoc.Doc(`
			rgp panel
			rgp panel ./src --term TODO
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return Run(s, dir, term)
		},
	}

	cmd.Flags().StringVarP(&term, "term", "t", "", "Search term to run on open")
	return cmd
}

// Run opens the panel on dir and blocks until it is closed.
func Run(s *state.State, dir, term string) error {
	m, err := results.NewModel(s, dir, term)
	if err != nil {
		return err
	}
	return runProgram(m)
}

package main

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/recon-cli/internal/dataset"
	"github.com/sells-group/recon-cli/internal/resolve"
)

var (
	checkRoster    string
	checkOverrides string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the override table against the roster",
	Long:  "Loads the override table and fails on duplicate conflicting keys or targets missing from the roster, without reconciling anything. Rules that map a name to itself are flagged as removable.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rosterPath := checkRoster
		if rosterPath == "" {
			rosterPath = cfg.Data.Roster
		}
		overridesPath := checkOverrides
		if overridesPath == "" {
			overridesPath = cfg.Data.Overrides
		}
		if rosterPath == "" || overridesPath == "" {
			return eris.New("check: --roster and --overrides are required (or data.roster / data.overrides in config)")
		}

		roster, err := dataset.ReadRoster(rosterPath, rosterOptions())
		if err != nil {
			return err
		}
		rules, err := dataset.LoadOverrides(overridesPath)
		if err != nil {
			return err
		}
		table, err := resolve.NewOverrideTable(rules)
		if err != nil {
			return err
		}
		if err := resolve.ValidateOverrides(roster.Members, table); err != nil {
			return err
		}

		if redundant := table.RedundantKeys(); len(redundant) > 0 {
			_, _ = color.New(color.FgYellow).Fprintf(os.Stdout,
				"warning: %d rule(s) map a name to itself and can be removed: %s\n",
				len(redundant), strings.Join(redundant, ", "))
		}
		_, _ = color.New(color.FgGreen).Fprintf(os.Stdout,
			"ok: %d override rules, every target found among %d roster members\n",
			table.Len(), len(roster.Members))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkRoster, "roster", "", "roster CSV path")
	checkCmd.Flags().StringVar(&checkOverrides, "overrides", "", "override table path (.yaml or .csv)")
	rootCmd.AddCommand(checkCmd)
}

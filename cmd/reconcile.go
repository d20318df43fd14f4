package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/dataset"
	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/report"
	"github.com/sells-group/recon-cli/internal/resolve"
)

var (
	reconRoster    string
	reconSubs      string
	reconOverrides string
	reconThreshold int
	reconWorkers   int
	reconOutDir    string
	reconXLSX      bool
	reconMarkdown  bool
	reconDryRun    bool
	reconSave      bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a subscription export against the roster",
	Long:  "Matches every export row to a roster member, rewrites the roster's expensed flags, and writes the audit artifacts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		started := time.Now().UTC()

		rosterPath := reconRoster
		if rosterPath == "" {
			rosterPath = cfg.Data.Roster
		}
		subsPath := reconSubs
		if subsPath == "" {
			subsPath = cfg.Data.Subscriptions
		}
		overridesPath := reconOverrides
		if overridesPath == "" {
			overridesPath = cfg.Data.Overrides
		}
		if rosterPath == "" || subsPath == "" {
			return eris.New("reconcile: --roster and --subscriptions are required (or data.roster / data.subscriptions in config)")
		}

		threshold := cfg.Match.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold = reconThreshold
		}
		if threshold < 0 || threshold > 100 {
			return eris.Wrapf(resolve.ErrConfig, "threshold %d out of range [0, 100]", threshold)
		}
		workers := cfg.Match.Workers
		if cmd.Flags().Changed("workers") {
			workers = reconWorkers
		}

		roster, err := dataset.ReadRoster(rosterPath, rosterOptions())
		if err != nil {
			return err
		}
		batch, err := dataset.ReadSubscriptions(subsPath, subscriptionOptions())
		if err != nil {
			return err
		}

		var rules []model.OverrideRule
		if overridesPath != "" {
			rules, err = dataset.LoadOverrides(overridesPath)
			if err != nil {
				return err
			}
		}
		table, err := resolve.NewOverrideTable(rules)
		if err != nil {
			return err
		}

		rec := resolve.NewReconciler(resolve.Config{Threshold: threshold, Workers: workers})
		rep, err := rec.Reconcile(*batch, roster.Members, table)
		if err != nil {
			return err
		}

		printReconcileSummary(os.Stdout, rep)

		if reconDryRun {
			zap.L().Info("dry run, no artifacts written")
			return nil
		}

		outDir := cfg.Report.OutputDir
		if cmd.Flags().Changed("output-dir") {
			outDir = reconOutDir
		}
		em := report.NewEmitter(report.Options{
			OutputDir:  outDir,
			RosterPath: rosterPath,
			XLSX:       reconXLSX || cfg.Report.XLSX,
			Markdown:   reconMarkdown || cfg.Report.Markdown,
		})
		if err := em.Emit(rep, roster); err != nil {
			return err
		}

		if reconSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}

			run := &model.Run{
				StartedAt:  started,
				FinishedAt: time.Now().UTC(),
				RosterPath: rosterPath,
				SourcePath: subsPath,
				Threshold:  rep.Threshold,
				Summary:    rep.Summary,
				Results:    rep.Results,
			}
			if err := st.SaveRun(ctx, run); err != nil {
				return err
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconRoster, "roster", "", "roster CSV path")
	reconcileCmd.Flags().StringVar(&reconSubs, "subscriptions", "", "subscription export path (.csv or .xlsx)")
	reconcileCmd.Flags().StringVar(&reconOverrides, "overrides", "", "override table path (.yaml or .csv)")
	reconcileCmd.Flags().IntVar(&reconThreshold, "threshold", resolve.DefaultThreshold, "minimum fuzzy score accepted as a match (0-100)")
	reconcileCmd.Flags().IntVar(&reconWorkers, "workers", resolve.DefaultWorkers, "concurrent scoring goroutines")
	reconcileCmd.Flags().StringVar(&reconOutDir, "output-dir", "out", "directory for audit artifacts")
	reconcileCmd.Flags().BoolVar(&reconXLSX, "xlsx", false, "also write the audit workbook")
	reconcileCmd.Flags().BoolVar(&reconMarkdown, "markdown", false, "also write the markdown summary")
	reconcileCmd.Flags().BoolVar(&reconDryRun, "dry-run", false, "reconcile and print the summary without writing anything")
	reconcileCmd.Flags().BoolVar(&reconSave, "save", false, "record the run in the history store")
	rootCmd.AddCommand(reconcileCmd)
}

// rosterOptions derives roster column names from config, keeping defaults
// for unset keys.
func rosterOptions() dataset.RosterOptions {
	opts := dataset.DefaultRosterOptions()
	if cfg.Data.IDColumn != "" {
		opts.IDColumn = cfg.Data.IDColumn
	}
	if cfg.Data.NameColumn != "" {
		opts.NameColumn = cfg.Data.NameColumn
	}
	if cfg.Data.ExpensedColumn != "" {
		opts.ExpensedColumn = cfg.Data.ExpensedColumn
	}
	return opts
}

func subscriptionOptions() dataset.SubscriptionOptions {
	opts := dataset.DefaultSubscriptionOptions()
	opts.SkipRows = cfg.Data.SkipRows
	opts.NameIndex = cfg.Data.NameIndex
	return opts
}

// printReconcileSummary writes the per-kind counts and a one-line verdict.
func printReconcileSummary(out io.Writer, rep *model.Report) {
	s := rep.Summary

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Records:\t%d (skipped %d)\n", s.Total, s.Skipped)
	_, _ = fmt.Fprintf(w, "Matched:\t%d (%.1f%%)\n", s.Matched, s.MatchRate)
	_, _ = fmt.Fprintf(w, "  Exact:\t%d\n", s.Exact)
	_, _ = fmt.Fprintf(w, "  Override:\t%d\n", s.Override)
	_, _ = fmt.Fprintf(w, "  Fuzzy:\t%d\n", s.Fuzzy)
	_, _ = fmt.Fprintf(w, "  Ambiguous:\t%d\n", s.Ambiguous)
	_, _ = fmt.Fprintf(w, "Unmatched:\t%d\n", s.Unmatched)
	_, _ = fmt.Fprintf(w, "Conflicts:\t%d\n", s.Conflicts)
	_, _ = fmt.Fprintf(w, "Did not report:\t%d\n", s.DidNotReport)
	_ = w.Flush()

	switch {
	case s.Unmatched > 0 || s.Conflicts > 0:
		_, _ = color.New(color.FgRed).Fprintf(out, "%d unmatched, %d conflicts; see the audit report\n", s.Unmatched, s.Conflicts)
	case s.Ambiguous > 0:
		_, _ = color.New(color.FgYellow).Fprintf(out, "%d ambiguous matches need review\n", s.Ambiguous)
	default:
		_, _ = color.New(color.FgGreen).Fprintln(out, "all records matched")
	}
}

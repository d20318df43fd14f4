package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/report"
	"github.com/sells-group/recon-cli/pkg/gsheet"
)

var (
	fetchSheetID string
	fetchTabs    []string
	fetchOut     string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download sheet tabs as CSV",
	Long:  "Downloads tabs of a link-shared Google sheet through its CSV export endpoint, one file per --tab name=gid.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sheetID := fetchSheetID
		if sheetID == "" {
			sheetID = cfg.Sheets.SheetID
		}
		if sheetID == "" {
			return eris.New("fetch: --sheet-id is required (or sheets.sheet_id in config)")
		}
		if len(fetchTabs) == 0 {
			return eris.New("fetch: at least one --tab name=gid is required")
		}

		type sheetTab struct {
			name string
			gid  string
		}
		tabs := make([]sheetTab, 0, len(fetchTabs))
		for _, tab := range fetchTabs {
			name, gid, ok := strings.Cut(tab, "=")
			if !ok || name == "" || gid == "" {
				return eris.Errorf("fetch: malformed --tab %q, want name=gid", tab)
			}
			tabs = append(tabs, sheetTab{name: name, gid: gid})
		}

		if err := os.MkdirAll(fetchOut, 0o755); err != nil {
			return eris.Wrapf(err, "fetch: create %s", fetchOut)
		}

		opts := []gsheet.Option{gsheet.WithRateLimit(cfg.Sheets.RateLimit)}
		if cfg.Sheets.BaseURL != "" {
			opts = append(opts, gsheet.WithBaseURL(cfg.Sheets.BaseURL))
		}
		client := gsheet.NewClient(opts...)
		for _, tab := range tabs {
			data, err := client.Export(ctx, sheetID, tab.gid)
			if err != nil {
				return err
			}

			path := filepath.Join(fetchOut, tab.name+".csv")
			if err := report.WriteFileAtomic(path, data, 0o644); err != nil {
				return err
			}
			zap.L().Info("tab downloaded",
				zap.String("tab", tab.name),
				zap.String("path", path),
				zap.Int("bytes", len(data)))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSheetID, "sheet-id", "", "Google sheet ID")
	fetchCmd.Flags().StringArrayVar(&fetchTabs, "tab", nil, "tab to download as name=gid (repeatable)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "data", "directory for downloaded CSVs")
	rootCmd.AddCommand(fetchCmd)
}

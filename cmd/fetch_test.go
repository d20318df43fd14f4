package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recon-cli/internal/config"
)

func TestFetchCmd_RunE_DownloadsTabs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("gid") {
		case "0":
			_, _ = w.Write([]byte("id,name,expensed\nE1,Ada Lovelace,\n"))
		default:
			_, _ = w.Write([]byte("user,amount\nAda Lovelace (E1),20.00\n"))
		}
	}))
	defer srv.Close()

	outDir := filepath.Join(t.TempDir(), "data")
	cfg = &config.Config{
		Sheets: config.SheetsConfig{BaseURL: srv.URL, RateLimit: 100},
	}

	fetchCmd.SetContext(context.Background())
	defer fetchCmd.SetContext(context.TODO())

	fetchSheetID = "sheet123"
	fetchTabs = []string{"roster=0", "subscriptions=4242"}
	fetchOut = outDir
	defer func() {
		fetchSheetID = ""
		fetchTabs = nil
		fetchOut = "data"
	}()

	require.NoError(t, fetchCmd.RunE(fetchCmd, nil))

	roster, err := os.ReadFile(filepath.Join(outDir, "roster.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(roster), "Ada Lovelace")

	subs, err := os.ReadFile(filepath.Join(outDir, "subscriptions.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(subs), "20.00")
}

func TestFetchCmd_RunE_RequiresSheetID(t *testing.T) {
	cfg = &config.Config{}

	fetchCmd.SetContext(context.Background())
	defer fetchCmd.SetContext(context.TODO())

	err := fetchCmd.RunE(fetchCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sheet-id is required")
}

func TestFetchCmd_RunE_RequiresTabs(t *testing.T) {
	cfg = &config.Config{
		Sheets: config.SheetsConfig{SheetID: "sheet123"},
	}

	fetchCmd.SetContext(context.Background())
	defer fetchCmd.SetContext(context.TODO())

	err := fetchCmd.RunE(fetchCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one --tab")
}

func TestFetchCmd_RunE_MalformedTab(t *testing.T) {
	cfg = &config.Config{}

	fetchCmd.SetContext(context.Background())
	defer fetchCmd.SetContext(context.TODO())

	fetchSheetID = "sheet123"
	fetchTabs = []string{"roster"}
	defer func() {
		fetchSheetID = ""
		fetchTabs = nil
	}()

	err := fetchCmd.RunE(fetchCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed --tab")
}

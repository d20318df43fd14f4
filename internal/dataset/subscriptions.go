package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/model"
)

// Subscription export layout defaults. The export carries vendor preamble
// rows, no usable header, and the name cell at a fixed column in the form
// "Jane Doe (E123)".
const (
	DefaultSkipRows    = 9
	DefaultNameIndex   = 2
	DefaultAmountIndex = 3
	DefaultPeriodIndex = 4

	// DefaultJunkPattern matches vendor boilerplate rows: section banners,
	// column legends and placeholder cells.
	DefaultJunkPattern = `AI Subscription|Users|blank`
)

// nameIDRe splits "Jane Doe (E123)" into name and employee id.
var nameIDRe = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*$`)

// SubscriptionOptions configures subscription-export parsing.
type SubscriptionOptions struct {
	SkipRows    int    // preamble rows before data
	NameIndex   int    // column with "Name (ID)"
	AmountIndex int    // opaque passthrough; out of range reads empty
	PeriodIndex int    // opaque passthrough; out of range reads empty
	JunkPattern string // rows whose name matches are counted as skipped
	SheetIndex  int    // XLSX only
	SheetName   string // XLSX only; overrides SheetIndex when set
}

// DefaultSubscriptionOptions returns the layout of the standard export.
func DefaultSubscriptionOptions() SubscriptionOptions {
	return SubscriptionOptions{
		SkipRows:    DefaultSkipRows,
		NameIndex:   DefaultNameIndex,
		AmountIndex: DefaultAmountIndex,
		PeriodIndex: DefaultPeriodIndex,
		JunkPattern: DefaultJunkPattern,
	}
}

// ReadSubscriptions parses a subscription export into usable records plus a
// count of malformed rows. CSV and XLSX are supported, chosen by extension.
func ReadSubscriptions(path string, opts SubscriptionOptions) (*model.SourceBatch, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readSheet(path, opts.SheetIndex, opts.SheetName)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return parseSubscriptionRows(rows, opts)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "subscriptions: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "subscriptions: read csv")
	}
	return rows, nil
}

// parseSubscriptionRows skips the preamble, splits name cells and filters
// boilerplate. Rows with no usable name are counted, never dropped silently.
func parseSubscriptionRows(rows [][]string, opts SubscriptionOptions) (*model.SourceBatch, error) {
	if opts.NameIndex < 0 {
		return nil, eris.Errorf("subscriptions: invalid name column index %d", opts.NameIndex)
	}
	pattern := opts.JunkPattern
	if pattern == "" {
		pattern = DefaultJunkPattern
	}
	junkRe, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eris.Wrapf(err, "subscriptions: invalid junk pattern %q", pattern)
	}

	batch := &model.SourceBatch{}
	for i, row := range rows {
		if i < opts.SkipRows || len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(getCol(row, opts.NameIndex))
		if cell == "" || cell == "(blank)" {
			batch.Skipped++
			continue
		}
		name, empID := extractNameID(cell)
		if junkRe.MatchString(name) {
			batch.Skipped++
			continue
		}
		batch.Records = append(batch.Records, model.SourceRecord{
			Name:       name,
			EmployeeID: empID,
			Amount:     strings.TrimSpace(getCol(row, opts.AmountIndex)),
			Period:     strings.TrimSpace(getCol(row, opts.PeriodIndex)),
			Row:        i + 1,
		})
	}

	zap.L().Debug("subscriptions parsed",
		zap.Int("records", len(batch.Records)),
		zap.Int("skipped", batch.Skipped))
	return batch, nil
}

// extractNameID splits the trailing parenthesized employee id off a name
// cell. Cells without one come back whole, with an empty id.
func extractNameID(cell string) (string, string) {
	if m := nameIDRe.FindStringSubmatch(cell); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return cell, ""
}

func getCol(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

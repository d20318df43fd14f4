// Package dataset reads and writes the tabular inputs of a reconciliation:
// the roster CSV, the subscription export (CSV or XLSX) and the curated
// override table (YAML or CSV).
package dataset

import (
	"bytes"
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recon-cli/internal/model"
)

// ExpensedYes is the truthy form written back to the roster's status column.
const ExpensedYes = "Yes"

// RosterOptions names the roster columns. Matching is case-insensitive on
// trimmed headers. An absent id column falls back to data-row ordinals; an
// absent expensed column is appended.
type RosterOptions struct {
	IDColumn       string
	NameColumn     string
	ExpensedColumn string
}

// DefaultRosterOptions returns the conventional column names.
func DefaultRosterOptions() RosterOptions {
	return RosterOptions{IDColumn: "id", NameColumn: "name", ExpensedColumn: "expensed"}
}

// Roster is a roster file held fully in memory: every input column survives
// a round trip untouched except the expensed cell, which SetExpensed
// rewrites from scratch.
type Roster struct {
	Header  []string
	Rows    [][]string
	Members []model.RosterMember

	nameCol int
	expCol  int
	rowOf   []int // Members[i] was built from Rows[rowOf[i]]
}

// ReadRoster loads and indexes a roster CSV. Rows whose name cell is empty
// or contains "@" (mailing-list artifacts) stay in the file but are not
// matchable members.
func ReadRoster(path string, opts RosterOptions) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "roster: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "roster: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("roster: csv is empty")
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	nameCol, ok := colIdx[strings.ToLower(opts.NameColumn)]
	if !ok {
		return nil, eris.Errorf("roster: missing required column %q", opts.NameColumn)
	}
	idCol := -1
	if i, ok := colIdx[strings.ToLower(opts.IDColumn)]; ok {
		idCol = i
	}
	expCol, ok := colIdx[strings.ToLower(opts.ExpensedColumn)]
	if !ok {
		header = append(header, opts.ExpensedColumn)
		expCol = len(header) - 1
	}

	r := &Roster{Header: header, nameCol: nameCol, expCol: expCol}
	for ordinal, row := range records[1:] {
		// Pad ragged rows to the header width so the expensed cell exists.
		for len(row) < len(header) {
			row = append(row, "")
		}
		r.Rows = append(r.Rows, row)

		name := strings.TrimSpace(row[nameCol])
		if name == "" || strings.Contains(name, "@") {
			continue
		}
		id := ""
		if idCol >= 0 {
			id = strings.TrimSpace(row[idCol])
		}
		if id == "" {
			id = strconv.Itoa(ordinal + 1)
		}
		r.Members = append(r.Members, model.RosterMember{
			ID:       id,
			Name:     name,
			Expensed: truthy(row[expCol]),
		})
		r.rowOf = append(r.rowOf, len(r.Rows)-1)
	}
	return r, nil
}

// SetExpensed rewrites the status column from scratch: every row is cleared
// first, then members whose ID maps to true are marked. Pre-existing flags
// never survive, which keeps repeated application idempotent.
func (r *Roster) SetExpensed(flags map[string]bool) {
	for _, row := range r.Rows {
		row[r.expCol] = ""
	}
	for i := range r.Members {
		expensed := flags[r.Members[i].ID]
		r.Members[i].Expensed = expensed
		if expensed {
			r.Rows[r.rowOf[i]][r.expCol] = ExpensedYes
		}
	}
}

// MarshalCSV renders the roster, header first, fully in memory.
func (r *Roster) MarshalCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(r.Header); err != nil {
		return nil, eris.Wrap(err, "roster: write header")
	}
	for _, row := range r.Rows {
		if err := w.Write(row); err != nil {
			return nil, eris.Wrap(err, "roster: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "roster: flush csv")
	}
	return buf.Bytes(), nil
}

// truthy parses the flag forms seen in tracked spreadsheets.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

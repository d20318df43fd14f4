package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recon-cli/internal/model"
)

// auditHeader is the per-record section of the audit CSV.
var auditHeader = []string{
	"row", "raw_name", "employee_id", "amount", "period",
	"matched_id", "matched_name", "score", "kind", "conflict",
}

// BuildAuditCSV renders one row per result in source order, then a blank
// line and the summary block.
func BuildAuditCSV(rep *model.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(auditHeader); err != nil {
		return nil, eris.Wrap(err, "report: write audit header")
	}
	for _, res := range rep.Results {
		row := []string{
			strconv.Itoa(res.Record.Row),
			res.Record.Name,
			res.Record.EmployeeID,
			res.Record.Amount,
			res.Record.Period,
			res.MemberID,
			res.MemberName,
			strconv.Itoa(res.Score),
			res.AuditKind(),
			conflictMark(res.Conflict),
		}
		if err := w.Write(row); err != nil {
			return nil, eris.Wrap(err, "report: write audit row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "report: flush audit rows")
	}

	buf.WriteString("\n")
	sw := csv.NewWriter(&buf)
	for _, kv := range summaryRows(rep) {
		if err := sw.Write(kv); err != nil {
			return nil, eris.Wrap(err, "report: write summary row")
		}
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, eris.Wrap(err, "report: flush summary rows")
	}
	return buf.Bytes(), nil
}

// summaryRows is shared by the audit CSV and the workbook summary sheet.
func summaryRows(rep *model.Report) [][]string {
	s := rep.Summary
	return [][]string{
		{"total", strconv.Itoa(s.Total)},
		{"matched", strconv.Itoa(s.Matched)},
		{"exact", strconv.Itoa(s.Exact)},
		{"override", strconv.Itoa(s.Override)},
		{"fuzzy", strconv.Itoa(s.Fuzzy)},
		{"ambiguous", strconv.Itoa(s.Ambiguous)},
		{"unmatched", strconv.Itoa(s.Unmatched)},
		{"skipped_rows", strconv.Itoa(s.Skipped)},
		{"conflicts", strconv.Itoa(s.Conflicts)},
		{"did_not_report", strconv.Itoa(s.DidNotReport)},
		{"match_rate", fmt.Sprintf("%.1f%%", s.MatchRate)},
		{"threshold", strconv.Itoa(rep.Threshold)},
	}
}

func conflictMark(conflict bool) string {
	if conflict {
		return "yes"
	}
	return ""
}

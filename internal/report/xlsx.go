package report

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/recon-cli/internal/model"
)

// Workbook sheet names, in order.
const (
	SheetAllMatches   = "All Matches"
	SheetUnmatched    = "Unmatched"
	SheetDidNotReport = "Did Not Report"
	SheetSummary      = "Summary"
)

// BuildWorkbook renders the review workbook: every result, the unmatched
// subset, the members nobody claimed and the summary block.
func BuildWorkbook(rep *model.Report, members []model.RosterMember) ([]byte, error) {
	f := xlsx.NewFile()

	all, err := f.AddSheet(SheetAllMatches)
	if err != nil {
		return nil, eris.Wrap(err, "report: add matches sheet")
	}
	addRow(all, auditHeader...)
	for _, res := range rep.Results {
		row := all.AddRow()
		row.AddCell().SetInt(res.Record.Row)
		row.AddCell().SetString(res.Record.Name)
		row.AddCell().SetString(res.Record.EmployeeID)
		row.AddCell().SetString(res.Record.Amount)
		row.AddCell().SetString(res.Record.Period)
		row.AddCell().SetString(res.MemberID)
		row.AddCell().SetString(res.MemberName)
		row.AddCell().SetInt(res.Score)
		row.AddCell().SetString(res.AuditKind())
		row.AddCell().SetString(conflictMark(res.Conflict))
	}

	unmatched, err := f.AddSheet(SheetUnmatched)
	if err != nil {
		return nil, eris.Wrap(err, "report: add unmatched sheet")
	}
	addRow(unmatched, "row", "raw_name", "best_score")
	for _, res := range rep.Results {
		if res.Kind != model.MatchUnmatched {
			continue
		}
		row := unmatched.AddRow()
		row.AddCell().SetInt(res.Record.Row)
		row.AddCell().SetString(res.Record.Name)
		row.AddCell().SetInt(res.Score)
	}

	missing, err := f.AddSheet(SheetDidNotReport)
	if err != nil {
		return nil, eris.Wrap(err, "report: add did-not-report sheet")
	}
	addRow(missing, "member_id", "name")
	names := memberNames(members)
	for _, id := range rep.DidNotReportIDs {
		addRow(missing, id, names[id])
	}

	summary, err := f.AddSheet(SheetSummary)
	if err != nil {
		return nil, eris.Wrap(err, "report: add summary sheet")
	}
	addRow(summary, "metric", "value")
	for _, kv := range summaryRows(rep) {
		addRow(summary, kv...)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "report: serialize workbook")
	}
	return buf.Bytes(), nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func memberNames(members []model.RosterMember) map[string]string {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names
}

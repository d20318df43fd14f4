package report

import (
	"fmt"
	"strings"

	"github.com/sells-group/recon-cli/internal/model"
)

// FormatSummary generates a human-readable reconciliation summary.
func FormatSummary(rep *model.Report, members []model.RosterMember) string {
	var b strings.Builder

	nameOf := make(map[string]string, len(members))
	for _, m := range members {
		nameOf[m.ID] = m.Name
	}

	s := rep.Summary
	b.WriteString("# Reconciliation Summary\n\n")
	fmt.Fprintf(&b, "- Source records: %d (skipped %d malformed)\n", s.Total, s.Skipped)
	fmt.Fprintf(&b, "- Matched: %d (%.1f%%)\n", s.Matched, s.MatchRate)
	fmt.Fprintf(&b, "- Roster members: %d, did not report: %d\n", len(members), s.DidNotReport)
	fmt.Fprintf(&b, "- Fuzzy threshold: %d\n\n", rep.Threshold)

	b.WriteString("## Match Breakdown\n")
	fmt.Fprintf(&b, "- Exact: %d\n", s.Exact)
	fmt.Fprintf(&b, "- Override: %d\n", s.Override)
	fmt.Fprintf(&b, "- Fuzzy: %d\n", s.Fuzzy)
	fmt.Fprintf(&b, "- Ambiguous: %d\n", s.Ambiguous)
	fmt.Fprintf(&b, "- Unmatched: %d\n\n", s.Unmatched)

	// Conflicts: every record claiming a doubly-assigned member.
	b.WriteString("## Conflicts\n")
	if len(rep.ConflictMemberIDs) == 0 {
		b.WriteString("None.\n\n")
	} else {
		claims := make(map[string][]model.MatchResult)
		for _, res := range rep.Results {
			if res.Conflict {
				claims[res.MemberID] = append(claims[res.MemberID], res)
			}
		}
		for _, id := range rep.ConflictMemberIDs {
			fmt.Fprintf(&b, "- **%s** (%s) claimed by %d records:\n", nameOf[id], id, len(claims[id]))
			for _, res := range claims[id] {
				fmt.Fprintf(&b, "  - row %d: %q (%s, score %d)\n",
					res.Record.Row, res.Record.Name, res.AuditKind(), res.Score)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Ambiguous Matches\n")
	ambiguous := 0
	for _, res := range rep.Results {
		if !res.Ambiguous {
			continue
		}
		ambiguous++
		fmt.Fprintf(&b, "- row %d: %q -> %s (%s, score %d); review alternatives at the same score\n",
			res.Record.Row, res.Record.Name, res.MemberName, res.MemberID, res.Score)
	}
	if ambiguous == 0 {
		b.WriteString("None.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Unmatched\n")
	unmatched := 0
	for _, res := range rep.Results {
		if res.Kind != model.MatchUnmatched {
			continue
		}
		unmatched++
		fmt.Fprintf(&b, "- row %d: %q (best score %d)\n", res.Record.Row, res.Record.Name, res.Score)
	}
	if unmatched == 0 {
		b.WriteString("None.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Did Not Report\n")
	if len(rep.DidNotReportIDs) == 0 {
		b.WriteString("None.\n")
	} else {
		for _, id := range rep.DidNotReportIDs {
			fmt.Fprintf(&b, "- %s (%s)\n", nameOf[id], id)
		}
	}

	return b.String()
}

package model

// MatchKind classifies how a source record resolved against the roster.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchOverride  MatchKind = "override"
	MatchFuzzy     MatchKind = "fuzzy"
	MatchUnmatched MatchKind = "unmatched"
)

// KindAmbiguous is the audit label for a fuzzy match that tied at the
// maximum score. It is never stored as a Kind; see MatchResult.AuditKind.
const KindAmbiguous = "ambiguous"

// MatchResult pairs one source record with at most one roster member.
type MatchResult struct {
	Record     SourceRecord `json:"record"`
	MemberID   string       `json:"member_id,omitempty"`
	MemberName string       `json:"member_name,omitempty"`
	Score      int          `json:"score"`
	Kind       MatchKind    `json:"kind"`
	Ambiguous  bool         `json:"ambiguous,omitempty"`
	Conflict   bool         `json:"conflict,omitempty"`
}

// Matched reports whether the record resolved to a roster member.
func (r MatchResult) Matched() bool { return r.MemberID != "" }

// AuditKind is the kind label shown in audit artifacts. Fuzzy matches that
// tied at the maximum score render as "ambiguous".
func (r MatchResult) AuditKind() string {
	if r.Kind == MatchFuzzy && r.Ambiguous {
		return KindAmbiguous
	}
	return string(r.Kind)
}

// Summary aggregates one reconciliation run. Ambiguous rows are counted
// under Ambiguous, not Fuzzy, so the per-kind counts sum to Total.
type Summary struct {
	Total        int     `json:"total"`
	Matched      int     `json:"matched"`
	Exact        int     `json:"exact"`
	Override     int     `json:"override"`
	Fuzzy        int     `json:"fuzzy"`
	Ambiguous    int     `json:"ambiguous"`
	Unmatched    int     `json:"unmatched"`
	Conflicts    int     `json:"conflicts"`
	Skipped      int     `json:"skipped"`
	DidNotReport int     `json:"did_not_report"`
	MatchRate    float64 `json:"match_rate"`
}

// Report is the complete outcome of one reconciliation: every result in
// source order plus the aggregates derived from them.
type Report struct {
	Results           []MatchResult `json:"results"`
	Summary           Summary       `json:"summary"`
	ConflictMemberIDs []string      `json:"conflict_member_ids,omitempty"`
	DidNotReportIDs   []string      `json:"did_not_report_ids,omitempty"`
	Threshold         int           `json:"threshold"`
}

package model

// RosterMember is one matchable row of the team roster.
type RosterMember struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Expensed bool   `json:"expensed"`
}

// SourceRecord is one usable row of the subscription export. Amount and
// Period are opaque passthrough fields; the matcher never reads them.
type SourceRecord struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Period     string `json:"period,omitempty"`
	Row        int    `json:"row"`
}

// SourceBatch is a parsed subscription export: the usable records plus the
// count of rows dropped at parse time (missing name cell, vendor boilerplate).
type SourceBatch struct {
	Records []SourceRecord `json:"records"`
	Skipped int            `json:"skipped"`
}

// OverrideRule maps a known raw-name variant to its canonical roster name.
type OverrideRule struct {
	Raw       string `json:"raw" yaml:"raw"`
	Canonical string `json:"canonical" yaml:"canonical"`
}

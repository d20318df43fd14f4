// Package report turns a reconciliation report into its persisted outputs:
// the updated roster, the audit CSV, an optional review workbook and an
// optional Markdown summary. Every artifact is built fully in memory and
// written atomically, so a failed run leaves no partial output.
package report

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/dataset"
	"github.com/sells-group/recon-cli/internal/model"
)

// Artifact file names inside the output directory.
const (
	AuditFileName    = "audit.csv"
	WorkbookFileName = "reconciliation.xlsx"
	SummaryFileName  = "summary.md"
)

// Options selects which artifacts Emit produces and where.
type Options struct {
	OutputDir  string // audit artifacts land here
	RosterPath string // updated roster is written back here
	XLSX       bool
	Markdown   bool
}

// Emitter persists reconciliation outcomes.
type Emitter struct {
	opts Options
	log  *zap.Logger
}

// NewEmitter builds an Emitter.
func NewEmitter(opts Options) *Emitter {
	return &Emitter{
		opts: opts,
		log:  zap.L().With(zap.String("component", "emitter")),
	}
}

// StatusFlags derives each member's expensed flag strictly from the report:
// true when at least one result references the member. Conflicted references
// still count, since a member claimed twice certainly reported. The roster's
// pre-existing flags are never consulted.
func StatusFlags(rep *model.Report) map[string]bool {
	flags := make(map[string]bool)
	for _, res := range rep.Results {
		if res.Matched() {
			flags[res.MemberID] = true
		}
	}
	return flags
}

// Emit recomputes the roster's status column from rep and persists the
// roster plus the selected audit artifacts. Nothing touches disk until
// every artifact has been built, and each write is atomic.
func (e *Emitter) Emit(rep *model.Report, roster *dataset.Roster) error {
	if e.opts.OutputDir == "" {
		return eris.New("report: output dir required")
	}
	if e.opts.RosterPath == "" {
		return eris.New("report: roster path required")
	}

	roster.SetExpensed(StatusFlags(rep))

	type artifact struct {
		path string
		data []byte
	}
	var artifacts []artifact

	rosterBytes, err := roster.MarshalCSV()
	if err != nil {
		return err
	}
	artifacts = append(artifacts, artifact{e.opts.RosterPath, rosterBytes})

	auditBytes, err := BuildAuditCSV(rep)
	if err != nil {
		return err
	}
	artifacts = append(artifacts, artifact{filepath.Join(e.opts.OutputDir, AuditFileName), auditBytes})

	if e.opts.XLSX {
		wb, err := BuildWorkbook(rep, roster.Members)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, artifact{filepath.Join(e.opts.OutputDir, WorkbookFileName), wb})
	}
	if e.opts.Markdown {
		md := FormatSummary(rep, roster.Members)
		artifacts = append(artifacts, artifact{filepath.Join(e.opts.OutputDir, SummaryFileName), []byte(md)})
	}

	if err := os.MkdirAll(e.opts.OutputDir, 0o755); err != nil {
		return eris.Wrap(err, "report: create output dir")
	}
	for _, a := range artifacts {
		if err := WriteFileAtomic(a.path, a.data, 0o644); err != nil {
			return err
		}
		e.log.Info("artifact written", zap.String("path", a.path), zap.Int("bytes", len(a.data)))
	}
	return nil
}

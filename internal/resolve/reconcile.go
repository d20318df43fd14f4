package resolve

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/recon-cli/internal/model"
)

const (
	// DefaultThreshold is the minimum accepted fuzzy score.
	DefaultThreshold = 85
	// DefaultWorkers bounds concurrent scoring goroutines.
	DefaultWorkers = 4
)

// Config tunes matching. Zero values fall back to the defaults.
type Config struct {
	Threshold int `mapstructure:"threshold" yaml:"threshold"`
	Workers   int `mapstructure:"workers" yaml:"workers"`
}

// Reconciler assigns each source record to at most one roster member:
// override rules first, then token-sort scoring with deterministic
// tie-breaking. It holds only tuning state, so one Reconciler may serve any
// number of runs and identical inputs always produce identical reports.
type Reconciler struct {
	threshold int
	workers   int
	log       *zap.Logger
}

// NewReconciler builds a Reconciler from cfg, applying defaults for unset
// values.
func NewReconciler(cfg Config) *Reconciler {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Reconciler{
		threshold: cfg.Threshold,
		workers:   cfg.Workers,
		log:       zap.L().With(zap.String("component", "reconciler")),
	}
}

// rosterIndex precomputes what matching needs from the roster. Positions in
// byNorm are ordered by canonical name then ID so that every lookup into a
// set of same-named members is deterministic.
type rosterIndex struct {
	members    []model.RosterMember
	normalized []string
	byNorm     map[string][]int
	names      []string
}

func buildIndex(roster []model.RosterMember) *rosterIndex {
	idx := &rosterIndex{
		members:    roster,
		normalized: make([]string, len(roster)),
		byNorm:     make(map[string][]int, len(roster)),
		names:      make([]string, len(roster)),
	}
	for i, m := range roster {
		key := Normalize(m.Name)
		idx.normalized[i] = key
		idx.names[i] = m.Name
		idx.byNorm[key] = append(idx.byNorm[key], i)
	}
	for _, positions := range idx.byNorm {
		sort.Slice(positions, func(a, b int) bool {
			ma, mb := roster[positions[a]], roster[positions[b]]
			if ma.Name != mb.Name {
				return ma.Name < mb.Name
			}
			return ma.ID < mb.ID
		})
	}
	return idx
}

// Reconcile classifies every record in batch against roster, applying rules
// before any scoring. Scoring runs on up to Workers goroutines; each writes
// only its own record's slot, so the report lists results in source order at
// any worker count. The only error condition is configuration: every
// override target must resolve to a roster member before matching begins.
func (r *Reconciler) Reconcile(batch model.SourceBatch, roster []model.RosterMember, rules *OverrideTable) (*model.Report, error) {
	idx := buildIndex(roster)
	if err := validateTargets(idx, rules); err != nil {
		return nil, err
	}

	results := make([]model.MatchResult, len(batch.Records))
	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, rec := range batch.Records {
		i, rec := i, rec // per-iteration copies; required while go.mod targets go < 1.22
		g.Go(func() error {
			results[i] = r.classify(rec, idx, rules)
			return nil
		})
	}
	// Workers never return errors; the group exists for its limit.
	_ = g.Wait()

	report := &model.Report{Results: results, Threshold: r.threshold}
	r.scanConflicts(report, idx)
	r.summarize(report, batch.Skipped)

	r.log.Info("reconcile complete",
		zap.Int("records", report.Summary.Total),
		zap.Int("matched", report.Summary.Matched),
		zap.Int("unmatched", report.Summary.Unmatched),
		zap.Int("skipped", report.Summary.Skipped),
		zap.Int("conflicts", report.Summary.Conflicts))
	return report, nil
}

// ValidateOverrides checks every target in rules against roster without
// running a reconciliation. It returns the same configuration error
// Reconcile would.
func ValidateOverrides(roster []model.RosterMember, rules *OverrideTable) error {
	return validateTargets(buildIndex(roster), rules)
}

// validateTargets confirms every override target resolves to a roster
// member. Runs before any matching so a bad table aborts with no output.
func validateTargets(idx *rosterIndex, rules *OverrideTable) error {
	if rules == nil {
		return nil
	}
	for _, key := range rules.Keys() {
		target, _ := rules.Target(key)
		if _, ok := idx.byNorm[Normalize(target)]; !ok {
			if closest := NearestNames(target, idx.names, 3); len(closest) > 0 {
				return configErrorf("override target %q not in roster (closest: %s)", target, strings.Join(closest, ", "))
			}
			return configErrorf("override target %q not in roster", target)
		}
	}
	return nil
}

func (r *Reconciler) classify(rec model.SourceRecord, idx *rosterIndex, rules *OverrideTable) model.MatchResult {
	res := model.MatchResult{Record: rec, Kind: model.MatchUnmatched}

	if rules != nil {
		if target, ok := rules.Resolve(rec.Name); ok {
			// Target presence was validated up front.
			m := idx.members[idx.byNorm[Normalize(target)][0]]
			res.MemberID = m.ID
			res.MemberName = m.Name
			res.Score = 100
			res.Kind = model.MatchOverride
			return res
		}
	}

	normName := Normalize(rec.Name)
	if normName == "" || len(idx.members) == 0 {
		return res
	}

	best := -1
	var bestPos []int
	for pos, cand := range idx.normalized {
		s := TokenSortRatio(normName, cand)
		if s > best {
			best = s
			bestPos = append(bestPos[:0], pos)
		} else if s == best {
			bestPos = append(bestPos, pos)
		}
	}

	res.Score = best
	if best < r.threshold {
		return res
	}

	sort.Slice(bestPos, func(a, b int) bool {
		ma, mb := idx.members[bestPos[a]], idx.members[bestPos[b]]
		if ma.Name != mb.Name {
			return ma.Name < mb.Name
		}
		return ma.ID < mb.ID
	})
	chosen := idx.members[bestPos[0]]
	res.MemberID = chosen.ID
	res.MemberName = chosen.Name
	if best == 100 && len(bestPos) == 1 {
		res.Kind = model.MatchExact
	} else {
		res.Kind = model.MatchFuzzy
		res.Ambiguous = len(bestPos) > 1
	}
	return res
}

// scanConflicts flags every result whose member is referenced more than
// once and records conflicted and unreferenced member IDs, both sorted.
func (r *Reconciler) scanConflicts(report *model.Report, idx *rosterIndex) {
	refs := make(map[string][]int)
	for i, res := range report.Results {
		if res.Matched() {
			refs[res.MemberID] = append(refs[res.MemberID], i)
		}
	}

	for id, positions := range refs {
		if len(positions) > 1 {
			report.ConflictMemberIDs = append(report.ConflictMemberIDs, id)
			for _, i := range positions {
				report.Results[i].Conflict = true
			}
		}
	}
	sort.Strings(report.ConflictMemberIDs)

	for _, m := range idx.members {
		if _, ok := refs[m.ID]; !ok {
			report.DidNotReportIDs = append(report.DidNotReportIDs, m.ID)
		}
	}
	sort.Strings(report.DidNotReportIDs)
}

func (r *Reconciler) summarize(report *model.Report, skipped int) {
	sum := model.Summary{Total: len(report.Results), Skipped: skipped}
	for _, res := range report.Results {
		switch {
		case res.Kind == model.MatchExact:
			sum.Exact++
		case res.Kind == model.MatchOverride:
			sum.Override++
		case res.Kind == model.MatchFuzzy && res.Ambiguous:
			sum.Ambiguous++
		case res.Kind == model.MatchFuzzy:
			sum.Fuzzy++
		default:
			sum.Unmatched++
		}
	}
	sum.Matched = sum.Exact + sum.Override + sum.Fuzzy + sum.Ambiguous
	sum.Conflicts = len(report.ConflictMemberIDs)
	sum.DidNotReport = len(report.DidNotReportIDs)
	if sum.Total > 0 {
		sum.MatchRate = 100 * float64(sum.Matched) / float64(sum.Total)
	}
	report.Summary = sum
}

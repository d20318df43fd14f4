package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/recon-cli/internal/model"
)

// LoadOverrides reads the curated override table. YAML files carry the rules
// under a top-level overrides key; CSV files need raw and canonical columns.
// Key validation (duplicates, empty keys) happens when the table is built,
// not here.
func LoadOverrides(path string) ([]model.OverrideRule, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadOverridesYAML(path)
	case ".csv":
		return loadOverridesCSV(path)
	default:
		return nil, eris.Errorf("overrides: unsupported file type %q", filepath.Ext(path))
	}
}

func loadOverridesYAML(path string) ([]model.OverrideRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "overrides: read %s", path)
	}

	var wrapper struct {
		Overrides []model.OverrideRule `yaml:"overrides"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "overrides: parse yaml")
	}

	for i, rule := range wrapper.Overrides {
		if strings.TrimSpace(rule.Raw) == "" || strings.TrimSpace(rule.Canonical) == "" {
			return nil, eris.Errorf("overrides: rule %d needs both raw and canonical", i+1)
		}
	}
	return wrapper.Overrides, nil
}

func loadOverridesCSV(path string) ([]model.OverrideRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "overrides: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "overrides: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("overrides: csv is empty")
	}

	colIdx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	rawCol, ok := colIdx["raw"]
	if !ok {
		return nil, eris.New(`overrides: missing required column "raw"`)
	}
	canonCol, ok := colIdx["canonical"]
	if !ok {
		return nil, eris.New(`overrides: missing required column "canonical"`)
	}

	var rules []model.OverrideRule
	for i, row := range records[1:] {
		raw := strings.TrimSpace(getCol(row, rawCol))
		canonical := strings.TrimSpace(getCol(row, canonCol))
		if raw == "" && canonical == "" {
			continue
		}
		if raw == "" || canonical == "" {
			return nil, eris.Errorf("overrides: row %d needs both raw and canonical", i+2)
		}
		rules = append(rules, model.OverrideRule{Raw: raw, Canonical: canonical})
	}
	return rules, nil
}

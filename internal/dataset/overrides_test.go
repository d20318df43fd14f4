package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverrides_YAML(t *testing.T) {
	path := writeTempFile(t, "overrides.yaml", `overrides:
  - raw: Byoung Hyun Bae
    canonical: Byoung Bae
  - raw: liuqing ma
    canonical: Monica Ma
`)

	rules, err := LoadOverrides(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Byoung Hyun Bae", rules[0].Raw)
	assert.Equal(t, "Byoung Bae", rules[0].Canonical)
	assert.Equal(t, "Monica Ma", rules[1].Canonical)
}

func TestLoadOverrides_YAMLMissingCanonical(t *testing.T) {
	path := writeTempFile(t, "overrides.yml", `overrides:
  - raw: Byoung Hyun Bae
`)

	_, err := LoadOverrides(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 1")
}

func TestLoadOverrides_YAMLInvalid(t *testing.T) {
	path := writeTempFile(t, "overrides.yaml", "overrides: [raw: {")

	_, err := LoadOverrides(path)
	require.Error(t, err)
}

func TestLoadOverrides_CSV(t *testing.T) {
	path := writeTempFile(t, "overrides.csv", "raw,canonical\nXing Liu,Shane Liu\nelias mera avila,Elías Mera\n")

	rules, err := LoadOverrides(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Xing Liu", rules[0].Raw)
	assert.Equal(t, "Shane Liu", rules[0].Canonical)
	assert.Equal(t, "Elías Mera", rules[1].Canonical)
}

func TestLoadOverrides_CSVMissingColumn(t *testing.T) {
	path := writeTempFile(t, "overrides.csv", "raw,target\nXing Liu,Shane Liu\n")

	_, err := LoadOverrides(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"canonical"`)
}

func TestLoadOverrides_CSVHalfEmptyRow(t *testing.T) {
	path := writeTempFile(t, "overrides.csv", "raw,canonical\nXing Liu,\n")

	_, err := LoadOverrides(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadOverrides_UnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "overrides.toml", "")

	_, err := LoadOverrides(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

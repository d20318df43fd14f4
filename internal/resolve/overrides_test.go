package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recon-cli/internal/model"
)

func TestNewOverrideTable_Resolve(t *testing.T) {
	table, err := NewOverrideTable([]model.OverrideRule{
		{Raw: "Byoung Hyun Bae", Canonical: "Byoung Bae"},
		{Raw: "liuqing ma", Canonical: "Monica Ma"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	target, ok := table.Resolve("byoung hyun bae")
	assert.True(t, ok)
	assert.Equal(t, "Byoung Bae", target)

	// Lookup normalizes, so case, accents and spacing do not matter.
	target, ok = table.Resolve("  BYOUNG   Hyun Bae ")
	assert.True(t, ok)
	assert.Equal(t, "Byoung Bae", target)

	_, ok = table.Resolve("someone else")
	assert.False(t, ok)
}

func TestNewOverrideTable_DiacriticInsensitiveKeys(t *testing.T) {
	table, err := NewOverrideTable([]model.OverrideRule{
		{Raw: "Elías Mera Avila", Canonical: "Elías Mera"},
	})
	require.NoError(t, err)

	target, ok := table.Resolve("elias mera avila")
	assert.True(t, ok)
	assert.Equal(t, "Elías Mera", target)
}

func TestNewOverrideTable_IdenticalDuplicatesCollapse(t *testing.T) {
	table, err := NewOverrideTable([]model.OverrideRule{
		{Raw: "Xing Liu", Canonical: "Shane Liu"},
		{Raw: "xing liu", Canonical: "Shane Liu"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestNewOverrideTable_ConflictingDuplicateFails(t *testing.T) {
	_, err := NewOverrideTable([]model.OverrideRule{
		{Raw: "Xing Liu", Canonical: "Shane Liu"},
		{Raw: "XING LIU", Canonical: "Sean Liu"},
	})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "xing liu")
}

func TestNewOverrideTable_EmptyKeyFails(t *testing.T) {
	_, err := NewOverrideTable([]model.OverrideRule{
		{Raw: "(blank)", Canonical: "Someone"},
	})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestOverrideTable_KeysSorted(t *testing.T) {
	table, err := NewOverrideTable([]model.OverrideRule{
		{Raw: "Xing Liu", Canonical: "Shane Liu"},
		{Raw: "Byoung Hyun Bae", Canonical: "Byoung Bae"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"byoung hyun bae", "xing liu"}, table.Keys())
}

func TestOverrideTable_RedundantKeys(t *testing.T) {
	table, err := NewOverrideTable([]model.OverrideRule{
		{Raw: "Byoung Hyun Bae", Canonical: "Byoung Bae"},
		{Raw: "monica ma", Canonical: "Monica  Ma."},
		{Raw: "Shane Liu", Canonical: "Shane Liu"},
	})
	require.NoError(t, err)

	// A rule is redundant when its key and target collapse to the same
	// normalized string, however the target is spelled.
	assert.Equal(t, []string{"monica ma", "shane liu"}, table.RedundantKeys())
}

func TestOverrideTable_RedundantKeysEmpty(t *testing.T) {
	table, err := NewOverrideTable([]model.OverrideRule{
		{Raw: "Byoung Hyun Bae", Canonical: "Byoung Bae"},
	})
	require.NoError(t, err)
	assert.Empty(t, table.RedundantKeys())
}

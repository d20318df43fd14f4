package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const rosterFixture = `id,name,expensed,notes
1,Byoung Bae,,joined 2023
2,Monica Ma,yes,
3,ai-team@corp.example,,mailing list
4,Xue Li,No,
,Elías Mera,TRUE,accented
`

func TestReadRoster(t *testing.T) {
	path := writeTempFile(t, "roster.csv", rosterFixture)

	r, err := ReadRoster(path, DefaultRosterOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "expensed", "notes"}, r.Header)
	assert.Len(t, r.Rows, 5)

	// The mailing-list row stays in the file but is not a member.
	require.Len(t, r.Members, 4)
	assert.Equal(t, "1", r.Members[0].ID)
	assert.Equal(t, "Byoung Bae", r.Members[0].Name)
	assert.False(t, r.Members[0].Expensed)
	assert.True(t, r.Members[1].Expensed)
	assert.False(t, r.Members[2].Expensed)
	assert.Equal(t, "Xue Li", r.Members[2].Name)
	// Blank id falls back to the data-row ordinal.
	assert.Equal(t, "5", r.Members[3].ID)
	assert.True(t, r.Members[3].Expensed)
}

func TestReadRoster_MissingNameColumn(t *testing.T) {
	path := writeTempFile(t, "roster.csv", "id,who,expensed\n1,Xue Li,\n")

	_, err := ReadRoster(path, DefaultRosterOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name"`)
}

func TestReadRoster_CustomColumns(t *testing.T) {
	path := writeTempFile(t, "roster.csv", "Employee,Full Name,Expensed\nE1,Xue Li,Yes\n")

	r, err := ReadRoster(path, RosterOptions{
		IDColumn:       "Employee",
		NameColumn:     "Full Name",
		ExpensedColumn: "Expensed",
	})
	require.NoError(t, err)
	require.Len(t, r.Members, 1)
	assert.Equal(t, "E1", r.Members[0].ID)
	assert.True(t, r.Members[0].Expensed)
}

func TestReadRoster_NoIDColumnUsesOrdinals(t *testing.T) {
	path := writeTempFile(t, "roster.csv", "name,expensed\nByoung Bae,\nMonica Ma,yes\n")

	r, err := ReadRoster(path, DefaultRosterOptions())
	require.NoError(t, err)
	require.Len(t, r.Members, 2)
	assert.Equal(t, "1", r.Members[0].ID)
	assert.Equal(t, "2", r.Members[1].ID)
}

func TestReadRoster_MissingExpensedColumnAppended(t *testing.T) {
	path := writeTempFile(t, "roster.csv", "id,name\n1,Xue Li\n")

	r, err := ReadRoster(path, DefaultRosterOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "expensed"}, r.Header)
	require.Len(t, r.Rows, 1)
	assert.Len(t, r.Rows[0], 3)
	assert.False(t, r.Members[0].Expensed)
}

func TestReadRoster_RaggedRowsPadded(t *testing.T) {
	path := writeTempFile(t, "roster.csv", "id,name,expensed,notes\n1,Xue Li\n")

	r, err := ReadRoster(path, DefaultRosterOptions())
	require.NoError(t, err)
	assert.Len(t, r.Rows[0], 4)
	assert.False(t, r.Members[0].Expensed)
}

func TestRoster_SetExpensedRecomputesFromScratch(t *testing.T) {
	path := writeTempFile(t, "roster.csv", rosterFixture)
	r, err := ReadRoster(path, DefaultRosterOptions())
	require.NoError(t, err)

	// Members 2 and 5 were flagged in the file; only member 1 is flagged
	// now, so the stale flags must disappear.
	r.SetExpensed(map[string]bool{"1": true})

	assert.True(t, r.Members[0].Expensed)
	assert.False(t, r.Members[1].Expensed)
	assert.False(t, r.Members[3].Expensed)
	assert.Equal(t, ExpensedYes, r.Rows[0][2])
	assert.Equal(t, "", r.Rows[1][2])
	assert.Equal(t, "", r.Rows[2][2])
	assert.Equal(t, "", r.Rows[4][2])
}

func TestRoster_SetExpensedIdempotent(t *testing.T) {
	path := writeTempFile(t, "roster.csv", rosterFixture)
	r, err := ReadRoster(path, DefaultRosterOptions())
	require.NoError(t, err)

	flags := map[string]bool{"2": true, "4": true}
	r.SetExpensed(flags)
	first, err := r.MarshalCSV()
	require.NoError(t, err)

	r.SetExpensed(flags)
	second, err := r.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestRoster_MarshalCSVPreservesUnknownColumns(t *testing.T) {
	path := writeTempFile(t, "roster.csv", rosterFixture)
	r, err := ReadRoster(path, DefaultRosterOptions())
	require.NoError(t, err)

	out, err := r.MarshalCSV()
	require.NoError(t, err)
	assert.Contains(t, string(out), "joined 2023")
	assert.Contains(t, string(out), "mailing list")
	assert.Contains(t, string(out), "ai-team@corp.example")
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"yes", "Yes", "YES", " y ", "true", "TRUE", "1"} {
		assert.True(t, truthy(s), "%q", s)
	}
	for _, s := range []string{"", "no", "No", "0", "false", "maybe"} {
		assert.False(t, truthy(s), "%q", s)
	}
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/settlement.yaml")
	require.NoError(t, err)

	assert.Equal(t, "settlement", s.Name)
	assert.Equal(t, "admin", s.Admin)
	require.NotNil(t, s.MigrateTo)
	assert.Equal(t, 2, *s.MigrateTo)
	require.Len(t, s.Setup, 1)
	assert.Equal(t, "add", s.Setup[0].Op)
	assert.Equal(t, "Tea", s.Setup[0].Args["name"])
	require.NotNil(t, s.Flow[1].Expect)
	assert.Equal(t, "AlreadyExists", s.Flow[1].Expect.Error)
	require.NotNil(t, s.Assertions[1].Count)
	assert.Equal(t, 2, *s.Assertions[1].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\ndescription: y\nflow:\n  - op: list\n"), 0o644))
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Nil(t, s.MigrateTo)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"unknown field", "name: x\ndescription: y\nassertion: []\nflow:\n  - op: list\n", "field assertion not found"},
		{"missing name", "description: y\nflow:\n  - op: list\n", "name is required"},
		{"missing description", "name: x\nflow:\n  - op: list\n", "description is required"},
		{"empty flow", "name: x\ndescription: y\n", "flow list is required"},
		{"unknown op", "name: x\ndescription: y\nflow:\n  - op: explode\n", `unknown op "explode"`},
		{"bad version", "name: x\ndescription: y\nmigrate_to: 3\nflow:\n  - op: list\n", "migrate_to must be between 0 and 2"},
		{"expect in setup", "name: x\ndescription: y\nsetup:\n  - op: list\n    expect: {error: NotFound}\nflow:\n  - op: list\n", "expect is not allowed in setup"},
		{"exclusive expect", "name: x\ndescription: y\nflow:\n  - op: list\n    expect: {error: NotFound, result: {ids: []}}\n", "exclusive"},
		{"unknown assertion", "name: x\ndescription: y\nflow:\n  - op: list\nassertions:\n  - type: vibes\n", `unknown assertion type "vibes"`},
		{"stock without value", "name: x\ndescription: y\nflow:\n  - op: list\nassertions:\n  - type: stock\n    id: 1\n", "stock requires id and value"},
		{"event_count without count", "name: x\ndescription: y\nflow:\n  - op: list\nassertions:\n  - type: event_count\n    event: ProductAdded\n", "event_count requires event and count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to find scenarios")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, err := runTestCommand(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandRunsScenarios(t *testing.T) {
	out, err := runTestCommand(t, "json", scenariosDir)
	require.NoError(t, err, out)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 4, resp.Data.Total)
	assert.Equal(t, 4, resp.Data.Passed)
	assert.Equal(t, 0, resp.Data.Failed)
	for _, sr := range resp.Data.Scenarios {
		assert.True(t, sr.Pass, "%s: %v", sr.Name, sr.Errors)
	}
}

func TestTestCommandGoldenUpdateThenCompare(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")
	file := filepath.Join(scenariosDir, "settlement.yaml")

	_, err := runTestCommand(t, "text", file, "--golden", golden, "--update")
	require.NoError(t, err)
	written, err := os.ReadFile(filepath.Join(golden, "settlement.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(written), "scenario: settlement\n")

	out, err := runTestCommand(t, "text", file, "--golden", golden)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS settlement")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "settlement.golden"), []byte("stale\n"), 0o644))

	out, err := runTestCommand(t, "text", filepath.Join(scenariosDir, "settlement.yaml"), "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Contains(t, out, "FAIL settlement")
	assert.Contains(t, out, "trace differs")
}

func TestTestCommandGoldenMissing(t *testing.T) {
	out, err := runTestCommand(t, "text", filepath.Join(scenariosDir, "v1_upsert.yaml"), "--golden", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "golden file missing")
}

func TestTestCommandUpdateRequiresGolden(t *testing.T) {
	_, err := runTestCommand(t, "text", scenariosDir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong_price
description: Expects the wrong stored price.
migrate_to: 1
flow:
  - op: add
    as: admin
    args: {id: 1, name: Cola, price: 100, stock: 1}
assertions:
  - type: product
    id: 1
    expect: {price: 999}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0o644))

	out, err := runTestCommand(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandMalformedScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: x\nbogus: 1\n"), 0o644))

	_, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

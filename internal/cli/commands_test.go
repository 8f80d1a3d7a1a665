package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/shop"
)

type cliRun struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, args ...string) cliRun {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) cliRun {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return cliRun{stdout: out.String(), stderr: errOut.String(), err: err}
}

// decodeOK parses a JSON success envelope into data.
func decodeOK(t *testing.T, r cliRun, data any) {
	t.Helper()
	require.NoError(t, r.err, "stdout: %s stderr: %s", r.stdout, r.stderr)
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp), r.stdout)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

func decodeError(t *testing.T, r cliRun) CLIError {
	t.Helper()
	require.Error(t, r.err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp), r.stdout)
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "shelf.db")
}

func TestCommandFlow(t *testing.T) {
	db := tempDB(t)
	run := func(args ...string) cliRun {
		return execute(t, append([]string{"--db", db, "--format", "json"}, args...)...)
	}

	var migrated migrateResult
	decodeOK(t, run("migrate", "latest", "--admin", "alice"), &migrated)
	assert.Equal(t, migrateResult{Version: "v2", Admin: "alice", Pending: []shop.PendingStep{}}, migrated)

	var added map[string]any
	decodeOK(t, run("--as", "alice", "product", "add", "1", "Cola", "100", "--stock", "10"), &added)
	assert.Equal(t, "Cola", added["name"])
	assert.EqualValues(t, 10, added["stock"])

	var receipt struct {
		Product struct {
			Stock uint64 `json:"stock"`
		} `json:"product"`
		Paid   uint64          `json:"paid"`
		Refund uint64          `json:"refund"`
		Sale   json.RawMessage `json:"sale"`
	}
	decodeOK(t, run("--as", "bob", "purchase", "1", "--pay", "150"), &receipt)
	assert.Equal(t, uint64(150), receipt.Paid)
	assert.Equal(t, uint64(50), receipt.Refund)
	assert.Equal(t, uint64(9), receipt.Product.Stock)
	assert.NotEmpty(t, receipt.Sale)

	var sales []map[string]any
	decodeOK(t, run("sales", "list"), &sales)
	require.Len(t, sales, 1)
	assert.Equal(t, "bob", sales[0]["buyer"])
	assert.EqualValues(t, 100, sales[0]["price"])

	var count map[string]int
	decodeOK(t, run("sales", "count"), &count)
	assert.Equal(t, 1, count["count"])

	var revenue map[string]uint64
	decodeOK(t, run("sales", "revenue", "1"), &revenue)
	assert.Equal(t, uint64(100), revenue["revenue"])

	var summary map[string]uint64
	decodeOK(t, run("summary"), &summary)
	assert.Equal(t, uint64(1), summary["total_sales"])
	assert.Equal(t, uint64(100), summary["total_revenue"])
	assert.Equal(t, uint64(100), summary["current_balance"])
	assert.Equal(t, uint64(1), summary["total_products_live"])

	denied := run("--as", "bob", "withdraw")
	assert.Equal(t, "AccessDenied", decodeError(t, denied).Code)
	assert.Equal(t, ExitFailure, GetExitCode(denied.err))
	assert.True(t, IsReported(denied.err))

	var withdrawn map[string]uint64
	decodeOK(t, run("--as", "alice", "withdraw"), &withdrawn)
	assert.Equal(t, uint64(100), withdrawn["withdrawn"])

	empty := run("--as", "alice", "withdraw")
	assert.Equal(t, "NothingToWithdraw", decodeError(t, empty).Code)

	var evs []map[string]any
	decodeOK(t, run("events", "--verify"), &evs)
	require.NotEmpty(t, evs)
	types := make([]string, 0, len(evs))
	for _, ev := range evs {
		types = append(types, ev["type"].(string))
	}
	assert.Contains(t, types, "ProductPurchased")
	assert.Contains(t, types, "RefundSent")
	assert.Contains(t, types, "FundsWithdrawn")
}

func TestCommandFlow_StatePersistsAcrossInvocations(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, execute(t, "--db", db, "migrate", "1", "--admin", "alice").err)
	require.NoError(t, execute(t, "--db", db, "--as", "alice", "product", "add", "7", "Tea", "40", "--stock", "2").err)

	r := execute(t, "--db", db, "product", "list")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Tea")
	assert.Contains(t, r.stdout, "ID")

	r = execute(t, "--db", db, "admin", "show")
	require.NoError(t, r.err)
	assert.Equal(t, "admin: alice\n", r.stdout)

	var status migrateResult
	decodeOK(t, execute(t, "--db", db, "--format", "json", "migrate", "status"), &status)
	assert.Equal(t, "v1", status.Version)
	assert.Equal(t, []shop.PendingStep{{Version: migration.V2, Name: "sales_ledger"}}, status.Pending)

	r = execute(t, "--db", db, "migrate", "status")
	require.NoError(t, r.err)
	assert.Equal(t, "schema at v1, admin alice; pending: v2 sales_ledger\n", r.stdout)

	// The ledger does not exist until step 2.
	r = execute(t, "--db", db, "--format", "json", "sales", "count")
	assert.Equal(t, "VersionMismatch", decodeError(t, r).Code)

	r = execute(t, "--db", db, "--format", "json", "migrate", "1", "--admin", "bob")
	assert.Equal(t, "AlreadyInitialized", decodeError(t, r).Code)
}

func TestAdminTransferCommand(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, execute(t, "--db", db, "migrate", "latest", "--admin", "alice").err)

	r := execute(t, "--db", db, "--as", "alice", "admin", "transfer", "carol")
	require.NoError(t, r.err)

	var is map[string]bool
	decodeOK(t, execute(t, "--db", db, "--format", "json", "admin", "is", "carol"), &is)
	assert.True(t, is["is_admin"])

	decodeOK(t, execute(t, "--db", db, "--format", "json", "admin", "is", "alice"), &is)
	assert.False(t, is["is_admin"])
}

func TestCommandErrors(t *testing.T) {
	db := tempDB(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"invalid format", []string{"--format", "xml", "summary"}, ExitCommandError},
		{"invalid product id", []string{"product", "get", "abc"}, ExitCommandError},
		{"invalid price", []string{"product", "add", "1", "Cola", "cheap"}, ExitCommandError},
		{"invalid version", []string{"migrate", "next"}, ExitCommandError},
		{"bad range", []string{"sales", "range", "--from", "yesterday", "--to", "2024-01-01T00:00:00Z"}, ExitCommandError},
		{"uninitialized shop", []string{"product", "get", "1"}, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, append([]string{"--db", db}, tt.args...)...)
			require.Error(t, r.err)
			assert.Equal(t, tt.code, GetExitCode(r.err))
		})
	}
}

func TestSeedCommand(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, execute(t, "--db", db, "migrate", "latest", "--admin", "alice").err)

	var res map[string]int
	decodeOK(t, execute(t, "--db", db, "--format", "json", "--as", "alice", "seed", "../manifest/testdata/seed.cue"), &res)
	assert.Equal(t, 2, res["added"])
	assert.Equal(t, 0, res["updated"])
	assert.Equal(t, 1, res["files"])

	decodeOK(t, execute(t, "--db", db, "--format", "json", "--as", "alice", "seed", "../manifest/testdata/seed.cue"), &res)
	assert.Equal(t, 0, res["added"])
	assert.Equal(t, 2, res["updated"])

	r := execute(t, "--db", db, "--format", "json", "--as", "bob", "seed", "../manifest/testdata/seed.cue")
	assert.Equal(t, "AccessDenied", decodeError(t, r).Code)
}

func TestSeedCommand_InvalidManifest(t *testing.T) {
	r := execute(t, "--db", tempDB(t), "--format", "json", "seed", "/nonexistent/catalog.cue")
	assert.Equal(t, "InvalidManifest", decodeError(t, r).Code)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))
	assert.True(t, IsReported(r.err))
}

func TestPayoutsCommand(t *testing.T) {
	db := tempDB(t)
	run := func(args ...string) cliRun {
		return execute(t, append([]string{"--db", db, "--format", "json"}, args...)...)
	}
	require.NoError(t, run("migrate", "latest", "--admin", "alice").err)
	require.NoError(t, run("--as", "alice", "product", "add", "1", "Cola", "100", "--stock", "3").err)
	require.NoError(t, run("--as", "bob", "purchase", "1", "--pay", "120").err)
	require.NoError(t, run("--as", "alice", "withdraw").err)

	var payouts []struct {
		OpID      string `json:"op_id"`
		Recipient string `json:"recipient"`
		Amount    uint64 `json:"amount"`
		Reason    string `json:"reason"`
	}
	decodeOK(t, run("--as", "alice", "payouts"), &payouts)
	require.Len(t, payouts, 2)
	assert.Equal(t, "bob", payouts[0].Recipient)
	assert.Equal(t, uint64(20), payouts[0].Amount)
	assert.Equal(t, "refund", payouts[0].Reason)
	assert.Equal(t, "alice", payouts[1].Recipient)
	assert.Equal(t, uint64(100), payouts[1].Amount)
	assert.Equal(t, "withdraw", payouts[1].Reason)
	assert.NotEqual(t, payouts[0].OpID, payouts[1].OpID)

	denied := run("--as", "bob", "payouts")
	assert.Equal(t, "AccessDenied", decodeError(t, denied).Code)

	text := execute(t, "--db", db, "--as", "alice", "payouts")
	require.NoError(t, text.err)
	assert.Contains(t, text.stdout, "RECIPIENT")
	assert.Contains(t, text.stdout, "refund")
}

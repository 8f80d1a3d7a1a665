package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	addrFlag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addrFlag)
	assert.Equal(t, "", addrFlag.DefValue)
}

func TestServeCommand_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	r := executeContext(t, ctx, "--db", tempDB(t), "serve", "--addr", "127.0.0.1:0")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stderr, "http server listening")
	assert.Contains(t, r.stderr, "server stopped gracefully")
}

func TestServeCommand_ListenError(t *testing.T) {
	r := executeContext(t, context.Background(), "--db", tempDB(t), "serve", "--addr", "256.0.0.1:bad")
	require.Error(t, r.err)
	assert.Equal(t, ExitFailure, GetExitCode(r.err))
}

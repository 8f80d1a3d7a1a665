package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	g, err := NewGate("admin")
	require.NoError(t, err)

	assert.True(t, g.IsAdmin("admin"))
	assert.False(t, g.IsAdmin("mallory"))
	assert.False(t, g.IsAdmin(""))
	assert.NoError(t, g.RequireAdmin("admin"))
	assert.ErrorIs(t, g.RequireAdmin("mallory"), ErrAccessDenied)
}

func TestNewGate_RejectsEmpty(t *testing.T) {
	_, err := NewGate("")
	assert.ErrorIs(t, err, ErrInvalidPrincipal)
}

func TestZeroGateDeniesEveryone(t *testing.T) {
	var g Gate
	assert.False(t, g.IsAdmin(""))
	assert.ErrorIs(t, g.RequireAdmin(""), ErrAccessDenied)
}

func TestTransfer(t *testing.T) {
	g, _ := NewGate("admin")

	assert.ErrorIs(t, g.Transfer("mallory", "mallory"), ErrAccessDenied)
	assert.ErrorIs(t, g.Transfer("admin", ""), ErrInvalidPrincipal)
	assert.Equal(t, Principal("admin"), g.Admin())

	require.NoError(t, g.Transfer("admin", "ops"))
	assert.Equal(t, Principal("ops"), g.Admin())
	assert.ErrorIs(t, g.RequireAdmin("admin"), ErrAccessDenied)
}

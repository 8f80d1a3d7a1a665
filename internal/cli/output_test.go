package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelf/internal/shop"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(field{"count", 3})
	require.NoError(t, err)

	assert.JSONEq(t, `{"status":"ok","data":{"count":3}}`, buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("OutOfStock", "purchase: OutOfStock", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "OutOfStock", resp.Error.Code)
	assert.Equal(t, "purchase: OutOfStock", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success(field{"withdrawn", uint64(250)})
	require.NoError(t, err)
	assert.Equal(t, "withdrawn: 250\n", buf.String())
}

func TestOutputFormatter_TextErrorVerboseDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error("InvalidManifest", "bad price", "seed.cue:4")
	require.NoError(t, err)
	assert.Equal(t, "Error [InvalidManifest]: bad price\nDetails: seed.cue:4\n", buf.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Fail(fmt.Errorf("wrapped: %w", shop.ErrAccessDenied))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.ErrorIs(t, err, shop.ErrAccessDenied)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "AccessDenied", resp.Error.Code)
}

func TestOutputFormatter_FailUnclassified(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(errors.New("disk on fire"))
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [Internal]: disk on fire\n", buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("no such file")

	err := WrapExitError(ExitCommandError, "failed to open database", cause)
	assert.Equal(t, "failed to open database: no such file", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", err)))
	assert.False(t, IsReported(err))

	assert.Equal(t, "bad args", NewExitError(ExitCommandError, "bad args").Error())
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"count": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_ErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error(ErrCodeInput, "cannot read file", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInput, resp.Error.Code)
	assert.Equal(t, "cannot read file", resp.Error.Message)
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error(ErrCodeValidation, "boom", nil))
	assert.Contains(t, buf.String(), "Error [E_VALIDATION]: boom")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer

	quiet := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}
	quiet.VerboseLog("hidden")
	assert.Empty(t, errOut.String())

	verbose := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}
	verbose.VerboseLog("loaded %d files", 2)
	assert.Contains(t, errOut.String(), "loaded 2 files")
	assert.Empty(t, out.String(), "verbose output must not corrupt the JSON stream")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := WrapExitError(ExitCommandError, "outer", errors.New("inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.EqualError(t, wrapped, "outer: inner")
	assert.EqualError(t, errors.Unwrap(wrapped), "inner")
}

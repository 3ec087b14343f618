package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cruxtx/internal/codec"
	"github.com/roach88/cruxtx/internal/txfile"
)

func TestValidateText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tx.yaml", sampleYAML)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "valid: 4 ops")
	assert.Contains(t, out, "hash:")
}

func TestValidateJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tx.yaml", sampleYAML)

	out, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, true, dataField(t, resp, "valid"))
	assert.Equal(t, float64(4), dataField(t, resp, "ops"))

	file, err := txfile.Load(path)
	require.NoError(t, err)
	log, err := file.Build()
	require.NoError(t, err)
	assert.Equal(t, log.Hash(), dataField(t, resp, "hash"))
}

func TestValidateSameHashAcrossFormats(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "tx.yaml", sampleYAML)
	jsonPath := writeFile(t, dir, "tx.json", sampleJSON)

	yamlOut, err := execute(t, "--format", "json", "validate", yamlPath)
	require.NoError(t, err)
	jsonOut, err := execute(t, "--format", "json", "validate", jsonPath)
	require.NoError(t, err)

	assert.Equal(t,
		dataField(t, decodeResponse(t, yamlOut), "hash"),
		dataField(t, decodeResponse(t, jsonOut), "hash"))
}

func TestValidateConflict(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tx.yaml", conflictYAML)

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidTx)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidTx, resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok, "details is %T", resp.Error.Details)
	assert.Equal(t, "CONFLICTING_IDENTITY", details["code"])
	assert.Equal(t, ":person/ivan", details["identity"])
	assert.Equal(t, []any{float64(0), float64(1)}, details["positions"])
}

func TestValidateStepError(t *testing.T) {
	content := `ops:
  - put:
      id: ":person/ivan"
      doc: {name: Ivan}
      valid_from: 2024-06-01
      valid_to: 2024-01-01
`
	path := writeFile(t, t.TempDir(), "tx.yaml", content)

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), details["step"])
	assert.Equal(t, "put", details["kind"])
	assert.Equal(t, "INVALID_TEMPORAL_RANGE", details["code"])
}

func TestValidateErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		wantExit int
		wantCode string
	}{
		{
			name:     "missing file",
			path:     filepath.Join(dir, "missing.yaml"),
			wantExit: ExitCommandError,
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "malformed yaml",
			path:     writeFile(t, dir, "bad.yaml", "ops: [put: {"),
			wantExit: ExitFailure,
			wantCode: ErrCodeParse,
		},
		{
			name:     "unknown field",
			path:     writeFile(t, dir, "typo.yaml", "ops:\n  - evict:\n      id: x\n      valid_from: 2024-01-01\n"),
			wantExit: ExitFailure,
			wantCode: ErrCodeInvalidTx,
		},
		{
			name:     "no ops",
			path:     writeFile(t, dir, "empty.yaml", "ops: []\n"),
			wantExit: ExitFailure,
			wantCode: ErrCodeParse,
		},
		{
			name:     "unsupported extension",
			path:     writeFile(t, dir, "tx.toml", "ops = []\n"),
			wantExit: ExitFailure,
			wantCode: ErrCodeParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "validate", tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestEncode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tx.yaml", sampleYAML)

	file, err := txfile.Load(path)
	require.NoError(t, err)
	log, err := file.Build()
	require.NoError(t, err)
	want, err := codec.MarshalLog(log)
	require.NoError(t, err)

	t.Run("stdout", func(t *testing.T) {
		out, err := execute(t, "encode", path)
		require.NoError(t, err)
		assert.Equal(t, string(want)+"\n", out)
	})

	t.Run("output file", func(t *testing.T) {
		target := filepath.Join(dir, "tx.wire.json")
		out, err := execute(t, "encode", path, "-o", target)
		require.NoError(t, err)
		assert.Empty(t, out)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("same bytes from json source", func(t *testing.T) {
		jsonPath := writeFile(t, dir, "tx.json", sampleJSON)
		out, err := execute(t, "encode", jsonPath)
		require.NoError(t, err)
		assert.Equal(t, string(want)+"\n", out)
	})

	t.Run("rejected file", func(t *testing.T) {
		bad := writeFile(t, dir, "conflict.yaml", conflictYAML)
		_, err := execute(t, "encode", bad)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})
}

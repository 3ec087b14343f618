package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `ops:
  - put:
      id: ":person/ivan"
      doc:
        name: Ivan
        age: 30
      valid_from: 2024-01-01
      valid_to: 2024-06-01
  - match:
      id: ":person/ivan"
      doc:
        name: Ivan
        age: 30
      as_of: 2024-03-01
  - delete:
      id: ":person/petr"
      valid_from: 2024-03-01
  - fn:
      id: ":fn/increment"
      args: [":person/ivan", 1]
`

const sampleJSON = `{
  "ops": [
    {"put": {"id": ":person/ivan", "doc": {"name": "Ivan", "age": 30}, "valid_from": "2024-01-01", "valid_to": "2024-06-01"}},
    {"match": {"id": ":person/ivan", "doc": {"name": "Ivan", "age": 30}, "as_of": "2024-03-01"}},
    {"delete": {"id": ":person/petr", "valid_from": "2024-03-01"}},
    {"fn": {"id": ":fn/increment", "args": [":person/ivan", 1]}}
  ]
}`

const conflictYAML = `ops:
  - put:
      id: ":person/ivan"
      doc: {name: Ivan}
      valid_from: 2024-01-01
      valid_to: 2024-06-01
  - delete:
      id: ":person/ivan"
      valid_from: 2024-03-01
`

// writeFile writes content to name under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithDefaults(t, Defaults{}, args...)
}

func executeWithDefaults(t *testing.T, defaults Defaults, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand(defaults)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a JSON CLI response.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

// dataField returns a top-level field of a successful JSON response.
func dataField(t *testing.T, resp CLIResponse, key string) any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data[key]
}

// newDatabase returns a path for a fresh store database.
func newDatabase(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cruxtx.db")
}

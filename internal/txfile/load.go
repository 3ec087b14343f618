package txfile

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// Format is a transaction file syntax.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

//go:embed schema.cue
var schemaCUE string

// strictJSON decodes numbers as json.Number so integers keep precision and
// floats can be told apart, and rejects unknown fields.
var strictJSON = jsoniter.Config{
	UseNumber:             true,
	DisallowUnknownFields: true,
}.Froze()

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported transaction file extension %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path))
	}
}

// Load reads and parses the transaction file at path.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction file: %w", err)
	}
	return parse(data, format, path)
}

// Parse decodes a transaction file. Unknown fields are rejected in every
// format.
func Parse(data []byte, format Format) (*File, error) {
	return parse(data, format, "input."+string(format))
}

func parse(data []byte, format Format, filename string) (*File, error) {
	var (
		f   File
		err error
	)
	switch format {
	case FormatYAML:
		err = parseYAML(data, &f)
	case FormatJSON:
		err = parseJSON(data, &f)
	case FormatCUE:
		err = parseCUE(data, filename, &f)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("transaction file has no ops")
	}
	return &f, nil
}

func parseYAML(data []byte, f *File) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(f); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func parseJSON(data []byte, f *File) error {
	if err := strictJSON.Unmarshal(data, f); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// parseCUE unifies the file with the embedded #File schema, requires the
// result to be concrete and decodes it through its JSON form.
func parseCUE(data []byte, filename string, f *File) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return fmt.Errorf("failed to parse CUE: %s", cueerrors.Details(err, nil))
	}

	unified := schema.LookupPath(cue.ParsePath("#File")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid transaction file: %s", cueerrors.Details(err, nil))
	}

	encoded, err := unified.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding CUE value: %w", err)
	}
	return parseJSON(encoded, f)
}

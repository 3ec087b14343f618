package doc

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/cruxtx/internal/ir"
)

// IDType identifies which kind of key an ID holds.
type IDType uint8

// ID types, in their total-order rank.
const (
	idInvalid IDType = iota
	IDKeyword
	IDString
	IDUUID
	IDInt
)

var idTypeNames = map[IDType]string{
	IDKeyword: "keyword",
	IDString:  "string",
	IDUUID:    "uuid",
	IDInt:     "int",
}

// String returns the wire name of the ID type.
func (t IDType) String() string {
	if name, ok := idTypeNames[t]; ok {
		return name
	}
	return "invalid"
}

// ID is a document identity: stable across revisions of the document.
// IDs are comparable and may be used as map keys. The zero ID is invalid.
type ID struct {
	typ  IDType
	text string
	num  int64
}

// Keyword returns a keyword ID such as ":person/ivan". The leading colon is
// optional. An empty name yields the zero ID. The name is stored in NFC.
func Keyword(name string) ID {
	name = strings.TrimPrefix(name, ":")
	if name == "" {
		return ID{}
	}
	return ID{typ: IDKeyword, text: ir.NormalizeString(name)}
}

// String returns a plain string ID, stored in NFC.
func String(s string) ID {
	return ID{typ: IDString, text: ir.NormalizeString(s)}
}

// UUID returns a UUID ID.
func UUID(u uuid.UUID) ID {
	return ID{typ: IDUUID, text: u.String()}
}

// Int returns an integer ID.
func Int(n int64) ID {
	return ID{typ: IDInt, num: n}
}

// NewID returns a fresh time-sortable UUIDv7 identity.
func NewID() ID {
	return UUID(uuid.Must(uuid.NewV7()))
}

// ParseID reads the textual form produced by ID.String:
//   - ":name" is a keyword
//   - a canonical UUID is a UUID
//   - a canonical decimal integer ("7", "-12") is an integer
//   - a double-quoted string is a string (quotes removed)
//   - anything else is a plain string
func ParseID(s string) (ID, error) {
	switch {
	case s == "" || s == ":":
		return ID{}, fmt.Errorf("empty identity")
	case strings.HasPrefix(s, ":"):
		return Keyword(s), nil
	case strings.HasPrefix(s, `"`):
		unq, err := strconv.Unquote(s)
		if err != nil {
			return ID{}, fmt.Errorf("invalid quoted identity %s: %w", s, err)
		}
		return String(unq), nil
	}
	if u, err := uuid.Parse(s); err == nil && len(s) == 36 {
		return UUID(u), nil
	}
	if n, ok := parseCanonicalInt(s); ok {
		return Int(n), nil
	}
	return String(s), nil
}

// parseCanonicalInt accepts exactly the text strconv.FormatInt produces, so
// "007" and "+7" stay strings.
func parseCanonicalInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != s {
		return 0, false
	}
	return n, true
}

// Type returns the ID's type.
func (id ID) Type() IDType {
	return id.typ
}

// IsZero reports whether id is the invalid zero ID.
func (id ID) IsZero() bool {
	return id.typ == idInvalid
}

// Compare imposes a total order: by type rank, then by value.
func (id ID) Compare(o ID) int {
	if c := cmp.Compare(id.typ, o.typ); c != 0 {
		return c
	}
	if id.typ == IDInt {
		return cmp.Compare(id.num, o.num)
	}
	return strings.Compare(id.text, o.text)
}

// String renders the ID so that ParseID reverses it.
func (id ID) String() string {
	switch id.typ {
	case IDKeyword:
		return ":" + id.text
	case IDUUID:
		return id.text
	case IDInt:
		return strconv.FormatInt(id.num, 10)
	case IDString:
		if needsQuoting(id.text) {
			return strconv.Quote(id.text)
		}
		return id.text
	default:
		return "<invalid>"
	}
}

// needsQuoting reports whether a string ID would parse back as another type.
func needsQuoting(s string) bool {
	if s == "" || strings.HasPrefix(s, ":") || strings.HasPrefix(s, `"`) {
		return true
	}
	if _, err := uuid.Parse(s); err == nil && len(s) == 36 {
		return true
	}
	_, isInt := parseCanonicalInt(s)
	return isInt
}

// IR returns the wire form {"type": ..., "value": ...}.
func (id ID) IR() ir.IRObject {
	var value ir.IRValue = ir.IRString(id.text)
	if id.typ == IDInt {
		value = ir.IRInt(id.num)
	}
	return ir.IRObject{
		"type":  ir.IRString(id.typ.String()),
		"value": value,
	}
}

// IDFromIR decodes the wire form produced by ID.IR.
func IDFromIR(v ir.IRValue) (ID, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return ID{}, fmt.Errorf("identity must be an object, got %T", v)
	}
	typ, ok := obj["type"].(ir.IRString)
	if !ok {
		return ID{}, fmt.Errorf("identity type missing")
	}
	switch string(typ) {
	case "int":
		n, ok := obj["value"].(ir.IRInt)
		if !ok {
			return ID{}, fmt.Errorf("int identity value must be an integer")
		}
		return Int(int64(n)), nil
	case "keyword", "string", "uuid":
		s, ok := obj["value"].(ir.IRString)
		if !ok {
			return ID{}, fmt.Errorf("%s identity value must be a string", typ)
		}
		switch typ {
		case "keyword":
			id := Keyword(string(s))
			if id.IsZero() {
				return ID{}, fmt.Errorf("empty keyword identity")
			}
			return id, nil
		case "uuid":
			u, err := uuid.Parse(string(s))
			if err != nil {
				return ID{}, fmt.Errorf("invalid uuid identity: %w", err)
			}
			return UUID(u), nil
		default:
			return String(string(s)), nil
		}
	default:
		return ID{}, fmt.Errorf("unknown identity type %q", typ)
	}
}

// IDFromGo converts a decoded file value into an ID. Strings go through
// ParseID; integers become Int IDs.
func IDFromGo(v any) (ID, error) {
	switch val := v.(type) {
	case string:
		return ParseID(val)
	case nil:
		return ID{}, fmt.Errorf("identity is required")
	}
	irv, err := ir.FromGo(v)
	if err != nil {
		return ID{}, fmt.Errorf("invalid identity: %w", err)
	}
	n, ok := irv.(ir.IRInt)
	if !ok {
		return ID{}, fmt.Errorf("identity must be a string or integer, got %T", v)
	}
	return Int(int64(n)), nil
}

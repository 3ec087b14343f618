package ir

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// NormalizeString returns s in Unicode NFC.
func NormalizeString(s string) string {
	return norm.NFC.String(s)
}

// Normalize returns a copy of v with every string and object key in NFC.
// Two keys of one object that normalize to the same text are an error:
// the object would otherwise lose a field.
func Normalize(v IRValue) (IRValue, error) {
	switch val := v.(type) {
	case IRString:
		return IRString(NormalizeString(string(val))), nil
	case IRArray:
		out := make(IRArray, len(val))
		for i, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case IRObject:
		return NormalizeObject(val)
	default:
		return val, nil
	}
}

// NormalizeObject is Normalize for objects.
func NormalizeObject(obj IRObject) (IRObject, error) {
	out := make(IRObject, len(obj))
	for _, k := range obj.SortedKeys() {
		nk := NormalizeString(k)
		if _, dup := out[nk]; dup {
			return nil, fmt.Errorf("keys %q collide after NFC normalization", nk)
		}
		n, err := Normalize(obj[k])
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", k, err)
		}
		out[nk] = n
	}
	return out, nil
}

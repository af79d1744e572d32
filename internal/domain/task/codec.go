package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lattixlab/calcdock/internal/domain"
)

// Canonical encoding: self-describing JSON with explicit handlers for
// value types plain JSON cannot carry. Tagged values look like
// {"@type": "datetime", "@value": "..."} and round-trip losslessly.
const (
	typeKey  = "@type"
	valueKey = "@value"

	typeDateTime = "datetime"
	typeComplex  = "complex"
)

// Marshal encodes a document to canonical JSON. The document is not
// mutated; tagged replacements are built on a copy of each container.
func Marshal(d Document) ([]byte, error) {
	encoded, err := encodeValue(map[string]any(d))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerializationFailed, err)
	}
	return data, nil
}

// MarshalValue encodes an arbitrary document sub-field to canonical JSON.
func MarshalValue(v any) ([]byte, error) {
	encoded, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerializationFailed, err)
	}
	return data, nil
}

// Unmarshal decodes canonical JSON back into a document, restoring
// tagged values to their native types.
func Unmarshal(data []byte) (Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerializationFailed, err)
	}
	decoded, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document root is not a mapping", domain.ErrSerializationFailed)
	}
	return Document(m), nil
}

// UnmarshalArray decodes a canonical JSON array whose single element is a
// document, the shape JSON.GET returns for a $ path.
func UnmarshalArray(data []byte) (Document, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerializationFailed, err)
	}
	if len(raw) != 1 {
		return nil, fmt.Errorf("%w: expected a single-document array, got %d elements",
			domain.ErrSerializationFailed, len(raw))
	}
	decoded, err := decodeValue(raw[0])
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: array element is not a mapping", domain.ErrSerializationFailed)
	}
	return Document(m), nil
}

func encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case time.Time:
		return map[string]any{
			typeKey:  typeDateTime,
			valueKey: val.UTC().Format(time.RFC3339Nano),
		}, nil

	case complex128:
		return map[string]any{
			typeKey:  typeComplex,
			valueKey: []any{real(val), imag(val)},
		}, nil

	case complex64:
		return encodeValue(complex128(val))

	case Document:
		return encodeValue(map[string]any(val))

	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			enc, err := encodeValue(elem)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil

	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			enc, err := encodeValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil

	default:
		return val, nil
	}
}

func decodeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if tag, ok := val[typeKey].(string); ok {
			return decodeTagged(tag, val[valueKey])
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			dec, err := decodeValue(elem)
			if err != nil {
				return nil, err
			}
			out[k] = dec
		}
		return out, nil

	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			dec, err := decodeValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil

	default:
		return val, nil
	}
}

func decodeTagged(tag string, raw any) (any, error) {
	switch tag {
	case typeDateTime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: datetime value is not a string", domain.ErrSerializationFailed)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSerializationFailed, err)
		}
		return t.UTC(), nil

	case typeComplex:
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: complex value is not a [re, im] pair", domain.ErrSerializationFailed)
		}
		re, okRe := pair[0].(float64)
		im, okIm := pair[1].(float64)
		if !okRe || !okIm {
			return nil, fmt.Errorf("%w: complex components are not numbers", domain.ErrSerializationFailed)
		}
		return complex(re, im), nil

	default:
		return nil, fmt.Errorf("%w: unknown type tag %q", domain.ErrSerializationFailed, tag)
	}
}

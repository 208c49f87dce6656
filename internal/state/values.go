package state

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Kind is the value type a key is declared with.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStrings
	KindExamples
	KindCriteria
	KindMappings
	KindRecords
	KindBoolMap
	KindStringMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStrings:
		return "string list"
	case KindExamples:
		return "example list"
	case KindCriteria:
		return "criterion list"
	case KindMappings:
		return "mapping list"
	case KindRecords:
		return "record list"
	case KindBoolMap:
		return "bool map"
	case KindStringMap:
		return "string map"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Example is one few-shot input/output pair. Its position in the list is its identity.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Criterion is a weighted evaluation criterion. Weight is 1..5.
type Criterion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Weight      int    `json:"weight"`
}

// Mapping binds a source field path to a {{placeholder}} token.
type Mapping struct {
	Field       string `json:"field"`
	Placeholder string `json:"placeholder"`
}

// Record is a loosely structured list entry (knowledge sources, routes, workers).
type Record map[string]any

// normalize converts v into the Go type declared by k. Values already of the
// right type pass through; JSON-decoded shapes are converted.
func normalize(k Kind, v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil for %s", ErrTypeMismatch, k)
	}
	var (
		out any
		err error
	)
	switch k {
	case KindString:
		out, err = decodeAs[string](v)
	case KindBool:
		out, err = decodeAs[bool](v)
	case KindInt:
		out, err = decodeAs[int](v)
	case KindFloat:
		out, err = decodeAs[float64](v)
	case KindStrings:
		out, err = decodeAs[[]string](v)
	case KindExamples:
		out, err = decodeAs[[]Example](v)
	case KindCriteria:
		out, err = decodeAs[[]Criterion](v)
	case KindMappings:
		out, err = decodeAs[[]Mapping](v)
	case KindRecords:
		out, err = decodeAs[[]Record](v)
	case KindBoolMap:
		out, err = decodeAs[map[string]bool](v)
	case KindStringMap:
		out, err = decodeAs[map[string]string](v)
	default:
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %T is not a %s", ErrTypeMismatch, v, k)
	}
	return cloneValue(out), nil
}

func decodeAs[T any](v any) (any, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	switch n := v.(type) {
	case int:
		if f, ok := any(float64(n)).(T); ok {
			return f, nil
		}
	case float64:
		if i, ok := any(int(n)).(T); ok && float64(int(n)) == n {
			return i, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// cloneValue copies slices and maps so callers never alias stored state.
func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []Example:
		return slices.Clone(t)
	case []Criterion:
		return slices.Clone(t)
	case []Mapping:
		return slices.Clone(t)
	case []Record:
		out := make([]Record, len(t))
		for i, r := range t {
			out[i] = maps.Clone(r)
		}
		return out
	case map[string]bool:
		return maps.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	case map[string]any:
		return maps.Clone(t)
	case []any:
		return slices.Clone(t)
	}
	return v
}

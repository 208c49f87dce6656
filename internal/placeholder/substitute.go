// Package placeholder replaces {{token}} markers in assembled prompts with
// values taken from imported data.
package placeholder

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kayz/promptsmith/internal/state"
)

// Source resolves a mapping's field to a value.
type Source interface {
	Lookup(field string) (any, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(field string) (any, bool)

func (f SourceFunc) Lookup(field string) (any, bool) { return f(field) }

// Data is a decoded JSON-like document resolved by dot path.
type Data map[string]any

func (d Data) Lookup(field string) (any, bool) {
	if d == nil {
		return nil, false
	}
	return Resolve(map[string]any(d), field)
}

// Binding pairs a mapping list with the source its fields come from.
type Binding struct {
	Mappings []state.Mapping
	Source   Source
}

// Token returns the literal marker for a placeholder name.
func Token(name string) string {
	return "{{" + name + "}}"
}

// Substitute replaces every {{placeholder}} that a binding resolves. Bindings
// are processed in order and mappings in list order; when several mappings
// target the same placeholder the last resolved value wins. Tokens that do
// not resolve are left as they are.
func Substitute(text string, bindings ...Binding) string {
	values := make(map[string]string)
	var order []string
	for _, b := range bindings {
		if b.Source == nil {
			continue
		}
		for _, m := range b.Mappings {
			if m.Placeholder == "" {
				continue
			}
			v, ok := b.Source.Lookup(m.Field)
			if !ok || v == nil {
				continue
			}
			if _, seen := values[m.Placeholder]; !seen {
				order = append(order, m.Placeholder)
			}
			values[m.Placeholder] = Stringify(v)
		}
	}
	if len(order) == 0 {
		return text
	}

	pairs := make([]string, 0, 2*len(order))
	for _, name := range order {
		pairs = append(pairs, Token(name), values[name])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

var tokenPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Tokens lists the distinct placeholder names in text, in order of appearance.
func Tokens(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Resolve walks a dot-separated path. A list met on the way is entered
// through its first element.
func Resolve(data any, path string) (any, bool) {
	cur := data
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		if list, ok := cur.([]any); ok {
			if len(list) == 0 {
				return nil, false
			}
			cur = list[0]
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Stringify renders a value the way it appears in a prompt.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v)
}

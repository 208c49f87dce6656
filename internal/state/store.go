package state

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrTypeMismatch     = errors.New("value type mismatch")
	ErrProtectedEntry   = errors.New("entry cannot be removed")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrDuplicateMapping = errors.New("mapping already exists")
	ErrEmptyMapping     = errors.New("mapping field and placeholder are required")
	ErrUnknownToggle    = errors.New("unknown workflow or agent")
	ErrUnknownList      = errors.New("unknown list")
)

// Store is the configuration store of one interactive session. Reads of a
// declared key that has never been written resolve to its default, which is
// then kept. Store is not safe for concurrent use.
type Store struct {
	values   map[string]any
	defaults map[string]Default
}

// New returns an empty store backed by the canonical defaults table.
func New() *Store {
	return &Store{
		values:   make(map[string]any),
		defaults: canonicalDefaults(),
	}
}

// Init writes the default of every declared key that is not set yet.
// Calling it again never overwrites a current value.
func (s *Store) Init() {
	for key, d := range s.defaults {
		if _, ok := s.values[key]; !ok {
			s.values[key] = d.New()
		}
	}
}

// Declared reports whether key has an entry in the defaults table.
func (s *Store) Declared(key string) bool {
	_, ok := s.defaults[key]
	return ok
}

// KindOf returns the declared kind of key.
func (s *Store) KindOf(key string) (Kind, bool) {
	d, ok := s.defaults[key]
	return d.Kind, ok
}

// Has reports whether key currently holds a value.
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get returns the value of key. An unset declared key is resolved to its
// default and persisted. The returned value is a copy.
func (s *Store) Get(key string) (any, bool) {
	if v, ok := s.values[key]; ok {
		return cloneValue(v), true
	}
	d, ok := s.defaults[key]
	if !ok {
		return nil, false
	}
	v := d.New()
	s.values[key] = v
	return cloneValue(v), true
}

// Set replaces the value of key. Values of declared keys must match the
// declared kind, after JSON-shape conversion, and satisfy the list rules of
// checkList; otherwise the store is unchanged.
func (s *Store) Set(key string, v any) error {
	if d, ok := s.defaults[key]; ok {
		nv, err := normalize(d.Kind, v)
		if err == nil {
			nv, err = checkList(d.Kind, nv)
		}
		if err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		s.values[key] = nv
		return nil
	}
	s.values[key] = cloneValue(v)
	return nil
}

// Delete removes key. A declared key reverts to its default on next read.
func (s *Store) Delete(key string) {
	delete(s.values, key)
}

// Keys returns the keys currently holding values, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Snapshot returns a copy of every stored value.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge overwrites the keys present in values and leaves every other key
// untouched. Values that do not fit their declared kind are skipped and
// reported in the returned error.
func (s *Store) Merge(values map[string]any) error {
	var errs []error
	for k, v := range values {
		if err := s.Set(k, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) String(key string) string {
	v, _ := s.Get(key)
	out, _ := v.(string)
	return out
}

func (s *Store) Bool(key string) bool {
	v, _ := s.Get(key)
	out, _ := v.(bool)
	return out
}

func (s *Store) Int(key string) int {
	v, _ := s.Get(key)
	out, _ := v.(int)
	return out
}

func (s *Store) Float(key string) float64 {
	v, _ := s.Get(key)
	out, _ := v.(float64)
	return out
}

func (s *Store) Strings(key string) []string {
	v, _ := s.Get(key)
	out, _ := v.([]string)
	return out
}

func (s *Store) Examples() []Example {
	v, _ := s.Get(KeyExamples)
	out, _ := v.([]Example)
	return out
}

func (s *Store) Criteria(key string) []Criterion {
	v, _ := s.Get(key)
	out, _ := v.([]Criterion)
	return out
}

func (s *Store) Mappings(key string) []Mapping {
	v, _ := s.Get(key)
	out, _ := v.([]Mapping)
	return out
}

func (s *Store) Records(key string) []Record {
	v, _ := s.Get(key)
	out, _ := v.([]Record)
	return out
}

func (s *Store) BoolMap(key string) map[string]bool {
	v, _ := s.Get(key)
	out, _ := v.(map[string]bool)
	if out == nil {
		out = map[string]bool{}
	}
	return out
}

func (s *Store) StringMap(key string) map[string]string {
	v, _ := s.Get(key)
	out, _ := v.(map[string]string)
	if out == nil {
		out = map[string]string{}
	}
	return out
}

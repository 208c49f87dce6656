package state

import "fmt"

// AddExample appends a few-shot example.
func (s *Store) AddExample(ex Example) {
	_ = s.Set(KeyExamples, append(s.Examples(), ex))
}

// UpdateExample replaces the example at index i.
func (s *Store) UpdateExample(i int, ex Example) error {
	list := s.Examples()
	if i < 0 || i >= len(list) {
		return fmt.Errorf("example %d: %w", i, ErrIndexOutOfRange)
	}
	list[i] = ex
	return s.Set(KeyExamples, list)
}

// RemoveExample deletes the example at index i.
func (s *Store) RemoveExample(i int) error {
	list := s.Examples()
	if i < 0 || i >= len(list) {
		return fmt.Errorf("example %d: %w", i, ErrIndexOutOfRange)
	}
	return s.Set(KeyExamples, append(list[:i], list[i+1:]...))
}

// RemoveLastExample drops the tail example and reports whether one existed.
func (s *Store) RemoveLastExample() bool {
	list := s.Examples()
	if len(list) == 0 {
		return false
	}
	_ = s.Set(KeyExamples, list[:len(list)-1])
	return true
}

// AddCriterion appends to a criteria list, clamping the weight to 1..5.
func (s *Store) AddCriterion(key string, c Criterion) error {
	c.Weight = clampWeight(c.Weight)
	return s.Set(key, append(s.Criteria(key), c))
}

// RemoveCriterion deletes the criterion at index i. The first entry is
// protected so the list never becomes empty.
func (s *Store) RemoveCriterion(key string, i int) error {
	list := s.Criteria(key)
	if i < 0 || i >= len(list) {
		return fmt.Errorf("criterion %d: %w", i, ErrIndexOutOfRange)
	}
	if i == 0 {
		return fmt.Errorf("criterion %q: %w", list[0].Name, ErrProtectedEntry)
	}
	return s.Set(key, append(list[:i], list[i+1:]...))
}

func clampWeight(w int) int {
	return min(max(w, 1), 5)
}

// CriteriaKey maps a list name (critic, evaluator) to its store key.
func CriteriaKey(list string) (string, error) {
	switch list {
	case "critic":
		return KeyCriticCriteria, nil
	case "evaluator":
		return KeyEvaluatorCriteria, nil
	}
	return "", fmt.Errorf("criteria %q (want critic or evaluator): %w", list, ErrUnknownList)
}

// MappingKey maps a data source (file, graphql) to its mapping list key.
func MappingKey(source string) (string, error) {
	switch source {
	case "file":
		return KeyFileMappings, nil
	case "graphql":
		return KeyGraphQLMappings, nil
	}
	return "", fmt.Errorf("mapping source %q (want file or graphql): %w", source, ErrUnknownList)
}

// AddMapping appends m to a mapping list unless the same pair is present.
func (s *Store) AddMapping(key string, m Mapping) error {
	if m.Field == "" || m.Placeholder == "" {
		return ErrEmptyMapping
	}
	list := s.Mappings(key)
	for _, existing := range list {
		if existing == m {
			return fmt.Errorf("%s -> {{%s}}: %w", m.Field, m.Placeholder, ErrDuplicateMapping)
		}
	}
	return s.Set(key, append(list, m))
}

// RemoveMapping deletes the mapping at index i.
func (s *Store) RemoveMapping(key string, i int) error {
	list := s.Mappings(key)
	if i < 0 || i >= len(list) {
		return fmt.Errorf("mapping %d: %w", i, ErrIndexOutOfRange)
	}
	return s.Set(key, append(list[:i], list[i+1:]...))
}

// checkList enforces the list invariants on whole-value writes: a criteria
// list keeps at least one entry and weights stay in 1..5, mappings are
// complete and unique.
func checkList(k Kind, v any) (any, error) {
	switch k {
	case KindCriteria:
		list := v.([]Criterion)
		if len(list) == 0 {
			return nil, fmt.Errorf("criteria list is empty: %w", ErrProtectedEntry)
		}
		for i := range list {
			list[i].Weight = clampWeight(list[i].Weight)
		}
		return list, nil
	case KindMappings:
		list := v.([]Mapping)
		seen := make(map[Mapping]bool, len(list))
		for _, m := range list {
			if m.Field == "" || m.Placeholder == "" {
				return nil, ErrEmptyMapping
			}
			if seen[m] {
				return nil, fmt.Errorf("%s -> {{%s}}: %w", m.Field, m.Placeholder, ErrDuplicateMapping)
			}
			seen[m] = true
		}
		return list, nil
	}
	return v, nil
}

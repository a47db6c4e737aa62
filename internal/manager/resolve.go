package manager

import (
	"sort"
	"strings"
)

// resolveLocked finds the single entry matching pattern. The rule is
// deterministic: an exact id match wins outright and never falls
// through to name matching; otherwise exact name matches are tried,
// then case-insensitive substring matches on name. Zero matches is
// NotFound; more than one is AmbiguousMatch.
func (m *Manager) resolveLocked(pattern string) (*entry, error) {
	if pattern == "" {
		return nil, &NotFoundError{Pattern: pattern}
	}
	if e, ok := m.entries[pattern]; ok {
		return e, nil
	}

	exact := make([]*entry, 0, 1)
	for _, e := range m.entries {
		if e.rec.Name == pattern {
			exact = append(exact, e)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	if len(exact) > 1 {
		return nil, &AmbiguousMatchError{Pattern: pattern, IDs: ids(exact)}
	}

	lower := strings.ToLower(pattern)
	subs := make([]*entry, 0, 1)
	for _, e := range m.entries {
		if strings.Contains(strings.ToLower(e.rec.Name), lower) {
			subs = append(subs, e)
		}
	}
	switch len(subs) {
	case 0:
		return nil, &NotFoundError{Pattern: pattern}
	case 1:
		return subs[0], nil
	default:
		return nil, &AmbiguousMatchError{Pattern: pattern, IDs: ids(subs)}
	}
}

func ids(es []*entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.rec.ID
	}
	sort.Strings(out)
	return out
}

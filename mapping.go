package opensched

import "fmt"

// MappingPolicy chooses which cores a task's threads occupy on the grid.
// availableMask[c] is true iff c is in the configured core mask AND
// currently free; activeMask[c] is true iff c is currently assigned to
// some task. Returning fewer than coreRequirement cores means "policy
// refused to map now"; admission treats that as a soft failure to retry
// later. On refusal the task table and core table are left unchanged,
// since MappingPolicy never mutates CoreTable itself.
type MappingPolicy interface {
	Map(taskName string, coreRequirement int, availableMask, activeMask []bool) []Tcore
}

// FirstUnused is the one bundled mapping policy. It walks
// preferredCoresOrder (an ordered list terminated by the first -1 it
// would otherwise be asked to use) picking available cores in that
// order first, then falls back to natural index order over whatever
// available cores remain.
type FirstUnused struct {
	Rows, Columns       int
	PreferredCoresOrder []Tcore
}

// NewFirstUnused reads preferred_core[c] from config up to the first -1
// sentinel, matching the source's initMappingPolicy loop.
func NewFirstUnused(rows, columns int, cfg Config) *FirstUnused {
	var preferred []Tcore
	for c := 0; ; c++ {
		p := cfg.GetIntArray("scheduler/open/preferred_core", c)
		if p == -1 {
			break
		}
		preferred = append(preferred, Tcore(p))
	}
	return &FirstUnused{Rows: rows, Columns: columns, PreferredCoresOrder: preferred}
}

func (fu *FirstUnused) Map(taskName string, coreRequirement int, availableMask, activeMask []bool) []Tcore {
	chosen := make([]Tcore, 0, coreRequirement)
	used := make(map[Tcore]bool, coreRequirement)

	for _, c := range fu.PreferredCoresOrder {
		if len(chosen) >= coreRequirement {
			break
		}
		if int(c) < 0 || int(c) >= len(availableMask) {
			continue
		}
		if availableMask[c] && !used[c] {
			chosen = append(chosen, c)
			used[c] = true
		}
	}

	if len(chosen) < coreRequirement {
		for c := 0; c < len(availableMask); c++ {
			if len(chosen) >= coreRequirement {
				break
			}
			tc := Tcore(c)
			if availableMask[c] && !used[tc] {
				chosen = append(chosen, tc)
				used[tc] = true
			}
		}
	}

	return chosen
}

// ParseMappingPolicy validates a configured mapping-policy name into a
// MappingPolicy, failing fatally on anything unrecognized.
func ParseMappingPolicy(name string, rows, columns int, cfg Config) (MappingPolicy, error) {
	switch name {
	case "first_unused":
		return NewFirstUnused(rows, columns, cfg), nil
	default:
		return nil, &ConfigurationError{Msg: fmt.Sprintf("unknown mapping algorithm: %q", name)}
	}
}

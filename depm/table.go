package depm

import "sync"

// UnitTable is the shared table of resolved units, keyed by unit name.  Unit
// names are globally unique: the first entry for a name wins, so each unit is
// loaded and compiled at most once.  The table is safe for concurrent readers
// during code generation.
type UnitTable struct {
	mu    sync.RWMutex
	units map[string]*Unit
}

// NewUnitTable creates a new, empty unit table.
func NewUnitTable() *UnitTable {
	return &UnitTable{units: make(map[string]*Unit)}
}

// Add inserts a unit into the table.  It returns false if a unit with the
// same name is already present, in which case the table is unchanged.
func (t *UnitTable) Add(u *Unit) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.units[u.Name]; ok {
		return false
	}

	t.units[u.Name] = u
	return true
}

// Lookup returns the unit with the given name.
func (t *UnitTable) Lookup(name string) (*Unit, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	u, ok := t.units[name]
	return u, ok
}

// Units returns a snapshot of all units in the table, in no particular order.
func (t *UnitTable) Units() []*Unit {
	t.mu.RLock()
	defer t.mu.RUnlock()

	units := make([]*Unit, 0, len(t.units))
	for _, u := range t.units {
		units = append(units, u)
	}

	return units
}

// Len returns the number of units in the table.
func (t *UnitTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.units)
}

// MCL - Mission Clone
// Copyright (C) 2025 blubskye
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Source code: https://github.com/blubskye/mission_clone

package clone

import (
	"fmt"
	"strconv"
)

// idKey turns a driver value into a comparable map key. MariaDB returns
// char ids as []byte while SQLite returns string, so both collapse to the
// same key. nil and empty values are not identifiers.
func idKey(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		return id, id != ""
	case []byte:
		return string(id), len(id) > 0
	case int64:
		return strconv.FormatInt(id, 10), true
	case int:
		return strconv.Itoa(id), true
	default:
		s := fmt.Sprint(id)
		return s, s != ""
	}
}

// Mapping is one old -> new identifier pair
type Mapping struct {
	Old string `yaml:"old"`
	New string `yaml:"new"`
}

// IDMap holds, per table, the identifiers generated for cloned rows keyed by
// the source identifiers. It only grows during a run.
type IDMap struct {
	tables map[string]map[string]string
	order  map[string][]string
}

// NewIDMap creates an empty map
func NewIDMap() *IDMap {
	return &IDMap{
		tables: make(map[string]map[string]string),
		order:  make(map[string][]string),
	}
}

// Put records old -> new for table. Mapping the same old id twice is an
// invariant violation.
func (m *IDMap) Put(table, oldID, newID string) error {
	t, ok := m.tables[table]
	if !ok {
		t = make(map[string]string)
		m.tables[table] = t
	}
	if prev, exists := t[oldID]; exists {
		return fmt.Errorf("%w: %s %s -> %s (already %s)", ErrDuplicateMapping, table, oldID, newID, prev)
	}
	t[oldID] = newID
	m.order[table] = append(m.order[table], oldID)
	return nil
}

// Get returns the new identifier for an old one
func (m *IDMap) Get(table, oldID string) (string, bool) {
	newID, ok := m.tables[table][oldID]
	return newID, ok
}

// Lookup is Get for a raw driver value
func (m *IDMap) Lookup(table string, old any) (string, bool) {
	key, ok := idKey(old)
	if !ok {
		return "", false
	}
	return m.Get(table, key)
}

// Len returns how many identifiers of table are mapped
func (m *IDMap) Len(table string) int {
	return len(m.tables[table])
}

// Mappings returns the pairs of table in insertion order
func (m *IDMap) Mappings(table string) []Mapping {
	olds := m.order[table]
	out := make([]Mapping, len(olds))
	for i, old := range olds {
		out[i] = Mapping{Old: old, New: m.tables[table][old]}
	}
	return out
}

// Seen is the per-table set of source identifiers known to belong to the
// subtree being cloned. It drives child discovery only.
type Seen struct {
	keys map[string]map[string]struct{}
	ids  map[string][]any
}

// NewSeen creates an empty set
func NewSeen() *Seen {
	return &Seen{
		keys: make(map[string]map[string]struct{}),
		ids:  make(map[string][]any),
	}
}

// Add records id for table and reports whether it was new
func (s *Seen) Add(table string, id any) bool {
	key, ok := idKey(id)
	if !ok {
		return false
	}
	set, ok := s.keys[table]
	if !ok {
		set = make(map[string]struct{})
		s.keys[table] = set
	}
	if _, dup := set[key]; dup {
		return false
	}
	set[key] = struct{}{}
	s.ids[table] = append(s.ids[table], id)
	return true
}

// IDs returns the identifiers of table in discovery order
func (s *Seen) IDs(table string) []any {
	return s.ids[table]
}

// Len returns the number of identifiers seen for table
func (s *Seen) Len(table string) int {
	return len(s.ids[table])
}

// Run is the state of one clone run, handed to each stage
type Run struct {
	IDs  *IDMap
	Seen *Seen
}

// NewRun creates the per-run context
func NewRun() *Run {
	return &Run{
		IDs:  NewIDMap(),
		Seen: NewSeen(),
	}
}

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
	"context"
	"errors"
	"fmt"

	"github.com/blubskye/mission_clone/internal/db"
)

type selectCall struct {
	Table  string
	Column string
	Values int
}

// memStore is an in-memory Source and Target. Inserted rows become visible
// to Exists only (pending or committed), mirroring a separate target schema.
type memStore struct {
	rows    map[string][]*db.Row
	columns map[string][]string

	pending   []inserted
	committed []inserted

	selects     []selectCall
	inserts     int
	checkpoints int
	commits     int
	rollbacks   int
	existsCalls int

	taken      map[string]bool
	failInsert string
	failSelect string
}

type inserted struct {
	Table string
	Row   *db.Row
}

func newMemStore() *memStore {
	return &memStore{
		rows:    make(map[string][]*db.Row),
		columns: make(map[string][]string),
		taken:   make(map[string]bool),
	}
}

func (m *memStore) add(table string, pairs ...any) {
	row := db.RowOf(pairs...)
	m.rows[table] = append(m.rows[table], row)
	if _, ok := m.columns[table]; !ok {
		m.columns[table] = row.Columns()
	}
}

func (m *memStore) SelectRows(_ context.Context, table, column string, values []any) ([]*db.Row, error) {
	if len(values) == 0 {
		return nil, nil
	}
	m.selects = append(m.selects, selectCall{Table: table, Column: column, Values: len(values)})
	if table == m.failSelect {
		return nil, errors.New("select failed")
	}

	want := make(map[string]bool, len(values))
	for _, v := range values {
		if k, ok := idKey(v); ok {
			want[k] = true
		}
	}
	var out []*db.Row
	for _, row := range m.rows[table] {
		v, ok := row.Get(column)
		if !ok {
			continue
		}
		if k, ok := idKey(v); ok && want[k] {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *memStore) Columns(_ context.Context, table string) ([]string, error) {
	return m.columns[table], nil
}

func (m *memStore) Insert(_ context.Context, table string, row *db.Row) error {
	if table == m.failInsert {
		return fmt.Errorf("insert into %s: constraint violation", table)
	}
	m.inserts++
	m.pending = append(m.pending, inserted{Table: table, Row: row.Clone()})
	return nil
}

func (m *memStore) Exists(_ context.Context, table, column string, value any) (bool, error) {
	m.existsCalls++
	key, _ := idKey(value)
	if m.taken[key] {
		return true, nil
	}
	for _, set := range [][]inserted{m.committed, m.pending} {
		for _, ins := range set {
			if ins.Table != table {
				continue
			}
			if v, ok := ins.Row.Get(column); ok {
				if k, _ := idKey(v); k == key {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (m *memStore) Checkpoint(ctx context.Context) error {
	m.checkpoints++
	m.committed = append(m.committed, m.pending...)
	m.pending = nil
	return nil
}

func (m *memStore) Commit(ctx context.Context) error {
	m.commits++
	m.committed = append(m.committed, m.pending...)
	m.pending = nil
	return nil
}

func (m *memStore) Rollback(context.Context) error {
	m.rollbacks++
	m.pending = nil
	return nil
}

// written returns the committed rows of table
func (m *memStore) written(table string) []*db.Row {
	var out []*db.Row
	for _, ins := range m.committed {
		if ins.Table == table {
			out = append(out, ins.Row)
		}
	}
	return out
}

// seqGen hands out id1, id2, ...
type seqGen struct {
	prefix string
	n      int
}

func (g *seqGen) Next() string {
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}

// alphaStore is the two-area, one-track mission used across engine tests
func alphaStore() *memStore {
	m := newMemStore()
	m.add("missions", "id", "M1", "name", "Alpha", "created", "0000-00-00 00:00:00")
	m.add("missions", "id", "M2", "name", "Beta", "created", "2024-05-01 10:00:00")
	m.add("areas", "id", "a1", "missions_id", "M1", "label", "north")
	m.add("areas", "id", "a2", "missions_id", "M1", "label", "south")
	m.add("areas", "id", "b1", "missions_id", "M2", "label", "other")
	m.add("tracks", "id", "t1", "missions_id", "M1", "areas_id", "a1")
	m.add("trackpoints", "id", "p1", "tracks_id", "t1", "navigationmode_id", []byte("7"))
	m.add("trackpoints", "id", "p2", "tracks_id", "t1", "navigationmode_id", nil)
	return m
}

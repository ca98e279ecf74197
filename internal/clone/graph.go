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
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ForeignKey is a column of a table holding another row's identifier.
// An empty Parent marks a reference outside the cloned subtree (lookup
// tables); such columns are copied as they are.
type ForeignKey struct {
	Column string `yaml:"column"`
	Parent string `yaml:"parent,omitempty"`
}

// Participating reports whether the column is remapped during a clone
func (fk ForeignKey) Participating() bool {
	return fk.Parent != ""
}

// Table is one table of the graph with its foreign keys in declaration
// order. Precedence, when set, lists the participating foreign-key columns
// in the order the locator consults them when resolving rows through a
// parent; otherwise declaration order is used.
type Table struct {
	Name        string       `yaml:"name"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys,omitempty"`
	Precedence  []string     `yaml:"precedence,omitempty"`
}

// Graph is the static description of a clone subtree: the tables in
// parent-before-child order, starting with the root.
type Graph struct {
	Root       string  `yaml:"root"`
	IDColumn   string  `yaml:"id_column,omitempty"`
	NaturalKey string  `yaml:"natural_key,omitempty"`
	RootKey    string  `yaml:"root_key,omitempty"`
	Tables     []Table `yaml:"tables"`

	index map[string]int
}

// MissionGraph returns the mission schema graph
func MissionGraph() *Graph {
	g := &Graph{
		Root: "missions",
		Tables: []Table{
			{Name: "missions"},
			{Name: "areas", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
			}},
			{Name: "bottomidentification", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
				{Column: "bottomtype_id"},
				{Column: "bottomclutter_id"},
			}},
			{Name: "environmentaldata", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
			}},
			{Name: "navigationmark", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
				{Column: "marktype_id"},
			}},
			{Name: "operatornotes", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
			}},
			{Name: "specialpoint", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
			}},
			{Name: "tracks", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
				{Column: "areas_id", Parent: "areas"},
			}},
			{Name: "tasks", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
				{Column: "tracks_id", Parent: "tracks"},
				{Column: "specialpoint_id", Parent: "specialpoint"},
			}},
			{Name: "areacells", ForeignKeys: []ForeignKey{
				{Column: "areas_id", Parent: "areas"},
			}},
			{Name: "areapoints", ForeignKeys: []ForeignKey{
				{Column: "areas_id", Parent: "areas"},
			}},
			{Name: "paths", ForeignKeys: []ForeignKey{
				{Column: "tracks_id", Parent: "tracks"},
				{Column: "pathgenerator_id"},
				{Column: "colors_id"},
			}},
			{Name: "qroutes", ForeignKeys: []ForeignKey{
				{Column: "tracks_id", Parent: "tracks"},
				{Column: "qroutegenerator_id"},
			}},
			{Name: "trackpoints", ForeignKeys: []ForeignKey{
				{Column: "tracks_id", Parent: "tracks"},
				{Column: "navigationmode_id"},
			}},
			{Name: "taskexecutions", ForeignKeys: []ForeignKey{
				{Column: "tasks_id", Parent: "tasks"},
			}},
			{Name: "underwaterobject", ForeignKeys: []ForeignKey{
				{Column: "missions_id", Parent: "missions"},
				{Column: "taskexecutions_id", Parent: "taskexecutions"},
				{Column: "contacttype_id"},
				{Column: "minebodytype_id"},
				{Column: "minetype_id"},
				{Column: "nonmilectype_id"},
				{Column: "explosivetype_id"},
				{Column: "materialtype_id"},
				{Column: "objectshapes_id"},
				{Column: "techidenttype_id"},
				{Column: "buriedmethod_id"},
				{Column: "colors_id"},
			}},
		},
	}
	g.applyDefaults()
	return g
}

// ParseGraph decodes a YAML graph description and validates it
func ParseGraph(data []byte) (*Graph, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var g Graph
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to parse schema graph: %w", err)
	}
	g.applyDefaults()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadGraph reads and validates a YAML graph file
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema graph: %w", err)
	}
	return ParseGraph(data)
}

// Marshal renders the graph as YAML
func (g *Graph) Marshal() ([]byte, error) {
	return yaml.Marshal(g)
}

func (g *Graph) applyDefaults() {
	if g.Root == "" && len(g.Tables) > 0 {
		g.Root = g.Tables[0].Name
	}
	if g.IDColumn == "" {
		g.IDColumn = "id"
	}
	if g.NaturalKey == "" {
		g.NaturalKey = "name"
	}
	if g.RootKey == "" {
		g.RootKey = g.Root + "_id"
	}
	g.index = make(map[string]int, len(g.Tables))
	for i, t := range g.Tables {
		if _, dup := g.index[t.Name]; !dup {
			g.index[t.Name] = i
		}
	}
}

// Validate checks the graph is usable: the root comes first, names are
// unique and every participating parent is declared earlier than its child.
func (g *Graph) Validate() error {
	if g.index == nil {
		g.applyDefaults()
	}
	if len(g.Tables) == 0 {
		return &GraphError{Reason: "no tables"}
	}
	if g.Tables[0].Name != g.Root {
		return &GraphError{Table: g.Tables[0].Name, Reason: fmt.Sprintf("root %q must be the first table", g.Root)}
	}

	position := make(map[string]int, len(g.Tables))
	for i, t := range g.Tables {
		if t.Name == "" {
			return &GraphError{Reason: fmt.Sprintf("table #%d has no name", i+1)}
		}
		if _, dup := position[t.Name]; dup {
			return &GraphError{Table: t.Name, Reason: "declared twice"}
		}
		position[t.Name] = i

		columns := make(map[string]ForeignKey, len(t.ForeignKeys))
		for _, fk := range t.ForeignKeys {
			if fk.Column == "" {
				return &GraphError{Table: t.Name, Reason: "foreign key without column"}
			}
			if fk.Column == g.IDColumn {
				return &GraphError{Table: t.Name, Column: fk.Column, Reason: "identifier column cannot be a foreign key"}
			}
			if _, dup := columns[fk.Column]; dup {
				return &GraphError{Table: t.Name, Column: fk.Column, Reason: "declared twice"}
			}
			columns[fk.Column] = fk

			if !fk.Participating() {
				continue
			}
			p, ok := position[fk.Parent]
			switch {
			case fk.Parent == t.Name && t.Name == g.Root:
				// the root may reference itself
			case fk.Parent == t.Name:
				return &GraphError{Table: t.Name, Column: fk.Column, Reason: "only the root may reference itself"}
			case !ok && g.has(fk.Parent):
				return &GraphError{Table: t.Name, Column: fk.Column, Reason: fmt.Sprintf("parent %s is processed after this table", fk.Parent)}
			case !ok:
				return &GraphError{Table: t.Name, Column: fk.Column, Reason: fmt.Sprintf("unknown parent %s", fk.Parent)}
			case p >= i:
				return &GraphError{Table: t.Name, Column: fk.Column, Reason: fmt.Sprintf("parent %s is processed after this table", fk.Parent)}
			}
		}

		seen := make(map[string]bool, len(t.Precedence))
		for _, col := range t.Precedence {
			fk, ok := columns[col]
			if !ok || !fk.Participating() {
				return &GraphError{Table: t.Name, Column: col, Reason: "precedence names a column that is not a participating foreign key"}
			}
			if seen[col] {
				return &GraphError{Table: t.Name, Column: col, Reason: "listed twice in precedence"}
			}
			seen[col] = true
		}
	}
	return nil
}

func (g *Graph) has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Order returns the table names in processing order
func (g *Graph) Order() []string {
	names := make([]string, len(g.Tables))
	for i, t := range g.Tables {
		names[i] = t.Name
	}
	return names
}

// Table returns the named table
func (g *Graph) Table(name string) (Table, bool) {
	i, ok := g.index[name]
	if !ok {
		return Table{}, false
	}
	return g.Tables[i], true
}

// RootForeignKey returns the first column of table that references the root
func (g *Graph) RootForeignKey(table string) (ForeignKey, bool) {
	t, ok := g.Table(table)
	if !ok || table == g.Root {
		return ForeignKey{}, false
	}
	for _, fk := range t.ForeignKeys {
		if fk.Parent == g.Root {
			return fk, true
		}
	}
	return ForeignKey{}, false
}

// ParentCandidates returns the participating foreign keys of table in
// lookup order: Precedence first, then the remaining declarations. The
// foreign key to the root is a candidate like any other; self references
// are not.
func (g *Graph) ParentCandidates(table string) []ForeignKey {
	t, ok := g.Table(table)
	if !ok {
		return nil
	}

	byColumn := make(map[string]ForeignKey, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		byColumn[fk.Column] = fk
	}

	var out []ForeignKey
	used := make(map[string]bool)
	add := func(fk ForeignKey) {
		if used[fk.Column] || !fk.Participating() || fk.Parent == table {
			return
		}
		used[fk.Column] = true
		out = append(out, fk)
	}
	for _, col := range t.Precedence {
		add(byColumn[col])
	}
	for _, fk := range t.ForeignKeys {
		add(fk)
	}
	return out
}

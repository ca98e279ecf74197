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
	"slices"

	"github.com/blubskye/mission_clone/internal/db"
	"github.com/blubskye/mission_clone/internal/logging"
)

// Source is the read side of a clone
type Source interface {
	// SelectRows returns rows of table whose column is one of values
	SelectRows(ctx context.Context, table, column string, values []any) ([]*db.Row, error)
	// Columns lists the column names of table
	Columns(ctx context.Context, table string) ([]string, error)
}

// Strategy tells how the locator found a table's rows
type Strategy int

const (
	StrategyNone       Strategy = iota
	StrategyRoot                // the root row by identifier
	StrategyRootKey             // declared foreign key to the root
	StrategyParent              // foreign key into a parent's seen identifiers
	StrategyRootColumn          // undeclared root-key column found by introspection
)

func (s Strategy) String() string {
	switch s {
	case StrategyRoot:
		return "root"
	case StrategyRootKey:
		return "root-key"
	case StrategyParent:
		return "parent"
	case StrategyRootColumn:
		return "root-column"
	default:
		return "none"
	}
}

// Locator finds the rows of a table that belong to the subtree of one root
type Locator struct {
	graph  *Graph
	source Source
	log    *logging.Logger
}

// NewLocator creates a locator over source
func NewLocator(graph *Graph, source Source, log *logging.Logger) *Locator {
	if log == nil {
		log = logging.With("locate")
	}
	return &Locator{graph: graph, source: source, log: log}
}

// Locate returns the source rows of table belonging to the subtree rooted at
// rootID. The strategies are tried in order and the first one that returns
// rows wins:
//
//  1. table is the root: the row whose identifier is rootID
//  2. a declared foreign key to the root equals rootID
//  3. the first participating foreign key (Precedence, then declaration
//     order) whose parent has seen identifiers is in that set; the other
//     populated parents are ignored
//  4. the table has a column named after the root key: equals the first
//     seen root identifier
//
// No rows is not an error.
func (l *Locator) Locate(ctx context.Context, table string, rootID any, seen *Seen) ([]*db.Row, Strategy, error) {
	g := l.graph

	if table == g.Root {
		rows, err := l.source.SelectRows(ctx, table, g.IDColumn, []any{rootID})
		if err != nil {
			return nil, StrategyNone, err
		}
		return rows, strategyIf(rows, StrategyRoot), nil
	}

	rootFK, hasRootFK := g.RootForeignKey(table)
	if hasRootFK {
		rows, err := l.source.SelectRows(ctx, table, rootFK.Column, []any{rootID})
		if err != nil {
			return nil, StrategyNone, err
		}
		if len(rows) > 0 {
			return rows, StrategyRootKey, nil
		}
	}

	var populated []ForeignKey
	for _, fk := range g.ParentCandidates(table) {
		if seen.Len(fk.Parent) > 0 {
			populated = append(populated, fk)
		}
	}
	if len(populated) > 0 {
		fk := populated[0]
		if len(populated) > 1 {
			others := make([]string, 0, len(populated)-1)
			for _, o := range populated[1:] {
				others = append(others, o.Column)
			}
			if fk.Parent == g.Root {
				l.log.Debug("%s: using %s -> %s, ignoring %v", table, fk.Column, fk.Parent, others)
			} else {
				l.log.Warn("%s: several parents populated, using %s -> %s and ignoring %v",
					table, fk.Column, fk.Parent, others)
			}
		}
		// The root foreign key against the seen root ids is the query step 2
		// just ran; it stays the chosen parent but is not repeated.
		if !(hasRootFK && fk.Column == rootFK.Column) {
			rows, err := l.source.SelectRows(ctx, table, fk.Column, seen.IDs(fk.Parent))
			if err != nil {
				return nil, StrategyNone, err
			}
			if len(rows) > 0 {
				return rows, StrategyParent, nil
			}
		}
	}

	rootIDs := seen.IDs(g.Root)
	if len(rootIDs) == 0 {
		return nil, StrategyNone, nil
	}
	// Strategy 2 already ran this exact query.
	if hasRootFK && rootFK.Column == g.RootKey {
		return nil, StrategyNone, nil
	}

	columns, err := l.source.Columns(ctx, table)
	if err != nil {
		return nil, StrategyNone, err
	}
	if !slices.Contains(columns, g.RootKey) {
		return nil, StrategyNone, nil
	}

	l.log.Debug("%s: falling back to undeclared column %s", table, g.RootKey)
	rows, err := l.source.SelectRows(ctx, table, g.RootKey, []any{rootIDs[0]})
	if err != nil {
		return nil, StrategyNone, err
	}
	return rows, strategyIf(rows, StrategyRootColumn), nil
}

func strategyIf(rows []*db.Row, s Strategy) Strategy {
	if len(rows) == 0 {
		return StrategyNone
	}
	return s
}

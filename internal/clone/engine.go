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
	"fmt"

	"github.com/blubskye/mission_clone/internal/db"
	"github.com/blubskye/mission_clone/internal/logging"
)

// maxNameAttempts bounds the search for a free root name
const maxNameAttempts = 100

// dryRunPrefix marks identifiers that were never written
const dryRunPrefix = "dryrun_"

// Target is the write side of a clone
type Target interface {
	Insert(ctx context.Context, table string, row *db.Row) error
	Exists(ctx context.Context, table, column string, value any) (bool, error)
	// Checkpoint makes everything written so far durable
	Checkpoint(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// State is the position of a run in its per-table cycle
type State int

const (
	StatePending State = iota
	StateLocating
	StateRemapping
	StateWriting
	StateCommitted
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLocating:
		return "locating"
	case StateRemapping:
		return "remapping"
	case StateWriting:
		return "writing"
	case StateCommitted:
		return "committed"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures one clone run
type Options struct {
	// DryRun performs every step except the inserts. Placeholder
	// identifiers are still mapped so children remap consistently.
	DryRun bool
	// Commit checkpoints each table and commits at the end. When false the
	// whole run stays in one transaction that is rolled back at the end.
	Commit     bool
	OnProgress func(table string, tableNum, totalTables int)
}

// TableStats summarizes one table of a run
type TableStats struct {
	Table    string
	Strategy Strategy
	Found    int
	Written  int
	// Unresolved counts, per column, foreign keys set to NULL because the
	// parent identifier was not cloned in this run
	Unresolved map[string]int
}

// UnresolvedTotal sums the unresolved foreign keys of the table
func (s TableStats) UnresolvedTotal() int {
	n := 0
	for _, c := range s.Unresolved {
		n += c
	}
	return n
}

// Result describes a finished (or failed) run
type Result struct {
	Mission     string
	RootID      string
	NewRootID   string
	NewName     string
	DryRun      bool
	Committed   bool
	State       State
	FailedTable string
	Tables      []TableStats
	IDs         *IDMap
}

// UnresolvedTotal sums unresolved foreign keys over all tables
func (r *Result) UnresolvedTotal() int {
	n := 0
	for _, t := range r.Tables {
		n += t.UnresolvedTotal()
	}
	return n
}

// Engine walks the schema graph and copies one root's subtree from source
// to target, giving every row a fresh identifier.
type Engine struct {
	graph   *Graph
	source  Source
	target  Target
	gen     Generator
	locator *Locator
	log     *logging.Logger
}

// NewEngine creates an engine. The graph must already be valid.
func NewEngine(graph *Graph, source Source, target Target) *Engine {
	log := logging.With("clone")
	return &Engine{
		graph:   graph,
		source:  source,
		target:  target,
		gen:     UUIDGenerator{},
		locator: NewLocator(graph, source, log.With("locate")),
		log:     log,
	}
}

// SetGenerator replaces the identifier generator
func (e *Engine) SetGenerator(gen Generator) {
	e.gen = gen
}

// SetLogger replaces the logger
func (e *Engine) SetLogger(log *logging.Logger) {
	e.log = log
	e.locator.log = log.With("locate")
}

// FindMission returns the source root row with the given natural key
func (e *Engine) FindMission(ctx context.Context, name string) (*db.Row, error) {
	rows, err := e.source.SelectRows(ctx, e.graph.Root, e.graph.NaturalKey, []any{name})
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s %q: %w", e.graph.Root, name, err)
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Table: e.graph.Root, Name: name}
	}
	if len(rows) > 1 {
		e.log.Warn("%d rows in %s named %q, cloning the first", len(rows), e.graph.Root, name)
	}
	return rows[0], nil
}

// Clone looks the root up by natural key and clones its subtree. A missing
// root returns a NotFoundError before the target is touched.
func (e *Engine) Clone(ctx context.Context, name string, opts Options) (*Result, error) {
	root, err := e.FindMission(ctx, name)
	if err != nil {
		return nil, err
	}
	rootID, _ := root.Get(e.graph.IDColumn)
	if _, ok := idKey(rootID); !ok {
		return nil, fmt.Errorf("%s %q has no %s", e.graph.Root, name, e.graph.IDColumn)
	}

	e.log.Info("Mission found: %s (id=%s)", name, db.FormatValue(rootID))
	res, err := e.CloneRoot(ctx, rootID, opts)
	if res != nil {
		res.Mission = name
	}
	return res, err
}

// CloneRoot clones the subtree of the root row with identifier rootID.
// Tables are processed strictly in graph order so every parent is mapped
// before its children are remapped.
func (e *Engine) CloneRoot(ctx context.Context, rootID any, opts Options) (*Result, error) {
	run := NewRun()
	res := &Result{
		DryRun: opts.DryRun,
		State:  StatePending,
		IDs:    run.IDs,
	}
	res.RootID, _ = idKey(rootID)
	run.Seen.Add(e.graph.Root, rootID)

	total := len(e.graph.Tables)
	for i, table := range e.graph.Tables {
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, res, table.Name, StatePending, err, opts)
		}
		if opts.OnProgress != nil {
			opts.OnProgress(table.Name, i+1, total)
		}

		stats, state, err := e.cloneTable(ctx, run, res, table, rootID, opts)
		res.Tables = append(res.Tables, stats)
		if err != nil {
			return e.fail(ctx, res, table.Name, state, err, opts)
		}
	}

	switch {
	case opts.DryRun:
		e.log.Info("Dry run complete, nothing was written")
	case opts.Commit:
		if err := e.target.Commit(ctx); err != nil {
			return e.fail(ctx, res, "", StateCommitted, err, opts)
		}
		res.Committed = true
		e.log.Info("All changes committed to target")
	default:
		if err := e.target.Rollback(ctx); err != nil {
			return e.fail(ctx, res, "", StateCommitted, err, opts)
		}
		e.log.Info("No-commit mode: rolled back changes in target")
	}

	res.State = StateDone
	return res, nil
}

func (e *Engine) cloneTable(ctx context.Context, run *Run, res *Result, table Table, rootID any, opts Options) (TableStats, State, error) {
	log := e.log.With(table.Name)
	stats := TableStats{Table: table.Name, Unresolved: make(map[string]int)}

	res.State = StateLocating
	log.Trace("state %s", res.State)
	rows, strategy, err := e.locator.Locate(ctx, table.Name, rootID, run.Seen)
	if err != nil {
		return stats, StateLocating, err
	}
	stats.Strategy = strategy
	stats.Found = len(rows)
	log.Info("Found %d rows relevant to mission (%s)", len(rows), strategy)

	for _, row := range rows {
		if old, ok := row.Get(e.graph.IDColumn); ok {
			run.Seen.Add(table.Name, old)
		}
	}

	for _, row := range rows {
		res.State = StateRemapping
		out := e.remap(run, table, row, &stats, log)
		NormalizeRow(out)

		res.State = StateWriting
		if err := e.write(ctx, run, res, table.Name, row, out, opts, log); err != nil {
			return stats, StateWriting, err
		}
		stats.Written++
	}

	if !opts.DryRun && opts.Commit {
		if err := e.target.Checkpoint(ctx); err != nil {
			return stats, StateCommitted, err
		}
	}
	res.State = StateCommitted
	log.Trace("state %s", res.State)
	if opts.DryRun {
		log.Info("Simulated %d rows, %d ids mapped", stats.Written, run.IDs.Len(table.Name))
	} else {
		log.Info("Inserted %d rows, %d ids mapped", stats.Written, run.IDs.Len(table.Name))
	}

	return stats, StateCommitted, nil
}

// remap returns a copy of row whose participating foreign keys point at the
// identifiers generated in this run. A key whose parent was not cloned is
// set to NULL so the copy never references a row missing from the target.
func (e *Engine) remap(run *Run, table Table, row *db.Row, stats *TableStats, log *logging.Logger) *db.Row {
	out := row.Clone()
	for _, fk := range table.ForeignKeys {
		if !fk.Participating() {
			continue
		}
		old, ok := out.Get(fk.Column)
		if !ok || old == nil {
			continue
		}
		if mapped, ok := run.IDs.Lookup(fk.Parent, old); ok {
			out.Set(fk.Column, mapped)
			continue
		}
		if fk.Parent == table.Name && table.Name == e.graph.Root {
			continue
		}
		out.Set(fk.Column, nil)
		stats.Unresolved[fk.Column]++
		log.Warn("%s=%s has no cloned %s row, set to NULL", fk.Column, db.FormatValue(old), fk.Parent)
	}
	return out
}

func (e *Engine) write(ctx context.Context, run *Run, res *Result, table string, src, out *db.Row, opts Options, log *logging.Logger) error {
	oldID, _ := src.Get(e.graph.IDColumn)

	if table == e.graph.Root {
		if err := e.disambiguate(ctx, out); err != nil {
			return err
		}
	}

	newID := e.gen.Next()
	if opts.DryRun {
		newID = dryRunPrefix + newID
	}
	out.Set(e.graph.IDColumn, newID)

	if opts.DryRun {
		log.Debug("DRY RUN - would insert %s", out)
	} else if err := e.target.Insert(ctx, table, out); err != nil {
		return err
	}

	if table == e.graph.Root && res.NewRootID == "" {
		res.NewRootID = newID
		if name, ok := out.Get(e.graph.NaturalKey); ok {
			res.NewName = db.FormatValue(name)
		}
	}

	if key, ok := idKey(oldID); ok {
		if err := run.IDs.Put(table, key, newID); err != nil {
			return err
		}
	}
	return nil
}

// disambiguate renames the root when its natural key is already taken in
// the target: name_copy, then name_copy2, name_copy3 and so on.
func (e *Engine) disambiguate(ctx context.Context, row *db.Row) error {
	raw, ok := row.Get(e.graph.NaturalKey)
	if !ok || raw == nil {
		return nil
	}
	name := db.FormatValue(raw)

	candidate := name
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		switch attempt {
		case 0:
		case 1:
			candidate = name + "_copy"
		default:
			candidate = fmt.Sprintf("%s_copy%d", name, attempt)
		}

		taken, err := e.target.Exists(ctx, e.graph.Root, e.graph.NaturalKey, candidate)
		if err != nil {
			return err
		}
		if !taken {
			if candidate != name {
				e.log.Info("%s %q already exists in target, cloning as %q", e.graph.Root, name, candidate)
				row.Set(e.graph.NaturalKey, candidate)
			}
			return nil
		}
	}
	return fmt.Errorf("no free name for %s %q after %d attempts", e.graph.Root, name, maxNameAttempts)
}

func (e *Engine) fail(ctx context.Context, res *Result, table string, state State, cause error, opts Options) (*Result, error) {
	res.State = StateFailed
	res.FailedTable = table

	if !opts.DryRun {
		// Pending writes of the failed table (or, in no-commit mode, of the
		// whole run) are discarded; checkpointed tables stay.
		if err := e.target.Rollback(context.WithoutCancel(ctx)); err != nil {
			e.log.Error("rollback after failure: %v", err)
		}
	}

	if table == "" {
		e.log.Error("Clone failed while %s: %v", state, cause)
		return res, fmt.Errorf("clone failed while %s: %w", state, cause)
	}
	e.log.Error("Clone failed on table %s while %s: %v", table, state, cause)
	return res, &TableError{Table: table, State: state, Err: cause}
}

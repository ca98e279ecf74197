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
	"strings"
	"testing"

	"github.com/blubskye/mission_clone/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, source Source, target Target) *Engine {
	t.Helper()
	e := NewEngine(MissionGraph(), source, target)
	e.SetGenerator(&seqGen{prefix: "n"})
	log, _ := quietLogger()
	e.SetLogger(log)
	return e
}

func get(t *testing.T, row *db.Row, column string) any {
	t.Helper()
	v, ok := row.Get(column)
	require.True(t, ok, "row has no column %s", column)
	return v
}

func TestCloneAlpha(t *testing.T) {
	src := alphaStore()
	tgt := newMemStore()
	e := newTestEngine(t, src, tgt)

	res, err := e.Clone(context.Background(), "Alpha", Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.True(t, res.Committed)
	assert.Equal(t, "Alpha", res.Mission)
	assert.Equal(t, "M1", res.RootID)
	assert.Equal(t, "n1", res.NewRootID)
	assert.Equal(t, "Alpha", res.NewName)

	missions := tgt.written("missions")
	require.Len(t, missions, 1)
	assert.Equal(t, "n1", get(t, missions[0], "id"))
	assert.Equal(t, "Alpha", get(t, missions[0], "name"))
	assert.Nil(t, get(t, missions[0], "created"), "zero datetime becomes NULL")

	areas := tgt.written("areas")
	require.Len(t, areas, 2)
	newA1, ok := res.IDs.Get("areas", "a1")
	require.True(t, ok)
	newA2, ok := res.IDs.Get("areas", "a2")
	require.True(t, ok)
	assert.NotEqual(t, newA1, newA2)
	for _, a := range areas {
		assert.Equal(t, "n1", get(t, a, "missions_id"))
		assert.NotContains(t, []any{"a1", "a2"}, get(t, a, "id"))
	}

	tracks := tgt.written("tracks")
	require.Len(t, tracks, 1)
	assert.Equal(t, newA1, get(t, tracks[0], "areas_id"))
	assert.Equal(t, "n1", get(t, tracks[0], "missions_id"))

	newT1, _ := res.IDs.Get("tracks", "t1")
	points := tgt.written("trackpoints")
	require.Len(t, points, 2)
	for _, p := range points {
		assert.Equal(t, newT1, get(t, p, "tracks_id"))
	}
	assert.Equal(t, []byte("7"), get(t, points[0], "navigationmode_id"), "lookup keys are copied as is")

	assert.Empty(t, tgt.pending)
	assert.Equal(t, len(MissionGraph().Tables), tgt.checkpoints)
	assert.Equal(t, 1, tgt.commits)
	assert.Zero(t, tgt.rollbacks)
	assert.Zero(t, res.UnresolvedTotal())

	require.Len(t, res.Tables, len(MissionGraph().Tables))
	for _, ts := range res.Tables {
		switch ts.Table {
		case "missions":
			assert.Equal(t, StrategyRoot, ts.Strategy)
		case "areas", "tracks":
			assert.Equal(t, StrategyRootKey, ts.Strategy)
		case "trackpoints":
			assert.Equal(t, StrategyParent, ts.Strategy)
			assert.Equal(t, 2, ts.Written)
		case "bottomidentification":
			assert.Equal(t, StrategyNone, ts.Strategy)
			assert.Zero(t, ts.Found)
			assert.Zero(t, ts.Written)
		}
	}

	for _, rows := range tgt.committed {
		if rows.Table == "areas" {
			v := get(t, rows.Row, "missions_id")
			assert.NotEqual(t, "M2", v, "other missions are never cloned")
		}
	}
}

func TestCloneSkipsOtherMissionsRowsUnderOwnParent(t *testing.T) {
	src := newMemStore()
	src.add("missions", "id", "M1", "name", "Alpha")
	src.add("missions", "id", "M2", "name", "Beta")
	src.add("areas", "id", "a1", "missions_id", "M1")
	src.add("tracks", "id", "t9", "missions_id", "M2", "areas_id", "a1")
	src.add("trackpoints", "id", "p9", "tracks_id", "t9")
	tgt := newMemStore()

	res, err := newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{Commit: true})
	require.NoError(t, err)
	assert.Len(t, tgt.written("areas"), 1)
	assert.Empty(t, tgt.written("tracks"), "a track of another mission is not cloned through its area")
	assert.Empty(t, tgt.written("trackpoints"))
	_, ok := res.IDs.Get("tracks", "t9")
	assert.False(t, ok)

	// Alongside a track of its own, only that track is cloned.
	src.add("tracks", "id", "t1", "missions_id", "M1", "areas_id", "a1")
	tgt = newMemStore()
	res, err = newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{Commit: true})
	require.NoError(t, err)
	tracks := tgt.written("tracks")
	require.Len(t, tracks, 1)
	assert.Equal(t, res.NewRootID, get(t, tracks[0], "missions_id"))
	_, ok = res.IDs.Get("tracks", "t1")
	assert.True(t, ok)
	_, ok = res.IDs.Get("tracks", "t9")
	assert.False(t, ok)
	assert.Empty(t, tgt.written("trackpoints"))
}

func TestCloneUnresolvedForeignKey(t *testing.T) {
	src := alphaStore()
	src.add("tasks", "id", "k1", "missions_id", "M1", "tracks_id", "t1", "specialpoint_id", "s-other")
	tgt := newMemStore()

	res, err := newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{Commit: true})
	require.NoError(t, err)

	tasks := tgt.written("tasks")
	require.Len(t, tasks, 1)
	assert.Nil(t, get(t, tasks[0], "specialpoint_id"))
	newT1, _ := res.IDs.Get("tracks", "t1")
	assert.Equal(t, newT1, get(t, tasks[0], "tracks_id"))

	assert.Equal(t, 1, res.UnresolvedTotal())
	for _, ts := range res.Tables {
		if ts.Table == "tasks" {
			assert.Equal(t, map[string]int{"specialpoint_id": 1}, ts.Unresolved)
		}
	}
}

func TestCloneDryRun(t *testing.T) {
	src := alphaStore()
	tgt := newMemStore()

	res, err := newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{DryRun: true, Commit: true})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.False(t, res.Committed)
	assert.Equal(t, StateDone, res.State)
	assert.Zero(t, tgt.inserts)
	assert.Zero(t, tgt.checkpoints)
	assert.Zero(t, tgt.commits)
	assert.Zero(t, tgt.rollbacks)

	assert.Equal(t, 2, res.IDs.Len("areas"))
	assert.Equal(t, 1, res.IDs.Len("tracks"))
	assert.True(t, strings.HasPrefix(res.NewRootID, dryRunPrefix))
	for _, m := range res.IDs.Mappings("areas") {
		assert.True(t, strings.HasPrefix(m.New, dryRunPrefix), m.New)
	}
}

func TestCloneNoCommit(t *testing.T) {
	src := alphaStore()
	tgt := newMemStore()

	res, err := newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{Commit: false})
	require.NoError(t, err)

	assert.False(t, res.Committed)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 6, tgt.inserts)
	assert.Zero(t, tgt.checkpoints)
	assert.Zero(t, tgt.commits)
	assert.Equal(t, 1, tgt.rollbacks)
	assert.Empty(t, tgt.committed)
	assert.Empty(t, tgt.pending)
}

func TestCloneNameCollision(t *testing.T) {
	src := alphaStore()
	tgt := newMemStore()
	tgt.taken["Alpha"] = true

	res, err := newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, "Alpha_copy", res.NewName)
	assert.Equal(t, "Alpha_copy", get(t, tgt.written("missions")[0], "name"))

	tgt2 := newMemStore()
	tgt2.taken["Alpha"] = true
	tgt2.taken["Alpha_copy"] = true
	res, err = newTestEngine(t, src, tgt2).Clone(context.Background(), "Alpha", Options{Commit: true})
	require.NoError(t, err)
	assert.Equal(t, "Alpha_copy2", res.NewName)
}

func TestCloneTwiceDisjointIDs(t *testing.T) {
	src := alphaStore()
	tgt := newMemStore()
	log, _ := quietLogger()

	var runs []*Result
	for i := 0; i < 2; i++ {
		e := NewEngine(MissionGraph(), src, tgt)
		e.SetLogger(log)
		res, err := e.Clone(context.Background(), "Alpha", Options{Commit: true})
		require.NoError(t, err)
		runs = append(runs, res)
	}

	assert.Equal(t, "Alpha", runs[0].NewName)
	assert.Equal(t, "Alpha_copy", runs[1].NewName)

	first := make(map[string]bool)
	for _, table := range MissionGraph().Order() {
		for _, m := range runs[0].IDs.Mappings(table) {
			first[m.New] = true
		}
	}
	for _, table := range MissionGraph().Order() {
		for _, m := range runs[1].IDs.Mappings(table) {
			assert.False(t, first[m.New], "id %s reused across runs", m.New)
		}
	}
	assert.Len(t, tgt.written("areas"), 4)
}

func TestCloneFailureKeepsCheckpoints(t *testing.T) {
	src := alphaStore()
	tgt := newMemStore()
	tgt.failInsert = "tracks"

	res, err := newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{Commit: true})
	require.Error(t, err)

	var terr *TableError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "tracks", terr.Table)
	assert.Equal(t, StateWriting, terr.State)

	require.NotNil(t, res)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, "tracks", res.FailedTable)
	assert.False(t, res.Committed)

	assert.Len(t, tgt.written("missions"), 1)
	assert.Len(t, tgt.written("areas"), 2)
	assert.Empty(t, tgt.written("tracks"))
	assert.Equal(t, 1, tgt.rollbacks)
	assert.Zero(t, tgt.commits)
}

func TestCloneLocateFailure(t *testing.T) {
	src := alphaStore()
	src.failSelect = "areas"
	tgt := newMemStore()

	res, err := newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{Commit: true})
	var terr *TableError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StateLocating, terr.State)
	assert.Equal(t, "areas", res.FailedTable)
}

func TestCloneCancelled(t *testing.T) {
	src := alphaStore()
	tgt := newMemStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var progress []string
	opts := Options{Commit: true, OnProgress: func(table string, n, total int) {
		progress = append(progress, table)
		if table == "areas" {
			cancel()
		}
	}}

	res, err := newTestEngine(t, src, tgt).Clone(ctx, "Alpha", opts)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"missions", "areas"}, progress)
	assert.Equal(t, "bottomidentification", res.FailedTable)
	assert.Len(t, tgt.written("areas"), 2, "finished tables stay checkpointed")
}

func TestCloneProgressOrder(t *testing.T) {
	var got []string
	var totals []int
	opts := Options{Commit: true, OnProgress: func(table string, n, total int) {
		got = append(got, table)
		totals = append(totals, total)
		assert.Equal(t, len(got), n)
	}}

	_, err := newTestEngine(t, alphaStore(), newMemStore()).Clone(context.Background(), "Alpha", opts)
	require.NoError(t, err)
	assert.Equal(t, MissionGraph().Order(), got)
	assert.Equal(t, 16, totals[0])
}

func TestCloneMissionNotFound(t *testing.T) {
	tgt := newMemStore()

	res, err := newTestEngine(t, alphaStore(), tgt).Clone(context.Background(), "Gamma", Options{Commit: true})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrMissionNotFound))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Gamma", nf.Name)

	assert.Zero(t, tgt.inserts)
	assert.Zero(t, tgt.existsCalls)
	assert.Zero(t, tgt.rollbacks)
}

func TestCloneRowWithoutIdentifier(t *testing.T) {
	src := alphaStore()
	src.add("areas", "id", nil, "missions_id", "M1", "label", "orphan")
	tgt := newMemStore()

	res, err := newTestEngine(t, src, tgt).Clone(context.Background(), "Alpha", Options{Commit: true})
	require.NoError(t, err)
	assert.Len(t, tgt.written("areas"), 3)
	assert.Equal(t, 2, res.IDs.Len("areas"))
}

func TestRemapLeavesRootSelfReference(t *testing.T) {
	g := &Graph{Root: "projects", Tables: []Table{
		{Name: "projects", ForeignKeys: []ForeignKey{{Column: "template_id", Parent: "projects"}}},
	}}
	require.NoError(t, g.Validate())

	src := newMemStore()
	src.add("projects", "id", "P1", "name", "Proj", "template_id", "P0")
	tgt := newMemStore()

	e := NewEngine(g, src, tgt)
	e.SetGenerator(&seqGen{prefix: "n"})
	log, _ := quietLogger()
	e.SetLogger(log)

	res, err := e.Clone(context.Background(), "Proj", Options{Commit: true})
	require.NoError(t, err)
	assert.Zero(t, res.UnresolvedTotal())
	assert.Equal(t, "P0", get(t, tgt.written("projects")[0], "template_id"))
}

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
	"context"
	"testing"

	"github.com/blubskye/mission_clone/internal/db"
	"github.com/blubskye/mission_clone/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(rows []*db.Row) []string {
	var out []string
	for _, r := range rows {
		v, _ := r.Get("id")
		out = append(out, db.FormatValue(v))
	}
	return out
}

func quietLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logging.New(&buf)
	log.EnableTimestamp(false)
	return log, &buf
}

func TestLocateRoot(t *testing.T) {
	store := alphaStore()
	log, _ := quietLogger()
	loc := NewLocator(MissionGraph(), store, log)

	rows, strategy, err := loc.Locate(context.Background(), "missions", "M1", NewSeen())
	require.NoError(t, err)
	assert.Equal(t, StrategyRoot, strategy)
	assert.Equal(t, []string{"M1"}, ids(rows))

	rows, strategy, err = loc.Locate(context.Background(), "missions", "nope", NewSeen())
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, strategy)
	assert.Empty(t, rows)
}

func TestLocateRootKey(t *testing.T) {
	store := alphaStore()
	log, _ := quietLogger()
	loc := NewLocator(MissionGraph(), store, log)

	rows, strategy, err := loc.Locate(context.Background(), "areas", "M1", NewSeen())
	require.NoError(t, err)
	assert.Equal(t, StrategyRootKey, strategy)
	assert.Equal(t, []string{"a1", "a2"}, ids(rows))
}

func TestLocateParentSingleQuery(t *testing.T) {
	store := newMemStore()
	store.add("areacells", "id", "c1", "areas_id", "a1")
	store.add("areacells", "id", "c2", "areas_id", "a2")
	store.add("areacells", "id", "c3", "areas_id", "a3")
	store.add("areacells", "id", "c9", "areas_id", "elsewhere")

	seen := NewSeen()
	seen.Add("missions", "M1")
	seen.Add("areas", "a1")
	seen.Add("areas", "a2")
	seen.Add("areas", "a3")

	log, _ := quietLogger()
	loc := NewLocator(MissionGraph(), store, log)
	rows, strategy, err := loc.Locate(context.Background(), "areacells", "M1", seen)
	require.NoError(t, err)
	assert.Equal(t, StrategyParent, strategy)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids(rows))

	require.Len(t, store.selects, 1, "one set query, not one query per parent id")
	assert.Equal(t, selectCall{Table: "areacells", Column: "areas_id", Values: 3}, store.selects[0])
}

func TestLocateParentAmbiguous(t *testing.T) {
	g := &Graph{Root: "missions", Tables: []Table{
		{Name: "missions"},
		{Name: "tracks", ForeignKeys: []ForeignKey{{Column: "missions_id", Parent: "missions"}}},
		{Name: "specialpoint", ForeignKeys: []ForeignKey{{Column: "missions_id", Parent: "missions"}}},
		{Name: "tasks", ForeignKeys: []ForeignKey{
			{Column: "tracks_id", Parent: "tracks"},
			{Column: "specialpoint_id", Parent: "specialpoint"},
		}},
	}}
	require.NoError(t, g.Validate())

	store := newMemStore()
	store.add("tasks", "id", "k1", "tracks_id", "t1", "specialpoint_id", "s9")
	store.add("tasks", "id", "k2", "tracks_id", "t9", "specialpoint_id", "s1")

	seen := NewSeen()
	seen.Add("missions", "M1")
	seen.Add("tracks", "t1")
	seen.Add("specialpoint", "s1")

	log, buf := quietLogger()
	rows, strategy, err := NewLocator(g, store, log).Locate(context.Background(), "tasks", "M1", seen)
	require.NoError(t, err)
	assert.Equal(t, StrategyParent, strategy)
	assert.Equal(t, []string{"k1"}, ids(rows), "declaration order picks tracks_id")
	assert.Contains(t, buf.String(), "several parents populated")

	g.Tables[3].Precedence = []string{"specialpoint_id"}
	require.NoError(t, g.Validate())
	rows, _, err = NewLocator(g, store, log).Locate(context.Background(), "tasks", "M1", seen)
	require.NoError(t, err)
	assert.Equal(t, []string{"k2"}, ids(rows), "precedence overrides declaration order")
}

func TestLocateRootForeignKeyWinsOverParents(t *testing.T) {
	store := alphaStore()
	store.add("tracks", "id", "t9", "missions_id", "M2", "areas_id", "a1")

	seen := NewSeen()
	seen.Add("missions", "M1")
	seen.Add("areas", "a1")
	seen.Add("areas", "a2")

	log, buf := quietLogger()
	loc := NewLocator(MissionGraph(), store, log)

	rows, strategy, err := loc.Locate(context.Background(), "tracks", "M1", seen)
	require.NoError(t, err)
	assert.Equal(t, StrategyRootKey, strategy)
	assert.Equal(t, []string{"t1"}, ids(rows))

	// With no track of its own the mission must not pick up another
	// mission's track through areas_id.
	store.rows["tracks"] = store.rows["tracks"][1:]
	store.selects = nil
	rows, strategy, err = loc.Locate(context.Background(), "tracks", "M1", seen)
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, strategy)
	assert.Empty(t, rows)
	require.Len(t, store.selects, 1)
	assert.Equal(t, "missions_id", store.selects[0].Column)
	assert.NotContains(t, buf.String(), "several parents populated")
}

func TestLocateRootColumnFallback(t *testing.T) {
	g := &Graph{Root: "missions", Tables: []Table{
		{Name: "missions"},
		{Name: "logs"},
	}}
	require.NoError(t, g.Validate())

	store := newMemStore()
	store.add("logs", "id", "l1", "missions_id", "M1")
	store.add("logs", "id", "l2", "missions_id", "M2")

	seen := NewSeen()
	seen.Add("missions", "M1")

	log, _ := quietLogger()
	rows, strategy, err := NewLocator(g, store, log).Locate(context.Background(), "logs", "M1", seen)
	require.NoError(t, err)
	assert.Equal(t, StrategyRootColumn, strategy)
	assert.Equal(t, []string{"l1"}, ids(rows))
}

func TestLocateNothing(t *testing.T) {
	store := newMemStore()
	store.add("areacells", "id", "c1", "areas_id", "a7")

	seen := NewSeen()
	seen.Add("missions", "M1")

	log, _ := quietLogger()
	loc := NewLocator(MissionGraph(), store, log)

	rows, strategy, err := loc.Locate(context.Background(), "areacells", "M1", seen)
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, strategy)
	assert.Empty(t, rows)
	assert.Empty(t, store.selects, "no parent ids and no root column means no query")

	// The root-key query already ran as step 2, so it is not repeated.
	store.selects = nil
	_, _, err = loc.Locate(context.Background(), "specialpoint", "M1", seen)
	require.NoError(t, err)
	assert.Len(t, store.selects, 1)
}

func TestLocateSelectError(t *testing.T) {
	store := alphaStore()
	store.failSelect = "areas"
	log, _ := quietLogger()

	_, _, err := NewLocator(MissionGraph(), store, log).Locate(context.Background(), "areas", "M1", NewSeen())
	assert.EqualError(t, err, "select failed")
}

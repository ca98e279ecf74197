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
	"testing"
	"time"

	"github.com/blubskye/mission_clone/internal/db"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	when := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"zero date", "0000-00-00", nil},
		{"zero datetime", "0000-00-00 00:00:00", nil},
		{"zero datetime bytes", []byte("0000-00-00 00:00:00"), nil},
		{"zero time", time.Time{}, nil},
		{"real date", "2024-05-01", "2024-05-01"},
		{"real time", when, when},
		{"partial zero", "0000-00-00 00:00:01", "0000-00-00 00:00:01"},
		{"empty string", "", ""},
		{"int", int64(0), int64(0)},
		{"nil", nil, nil},
		{"bytes", []byte("abc"), []byte("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestNormalizeRow(t *testing.T) {
	row := db.RowOf("id", "x", "created", "0000-00-00", "updated", []byte("2024-01-01 00:00:00"))
	NormalizeRow(row)

	assert.Equal(t, []string{"id", "created", "updated"}, row.Columns())
	assert.Equal(t, []any{"x", nil, []byte("2024-01-01 00:00:00")}, row.Values())
}

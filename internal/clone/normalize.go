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
	"time"

	"github.com/blubskye/mission_clone/internal/db"
)

// zeroDates are the MariaDB renderings of an unset DATE / DATETIME
var zeroDates = map[string]struct{}{
	"0000-00-00":          {},
	"0000-00-00 00:00:00": {},
}

// Normalize maps zero-date sentinels to nil and returns everything else
// unchanged. With parseTime enabled the MySQL driver hands zero dates back
// as the zero time.Time, so that counts as a sentinel too.
func Normalize(value any) any {
	switch v := value.(type) {
	case string:
		if _, ok := zeroDates[v]; ok {
			return nil
		}
	case []byte:
		if _, ok := zeroDates[string(v)]; ok {
			return nil
		}
	case time.Time:
		if v.IsZero() {
			return nil
		}
	}
	return value
}

// NormalizeRow applies Normalize to every column of row in place
func NormalizeRow(row *db.Row) {
	for _, col := range row.Columns() {
		v, _ := row.Get(col)
		row.Set(col, Normalize(v))
	}
}

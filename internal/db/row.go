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

package db

import (
	"fmt"
	"strings"
)

// Row is one table row as an ordered column -> value mapping.
// Values are whatever the driver returned: []byte, string, int64, float64,
// bool, time.Time or nil.
type Row struct {
	columns []string
	values  map[string]any
}

// NewRow creates an empty row
func NewRow() *Row {
	return &Row{values: make(map[string]any)}
}

// RowOf builds a row from alternating column/value pairs, in order
func RowOf(pairs ...any) *Row {
	r := NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(fmt.Sprint(pairs[i]), pairs[i+1])
	}
	return r
}

// Columns returns the column names in order
func (r *Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Values returns the values in column order
func (r *Row) Values() []any {
	out := make([]any, len(r.columns))
	for i, col := range r.columns {
		out[i] = r.values[col]
	}
	return out
}

// Len returns the number of columns
func (r *Row) Len() int {
	return len(r.columns)
}

// Has reports whether the row carries the column
func (r *Row) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Get returns a column value
func (r *Row) Get(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Set assigns a column value, appending the column if it is new
func (r *Row) Set(column string, value any) {
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Clone returns a shallow copy
func (r *Row) Clone() *Row {
	c := &Row{
		columns: make([]string, len(r.columns)),
		values:  make(map[string]any, len(r.values)),
	}
	copy(c.columns, r.columns)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// String renders the row for logs
func (r *Row) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, col := range r.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
		b.WriteString(": ")
		b.WriteString(FormatValue(r.values[col]))
	}
	b.WriteString("}")
	return b.String()
}

// FormatValue formats a value for display
func FormatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

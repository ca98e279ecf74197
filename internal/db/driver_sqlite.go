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

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteDriver implements the Driver interface for SQLite database files
type SQLiteDriver struct{}

// DSN returns the database file path; Path wins over Database
func (d *SQLiteDriver) DSN(cfg ConnectionConfig) string {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// DriverName returns the database/sql driver name
func (d *SQLiteDriver) DriverName() string {
	return "sqlite"
}

// DefaultPort is meaningless for SQLite
func (d *SQLiteDriver) DefaultPort() int {
	return 0
}

// QuoteIdentifier quotes an identifier with double quotes
func (d *SQLiteDriver) QuoteIdentifier(name string) string {
	return "\"" + strings.ReplaceAll(name, "\"", "\"\"") + "\""
}

// Placeholder returns the positional parameter marker
func (d *SQLiteDriver) Placeholder(int) string {
	return "?"
}

// ListColumnsQuery returns the query listing a table's column names
func (d *SQLiteDriver) ListColumnsQuery(table string) (string, []any) {
	return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{table}
}

// SetSessionVariableStatement is unsupported; use pragmas in the DSN
func (d *SQLiteDriver) SetSessionVariableStatement(string) (string, error) {
	return "", fmt.Errorf("session variables are not supported for %s", DatabaseTypeSQLite)
}

// ServerVersionQuery returns the query to get the library version
func (d *SQLiteDriver) ServerVersionQuery() string {
	return "SELECT sqlite_version()"
}

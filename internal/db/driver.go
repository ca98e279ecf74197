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
	"regexp"
)

// DatabaseType represents supported database types
type DatabaseType string

const (
	DatabaseTypeMariaDB  DatabaseType = "mariadb"
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeSQLite   DatabaseType = "sqlite"
)

// Driver interface defines database-specific operations
type Driver interface {
	// Connection
	DSN(cfg ConnectionConfig) string
	DriverName() string
	DefaultPort() int

	// Identifiers and parameters
	QuoteIdentifier(name string) string
	Placeholder(n int) string // n is 1-based

	// Schema queries
	ListColumnsQuery(table string) (string, []any)

	// Session variables applied after connecting
	SetSessionVariableStatement(name string) (string, error)

	// Server info
	ServerVersionQuery() string
}

// GetDriver returns the appropriate driver for the given database type
func GetDriver(dbType DatabaseType) (Driver, error) {
	switch dbType {
	case DatabaseTypeMariaDB, "mysql", "":
		return &MariaDBDriver{}, nil
	case DatabaseTypePostgres, "postgresql":
		return &PostgresDriver{}, nil
	case DatabaseTypeSQLite, "sqlite3":
		return &SQLiteDriver{}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// ValidDatabaseTypes returns all valid database type values
func ValidDatabaseTypes() []DatabaseType {
	return []DatabaseType{DatabaseTypeMariaDB, DatabaseTypePostgres, DatabaseTypeSQLite}
}

var variableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// checkVariableName rejects session variable names that are not plain
// identifiers, optionally dotted
func checkVariableName(name string) error {
	if !variableName.MatchString(name) {
		return fmt.Errorf("invalid session variable name %q", name)
	}
	return nil
}

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

	_ "github.com/go-sql-driver/mysql"
)

// MariaDBDriver implements the Driver interface for MariaDB/MySQL
type MariaDBDriver struct{}

// DSN generates a MariaDB/MySQL connection string.
// parseTime is on, so DATETIME columns scan as time.Time and zero dates
// come back as the zero time.Time.
func (d *MariaDBDriver) DSN(cfg ConnectionConfig) string {
	// Use socket if provided
	if cfg.Socket != "" {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?parseTime=true&charset=utf8mb4",
			cfg.User, cfg.Password, cfg.Socket, cfg.Database)
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = d.DefaultPort()
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, host, port, cfg.Database)
}

// DriverName returns the database/sql driver name
func (d *MariaDBDriver) DriverName() string {
	return "mysql"
}

// DefaultPort returns the default MariaDB port
func (d *MariaDBDriver) DefaultPort() int {
	return 3306
}

// QuoteIdentifier quotes an identifier with backticks
func (d *MariaDBDriver) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Placeholder returns the positional parameter marker
func (d *MariaDBDriver) Placeholder(int) string {
	return "?"
}

// ListColumnsQuery returns the query listing a table's column names in
// ordinal order for the current database
func (d *MariaDBDriver) ListColumnsQuery(table string) (string, []any) {
	return `SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = DATABASE() AND table_name = ?
	ORDER BY ordinal_position`, []any{table}
}

// SetSessionVariableStatement returns the statement to set a session
// variable. The name cannot be a placeholder, so it must be a plain
// identifier.
func (d *MariaDBDriver) SetSessionVariableStatement(name string) (string, error) {
	if err := checkVariableName(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("SET SESSION %s = ?", name), nil
}

// ServerVersionQuery returns the query to get server version
func (d *MariaDBDriver) ServerVersionQuery() string {
	return "SELECT VERSION()"
}

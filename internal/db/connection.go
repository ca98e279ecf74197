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
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Connection holds the database connection and configuration
type Connection struct {
	DB     *sql.DB
	Config ConnectionConfig
	Driver Driver
}

// ConnectionConfig holds the connection parameters
type ConnectionConfig struct {
	Type      DatabaseType
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
	Socket    string            // Unix socket path (optional)
	Path      string            // SQLite database file (optional)
	Variables map[string]string // Session variables applied on connect
}

// DSN returns the data source name for the connection
func (c *ConnectionConfig) DSN() (string, error) {
	driver, err := GetDriver(c.Type)
	if err != nil {
		return "", err
	}
	return driver.DSN(*c), nil
}

// Label returns a human readable description of the endpoint
func (c *ConnectionConfig) Label() string {
	if c.Type == DatabaseTypeSQLite || c.Type == "sqlite3" {
		if c.Path != "" {
			return "sqlite:" + c.Path
		}
		return "sqlite:" + c.Database
	}
	if c.Socket != "" {
		return fmt.Sprintf("%s@unix(%s)/%s", c.User, c.Socket, c.Database)
	}
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

// Connect establishes a connection to the database server
func Connect(ctx context.Context, cfg ConnectionConfig) (*Connection, error) {
	driver, err := GetDriver(cfg.Type)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver.DriverName(), driver.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	// Session variables live on a single server connection, and the clone
	// never needs more than one at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn := &Connection{
		DB:     db,
		Config: cfg,
		Driver: driver,
	}

	if err := conn.applyVariables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return conn, nil
}

// Open wraps an existing *sql.DB, mostly for tests
func Open(db *sql.DB, dbType DatabaseType) (*Connection, error) {
	driver, err := GetDriver(dbType)
	if err != nil {
		return nil, err
	}
	return &Connection{
		DB:     db,
		Config: ConnectionConfig{Type: dbType},
		Driver: driver,
	}, nil
}

func (c *Connection) applyVariables(ctx context.Context) error {
	if len(c.Config.Variables) == 0 {
		return nil
	}

	names := make([]string, 0, len(c.Config.Variables))
	for name := range c.Config.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := c.Driver.SetSessionVariableStatement(name)
		if err != nil {
			return err
		}
		if _, err := c.DB.ExecContext(ctx, stmt, c.Config.Variables[name]); err != nil {
			return fmt.Errorf("failed to set variable %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// QuoteIdentifier quotes an identifier for the connection's dialect
func (c *Connection) QuoteIdentifier(name string) string {
	return c.Driver.QuoteIdentifier(name)
}

// ServerVersion returns the server version string
func (c *Connection) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.DB.QueryRowContext(ctx, c.Driver.ServerVersionQuery()).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get server version: %w", err)
	}
	return version, nil
}

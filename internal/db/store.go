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
	"errors"
	"fmt"
	"strings"
)

// Store is the row-level view of one connection used by the clone: set
// selection, column introspection and transactional inserts. A transaction
// is opened lazily by the first write and ended by Checkpoint, Commit or
// Rollback. Reads go through the open transaction when there is one.
type Store struct {
	conn    *Connection
	tx      *sql.Tx
	columns map[string][]string
}

// NewStore creates a store on top of a connection
func NewStore(conn *Connection) *Store {
	return &Store{
		conn:    conn,
		columns: make(map[string][]string),
	}
}

// Connection returns the underlying connection
func (s *Store) Connection() *Connection {
	return s.conn
}

func (s *Store) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn.DB
}

func (s *Store) quote(name string) string {
	return s.conn.Driver.QuoteIdentifier(name)
}

// SelectRows returns the rows of table whose column equals one of values.
// One value selects with "=", several with a single IN list, none selects
// nothing without touching the database.
func (s *Store) SelectRows(ctx context.Context, table, column string, values []any) ([]*Row, error) {
	if len(values) == 0 {
		return nil, nil
	}

	var where string
	if len(values) == 1 {
		where = fmt.Sprintf("%s = %s", s.quote(column), s.conn.Driver.Placeholder(1))
	} else {
		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = s.conn.Driver.Placeholder(i + 1)
		}
		where = fmt.Sprintf("%s IN (%s)", s.quote(column), strings.Join(placeholders, ", "))
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", s.quote(table), where)
	rows, err := s.querier().QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	return scanRows(rows)
}

// Project returns the given columns of every row of table, ordered by the
// first column
func (s *Store) Project(ctx context.Context, table string, columns ...string) ([]*Row, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns to select from %s", table)
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = s.quote(col)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(quoted, ", "), s.quote(table), quoted[0])

	rows, err := s.querier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	return scanRows(rows)
}

// FindByColumn returns the first row whose column equals value, or nil
func (s *Store) FindByColumn(ctx context.Context, table, column string, value any) (*Row, error) {
	rows, err := s.SelectRows(ctx, table, column, []any{value})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Exists reports whether any row of table has column equal to value
func (s *Store) Exists(ctx context.Context, table, column string, value any) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s LIMIT 1",
		s.quote(table), s.quote(column), s.conn.Driver.Placeholder(1))

	rows, err := s.querier().QueryContext(ctx, query, value)
	if err != nil {
		return false, fmt.Errorf("failed to check %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	found := rows.Next()
	return found, rows.Err()
}

// Columns returns the column names of table, cached for the store's lifetime
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	if cols, ok := s.columns[table]; ok {
		return cols, nil
	}
	cols, err := listColumns(ctx, s.querier(), s.conn.Driver, table)
	if err != nil {
		return nil, err
	}
	s.columns[table] = cols
	return cols, nil
}

// Insert writes one row with a parameterized INSERT in the row's column order
func (s *Store) Insert(ctx context.Context, table string, row *Row) error {
	if row.Len() == 0 {
		return fmt.Errorf("refusing to insert empty row into %s", table)
	}
	if err := s.begin(ctx); err != nil {
		return err
	}

	cols := row.Columns()
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = s.quote(col)
		placeholders[i] = s.conn.Driver.Placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.quote(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if _, err := s.tx.ExecContext(ctx, query, row.Values()...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (s *Store) begin(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// InTransaction reports whether writes are pending
func (s *Store) InTransaction() bool {
	return s.tx != nil
}

// Checkpoint commits pending writes so they survive a later failure
func (s *Store) Checkpoint(ctx context.Context) error {
	return s.Commit(ctx)
}

// Commit commits pending writes, if any
func (s *Store) Commit(context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Rollback discards pending writes, if any
func (s *Store) Rollback(context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback: %w", err)
	}
	return nil
}

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
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyVariables(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	conn, err := Open(sqlDB, DatabaseTypeMariaDB)
	require.NoError(t, err)
	conn.Config.Variables = map[string]string{
		"sql_mode":           "",
		"foreign_key_checks": "0",
	}

	mock.ExpectExec(regexp.QuoteMeta("SET SESSION foreign_key_checks = ?")).WithArgs("0").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET SESSION sql_mode = ?")).WithArgs("").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, conn.applyVariables(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVariablesUnsupported(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	conn, err := Open(sqlDB, DatabaseTypeSQLite)
	require.NoError(t, err)
	conn.Config.Variables = map[string]string{"foreign_keys": "0"}

	err = conn.applyVariables(context.Background())
	assert.EqualError(t, err, "session variables are not supported for sqlite")
}

func TestApplyVariablesRejectsName(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	conn, err := Open(sqlDB, DatabaseTypeMariaDB)
	require.NoError(t, err)
	conn.Config.Variables = map[string]string{"sql_mode = '', foreign_key_checks": "0"}

	err = conn.applyVariables(context.Background())
	assert.EqualError(t, err, `invalid session variable name "sql_mode = '', foreign_key_checks"`)
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing reaches the server")
}

func TestServerVersionAndCount(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	conn, err := Open(sqlDB, DatabaseTypeMariaDB)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT VERSION()")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("10.11.6-MariaDB"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `areas`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	ctx := context.Background()
	version, err := conn.ServerVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10.11.6-MariaDB", version)

	n, err := conn.CountTableRows(ctx, "areas")
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

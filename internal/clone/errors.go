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
	"errors"
	"fmt"
)

var (
	// ErrMissionNotFound is matched by every NotFoundError
	ErrMissionNotFound = errors.New("mission not found")

	// ErrDuplicateMapping means an old id was mapped twice in one run
	ErrDuplicateMapping = errors.New("identifier already mapped")
)

// NotFoundError is returned when the root's natural key has no source row
type NotFoundError struct {
	Table string
	Name  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no row in %s named %q", ErrMissionNotFound, e.Table, e.Name)
}

// Is makes errors.Is(err, ErrMissionNotFound) work
func (e *NotFoundError) Is(target error) bool {
	return target == ErrMissionNotFound
}

// TableError reports the table and stage a run failed in. Tables
// checkpointed before it stay written.
type TableError struct {
	Table string
	State State
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("clone failed on table %s while %s: %v", e.Table, e.State, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// GraphError describes an inconsistent schema graph
type GraphError struct {
	Table  string
	Column string
	Reason string
}

func (e *GraphError) Error() string {
	switch {
	case e.Table == "":
		return "invalid schema graph: " + e.Reason
	case e.Column == "":
		return fmt.Sprintf("invalid schema graph: table %s: %s", e.Table, e.Reason)
	default:
		return fmt.Sprintf("invalid schema graph: %s.%s: %s", e.Table, e.Column, e.Reason)
	}
}

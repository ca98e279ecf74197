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
	"encoding/hex"

	"github.com/google/uuid"
)

// Generator produces identifiers for cloned rows. Implementations must be
// safe to call once per row with no coordination between calls.
type Generator interface {
	Next() string
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func() string

// Next calls f
func (f GeneratorFunc) Next() string {
	return f()
}

// UUIDGenerator returns random (v4) UUIDs as 32 lowercase hex characters,
// which fits the char(32) id columns of the mission schema.
type UUIDGenerator struct{}

// Next returns a fresh identifier
func (UUIDGenerator) Next() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

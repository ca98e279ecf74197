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

package cli

import (
	"fmt"

	"github.com/blubskye/mission_clone/internal/db"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Test source and target connections",
	Long:  `Connect to the source and target databases and report what the clone would see.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := loadGraph("")
		if err != nil {
			return err
		}

		ep, err := connectEndpoints(cmd)
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		defer ep.Close()

		fmt.Println("Connection successful!")
		describe := func(role string, store *db.Store) {
			conn := store.Connection()
			fmt.Printf("%s: %s\n", role, conn.Config.Label())
			if version, err := conn.ServerVersion(cmd.Context()); err == nil {
				fmt.Printf("  Server version: %s\n", version)
			}
			if n, err := conn.CountTableRows(cmd.Context(), graph.Root); err == nil {
				fmt.Printf("  Rows in %s: %d\n", graph.Root, n)
			} else {
				fmt.Printf("  Rows in %s: unavailable (%v)\n", graph.Root, err)
			}
		}

		describe("Source", ep.source)
		if ep.target == ep.source {
			fmt.Println("Target: same as source")
			return nil
		}
		describe("Target", ep.target)
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVar(&targetProfile, "target-profile", "", "Profile of the target database (default: source)")
	connectCmd.Flags().StringVar(&targetDatabase, "target-database", "", "Target database name, or file for sqlite")
}

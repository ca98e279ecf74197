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
	"errors"
	"fmt"
	"os"

	"github.com/blubskye/mission_clone/internal/clone"
	"github.com/blubskye/mission_clone/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cloneMissionName string
	cloneDryRun      bool
	cloneCommit      bool
	cloneNoCommit    bool
	cloneGraphFile   string
	cloneReportFile  string
)

var cloneCmd = &cobra.Command{
	Use:   "clone <mission-name>",
	Short: "Clone a mission and its subtree",
	Long: `Copy one mission, looked up by its exact name, and every row that belongs
to it into the target database. Every copied row gets a fresh identifier and
its foreign keys are rewired to the copies. A foreign key whose parent row was
not part of the mission is set to NULL.

The target defaults to the source database. If the mission name is already
taken in the target the copy is named <name>_copy, <name>_copy2 and so on.

Examples:
  mclone clone "North Sea Survey" --dry-run
  mclone clone "North Sea Survey" --target-profile staging
  mclone clone "North Sea Survey" --no-commit --log-level debug
  mclone clone "North Sea Survey" --target-database missions_copy --report map.yaml.zst`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cloneMissionName
		if len(args) > 0 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no mission name given. Pass it as argument or with --mission-name")
		}

		graph, err := loadGraph(cloneGraphFile)
		if err != nil {
			return err
		}

		ep, err := connectEndpoints(cmd)
		if err != nil {
			return err
		}
		defer ep.Close()

		log := logging.With("clone")
		log.Info("Source: %s", ep.source.Connection().Config.Label())
		log.Info("Target: %s", ep.target.Connection().Config.Label())

		opts := clone.Options{
			DryRun: cloneDryRun,
			Commit: cloneCommit && !cloneNoCommit,
			OnProgress: func(table string, tableNum, totalTables int) {
				log.Debug("table %d/%d: %s", tableNum, totalTables, table)
			},
		}

		engine := clone.NewEngine(graph, ep.source, ep.target)
		res, err := engine.Clone(cmd.Context(), name, opts)
		if errors.Is(err, clone.ErrMissionNotFound) {
			fmt.Fprintf(os.Stderr, "Mission name not found in source database: %s\n", name)
			return err
		}
		if res == nil {
			return err
		}

		rep := clone.NewReport(res)
		fmt.Println()
		if serr := clone.WriteSummary(os.Stdout, rep); serr != nil {
			return serr
		}

		if cloneReportFile != "" {
			if werr := clone.WriteReport(cloneReportFile, rep); werr != nil {
				log.Error("failed to write report: %v", werr)
			} else {
				fmt.Printf("\nMapping report written to %s\n", cloneReportFile)
			}
		}

		if err != nil {
			return err
		}

		fmt.Println()
		switch {
		case res.DryRun:
			fmt.Println("DRY RUN complete. No changes were written.")
		case res.Committed:
			fmt.Printf("Mission cloned as '%s' (id=%s).\n", res.NewName, res.NewRootID)
		default:
			fmt.Println("NO-COMMIT mode: rolled back changes in target database.")
		}
		return nil
	},
}

func init() {
	cloneCmd.Flags().StringVar(&cloneMissionName, "mission-name", "", "Mission name to clone (exact match)")
	cloneCmd.Flags().BoolVar(&cloneDryRun, "dry-run", false, "Do not insert anything, just simulate")
	cloneCmd.Flags().BoolVar(&cloneCommit, "commit", true, "Commit changes to the target database")
	cloneCmd.Flags().BoolVar(&cloneNoCommit, "no-commit", false, "Roll back all changes at the end")
	cloneCmd.Flags().StringVar(&targetProfile, "target-profile", "", "Profile of the target database (default: source)")
	cloneCmd.Flags().StringVar(&targetDatabase, "target-database", "", "Target database name, or file for sqlite")
	cloneCmd.Flags().StringVar(&cloneGraphFile, "graph", "", "Schema graph YAML file (default: built-in mission graph)")
	cloneCmd.Flags().StringVar(&cloneReportFile, "report", "", "Write the id mapping report to this file (.gz, .xz, .zst compress)")

	rootCmd.AddCommand(cloneCmd)
}

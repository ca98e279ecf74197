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
	"os"

	"github.com/blubskye/mission_clone/internal/clone"
	"github.com/spf13/cobra"
)

var reportTable string

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Show a saved clone report",
	Long: `Read a report written by 'mclone clone --report' and print its summary.
Compressed reports (.gz, .xz, .zst) are decompressed on the fly.

Examples:
  mclone report map.yaml.zst
  mclone report map.yaml --table tracks`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := clone.ReadReport(args[0])
		if err != nil {
			return err
		}

		if reportTable == "" {
			fmt.Printf("Report created %s\n", rep.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			return clone.WriteSummary(os.Stdout, rep)
		}

		for _, t := range rep.Tables {
			if t.Name != reportTable {
				continue
			}
			fmt.Printf("%s: %d mapped\n", t.Name, len(t.Mappings))
			for _, m := range t.Mappings {
				fmt.Printf("  %s -> %s\n", m.Old, m.New)
			}
			return nil
		}
		return fmt.Errorf("table '%s' not in report", reportTable)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportTable, "table", "", "Print every mapping of one table")

	rootCmd.AddCommand(reportCmd)
}

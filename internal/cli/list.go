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
	"text/tabwriter"

	"github.com/blubskye/mission_clone/internal/db"
	"github.com/spf13/cobra"
)

var listGraphFile string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the missions in the source database",
	Long: `List the rows of the root table by name, which is what clone expects.

Examples:
  mclone list
  mclone list --profile prod`,
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := loadGraph(listGraphFile)
		if err != nil {
			return err
		}

		conn, err := connect(cmd)
		if err != nil {
			return err
		}
		defer conn.Close()

		rows, err := db.NewStore(conn).Project(cmd.Context(), graph.Root, graph.NaturalKey, graph.IDColumn)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%d):\n", graph.Root, len(rows))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "NAME\tID\n")
		fmt.Fprintf(w, "----\t--\n")
		for _, r := range rows {
			name, _ := r.Get(graph.NaturalKey)
			id, _ := r.Get(graph.IDColumn)
			fmt.Fprintf(w, "%s\t%s\n", db.FormatValue(name), db.FormatValue(id))
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVar(&listGraphFile, "graph", "", "Schema graph YAML file (default: built-in mission graph)")
}

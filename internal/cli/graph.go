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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	graphFile string
	graphYAML bool
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the schema graph used by clone",
	Long: `Validate and print the schema graph: the tables in processing order and
their foreign keys. Columns without a parent are copied as they are.

Examples:
  mclone graph
  mclone graph --yaml > graph.yaml
  mclone graph --graph custom.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := loadGraph(graphFile)
		if err != nil {
			return err
		}

		if graphYAML {
			data, err := graph.Marshal()
			if err != nil {
				return fmt.Errorf("failed to marshal graph: %w", err)
			}
			_, err = os.Stdout.Write(data)
			return err
		}

		fmt.Printf("Root: %s (id %s, name %s, root key %s)\n\n",
			graph.Root, graph.IDColumn, graph.NaturalKey, graph.RootKey)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTABLE\tPARENTS\tCOPIED AS IS")
		fmt.Fprintln(w, "-\t-----\t-------\t------------")
		for i, t := range graph.Tables {
			var parents, external []string
			for _, fk := range t.ForeignKeys {
				if fk.Participating() {
					parents = append(parents, fk.Column+" -> "+fk.Parent)
				} else {
					external = append(external, fk.Column)
				}
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, t.Name, orDash(parents), orDash(external))
		}
		return w.Flush()
	},
}

func orDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}

func init() {
	graphCmd.Flags().StringVar(&graphFile, "graph", "", "Schema graph YAML file (default: built-in mission graph)")
	graphCmd.Flags().BoolVar(&graphYAML, "yaml", false, "Print the graph as YAML")

	rootCmd.AddCommand(graphCmd)
}

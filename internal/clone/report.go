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
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/blubskye/mission_clone/internal/buffer"
	"gopkg.in/yaml.v3"
)

// sampleSize is how many mappings the summary shows per table
const sampleSize = 3

// Report is the persisted form of a Result
type Report struct {
	Mission     string        `yaml:"mission"`
	RootID      string        `yaml:"root_id"`
	NewRootID   string        `yaml:"new_root_id,omitempty"`
	NewName     string        `yaml:"new_name,omitempty"`
	DryRun      bool          `yaml:"dry_run"`
	Committed   bool          `yaml:"committed"`
	State       string        `yaml:"state"`
	FailedTable string        `yaml:"failed_table,omitempty"`
	CreatedAt   time.Time     `yaml:"created_at"`
	Tables      []TableReport `yaml:"tables"`
}

// TableReport is one table of a Report
type TableReport struct {
	Name       string         `yaml:"name"`
	Strategy   string         `yaml:"strategy"`
	Found      int            `yaml:"found"`
	Written    int            `yaml:"written"`
	Unresolved map[string]int `yaml:"unresolved,omitempty"`
	Mappings   []Mapping      `yaml:"mappings,omitempty"`
}

// NewReport builds a report from a run result
func NewReport(res *Result) *Report {
	rep := &Report{
		Mission:     res.Mission,
		RootID:      res.RootID,
		NewRootID:   res.NewRootID,
		NewName:     res.NewName,
		DryRun:      res.DryRun,
		Committed:   res.Committed,
		State:       res.State.String(),
		FailedTable: res.FailedTable,
		CreatedAt:   time.Now().UTC(),
	}
	for _, t := range res.Tables {
		tr := TableReport{
			Name:     t.Table,
			Strategy: t.Strategy.String(),
			Found:    t.Found,
			Written:  t.Written,
		}
		if len(t.Unresolved) > 0 {
			tr.Unresolved = t.Unresolved
		}
		if res.IDs != nil {
			tr.Mappings = res.IDs.Mappings(t.Table)
		}
		rep.Tables = append(rep.Tables, tr)
	}
	return rep
}

// WriteReport saves rep as YAML; .gz, .xz and .zst paths are compressed
func WriteReport(path string, rep *Report) (err error) {
	w, err := buffer.NewWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// ReadReport loads a report written by WriteReport
func ReadReport(path string) (*Report, error) {
	r, err := buffer.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var rep Report
	if err := yaml.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &rep, nil
}

// WriteSummary prints the per-table mapping summary
func WriteSummary(out io.Writer, rep *Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Mission:\t%s\n", rep.Mission)
	if rep.NewName != "" && rep.NewName != rep.Mission {
		fmt.Fprintf(w, "Cloned as:\t%s\n", rep.NewName)
	}
	fmt.Fprintf(w, "State:\t%s\n", rep.State)
	if rep.FailedTable != "" {
		fmt.Fprintf(w, "Failed table:\t%s\n", rep.FailedTable)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TABLE\tFOUND\tWRITTEN\tMAPPED\tUNRESOLVED\tSAMPLE")
	fmt.Fprintln(w, "-----\t-----\t-------\t------\t----------\t------")
	for _, t := range rep.Tables {
		unresolved := 0
		for _, n := range t.Unresolved {
			unresolved += n
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			t.Name, t.Found, t.Written, len(t.Mappings), unresolved, sample(t.Mappings))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	var lines []string
	for _, t := range rep.Tables {
		cols := make([]string, 0, len(t.Unresolved))
		for col := range t.Unresolved {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			lines = append(lines, fmt.Sprintf("  %s.%s: %d set to NULL", t.Name, col, t.Unresolved[col]))
		}
	}
	if len(lines) > 0 {
		fmt.Fprintln(out, "\nUnresolved foreign keys:")
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
	}
	return nil
}

func sample(m []Mapping) string {
	if len(m) == 0 {
		return "-"
	}
	n := min(len(m), sampleSize)
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}
		s += m[i].Old + "->" + m[i].New
	}
	if len(m) > n {
		s += ", ..."
	}
	return s
}

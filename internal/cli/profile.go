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
	"sort"
	"text/tabwriter"

	"github.com/blubskye/mission_clone/internal/config"
	"github.com/blubskye/mission_clone/internal/db"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage connection profiles",
	Long: `Manage saved connection profiles.

Profiles are stored in ~/.config/mclone/config.yaml`,
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Profiles) == 0 {
			fmt.Println("No profiles configured.")
			fmt.Println("Use 'mclone profile add <name>' to create one.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tENDPOINT\tDATABASE\tROLE")
		fmt.Fprintln(w, "----\t----\t--------\t--------\t----")

		for _, name := range cfg.ListProfiles() {
			p := cfg.Profiles[name]
			role := ""
			switch {
			case name == cfg.DefaultProfile && name == cfg.TargetProfile:
				role = "source, target"
			case name == cfg.DefaultProfile:
				role = "source"
			case name == cfg.TargetProfile:
				role = "target"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				name, profileType(p), profileEndpoint(p), p.Database, role)
		}
		return w.Flush()
	},
}

func profileType(p config.Profile) string {
	if p.Type == "" {
		return string(db.DatabaseTypeMariaDB)
	}
	return p.Type
}

func profileEndpoint(p config.Profile) string {
	switch {
	case p.Path != "":
		return p.Path
	case p.Socket != "":
		return fmt.Sprintf("%s@unix(%s)", p.User, p.Socket)
	case p.Port != 0:
		return fmt.Sprintf("%s@%s:%d", p.User, p.Host, p.Port)
	default:
		return fmt.Sprintf("%s@%s", p.User, p.Host)
	}
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Long: `Add a new connection profile.

Examples:
  mclone profile add local -H localhost -u root -d missions
  mclone profile add staging -H db.example.com -u admin -P 3307 -d missions
  mclone profile add scratch --type sqlite --path ./scratch.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		// Check if profile already exists
		if _, exists := cfg.Profiles[name]; exists {
			fmt.Printf("Profile '%s' already exists. Remove it first to replace it.\n", name)
			return nil
		}

		p := config.Profile{
			Type:     dbType,
			Host:     host,
			Port:     port,
			User:     user,
			Password: password,
			Socket:   socket,
			Database: database,
			Path:     dbPath,
		}
		if p.Type == "" && p.Path != "" {
			p.Type = string(db.DatabaseTypeSQLite)
		}
		if _, err := db.GetDriver(db.DatabaseType(p.Type)); err != nil {
			return err
		}

		// Validate required fields
		if p.Type == string(db.DatabaseTypeSQLite) {
			if p.Path == "" {
				return fmt.Errorf("path is required for sqlite profiles. Use --path")
			}
			p.Host = ""
		} else if p.User == "" {
			return fmt.Errorf("user is required. Use -u/--user")
		}

		cfg.AddProfile(name, p)

		// Set as default if it's the first profile
		if len(cfg.Profiles) == 1 {
			cfg.DefaultProfile = name
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Profile '%s' added successfully.\n", name)
		if cfg.DefaultProfile == name {
			fmt.Println("Set as default profile.")
		}

		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if err := cfg.RemoveProfile(name); err != nil {
			return err
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Profile '%s' removed.\n", name)
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default (source) profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if err := cfg.SetDefault(name); err != nil {
			return err
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Default profile set to '%s'.\n", name)
		return nil
	},
}

var profileTargetCmd = &cobra.Command{
	Use:   "target [name]",
	Short: "Set the profile clones are written to",
	Long: `Set the default target profile. Without a name the target goes back to
being the source database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		if err := cfg.SetTarget(name); err != nil {
			return err
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		if name == "" {
			fmt.Println("Target profile cleared, clones go to the source database.")
		} else {
			fmt.Printf("Target profile set to '%s'.\n", name)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		p, err := cfg.GetProfile(name)
		if err != nil {
			return err
		}

		fmt.Printf("Profile: %s\n", name)
		fmt.Printf("  Type:     %s\n", profileType(*p))
		if p.Path != "" {
			fmt.Printf("  Path:     %s\n", p.Path)
		} else {
			fmt.Printf("  Host:     %s\n", p.Host)
			fmt.Printf("  Port:     %d\n", p.Port)
			fmt.Printf("  User:     %s\n", p.User)
			fmt.Printf("  Database: %s\n", p.Database)
		}
		if p.Socket != "" {
			fmt.Printf("  Socket:   %s\n", p.Socket)
		}
		if p.Password != "" {
			fmt.Printf("  Password: ****\n")
		}
		if len(p.Variables) > 0 {
			fmt.Println("  Variables:")
			for _, k := range sortedKeys(p.Variables) {
				fmt.Printf("    %s = %s\n", k, p.Variables[k])
			}
		}
		if name == cfg.DefaultProfile {
			fmt.Println("  (default)")
		}
		if name == cfg.TargetProfile {
			fmt.Println("  (target)")
		}

		return nil
	},
}

var profileSetVarCmd = &cobra.Command{
	Use:   "set-var <profile> <variable> <value>",
	Short: "Set a session variable for a profile",
	Long: `Set a session variable that will be applied when connecting with this profile.

Examples:
  mclone profile set-var local foreign_key_checks 0
  mclone profile set-var staging sql_mode STRICT_TRANS_TABLES`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName := args[0]
		varName := args[1]
		varValue := args[2]

		if err := cfg.SetVariable(profileName, varName, varValue); err != nil {
			return err
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Variable '%s' set to '%s' for profile '%s'.\n", varName, varValue, profileName)
		return nil
	},
}

var profileUnsetVarCmd = &cobra.Command{
	Use:   "unset-var <profile> <variable>",
	Short: "Remove a session variable from a profile",
	Long: `Remove a session variable from a profile.

Examples:
  mclone profile unset-var local foreign_key_checks`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName := args[0]
		varName := args[1]

		if err := cfg.UnsetVariable(profileName, varName); err != nil {
			return err
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Variable '%s' removed from profile '%s'.\n", varName, profileName)
		return nil
	},
}

var profileVarsCmd = &cobra.Command{
	Use:   "vars <profile>",
	Short: "List session variables for a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName := args[0]

		p, err := cfg.GetProfile(profileName)
		if err != nil {
			return err
		}

		if len(p.Variables) == 0 {
			fmt.Printf("No variables configured for profile '%s'.\n", profileName)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Variables for profile '%s':\n\n", profileName)
		fmt.Fprintln(w, "VARIABLE\tVALUE")
		fmt.Fprintln(w, "--------\t-----")

		for _, k := range sortedKeys(p.Variables) {
			fmt.Fprintf(w, "%s\t%s\n", k, p.Variables[k])
		}

		return w.Flush()
	},
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileTargetCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetVarCmd)
	profileCmd.AddCommand(profileUnsetVarCmd)
	profileCmd.AddCommand(profileVarsCmd)
}

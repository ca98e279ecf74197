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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blubskye/mission_clone/internal/clone"
	"github.com/blubskye/mission_clone/internal/config"
	"github.com/blubskye/mission_clone/internal/db"
	"github.com/blubskye/mission_clone/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is the release version, overridable with -ldflags
var Version = "0.1.0"

var (
	// Global flags
	host     string
	port     int
	user     string
	password string
	socket   string
	profile  string
	database string
	dbType   string
	dbPath   string

	logLevel string
	logFile  string

	// Target overrides
	targetProfile  string
	targetDatabase string

	// Config
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mclone",
	Short: "Mission Clone - copy a mission and everything under it",
	Long: `MCL (Mission Clone)

Copies one mission and its whole subtree (areas, tracks, tasks, points and
everything else that hangs off it) into a target database, giving every
copied row a fresh identifier and rewiring the foreign keys to match.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global connection flags
	rootCmd.PersistentFlags().StringVarP(&host, "host", "H", "localhost", "Database host")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "P", 0, "Database port (default depends on --type)")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "Database user")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Database password")
	rootCmd.PersistentFlags().StringVarP(&socket, "socket", "S", "", "Unix socket path")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Connection profile to use")
	rootCmd.PersistentFlags().StringVarP(&database, "database", "d", "", "Database to use")
	rootCmd.PersistentFlags().StringVar(&dbType, "type", "", "Database type (mariadb, postgres, sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "path", "", "SQLite database file")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")

	// Add subcommands
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = &config.Config{
			Profiles: make(map[string]config.Profile),
		}
	}
}

func setupLogging(cmd *cobra.Command) error {
	log := logging.Default()
	log.SetOutput(cmd.Root().ErrOrStderr())

	level := logLevel
	if level == "" && cfg != nil {
		level = cfg.LogLevel
	}
	if level != "" {
		if err := logging.SetLevelFromString(level); err != nil {
			return err
		}
	}
	// trace lines carry file:line
	log.EnableCaller(log.Enabled(logging.LevelTrace))

	file := logFile
	if file == "" && cfg != nil {
		file = cfg.LogFile
	}
	if file != "" {
		if err := logging.SetLogFile(file); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context, which stops a clone between tables.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logging.Default().Close()
	return rootCmd.ExecuteContext(ctx)
}

// flagChanged reports whether a persistent flag was given on the command line
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// applyFlags overrides connection settings with explicitly set flags
func applyFlags(cmd *cobra.Command, c *db.ConnectionConfig) {
	if flagChanged(cmd, "type") {
		c.Type = db.DatabaseType(dbType)
	}
	if flagChanged(cmd, "host") {
		c.Host = host
	}
	if flagChanged(cmd, "port") {
		c.Port = port
	}
	if user != "" {
		c.User = user
	}
	if password != "" {
		c.Password = password
	}
	if socket != "" {
		c.Socket = socket
	}
	if database != "" {
		c.Database = database
	}
	if dbPath != "" {
		c.Path = dbPath
	}
}

// getConnectionConfig returns the source connection configuration from
// flags or profile
func getConnectionConfig(cmd *cobra.Command) (db.ConnectionConfig, error) {
	// If profile specified, use it
	if profile != "" {
		p, err := cfg.GetProfile(profile)
		if err != nil {
			return db.ConnectionConfig{}, err
		}
		connCfg, err := p.ToConnectionConfig()
		if err != nil {
			return db.ConnectionConfig{}, err
		}
		applyFlags(cmd, &connCfg)
		return connCfg, nil
	}

	// Check for default profile
	if cfg != nil && cfg.DefaultProfile != "" && user == "" && dbPath == "" {
		p, err := cfg.GetProfile(cfg.DefaultProfile)
		if err == nil {
			connCfg, err := p.ToConnectionConfig()
			if err != nil {
				return db.ConnectionConfig{}, err
			}
			applyFlags(cmd, &connCfg)
			return connCfg, nil
		}
	}

	// Use flags directly
	connCfg := db.ConnectionConfig{Type: db.DatabaseType(dbType)}
	if connCfg.Type == "" && dbPath != "" {
		connCfg.Type = db.DatabaseTypeSQLite
	}
	applyFlags(cmd, &connCfg)
	if connCfg.Type == "" {
		connCfg.Type = db.DatabaseTypeMariaDB
	}

	driver, err := db.GetDriver(connCfg.Type)
	if err != nil {
		return db.ConnectionConfig{}, err
	}
	if connCfg.Port == 0 {
		connCfg.Port = driver.DefaultPort()
	}

	if !isSQLite(connCfg) && connCfg.User == "" {
		return db.ConnectionConfig{}, fmt.Errorf("no user specified. Use -u/--user or set up a profile")
	}
	if isSQLite(connCfg) && connCfg.Path == "" && connCfg.Database == "" {
		return db.ConnectionConfig{}, fmt.Errorf("no database file specified. Use --path or set up a profile")
	}

	return connCfg, nil
}

// getTargetConfig returns the target connection configuration. Without a
// target profile or database override the target is the source itself, and
// same reports that.
func getTargetConfig(source db.ConnectionConfig) (target db.ConnectionConfig, same bool, err error) {
	name := targetProfile
	if name == "" && cfg != nil {
		name = cfg.TargetProfile
	}

	target = source
	if name != "" {
		p, err := cfg.GetProfile(name)
		if err != nil {
			return db.ConnectionConfig{}, false, fmt.Errorf("target: %w", err)
		}
		target, err = p.ToConnectionConfig()
		if err != nil {
			return db.ConnectionConfig{}, false, fmt.Errorf("target: %w", err)
		}
	}
	if targetDatabase != "" {
		if isSQLite(target) {
			target.Path = targetDatabase
		} else {
			target.Database = targetDatabase
		}
	}

	return target, sameEndpoint(source, target), nil
}

func isSQLite(c db.ConnectionConfig) bool {
	return c.Type == db.DatabaseTypeSQLite || c.Type == "sqlite3"
}

func sameEndpoint(a, b db.ConnectionConfig) bool {
	if a.Type != b.Type {
		return false
	}
	if isSQLite(a) {
		return a.Path == b.Path && a.Database == b.Database
	}
	return a.Host == b.Host && a.Port == b.Port && a.Socket == b.Socket &&
		a.User == b.User && a.Database == b.Database
}

// promptPassword prompts for password if not provided
func promptPassword(label string) (string, error) {
	if password != "" {
		return password, nil
	}

	fmt.Fprintf(os.Stderr, "Enter password for %s: ", label)
	pwd, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pwd), nil
}

// open establishes a database connection, prompting for a missing password
func open(ctx context.Context, connCfg db.ConnectionConfig) (*db.Connection, error) {
	if !isSQLite(connCfg) && connCfg.Password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		pwd, err := promptPassword(connCfg.Label())
		if err != nil {
			return nil, err
		}
		connCfg.Password = pwd
	}

	logging.Debug("connecting to %s", connCfg.Label())
	return db.Connect(ctx, connCfg)
}

// connect opens the source connection
func connect(cmd *cobra.Command) (*db.Connection, error) {
	connCfg, err := getConnectionConfig(cmd)
	if err != nil {
		return nil, err
	}
	return open(cmd.Context(), connCfg)
}

// endpoints are the source and target stores of a clone. When both
// resolve to the same database they share one store so writes and reads
// go through a single connection.
type endpoints struct {
	source *db.Store
	target *db.Store
	conns  []*db.Connection
}

func (e *endpoints) Close() {
	for _, c := range e.conns {
		c.Close()
	}
}

func connectEndpoints(cmd *cobra.Command) (*endpoints, error) {
	srcCfg, err := getConnectionConfig(cmd)
	if err != nil {
		return nil, err
	}
	tgtCfg, same, err := getTargetConfig(srcCfg)
	if err != nil {
		return nil, err
	}

	src, err := open(cmd.Context(), srcCfg)
	if err != nil {
		return nil, fmt.Errorf("source connection failed: %w", err)
	}
	ep := &endpoints{conns: []*db.Connection{src}}
	ep.source = db.NewStore(src)

	if same {
		ep.target = ep.source
		return ep, nil
	}

	if tgtCfg.Password == "" && sameServer(srcCfg, tgtCfg) {
		tgtCfg.Password = src.Config.Password
	}
	tgt, err := open(cmd.Context(), tgtCfg)
	if err != nil {
		ep.Close()
		return nil, fmt.Errorf("target connection failed: %w", err)
	}
	ep.conns = append(ep.conns, tgt)
	ep.target = db.NewStore(tgt)
	return ep, nil
}

func sameServer(a, b db.ConnectionConfig) bool {
	return a.Type == b.Type && a.Host == b.Host && a.Port == b.Port &&
		a.Socket == b.Socket && a.User == b.User
}

// loadGraph returns the schema graph from --graph, the config file or the
// built-in mission graph
func loadGraph(path string) (*clone.Graph, error) {
	if path == "" && cfg != nil {
		path = cfg.GraphFile
	}
	if path == "" {
		g := clone.MissionGraph()
		return g, g.Validate()
	}
	logging.Debug("loading schema graph from %s", path)
	return clone.LoadGraph(path)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MCL (Mission Clone) v%s\n", Version)
		fmt.Println()
		fmt.Println("Copyright (C) 2025 blubskye")
		fmt.Println("License: GNU AGPL v3.0 <https://www.gnu.org/licenses/agpl-3.0.html>")
		fmt.Println("Source:  https://github.com/blubskye/mission_clone")
	},
}

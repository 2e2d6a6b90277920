package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pable/playcall/internal/config"
)

var (
	dbPath     string
	configFile string

	settings = config.New()
	cfg      *config.Config
)

// configFlags are flag names that override the config key of the same name
// (dashes become underscores).
var configFlags = map[string]bool{
	"db":           true,
	"log-level":    true,
	"strategy":     true,
	"shards":       true,
	"listen":       true,
	"redis-url":    true,
	"cache-ttl":    true,
	"cors-origins": true,
}

var rootCmd = &cobra.Command{
	Use:   "playcall",
	Short: "Play-call recommendations from historical play-by-play data",
	Long: `Ingest NFL play-by-play CSV exports and recommend a play call for a game
situation by ranking and aggregating what happened in similar historical spots.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", config.DefaultDBPath(), "path to SQLite database")
	pf.StringVar(&configFile, "config", "", "config file (yaml, toml, or json)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("strategy", "filter", "candidate source: filter or index")
	pf.Int("shards", 0, "split corpus scans across this many goroutines (0 = sequential)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(sqlCmd)
}

// loadConfig binds the running command's flags into viper and resolves cfg.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !configFlags[f.Name] || bindErr != nil {
			return
		}
		bindErr = settings.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	if bindErr != nil {
		return fmt.Errorf("bind flags: %w", bindErr)
	}

	loaded, err := config.Load(settings, configFile, ".env")
	if err != nil {
		return err
	}
	loaded.ApplyLogging()
	cfg = loaded
	dbPath = cfg.DB
	return nil
}

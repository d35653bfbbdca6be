// ghost is a persistent conversational agent daemon: it remembers,
// holds grudges, gets bored, and occasionally starts the conversation
// itself.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ghost/internal/config"
	"ghost/internal/logging"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ghost",
	Short: "ghost - a persistent autonomous companion agent",
	Long: `ghost runs a local conversational agent with persistent personality.

State that survives restarts: a belief graph with immutable genesis
identity, PAD emotional state with a grudge latch, time-decaying
autonomy drives, and hierarchical memory with semantic search.
Speech goes out paced like a human typing.

Run without arguments to start the daemon.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd.Context())
	},
}

// loadConfig is shared by every subcommand.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", e)
		}
		return nil, fmt.Errorf("invalid configuration (%d errors)", len(errs))
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.Initialize(cfg.LogDir(), level, cfg.Logging.Development)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ghost.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(runCmd, seedCmd, statusCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

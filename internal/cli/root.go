// Package cli implements the taskdash command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dsrs-analytics/taskdash/internal/config"
)

var (
	cfgFile string
	verbose bool
	jsonOut bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskdash",
	Short: "Asana task dashboard",
	Long: `taskdash charts the tasks of one Asana project by department and by
completion status.

Quick start:
  export ASANA_TOKEN=...        Personal access token
  export ASANA_PROJECT=...      Project gid
  taskdash serve                Open http://localhost:8501
  taskdash snapshot             Print the current numbers`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintError(err)
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./taskdash.yaml or ~/.taskdash/taskdash.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")

	// Add subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig reads configuration honoring --config.
func loadConfig() (*config.Loaded, error) {
	loaded, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		return nil, err
	}
	if verbose {
		if loaded.ConfigFile != "" {
			fmt.Fprintln(os.Stderr, "Using config file:", loaded.ConfigFile)
		}
		if loaded.EnvFile != "" {
			fmt.Fprintln(os.Stderr, "Using env file:", loaded.EnvFile)
		}
	}
	return loaded, nil
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dsrs-analytics/taskdash/internal/asana"
	"github.com/dsrs-analytics/taskdash/internal/config"
	dasherrors "github.com/dsrs-analytics/taskdash/internal/errors"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and check configuration",
		Long: `View and check taskdash configuration.

Configuration is loaded from multiple sources with this priority:
  1. Environment: ASANA_TOKEN, ASANA_PROJECT, TASKDASH_*
  2. .env in the working directory (never overrides the environment)
  3. taskdash.yaml in ./ or ~/.taskdash/, or --config
  4. Defaults: Built-in values

Subcommands:
  show      Show merged configuration (secrets masked)
  validate  Report missing or invalid settings`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show merged configuration",
		Long: `Show the merged configuration from all sources as YAML.

The Asana token and Redis password are masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return printConfig(cmd.OutOrStdout(), loaded)
		},
	}
}

func printConfig(w io.Writer, loaded *config.Loaded) error {
	if loaded.ConfigFile != "" {
		fmt.Fprintf(w, "# config file: %s\n", loaded.ConfigFile)
	}
	if loaded.EnvFile != "" {
		fmt.Fprintf(w, "# env file: %s\n", loaded.EnvFile)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(loaded.Config.Redacted()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// newConfigValidateCmd creates the 'config validate' subcommand.
func newConfigValidateCmd() *cobra.Command {
	var checkAuth bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration",
		Long: `Report every missing or invalid setting.

With --check-auth, also call the Asana API to verify the token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg := loaded.Config
			out := cmd.OutOrStdout()

			if err := cfg.Validate(); err != nil {
				problems := unjoin(err)
				for _, e := range problems {
					if de := dasherrors.AsDashError(e); de != nil {
						fmt.Fprintln(out, de.UserMessage())
					} else {
						fmt.Fprintln(out, e)
					}
					fmt.Fprintln(out)
				}
				return fmt.Errorf("configuration has %d problem(s)", len(problems))
			}

			if checkAuth {
				client := asana.NewClient(asana.ClientConfig{
					BaseURL:    cfg.Asana.BaseURL,
					Token:      cfg.Asana.Token,
					Timeout:    cfg.Asana.Timeout,
					MaxRetries: cfg.Asana.MaxRetries,
					Logger:     newLogger(os.Stderr, cfg.Logging, verbose),
				})
				name, err := client.CheckAuth(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Asana token OK (user: %s)\n", name)
			}

			fmt.Fprintln(out, "Configuration OK")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkAuth, "check-auth", false, "verify the Asana token against the API")

	return cmd
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}

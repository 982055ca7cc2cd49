// Package cli defines the Cobra command tree for devcli.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kstenerud/devcli/internal/config"
	"github.com/kstenerud/devcli/internal/prune"
)

// Command groups shown in help output.
const (
	groupResources = "resources"
	groupAdmin     = "admin"
)

// Execute runs the root command and returns the exit code.
func Execute(ctx context.Context, version, commit, date string) int {
	rootCmd := newRootCmd(version, commit, date, defaultBackends())

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if isJSON, _ := rootCmd.PersistentFlags().GetBool("json"); isJSON {
		writeJSONError(os.Stderr, err)
	} else {
		fmt.Fprintf(os.Stderr, "devcli: %s\n", err) //nolint:errcheck // best-effort stderr write
	}

	return exitCode(err)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return 2
	}

	var configErr *config.Error
	if errors.As(err, &configErr) {
		return 3
	}

	if errors.Is(err, prune.ErrBackendUnavailable) {
		return 4
	}

	return 1
}

// newRootCmd creates the root Cobra command with all subcommands registered.
func newRootCmd(version, commit, date string, b backends) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devcli",
		Short: "Developer and devops toolkit",
		Long: `Clean up unused Docker resources and empty S3 buckets, and manage
S3 buckets from the command line. Every destructive command can be previewed
with --dry-run and asks for confirmation unless --force is given.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: groupResources, Title: "Resource Commands:"},
		&cobra.Group{ID: groupAdmin, Title: "Administration:"},
	)

	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (-v for debug)")
	rootCmd.PersistentFlags().CountP("quiet", "q", "Suppress non-essential output (-q for warn, -qq for error only)")
	rootCmd.PersistentFlags().Bool("json", false, "Output machine-readable JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $DEVCLI_CONFIG or ~/.devcli/config.yaml)")

	registerCommands(rootCmd, version, commit, date, b)

	return rootCmd
}

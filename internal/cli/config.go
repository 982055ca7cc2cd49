package cli

// ABOUTME: CLI commands for inspecting the effective devcli configuration.

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Inspect configuration",
		GroupID: groupAdmin,
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets masked)",
		Long: `Print the configuration devcli would use: the config file merged over
built-in defaults. The AWS secret access key is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			redacted := e.cfg.Redacted()

			if jsonEnabled(cmd) {
				return writeJSON(cmd.OutOrStdout(), redacted)
			}
			data, err := redacted.Marshal()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			e.logger.Debug("config path resolved", "path", e.cfgPath)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), e.cfgPath)
			return err
		},
	}
}

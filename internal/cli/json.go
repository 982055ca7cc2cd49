package cli

// ABOUTME: --json output for devcli: prune outcomes, bucket listings and
// ABOUTME: config dumps go to stdout as JSON, failures to stderr as {"error": ...}.

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// jsonEnabled reports whether --json is set. The flag is persistent on the
// root, so cmd.Flag finds it from any subcommand.
func jsonEnabled(cmd *cobra.Command) bool {
	f := cmd.Flag("json")
	return f != nil && f.Value.String() == "true"
}

// writeJSON writes v as two-space indented JSON plus a newline, one document
// per command so output can be piped straight into jq.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// writeJSONError is how a failed command reports under --json.
func writeJSONError(w io.Writer, err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	fmt.Fprintf(w, "%s\n", data) //nolint:errcheck // best-effort stderr write
}

// requireForceForJSON rejects --json on a destructive command unless
// --force or --dry-run means no confirmation prompt will be shown.
func requireForceForJSON(cmd *cobra.Command) error {
	if !jsonEnabled(cmd) {
		return nil
	}
	force, _ := cmd.Flags().GetBool("force")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !force && !dryRun {
		return NewUsageError("--json requires --force or --dry-run to skip confirmation prompts")
	}
	return nil
}

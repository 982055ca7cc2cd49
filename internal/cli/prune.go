package cli

// ABOUTME: Shared `prune` subcommand: parses class/filters, runs the engine,
// ABOUTME: and renders each class outcome as text or JSON.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kstenerud/devcli/internal/prompt"
	"github.com/kstenerud/devcli/internal/prune"
)

// pruneCmdOptions describes one backend's prune command.
type pruneCmdOptions struct {
	short        string
	long         string
	example      string
	defaultClass prune.Class // used when no class argument is given; "" = required
	allImages    bool        // register --all (remove every unused image)
	run          func(cmd *cobra.Command, fn pruneFunc) error
}

// pruneFunc runs against a connected backend.
type pruneFunc func(ctx context.Context, e *env, be pruneBackend) error

func newPruneCmd(opts pruneCmdOptions) *cobra.Command {
	args := cobra.ExactArgs(1)
	use := "prune <class>"
	if opts.defaultClass != "" {
		args = cobra.MaximumNArgs(1)
		use = "prune [class]"
	}

	cmd := &cobra.Command{
		Use:     use,
		Short:   opts.short,
		Long:    opts.long,
		Example: opts.example,
		Args:    args,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := pruneRequest(cmd, args, opts)
			if err != nil {
				return err
			}
			if err := requireForceForJSON(cmd); err != nil {
				return err
			}
			if !req.DryRun && !req.Force {
				if err := requireTerminal(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			return opts.run(cmd, func(ctx context.Context, e *env, be pruneBackend) error {
				return runPrune(ctx, cmd, e, be, req)
			})
		},
	}

	cmd.Flags().Bool("dry-run", false, "Show what would be removed without removing anything")
	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompts")
	cmd.Flags().StringArray("filter", nil, "Filter candidates (key=value, repeatable)")
	cmd.Flags().Int("workers", 0, "Concurrent deletions per class, 1-8 (default from config)")
	cmd.Flags().Duration("timeout", 0, "Abort after this long, e.g. 5m (default from config)")
	if opts.allImages {
		cmd.Flags().Bool("all", false, "Remove all unused images, not just dangling ones (images only)")
	}

	return cmd
}

// pruneRequest builds the engine request from arguments and flags.
func pruneRequest(cmd *cobra.Command, args []string, opts pruneCmdOptions) (prune.Request, error) {
	class := opts.defaultClass
	if len(args) > 0 {
		var err error
		class, err = prune.ParseClass(args[0])
		if err != nil {
			return prune.Request{}, unknownClassError(args[0], err)
		}
	}

	rawFilters, _ := cmd.Flags().GetStringArray("filter")
	filter, err := prune.ParseFilter(rawFilters)
	if err != nil {
		return prune.Request{}, &UsageError{Err: err}
	}

	// dangling=false means "in use" for volumes and networks, so --all
	// cannot ride along with the other classes of an all request.
	if all, _ := cmd.Flags().GetBool("all"); all {
		if class != prune.ClassImages {
			return prune.Request{}, NewUsageError("--all only applies to the images class")
		}
		filter = filter.With("dangling", "false")
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	return prune.Request{Class: class, DryRun: dryRun, Force: force, Filter: filter}, nil
}

func runPrune(ctx context.Context, cmd *cobra.Command, e *env, be pruneBackend, req prune.Request) error {
	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = e.cfg.Prune.Workers
	}
	if workers < 1 || workers > prune.MaxWorkers {
		return NewUsageError("--workers must be between 1 and %d", prune.MaxWorkers)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = e.cfg.Prune.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	isJSON := jsonEnabled(cmd)
	output := cmd.OutOrStdout()
	prompter := prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr())

	engineOpts := []prune.Option{
		prune.WithConfirmer(prompter.Confirmer()),
		prune.WithWorkers(workers),
	}
	if !isJSON {
		engineOpts = append(engineOpts, prune.WithObserver(func(o prune.Outcome) {
			renderOutcome(output, o)
		}))
	}

	e.logger.Debug("prune starting",
		"class", req.Class, "dry_run", req.DryRun, "force", req.Force,
		"filter", req.Filter.String(), "workers", workers, "timeout", timeout)
	start := time.Now()

	outcomes, err := prune.New(be, engineOpts...).Prune(ctx, req)
	if err != nil {
		if errors.Is(err, prune.ErrUnsupportedClass) {
			return &UsageError{Err: err}
		}
		if ctx.Err() != nil {
			return fmt.Errorf("prune aborted: %w", err)
		}
		return err
	}

	e.logger.Debug("prune complete", "classes", len(outcomes), "elapsed", time.Since(start))

	if isJSON {
		if err := writeJSON(output, outcomesJSON(outcomes)); err != nil {
			return err
		}
	} else if len(outcomes) == 0 {
		fmt.Fprintln(output, "Nothing to prune.") //nolint:errcheck // best-effort output
	}

	if err := outcomesError(outcomes); err != nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("prune aborted: %w", ctxErr)
	}
	return nil
}

// renderOutcome prints one class outcome. Every status has its own
// wording so a preview, an empty class and a declined prompt never look
// alike.
func renderOutcome(w io.Writer, o prune.Outcome) {
	noun := string(o.Class)
	switch o.Status {
	case prune.StatusDryRun:
		if o.Requested == 0 {
			fmt.Fprintf(w, "[dry-run] No unused %s to remove.\n", noun) //nolint:errcheck // best-effort output
			return
		}
		fmt.Fprintf(w, "[dry-run] Would remove %d %s:\n", o.Requested, noun) //nolint:errcheck // best-effort output
		for _, c := range o.Affected {
			fmt.Fprintf(w, "  %s\n", describe(c)) //nolint:errcheck // best-effort output
		}

	case prune.StatusEmpty:
		fmt.Fprintf(w, "No unused %s to remove.\n", noun) //nolint:errcheck // best-effort output

	case prune.StatusCancelled:
		fmt.Fprintf(w, "Cancelled: %d %s left in place.\n", o.Requested, noun) //nolint:errcheck // best-effort output

	case prune.StatusListFailed:
		fmt.Fprintf(w, "Could not list %s: %s\n", noun, o.Error) //nolint:errcheck // best-effort output

	case prune.StatusCompleted, prune.StatusInterrupted:
		if o.Status == prune.StatusInterrupted {
			fmt.Fprintf(w, "Interrupted: removed %d of %d %s.\n", len(o.Affected), o.Requested, noun) //nolint:errcheck // best-effort output
		} else {
			fmt.Fprintf(w, "Removed %d of %d %s.\n", len(o.Affected), o.Requested, noun) //nolint:errcheck // best-effort output
		}
		for _, c := range o.Affected {
			fmt.Fprintf(w, "  removed %s\n", describe(c)) //nolint:errcheck // best-effort output
		}
		for _, f := range o.Failures {
			fmt.Fprintf(w, "  failed  %s (%s): %s\n", describe(f.Resource), f.Kind, f.Message) //nolint:errcheck // best-effort output
		}
	}
}

// describe renders a candidate as "name (short-id)" or just the ID.
func describe(c prune.Candidate) string {
	if c.Name == "" || c.Name == c.ID {
		return c.ID
	}
	return fmt.Sprintf("%s (%s)", c.Name, shortID(c.ID))
}

func shortID(id string) string {
	const prefix = "sha256:"
	if len(id) > len(prefix) && id[:len(prefix)] == prefix {
		id = id[len(prefix):]
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// outcomesError turns partial failures into a non-zero exit.
func outcomesError(outcomes []prune.Outcome) error {
	var failed, listFailed int
	interrupted := false
	for _, o := range outcomes {
		failed += len(o.Failures)
		switch o.Status {
		case prune.StatusListFailed:
			listFailed++
		case prune.StatusInterrupted:
			interrupted = true
		}
	}

	switch {
	case interrupted:
		return errors.New("prune interrupted before all resources were removed")
	case failed > 0 && listFailed > 0:
		return fmt.Errorf("%d resource(s) could not be removed and %d class(es) could not be listed", failed, listFailed)
	case failed > 0:
		return fmt.Errorf("%d resource(s) could not be removed", failed)
	case listFailed > 0:
		return fmt.Errorf("%d class(es) could not be listed", listFailed)
	}
	return nil
}

type resourceJSON struct {
	ID       string            `json:"id"`
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type failureJSON struct {
	resourceJSON
	Kind    prune.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

type outcomeJSON struct {
	Class     prune.Class    `json:"class"`
	Status    prune.Status   `json:"status"`
	DryRun    bool           `json:"dry_run"`
	Requested int            `json:"requested"`
	Affected  []resourceJSON `json:"affected"`
	Failures  []failureJSON  `json:"failures"`
	Error     string         `json:"error,omitempty"`
}

func outcomesJSON(outcomes []prune.Outcome) []outcomeJSON {
	out := make([]outcomeJSON, 0, len(outcomes))
	for _, o := range outcomes {
		j := outcomeJSON{
			Class:     o.Class,
			Status:    o.Status,
			DryRun:    o.DryRun,
			Requested: o.Requested,
			Affected:  make([]resourceJSON, 0, len(o.Affected)),
			Failures:  make([]failureJSON, 0, len(o.Failures)),
			Error:     o.Error,
		}
		for _, c := range o.Affected {
			j.Affected = append(j.Affected, toResourceJSON(c))
		}
		for _, f := range o.Failures {
			j.Failures = append(j.Failures, failureJSON{
				resourceJSON: toResourceJSON(f.Resource),
				Kind:         f.Kind,
				Message:      f.Message,
			})
		}
		out = append(out, j)
	}
	return out
}

func toResourceJSON(c prune.Candidate) resourceJSON {
	return resourceJSON{ID: c.ID, Name: c.Name, Metadata: c.Metadata}
}

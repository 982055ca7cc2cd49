package cli

// ABOUTME: `devcli docker` commands for cleaning up unused Docker resources.

import (
	"github.com/spf13/cobra"
)

func newDockerCmd(b backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docker",
		Short:   "Clean up unused Docker resources",
		GroupID: groupResources,
	}

	cmd.AddCommand(newPruneCmd(pruneCmdOptions{
		short: "Remove unused containers, images, volumes or networks",
		long: `Remove unused Docker resources of one class, or of every class with "all".

Classes (aliases in parentheses):
  containers (c)  stopped containers (status=exited unless --filter status=...)
  images     (i)  dangling images, or every unused image with --all
  volumes    (v)  volumes no container references
  networks   (n)  user-defined networks no container is attached to
  all        (a)  every class above, in that order (default filters only)

Nothing is force-removed: a resource that comes into use after listing is
reported as busy and left alone. --filter takes Docker list filters
(label=..., status=...) plus until=<duration|RFC3339>.`,
		example: `  devcli docker prune all --dry-run
  devcli docker prune c --force
  devcli docker prune images --all --filter until=168h`,
		allImages: true,
		run: func(cmd *cobra.Command, fn pruneFunc) error {
			return withDocker(cmd, b, fn)
		},
	}))

	return cmd
}

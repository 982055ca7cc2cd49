package cli

// ABOUTME: `devcli aws s3` commands: list, inspect, create and delete buckets,
// ABOUTME: and prune empty ones through the shared prune command.

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kstenerud/devcli/internal/bucket"
	"github.com/kstenerud/devcli/internal/prompt"
	"github.com/kstenerud/devcli/internal/prune"
)

const timeLayout = "2006-01-02 15:04:05"

func newAWSCmd(b backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "aws",
		Short:   "Automate AWS tasks",
		GroupID: groupResources,
	}
	cmd.AddCommand(newS3Cmd(b))
	return cmd
}

func newS3Cmd(b backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "s3",
		Short: "Manage S3 buckets",
		Long: `Manage S3 buckets. Credentials and region come from the aws section of
config.yaml, falling back to the standard AWS environment variables and
shared config files.`,
	}

	cmd.AddCommand(
		newS3BucketsCmd(b),
		newS3LsCmd(b),
		newS3CreateCmd(b),
		newS3DeleteCmd(b),
		newPruneCmd(pruneCmdOptions{
			short: "Remove empty S3 buckets",
			long: `Remove every empty S3 bucket the credentials can see.

Use --filter prefix=<p> to restrict pruning to buckets whose name starts with p.
A bucket that receives objects after listing fails with BucketNotEmpty and is
reported as busy.`,
			example: `  devcli aws s3 prune --dry-run
  devcli aws s3 prune --filter prefix=tmp- --force`,
			defaultClass: prune.ClassBuckets,
			run: func(cmd *cobra.Command, fn pruneFunc) error {
				return withS3(cmd, b, func(ctx context.Context, e *env, s bucketStore) error {
					return fn(ctx, e, s)
				})
			},
		}),
	)

	return cmd
}

func newS3BucketsCmd(b backends) *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "List all S3 buckets in your AWS account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withS3(cmd, b, func(ctx context.Context, e *env, s bucketStore) error {
				buckets, err := s.Buckets(ctx)
				if err != nil {
					return err
				}
				e.logger.Debug("buckets listed", "count", len(buckets))

				out := cmd.OutOrStdout()
				if jsonEnabled(cmd) {
					if buckets == nil {
						buckets = []bucket.Bucket{}
					}
					return writeJSON(out, buckets)
				}

				if len(buckets) == 0 {
					_, err := fmt.Fprintln(out, "No S3 buckets found in your AWS account.")
					return err
				}
				fmt.Fprintln(out, "Existing S3 buckets:") //nolint:errcheck // best-effort output
				for i, bkt := range buckets {
					created := "Unknown date"
					if !bkt.Created.IsZero() {
						created = bkt.Created.Format(timeLayout)
					}
					fmt.Fprintf(out, "\t%d: %s\n\t   └─ Created on: %s\n", i+1, bkt.Name, created) //nolint:errcheck // best-effort output
				}
				return nil
			})
		},
	}
}

func newS3LsCmd(b backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List objects inside an S3 bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("bucket-name")
			return withS3(cmd, b, func(ctx context.Context, _ *env, s bucketStore) error {
				objects, err := s.Objects(ctx, name)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonEnabled(cmd) {
					if objects == nil {
						objects = []bucket.Object{}
					}
					return writeJSON(out, objects)
				}

				if len(objects) == 0 {
					_, err := fmt.Fprintf(out, "No objects found in bucket '%s'.\n", name)
					return err
				}
				fmt.Fprintf(out, "Objects in bucket '%s':\n", name) //nolint:errcheck // best-effort output
				for _, obj := range objects {
					fmt.Fprintf(out, "  ├─ %s | %d bytes | Last modified: %s\n", //nolint:errcheck // best-effort output
						obj.Key, obj.Size, obj.LastModified.Format(timeLayout))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("bucket-name", "b", "", "Name of the bucket to list objects from")
	_ = cmd.MarkFlagRequired("bucket-name")

	return cmd
}

func newS3CreateCmd(b backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new S3 bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("bucket-name")
			region, _ := cmd.Flags().GetString("region")
			return withS3(cmd, b, func(ctx context.Context, _ *env, s bucketStore) error {
				if region == "" {
					region = s.Region()
				}
				if err := s.Create(ctx, name, region); err != nil {
					return err
				}

				if jsonEnabled(cmd) {
					return writeJSON(cmd.OutOrStdout(), map[string]string{
						"bucket": name,
						"region": region,
						"action": "created",
					})
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "S3 bucket '%s' created successfully in region: '%s'\n", name, displayRegion(region))
				return err
			})
		},
	}

	cmd.Flags().StringP("bucket-name", "b", "", "The name of the bucket to create")
	cmd.Flags().StringP("region", "r", "", "AWS region for the bucket (default: the region resolved from config, profile or environment)")
	_ = cmd.MarkFlagRequired("bucket-name")

	return cmd
}

func newS3DeleteCmd(b backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an existing, empty S3 bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("bucket-name")
			region, _ := cmd.Flags().GetString("region")
			force, _ := cmd.Flags().GetBool("force")

			if err := requireForceForJSON(cmd); err != nil {
				return err
			}
			if !force {
				if err := requireTerminal(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			return withS3(cmd, b, func(ctx context.Context, _ *env, s bucketStore) error {
				if !force {
					confirmed, err := prompt.Confirm(ctx, fmt.Sprintf("Delete bucket '%s'? [y/N] ", name), cmd.InOrStdin(), cmd.ErrOrStderr())
					if err != nil {
						return err
					}
					if !confirmed {
						_, err := fmt.Fprintf(cmd.OutOrStdout(), "Cancelled: bucket '%s' left in place.\n", name)
						return err
					}
				}

				if err := s.Remove(ctx, name, region); err != nil {
					return err
				}

				if jsonEnabled(cmd) {
					return writeJSON(cmd.OutOrStdout(), map[string]string{
						"bucket": name,
						"action": "deleted",
					})
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Bucket '%s' successfully deleted\n", name)
				return err
			})
		},
	}

	cmd.Flags().StringP("bucket-name", "b", "", "The name of the bucket to delete")
	cmd.Flags().StringP("region", "r", "", "AWS region the bucket lives in (default from config or environment)")
	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	_ = cmd.MarkFlagRequired("bucket-name")

	return cmd
}

func displayRegion(region string) string {
	if region == "" {
		return bucket.DefaultRegion
	}
	return region
}

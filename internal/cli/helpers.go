package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kstenerud/devcli/internal/bucket"
	"github.com/kstenerud/devcli/internal/config"
	"github.com/kstenerud/devcli/internal/docker"
	"github.com/kstenerud/devcli/internal/prune"
)

// env is the per-invocation state shared by commands.
type env struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
}

// pruneBackend is a prune.Backend that holds a connection.
type pruneBackend interface {
	prune.Backend
	Close() error
}

// bucketStore is the bucket management surface used by the S3 commands.
type bucketStore interface {
	pruneBackend
	Region() string
	Buckets(ctx context.Context) ([]bucket.Bucket, error)
	Objects(ctx context.Context, name string) ([]bucket.Object, error)
	Create(ctx context.Context, name, region string) error
	Remove(ctx context.Context, name, region string) error
}

// backends constructs the backends commands operate on.
type backends struct {
	docker func(ctx context.Context, e *env) (pruneBackend, error)
	s3     func(ctx context.Context, e *env) (bucketStore, error)
}

func defaultBackends() backends {
	return backends{
		docker: func(_ context.Context, e *env) (pruneBackend, error) {
			client, err := docker.NewClient(docker.Options{Host: e.cfg.Docker.Host})
			if err != nil {
				return nil, err
			}
			return docker.NewBackend(client, e.logger.With("backend", "docker")), nil
		},
		s3: func(ctx context.Context, e *env) (bucketStore, error) {
			be, err := bucket.New(ctx, e.cfg.AWS, e.logger.With("backend", "s3"))
			if err != nil {
				return nil, err
			}
			return be, nil
		},
	}
}

// loadEnv reads the config file named by --config (or the default path)
// and builds the logger.
func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetCount("verbose")
	quiet, _ := cmd.Flags().GetCount("quiet")
	logger := newLogger(cmd.ErrOrStderr(), cfg, verbose, quiet)

	return &env{cfg: cfg, cfgPath: path, logger: logger}, nil
}

// newLogger builds the invocation logger. -v forces debug; -q and -qq
// raise the threshold to warn and error.
func newLogger(w io.Writer, cfg *config.Config, verbose, quiet int) *slog.Logger {
	level := parseLevel(cfg.LogLevel)
	switch {
	case verbose > 0:
		level = slog.LevelDebug
	case quiet == 1:
		level = slog.LevelWarn
	case quiet > 1:
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// withDocker connects to Docker, calls fn, and ensures cleanup.
func withDocker(cmd *cobra.Command, b backends, fn pruneFunc) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	be, err := b.docker(ctx, e)
	if err != nil {
		return err
	}
	defer be.Close() //nolint:errcheck // best-effort cleanup
	return fn(ctx, e, be)
}

// withS3 builds the S3 backend, calls fn, and ensures cleanup.
func withS3(cmd *cobra.Command, b backends, fn func(ctx context.Context, e *env, s bucketStore) error) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	s, err := b.s3(ctx, e)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck // best-effort cleanup
	return fn(ctx, e, s)
}

// requireTerminal fails when a prompt would be needed but stdin is a
// non-interactive file (pipe, /dev/null). Readers other than *os.File are
// assumed to be supplied on purpose.
func requireTerminal(in io.Reader) error {
	f, ok := in.(*os.File)
	if !ok {
		return nil
	}
	if !term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd conversion is safe on all supported platforms
		return NewUsageError("stdin is not a terminal, use --force to skip confirmation or --dry-run to preview")
	}
	return nil
}

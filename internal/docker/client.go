// Package docker wraps the Docker SDK for devcli's resource operations.
package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	dockerclient "github.com/docker/docker/client"
)

// Client wraps the subset of Docker SDK methods used by devcli.
// Defined as an interface so the prune backend can be tested without a
// running daemon.
type Client interface {
	// Containers
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error

	// Images
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)

	// Volumes
	VolumeList(ctx context.Context, options volume.ListOptions) (volume.ListResponse, error)
	VolumeRemove(ctx context.Context, volumeID string, force bool) error

	// Networks
	NetworkList(ctx context.Context, options network.ListOptions) ([]network.Summary, error)
	NetworkRemove(ctx context.Context, networkID string) error

	// Connection
	Ping(ctx context.Context) (types.Ping, error)
	Close() error
}

// Compile-time check: *dockerclient.Client satisfies Client interface.
var _ Client = (*dockerclient.Client)(nil)

// Options configures how the Docker client connects.
type Options struct {
	// Host overrides DOCKER_HOST (e.g. unix:///var/run/docker.sock).
	Host string
}

// NewClient creates a Docker client. It does not contact the daemon;
// reachability is checked by the prune engine through Ping so that an
// unreachable daemon is reported as such rather than as an empty result.
func NewClient(opts Options) (Client, error) {
	clientOpts := []dockerclient.Opt{
		dockerclient.FromEnv,
		dockerclient.WithAPIVersionNegotiation(),
	}
	if opts.Host != "" {
		clientOpts = append(clientOpts, dockerclient.WithHost(opts.Host))
	}

	cli, err := dockerclient.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create Docker client: %w", err)
	}
	return cli, nil
}

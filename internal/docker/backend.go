package docker

// ABOUTME: prune.Backend over the Docker engine: lists unused containers,
// ABOUTME: images, volumes and networks and removes them one at a time.

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	dockerclient "github.com/docker/docker/client"
	"github.com/hashicorp/go-version"

	"github.com/kstenerud/devcli/internal/prune"
)

// MinAPIVersion is the oldest daemon API the backend supports. Older
// daemons lack the dangling filter on network and volume listings.
const MinAPIVersion = "1.31"

// Filter keys handled by the backend rather than the daemon.
const (
	filterUntil    = "until"
	filterDangling = "dangling"
)

// Networks the daemon creates itself and never allows removing.
var predefinedNetworks = map[string]bool{
	"bridge":  true,
	"host":    true,
	"none":    true,
	"ingress": true,
}

// Backend prunes Docker resources.
type Backend struct {
	client Client
	logger *slog.Logger
	now    func() time.Time
}

// Compile-time check.
var _ prune.Backend = (*Backend)(nil)

// NewBackend wraps client. The backend owns the client; call Close when done.
func NewBackend(client Client, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{client: client, logger: logger, now: time.Now}
}

// Close releases the underlying client.
func (b *Backend) Close() error {
	return b.client.Close()
}

// Ping checks the daemon is reachable and new enough.
func (b *Backend) Ping(ctx context.Context) error {
	ping, err := b.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("docker daemon is not responding, start Docker Desktop or run 'sudo systemctl start docker': %w", err)
	}
	if ping.APIVersion == "" {
		return nil
	}

	have, err := version.NewVersion(ping.APIVersion)
	if err != nil {
		return fmt.Errorf("parse daemon API version %q: %w", ping.APIVersion, err)
	}
	if have.LessThan(version.Must(version.NewVersion(MinAPIVersion))) {
		return fmt.Errorf("docker daemon API %s is older than the minimum supported %s", have, MinAPIVersion)
	}
	b.logger.Debug("docker daemon reachable", "api_version", ping.APIVersion, "os", ping.OSType)
	return nil
}

// Classes implements prune.Backend.
func (b *Backend) Classes() []prune.Class {
	return []prune.Class{prune.ClassContainers, prune.ClassImages, prune.ClassVolumes, prune.ClassNetworks}
}

// List implements prune.Backend.
func (b *Backend) List(ctx context.Context, class prune.Class, filter prune.Filter) ([]prune.Candidate, error) {
	until, _ := filter.Get(filterUntil)
	cutoff, err := parseUntil(until, b.now())
	if err != nil {
		return nil, err
	}
	filter = filter.Without(filterUntil)

	var out []prune.Candidate
	switch class {
	case prune.ClassContainers:
		out, err = b.listContainers(ctx, filter.WithDefault("status", "exited"))
	case prune.ClassImages:
		out, err = b.listImages(ctx, filter.WithDefault(filterDangling, "true"))
	case prune.ClassVolumes:
		out, err = b.listVolumes(ctx, filter.WithDefault(filterDangling, "true"))
	case prune.ClassNetworks:
		out, err = b.listNetworks(ctx, filter.WithDefault(filterDangling, "true"))
	default:
		return nil, fmt.Errorf("%w: %s", prune.ErrUnsupportedClass, class)
	}
	if err != nil {
		return nil, err
	}

	if !cutoff.IsZero() {
		out = createdBefore(out, cutoff)
	}
	b.logger.Debug("listed prune candidates", "class", class, "filter", filter.String(), "count", len(out))
	return out, nil
}

func (b *Backend) listContainers(ctx context.Context, filter prune.Filter) ([]prune.Candidate, error) {
	containers, err := b.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: toArgs(filter),
	})
	if err != nil {
		return nil, listError("containers", err)
	}

	out := make([]prune.Candidate, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			// Container names include a leading "/".
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, prune.Candidate{
			ID:    c.ID,
			Class: prune.ClassContainers,
			Name:  name,
			Metadata: map[string]string{
				"image":   c.Image,
				"state":   string(c.State),
				"status":  c.Status,
				"created": unixTime(c.Created),
			},
		})
	}
	return out, nil
}

// listImages honours dangling=false as "every image no container uses",
// matching docker image prune --all.
func (b *Backend) listImages(ctx context.Context, filter prune.Filter) ([]prune.Candidate, error) {
	dangling, _ := filter.Get(filterDangling)
	allUnused := dangling == "false"
	if allUnused {
		filter = filter.Without(filterDangling)
	}

	images, err := b.client.ImageList(ctx, image.ListOptions{Filters: toArgs(filter)})
	if err != nil {
		return nil, listError("images", err)
	}

	var inUse map[string]bool
	if allUnused {
		inUse, err = b.imagesInUse(ctx)
		if err != nil {
			return nil, err
		}
	}

	out := make([]prune.Candidate, 0, len(images))
	for _, img := range images {
		if inUse[img.ID] {
			continue
		}
		tags := imageTags(img.RepoTags)
		name := ""
		if len(tags) > 0 {
			name = tags[0]
		}
		out = append(out, prune.Candidate{
			ID:    img.ID,
			Class: prune.ClassImages,
			Name:  name,
			Metadata: map[string]string{
				"size":    strconv.FormatInt(img.Size, 10),
				"created": unixTime(img.Created),
				"tags":    strings.Join(tags, ","),
			},
		})
	}
	return out, nil
}

func (b *Backend) imagesInUse(ctx context.Context) (map[string]bool, error) {
	containers, err := b.client.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, listError("containers", err)
	}
	inUse := make(map[string]bool, len(containers))
	for _, c := range containers {
		inUse[c.ImageID] = true
	}
	return inUse, nil
}

func (b *Backend) listVolumes(ctx context.Context, filter prune.Filter) ([]prune.Candidate, error) {
	resp, err := b.client.VolumeList(ctx, volume.ListOptions{Filters: toArgs(filter)})
	if err != nil {
		return nil, listError("volumes", err)
	}

	out := make([]prune.Candidate, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		if v == nil {
			continue
		}
		out = append(out, prune.Candidate{
			ID:    v.Name,
			Class: prune.ClassVolumes,
			Metadata: map[string]string{
				"driver":  v.Driver,
				"created": v.CreatedAt,
			},
		})
	}
	return out, nil
}

func (b *Backend) listNetworks(ctx context.Context, filter prune.Filter) ([]prune.Candidate, error) {
	networks, err := b.client.NetworkList(ctx, network.ListOptions{Filters: toArgs(filter)})
	if err != nil {
		return nil, listError("networks", err)
	}

	out := make([]prune.Candidate, 0, len(networks))
	for _, n := range networks {
		if predefinedNetworks[n.Name] || n.Ingress {
			continue
		}
		created := ""
		if !n.Created.IsZero() {
			created = n.Created.UTC().Format(time.RFC3339)
		}
		out = append(out, prune.Candidate{
			ID:    n.ID,
			Class: prune.ClassNetworks,
			Name:  n.Name,
			Metadata: map[string]string{
				"driver":  n.Driver,
				"scope":   n.Scope,
				"created": created,
			},
		})
	}
	return out, nil
}

// Delete implements prune.Backend. Nothing is force-removed: a resource
// that became busy after listing is reported as a conflict.
func (b *Backend) Delete(ctx context.Context, res prune.Candidate) error {
	var err error
	switch res.Class {
	case prune.ClassContainers:
		err = b.client.ContainerRemove(ctx, res.ID, container.RemoveOptions{})
	case prune.ClassImages:
		err = b.removeImage(ctx, res)
	case prune.ClassVolumes:
		err = b.client.VolumeRemove(ctx, res.ID, false)
	case prune.ClassNetworks:
		err = networkRemoveError(b.client.NetworkRemove(ctx, res.ID))
	default:
		return fmt.Errorf("%w: %s", prune.ErrUnsupportedClass, res.Class)
	}
	if err != nil {
		b.logger.Debug("remove failed", "class", res.Class, "id", res.ID, "error", err)
		return fmt.Errorf("remove %s %s: %w", res.Class.Singular(), res.Label(), err)
	}
	b.logger.Debug("removed", "class", res.Class, "id", res.ID)
	return nil
}

// removeImage removes an image by ID, or one reference at a time when it
// carries several tags: the daemon refuses an unforced removal by ID of an
// image referenced by more than one repository. Untagging the last
// reference deletes the image.
func (b *Backend) removeImage(ctx context.Context, res prune.Candidate) error {
	opts := image.RemoveOptions{PruneChildren: true}
	var tags []string
	if t := res.Metadata["tags"]; t != "" {
		tags = strings.Split(t, ",")
	}
	if len(tags) < 2 {
		_, err := b.client.ImageRemove(ctx, res.ID, opts)
		return err
	}
	for _, tag := range tags {
		if _, err := b.client.ImageRemove(ctx, tag, opts); err != nil {
			return err
		}
	}
	return nil
}

// listError marks connection failures so the engine aborts the request
// instead of reporting a per-class listing failure.
func listError(what string, err error) error {
	if dockerclient.IsErrConnectionFailed(err) {
		return fmt.Errorf("list %s: %w: %w", what, prune.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("list %s: %w", what, err)
}

func toArgs(filter prune.Filter) filters.Args {
	args := filters.NewArgs()
	for k, v := range filter {
		args.Add(k, v)
	}
	return args
}

// parseUntil accepts a Go duration ("24h", relative to now), an RFC3339
// timestamp or a Unix timestamp in seconds, like docker's until filter.
func parseUntil(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid until value %q (want a duration, RFC3339 time or Unix seconds)",
		cerrdefs.ErrInvalidArgument, value)
}

// createdBefore keeps candidates whose "created" metadata is older than
// cutoff. Candidates without a parseable creation time are dropped.
func createdBefore(in []prune.Candidate, cutoff time.Time) []prune.Candidate {
	out := in[:0]
	for _, c := range in {
		created, err := time.Parse(time.RFC3339, c.Metadata["created"])
		if err != nil {
			continue
		}
		if created.Before(cutoff) {
			out = append(out, c)
		}
	}
	return out
}

func unixTime(secs int64) string {
	if secs == 0 {
		return ""
	}
	return time.Unix(secs, 0).UTC().Format(time.RFC3339)
}

// imageTags drops the placeholder tag the daemon reports for untagged images.
func imageTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t != "<none>:<none>" {
			out = append(out, t)
		}
	}
	return out
}

// activeEndpointsError is a network removal refused because containers are
// still attached. The daemon answers 403 for it; the network is busy.
type activeEndpointsError struct {
	error
}

func (e activeEndpointsError) Unwrap() []error {
	return []error{e.error, cerrdefs.ErrConflict}
}

func networkRemoveError(err error) error {
	if err != nil && cerrdefs.IsPermissionDenied(err) && strings.Contains(err.Error(), "active endpoints") {
		return activeEndpointsError{err}
	}
	return err
}

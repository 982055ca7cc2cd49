package prune

import (
	"context"
	"errors"
	"fmt"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClass(t *testing.T) {
	tests := []struct {
		in   string
		want Class
	}{
		{"containers", ClassContainers},
		{"c", ClassContainers},
		{"stopped-container", ClassContainers},
		{"I", ClassImages},
		{"dangling-image", ClassImages},
		{" volumes ", ClassVolumes},
		{"unused-network", ClassNetworks},
		{"bucket", ClassBuckets},
		{"a", ClassAll},
		{"all", ClassAll},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClass(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClass_Unknown(t *testing.T) {
	_, err := ParseClass("pods")
	require.ErrorIs(t, err, ErrUnsupportedClass)
	assert.Contains(t, err.Error(), "pods")
}

func TestClass_Singular(t *testing.T) {
	assert.Equal(t, "container", ClassContainers.Singular())
	assert.Equal(t, "bucket", ClassBuckets.Singular())
	assert.Equal(t, "all", ClassAll.Singular())
}

func TestExpand(t *testing.T) {
	supported := []Class{ClassNetworks, ClassContainers, ClassImages}

	got, err := expand(ClassAll, supported)
	require.NoError(t, err)
	assert.Equal(t, []Class{ClassContainers, ClassImages, ClassNetworks}, got)

	got, err = expand(ClassImages, supported)
	require.NoError(t, err)
	assert.Equal(t, []Class{ClassImages}, got)

	_, err = expand(ClassVolumes, supported)
	assert.ErrorIs(t, err, ErrUnsupportedClass)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]string{"status=exited", "label=env=dev", "dangling = true"})
	require.NoError(t, err)
	assert.Equal(t, Filter{"status": "exited", "label": "env=dev", "dangling": "true"}, f)

	f, err = ParseFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = ParseFilter([]string{"nokey"})
	assert.Error(t, err)

	_, err = ParseFilter([]string{"=value"})
	assert.Error(t, err)
}

func TestFilter_CopyOnWrite(t *testing.T) {
	orig := Filter{"status": "created"}

	withDefault := orig.WithDefault("status", "exited")
	assert.Equal(t, "created", withDefault["status"])

	added := orig.WithDefault("dangling", "true")
	assert.Equal(t, "true", added["dangling"])
	_, leaked := orig["dangling"]
	assert.False(t, leaked)

	removed := orig.Without("status")
	assert.Empty(t, removed)
	assert.Equal(t, "created", orig["status"])

	var nilFilter Filter
	assert.Equal(t, Filter{"a": "b"}, nilFilter.With("a", "b"))
	assert.Nil(t, nilFilter.Clone())
}

func TestFilter_String(t *testing.T) {
	assert.Equal(t, "dangling=true,label=x", Filter{"label": "x", "dangling": "true"}.String())
	assert.Equal(t, "", Filter(nil).String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"conflict", fmt.Errorf("container is running: %w", cerrdefs.ErrConflict), KindBusy},
		{"precondition", cerrdefs.ErrFailedPrecondition, KindBusy},
		{"not found", fmt.Errorf("no such volume: %w", cerrdefs.ErrNotFound), KindNotFound},
		{"permission", cerrdefs.ErrPermissionDenied, KindPermissionDenied},
		{"unauthorized", cerrdefs.ErrUnauthenticated, KindPermissionDenied},
		{"canceled", fmt.Errorf("remove: %w", context.Canceled), KindCancelled},
		{"deadline", context.DeadlineExceeded, KindCancelled},
		{"other", errors.New("boom"), KindBackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCandidate_Label(t *testing.T) {
	assert.Equal(t, "web", Candidate{ID: "abc", Name: "web"}.Label())
	assert.Equal(t, "abc", Candidate{ID: "abc"}.Label())
}

package prune

import (
	"fmt"
	"strings"
)

// Class identifies a category of prunable resource.
type Class string

const (
	ClassContainers Class = "containers"
	ClassImages     Class = "images"
	ClassVolumes    Class = "volumes"
	ClassNetworks   Class = "networks"
	ClassBuckets    Class = "buckets"

	// ClassAll expands to every class the backend supports, in Order.
	ClassAll Class = "all"
)

// Order is the fixed processing order for ClassAll. Containers come first
// so that images, volumes and networks they reference are released before
// those classes are listed.
var Order = []Class{ClassContainers, ClassImages, ClassVolumes, ClassNetworks, ClassBuckets}

var classAliases = map[string]Class{
	"c":                 ClassContainers,
	"container":         ClassContainers,
	"stopped-container": ClassContainers,
	"i":                 ClassImages,
	"image":             ClassImages,
	"dangling-image":    ClassImages,
	"v":                 ClassVolumes,
	"volume":            ClassVolumes,
	"unused-volume":     ClassVolumes,
	"n":                 ClassNetworks,
	"network":           ClassNetworks,
	"unused-network":    ClassNetworks,
	"b":                 ClassBuckets,
	"bucket":            ClassBuckets,
	"a":                 ClassAll,
}

// ParseClass resolves a class name or one of its aliases.
func ParseClass(s string) (Class, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := classAliases[name]; ok {
		return c, nil
	}
	c := Class(name)
	if c == ClassAll || c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedClass, s)
}

// Valid reports whether c is a concrete class (not ClassAll).
func (c Class) Valid() bool {
	for _, known := range Order {
		if c == known {
			return true
		}
	}
	return false
}

// Singular returns the singular noun for a class, for messages.
func (c Class) Singular() string {
	switch c {
	case ClassContainers:
		return "container"
	case ClassImages:
		return "image"
	case ClassVolumes:
		return "volume"
	case ClassNetworks:
		return "network"
	case ClassBuckets:
		return "bucket"
	default:
		return string(c)
	}
}

// expand returns the ordered concrete classes a request for c covers,
// restricted to the classes the backend supports.
func expand(c Class, supported []Class) ([]Class, error) {
	has := make(map[Class]bool, len(supported))
	for _, s := range supported {
		has[s] = true
	}

	if c == ClassAll {
		var out []Class
		for _, o := range Order {
			if has[o] {
				out = append(out, o)
			}
		}
		return out, nil
	}

	if !c.Valid() || !has[c] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedClass, c)
	}
	return []Class{c}, nil
}

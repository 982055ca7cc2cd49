package prune

import (
	"fmt"
	"sort"
	"strings"
)

// Filter narrows the candidate set of a class. Keys are backend attribute
// names (status, dangling, label, until, prefix, ...).
type Filter map[string]string

// ParseFilter builds a Filter from key=value pairs. Later pairs override
// earlier ones.
func ParseFilter(pairs []string) (Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	f := make(Filter, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", p)
		}
		f[key] = strings.TrimSpace(value)
	}
	return f, nil
}

// Get returns the value for key and whether it was set.
func (f Filter) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// With returns a copy of f with key set to value.
func (f Filter) With(key, value string) Filter {
	out := f.Clone()
	if out == nil {
		out = Filter{}
	}
	out[key] = value
	return out
}

// WithDefault returns a copy of f with key set to value unless already set.
func (f Filter) WithDefault(key, value string) Filter {
	if _, ok := f[key]; ok {
		return f.Clone()
	}
	return f.With(key, value)
}

// Without returns a copy of f with key removed.
func (f Filter) Without(key string) Filter {
	out := f.Clone()
	delete(out, key)
	return out
}

// Clone returns a shallow copy; nil stays nil.
func (f Filter) Clone() Filter {
	if f == nil {
		return nil
	}
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String renders the filter as sorted key=value pairs.
func (f Filter) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+f[k])
	}
	return strings.Join(parts, ",")
}

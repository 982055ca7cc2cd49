// Package prune implements the backend-agnostic resource pruning engine.
// ABOUTME: Preview/confirm/delete workflow with per-resource failure isolation.
package prune

import "context"

// Status tags how a single class was processed. Callers must render each
// status differently so that a preview, an empty class and a declined
// confirmation are never confused.
type Status string

const (
	StatusDryRun      Status = "dry-run"
	StatusEmpty       Status = "empty"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
	StatusInterrupted Status = "interrupted"
	StatusListFailed  Status = "list-failed"
)

// Candidate is a resource the backend reported as prunable.
type Candidate struct {
	ID       string
	Class    Class
	Name     string
	Metadata map[string]string
}

// Label returns the name when the backend supplied one, else the ID.
func (c Candidate) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Failure records a candidate whose deletion was attempted and failed.
type Failure struct {
	Resource Candidate
	Kind     ErrorKind
	Message  string
}

// Request describes one prune invocation.
type Request struct {
	Class  Class
	DryRun bool // takes precedence over Force
	Force  bool // skip confirmation
	Filter Filter
}

// Outcome is the per-class result of a prune invocation.
type Outcome struct {
	Class     Class
	Status    Status
	DryRun    bool
	Requested int // number of candidates listed
	Affected  []Candidate
	Failures  []Failure
	Error     string // set when Status is StatusListFailed
}

// Backend is the collaborator that owns the actual resources. The engine
// never caches what it returns; every call goes to the backend.
type Backend interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Classes lists the resource classes this backend can prune.
	Classes() []Class

	// List returns the exact set of resources of class that match filter
	// and are not in active use.
	List(ctx context.Context, class Class, filter Filter) ([]Candidate, error)

	// Delete removes a single resource.
	Delete(ctx context.Context, resource Candidate) error
}

// DeleteResult is the per-resource result of a batch deletion.
type DeleteResult struct {
	Resource Candidate
	Err      error
}

// BatchDeleter is implemented by backends with a native batch delete.
// Candidates missing from the returned results are treated as not attempted.
type BatchDeleter interface {
	BatchDelete(ctx context.Context, resources []Candidate) []DeleteResult
}

// Confirmer asks the user whether count resources of class may be removed.
type Confirmer interface {
	Confirm(ctx context.Context, class Class, count int) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, class Class, count int) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(ctx context.Context, class Class, count int) (bool, error) {
	return f(ctx, class, count)
}

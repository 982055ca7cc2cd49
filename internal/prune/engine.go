package prune

// ABOUTME: Engine drives list -> preview/confirm -> delete for each class.

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Worker pool bounds for per-resource deletion.
const (
	DefaultWorkers = 1
	MaxWorkers     = 8
)

// Engine prunes resources held by a Backend. It keeps no state between
// calls and produces no output of its own.
type Engine struct {
	backend Backend
	confirm Confirmer
	workers int
	observe func(Outcome)
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfirmer sets the confirmation policy used when a request is not
// forced. Without one, unforced requests are treated as declined.
func WithConfirmer(c Confirmer) Option {
	return func(e *Engine) { e.confirm = c }
}

// WithWorkers sets how many deletions may run concurrently within a class.
// Values are clamped to [1, MaxWorkers].
func WithWorkers(n int) Option {
	return func(e *Engine) {
		switch {
		case n < 1:
			e.workers = 1
		case n > MaxWorkers:
			e.workers = MaxWorkers
		default:
			e.workers = n
		}
	}
}

// WithObserver registers fn to receive each outcome as soon as its class
// is done, before the next class is listed. fn sees the outcomes Prune
// returns, in the same order; when a later class aborts the request with
// ErrBackendUnavailable, fn has already seen the earlier ones.
func WithObserver(fn func(Outcome)) Option {
	return func(e *Engine) { e.observe = fn }
}

// New creates an Engine over backend.
func New(backend Backend, opts ...Option) *Engine {
	e := &Engine{backend: backend, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prune processes req and returns one Outcome per class. For ClassAll the
// outcomes follow Order, restricted to the classes the backend supports;
// classes with nothing to prune are left out.
//
// The only errors returned are request validation errors,
// ErrBackendUnavailable, and ctx's error when it ends before the backend
// answers the ping; in all cases no outcome is produced. Every other
// failure is reported inside the outcomes.
func (e *Engine) Prune(ctx context.Context, req Request) ([]Outcome, error) {
	classes, err := expand(req.Class, e.backend.Classes())
	if err != nil {
		return nil, err
	}

	if err := e.ping(ctx); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(classes))
	for _, class := range classes {
		if ctx.Err() != nil {
			break
		}
		out, err := e.pruneClass(ctx, class, req)
		if err != nil {
			return nil, err
		}
		if req.Class == ClassAll && out.Requested == 0 &&
			(out.Status == StatusEmpty || out.Status == StatusDryRun) {
			continue
		}
		outcomes = append(outcomes, out)
		if e.observe != nil {
			e.observe(out)
		}
		if out.Status == StatusInterrupted {
			break
		}
	}

	return outcomes, nil
}

// PruneClass processes a single concrete class. req.Class is ignored.
func (e *Engine) PruneClass(ctx context.Context, class Class, req Request) (Outcome, error) {
	if class == ClassAll {
		return Outcome{}, fmt.Errorf("%w: %q is not a single class", ErrUnsupportedClass, class)
	}
	if _, err := expand(class, e.backend.Classes()); err != nil {
		return Outcome{}, err
	}
	if err := e.ping(ctx); err != nil {
		return Outcome{}, err
	}
	return e.pruneClass(ctx, class, req)
}

// ping reports a ping that failed because ctx ended as the context's own
// error; a timeout or interrupt says nothing about the backend.
func (e *Engine) ping(ctx context.Context) error {
	if err := e.backend.Ping(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ping: %w", ctxErr)
		}
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return nil
}

func (e *Engine) pruneClass(ctx context.Context, class Class, req Request) (Outcome, error) {
	out := Outcome{Class: class, DryRun: req.DryRun}

	candidates, err := e.backend.List(ctx, class, req.Filter)
	if err != nil {
		if isUnavailable(err) {
			return Outcome{}, fmt.Errorf("%w: list %s: %w", ErrBackendUnavailable, class, err)
		}
		out.Status = StatusListFailed
		if ctx.Err() != nil {
			out.Status = StatusInterrupted
		}
		out.Error = err.Error()
		return out, nil
	}
	out.Requested = len(candidates)

	// Dry-run shares the exact listing used for deletion.
	if req.DryRun {
		out.Status = StatusDryRun
		out.Affected = candidates
		return out, nil
	}

	if len(candidates) == 0 {
		out.Status = StatusEmpty
		return out, nil
	}

	if !req.Force && !e.confirmed(ctx, class, len(candidates)) {
		out.Status = StatusCancelled
		return out, nil
	}

	var attempted int
	out.Affected, out.Failures, attempted = e.remove(ctx, candidates)

	out.Status = StatusCompleted
	if attempted < len(candidates) || hasKind(out.Failures, KindCancelled) {
		out.Status = StatusInterrupted
	}
	return out, nil
}

func (e *Engine) confirmed(ctx context.Context, class Class, count int) bool {
	if e.confirm == nil {
		return false
	}
	ok, err := e.confirm.Confirm(ctx, class, count)
	return err == nil && ok
}

type attempt struct {
	done bool
	err  error
}

// remove deletes candidates and returns successes and failures in listing
// order, along with the number of candidates actually attempted.
func (e *Engine) remove(ctx context.Context, candidates []Candidate) ([]Candidate, []Failure, int) {
	results := make([]attempt, len(candidates))

	if bd, ok := e.backend.(BatchDeleter); ok {
		e.removeBatch(ctx, bd, candidates, results)
	} else {
		e.removeEach(ctx, candidates, results)
	}

	var (
		affected  []Candidate
		failures  []Failure
		attempted int
	)
	for i, r := range results {
		if !r.done {
			continue
		}
		attempted++
		if r.err == nil {
			affected = append(affected, candidates[i])
			continue
		}
		failures = append(failures, Failure{
			Resource: candidates[i],
			Kind:     Classify(r.err),
			Message:  r.err.Error(),
		})
	}
	return affected, failures, attempted
}

func (e *Engine) removeBatch(ctx context.Context, bd BatchDeleter, candidates []Candidate, results []attempt) {
	if ctx.Err() != nil {
		return
	}
	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		index[c.ID] = i
	}
	for _, r := range bd.BatchDelete(ctx, candidates) {
		i, ok := index[r.Resource.ID]
		if !ok || results[i].done {
			continue
		}
		results[i] = attempt{done: true, err: r.Err}
	}
}

// removeEach deletes through a bounded pool. A failed deletion never
// cancels the others; only ctx stops new deletions from starting.
func (e *Engine) removeEach(ctx context.Context, candidates []Candidate, results []attempt) {
	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = attempt{done: true, err: e.backend.Delete(ctx, c)}
			return nil
		})
	}
	_ = g.Wait()
}

func hasKind(failures []Failure, kind ErrorKind) bool {
	for _, f := range failures {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

package prune

import (
	"context"
	"slices"
	"sync"
)

// fakeBackend implements Backend for testing.
type fakeBackend struct {
	mu sync.Mutex

	pingErr   error
	classes   []Class
	resources map[Class][]Candidate
	listErr   map[Class]error
	deleteErr map[string]error
	deleteFn  func(ctx context.Context, c Candidate) error // overrides deleteErr when set

	pingCalls   int
	listCalls   []Class
	deleteCalls []string
}

// Compile-time check.
var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		classes:   []Class{ClassContainers, ClassImages, ClassVolumes, ClassNetworks},
		resources: map[Class][]Candidate{},
		listErr:   map[Class]error{},
		deleteErr: map[string]error{},
	}
}

func (f *fakeBackend) add(class Class, ids ...string) *fakeBackend {
	for _, id := range ids {
		f.resources[class] = append(f.resources[class], Candidate{ID: id, Class: class, Name: id + "-name"})
	}
	return f
}

func (f *fakeBackend) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingCalls++
	return f.pingErr
}

func (f *fakeBackend) Classes() []Class {
	return f.classes
}

func (f *fakeBackend) List(_ context.Context, class Class, _ Filter) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, class)
	if err := f.listErr[class]; err != nil {
		return nil, err
	}
	return slices.Clone(f.resources[class]), nil
}

func (f *fakeBackend) Delete(ctx context.Context, c Candidate) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, c.ID)
	fn := f.deleteFn
	err := f.deleteErr[c.ID]
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, c)
	}
	return err
}

func (f *fakeBackend) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.deleteCalls)
}

// batchBackend adds a native batch delete to fakeBackend.
type batchBackend struct {
	*fakeBackend
	batchCalls int
	skip       map[string]bool // omitted from batch results
}

var _ BatchDeleter = (*batchBackend)(nil)

func (b *batchBackend) BatchDelete(_ context.Context, resources []Candidate) []DeleteResult {
	b.batchCalls++
	var out []DeleteResult
	// Reverse order to check the engine restores listing order.
	for i := len(resources) - 1; i >= 0; i-- {
		r := resources[i]
		if b.skip[r.ID] {
			continue
		}
		out = append(out, DeleteResult{Resource: r, Err: b.deleteErr[r.ID]})
	}
	return out
}

func ids(cs []Candidate) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func failureIDs(fs []Failure) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Resource.ID)
	}
	return out
}

func alwaysConfirm(answer bool) (Confirmer, *int) {
	calls := 0
	return ConfirmerFunc(func(_ context.Context, _ Class, _ int) (bool, error) {
		calls++
		return answer, nil
	}), &calls
}

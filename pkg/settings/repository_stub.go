package settings

import (
	"context"
	"encoding/json"
	"sync"
)

type RepositoryStub struct {
	mu       sync.Mutex
	data     map[string]any
	failWith error
	writes   int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{data: map[string]any{}}
}

func (r *RepositoryStub) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *RepositoryStub) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// copyDoc round trips through JSON so values look the way they come back from jsonb.
func copyDoc(in map[string]any) map[string]any {
	b, _ := json.Marshal(in)
	out := map[string]any{}
	_ = json.Unmarshal(b, &out)
	return out
}

func (r *RepositoryStub) Get(ctx context.Context) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	return copyDoc(r.data), nil
}

func (r *RepositoryStub) Merge(ctx context.Context, patch map[string]any) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.writes++
	for k, v := range copyDoc(patch) {
		r.data[k] = v
	}
	return copyDoc(r.data), nil
}

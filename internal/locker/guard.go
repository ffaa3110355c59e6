package locker

import (
	"context"
	"sync"
)

// UploadGuard admits one outstanding upload or delete per (token, field).
type UploadGuard interface {
	TryAcquire(ctx context.Context, token, field string) (bool, error)
	Release(ctx context.Context, token, field string) error
}

// MemoryGuard is the single-process UploadGuard.
type MemoryGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{busy: make(map[string]struct{})}
}

func (g *MemoryGuard) TryAcquire(_ context.Context, token, field string) (bool, error) {
	key := GuardKey(token, field)
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[key]; ok {
		return false, nil
	}
	g.busy[key] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, token, field string) error {
	g.mu.Lock()
	delete(g.busy, GuardKey(token, field))
	g.mu.Unlock()
	return nil
}

// GuardKey is shared with the Redis guard so both use one key space.
func GuardKey(token, field string) string {
	return "locker:upload:" + token + ":" + field
}

package notify

import (
	"context"
	"sync"
)

// MemoryPresenter keeps posted alerts in-process. Used in tests and when no
// push transport is configured.
type MemoryPresenter struct {
	mu     sync.Mutex
	active map[int64]Content
	posts  []Content
}

// NewMemoryPresenter creates an empty presenter.
func NewMemoryPresenter() *MemoryPresenter {
	return &MemoryPresenter{active: make(map[int64]Content)}
}

func (p *MemoryPresenter) Post(_ context.Context, id int64, content Content) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[id] = content
	p.posts = append(p.posts, content)
	return nil
}

func (p *MemoryPresenter) Cancel(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, id)
	return nil
}

// Showing returns the alert currently occupying a reminder's slot, if any.
func (p *MemoryPresenter) Showing(id int64) (Content, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.active[id]
	return c, ok
}

// Posts returns every Post call in order, including replaced ones.
func (p *MemoryPresenter) Posts() []Content {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Content(nil), p.posts...)
}

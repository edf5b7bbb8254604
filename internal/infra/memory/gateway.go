package memory

import (
	"context"
	"sync"

	"ranczo-quiz/internal/domain"
)

// Gateway is an in-memory app.Gateway. State is lost on exit; used for tests
// and the ephemeral storage driver.
type Gateway struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewGateway() *Gateway {
	return &Gateway{values: make(map[string]string)}
}

func (g *Gateway) Get(_ context.Context, key string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

func (g *Gateway) Set(_ context.Context, key, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[key] = value
	return nil
}

func (g *Gateway) Remove(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.values, key)
	return nil
}

// Len returns the number of stored keys.
func (g *Gateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.values)
}

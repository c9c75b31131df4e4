package ingest

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/server/models"
)

// Key identifies one association in a StaticRegistry.
type Key struct {
	Identity string
	Method   string
}

// StaticRegistry is an in-memory Registry keyed by (identity, method).
type StaticRegistry struct {
	mu       sync.RWMutex
	mappings map[Key]*models.MethodMapping
	known    map[string]struct{}
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		mappings: make(map[Key]*models.MethodMapping),
		known:    make(map[string]struct{}),
	}
}

// Register makes a method known without associating anyone with it.
func (r *StaticRegistry) Register(m *models.MethodMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[m.Method] = struct{}{}
}

// Associate allows identity to upload through m.
func (r *StaticRegistry) Associate(identity string, m *models.MethodMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[m.Method] = struct{}{}
	r.mappings[Key{Identity: identity, Method: m.Method}] = m
}

// FindMapping implements Registry. The returned mapping is a copy.
func (r *StaticRegistry) FindMapping(_ context.Context, identity, method string) (*models.MethodMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.mappings[Key{Identity: identity, Method: method}]; ok {
		cp := *m
		return &cp, nil
	}
	if _, ok := r.known[method]; ok {
		return nil, common.ErrorForbidden
	}
	return nil, common.ErrorNotFound
}

// Package archive provides ArchivalGateway implementations backed by memory
// and by a NAS directory tree.
package archive

import (
	"context"
	"slices"
	"sync"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// Memory is the mock gateway. It always succeeds and keeps every entry.
type Memory struct {
	mu      sync.Mutex
	entries []domain.Entry
}

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, entry domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of the recorded entries in order.
func (m *Memory) Entries() []domain.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

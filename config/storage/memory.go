package storage

import (
	"context"
	"strings"
	"sync"
)

// MockStore keeps objects in memory and issues placeholder URLs. It backs
// development runs without a bucket and the tests.
type MockStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *MockStore) Upload(_ context.Context, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	return PlaceholderURL(key), nil
}

func (m *MockStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, placeholderBase)
	if !ok {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

// Object returns a stored object by the URL Upload returned.
func (m *MockStore) Object(url string) ([]byte, string, bool) {
	key, ok := strings.CutPrefix(url, placeholderBase)
	if !ok {
		return nil, "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

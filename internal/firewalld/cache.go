package firewalld

import (
	"bytes"
	"sync"
)

// cacheKey identifies a file's content by the metadata the cache trusts
// instead of rehashing on every lookup: mtime and length. A change to
// either invalidates the entry.
type cacheKey struct {
	modTime int64
	size    int64
}

// ServiceLoader parses service documents from a ServiceFileSystem, caching
// by (mtime, length) so repeated loads of an unchanged file are free. It
// holds its lock only around map mutation, never while reading file
// contents or parsing, matching the "own internal lock" discipline.
type ServiceLoader struct {
	fs ServiceFileSystem

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	key cacheKey
	svc Service
}

// NewServiceLoader returns a loader reading through fs.
func NewServiceLoader(fs ServiceFileSystem) *ServiceLoader {
	return &ServiceLoader{fs: fs, entries: map[string]cacheEntry{}}
}

// Load parses the service document at path, naming the resulting Service
// name. A cache hit requires both the path and its (mtime, length) to
// match the last successful parse. ErrNotFound propagates unchanged; a
// missing file also evicts any stale cache entry for path.
func (l *ServiceLoader) Load(path, name string) (Service, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		l.mu.Lock()
		delete(l.entries, path)
		l.mu.Unlock()
		return Service{}, err
	}
	key := cacheKey{modTime: info.ModTime, size: info.Size}

	l.mu.Lock()
	entry, ok := l.entries[path]
	l.mu.Unlock()
	if ok && entry.key == key {
		return entry.svc, nil
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return Service{}, err
	}
	svc, err := ParseService(name, bytes.NewReader(data))
	if err != nil {
		return Service{}, err
	}

	l.mu.Lock()
	l.entries[path] = cacheEntry{key: key, svc: svc}
	l.mu.Unlock()

	return svc, nil
}

// Invalidate drops any cached entry for path, forcing the next Load to
// re-read and re-parse regardless of (mtime, length).
func (l *ServiceLoader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, path)
}

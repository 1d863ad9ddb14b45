package firewalld

import (
	"path"
	"sync"
)

// memFile is one entry in a memFS.
type memFile struct {
	data    []byte
	modTime int64
}

// memFS is an in-memory ServiceFileSystem used across this package's tests
// so they don't depend on the real filesystem. modTime is an explicit
// logical clock the test advances itself rather than wall time, since
// writes within the same test often happen faster than the OS clock's
// resolution.
type memFS struct {
	mu    sync.Mutex
	clock int64
	files map[string]memFile
}

func newMemFS() *memFS {
	return &memFS{files: map[string]memFile{}}
}

// put seeds or overwrites a file, advancing the logical clock so its
// (modTime, size) differs from whatever was there before.
func (m *memFS) put(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock++
	m.files[p] = memFile{data: append([]byte(nil), data...), modTime: m.clock}
}

func (m *memFS) Stat(p string) (FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[p]
	if !ok {
		return FileInfo{}, ErrNotFound
	}
	return FileInfo{ModTime: f.modTime, Size: int64(len(f.data))}, nil
}

func (m *memFS) ReadFile(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[p]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), f.data...), nil
}

func (m *memFS) WriteFileAtomic(p string, data []byte) error {
	m.put(p, data)
	return nil
}

func (m *memFS) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	return nil
}

func (m *memFS) ReadDir(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for p := range m.files {
		if path.Dir(p) == dir {
			names = append(names, path.Base(p))
		}
	}
	return names, nil
}

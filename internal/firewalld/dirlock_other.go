//go:build !linux
// +build !linux

package firewalld

import "fmt"

// DirLock is a no-op placeholder on platforms without flock(2). Commit
// exclusivity still holds within one process via the commit lock in
// sync.go; only
// cross-process exclusivity is unavailable here.
type DirLock struct{}

// LockDir always fails on non-Linux platforms.
func LockDir(dir string) (*DirLock, error) {
	return nil, wrapError(KindExternalFailure, fmt.Sprintf("directory locking unsupported on this platform (dir %s)", dir), nil)
}

// Unlock is a no-op.
func (l *DirLock) Unlock() error {
	return nil
}

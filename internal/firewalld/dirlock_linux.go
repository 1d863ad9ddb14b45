//go:build linux
// +build linux

package firewalld

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DirLock is an OS-level exclusive lock on the local services directory,
// serializing commits across processes on the same host (the in-process
// commit lock in sync.go only serializes goroutines within one process).
type DirLock struct {
	f *os.File
}

// LockDir opens (creating if absent) a ".firewalldctl.lock" file inside
// dir and takes a blocking exclusive flock on it.
func LockDir(dir string) (*DirLock, error) {
	path := dir + "/.firewalldctl.lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, wrapError(KindExternalFailure, fmt.Sprintf("open lock file %s", path), err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, wrapError(KindExternalFailure, fmt.Sprintf("flock %s", path), err)
	}
	return &DirLock{f: f}, nil
}

// Unlock releases the flock and closes the underlying file.
func (l *DirLock) Unlock() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return wrapError(KindExternalFailure, "flock unlock", err)
	}
	return l.f.Close()
}

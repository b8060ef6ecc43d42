//go:build windows

package flock

import "os"

// Lock is a held lock-file handle.
type Lock struct {
	f *os.File
}

// Acquire approximates the unix advisory lock by holding the lock file
// open. Windows denies concurrent writes to an open file handle, which is
// enough to serialize writers of the same store.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	return &Lock{f: f}, nil
}

// TryAcquire falls back to exclusive creation of a marker next to the lock
// file; the marker is removed on release.
func TryAcquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path+".held", os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrHeld
		}

		return nil, err
	}

	return &Lock{f: f}, nil
}

// Release closes the handle and removes a TryAcquire marker if present.
func (l *Lock) Release() {
	if l == nil || l.f == nil {
		return
	}

	name := l.f.Name()

	_ = l.f.Close()
	l.f = nil

	if len(name) > 5 && name[len(name)-5:] == ".held" {
		_ = os.Remove(name)
	}
}

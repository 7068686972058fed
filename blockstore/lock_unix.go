//go:build unix

package blockstore

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// acquireLock takes an exclusive advisory lock on path. The kernel drops it when the
// process exits, so a crashed writer never leaves the store locked.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		closeErr := f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, errors.Join(err, closeErr)
	}
	return f, nil
}

func releaseLock(f *os.File) error {
	return errors.Join(unix.Flock(int(f.Fd()), unix.LOCK_UN), f.Close())
}

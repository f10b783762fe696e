// Package lock provides the cross-process exclusive lock guarding the
// forage-ports state file.
//
// The lock is an flock(2) advisory lock on a sibling lock file. Its
// lifetime is the open file descriptor, so the kernel drops it when the
// holder exits for any reason, crashes included. Always pair Acquire with
// a deferred Release:
//
//	l, err := lock.Acquire(ctx, lockPath)
//	if err != nil {
//	    return err
//	}
//	defer l.Release()
//
// Every Acquire opens its own descriptor, so goroutines within one process
// exclude each other exactly like separate processes do. There is no
// fairness guarantee.
package lock

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
)

// Polling bounds used when the context is cancellable.
const (
	minBackoff = time.Millisecond
	maxBackoff = 50 * time.Millisecond
)

// ErrWouldBlock is returned by TryAcquire when another holder exists.
var ErrWouldBlock = stderrors.New("lock is held by another process")

// Lock is a held exclusive lock.
type Lock struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// Acquire blocks until the exclusive lock on path is held or ctx is done.
// The lock file is created if needed; its directory is not.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}

	// Nothing can cancel a background context, so block in the kernel.
	if ctx.Done() == nil {
		if err := flock(f, unix.LOCK_EX); err != nil {
			f.Close()
			return nil, errors.StorageError(fmt.Sprintf("failed to lock %s", path), err)
		}
		return &Lock{path: path, file: f}, nil
	}

	backoff := minBackoff
	for {
		err := flock(f, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &Lock{path: path, file: f}, nil
		}
		if !stderrors.Is(err, unix.EWOULDBLOCK) {
			f.Close()
			return nil, errors.StorageError(fmt.Sprintf("failed to lock %s", path), err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			f.Close()
			return nil, fmt.Errorf("waiting for lock %s: %w", path, ctx.Err())
		case <-timer.C:
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// TryAcquire takes the lock without waiting. It returns ErrWouldBlock if
// another holder exists.
func TryAcquire(path string) (*Lock, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}

	if err := flock(f, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if stderrors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrWouldBlock
		}
		return nil, errors.StorageError(fmt.Sprintf("failed to lock %s", path), err)
	}

	return &Lock{path: path, file: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and closes the descriptor. Calling it more than once is
// a no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil

	unlockErr := flock(f, unix.LOCK_UN)
	closeErr := f.Close()
	if unlockErr != nil {
		return errors.StorageError(fmt.Sprintf("failed to unlock %s", l.path), unlockErr)
	}
	if closeErr != nil {
		return errors.StorageError(fmt.Sprintf("failed to close %s", l.path), closeErr)
	}
	return nil
}

func open(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.StorageError(fmt.Sprintf("failed to open lock file %s", path), err)
	}
	return f, nil
}

// flock retries on EINTR, which a blocking LOCK_EX can return when a signal
// arrives.
func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			return err
		}
	}
}

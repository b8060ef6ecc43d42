// Package flock provides the advisory file locking shared by everything
// that mutates the automation directory: store writes, the stats+log pair,
// the recording session and cron table installs. Locks are released
// explicitly or when the holding process exits, so a killed process never
// wedges the store.
package flock

import "errors"

// ErrHeld is returned by TryAcquire when another holder owns the lock.
var ErrHeld = errors.New("lock already held")

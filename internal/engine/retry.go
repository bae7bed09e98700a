package engine

import (
	"context"
	"time"
)

const (
	retryAttempts = 3
	retryPause    = 100 * time.Millisecond
)

// withRetry runs op up to retryAttempts times with a short fixed pause.
// All fault-tolerant storage calls share this one helper. The last error
// is returned after exhaustion; a cancelled context stops early.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt < retryAttempts {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(retryPause):
			}
		}
	}
	return err
}

package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCount fails once the process runs more goroutines than limit, a
// cheap leak detector for the liveness probe.
func GoroutineCount(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines, limit %d", n, limit)
		}
		return nil
	}
}

// GCMaxPause fails when any recorded GC pause exceeded limit, a signal of
// memory pressure worth restarting over.
func GCMaxPause(limit time.Duration) CheckFunc {
	return func(context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		for _, pause := range stats.Pause {
			if pause > limit {
				return errors.Errorf("GC pause %s, limit %s", pause, limit)
			}
		}
		return nil
	}
}

// CatalogSeeded fails while the order service has no catalog to sell against.
// Used as the dev server's readiness probe so clients do not hit an empty
// service.
func CatalogSeeded(size func() int) CheckFunc {
	return func(context.Context) error {
		if size() == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	}
}

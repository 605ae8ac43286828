package wallet

import (
	"context"
	"time"

	"github/helmwallet/wallet-engine/internal/util"
)

// RunAutoLock locks the wallet once the session has been idle longer than the
// preferred auto-lock timeout. It blocks until the context is cancelled and is
// meant to run in its own goroutine next to the command loop.
func (e *Engine) RunAutoLock(ctx context.Context) {
	ticker := time.NewTicker(e.Config.AutoLock.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.autoLockTick(ctx)
		}
	}
}

func (e *Engine) autoLockTick(ctx context.Context) {
	log := util.LogFromContext(ctx)

	minutes := e.autoLockMinutes.Load()
	if !e.Sessions.ShouldAutoLock(int(minutes)) {
		return
	}

	// An in-flight signing run holds key material on purpose, locking now
	// would rip the seed out from under it.
	if e.inflightSigning.Load() > 0 {
		log.Debug().Msg("Deferring auto-lock, signing in flight")
		return
	}

	log.Info().Int32("idle_minutes", minutes).Msg("Auto-locking idle wallet")
	e.Lock(ctx)
}

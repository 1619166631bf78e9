package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultReconcileInterval = time.Hour
	reconcileBatchSize       = 100
)

// ReconcileWorker periodically audits balances against the ledger. It only
// reports mismatches and never writes.
type ReconcileWorker struct {
	coins    *CoinService
	interval time.Duration
}

func NewReconcileWorker(coins *CoinService, interval time.Duration) *ReconcileWorker {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &ReconcileWorker{
		coins:    coins,
		interval: interval,
	}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("reconcile worker started")

	// Initial check
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reconcile worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce logs every mismatch found and returns how many there were
func (w *ReconcileWorker) RunOnce(ctx context.Context) int {
	mismatches, err := w.coins.Mismatches(ctx, reconcileBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("reconcile worker: failed to list mismatches")
		return 0
	}

	for _, m := range mismatches {
		log.Error().
			Int64("user_id", m.UserID).
			Int64("balance", m.Balance).
			Int64("ledger_sum", m.LedgerSum).
			Int64("last_balance_after", m.LastBalanceAfter).
			Int("transactions", m.Transactions).
			Msg("coin balance does not match ledger")
	}
	return len(mismatches)
}

package workers

import (
	"agora/contract"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*ExpiryWorker)(nil)

type Expirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// ExpiryWorker periodically closes running agoras whose duration elapsed.
type ExpiryWorker struct {
	expirer  Expirer
	interval time.Duration
	log      *slog.Logger
}

func NewExpiryWorker(expirer Expirer, interval time.Duration, log *slog.Logger) *ExpiryWorker {
	return &ExpiryWorker{expirer: expirer, interval: interval, log: log}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping expiry worker")
			return nil
		case now := <-ticker.C:
			closed, err := w.expirer.ExpireDue(ctx, now.UTC())
			if err != nil {
				return err
			}
			if closed > 0 {
				w.log.Info("Expired agoras closed", "count", closed)
			}
		}
	}
}

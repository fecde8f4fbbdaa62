package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type expirerFunc func(ctx context.Context, now time.Time) (int, error)

func (f expirerFunc) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	return f(ctx, now)
}

func TestExpiryWorker_TicksUntilCanceled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	var ticks atomic.Int32
	worker := NewExpiryWorker(expirerFunc(func(_ context.Context, now time.Time) (int, error) {
		req.Equal(time.UTC, now.Location())
		ticks.Add(1)
		return 1, nil
	}), 5*time.Millisecond, log)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req.NoError(worker.Run(ctx))
	req.GreaterOrEqual(ticks.Load(), int32(2))
}

func TestExpiryWorker_ReturnsStoreErrorsToTheSupervisor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	boom := fmt.Errorf("store unavailable")
	worker := NewExpiryWorker(expirerFunc(func(context.Context, time.Time) (int, error) {
		return 0, boom
	}), 5*time.Millisecond, log)

	err := worker.Run(context.Background())

	req.ErrorIs(err, boom)
}

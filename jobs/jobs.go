package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = time.Minute

type TokenSweeper interface {
	SweepExpiredResetTokens(ctx context.Context) (int64, error)
}

/*
* Schedule the expired reset token sweep
* The returned scheduler is already running, Stop it on shutdown
 */
func StartScheduler(schedule string, sweeper TokenSweeper) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		RunTokenSweep(context.Background(), sweeper)
	}); err != nil {
		return nil, err
	}
	c.Start()
	zap.L().Info("job scheduler started", zap.String("reset_sweep", schedule))
	return c, nil
}

func RunTokenSweep(ctx context.Context, sweeper TokenSweeper) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := sweeper.SweepExpiredResetTokens(ctx)
	if err != nil {
		zap.L().Error("reset token sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("expired reset tokens cleared", zap.Int64("count", n))
	}
}

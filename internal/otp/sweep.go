package otp

import (
	"context"
	"time"

	"fintrack/internal/logger"
)

// RunSweeper removes expired records every interval until ctx is done.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration) {
	log := logger.Named("otp")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.DeleteExpired(ctx, now)
			if err != nil {
				log.Errorw("Failed to delete expired OTP records", "error", err)
				continue
			}
			if n > 0 {
				log.Debugw("Deleted expired OTP records", "count", n)
			}
		}
	}
}

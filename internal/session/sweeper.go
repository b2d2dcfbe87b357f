package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunSweeper purges expired sessions every interval until ctx is done
func RunSweeper(ctx context.Context, service Service, interval time.Duration, log zerolog.Logger) error {
	if interval <= 0 {
		log.Warn().Msg("session sweeper disabled")
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := service.PurgeExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("session sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("purged", n).Msg("expired sessions purged")
			}
		}
	}
}

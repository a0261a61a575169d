package printer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultKeepAlive is how often KeepAlive polls the printer.
const DefaultKeepAlive = 5 * time.Minute

// KeepAlive polls p.Status every interval until ctx is done. Label printers
// that go to sleep when idle miss the first job after a long pause; a status
// request keeps them awake.
func KeepAlive(ctx context.Context, p Printer, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultKeepAlive
	}
	log := zap.S().Named("keepalive")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Status(ctx); err != nil {
				log.Warnf("Printer status: %v", err)
				continue
			}
			log.Debugf("Printer status ok")
		}
	}
}

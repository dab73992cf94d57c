package tick

import (
	"context"
	"time"
)

// CombatFunc reports whether the consumer is in combat at now.
type CombatFunc func(now time.Time) bool

// RunPoller calls Poll every period until ctx is done. A nil combat
// function means never in combat.
func (e *Engine) RunPoller(ctx context.Context, period time.Duration, combat CombatFunc) {
	if period <= 0 {
		period = DefaultPollInterval
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.Poll(now, combat != nil && combat(now))
		}
	}
}

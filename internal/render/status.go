package render

import (
	"fmt"
	"time"

	"github.com/dshills/tickterm/internal/tick"
)

// TickStatus formats the time to the next tick for the status line.
func TickStatus(engine *tick.Engine, now time.Time) string {
	remaining, ok := engine.Remaining(now)
	if !ok {
		return "tick: --"
	}
	return fmt.Sprintf("tick: %.1fs", remaining.Seconds())
}

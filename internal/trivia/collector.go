package trivia

import (
	"context"
	"time"
)

// Collector runs the time-boxed answer window for one session.
//
// State machine: Open -> Answered (first click) -> Answered (revision) ->
// Closed (timer expiry). Expiry is the only close path; an answer never
// closes the window early. Clicks are drained by a single goroutine, so
// per-session mutation is serialized: each click is fully processed,
// acknowledgement included, before the next one is read.
type Collector struct {
	window time.Duration
	now    func() time.Time
}

func NewCollector(window time.Duration) *Collector {
	return &Collector{window: window, now: time.Now}
}

// Collect consumes clicks until the window expires, then returns the final
// answer (nil when the player never clicked). The ack callback runs inline
// for every click. A cancelled context ends collection early with whatever
// was recorded; that path exists for process shutdown only.
func (c *Collector) Collect(ctx context.Context, clicks <-chan Click, ack func(Click, AckKind)) *PendingAnswer {
	timer := time.NewTimer(c.window)
	defer timer.Stop()

	start := c.now()
	var pending *PendingAnswer

	for {
		select {
		case <-timer.C:
			return pending
		case <-ctx.Done():
			return pending
		case click, ok := <-clicks:
			if !ok {
				// Producer went away; wait out the rest of the window.
				select {
				case <-timer.C:
				case <-ctx.Done():
				}
				return pending
			}
			pending = c.apply(pending, click, c.now().Sub(start), ack)
		}
	}
}

func (c *Collector) apply(pending *PendingAnswer, click Click, elapsed time.Duration, ack func(Click, AckKind)) *PendingAnswer {
	switch {
	case pending == nil:
		pending = &PendingAnswer{TankID: click.TankID, ResponseTime: elapsed, Handle: click.Handle}
		ack(click, AckRecorded)
	case pending.TankID == click.TankID:
		// Repeating the same choice changes nothing.
		ack(click, AckUnchanged)
	default:
		pending.TankID = click.TankID
		pending.ResponseTime = elapsed
		pending.Handle = click.Handle
		ack(click, AckRevised)
	}
	return pending
}

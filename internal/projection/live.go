package projection

import (
	"context"

	"focustimer/backend/internal/store"
)

// StatsUpdate is one re-folded projection emitted on a live stream.
type StatsUpdate struct {
	Series []DayPoint `json:"series"`
	Totals Totals     `json:"totals"`
}

// StreamRange subscribes to the user's ledger changes and emits a freshly
// folded range projection immediately and after every committed recording.
// The disposer ends the stream and closes the channel.
func (p *Projector) StreamRange(userID, from, to string) (<-chan StatsUpdate, func()) {
	events, dispose := p.notifier.Subscribe(userID)
	out := make(chan StatsUpdate, 4)

	go func() {
		defer close(out)

		emit := func() {
			ctx := context.Background()
			series, apiErr := p.Range(ctx, userID, from, to)
			if apiErr != nil {
				return
			}
			totals, apiErr := p.Overall(ctx, userID, from, to)
			if apiErr != nil {
				return
			}
			select {
			case out <- StatsUpdate{Series: series, Totals: totals}:
			default:
			}
		}

		emit()
		for event := range events {
			if event.Kind != store.ChangeRecords {
				continue
			}
			emit()
		}
	}()

	return out, dispose
}

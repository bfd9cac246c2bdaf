package events

import (
	"errors"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
)

// Fanout delivers every event to each of its targets. A failing target does
// not stop delivery to the rest.
type Fanout []ports.EventBroadcaster

var _ ports.EventBroadcaster = Fanout(nil)

// NewFanout drops nil targets.
func NewFanout(targets ...ports.EventBroadcaster) Fanout {
	f := make(Fanout, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			f = append(f, t)
		}
	}
	return f
}

func (f Fanout) Broadcast(event domain.Event) error {
	var errs []error
	for _, t := range f {
		if err := t.Broadcast(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

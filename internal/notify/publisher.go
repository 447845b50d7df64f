// Package notify delivers change events to the outside world after a show
// or song request mutation has been committed.  Delivery is best effort:
// failures are logged and never undo the mutation.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/tocafy/tocafy-server/internal/model"
)

// Publisher receives committed change events.
type Publisher interface {
	Publish(ctx context.Context, ev model.ChangeEvent) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, model.ChangeEvent) error { return nil }

// Sink is a named publisher inside a Fanout.
type Sink struct {
	Name      string
	Publisher Publisher
}

// Fanout forwards each event to every sink in order.  A failing sink does
// not stop the others.
type Fanout struct {
	sinks []Sink
}

// NewFanout combines sinks.  Nil publishers are skipped.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s.Publisher != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Publish delivers ev to every sink and returns the joined errors of the
// ones that failed, each prefixed with the sink name.
func (f *Fanout) Publish(ctx context.Context, ev model.ChangeEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publisher.Publish(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

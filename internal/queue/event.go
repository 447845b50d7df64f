// Package queue defines the change-event payload exchanged over the message
// broker and the background consumer that records it.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tocafy/tocafy-server/internal/model"
)

// ChangesQueue is the durable queue every committed show or request
// mutation is published to.
const ChangesQueue = "tocafy.changes"

// ErrMalformedEvent is returned by Decode for payloads missing the entity,
// id or show id.
var ErrMalformedEvent = errors.New("malformed change event")

// Encode serialises ev for the broker.
func Encode(ev model.ChangeEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode parses a broker payload and checks the fields every consumer
// relies on.
func Decode(body []byte) (model.ChangeEvent, error) {
	var ev model.ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	switch {
	case ev.Entity != model.EntityShow && ev.Entity != model.EntityRequest:
		return ev, fmt.Errorf("%w: entity %q", ErrMalformedEvent, ev.Entity)
	case ev.ID == "" || ev.ShowID == "":
		return ev, fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}
	return ev, nil
}

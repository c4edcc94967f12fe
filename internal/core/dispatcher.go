package core

import (
	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/domain"
)

// Dispatcher delivers recipient-scoped events over whatever connection
// the recipient holds right now. No durable queue: an offline recipient
// means the event is dropped and the caller must not assume persistence.
type Dispatcher struct {
	reg *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Dispatch sends ev to recipient if they are connected at this moment.
func (d *Dispatcher) Dispatch(recipient domain.UserID, ev domain.Event) bool {
	h, ok := d.reg.Get(recipient)
	if !ok {
		return false
	}
	if err := h.Deliver(ev); err != nil {
		log.Debug().Str("module", "core.dispatcher").
			Str("recipient", string(recipient)).Str("event", string(ev.EventType())).
			Err(err).Msg("delivery failed")
		return false
	}
	return true
}

// Notify is Dispatch for side-channel notifications.
func (d *Dispatcher) Notify(n domain.NotificationEvent) bool {
	delivered := d.Dispatch(n.RecipientID, n)
	if !delivered {
		log.Debug().Str("module", "core.dispatcher").
			Str("recipient", string(n.RecipientID)).Str("kind", string(n.Kind)).
			Msg("notification dropped, recipient offline")
	}
	return delivered
}

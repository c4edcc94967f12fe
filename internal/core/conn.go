package core

import (
	"encoding/json"
	"time"

	"github.com/mavrk/beam/internal/domain"
	apperrors "github.com/mavrk/beam/pkg/errors"
)

// Frame is a raw payload on its way to a transport.
type Frame []byte

// Conn abstracts one live transport channel.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// ConnectionHandle is the registry's record of one live connection.
// One handle per user at a time; a reconnect replaces, never joins.
type ConnectionHandle struct {
	UserID      domain.UserID
	ConnectedAt time.Time
	conn        Conn
}

// Deliver encodes the event and hands it to the transport without blocking.
func (h *ConnectionHandle) Deliver(ev domain.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := h.conn.TrySend(Frame(b)); err != nil {
		return apperrors.ErrDeliveryFailed(err)
	}
	return nil
}

func (h *ConnectionHandle) close() {
	if h.conn != nil {
		h.conn.Close()
	}
}

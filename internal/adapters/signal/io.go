package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/core"
	"github.com/mavrk/beam/internal/domain"
	apperrors "github.com/mavrk/beam/pkg/errors"
)

func (ctl *WSController) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *WSController) readPump(ctx context.Context, cancel context.CancelFunc, uid domain.UserID, handle *core.ConnectionHandle, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(uid)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Orch.OnDisconnect(uid, handle)
	}()

	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("user", string(uid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("readPump read error")
				return
			}
			ctl.handleMessage(uid, c, data)
		}
	}
}

func (ctl *WSController) handleMessage(uid domain.UserID, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "request-call":
		ctl.handleRequestCall(uid, c, data)
	case "ack-call":
		ctl.handleAckCall(uid, c, data)
	case "accept-call":
		ctl.handleAcceptCall(uid, c, data)
	case "reject-call":
		ctl.handleRejectCall(uid, c, data)
	case "end-call":
		ctl.handleEndCall(uid, c, data)
	case "signal":
		ctl.handleSignal(uid, c, data)
	case "start-stream":
		ctl.handleStartStream(uid, c)
	case "stop-stream":
		ctl.handleStopStream(uid, c)
	case "join-stream":
		ctl.handleJoinStream(uid, c, data)
	case "leave-stream":
		ctl.handleLeaveStream(uid, c, data)
	case "chat-message":
		ctl.handleChatMessage(uid, c, data)
	case "send-tip":
		ctl.handleSendTip(uid, c, data)
	case "ping":
		ctl.handlePing(c)
	case "whoami":
		ctl.handleWhoAmI(uid, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message")
	}
}

func (ctl *WSController) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// sendError maps a typed rejection back to the originating connection.
func (ctl *WSController) sendError(c *wsConn, err error) {
	ctl.sendJSON(c, struct {
		Type  string         `json:"type"`
		Code  apperrors.Code `json:"code"`
		Error string         `json:"error"`
	}{
		Type:  "error",
		Code:  apperrors.CodeOf(err),
		Error: err.Error(),
	})
}

func (ctl *WSController) sendBadPayload(c *wsConn, err error) {
	log.Error().Err(err).Str("module", "signal").Msg("bad payload")
	ctl.sendJSON(c, struct {
		Type  string         `json:"type"`
		Code  apperrors.Code `json:"code"`
		Error string         `json:"error"`
	}{
		Type:  "error",
		Code:  apperrors.CodeInvalidArgument,
		Error: "bad_payload",
	})
}

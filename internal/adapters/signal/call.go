package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/domain"
)

func (ctl *WSController) handleRequestCall(uid domain.UserID, c *wsConn, data []byte) {
	type requestPayload struct {
		Type          string `json:"type"`
		Callee        string `json:"callee"`
		RatePerMinute int64  `json:"rate_per_minute"`
	}
	var p requestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, err)
		return
	}

	log.Info().Str("module", "signal").Str("caller", string(uid)).Str("callee", p.Callee).Msg("request-call")
	snap, err := ctl.Orch.Calls.Request(uid, domain.UserID(p.Callee), p.RatePerMinute)
	if err != nil {
		ctl.sendError(c, err)
		return
	}
	ctl.sendJSON(c, domain.NewCallStateEvent(snap))
}

func (ctl *WSController) handleAckCall(uid domain.UserID, c *wsConn, data []byte) {
	sessionID, ok := ctl.sessionID(c, data)
	if !ok {
		return
	}
	if _, err := ctl.Orch.Calls.Acknowledge(sessionID, uid); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *WSController) handleAcceptCall(uid domain.UserID, c *wsConn, data []byte) {
	sessionID, ok := ctl.sessionID(c, data)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("session", sessionID).Msg("accept-call")
	if _, err := ctl.Orch.Calls.Accept(sessionID, uid); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *WSController) handleRejectCall(uid domain.UserID, c *wsConn, data []byte) {
	sessionID, ok := ctl.sessionID(c, data)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("session", sessionID).Msg("reject-call")
	if _, err := ctl.Orch.Calls.Reject(sessionID, uid); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *WSController) handleEndCall(uid domain.UserID, c *wsConn, data []byte) {
	sessionID, ok := ctl.sessionID(c, data)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("session", sessionID).Msg("end-call")
	if _, err := ctl.Orch.Calls.End(sessionID, uid); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *WSController) sessionID(c *wsConn, data []byte) (string, bool) {
	type sessionPayload struct {
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
	}
	var p sessionPayload
	if err := json.Unmarshal(data, &p); err != nil || p.SessionID == "" {
		ctl.sendBadPayload(c, err)
		return "", false
	}
	return p.SessionID, true
}

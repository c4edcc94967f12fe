package signal

import "github.com/mavrk/beam/internal/domain"

func (ctl *WSController) handlePing(conn *wsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *WSController) handleWhoAmI(uid domain.UserID, conn *wsConn) {
	resp := struct {
		Type   string          `json:"type"`
		UserID domain.UserID   `json:"user_id"`
		Online []domain.UserID `json:"online"`
	}{
		Type:   "whoami",
		UserID: uid,
		Online: ctl.Orch.Presence.Snapshot(),
	}
	ctl.sendJSON(conn, resp)
}

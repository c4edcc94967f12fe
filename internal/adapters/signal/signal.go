package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mavrk/beam/internal/app"
	"github.com/mavrk/beam/internal/config"
	"github.com/mavrk/beam/internal/core"
	apperrors "github.com/mavrk/beam/pkg/errors"
)

// WSController terminates websocket connections and translates inbound
// frames into orchestrator calls.
type WSController struct {
	Orch     *app.Orchestrator
	Identity app.IdentityResolver
	Cfg      *config.Config

	chatLimiter *ChatLimiter
}

func NewWSController(orch *app.Orchestrator, identity app.IdentityResolver, cfg *config.Config) *WSController {
	return &WSController{
		Orch:        orch,
		Identity:    identity,
		Cfg:         cfg,
		chatLimiter: NewChatLimiter(cfg.ChatRateLimit, cfg.ChatRateInterval),
	}
}

// wsConn implements core.Conn over a gorilla websocket with a buffered
// send channel. TrySend never blocks; a full buffer is backpressure.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return apperrors.ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request, resolves identity from the client token
// and registers the connection. Register replaces any stale handle for
// the same user, so reconnect needs no explicit logout.
func (ctl *WSController) HandleWS(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	uid, err := ctl.Identity.Resolve(token)
	if err != nil {
		log.Warn().Str("module", "signal").Err(err).Msg("identity rejected")
		c.Status(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)

	handle := ctl.Orch.Connect(uid, conn)
	go ctl.readPump(ctx, cancel, uid, handle, conn)
}

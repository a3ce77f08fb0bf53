package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ostap/huddle/internal/app"
	"github.com/ostap/huddle/internal/config"
	"github.com/ostap/huddle/internal/core"
	"github.com/ostap/huddle/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Orch       *app.Orchestrator
	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
	limiter    *MessageRateLimiter
}

func NewController(orch *app.Orchestrator, cfg *config.Config) *Controller {
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	pingPeriod := cfg.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Controller{
		Orch:       orch,
		readLimit:  cfg.ReadLimit,
		pingPeriod: pingPeriod,
		sendBuffer: sendBuffer,
		limiter:    NewMessageRateLimiter(64, time.Second),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
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

// HandleSignal upgrades an authenticated request into a signaling
// connection. The bearer token was already verified by the router
// middleware; here we only mint the connection id and start the pumps.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	name := c.GetString("user_name")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, newErrorEvent(domain.ErrNotAuthenticated))
		return
	}
	if name == "" {
		name = string(uid)
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	cid := core.ConnectionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("user", string(uid)).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.sendBuffer),
	}

	user, err := domain.NewUser(uid, name)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("bad display name, falling back to id")
		user = &domain.User{ID: uid, Name: string(uid)}
	}
	sess := core.NewMemberSession(user, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.Bind(cid, user, sess, cancel)

	// The client learns its own connection id here; peers learn it from
	// the caller stamp and the user-joined event.
	ctl.sendJSON(conn, struct {
		Type string            `json:"type"`
		ID   core.ConnectionID `json:"id"`
		User domain.User       `json:"user"`
	}{
		Type: "welcome",
		ID:   cid,
		User: *user,
	})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cid, conn)
}

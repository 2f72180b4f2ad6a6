package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playbud/booking/internal/service"
)

const rosterWriteWait = 10 * time.Second

type RosterController struct {
	games    service.GameInteractor
	feed     service.RosterFeed
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewRosterController(games service.GameInteractor, feed service.RosterFeed, allowedOrigins []string, log *slog.Logger) *RosterController {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &RosterController{
		games: games,
		feed:  feed,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(origins) == 0 {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// Live streams roster changes for one game until the client disconnects.
func (c *RosterController) Live(ctx *gin.Context) {
	const op = "http.roster.live"

	gameID, ok := pathID(ctx, "gameID")
	if !ok {
		return
	}
	if _, err := c.games.GetGame(ctx.Request.Context(), gameID); err != nil {
		writeError(ctx, err)
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("websocket upgrade failed", slog.String("op", op), slog.String("error", err.Error()))
		return
	}

	sub := c.feed.Subscribe(gameID)
	log := c.log.With(slog.String("op", op), slog.String("game_id", gameID.String()), slog.String("subscription", sub.ID.String()))
	log.Debug("roster subscriber connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardRosterEvents(conn, sub)
	}()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	c.feed.Unsubscribe(sub)
	<-done
	_ = conn.Close()
	log.Debug("roster subscriber disconnected")
}

func forwardRosterEvents(conn *websocket.Conn, sub *service.Subscription) {
	for event := range sub.Events() {
		_ = conn.SetWriteDeadline(time.Now().Add(rosterWriteWait))
		if err := conn.WriteJSON(event); err != nil {
			_ = conn.Close()
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(rosterWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

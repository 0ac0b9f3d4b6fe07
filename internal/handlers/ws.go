package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Archu-ck/Truth-and-Dare/internal/game"
	"github.com/Archu-ck/Truth-and-Dare/internal/ws"
)

// WSHandler is the transport boundary: it upgrades connections, decodes
// inbound envelopes into actions and reports rejections back to the
// originating connection only.
type WSHandler struct {
	router *game.Router
	hub    *ws.Hub
}

func NewWSHandler(router *game.Router, hub *ws.Hub) *WSHandler {
	return &WSHandler{router: router, hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type inboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type actionPayload struct {
	Code      string `json:"code"`
	PlayerID  string `json:"player_id"`
	Nickname  string `json:"nickname"`
	Content   string `json:"content"`
	Response  string `json:"response"`
	Message   string `json:"message"`
	TurnTimer int    `json:"turn_timer"`
}

type chatMessage struct {
	Nickname  string    `json:"nickname"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// clientActions are the envelope types a client may send. The synthetic
// deadline action is deliberately absent.
var clientActions = map[string]game.ActionType{
	"create_room":       game.ActionCreateRoom,
	"join_room":         game.ActionJoinRoom,
	"start_game":        game.ActionStartGame,
	"submit_input":      game.ActionSubmitInput,
	"submit_response":   game.ActionSubmitResponse,
	"next_round":        game.ActionNextRound,
	"leave_room":        game.ActionLeaveRoom,
	"request_room_data": game.ActionRequestRoomData,
}

// HandleWebSocket godoc
// @Summary      Game websocket
// @Description  Bidirectional channel carrying all game actions and room broadcasts as {type, data} envelopes
// @Tags         websocket
// @Router       /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	wsConn := ws.NewConnection(conn)
	h.hub.Register(wsConn)
	wsConn.Start()
	defer h.hub.Unregister(wsConn.ID)

	limiter := newClientLimiter()

	for {
		data, err := wsConn.Read()
		if err != nil {
			break
		}
		if !limiter.Allow() {
			continue
		}
		h.handleMessage(c.Request.Context(), wsConn, data)
	}
}

func (h *WSHandler) handleMessage(ctx context.Context, conn *ws.Connection, data []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.hub.SendToConn(conn.ID, game.EventError, "invalid message")
		return
	}
	var p actionPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.hub.SendToConn(conn.ID, game.EventError, "invalid message")
			return
		}
	}

	// Chat is a stateless relay, it never touches the state machine.
	if env.Type == "send_message" {
		h.hub.Broadcast(normalizeCode(p.Code), "chat_message", chatMessage{
			Nickname:  p.Nickname,
			Message:   p.Message,
			Timestamp: time.Now(),
		})
		return
	}

	actionType, ok := clientActions[env.Type]
	if !ok {
		h.hub.SendToConn(conn.ID, game.EventError, "unknown event")
		return
	}

	content := p.Content
	if actionType == game.ActionSubmitResponse {
		content = p.Response
	}

	act := game.Action{
		Type:      actionType,
		Code:      normalizeCode(p.Code),
		PlayerID:  p.PlayerID,
		Nickname:  p.Nickname,
		Content:   content,
		TurnTimer: p.TurnTimer,
		ConnID:    conn.ID,
	}
	if err := h.router.Dispatch(ctx, act); err != nil {
		h.hub.SendToConn(conn.ID, game.EventError, errorMessage(err))
	}
}

// newClientLimiter bounds a single connection to one action per second
// with a burst of five.
func newClientLimiter() *rate.Limiter {
	return rate.NewLimiter(1, 5)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "Need 2 players to start"
	case errors.Is(err, game.ErrInvalidPhase):
		return "Action not valid right now"
	case errors.Is(err, game.ErrForbidden):
		return "Not allowed"
	case errors.Is(err, game.ErrStorage):
		log.Error().Err(err).Msg("storage failure")
		return "Something went wrong, try again"
	default:
		log.Error().Err(err).Msg("dispatch failure")
		return "Something went wrong, try again"
	}
}

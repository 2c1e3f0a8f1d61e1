// Package ws exposes the real-time transport: WS /negotiations/{id}/ws and
// the analogous availability/requirement room endpoints, over a
// gorilla/websocket upgrade, per-connection read/write pumps, and inbound
// typing-indicator/chat-message framing. Room authorization, backpressure,
// and fan-out all live in internal/realtime/application.Hub; this package
// only terminates the socket.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/rnrl/tradecore/internal/platform/apierr"
	"github.com/rnrl/tradecore/internal/platform/authctx"
	"github.com/rnrl/tradecore/internal/realtime/application"
	"github.com/rnrl/tradecore/internal/realtime/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// inboundClaims mirrors authctx.Middleware's JWT shape (`sub` + a
// space-separated `cap` capability list); browsers cannot set an
// Authorization header on a WebSocket handshake, so the token also arrives
// as a ?token= query parameter and is verified identically.
type inboundClaims struct {
	jwt.RegisteredClaims
	Cap string `json:"cap"`
}

type Handler struct {
	hub      *application.Hub
	upgrader websocket.Upgrader
	secret   []byte
}

func NewHandler(hub *application.Hub, secret []byte) *Handler {
	return &Handler{
		hub:    hub,
		secret: secret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes wires one endpoint per room kind.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/negotiations/:id/ws", h.serve(domain.RoomNegotiation))
	rg.GET("/availability/:id/ws", h.serve(domain.RoomAvailability))
	rg.GET("/requirements/:id/ws", h.serve(domain.RoomRequirement))
}

func (h *Handler) serve(kind domain.RoomKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := h.authenticate(c)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		ctx := authctx.WithPrincipal(c.Request.Context(), principal)

		roomID := domain.NewRoomID(kind, c.Param("id"))
		sub, err := h.hub.Join(ctx, roomID, principal.PartnerID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			sub.Leave()
			return
		}

		p := &pump{conn: conn, sub: sub, roomID: roomID, hub: h.hub, actorID: principal.PartnerID}
		go p.writeLoop()
		p.readLoop()
	}
}

// authenticate accepts either the standard bearer header (non-browser
// clients) or a ?token= query parameter (browser WebSocket handshakes
// cannot set custom headers).
func (h *Handler) authenticate(c *gin.Context) (*authctx.Principal, error) {
	raw := c.Query("token")
	if raw == "" {
		header := c.GetHeader("Authorization")
		raw = strings.TrimPrefix(header, "Bearer ")
	}
	if raw == "" {
		return nil, apierr.Authorization("UNAUTHENTICATED", "missing bearer token")
	}
	token, err := jwt.ParseWithClaims(raw, &inboundClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apierr.Authorization("UNAUTHENTICATED", "invalid or expired token")
	}
	cl := token.Claims.(*inboundClaims)
	principal := &authctx.Principal{PartnerID: cl.Subject, Capabilities: map[authctx.Capability]bool{}}
	for _, cap := range strings.Fields(cl.Cap) {
		principal.Capabilities[authctx.Capability(cap)] = true
	}
	return principal, nil
}

// pump drains a Subscription's channels onto the socket and relays inbound
// client frames (chat messages, typing indicators) into the Hub.
type pump struct {
	conn    *websocket.Conn
	sub     *application.Subscription
	roomID  domain.RoomID
	hub     *application.Hub
	actorID string
}

type clientFrame struct {
	Type    domain.MessageType `json:"type"`
	Payload any                `json:"payload"`
}

func (p *pump) readLoop() {
	defer func() {
		p.sub.Leave()
		p.conn.Close()
	}()
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		if p.sub.Role != domain.RoleParticipant {
			continue // supervisors are read-only
		}
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		switch frame.Type {
		case domain.MessageTypingIndicator, domain.MessageReceived:
			_ = p.hub.Publish(context.Background(), p.roomID, frame.Type, frame.Payload, "")
		}
	}
}

func (p *pump) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()
	for {
		select {
		case env, ok := <-p.sub.Critical:
			if !ok {
				return
			}
			if err := p.writeJSON(env); err != nil {
				return
			}
		case env, ok := <-p.sub.NonCritical:
			if !ok {
				return
			}
			if err := p.writeJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (p *pump) writeJSON(env domain.Envelope) error {
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(env)
}

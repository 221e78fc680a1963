package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/quantora/signals-backend/internal/chat"
	"github.com/quantora/signals-backend/internal/config"
	"github.com/quantora/signals-backend/internal/utils"
)

// ChatHandler upgrades premium subscribers onto the chat hub. The gate
// runs before the upgrade so rejected clients get a plain HTTP status.
type ChatHandler struct {
	Cfg config.Config
	Hub *chat.Hub
	Log *zap.Logger

	upgrader websocket.Upgrader
}

func NewChatHandler(cfg config.Config, hub *chat.Hub, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		Cfg: cfg,
		Hub: hub,
		Log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the web app origin; token
			// auth is the real gate.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// chatToken pulls the access token from the query string (the browser
// WebSocket API cannot set headers) or the Authorization header.
func chatToken(c echo.Context) string {
	if t := c.QueryParam("token"); t != "" {
		return t
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

type inboundFrame struct {
	Event string `json:"event"`
	Data  struct {
		Text string `json:"text"`
	} `json:"data"`
}

const maxChatMessageBytes = 4096

// Serve authenticates, admits and registers the connection, then reads
// messages until the client goes away.
func (h *ChatHandler) Serve(c echo.Context) error {
	raw := chatToken(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	if err := chat.Admit(claims.SubscriptionPlan); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		return nil
	}
	conn.SetReadLimit(maxChatMessageBytes)

	member := h.Hub.Add(conn, claims.UserID, claims.Email, claims.SubscriptionPlan)
	defer h.Hub.Remove(member)

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.Debug("chat read ended", zap.String("email", claims.Email), zap.Error(err))
			}
			return nil
		}
		if frame.Event != "send_chat_message" {
			continue
		}
		text := strings.TrimSpace(frame.Data.Text)
		if text == "" {
			continue
		}
		h.Hub.Relay(member, text)
	}
}

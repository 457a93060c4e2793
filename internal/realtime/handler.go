package realtime

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// TokenValidator resolves an access token to a user id.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (string, error)
}

type Handler struct {
	registry *Registry
	tokens   TokenValidator
	upgrader websocket.Upgrader
}

func NewHandler(registry *Registry, tokens TokenValidator) *Handler {
	return &Handler{
		registry: registry,
		tokens:   tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades the request to a WebSocket session. The access
// token is carried in the "token" query parameter; a missing or invalid
// token rejects the handshake before any frame is sent.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed for user %s: %v", userID, err)
		return
	}

	c := newClient(conn)
	h.registry.Register(userID, c)
	log.Printf("realtime: user %s connected", userID)

	go h.readLoop(userID, c)
}

// readLoop consumes inbound frames until the connection drops. Frames are
// JSON text; anything that does not parse is logged and dropped.
func (h *Handler) readLoop(userID string, c *client) {
	defer func() {
		h.registry.Unregister(userID, c)
		c.Close()
		log.Printf("realtime: user %s disconnected", userID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var message map[string]interface{}
		if err := json.Unmarshal(data, &message); err != nil {
			log.Printf("realtime: invalid JSON message from user %s", userID)
			continue
		}
		h.onMessageReceived(userID, message)
	}
}

// No business logic depends on inbound payloads yet.
func (h *Handler) onMessageReceived(userID string, message map[string]interface{}) {
	log.Printf("realtime: received message from user %s: %v", userID, message)
}

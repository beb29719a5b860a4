package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/services"
	jwtutil "github.com/famsphere/famsphere-server/pkg/jwt"
	"github.com/famsphere/famsphere-server/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler serves the family chat over REST and websocket.
type ChatHandler struct {
	Service   *services.ChatService
	JWTSecret string

	clients   map[*websocket.Conn]string
	clientsMu sync.Mutex
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewChatHandler(service *services.ChatService, jwtSecret string) *ChatHandler {
	h := &ChatHandler{
		Service:   service,
		JWTSecret: jwtSecret,
		clients:   make(map[*websocket.Conn]string),
	}
	service.SetBroadcaster(h)
	return h
}

// Broadcast pushes a stored message to every connected family member.
func (h *ChatHandler) Broadcast(msg *models.ChatMessage) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			logrus.WithError(err).Warn("WebSocket write failed, dropping client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ChatWebSocketHandler upgrades the connection and relays incoming messages
// through the chat service (which persists, then broadcasts).
func (h *ChatHandler) ChatWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket auth failed")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = claims.Name
	h.clientsMu.Unlock()
	logrus.WithField("member", claims.Name).Info("WebSocket connected")

	defer func() {
		h.clientsMu.Lock()
		delete(h.clients, conn)
		h.clientsMu.Unlock()
		conn.Close()
		logrus.WithField("member", claims.Name).Info("WebSocket disconnected")
	}()

	actor := actorFromClaims(claims)
	for {
		var incoming struct {
			Content     string `json:"content"`
			IsImportant bool   `json:"is_important"`
		}
		if err := conn.ReadJSON(&incoming); err != nil {
			break // client disconnected
		}
		if _, err := h.Service.PostMessage(r.Context(), actor, incoming.Content, incoming.IsImportant); err != nil {
			logrus.WithError(err).Warn("Failed to store websocket chat message")
		}
	}
}

type postMessageRequest struct {
	Content     string `json:"content" validate:"required"`
	IsImportant bool   `json:"is_important"`
}

// PostMessageHandler appends a chat message over REST.
func (h *ChatHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Service.PostMessage(r.Context(), actorFromClaims(claims), req.Content, req.IsImportant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// GetHistoryHandler returns recent chat history, oldest first.
func (h *ChatHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var limit int64 = 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = parsed
		}
	}

	messages, err := h.Service.GetHistory(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to fetch chat history", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// PinMessageHandler toggles a message's pinned flag via ?pinned=false.
func (h *ChatHandler) PinMessageHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	msgID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	pinned := r.URL.Query().Get("pinned") != "false"
	if err := h.Service.SetPinned(r.Context(), msgID, pinned); err != nil {
		http.Error(w, "Failed to update message", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"pinned": pinned})
}

// DeleteMessageHandler removes a message (author or parent only).
func (h *ChatHandler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	msgID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteMessage(r.Context(), actorFromClaims(claims), msgID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/rs/zerolog"
)

const chatApology = "The chatbot service ran into a problem. Please try again in a moment."

// ChatResponder answers chat messages.
type ChatResponder interface {
	Reply(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatReply, error)
}

// ChatHandler handles the chatbot endpoint.
type ChatHandler struct {
	chat ChatResponder
	log  zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat ChatResponder, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

type chatRequest struct {
	Message     string               `json:"message"`
	CurrentPage string               `json:"currentPage"`
	ChatHistory []domain.ChatMessage `json:"chatHistory"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// Chat handles POST /api/chatbot. The client sends its transcript including
// the message being asked; that last element is dropped.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, chatResponse{Text: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, chatResponse{Text: "Please enter a message."})
		return
	}

	history := req.ChatHistory
	if len(history) > 0 {
		history = history[:len(history)-1]
	}

	principal := middleware.PrincipalFrom(r.Context())
	log := logger.FromContext(r.Context(), h.log)

	reply, err := h.chat.Reply(r.Context(), assistant.ChatRequest{
		Principal:   principal,
		Message:     req.Message,
		CurrentPage: req.CurrentPage,
		History:     history,
	})
	if err != nil {
		log.Error().Err(err).Msg("Chatbot request failed")
		middleware.WriteJSON(w, http.StatusInternalServerError, chatResponse{Text: chatApology})
		return
	}

	log.Debug().Bool("used_data", reply.UsedData).Msg("Chatbot replied")
	middleware.WriteJSON(w, http.StatusOK, chatResponse{Text: reply.Text})
}

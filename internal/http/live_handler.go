package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/live"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MessageSender interface {
	SendMessage(ctx context.Context, conversationID, text string) (*domain.Message, error)
}

type LiveHandler struct {
	messages   live.Feed[[]domain.Message]
	deliveries live.Feed[*domain.Delivery]
	sender     MessageSender
	timeout    time.Duration
}

func NewLiveHandler(messages live.Feed[[]domain.Message], deliveries live.Feed[*domain.Delivery], sender MessageSender, timeout time.Duration) *LiveHandler {
	return &LiveHandler{
		messages:   messages,
		deliveries: deliveries,
		sender:     sender,
		timeout:    timeout,
	}
}

type SendMessageRequestDTO struct {
	Text string `json:"text"`
}

// GET /api/v1/live/messages/{conversation_id}
func (h *LiveHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	stream(w, r, h.messages, chi.URLParam(r, "conversation_id"))
}

// GET /api/v1/live/deliveries/{order_id}
func (h *LiveHandler) StreamDelivery(w http.ResponseWriter, r *http.Request) {
	stream(w, r, h.deliveries, chi.URLParam(r, "order_id"))
}

// POST /api/v1/live/messages/{conversation_id}
func (h *LiveHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req SendMessageRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_message", "text is required")
		return
	}

	msg, err := h.sender.SendMessage(ctx, chi.URLParam(r, "conversation_id"), req.Text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

type sseError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// stream writes feed updates as server-sent events until the client goes away.
// Failed fetches are sent as "error" events and the stream stays open.
func stream[T any](w http.ResponseWriter, r *http.Request, feed live.Feed[T], key string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing_key", "subscription key is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := logger.FromContext(r.Context(), nil).With(zap.String("key", key))
	log.Debug("live stream opened")
	defer log.Debug("live stream closed")

	for u := range feed.Subscribe(r.Context(), key) {
		event, payload := "update", any(u.Value)
		if u.Err != nil {
			_, code := errorStatus(u.Err)
			event, payload = "error", sseError{Error: u.Err.Error(), Code: code}
		}
		if err := writeEvent(w, event, payload); err != nil {
			log.Debug("live stream write failed", zap.Error(err))
			return
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

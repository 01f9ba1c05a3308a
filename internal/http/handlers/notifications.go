package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vssamaj/server/internal/auth"
	"github.com/vssamaj/server/internal/realtime"
)

// EventManualNotification is the realtime topic for admin broadcasts
const EventManualNotification = "manual_notification"

// NotificationHandler lets admins broadcast to connected clients
type NotificationHandler struct {
	publisher realtime.Publisher
	now       func() time.Time
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(publisher realtime.Publisher) *NotificationHandler {
	return &NotificationHandler{publisher: publisher, now: time.Now}
}

type notificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type notificationPayload struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleSend handles POST /api/notifications (admin)
func (h *NotificationHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)

	var fields []auth.FieldError
	if req.Title == "" {
		fields = append(fields, auth.FieldError{Field: "title", Message: "Title is required"})
	}
	if req.Message == "" {
		fields = append(fields, auth.FieldError{Field: "message", Message: "Message is required"})
	}
	if len(fields) > 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation errors", Errors: fields})
		return
	}

	err := h.publisher.Publish(EventManualNotification, notificationPayload{
		Title:     req.Title,
		Message:   req.Message,
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		logRequestError(r, "publish notification", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to send notification")
		return
	}

	slog.InfoContext(r.Context(), "notification broadcast", "title", req.Title)
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Notification sent successfully"})
}

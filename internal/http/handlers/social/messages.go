package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ken-william/dreamshare/internal/events"
	"github.com/ken-william/dreamshare/internal/http/middleware"
	"github.com/ken-william/dreamshare/internal/metrics"
	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/users"
	"github.com/ken-william/dreamshare/internal/utils/response"
)

// resolveFriend loads the named user and verifies an accepted friendship with
// the caller, writing the error response itself on failure.
func resolveFriend(w http.ResponseWriter, store storage.Storage, callerID int64, username string) (users.User, bool) {
	other, _, err := store.GetUserByUsername(username)
	if errors.Is(err, storage.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Utilisateur introuvable.")
		return users.User{}, false
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to load user")
		return users.User{}, false
	}

	friends, err := store.AreFriends(callerID, other.ID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to check friendship")
		return users.User{}, false
	}
	if !friends {
		response.Error(w, http.StatusForbidden, "Vous n'êtes pas amis.")
		return users.User{}, false
	}

	return other, true
}

// ListMessages returns the full conversation with the named friend, oldest
// first.
func ListMessages(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		other, ok := resolveFriend(w, store, userID, r.PathValue("username"))
		if !ok {
			return
		}

		messages, err := store.ListMessages(userID, other.ID)
		if err != nil {
			slog.Error("Failed to load messages", slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError, "failed to load messages")
			return
		}

		response.WriteJSON(w, http.StatusOK, messages)
	}
}

// SendMessage posts a text or dream message to the named friend.
func SendMessage(store storage.Storage, publisher events.Publisher, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		other, ok := resolveFriend(w, store, userID, r.PathValue("username"))
		if !ok {
			return
		}

		var req types.SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		if req.MessageType == "" {
			req.MessageType = types.MessageText
		}

		switch req.MessageType {
		case types.MessageText:
			if strings.TrimSpace(req.Text) == "" {
				response.Error(w, http.StatusBadRequest, "Message vide.")
				return
			}
			req.Dream = nil
		case types.MessageDream:
			if req.Dream == nil {
				response.Error(w, http.StatusBadRequest, "ID du rêve requis.")
				return
			}
		default:
			response.Error(w, http.StatusBadRequest, "Type de message invalide.")
			return
		}

		message, err := store.CreateMessage(userID, other.ID, req.MessageType, req.Text, req.Dream)
		if err != nil {
			slog.Error("Failed to send message", slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError, "failed to send message")
			return
		}
		m.MessagesSent.Inc()

		publisher.PublishMessageReceived(other.ID, message)

		response.WriteJSON(w, http.StatusCreated, message)
	}
}

// excerpt truncates a transcription for the default share message.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ShareDream shares a dream into a conversation as a dream message. The
// share is gated on the dream's privacy: private dreams can only be shared by
// their owner, friends_only dreams only by the owner or the owner's friends.
func ShareDream(store storage.Storage, publisher events.Publisher, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		other, ok := resolveFriend(w, store, userID, r.PathValue("username"))
		if !ok {
			return
		}

		var req types.ShareDreamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.ValidationError(w, ve)
				return
			}
			response.Error(w, http.StatusBadRequest, "ID du rêve requis.")
			return
		}

		dream, ok := loadVisibleDream(w, store, req.DreamID, userID)
		if !ok {
			return
		}

		content := strings.TrimSpace(req.Message)
		if content == "" {
			content = fmt.Sprintf("A partagé un rêve : %s...", excerpt(dream.Transcription, 50))
		}

		message, err := store.CreateMessage(userID, other.ID, types.MessageDream, content, &req.DreamID)
		if err != nil {
			slog.Error("Failed to share dream", slog.String("error", err.Error()), slog.Int64("dream_id", req.DreamID))
			response.Error(w, http.StatusInternalServerError, "failed to share dream")
			return
		}
		m.MessagesSent.Inc()

		publisher.PublishMessageReceived(other.ID, message)

		response.WriteJSON(w, http.StatusCreated, message)
	}
}

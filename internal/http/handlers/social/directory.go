package social

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ken-william/dreamshare/internal/events"
	"github.com/ken-william/dreamshare/internal/http/middleware"
	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types/users"
	"github.com/ken-william/dreamshare/internal/utils/response"
)

const searchLimit = 20

type searchResults struct {
	Results []users.User `json:"results"`
}

// Search finds users by username substring. An empty query returns an empty
// result set; the caller is always excluded from results.
func Search(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			// Older clients send ?search=
			q = strings.TrimSpace(r.URL.Query().Get("search"))
		}
		if q == "" {
			response.WriteJSON(w, http.StatusOK, searchResults{Results: []users.User{}})
			return
		}

		results, err := store.SearchUsers(q, userID, searchLimit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to search users")
			return
		}

		response.WriteJSON(w, http.StatusOK, searchResults{Results: results})
	}
}

// Friends lists the caller's accepted friends.
func Friends(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		friends, err := store.ListFriends(userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to load friends")
			return
		}

		response.WriteJSON(w, http.StatusOK, friends)
	}
}

// PendingRequests lists friend requests waiting on the caller.
func PendingRequests(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		requests, err := store.PendingRequests(userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to load requests")
			return
		}

		response.WriteJSON(w, http.StatusOK, requests)
	}
}

// SentRequests lists the caller's pending outgoing requests.
func SentRequests(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		requests, err := store.SentRequests(userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to load requests")
			return
		}

		response.WriteJSON(w, http.StatusOK, requests)
	}
}

// SendFriendRequest creates a pending request towards the named user. A
// rejected request in the same direction is silently reactivated.
func SendFriendRequest(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		username := r.PathValue("username")

		me, err := store.GetUserByID(userID)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if me.Username == username {
			response.Error(w, http.StatusBadRequest, "Impossible de s'ajouter soi-même.")
			return
		}

		target, _, err := store.GetUserByUsername(username)
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Utilisateur introuvable.")
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		request, err := store.CreateFriendRequest(userID, target.ID)
		if errors.Is(err, storage.ErrRequestExists) {
			response.Error(w, http.StatusBadRequest, "Demande déjà existante.")
			return
		}
		if err != nil {
			slog.Error("Failed to create friend request", slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError, "failed to create friend request")
			return
		}

		publisher.PublishFriendRequest(request)

		response.WriteJSON(w, http.StatusCreated, request)
	}
}

// RespondToRequest accepts or rejects a pending request. Only the recipient
// may respond.
func RespondToRequest(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		requestID, err := strconv.ParseInt(r.PathValue("request_id"), 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "request ID is required")
			return
		}

		action := r.PathValue("action")
		if action != "accept" && action != "reject" {
			response.Error(w, http.StatusBadRequest, "Action invalide.")
			return
		}

		request, err := store.RespondToRequest(requestID, userID, action == "accept")
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Demande introuvable.")
			return
		}
		if err != nil {
			slog.Error("Failed to respond to friend request", slog.String("error", err.Error()), slog.Int64("request_id", requestID))
			response.Error(w, http.StatusInternalServerError, "failed to respond to request")
			return
		}

		response.WriteJSON(w, http.StatusOK, request)
	}
}

// RemoveFriend deletes the accepted friendship between the caller and the
// named user, in both directions.
func RemoveFriend(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		username := r.PathValue("username")

		other, _, err := store.GetUserByUsername(username)
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Utilisateur introuvable.")
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		removed, err := store.RemoveFriend(userID, other.ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to remove friend")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.Detail{
			Detail: fmt.Sprintf("Amitié supprimée (%d enregistrement(s)).", removed),
		})
	}
}

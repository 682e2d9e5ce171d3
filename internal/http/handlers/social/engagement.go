package social

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/ken-william/dreamshare/internal/events"
	"github.com/ken-william/dreamshare/internal/http/middleware"
	"github.com/ken-william/dreamshare/internal/metrics"
	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/utils/response"
)

// visibilityCheck applies the privacy gate shared by the like, comment and
// share paths: private dreams are owner-only, friends_only dreams require an
// accepted friendship with the owner.
func visibilityCheck(store storage.Storage, dream types.Dream, viewerID int64) (string, error) {
	if dream.User.ID == viewerID {
		return "", nil
	}

	switch dream.Privacy {
	case types.PrivacyPrivate:
		return "Ce rêve est privé.", nil
	case types.PrivacyFriendsOnly:
		friends, err := store.AreFriends(viewerID, dream.User.ID)
		if err != nil {
			return "", err
		}
		if !friends {
			return "Ce rêve n'est visible que par les amis du créateur.", nil
		}
	}

	return "", nil
}

// loadVisibleDream fetches a dream and applies the privacy gate, writing the
// appropriate error response on failure.
func loadVisibleDream(w http.ResponseWriter, store storage.Storage, dreamID, viewerID int64) (types.Dream, bool) {
	dream, err := store.GetDreamByID(dreamID, viewerID)
	if errors.Is(err, storage.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Rêve introuvable.")
		return types.Dream{}, false
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to load dream")
		return types.Dream{}, false
	}

	denied, err := visibilityCheck(store, dream, viewerID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to check visibility")
		return types.Dream{}, false
	}
	if denied != "" {
		response.Error(w, http.StatusForbidden, denied)
		return types.Dream{}, false
	}

	return dream, true
}

type likeResult struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"total_likes"`
}

// ToggleLike likes or unlikes a dream and returns the authoritative state,
// which optimistic clients reconcile against.
func ToggleLike(store storage.Storage, publisher events.Publisher, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		dreamID, err := strconv.ParseInt(r.PathValue("dream_id"), 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "dream ID is required")
			return
		}

		dream, ok := loadVisibleDream(w, store, dreamID, userID)
		if !ok {
			return
		}

		liked, totalLikes, err := store.ToggleLike(dreamID, userID)
		if err != nil {
			slog.Error("Failed to toggle like", slog.String("error", err.Error()), slog.Int64("dream_id", dreamID))
			response.Error(w, http.StatusInternalServerError, "failed to toggle like")
			return
		}
		m.LikesToggled.Inc()

		if liked {
			liker, err := store.GetUserByID(userID)
			if err == nil {
				publisher.PublishDreamLiked(dream.User.ID, userID, liker.Username, dreamID, totalLikes)
			}
		}

		response.WriteJSON(w, http.StatusOK, likeResult{Liked: liked, TotalLikes: totalLikes})
	}
}

// ListComments returns a dream's comments, newest first.
func ListComments(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		dreamID, err := strconv.ParseInt(r.PathValue("dream_id"), 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "dream ID is required")
			return
		}

		if _, ok := loadVisibleDream(w, store, dreamID, userID); !ok {
			return
		}

		comments, err := store.ListComments(dreamID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to load comments")
			return
		}

		response.WriteJSON(w, http.StatusOK, comments)
	}
}

// AddComment posts a comment on a dream and returns the stored comment.
func AddComment(store storage.Storage, publisher events.Publisher, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		dreamID, err := strconv.ParseInt(r.PathValue("dream_id"), 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "dream ID is required")
			return
		}

		var req types.CommentCreateRequest
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
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		dream, ok := loadVisibleDream(w, store, dreamID, userID)
		if !ok {
			return
		}

		comment, err := store.CreateComment(dreamID, userID, req.Content)
		if err != nil {
			slog.Error("Failed to create comment", slog.String("error", err.Error()), slog.Int64("dream_id", dreamID))
			response.Error(w, http.StatusInternalServerError, "failed to create comment")
			return
		}
		m.CommentsPosted.Inc()

		publisher.PublishDreamCommented(dream.User.ID, userID, comment)

		response.WriteJSON(w, http.StatusCreated, comment)
	}
}

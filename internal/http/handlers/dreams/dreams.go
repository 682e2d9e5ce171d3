package dreams

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/ken-william/dreamshare/internal/http/middleware"
	"github.com/ken-william/dreamshare/internal/metrics"
	mediaService "github.com/ken-william/dreamshare/internal/services/media"
	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/utils/response"
)

const (
	defaultPerPage = 10
	maxPerPage     = 50
)

// feedParams reads page, per_page and sort from the query string, clamping
// everything to sane values instead of erroring.
func feedParams(r *http.Request) (page, perPage int, sort types.FeedSort) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	sort = types.FeedSort(r.URL.Query().Get("sort"))
	if sort != types.SortPopular {
		sort = types.SortRecent
	}

	return page, perPage, sort
}

// PublicFeed serves the paginated "discover" feed of public dreams.
func PublicFeed(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		page, perPage, sort := feedParams(r)

		feed, err := store.PublicFeed(userID, page, perPage, sort)
		if err != nil {
			slog.Error("Failed to load public feed", slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError, "failed to load feed")
			return
		}

		response.WriteJSON(w, http.StatusOK, feed)
	}
}

// FriendsFeed serves the paginated feed of accepted friends' dreams.
func FriendsFeed(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		page, perPage, sort := feedParams(r)

		feed, err := store.FriendsFeed(userID, page, perPage, sort)
		if err != nil {
			slog.Error("Failed to load friends feed", slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError, "failed to load feed")
			return
		}

		response.WriteJSON(w, http.StatusOK, feed)
	}
}

// ListMine returns the caller's own dreams, newest first.
func ListMine(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		dreams, err := store.ListUserDreams(userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to load dreams")
			return
		}

		response.WriteJSON(w, http.StatusOK, dreams)
	}
}

// Create records a new dream. The image is referenced by its uploaded object
// key; audio ingestion and generation happen upstream of this API.
func Create(store storage.Storage, media *mediaService.Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		var req types.DreamCreateRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.Error(w, http.StatusBadRequest, "request body cannot be empty")
			return
		} else if err != nil {
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

		if !req.Privacy.Valid() {
			response.Error(w, http.StatusBadRequest, "Confidentialité invalide.")
			return
		}

		var imgURL string
		if req.ImgKey != "" {
			imgURL = media.ImageURL(req.ImgKey)
		}

		dream, err := store.CreateDream(userID, req, imgURL)
		if err != nil {
			slog.Error("Failed to create dream", slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError, "failed to create dream")
			return
		}
		slog.Info("Dream created", slog.Int64("dream_id", dream.DreamID), slog.Int64("user_id", userID))
		m.DreamsCreated.Inc()

		response.WriteJSON(w, http.StatusCreated, dream)
	}
}

// UpdatePrivacy changes a dream's privacy scope. Only the owner may do this.
func UpdatePrivacy(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		dreamID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "dream ID is required")
			return
		}

		var req types.PrivacyUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		if !req.Privacy.Valid() {
			response.Error(w, http.StatusBadRequest, "Confidentialité invalide.")
			return
		}

		dream, err := store.GetDreamByID(dreamID, userID)
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Rêve introuvable.")
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to load dream")
			return
		}

		if dream.User.ID != userID {
			response.Error(w, http.StatusForbidden, "Seul le créateur peut modifier la confidentialité.")
			return
		}

		if err := store.UpdateDreamPrivacy(dreamID, userID, req.Privacy); err != nil {
			slog.Error("Failed to update privacy", slog.String("error", err.Error()), slog.Int64("dream_id", dreamID))
			response.Error(w, http.StatusInternalServerError, "failed to update privacy")
			return
		}

		dream.Privacy = req.Privacy
		response.WriteJSON(w, http.StatusOK, dream)
	}
}

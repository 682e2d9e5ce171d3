package media

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ken-william/dreamshare/internal/http/middleware"
	mediaService "github.com/ken-william/dreamshare/internal/services/media"
	"github.com/ken-william/dreamshare/internal/storage"
	mediaTypes "github.com/ken-william/dreamshare/internal/types/media"
	"github.com/ken-william/dreamshare/internal/utils/response"
)

// GenerateUploadURL hands the client a presigned PUT URL for a dream image.
func GenerateUploadURL(media *mediaService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		var req mediaTypes.UploadURLRequest
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

		if !media.ValidateContentType(req.ContentType) {
			response.Error(w, http.StatusBadRequest, "Type de fichier non autorisé.")
			return
		}

		info, err := media.GeneratePresignedUploadURL(userID, req.ContentType)
		if err != nil {
			slog.Error("Failed to generate upload URL", slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError, "failed to generate upload URL")
			return
		}

		response.WriteJSON(w, http.StatusOK, info)
	}
}

// ConfirmUpload verifies the object landed in the bucket and records it.
func ConfirmUpload(store storage.Storage, media *mediaService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		var req mediaTypes.ConfirmUploadRequest
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

		info, err := media.GetObjectInfo(req.ObjectKey)
		if err != nil {
			response.Error(w, http.StatusNotFound, "Fichier introuvable.")
			return
		}

		upload := mediaTypes.ImageUpload{
			UserID:      userID,
			ObjectKey:   req.ObjectKey,
			FileName:    path.Base(req.ObjectKey),
			ContentType: info.ContentType,
			Size:        info.Size,
			UploadedAt:  time.Now().UTC(),
			URL:         media.ImageURL(req.ObjectKey),
		}

		id, err := store.RecordImageUpload(userID, upload)
		if err != nil {
			slog.Error("Failed to record upload", slog.String("error", err.Error()), slog.String("object_key", req.ObjectKey))
			response.Error(w, http.StatusInternalServerError, "failed to record upload")
			return
		}
		upload.ID = id

		response.WriteJSON(w, http.StatusCreated, upload)
	}
}

package accounts

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ken-william/dreamshare/internal/http/middleware"
	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types/users"
	"github.com/ken-william/dreamshare/internal/utils/jwt"
	"github.com/ken-william/dreamshare/internal/utils/password"
	"github.com/ken-william/dreamshare/internal/utils/response"
)

// Register handles account creation and returns a token straight away so the
// client is logged in after signup.
func Register(store storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.RegisterRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.Error(w, http.StatusBadRequest, "Champs requis")
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

		hashedPassword, err := password.HashPassword(req.Password)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to hash password")
			return
		}

		userID, err := store.CreateUser(req.Username, req.Email, hashedPassword)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateUser) {
				response.Error(w, http.StatusBadRequest, "Nom d'utilisateur déjà pris.")
				return
			}
			response.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		slog.Info("User created", slog.Int64("user_id", userID), slog.String("username", req.Username))

		token, err := jwt.CreateToken(userID, jwtSecret)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to generate token")
			return
		}

		response.WriteJSON(w, http.StatusCreated, users.AuthResponse{
			Token: token,
			User:  users.User{ID: userID, Username: req.Username, Email: req.Email},
		})
	}
}

// Login handles credential exchange and returns {token, user}.
func Login(store storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.LoginRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Champs requis")
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

		user, hashedPassword, err := store.GetUserByUsername(req.Username)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Identifiants invalides.")
			return
		}

		if !password.CheckPasswordHash(req.Password, hashedPassword) {
			response.Error(w, http.StatusBadRequest, "Identifiants invalides.")
			return
		}

		token, err := jwt.CreateToken(user.ID, jwtSecret)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to generate token")
			return
		}

		response.WriteJSON(w, http.StatusOK, users.AuthResponse{Token: token, User: user})
	}
}

// Profile returns the authenticated user. A failed lookup means the token
// refers to a deleted account, so it reads as unauthorized to the client.
func Profile(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "user not authenticated")
			return
		}

		user, err := store.GetUserByID(userID)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		response.WriteJSON(w, http.StatusOK, user)
	}
}

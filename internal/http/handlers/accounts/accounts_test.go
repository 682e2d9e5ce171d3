package accounts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types/users"
	"github.com/ken-william/dreamshare/internal/utils/password"
)

// stubStorage embeds the interface so only the methods a test needs have to
// be provided; anything else panics loudly.
type stubStorage struct {
	storage.Storage

	createUser        func(username, email, hashedPassword string) (int64, error)
	getUserByUsername func(username string) (users.User, string, error)
	getUserByID       func(id int64) (users.User, error)
}

func (s *stubStorage) CreateUser(username, email, hashedPassword string) (int64, error) {
	return s.createUser(username, email, hashedPassword)
}

func (s *stubStorage) GetUserByUsername(username string) (users.User, string, error) {
	return s.getUserByUsername(username)
}

func (s *stubStorage) GetUserByID(id int64) (users.User, error) {
	return s.getUserByID(id)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := &stubStorage{
		createUser: func(username, email, hashedPassword string) (int64, error) {
			return 0, storage.ErrDuplicateUser
		},
	}

	w := postJSON(t, Register(store, "secret"), "/api/account/register/", users.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "motdepasse",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Detail != "Nom d'utilisateur déjà pris." {
		t.Errorf("unexpected detail: %q", body.Detail)
	}
}

func TestRegisterReturnsTokenAndUser(t *testing.T) {
	store := &stubStorage{
		createUser: func(username, email, hashedPassword string) (int64, error) {
			if hashedPassword == "motdepasse" {
				t.Errorf("password must be hashed before storage")
			}
			return 42, nil
		},
	}

	w := postJSON(t, Register(store, "secret"), "/api/account/register/", users.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "motdepasse",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var res users.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if res.Token == "" {
		t.Errorf("expected a token in the response")
	}
	if res.User.ID != 42 || res.User.Username != "alice" {
		t.Errorf("unexpected user: %+v", res.User)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	hash, err := password.HashPassword("rightpass")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	store := &stubStorage{
		getUserByUsername: func(username string) (users.User, string, error) {
			if username != "alice" {
				return users.User{}, "", storage.ErrNotFound
			}
			return users.User{ID: 1, Username: "alice"}, hash, nil
		},
	}

	cases := []users.LoginRequest{
		{Username: "alice", Password: "wrongpass"},
		{Username: "nobody", Password: "rightpass"},
	}

	for _, req := range cases {
		w := postJSON(t, Login(store, "secret"), "/api/account/login/", req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %+v, got %d", req, w.Code)
		}

		var body struct {
			Detail string `json:"detail"`
		}
		json.Unmarshal(w.Body.Bytes(), &body)
		if body.Detail != "Identifiants invalides." {
			t.Errorf("unexpected detail: %q", body.Detail)
		}
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := password.HashPassword("rightpass")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	store := &stubStorage{
		getUserByUsername: func(username string) (users.User, string, error) {
			return users.User{ID: 1, Username: "alice", Email: "a@a.fr"}, hash, nil
		},
	}

	w := postJSON(t, Login(store, "secret"), "/api/account/login/", users.LoginRequest{
		Username: "alice",
		Password: "rightpass",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res users.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if res.Token == "" || res.User.Username != "alice" {
		t.Errorf("unexpected response: %+v", res)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ken-william/dreamshare/internal/utils/jwt"
)

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"

	token, err := jwt.CreateToken(42, secret)
	if err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}

	var gotUserID int64
	var gotOK bool
	handler := AuthMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = GetUserIDFromContext(r.Context())
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Token " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"bearer scheme rejected", "Bearer " + token, http.StatusUnauthorized},
		{"garbage token", "Token not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Token " + mustToken(t, 42, "other-secret"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID, gotOK = 0, false

			req := httptest.NewRequest(http.MethodGet, "/api/account/profile/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if !gotOK || gotUserID != 42 {
					t.Errorf("expected user 42 on context, got %d (ok=%v)", gotUserID, gotOK)
				}
			}
		})
	}
}

func mustToken(t *testing.T, userID int64, secret string) string {
	t.Helper()
	token, err := jwt.CreateToken(userID, secret)
	if err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}
	return token
}

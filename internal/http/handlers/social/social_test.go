package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ken-william/dreamshare/internal/http/middleware"
	"github.com/ken-william/dreamshare/internal/metrics"
	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/users"
)

var testMetrics = metrics.InitMetrics()

// stubStorage embeds the interface so each test only provides what it needs.
type stubStorage struct {
	storage.Storage

	getUserByID       func(id int64) (users.User, error)
	getUserByUsername func(username string) (users.User, string, error)
	getDreamByID      func(dreamID, viewerID int64) (types.Dream, error)
	areFriends        func(a, b int64) (bool, error)
	toggleLike        func(dreamID, userID int64) (bool, int, error)
	createComment     func(dreamID, userID int64, content string) (types.Comment, error)
	searchUsers       func(query string, excludeID int64, limit int) ([]users.User, error)
	createRequest     func(fromID, toID int64) (types.FriendRequest, error)
	respondToRequest  func(requestID, recipientID int64, accept bool) (types.FriendRequest, error)
	listMessages      func(userID, otherID int64) ([]types.Message, error)
	createMessage     func(fromID, toID int64, msgType types.MessageType, text string, dreamID *int64) (types.Message, error)
}

func (s *stubStorage) GetUserByID(id int64) (users.User, error) { return s.getUserByID(id) }
func (s *stubStorage) GetUserByUsername(username string) (users.User, string, error) {
	return s.getUserByUsername(username)
}
func (s *stubStorage) GetDreamByID(dreamID, viewerID int64) (types.Dream, error) {
	return s.getDreamByID(dreamID, viewerID)
}
func (s *stubStorage) AreFriends(a, b int64) (bool, error) { return s.areFriends(a, b) }
func (s *stubStorage) ToggleLike(dreamID, userID int64) (bool, int, error) {
	return s.toggleLike(dreamID, userID)
}
func (s *stubStorage) CreateComment(dreamID, userID int64, content string) (types.Comment, error) {
	return s.createComment(dreamID, userID, content)
}
func (s *stubStorage) SearchUsers(query string, excludeID int64, limit int) ([]users.User, error) {
	return s.searchUsers(query, excludeID, limit)
}
func (s *stubStorage) CreateFriendRequest(fromID, toID int64) (types.FriendRequest, error) {
	return s.createRequest(fromID, toID)
}
func (s *stubStorage) RespondToRequest(requestID, recipientID int64, accept bool) (types.FriendRequest, error) {
	return s.respondToRequest(requestID, recipientID, accept)
}
func (s *stubStorage) ListMessages(userID, otherID int64) ([]types.Message, error) {
	return s.listMessages(userID, otherID)
}
func (s *stubStorage) CreateMessage(fromID, toID int64, msgType types.MessageType, text string, dreamID *int64) (types.Message, error) {
	return s.createMessage(fromID, toID, msgType, text, dreamID)
}

// nopPublisher swallows events.
type nopPublisher struct{}

func (nopPublisher) PublishMessageReceived(recipientID int64, message types.Message) {}
func (nopPublisher) PublishDreamLiked(ownerID, likerID int64, likerUsername string, dreamID int64, totalLikes int) {
}
func (nopPublisher) PublishDreamCommented(ownerID, commenterID int64, comment types.Comment) {}
func (nopPublisher) PublishFriendRequest(request types.FriendRequest)                        {}

func authedRequest(method, path string, userID int64, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}
	return body.Detail
}

func TestToggleLikePrivateDreamForbidden(t *testing.T) {
	store := &stubStorage{
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{
				DreamID: dreamID,
				User:    users.User{ID: 2, Username: "alice"},
				Privacy: types.PrivacyPrivate,
			}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/social/dream/7/like/", 9, "")
	req.SetPathValue("dream_id", "7")
	w := httptest.NewRecorder()
	ToggleLike(store, nopPublisher{}, testMetrics)(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if detail := decodeDetail(t, w); detail != "Ce rêve est privé." {
		t.Errorf("unexpected detail: %q", detail)
	}
}

func TestToggleLikeFriendsOnlyRequiresFriendship(t *testing.T) {
	store := &stubStorage{
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{
				DreamID: dreamID,
				User:    users.User{ID: 2, Username: "alice"},
				Privacy: types.PrivacyFriendsOnly,
			}, nil
		},
		areFriends: func(a, b int64) (bool, error) { return false, nil },
	}

	req := authedRequest(http.MethodPost, "/api/social/dream/7/like/", 9, "")
	req.SetPathValue("dream_id", "7")
	w := httptest.NewRecorder()
	ToggleLike(store, nopPublisher{}, testMetrics)(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestToggleLikeReturnsAuthoritativeState(t *testing.T) {
	store := &stubStorage{
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{DreamID: dreamID, User: users.User{ID: 9}, Privacy: types.PrivacyPublic}, nil
		},
		toggleLike: func(dreamID, userID int64) (bool, int, error) { return true, 5, nil },
		getUserByID: func(id int64) (users.User, error) {
			return users.User{ID: id, Username: "bob"}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/social/dream/7/like/", 9, "")
	req.SetPathValue("dream_id", "7")
	w := httptest.NewRecorder()
	ToggleLike(store, nopPublisher{}, testMetrics)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Liked      bool `json:"liked"`
		TotalLikes int  `json:"total_likes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !res.Liked || res.TotalLikes != 5 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestAddCommentMissingDream(t *testing.T) {
	store := &stubStorage{
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{}, storage.ErrNotFound
		},
	}

	req := authedRequest(http.MethodPost, "/api/social/dream/7/comment/", 9, `{"content": "joli"}`)
	req.SetPathValue("dream_id", "7")
	w := httptest.NewRecorder()
	AddComment(store, nopPublisher{}, testMetrics)(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if detail := decodeDetail(t, w); detail != "Rêve introuvable." {
		t.Errorf("unexpected detail: %q", detail)
	}
}

func TestAddCommentEmptyContentRejected(t *testing.T) {
	store := &stubStorage{}

	req := authedRequest(http.MethodPost, "/api/social/dream/7/comment/", 9, `{"content": ""}`)
	req.SetPathValue("dream_id", "7")
	w := httptest.NewRecorder()
	AddComment(store, nopPublisher{}, testMetrics)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	store := &stubStorage{
		searchUsers: func(query string, excludeID int64, limit int) ([]users.User, error) {
			t.Fatalf("empty query must not reach storage")
			return nil, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/social/search/?q=", 9, "")
	w := httptest.NewRecorder()
	Search(store)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var res struct {
		Results []users.User `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if res.Results == nil || len(res.Results) != 0 {
		t.Errorf("expected empty non-nil results, got %+v", res.Results)
	}
}

func TestSendFriendRequestToSelf(t *testing.T) {
	store := &stubStorage{
		getUserByID: func(id int64) (users.User, error) {
			return users.User{ID: id, Username: "alice"}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/social/add/alice/", 1, "")
	req.SetPathValue("username", "alice")
	w := httptest.NewRecorder()
	SendFriendRequest(store, nopPublisher{})(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if detail := decodeDetail(t, w); detail != "Impossible de s'ajouter soi-même." {
		t.Errorf("unexpected detail: %q", detail)
	}
}

func TestSendFriendRequestDuplicate(t *testing.T) {
	store := &stubStorage{
		getUserByID: func(id int64) (users.User, error) {
			return users.User{ID: id, Username: "alice"}, nil
		},
		getUserByUsername: func(username string) (users.User, string, error) {
			return users.User{ID: 2, Username: "bob"}, "", nil
		},
		createRequest: func(fromID, toID int64) (types.FriendRequest, error) {
			return types.FriendRequest{}, storage.ErrRequestExists
		},
	}

	req := authedRequest(http.MethodPost, "/api/social/add/bob/", 1, "")
	req.SetPathValue("username", "bob")
	w := httptest.NewRecorder()
	SendFriendRequest(store, nopPublisher{})(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if detail := decodeDetail(t, w); detail != "Demande déjà existante." {
		t.Errorf("unexpected detail: %q", detail)
	}
}

func TestRespondInvalidAction(t *testing.T) {
	store := &stubStorage{}

	req := authedRequest(http.MethodPost, "/api/social/respond/42/maybe/", 1, "")
	req.SetPathValue("request_id", "42")
	req.SetPathValue("action", "maybe")
	w := httptest.NewRecorder()
	RespondToRequest(store)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if detail := decodeDetail(t, w); detail != "Action invalide." {
		t.Errorf("unexpected detail: %q", detail)
	}
}

func TestRespondOnlyRecipient(t *testing.T) {
	store := &stubStorage{
		respondToRequest: func(requestID, recipientID int64, accept bool) (types.FriendRequest, error) {
			return types.FriendRequest{}, storage.ErrNotFound
		},
	}

	req := authedRequest(http.MethodPost, "/api/social/respond/42/accept/", 99, "")
	req.SetPathValue("request_id", "42")
	req.SetPathValue("action", "accept")
	w := httptest.NewRecorder()
	RespondToRequest(store)(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestMessagesRequireFriendship(t *testing.T) {
	store := &stubStorage{
		getUserByUsername: func(username string) (users.User, string, error) {
			return users.User{ID: 2, Username: "bob"}, "", nil
		},
		areFriends: func(a, b int64) (bool, error) { return false, nil },
	}

	req := authedRequest(http.MethodGet, "/api/social/messages/bob/", 1, "")
	req.SetPathValue("username", "bob")
	w := httptest.NewRecorder()
	ListMessages(store)(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if detail := decodeDetail(t, w); detail != "Vous n'êtes pas amis." {
		t.Errorf("unexpected detail: %q", detail)
	}
}

func TestSendMessageEmptyText(t *testing.T) {
	store := &stubStorage{
		getUserByUsername: func(username string) (users.User, string, error) {
			return users.User{ID: 2, Username: "bob"}, "", nil
		},
		areFriends: func(a, b int64) (bool, error) { return true, nil },
	}

	req := authedRequest(http.MethodPost, "/api/social/messages/send/bob/", 1, `{"message_type": "text", "text": "   "}`)
	req.SetPathValue("username", "bob")
	w := httptest.NewRecorder()
	SendMessage(store, nopPublisher{}, testMetrics)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestShareDreamBlankMessageServerDefault(t *testing.T) {
	var sentText string
	store := &stubStorage{
		getUserByUsername: func(username string) (users.User, string, error) {
			return users.User{ID: 2, Username: "bob"}, "", nil
		},
		areFriends: func(a, b int64) (bool, error) { return true, nil },
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{
				DreamID:       dreamID,
				User:          users.User{ID: 1, Username: "alice"},
				Transcription: "je volais au-dessus d'une ville imaginaire faite de verre et de lumière, portée par un vent tiède",
				Privacy:       types.PrivacyPublic,
			}, nil
		},
		createMessage: func(fromID, toID int64, msgType types.MessageType, text string, dreamID *int64) (types.Message, error) {
			sentText = text
			return types.Message{ID: 5, MessageType: msgType, Text: text}, nil
		},
	}

	body, _ := json.Marshal(types.ShareDreamRequest{DreamID: 7})
	req := authedRequest(http.MethodPost, "/api/social/share-dream/bob/", 1, string(body))
	req.SetPathValue("username", "bob")
	w := httptest.NewRecorder()
	ShareDream(store, nopPublisher{}, testMetrics)(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if !strings.HasPrefix(sentText, "A partagé un rêve : ") || !strings.HasSuffix(sentText, "...") {
		t.Errorf("blank message must fall back to the excerpt default, got %q", sentText)
	}
}

func TestShareDreamPrivateForbidden(t *testing.T) {
	store := &stubStorage{
		getUserByUsername: func(username string) (users.User, string, error) {
			return users.User{ID: 2, Username: "bob"}, "", nil
		},
		areFriends: func(a, b int64) (bool, error) { return true, nil },
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{
				DreamID: dreamID,
				User:    users.User{ID: 3, Username: "carol"},
				Privacy: types.PrivacyPrivate,
			}, nil
		},
	}

	body, _ := json.Marshal(types.ShareDreamRequest{DreamID: 7, Message: "regarde"})
	req := authedRequest(http.MethodPost, "/api/social/share-dream/bob/", 1, string(body))
	req.SetPathValue("username", "bob")
	w := httptest.NewRecorder()
	ShareDream(store, nopPublisher{}, testMetrics)(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

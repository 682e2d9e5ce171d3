package dreams

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

type stubStorage struct {
	storage.Storage

	getDreamByID       func(dreamID, viewerID int64) (types.Dream, error)
	updateDreamPrivacy func(dreamID, ownerID int64, privacy types.Privacy) error
	createDream        func(authorID int64, req types.DreamCreateRequest, imgURL string) (types.Dream, error)
	publicFeed         func(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error)
}

func (s *stubStorage) GetDreamByID(dreamID, viewerID int64) (types.Dream, error) {
	return s.getDreamByID(dreamID, viewerID)
}
func (s *stubStorage) UpdateDreamPrivacy(dreamID, ownerID int64, privacy types.Privacy) error {
	return s.updateDreamPrivacy(dreamID, ownerID, privacy)
}
func (s *stubStorage) CreateDream(authorID int64, req types.DreamCreateRequest, imgURL string) (types.Dream, error) {
	return s.createDream(authorID, req, imgURL)
}
func (s *stubStorage) PublicFeed(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error) {
	return s.publicFeed(viewerID, page, perPage, sort)
}

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

func TestUpdatePrivacyNonOwnerForbidden(t *testing.T) {
	store := &stubStorage{
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{
				DreamID: dreamID,
				User:    users.User{ID: 2, Username: "alice"},
				Privacy: types.PrivacyPublic,
			}, nil
		},
	}

	req := authedRequest(http.MethodPut, "/api/dreams/7/privacy", 9, `{"privacy": "private"}`)
	req.SetPathValue("id", "7")
	w := httptest.NewRecorder()
	UpdatePrivacy(store)(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	var body struct {
		Detail string `json:"detail"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Detail != "Seul le créateur peut modifier la confidentialité." {
		t.Errorf("unexpected detail: %q", body.Detail)
	}
}

func TestUpdatePrivacyOwnerSucceeds(t *testing.T) {
	var storedPrivacy types.Privacy
	store := &stubStorage{
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{
				DreamID: dreamID,
				User:    users.User{ID: 2, Username: "alice"},
				Privacy: types.PrivacyPublic,
			}, nil
		},
		updateDreamPrivacy: func(dreamID, ownerID int64, privacy types.Privacy) error {
			storedPrivacy = privacy
			return nil
		},
	}

	req := authedRequest(http.MethodPut, "/api/dreams/7/privacy", 2, `{"privacy": "friends_only"}`)
	req.SetPathValue("id", "7")
	w := httptest.NewRecorder()
	UpdatePrivacy(store)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if storedPrivacy != types.PrivacyFriendsOnly {
		t.Errorf("expected friends_only stored, got %s", storedPrivacy)
	}

	var dream types.Dream
	if err := json.Unmarshal(w.Body.Bytes(), &dream); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if dream.Privacy != types.PrivacyFriendsOnly {
		t.Errorf("response must carry the new privacy, got %s", dream.Privacy)
	}
}

func TestUpdatePrivacyInvalidValue(t *testing.T) {
	store := &stubStorage{}

	req := authedRequest(http.MethodPut, "/api/dreams/7/privacy", 2, `{"privacy": "everyone"}`)
	req.SetPathValue("id", "7")
	w := httptest.NewRecorder()
	UpdatePrivacy(store)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdatePrivacyMissingDream(t *testing.T) {
	store := &stubStorage{
		getDreamByID: func(dreamID, viewerID int64) (types.Dream, error) {
			return types.Dream{}, storage.ErrNotFound
		},
	}

	req := authedRequest(http.MethodPut, "/api/dreams/7/privacy", 2, `{"privacy": "private"}`)
	req.SetPathValue("id", "7")
	w := httptest.NewRecorder()
	UpdatePrivacy(store)(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateDreamInvalidPrivacy(t *testing.T) {
	store := &stubStorage{}

	req := authedRequest(http.MethodPost, "/api/dreams/", 2, `{"transcription": "un rêve", "privacy": "everyone"}`)
	w := httptest.NewRecorder()
	Create(store, nil, testMetrics)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateDreamSucceeds(t *testing.T) {
	store := &stubStorage{
		createDream: func(authorID int64, req types.DreamCreateRequest, imgURL string) (types.Dream, error) {
			return types.Dream{
				DreamID:       10,
				User:          users.User{ID: authorID, Username: "alice"},
				Transcription: req.Transcription,
				Privacy:       req.Privacy,
			}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/dreams/", 2, `{"transcription": "un rêve", "privacy": "public"}`)
	w := httptest.NewRecorder()
	Create(store, nil, testMetrics)(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var dream types.Dream
	if err := json.Unmarshal(w.Body.Bytes(), &dream); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if dream.DreamID != 10 || dream.Privacy != types.PrivacyPublic {
		t.Errorf("unexpected dream: %+v", dream)
	}
}

func TestFeedParamsClamp(t *testing.T) {
	tests := []struct {
		query       string
		wantPage    int
		wantPerPage int
		wantSort    types.FeedSort
	}{
		{"", 1, 10, types.SortRecent},
		{"?page=0&per_page=0", 1, 10, types.SortRecent},
		{"?page=3&per_page=500&sort=popular", 3, 50, types.SortPopular},
		{"?page=-1&sort=bogus", 1, 10, types.SortRecent},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/dreams/feed/public"+tt.query, nil)
		page, perPage, sort := feedParams(req)
		if page != tt.wantPage || perPage != tt.wantPerPage || sort != tt.wantSort {
			t.Errorf("feedParams(%q) = (%d, %d, %s), want (%d, %d, %s)",
				tt.query, page, perPage, sort, tt.wantPage, tt.wantPerPage, tt.wantSort)
		}
	}
}

func TestPublicFeedPassesParams(t *testing.T) {
	var gotPage, gotPerPage int
	var gotSort types.FeedSort
	store := &stubStorage{
		publicFeed: func(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error) {
			gotPage, gotPerPage, gotSort = page, perPage, sort
			return types.FeedPage{Dreams: []types.Dream{}}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/dreams/feed/public?page=2&sort=popular", 9, "")
	w := httptest.NewRecorder()
	PublicFeed(store)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotPage != 2 || gotPerPage != 10 || gotSort != types.SortPopular {
		t.Errorf("unexpected params: page=%d perPage=%d sort=%s", gotPage, gotPerPage, gotSort)
	}
}

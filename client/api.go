// Package client is a Go SDK for the DreamShare API. It splits cleanly into
// an effect layer (API, this file) that issues REST calls, and view-model
// controllers (FeedController, DreamCard, Messaging, ...) that hold UI state
// and are unit-testable without any rendering layer.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/users"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	Get() (string, bool)
	Set(token string) error
	Clear() error
}

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	token string
}

func (m *MemoryTokenStore) Get() (string, bool) {
	return m.token, m.token != ""
}

func (m *MemoryTokenStore) Set(token string) error {
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.token = ""
	return nil
}

// Earlier client builds persisted the token under several different names.
// Get falls back through all of them and Clear wipes the lot, so a stale
// variant can never resurrect a dead session.
var tokenFileNames = []string{"token", "auth_token", "access_token"}

// FileTokenStore persists the token as a file in a directory.
type FileTokenStore struct {
	Dir string
}

func (f *FileTokenStore) Get() (string, bool) {
	for _, name := range tokenFileNames {
		data, err := os.ReadFile(filepath.Join(f.Dir, name))
		if err != nil {
			continue
		}
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token, true
		}
	}
	return "", false
}

func (f *FileTokenStore) Set(token string) error {
	if err := os.MkdirAll(f.Dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.Dir, tokenFileNames[0]), []byte(token), 0o600)
}

func (f *FileTokenStore) Clear() error {
	var firstErr error
	for _, name := range tokenFileNames {
		err := os.Remove(filepath.Join(f.Dir, name))
		if err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// APIError is a non-2xx response. Detail carries the server's {detail} text
// verbatim when present, for user-facing display.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == status
}

// API is the REST effect layer. Controllers call it; it never holds view
// state.
type API struct {
	BaseURL    string
	Tokens     TokenStore
	HTTPClient *http.Client
}

func NewAPI(baseURL string, tokens TokenStore) *API {
	return &API{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Tokens:     tokens,
		HTTPClient: http.DefaultClient,
	}
}

func (a *API) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := a.Tokens.Get(); ok {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil {
			apiErr.Detail = detail.Detail
		}
		return apiErr
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Account

func (a *API) Register(username, email, password string) (users.AuthResponse, error) {
	var res users.AuthResponse
	err := a.do(http.MethodPost, "/api/account/register/", users.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &res)
	return res, err
}

func (a *API) Login(username, password string) (users.AuthResponse, error) {
	var res users.AuthResponse
	err := a.do(http.MethodPost, "/api/account/login/", users.LoginRequest{
		Username: username,
		Password: password,
	}, &res)
	return res, err
}

func (a *API) Profile() (users.User, error) {
	var user users.User
	err := a.do(http.MethodGet, "/api/account/profile/", nil, &user)
	return user, err
}

// Dreams and feeds

func (a *API) feed(scope string, page int, sort types.FeedSort) (types.FeedPage, error) {
	var feed types.FeedPage
	path := fmt.Sprintf("/api/dreams/feed/%s?page=%d&sort=%s", scope, page, sort)
	err := a.do(http.MethodGet, path, nil, &feed)
	return feed, err
}

func (a *API) PublicFeed(page int, sort types.FeedSort) (types.FeedPage, error) {
	return a.feed("public", page, sort)
}

func (a *API) FriendsFeed(page int, sort types.FeedSort) (types.FeedPage, error) {
	return a.feed("friends", page, sort)
}

func (a *API) MyDreams() ([]types.Dream, error) {
	var dreams []types.Dream
	err := a.do(http.MethodGet, "/api/dreams/list", nil, &dreams)
	return dreams, err
}

func (a *API) CreateDream(req types.DreamCreateRequest) (types.Dream, error) {
	var dream types.Dream
	err := a.do(http.MethodPost, "/api/dreams/", req, &dream)
	return dream, err
}

func (a *API) UpdatePrivacy(dreamID int64, privacy types.Privacy) (types.Dream, error) {
	var dream types.Dream
	path := fmt.Sprintf("/api/dreams/%d/privacy", dreamID)
	err := a.do(http.MethodPut, path, types.PrivacyUpdateRequest{Privacy: privacy}, &dream)
	return dream, err
}

// Engagement

// LikeResult is the server's authoritative state after a like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"total_likes"`
}

func (a *API) ToggleLike(dreamID int64) (LikeResult, error) {
	var res LikeResult
	path := fmt.Sprintf("/api/social/dream/%d/like/", dreamID)
	err := a.do(http.MethodPost, path, nil, &res)
	return res, err
}

func (a *API) ListComments(dreamID int64) ([]types.Comment, error) {
	var comments []types.Comment
	path := fmt.Sprintf("/api/social/dream/%d/comments/", dreamID)
	err := a.do(http.MethodGet, path, nil, &comments)
	return comments, err
}

func (a *API) PostComment(dreamID int64, content string) (types.Comment, error) {
	var comment types.Comment
	path := fmt.Sprintf("/api/social/dream/%d/comment/", dreamID)
	err := a.do(http.MethodPost, path, types.CommentCreateRequest{Content: content}, &comment)
	return comment, err
}

// Social

func (a *API) Friends() ([]users.User, error) {
	var friends []users.User
	err := a.do(http.MethodGet, "/api/social/friends/", nil, &friends)
	return friends, err
}

func (a *API) PendingRequests() ([]types.FriendRequest, error) {
	var requests []types.FriendRequest
	err := a.do(http.MethodGet, "/api/social/requests/", nil, &requests)
	return requests, err
}

func (a *API) SentRequests() ([]types.FriendRequest, error) {
	var requests []types.FriendRequest
	err := a.do(http.MethodGet, "/api/social/requests/sent/", nil, &requests)
	return requests, err
}

func (a *API) SendFriendRequest(username string) (types.FriendRequest, error) {
	var request types.FriendRequest
	path := "/api/social/add/" + url.PathEscape(username) + "/"
	err := a.do(http.MethodPost, path, nil, &request)
	return request, err
}

func (a *API) RespondToRequest(requestID int64, accept bool) (types.FriendRequest, error) {
	action := "reject"
	if accept {
		action = "accept"
	}
	var request types.FriendRequest
	path := "/api/social/respond/" + strconv.FormatInt(requestID, 10) + "/" + action + "/"
	err := a.do(http.MethodPost, path, nil, &request)
	return request, err
}

func (a *API) RemoveFriend(username string) error {
	path := "/api/social/remove-friend/" + url.PathEscape(username) + "/"
	return a.do(http.MethodPost, path, nil, nil)
}

func (a *API) SearchUsers(query string) ([]users.User, error) {
	var res struct {
		Results []users.User `json:"results"`
	}
	path := "/api/social/search/?q=" + url.QueryEscape(query)
	err := a.do(http.MethodGet, path, nil, &res)
	return res.Results, err
}

// Messaging

func (a *API) Messages(username string) ([]types.Message, error) {
	var messages []types.Message
	path := "/api/social/messages/" + url.PathEscape(username) + "/"
	err := a.do(http.MethodGet, path, nil, &messages)
	return messages, err
}

func (a *API) SendTextMessage(username, text string) (types.Message, error) {
	var message types.Message
	path := "/api/social/messages/send/" + url.PathEscape(username) + "/"
	err := a.do(http.MethodPost, path, types.SendMessageRequest{
		MessageType: types.MessageText,
		Text:        text,
	}, &message)
	return message, err
}

func (a *API) ShareDream(username string, dreamID int64, message string) (types.Message, error) {
	var msg types.Message
	path := "/api/social/share-dream/" + url.PathEscape(username) + "/"
	err := a.do(http.MethodPost, path, types.ShareDreamRequest{
		DreamID: dreamID,
		Message: message,
	}, &msg)
	return msg, err
}

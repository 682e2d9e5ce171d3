package client

import (
	"github.com/ken-william/dreamshare/internal/types/users"
)

// Session is the auth gate. It owns the persisted token's lifecycle: resumed
// at startup, set on login, torn down on logout.
type Session struct {
	api *API

	User          users.User
	Authenticated bool
}

func NewSession(api *API) *Session {
	return &Session{api: api}
}

// Resume restores a previous session from the persisted token. A missing
// token means unauthenticated. A failed profile fetch is terminal: the stored
// tokens are cleared and the session stays unauthenticated, with no retry.
func (s *Session) Resume() error {
	if _, ok := s.api.Tokens.Get(); !ok {
		s.Authenticated = false
		return nil
	}

	user, err := s.api.Profile()
	if err != nil {
		s.api.Tokens.Clear()
		s.User = users.User{}
		s.Authenticated = false
		return err
	}

	s.User = user
	s.Authenticated = true
	return nil
}

// Login exchanges credentials for a token and marks the session
// authenticated.
func (s *Session) Login(username, password string) error {
	res, err := s.api.Login(username, password)
	if err != nil {
		return err
	}

	if err := s.api.Tokens.Set(res.Token); err != nil {
		return err
	}

	s.User = res.User
	s.Authenticated = true
	return nil
}

// Register creates an account and logs the session straight in.
func (s *Session) Register(username, email, password string) error {
	res, err := s.api.Register(username, email, password)
	if err != nil {
		return err
	}

	if err := s.api.Tokens.Set(res.Token); err != nil {
		return err
	}

	s.User = res.User
	s.Authenticated = true
	return nil
}

// Logout clears the persisted tokens and unsets the user.
func (s *Session) Logout() {
	s.api.Tokens.Clear()
	s.User = users.User{}
	s.Authenticated = false
}

package client

import (
	"errors"
	"strings"

	"github.com/ken-william/dreamshare/internal/types"
)

// ConversationState is the per-conversation load state machine.
type ConversationState string

const (
	ConversationIdle    ConversationState = "idle"
	ConversationLoading ConversationState = "loading"
	ConversationLoaded  ConversationState = "loaded"
	ConversationError   ConversationState = "error"
)

var (
	// ErrNoFriendSelected is returned when sending without an open
	// conversation.
	ErrNoFriendSelected = errors.New("no friend selected")
	// ErrEmptyMessage is returned when a message is empty after trimming.
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// Messaging drives the conversation view. Switching friends always does a
// full reload; threads are not cached across switches.
type Messaging struct {
	api *API

	Friend   string
	State    ConversationState
	Messages []types.Message
	Err      error
}

func NewMessaging(api *API) *Messaging {
	return &Messaging{api: api, State: ConversationIdle}
}

// SelectFriend opens the conversation with the named friend and reloads its
// history.
func (m *Messaging) SelectFriend(username string) error {
	m.Friend = username
	m.State = ConversationLoading
	m.Messages = nil
	m.Err = nil

	messages, err := m.api.Messages(username)
	if err != nil {
		m.State = ConversationError
		m.Err = err
		return err
	}

	m.Messages = messages
	m.State = ConversationLoaded
	return nil
}

// SendText posts a text message to the open conversation. The message only
// appears once the server confirms it; there is no optimistic insert. Empty
// input and a missing friend selection issue no request.
func (m *Messaging) SendText(body string) (types.Message, error) {
	if m.Friend == "" {
		return types.Message{}, ErrNoFriendSelected
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return types.Message{}, ErrEmptyMessage
	}

	message, err := m.api.SendTextMessage(m.Friend, body)
	if err != nil {
		return types.Message{}, err
	}

	m.Messages = append(m.Messages, message)
	return message, nil
}

// Append adds an already-confirmed message to the tail of the open
// conversation, used by the share flow and real-time events.
func (m *Messaging) Append(message types.Message) {
	m.Messages = append(m.Messages, message)
}

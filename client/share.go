package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ken-william/dreamshare/internal/types"
)

// ErrShareNotAllowed distinguishes an authorization failure (dream not
// shareable, recipient not a friend) from a generic share failure, so the two
// get distinct user-facing text.
var ErrShareNotAllowed = errors.New("dream cannot be shared with this user")

// ShareFlow posts a dream into a conversation.
type ShareFlow struct {
	api *API

	// Conversation, when set, receives the resulting message if it is open
	// with the share's recipient.
	Conversation *Messaging
}

func NewShareFlow(api *API) *ShareFlow {
	return &ShareFlow{api: api}
}

// EligibleDreams filters out private dreams, which are never shareable.
func EligibleDreams(dreams []types.Dream) []types.Dream {
	eligible := make([]types.Dream, 0, len(dreams))
	for _, d := range dreams {
		if d.Privacy != types.PrivacyPrivate {
			eligible = append(eligible, d)
		}
	}
	return eligible
}

// DefaultShareMessage is what gets sent when the message field is left blank.
func DefaultShareMessage(dream types.Dream) string {
	return fmt.Sprintf("Regarde ce rêve de %s !", dream.User.Username)
}

// Share sends the dream to the named friend. A blank message falls back to
// DefaultShareMessage. On success the message is appended to the open
// conversation if it matches the recipient.
func (s *ShareFlow) Share(dream types.Dream, friendUsername, message string) (types.Message, error) {
	if message == "" {
		message = DefaultShareMessage(dream)
	}

	msg, err := s.api.ShareDream(friendUsername, dream.DreamID, message)
	if err != nil {
		if IsStatus(err, http.StatusForbidden) {
			return types.Message{}, fmt.Errorf("%w: %v", ErrShareNotAllowed, err)
		}
		return types.Message{}, err
	}

	if s.Conversation != nil && s.Conversation.Friend == friendUsername {
		s.Conversation.Append(msg)
	}

	return msg, nil
}

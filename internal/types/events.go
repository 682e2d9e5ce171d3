package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventMessageReceived EventType = "message.received"
	EventDreamLiked      EventType = "dream.liked"
	EventDreamCommented  EventType = "dream.commented"
	EventFriendRequest   EventType = "friend.request"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// MessageReceivedEvent notifies the recipient of a new conversation message.
type MessageReceivedEvent struct {
	Message Message `json:"message"`
}

// DreamLikedEvent notifies a dream's owner that someone liked it.
type DreamLikedEvent struct {
	DreamID    int64  `json:"dream_id"`
	Username   string `json:"username"`
	TotalLikes int    `json:"total_likes"`
	LikedAt    string `json:"liked_at"`
}

// DreamCommentedEvent notifies a dream's owner of a new comment.
type DreamCommentedEvent struct {
	DreamID int64   `json:"dream_id"`
	Comment Comment `json:"comment"`
}

// FriendRequestEvent notifies a user of an incoming friend request.
type FriendRequestEvent struct {
	Request FriendRequest `json:"request"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

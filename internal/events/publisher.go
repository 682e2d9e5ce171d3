package events

import (
	"time"

	"github.com/ken-william/dreamshare/internal/types"
)

// Publisher pushes real-time notifications to connected users.
type Publisher interface {
	PublishMessageReceived(recipientID int64, message types.Message)
	PublishDreamLiked(ownerID, likerID int64, likerUsername string, dreamID int64, totalLikes int)
	PublishDreamCommented(ownerID, commenterID int64, comment types.Comment)
	PublishFriendRequest(request types.FriendRequest)
}

// WebSocketHub is the part of the hub the publisher needs.
type WebSocketHub interface {
	BroadcastToUser(userID int64, event *types.Event)
	IsUserConnected(userID int64) bool
}

type EventPublisher struct {
	hub WebSocketHub
}

func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{hub: hub}
}

// PublishMessageReceived notifies the recipient of a new message.
func (p *EventPublisher) PublishMessageReceived(recipientID int64, message types.Message) {
	if !p.hub.IsUserConnected(recipientID) {
		return
	}

	event := types.NewEvent(types.EventMessageReceived, &types.MessageReceivedEvent{Message: message})
	p.hub.BroadcastToUser(recipientID, event)
}

// PublishDreamLiked notifies the dream's owner. Self-likes are silent.
func (p *EventPublisher) PublishDreamLiked(ownerID, likerID int64, likerUsername string, dreamID int64, totalLikes int) {
	if likerID == ownerID || !p.hub.IsUserConnected(ownerID) {
		return
	}

	event := types.NewEvent(types.EventDreamLiked, &types.DreamLikedEvent{
		DreamID:    dreamID,
		Username:   likerUsername,
		TotalLikes: totalLikes,
		LikedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	p.hub.BroadcastToUser(ownerID, event)
}

// PublishDreamCommented notifies the dream's owner. Self-comments are silent.
func (p *EventPublisher) PublishDreamCommented(ownerID, commenterID int64, comment types.Comment) {
	if commenterID == ownerID || !p.hub.IsUserConnected(ownerID) {
		return
	}

	event := types.NewEvent(types.EventDreamCommented, &types.DreamCommentedEvent{
		DreamID: comment.DreamID,
		Comment: comment,
	})
	p.hub.BroadcastToUser(ownerID, event)
}

// PublishFriendRequest notifies the recipient of an incoming request.
func (p *EventPublisher) PublishFriendRequest(request types.FriendRequest) {
	if !p.hub.IsUserConnected(request.ToUser.ID) {
		return
	}

	event := types.NewEvent(types.EventFriendRequest, &types.FriendRequestEvent{Request: request})
	p.hub.BroadcastToUser(request.ToUser.ID, event)
}

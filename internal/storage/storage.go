package storage

import (
	"errors"
	"time"

	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/media"
	"github.com/ken-william/dreamshare/internal/types/users"
)

var (
	// ErrNotFound maps sql.ErrNoRows style misses onto a storage-level error.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUser is returned when a username is already taken.
	ErrDuplicateUser = errors.New("username already taken")
	// ErrRequestExists is returned when a pending or accepted friend request
	// already links the two users, in either direction.
	ErrRequestExists = errors.New("friend request already exists")
)

type Storage interface {
	CreateUser(username, email, hashedPassword string) (int64, error)
	GetUserByUsername(username string) (users.User, string, error)
	GetUserByID(id int64) (users.User, error)
	SearchUsers(query string, excludeID int64, limit int) ([]users.User, error)

	CreateDream(authorID int64, req types.DreamCreateRequest, imgURL string) (types.Dream, error)
	GetDreamByID(dreamID, viewerID int64) (types.Dream, error)
	ListUserDreams(userID int64) ([]types.Dream, error)
	PublicFeed(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error)
	FriendsFeed(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error)
	UpdateDreamPrivacy(dreamID, ownerID int64, privacy types.Privacy) error

	ToggleLike(dreamID, userID int64) (liked bool, totalLikes int, err error)
	ListComments(dreamID int64) ([]types.Comment, error)
	CreateComment(dreamID, userID int64, content string) (types.Comment, error)

	AreFriends(a, b int64) (bool, error)
	ListFriends(userID int64) ([]users.User, error)
	CreateFriendRequest(fromID, toID int64) (types.FriendRequest, error)
	PendingRequests(userID int64) ([]types.FriendRequest, error)
	SentRequests(userID int64) ([]types.FriendRequest, error)
	RespondToRequest(requestID, recipientID int64, accept bool) (types.FriendRequest, error)
	RemoveFriend(userID, otherID int64) (int64, error)
	PruneRejectedRequests(olderThan time.Duration) (int64, error)

	ListMessages(userID, otherID int64) ([]types.Message, error)
	CreateMessage(fromID, toID int64, msgType types.MessageType, text string, dreamID *int64) (types.Message, error)

	RecordImageUpload(userID int64, upload media.ImageUpload) (uint64, error)
	GetImageUpload(objectKey string) (media.ImageUpload, error)
}

package types

import "github.com/ken-william/dreamshare/internal/types/users"

type Privacy string

const (
	PrivacyPublic      Privacy = "public"
	PrivacyFriendsOnly Privacy = "friends_only"
	PrivacyPrivate     Privacy = "private"
)

// Valid reports whether p is one of the three known privacy scopes.
func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyFriendsOnly, PrivacyPrivate:
		return true
	}
	return false
}

// Dream is a dream record as seen by a given viewer. LikesCount, UserLiked
// and CommentsCount are derived per viewer, not stored columns.
type Dream struct {
	DreamID           int64      `json:"dream_id"`
	User              users.User `json:"user"`
	Transcription     string     `json:"transcription"`
	ReformedPrompt    string     `json:"reformed_prompt"`
	Img               string     `json:"img"`
	Date              string     `json:"date"`
	Privacy           Privacy    `json:"privacy"`
	LikesCount        int        `json:"likes_count"`
	UserLiked         bool       `json:"user_liked"`
	CommentsCount     int        `json:"comments_count"`
	Emotion           string     `json:"emotion"`
	EmotionEmoji      string     `json:"emotion_emoji"`
	EmotionConfidence float64    `json:"emotion_confidence"`
}

type Comment struct {
	ID        int64      `json:"id"`
	DreamID   int64      `json:"dream_id"`
	User      users.User `json:"user"`
	Content   string     `json:"content"`
	CreatedAt string     `json:"created_at"`
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

type FriendRequest struct {
	ID        int64         `json:"id"`
	FromUser  users.User    `json:"from_user"`
	ToUser    users.User    `json:"to_user"`
	Status    RequestStatus `json:"status"`
	CreatedAt string        `json:"created_at"`
}

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageDream MessageType = "dream"
)

// Message is one entry of a conversation. Dream messages carry a denormalized
// snapshot of the dream at share time; the snapshot is never re-validated
// against the dream's current privacy.
type Message struct {
	ID           int64       `json:"id"`
	FromUsername string      `json:"from_username"`
	ToUsername   string      `json:"to_username"`
	MessageType  MessageType `json:"message_type"`
	Text         string      `json:"text,omitempty"`
	Dream        *Dream      `json:"dream,omitempty"`
	CreatedAt    string      `json:"created_at"`
}

type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// FeedPage is one page of a feed. FriendsCount is only set on the friends
// scope.
type FeedPage struct {
	Dreams       []Dream    `json:"dreams"`
	Pagination   Pagination `json:"pagination"`
	FriendsCount int        `json:"friends_count,omitempty"`
}

type FeedSort string

const (
	SortRecent  FeedSort = "recent"
	SortPopular FeedSort = "popular"
)

type DreamCreateRequest struct {
	Transcription     string  `json:"transcription" validate:"required"`
	ReformedPrompt    string  `json:"reformed_prompt"`
	ImgKey            string  `json:"img_key"`
	Privacy           Privacy `json:"privacy" validate:"required"`
	Emotion           string  `json:"emotion"`
	EmotionConfidence float64 `json:"emotion_confidence"`
}

type PrivacyUpdateRequest struct {
	Privacy Privacy `json:"privacy" validate:"required"`
}

type CommentCreateRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}

type SendMessageRequest struct {
	MessageType MessageType `json:"message_type"`
	Text        string      `json:"text"`
	Dream       *int64      `json:"dream"`
}

type ShareDreamRequest struct {
	DreamID int64  `json:"dream_id" validate:"required"`
	Message string `json:"message"`
}

var emotionEmojis = map[string]string{
	"joy":      "😄",
	"fear":     "😨",
	"sadness":  "😢",
	"anger":    "😠",
	"surprise": "😲",
	"calm":     "😌",
}

// EmojiForEmotion maps an emotion label to its display emoji. Unknown labels
// get a neutral moon, matching how unclassified dreams are rendered.
func EmojiForEmotion(emotion string) string {
	if e, ok := emotionEmojis[emotion]; ok {
		return e
	}
	return "🌙"
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/media"
	"github.com/ken-william/dreamshare/internal/types/users"
)

// Service wraps storage with Redis caching. It implements storage.Storage so
// handlers never know whether they hit the cache or the database.
type Service struct {
	storage storage.Storage
	redis   *redis.Client
}

func NewService(storage storage.Storage, redisClient *redis.Client) *Service {
	return &Service{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	feedKey       = "feed:%s:user:%d:p%d:n%d:%s" // feed:<scope>:user:<id>:p<page>:n<perPage>:<sort>
	friendsKey    = "user:friends:%d"            // user:friends:<id>
	friendPairKey = "friends:%d:%d"              // friends:<lowID>:<highID>
)

// Cache durations
const (
	feedCacheDuration    = 45 * time.Second // hot feed pages
	friendsCacheDuration = 5 * time.Minute  // friendships change rarely
)

func (c *Service) cachedFeed(ctx context.Context, key string, fetch func() (types.FeedPage, error)) (types.FeedPage, error) {
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var page types.FeedPage
		if err := json.Unmarshal([]byte(cached), &page); err == nil {
			return page, nil
		}
	}

	page, err := fetch()
	if err != nil {
		return types.FeedPage{}, err
	}

	data, _ := json.Marshal(page)
	c.redis.Set(ctx, key, data, feedCacheDuration)

	return page, nil
}

func (c *Service) PublicFeed(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error) {
	key := fmt.Sprintf(feedKey, "public", viewerID, page, perPage, sort)
	return c.cachedFeed(context.Background(), key, func() (types.FeedPage, error) {
		return c.storage.PublicFeed(viewerID, page, perPage, sort)
	})
}

func (c *Service) FriendsFeed(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error) {
	key := fmt.Sprintf(feedKey, "friends", viewerID, page, perPage, sort)
	return c.cachedFeed(context.Background(), key, func() (types.FeedPage, error) {
		return c.storage.FriendsFeed(viewerID, page, perPage, sort)
	})
}

func (c *Service) ListFriends(userID int64) ([]users.User, error) {
	ctx := context.Background()
	key := fmt.Sprintf(friendsKey, userID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var friends []users.User
		if err := json.Unmarshal([]byte(cached), &friends); err == nil {
			return friends, nil
		}
	}

	friends, err := c.storage.ListFriends(userID)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(friends)
	c.redis.Set(ctx, key, data, friendsCacheDuration)

	return friends, nil
}

func (c *Service) AreFriends(a, b int64) (bool, error) {
	ctx := context.Background()
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	key := fmt.Sprintf(friendPairKey, lo, hi)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		return cached == "1", nil
	}

	friends, err := c.storage.AreFriends(a, b)
	if err != nil {
		return false, err
	}

	val := "0"
	if friends {
		val = "1"
	}
	c.redis.Set(ctx, key, val, friendsCacheDuration)

	return friends, nil
}

// invalidateFeeds drops every cached feed page. Feed pages are per viewer, so
// a public write touches an unknown set of viewers; dropping the lot is the
// simple correct move at this scale.
func (c *Service) invalidateFeeds(ctx context.Context) {
	keys, err := c.redis.Keys(ctx, "feed:*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	c.redis.Del(ctx, keys...)
}

func (c *Service) invalidateFriendship(ctx context.Context, a, b int64) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	c.redis.Del(ctx,
		fmt.Sprintf(friendsKey, a),
		fmt.Sprintf(friendsKey, b),
		fmt.Sprintf(friendPairKey, lo, hi),
	)
	c.invalidateFeeds(ctx)
}

// Write paths invalidate, then pass through.

func (c *Service) CreateDream(authorID int64, req types.DreamCreateRequest, imgURL string) (types.Dream, error) {
	dream, err := c.storage.CreateDream(authorID, req, imgURL)
	if err != nil {
		return types.Dream{}, err
	}

	c.invalidateFeeds(context.Background())
	return dream, nil
}

func (c *Service) UpdateDreamPrivacy(dreamID, ownerID int64, privacy types.Privacy) error {
	err := c.storage.UpdateDreamPrivacy(dreamID, ownerID, privacy)
	if err != nil {
		return err
	}

	c.invalidateFeeds(context.Background())
	return nil
}

func (c *Service) ToggleLike(dreamID, userID int64) (bool, int, error) {
	liked, totalLikes, err := c.storage.ToggleLike(dreamID, userID)
	if err != nil {
		return false, 0, err
	}

	c.invalidateFeeds(context.Background())
	return liked, totalLikes, nil
}

func (c *Service) CreateComment(dreamID, userID int64, content string) (types.Comment, error) {
	comment, err := c.storage.CreateComment(dreamID, userID, content)
	if err != nil {
		return types.Comment{}, err
	}

	c.invalidateFeeds(context.Background())
	return comment, nil
}

func (c *Service) RespondToRequest(requestID, recipientID int64, accept bool) (types.FriendRequest, error) {
	fr, err := c.storage.RespondToRequest(requestID, recipientID, accept)
	if err != nil {
		return types.FriendRequest{}, err
	}

	c.invalidateFriendship(context.Background(), fr.FromUser.ID, fr.ToUser.ID)
	return fr, nil
}

func (c *Service) RemoveFriend(userID, otherID int64) (int64, error) {
	removed, err := c.storage.RemoveFriend(userID, otherID)
	if err != nil {
		return 0, err
	}

	c.invalidateFriendship(context.Background(), userID, otherID)
	return removed, nil
}

// Methods that pass straight through to storage.

func (c *Service) CreateUser(username, email, hashedPassword string) (int64, error) {
	return c.storage.CreateUser(username, email, hashedPassword)
}

func (c *Service) GetUserByUsername(username string) (users.User, string, error) {
	return c.storage.GetUserByUsername(username)
}

func (c *Service) GetUserByID(id int64) (users.User, error) {
	return c.storage.GetUserByID(id)
}

func (c *Service) SearchUsers(query string, excludeID int64, limit int) ([]users.User, error) {
	return c.storage.SearchUsers(query, excludeID, limit)
}

func (c *Service) GetDreamByID(dreamID, viewerID int64) (types.Dream, error) {
	return c.storage.GetDreamByID(dreamID, viewerID)
}

func (c *Service) ListUserDreams(userID int64) ([]types.Dream, error) {
	return c.storage.ListUserDreams(userID)
}

func (c *Service) ListComments(dreamID int64) ([]types.Comment, error) {
	return c.storage.ListComments(dreamID)
}

func (c *Service) CreateFriendRequest(fromID, toID int64) (types.FriendRequest, error) {
	return c.storage.CreateFriendRequest(fromID, toID)
}

func (c *Service) PendingRequests(userID int64) ([]types.FriendRequest, error) {
	return c.storage.PendingRequests(userID)
}

func (c *Service) SentRequests(userID int64) ([]types.FriendRequest, error) {
	return c.storage.SentRequests(userID)
}

func (c *Service) PruneRejectedRequests(olderThan time.Duration) (int64, error) {
	return c.storage.PruneRejectedRequests(olderThan)
}

func (c *Service) ListMessages(userID, otherID int64) ([]types.Message, error) {
	return c.storage.ListMessages(userID, otherID)
}

func (c *Service) CreateMessage(fromID, toID int64, msgType types.MessageType, text string, dreamID *int64) (types.Message, error) {
	return c.storage.CreateMessage(fromID, toID, msgType, text, dreamID)
}

func (c *Service) RecordImageUpload(userID int64, upload media.ImageUpload) (uint64, error) {
	return c.storage.RecordImageUpload(userID, upload)
}

func (c *Service) GetImageUpload(objectKey string) (media.ImageUpload, error) {
	return c.storage.GetImageUpload(objectKey)
}

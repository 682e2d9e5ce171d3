package client

import (
	"errors"

	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/users"
)

// LikeState tracks one dream's optimistic like lifecycle.
type LikeState string

const (
	LikeIdle       LikeState = "idle"
	LikePending    LikeState = "pending"
	LikeReconciled LikeState = "reconciled"
	LikeReverted   LikeState = "reverted"
)

// ErrNotOwner is returned when a non-owner tries to change a dream's privacy.
var ErrNotOwner = errors.New("only the dream's owner can change its privacy")

// DreamCard is the view model for one dream. Like toggling is optimistic:
// flip locally, issue the call, then overwrite with the server's counts or
// revert on failure. Privacy changes are owner-only and never optimistic.
type DreamCard struct {
	api *API

	Dream  types.Dream
	Viewer users.User

	LikeState LikeState

	likeInFlight    bool
	privacyInFlight bool

	// OnDreamUpdate lets a parent list patch its copy of the dream.
	OnDreamUpdate func(types.Dream)
}

func NewDreamCard(api *API, dream types.Dream, viewer users.User) *DreamCard {
	return &DreamCard{
		api:       api,
		Dream:     dream,
		Viewer:    viewer,
		LikeState: LikeIdle,
	}
}

func (c *DreamCard) notify() {
	if c.OnDreamUpdate != nil {
		c.OnDreamUpdate(c.Dream)
	}
}

// ToggleLike flips the like optimistically and reconciles with the server's
// authoritative counts. A second call while one is in flight is a no-op and
// issues no request. Unauthenticated viewers are also a no-op.
func (c *DreamCard) ToggleLike() error {
	if c.Viewer.ID == 0 || c.likeInFlight {
		return nil
	}

	prevLiked := c.Dream.UserLiked
	prevCount := c.Dream.LikesCount

	c.Dream.UserLiked = !prevLiked
	if c.Dream.UserLiked {
		c.Dream.LikesCount = prevCount + 1
	} else {
		c.Dream.LikesCount = prevCount - 1
	}
	c.likeInFlight = true
	c.LikeState = LikePending

	res, err := c.api.ToggleLike(c.Dream.DreamID)
	c.likeInFlight = false

	if err != nil {
		c.Dream.UserLiked = prevLiked
		c.Dream.LikesCount = prevCount
		c.LikeState = LikeReverted
		return err
	}

	c.Dream.UserLiked = res.Liked
	c.Dream.LikesCount = res.TotalLikes
	c.LikeState = LikeReconciled
	c.notify()
	return nil
}

// IsOwner reports whether the viewer owns this dream.
func (c *DreamCard) IsOwner() bool {
	return c.Viewer.Username == c.Dream.User.Username
}

// ChangePrivacy updates the dream's privacy scope. Non-owners get ErrNotOwner
// without any request being issued. There is no rollback on failure: a change
// the server already applied stays applied.
func (c *DreamCard) ChangePrivacy(privacy types.Privacy) error {
	if !c.IsOwner() {
		return ErrNotOwner
	}
	if c.privacyInFlight {
		return nil
	}

	c.privacyInFlight = true
	dream, err := c.api.UpdatePrivacy(c.Dream.DreamID, privacy)
	c.privacyInFlight = false

	if err != nil {
		return err
	}

	c.Dream = dream
	c.notify()
	return nil
}

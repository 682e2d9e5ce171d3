package client

import (
	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/users"
)

// Relationship is the three-state action rendered next to a search result,
// computed purely from the directory's local lists.
type Relationship string

const (
	RelationFriend      Relationship = "friend"
	RelationPendingSent Relationship = "pending"
	RelationNone        Relationship = "none"
)

// SocialDirectory drives user search and friend-request management. Friends
// and sent requests are loaded once; a request sent during the session is
// reflected by appending to the local list, not by refetching.
type SocialDirectory struct {
	api *API

	CurrentUser  users.User
	Friends      []users.User
	SentRequests []types.FriendRequest
	Pending      []types.FriendRequest
}

func NewSocialDirectory(api *API, currentUser users.User) *SocialDirectory {
	return &SocialDirectory{api: api, CurrentUser: currentUser}
}

// Load fetches friends and both request lists once at mount.
func (d *SocialDirectory) Load() error {
	friends, err := d.api.Friends()
	if err != nil {
		return err
	}
	sent, err := d.api.SentRequests()
	if err != nil {
		return err
	}
	pending, err := d.api.PendingRequests()
	if err != nil {
		return err
	}

	d.Friends = friends
	d.SentRequests = sent
	d.Pending = pending
	return nil
}

// SearchUsers finds users by name. An empty query short-circuits to an empty
// result without a network call, and the current user is filtered out of the
// results.
func (d *SocialDirectory) SearchUsers(query string) ([]users.User, error) {
	if query == "" {
		return []users.User{}, nil
	}

	results, err := d.api.SearchUsers(query)
	if err != nil {
		return nil, err
	}

	filtered := results[:0]
	for _, u := range results {
		if u.Username != d.CurrentUser.Username {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// RelationshipWith classifies a user from the local lists only.
func (d *SocialDirectory) RelationshipWith(username string) Relationship {
	for _, f := range d.Friends {
		if f.Username == username {
			return RelationFriend
		}
	}
	for _, r := range d.SentRequests {
		if r.ToUser.Username == username && r.Status == types.RequestPending {
			return RelationPendingSent
		}
	}
	return RelationNone
}

// SendFriendRequest sends a request and records it locally so the result
// button flips to pending without a refetch. A repeat click is prevented by
// the relationship already reading as pending.
func (d *SocialDirectory) SendFriendRequest(user users.User) error {
	if d.RelationshipWith(user.Username) != RelationNone {
		return nil
	}

	request, err := d.api.SendFriendRequest(user.Username)
	if err != nil {
		return err
	}

	d.SentRequests = append(d.SentRequests, request)
	return nil
}

// Respond accepts or rejects a pending incoming request. Any success removes
// the request from the local pending list; no accepted or rejected residual
// is kept client-side.
func (d *SocialDirectory) Respond(requestID int64, accept bool) error {
	request, err := d.api.RespondToRequest(requestID, accept)
	if err != nil {
		return err
	}

	for i, r := range d.Pending {
		if r.ID == requestID {
			d.Pending = append(d.Pending[:i], d.Pending[i+1:]...)
			break
		}
	}

	if accept && request.FromUser.Username != "" {
		d.Friends = append(d.Friends, request.FromUser)
	}
	return nil
}

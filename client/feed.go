package client

import (
	"github.com/ken-william/dreamshare/internal/types"
)

// FeedScope selects which feed the controller shows.
type FeedScope string

const (
	ScopeDiscover FeedScope = "discover"
	ScopeFriends  FeedScope = "friends"
)

// PageEllipsis marks a gap in the pagination window returned by PageWindow.
const PageEllipsis = -1

// FeedController drives one feed view. Every input change triggers a fresh
// fetch that fully replaces the feed state; a failed fetch keeps the
// previously shown dreams and surfaces the error for a retry affordance.
type FeedController struct {
	api *API

	Scope FeedScope
	Page  int
	Sort  types.FeedSort

	Dreams       []types.Dream
	Pagination   types.Pagination
	FriendsCount int
	Err          error
}

func NewFeedController(api *API) *FeedController {
	return &FeedController{
		api:   api,
		Scope: ScopeDiscover,
		Page:  1,
		Sort:  types.SortRecent,
	}
}

// SetScope switches tabs and resets to page 1.
func (f *FeedController) SetScope(scope FeedScope) error {
	f.Scope = scope
	f.Page = 1
	return f.Refresh()
}

// SetPage navigates to a page within the current scope.
func (f *FeedController) SetPage(page int) error {
	if page < 1 {
		page = 1
	}
	f.Page = page
	return f.Refresh()
}

// SetSort changes the ordering and resets to page 1.
func (f *FeedController) SetSort(sort types.FeedSort) error {
	f.Sort = sort
	f.Page = 1
	return f.Refresh()
}

// Refresh refetches the current view. On success the whole feed state is
// replaced; on failure the stale dreams stay visible behind the error.
func (f *FeedController) Refresh() error {
	var (
		feed types.FeedPage
		err  error
	)

	switch f.Scope {
	case ScopeFriends:
		feed, err = f.api.FriendsFeed(f.Page, f.Sort)
	default:
		feed, err = f.api.PublicFeed(f.Page, f.Sort)
	}

	if err != nil {
		f.Err = err
		return err
	}

	f.Dreams = feed.Dreams
	f.Pagination = feed.Pagination
	f.FriendsCount = feed.FriendsCount
	f.Err = nil
	return nil
}

// PatchDream replaces the feed's copy of a dream by id, used by card
// callbacks after a like or privacy change.
func (f *FeedController) PatchDream(updated types.Dream) {
	for i, d := range f.Dreams {
		if d.DreamID == updated.DreamID {
			f.Dreams[i] = updated
			return
		}
	}
}

// PageWindow computes the page buttons to render: first page, last page, and
// a window of two pages either side of current, with PageEllipsis marking
// each gap. For current=5, total=10 it yields 1 … 3 4 5 6 7 … 10.
func PageWindow(current, total int) []int {
	if total <= 0 {
		return nil
	}

	pages := []int{1}

	lo := current - 2
	if lo < 2 {
		lo = 2
	}
	hi := current + 2
	if hi > total-1 {
		hi = total - 1
	}

	if lo > 2 {
		pages = append(pages, PageEllipsis)
	}
	for p := lo; p <= hi; p++ {
		pages = append(pages, p)
	}
	if hi < total-1 {
		pages = append(pages, PageEllipsis)
	}

	if total > 1 {
		pages = append(pages, total)
	}

	return pages
}

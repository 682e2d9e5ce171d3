package client

import (
	"errors"
	"strings"

	"github.com/ken-william/dreamshare/internal/types"
)

// ErrEmptyComment is returned when a comment is empty after trimming.
var ErrEmptyComment = errors.New("comment cannot be empty")

// CommentsPanel holds the comment list for a single dream.
type CommentsPanel struct {
	api *API

	DreamID  int64
	Comments []types.Comment
	Err      error
}

func NewCommentsPanel(api *API, dreamID int64) *CommentsPanel {
	return &CommentsPanel{api: api, DreamID: dreamID}
}

// Load fetches the full comment list, newest first, replacing local state.
func (p *CommentsPanel) Load() error {
	comments, err := p.api.ListComments(p.DreamID)
	if err != nil {
		p.Err = err
		return err
	}

	p.Comments = comments
	p.Err = nil
	return nil
}

// Submit posts a comment and prepends the server-returned object to the local
// list instead of refetching. Whitespace-only input is rejected without a
// request.
func (p *CommentsPanel) Submit(text string) (types.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Comment{}, ErrEmptyComment
	}

	comment, err := p.api.PostComment(p.DreamID, text)
	if err != nil {
		return types.Comment{}, err
	}

	p.Comments = append([]types.Comment{comment}, p.Comments...)
	return comment, nil
}

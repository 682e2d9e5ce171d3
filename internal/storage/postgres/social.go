package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/users"
)

func (p *Postgres) ToggleLike(dreamID, userID int64) (bool, int, error) {
	tx, err := p.Db.Begin()
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM dream_likes WHERE dream_id = $1 AND user_id = $2`, dreamID, userID)
	if err != nil {
		return false, 0, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	liked := false
	if deleted == 0 {
		_, err = tx.Exec(`INSERT INTO dream_likes (dream_id, user_id) VALUES ($1, $2)`, dreamID, userID)
		if err != nil {
			return false, 0, err
		}
		liked = true
	}

	var totalLikes int
	err = tx.QueryRow(`SELECT COUNT(*) FROM dream_likes WHERE dream_id = $1`, dreamID).Scan(&totalLikes)
	if err != nil {
		return false, 0, err
	}

	if err := tx.Commit(); err != nil {
		return false, 0, err
	}

	return liked, totalLikes, nil
}

const commentSelect = `
SELECT c.id, c.dream_id, u.id, u.username, u.email, c.content, c.created_at
FROM dream_comments c
JOIN users u ON u.id = c.user_id
`

func scanComment(row rowScanner) (types.Comment, error) {
	var c types.Comment
	var createdAt time.Time

	err := row.Scan(&c.ID, &c.DreamID, &c.User.ID, &c.User.Username, &c.User.Email, &c.Content, &createdAt)
	if err != nil {
		return types.Comment{}, err
	}

	c.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return c, nil
}

func (p *Postgres) ListComments(dreamID int64) ([]types.Comment, error) {
	rows, err := p.Db.Query(commentSelect+` WHERE c.dream_id = $1 ORDER BY c.created_at DESC, c.id DESC`, dreamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []types.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (p *Postgres) CreateComment(dreamID, userID int64, content string) (types.Comment, error) {
	var commentID int64
	err := p.Db.QueryRow(`
	INSERT INTO dream_comments (dream_id, user_id, content)
	VALUES ($1, $2, $3)
	RETURNING id
	`, dreamID, userID, content).Scan(&commentID)
	if err != nil {
		return types.Comment{}, err
	}

	row := p.Db.QueryRow(commentSelect+` WHERE c.id = $1`, commentID)
	return scanComment(row)
}

func (p *Postgres) AreFriends(a, b int64) (bool, error) {
	var friends bool
	err := p.Db.QueryRow(`
	SELECT EXISTS (
		SELECT 1 FROM friend_requests
		WHERE status = 'accepted'
		  AND ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
	)
	`, a, b).Scan(&friends)
	return friends, err
}

func (p *Postgres) ListFriends(userID int64) ([]users.User, error) {
	rows, err := p.Db.Query(`
	SELECT u.id, u.username, u.email
	FROM users u
	JOIN friend_requests fr ON fr.status = 'accepted'
	 AND ((fr.from_user_id = $1 AND fr.to_user_id = u.id)
	   OR (fr.to_user_id = $1 AND fr.from_user_id = u.id))
	ORDER BY u.username
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := []users.User{}
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, err
		}
		friends = append(friends, u)
	}

	return friends, rows.Err()
}

const requestSelect = `
SELECT r.id, fu.id, fu.username, fu.email, tu.id, tu.username, tu.email, r.status, r.created_at
FROM friend_requests r
JOIN users fu ON fu.id = r.from_user_id
JOIN users tu ON tu.id = r.to_user_id
`

func scanFriendRequest(row rowScanner) (types.FriendRequest, error) {
	var fr types.FriendRequest
	var createdAt time.Time

	err := row.Scan(&fr.ID,
		&fr.FromUser.ID, &fr.FromUser.Username, &fr.FromUser.Email,
		&fr.ToUser.ID, &fr.ToUser.Username, &fr.ToUser.Email,
		&fr.Status, &createdAt)
	if err != nil {
		return types.FriendRequest{}, err
	}

	fr.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return fr, nil
}

func (p *Postgres) getFriendRequest(id int64) (types.FriendRequest, error) {
	row := p.Db.QueryRow(requestSelect+` WHERE r.id = $1`, id)

	fr, err := scanFriendRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FriendRequest{}, storage.ErrNotFound
	}
	return fr, err
}

func (p *Postgres) CreateFriendRequest(fromID, toID int64) (types.FriendRequest, error) {
	var exists bool
	err := p.Db.QueryRow(`
	SELECT EXISTS (
		SELECT 1 FROM friend_requests
		WHERE status != 'rejected'
		  AND ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
	)
	`, fromID, toID).Scan(&exists)
	if err != nil {
		return types.FriendRequest{}, err
	}
	if exists {
		return types.FriendRequest{}, storage.ErrRequestExists
	}

	// A rejected request in the same direction is reactivated instead of
	// inserting a second row; the pair is unique.
	var requestID int64
	err = p.Db.QueryRow(`
	UPDATE friend_requests SET status = 'pending', created_at = CURRENT_TIMESTAMP
	WHERE from_user_id = $1 AND to_user_id = $2 AND status = 'rejected'
	RETURNING id
	`, fromID, toID).Scan(&requestID)
	if errors.Is(err, sql.ErrNoRows) {
		err = p.Db.QueryRow(`
		INSERT INTO friend_requests (from_user_id, to_user_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id
		`, fromID, toID).Scan(&requestID)
	}
	if err != nil {
		return types.FriendRequest{}, err
	}

	return p.getFriendRequest(requestID)
}

func (p *Postgres) collectFriendRequests(query string, args ...interface{}) ([]types.FriendRequest, error) {
	rows, err := p.Db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []types.FriendRequest{}
	for rows.Next() {
		fr, err := scanFriendRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, fr)
	}

	return requests, rows.Err()
}

func (p *Postgres) PendingRequests(userID int64) ([]types.FriendRequest, error) {
	return p.collectFriendRequests(requestSelect+`
	WHERE r.status = 'pending' AND r.to_user_id = $1 ORDER BY r.id DESC`, userID)
}

func (p *Postgres) SentRequests(userID int64) ([]types.FriendRequest, error) {
	return p.collectFriendRequests(requestSelect+`
	WHERE r.status = 'pending' AND r.from_user_id = $1 ORDER BY r.id DESC`, userID)
}

func (p *Postgres) RespondToRequest(requestID, recipientID int64, accept bool) (types.FriendRequest, error) {
	newStatus := types.RequestRejected
	if accept {
		newStatus = types.RequestAccepted
	}

	var id int64
	err := p.Db.QueryRow(`
	UPDATE friend_requests SET status = $1
	WHERE id = $2 AND to_user_id = $3 AND status = 'pending'
	RETURNING id
	`, newStatus, requestID, recipientID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FriendRequest{}, storage.ErrNotFound
	}
	if err != nil {
		return types.FriendRequest{}, err
	}

	return p.getFriendRequest(id)
}

func (p *Postgres) RemoveFriend(userID, otherID int64) (int64, error) {
	res, err := p.Db.Exec(`
	DELETE FROM friend_requests
	WHERE status = 'accepted'
	  AND ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
	`, userID, otherID)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (p *Postgres) PruneRejectedRequests(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	res, err := p.Db.Exec(`
	DELETE FROM friend_requests WHERE status = 'rejected' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types"
)

// dreamSelect is shared by every dream query. $1 is always the viewer, so the
// user_liked flag comes back relative to whoever is asking.
const dreamSelect = `
SELECT d.dream_id, u.id, u.username, u.email, d.transcription, d.reformed_prompt, d.img, d.date,
       d.privacy, d.emotion, d.emotion_confidence,
       (SELECT COUNT(*) FROM dream_likes l WHERE l.dream_id = d.dream_id) AS likes_count,
       EXISTS (SELECT 1 FROM dream_likes l WHERE l.dream_id = d.dream_id AND l.user_id = $1) AS user_liked,
       (SELECT COUNT(*) FROM dream_comments c WHERE c.dream_id = d.dream_id) AS comments_count
FROM dreams d
JOIN users u ON u.id = d.user_id
`

const friendCondition = `EXISTS (
	SELECT 1 FROM friend_requests fr
	WHERE fr.status = 'accepted'
	  AND ((fr.from_user_id = $1 AND fr.to_user_id = d.user_id)
	    OR (fr.from_user_id = d.user_id AND fr.to_user_id = $1))
)`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDream(row rowScanner) (types.Dream, error) {
	var d types.Dream
	var date time.Time

	err := row.Scan(&d.DreamID, &d.User.ID, &d.User.Username, &d.User.Email,
		&d.Transcription, &d.ReformedPrompt, &d.Img, &date,
		&d.Privacy, &d.Emotion, &d.EmotionConfidence,
		&d.LikesCount, &d.UserLiked, &d.CommentsCount)
	if err != nil {
		return types.Dream{}, err
	}

	d.Date = date.UTC().Format(time.RFC3339)
	d.EmotionEmoji = types.EmojiForEmotion(d.Emotion)
	return d, nil
}

func (p *Postgres) collectDreams(query string, args ...interface{}) ([]types.Dream, error) {
	rows, err := p.Db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dreams := []types.Dream{}
	for rows.Next() {
		d, err := scanDream(rows)
		if err != nil {
			return nil, err
		}
		dreams = append(dreams, d)
	}

	return dreams, rows.Err()
}

func orderClause(sort types.FeedSort) string {
	if sort == types.SortPopular {
		return " ORDER BY likes_count DESC, d.date DESC, d.dream_id DESC"
	}
	return " ORDER BY d.date DESC, d.dream_id DESC"
}

func paginate(page, perPage, totalItems int) types.Pagination {
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	return types.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

func (p *Postgres) CreateDream(authorID int64, req types.DreamCreateRequest, imgURL string) (types.Dream, error) {
	var dreamID int64
	query := `
	INSERT INTO dreams (user_id, transcription, reformed_prompt, img, privacy, emotion, emotion_confidence)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING dream_id
	`

	err := p.Db.QueryRow(query, authorID, req.Transcription, req.ReformedPrompt, imgURL,
		req.Privacy, req.Emotion, req.EmotionConfidence).Scan(&dreamID)
	if err != nil {
		return types.Dream{}, err
	}

	return p.GetDreamByID(dreamID, authorID)
}

func (p *Postgres) GetDreamByID(dreamID, viewerID int64) (types.Dream, error) {
	row := p.Db.QueryRow(dreamSelect+` WHERE d.dream_id = $2`, viewerID, dreamID)

	d, err := scanDream(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Dream{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Dream{}, err
	}

	return d, nil
}

func (p *Postgres) ListUserDreams(userID int64) ([]types.Dream, error) {
	return p.collectDreams(dreamSelect+` WHERE d.user_id = $1`+orderClause(types.SortRecent), userID)
}

func (p *Postgres) PublicFeed(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error) {
	var totalItems int
	err := p.Db.QueryRow(`SELECT COUNT(*) FROM dreams WHERE privacy = 'public'`).Scan(&totalItems)
	if err != nil {
		return types.FeedPage{}, err
	}

	dreams, err := p.collectDreams(
		dreamSelect+` WHERE d.privacy = 'public'`+orderClause(sort)+` LIMIT $2 OFFSET $3`,
		viewerID, perPage, (page-1)*perPage)
	if err != nil {
		return types.FeedPage{}, err
	}

	return types.FeedPage{Dreams: dreams, Pagination: paginate(page, perPage, totalItems)}, nil
}

func (p *Postgres) FriendsFeed(viewerID int64, page, perPage int, sort types.FeedSort) (types.FeedPage, error) {
	scope := ` WHERE d.privacy IN ('public', 'friends_only') AND ` + friendCondition

	var totalItems int
	err := p.Db.QueryRow(`SELECT COUNT(*) FROM dreams d`+scope, viewerID).Scan(&totalItems)
	if err != nil {
		return types.FeedPage{}, err
	}

	var friendsCount int
	err = p.Db.QueryRow(`
	SELECT COUNT(*) FROM friend_requests
	WHERE status = 'accepted' AND (from_user_id = $1 OR to_user_id = $1)
	`, viewerID).Scan(&friendsCount)
	if err != nil {
		return types.FeedPage{}, err
	}

	dreams, err := p.collectDreams(
		dreamSelect+scope+orderClause(sort)+` LIMIT $2 OFFSET $3`,
		viewerID, perPage, (page-1)*perPage)
	if err != nil {
		return types.FeedPage{}, err
	}

	return types.FeedPage{
		Dreams:       dreams,
		Pagination:   paginate(page, perPage, totalItems),
		FriendsCount: friendsCount,
	}, nil
}

func (p *Postgres) UpdateDreamPrivacy(dreamID, ownerID int64, privacy types.Privacy) error {
	res, err := p.Db.Exec(`
	UPDATE dreams SET privacy = $1 WHERE dream_id = $2 AND user_id = $3
	`, privacy, dreamID, ownerID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

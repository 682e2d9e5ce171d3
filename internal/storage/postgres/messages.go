package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types"
	"github.com/ken-william/dreamshare/internal/types/media"
)

const messageSelect = `
SELECT m.id, su.username, ru.username, m.message_type, m.content, m.dream_id, m.created_at
FROM messages m
JOIN users su ON su.id = m.sender_id
JOIN users ru ON ru.id = m.receiver_id
`

// scanMessage leaves the dream snapshot to the caller since it depends on the
// viewer; it returns the referenced dream id when there is one.
func scanMessage(row rowScanner) (types.Message, *int64, error) {
	var m types.Message
	var dreamID sql.NullInt64
	var createdAt time.Time

	err := row.Scan(&m.ID, &m.FromUsername, &m.ToUsername, &m.MessageType, &m.Text, &dreamID, &createdAt)
	if err != nil {
		return types.Message{}, nil, err
	}

	m.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if dreamID.Valid {
		id := dreamID.Int64
		return m, &id, nil
	}
	return m, nil, nil
}

func (p *Postgres) attachDreamSnapshot(m types.Message, dreamID *int64, viewerID int64) (types.Message, error) {
	if dreamID == nil {
		return m, nil
	}

	dream, err := p.GetDreamByID(*dreamID, viewerID)
	if errors.Is(err, storage.ErrNotFound) {
		// Shared dream was deleted since; keep the message as plain text.
		return m, nil
	}
	if err != nil {
		return types.Message{}, err
	}

	m.Dream = &dream
	return m, nil
}

func (p *Postgres) ListMessages(userID, otherID int64) ([]types.Message, error) {
	rows, err := p.Db.Query(messageSelect+`
	WHERE (m.sender_id = $1 AND m.receiver_id = $2) OR (m.sender_id = $2 AND m.receiver_id = $1)
	ORDER BY m.created_at, m.id
	`, userID, otherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pending struct {
		msg     types.Message
		dreamID *int64
	}
	var scanned []pending
	for rows.Next() {
		m, dreamID, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		scanned = append(scanned, pending{msg: m, dreamID: dreamID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	messages := []types.Message{}
	for _, s := range scanned {
		m, err := p.attachDreamSnapshot(s.msg, s.dreamID, userID)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, nil
}

func (p *Postgres) CreateMessage(fromID, toID int64, msgType types.MessageType, text string, dreamID *int64) (types.Message, error) {
	var messageID int64
	err := p.Db.QueryRow(`
	INSERT INTO messages (sender_id, receiver_id, message_type, content, dream_id)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`, fromID, toID, msgType, text, dreamID).Scan(&messageID)
	if err != nil {
		return types.Message{}, err
	}

	row := p.Db.QueryRow(messageSelect+` WHERE m.id = $1`, messageID)
	m, refDreamID, err := scanMessage(row)
	if err != nil {
		return types.Message{}, err
	}

	return p.attachDreamSnapshot(m, refDreamID, fromID)
}

func (p *Postgres) RecordImageUpload(userID int64, upload media.ImageUpload) (uint64, error) {
	var id uint64
	err := p.Db.QueryRow(`
	INSERT INTO image_uploads (user_id, object_key, file_name, content_type, size, url)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
	`, userID, upload.ObjectKey, upload.FileName, upload.ContentType, upload.Size, upload.URL).Scan(&id)
	return id, err
}

func (p *Postgres) GetImageUpload(objectKey string) (media.ImageUpload, error) {
	var u media.ImageUpload
	err := p.Db.QueryRow(`
	SELECT id, user_id, object_key, file_name, content_type, size, uploaded_at, url
	FROM image_uploads WHERE object_key = $1
	`, objectKey).Scan(&u.ID, &u.UserID, &u.ObjectKey, &u.FileName, &u.ContentType, &u.Size, &u.UploadedAt, &u.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return media.ImageUpload{}, storage.ErrNotFound
	}
	return u, err
}

package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ken-william/dreamshare/internal/config"
	"github.com/ken-william/dreamshare/internal/storage"
	"github.com/ken-william/dreamshare/internal/types/users"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(30) UNIQUE NOT NULL,
			email VARCHAR(255) NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS dreams (
			dream_id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			transcription TEXT NOT NULL,
			reformed_prompt TEXT NOT NULL DEFAULT '',
			img TEXT NOT NULL DEFAULT '',
			date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			privacy VARCHAR(20) NOT NULL CHECK (privacy IN ('public', 'friends_only', 'private')),
			emotion VARCHAR(50) NOT NULL DEFAULT '',
			emotion_confidence DOUBLE PRECISION NOT NULL DEFAULT 0
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS friend_requests (
			id SERIAL PRIMARY KEY,
			from_user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			to_user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status VARCHAR(10) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (from_user_id, to_user_id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS messages (
			id SERIAL PRIMARY KEY,
			sender_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			receiver_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			message_type VARCHAR(10) NOT NULL DEFAULT 'text' CHECK (message_type IN ('text', 'dream')),
			content TEXT NOT NULL DEFAULT '',
			dream_id INTEGER REFERENCES dreams(dream_id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS dream_likes (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			dream_id INTEGER NOT NULL REFERENCES dreams(dream_id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, dream_id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS dream_comments (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			dream_id INTEGER NOT NULL REFERENCES dreams(dream_id) ON DELETE CASCADE,
			content VARCHAR(500) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS image_uploads (
			id BIGSERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			object_key VARCHAR(255) UNIQUE NOT NULL,
			file_name VARCHAR(255) NOT NULL DEFAULT '',
			content_type VARCHAR(100) NOT NULL,
			size BIGINT NOT NULL DEFAULT 0,
			uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			url TEXT NOT NULL DEFAULT ''
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateUser(username, email, hashedPassword string) (int64, error) {
	var userID int64
	query := `
	INSERT INTO users (username, email, password)
	VALUES ($1, $2, $3)
	RETURNING id
	`

	err := p.Db.QueryRow(query, username, email, hashedPassword).Scan(&userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, storage.ErrDuplicateUser
		}
		return 0, err
	}

	return userID, nil
}

func (p *Postgres) GetUserByUsername(username string) (users.User, string, error) {
	var u users.User
	var hashedPassword string
	query := `
	SELECT id, username, email, password FROM users WHERE username = $1
	`

	err := p.Db.QueryRow(query, username).Scan(&u.ID, &u.Username, &u.Email, &hashedPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, "", storage.ErrNotFound
	}
	if err != nil {
		return users.User{}, "", err
	}

	return u, hashedPassword, nil
}

func (p *Postgres) GetUserByID(id int64) (users.User, error) {
	var u users.User
	query := `
	SELECT id, username, email FROM users WHERE id = $1
	`

	err := p.Db.QueryRow(query, id).Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, storage.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}

	return u, nil
}

func (p *Postgres) SearchUsers(query string, excludeID int64, limit int) ([]users.User, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := p.Db.Query(`
	SELECT id, username, email FROM users
	WHERE LOWER(username) LIKE $1 AND id != $2
	ORDER BY username
	LIMIT $3
	`, pattern, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []users.User{}
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, err
		}
		results = append(results, u)
	}

	return results, rows.Err()
}

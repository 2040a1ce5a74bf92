package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hellochat/internal/store"
)

const chatCols = `id, name, owner_id, members, created_at`

func scanChat(row pgx.Row) (*store.Chat, error) {
	var c store.Chat
	if err := row.Scan(&c.ID, &c.Name, &c.OwnerID, &c.Members, &c.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) CreateChat(ctx context.Context, name string, ownerID int64, members []int64) (*store.Chat, error) {
	const q = `INSERT INTO chats (name, owner_id, members) VALUES ($1, $2, $3) RETURNING ` + chatCols
	return scanChat(s.pool.QueryRow(ctx, q, name, ownerID, members))
}

func (s *Store) GetChat(ctx context.Context, id int64) (*store.Chat, error) {
	const q = `SELECT ` + chatCols + ` FROM chats WHERE id = $1`
	return scanChat(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) ListChatsForUser(ctx context.Context, userID int64) ([]store.Chat, error) {
	const q = `SELECT ` + chatCols + ` FROM chats WHERE $1 = ANY(members) ORDER BY id`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]store.Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) UpdateChat(ctx context.Context, id int64, name string, members []int64) (*store.Chat, error) {
	const q = `UPDATE chats SET name = $2, members = $3 WHERE id = $1 RETURNING ` + chatCols
	return scanChat(s.pool.QueryRow(ctx, q, id, name, members))
}

func (s *Store) DeleteChat(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, chatID, senderID int64, content string) (*store.Message, error) {
	const q = `
		INSERT INTO messages (chat_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, chat_id, sender_id, content, created_at`
	var m store.Message
	err := s.pool.QueryRow(ctx, q, chatID, senderID, content).
		Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context, q store.MessageQuery) ([]store.Message, error) {
	// chat inexistente => ErrNotFound, igual que el adapter en memoria
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chats WHERE id = $1)`, q.ChatID).Scan(&exists); err != nil {
		return nil, mapErr(err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	const sel = `
		SELECT id, chat_id, sender_id, content, created_at
		  FROM messages
		 WHERE chat_id = $1 AND ($2 = 0 OR id < $2)
		 ORDER BY id DESC
		 LIMIT $3`
	rows, err := s.pool.Query(ctx, sel, q.ChatID, q.BeforeID, q.Limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]store.Message, 0, q.Limit)
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

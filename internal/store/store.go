// Package store define el modelo persistido y los contratos de repositorio.
// Los adapters (pg, memory) devuelven solo los sentinels de este paquete;
// tipos de pgx/pgconn no cruzan esta frontera.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser es lo que el service entrega ya normalizado y hasheado.
type NewUser struct {
	Username     string
	DisplayName  string
	Email        string
	PasswordHash string
}

type Chat struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	Members   []int64   `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Chat) HasMember(userID int64) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageQuery pagina hacia atrás: BeforeID=0 arranca por el más nuevo.
type MessageQuery struct {
	ChatID   int64
	BeforeID int64
	Limit    int
}

type UserRepository interface {
	// CreateUser falla con ErrConflict si el email o el username ya existen (case-insensitive).
	CreateUser(ctx context.Context, u NewUser) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

type ChatRepository interface {
	CreateChat(ctx context.Context, name string, ownerID int64, members []int64) (*Chat, error)
	GetChat(ctx context.Context, id int64) (*Chat, error)
	// ListChatsForUser devuelve los chats donde userID es miembro, por id ascendente.
	ListChatsForUser(ctx context.Context, userID int64) ([]Chat, error)
	UpdateChat(ctx context.Context, id int64, name string, members []int64) (*Chat, error)
	DeleteChat(ctx context.Context, id int64) error

	// CreateMessage devuelve ErrNotFound si el chat no existe.
	CreateMessage(ctx context.Context, chatID, senderID int64, content string) (*Message, error)
	// ListMessages devuelve del más nuevo al más viejo.
	ListMessages(ctx context.Context, q MessageQuery) ([]Message, error)
}

// Store es lo que arma main: ambos repos más salud y cierre.
type Store interface {
	UserRepository
	ChatRepository
	Ping(ctx context.Context) error
	Close()
}

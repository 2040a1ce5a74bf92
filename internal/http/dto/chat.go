package dto

import "github.com/dropDatabas3/hellochat/internal/store"

// CreateChatRequest es el body de POST /api/chat.
type CreateChatRequest struct {
	Name    string  `json:"name"`
	Members []int64 `json:"members"`
}

// UpdateChatRequest es el body de PATCH /api/chat/{id}. Campos ausentes no cambian.
type UpdateChatRequest struct {
	Name    *string `json:"name"`
	Members []int64 `json:"members"`
}

// SendMessageRequest es el body de POST /api/chat/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

type ChatList struct {
	Chats []store.Chat `json:"chats"`
}

// MessageList: NextBeforeID es el cursor para la página siguiente (0 = no hay más).
type MessageList struct {
	Messages     []store.Message `json:"messages"`
	NextBeforeID int64           `json:"next_before_id,omitempty"`
}

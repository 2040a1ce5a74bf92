// Package chat contiene el controller HTTP de chats y mensajes.
// Todas las rutas corren detrás de RequireAuth.
package chat

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellochat/internal/chat"
	"github.com/dropDatabas3/hellochat/internal/http/dto"
	httperrors "github.com/dropDatabas3/hellochat/internal/http/errors"
	"github.com/dropDatabas3/hellochat/internal/http/helpers"
	"github.com/dropDatabas3/hellochat/internal/http/middlewares"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
	"github.com/dropDatabas3/hellochat/internal/store"
)

type Service interface {
	CreateChat(ctx context.Context, userID int64, in chat.CreateChatInput) (*store.Chat, error)
	ListChats(ctx context.Context, userID int64) ([]store.Chat, error)
	UpdateChat(ctx context.Context, userID, chatID int64, in chat.UpdateChatInput) (*store.Chat, error)
	DeleteChat(ctx context.Context, userID, chatID int64) error
	ListMessages(ctx context.Context, userID, chatID int64, in chat.ListMessagesInput) ([]store.Message, error)
	SendMessage(ctx context.Context, userID, chatID int64, content string) (*store.Message, error)
}

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) scope(r *http.Request, op string) (*zap.Logger, int64) {
	return logger.From(r.Context()).With(logger.Layer("controller"), logger.Component("chat"), logger.Op(op)),
		middlewares.UserID(r.Context())
}

// List maneja GET /api/chat
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	log, uid := c.scope(r, "List")
	chats, err := c.service.ListChats(r.Context(), uid)
	if err != nil {
		writeChatError(w, log, err)
		return
	}
	if chats == nil {
		chats = []store.Chat{}
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ChatList{Chats: chats})
}

// Create maneja POST /api/chat
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	log, uid := c.scope(r, "Create")
	var req dto.CreateChatRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	ch, err := c.service.CreateChat(r.Context(), uid, chat.CreateChatInput{Name: req.Name, Members: req.Members})
	if err != nil {
		writeChatError(w, log, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, ch)
}

// Update maneja PATCH /api/chat/{id}
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	log, uid := c.scope(r, "Update")
	id, ok := chatID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateChatRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	ch, err := c.service.UpdateChat(r.Context(), uid, id, chat.UpdateChatInput{Name: req.Name, Members: req.Members})
	if err != nil {
		writeChatError(w, log, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, ch)
}

// Delete maneja DELETE /api/chat/{id}. 204 sin body.
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	log, uid := c.scope(r, "Delete")
	id, ok := chatID(w, r)
	if !ok {
		return
	}
	if err := c.service.DeleteChat(r.Context(), uid, id); err != nil {
		writeChatError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages maneja GET /api/chat/{id}/messages?limit=&before_id=
func (c *Controller) ListMessages(w http.ResponseWriter, r *http.Request) {
	log, uid := c.scope(r, "ListMessages")
	id, ok := chatID(w, r)
	if !ok {
		return
	}

	var in chat.ListMessagesInput
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("limit"))
			return
		}
		in.Limit = n
	}
	if v := q.Get("before_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("before_id"))
			return
		}
		in.BeforeID = n
	}

	msgs, err := c.service.ListMessages(r.Context(), uid, id, in)
	if err != nil {
		writeChatError(w, log, err)
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	out := dto.MessageList{Messages: msgs}
	limit := in.Limit
	if limit == 0 {
		limit = chat.DefaultPageSize
	}
	if len(msgs) == limit {
		out.NextBeforeID = msgs[len(msgs)-1].ID
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// SendMessage maneja POST /api/chat/{id}/messages
func (c *Controller) SendMessage(w http.ResponseWriter, r *http.Request) {
	log, uid := c.scope(r, "SendMessage")
	id, ok := chatID(w, r)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	m, err := c.service.SendMessage(r.Context(), uid, id, req.Content)
	if err != nil {
		writeChatError(w, log, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, m)
}

func chatID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("id"))
		return 0, false
	}
	return id, true
}

func writeChatError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrChatNotFound)
	case errors.Is(err, chat.ErrForbidden):
		httperrors.WriteError(w, httperrors.ErrForbidden)
	case errors.Is(err, chat.ErrInvalidInput):
		httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithDetail(err.Error()))
	default:
		log.Error("chat request failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}

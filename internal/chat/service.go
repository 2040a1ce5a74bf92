// Package chat implementa chats y mensajes sobre el repositorio y publica
// un notify.Event por cada mutación.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellochat/internal/notify"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
	"github.com/dropDatabas3/hellochat/internal/store"
	"github.com/dropDatabas3/hellochat/internal/validation"
)

const (
	MaxMessageBytes = 4096
	MaxMembers      = 200

	DefaultPageSize = 50
	MaxPageSize     = 100

	publishTimeout = 2 * time.Second
)

// Repository es lo que el service necesita del storage.
type Repository interface {
	store.ChatRepository
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

type Deps struct {
	Repo Repository
	// Publisher nil => las mutaciones no notifican.
	Publisher notify.Publisher
}

type Service struct {
	repo Repository
	pub  notify.Publisher
}

func New(deps Deps) (*Service, error) {
	if deps.Repo == nil {
		return nil, errors.New("chat: repository required")
	}
	return &Service{repo: deps.Repo, pub: deps.Publisher}, nil
}

type CreateChatInput struct {
	Name    string  `json:"name"`
	Members []int64 `json:"members"`
}

// UpdateChatInput: campos nil no cambian.
type UpdateChatInput struct {
	Name    *string `json:"name,omitempty"`
	Members []int64 `json:"members,omitempty"`
}

type ListMessagesInput struct {
	BeforeID int64
	Limit    int
}

// CreateChat crea un chat con userID como dueño. El dueño siempre es miembro.
func (s *Service) CreateChat(ctx context.Context, userID int64, in CreateChatInput) (*store.Chat, error) {
	log := s.log(ctx, "create_chat")

	name := strings.TrimSpace(in.Name)
	if !validation.ValidChatName(name) {
		return nil, fmt.Errorf("%w: name", ErrInvalidInput)
	}
	members, err := s.resolveMembers(ctx, userID, in.Members)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.CreateChat(ctx, name, userID, members)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: owner", ErrNotFound)
		}
		log.Error("create chat failed", logger.Err(err))
		return nil, fmt.Errorf("chat: create: %w", err)
	}
	log.Info("chat created", logger.ChatID(c.ID), logger.Count(len(c.Members)))

	s.publish(ctx, notify.ChatCreated, c.ID, c.Members, c)
	return c, nil
}

// ListChats devuelve los chats donde userID es miembro.
func (s *Service) ListChats(ctx context.Context, userID int64) ([]store.Chat, error) {
	chats, err := s.repo.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chat: list: %w", err)
	}
	return chats, nil
}

// UpdateChat solo lo puede hacer el dueño. Se notifica a miembros viejos y nuevos.
func (s *Service) UpdateChat(ctx context.Context, userID, chatID int64, in UpdateChatInput) (*store.Chat, error) {
	log := s.log(ctx, "update_chat").With(logger.ChatID(chatID))

	cur, err := s.ownedChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	name := cur.Name
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if !validation.ValidChatName(name) {
			return nil, fmt.Errorf("%w: name", ErrInvalidInput)
		}
	}
	members := cur.Members
	if in.Members != nil {
		if members, err = s.resolveMembers(ctx, userID, in.Members); err != nil {
			return nil, err
		}
	}

	c, err := s.repo.UpdateChat(ctx, chatID, name, members)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error("update chat failed", logger.Err(err))
		return nil, fmt.Errorf("chat: update: %w", err)
	}
	log.Info("chat updated")

	s.publish(ctx, notify.ChatUpdated, c.ID, union(cur.Members, c.Members), c)
	return c, nil
}

// DeleteChat solo lo puede hacer el dueño; borra también los mensajes.
func (s *Service) DeleteChat(ctx context.Context, userID, chatID int64) error {
	log := s.log(ctx, "delete_chat").With(logger.ChatID(chatID))

	cur, err := s.ownedChat(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteChat(ctx, chatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		log.Error("delete chat failed", logger.Err(err))
		return fmt.Errorf("chat: delete: %w", err)
	}
	log.Info("chat deleted")

	s.publish(ctx, notify.ChatDeleted, chatID, cur.Members, map[string]int64{"id": chatID})
	return nil
}

// ListMessages pagina del más nuevo al más viejo. Limit 0 => 50; fuera de 1..100 es inválido.
func (s *Service) ListMessages(ctx context.Context, userID, chatID int64, in ListMessagesInput) ([]store.Message, error) {
	limit := in.Limit
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxPageSize)
	}
	if in.BeforeID < 0 {
		return nil, fmt.Errorf("%w: before_id", ErrInvalidInput)
	}
	if _, err := s.memberChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, store.MessageQuery{ChatID: chatID, BeforeID: in.BeforeID, Limit: limit})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("chat: list messages: %w", err)
	}
	return msgs, nil
}

// SendMessage guarda el mensaje y lo notifica a todos los miembros (incluido el autor).
func (s *Service) SendMessage(ctx context.Context, userID, chatID int64, content string) (*store.Message, error) {
	log := s.log(ctx, "send_message").With(logger.ChatID(chatID))

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidInput)
	}
	if len(content) > MaxMessageBytes {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrInvalidInput, MaxMessageBytes)
	}
	c, err := s.memberChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.CreateMessage(ctx, chatID, userID, content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error("create message failed", logger.Err(err))
		return nil, fmt.Errorf("chat: send: %w", err)
	}
	log.Debug("message stored", logger.MessageID(m.ID))

	s.publish(ctx, notify.MessageSent, chatID, c.Members, m)
	return m, nil
}

func (s *Service) getChat(ctx context.Context, chatID int64) (*store.Chat, error) {
	if chatID <= 0 {
		return nil, ErrNotFound
	}
	c, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("chat: get: %w", err)
	}
	return c, nil
}

func (s *Service) memberChat(ctx context.Context, userID, chatID int64) (*store.Chat, error) {
	c, err := s.getChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasMember(userID) {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *Service) ownedChat(ctx context.Context, userID, chatID int64) (*store.Chat, error) {
	c, err := s.getChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

// resolveMembers deduplica, agrega al dueño y verifica que cada usuario exista.
func (s *Service) resolveMembers(ctx context.Context, ownerID int64, ids []int64) ([]int64, error) {
	out := []int64{ownerID}
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: member id %d", ErrInvalidInput, id)
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	if len(out) > MaxMembers {
		return nil, fmt.Errorf("%w: more than %d members", ErrInvalidInput, MaxMembers)
	}
	for _, id := range out[1:] {
		if _, err := s.repo.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown member %d", ErrInvalidInput, id)
			}
			return nil, fmt.Errorf("chat: lookup member: %w", err)
		}
	}
	return out, nil
}

// publish no falla el request: el cambio ya está persistido.
func (s *Service) publish(ctx context.Context, typ notify.EventType, chatID int64, recipients []int64, payload any) {
	if s.pub == nil {
		return
	}
	log := s.log(ctx, "publish").With(logger.Event(string(typ)), logger.ChatID(chatID))

	ev, err := notify.NewEvent(typ, chatID, recipients, payload)
	if err != nil {
		log.Error("build event failed", logger.Err(err))
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.pub.Publish(pctx, ev); err != nil {
		log.Warn("publish failed", logger.Err(err))
		return
	}
	log.Debug("event published", logger.Recipients(len(recipients)))
}

func (s *Service) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(logger.Layer("service"), logger.Component("chat"), logger.Op(op))
}

func union(a, b []int64) []int64 {
	out := slices.Clone(a)
	for _, id := range b {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

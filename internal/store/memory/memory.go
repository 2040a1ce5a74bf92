// Package memory implementa store.Store en proceso. Se usa en tests y con
// storage.driver=memory; los datos se pierden al reiniciar.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/hellochat/internal/store"
)

type Store struct {
	mu sync.RWMutex

	users      map[int64]store.User
	byEmail    map[string]int64
	byUsername map[string]int64
	chats   map[int64]store.Chat
	msgs    map[int64][]store.Message // chatID -> mensajes por id ascendente

	nextUser, nextChat, nextMsg int64
	now                         func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:      map[int64]store.User{},
		byEmail:    map[string]int64{},
		byUsername: map[string]int64{},
		chats:      map[int64]store.Chat{},
		msgs:       map[int64][]store.Message{},
		now:        time.Now,
	}
}

// fold normaliza email y username para las búsquedas case-insensitive.
func fold(v string) string { return strings.ToLower(strings.TrimSpace(v)) }

func (s *Store) CreateUser(_ context.Context, nu store.NewUser) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ek, uk := fold(nu.Email), fold(nu.Username)
	if _, dup := s.byEmail[ek]; dup {
		return nil, store.ErrConflict
	}
	if _, dup := s.byUsername[uk]; dup {
		return nil, store.ErrConflict
	}
	s.nextUser++
	u := store.User{
		ID:           s.nextUser,
		Username:     nu.Username,
		DisplayName:  nu.DisplayName,
		PasswordHash: nu.PasswordHash,
		Email:        nu.Email,
		CreatedAt:    s.now().UTC(),
	}
	s.users[u.ID] = u
	s.byEmail[ek] = u.ID
	s.byUsername[uk] = u.ID
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[fold(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) CreateChat(_ context.Context, name string, ownerID int64, members []int64) (*store.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[ownerID]; !ok {
		return nil, store.ErrNotFound
	}
	s.nextChat++
	c := store.Chat{
		ID:        s.nextChat,
		Name:      name,
		OwnerID:   ownerID,
		Members:   slices.Clone(members),
		CreatedAt: s.now().UTC(),
	}
	s.chats[c.ID] = c
	return cloneChat(c), nil
}

func (s *Store) GetChat(_ context.Context, id int64) (*store.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneChat(c), nil
}

func (s *Store) ListChatsForUser(_ context.Context, userID int64) ([]store.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Chat, 0)
	for _, c := range s.chats {
		if c.HasMember(userID) {
			out = append(out, *cloneChat(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateChat(_ context.Context, id int64, name string, members []int64) (*store.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.Name = name
	c.Members = slices.Clone(members)
	s.chats[id] = c
	return cloneChat(c), nil
}

func (s *Store) DeleteChat(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.chats, id)
	delete(s.msgs, id)
	return nil
}

func (s *Store) CreateMessage(_ context.Context, chatID, senderID int64, content string) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; !ok {
		return nil, store.ErrNotFound
	}
	s.nextMsg++
	m := store.Message{
		ID:        s.nextMsg,
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	s.msgs[chatID] = append(s.msgs[chatID], m)
	return &m, nil
}

func (s *Store) ListMessages(_ context.Context, q store.MessageQuery) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.chats[q.ChatID]; !ok {
		return nil, store.ErrNotFound
	}
	all := s.msgs[q.ChatID]
	out := make([]store.Message, 0, q.Limit)
	for i := len(all) - 1; i >= 0 && len(out) < q.Limit; i-- {
		if q.BeforeID > 0 && all[i].ID >= q.BeforeID {
			continue
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

func cloneChat(c store.Chat) *store.Chat {
	c.Members = slices.Clone(c.Members)
	return &c
}

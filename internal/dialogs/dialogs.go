// Package dialogs models the conversation tree visible to the account and
// owns its full-reload lifecycle. The listing itself is an external
// capability of the conversation backend.
package dialogs

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Kind is the conversation category.
type Kind string

const (
	KindPrivate Kind = "private"
	KindGroup   Kind = "group"
	KindChannel Kind = "channel"
	KindBot     Kind = "bot"
	KindUnknown Kind = "unknown"
)

// Conversation is one entry of the tree. Immutable once loaded; a reload
// replaces the entire set.
type Conversation struct {
	ID    int64
	Title string
	Kind  Kind
	// Forum marks group conversations subdivided into topics.
	Forum bool
}

// Addressable reports whether messages can be scheduled into the
// conversation.
func (c Conversation) Addressable() bool {
	switch c.Kind {
	case KindPrivate, KindGroup, KindChannel, KindBot:
		return true
	default:
		return false
	}
}

// Lister is the conversation-listing capability of the backend.
type Lister interface {
	ListConversations(ctx context.Context) ([]Conversation, error)
}

// Service holds the current conversation set.
type Service struct {
	lister Lister

	mu   sync.RWMutex
	list []Conversation
}

func NewService(lister Lister) *Service {
	return &Service{lister: lister}
}

// Reload replaces the whole set from the backend. On error the previous set
// is kept.
func (s *Service) Reload(ctx context.Context) error {
	list, err := s.lister.ListConversations(ctx)
	if err != nil {
		return err
	}
	sorted := append([]Conversation(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})

	s.mu.Lock()
	s.list = sorted
	s.mu.Unlock()
	return nil
}

// All returns the current set, sorted case-insensitively by title.
func (s *Service) All() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Conversation(nil), s.list...)
}

// Find returns the conversation with the given id.
func (s *Service) Find(id int64) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.list {
		if c.ID == id {
			return c, true
		}
	}
	return Conversation{}, false
}

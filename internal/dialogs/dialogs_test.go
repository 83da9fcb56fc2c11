package dialogs

import (
	"context"
	"errors"
	"testing"
)

type fakeLister struct {
	list []Conversation
	err  error
}

func (f *fakeLister) ListConversations(ctx context.Context) ([]Conversation, error) {
	return f.list, f.err
}

func TestReloadSortsByTitle(t *testing.T) {
	t.Parallel()
	fl := &fakeLister{list: []Conversation{
		{ID: 1, Title: "zebra", Kind: KindGroup},
		{ID: 2, Title: "Apple", Kind: KindPrivate},
		{ID: 3, Title: "mango", Kind: KindChannel},
	}}
	s := NewService(fl)
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	got := s.All()
	if got[0].Title != "Apple" || got[1].Title != "mango" || got[2].Title != "zebra" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestReloadKeepsOldSetOnError(t *testing.T) {
	t.Parallel()
	fl := &fakeLister{list: []Conversation{{ID: 1, Title: "a", Kind: KindGroup}}}
	s := NewService(fl)
	if err := s.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	fl.err = errors.New("offline")
	if err := s.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(s.All()) != 1 {
		t.Fatal("previous set lost")
	}
}

func TestFindAndAddressable(t *testing.T) {
	t.Parallel()
	fl := &fakeLister{list: []Conversation{
		{ID: 5, Title: "forum", Kind: KindGroup, Forum: true},
		{ID: 6, Title: "odd", Kind: KindUnknown},
	}}
	s := NewService(fl)
	if err := s.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	c, ok := s.Find(5)
	if !ok || !c.Forum || !c.Addressable() {
		t.Fatalf("Find(5) = %+v, %v", c, ok)
	}
	if c, _ := s.Find(6); c.Addressable() {
		t.Fatal("unknown kind should not be addressable")
	}
	if _, ok := s.Find(99); ok {
		t.Fatal("Find(99) should miss")
	}
}

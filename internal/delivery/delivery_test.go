package delivery

import (
	"context"
	"errors"
	"testing"

	"tgsched/internal/dialogs"
	kit "tgsched/internal/transport"
)

type fakeSender struct {
	sent []sentCall
	err  error
}

type sentCall struct {
	to   kit.ChatTarget
	text string
}

func (f *fakeSender) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.sent = append(f.sent, sentCall{to: to, text: text})
	return kit.MessageRef{}, f.err
}

func (f *fakeSender) Stop(ctx context.Context) error { return nil }

var conv = dialogs.Conversation{ID: 777, Title: "devs", Kind: dialogs.KindGroup, Forum: true}

func TestDeliverPlainAndGeneralAreIdentical(t *testing.T) {
	t.Parallel()
	for _, topicID := range []int{0, 1} {
		fs := &fakeSender{}
		fac := New(fs, 0)
		err := fac.Deliver(context.Background(), Target{Conversation: conv, TopicID: topicID}, "hi")
		if err != nil {
			t.Fatalf("Deliver(topic=%d): %v", topicID, err)
		}
		if len(fs.sent) != 1 {
			t.Fatalf("sent %d calls", len(fs.sent))
		}
		want := kit.ChatTarget{ChatID: 777, ThreadID: 0}
		if fs.sent[0].to != want {
			t.Fatalf("topic=%d routed to %+v, want %+v", topicID, fs.sent[0].to, want)
		}
	}
}

func TestDeliverTopicUsesThread(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	fac := New(fs, 0)
	err := fac.Deliver(context.Background(), Target{Conversation: conv, TopicID: 5, TopicTitle: "infra"}, "hi")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got := fs.sent[0].to; got != (kit.ChatTarget{ChatID: 777, ThreadID: 5}) {
		t.Fatalf("routed to %+v", got)
	}
}

func TestDeliverErrorPassthrough(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("rejected")
	fs := &fakeSender{err: sentinel}
	fac := New(fs, 0)
	err := fac.Deliver(context.Background(), Target{Conversation: conv}, "hi")
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want passthrough", err)
	}
	if len(fs.sent) != 1 {
		t.Fatalf("sent %d calls, want exactly 1", len(fs.sent))
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		target Target
		want   string
	}{
		{Target{Conversation: conv}, "devs"},
		{Target{Conversation: conv, TopicID: 1, TopicTitle: "General"}, "devs"},
		{Target{Conversation: conv, TopicID: 5, TopicTitle: "infra"}, "devs / infra"},
		{Target{Conversation: conv, TopicID: 5}, "devs / topic"},
	}
	for _, tt := range tests {
		if got := tt.target.Label(); got != tt.want {
			t.Fatalf("Label(%+v) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

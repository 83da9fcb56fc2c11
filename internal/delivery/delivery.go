// Package delivery translates a schedule target into exactly one outbound
// send call.
package delivery

import (
	"context"

	"golang.org/x/time/rate"

	"tgsched/internal/dialogs"
	"tgsched/internal/topics"
	kit "tgsched/internal/transport"
)

// Target is a conversation, optionally narrowed to one of its forum topics.
//
// TopicID equal to topics.GeneralTopicID addresses the forum's implicit root
// and is treated as the top-level conversation; this equivalence is forum
// semantics, not a special case of ours.
type Target struct {
	Conversation dialogs.Conversation
	TopicID      int
	TopicTitle   string
}

// Label renders the target for status reporting.
func (t Target) Label() string {
	if t.topical() {
		title := t.TopicTitle
		if title == "" {
			title = "topic"
		}
		return t.Conversation.Title + " / " + title
	}
	return t.Conversation.Title
}

func (t Target) topical() bool {
	return t.TopicID != 0 && t.TopicID != topics.GeneralTopicID
}

// Facade issues sends through the transport, one external call per
// invocation. Errors pass through unchanged; retries are the caller's
// decision (the scheduler never retries).
type Facade struct {
	sender  kit.Sender
	limiter *rate.Limiter // nil disables rate limiting
}

func New(sender kit.Sender, ratePerSec int) *Facade {
	var lim *rate.Limiter
	if ratePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}
	return &Facade{sender: sender, limiter: lim}
}

// Deliver sends text into the target: thread-addressed when a real topic is
// set, plain otherwise.
func (f *Facade) Deliver(ctx context.Context, target Target, text string) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	to := kit.ChatTarget{ChatID: target.Conversation.ID}
	if target.topical() {
		to.ThreadID = target.TopicID
	}
	_, err := f.sender.SendText(ctx, to, text, nil)
	return err
}

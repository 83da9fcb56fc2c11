// Package topics assembles and caches the sub-conversation ("topic") sets of
// forum conversations. The upstream paged API hands back no continuation
// token, so the paginator reconstructs its cursor from each page's contents.
package topics

import (
	"context"
	"time"
)

// GeneralTopicID is the forum's implicit root topic ("General"). Addressing
// it is equivalent to addressing the forum conversation itself.
const GeneralTopicID = 1

// Topic is one subdivision of a forum conversation. Immutable once fetched.
type Topic struct {
	ID          int
	Title       string
	UnreadCount int
	Pinned      bool
	Closed      bool

	// TopMessage is the id of the topic's latest message; it feeds the
	// derived pagination cursor.
	TopMessage int
}

// Cursor is the triple used to request the next topic page. It is rebuilt
// from the previous page's last item, not supplied by the server.
type Cursor struct {
	Date    time.Time // zero means "from the top"
	Message int
	Topic   int
}

// MessageStub is the slice of message metadata that accompanies a topic
// page; only id and date matter for cursor derivation.
type MessageStub struct {
	ID   int
	Date time.Time
}

// Page is one upstream response: up to limit topics plus the accompanying
// message list.
type Page struct {
	Topics   []Topic
	Messages []MessageStub
}

// Lister is the paged topic-listing capability of the conversation backend.
type Lister interface {
	ListTopics(ctx context.Context, chatID int64, cur Cursor, limit int) (Page, error)
}

package topics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	logx "tgsched/pkg/logx"
)

// DefaultPageSize matches the upstream API's maximum topic page.
const DefaultPageSize = 100

type Paginator struct {
	lister   Lister
	pageSize int
	log      logx.Logger
}

func NewPaginator(lister Lister, pageSize int, log logx.Logger) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Paginator{lister: lister, pageSize: pageSize, log: log}
}

// FetchAll collects every topic of the forum conversation, sorted pinned
// first and then by case-insensitive title.
//
// Any page fetch error propagates unchanged; partial results are discarded
// by the caller (nothing is cached on failure).
func (p *Paginator) FetchAll(ctx context.Context, chatID int64) ([]Topic, error) {
	var (
		all []Topic
		cur Cursor
	)

	for pageNo := 1; ; pageNo++ {
		page, err := p.lister.ListTopics(ctx, chatID, cur, p.pageSize)
		if err != nil {
			return nil, fmt.Errorf("topics page %d: %w", pageNo, err)
		}
		if len(page.Topics) == 0 {
			break
		}

		for _, t := range page.Topics {
			// Titles are not guaranteed by the upstream source.
			if t.Title == "" {
				continue
			}
			all = append(all, t)
		}

		// A short page is the last one; skip the cursor recompute and the
		// trailing empty round-trip.
		if len(page.Topics) < p.pageSize {
			break
		}

		cur = nextCursor(page)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pinned != all[j].Pinned {
			return all[i].Pinned
		}
		return strings.ToLower(all[i].Title) < strings.ToLower(all[j].Title)
	})

	p.log.Debug("forum topics fetched", logx.Int64("chat_id", chatID), logx.Int("count", len(all)))
	return all, nil
}

// nextCursor derives the follow-up cursor from the last topic of a full
// page: its id, its top message id, and the date of the accompanying
// message carrying that id (zero time when absent).
func nextCursor(page Page) Cursor {
	last := page.Topics[len(page.Topics)-1]
	cur := Cursor{Topic: last.ID, Message: last.TopMessage}
	for _, m := range page.Messages {
		if m.ID == cur.Message {
			cur.Date = m.Date
			break
		}
	}
	return cur
}

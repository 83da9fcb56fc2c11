// Package clock provides the corrected wall clock used by every
// time-dependent component. The correction is a one-shot offset obtained
// from an NTP authority at startup; there is no periodic re-sync.
package clock

import (
	"context"
	"time"

	"github.com/beevik/ntp"

	logx "tgsched/pkg/logx"
)

// QueryTimeout bounds the single NTP round-trip.
const QueryTimeout = 3 * time.Second

// Offset queries the NTP host once and returns (authoritative - local).
//
// Correction is best-effort: any failure (empty host, unreachable authority,
// timeout) yields a zero offset and never an error. It is not retried.
func Offset(ctx context.Context, host string, log logx.Logger) time.Duration {
	if host == "" {
		return 0
	}

	type result struct {
		off time.Duration
		err error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := ntp.QueryWithOptions(host, ntp.QueryOptions{Timeout: QueryTimeout})
		if err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{off: resp.ClockOffset}
	}()

	select {
	case <-ctx.Done():
		log.Warn("ntp query abandoned", logx.String("host", host), logx.Err(ctx.Err()))
		return 0
	case r := <-ch:
		if r.err != nil {
			log.Warn("ntp query failed; using local clock", logx.String("host", host), logx.Err(r.err))
			return 0
		}
		return r.off
	}
}

// Clock exposes corrected time. The zero value uses the local clock as-is.
type Clock struct {
	offset time.Duration
}

func New(offset time.Duration) *Clock { return &Clock{offset: offset} }

// Now returns local time adjusted by the startup offset.
func (c *Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return time.Now().Add(c.offset)
}

func (c *Clock) Offset() time.Duration {
	if c == nil {
		return 0
	}
	return c.offset
}

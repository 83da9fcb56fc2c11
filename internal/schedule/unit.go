package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	logx "tgsched/pkg/logx"
)

// unit is the execution state of one job. err is written before done is
// closed and read only after done is observed closed.
type unit struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func newUnit(parent context.Context) *unit {
	ctx, cancel := context.WithCancel(parent)
	return &unit{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// run waits until the job's due time on the corrected clock, then delivers
// exactly once. A cancelled unit produces no side effects, including after
// the timer fires.
func (s *Service) run(u *unit, job Job) {
	defer s.unitWG.Done()
	defer close(u.done)
	defer u.cancel()
	defer func() {
		if r := recover(); r != nil {
			u.err = fmt.Errorf("job %s panic: %v", job.ID, r)
		}
	}()

	if delay := job.Due.Sub(s.clock.Now()); delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-u.ctx.Done():
			return
		}
	}
	// The timer may have raced with cancellation.
	if u.ctx.Err() != nil {
		return
	}

	err := s.deliver.Deliver(u.ctx, job.Target, job.Text)
	s.removeJob(job.ID)
	if err != nil {
		if u.ctx.Err() != nil {
			return
		}
		cat := errCategory(err)
		s.log.Warn("job delivery failed",
			logx.String("job", job.ID),
			logx.String("target", job.Target.Label()),
			logx.String("category", cat),
			logx.Err(err))
		fev := jobEvent(job)
		fev.Category = cat
		s.publish(EventFailed, fev)
		return
	}
	s.log.Info("job delivered",
		logx.String("job", job.ID),
		logx.String("target", job.Target.Label()))
	s.publish(EventDelivered, jobEvent(job))
}

// errCategory reduces a delivery error to the type name of its root cause,
// e.g. "telebot.Error" or "net.OpError".
func errCategory(err error) string {
	for {
		u := unwrap(err)
		if u == nil {
			break
		}
		err = u
	}
	name := fmt.Sprintf("%T", err)
	return strings.TrimPrefix(name, "*")
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tgsched/internal/clock"
	"tgsched/internal/delivery"
	"tgsched/internal/eventbus"
	"tgsched/internal/timeparse"
	logx "tgsched/pkg/logx"
)

// Service manages pending jobs and their execution units.
type Service struct {
	clock   *clock.Clock
	deliver Deliverer
	bus     eventbus.Bus
	log     logx.Logger

	mu    sync.Mutex
	cfg   Config
	seq   uint64
	jobs  map[string]*Job
	units map[string]*unit

	cron      *cron.Cron
	runCtx    context.Context
	runCancel context.CancelFunc
	unitWG    sync.WaitGroup
}

// New builds a stopped service. Call Start before scheduling.
func New(cfg Config, ck *clock.Clock, d Deliverer, bus eventbus.Bus, log logx.Logger) *Service {
	return &Service{
		clock:   ck,
		deliver: d,
		bus:     bus,
		log:     log,
		cfg:     cfg,
		jobs:    make(map[string]*Job),
		units:   make(map[string]*unit),
	}
}

// Start arms the service and the periodic cleanup sweep. Starting an
// already started service is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return nil
	}
	s.runCtx, s.runCancel = context.WithCancel(context.Background())

	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.cfg.cleanupInterval())
	if _, err := c.AddFunc(spec, s.Sweep); err != nil {
		s.runCancel()
		s.runCtx, s.runCancel = nil, nil
		return fmt.Errorf("schedule: cleanup cron: %w", err)
	}
	c.Start()
	s.cron = c

	s.log.Info("scheduler started", logx.Duration("cleanup_interval", s.cfg.cleanupInterval()))
	return nil
}

// Schedule parses whenText, applies the time-only rollover against the
// corrected clock, and spawns an execution unit for the job.
func (s *Service) Schedule(target delivery.Target, whenText, text string) (Job, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Job{}, ErrEmptyMessage
	}
	at, grammar, ok := timeparse.Parse(whenText)
	if !ok {
		return Job{}, fmt.Errorf("%w: %q", ErrBadTime, strings.TrimSpace(whenText))
	}
	due := timeparse.Upcoming(at, grammar, s.clock.Now())

	s.mu.Lock()
	if s.runCtx == nil {
		s.mu.Unlock()
		return Job{}, ErrNotStarted
	}
	s.seq++
	job := &Job{
		ID:     fmt.Sprintf("job-%d", s.seq),
		Target: target,
		Text:   text,
		Due:    due,
	}
	u := newUnit(s.runCtx)
	s.jobs[job.ID] = job
	s.units[job.ID] = u
	s.unitWG.Add(1)
	s.mu.Unlock()

	s.log.Info("job scheduled",
		logx.String("job", job.ID),
		logx.String("target", target.Label()),
		logx.Time("due", due))
	s.publish(EventScheduled, jobEvent(*job))
	go s.run(u, *job)
	return *job, nil
}

// Cancel terminates the job's unit before delivery. It reports whether a
// pending job with that ID existed. The pending record is the source of
// truth: a unit lingers in the live set until the sweep reaps it, so its
// presence says nothing about the job still being pending.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	job, ok := s.jobs[id]
	u := s.units[id]
	delete(s.jobs, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	if u != nil {
		u.cancel()
	}
	s.publish(EventCancelled, jobEvent(*job))
	return true
}

// Pending returns a snapshot of jobs that have not yet reached a terminal
// state, ordered by due time.
func (s *Service) Pending() []Job {
	s.mu.Lock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	s.mu.Unlock()
	sortJobs(out)
	return out
}

// Sweep reaps finished units and drops job records whose due time has
// passed. Errors from reaped units go to the log; nothing here can stop
// future sweeps.
func (s *Service) Sweep() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("cleanup sweep panic", logx.Any("panic", r))
		}
	}()

	now := s.clock.Now()
	s.mu.Lock()
	for id, u := range s.units {
		select {
		case <-u.done:
			if u.err != nil {
				s.log.Error("job unit error", logx.String("job", id), logx.Err(u.err))
			}
			delete(s.units, id)
		default:
		}
	}
	var expired []string
	for id, j := range s.jobs {
		if !j.Due.After(now) {
			expired = append(expired, id)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.log.Debug("expired job record dropped", logx.String("job", id))
	}
}

// Stop cancels every outstanding unit and waits for all of them to reach a
// terminal state, bounded by ctx. Safe to call more than once.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.runCancel
	c := s.cron
	s.runCtx, s.runCancel, s.cron = nil, nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	if c != nil {
		<-c.Stop().Done()
	}

	done := make(chan struct{})
	go func() {
		s.unitWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("schedule: stop: %w", ctx.Err())
	}
}

func (s *Service) publish(typ string, ev JobEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: time.Now(), Data: ev})
}

func (s *Service) removeJob(id string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
}

func sortJobs(jobs []Job) {
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Due.Before(jobs[j].Due) })
}

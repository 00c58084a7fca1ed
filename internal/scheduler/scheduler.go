package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	pkgLog "hoursync/pkg/log"
)

// Scheduler bounds the outbound request rate to each provider and orders
// contention between workloads by priority. Callers block until a slot is
// granted; the scheduler never rejects and the queues have no depth limit,
// which trades bounded memory for the guarantee that work is never dropped.
// Workspace writes additionally run on a single worker (concurrency 1)
// because the provider has no compare-and-swap.
type Scheduler struct {
	l         pkgLog.Logger
	lanes     map[Provider]*lane
	writes    *writeQueue
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Scheduler and starts its dispatch workers.
func New(l pkgLog.Logger, cfg Config) *Scheduler {
	creds := cfg.WorkspaceCredentials
	if creds < 1 {
		creds = 1
	}

	trackerLane := newLane([]*rate.Limiter{rate.NewLimiter(cfg.Tracker.limit(), 1)})
	wsLimiters := make([]*rate.Limiter, creds)
	for i := range wsLimiters {
		wsLimiters[i] = rate.NewLimiter(cfg.Workspace.limit(), 1)
	}
	wsLane := newLane(wsLimiters)

	s := &Scheduler{
		l: l,
		lanes: map[Provider]*lane{
			ProviderTracker:   trackerLane,
			ProviderWorkspace: wsLane,
		},
		writes: newWriteQueue(l, wsLane),
		done:   make(chan struct{}),
	}

	go trackerLane.dispatch(s.done)
	go wsLane.dispatch(s.done)
	go s.writes.run(s.done)
	return s
}

// Close stops the dispatch workers. In the daemon this only happens at
// process shutdown; tests use it to avoid leaking goroutines.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// AcquireRead blocks until the provider's rate budget grants a slot, and
// returns the credential slot index the caller should use (always 0 for the
// tracker). Within a tier requests are served FIFO; a pending higher-priority
// request is always served before lower-priority ones submitted earlier.
func (s *Scheduler) AcquireRead(ctx context.Context, provider Provider, pr Priority) (int, error) {
	ln, ok := s.lanes[provider]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	w := &waiter{ctx: ctx, ready: make(chan int, 1)}
	ln.push(clamp(pr), w)

	select {
	case slot := <-w.ready:
		return slot, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.done:
		return 0, ErrClosed
	}
}

// SubmitWrite queues op on the workspace write lane and blocks until the
// write worker has executed it. Priority affects queue position only, never
// parallelism. The slot passed to op is the credential whose rate budget the
// write consumed.
func (s *Scheduler) SubmitWrite(ctx context.Context, pr Priority, op func(ctx context.Context, slot int) error) error {
	o := &writeOp{
		id:     uuid.NewString(),
		ctx:    ctx,
		fn:     op,
		result: make(chan error, 1),
	}
	s.writes.push(clamp(pr), o)
	s.l.Debugf(ctx, "scheduler: queued write %s at %s priority", o.id, pr)

	select {
	case err := <-o.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// QueueDepths reports pending work per lane for the ops endpoint.
func (s *Scheduler) QueueDepths() map[string]int {
	return map[string]int{
		"tracker_reads":    s.lanes[ProviderTracker].depth(),
		"workspace_reads":  s.lanes[ProviderWorkspace].depth(),
		"workspace_writes": s.writes.depth(),
	}
}

func clamp(pr Priority) Priority {
	if pr < PriorityRealtime || pr >= numPriorities {
		return PriorityBackground
	}
	return pr
}

// waiter is an ephemeral read-admission token.
type waiter struct {
	ctx   context.Context
	ready chan int
}

// lane is the per-provider admission queue: one FIFO per priority tier over
// a set of per-credential limiters.
type lane struct {
	limiters []*rate.Limiter

	mu     sync.Mutex
	queues [numPriorities][]*waiter
	next   int
	wake   chan struct{}
}

func newLane(limiters []*rate.Limiter) *lane {
	return &lane{limiters: limiters, wake: make(chan struct{}, 1)}
}

func (l *lane) push(pr Priority, w *waiter) {
	l.mu.Lock()
	l.queues[pr] = append(l.queues[pr], w)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// pop returns the oldest waiter of the highest non-empty tier.
func (l *lane) pop() *waiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	for tier := range l.queues {
		if len(l.queues[tier]) > 0 {
			w := l.queues[tier][0]
			l.queues[tier] = l.queues[tier][1:]
			return w
		}
	}
	return nil
}

func (l *lane) depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for tier := range l.queues {
		n += len(l.queues[tier])
	}
	return n
}

// reserve blocks until the next credential slot's limiter grants a token
// and returns the slot index.
func (l *lane) reserve(ctx context.Context) (int, error) {
	l.mu.Lock()
	slot := l.next
	l.next = (l.next + 1) % len(l.limiters)
	l.mu.Unlock()

	if err := l.limiters[slot].Wait(ctx); err != nil {
		return 0, err
	}
	return slot, nil
}

func (l *lane) dispatch(done chan struct{}) {
	for {
		w := l.pop()
		if w == nil {
			select {
			case <-l.wake:
				continue
			case <-done:
				return
			}
		}
		// abandoned waiters give their place back without burning budget
		if w.ctx.Err() != nil {
			continue
		}
		slot, err := l.reserve(w.ctx)
		if err != nil {
			continue
		}
		w.ready <- slot
	}
}

// writeOp is an ephemeral write token carrying the operation and its
// resolution channel.
type writeOp struct {
	id     string
	ctx    context.Context
	fn     func(context.Context, int) error
	result chan error
}

// writeQueue serializes workspace writes: one worker, priority-ordered
// pickup, rate budget shared with the read lane.
type writeQueue struct {
	l    pkgLog.Logger
	lane *lane

	mu     sync.Mutex
	queues [numPriorities][]*writeOp
	wake   chan struct{}
}

func newWriteQueue(l pkgLog.Logger, ln *lane) *writeQueue {
	return &writeQueue{l: l, lane: ln, wake: make(chan struct{}, 1)}
}

func (q *writeQueue) push(pr Priority, op *writeOp) {
	q.mu.Lock()
	q.queues[pr] = append(q.queues[pr], op)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *writeQueue) pop() *writeOp {
	q.mu.Lock()
	defer q.mu.Unlock()
	for tier := range q.queues {
		if len(q.queues[tier]) > 0 {
			op := q.queues[tier][0]
			q.queues[tier] = q.queues[tier][1:]
			return op
		}
	}
	return nil
}

func (q *writeQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for tier := range q.queues {
		n += len(q.queues[tier])
	}
	return n
}

func (q *writeQueue) run(done chan struct{}) {
	for {
		op := q.pop()
		if op == nil {
			select {
			case <-q.wake:
				continue
			case <-done:
				return
			}
		}
		if op.ctx.Err() != nil {
			op.result <- op.ctx.Err()
			continue
		}
		slot, err := q.lane.reserve(op.ctx)
		if err != nil {
			op.result <- err
			continue
		}
		op.result <- op.fn(op.ctx, slot)
	}
}

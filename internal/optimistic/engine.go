// Package optimistic applies board mutations locally before the entity store
// confirms them, and rolls them back when the store rejects or never answers.
package optimistic

import (
	"context"
	"errors"
	"sync"
	"time"

	"orderlyflow/internal/api"
	"orderlyflow/internal/apperr"
	"orderlyflow/internal/board"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/metrics"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds the store calls of one action.
const DefaultTimeout = 10 * time.Second

// Remote is the entity store as the engine sees it.
type Remote interface {
	UpdateBoard(ctx context.Context, boardID string, req api.UpdateBoardRequest) error
	CreateGroup(ctx context.Context, boardID string, req api.CreateGroupRequest) error
	UpdateGroup(ctx context.Context, boardID, groupID string, req api.UpdateGroupRequest) error
	DeleteGroup(ctx context.Context, boardID, groupID string) error
	CreateItem(ctx context.Context, boardID string, req api.CreateItemRequest) error
	UpdateItem(ctx context.Context, boardID, itemID string, req api.UpdateItemRequest) error
	DeleteItem(ctx context.Context, boardID, itemID string) error
	CreateSubitem(ctx context.Context, boardID string, req api.CreateSubitemRequest) error
	UpdateSubitem(ctx context.Context, boardID, subitemID string, req api.UpdateSubitemRequest) error
	DeleteSubitem(ctx context.Context, boardID, subitemID string) error
	CreatePerson(ctx context.Context, boardID string, req api.CreatePersonRequest) error
	ListMembers(ctx context.Context, organizationID string) ([]api.Member, error)
}

// Notice describes a rolled back mutation for the user.
type Notice struct {
	Kind    string
	Code    apperr.Code
	Message string
	Err     error
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

const (
	outcomeConfirmed  = "confirmed"
	outcomeRolledBack = "rolled_back"
	outcomeRejected   = "rejected"
	outcomeNoop       = "noop"
)

type Option func(*Engine)

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notify = n }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = logger.Or(l).WithComponent("optimistic") }
}

func WithMetrics(m *metrics.Sync) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithOnChange registers a callback run after every local apply or rollback.
func WithOnChange(fn func(*board.Board)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine owns one board aggregate. It keeps the last state the store
// confirmed plus a journal of unconfirmed mutations, so a rejected mutation
// is dropped and the rest are replayed on top of the confirmed state.
type Engine struct {
	remote   Remote
	notify   Notifier
	log      *logger.Logger
	metrics  *metrics.Sync
	timeout  time.Duration
	validate *validator.Validate
	onChange func(*board.Board)

	mu        sync.Mutex
	confirmed *board.Board
	current   *board.Board
	journal   []*entry
	queue     *keyQueue
}

type entry struct {
	replay func(*board.Board) *board.Board
	done   bool
}

// request is one store call of a plan.
type request func(ctx context.Context) error

// plan is what an action does: a deterministic local change that can be
// replayed on any base, and the store calls persisting it. Stages run in
// order; requests within a stage run concurrently. undo runs best effort
// when a later stage fails after earlier ones succeeded.
type plan struct {
	replay func(*board.Board) *board.Board
	stages [][]request
	undo   []request
}

func New(initial *board.Board, remote Remote, opts ...Option) *Engine {
	e := &Engine{
		remote:    remote,
		notify:    NotifierFunc(func(Notice) {}),
		log:       logger.NewNop(),
		timeout:   DefaultTimeout,
		validate:  api.NewValidator(),
		confirmed: initial,
		current:   initial,
		queue:     newKeyQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Board returns a copy of the displayed aggregate.
func (e *Engine) Board() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone()
}

// Confirmed returns a copy of the last state the store acknowledged.
func (e *Engine) Confirmed() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.confirmed.Clone()
}

func (e *Engine) boardID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.ID
}

// Pending is the number of mutations awaiting the store.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ent := range e.journal {
		if !ent.done {
			n++
		}
	}
	return n
}

func (e *Engine) check(req any) error {
	if err := e.validate.Struct(req); err != nil {
		return apperr.Validation("%s", api.ValidationMessage(err))
	}
	return nil
}

// mutate is the single optimistic path every action goes through: build a
// plan against the current state, apply it locally, wait for earlier work on
// the same keys, send, then confirm or roll back.
func (e *Engine) mutate(ctx context.Context, kind string, keys []string, build func(cur *board.Board) (plan, error)) error {
	e.mu.Lock()
	cur := e.current
	p, err := build(cur)
	if err != nil {
		e.mu.Unlock()
		e.reject(kind, err)
		return err
	}
	var next *board.Board
	if p.replay != nil {
		next = p.replay(cur)
	}
	if next == nil || next == cur || len(p.stages) == 0 {
		e.mu.Unlock()
		e.count(kind, outcomeNoop)
		return nil
	}
	ent := &entry{replay: p.replay}
	e.journal = append(e.journal, ent)
	e.current = next
	wait, release := e.queue.reserve(keys)
	e.mu.Unlock()
	e.changed(next)

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err = wait(ctx)
	if err == nil {
		err = e.send(ctx, p.stages)
		if err != nil && len(p.undo) > 0 {
			e.compensate(p.undo)
		}
	}
	err = normalize(err)

	e.mu.Lock()
	release()
	rolledBack := e.settle(ent, err)
	e.mu.Unlock()

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.MutationLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
	if err != nil {
		e.count(kind, outcomeRolledBack)
		e.log.LogMutation(kind, outcomeRolledBack, elapsed, err)
		e.changed(rolledBack)
		e.notify.Notify(Notice{Kind: kind, Code: apperr.CodeOf(err), Message: apperr.Notice(err), Err: err})
		return err
	}
	e.count(kind, outcomeConfirmed)
	e.log.LogMutation(kind, outcomeConfirmed, elapsed, nil)
	return nil
}

func (e *Engine) send(ctx context.Context, stages [][]request) error {
	for _, stage := range stages {
		if len(stage) == 1 {
			if err := stage[0](ctx); err != nil {
				return err
			}
			continue
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, r := range stage {
			g.Go(func() error { return r(gctx) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) compensate(undo []request) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	for _, r := range undo {
		if err := r(ctx); err != nil {
			e.log.WithError(err).Warnw("Compensating request failed")
		}
	}
}

// settle records the outcome of ent. Confirmed entries at the head of the
// journal fold into the confirmed state; a failed entry is dropped and the
// displayed state is rebuilt from what remains. Returns the rebuilt state on
// failure.
func (e *Engine) settle(ent *entry, err error) *board.Board {
	if err != nil {
		for i, x := range e.journal {
			if x == ent {
				e.journal = append(e.journal[:i:i], e.journal[i+1:]...)
				break
			}
		}
		b := e.confirmed
		for _, x := range e.journal {
			b = x.replay(b)
		}
		e.current = b
		e.compact()
		return b
	}
	ent.done = true
	e.compact()
	return nil
}

func (e *Engine) compact() {
	for len(e.journal) > 0 && e.journal[0].done {
		e.confirmed = e.journal[0].replay(e.confirmed)
		e.journal = e.journal[1:]
	}
	if len(e.journal) == 0 {
		e.confirmed = e.current
	}
}

// normalize maps errors from outside the taxonomy onto it: deadlines become
// timeouts and anything else a transient store failure.
func normalize(err error) error {
	var ae *apperr.Error
	if err == nil || errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.CodeTimeout, "request timed out", err)
	}
	return apperr.Wrap(apperr.CodeUnavailable, "store request failed", err)
}

func (e *Engine) reject(kind string, err error) {
	e.count(kind, outcomeRejected)
	e.log.WithError(err).Infow("Mutation rejected before sending", "kind", kind)
	e.notify.Notify(Notice{Kind: kind, Code: apperr.CodeOf(err), Message: apperr.Notice(err), Err: err})
}

func (e *Engine) count(kind, outcome string) {
	if e.metrics != nil {
		e.metrics.Mutations.WithLabelValues(kind, outcome).Inc()
	}
}

func (e *Engine) changed(b *board.Board) {
	if e.onChange != nil && b != nil {
		e.onChange(b.Clone())
	}
}

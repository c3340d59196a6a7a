package thread

import (
	"context"
	"slices"
	"strings"
	"sync"

	"orderlyflow/internal/api"
	"orderlyflow/internal/apperr"
	"orderlyflow/internal/board"
	"orderlyflow/internal/logger"
)

// Store is the slice of the entity store threads need.
type Store interface {
	ListUpdates(ctx context.Context, boardID, entityID string, t board.EntityType) ([]api.Update, error)
	PostUpdate(ctx context.Context, req api.CreateUpdateRequest) (api.Update, error)
	DeleteUpdate(ctx context.Context, updateID string) error
	CountUpdates(ctx context.Context, boardID, entityID string, t board.EntityType) (int64, error)
}

type Service struct {
	store    Store
	registry *Registry
	log      *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	log = logger.Or(log)
	s := &Service{store: store, log: log.WithComponent("thread")}
	s.registry = NewRegistry(func(ctx context.Context, k Key) (int64, error) {
		return store.CountUpdates(ctx, k.BoardID, k.EntityID, k.Type)
	}, log)
	return s
}

// Counts exposes the count registry so views can subscribe.
func (s *Service) Counts() *Registry {
	return s.registry
}

// Thread is the loaded update list of one entity, kept in creation order.
type Thread struct {
	key     Key
	svc     *Service
	mu      sync.Mutex
	updates []api.Update
}

// Open loads the thread for k. A failed load yields an empty thread and is
// logged, not returned.
func (s *Service) Open(ctx context.Context, k Key) *Thread {
	t := &Thread{key: k, svc: s}
	if err := t.Reload(ctx); err != nil {
		s.log.WithError(err).Warnw("Failed to load updates", "key", k.String())
	}
	return t
}

func (t *Thread) Key() Key { return t.key }

func (t *Thread) Reload(ctx context.Context) error {
	list, err := t.svc.store.ListUpdates(ctx, t.key.BoardID, t.key.EntityID, t.key.Type)
	if err != nil {
		return err
	}
	slices.SortStableFunc(list, func(a, b api.Update) int { return a.CreatedAt.Compare(b.CreatedAt) })
	t.mu.Lock()
	t.updates = list
	t.mu.Unlock()
	return nil
}

// Updates returns the thread oldest first.
func (t *Thread) Updates() []api.Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.updates)
}

// Display returns the thread newest first.
func (t *Thread) Display() []api.Update {
	out := t.Updates()
	slices.Reverse(out)
	return out
}

func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.updates)
}

// Post publishes message and appends the stored update.
func (t *Thread) Post(ctx context.Context, message string) (api.Update, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return api.Update{}, apperr.Validation("message is required")
	}
	u, err := t.svc.store.PostUpdate(ctx, api.CreateUpdateRequest{
		BoardID:  t.key.BoardID,
		ItemID:   t.key.EntityID,
		ItemType: t.key.Type,
		Message:  message,
	})
	if err != nil {
		return api.Update{}, err
	}
	t.mu.Lock()
	t.updates = append(t.updates, u)
	t.mu.Unlock()
	t.svc.registry.Invalidate(ctx, t.key)
	return u, nil
}

// Delete removes an update. The store only lets authors delete their own
// updates; a rejection is returned as is and the update stays in the thread.
func (t *Thread) Delete(ctx context.Context, updateID string) error {
	if err := t.svc.store.DeleteUpdate(ctx, updateID); err != nil {
		t.svc.log.WithError(err).Infow("Update delete rejected", "update_id", updateID)
		return err
	}
	t.mu.Lock()
	t.updates = slices.DeleteFunc(t.updates, func(u api.Update) bool { return u.ID == updateID })
	t.mu.Unlock()
	t.svc.registry.Invalidate(ctx, t.key)
	return nil
}

// Package store implements the client-side resource stores for products,
// users and sales. A store is the sole writer of its collection; views read
// snapshots and issue intents back through the store's operations.
//
// All three stores share one implementation, so the auth-error recovery
// policy is uniform: an authorization-denied response on any operation
// resets the session through the auth collaborator and leaves the store's
// own error message empty.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tiendactl/tiendactl/internal/api"
	"github.com/tiendactl/tiendactl/internal/model"
	"golang.org/x/sync/errgroup"
)

// SessionResetter is the slice of the auth session the stores depend on:
// the hard session reset performed on an authorization-denied response.
type SessionResetter interface {
	Expire()
}

// Store owns one resource collection plus its transient request status.
type Store[T model.Record[T]] struct {
	client   *api.Client
	session  SessionResetter
	endpoint string
	logger   *slog.Logger

	mu      sync.RWMutex
	items   []T
	loading bool
	lastErr string
}

func newStore[T model.Record[T]](client *api.Client, session SessionResetter, endpoint string, logger *slog.Logger) *Store[T] {
	return &Store[T]{
		client:   client,
		session:  session,
		endpoint: endpoint,
		logger:   logger.With("component", "store", "endpoint", endpoint),
	}
}

// Items returns a snapshot of the collection in render order.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Find looks up a record by id in the loaded snapshot. It does not issue a
// fetch: forms prefill from whatever the initial list load brought in.
func (s *Store[T]) Find(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Loading reports whether a request is in flight. Deletes do not toggle it.
func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last stored failure message, empty when none.
func (s *Store[T]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError resets the stored error message, used by forms after they have
// surfaced it once.
func (s *Store[T]) ClearError() {
	s.setError("")
}

// List replaces the collection with the server's data array. An unexpected
// payload shape coerces to an empty collection, never an error.
func (s *Store[T]) List(ctx context.Context) error {
	s.setLoading(true)
	s.setError("")
	defer s.setLoading(false)

	body, err := s.client.Get(ctx, s.endpoint)
	if err != nil {
		return s.fail(ctx, err, "list")
	}
	items := api.DataList[T](body)
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Collection refreshed", "count", len(items))
	return nil
}

// Create persists a new record and appends the server-returned version to
// the collection. On a degenerate response the submitted record is kept
// without an id. The error is returned so the calling form can react.
func (s *Store[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	s.setLoading(true)
	s.setError("")
	defer s.setLoading(false)

	body, err := s.client.Post(ctx, s.endpoint, rec)
	if err != nil {
		return zero, s.fail(ctx, err, "create")
	}
	created, ok := api.DataRecord[T](body)
	if !ok {
		created = rec.WithID(0)
	}
	s.mu.Lock()
	s.items = append(s.items, created)
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Record created", "id", created.RecordID())
	return created, nil
}

// Update issues a full replace for id and swaps the matching record in the
// collection; every other record is left untouched. When the response
// omits the envelope data, the submitted body merged with the id is kept.
func (s *Store[T]) Update(ctx context.Context, id int64, rec T) (T, error) {
	var zero T
	s.setLoading(true)
	s.setError("")
	defer s.setLoading(false)

	body, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", s.endpoint, id), rec)
	if err != nil {
		return zero, s.fail(ctx, err, "update")
	}
	updated, ok := api.DataRecord[T](body)
	if !ok {
		updated = rec.WithID(id)
	}
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].RecordID() == id {
			s.items[i] = updated
		}
	}
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Record updated", "id", id)
	return updated, nil
}

// Delete removes the record with id. A best-effort background action: it
// does not toggle the shared in-flight flag, and an id absent from the
// collection is a no-op.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	s.setError("")
	if _, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", s.endpoint, id)); err != nil {
		return s.fail(ctx, err, "delete")
	}
	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.RecordID() != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Record deleted", "id", id)
	return nil
}

// fail applies the shared failure policy: authorization-denied responses
// reset the session and leave the stored message empty, anything else is
// recorded as a human-readable message. The error is always returned.
func (s *Store[T]) fail(ctx context.Context, err error, op string) error {
	if api.IsAuthError(err) {
		s.logger.WarnContext(ctx, "Authorization denied", "op", op)
		s.session.Expire()
		return err
	}
	msg := errMessage(err)
	s.logger.ErrorContext(ctx, "Request failed", "op", op, "error", err)
	s.setError(msg)
	return err
}

func (s *Store[T]) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

func (s *Store[T]) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = msg
}

// errMessage prefers the server-supplied message over the transport error.
func errMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Mount runs the initial list fetch of each store concurrently. Each store
// lists exactly once; there is no refetch-on-interval or refetch-on-focus.
func Mount(ctx context.Context, lists ...func(context.Context) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, list := range lists {
		g.Go(func() error {
			return list(gCtx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	return nil
}

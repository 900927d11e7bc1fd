package remote

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pusher is the synchronous side of a remote endpoint.
type Pusher interface {
	Create(ctx context.Context, collection string, record any) error
	Update(ctx context.Context, collection string, record any) error
	Delete(ctx context.Context, collection string, id int64) error
}

// Async wraps a Pusher with fire-and-forget semantics. Each push runs in its
// own goroutine with a bounded deadline; failures are logged with a
// correlation id and never reported back to the caller. Local state stays
// authoritative for the session.
type Async struct {
	pusher  Pusher
	mode    Mode
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewAsync builds the fire-and-forget wrapper. The mode only labels log
// lines; the pusher already points at the right endpoint.
func NewAsync(pusher Pusher, mode Mode, timeout time.Duration, logger *slog.Logger) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{pusher: pusher, mode: mode, timeout: timeout, logger: logger}
}

// Create mirrors a new record to the remote.
func (a *Async) Create(collection string, record any) {
	a.push("create", collection, 0, func(ctx context.Context) error {
		return a.pusher.Create(ctx, collection, record)
	})
}

// Update mirrors a changed record to the remote.
func (a *Async) Update(collection string, record any) {
	a.push("update", collection, 0, func(ctx context.Context) error {
		return a.pusher.Update(ctx, collection, record)
	})
}

// Delete mirrors a removal to the remote.
func (a *Async) Delete(collection string, id int64) {
	a.push("delete", collection, id, func(ctx context.Context) error {
		return a.pusher.Delete(ctx, collection, id)
	})
}

// Wait blocks until every in-flight push has finished. Call on shutdown.
func (a *Async) Wait() { a.wg.Wait() }

func (a *Async) push(op, collection string, id int64, fn func(ctx context.Context) error) {
	opID := uuid.NewString()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.Warn("remote push failed",
				slog.String("op_id", opID),
				slog.String("mode", string(a.mode)),
				slog.String("op", op),
				slog.String("collection", collection),
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
			return
		}
		a.logger.Debug("remote push ok",
			slog.String("op_id", opID),
			slog.String("mode", string(a.mode)),
			slog.String("op", op),
			slog.String("collection", collection),
		)
	}()
}

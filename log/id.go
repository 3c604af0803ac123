package log

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// ID tags every log line of one accepted connection.
type ID struct {
	ID        uint32
	CreatedAt time.Time
}

type idKey struct{}

// Counter starts at a random offset so ids differ across restarts.
var nextID atomic.Uint32

func init() {
	nextID.Store(rand.Uint32())
}

// ContextWithNewID attaches an id that is unique within the process until
// the counter wraps.
func ContextWithNewID(ctx context.Context) context.Context {
	return ContextWithID(ctx, ID{
		ID:        nextID.Add(1),
		CreatedAt: time.Now(),
	})
}

func ContextWithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

func IDFromContext(ctx context.Context) (ID, bool) {
	id, loaded := ctx.Value(idKey{}).(ID)
	return id, loaded
}

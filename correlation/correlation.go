// Package correlation carries the current CorrelationId across
// asynchronous resumption points. Go has no implicit task-local storage,
// so per the design notes this is realized as an explicit
// context.Context value plus an ergonomic scoped-acquisition helper,
// the same shape as the teacher's ContextWithSpan/SpanFromContext pair.
package correlation

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/brightloom/telemetry/internal/errs"
)

type ctxKeyType struct{}

var ctxKey ctxKeyType

// carrier is the value stored under ctxKey. It is immutable once placed
// in a context, matching context.Context's own value semantics.
type carrier struct {
	id string
}

var autoMaterialize = atomic.NewBool(true)

// SetAutoMaterialize toggles whether Current() generates a fresh id when
// none is set. Enabled by default, matching the process-wide default
// policy in the data model.
func SetAutoMaterialize(enabled bool) {
	autoMaterialize.Store(enabled)
}

// Current returns the correlation id carried by ctx. If none is set and
// auto-materialization is enabled, a new 32-character lowercase hex id
// is generated and returned along with a derived context that carries
// it — callers must thread the returned context onward for the id to
// remain stable for the rest of the execution flow.
func Current(ctx context.Context) (string, context.Context) {
	if c, ok := ctx.Value(ctxKey).(*carrier); ok && c.id != "" {
		return c.id, ctx
	}
	if !autoMaterialize.Load() {
		return "", ctx
	}
	id := generate()
	return id, context.WithValue(ctx, ctxKey, &carrier{id: id})
}

// GetRawValue peeks at the correlation id without ever auto-materializing
// one. Used by enrichers (e.g. the logging enricher) that must not
// side-effect the ambient state on a mere read.
func GetRawValue(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(ctxKey).(*carrier)
	if !ok || c.id == "" {
		return "", false
	}
	return c.id, true
}

// BeginScope binds id as the correlation id for the returned child
// context. id must be non-empty. Release of the prior value is implicit:
// once the caller stops using the returned context and resumes using
// ctx, the prior correlation id (including "unset") is in effect again —
// context.Context's value semantics make this restoration automatic and
// idempotent, unlike a mutable thread-local slot.
func BeginScope(ctx context.Context, id string) (context.Context, error) {
	if strings.TrimSpace(id) == "" {
		return ctx, errs.New(errs.InvalidArgument, "correlation id must not be empty")
	}
	return context.WithValue(ctx, ctxKey, &carrier{id: id}), nil
}

// Scope is the ergonomic scoped form of BeginScope: fn runs with id bound
// to the ambient correlation id for the duration of the call, on every
// exit path including a panic unwind, after which ctx's prior value is
// back in effect for the caller.
func Scope(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	scoped, err := BeginScope(ctx, id)
	if err != nil {
		return err
	}
	return fn(scoped)
}

func generate() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

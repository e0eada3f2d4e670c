package scope

import "context"

type spanCtxKeyType struct{}

var spanCtxKey spanCtxKeyType

// ContextWithScope attaches s as the ambient scope, visible to any
// Begin call made against the returned context as its parent.
func ContextWithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, spanCtxKey, s)
}

// ScopeFromContext returns the ambient scope, if any.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(spanCtxKey).(*Scope)
	return s, ok
}

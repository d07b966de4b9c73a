package core

import "context"

// Variables provides per-unit values for template substitution.
type Variables interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapVariables is a simple map-based Variables implementation.
// Each unit owns its own instance; it is not safe for concurrent use.
type MapVariables struct {
	data map[string]any
}

// NewVariables returns an empty MapVariables.
func NewVariables() *MapVariables {
	return &MapVariables{data: make(map[string]any)}
}

func (v *MapVariables) Get(key string) (any, bool) {
	val, ok := v.data[key]
	return val, ok
}

func (v *MapVariables) Set(key string, value any) {
	v.data[key] = value
}

type contextKey string

const (
	unitContextKey    contextKey = "unit"
	sessionContextKey contextKey = "session"
)

// ContextWithUnit tags ctx with the 1-based unit number being sent.
func ContextWithUnit(ctx context.Context, unit int) context.Context {
	return context.WithValue(ctx, unitContextKey, unit)
}

// UnitFromContext returns the unit number, or 0 outside a unit.
func UnitFromContext(ctx context.Context) int {
	if n, ok := ctx.Value(unitContextKey).(int); ok {
		return n
	}
	return 0
}

// ContextWithSession tags ctx with the session ID.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionContextKey, id)
}

// SessionFromContext returns the session ID, or "" when untagged.
func SessionFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionContextKey).(string); ok {
		return id
	}
	return ""
}

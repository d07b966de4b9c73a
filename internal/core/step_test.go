package core

import (
	"context"
	"testing"
)

func TestMapVariables(t *testing.T) {
	vars := NewVariables()
	vars.Set("key", "value")
	val, ok := vars.Get("key")
	if !ok || val != "value" {
		t.Errorf("expected 'value', got %v", val)
	}
	_, ok = vars.Get("missing")
	if ok {
		t.Error("expected not found")
	}
}

func TestContextWithUnit(t *testing.T) {
	ctx := context.Background()
	if n := UnitFromContext(ctx); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
	ctx = ContextWithUnit(ctx, 42)
	if n := UnitFromContext(ctx); n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestContextWithSession(t *testing.T) {
	ctx := context.Background()
	if id := SessionFromContext(ctx); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
	ctx = ContextWithSession(ctx, "abc")
	if id := SessionFromContext(ctx); id != "abc" {
		t.Errorf("expected abc, got %q", id)
	}
}

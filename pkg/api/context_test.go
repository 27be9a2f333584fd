package api

import (
	"testing"
)

func TestWorkflowContextIsolation(t *testing.T) {
	data := map[string]any{"order": map[string]any{"total": 42.0}}
	wctx := NewWorkflowContext("wf-1", "charge", data, map[string]any{"amount": "42"})

	// Mutating the source map must not reach the snapshot.
	data["order"].(map[string]any)["total"] = 0.0
	v, ok := wctx.Get("order.total")
	if !ok || v != 42.0 {
		t.Fatalf("snapshot leaked: got %v, %v", v, ok)
	}
}

func TestWorkflowContextWithData(t *testing.T) {
	wctx := NewWorkflowContext("wf-1", "a", map[string]any{"x": 1}, nil)
	derived := wctx.WithData(map[string]any{"y": 2})

	if _, ok := wctx.Get("y"); ok {
		t.Fatal("WithData mutated the original context")
	}
	if v, ok := derived.Get("y"); !ok || v != 2 {
		t.Fatalf("derived context missing merged key: %v, %v", v, ok)
	}
	if v, ok := derived.Get("x"); !ok || v != 1 {
		t.Fatalf("derived context lost existing key: %v, %v", v, ok)
	}

	single := wctx.With("z", "zz")
	if v, ok := single.GetString("z"); !ok || v != "zz" {
		t.Fatalf("With did not set the key: %q, %v", v, ok)
	}
}

func TestWorkflowContextLookup(t *testing.T) {
	wctx := NewWorkflowContext("wf-1", "a", map[string]any{
		"user": map[string]any{"name": "ada", "tier": "premium"},
	}, map[string]any{"greeting": "hello ada"})

	if s, ok := wctx.GetString("user.name"); !ok || s != "ada" {
		t.Fatalf("GetString(user.name) = %q, %v", s, ok)
	}
	if _, ok := wctx.Get("user.missing"); ok {
		t.Fatal("missing path should not resolve")
	}
	if _, ok := wctx.Get(""); ok {
		t.Fatal("empty path should not resolve")
	}
	if _, ok := wctx.Get("user.name.deeper"); ok {
		t.Fatal("descending through a scalar should fail")
	}
	if v, ok := wctx.Param("greeting"); !ok || v != "hello ada" {
		t.Fatalf("Param(greeting) = %v, %v", v, ok)
	}
}

func TestResultConstructors(t *testing.T) {
	ok := ResultSuccess(map[string]any{"id": "u-1"})
	if !ok.Success || ok.Error != "" {
		t.Fatalf("unexpected success result: %+v", ok)
	}

	fail := ResultFailure("payment declined", map[string]any{"code": 402})
	if fail.Success {
		t.Fatal("failure result marked success")
	}
	if fail.Error != "payment declined" {
		t.Fatalf("failure message = %q", fail.Error)
	}
	if fail.Metadata["code"] != 402 {
		t.Fatalf("metadata lost: %+v", fail.Metadata)
	}

	// Empty failure messages are replaced, never silent.
	anon := ResultFailure("")
	if anon.Error == "" {
		t.Fatal("failure without a message must still carry one")
	}
}

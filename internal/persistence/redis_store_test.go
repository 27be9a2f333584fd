package persistence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mlind/stepflow/pkg/api"
)

// Key layout and payload encoding are testable without a server; the
// full store behavior is covered by the shared contract against the
// memory and SQLite stores.

func TestRedisKeyLayout(t *testing.T) {
	s := NewRedisInstanceStore(nil, "")
	if got := s.keyInstance("i-1"); got != "stepflow:inst:i-1" {
		t.Errorf("keyInstance = %q", got)
	}
	if got := s.keyAll(); got != "stepflow:idx:all" {
		t.Errorf("keyAll = %q", got)
	}
	if got := s.keyWorkflow("order-flow"); got != "stepflow:idx:wf:order-flow" {
		t.Errorf("keyWorkflow = %q", got)
	}
	if got := s.keyStatus(api.StatusRunning); got != "stepflow:idx:status:RUNNING" {
		t.Errorf("keyStatus = %q", got)
	}

	custom := NewRedisInstanceStore(nil, "app:")
	if got := custom.keyInstance("i-1"); got != "app:inst:i-1" {
		t.Errorf("custom prefix keyInstance = %q", got)
	}
}

func TestRedisPayloadRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inst := &api.WorkflowInstance{
		ID:             "i-1",
		WorkflowName:   "order-flow",
		Status:         api.StatusWaiting,
		Data:           map[string]any{"total": 12.5},
		CurrentStep:    "approve",
		CompletedSteps: []string{"reserve"},
		ErrorMessage:   "",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	data, err := json.Marshal(inst)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := decodeRedisInstance(data, "i-1")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != inst.ID || got.Status != inst.Status || got.CurrentStep != inst.CurrentStep {
		t.Fatalf("round trip: %+v", got)
	}
	if got.Data["total"] != 12.5 {
		t.Fatalf("data lost: %+v", got.Data)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v", got.CreatedAt)
	}
}

func TestDecodeRedisInstanceEmptyPayload(t *testing.T) {
	_, err := decodeRedisInstance(nil, "i-9")
	if err == nil {
		t.Fatal("empty payload should be a not-found error")
	}
}

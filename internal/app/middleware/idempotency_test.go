package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"staybook/internal/app/commands"
)

const replayTestKey = "test.replay"

type replayCommand struct {
	ID   string
	Idem string
}

func (c replayCommand) Key() string            { return replayTestKey }
func (c replayCommand) IdempotencyKey() string { return c.Idem }
func (c replayCommand) ResultPrototype() any   { return &replayResult{} }

type replayResult struct {
	Value string `json:"value"`
}

type replayHandler struct {
	calls int
	err   error
}

func (h *replayHandler) Handle(ctx context.Context, cmd replayCommand) (*replayResult, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return &replayResult{Value: "run-" + cmd.ID}, nil
}

type mapStore struct {
	records map[string]IdempotencyRecord
}

func newMapStore() *mapStore {
	return &mapStore{records: make(map[string]IdempotencyRecord)}
}

func (s *mapStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *mapStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.records[rec.Key] = rec
	return nil
}

func buildBus(handler *replayHandler, store IdempotencyStore) commands.Bus {
	base := commands.NewInMemoryBus()
	commands.RegisterHandler(base, replayCommand{}.Key(), handler)
	return ChainCommands(base, Idempotency(store, nil))
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	handler := &replayHandler{}
	bus := buildBus(handler, newMapStore())
	ctx := context.Background()
	cmd := replayCommand{ID: "1", Idem: "key-1"}

	first, err := commands.Dispatch[replayCommand, *replayResult](ctx, bus, cmd)
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := commands.Dispatch[replayCommand, *replayResult](ctx, bus, cmd)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if handler.calls != 1 {
		t.Fatalf("handler ran %d times, want 1", handler.calls)
	}
	if first.Value != second.Value {
		t.Fatalf("replayed result %q differs from original %q", second.Value, first.Value)
	}
}

func TestIdempotencyReplaysStoredError(t *testing.T) {
	handler := &replayHandler{err: errors.New("listing gone")}
	bus := buildBus(handler, newMapStore())
	ctx := context.Background()
	cmd := replayCommand{ID: "1", Idem: "key-1"}

	if _, err := commands.Dispatch[replayCommand, *replayResult](ctx, bus, cmd); err == nil {
		t.Fatal("first dispatch must fail")
	}
	_, err := commands.Dispatch[replayCommand, *replayResult](ctx, bus, cmd)
	if err == nil || err.Error() != "listing gone" {
		t.Fatalf("replayed error = %v, want stored message", err)
	}
	if handler.calls != 1 {
		t.Fatalf("handler ran %d times, want 1", handler.calls)
	}
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	handler := &replayHandler{}
	bus := buildBus(handler, newMapStore())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := commands.Dispatch[replayCommand, *replayResult](ctx, bus, replayCommand{ID: "1"}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if handler.calls != 2 {
		t.Fatalf("handler ran %d times, want 2 for keyless commands", handler.calls)
	}
}

func TestIdempotencyRecordCarriesTimestamp(t *testing.T) {
	store := newMapStore()
	bus := buildBus(&replayHandler{}, store)

	before := time.Now().UTC()
	if _, err := commands.Dispatch[replayCommand, *replayResult](context.Background(), bus, replayCommand{ID: "1", Idem: "key-1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	rec, ok := store.records["key-1"]
	if !ok {
		t.Fatal("record not saved")
	}
	if rec.OccurredAt.Before(before.Add(-time.Second)) {
		t.Fatalf("OccurredAt = %s, too old", rec.OccurredAt)
	}
}

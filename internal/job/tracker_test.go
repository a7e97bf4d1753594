package job

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func waitForTerminal(t *testing.T, tracker *Tracker, id string) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap, ok := tracker.Status(id); ok && snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return Snapshot{}
}

func TestSubmitRunsToCompletion(t *testing.T) {
	tracker := NewTracker(1, 4, time.Second, nil, nil)
	defer tracker.Close()

	snap, err := tracker.Submit(func(ctx context.Context) (any, error) {
		return "done", nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if snap.ID == "" {
		t.Fatalf("expected a job handle")
	}
	// the worker may already have picked the job up by the time Submit
	// returns, so any forward status is acceptable here
	if snap.Status == StatusFailed {
		t.Fatalf("fresh submit must not be failed")
	}

	final := waitForTerminal(t, tracker, snap.ID)
	if final.Status != StatusCompleted || final.Result != "done" {
		t.Fatalf("unexpected final snapshot: %+v", final)
	}
}

// Submit must not touch the shared record after the job is enqueued: the
// returned and mirrored snapshots are copies taken under the lock, so rapid
// submits against busy workers stay race-free.
func TestSubmitConcurrentWithWorkers(t *testing.T) {
	tracker := NewTracker(4, 512, time.Second, nil, nil)
	defer tracker.Close()

	ids := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		snap, err := tracker.Submit(func(ctx context.Context) (any, error) {
			return "done", nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if snap.ID == "" {
			t.Fatalf("submit %d returned no handle", i)
		}
		ids = append(ids, snap.ID)
	}

	for _, id := range ids {
		final := waitForTerminal(t, tracker, id)
		if final.Status != StatusCompleted {
			t.Fatalf("job %s: %+v", id, final)
		}
	}
}

func TestSubmitFailure(t *testing.T) {
	tracker := NewTracker(1, 4, time.Second, nil, nil)
	defer tracker.Close()

	runErr := errors.New("boom")
	snap, err := tracker.Submit(func(ctx context.Context) (any, error) {
		return nil, runErr
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	final := waitForTerminal(t, tracker, snap.ID)
	if final.Status != StatusFailed || !errors.Is(final.Err, runErr) {
		t.Fatalf("unexpected final snapshot: %+v", final)
	}
}

func TestDeadlineForcesFailure(t *testing.T) {
	tracker := NewTracker(1, 4, 20*time.Millisecond, nil, nil)
	defer tracker.Close()

	snap, err := tracker.Submit(func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	final := waitForTerminal(t, tracker, snap.ID)
	if final.Status != StatusFailed || !errors.Is(final.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %+v", final)
	}
}

func TestTerminalStateIsImmutable(t *testing.T) {
	tracker := NewTracker(1, 4, time.Second, nil, nil)
	defer tracker.Close()

	snap, err := tracker.Submit(func(ctx context.Context) (any, error) { return 1, nil })
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	final := waitForTerminal(t, tracker, snap.ID)

	tracker.advance(snap.ID, StatusProcessing, nil, nil)
	tracker.advance(snap.ID, StatusFailed, nil, errors.New("late"))

	again, _ := tracker.Status(snap.ID)
	if again.Status != final.Status || again.Err != nil {
		t.Fatalf("terminal state was overwritten: %+v", again)
	}
}

func TestQueueFull(t *testing.T) {
	tracker := NewTracker(1, 1, time.Second, nil, nil)
	defer tracker.Close()

	block := make(chan struct{})
	running := make(chan struct{})
	slow := func(ctx context.Context) (any, error) {
		close(running)
		<-block
		return nil, nil
	}

	if _, err := tracker.Submit(slow); err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-running

	// one slot in the queue, then it must refuse
	if _, err := tracker.Submit(func(ctx context.Context) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("submit into free slot: %v", err)
	}
	if _, err := tracker.Submit(func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(block)
}

func TestStatusUnknownJob(t *testing.T) {
	tracker := NewTracker(1, 1, time.Second, nil, nil)
	defer tracker.Close()

	if _, ok := tracker.Status("missing"); ok {
		t.Fatalf("expected unknown job")
	}
}

type recordingHub struct {
	mu       sync.Mutex
	payloads map[string][][]byte
}

func (h *recordingHub) Broadcast(jobID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.payloads == nil {
		h.payloads = map[string][][]byte{}
	}
	h.payloads[jobID] = append(h.payloads[jobID], append([]byte(nil), payload...))
}

func TestTransitionsMirroredToRedisAndHub(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := &recordingHub{}
	tracker := NewTracker(1, 4, time.Second, client, hub)
	defer tracker.Close()

	snap, err := tracker.Submit(func(ctx context.Context) (any, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForTerminal(t, tracker, snap.ID)

	raw, err := client.Get(context.Background(), redisKey(snap.ID)).Result()
	if err != nil {
		t.Fatalf("redis mirror missing: %v", err)
	}
	var payload mirrorPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("mirror payload: %v", err)
	}
	if payload.Status != StatusCompleted {
		t.Fatalf("expected completed mirror, got %s", payload.Status)
	}

	hub.mu.Lock()
	events := len(hub.payloads[snap.ID])
	hub.mu.Unlock()
	if events < 3 { // pending, processing, completed
		t.Fatalf("expected at least 3 hub events, got %d", events)
	}
}

// Package job tracks asynchronous publish runs. A job is created pending,
// handed to exactly one worker, and moves forward only: pending ->
// processing -> completed or failed. Pollers read snapshots; only the worker
// that owns a job writes it.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	default:
		return 2
	}
}

// ErrQueueFull is returned when a submit would exceed the queue capacity.
// The caller sees it immediately instead of waiting behind other jobs.
var ErrQueueFull = errors.New("job queue full")

// RunFunc executes the job body. The context carries the job deadline and
// the run must return once it expires.
type RunFunc func(ctx context.Context) (any, error)

// Broadcaster receives job transition events, typically a stream hub.
type Broadcaster interface {
	Broadcast(jobID string, payload []byte)
}

// Snapshot is a read-only view of a job.
type Snapshot struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Result    any       `json:"result,omitempty"`
	Err       error     `json:"-"`
	Deadline  time.Time `json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type submission struct {
	id  string
	run RunFunc
}

type Tracker struct {
	mu     sync.RWMutex
	jobs   map[string]*Snapshot
	queue  chan submission
	budget time.Duration
	redis  *redis.Client
	events Broadcaster
	wg     sync.WaitGroup
}

// NewTracker starts workers goroutines consuming the submit queue. budget is
// the per-job wall-clock allowance; a job that has not reached a terminal
// state by its deadline is failed with the timeout error of its run.
func NewTracker(workers, queueDepth int, budget time.Duration, rdb *redis.Client, events Broadcaster) *Tracker {
	if workers < 1 {
		workers = 1
	}
	t := &Tracker{
		jobs:   make(map[string]*Snapshot),
		queue:  make(chan submission, queueDepth),
		budget: budget,
		redis:  rdb,
		events: events,
	}
	for i := 0; i < workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}
	return t
}

// Submit registers a pending job and enqueues it. It never blocks: a full
// queue fails the submit immediately.
func (t *Tracker) Submit(run RunFunc) (Snapshot, error) {
	now := time.Now()
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Deadline:  now.Add(t.budget),
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.jobs[snap.ID] = snap
	t.mu.Unlock()

	select {
	case t.queue <- submission{id: snap.ID, run: run}:
	default:
		t.mu.Lock()
		delete(t.jobs, snap.ID)
		t.mu.Unlock()
		return Snapshot{}, ErrQueueFull
	}

	// once enqueued a worker owns the record; re-read under the lock
	// instead of touching the shared pointer
	cur, _ := t.Status(snap.ID)
	t.mirror(cur)
	return cur, nil
}

// Status returns a snapshot of the job, or false when the id is unknown.
func (t *Tracker) Status(id string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap, ok := t.jobs[id]
	if !ok {
		return Snapshot{}, false
	}
	return *snap, true
}

// Close stops accepting jobs and waits for in-flight ones to finish.
func (t *Tracker) Close() {
	close(t.queue)
	t.wg.Wait()
}

func (t *Tracker) worker() {
	defer t.wg.Done()
	for sub := range t.queue {
		snap, ok := t.Status(sub.id)
		if !ok {
			continue
		}

		// a job that aged out while queued never runs
		if time.Now().After(snap.Deadline) {
			t.advance(sub.id, StatusFailed, nil, fmt.Errorf("job expired in queue: %w", context.DeadlineExceeded))
			continue
		}

		t.advance(sub.id, StatusProcessing, nil, nil)

		ctx, cancel := context.WithDeadline(context.Background(), snap.Deadline)
		result, err := sub.run(ctx)
		cancel()

		switch {
		case err != nil:
			t.advance(sub.id, StatusFailed, nil, err)
		case time.Now().After(snap.Deadline):
			t.advance(sub.id, StatusFailed, nil, fmt.Errorf("job finished past its deadline: %w", context.DeadlineExceeded))
		default:
			t.advance(sub.id, StatusCompleted, result, nil)
		}
	}
}

// advance moves a job forward. Backward moves and writes to terminal states
// are ignored.
func (t *Tracker) advance(id string, status Status, result any, err error) {
	t.mu.Lock()
	snap, ok := t.jobs[id]
	if !ok || snap.Status.Terminal() || status.rank() <= snap.Status.rank() && status != snap.Status {
		t.mu.Unlock()
		return
	}
	snap.Status = status
	snap.Result = result
	snap.Err = err
	snap.UpdatedAt = time.Now()
	copied := *snap
	t.mu.Unlock()

	t.mirror(copied)
}

type mirrorPayload struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// mirror pushes the transition to redis and the event hub so other instances
// and live listeners see it without polling this process.
func (t *Tracker) mirror(snap Snapshot) {
	payload := mirrorPayload{ID: snap.ID, Status: snap.Status, UpdatedAt: snap.UpdatedAt}
	if snap.Err != nil {
		payload.Error = snap.Err.Error()
	}
	data, _ := json.Marshal(payload)

	if t.redis != nil {
		if err := t.redis.Set(context.Background(), redisKey(snap.ID), data, 24*time.Hour).Err(); err != nil {
			log.Printf("job mirror error: %v", err)
		}
	}
	if t.events != nil {
		t.events.Broadcast(snap.ID, data)
	}
}

func redisKey(id string) string {
	return "routejob:" + id
}

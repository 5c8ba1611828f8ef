package queue

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/pda/internal/db/memory"
	"github.com/kailas-cloud/pda/internal/metrics"
)

type recordingHandler struct {
	mu     sync.Mutex
	calls  []url.Values
	ids    []string
	status int
	done   chan struct{}
	want   int
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	h.calls = append(h.calls, r.PostForm)
	h.ids = append(h.ids, r.Header.Get(metrics.TaskHeader))
	n := len(h.calls)
	h.mu.Unlock()

	if h.status != 0 {
		w.WriteHeader(h.status)
	}
	if n == h.want {
		close(h.done)
	}
}

func newHandler(status, want int) *recordingHandler {
	return &recordingHandler{status: status, want: want, done: make(chan struct{})}
}

func runQueue(t *testing.T, q *Queue, h http.Handler) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- q.Run(ctx, h) }()
	return func() {
		cancel()
		select {
		case err := <-errc:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("queue did not stop")
		}
	}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}
}

func TestQueue_DeliversFormParams(t *testing.T) {
	q := New(memory.New(), "pda:", Options{Workers: 2, PollTimeout: 50 * time.Millisecond})
	h := newHandler(http.StatusOK, 1)
	stop := runQueue(t, q, h)
	defer stop()

	if err := q.Enqueue(context.Background(), "/task/mail", url.Values{"key": {"Person:1/Calendar:2"}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitFor(t, h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	if got := h.calls[0].Get("key"); got != "Person:1/Calendar:2" {
		t.Errorf("key param = %q", got)
	}
	if h.ids[0] == "" {
		t.Error("expected task id header")
	}
}

func TestQueue_RetriesUntilMaxAttempts(t *testing.T) {
	q := New(memory.New(), "pda:", Options{Workers: 1, MaxAttempts: 3, PollTimeout: 50 * time.Millisecond})
	h := newHandler(http.StatusInternalServerError, 3)
	stop := runQueue(t, q, h)

	if err := q.Enqueue(context.Background(), "/task/fix/record", url.Values{"key": {"Person:1"}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitFor(t, h.done)

	// give a fourth attempt the chance to show up
	time.Sleep(200 * time.Millisecond)
	stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.calls) != 3 {
		t.Errorf("handler called %d times, want 3", len(h.calls))
	}
	for i, id := range h.ids {
		if id != h.ids[0] {
			t.Errorf("attempt %d carried id %q, want %q", i+1, id, h.ids[0])
		}
	}
}

func TestQueue_RunningFlag(t *testing.T) {
	q := New(memory.New(), "pda:", Options{PollTimeout: 20 * time.Millisecond})
	if q.Running() {
		t.Fatal("queue running before Run")
	}

	stop := runQueue(t, q, newHandler(http.StatusOK, -1))
	deadline := time.Now().Add(time.Second)
	for !q.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !q.Running() {
		t.Fatal("queue not running after Run")
	}
	stop()
	if q.Running() {
		t.Error("queue still running after stop")
	}
}

func TestDispatch_DefaultStatus(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
	})
	task := NewTask("/task/notify", nil, time.Now())
	if got := Dispatch(context.Background(), h, task); got != http.StatusOK {
		t.Errorf("status = %d, want 200", got)
	}
}

func TestTask_RoundTrip(t *testing.T) {
	task := NewTask("/task/fix/all", url.Values{"next": {"Person:9"}}, time.Date(2024, 3, 14, 6, 0, 0, 0, time.UTC))
	task.Attempts = 2

	data, err := encodeTask(task)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeTask(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != task.ID || got.Params.Get("next") != "Person:9" || got.Attempts != 2 || !got.EnqueuedAt.Equal(task.EnqueuedAt) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, task)
	}
}

// Package queue runs tasks as in-process POST requests, backed by a store list.
package queue

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Task is one queued request.
type Task struct {
	ID         string     `json:"id"`
	Path       string     `json:"path"`
	Params     url.Values `json:"params,omitempty"`
	Attempts   int        `json:"attempts"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}

// NewTask creates a task for path with a fresh ID.
func NewTask(path string, params url.Values, now time.Time) Task {
	return Task{
		ID:         uuid.NewString(),
		Path:       path,
		Params:     params,
		EnqueuedAt: now.UTC(),
	}
}

func encodeTask(t Task) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode task %s: %w", t.Path, err)
	}
	return data, nil
}

func decodeTask(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	return t, nil
}

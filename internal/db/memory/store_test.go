package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/pda/internal/db"
	"github.com/kailas-cloud/pda/internal/db/dbtest"
)

func TestStoreContract(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) db.Store { return New() })
}

func TestBRPop_WakesOnPush(t *testing.T) {
	s := New()
	ctx := context.Background()

	done := make(chan []byte, 1)
	go func() {
		v, _ := s.BRPop(ctx, "q", 5*time.Second)
		done <- v
	}()

	time.Sleep(20 * time.Millisecond)
	if err := s.LPush(ctx, "q", []byte("task")); err != nil {
		t.Fatalf("LPush: %v", err)
	}

	select {
	case v := <-done:
		if string(v) != "task" {
			t.Errorf("BRPop = %q, want task", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("BRPop did not wake on push")
	}
}

func TestPing_AfterClose(t *testing.T) {
	s := New()
	s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Set(ctx, "k", []byte("abc"))

	v, _ := s.Get(ctx, "k")
	v[0] = 'z'

	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated: %q", again)
	}
}

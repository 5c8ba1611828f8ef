// Package dbtest holds a behavioral suite every db.Store driver must pass.
package dbtest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/pda/internal/db"
)

// Run exercises the full db.Store contract against stores produced by newStore.
func Run(t *testing.T, newStore func(t *testing.T) db.Store) {
	t.Helper()

	t.Run("KV", func(t *testing.T) { testKV(t, newStore(t)) })
	t.Run("Sets", func(t *testing.T) { testSets(t, newStore(t)) })
	t.Run("Lex", func(t *testing.T) { testLex(t, newStore(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("Incr", func(t *testing.T) { testIncr(t, newStore(t)) })
}

func testKV(t *testing.T, s db.Store) {
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("Get missing: expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "a", []byte("2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil || string(got) != "2" {
		t.Fatalf("Get = %q, %v; want 2", got, err)
	}

	if err := s.Set(ctx, "c", []byte("3")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	vals, err := s.MGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(vals) != 3 || string(vals[0]) != "2" || vals[1] != nil || string(vals[2]) != "3" {
		t.Fatalf("MGet = %q", vals)
	}

	ok, err := s.Exists(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Exists a = %v, %v", ok, err)
	}
	if err := s.Del(ctx, "a", "c"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	ok, err = s.Exists(ctx, "a")
	if err != nil || ok {
		t.Fatalf("Exists after Del = %v, %v", ok, err)
	}
}

func testSets(t *testing.T, s db.Store) {
	ctx := context.Background()

	if err := s.SAdd(ctx, "word:ann", "Person:2", "Person:1", "Person:2"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	n, err := s.SCard(ctx, "word:ann")
	if err != nil || n != 2 {
		t.Fatalf("SCard = %d, %v; want 2", n, err)
	}
	members, err := s.SMembers(ctx, "word:ann")
	if err != nil {
		t.Fatalf("SMembers: %v", err)
	}
	if diff := cmp.Diff([]string{"Person:1", "Person:2"}, sortedCopy(members)); diff != "" {
		t.Errorf("SMembers mismatch (-want +got):\n%s", diff)
	}

	if err := s.SRem(ctx, "word:ann", "Person:1", "Person:2"); err != nil {
		t.Fatalf("SRem: %v", err)
	}
	n, err = s.SCard(ctx, "word:ann")
	if err != nil || n != 0 {
		t.Fatalf("SCard after SRem = %d, %v", n, err)
	}
	members, err = s.SMembers(ctx, "never-written")
	if err != nil || len(members) != 0 {
		t.Fatalf("SMembers empty = %v, %v", members, err)
	}
}

func testLex(t *testing.T, s db.Store) {
	ctx := context.Background()

	if err := s.ZAddLex(ctx, "words", "bob", "ann", "anna", "ano", "an"); err != nil {
		t.Fatalf("ZAddLex: %v", err)
	}

	got, err := s.ZRangeByLex(ctx, "words", "[ann", "(ano")
	if err != nil {
		t.Fatalf("ZRangeByLex: %v", err)
	}
	if diff := cmp.Diff([]string{"ann", "anna"}, got); diff != "" {
		t.Errorf("prefix range mismatch (-want +got):\n%s", diff)
	}

	got, err = s.ZRangeByLex(ctx, "words", "-", "+")
	if err != nil {
		t.Fatalf("ZRangeByLex all: %v", err)
	}
	if diff := cmp.Diff([]string{"an", "ann", "anna", "ano", "bob"}, got); diff != "" {
		t.Errorf("full range mismatch (-want +got):\n%s", diff)
	}

	if err := s.ZRemLex(ctx, "words", "anna"); err != nil {
		t.Fatalf("ZRemLex: %v", err)
	}
	got, err = s.ZRangeByLex(ctx, "words", "[ann", "(ano")
	if err != nil {
		t.Fatalf("ZRangeByLex: %v", err)
	}
	if diff := cmp.Diff([]string{"ann"}, got); diff != "" {
		t.Errorf("after remove (-want +got):\n%s", diff)
	}

	if _, err := s.ZRangeByLex(ctx, "words", "ann", "+"); !errors.Is(err, db.ErrBadBound) {
		t.Errorf("expected ErrBadBound, got %v", err)
	}
}

func testList(t *testing.T, s db.Store) {
	ctx := context.Background()

	if err := s.LPush(ctx, "q", []byte("first")); err != nil {
		t.Fatalf("LPush: %v", err)
	}
	if err := s.LPush(ctx, "q", []byte("second")); err != nil {
		t.Fatalf("LPush: %v", err)
	}

	for _, want := range []string{"first", "second"} {
		v, err := s.BRPop(ctx, "q", time.Second)
		if err != nil {
			t.Fatalf("BRPop: %v", err)
		}
		if string(v) != want {
			t.Errorf("BRPop = %q, want %q", v, want)
		}
	}

	start := time.Now()
	if _, err := s.BRPop(ctx, "q", 100*time.Millisecond); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("BRPop empty: expected ErrKeyNotFound, got %v", err)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Error("BRPop returned before timeout")
	}
}

func testIncr(t *testing.T, s db.Store) {
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := s.Incr(ctx, "seq")
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if n != want {
			t.Errorf("Incr = %d, want %d", n, want)
		}
	}
	v, err := s.Get(ctx, "seq")
	if err != nil || string(v) != "3" {
		t.Errorf("Get counter = %q, %v; want 3", v, err)
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

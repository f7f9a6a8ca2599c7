package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/streamrec/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("Get(missing) error = %v, want not found", err)
	}
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get() = %q, want %q", got, "v")
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get() after Delete error = %v, want not found", err)
	}
}

func TestMemoryStore_Batch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	kvs := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if err := s.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}
	got, err := s.BatchGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if !reflect.DeepEqual(got, kvs) {
		t.Errorf("BatchGet() = %v, want %v", got, kvs)
	}
}

func TestMemoryStore_ZRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_ = s.ZAdd(ctx, "board", 10, "low")
	_ = s.ZAdd(ctx, "board", 90, "high")
	_ = s.ZAdd(ctx, "board", 50, "mid")

	tests := []struct {
		name        string
		start, stop int64
		want        []string
	}{
		{name: "all", start: 0, stop: -1, want: []string{"high", "mid", "low"}},
		{name: "top1", start: 0, stop: 0, want: []string{"high"}},
		{name: "stop beyond end", start: 1, stop: 10, want: []string{"mid", "low"}},
		{name: "empty range", start: 2, stop: 1, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ZRange(ctx, "board", tt.start, tt.stop)
			if err != nil {
				t.Fatalf("ZRange() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ZRange(%d, %d) = %v, want %v", tt.start, tt.stop, got, tt.want)
			}
		})
	}

	score, err := s.ZScore(ctx, "board", "mid")
	if err != nil || score != 50 {
		t.Errorf("ZScore(mid) = %v, %v, want 50, nil", score, err)
	}
	if _, err := s.ZScore(ctx, "board", "none"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(none) error = %v, want not found", err)
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_ = s.HSet(ctx, "run:1", "model", []byte("random"))
	_ = s.HSet(ctx, "run:1", "n_epoch", []byte("1"))

	v, err := s.HGet(ctx, "run:1", "model")
	if err != nil || string(v) != "random" {
		t.Errorf("HGet(model) = %q, %v", v, err)
	}
	if _, err := s.HGet(ctx, "run:1", "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("HGet(missing) error = %v, want not found", err)
	}
	all, err := s.HGetAll(ctx, "run:1")
	if err != nil {
		t.Fatalf("HGetAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("HGetAll() returned %d fields, want 2", len(all))
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "etcd", "", 0)
	if !core.IsNotSupported(err) {
		t.Errorf("Open(etcd) error = %v, want NOT_SUPPORTED", err)
	}
}

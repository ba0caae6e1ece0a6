package history

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/store"
)

func TestStore_AppendDedup(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	backends := map[string]core.Store{
		"memory": store.NewMemoryStore(),
		"redis":  store.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			h := NewStore(backend, "")
			got, err := h.Get(ctx, "me")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if len(got) != 0 {
				t.Errorf("Get() = %v, want empty", got)
			}

			steps := []struct {
				item  string
				added bool
			}{
				{"a", true}, {"b", true}, {"a", false}, {"c", true}, {"b", false},
			}
			for _, s := range steps {
				added, err := h.Append(ctx, "me", s.item)
				if err != nil {
					t.Fatalf("Append(%s) error = %v", s.item, err)
				}
				if added != s.added {
					t.Errorf("Append(%s) = %v, want %v", s.item, added, s.added)
				}
			}

			got, err = h.Get(ctx, "me")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
				t.Errorf("Get() = %v, want %v", got, want)
			}

			if err := h.Clear(ctx, "me"); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if got, _ := h.Get(ctx, "me"); len(got) != 0 {
				t.Errorf("Get after Clear = %v, want empty", got)
			}
		})
	}
}

func TestStore_InvalidInput(t *testing.T) {
	h := NewStore(store.NewMemoryStore(), "h")
	if _, err := h.Append(context.Background(), "", "a"); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Append(empty user) error = %v, want ErrEmptyID", err)
	}
	if _, err := h.Get(context.Background(), ""); !core.IsInvalidInput(err) {
		t.Errorf("Get(empty user) error = %v, want INVALID_INPUT", err)
	}
}

func TestStore_Malformed(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	if err := backend.Set(ctx, "history:me", []byte("{not json")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := NewStore(backend, "").Get(ctx, "me"); !core.IsMalformedArtifact(err) {
		t.Errorf("Get() error = %v, want MALFORMED_ARTIFACT", err)
	}
}

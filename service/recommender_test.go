package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rushteam/musicrec/artifact"
	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/feature"
	"github.com/rushteam/musicrec/history"
	"github.com/rushteam/musicrec/hybrid"
	"github.com/rushteam/musicrec/model"
	"github.com/rushteam/musicrec/pipeline"
	"github.com/rushteam/musicrec/rerank"
	"github.com/rushteam/musicrec/store"
)

type stubDiscovery struct {
	lookup map[string]*core.CatalogItem
	err    error
}

func (d *stubDiscovery) Name() string { return "stub" }

func (d *stubDiscovery) BroadDiscovery(context.Context, int) ([]*core.CatalogItem, error) {
	return nil, d.err
}

func (d *stubDiscovery) Lookup(_ context.Context, id string) (*core.CatalogItem, error) {
	if d.err != nil {
		return nil, d.err
	}
	if it, ok := d.lookup[id]; ok {
		return it, nil
	}
	return nil, core.ErrDiscoveryNotFound
}

func newTestRecommender(t *testing.T, d core.DiscoveryService, opts ...Option) (*Recommender, *artifact.Cache) {
	t.Helper()
	cache := artifact.NewCache(artifact.NewBuilder(model.ContentOptions{}, model.ALSConfig{Factors: 4, Iterations: 3, Workers: 2}))
	catalog := feature.Build([]*core.CatalogItem{
		{ID: "a", Title: "rock anthem", Channel: "Band A", ViewCount: 100},
		{ID: "b", Title: "rock ballad", Channel: "Band B", ViewCount: 50},
		{ID: "c", Title: "jazz trio", Channel: "Trio", ViewCount: 10},
		{ID: "d", Title: "piano nocturne", Channel: "Quartet", ViewCount: 5},
	})
	if _, err := cache.Rebuild(context.Background(), catalog, nil); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	mem := store.NewMemoryStore()
	if d != nil {
		opts = append([]Option{WithDiscovery(d)}, opts...)
	}
	return NewRecommender(cache, nil, history.NewStore(mem, ""), opts...), cache
}

func TestRecommender_Recommend(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t, nil)

	resp, err := r.Recommend(ctx, Request{UserID: "u1", K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Branch != hybrid.BranchColdStart {
		t.Errorf("Branch = %v, want %v", resp.Branch, hybrid.BranchColdStart)
	}
	if got, want := resp.IDs(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	if _, err := r.SaveToLibrary(ctx, "u1", "a"); err != nil {
		t.Fatalf("SaveToLibrary() error = %v", err)
	}
	resp, err = r.Recommend(ctx, Request{UserID: "u1", K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Branch != hybrid.BranchContent {
		t.Errorf("Branch = %v, want %v", resp.Branch, hybrid.BranchContent)
	}
	if got, want := resp.IDs(), []string{"b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	if resp.Partial() {
		t.Errorf("Failures = %v, want none", resp.Failures)
	}
}

func TestRecommender_Pipeline(t *testing.T) {
	r, _ := newTestRecommender(t, nil, WithPipeline(&pipeline.Pipeline{
		Nodes: []pipeline.Node{&rerank.TopNNode{N: 1}},
	}))
	resp, err := r.Recommend(context.Background(), Request{UserID: "u1", K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got, want := resp.IDs(), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
}

func TestRecommender_RefreshUsesExposure(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t, nil, WithExposure(store.NewMemoryStore(), ""))

	first, err := r.Recommend(ctx, Request{UserID: "u2", K: 2})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got, want := first.IDs(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Recommend() = %v, want %v", got, want)
	}

	next, err := r.Refresh(ctx, Request{UserID: "u2", K: 2})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got, want := next.IDs(), []string{"c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Refresh() = %v, want %v", got, want)
	}

	explicit, err := r.Refresh(ctx, Request{UserID: "u3", K: 2, Seen: []string{"a"}})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got, want := explicit.IDs(), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Refresh(seen=[a]) = %v, want %v", got, want)
	}
}

func TestRecommender_SaveToLibrary(t *testing.T) {
	ctx := context.Background()
	lookup := map[string]*core.CatalogItem{
		"z": {ID: "z", Title: "new single", Channel: "Band Z", ViewCount: 1000},
	}

	tests := []struct {
		name         string
		discovery    core.DiscoveryService
		user         string
		item         string
		wantErr      error
		wantAdded    bool
		wantExtended bool
		wantPartial  bool
	}{
		{name: "in catalog", user: "u1", item: "a", wantAdded: true},
		{name: "extends catalog", discovery: &stubDiscovery{lookup: lookup}, user: "u1", item: "z", wantAdded: true, wantExtended: true},
		{name: "lookup failure is partial", discovery: &stubDiscovery{err: core.ErrDiscoveryUnavailable}, user: "u1", item: "z", wantAdded: true, wantPartial: true},
		{name: "no discovery is partial", user: "u1", item: "z", wantAdded: true, wantPartial: true},
		{name: "empty item", user: "u1", item: "", wantErr: ErrEmptyItemID},
		{name: "history failure is returned", user: "", item: "a", wantErr: history.ErrEmptyID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, cache := newTestRecommender(t, tt.discovery)
			got, err := r.SaveToLibrary(ctx, tt.user, tt.item)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SaveToLibrary() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SaveToLibrary() error = %v", err)
			}
			if got.Added != tt.wantAdded {
				t.Errorf("Added = %v, want %v", got.Added, tt.wantAdded)
			}
			if got.CatalogExtended != tt.wantExtended {
				t.Errorf("CatalogExtended = %v, want %v", got.CatalogExtended, tt.wantExtended)
			}
			if partial := len(got.Failures) > 0; partial != tt.wantPartial {
				t.Errorf("Failures = %v, want partial %v", got.Failures, tt.wantPartial)
			}
			if tt.wantExtended && !cache.Catalog().Contains(tt.item) {
				t.Errorf("catalog does not contain %s after extension", tt.item)
			}
		})
	}
}

func TestRecommender_SaveTwice(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecommender(t, nil)
	for i, want := range []bool{true, false} {
		got, err := r.SaveToLibrary(ctx, "u1", "b")
		if err != nil {
			t.Fatalf("SaveToLibrary() #%d error = %v", i, err)
		}
		if got.Added != want {
			t.Errorf("SaveToLibrary() #%d Added = %v, want %v", i, got.Added, want)
		}
	}
}

func TestRecommender_Similar(t *testing.T) {
	r, _ := newTestRecommender(t, nil)

	items, err := r.Similar(context.Background(), "a", 2)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if got, want := core.ItemIDs(items), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Similar() = %v, want %v", got, want)
	}
	if src := items[0].MetaString("similar_source"); src != hybrid.SourceContent {
		t.Errorf("similar_source = %v, want %v", src, hybrid.SourceContent)
	}

	if _, err := r.Similar(context.Background(), "missing", 2); !core.IsNoSignal(err) {
		t.Errorf("Similar(missing) error = %v, want NO_SIGNAL", err)
	}
}

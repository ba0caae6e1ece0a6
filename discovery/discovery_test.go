package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/rushteam/musicrec/core"
)

func testCatalog() *core.Catalog {
	return core.NewCatalog([]*core.CatalogItem{
		{ID: "c1", Title: "Shape of You", Channel: "Ed Sheeran", ViewNorm: 0.9},
		{ID: "c2", Title: "Hello", Channel: "Adele", ViewNorm: 0.7},
		{ID: "c3", Title: "Perfect", Channel: "Ed Sheeran", ViewNorm: 0.95},
		{ID: "c4", Title: "Live cover", Description: "ed sheeran cover", ViewNorm: 0.1},
	})
}

func ids(items []*core.CatalogItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

type stubSearcher struct {
	results map[string][]*core.CatalogItem
	err     error
	calls   int
}

func (s *stubSearcher) Name() string { return "stub" }
func (s *stubSearcher) SearchArtist(ctx context.Context, artist string, k int) ([]*core.CatalogItem, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results[artist], nil
}

func TestCatalogSearch(t *testing.T) {
	cat := testCatalog()
	s := NewCatalogSearch(func() *core.Catalog { return cat })

	tests := []struct {
		name   string
		artist string
		k      int
		want   []string
	}{
		{name: "channel and description match", artist: "Ed Sheeran", k: 10, want: []string{"c3", "c1", "c4"}},
		{name: "capped", artist: "ed sheeran", k: 2, want: []string{"c3", "c1"}},
		{name: "no match", artist: "Nobody", k: 10, want: []string{}},
		{name: "blank", artist: "  ", k: 10, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SearchArtist(context.Background(), tt.artist, tt.k)
			if err != nil {
				t.Fatalf("SearchArtist() error = %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("SearchArtist() = %v, want %v", ids(got), tt.want)
			}
		})
	}

	top, _ := s.BroadDiscovery(context.Background(), 2)
	if want := []string{"c3", "c1"}; !reflect.DeepEqual(ids(top), want) {
		t.Errorf("BroadDiscovery() = %v, want %v", ids(top), want)
	}
	if _, err := s.Lookup(context.Background(), "zzz"); !core.IsNotFound(err) {
		t.Errorf("Lookup(zzz) error = %v, want NOT_FOUND", err)
	}
}

func TestFanout_BroadDiscovery(t *testing.T) {
	cat := testCatalog()
	primary := &stubSearcher{results: map[string][]*core.CatalogItem{
		"Adele":      {{ID: "y1"}, {ID: "y2"}},
		"Ed Sheeran": {{ID: "y2"}, {ID: "y3"}},
	}}
	f := &Fanout{
		Primary:   primary,
		Fallback:  NewCatalogSearch(func() *core.Catalog { return cat }),
		Artists:   []string{"Adele", "Ed Sheeran"},
		PerArtist: 3,
	}
	got, err := f.BroadDiscovery(context.Background(), 5)
	if err != nil {
		t.Fatalf("BroadDiscovery() error = %v", err)
	}
	// Adele: y1 y2 + c2；Ed Sheeran: y2(重复) y3 + c3
	if want := []string{"y1", "y2", "c2", "y3", "c3"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("BroadDiscovery() = %v, want %v", ids(got), want)
	}
}

func TestFanout_FallsBackToPopular(t *testing.T) {
	cat := testCatalog()
	f := &Fanout{
		Primary:  &stubSearcher{err: core.ErrDiscoveryUnavailable},
		Fallback: NewCatalogSearch(func() *core.Catalog { return cat }),
		Artists:  []string{"Nobody"},
	}
	got, err := f.BroadDiscovery(context.Background(), 2)
	if err != nil {
		t.Fatalf("BroadDiscovery() error = %v", err)
	}
	if want := []string{"c3", "c1"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("BroadDiscovery() = %v, want %v", ids(got), want)
	}

	f.Fallback = nil
	if _, err := f.BroadDiscovery(context.Background(), 2); !core.IsUnavailable(err) {
		t.Errorf("BroadDiscovery() error = %v, want UNAVAILABLE", err)
	}
}

func TestFanout_PickArtistsDeterministic(t *testing.T) {
	artists := make([]string, 20)
	for i := range artists {
		artists[i] = fmt.Sprintf("artist-%d", i)
	}
	f := &Fanout{Artists: artists, MaxArtists: 5, Seed: 7}
	a, b := f.pickArtists(), f.pickArtists()
	if len(a) != 5 || !reflect.DeepEqual(a, b) {
		t.Errorf("pickArtists() = %v / %v, want 5 identical picks", a, b)
	}
}

type flakyDiscovery struct {
	err   error
	calls int
}

func (d *flakyDiscovery) Name() string { return "flaky" }
func (d *flakyDiscovery) BroadDiscovery(ctx context.Context, k int) ([]*core.CatalogItem, error) {
	d.calls++
	return nil, d.err
}
func (d *flakyDiscovery) Lookup(ctx context.Context, id string) (*core.CatalogItem, error) {
	d.calls++
	return nil, d.err
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	next := &flakyDiscovery{err: errors.New("quota exceeded")}
	b := NewBreaker(next, BreakerConfig{FailureThreshold: 2})
	for i := 0; i < 2; i++ {
		if _, err := b.BroadDiscovery(context.Background(), 3); err == nil {
			t.Fatalf("call %d: error = nil", i)
		}
	}
	if got := b.State(); got != "open" {
		t.Fatalf("State() = %s, want open", got)
	}
	_, err := b.BroadDiscovery(context.Background(), 3)
	if !core.IsUnavailable(err) {
		t.Errorf("BroadDiscovery() error = %v, want UNAVAILABLE", err)
	}
	if next.calls != 2 {
		t.Errorf("calls = %d, want 2 (open breaker short-circuits)", next.calls)
	}
}

func TestBreaker_NotFoundIsNotFailure(t *testing.T) {
	next := &flakyDiscovery{err: core.ErrDiscoveryNotFound}
	b := NewBreaker(next, BreakerConfig{FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		if _, err := b.Lookup(context.Background(), "x"); !core.IsNotFound(err) {
			t.Fatalf("Lookup() error = %v, want NOT_FOUND", err)
		}
	}
	if got := b.State(); got != "closed" {
		t.Errorf("State() = %s, want closed", got)
	}
}

func newTestYouTube(t *testing.T, handler http.HandlerFunc) *YouTube {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("youtube.NewService() error = %v", err)
	}
	return NewYouTubeFromService(svc)
}

func TestYouTube_SearchArtist(t *testing.T) {
	var queries []string
	y := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/search") {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(q, "official audio") {
			fmt.Fprint(w, `{"items":[{"id":{"videoId":"v1"},"snippet":{"title":"One","channelTitle":"Adele"}},{"id":{"videoId":"v2"},"snippet":{"title":"Two","channelTitle":"Adele"}}]}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":{"videoId":"v2"},"snippet":{"title":"Two","channelTitle":"Adele"}},{"id":{"videoId":"v3"},"snippet":{"title":"Three","channelTitle":"Adele"}}]}`)
	})

	got, err := y.SearchArtist(context.Background(), "Adele", 3)
	if err != nil {
		t.Fatalf("SearchArtist() error = %v", err)
	}
	if want := []string{"v1", "v2", "v3"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("SearchArtist() = %v, want %v", ids(got), want)
	}
	if len(queries) != 2 {
		t.Errorf("queries = %v, want 2 (stops once k is reached)", queries)
	}
	if got[0].Text == "" || got[0].ViewNorm != 0 {
		t.Errorf("item not prepared for appending: %+v", got[0])
	}
}

func TestYouTube_Lookup(t *testing.T) {
	y := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("id") == "v9" {
			fmt.Fprint(w, `{"items":[{"id":"v9","snippet":{"title":"Nine","channelTitle":"Band","tags":["rock"]},"statistics":{"viewCount":"1200","likeCount":"30","commentCount":"4"}}]}`)
			return
		}
		fmt.Fprint(w, `{"items":[]}`)
	})

	it, err := y.Lookup(context.Background(), "v9")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if it.ID != "v9" || it.ViewCount != 1200 || it.LikeCount != 30 || it.Channel != "Band" {
		t.Errorf("Lookup() = %+v", it)
	}
	if _, err := y.Lookup(context.Background(), "nope"); !core.IsNotFound(err) {
		t.Errorf("Lookup(nope) error = %v, want NOT_FOUND", err)
	}
}

func TestYouTube_Unavailable(t *testing.T) {
	y := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quota"}}`, http.StatusForbidden)
	})
	if _, err := y.SearchArtist(context.Background(), "Adele", 3); !core.IsUnavailable(err) {
		t.Errorf("SearchArtist() error = %v, want UNAVAILABLE", err)
	}
}

package detail

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeUpstream serves fixed data. Fetches for a gated movie block until its
// gate is closed, regardless of cancellation, so tests control arrival order.
type fakeUpstream struct {
	mu        sync.Mutex
	calls     map[FetchKind]int
	movies    map[MovieID]*MovieDetail
	credits   *Credits
	similar   []SimilarMovie
	videos    []Video
	providers map[string]WatchProviderSet
	errs      map[FetchKind]error
	hang      map[FetchKind]bool
	gates     map[MovieID]chan struct{}
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		calls: make(map[FetchKind]int),
		movies: map[MovieID]*MovieDetail{
			"603":   {ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", Runtime: 136, Genres: []Genre{{ID: 28, Name: "Action"}}},
			"27205": {ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15", Runtime: 148},
		},
		credits: &Credits{
			Cast: []CastMember{
				{ID: 6384, Name: "Keanu Reeves", Character: "Neo", Order: 0},
				{ID: 2975, Name: "Laurence Fishburne", Character: "Morpheus", Order: 1},
			},
			Crew: []CrewMember{
				{ID: 9340, Name: "Lana Wachowski", Job: "Director", Department: "Directing"},
				{ID: 9339, Name: "Lilly Wachowski", Job: "Writer", Department: "Writing"},
				{ID: 9341, Name: "Lilly Wachowski", Job: "Director", Department: "Directing"},
			},
		},
		similar: []SimilarMovie{{ID: 604, Title: "The Matrix Reloaded"}},
		videos: []Video{
			{Key: "tease", Type: "Teaser", Site: "YouTube"},
			{Key: "vKQi3bBA1y8", Type: "Trailer", Site: "YouTube"},
		},
		providers: map[string]WatchProviderSet{
			"US": {Link: "https://www.themoviedb.org/movie/603/watch?locale=US", Offers: map[Availability][]Provider{
				AvailabilitySubscription: {{ID: 1899, Name: "Max", DisplayPriority: 1}},
				AvailabilityRent:         {{ID: 2, Name: "Apple TV", DisplayPriority: 4}},
			}},
			"DE": {Offers: map[Availability][]Provider{
				AvailabilityBuy: {{ID: 3, Name: "Google Play Movies"}},
			}},
		},
		errs:  make(map[FetchKind]error),
		hang:  make(map[FetchKind]bool),
		gates: make(map[MovieID]chan struct{}),
	}
}

func (f *fakeUpstream) fail(kind FetchKind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[kind] = err
}

func (f *fakeUpstream) gate(id MovieID) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeUpstream) enter(ctx context.Context, kind FetchKind, id MovieID) error {
	f.mu.Lock()
	f.calls[kind]++
	err := f.errs[kind]
	hang := f.hang[kind]
	gate := f.gates[id]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeUpstream) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeUpstream) MovieDetail(ctx context.Context, id MovieID) (*MovieDetail, error) {
	if err := f.enter(ctx, FetchDetail, id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %s: %w", id, ErrNotFound)
	}
	return m, nil
}

func (f *fakeUpstream) Credits(ctx context.Context, id MovieID) (*Credits, error) {
	if err := f.enter(ctx, FetchCredits, id); err != nil {
		return nil, err
	}
	return f.credits, nil
}

func (f *fakeUpstream) Similar(ctx context.Context, id MovieID) ([]SimilarMovie, error) {
	if err := f.enter(ctx, FetchSimilar, id); err != nil {
		return nil, err
	}
	return f.similar, nil
}

func (f *fakeUpstream) Videos(ctx context.Context, id MovieID) ([]Video, error) {
	if err := f.enter(ctx, FetchVideos, id); err != nil {
		return nil, err
	}
	return f.videos, nil
}

func (f *fakeUpstream) WatchProviders(ctx context.Context, id MovieID) (map[string]WatchProviderSet, error) {
	if err := f.enter(ctx, FetchWatchProviders, id); err != nil {
		return nil, err
	}
	return f.providers, nil
}

func assertInvariants(t *testing.T, vm ViewModel) {
	t.Helper()

	if vm.Loading {
		assert.Nil(t, vm.Movie, "loading view model has a movie")
		assert.Equal(t, KindNone, vm.Error, "loading view model has an error")
	}
	if vm.Error != KindNone {
		assert.False(t, vm.Loading, "failed view model is loading")
		assert.Nil(t, vm.Movie, "failed view model has a movie")
	}
	if vm.Movie != nil {
		assert.False(t, vm.Loading, "ready view model is loading")
		assert.Equal(t, KindNone, vm.Error, "ready view model has an error")
	}
	assert.NotNil(t, vm.Directors)
	assert.NotNil(t, vm.Cast)
	assert.NotNil(t, vm.Similar)
}

// Package mock provides an in-process TMDB client for developer mode and
// tests. It serves fixture movies and can inject latency and failures.
package mock

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BidyutOffice/cinescope/internal/metadata/tmdb"
)

// Endpoint names one mocked TMDB call.
type Endpoint string

const (
	EndpointMovie     Endpoint = "movie"
	EndpointCredits   Endpoint = "credits"
	EndpointSimilar   Endpoint = "similar"
	EndpointVideos    Endpoint = "videos"
	EndpointProviders Endpoint = "providers"
	EndpointSearch    Endpoint = "search"
)

// TMDBClient is a mock implementation of the TMDB client.
type TMDBClient struct {
	mu       sync.Mutex
	failures map[Endpoint]error
	latency  map[int]time.Duration
	calls    map[Endpoint]int
}

// NewTMDBClient creates a new mock TMDB client.
func NewTMDBClient() *TMDBClient {
	return &TMDBClient{
		failures: make(map[Endpoint]error),
		latency:  make(map[int]time.Duration),
		calls:    make(map[Endpoint]int),
	}
}

// FailOn makes every call to endpoint return err. A nil err clears it.
func (c *TMDBClient) FailOn(endpoint Endpoint, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, endpoint)
		return
	}
	c.failures[endpoint] = err
}

// SetLatency delays every call for movie id by d.
func (c *TMDBClient) SetLatency(id int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency[id] = d
}

// Calls returns how many times endpoint was called.
func (c *TMDBClient) Calls(endpoint Endpoint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[endpoint]
}

// TotalCalls returns the number of calls across all endpoints.
func (c *TMDBClient) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *TMDBClient) Name() string {
	return "tmdb-mock"
}

func (c *TMDBClient) IsConfigured() bool {
	return true
}

func (c *TMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *TMDBClient) GetImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/" + size + path
}

func (c *TMDBClient) GetMovie(ctx context.Context, id int) (*tmdb.MovieDetails, error) {
	if err := c.enter(ctx, EndpointMovie, id); err != nil {
		return nil, err
	}
	f, err := lookup(id)
	if err != nil {
		return nil, err
	}
	details := f.details
	return &details, nil
}

func (c *TMDBClient) GetMovieCredits(ctx context.Context, id int) (*tmdb.CreditsResponse, error) {
	if err := c.enter(ctx, EndpointCredits, id); err != nil {
		return nil, err
	}
	f, err := lookup(id)
	if err != nil {
		return nil, err
	}
	return &tmdb.CreditsResponse{
		ID:   id,
		Cast: append([]tmdb.CastMember(nil), f.cast...),
		Crew: append([]tmdb.CrewMember(nil), f.crew...),
	}, nil
}

func (c *TMDBClient) GetSimilarMovies(ctx context.Context, id int) ([]tmdb.MovieResult, error) {
	if err := c.enter(ctx, EndpointSimilar, id); err != nil {
		return nil, err
	}
	f, err := lookup(id)
	if err != nil {
		return nil, err
	}

	results := make([]tmdb.MovieResult, 0, len(f.similar))
	for _, sid := range f.similar {
		if other, ok := fixtures[sid]; ok {
			results = append(results, toResult(other.details))
		}
	}
	return results, nil
}

func (c *TMDBClient) GetMovieVideos(ctx context.Context, id int) ([]tmdb.Video, error) {
	if err := c.enter(ctx, EndpointVideos, id); err != nil {
		return nil, err
	}
	f, err := lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]tmdb.Video(nil), f.videos...), nil
}

func (c *TMDBClient) GetWatchProviders(ctx context.Context, id int) (map[string]tmdb.RegionProviders, error) {
	if err := c.enter(ctx, EndpointProviders, id); err != nil {
		return nil, err
	}
	f, err := lookup(id)
	if err != nil {
		return nil, err
	}
	return maps.Clone(f.providers), nil
}

func (c *TMDBClient) SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedMovieResult, error) {
	if err := c.enter(ctx, EndpointSearch, 0); err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	results := make([]tmdb.NormalizedMovieResult, 0)
	for _, id := range fixtureOrder {
		d := fixtures[id].details
		if !strings.Contains(strings.ToLower(d.Title), query) {
			continue
		}
		r := toResult(d)
		if year > 0 && releaseYear(r.ReleaseDate) != year {
			continue
		}
		results = append(results, tmdb.NormalizedMovieResult{
			ID:          r.ID,
			Title:       r.Title,
			Year:        releaseYear(r.ReleaseDate),
			Overview:    r.Overview,
			PosterPath:  deref(r.PosterPath),
			PosterURL:   c.GetImageURL(deref(r.PosterPath), "w500"),
			ReleaseDate: r.ReleaseDate,
		})
	}
	return results, nil
}

func (c *TMDBClient) enter(ctx context.Context, endpoint Endpoint, id int) error {
	c.mu.Lock()
	c.calls[endpoint]++
	err := c.failures[endpoint]
	delay := c.latency[id]
	c.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", tmdb.ErrRequestFailed, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}

func lookup(id int) (fixture, error) {
	f, ok := fixtures[id]
	if !ok {
		return fixture{}, tmdb.ErrMovieNotFound
	}
	return f, nil
}

func toResult(d tmdb.MovieDetails) tmdb.MovieResult {
	return tmdb.MovieResult{
		ID:          d.ID,
		Title:       d.Title,
		Overview:    d.Overview,
		ReleaseDate: d.ReleaseDate,
		PosterPath:  d.PosterPath,
		VoteAverage: d.VoteAverage,
		VoteCount:   d.VoteCount,
	}
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, _ := strconv.Atoi(date[:4])
	return year
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Package metadata adapts the TMDB client to the detail aggregator and
// caches upstream responses in memory.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BidyutOffice/cinescope/internal/detail"
	"github.com/BidyutOffice/cinescope/internal/metadata/tmdb"
)

var ErrNoProvidersConfigured = errors.New("no metadata providers configured")

// Source implements detail.Upstream on top of TMDB.
//
// Wire responses are cached as received and converted on every call, so
// callers never share mutable values through the cache.
type Source struct {
	client TMDBClient
	cache  *Cache
	logger zerolog.Logger
}

var _ detail.Upstream = (*Source)(nil)

// NewSource creates a source. cache may be nil to disable caching.
func NewSource(client TMDBClient, cache *Cache, logger zerolog.Logger) *Source {
	return &Source{
		client: client,
		cache:  cache,
		logger: logger.With().Str("component", "metadata").Logger(),
	}
}

// IsConfigured reports whether the upstream client has credentials.
func (s *Source) IsConfigured() bool {
	return s.client.IsConfigured()
}

// Name returns the upstream provider name.
func (s *Source) Name() string {
	return s.client.Name()
}

// Test checks connectivity to the upstream API.
func (s *Source) Test(ctx context.Context) error {
	return s.client.Test(ctx)
}

// ImageURL composes an image CDN URL for presentation hosts.
func (s *Source) ImageURL(path, size string) string {
	return s.client.GetImageURL(path, size)
}

// Cache returns the response cache, or nil.
func (s *Source) Cache() *Cache {
	return s.cache
}

// MovieDetail fetches and validates the load-bearing detail record.
func (s *Source) MovieDetail(ctx context.Context, id detail.MovieID) (*detail.MovieDetail, error) {
	n, err := s.tmdbID(id)
	if err != nil {
		return nil, err
	}

	details, err := cached(s.cache, "movie:"+id.String(), func() (*tmdb.MovieDetails, error) {
		d, err := s.client.GetMovie(ctx, n)
		if err != nil {
			return nil, err
		}
		if err := validateMovie(d, n); err != nil {
			return nil, err
		}
		return d, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	return toMovieDetail(details), nil
}

// Credits fetches cast and crew.
func (s *Source) Credits(ctx context.Context, id detail.MovieID) (*detail.Credits, error) {
	n, err := s.tmdbID(id)
	if err != nil {
		return nil, err
	}

	credits, err := cached(s.cache, "credits:"+id.String(), func() (*tmdb.CreditsResponse, error) {
		return s.client.GetMovieCredits(ctx, n)
	})
	if err != nil {
		return nil, mapError(err)
	}
	if credits == nil {
		return nil, fmt.Errorf("%w: empty credits", detail.ErrMalformed)
	}

	return toCredits(credits), nil
}

// Similar fetches the recommendation rail.
func (s *Source) Similar(ctx context.Context, id detail.MovieID) ([]detail.SimilarMovie, error) {
	n, err := s.tmdbID(id)
	if err != nil {
		return nil, err
	}

	results, err := cached(s.cache, "similar:"+id.String(), func() ([]tmdb.MovieResult, error) {
		return s.client.GetSimilarMovies(ctx, n)
	})
	if err != nil {
		return nil, mapError(err)
	}

	similar := make([]detail.SimilarMovie, len(results))
	for i, r := range results {
		similar[i] = detail.SimilarMovie{
			ID:         r.ID,
			Title:      r.Title,
			PosterPath: deref(r.PosterPath),
		}
	}
	return similar, nil
}

// Videos fetches videos in upstream order.
func (s *Source) Videos(ctx context.Context, id detail.MovieID) ([]detail.Video, error) {
	n, err := s.tmdbID(id)
	if err != nil {
		return nil, err
	}

	results, err := cached(s.cache, "videos:"+id.String(), func() ([]tmdb.Video, error) {
		return s.client.GetMovieVideos(ctx, n)
	})
	if err != nil {
		return nil, mapError(err)
	}

	videos := make([]detail.Video, len(results))
	for i, v := range results {
		videos[i] = detail.Video{
			Key:      v.Key,
			Type:     v.Type,
			Site:     v.Site,
			Name:     v.Name,
			Official: v.Official,
		}
	}
	return videos, nil
}

// WatchProviders fetches provider availability for every region.
func (s *Source) WatchProviders(ctx context.Context, id detail.MovieID) (map[string]detail.WatchProviderSet, error) {
	n, err := s.tmdbID(id)
	if err != nil {
		return nil, err
	}

	regions, err := cached(s.cache, "providers:"+id.String(), func() (map[string]tmdb.RegionProviders, error) {
		return s.client.GetWatchProviders(ctx, n)
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := make(map[string]detail.WatchProviderSet, len(regions))
	for region, rp := range regions {
		out[strings.ToUpper(region)] = toWatchProviderSet(rp)
	}
	return out, nil
}

// SearchMovies searches by title. Results are cached per query and year.
func (s *Source) SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedMovieResult, error) {
	if !s.client.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}

	key := fmt.Sprintf("search:%s:%d", strings.ToLower(strings.TrimSpace(query)), year)
	results, err := cached(s.cache, key, func() ([]tmdb.NormalizedMovieResult, error) {
		return s.client.SearchMovies(ctx, query, year)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("Movie search failed")
		return nil, err
	}

	out := make([]tmdb.NormalizedMovieResult, len(results))
	copy(out, results)
	return out, nil
}

func (s *Source) tmdbID(id detail.MovieID) (int, error) {
	if !s.client.IsConfigured() {
		return 0, ErrNoProvidersConfigured
	}
	return id.Int()
}

// mapError translates TMDB sentinels into the aggregator's taxonomy.
func mapError(err error) error {
	switch {
	case errors.Is(err, tmdb.ErrMovieNotFound):
		return fmt.Errorf("%w: %w", detail.ErrNotFound, err)
	case errors.Is(err, tmdb.ErrMalformedResponse):
		return fmt.Errorf("%w: %w", detail.ErrMalformed, err)
	default:
		return err
	}
}

func validateMovie(d *tmdb.MovieDetails, id int) error {
	switch {
	case d == nil:
		return fmt.Errorf("%w: empty movie record", tmdb.ErrMalformedResponse)
	case d.ID <= 0:
		return fmt.Errorf("%w: movie record has no id", tmdb.ErrMalformedResponse)
	case d.ID != id:
		return fmt.Errorf("%w: requested movie %d, got %d", tmdb.ErrMalformedResponse, id, d.ID)
	case strings.TrimSpace(d.Title) == "":
		return fmt.Errorf("%w: movie %d has no title", tmdb.ErrMalformedResponse, id)
	}
	return nil
}

func toMovieDetail(d *tmdb.MovieDetails) *detail.MovieDetail {
	m := &detail.MovieDetail{
		ID:                  d.ID,
		Title:               d.Title,
		Tagline:             d.Tagline,
		Overview:            d.Overview,
		PosterPath:          deref(d.PosterPath),
		BackdropPath:        deref(d.BackdropPath),
		ReleaseDate:         d.ReleaseDate,
		Runtime:             d.Runtime,
		OriginalLanguage:    d.OriginalLanguage,
		Status:              d.Status,
		Genres:              make([]detail.Genre, len(d.Genres)),
		ProductionCompanies: make([]detail.ProductionCompany, len(d.ProductionCompanies)),
		ProductionCountries: make([]detail.ProductionCountry, len(d.ProductionCountries)),
		Budget:              d.Budget,
		Revenue:             d.Revenue,
		VoteAverage:         d.VoteAverage,
		VoteCount:           d.VoteCount,
		ImdbID:              deref(d.ImdbID),
	}

	for i, g := range d.Genres {
		m.Genres[i] = detail.Genre{ID: g.ID, Name: g.Name}
	}
	for i, pc := range d.ProductionCompanies {
		m.ProductionCompanies[i] = detail.ProductionCompany{
			ID:            pc.ID,
			Name:          pc.Name,
			LogoPath:      deref(pc.LogoPath),
			OriginCountry: pc.OriginCountry,
		}
	}
	for i, pc := range d.ProductionCountries {
		m.ProductionCountries[i] = detail.ProductionCountry{Code: pc.Iso31661, Name: pc.Name}
	}

	return m
}

func toCredits(c *tmdb.CreditsResponse) *detail.Credits {
	credits := &detail.Credits{
		Cast: make([]detail.CastMember, len(c.Cast)),
		Crew: make([]detail.CrewMember, len(c.Crew)),
	}
	for i, m := range c.Cast {
		credits.Cast[i] = detail.CastMember{
			ID:          m.ID,
			Name:        m.Name,
			Character:   m.Character,
			Order:       m.Order,
			ProfilePath: deref(m.ProfilePath),
		}
	}
	for i, m := range c.Crew {
		credits.Crew[i] = detail.CrewMember{
			ID:          m.ID,
			Name:        m.Name,
			Job:         m.Job,
			Department:  m.Department,
			ProfilePath: deref(m.ProfilePath),
		}
	}
	return credits
}

func toWatchProviderSet(rp tmdb.RegionProviders) detail.WatchProviderSet {
	set := detail.WatchProviderSet{
		Link:   rp.Link,
		Offers: make(map[detail.Availability][]detail.Provider),
	}

	add := func(kind detail.Availability, providers []tmdb.WatchProvider) {
		if len(providers) == 0 {
			return
		}
		list := make([]detail.Provider, len(providers))
		for i, p := range providers {
			list[i] = detail.Provider{
				ID:              p.ProviderID,
				Name:            p.ProviderName,
				LogoPath:        p.LogoPath,
				DisplayPriority: p.DisplayPriority,
			}
		}
		set.Offers[kind] = list
	}

	add(detail.AvailabilitySubscription, rp.Flatrate)
	add(detail.AvailabilityBuy, rp.Buy)
	add(detail.AvailabilityRent, rp.Rent)
	add(detail.AvailabilityFree, rp.Free)
	add(detail.AvailabilityAds, rp.Ads)

	return set
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

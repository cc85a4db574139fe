package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/BidyutOffice/cinescope/internal/config"
	"github.com/BidyutOffice/cinescope/internal/retry"
)

var (
	ErrAPIKeyMissing     = errors.New("TMDB API key is not configured")
	ErrMovieNotFound     = errors.New("movie not found")
	ErrAPIError          = errors.New("TMDB API error")
	ErrRateLimited       = errors.New("TMDB API rate limited")
	ErrMalformedResponse = errors.New("malformed TMDB response")
	ErrRequestFailed     = errors.New("TMDB request failed")
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	limiter    *rate.Limiter
	retry      retry.Config
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config:  cfg,
		limiter: rate.NewLimiter(limit, burst),
		retry:   retry.RequestConfig(cfg.RetryAttempts),
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	var result ConfigurationResponse
	return c.doRequest(ctx, "/configuration", c.params(false), &result)
}

// GetMovie gets the detail record of a movie by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, id int) (*MovieDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var details MovieDetails
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d", id), c.params(true), &details); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("id", id).
		Str("title", details.Title).
		Msg("Got movie details")

	return &details, nil
}

// GetMovieCredits gets cast and crew for a movie.
func (c *Client) GetMovieCredits(ctx context.Context, id int) (*CreditsResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var credits CreditsResponse
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d/credits", id), c.params(true), &credits); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("id", id).
		Int("cast", len(credits.Cast)).
		Int("crew", len(credits.Crew)).
		Msg("Got movie credits")

	return &credits, nil
}

// GetSimilarMovies gets the first page of movies similar to id.
func (c *Client) GetSimilarMovies(ctx context.Context, id int) ([]MovieResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params(true)
	params.Set("page", "1")

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d/similar", id), params, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// GetMovieVideos gets videos for a movie in upstream order.
func (c *Client) GetMovieVideos(ctx context.Context, id int) ([]Video, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var response VideosResponse
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d/videos", id), c.params(true), &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// GetWatchProviders gets provider availability for a movie keyed by region.
// The endpoint is not localised, so no language is sent.
func (c *Client) GetWatchProviders(ctx context.Context, id int) (map[string]RegionProviders, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var response WatchProvidersResponse
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d/watch/providers", id), c.params(false), &response); err != nil {
		return nil, err
	}
	if response.Results == nil {
		response.Results = map[string]RegionProviders{}
	}
	return response.Results, nil
}

// SearchMovies searches for movies by title with an optional year filter.
// Results are ranked by popularity, weighted votes and recency.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]NormalizedMovieResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params(true)
	params.Set("query", query)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, "/search/movie", params, &response); err != nil {
		return nil, err
	}

	maxVoteCount := 0
	for _, movie := range response.Results {
		maxVoteCount = max(maxVoteCount, movie.VoteCount)
	}

	currentYear := time.Now().Year()
	ranked := make([]scoredMovie, len(response.Results))
	for i, movie := range response.Results {
		ranked[i] = scoredMovie{movie: movie, score: movieScore(movie, maxVoteCount, currentYear)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	results := make([]NormalizedMovieResult, len(ranked))
	for i, r := range ranked {
		results[i] = c.toMovieResult(r.movie)
	}

	c.logger.Debug().
		Str("query", query).
		Int("year", year).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// GetImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

func (c *Client) params(localised bool) url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	if localised && c.config.Language != "" {
		params.Set("language", c.config.Language)
	}
	return params
}

// doRequest performs a rate-limited GET with network retries and decodes
// the JSON response into result.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := c.config.BaseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	return retry.Do(ctx, "tmdb "+path, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
		return c.get(ctx, path, reqURL, result)
	}, c.logger)
}

func (c *Client) get(ctx context.Context, path, reqURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("path", path).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrMovieNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, path, err)
	}

	return nil
}

func (c *Client) toMovieResult(movie MovieResult) NormalizedMovieResult {
	result := NormalizedMovieResult{
		ID:          movie.ID,
		Title:       movie.Title,
		Year:        releaseYear(movie.ReleaseDate),
		Overview:    movie.Overview,
		ReleaseDate: movie.ReleaseDate,
	}

	if movie.PosterPath != nil {
		result.PosterPath = *movie.PosterPath
		result.PosterURL = c.GetImageURL(*movie.PosterPath, "w500")
	}

	return result
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, _ := strconv.Atoi(date[:4])
	return year
}

type scoredMovie struct {
	movie MovieResult
	score float64
}

// movieScore ranks a search hit. Vote averages are weighted by how many
// votes they rest on relative to the best-voted hit.
func movieScore(movie MovieResult, maxVoteCount, currentYear int) float64 {
	voteWeight := 0.0
	if maxVoteCount > 0 {
		voteWeight = float64(movie.VoteCount) / float64(maxVoteCount)
	}

	recency := 0.0
	if year := releaseYear(movie.ReleaseDate); year > 0 {
		recency = math.Exp(-float64(currentYear-year) * 0.2)
	}

	completeness := 0.0
	if movie.PosterPath != nil {
		completeness += 0.05
	}
	if movie.Overview != "" {
		completeness += 0.03
	}
	if len(movie.GenreIDs) > 0 {
		completeness += 0.02
	}

	return movie.Popularity*0.3 +
		movie.VoteAverage*voteWeight*0.4 +
		recency*0.2 +
		completeness*0.1
}

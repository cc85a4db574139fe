package metadata

import (
	"context"

	"github.com/BidyutOffice/cinescope/internal/metadata/tmdb"
)

// TMDBClient defines the interface for TMDB API operations.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	GetMovie(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	GetMovieCredits(ctx context.Context, id int) (*tmdb.CreditsResponse, error)
	GetSimilarMovies(ctx context.Context, id int) ([]tmdb.MovieResult, error)
	GetMovieVideos(ctx context.Context, id int) ([]tmdb.Video, error)
	GetWatchProviders(ctx context.Context, id int) (map[string]tmdb.RegionProviders, error)
	SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedMovieResult, error)
	GetImageURL(path string, size string) string
}

package detail

import "context"

// Upstream is the metadata API the aggregator reads from. MovieDetail is the
// load-bearing fetch; the other four are best-effort.
//
// Implementations report a missing movie with ErrNotFound and an
// undecodable or invalid payload with ErrMalformed. Every other error is
// treated as a network failure.
type Upstream interface {
	MovieDetail(ctx context.Context, id MovieID) (*MovieDetail, error)
	Credits(ctx context.Context, id MovieID) (*Credits, error)
	Similar(ctx context.Context, id MovieID) ([]SimilarMovie, error)
	Videos(ctx context.Context, id MovieID) ([]Video, error)
	// WatchProviders returns provider availability keyed by region code.
	WatchProviders(ctx context.Context, id MovieID) (map[string]WatchProviderSet, error)
}

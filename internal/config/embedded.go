package config

// Version is injected at build time via ldflags.
var Version = "dev"

// EmbeddedTMDBKey is a build-time default TMDB API key. It can be
// overridden by the config file or CINESCOPE_METADATA_TMDB_API_KEY.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/BidyutOffice/cinescope/internal/config.EmbeddedTMDBKey=xxx'"
var EmbeddedTMDBKey string

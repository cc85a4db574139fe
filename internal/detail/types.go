package detail

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const maxMovieIDDigits = 10

// MovieID identifies a movie upstream. It is also the cache key for
// everything fetched about that movie.
type MovieID string

// MovieIDFromInt converts a numeric TMDB id to a MovieID.
func MovieIDFromInt(id int) MovieID {
	return MovieID(strconv.Itoa(id))
}

// ParseMovieID trims and validates a raw identifier. Valid ids are
// non-empty runs of ASCII digits that are not all zeros. Leading zeros are
// dropped so each movie has one id.
func ParseMovieID(raw string) (MovieID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty movie id", ErrInvalidInput)
	}
	if len(s) > maxMovieIDDigits {
		return "", fmt.Errorf("%w: movie id %q is too long", ErrInvalidInput, s)
	}
	nonZero := false
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: movie id %q is not numeric", ErrInvalidInput, s)
		}
		if r != '0' {
			nonZero = true
		}
	}
	if !nonZero {
		return "", fmt.Errorf("%w: movie id %q is zero", ErrInvalidInput, s)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return MovieID(strconv.FormatUint(n, 10)), nil
}

func (id MovieID) String() string {
	return string(id)
}

// Int returns the numeric form of a validated id.
func (id MovieID) Int() (int, error) {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return n, nil
}

// MovieDetail is the load-bearing movie record.
type MovieDetail struct {
	ID                  int                 `json:"id"`
	Title               string              `json:"title"`
	Tagline             string              `json:"tagline,omitempty"`
	Overview            string              `json:"overview"`
	PosterPath          string              `json:"posterPath,omitempty"`
	BackdropPath        string              `json:"backdropPath,omitempty"`
	ReleaseDate         string              `json:"releaseDate,omitempty"`
	Runtime             int                 `json:"runtime,omitempty"`
	OriginalLanguage    string              `json:"originalLanguage,omitempty"`
	Status              string              `json:"status,omitempty"`
	Genres              []Genre             `json:"genres"`
	ProductionCompanies []ProductionCompany `json:"productionCompanies"`
	ProductionCountries []ProductionCountry `json:"productionCountries"`
	Budget              int64               `json:"budget"`
	Revenue             int64               `json:"revenue"`
	VoteAverage         float64             `json:"voteAverage"`
	VoteCount           int                 `json:"voteCount"`
	ImdbID              string              `json:"imdbId,omitempty"`
}

// Genre is a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany is a studio credited on a movie.
type ProductionCompany struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	LogoPath      string `json:"logoPath,omitempty"`
	OriginCountry string `json:"originCountry,omitempty"`
}

// ProductionCountry is a country a movie was produced in.
type ProductionCountry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Credits is the upstream credits payload for a movie.
type Credits struct {
	Cast []CastMember
	Crew []CrewMember
}

// CastMember is a cast entry as returned upstream.
type CastMember struct {
	ID          int
	Name        string
	Character   string
	Order       int
	ProfilePath string
}

// CrewMember is a crew entry as returned upstream.
type CrewMember struct {
	ID          int
	Name        string
	Job         string
	Department  string
	ProfilePath string
}

// Person is a director or cast member shown on the detail page.
type Person struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ProfilePath string `json:"profilePath,omitempty"`
	Character   string `json:"character,omitempty"`
}

// Video is a trailer, teaser, clip or similar hosted on a video platform.
type Video struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Site     string `json:"site"`
	Name     string `json:"name,omitempty"`
	Official bool   `json:"official,omitempty"`
}

// SimilarMovie is the projection used for the recommendation rail.
type SimilarMovie struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"posterPath,omitempty"`
}

// Availability is how a provider offers a movie.
type Availability string

const (
	AvailabilitySubscription Availability = "flatrate"
	AvailabilityBuy          Availability = "buy"
	AvailabilityRent         Availability = "rent"
	AvailabilityFree         Availability = "free"
	AvailabilityAds          Availability = "ads"
)

// Provider is a streaming or retail service.
type Provider struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	LogoPath        string `json:"logoPath,omitempty"`
	DisplayPriority int    `json:"displayPriority"`
}

// WatchProviderSet is the availability of a movie in one region.
// Provider lists keep upstream order.
type WatchProviderSet struct {
	Link   string                      `json:"link,omitempty"`
	Offers map[Availability][]Provider `json:"offers"`
}

// Providers returns the ordered providers for one availability type.
func (w *WatchProviderSet) Providers(a Availability) []Provider {
	if w == nil {
		return nil
	}
	return w.Offers[a]
}

// ErrorKind classifies a terminal aggregation failure. The zero value
// means no error and serializes as JSON null.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindInvalidInput      ErrorKind = "invalid_input"
	KindNotFound          ErrorKind = "not_found"
	KindNetworkFailure    ErrorKind = "network_failure"
	KindUpstreamMalformed ErrorKind = "upstream_malformed"
)

func (k ErrorKind) MarshalJSON() ([]byte, error) {
	if k == KindNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(k))
}

func (k *ErrorKind) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = KindNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ErrorKind(s)
	return nil
}

// ViewModel is everything a movie detail page renders. A published value
// is never modified; every request produces a new one.
//
// Exactly one of three shapes holds: loading (no movie, no error), failed
// (no movie, error set) or ready (movie set, no error). Directors, Cast and
// Similar are never nil.
type ViewModel struct {
	MovieID        MovieID           `json:"movieId"`
	Generation     uint64            `json:"generation"`
	Movie          *MovieDetail      `json:"movie"`
	Directors      []Person          `json:"directors"`
	Cast           []Person          `json:"cast"`
	Similar        []SimilarMovie    `json:"similar"`
	Trailer        *Video            `json:"trailer"`
	WatchProviders *WatchProviderSet `json:"watchProviders"`
	Country        string            `json:"country"`
	Loading        bool              `json:"loading"`
	Error          ErrorKind         `json:"error"`

	cause error
}

// Status names the view model's shape: idle, loading, ready or error.
func (vm ViewModel) Status() string {
	switch {
	case vm.Loading:
		return "loading"
	case vm.Error != KindNone:
		return "error"
	case vm.Movie != nil:
		return "ready"
	default:
		return "idle"
	}
}

// Terminal reports whether the view model is a settled result.
func (vm ViewModel) Terminal() bool {
	return vm.Error != KindNone || vm.Movie != nil
}

// Err returns the terminal failure as an *Error, or nil.
func (vm ViewModel) Err() error {
	if vm.Error == KindNone {
		return nil
	}
	return &Error{Kind: vm.Error, MovieID: vm.MovieID, Err: vm.cause}
}

func emptyViewModel(gen uint64, id MovieID, country string) ViewModel {
	return ViewModel{
		MovieID:    id,
		Generation: gen,
		Directors:  []Person{},
		Cast:       []Person{},
		Similar:    []SimilarMovie{},
		Country:    country,
	}
}

func loadingViewModel(gen uint64, id MovieID, country string) ViewModel {
	vm := emptyViewModel(gen, id, country)
	vm.Loading = true
	return vm
}

func failedViewModel(gen uint64, id MovieID, country string, kind ErrorKind, cause error) ViewModel {
	vm := emptyViewModel(gen, id, country)
	vm.Error = kind
	vm.cause = cause
	return vm
}

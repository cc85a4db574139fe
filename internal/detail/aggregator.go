// Package detail assembles the movie detail page view model from five
// parallel upstream fetches.
package detail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const subscriberBuffer = 4

// FetchKind names one of the five upstream fetches.
type FetchKind string

const (
	FetchDetail         FetchKind = "detail"
	FetchCredits        FetchKind = "credits"
	FetchSimilar        FetchKind = "similar"
	FetchVideos         FetchKind = "videos"
	FetchWatchProviders FetchKind = "watch_providers"
)

// Diagnostic reports a secondary fetch that failed and was replaced by its
// empty default.
type Diagnostic struct {
	MovieID    MovieID   `json:"movieId"`
	Generation uint64    `json:"generation"`
	Fetch      FetchKind `json:"fetch"`
	Error      string    `json:"error"`
	At         time.Time `json:"at"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRegion sets the watch-provider region. Empty values are ignored.
func WithRegion(code string) Option {
	return func(a *Aggregator) {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			a.region = code
		}
	}
}

// WithVideoSite sets the platform a trailer must be hosted on.
func WithVideoSite(site string) Option {
	return func(a *Aggregator) {
		if site = strings.TrimSpace(site); site != "" {
			a.videoSite = site
		}
	}
}

// WithTimeout bounds a whole aggregation. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

// WithDiagnostics registers a callback for secondary fetch failures. It is
// called from the aggregation goroutine and must not block.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(a *Aggregator) {
		a.onDiagnostic = fn
	}
}

// outcome is the tagged result of one fetch.
type outcome[T any] struct {
	value T
	err   error
}

func settle[T any](ctx context.Context, id MovieID, fetch func(context.Context, MovieID) (T, error)) outcome[T] {
	v, err := fetch(ctx, id)
	return outcome[T]{value: v, err: err}
}

// Aggregator owns one view-model slot. Each Request starts a new generation;
// only the newest generation may commit its result to the slot.
type Aggregator struct {
	upstream     Upstream
	logger       zerolog.Logger
	region       string
	videoSite    string
	timeout      time.Duration
	onDiagnostic func(Diagnostic)

	mu      sync.Mutex
	gen     uint64
	current ViewModel
	cancel  context.CancelFunc
	waiters map[uint64]chan ViewModel
	subs    map[int]chan ViewModel
	nextSub int
	closed  bool

	wg sync.WaitGroup
}

// New creates an aggregator reading from upstream.
func New(upstream Upstream, logger zerolog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		upstream:  upstream,
		logger:    logger.With().Str("component", "detail").Logger(),
		region:    DefaultRegion,
		videoSite: DefaultVideoSite,
		waiters:   make(map[uint64]chan ViewModel),
		subs:      make(map[int]chan ViewModel),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.current = emptyViewModel(0, "", a.region)
	return a
}

// Region returns the configured watch-provider region.
func (a *Aggregator) Region() string {
	return a.region
}

// Request starts aggregating id and returns its generation. The loading view
// model, or the InvalidInput failure for a malformed id, is published before
// Request returns. It returns 0 once the aggregator is closed.
func (a *Aggregator) Request(ctx context.Context, id MovieID) uint64 {
	gen, _ := a.start(ctx, id, false)
	return gen
}

// Fetch requests id and waits for that generation's terminal view model.
// The returned error is the view model's Err, ErrSuperseded if a newer
// request replaced this one first, or the context error.
func (a *Aggregator) Fetch(ctx context.Context, id MovieID) (ViewModel, error) {
	_, done := a.start(ctx, id, true)
	if done == nil {
		return ViewModel{}, ErrClosed
	}

	select {
	case vm, ok := <-done:
		if !ok {
			if a.isClosed() {
				return ViewModel{}, ErrClosed
			}
			return ViewModel{}, ErrSuperseded
		}
		return vm, vm.Err()
	case <-ctx.Done():
		return ViewModel{}, ctx.Err()
	}
}

// Current returns the most recently published view model.
func (a *Aggregator) Current() ViewModel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Subscribe returns a channel of published view models, starting with the
// current one, and a function that ends the subscription. A subscriber that
// falls behind loses intermediate states but always receives the newest.
func (a *Aggregator) Subscribe() (<-chan ViewModel, func()) {
	ch := make(chan ViewModel, subscriberBuffer)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		close(ch)
		return ch, func() {}
	}

	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	ch <- a.current

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if sub, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(sub)
		}
	}
}

// Close cancels in-flight work, ends all subscriptions and waits for
// running aggregations to return.
func (a *Aggregator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	for gen, ch := range a.waiters {
		close(ch)
		delete(a.waiters, gen)
	}
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.mu.Unlock()

	a.wg.Wait()
}

func (a *Aggregator) start(ctx context.Context, raw MovieID, wait bool) (uint64, chan ViewModel) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return 0, nil
	}

	a.gen++
	gen := a.gen
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	var done chan ViewModel
	if wait {
		done = make(chan ViewModel, 1)
	}

	id, err := ParseMovieID(string(raw))
	if err != nil {
		a.logger.Debug().Err(err).Uint64("generation", gen).Msg("Rejected movie id")
		vm := failedViewModel(gen, raw, a.region, KindInvalidInput, err)
		a.publishLocked(vm)
		if done != nil {
			done <- vm
		}
		return gen, done
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	if done != nil {
		a.waiters[gen] = done
	}
	a.publishLocked(loadingViewModel(gen, id, a.region))

	a.wg.Add(1)
	go a.run(runCtx, cancel, gen, id)

	return gen, done
}

func (a *Aggregator) run(ctx context.Context, cancel context.CancelFunc, gen uint64, id MovieID) {
	defer a.wg.Done()
	defer cancel()

	log := a.logger.With().
		Str("movieId", id.String()).
		Uint64("generation", gen).
		Str("requestId", uuid.NewString()).
		Logger()

	vm := a.aggregate(ctx, gen, id, log)
	if !a.commit(gen, vm) {
		log.Debug().Str("status", vm.Status()).Msg("Discarded result of superseded request")
	}
}

// commit publishes vm if gen is still the newest generation.
func (a *Aggregator) commit(gen uint64, vm ViewModel) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	done, waiting := a.waiters[gen]
	delete(a.waiters, gen)

	if a.closed || gen != a.gen {
		if waiting {
			close(done)
		}
		return false
	}

	a.publishLocked(vm)
	if waiting {
		done <- vm
	}
	return true
}

func (a *Aggregator) publishLocked(vm ViewModel) {
	a.current = vm
	for _, ch := range a.subs {
		select {
		case ch <- vm:
		default:
			// drop the oldest queued state to make room for the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- vm:
			default:
			}
		}
	}
}

func (a *Aggregator) isCurrent(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed && gen == a.gen
}

func (a *Aggregator) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *Aggregator) aggregate(ctx context.Context, gen uint64, id MovieID, log zerolog.Logger) ViewModel {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	// Secondary fetches are abandoned as soon as the detail fetch fails.
	secondaryCtx, abandon := context.WithCancel(ctx)
	defer abandon()

	started := time.Now()

	var (
		movie     outcome[*MovieDetail]
		credits   outcome[*Credits]
		similar   outcome[[]SimilarMovie]
		videos    outcome[[]Video]
		providers outcome[map[string]WatchProviderSet]
	)

	var g errgroup.Group
	g.Go(func() error {
		movie = settle(ctx, id, a.upstream.MovieDetail)
		if movie.err == nil && movie.value == nil {
			movie.err = fmt.Errorf("%w: empty detail record", ErrMalformed)
		}
		if movie.err != nil {
			abandon()
		}
		return nil
	})
	g.Go(func() error {
		credits = settle(secondaryCtx, id, a.upstream.Credits)
		return nil
	})
	g.Go(func() error {
		similar = settle(secondaryCtx, id, a.upstream.Similar)
		return nil
	})
	g.Go(func() error {
		videos = settle(secondaryCtx, id, a.upstream.Videos)
		return nil
	})
	g.Go(func() error {
		providers = settle(secondaryCtx, id, a.upstream.WatchProviders)
		return nil
	})
	_ = g.Wait()

	if movie.err != nil {
		kind := Classify(movie.err)
		log.Warn().Err(movie.err).Str("errorKind", string(kind)).Msg("Movie detail fetch failed")
		return failedViewModel(gen, id, a.region, kind, movie.err)
	}

	vm := emptyViewModel(gen, id, a.region)
	vm.Movie = cloneMovie(movie.value)

	if a.tolerate(log, gen, id, FetchCredits, credits.err) && credits.value != nil {
		vm.Directors = Directors(credits.value.Crew)
		vm.Cast = CastList(credits.value.Cast)
	}
	if a.tolerate(log, gen, id, FetchSimilar, similar.err) {
		vm.Similar = cloneSimilar(similar.value)
	}
	if a.tolerate(log, gen, id, FetchVideos, videos.err) {
		vm.Trailer = SelectTrailer(videos.value, a.videoSite)
	}
	if a.tolerate(log, gen, id, FetchWatchProviders, providers.err) {
		vm.WatchProviders = SelectRegion(providers.value, a.region)
	}

	log.Info().
		Str("title", vm.Movie.Title).
		Int("directors", len(vm.Directors)).
		Int("cast", len(vm.Cast)).
		Int("similar", len(vm.Similar)).
		Bool("trailer", vm.Trailer != nil).
		Bool("watchProviders", vm.WatchProviders != nil).
		Dur("elapsed", time.Since(started)).
		Msg("Assembled movie detail")

	return vm
}

// tolerate reports whether a secondary fetch succeeded. A failure is logged
// and reported as a diagnostic unless the generation is already stale.
func (a *Aggregator) tolerate(log zerolog.Logger, gen uint64, id MovieID, fetch FetchKind, err error) bool {
	if err == nil {
		return true
	}
	if !a.isCurrent(gen) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		log.Debug().Str("fetch", string(fetch)).Msg("Secondary fetch cancelled, using empty default")
		return false
	}

	log.Warn().Err(err).Str("fetch", string(fetch)).Msg("Secondary fetch failed, using empty default")
	if a.onDiagnostic != nil {
		a.onDiagnostic(Diagnostic{
			MovieID:    id,
			Generation: gen,
			Fetch:      fetch,
			Error:      err.Error(),
			At:         time.Now(),
		})
	}
	return false
}

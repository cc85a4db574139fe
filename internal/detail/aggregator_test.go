package detail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BidyutOffice/cinescope/internal/testutil"
)

const waitTimeout = 2 * time.Second

func TestAggregator_FetchReady(t *testing.T) {
	up := newFakeUpstream()
	agg := New(up, testutil.NewTestLogger(t))
	defer agg.Close()

	vm, err := agg.Fetch(context.Background(), "603")
	require.NoError(t, err)
	assertInvariants(t, vm)

	assert.Equal(t, "ready", vm.Status())
	assert.Equal(t, MovieID("603"), vm.MovieID)
	assert.Equal(t, uint64(1), vm.Generation)
	require.NotNil(t, vm.Movie)
	assert.Equal(t, "The Matrix", vm.Movie.Title)

	require.Len(t, vm.Directors, 2)
	assert.Equal(t, "Lana Wachowski", vm.Directors[0].Name)
	assert.Equal(t, "Lilly Wachowski", vm.Directors[1].Name)
	require.Len(t, vm.Cast, 2)
	assert.Equal(t, "Neo", vm.Cast[0].Character)
	assert.Len(t, vm.Similar, 1)

	require.NotNil(t, vm.Trailer)
	assert.Equal(t, "vKQi3bBA1y8", vm.Trailer.Key)

	assert.Equal(t, "US", vm.Country)
	require.NotNil(t, vm.WatchProviders)
	assert.Equal(t, "Max", vm.WatchProviders.Providers(AvailabilitySubscription)[0].Name)

	assert.Equal(t, 5, up.totalCalls())
	assert.Equal(t, vm, agg.Current())
}

func TestAggregator_TrimsID(t *testing.T) {
	agg := New(newFakeUpstream(), zerolog.Nop())
	defer agg.Close()

	vm, err := agg.Fetch(context.Background(), " 603 ")
	require.NoError(t, err)
	assert.Equal(t, MovieID("603"), vm.MovieID)

	vm, err = agg.Fetch(context.Background(), "0603")
	require.NoError(t, err)
	assert.Equal(t, MovieID("603"), vm.MovieID)
	require.NotNil(t, vm.Movie)
	assert.Equal(t, "The Matrix", vm.Movie.Title)
}

func TestAggregator_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		id   MovieID
	}{
		{"empty", ""},
		{"blank", "   "},
		{"not numeric", "tt0133093"},
		{"zero", "000"},
		{"negative", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newFakeUpstream()
			agg := New(up, zerolog.Nop())
			defer agg.Close()

			gen := agg.Request(context.Background(), tt.id)
			assert.Equal(t, uint64(1), gen)

			// published synchronously
			vm := agg.Current()
			assertInvariants(t, vm)
			assert.Equal(t, KindInvalidInput, vm.Error)
			assert.Nil(t, vm.Movie)

			vm, err := agg.Fetch(context.Background(), tt.id)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, KindInvalidInput, vm.Error)

			assert.Zero(t, up.totalCalls())
		})
	}
}

func TestAggregator_DetailFailure(t *testing.T) {
	tests := []struct {
		name string
		id   MovieID
		err  error
		want ErrorKind
	}{
		{"not found", "999999", nil, KindNotFound},
		{"network", "603", errors.New("dial tcp: connection refused"), KindNetworkFailure},
		{"malformed", "603", fmt.Errorf("%w: missing title", ErrMalformed), KindUpstreamMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newFakeUpstream()
			if tt.err != nil {
				up.fail(FetchDetail, tt.err)
			}
			agg := New(up, zerolog.Nop())
			defer agg.Close()

			vm, err := agg.Fetch(context.Background(), tt.id)
			require.Error(t, err)
			assertInvariants(t, vm)

			assert.Equal(t, tt.want, vm.Error)
			assert.Equal(t, "error", vm.Status())
			assert.Nil(t, vm.Movie)
			assert.Empty(t, vm.Directors)
			assert.Nil(t, vm.Trailer)
			assert.Nil(t, vm.WatchProviders)

			var detailErr *Error
			require.ErrorAs(t, err, &detailErr)
			assert.Equal(t, tt.want, detailErr.Kind)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestAggregator_NilDetailIsMalformed(t *testing.T) {
	up := newFakeUpstream()
	up.movies["42"] = nil
	agg := New(up, zerolog.Nop())
	defer agg.Close()

	vm, err := agg.Fetch(context.Background(), "42")
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, KindUpstreamMalformed, vm.Error)
}

func TestAggregator_CreditsFailureDegrades(t *testing.T) {
	up := newFakeUpstream()
	up.fail(FetchCredits, errors.New("connection reset by peer"))

	var (
		mu    sync.Mutex
		diags []Diagnostic
	)
	agg := New(up, zerolog.Nop(), WithDiagnostics(func(d Diagnostic) {
		mu.Lock()
		defer mu.Unlock()
		diags = append(diags, d)
	}))
	defer agg.Close()

	vm, err := agg.Fetch(context.Background(), "603")
	require.NoError(t, err)
	assertInvariants(t, vm)

	require.NotNil(t, vm.Movie)
	assert.Equal(t, KindNone, vm.Error)
	assert.Equal(t, []Person{}, vm.Directors)
	assert.Equal(t, []Person{}, vm.Cast)
	assert.NotNil(t, vm.Trailer)
	assert.Len(t, vm.Similar, 1)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, diags, 1)
	assert.Equal(t, FetchCredits, diags[0].Fetch)
	assert.Equal(t, MovieID("603"), diags[0].MovieID)
	assert.Equal(t, uint64(1), diags[0].Generation)
	assert.Contains(t, diags[0].Error, "connection reset")
}

func TestAggregator_CancelledSecondaryIsNotDiagnosed(t *testing.T) {
	up := newFakeUpstream()
	up.hang[FetchCredits] = true

	var (
		mu    sync.Mutex
		diags []Diagnostic
	)
	agg := New(up, zerolog.Nop(), WithDiagnostics(func(d Diagnostic) {
		mu.Lock()
		defer mu.Unlock()
		diags = append(diags, d)
	}))
	defer agg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	agg.Request(ctx, "603")
	require.Eventually(t, func() bool {
		up.mu.Lock()
		defer up.mu.Unlock()
		return up.calls[FetchCredits] == 1
	}, waitTimeout, time.Millisecond)
	cancel()

	require.Eventually(t, func() bool {
		return agg.Current().Status() == "ready"
	}, waitTimeout, time.Millisecond)

	vm := agg.Current()
	assertInvariants(t, vm)
	assert.Equal(t, []Person{}, vm.Directors)
	assert.NotNil(t, vm.Trailer)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, diags)
}

func TestAggregator_AllSecondaryFailuresStillReady(t *testing.T) {
	up := newFakeUpstream()
	for _, kind := range []FetchKind{FetchCredits, FetchSimilar, FetchVideos, FetchWatchProviders} {
		up.fail(kind, fmt.Errorf("%s: upstream returned 500", kind))
	}

	count := 0
	var mu sync.Mutex
	agg := New(up, zerolog.Nop(), WithDiagnostics(func(Diagnostic) {
		mu.Lock()
		count++
		mu.Unlock()
	}))
	defer agg.Close()

	vm, err := agg.Fetch(context.Background(), "603")
	require.NoError(t, err)
	assertInvariants(t, vm)

	assert.Equal(t, "ready", vm.Status())
	assert.Empty(t, vm.Directors)
	assert.Empty(t, vm.Cast)
	assert.Empty(t, vm.Similar)
	assert.Nil(t, vm.Trailer)
	assert.Nil(t, vm.WatchProviders)

	mu.Lock()
	assert.Equal(t, 4, count)
	mu.Unlock()
}

func TestAggregator_SecondaryErrorsIgnoredWhenDetailFails(t *testing.T) {
	up := newFakeUpstream()
	up.fail(FetchCredits, errors.New("credits down"))

	diagnostics := 0
	agg := New(up, zerolog.Nop(), WithDiagnostics(func(Diagnostic) { diagnostics++ }))
	defer agg.Close()

	vm, err := agg.Fetch(context.Background(), "404404")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, vm.Error)
	assert.Zero(t, diagnostics)
}

func TestAggregator_RegionSelection(t *testing.T) {
	t.Run("configured region", func(t *testing.T) {
		agg := New(newFakeUpstream(), zerolog.Nop(), WithRegion("de"))
		defer agg.Close()

		vm, err := agg.Fetch(context.Background(), "603")
		require.NoError(t, err)
		assert.Equal(t, "DE", vm.Country)
		require.NotNil(t, vm.WatchProviders)
		assert.Empty(t, vm.WatchProviders.Providers(AvailabilitySubscription))
		assert.Equal(t, "Google Play Movies", vm.WatchProviders.Providers(AvailabilityBuy)[0].Name)
	})

	t.Run("region without entry", func(t *testing.T) {
		agg := New(newFakeUpstream(), zerolog.Nop(), WithRegion("JP"))
		defer agg.Close()

		vm, err := agg.Fetch(context.Background(), "603")
		require.NoError(t, err)
		assert.Equal(t, "JP", vm.Country)
		assert.Nil(t, vm.WatchProviders)
	})
}

func TestAggregator_VideoSite(t *testing.T) {
	up := newFakeUpstream()
	up.videos = []Video{
		{Key: "yt", Type: "Trailer", Site: "YouTube"},
		{Key: "vm", Type: "Trailer", Site: "Vimeo"},
	}
	agg := New(up, zerolog.Nop(), WithVideoSite("Vimeo"))
	defer agg.Close()

	vm, err := agg.Fetch(context.Background(), "603")
	require.NoError(t, err)
	require.NotNil(t, vm.Trailer)
	assert.Equal(t, "vm", vm.Trailer.Key)
}

func TestAggregator_Timeout(t *testing.T) {
	up := newFakeUpstream()
	up.hang[FetchDetail] = true
	agg := New(up, zerolog.Nop(), WithTimeout(20*time.Millisecond))
	defer agg.Close()

	vm, err := agg.Fetch(context.Background(), "603")
	require.Error(t, err)
	assert.Equal(t, KindNetworkFailure, vm.Error)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAggregator_StaleResultDiscarded(t *testing.T) {
	up := newFakeUpstream()
	releaseA := up.gate("603")
	defer releaseA()

	agg := New(up, zerolog.Nop())
	sub, unsubscribe := agg.Subscribe()
	defer unsubscribe()

	genA := agg.Request(context.Background(), "603")
	vmB, err := agg.Fetch(context.Background(), "27205")
	require.NoError(t, err)
	assert.Greater(t, vmB.Generation, genA)
	assert.Equal(t, "Inception", vmB.Movie.Title)

	// A's responses arrive after B has settled.
	releaseA()
	agg.Close()

	final := agg.Current()
	assert.Equal(t, MovieID("27205"), final.MovieID)
	require.NotNil(t, final.Movie)
	assert.Equal(t, "Inception", final.Movie.Title)

	for vm := range sub {
		assertInvariants(t, vm)
		if vm.MovieID == "603" {
			assert.False(t, vm.Terminal(), "terminal view model of superseded request was published")
		}
	}
}

func TestAggregator_FetchSuperseded(t *testing.T) {
	up := newFakeUpstream()
	releaseA := up.gate("603")
	defer releaseA()

	agg := New(up, zerolog.Nop())
	defer agg.Close()

	errs := make(chan error, 1)
	go func() {
		_, err := agg.Fetch(context.Background(), "603")
		errs <- err
	}()

	require.Eventually(t, func() bool {
		return agg.Current().MovieID == "603"
	}, waitTimeout, time.Millisecond)

	_, err := agg.Fetch(context.Background(), "27205")
	require.NoError(t, err)

	releaseA()
	assert.ErrorIs(t, testutil.Receive(t, errs, waitTimeout), ErrSuperseded)
}

func TestAggregator_NewRequestCancelsPrevious(t *testing.T) {
	up := newFakeUpstream()
	up.hang[FetchDetail] = true

	agg := New(up, zerolog.Nop())
	defer agg.Close()

	errs := make(chan error, 1)
	go func() {
		_, err := agg.Fetch(context.Background(), "603")
		errs <- err
	}()
	require.Eventually(t, func() bool {
		return agg.Current().MovieID == "603"
	}, waitTimeout, time.Millisecond)

	// Invalid ids still supersede.
	agg.Request(context.Background(), "")

	assert.ErrorIs(t, testutil.Receive(t, errs, waitTimeout), ErrSuperseded)
	assert.Equal(t, KindInvalidInput, agg.Current().Error)
}

func TestAggregator_SubscribeSequence(t *testing.T) {
	agg := New(newFakeUpstream(), zerolog.Nop())
	defer agg.Close()

	sub, unsubscribe := agg.Subscribe()
	defer unsubscribe()

	idle := testutil.Receive(t, sub, waitTimeout)
	assert.Equal(t, "idle", idle.Status())

	_, err := agg.Fetch(context.Background(), "603")
	require.NoError(t, err)

	loading := testutil.Receive(t, sub, waitTimeout)
	assertInvariants(t, loading)
	assert.Equal(t, "loading", loading.Status())
	assert.Equal(t, MovieID("603"), loading.MovieID)

	ready := testutil.Receive(t, sub, waitTimeout)
	assertInvariants(t, ready)
	assert.Equal(t, "ready", ready.Status())
	assert.Equal(t, loading.Generation, ready.Generation)
}

func TestAggregator_SlowSubscriberKeepsNewest(t *testing.T) {
	agg := New(newFakeUpstream(), zerolog.Nop())
	defer agg.Close()

	sub, unsubscribe := agg.Subscribe()
	defer unsubscribe()

	var last ViewModel
	for i := 0; i < 5; i++ {
		var err error
		last, err = agg.Fetch(context.Background(), "603")
		require.NoError(t, err)
	}

	var got ViewModel
	for len(sub) > 0 {
		got = <-sub
	}
	assert.Equal(t, last.Generation, got.Generation)
	assert.Equal(t, "ready", got.Status())
}

func TestAggregator_Close(t *testing.T) {
	up := newFakeUpstream()
	agg := New(up, zerolog.Nop())

	sub, _ := agg.Subscribe()
	agg.Close()
	agg.Close()

	testutil.Receive(t, sub, waitTimeout)
	_, ok := <-sub
	assert.False(t, ok)

	assert.Zero(t, agg.Request(context.Background(), "603"))
	_, err := agg.Fetch(context.Background(), "603")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, up.totalCalls())

	late, _ := agg.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestAggregator_FetchContextCancelled(t *testing.T) {
	up := newFakeUpstream()
	release := up.gate("603")
	defer release()

	agg := New(up, zerolog.Nop())
	defer func() {
		release()
		agg.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := agg.Fetch(ctx, "603")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestViewModel_JSON(t *testing.T) {
	t.Run("failed", func(t *testing.T) {
		vm := failedViewModel(3, "999", "US", KindNotFound, ErrNotFound)
		data, err := json.Marshal(vm)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Nil(t, got["movie"])
		assert.Nil(t, got["trailer"])
		assert.Equal(t, "not_found", got["error"])
		assert.Equal(t, []any{}, got["directors"])
		assert.Equal(t, []any{}, got["cast"])
		assert.Equal(t, []any{}, got["similar"])
		assert.Equal(t, false, got["loading"])
		assert.Equal(t, "999", got["movieId"])
	})

	t.Run("loading", func(t *testing.T) {
		data, err := json.Marshal(loadingViewModel(1, "603", "US"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"error":null`)
		assert.Contains(t, string(data), `"loading":true`)
	})

	t.Run("round trip kind", func(t *testing.T) {
		var vm ViewModel
		require.NoError(t, json.Unmarshal([]byte(`{"error":"network_failure","directors":[]}`), &vm))
		assert.Equal(t, KindNetworkFailure, vm.Error)

		require.NoError(t, json.Unmarshal([]byte(`{"error":null}`), &vm))
		assert.Equal(t, KindNone, vm.Error)
	})
}

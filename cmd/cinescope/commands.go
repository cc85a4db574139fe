package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BidyutOffice/cinescope/internal/detail"
)

func runDetail(ctx context.Context, e *env, args []string) error {
	var opts options
	fs := newFlagSet("detail", e, &opts)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: cinescope detail [flags] <movie-id>")
		fs.PrintDefaults()
	}
	if err := parse(fs, &opts, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	a, err := newApp(e, &opts)
	if err != nil {
		return err
	}
	defer a.close()

	agg := a.aggregator()
	defer agg.Close()

	vm, err := agg.Fetch(ctx, detail.MovieID(fs.Arg(0)))
	var detailErr *detail.Error
	if err != nil && !errors.As(err, &detailErr) {
		return err
	}

	if err := a.out.ViewModel(e.stdout, vm); err != nil {
		return err
	}
	if detailErr != nil {
		return errReported
	}
	return nil
}

// runWatch reads one movie id per line and requests each as it arrives.
// Every published state is printed; a slow earlier id never overwrites a
// later one. It returns once the last request settles.
func runWatch(ctx context.Context, e *env, args []string) error {
	var opts options
	fs := newFlagSet("watch", e, &opts)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: cinescope watch [flags] < ids.txt")
		fs.PrintDefaults()
	}
	if err := parse(fs, &opts, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return errUsage
	}

	a, err := newApp(e, &opts)
	if err != nil {
		return err
	}
	defer a.close()

	agg := a.aggregator()
	defer agg.Close()

	states, unsubscribe := agg.Subscribe()
	printed := make(chan error, 1)
	go func() {
		var writeErr error
		for vm := range states {
			if writeErr == nil {
				writeErr = a.out.ViewModel(e.stdout, vm)
			}
		}
		printed <- writeErr
	}()

	var last uint64
	scanner := bufio.NewScanner(e.stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		last = agg.Request(ctx, detail.MovieID(line))
	}
	scanErr := scanner.Err()

	if last > 0 {
		waitSettled(ctx, agg, last)
	}
	unsubscribe()

	if err := <-printed; err != nil {
		return err
	}
	if scanErr != nil {
		return fmt.Errorf("read movie ids: %w", scanErr)
	}
	return ctx.Err()
}

// waitSettled blocks until generation gen reaches a terminal state, is
// superseded, or ctx ends.
func waitSettled(ctx context.Context, agg *detail.Aggregator, gen uint64) {
	states, unsubscribe := agg.Subscribe()
	defer unsubscribe()

	for {
		select {
		case vm, ok := <-states:
			if !ok || vm.Generation > gen || (vm.Generation == gen && vm.Terminal()) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func runSearch(ctx context.Context, e *env, args []string) error {
	var opts options
	fs := newFlagSet("search", e, &opts)
	year := fs.Int("year", 0, "Only match movies released in this year")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: cinescope search [flags] <query>")
		fs.PrintDefaults()
	}
	if err := parse(fs, &opts, args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fs.Usage()
		return errUsage
	}

	a, err := newApp(e, &opts)
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.source.SearchMovies(ctx, query, *year)
	if err != nil {
		return err
	}
	return a.out.Search(e.stdout, results)
}


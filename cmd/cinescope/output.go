package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BidyutOffice/cinescope/internal/detail"
	"github.com/BidyutOffice/cinescope/internal/metadata/tmdb"
)

const (
	youtubeWatchURL = "https://www.youtube.com/watch?v="
	posterSize      = "w500"
	maxCastShown    = 10
	maxSimilarShown = 8
)

// formatter renders command output in one format.
type formatter struct {
	kind     string
	imageURL func(path, size string) string
}

func formatterFor(kind string) (formatter, error) {
	switch kind {
	case "text", "json", "yaml":
		return formatter{kind: kind}, nil
	default:
		return formatter{}, fmt.Errorf("unknown format %q: want text, json or yaml", kind)
	}
}

// viewOutput is a view model tagged with its status for structured output.
type viewOutput struct {
	Status string `json:"status"`
	detail.ViewModel
}

// ViewModel writes one view model. Structured formats write the whole model;
// text writes a page summary.
func (f formatter) ViewModel(w io.Writer, vm detail.ViewModel) error {
	if f.kind != "text" {
		return f.structured(w, viewOutput{Status: vm.Status(), ViewModel: vm})
	}

	switch vm.Status() {
	case "idle":
		return nil
	case "loading":
		_, err := fmt.Fprintf(w, "movie %s: loading (generation %d)\n", vm.MovieID, vm.Generation)
		return err
	case "error":
		_, err := fmt.Fprintf(w, "movie %s: %s\n", vm.MovieID, errorText(vm.Error))
		return err
	}

	return f.page(w, vm)
}

// Search writes search results.
func (f formatter) Search(w io.Writer, results []tmdb.NormalizedMovieResult) error {
	if f.kind != "text" {
		if results == nil {
			results = []tmdb.NormalizedMovieResult{}
		}
		return f.structured(w, results)
	}

	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no movies found")
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%-8d %s\n", r.ID, titleWithYear(r.Title, yearString(r.Year))); err != nil {
			return err
		}
	}
	return nil
}

// structured writes v as indented JSON or as YAML. YAML goes through JSON so
// both formats share the json field names.
func (f formatter) structured(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if f.kind == "json" {
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func (f formatter) page(w io.Writer, vm detail.ViewModel) error {
	m := vm.Movie
	var b strings.Builder

	b.WriteString(titleWithYear(m.Title, releaseYear(m.ReleaseDate)))
	b.WriteByte('\n')
	if m.Tagline != "" {
		fmt.Fprintf(&b, "%q\n", m.Tagline)
	}

	facts := make([]string, 0, 3)
	if m.Runtime > 0 {
		facts = append(facts, fmt.Sprintf("%d min", m.Runtime))
	}
	if m.VoteCount > 0 {
		facts = append(facts, fmt.Sprintf("rated %.1f/10 (%d votes)", m.VoteAverage, m.VoteCount))
	}
	if len(m.Genres) > 0 {
		genres := make([]string, len(m.Genres))
		for i, g := range m.Genres {
			genres[i] = g.Name
		}
		facts = append(facts, strings.Join(genres, ", "))
	}
	if len(facts) > 0 {
		b.WriteString(strings.Join(facts, " | "))
		b.WriteByte('\n')
	}

	if m.Overview != "" {
		b.WriteByte('\n')
		b.WriteString(m.Overview)
		b.WriteString("\n\n")
	}

	if len(vm.Directors) > 0 {
		fmt.Fprintf(&b, "Directed by: %s\n", joinNames(vm.Directors, len(vm.Directors)))
	}
	if len(vm.Cast) > 0 {
		fmt.Fprintf(&b, "Cast: %s\n", joinNames(vm.Cast, maxCastShown))
	}

	if vm.Trailer != nil {
		fmt.Fprintf(&b, "Trailer: %s\n", trailerURL(vm.Trailer))
	}

	if offers := vm.WatchProviders.Providers(detail.AvailabilitySubscription); len(offers) > 0 {
		names := make([]string, len(offers))
		for i, p := range offers {
			names[i] = p.Name
		}
		fmt.Fprintf(&b, "Available on (%s): %s\n", vm.Country, strings.Join(names, ", "))
	} else {
		fmt.Fprintf(&b, "Not streaming in %s\n", vm.Country)
	}

	if poster := f.image(m.PosterPath, posterSize); poster != "" {
		fmt.Fprintf(&b, "Poster: %s\n", poster)
	}

	if len(vm.Similar) > 0 {
		titles := make([]string, 0, maxSimilarShown)
		for i, s := range vm.Similar {
			if i == maxSimilarShown {
				break
			}
			titles = append(titles, s.Title)
		}
		fmt.Fprintf(&b, "Similar: %s\n", strings.Join(titles, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (f formatter) image(path, size string) string {
	if path == "" || f.imageURL == nil {
		return ""
	}
	return f.imageURL(path, size)
}

// trailerURL returns a watch URL for YouTube trailers and the bare key
// for other sites.
func trailerURL(v *detail.Video) string {
	if strings.EqualFold(v.Site, detail.DefaultVideoSite) {
		return youtubeWatchURL + v.Key
	}
	return v.Site + ": " + v.Key
}

func joinNames(people []detail.Person, limit int) string {
	names := make([]string, 0, limit)
	for i, p := range people {
		if i == limit {
			break
		}
		if p.Character != "" {
			names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Character))
		} else {
			names = append(names, p.Name)
		}
	}
	if len(people) > limit {
		names = append(names, fmt.Sprintf("and %d more", len(people)-limit))
	}
	return strings.Join(names, ", ")
}

func errorText(kind detail.ErrorKind) string {
	switch kind {
	case detail.KindInvalidInput:
		return "invalid movie id"
	case detail.KindNotFound:
		return "movie not found"
	case detail.KindUpstreamMalformed:
		return "TMDB returned an unusable record"
	default:
		return "could not reach TMDB"
	}
}

func titleWithYear(title, year string) string {
	if year == "" {
		return title
	}
	return title + " (" + year + ")"
}

func releaseYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

func yearString(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

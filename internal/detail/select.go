package detail

import "strings"

const (
	jobDirector      = "Director"
	videoTypeTrailer = "Trailer"

	// DefaultVideoSite is the platform trailers are expected on.
	DefaultVideoSite = "YouTube"
	// DefaultRegion is the watch-provider region used when none is configured.
	DefaultRegion = "US"
)

// Directors returns crew entries whose job is Director, in upstream order.
func Directors(crew []CrewMember) []Person {
	directors := make([]Person, 0, 1)
	for _, c := range crew {
		if c.Job != jobDirector {
			continue
		}
		directors = append(directors, Person{
			ID:          c.ID,
			Name:        c.Name,
			ProfilePath: c.ProfilePath,
		})
	}
	return directors
}

// CastList converts every cast entry, keeping upstream order. It does not
// truncate.
func CastList(cast []CastMember) []Person {
	people := make([]Person, len(cast))
	for i, c := range cast {
		people[i] = Person{
			ID:          c.ID,
			Name:        c.Name,
			ProfilePath: c.ProfilePath,
			Character:   c.Character,
		}
	}
	return people
}

// SelectTrailer returns the first video of type Trailer hosted on site.
// Upstream order decides between several trailers.
func SelectTrailer(videos []Video, site string) *Video {
	for _, v := range videos {
		if v.Type == videoTypeTrailer && strings.EqualFold(v.Site, site) {
			trailer := v
			return &trailer
		}
	}
	return nil
}

// SelectRegion returns a copy of the provider set for region, or nil.
func SelectRegion(byRegion map[string]WatchProviderSet, region string) *WatchProviderSet {
	set, ok := byRegion[region]
	if !ok {
		return nil
	}

	offers := make(map[Availability][]Provider, len(set.Offers))
	for kind, providers := range set.Offers {
		offers[kind] = append([]Provider(nil), providers...)
	}
	return &WatchProviderSet{Link: set.Link, Offers: offers}
}

func cloneSimilar(similar []SimilarMovie) []SimilarMovie {
	out := make([]SimilarMovie, len(similar))
	copy(out, similar)
	return out
}

func cloneMovie(m *MovieDetail) *MovieDetail {
	c := *m
	c.Genres = append(make([]Genre, 0, len(m.Genres)), m.Genres...)
	c.ProductionCompanies = append(make([]ProductionCompany, 0, len(m.ProductionCompanies)), m.ProductionCompanies...)
	c.ProductionCountries = append(make([]ProductionCountry, 0, len(m.ProductionCountries)), m.ProductionCountries...)
	return &c
}

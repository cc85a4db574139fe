package mock

import "github.com/BidyutOffice/cinescope/internal/metadata/tmdb"

type fixture struct {
	details   tmdb.MovieDetails
	cast      []tmdb.CastMember
	crew      []tmdb.CrewMember
	similar   []int
	videos    []tmdb.Video
	providers map[string]tmdb.RegionProviders
}

func str(s string) *string {
	return &s
}

var fixtureOrder = []int{603, 27205, 550}

var fixtures = map[int]fixture{
	603: {
		details: tmdb.MovieDetails{
			ID:               603,
			Title:            "The Matrix",
			OriginalTitle:    "The Matrix",
			Tagline:          "Welcome to the Real World.",
			Overview:         "Set in the 22nd century, The Matrix tells the story of a computer hacker who joins a group of underground insurgents fighting the vast and powerful computers who now rule the earth.",
			ReleaseDate:      "1999-03-30",
			Runtime:          136,
			Budget:           63000000,
			Revenue:          463517383,
			Status:           "Released",
			OriginalLanguage: "en",
			VoteAverage:      8.2,
			VoteCount:        25000,
			PosterPath:       str("/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg"),
			BackdropPath:     str("/ncEsesgOJDNrTUED89hYbA117wo.jpg"),
			ImdbID:           str("tt0133093"),
			Genres:           []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
			ProductionCompanies: []tmdb.ProductionCompany{
				{ID: 79, Name: "Village Roadshow Pictures", OriginCountry: "US"},
				{ID: 372, Name: "Groucho II Film Partnership"},
			},
			ProductionCountries: []tmdb.ProductionCountry{{Iso31661: "US", Name: "United States of America"}},
		},
		cast: []tmdb.CastMember{
			{ID: 6384, Name: "Keanu Reeves", Character: "Neo", Order: 0, ProfilePath: str("/4D0PpNI0kmP58hgrwGC3wCjxhnm.jpg")},
			{ID: 2975, Name: "Laurence Fishburne", Character: "Morpheus", Order: 1, ProfilePath: str("/8suOhUmPbfKqDQ17jQ1Gy0mI3P4.jpg")},
			{ID: 530, Name: "Carrie-Anne Moss", Character: "Trinity", Order: 2, ProfilePath: str("/xD4jTA3KmVp5Rq3aHcymL9DwWl7.jpg")},
			{ID: 1331, Name: "Hugo Weaving", Character: "Agent Smith", Order: 3},
		},
		crew: []tmdb.CrewMember{
			{ID: 9340, Name: "Lana Wachowski", Job: "Director", Department: "Directing"},
			{ID: 9339, Name: "Lilly Wachowski", Job: "Director", Department: "Directing"},
			{ID: 9340, Name: "Lana Wachowski", Job: "Writer", Department: "Writing"},
			{ID: 1091, Name: "Joel Silver", Job: "Producer", Department: "Production"},
		},
		similar: []int{27205, 550},
		videos: []tmdb.Video{
			{Key: "m8e-FF8MsqU", Name: "Official Teaser", Site: "YouTube", Type: "Teaser"},
			{Key: "vKQi3bBA1y8", Name: "Official Trailer", Site: "YouTube", Type: "Trailer", Official: true},
			{Key: "d0XNJOT3KNk", Name: "Re-release Trailer", Site: "YouTube", Type: "Trailer"},
		},
		providers: map[string]tmdb.RegionProviders{
			"US": {
				Link:     "https://www.themoviedb.org/movie/603-the-matrix/watch?locale=US",
				Flatrate: []tmdb.WatchProvider{{ProviderID: 1899, ProviderName: "Max", LogoPath: "/6Q3ZYUNA9Hsgj6iWnVsw2gR5V6z.jpg", DisplayPriority: 7}},
				Rent:     []tmdb.WatchProvider{{ProviderID: 2, ProviderName: "Apple TV", LogoPath: "/9ghgSC0MA082EL6HLCW3GalykFD.jpg", DisplayPriority: 4}},
				Buy:      []tmdb.WatchProvider{{ProviderID: 2, ProviderName: "Apple TV", LogoPath: "/9ghgSC0MA082EL6HLCW3GalykFD.jpg", DisplayPriority: 4}},
			},
			"GB": {
				Link: "https://www.themoviedb.org/movie/603-the-matrix/watch?locale=GB",
				Rent: []tmdb.WatchProvider{{ProviderID: 10, ProviderName: "Amazon Video", LogoPath: "/5NyLm42TmCqCMOZFvH4fcoSNKEW.jpg", DisplayPriority: 11}},
			},
		},
	},
	27205: {
		details: tmdb.MovieDetails{
			ID:               27205,
			Title:            "Inception",
			OriginalTitle:    "Inception",
			Tagline:          "Your mind is the scene of the crime.",
			Overview:         "Cobb, a skilled thief who commits corporate espionage by infiltrating the subconscious of his targets, is offered a chance to regain his old life.",
			ReleaseDate:      "2010-07-15",
			Runtime:          148,
			Budget:           160000000,
			Revenue:          839030630,
			Status:           "Released",
			OriginalLanguage: "en",
			VoteAverage:      8.4,
			VoteCount:        36000,
			PosterPath:       str("/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg"),
			ImdbID:           str("tt1375666"),
			Genres:           []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}, {ID: 12, Name: "Adventure"}},
			ProductionCompanies: []tmdb.ProductionCompany{
				{ID: 923, Name: "Legendary Pictures", OriginCountry: "US"},
				{ID: 9996, Name: "Syncopy", OriginCountry: "GB"},
			},
			ProductionCountries: []tmdb.ProductionCountry{
				{Iso31661: "GB", Name: "United Kingdom"},
				{Iso31661: "US", Name: "United States of America"},
			},
		},
		cast: []tmdb.CastMember{
			{ID: 6193, Name: "Leonardo DiCaprio", Character: "Dom Cobb", Order: 0, ProfilePath: str("/wo2hJpn04vbtmh0B9utCFdsQhxM.jpg")},
			{ID: 24045, Name: "Joseph Gordon-Levitt", Character: "Arthur", Order: 1},
			{ID: 27578, Name: "Elliot Page", Character: "Ariadne", Order: 2},
			{ID: 2524, Name: "Tom Hardy", Character: "Eames", Order: 3},
		},
		crew: []tmdb.CrewMember{
			{ID: 525, Name: "Christopher Nolan", Job: "Director", Department: "Directing", ProfilePath: str("/xuAIuYSmsUzKlUMBFGVZaWsY3DZ.jpg")},
			{ID: 525, Name: "Christopher Nolan", Job: "Writer", Department: "Writing"},
			{ID: 947, Name: "Hans Zimmer", Job: "Original Music Composer", Department: "Sound"},
		},
		similar: []int{603},
		videos: []tmdb.Video{
			{Key: "YoHD9XEInc0", Name: "Inception - Official Trailer", Site: "YouTube", Type: "Trailer", Official: true},
		},
		providers: map[string]tmdb.RegionProviders{
			"US": {
				Link:     "https://www.themoviedb.org/movie/27205-inception/watch?locale=US",
				Flatrate: []tmdb.WatchProvider{{ProviderID: 8, ProviderName: "Netflix", LogoPath: "/pbpMk2JmcoNnQwx5JGpXngfoWtp.jpg", DisplayPriority: 0}},
			},
		},
	},
	550: {
		details: tmdb.MovieDetails{
			ID:               550,
			Title:            "Fight Club",
			OriginalTitle:    "Fight Club",
			Tagline:          "Mischief. Mayhem. Soap.",
			Overview:         "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression into a shocking new form of therapy.",
			ReleaseDate:      "1999-10-15",
			Runtime:          139,
			Budget:           63000000,
			Revenue:          100853753,
			Status:           "Released",
			OriginalLanguage: "en",
			VoteAverage:      8.4,
			VoteCount:        29000,
			PosterPath:       str("/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg"),
			ImdbID:           str("tt0137523"),
			Genres:           []tmdb.Genre{{ID: 18, Name: "Drama"}},
			ProductionCountries: []tmdb.ProductionCountry{
				{Iso31661: "US", Name: "United States of America"},
			},
		},
		cast: []tmdb.CastMember{
			{ID: 819, Name: "Edward Norton", Character: "Narrator", Order: 0},
			{ID: 287, Name: "Brad Pitt", Character: "Tyler Durden", Order: 1},
		},
		crew: []tmdb.CrewMember{
			{ID: 7467, Name: "David Fincher", Job: "Director", Department: "Directing"},
		},
		// No trailer and no watch providers: exercises the empty defaults.
		videos: []tmdb.Video{
			{Key: "BdJKm16Co6M", Name: "Clip", Site: "YouTube", Type: "Clip"},
		},
		providers: map[string]tmdb.RegionProviders{},
	},
}

// Package media defines the typed metadata record shared by the metadata
// client and the category classifier. Records are validated and shaped at
// the client boundary; downstream code never touches raw API payloads.
package media

// Kind identifies the taxonomy family a record classifies under.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// ParseKind normalizes an external media-type string. Anything that is not
// a TV marker classifies as a movie, matching the metadata service's own
// default.
func ParseKind(mediaType string) Kind {
	if mediaType == string(KindTV) {
		return KindTV
	}
	return KindMovie
}

// Record is one metadata result for a searched title. It is immutable once
// received from the metadata client.
type Record struct {
	ID                  int64    `json:"id"`
	Kind                Kind     `json:"kind"`
	Title               string   `json:"title"`
	ReleaseDate         string   `json:"release_date,omitempty"`
	Overview            string   `json:"overview,omitempty"`
	GenreIDs            []int    `json:"genre_ids,omitempty"`
	OriginalLanguage    string   `json:"original_language,omitempty"`
	OriginCountries     []string `json:"origin_countries,omitempty"`
	ProductionCountries []string `json:"production_countries,omitempty"`
	Popularity          float64  `json:"popularity,omitempty"`
	VoteAverage         float64  `json:"vote_average,omitempty"`
}

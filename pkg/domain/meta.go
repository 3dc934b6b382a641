package domain

// Meta is the detailed metadata object served for a single title,
// shaped for the addon protocol's meta resource.
type Meta struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"type"`
	Name         string   `json:"name"`
	PosterURL    string   `json:"poster,omitempty"`
	PosterShape  string   `json:"posterShape,omitempty"`
	Background   string   `json:"background,omitempty"`
	Description  string   `json:"description,omitempty"`
	ReleaseInfo  string   `json:"releaseInfo,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	IMDBRating   string   `json:"imdbRating,omitempty"`
	Runtime      string   `json:"runtime,omitempty"`
	Director     string   `json:"director,omitempty"`
	Country      string   `json:"country,omitempty"`
	Status       string   `json:"status,omitempty"`
	TotalSeasons int      `json:"totalSeasons,omitempty"`
}

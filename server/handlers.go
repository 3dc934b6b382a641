package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/mediascope/pkg/catalog"
	"github.com/umputun/mediascope/pkg/domain"
)

// Manifest is the addon descriptor served at /manifest.json
type Manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Resources   []string          `json:"resources"`
	Types       []string          `json:"types"`
	IDPrefixes  []string          `json:"idPrefixes"`
	Catalogs    []ManifestCatalog `json:"catalogs"`
}

// ManifestCatalog describes one catalog in the manifest
type ManifestCatalog struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Extra []ManifestExtra `json:"extra,omitempty"`
}

// ManifestExtra describes one supported extra argument of a catalog
type ManifestExtra struct {
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
}

// manifestHandler serves the addon descriptor built from the variant registry
func (s *Server) manifestHandler(w http.ResponseWriter, r *http.Request) {
	m := Manifest{
		ID:          "org.mediascope.catalogs",
		Version:     strings.TrimPrefix(s.version, "v"),
		Name:        "MediaScope",
		Description: "Aggregated movie, series and anime catalogs with cross-source title matching",
		Resources:   []string{"catalog", "meta", "stream"},
		Types:       []string{"movie", "series", "anime"},
		IDPrefixes:  []string{"tt", "tmdb:", "eztv:", "trakt:"},
	}
	for _, v := range catalog.Variants() {
		mc := ManifestCatalog{Type: string(v.Kind), ID: v.ID, Name: v.Name}
		if len(v.Genres) > 0 {
			mc.Extra = append(mc.Extra, ManifestExtra{Name: "genre", Options: v.Genres})
		}
		mc.Extra = append(mc.Extra, ManifestExtra{Name: "skip"})
		m.Catalogs = append(m.Catalogs, mc)
	}
	RenderJSON(w, r, http.StatusOK, m)
}

// catalogHandler serves one catalog page as {"metas": [...]}. Partial source
// failure is reported via header, the page itself still renders.
func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	catalogID := strings.TrimSuffix(r.PathValue("id"), ".json")
	variant, ok := catalog.Lookup(catalogID)
	if !ok {
		RenderError(w, r, fmt.Errorf("unknown catalog %q", catalogID), http.StatusNotFound)
		return
	}
	if reqType := r.PathValue("type"); reqType != string(variant.Kind) {
		RenderError(w, r, fmt.Errorf("catalog %q is not of type %q", catalogID, reqType), http.StatusNotFound)
		return
	}

	filters, err := parseExtra(r.PathValue("extra"))
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	cat, err := s.catalogs.Build(r.Context(), catalogID, filters)
	if err != nil {
		lgr.Printf("[ERROR] catalog %s failed: %v", catalogID, err)
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			RenderError(w, r, err, http.StatusBadGateway)
			return
		}
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	if cat.Degraded {
		w.Header().Set("X-Catalog-Degraded", "true")
	}
	metas := cat.Entries
	if metas == nil {
		metas = []domain.CatalogEntry{}
	}
	RenderJSON(w, r, http.StatusOK, map[string]interface{}{"metas": metas})
}

// metaHandler serves detail metadata as {"meta": {...}}
func (s *Server) metaHandler(w http.ResponseWriter, r *http.Request) {
	kind := domain.Kind(r.PathValue("type"))
	if kind != domain.KindMovie && kind != domain.KindSeries && kind != domain.KindAnime {
		RenderError(w, r, fmt.Errorf("unknown type %q", kind), http.StatusNotFound)
		return
	}

	id := strings.TrimSuffix(r.PathValue("id"), ".json")
	providerID, err := s.resolveProviderID(r, id, kind)
	if err != nil {
		RenderError(w, r, err, http.StatusBadGateway)
		return
	}
	if providerID == "" {
		RenderError(w, r, fmt.Errorf("unknown id %q", id), http.StatusNotFound)
		return
	}

	var meta *domain.Meta
	if kind == domain.KindMovie {
		meta, err = s.meta.MovieMeta(r.Context(), providerID)
	} else {
		meta, err = s.meta.SeriesMeta(r.Context(), providerID)
	}
	if err != nil {
		lgr.Printf("[ERROR] meta lookup for %s failed: %v", id, err)
		RenderError(w, r, err, http.StatusBadGateway)
		return
	}
	meta.Kind = kind

	RenderJSON(w, r, http.StatusOK, map[string]interface{}{"meta": meta})
}

// streamHandler always serves an empty stream list, this addon provides
// catalogs and metadata only
func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, http.StatusOK, map[string]interface{}{"streams": []struct{}{}})
}

// resolveProviderID maps an addon id to the metadata provider's native id.
// Supported schemes are imdb ids (tt...) and provider-qualified ids (tmdb:...).
func (s *Server) resolveProviderID(r *http.Request, id string, kind domain.Kind) (string, error) {
	switch {
	case strings.HasPrefix(id, "tt"):
		return s.meta.FindByIMDB(r.Context(), id, kind)
	case strings.HasPrefix(id, "tmdb:"):
		return strings.TrimPrefix(id, "tmdb:"), nil
	default:
		return "", nil
	}
}

// parseExtra decodes the catalog extra path segment, e.g. "genre=Action&skip=20"
func parseExtra(extra string) (catalog.Filters, error) {
	extra = strings.TrimSuffix(extra, ".json")
	if extra == "" {
		return catalog.Filters{}, nil
	}

	vals, err := url.ParseQuery(extra)
	if err != nil {
		return catalog.Filters{}, fmt.Errorf("bad extra args: %w", err)
	}

	f := catalog.Filters{Genre: vals.Get("genre")}
	if skip := vals.Get("skip"); skip != "" {
		n, convErr := strconv.Atoi(skip)
		if convErr != nil || n < 0 {
			return catalog.Filters{}, fmt.Errorf("bad skip value %q", skip)
		}
		f.Skip = n
	}
	if year := vals.Get("year"); year != "" {
		n, convErr := strconv.Atoi(year)
		if convErr != nil {
			return catalog.Filters{}, fmt.Errorf("bad year value %q", year)
		}
		f.Year = n
	}
	return f, nil
}

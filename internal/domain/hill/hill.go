// Package hill defines the read-only route record the retrieval pipeline
// searches over. Records are loaded once at startup and never mutated.
package hill

// Hill is a named hill route. Numeric attributes use zero as "unset":
// the dataset ingestion process (out of scope here) leaves fields it could
// not extract at zero, and hard numeric filters let unset values pass.
type Hill struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	DistanceKM      float64  `json:"distance_km"`
	TimeHours       float64  `json:"time_h"`
	Grade           int      `json:"grade"` // walkhighlands 1..5
	Bog             int      `json:"bog"`   // 0..5
	Start           string   `json:"start"`
	Terrain         string   `json:"terrain"`
	PublicTransport string   `json:"public_transport"`
	RouteURL        string   `json:"route_url"`
	GPXURL          string   `json:"gpx_url"`
	Keywords        string   `json:"keywords"`
	Tags            []string `json:"tags"`

	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	HasCoords bool    `json:"has_coords"`
}

// HasTag reports whether the record carries the given tag.
func (h *Hill) HasTag(tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

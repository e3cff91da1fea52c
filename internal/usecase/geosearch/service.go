// Package geosearch ranks hills by great-circle distance from a geocoded
// place name. Tag and numeric constraints stay hard filters; tags the user
// mentioned without requiring become soft boosts that break near-ties.
package geosearch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/domain/geo"
	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/search"
	"github.com/hillwalk/munroquery/internal/logger"
	"github.com/hillwalk/munroquery/internal/metrics"
	"github.com/hillwalk/munroquery/internal/usecase/lexical"
)

// Options tunes the location engine.
type Options struct {
	// GeocodeTimeout bounds the geocoder call; a slow lookup degrades to
	// the lexical fallback instead of hanging the request.
	GeocodeTimeout time.Duration
	// NearBandKM is the distance band for soft tag boosting: within this
	// band of the nearest candidate, records matching more include tags
	// sort earlier. Distance dominates outside the band.
	NearBandKM float64
}

// Service is the location-ranked search engine.
type Service struct {
	geocoder Geocoder
	corpus   Corpus
	fallback Lexical
	opts     Options
}

// New creates a location-ranked engine.
func New(geocoder Geocoder, corpus Corpus, fallback Lexical, opts Options) *Service {
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = 6 * time.Second
	}
	if opts.NearBandKM <= 0 {
		opts.NearBandKM = 5
	}
	return &Service{geocoder: geocoder, corpus: corpus, fallback: fallback, opts: opts}
}

// Search resolves the intent's location and ranks qualifying hills by
// distance ascending. Geocoding failure falls back to the lexical engine
// with the location stripped and the trace marked.
func (s *Service) Search(ctx context.Context, in *intent.Intent) *search.Result {
	log := logger.FromContext(ctx)

	point, err := s.resolve(ctx, in.Location)
	if err != nil {
		reason := "geocoder_error"
		if errors.Is(err, domain.ErrLocationNotFound) {
			reason = "not_found"
		}
		metrics.SearchFallbacksTotal.WithLabelValues(reason).Inc()
		log.Info("location unresolved, falling back to lexical search",
			zap.String("location", in.Location), zap.Error(err))

		stripped := *in
		stripped.Location = ""
		res := s.fallback.Search(ctx, &stripped)
		res.Trace.Fallback = true
		res.Trace.Params["unresolved_location"] = in.Location
		return res
	}

	matches := s.rank(point, in)
	total := len(matches)
	if len(matches) > in.Limit {
		matches = matches[:in.Limit]
	}

	return &search.Result{
		Matches: matches,
		Trace: search.Trace{
			Mode:          search.ModeLocation,
			ExecutedQuery: fmt.Sprintf("location(%q -> %.4f,%.4f, include=%v)", in.Location, point.Lat, point.Lon, in.IncludeTags),
			Params: map[string]any{
				"location":     in.Location,
				"lat":          point.Lat,
				"lon":          point.Lon,
				"include_tags": in.IncludeTags,
				"exclude_tags": in.ExcludeTags,
				"near_band_km": s.opts.NearBandKM,
				"limit":        in.Limit,
				"total":        total,
			},
		},
	}
}

func (s *Service) resolve(ctx context.Context, location string) (geo.Point, error) {
	gctx, cancel := context.WithTimeout(ctx, s.opts.GeocodeTimeout)
	defer cancel()
	return s.geocoder.Geocode(gctx, location)
}

// rank filters hills by the hard constraints — numeric bounds and exclude
// tags — and orders them by distance ascending. Include tags are soft in
// this mode: distance dominates, tag overlap only breaks near-ties.
// Records without coordinates cannot be distance-ranked and are excluded.
func (s *Service) rank(from geo.Point, in *intent.Intent) []search.Match {
	var out []search.Match
	for _, h := range s.corpus.Hills() {
		if !h.HasCoords {
			continue
		}
		if excluded(h.Tags, in.ExcludeTags) || !lexical.PassesBounds(h, in) {
			continue
		}
		out = append(out, search.Match{
			Hill:        h,
			MatchedTags: lexical.MatchedTags(h, in.IncludeTags),
			DistanceKM:  geo.HaversineKM(from.Lat, from.Lon, h.Lat, h.Lon),
		})
	}
	if len(out) == 0 {
		return nil
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKM < out[j].DistanceKM })

	// Soft boost inside the near band: records within NearBandKM of the
	// nearest candidate re-sort by matched-tag count, then distance, then
	// ID. Beyond the band, pure distance order stands.
	nearest := out[0].DistanceKM
	band := 0
	for band < len(out) && out[band].DistanceKM <= nearest+s.opts.NearBandKM {
		band++
	}
	sort.Slice(out[:band], func(i, j int) bool {
		a, b := out[i], out[j]
		if len(a.MatchedTags) != len(b.MatchedTags) {
			return len(a.MatchedTags) > len(b.MatchedTags)
		}
		if a.DistanceKM != b.DistanceKM {
			return a.DistanceKM < b.DistanceKM
		}
		return a.Hill.ID < b.Hill.ID
	})

	return out
}

func excluded(tags, excludes []string) bool {
	for _, e := range excludes {
		for _, t := range tags {
			if t == e {
				return true
			}
		}
	}
	return false
}

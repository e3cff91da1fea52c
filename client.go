// Package munroquery embeds the hill route retrieval pipeline as an
// in-process library: load a corpus and a tag ontology from files, then
// answer free-text or structured route requests without running the HTTP
// server. The deterministic pipeline works with no external services;
// a geocoder and chat models plug in through options.
package munroquery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/corpus"
	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/domain/geo"
	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/tag"
	"github.com/hillwalk/munroquery/internal/logger"
	"github.com/hillwalk/munroquery/internal/usecase/assist"
	"github.com/hillwalk/munroquery/internal/usecase/compose"
	"github.com/hillwalk/munroquery/internal/usecase/extract"
	"github.com/hillwalk/munroquery/internal/usecase/geosearch"
	hillsuc "github.com/hillwalk/munroquery/internal/usecase/hills"
	"github.com/hillwalk/munroquery/internal/usecase/lexical"
	"github.com/hillwalk/munroquery/internal/usecase/route"
)

// ErrRouteNotFound is returned by Route for an unknown ID.
var ErrRouteNotFound = errors.New("munroquery: route not found")

// Client is the embedded pipeline entry point.
type Client struct {
	ontology *tag.Ontology
	assist   *assist.Service
	hills    *hillsuc.Service

	defaultLimit  int
	maxLimit      int
	tagFloodRatio float64
	logger        *zap.Logger
}

// New loads the corpus and ontology and wires the pipeline.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		datasetPath:     filepath.Join("data", "hills.json"),
		ontologyPath:    filepath.Join("config", "tags.yaml"),
		defaultLimit:    8,
		maxLimit:        20,
		permissiveRatio: 0.8,
		tagFloodRatio:   0.7,
		nearBandKM:      5,
		modelTimeout:    12 * time.Second,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	ontology, err := tag.Load(cfg.ontologyPath)
	if err != nil {
		return nil, fmt.Errorf("munroquery: load ontology: %w", err)
	}
	corp, err := corpus.Load(cfg.datasetPath, ontology)
	if err != nil {
		return nil, fmt.Errorf("munroquery: load corpus: %w", err)
	}

	// Embedded use carries no server-side index; the in-process index
	// serves the full-text tier.
	lexEngine := lexical.New(corp, nil, cfg.permissiveRatio)

	// Without a geocoder, location-anchored requests run through the
	// lexical engine directly.
	locEngine := route.Engine(lexEngine)
	if cfg.geocoder != nil {
		locEngine = geosearch.New(&geocoderAdapter{inner: cfg.geocoder}, corp, lexEngine, geosearch.Options{
			NearBandKM: cfg.nearBandKM,
		})
	}
	router := route.New(lexEngine, locEngine)

	var im extract.IntentModel
	if cfg.intentModel != nil {
		im = &intentModelAdapter{inner: cfg.intentModel}
	}
	extractor := extract.New(im, ontology, extract.Options{
		ModelTimeout:  cfg.modelTimeout,
		TagFloodRatio: cfg.tagFloodRatio,
		DefaultLimit:  cfg.defaultLimit,
		MaxLimit:      cfg.maxLimit,
	})

	var am compose.AnswerModel
	if cfg.answerModel != nil {
		am = answerModelAdapter{inner: cfg.answerModel}
	}
	composer := compose.New(am, corp, compose.Options{ModelTimeout: cfg.modelTimeout})

	return &Client{
		ontology:      ontology,
		assist:        assist.New(extractor, router, composer),
		hills:         hillsuc.New(corp),
		defaultLimit:  cfg.defaultLimit,
		maxLimit:      cfg.maxLimit,
		tagFloodRatio: cfg.tagFloodRatio,
		logger:        cfg.logger,
	}, nil
}

// Query is a structured route request. Nil numeric pointers mean "no
// bound"; a zero Limit takes the default.
type Query struct {
	Query         string
	IncludeTags   []string
	ExcludeTags   []string
	BogMax        *int
	GradeMax      *int
	GradeMin      *int
	DistanceMinKM *float64
	DistanceMaxKM *float64
	TimeMinH      *float64
	TimeMaxH      *float64
	Location      string
	Limit         int
}

// RouteRef is a lightweight link to a matched route.
type RouteRef struct {
	ID   int64
	Name string
	Tags []string
}

// Result is a ranked candidate with its ranking signals.
type Result struct {
	ID         int64
	Name       string
	Tags       []string
	Summary    string
	Score      float64
	DistanceKM float64
}

// Answer is the outcome of a request: the text, the matched routes, and
// how the pipeline got there.
type Answer struct {
	Text     string
	Routes   []RouteRef
	Results  []Result
	Mode     string
	Fallback bool
	Warnings []string
}

// Ask answers a free-text route request.
func (c *Client) Ask(ctx context.Context, message string) (*Answer, error) {
	if message == "" {
		return nil, errors.New("munroquery: message is required")
	}
	resp := c.assist.Chat(c.requestCtx(ctx), message, 0)
	return answerFromResponse(resp), nil
}

// Search answers a structured route request with a deterministic
// template answer.
func (c *Client) Search(ctx context.Context, q Query) (*Answer, error) {
	in := &intent.Intent{
		Query:         q.Query,
		IncludeTags:   q.IncludeTags,
		ExcludeTags:   q.ExcludeTags,
		BogMax:        q.BogMax,
		GradeMax:      q.GradeMax,
		GradeMin:      q.GradeMin,
		DistanceMinKM: q.DistanceMinKM,
		DistanceMaxKM: q.DistanceMaxKM,
		TimeMinH:      q.TimeMinH,
		TimeMaxH:      q.TimeMaxH,
		Location:      q.Location,
		Limit:         q.Limit,
	}
	in.Normalize(c.ontology, c.tagFloodRatio, c.defaultLimit, c.maxLimit)

	resp := c.assist.Query(c.requestCtx(ctx), in)
	return answerFromResponse(resp), nil
}

// Route is a hill route record.
type Route struct {
	ID              int64
	Name            string
	Slug            string
	Summary         string
	Description     string
	DistanceKM      float64
	TimeHours       float64
	Grade           int
	Bog             int
	Start           string
	Terrain         string
	PublicTransport string
	RouteURL        string
	GPXURL          string
	Tags            []string
	Lat             float64
	Lon             float64
	HasCoords       bool
}

// Routes returns every route in the corpus, ordered by ID.
func (c *Client) Routes(ctx context.Context) []Route {
	items := c.hills.List(ctx, hillsuc.Filter{})
	out := make([]Route, len(items))
	for i, h := range items {
		out[i] = routeFromHill(h)
	}
	return out
}

// Route returns a single route by ID.
func (c *Client) Route(ctx context.Context, id int64) (Route, error) {
	h, err := c.hills.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrHillNotFound) {
			return Route{}, fmt.Errorf("route %d: %w", id, ErrRouteNotFound)
		}
		return Route{}, err
	}
	return routeFromHill(h), nil
}

// TagCount is a tag with its usage count across the corpus.
type TagCount struct {
	Tag   string
	Count int
}

// Tags returns tag usage across the corpus, most used first.
func (c *Client) Tags(ctx context.Context) []TagCount {
	counts := c.hills.TagCounts(ctx)
	out := make([]TagCount, len(counts))
	for i, tc := range counts {
		out[i] = TagCount{Tag: tc.Tag, Count: tc.Count}
	}
	return out
}

func (c *Client) requestCtx(ctx context.Context) context.Context {
	if c.logger == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, c.logger)
}

func answerFromResponse(resp *compose.Response) *Answer {
	a := &Answer{
		Text:     resp.Answer,
		Mode:     string(resp.Steps.Mode),
		Fallback: resp.Steps.Fallback,
	}
	if resp.Steps.Intent != nil {
		a.Warnings = resp.Steps.Intent.Warnings
	}
	for _, r := range resp.Routes {
		a.Routes = append(a.Routes, RouteRef{ID: r.ID, Name: r.Name, Tags: r.Tags})
	}
	for _, r := range resp.Steps.Results {
		a.Results = append(a.Results, Result{
			ID:         r.ID,
			Name:       r.Name,
			Tags:       r.Tags,
			Summary:    r.Summary,
			Score:      r.Score,
			DistanceKM: r.DistanceKM,
		})
	}
	return a
}

func routeFromHill(h *hill.Hill) Route {
	return Route{
		ID:              h.ID,
		Name:            h.Name,
		Slug:            h.Slug,
		Summary:         h.Summary,
		Description:     h.Description,
		DistanceKM:      h.DistanceKM,
		TimeHours:       h.TimeHours,
		Grade:           h.Grade,
		Bog:             h.Bog,
		Start:           h.Start,
		Terrain:         h.Terrain,
		PublicTransport: h.PublicTransport,
		RouteURL:        h.RouteURL,
		GPXURL:          h.GPXURL,
		Tags:            h.Tags,
		Lat:             h.Lat,
		Lon:             h.Lon,
		HasCoords:       h.HasCoords,
	}
}

// geocoderAdapter wraps the public Geocoder to satisfy geosearch.Geocoder.
type geocoderAdapter struct {
	inner Geocoder
}

func (a *geocoderAdapter) Geocode(ctx context.Context, location string) (geo.Point, error) {
	lat, lon, err := a.inner.Geocode(ctx, location)
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode: %w", err)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}

// intentModelAdapter wraps the public IntentModel to satisfy extract.IntentModel.
type intentModelAdapter struct {
	inner IntentModel
}

func (a *intentModelAdapter) ParseIntent(
	ctx context.Context, message string, allowedTags []string,
) (extract.ModelIntent, error) {
	mi, err := a.inner.ParseIntent(ctx, message, allowedTags)
	if err != nil {
		return extract.ModelIntent{}, fmt.Errorf("parse intent: %w", err)
	}
	return extract.ModelIntent{
		Query:       mi.Query,
		IncludeTags: mi.IncludeTags,
		ExcludeTags: mi.ExcludeTags,
		BogMax:      mi.BogMax,
		GradeMax:    mi.GradeMax,
		Location:    mi.Location,
	}, nil
}

// answerModelAdapter wraps the public AnswerModel to satisfy compose.AnswerModel.
type answerModelAdapter struct {
	inner AnswerModel
}

func (a answerModelAdapter) Answer(ctx context.Context, userMsg, candidateContext string) (string, error) {
	return a.inner.Answer(ctx, userMsg, candidateContext)
}

func (a answerModelAdapter) PickRoutes(ctx context.Context, userMsg, routeList string) ([]string, error) {
	return a.inner.PickRoutes(ctx, userMsg, routeList)
}

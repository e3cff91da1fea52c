package munroquery

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	datasetPath  string
	ontologyPath string

	geocoder    Geocoder
	intentModel IntentModel
	answerModel AnswerModel

	defaultLimit    int
	maxLimit        int
	permissiveRatio float64
	tagFloodRatio   float64
	nearBandKM      float64
	modelTimeout    time.Duration

	logger *zap.Logger
}

// Geocoder resolves a place name to WGS84 coordinates. Optional: without
// one, requests anchored to a place fall back to the lexical engine.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (lat, lon float64, err error)
}

// ModelIntent is what an IntentModel extracts from a message. Nil numeric
// pointers mean the model saw no bound.
type ModelIntent struct {
	Query       string
	IncludeTags []string
	ExcludeTags []string
	BogMax      *int
	GradeMax    *int
	Location    string
}

// IntentModel parses free text into a structured intent. Optional: without
// one, the deterministic passes build every intent.
type IntentModel interface {
	ParseIntent(ctx context.Context, message string, allowedTags []string) (ModelIntent, error)
}

// AnswerModel writes the natural-language answer and picks routes from a
// compact corpus listing when retrieval found nothing. Optional: without
// one, answers come from the deterministic template.
type AnswerModel interface {
	Answer(ctx context.Context, userMsg, candidateContext string) (string, error)
	PickRoutes(ctx context.Context, userMsg, routeList string) ([]string, error)
}

// WithDataset sets the hill corpus JSON path. Default: data/hills.json.
func WithDataset(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.datasetPath = path
	})
}

// WithOntology sets the tag ontology YAML path. Default: config/tags.yaml.
func WithOntology(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.ontologyPath = path
	})
}

// WithGeocoder enables location-ranked search.
func WithGeocoder(g Geocoder) Option {
	return optionFunc(func(c *clientConfig) {
		c.geocoder = g
	})
}

// WithIntentModel enables model-assisted intent extraction.
func WithIntentModel(m IntentModel) Option {
	return optionFunc(func(c *clientConfig) {
		c.intentModel = m
	})
}

// WithAnswerModel enables model-written answers on the chat path.
func WithAnswerModel(m AnswerModel) Option {
	return optionFunc(func(c *clientConfig) {
		c.answerModel = m
	})
}

// WithLimits sets the default and maximum result counts.
// Defaults: 8 and 20.
func WithLimits(defaultLimit, maxLimit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultLimit = defaultLimit
		c.maxLimit = maxLimit
	})
}

// WithPermissiveRatio sets the fraction of the corpus a free-text tier may
// return before it is considered noise. Default: 0.8.
func WithPermissiveRatio(ratio float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.permissiveRatio = ratio
	})
}

// WithNearBandKM sets the distance band for tag boosting in
// location-ranked results. Default: 5.
func WithNearBandKM(km float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.nearBandKM = km
	})
}

// WithModelTimeout bounds each model call. Default: 12s.
func WithModelTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.modelTimeout = d
	})
}

// WithLogger enables structured logging for pipeline operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

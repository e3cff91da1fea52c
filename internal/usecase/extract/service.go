// Package extract turns a free-text route request into a structured,
// validated intent. A language-model proposal is blended with deterministic
// passes (location heuristic, numeric-phrase parser, tag keywords); the
// deterministic passes win wherever both produce a value.
package extract

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/tag"
	"github.com/hillwalk/munroquery/internal/logger"
	"github.com/hillwalk/munroquery/internal/metrics"
)

// Options tunes the extractor.
type Options struct {
	ModelTimeout  time.Duration
	TagFloodRatio float64
	DefaultLimit  int
	MaxLimit      int
}

// Service is the intent extractor.
type Service struct {
	model IntentModel // nil disables the model path entirely
	ont   *tag.Ontology
	opts  Options
}

// New creates an intent extractor. model may be nil, in which case every
// intent is built from the deterministic passes alone.
func New(model IntentModel, ont *tag.Ontology, opts Options) *Service {
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = 12 * time.Second
	}
	if opts.TagFloodRatio <= 0 {
		opts.TagFloodRatio = 0.7
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 8
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 20
	}
	return &Service{model: model, ont: ont, opts: opts}
}

// Extract builds a validated intent from a free-text message. Never returns
// an error: a model failure degrades to the deterministic-only path, which
// always succeeds.
func (s *Service) Extract(ctx context.Context, message string, limit int) *intent.Intent {
	log := logger.FromContext(ctx)
	message = strings.TrimSpace(message)

	in := &intent.Intent{Limit: limit}

	if proposal, ok := s.askModel(ctx, message); ok {
		in.Query = strings.TrimSpace(proposal.Query)
		in.IncludeTags = proposal.IncludeTags
		in.ExcludeTags = proposal.ExcludeTags
		in.BogMax = proposal.BogMax
		in.GradeMax = proposal.GradeMax
		in.Location = strings.TrimSpace(proposal.Location)
		in.ModelUsed = true
	}
	if in.Query == "" {
		in.Query = message
	}

	// Location heuristic: a phrase the user literally typed beats a model
	// guess, and recovers locations the model missed.
	if loc := ParseLocation(message); loc != "" {
		in.Location = loc
	}

	// Numeric phrases: deterministic parses are less prone to
	// hallucination, so they override model numerics per dimension.
	b := ParseBounds(message)
	if b.DistanceMinKM != nil {
		in.DistanceMinKM = b.DistanceMinKM
	}
	if b.DistanceMaxKM != nil {
		in.DistanceMaxKM = b.DistanceMaxKM
	}
	if b.TimeMinH != nil {
		in.TimeMinH = b.TimeMinH
	}
	if b.TimeMaxH != nil {
		in.TimeMaxH = b.TimeMaxH
	}
	if b.GradeMin != nil {
		in.GradeMin = b.GradeMin
	}
	if b.GradeMax != nil {
		in.GradeMax = b.GradeMax
	}

	// Tag keywords present in the message merge into the include set.
	in.IncludeTags = append(in.IncludeTags, MatchTags(message, s.ont)...)

	in.Normalize(s.ont, s.opts.TagFloodRatio, s.opts.DefaultLimit, s.opts.MaxLimit)

	for _, w := range in.Warnings {
		log.Warn("intent sanitation", zap.String("warning", w))
	}
	log.Debug("intent extracted",
		zap.Bool("model_used", in.ModelUsed),
		zap.Strings("include_tags", in.IncludeTags),
		zap.String("location", in.Location),
	)

	return in
}

// askModel runs the structured-output model call under its own timeout.
// Returns ok=false when the model is absent, errors, or times out.
func (s *Service) askModel(ctx context.Context, message string) (ModelIntent, bool) {
	if s.model == nil {
		return ModelIntent{}, false
	}

	mctx, cancel := context.WithTimeout(ctx, s.opts.ModelTimeout)
	defer cancel()

	start := time.Now()
	proposal, err := s.model.ParseIntent(mctx, message, s.ont.Tags())
	metrics.ModelCallDuration.WithLabelValues("intent").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ModelCallsTotal.WithLabelValues("intent", "error").Inc()
		logger.FromContext(ctx).Warn("intent model failed, using deterministic fallback", zap.Error(err))
		return ModelIntent{}, false
	}
	metrics.ModelCallsTotal.WithLabelValues("intent", "success").Inc()
	return proposal, true
}

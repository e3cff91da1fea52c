// Package compose builds the uniform response returned to callers: a short
// natural-language answer, lightweight route links, and the full
// explainability trace.
package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/search"
	"github.com/hillwalk/munroquery/internal/domain/text"
	"github.com/hillwalk/munroquery/internal/logger"
	"github.com/hillwalk/munroquery/internal/metrics"
)

// Response is the uniform payload of both the chat and structured search
// endpoints.
type Response struct {
	Answer string      `json:"answer"`
	Routes []RouteLink `json:"routes"`
	Steps  Steps       `json:"steps"`
}

// RouteLink is a follow-up affordance the caller can offer.
type RouteLink struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Steps is the transparency payload; always present in a response.
type Steps struct {
	Intent        *intent.Intent `json:"intent"`
	Mode          search.Mode    `json:"mode"`
	Fallback      bool           `json:"fallback"`
	ExecutedQuery string         `json:"executed_query"`
	Params        map[string]any `json:"params"`
	Results       []Candidate    `json:"results"`
}

// Candidate is a top result with enough detail to explain the ranking.
type Candidate struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Tags       []string `json:"tags"`
	Summary    string   `json:"summary"`
	Snippet    string   `json:"snippet,omitempty"`
	Score      float64  `json:"score,omitempty"`
	DistanceKM float64  `json:"distance_km,omitempty"`
}

const (
	snippetLen       = 400
	contextSummLen   = 220
	contextLineCount = 8

	// broadListCount caps the compact corpus listing offered to the model
	// when every retrieval tier came back empty; broadPickMax caps how
	// many of its picks are honored.
	broadListCount = 120
	broadPickMax   = 6
)

// Options tunes the composer.
type Options struct {
	ModelTimeout time.Duration
}

// Service is the response composer.
type Service struct {
	model AnswerModel // nil disables model synthesis
	cat   Catalogue   // nil disables the broad model fallback
	opts  Options
}

// New creates a composer. model and cat may be nil.
func New(model AnswerModel, cat Catalogue, opts Options) *Service {
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = 12 * time.Second
	}
	return &Service{model: model, cat: cat, opts: opts}
}

// Compose builds the response. useModel selects model-written answers (the
// chat endpoint); the structured endpoint always takes the template path.
// On the chat path an empty retrieval result gets one more chance: the
// model picks routes off a compact corpus listing. Either way the answer
// degrades to the template when the model is unavailable, and Steps is
// always populated.
func (s *Service) Compose(ctx context.Context, userMsg string, in *intent.Intent, res *search.Result, useModel bool) *Response {
	candidates := candidatesFrom(res)
	mode := res.Trace.Mode

	if useModel && s.model != nil && s.cat != nil && len(candidates) == 0 {
		if picked := s.broadPick(ctx, userMsg, in.Limit); len(picked) > 0 {
			candidates = picked
			mode = search.ModeBroad
		}
	}

	answer := ""
	if useModel && s.model != nil && len(candidates) > 0 {
		answer = s.askModel(ctx, userMsg, candidates)
	}
	if answer == "" {
		answer = templateAnswer(in, res, candidates)
	}

	routes := make([]RouteLink, len(candidates))
	for i, c := range candidates {
		routes[i] = RouteLink{ID: c.ID, Name: c.Name, Tags: c.Tags}
	}

	return &Response{
		Answer: answer,
		Routes: routes,
		Steps: Steps{
			Intent:        in,
			Mode:          mode,
			Fallback:      res.Trace.Fallback,
			ExecutedQuery: res.Trace.ExecutedQuery,
			Params:        res.Trace.Params,
			Results:       candidates,
		},
	}
}

func candidatesFrom(res *search.Result) []Candidate {
	out := make([]Candidate, 0, len(res.Matches))
	for _, m := range res.Matches {
		out = append(out, Candidate{
			ID:         m.Hill.ID,
			Name:       m.Hill.Name,
			Tags:       m.Hill.Tags,
			Summary:    m.Hill.Summary,
			Snippet:    truncate(m.Hill.Description, snippetLen),
			Score:      m.Score,
			DistanceKM: m.DistanceKM,
		})
	}
	return out
}

// broadPick asks the model to choose routes from a compact corpus listing.
// Picked names map back to records by exact name, folded name, then folded
// substring; unmatched picks are dropped. Returns nil on any failure.
func (s *Service) broadPick(ctx context.Context, userMsg string, limit int) []Candidate {
	hills := s.cat.Hills()

	mctx, cancel := context.WithTimeout(ctx, s.opts.ModelTimeout)
	defer cancel()

	start := time.Now()
	names, err := s.model.PickRoutes(mctx, userMsg, routeLines(hills))
	metrics.ModelCallDuration.WithLabelValues("broad").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ModelCallsTotal.WithLabelValues("broad", "error").Inc()
		logger.FromContext(ctx).Warn("broad route pick failed", zap.Error(err))
		return nil
	}
	metrics.ModelCallsTotal.WithLabelValues("broad", "success").Inc()

	if len(names) > broadPickMax {
		names = names[:broadPickMax]
	}

	byName := make(map[string]*hill.Hill, len(hills))
	byFolded := make(map[string]*hill.Hill, len(hills))
	for _, h := range hills {
		byName[h.Name] = h
		byFolded[text.Fold(h.Name)] = h
	}

	var out []Candidate
	seen := make(map[int64]struct{})
	for _, name := range names {
		h, ok := byName[name]
		if !ok {
			h, ok = byFolded[text.Fold(name)]
		}
		if !ok {
			h = matchSubstring(hills, name)
		}
		if h == nil {
			continue
		}
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}
		out = append(out, Candidate{
			ID:      h.ID,
			Name:    h.Name,
			Tags:    h.Tags,
			Summary: h.Summary,
			Snippet: truncate(h.Description, snippetLen),
		})
		if len(out) == limit {
			break
		}
	}
	return out
}

func matchSubstring(hills []*hill.Hill, name string) *hill.Hill {
	folded := text.Fold(name)
	if folded == "" {
		return nil
	}
	for _, h := range hills {
		if strings.Contains(text.Fold(h.Name), folded) {
			return h
		}
	}
	return nil
}

// routeLines renders the compact corpus listing the model picks from, one
// line per route, capped at broadListCount.
func routeLines(hills []*hill.Hill) string {
	var b strings.Builder
	for i, h := range hills {
		if i == broadListCount {
			break
		}
		fmt.Fprintf(&b, "- %s | tags: %s | terrain: %s | transport: %s | start: %s | %s\n",
			h.Name, strings.Join(h.Tags, ", "), h.Terrain, h.PublicTransport, h.Start,
			ellipsize(h.Summary, contextSummLen))
	}
	return b.String()
}

// askModel requests a model-written answer under its own timeout; returns
// "" on any failure so the caller falls through to the template.
func (s *Service) askModel(ctx context.Context, userMsg string, candidates []Candidate) string {
	mctx, cancel := context.WithTimeout(ctx, s.opts.ModelTimeout)
	defer cancel()

	start := time.Now()
	answer, err := s.model.Answer(mctx, userMsg, contextLines(candidates))
	metrics.ModelCallDuration.WithLabelValues("answer").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ModelCallsTotal.WithLabelValues("answer", "error").Inc()
		logger.FromContext(ctx).Warn("answer model failed, using template", zap.Error(err))
		return ""
	}
	metrics.ModelCallsTotal.WithLabelValues("answer", "success").Inc()
	return strings.TrimSpace(answer)
}

// contextLines renders candidates for the synthesis prompt, one compact
// line per route.
func contextLines(candidates []Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		if i == contextLineCount {
			break
		}
		fmt.Fprintf(&b, "- %s | tags: %s", c.Name, strings.Join(c.Tags, ", "))
		if c.DistanceKM > 0 {
			fmt.Fprintf(&b, " | %.1f km away", c.DistanceKM)
		}
		fmt.Fprintf(&b, " | %s\n", ellipsize(c.Summary, contextSummLen))
	}
	return b.String()
}

// truncate shortens s to at most n runes, never splitting a rune.
func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}

// ellipsize truncates like truncate and marks the cut.
func ellipsize(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "…"
}

// templateAnswer is the deterministic summary used when the model is
// unavailable or not wanted.
func templateAnswer(in *intent.Intent, res *search.Result, candidates []Candidate) string {
	if len(candidates) == 0 {
		msg := "No routes matched your request."
		if len(in.IncludeTags) > 0 || hasBounds(in) {
			msg += " Try relaxing the numeric limits or dropping a tag or two."
		}
		if res.Trace.Fallback {
			msg += fmt.Sprintf(" (The location %q could not be resolved, so only text and tag matching was used.)", in.Location)
		}
		return msg
	}

	names := make([]string, 0, 3)
	for i, c := range candidates {
		if i == 3 {
			break
		}
		names = append(names, c.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching route", len(candidates))
	if len(candidates) != 1 {
		b.WriteString("s")
	}
	if res.Trace.Mode == search.ModeLocation && in.Location != "" {
		fmt.Fprintf(&b, " near %s, closest first", in.Location)
	}
	fmt.Fprintf(&b, ". Top picks: %s.", strings.Join(names, ", "))
	if len(in.IncludeTags) > 0 {
		fmt.Fprintf(&b, " Matched on: %s.", strings.Join(in.IncludeTags, ", "))
	}
	if res.Trace.Fallback {
		fmt.Fprintf(&b, " (Could not resolve %q, results are text/tag matches instead.)", in.Location)
	}
	return b.String()
}

func hasBounds(in *intent.Intent) bool {
	return in.BogMax != nil || in.GradeMax != nil || in.GradeMin != nil ||
		in.DistanceMinKM != nil || in.DistanceMaxKM != nil ||
		in.TimeMinH != nil || in.TimeMaxH != nil
}

// Package chi implements the HTTP API on the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/domain/hill"
	"github.com/hillwalk/munroquery/internal/domain/intent"
	"github.com/hillwalk/munroquery/internal/domain/tag"
	"github.com/hillwalk/munroquery/internal/usecase/assist"
	"github.com/hillwalk/munroquery/internal/usecase/extract"
	healthuc "github.com/hillwalk/munroquery/internal/usecase/health"
	hillsuc "github.com/hillwalk/munroquery/internal/usecase/hills"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeHillNotFound     = "hill_not_found"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Limits are the request-shaping bounds applied at the HTTP edge.
type Limits struct {
	MaxMessageLen int
	DefaultLimit  int
	MaxLimit      int
	TagFloodRatio float64
}

// Server exposes the chat pipeline and the catalogue over HTTP.
type Server struct {
	assist        *assist.Service
	hills         *hillsuc.Service
	health        *healthuc.Service
	ontology      *tag.Ontology
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	assistSvc *assist.Service,
	hillsSvc *hillsuc.Service,
	healthSvc *healthuc.Service,
	ontology *tag.Ontology,
	limits Limits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		assist:   assistSvc,
		hills:    hillsSvc,
		health:   healthSvc,
		ontology: ontology,
		limits:   limits,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrHillNotFound, http.StatusNotFound, codeHillNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Post("/chat", s.Chat)
	r.Post("/search", s.SearchRoutes)
	r.Get("/hills", s.ListHills)
	r.Get("/hills/{id}", s.GetHill)
	r.Get("/tags", s.Tags)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type chatRequest struct {
	Message string `json:"message"`
	Limit   int    `json:"limit"`
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Message is required")
		return
	}
	if len(msg) > s.limits.MaxMessageLen {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("Message exceeds %d characters", s.limits.MaxMessageLen))
		return
	}

	resp := s.assist.Chat(r.Context(), msg, req.Limit)
	writeJSON(w, http.StatusOK, resp)
}

// searchRequest is the structured filter endpoint body. GradeMax is
// tolerant and accepts a number or a difficulty word.
type searchRequest struct {
	Query         string          `json:"query"`
	IncludeTags   []string        `json:"include_tags"`
	ExcludeTags   []string        `json:"exclude_tags"`
	BogMax        *int            `json:"bog_max"`
	GradeMax      json.RawMessage `json:"grade_max"`
	GradeMin      *int            `json:"grade_min"`
	DistanceMinKM *float64        `json:"distance_min_km"`
	DistanceMaxKM *float64        `json:"distance_max_km"`
	TimeMinH      *float64        `json:"time_min_h"`
	TimeMaxH      *float64        `json:"time_max_h"`
	Location      string          `json:"location"`
	Limit         int             `json:"limit"`
}

// SearchRoutes handles POST /search. The answer on this path is always the
// deterministic template; no model call is made.
func (s *Server) SearchRoutes(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	gradeMax, err := decodeGrade(req.GradeMax)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	in := &intent.Intent{
		Query:         strings.TrimSpace(req.Query),
		IncludeTags:   req.IncludeTags,
		ExcludeTags:   req.ExcludeTags,
		BogMax:        req.BogMax,
		GradeMax:      gradeMax,
		GradeMin:      req.GradeMin,
		DistanceMinKM: req.DistanceMinKM,
		DistanceMaxKM: req.DistanceMaxKM,
		TimeMinH:      req.TimeMinH,
		TimeMaxH:      req.TimeMaxH,
		Location:      strings.TrimSpace(req.Location),
		Limit:         req.Limit,
	}
	in.Normalize(s.ontology, s.limits.TagFloodRatio, s.limits.DefaultLimit, s.limits.MaxLimit)

	resp := s.assist.Query(r.Context(), in)
	writeJSON(w, http.StatusOK, resp)
}

// ListHills handles GET /hills.
func (s *Server) ListHills(w http.ResponseWriter, r *http.Request) {
	var f hillsuc.Filter
	q := r.URL.Query()

	var err error
	if f.Grade, err = intParam(q.Get("grade")); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid grade: "+q.Get("grade"))
		return
	}
	if f.BogMax, err = intParam(q.Get("bog_max")); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid bog_max: "+q.Get("bog_max"))
		return
	}
	f.Search = q.Get("search")
	if raw := q.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid id: "+raw)
			return
		}
		f.ID = &id
	}

	items := s.hills.List(r.Context(), f)
	if items == nil {
		items = []*hill.Hill{}
	}
	writeJSON(w, http.StatusOK, hillListResponse{Items: items, Total: len(items)})
}

type hillListResponse struct {
	Items []*hill.Hill `json:"items"`
	Total int          `json:"total"`
}

// GetHill handles GET /hills/{id}.
func (s *Server) GetHill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid id: "+chi.URLParam(r, "id"))
		return
	}

	h, err := s.hills.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h)
}

type tagsResponse struct {
	Version    int                 `json:"version"`
	Categories map[string][]string `json:"categories"`
	Counts     []tagCount          `json:"counts"`
}

type tagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Tags handles GET /tags: the ontology plus per-tag usage counts.
func (s *Server) Tags(w http.ResponseWriter, r *http.Request) {
	counts := s.hills.TagCounts(r.Context())
	out := make([]tagCount, len(counts))
	for i, c := range counts {
		out[i] = tagCount{Tag: c.Tag, Count: c.Count}
	}

	writeJSON(w, http.StatusOK, tagsResponse{
		Version:    s.ontology.Version(),
		Categories: s.ontology.Categories(),
		Counts:     out,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"routes": report.Routes,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeGrade accepts a number or a difficulty word (easy, moderate, hard,
// serious).
func decodeGrade(raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 1 || n > 5 {
			return nil, fmt.Errorf("grade_max must be between 1 and 5, got %d", n)
		}
		g, _ := extract.GradeFromWord(strconv.Itoa(n))
		return &g, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if g, ok := extract.GradeFromWord(s); ok {
			return &g, nil
		}
		return nil, fmt.Errorf("unknown grade_max %q", s)
	}
	return nil, errors.New("grade_max must be a number or a difficulty word")
}

func intParam(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrHillNotFound,
		domain.ErrInvalidRequest,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

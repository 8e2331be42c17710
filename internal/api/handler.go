// Package api serves the APS and NSC engines over HTTP.
//
// Every endpoint is a pure computation over the request body or a read of the
// catalog; subject names and marks a client sends are never stored. Scoring,
// validation and pass endpoints ignore rows without a name or a mark.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/p-n-ai/pai-aps/internal/advisor"
	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/nsc"
)

const maxBodyBytes = 1 << 20

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// HandlerConfig holds dependencies for the HTTP handler.
type HandlerConfig struct {
	Engine      *advisor.Engine
	Limiter     Limiter            // nil disables rate limiting
	CORSOrigins []string           // default: any origin
	Readiness   map[string]Checker // checked by GET /readyz
}

// Handler routes API requests.
type Handler struct {
	engine    *advisor.Engine
	limiter   Limiter
	origins   []string
	readiness map[string]Checker
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	engine := cfg.Engine
	if engine == nil {
		engine = advisor.NewEngine(advisor.EngineConfig{})
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Handler{
		engine:    engine,
		limiter:   cfg.Limiter,
		origins:   origins,
		readiness: cfg.Readiness,
	}
}

// Routes returns the full middleware-wrapped router.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /readyz", h.handleReadyz)

	mux.HandleFunc("GET /v1/strategies", h.handleStrategies)
	mux.HandleFunc("GET /v1/institutions", h.handleInstitutions)
	mux.HandleFunc("GET /v1/institutions/{id}", h.handleInstitution)
	mux.HandleFunc("POST /v1/aps", h.handleAPS)
	mux.HandleFunc("POST /v1/courses", h.handleCourses)
	mux.HandleFunc("POST /v1/evaluate", h.handleEvaluate)
	mux.HandleFunc("POST /v1/nsc/validate", h.handleValidate)
	mux.HandleFunc("POST /v1/nsc/qualification", h.handleQualification)
	mux.HandleFunc("POST /v1/nsc/availability", h.handleAvailability)
	mux.HandleFunc("GET /v1/nsc/live", h.handleLive)

	var handler http.Handler = mux
	handler = h.rateLimit(handler)
	handler = logRequests(handler)
	handler = requestID(handler)
	handler = corsHandler(h.origins)(handler)
	return handler
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for name, check := range h.readiness {
		if err := check(r.Context()); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": h.engine.Registry().Strategies()})
}

func (h *Handler) handleInstitutions(w http.ResponseWriter, r *http.Request) {
	insts, err := h.engine.Catalog().AllInstitutions(r.Context())
	if err != nil {
		slog.Error("listing institutions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	fp, err := catalog.Fingerprint(insts)
	if err != nil {
		slog.Error("fingerprinting catalog failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	etag := `"` + fp + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	summaries := make([]catalog.Summary, len(insts))
	for i, inst := range insts {
		summaries[i] = inst.Summarize()
	}
	writeJSON(w, http.StatusOK, map[string]any{"institutions": summaries})
}

func (h *Handler) handleInstitution(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	inst, err := h.engine.Catalog().GetInstitution(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("institution %q not found", id))
		return
	}
	if err != nil {
		slog.Error("loading institution failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

type subjectsRequest struct {
	Subjects []nsc.Subject `json:"subjects"`
}

type apsRequest struct {
	Subjects      []nsc.Subject `json:"subjects"`
	InstitutionID string        `json:"institution_id"`
}

type apsResponse struct {
	InstitutionID string        `json:"institution_id"`
	APS           float64       `json:"aps"`
	Method        string        `json:"method"`
	Breakdown     []string      `json:"breakdown"`
	Eligible      []nsc.Subject `json:"eligible_subjects"`
}

func (h *Handler) handleAPS(w http.ResponseWriter, r *http.Request) {
	var req apsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.engine.Score(r.Context(), req.Subjects, req.InstitutionID)
	if err != nil {
		slog.Error("scoring failed", "institution_id", req.InstitutionID, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, apsResponse{
		InstitutionID: req.InstitutionID,
		APS:           result.APS,
		Method:        result.Method,
		Breakdown:     result.Breakdown,
		Eligible:      result.EligibleSubjects,
	})
}

func (h *Handler) handleCourses(w http.ResponseWriter, r *http.Request) {
	var req subjectsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	placements, err := h.engine.FindCourses(r.Context(), req.Subjects)
	if err != nil {
		slog.Error("finding courses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"placements": placements})
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req advisor.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := h.engine.Evaluate(r.Context(), req)
	if err != nil {
		slog.Error("evaluation failed", "institution_id", req.InstitutionID, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req subjectsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, nsc.ValidateSelection(nsc.Entered(req.Subjects)))
}

type qualificationRequest struct {
	Subjects                      []nsc.Subject                      `json:"subjects"`
	LanguageOfLearning            string                             `json:"language_of_learning"`
	DiplomaRequirements           *nsc.DiplomaRequirements           `json:"diploma_requirements,omitempty"`
	HigherCertificateRequirements *nsc.HigherCertificateRequirements `json:"higher_certificate_requirements,omitempty"`
}

type qualificationResponse struct {
	LanguageOfLearning string                 `json:"language_of_learning"`
	Qualification      nsc.QualificationLevel `json:"qualification"`
	Bachelor           bool                   `json:"bachelor"`
	Diploma            bool                   `json:"diploma"`
	HigherCertificate  bool                   `json:"higher_certificate"`
}

func (h *Handler) handleQualification(w http.ResponseWriter, r *http.Request) {
	var req qualificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	subjects := nsc.Entered(req.Subjects)
	lang := strings.TrimSpace(req.LanguageOfLearning)
	if lang == "" {
		lang = nsc.LanguageOfLearning(subjects)
	}

	var diploma nsc.DiplomaRequirements
	if req.DiplomaRequirements != nil {
		diploma = *req.DiplomaRequirements
	}
	var hc nsc.HigherCertificateRequirements
	if req.HigherCertificateRequirements != nil {
		hc = *req.HigherCertificateRequirements
	}

	writeJSON(w, http.StatusOK, qualificationResponse{
		LanguageOfLearning: lang,
		Qualification:      nsc.DetermineQualificationLevel(subjects, lang),
		Bachelor:           nsc.ValidateBachelorPass(subjects, lang),
		Diploma:            nsc.ValidateDiplomaPass(subjects, lang, diploma),
		HigherCertificate:  nsc.ValidateHigherCertificatePass(subjects, lang, hc),
	})
}

type availabilityRequest struct {
	Subjects  []nsc.Subject `json:"subjects"`
	Candidate string        `json:"candidate"`
}

type availabilityResponse struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Candidate) == "" {
		writeError(w, http.StatusBadRequest, "candidate is required")
		return
	}
	ok, reason := nsc.Availability(req.Subjects, req.Candidate)
	writeJSON(w, http.StatusOK, availabilityResponse{Available: ok, Reason: reason})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/pai-aps/internal/advisor"
	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/platform/cache"
	"github.com/p-n-ai/pai-aps/internal/requirement"
)

const studentJSON = `[
	{"name": "English Home Language", "percentage": 72},
	{"name": "IsiZulu First Additional Language", "percentage": 65},
	{"name": "Mathematics", "percentage": 68},
	{"name": "Physical Sciences", "percentage": 61},
	{"name": "Life Sciences", "percentage": 55},
	{"name": "Geography", "percentage": 70},
	{"name": "Life Orientation", "percentage": 80}
]`

func newTestHandler(t *testing.T, cfg HandlerConfig) http.Handler {
	t.Helper()
	if cfg.Engine == nil {
		src := catalog.NewMemorySource(catalog.Institution{
			ID:       "ru",
			Name:     "Rhodes University",
			Strategy: "rhodes",
			Courses: []catalog.Course{
				{ID: "ba", Name: "Bachelor of Arts", APSMin: 38, SubjectRequirements: requirement.Requirements{
					"English": requirement.Level(4),
				}},
				{ID: "bpharm", Name: "Bachelor of Pharmacy", APSMin: 42},
			},
		})
		cfg.Engine = advisor.NewEngine(advisor.EngineConfig{Catalog: src})
	}
	return NewHandler(cfg).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz returns 200", "/healthz", http.StatusOK, `{"status":"ok"}`},
		{"readyz returns 200", "/readyz", http.StatusOK, `{"status":"ready"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("X-Request-ID header missing")
			}
		})
	}
}

func TestReadyz_FailingDependency(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{Readiness: map[string]Checker{
		"database": func(context.Context) error { return errors.New("connection refused") },
		"cache":    func(context.Context) error { return nil },
	}})

	rec := do(t, h, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decode[struct {
		Failed map[string]string `json:"failed"`
	}](t, rec)
	if _, ok := body.Failed["database"]; !ok {
		t.Errorf("failed = %v, want database entry", body.Failed)
	}
	if _, ok := body.Failed["cache"]; ok {
		t.Error("cache should not be reported as failed")
	}
}

func TestRequestID_Echoed(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestAPSEndpoint(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	tests := []struct {
		name        string
		institution string
		wantAPS     float64
		wantLen     int
	}{
		{"default strategy", "", 31, 6},
		{"unknown institution falls back", "uct", 31, 6},
		{"rhodes alias", "ru", 39.1, 6},
		{"wits counts seven", "wits", 34, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"institution_id": "` + tt.institution + `", "subjects": ` + studentJSON + `}`
			rec := do(t, h, http.MethodPost, "/v1/aps", body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
			}
			got := decode[apsResponse](t, rec)
			if got.APS != tt.wantAPS {
				t.Errorf("aps = %v, want %v", got.APS, tt.wantAPS)
			}
			if len(got.Breakdown) != tt.wantLen {
				t.Errorf("len(breakdown) = %d, want %d", len(got.Breakdown), tt.wantLen)
			}
		})
	}
}

func TestAPSEndpoint_EmptySubjects(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})
	rec := do(t, h, http.MethodPost, "/v1/aps", `{"subjects": []}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"breakdown":[]`) {
		t.Errorf("body = %s, want empty breakdown array", rec.Body.String())
	}
}

func TestAPSEndpoint_CatalogStrategy(t *testing.T) {
	src := catalog.NewMemorySource(catalog.Institution{
		ID:       "nmu",
		Name:     "Nelson Mandela University",
		Strategy: "rhodes",
	})
	h := newTestHandler(t, HandlerConfig{Engine: advisor.NewEngine(advisor.EngineConfig{Catalog: src})})
	body := `{"institution_id": "nmu", "subjects": ` + studentJSON + `}`

	rec := do(t, h, http.MethodPost, "/v1/aps", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	got := decode[apsResponse](t, rec)
	if got.APS != 39.1 {
		t.Errorf("aps = %v, want 39.1", got.APS)
	}
	if got.InstitutionID != "nmu" {
		t.Errorf("institution_id = %q, want nmu", got.InstitutionID)
	}

	rec = do(t, h, http.MethodPost, "/v1/evaluate", body)
	if report := decode[advisor.Report](t, rec); report.APS.APS != got.APS || report.APS.Method != got.Method {
		t.Errorf("evaluate aps = %v (%s), want %v (%s)", report.APS.APS, report.APS.Method, got.APS, got.Method)
	}
}

type unavailableSource struct{}

func (unavailableSource) GetInstitution(context.Context, string) (catalog.Institution, error) {
	return catalog.Institution{}, errors.New("connection refused")
}

func (unavailableSource) AllInstitutions(context.Context) ([]catalog.Institution, error) {
	return nil, errors.New("connection refused")
}

func TestAPSEndpoint_CatalogUnavailable(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{Engine: advisor.NewEngine(advisor.EngineConfig{Catalog: unavailableSource{}})})

	rec := do(t, h, http.MethodPost, "/v1/aps", `{"institution_id": "nmu", "subjects": `+studentJSON+`}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/v1/aps", `{"subjects": `+studentJSON+`}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status without institution = %d, want 200", rec.Code)
	}
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	tests := []struct {
		name string
		path string
		body string
	}{
		{"aps malformed", "/v1/aps", `{"subjects": [`},
		{"evaluate wrong type", "/v1/evaluate", `{"subjects": "maths"}`},
		{"validate not json", "/v1/nsc/validate", `subjects`},
		{"availability without candidate", "/v1/nsc/availability", `{"subjects": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if got := decode[map[string]string](t, rec); got["error"] == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	rec := do(t, h, http.MethodPost, "/v1/evaluate", `{"institution_id": "ru", "subjects": `+studentJSON+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	report := decode[advisor.Report](t, rec)
	if report.Qualification != "Bachelor" {
		t.Errorf("qualification = %q, want Bachelor", report.Qualification)
	}
	if report.APS.APS != 39.1 {
		t.Errorf("aps = %v, want 39.1", report.APS.APS)
	}
	if len(report.Qualifying) != 1 || report.Qualifying[0].ID != "ba" {
		t.Errorf("qualifying = %+v, want [ba]", report.Qualifying)
	}
	if len(report.Courses) != 2 {
		t.Errorf("len(courses) = %d, want 2", len(report.Courses))
	}
}

func TestCoursesEndpoint(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	rec := do(t, h, http.MethodPost, "/v1/courses", `{"subjects": `+studentJSON+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[struct {
		Placements []advisor.Placement `json:"placements"`
	}](t, rec)
	if len(got.Placements) != 1 {
		t.Fatalf("len(placements) = %d, want 1", len(got.Placements))
	}
	if got.Placements[0].APS != 39.1 {
		t.Errorf("aps = %v, want 39.1", got.Placements[0].APS)
	}
}

func TestValidateEndpoint(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	rec := do(t, h, http.MethodPost, "/v1/nsc/validate", `{"subjects": [
		{"name": "English Home Language", "percentage": 60},
		{"name": "Mathematics", "percentage": 60},
		{"name": "Mathematical Literacy", "percentage": 60}
	]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[struct {
		HasSelectionConflicts bool     `json:"has_selection_conflicts"`
		CanCalculate          bool     `json:"can_calculate"`
		Errors                []string `json:"errors"`
	}](t, rec)
	if !got.HasSelectionConflicts {
		t.Error("has_selection_conflicts = false, want true")
	}
	if got.CanCalculate {
		t.Error("can_calculate = true, want false")
	}
	if len(got.Errors) == 0 {
		t.Error("errors should not be empty")
	}
}

func TestValidateEndpoint_IgnoresUnenteredSubjects(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	subjects := strings.TrimSuffix(studentJSON, "]") + `,
	{"name": "Accounting", "percentage": 0},
	{"name": "", "percentage": 75}
]`
	rec := do(t, h, http.MethodPost, "/v1/nsc/validate", `{"subjects": `+subjects+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[struct {
		CanCalculate bool     `json:"can_calculate"`
		Errors       []string `json:"errors"`
	}](t, rec)
	if !got.CanCalculate {
		t.Error("can_calculate = false, want true")
	}
	if len(got.Errors) != 0 {
		t.Errorf("errors = %v, want none", got.Errors)
	}

	rec = do(t, h, http.MethodPost, "/v1/evaluate", `{"subjects": `+subjects+`}`)
	if report := decode[advisor.Report](t, rec); report.Selection.CanCalculate != got.CanCalculate {
		t.Errorf("evaluate can_calculate = %v, want %v", report.Selection.CanCalculate, got.CanCalculate)
	}
}

func TestQualificationEndpoint(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	tests := []struct {
		name string
		body string
		want qualificationResponse
	}{
		{
			name: "derived language",
			body: `{"subjects": ` + studentJSON + `}`,
			want: qualificationResponse{
				LanguageOfLearning: "English Home Language",
				Qualification:      "Bachelor",
				Bachelor:           true,
				Diploma:            true,
				HigherCertificate:  true,
			},
		},
		{
			name: "stricter diploma override",
			body: `{"subjects": ` + studentJSON + `, "diploma_requirements": {"subjects_at_minimum": 8}}`,
			want: qualificationResponse{
				LanguageOfLearning: "English Home Language",
				Qualification:      "Bachelor",
				Bachelor:           true,
				Diploma:            false,
				HigherCertificate:  true,
			},
		},
		{
			name: "language threshold overridden to zero",
			body: `{"subjects": ` + strings.Replace(studentJSON, `"percentage": 72`, `"percentage": 20`, 1) +
				`, "diploma_requirements": {"language_of_learning_percentage": 0}}`,
			want: qualificationResponse{
				LanguageOfLearning: "English Home Language",
				Qualification:      "Fail",
				Bachelor:           false,
				Diploma:            true,
				HigherCertificate:  false,
			},
		},
		{
			name: "language not taken",
			body: `{"language_of_learning": "Afrikaans Home Language", "subjects": ` + studentJSON + `}`,
			want: qualificationResponse{
				LanguageOfLearning: "Afrikaans Home Language",
				Qualification:      "Fail",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/nsc/qualification", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got := decode[qualificationResponse](t, rec); got != tt.want {
				t.Errorf("response = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAvailabilityEndpoint(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	rec := do(t, h, http.MethodPost, "/v1/nsc/availability", `{
		"subjects": [{"name": "Mathematics", "percentage": 0}],
		"candidate": "Mathematical Literacy"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[availabilityResponse](t, rec)
	if got.Available {
		t.Error("available = true, want false")
	}
	if got.Reason == "" {
		t.Error("reason should explain the conflict")
	}
}

func TestStrategiesEndpoint(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	rec := do(t, h, http.MethodGet, "/v1/strategies", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[struct {
		Strategies []struct {
			ID        string  `json:"id"`
			MaxPoints float64 `json:"max_points"`
		} `json:"strategies"`
	}](t, rec)
	if len(got.Strategies) != 9 {
		t.Errorf("len(strategies) = %d, want 9", len(got.Strategies))
	}
}

func TestInstitutionsEndpoint_ETag(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	rec := do(t, h, http.MethodGet, "/v1/institutions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if len(etag) != 66 {
		t.Fatalf("ETag = %q, want quoted 64-char digest", etag)
	}
	got := decode[struct {
		Institutions []catalog.Summary `json:"institutions"`
	}](t, rec)
	if len(got.Institutions) != 1 || got.Institutions[0].Courses != 2 {
		t.Errorf("institutions = %+v, want one with 2 courses", got.Institutions)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/institutions", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}
}

func TestInstitutionEndpoint(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{})

	rec := do(t, h, http.MethodGet, "/v1/institutions/RU", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode[catalog.Institution](t, rec); len(got.Courses) != 2 {
		t.Errorf("len(courses) = %d, want 2", len(got.Courses))
	}

	rec = do(t, h, http.MethodGet, "/v1/institutions/uct", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

type fakeLimiter struct {
	limit int
	count int
	err   error
}

func (f *fakeLimiter) Allow(context.Context, string) (cache.Decision, error) {
	if f.err != nil {
		return cache.Decision{}, f.err
	}
	f.count++
	return cache.Decision{
		Allowed:   f.count <= f.limit,
		Remaining: max(f.limit-f.count, 0),
		ResetAt:   time.Now().Add(30 * time.Second),
	}, nil
}

func (f *fakeLimiter) Limit() int { return f.limit }

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{limit: 2}
	h := newTestHandler(t, HandlerConfig{Limiter: limiter})

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodGet, "/v1/strategies", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/v1/strategies", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}

	// Health checks are never limited.
	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{Limiter: &fakeLimiter{limit: 1, err: errors.New("dial tcp: refused")}})

	for i := 0; i < 3; i++ {
		if rec := do(t, h, http.MethodGet, "/v1/strategies", ""); rec.Code != http.StatusOK {
			t.Errorf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr", "10.0.0.5:4312", "", "10.0.0.5"},
		{"forwarded first hop", "10.0.0.5:4312", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"no port", "10.0.0.5", "", "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientKey(req); got != tt.want {
				t.Errorf("clientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := newTestHandler(t, HandlerConfig{CORSOrigins: []string{"https://apply.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/aps", nil)
	req.Header.Set("Origin", "https://apply.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://apply.example" {
		t.Errorf("Access-Control-Allow-Origin = %q, want https://apply.example", got)
	}
}

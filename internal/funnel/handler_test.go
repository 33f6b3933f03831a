package funnel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"blanknote-backend/internal/llm"
	"blanknote-backend/internal/results"
	"blanknote-backend/internal/shared/ratelimit"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, "$4.99")
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (code string, details map[string]interface{}) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code, body.Error.Details
}

func TestQuestionsEndpoint(t *testing.T) {
	r := newTestRouter(&Service{Repo: results.NewMemoryRepo(), Analyzer: &fakeAnalyzer{}})

	w := doJSON(t, r, http.MethodGet, "/api/v1/questions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Intro []results.Question `json:"intro"`
		Deep  []results.Question `json:"deep"`
		Price string             `json:"price"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Intro) != IntroAnswerCount {
		t.Fatalf("intro questions = %d, want %d", len(body.Intro), IntroAnswerCount)
	}
	if len(body.Deep) != DeepAnswerCount {
		t.Fatalf("deep questions = %d, want %d", len(body.Deep), DeepAnswerCount)
	}
	if body.Price != "$4.99" {
		t.Fatalf("price = %q, want $4.99", body.Price)
	}
}

func TestSubmitIntroEndpoint(t *testing.T) {
	repo := results.NewMemoryRepo()
	r := newTestRouter(&Service{Repo: repo, Analyzer: &fakeAnalyzer{}})

	w := doJSON(t, r, http.MethodPost, "/api/v1/funnel/intro", submitIntroRequest{Answers: introAnswers()})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var body struct {
		ResultID string `json:"resultId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ResultID == "" {
		t.Fatal("expected a resultId")
	}
	if _, err := repo.GetByID(context.Background(), body.ResultID); err != nil {
		t.Fatalf("result not stored: %v", err)
	}
}

func TestSubmitIntroEndpointValidation(t *testing.T) {
	r := newTestRouter(&Service{Repo: results.NewMemoryRepo(), Analyzer: &fakeAnalyzer{}})

	w := doJSON(t, r, http.MethodPost, "/api/v1/funnel/intro", submitIntroRequest{Answers: introAnswers()[:3]})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	code, details := decodeError(t, w)
	if code != "validation_error" {
		t.Fatalf("code = %q, want validation_error", code)
	}
	if details["reason"] != ReasonIncomplete {
		t.Fatalf("reason = %v, want %q", details["reason"], ReasonIncomplete)
	}
}

func TestSubmitIntroEndpointRateLimited(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(60*time.Second, 1, func() time.Time { return clock })
	r := newTestRouter(&Service{Repo: results.NewMemoryRepo(), Analyzer: &fakeAnalyzer{}, Limiter: limiter})

	first := doJSON(t, r, http.MethodPost, "/api/v1/funnel/intro", submitIntroRequest{Answers: introAnswers()})
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want 201", first.Code)
	}

	second := doJSON(t, r, http.MethodPost, "/api/v1/funnel/intro", submitIntroRequest{Answers: introAnswers()})
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After header")
	}
	code, details := decodeError(t, second)
	if code != "rate_limited" {
		t.Fatalf("code = %q, want rate_limited", code)
	}
	if _, ok := details["resetInSeconds"]; !ok {
		t.Fatal("expected resetInSeconds in details")
	}
}

func TestSubmitDeepEndpoint(t *testing.T) {
	repo := results.NewMemoryRepo()
	svc := &Service{Repo: repo, Analyzer: &fakeAnalyzer{}}
	r := newTestRouter(svc)

	id, err := svc.SubmitIntro(context.Background(), introAnswers(), "1.2.3.4")
	if err != nil {
		t.Fatalf("SubmitIntro: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/funnel/deep", submitDeepRequest{ResultID: id, Answers: deepAnswers()})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	stored, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Phase != results.PhaseDeep {
		t.Fatalf("phase = %q, want deep", stored.Phase)
	}
}

func TestSubmitDeepEndpointMissingResultID(t *testing.T) {
	r := newTestRouter(&Service{Repo: results.NewMemoryRepo(), Analyzer: &fakeAnalyzer{}})

	w := doJSON(t, r, http.MethodPost, "/api/v1/funnel/deep", submitDeepRequest{Answers: deepAnswers()})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmitDeepEndpointUnknownResult(t *testing.T) {
	r := newTestRouter(&Service{Repo: results.NewMemoryRepo(), Analyzer: &fakeAnalyzer{}})

	w := doJSON(t, r, http.MethodPost, "/api/v1/funnel/deep", submitDeepRequest{ResultID: "no-such-id", Answers: deepAnswers()})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	code, _ := decodeError(t, w)
	if code != "not_found" {
		t.Fatalf("code = %q, want not_found", code)
	}
}

func TestAnalysisErrorMapping(t *testing.T) {
	cases := []struct {
		kind       llm.ErrorKind
		wantStatus int
		wantCode   string
	}{
		{llm.KindQuotaExceeded, http.StatusServiceUnavailable, "analysis_quota_exhausted"},
		{llm.KindUpstreamBusy, http.StatusServiceUnavailable, "analysis_busy"},
		{llm.KindMalformed, http.StatusBadGateway, "analysis_failed"},
		{llm.KindGeneric, http.StatusBadGateway, "analysis_failed"},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			analyzer := &fakeAnalyzer{introErr: &llm.ProviderError{Kind: tc.kind, Err: errors.New("upstream")}}
			r := newTestRouter(&Service{Repo: results.NewMemoryRepo(), Analyzer: analyzer})

			w := doJSON(t, r, http.MethodPost, "/api/v1/funnel/intro", submitIntroRequest{Answers: introAnswers()})
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			code, _ := decodeError(t, w)
			if code != tc.wantCode {
				t.Fatalf("code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestUnlockEndpoint(t *testing.T) {
	repo := results.NewMemoryRepo()
	svc := &Service{Repo: repo, Analyzer: &fakeAnalyzer{}, Images: &fakeSynthesizer{url: "https://temp.example/img.png"}}
	r := newTestRouter(svc)

	id, err := svc.SubmitIntro(context.Background(), introAnswers(), "1.2.3.4")
	if err != nil {
		t.Fatalf("SubmitIntro: %v", err)
	}
	if _, err := svc.SubmitDeep(context.Background(), id, deepAnswers()); err != nil {
		t.Fatalf("SubmitDeep: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/results/"+id+"/unlock", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var body struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ImageURL == "" {
		t.Fatal("expected an imageUrl")
	}
}

func TestUnlockEndpointBeforeDeepPhase(t *testing.T) {
	svc := &Service{Repo: results.NewMemoryRepo(), Analyzer: &fakeAnalyzer{}, Images: &fakeSynthesizer{url: "x"}}
	r := newTestRouter(svc)

	id, err := svc.SubmitIntro(context.Background(), introAnswers(), "1.2.3.4")
	if err != nil {
		t.Fatalf("SubmitIntro: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/results/"+id+"/unlock", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	code, _ := decodeError(t, w)
	if code != "precondition_failed" {
		t.Fatalf("code = %q, want precondition_failed", code)
	}
}

func TestGetResultEndpoint(t *testing.T) {
	svc := &Service{Repo: results.NewMemoryRepo(), Analyzer: &fakeAnalyzer{}}
	r := newTestRouter(svc)

	id, err := svc.SubmitIntro(context.Background(), introAnswers(), "1.2.3.4")
	if err != nil {
		t.Fatalf("SubmitIntro: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/results/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var stored results.Result
	if err := json.Unmarshal(w.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored.ID != id {
		t.Fatalf("id = %q, want %q", stored.ID, id)
	}

	missing := doJSON(t, r, http.MethodGet, "/api/v1/results/no-such-id", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", missing.Code)
	}
}

func TestMarkPaidEndpoint(t *testing.T) {
	repo := results.NewMemoryRepo()
	svc := &Service{Repo: repo, Analyzer: &fakeAnalyzer{}}
	r := newTestRouter(svc)

	id, err := svc.SubmitIntro(context.Background(), introAnswers(), "1.2.3.4")
	if err != nil {
		t.Fatalf("SubmitIntro: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/results/"+id+"/paid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	stored, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !stored.IsPaid {
		t.Fatal("result must be paid")
	}

	missing := doJSON(t, r, http.MethodPost, "/api/v1/results/no-such-id/paid", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", missing.Code)
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchmaker/internal/domain"
	"matchmaker/internal/repository"
	"matchmaker/internal/service"
	"matchmaker/internal/staging"
	"matchmaker/internal/upstream"
)

type stubPrimary struct {
	list []domain.Candidate
	err  error
}

func (s *stubPrimary) Match(context.Context, string) ([]domain.Candidate, error) {
	return s.list, s.err
}

type stubSecondary struct {
	list []domain.Candidate
	err  error
}

func (s *stubSecondary) Search(context.Context, string, domain.SearchFilters) ([]domain.Candidate, error) {
	return s.list, s.err
}

type stubJobs struct {
	list []domain.Candidate
}

func (s *stubJobs) Search(context.Context, string, string, int) ([]domain.Candidate, error) {
	return s.list, nil
}

type stubScraper struct{}

func (stubScraper) ScrapePerson(_ context.Context, profileURL string) (domain.PersonProfile, error) {
	return domain.PersonProfile{Name: "Jane", Headline: profileURL}, nil
}

type stubOCR struct{}

func (stubOCR) ExtractPDF(context.Context, string, []byte) (domain.OCRResult, error) {
	return domain.OCRResult{Status: "ok"}, nil
}

func people(prefix string, n int) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := range out {
		out[i] = domain.Candidate{Kind: domain.KindPerson, ID: fmt.Sprintf("%s%d", prefix, i), Name: fmt.Sprintf("%s %d", prefix, i)}
	}
	return out
}

type testEnv struct {
	router  *gin.Engine
	store   *staging.MemoryStore
	tokens  *service.SessionTokenService
	matches *service.MatchService
	primary *stubPrimary
	second  *stubSecondary
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := staging.NewMemoryStore(staging.NewHub(logger), time.Hour)
	tokens := service.NewSessionTokenService("secret", time.Hour)
	primary := &stubPrimary{list: people("p", 25)}
	second := &stubSecondary{list: people("s", 15)}
	keywords := service.NewKeywordService(logger, time.Second)
	matches := service.NewMatchService(logger, store, keywords, primary, second, &stubJobs{list: []domain.Candidate{{Kind: domain.KindJob, Title: "Go dev", JobURL: "https://jobs.example/1"}}}, service.MatchConfig{
		SettleDelay: time.Nanosecond,
	}).WithScorer(func() int { return 70 })

	profiles := service.NewProfileService(logger, repository.NewMemoryAnswersRepository(), stubScraper{}, time.Second)
	documents := service.NewDocumentService(logger, stubOCR{}, 64, time.Second)

	r := NewRouter(logger, tokens,
		NewSessionHandler(logger, store, tokens),
		NewMatchHandler(logger, store, matches, service.NewCardPresenter()),
		NewProfileHandler(logger, profiles),
		NewDocumentHandler(logger, documents),
	)
	return &testEnv{router: r, store: store, tokens: tokens, matches: matches, primary: primary, second: second}
}

func performRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createSession(t *testing.T) (string, string) {
	t.Helper()
	rec := performRequest(e.router, http.MethodPost, "/sessions", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	var resp struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if resp.SessionID == "" || resp.Token == "" {
		t.Fatalf("expected session id and token, got %s", rec.Body.String())
	}
	return resp.SessionID, resp.Token
}

type viewResponse struct {
	Phase domain.Phase        `json:"phase"`
	State domain.SessionState `json:"state"`
	Cards []service.Card      `json:"cards"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	var v viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode view: %v (%s)", err, rec.Body.String())
	}
	return v
}

func TestSessionRoutesRequireMatchingToken(t *testing.T) {
	env := setupRouter(t)
	id, token := env.createSession(t)

	if rec := performRequest(env.router, http.MethodGet, "/sessions/"+id+"/matches", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if rec := performRequest(env.router, http.MethodGet, "/sessions/"+id+"/matches", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for bad token, got %d", rec.Code)
	}
	otherID, _ := env.createSession(t)
	if rec := performRequest(env.router, http.MethodGet, "/sessions/"+otherID+"/matches", token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}

	rec := performRequest(env.router, http.MethodGet, "/sessions/"+id+"/matches", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if v := decodeView(t, rec); v.Phase != domain.PhaseLoading || len(v.Cards) != 0 {
		t.Fatalf("expected loading view, got %+v", v)
	}
}

func TestSessionRoutesUnknownSession(t *testing.T) {
	env := setupRouter(t)
	tok, err := env.tokens.Issue("ghost")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := performRequest(env.router, http.MethodGet, "/sessions/ghost/matches", tok.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestStartMatches_InterimThenFinal(t *testing.T) {
	env := setupRouter(t)
	id, token := env.createSession(t)

	rec := performRequest(env.router, http.MethodPost, "/sessions/"+id+"/matches", token, map[string]any{
		"profile_url": "https://github.com/alice/",
		"skills":      []string{"Go"},
		"filters":     map[string][]string{"Locations": {"Berlin"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	interim := decodeView(t, rec)
	if interim.Phase != domain.PhaseReady || len(interim.Cards) != 20 {
		t.Fatalf("expected 20 interim cards, got %d (%s)", len(interim.Cards), interim.Phase)
	}
	if interim.State.Secondary.State != domain.SecondaryInProgress {
		t.Fatalf("expected secondary in progress, got %s", interim.State.Secondary.State)
	}

	env.matches.Wait()

	final := decodeView(t, performRequest(env.router, http.MethodGet, "/sessions/"+id+"/matches", token, nil))
	if len(final.Cards) != 30 {
		t.Fatalf("expected 30 final cards, got %d", len(final.Cards))
	}
	if final.Cards[20].Type != service.CardLinkedIn || final.Cards[20].Score == nil || *final.Cards[20].Score != 70 {
		t.Fatalf("unexpected secondary card: %+v", final.Cards[20])
	}

	rec = performRequest(env.router, http.MethodGet, "/sessions/"+id+"/storage", token, nil)
	var keys map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &keys); err != nil {
		t.Fatalf("decode storage: %v", err)
	}
	if keys[domain.KeyLinkedinCompleted] != "true" || keys[domain.KeyLinkedinLoading] != "false" || keys[domain.KeyLinkedinCount] != "10" {
		t.Fatalf("unexpected legacy keys: %+v", keys)
	}
	if !strings.Contains(keys[domain.KeyMatchesData], `"kind":"people"`) {
		t.Fatalf("expected matchesData json, got %q", keys[domain.KeyMatchesData])
	}
}

func TestStartMatches_ValidationIs400(t *testing.T) {
	env := setupRouter(t)
	id, token := env.createSession(t)

	rec := performRequest(env.router, http.MethodPost, "/sessions/"+id+"/matches", token, map[string]any{
		"profile_url": "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	state, err := env.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Phase() != domain.PhaseError || state.Result == nil || len(state.Result.Candidates) != 0 {
		t.Fatalf("expected error marker for the open results view, got %+v", state)
	}
}

func TestStartMatches_PrimaryFailureIs502(t *testing.T) {
	env := setupRouter(t)
	env.primary.err = &upstream.HTTPError{Op: "match", StatusCode: http.StatusNotFound}
	id, token := env.createSession(t)

	rec := performRequest(env.router, http.MethodPost, "/sessions/"+id+"/matches", token, map[string]any{
		"profile_url": "alice",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	var resp struct {
		Error  string       `json:"error"`
		Result viewResponse `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" || resp.Result.Phase != domain.PhaseError {
		t.Fatalf("expected error marker, got %+v", resp)
	}
}

func TestStartMatches_HiringReturnsJobs(t *testing.T) {
	env := setupRouter(t)
	id, token := env.createSession(t)

	rec := performRequest(env.router, http.MethodPost, "/sessions/"+id+"/matches", token, map[string]any{
		"connection_type": "hiring",
		"goal":            "hire a backend engineer",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	v := decodeView(t, rec)
	if len(v.Cards) != 1 || v.Cards[0].Type != service.CardJob {
		t.Fatalf("expected one job card, got %+v", v.Cards)
	}
}

func TestPrefetch(t *testing.T) {
	env := setupRouter(t)
	id, token := env.createSession(t)

	rec := performRequest(env.router, http.MethodPost, "/sessions/"+id+"/prefetch", token, map[string]string{"profile_url": "https://github.com/alice"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rec.Code)
	}
	rec = performRequest(env.router, http.MethodPost, "/sessions/"+id+"/prefetch", token, map[string]string{"profile_url": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestStreamEvents_EndsOnFinalState(t *testing.T) {
	env := setupRouter(t)
	id, token := env.createSession(t)

	performRequest(env.router, http.MethodPost, "/sessions/"+id+"/matches", token, map[string]any{"profile_url": "alice"})
	env.matches.Wait()

	rec := performRequest(env.router, http.MethodGet, "/sessions/"+id+"/events", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream content type, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event:state") || !strings.Contains(body, `"phase":"ready"`) {
		t.Fatalf("unexpected stream body: %s", body)
	}
}

func TestProfileAnswersRoundTrip(t *testing.T) {
	env := setupRouter(t)

	if rec := performRequest(env.router, http.MethodGet, "/profiles/u1/answers", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	rec := performRequest(env.router, http.MethodPut, "/profiles/u1/answers", "", map[string]any{
		"goal":            "build an open source tool",
		"engagement_type": "open_source",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	rec = performRequest(env.router, http.MethodGet, "/profiles/u1/answers", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "build an open source tool") {
		t.Fatalf("unexpected answers response: %d %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(env.router, http.MethodPut, "/profiles/u1/answers", "", map[string]any{"engagement_type": "weekend"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestProfileScrape(t *testing.T) {
	env := setupRouter(t)

	rec := performRequest(env.router, http.MethodGet, "/profiles/scrape?linkedin_url=https://www.linkedin.com/in/jane", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Jane") {
		t.Fatalf("unexpected scrape response: %d %s", rec.Code, rec.Body.String())
	}
	if rec := performRequest(env.router, http.MethodGet, "/profiles/scrape", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "cv.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/documents/ocr", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDocumentUpload(t *testing.T) {
	env := setupRouter(t)

	cases := []struct {
		name  string
		field string
		data  []byte
		want  int
	}{
		{name: "missing file", field: "other", data: []byte("x"), want: http.StatusBadRequest},
		{name: "not a pdf", field: "file", data: []byte("plain text"), want: http.StatusBadRequest},
		{name: "too large", field: "file", data: bytes.Repeat([]byte("a"), 128), want: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, uploadRequest(t, tc.field, tc.data))
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestIsFinal(t *testing.T) {
	if isFinal(domain.NewSessionState("s")) {
		t.Fatalf("fresh state must not be final")
	}
	inProgress := domain.SessionState{Result: &domain.ResultSet{}, Secondary: domain.SecondaryStatus{State: domain.SecondaryInProgress}}
	if isFinal(inProgress) {
		t.Fatalf("interim state must not be final")
	}
	if !isFinal(domain.SessionState{Error: "boom"}) {
		t.Fatalf("error state must be final")
	}
}

func TestSessionAuthMiddleware_ExposesClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewSessionTokenService("secret", time.Hour)
	r := gin.New()
	r.GET("/sessions/:id/whoami", SessionAuthMiddleware(tokens), func(c *gin.Context) {
		claims, ok := GetSessionClaims(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no claims"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sid": claims.SessionID})
	})

	tok, err := tokens.Issue("s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := performRequest(r, http.MethodGet, "/sessions/s1/whoami", tok.Token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"sid":"s1"`) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherifTito77/PsychSync-sub002/internal/optimizer"
	"github.com/SherifTito77/PsychSync-sub002/internal/storage"
)

const testToken = "test-token-12345"

func setupAppHandler(t *testing.T, token string) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewAppHandler(AppDeps{
		Store:     store,
		Optimizer: optimizer.New(optimizer.Options{}),
		Token:     token,
	})
	return handler, store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// fourMemberPool is a pool with one member per core role, large enough for
// one size-3 team plus the full size-4 team.
const fourMemberPool = `[
	{"id":"alice","role":"developer","skills":["python","react"],"traits":{"conscientiousness":0.8,"extraversion":0.7},"experience_years":6},
	{"id":"bob","role":"designer","skills":["figma","react"],"traits":{"conscientiousness":0.75,"extraversion":0.3},"experience_years":4},
	{"id":"carol","role":"pm","skills":["jira"],"experience_years":8},
	{"id":"dave","role":"qa","skills":["selenium","jira"],"experience_years":3}
]`

func TestHealth_NoAuth(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("body = %s, want ok status", rr.Body.String())
	}
}

func TestOptimize_NoAuth(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", `{"members":`+fourMemberPool+`}`, "")
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOptimize_WrongToken(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", `{"members":`+fourMemberPool+`}`, "wrong-token")
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOptimize_InlineMembers(t *testing.T) {
	h, store := setupAppHandler(t, testToken)

	body := `{"members":` + fourMemberPool + `,"objective":"maximize_performance"}`
	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", body, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp OptimizeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.RecommendedTeams) == 0 {
		t.Fatal("no recommended teams in response")
	}
	if resp.Metadata.TotalCandidates != 4 {
		t.Errorf("TotalCandidates = %d, want 4", resp.Metadata.TotalCandidates)
	}
	if resp.Metadata.Objective != "maximize_performance" {
		t.Errorf("Objective = %q, want maximize_performance", resp.Metadata.Objective)
	}
	if resp.RunID == "" {
		t.Fatal("response missing run_id")
	}

	run, err := store.GetRun(resp.RunID)
	if err != nil {
		t.Fatalf("GetRun(%q): %v", resp.RunID, err)
	}
	if run.CandidateCount != 4 {
		t.Errorf("persisted CandidateCount = %d, want 4", run.CandidateCount)
	}
	if run.TopScore != resp.OverallScore {
		t.Errorf("persisted TopScore = %v, want %v", run.TopScore, resp.OverallScore)
	}
}

func TestOptimize_PartialOverrideKeepsConfiguredBudget(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	// 4 members enumerate to 5 subsets, so a configured budget of 4 cuts
	// enumeration short. A request overriding only top_k must not reset
	// that budget to the package default.
	h := NewAppHandler(AppDeps{
		Store:     store,
		Optimizer: optimizer.New(optimizer.Options{MaxSubsets: 4}),
		Token:     testToken,
	})

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", `{"members":`+fourMemberPool+`,"top_k":1}`, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp OptimizeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.RecommendedTeams) != 1 {
		t.Errorf("got %d teams, want the top_k override of 1", len(resp.RecommendedTeams))
	}
	if !resp.Metadata.BudgetExceeded {
		t.Error("BudgetExceeded = false, want the configured 4-subset budget to hold")
	}
}

func TestOptimize_RunPersistFailureLoggedNotFatal(t *testing.T) {
	h, store := setupAppHandler(t, testToken)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	// Closing the store makes the best-effort run record fail while the
	// inline-members optimization itself needs no storage.
	store.Close()

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", `{"members":`+fourMemberPool+`}`, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp OptimizeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.RunID != "" {
		t.Errorf("run_id = %q, want empty when the run record cannot be saved", resp.RunID)
	}
	if len(resp.RecommendedTeams) == 0 {
		t.Error("no recommended teams despite a successful optimization")
	}
	if !strings.Contains(buf.String(), "failed to persist run record") {
		t.Errorf("log output %q missing run persistence warning", buf.String())
	}
}

func TestOptimize_TooFewMembers(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	body := `{"members":[{"id":"a","role":"developer"},{"id":"b","role":"qa"}]}`
	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", body, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}
}

func TestOptimize_InvalidBody(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", `{not json`, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOptimize_StoredRoster(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(fourMemberPool), &records); err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	for _, rec := range records {
		rr := httptest.NewRecorder()
		req := authReq(http.MethodPost, "/members", string(rec), testToken)
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("POST /members status = %d; body = %s", rr.Code, rr.Body.String())
		}
	}

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", `{"objective":"balance_diversity"}`, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp OptimizeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Metadata.TotalCandidates != 4 {
		t.Errorf("TotalCandidates = %d, want 4 from stored roster", resp.Metadata.TotalCandidates)
	}
	if resp.Metadata.Objective != "balance_diversity" {
		t.Errorf("Objective = %q, want balance_diversity", resp.Metadata.Objective)
	}
}

func TestOptimize_EmptyRoster(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/optimize", `{}`, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
}

func TestMembers_AddMissingRole(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/members", `{"name":"No Role"}`, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMembers_CRUD(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	body := `{"name":"Ada","role":"developer","skills":["Python","python","Go"],"experience_years":6}`
	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/members", body, testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("POST status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var created map[string]string
	json.NewDecoder(rr.Body).Decode(&created)
	id := created["id"]
	if id == "" {
		t.Fatal("response missing generated id")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/members/"+id, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var got map[string]any
	json.NewDecoder(rr.Body).Decode(&got)
	if got["name"] != "Ada" || got["role"] != "developer" {
		t.Errorf("got %v, want saved member back", got)
	}
	if got["experience_years"] != 6.0 {
		t.Errorf("experience_years = %v, want 6", got["experience_years"])
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/members", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("LIST status = %d", rr.Code)
	}
	var list []map[string]any
	json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("got %d members, want 1", len(list))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/members/"+id, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/members/"+id, "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestMembers_GetNotFound(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/members/missing", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRuns_ListAndGet(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	for _, objective := range []string{"maximize_performance", "minimize_conflicts"} {
		body := fmt.Sprintf(`{"members":%s,"objective":%q}`, fourMemberPool, objective)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodPost, "/optimize", body, testToken))
		if rr.Code != http.StatusOK {
			t.Fatalf("optimize status = %d; body = %s", rr.Code, rr.Body.String())
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/runs", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("LIST status = %d", rr.Code)
	}
	var runs []RunSummary
	if err := json.NewDecoder(rr.Body).Decode(&runs); err != nil {
		t.Fatalf("decoding runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/runs/"+runs[0].ID, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rr.Code)
	}
	var full struct {
		RunSummary
		Result struct {
			RecommendedTeams []json.RawMessage `json:"recommended_groups"`
		} `json:"result"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&full); err != nil {
		t.Fatalf("decoding run: %v", err)
	}
	if len(full.Result.RecommendedTeams) == 0 {
		t.Error("run detail view missing recommended teams")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/runs/"+runs[0].ID, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/runs/"+runs[0].ID, "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRuns_GetNotFound(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/runs/missing", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

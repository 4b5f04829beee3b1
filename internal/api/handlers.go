package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SherifTito77/PsychSync-sub002/internal/member"
	"github.com/SherifTito77/PsychSync-sub002/internal/optimizer"
	"github.com/SherifTito77/PsychSync-sub002/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps holds everything the HTTP surface needs.
type AppDeps struct {
	Store     *storage.Store
	Optimizer *optimizer.Optimizer
	Token     string
}

// NewAppHandler returns the REST API handler. Everything except /health
// requires a bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/optimize", handleOptimize(deps))

		r.Post("/members", handleAddMember(deps))
		r.Get("/members", handleListMembers(deps))
		r.Get("/members/{id}", handleGetMember(deps))
		r.Delete("/members/{id}", handleDeleteMember(deps))

		r.Get("/runs", handleListRuns(deps))
		r.Get("/runs/{id}", handleGetRun(deps))
		r.Delete("/runs/{id}", handleDeleteRun(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// OptimizeRequest is the POST /optimize payload. When Members is empty the
// stored roster is used as the candidate pool.
type OptimizeRequest struct {
	Members    []member.Record `json:"members"`
	Objective  string          `json:"objective"`
	MaxSubsets int             `json:"max_subsets,omitempty"`
	TopK       int             `json:"top_k,omitempty"`
}

// OptimizeResponse wraps the optimizer result with the persisted run ID.
type OptimizeResponse struct {
	RunID string `json:"run_id,omitempty"`
	*optimizer.Result
}

func handleOptimize(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req OptimizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		records := req.Members
		if len(records) == 0 {
			stored, err := deps.Store.ListMembers()
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to load roster: %v", err)
				return
			}
			records = make([]member.Record, 0, len(stored))
			for _, m := range stored {
				rec, err := recordFromStored(m)
				if err != nil {
					httpError(w, http.StatusInternalServerError, "api_error", "corrupt roster entry %s: %v", m.ID, err)
					return
				}
				records = append(records, rec)
			}
		}

		opt := deps.Optimizer
		if req.MaxSubsets > 0 || req.TopK > 0 {
			opt = opt.With(optimizer.Options{MaxSubsets: req.MaxSubsets, TopK: req.TopK})
		}

		pool := member.NewPool(records)
		result, err := opt.Optimize(r.Context(), pool, req.Objective)
		if errors.Is(err, optimizer.ErrInsufficientCandidates) {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "optimization failed: %v", err)
			return
		}

		// The run record is best-effort; a storage failure must not lose
		// the computed result.
		runID := saveRun(deps.Store, result)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(OptimizeResponse{RunID: runID, Result: result})
	}
}

func saveRun(store *storage.Store, result *optimizer.Result) string {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		slog.Warn("failed to encode run record", "error", err)
		return ""
	}
	run := storage.Run{
		ID:             uuid.New().String(),
		Objective:      result.Metadata.Objective,
		CandidateCount: result.Metadata.TotalCandidates,
		TopScore:       result.OverallScore,
		BudgetExceeded: result.Metadata.BudgetExceeded,
		ResultJSON:     string(resultJSON),
		CreatedAt:      time.Now().UTC(),
	}
	if err := store.SaveRun(run); err != nil {
		slog.Warn("failed to persist run record", "run_id", run.ID, "error", err)
		return ""
	}
	return run.ID
}

func handleAddMember(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var rec member.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if rec.Role == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "role is required")
			return
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}

		stored, err := storedFromRecord(rec)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to encode member: %v", err)
			return
		}
		if err := deps.Store.SaveMember(stored); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save member: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": rec.ID, "status": "saved"})
	}
}

func handleListMembers(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, err := deps.Store.ListMembers()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list members: %v", err)
			return
		}

		records := make([]member.Record, 0, len(stored))
		for _, m := range stored {
			rec, err := recordFromStored(m)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "corrupt roster entry %s: %v", m.ID, err)
				return
			}
			records = append(records, rec)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

func handleGetMember(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		m, err := deps.Store.GetMember(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get member: %v", err)
			return
		}

		rec, err := recordFromStored(m)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "corrupt roster entry %s: %v", m.ID, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	}
}

func handleDeleteMember(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteMember(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete member: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

// RunSummary is the list view of a persisted run.
type RunSummary struct {
	ID             string    `json:"id"`
	Objective      string    `json:"objective"`
	CandidateCount int       `json:"candidate_count"`
	TopScore       float64   `json:"top_score"`
	BudgetExceeded bool      `json:"budget_exceeded"`
	CreatedAt      time.Time `json:"created_at"`
}

func handleListRuns(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		runs, err := deps.Store.ListRuns(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list runs: %v", err)
			return
		}

		summaries := make([]RunSummary, len(runs))
		for i, run := range runs {
			summaries[i] = RunSummary{
				ID:             run.ID,
				Objective:      run.Objective,
				CandidateCount: run.CandidateCount,
				TopScore:       run.TopScore,
				BudgetExceeded: run.BudgetExceeded,
				CreatedAt:      run.CreatedAt,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}

func handleGetRun(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		run, err := deps.Store.GetRun(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "run not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get run: %v", err)
			return
		}

		// Splice the stored result JSON in verbatim so the full run view
		// matches what /optimize originally returned.
		payload := struct {
			RunSummary
			Result json.RawMessage `json:"result"`
		}{
			RunSummary: RunSummary{
				ID:             run.ID,
				Objective:      run.Objective,
				CandidateCount: run.CandidateCount,
				TopScore:       run.TopScore,
				BudgetExceeded: run.BudgetExceeded,
				CreatedAt:      run.CreatedAt,
			},
			Result: json.RawMessage(run.ResultJSON),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}
}

func handleDeleteRun(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteRun(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "run not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete run: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

// recordFromStored decodes a roster row back into its wire shape.
func recordFromStored(m storage.Member) (member.Record, error) {
	rec := member.Record{
		ID:              m.ID,
		Name:            m.Name,
		Role:            m.Role,
		ExperienceYears: m.ExperienceYears,
	}
	if m.TraitsJSON != "" {
		if err := json.Unmarshal([]byte(m.TraitsJSON), &rec.Traits); err != nil {
			return member.Record{}, fmt.Errorf("decoding traits: %w", err)
		}
	}
	if m.SkillsJSON != "" {
		if err := json.Unmarshal([]byte(m.SkillsJSON), &rec.Skills); err != nil {
			return member.Record{}, fmt.Errorf("decoding skills: %w", err)
		}
	}
	availability := m.Availability
	rec.Availability = &availability
	return rec, nil
}

func storedFromRecord(rec member.Record) (storage.Member, error) {
	traitsJSON := "{}"
	if rec.Traits != nil {
		b, err := json.Marshal(rec.Traits)
		if err != nil {
			return storage.Member{}, fmt.Errorf("encoding traits: %w", err)
		}
		traitsJSON = string(b)
	}
	skillsJSON := "[]"
	if rec.Skills != nil {
		b, err := json.Marshal(rec.Skills)
		if err != nil {
			return storage.Member{}, fmt.Errorf("encoding skills: %w", err)
		}
		skillsJSON = string(b)
	}
	availability := 1.0
	if rec.Availability != nil {
		availability = *rec.Availability
	}
	return storage.Member{
		ID:              rec.ID,
		Name:            rec.Name,
		Role:            rec.Role,
		TraitsJSON:      traitsJSON,
		SkillsJSON:      skillsJSON,
		ExperienceYears: rec.ExperienceYears,
		Availability:    availability,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

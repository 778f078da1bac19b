package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/getclawkit/clawkit/internal/agentconfig"
	"github.com/getclawkit/clawkit/internal/cost"
	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/getclawkit/clawkit/internal/skills"
	"github.com/go-chi/chi/v5"
)

const (
	skillsCacheControl = "public, s-maxage=60, stale-while-revalidate=300"
	statusCacheControl = "public, s-maxage=60, stale-while-revalidate=30"

	maxBodyBytes = 32 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.opts.Version,
	})
}

// queryInt reads a positive integer query parameter. Missing, invalid and
// zero values all fall back to def.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n == 0 {
		return def
	}
	return n
}

func (s *Server) listSkills(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "pageSize", skills.DefaultPageSize)
	search := r.URL.Query().Get("search")
	if utf8.RuneCountInString(search) > skills.MaxQueryLength {
		search = string([]rune(search)[:skills.MaxQueryLength])
	}

	idx, err := s.skillIndex(r.Context())
	if err != nil {
		s.logger.Error("could not load skills", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.Header().Set("Cache-Control", skillsCacheControl)
	writeJSON(w, http.StatusOK, idx.Page(search, page, size))
}

func (s *Server) getSkill(w http.ResponseWriter, r *http.Request) {
	sk, err := s.opts.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, skills.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Skill not found")
		return
	}
	if err != nil {
		s.logger.Error("could not load skill", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.Header().Set("Cache-Control", skillsCacheControl)
	writeJSON(w, http.StatusOK, sk)
}

type syncRequest struct {
	Skills []json.RawMessage `json:"skills"`
}

type syncResponse struct {
	OK bool `json:"ok"`
	skills.SeedReport
}

func (s *Server) authorized(r *http.Request) bool {
	if s.opts.SyncAPIKey == "" {
		return false
	}
	want := "Bearer " + s.opts.SyncAPIKey
	return subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), []byte(want)) == 1
}

func (s *Server) syncSkills(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req syncRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Skills) == 0 {
		writeError(w, http.StatusBadRequest, "skills array is required")
		return
	}

	feed, err := skills.ParseRecords(req.Skills, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := skills.Seed(r.Context(), s.opts.Store, feed, nil)
	s.invalidateIndex()
	if err != nil {
		s.logger.Warn("sync interrupted", "err", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	failed := len(feed.Skills) - rep.Written()
	s.metrics.recordSync(rep.Created, rep.Updated, rep.Skipped, failed)
	s.logger.Info(
		"skills synced",
		"total", rep.Total,
		"created", rep.Created,
		"updated", rep.Updated,
		"skipped", rep.Skipped,
		"failed", failed,
	)
	writeJSON(w, http.StatusOK, syncResponse{OK: true, SeedReport: rep})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Status.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	s.metrics.recordStatus(snap)
	w.Header().Set("Cache-Control", statusCacheControl)
	writeJSON(w, http.StatusOK, snap)
}

type costRequest struct {
	Params    *cost.Params                `json:"params"`
	Models    []string                    `json:"models"`
	Overrides map[string]pricing.Override `json:"overrides"`
}

type costResponse struct {
	cost.Projection
	Cheapest *cost.Total `json:"cheapest,omitempty"`
}

func (s *Server) cost(w http.ResponseWriter, r *http.Request) {
	params := s.opts.CostDefaults
	req := costRequest{Params: &params}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Params != nil {
		params = *req.Params
	}

	models, err := selectModels(s.opts.Models, req.Models)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	models = pricing.Apply(models, req.Overrides)

	resp := costResponse{Projection: cost.Project(params.Clamp(), models)}
	if t, ok := resp.Projection.Cheapest(); ok {
		resp.Cheapest = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

func selectModels(all []pricing.Entry, ids []string) ([]pricing.Entry, error) {
	if len(ids) == 0 {
		return all, nil
	}
	out := make([]pricing.Entry, 0, len(ids))
outer:
	for _, id := range ids {
		for _, e := range all {
			if e.ID == id {
				out = append(out, e)
				continue outer
			}
		}
		return nil, fmt.Errorf("unknown model %q", id)
	}
	return out, nil
}

type renderRequest struct {
	agentconfig.Record
	OS     string `json:"os"`
	Format string `json:"format"`
}

type renderResponse struct {
	FileName string             `json:"fileName"`
	Content  string             `json:"content"`
	Valid    bool               `json:"valid"`
	Errors   agentconfig.Errors `json:"errors,omitempty"`
}

func (s *Server) renderConfig(w http.ResponseWriter, r *http.Request) {
	req := renderRequest{Record: agentconfig.New()}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := agentconfig.ParseOS(req.OS)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := agentconfig.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := req.Record.Render(target, format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	errs := req.Record.Validate()
	writeJSON(w, http.StatusOK, renderResponse{
		FileName: format.FileName(),
		Content:  content,
		Valid:    len(errs) == 0,
		Errors:   errs,
	})
}

func (s *Server) testConfig(w http.ResponseWriter, r *http.Request) {
	var llm agentconfig.LLM
	if err := decodeBody(w, r, &llm); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Prober.Test(r.Context(), llm))
}

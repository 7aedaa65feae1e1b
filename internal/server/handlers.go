package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// StructureResponse represents the response envelope for /structure
type StructureResponse struct {
	Success               bool             `json:"success"`
	Data                  *types.JobRecord `json:"data,omitempty"`
	Error                 string           `json:"error,omitempty"`
	Usage                 *types.Usage     `json:"usage,omitempty"`
	ProcessingTimeSeconds float64          `json:"processing_time_seconds"`
}

// ArtifactResponse represents the response for /runs/{id}/artifacts/{step}
type ArtifactResponse struct {
	RunID   string          `json:"run_id"`
	Step    string          `json:"step"`
	Content json.RawMessage `json:"content"`
}

// handleStructure runs the extraction stage on a raw job posting
func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	var req types.StructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	job, usage, err := s.pipeline.Structure(r.Context(), &req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.jsonResponse(w, HTTPStatus(err), StructureResponse{
			Success:               false,
			Error:                 err.Error(),
			ProcessingTimeSeconds: elapsed,
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, StructureResponse{
		Success:               true,
		Data:                  job,
		Usage:                 &usage,
		ProcessingTimeSeconds: elapsed,
	})
}

// handleProcess runs the full pipeline
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req types.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.pipeline.Process(r.Context(), &req)
	if err != nil {
		if result != nil {
			// Aborted runs still carry the abort reason and stage timings.
			s.jsonResponse(w, HTTPStatus(err), result)
			return
		}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleListRuns lists persisted runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run persistence is not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list runs: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun returns a single persisted run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run persistence is not configured")
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get run: "+err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, run)
}

// handleGetArtifact returns one saved artifact of a run
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run persistence is not configured")
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	step := r.PathValue("step")
	content, err := s.store.GetArtifact(r.Context(), runID, step)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get artifact: "+err.Error())
		return
	}
	if content == nil {
		s.errorResponse(w, http.StatusNotFound, "Artifact not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, ArtifactResponse{
		RunID:   runID.String(),
		Step:    step,
		Content: content,
	})
}

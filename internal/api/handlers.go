package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/portfolio-engine/internal/timeseries"
)

// computeResponse acknowledges a completed computation trigger.
type computeResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId,omitempty"`
}

func (s *Server) handleComputePerformance(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if err := s.computation.ComputeSessionPerformance(r.Context(), sessionID); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, computeResponse{Status: "completed", SessionID: sessionID})
}

func (s *Server) handleComputeRankings(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if err := s.computation.ComputeAndStoreSessionRankings(r.Context(), sessionID); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, computeResponse{Status: "completed", SessionID: sessionID})
}

func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	if err := s.computation.ComputeAllActiveSessionsPerformance(r.Context()); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, computeResponse{Status: "completed"})
}

func (s *Server) handleGetRankings(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	records, err := s.rankings.ListForSession(r.Context(), sessionID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"rankings":  records,
	})
}

func (s *Server) handleGetPerformance(w http.ResponseWriter, r *http.Request) {
	portfolioID := mux.Vars(r)["portfolioID"]

	// Absent bounds default to all recorded history.
	start := timeseries.Date{}
	end := timeseries.Today()
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if start, err = timeseries.ParseDate(v); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "from must be YYYY-MM-DD", nil)
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if end, err = timeseries.ParseDate(v); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "to must be YYYY-MM-DD", nil)
			return
		}
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "to must not precede from", nil)
		return
	}

	records, err := s.performance.GetRange(r.Context(), portfolioID, start, end)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"portfolioId": portfolioID,
		"records":     records,
	})
}

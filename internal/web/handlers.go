package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sweeney/plant-bridge/internal/auth"
	"github.com/sweeney/plant-bridge/internal/settings"
	"github.com/sweeney/plant-bridge/internal/status"
)

const defaultHistoryLimit = 100

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// requireAuth validates the bearer token once per request, the same
// one-shot check the hub runs once per connection.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing credential"})
			return
		}

		_, err := s.gate.Validate(r.Context(), credential)
		switch {
		case errors.Is(err, auth.ErrInvalidCredential):
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credential"})
			return
		case err != nil:
			s.log.Error("credential validation failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, errorBody{Error: "authentication unavailable"})
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// settingsResponse matches what the front end expects from a save.
type settingsResponse struct {
	Settings settings.Settings `json:"settings"`
}

func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request) {
	var p settings.Partial
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		// Only an unreadable body fails the request; mistyped fields
		// inside a readable one are ignored per field by the merge.
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed settings document"})
		return
	}
	merged := s.settings.Merge(p)
	writeJSON(w, http.StatusOK, settingsResponse{Settings: merged})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	samples := s.history.Recent(limit)
	if samples == nil {
		// Empty history is an empty array, not null.
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

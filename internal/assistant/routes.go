package assistant

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/data-alchemist/internal/confidence"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
)

// maxBatch bounds the number of inputs accepted by one batch request.
const maxBatch = 100

// ParseRequest is the body of POST /api/assistant/parse. Either Input or
// Inputs is set.
type ParseRequest struct {
	Input  string   `json:"input"`
	Inputs []string `json:"inputs,omitempty"`
}

// RegisterRoutes mounts the assistant endpoints. scores may be nil.
func RegisterRoutes(r chi.Router, parser *Parser, data confidence.DatasetSource, scores *confidence.Store) {
	r.Post("/api/assistant/parse", parseHandler(parser, data, scores))
	r.Get("/api/assistant/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"aiEnabled": parser.AIEnabled()})
	})
}

func parseHandler(parser *Parser, data confidence.DatasetSource, scores *confidence.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ParseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			return
		}
		inputs := req.Inputs
		if strings.TrimSpace(req.Input) != "" {
			inputs = append([]string{req.Input}, inputs...)
		}
		if len(inputs) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input is required"})
			return
		}
		if len(inputs) > maxBatch {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "too many inputs"})
			return
		}

		var ds *entities.Dataset
		if data != nil {
			ds = data.Dataset()
		}
		suggestions := parser.ParseBatch(r.Context(), inputs, ds, nil)
		if scores != nil {
			for _, s := range suggestions {
				if err := scores.RecordResult(r.Context(), s.Input, string(s.Type), s.Confidence, s.Source); err != nil {
					log.Printf("assistant: recording score: %v", err)
				}
			}
		}

		if req.Input != "" && len(req.Inputs) == 0 && len(suggestions) == 1 {
			writeJSON(w, http.StatusOK, suggestions[0])
			return
		}
		writeJSON(w, http.StatusOK, suggestions)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

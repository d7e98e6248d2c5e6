package confidence

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
)

// DatasetSource supplies the dataset rules are scored against.
type DatasetSource interface {
	Dataset() *entities.Dataset
}

// ScoreRequest is the body of POST /api/confidence/score.
type ScoreRequest struct {
	Input  string          `json:"input"`
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// RegisterRoutes mounts the confidence API endpoints on the given router.
// store may be nil, in which case scores are not recorded and the history
// endpoints are not mounted.
func RegisterRoutes(r chi.Router, store *Store, data DatasetSource) {
	r.Post("/api/confidence/score", scoreHandler(store, data))
	if store == nil {
		return
	}
	r.Get("/api/confidence", listHandler(store))
	r.Get("/api/confidence/stats", statsHandler(store))
}

func scoreHandler(store *Store, data DatasetSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			return
		}
		t, err := rules.ParseType(req.Type)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		var spec rules.Spec
		if len(req.Config) > 0 && string(req.Config) != "null" {
			spec, err = rules.DecodeSpec(t, req.Config)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
		}

		var ds *entities.Dataset
		if data != nil {
			ds = data.Dataset()
		}
		res := Calculate(req.Input, t, spec, ds)
		if store != nil {
			if err := store.RecordResult(r.Context(), req.Input, string(t), res, SourceManual); err != nil {
				log.Printf("confidence: recording score: %v", err)
			}
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func listHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{
			RuleType:  r.URL.Query().Get("type"),
			Threshold: Threshold(r.URL.Query().Get("threshold")),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				filter.Limit = n
			}
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				filter.Offset = n
			}
		}

		results, err := store.List(r.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if results == nil {
			results = []Record{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func statsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Stats(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

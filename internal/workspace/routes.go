package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/weights"
)

const maxBody = 8 << 20

// RegisterRoutes mounts rule, conflict, weight and dataset endpoints.
func RegisterRoutes(r chi.Router, ws *Workspace) {
	r.Route("/api/rules", func(r chi.Router) {
		r.Get("/", handleListRules(ws))
		r.Post("/", handleCreateRule(ws))
		r.Get("/{id}", handleGetRule(ws))
		r.Put("/{id}", handleUpdateRule(ws))
		r.Delete("/{id}", handleDeleteRule(ws))
		r.Post("/{id}/toggle", handleToggleRule(ws))
		r.Get("/{id}/validation", handleValidateRule(ws))
	})
	r.Get("/api/conflicts", handleConflicts(ws))

	r.Route("/api/weights", func(r chi.Router) {
		r.Get("/", handleGetWeights(ws))
		r.Put("/", handleSetWeights(ws))
		r.Post("/ranking", handleRanking(ws))
		r.Post("/ahp", handleAHP(ws))
		r.Get("/presets", handleListPresets())
		r.Post("/presets/{name}", handleApplyPreset(ws))
	})

	r.Get("/api/dataset", handleGetDataset(ws))
	r.Put("/api/dataset", handleSetDataset(ws))
}

// ConflictReport is the /api/conflicts response body.
type ConflictReport struct {
	Total     int              `json:"total"`
	Errors    int              `json:"errors"`
	Warnings  int              `json:"warnings"`
	Conflicts []rules.Conflict `json:"conflicts"`
}

// NewConflictReport tallies conflicts by severity.
func NewConflictReport(conflicts []rules.Conflict) ConflictReport {
	rep := ConflictReport{Total: len(conflicts), Conflicts: conflicts}
	for _, c := range conflicts {
		if c.Severity == rules.SeverityError {
			rep.Errors++
		} else {
			rep.Warnings++
		}
	}
	return rep
}

type ruleHeader struct {
	Type        rules.Type `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

// headerFields are the rule keys that are not part of a variant config.
var headerFields = map[string]bool{
	"id": true, "type": true, "name": true, "description": true,
	"isActive": true, "createdAt": true, "updatedAt": true,
}

func handleListRules(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := ws.Rules()
		if r.URL.Query().Get("active") == "true" {
			list = rules.Active(list)
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleCreateRule(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var h ruleHeader
		if err := json.Unmarshal(body, &h); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		spec, err := rules.DecodeSpec(h.Type, body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rule, err := ws.AddRule(h.Name, h.Description, spec)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, rule)
	}
}

func handleGetRule(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rule, err := ws.Rule(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

func handleUpdateRule(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, err := ws.Rule(id)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var patch rules.Patch
		if err := json.Unmarshal(body, &patch); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}

		t := current.Type()
		if raw, ok := fields["type"]; ok {
			if err := json.Unmarshal(raw, &t); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		if t != current.Type() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s to %s", ErrTypeChange, current.Type(), t))
			return
		}
		if hasConfig(fields) {
			// Partial configs are merged over the current one.
			merged, err := mergeConfig(current.Spec, fields)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if patch.Spec, err = rules.DecodeSpec(t, merged); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}

		rule, err := ws.UpdateRule(id, patch)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

func hasConfig(fields map[string]json.RawMessage) bool {
	for k := range fields {
		if !headerFields[k] {
			return true
		}
	}
	return false
}

func mergeConfig(spec rules.Spec, fields map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if !headerFields[k] {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

func handleDeleteRule(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ws.DeleteRule(chi.URLParam(r, "id")); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleToggleRule(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rule, err := ws.ToggleRule(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

func handleValidateRule(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		errs, err := ws.Validate(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"valid":  len(errs) == 0,
			"errors": errs,
		})
	}
}

func handleConflicts(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, NewConflictReport(ws.Conflicts()))
	}
}

func handleGetWeights(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := ws.Weights()
		writeJSON(w, http.StatusOK, map[string]any{
			"weights":     state.Weights,
			"mode":        state.Mode,
			"preset":      state.Preset,
			"ranking":     state.Ranking,
			"matrix":      state.Matrix,
			"ahp":         state.AHP,
			"normalized":  state.Weights.Normalize(),
			"percentages": state.Weights.Percentages(),
		})
	}
}

func handleSetWeights(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pw weights.PriorityWeights
		if err := json.NewDecoder(r.Body).Decode(&pw); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if err := ws.SetWeights(pw); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, ws.Weights())
	}
}

func handleRanking(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Ranking []weights.Criterion `json:"ranking"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if _, err := ws.ApplyRanking(req.Ranking); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, ws.Weights())
	}
}

func handleAHP(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Matrix *weights.Matrix `json:"matrix"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid matrix: %w", err))
			return
		}
		res, err := ws.ApplyAHP(req.Matrix)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleListPresets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, weights.Presets())
	}
}

func handleApplyPreset(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := ws.ApplyPreset(chi.URLParam(r, "name")); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, ws.Weights())
	}
}

func handleGetDataset(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := ws.Dataset()
		writeJSON(w, http.StatusOK, map[string]any{
			"summary":      ds.Summary(),
			"taskIds":      ds.TaskIDs(),
			"workerGroups": ds.WorkerGroups(),
			"clientGroups": ds.ClientGroups(),
			"skills":       ds.Skills(),
		})
	}
}

func handleSetDataset(ws *Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ds entities.Dataset
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&ds); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid dataset: %w", err))
			return
		}
		ws.SetDataset(&ds)
		writeJSON(w, http.StatusOK, ds.Summary())
	}
}

func statusFor(err error) int {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrRuleNotFound), errors.Is(err, weights.ErrUnknownPreset):
		return http.StatusNotFound
	case errors.As(err, &verr), errors.Is(err, ErrTypeChange), errors.Is(err, rules.ErrUnknownType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]any{"error": err.Error()}
	var verr *ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Errors
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

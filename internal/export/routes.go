package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/data-alchemist/internal/audit"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

// RegisterRoutes mounts the download endpoints. rec may be nil.
func RegisterRoutes(r chi.Router, ws *workspace.Workspace, rec workspace.Recorder) {
	r.Route("/api/export", func(r chi.Router) {
		r.Get("/rules.json", handleRules(ws, rec))
		r.Get("/report.html", handleReport(ws, rec))
		r.Get("/{entity}.csv", handleCSV(ws, rec))
	})
}

func handleRules(ws *workspace.Workspace, rec workspace.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := Build(InputFrom(ws))
		serve(w, r, rec, RulesFile, "application/json", func(out io.Writer) error {
			return WriteRules(out, doc)
		}, fmt.Sprintf("Exported %d rules", doc.Metadata.ActiveRules))
	}
}

func handleReport(ws *workspace.Workspace, rec workspace.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := Build(InputFrom(ws))
		serve(w, r, rec, ReportFile, "text/html; charset=utf-8", func(out io.Writer) error {
			return WriteReport(out, doc)
		}, "Exported report")
	}
}

func handleCSV(ws *workspace.Workspace, rec workspace.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := entities.Kind(chi.URLParam(r, "entity"))
		switch kind {
		case entities.KindClients, entities.KindWorkers, entities.KindTasks:
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown entity %q", kind)})
			return
		}
		ds := ws.Dataset()
		serve(w, r, rec, CSVFile(kind), "text/csv; charset=utf-8", func(out io.Writer) error {
			return WriteCSV(out, kind, ds)
		}, fmt.Sprintf("Exported %s", CSVFile(kind)))
	}
}

// serve renders into a buffer first so a failure still yields a JSON error.
func serve(w http.ResponseWriter, r *http.Request, rec workspace.Recorder, name, contentType string, render func(io.Writer) error, summary string) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rec != nil {
		rec.Record(r.Context(), audit.ActionExported, audit.SubjectExport, name, summary, nil, nil)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

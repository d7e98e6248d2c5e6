package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/data-alchemist/internal/entities"
)

// Bundle file names.
const (
	RulesFile  = "rules.json"
	ReportFile = "report.html"
)

// CSVFile returns the bundle file name for an entity collection.
func CSVFile(kind entities.Kind) string { return string(kind) + ".csv" }

// WriteRules writes doc as indented JSON.
func WriteRules(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding rules document: %w", err)
	}
	return nil
}

// WriteBundle writes the cleaned CSV files, rules.json and report.html into
// dir, creating it if needed. It returns the paths written.
func WriteBundle(dir string, doc Document, ds *entities.Dataset) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var written []string
	write := func(name string, render func(io.Writer) error) error {
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return err
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
		written = append(written, p)
		return nil
	}

	for _, kind := range []entities.Kind{entities.KindClients, entities.KindWorkers, entities.KindTasks} {
		if err := write(CSVFile(kind), func(w io.Writer) error { return WriteCSV(w, kind, ds) }); err != nil {
			return written, err
		}
	}
	if err := write(RulesFile, func(w io.Writer) error { return WriteRules(w, doc) }); err != nil {
		return written, err
	}
	if err := write(ReportFile, func(w io.Writer) error { return WriteReport(w, doc) }); err != nil {
		return written, err
	}
	return written, nil
}

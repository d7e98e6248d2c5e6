package entities

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind identifies an entity collection.
type Kind string

const (
	KindClients Kind = "clients"
	KindWorkers Kind = "workers"
	KindTasks   Kind = "tasks"
)

// filePatterns maps each entity kind to the glob its file base name must match.
var filePatterns = map[Kind]string{
	KindClients: "*client*.csv",
	KindWorkers: "*worker*.csv",
	KindTasks:   "*task*.csv",
}

// ErrNoDataFiles is returned by LoadDir when no recognizable CSV file exists.
var ErrNoDataFiles = errors.New("no client, worker or task CSV files found")

// LoadIssue records a cell that could not be parsed. Loading continues past
// issues; the affected numeric field is left at zero.
type LoadIssue struct {
	File    string `json:"file"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

// LoadDir discovers client, worker and task CSV files anywhere below dir and
// decodes them into a Dataset. When several files match a kind they are
// concatenated in lexical path order.
func LoadDir(dir string) (*Dataset, []LoadIssue, error) {
	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, "**/*.{csv,CSV}")
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(matches)

	ds := &Dataset{}
	var issues []LoadIssue
	found := 0
	for _, rel := range matches {
		kind, ok := classify(rel)
		if !ok {
			continue
		}
		found++
		fileIssues, err := loadFile(fsys, rel, kind, ds)
		if err != nil {
			return nil, nil, err
		}
		issues = append(issues, fileIssues...)
	}
	if found == 0 {
		return nil, nil, fmt.Errorf("%s: %w", dir, ErrNoDataFiles)
	}
	return ds, issues, nil
}

// LoadJSON reads a dataset document of the form
// {"clients":[...],"workers":[...],"tasks":[...]}.
func LoadJSON(filePath string) (*Dataset, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", filePath, err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", filePath, err)
	}
	return &ds, nil
}

// Load accepts either a directory of CSV files or a JSON dataset file.
func Load(p string) (*Dataset, []LoadIssue, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, nil, fmt.Errorf("accessing dataset %s: %w", p, err)
	}
	if info.IsDir() {
		return LoadDir(p)
	}
	ds, err := LoadJSON(p)
	return ds, nil, err
}

func classify(rel string) (Kind, bool) {
	base := strings.ToLower(path.Base(rel))
	for _, kind := range []Kind{KindClients, KindWorkers, KindTasks} {
		if ok, _ := doublestar.Match(filePatterns[kind], base); ok {
			return kind, true
		}
	}
	return "", false
}

func loadFile(fsys fs.FS, rel string, kind Kind, ds *Dataset) ([]LoadIssue, error) {
	f, err := fsys.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", rel, err)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}

	var issues []LoadIssue
	for i, row := range rows {
		r := rowReader{row: row, file: rel, line: i + 2, issues: &issues}
		switch kind {
		case KindClients:
			ds.Clients = append(ds.Clients, Client{
				ClientID:         r.str("ClientID"),
				ClientName:       r.str("ClientName"),
				PriorityLevel:    r.num("PriorityLevel"),
				RequestedTaskIDs: r.str("RequestedTaskIDs"),
				GroupTag:         r.str("GroupTag"),
				AttributesJSON:   r.str("AttributesJSON"),
			})
		case KindWorkers:
			ds.Workers = append(ds.Workers, Worker{
				WorkerID:           r.str("WorkerID"),
				WorkerName:         r.str("WorkerName"),
				Skills:             r.str("Skills"),
				AvailableSlots:     r.str("AvailableSlots"),
				MaxLoadPerPhase:    r.num("MaxLoadPerPhase"),
				WorkerGroup:        r.str("WorkerGroup"),
				QualificationLevel: r.num("QualificationLevel"),
			})
		case KindTasks:
			ds.Tasks = append(ds.Tasks, Task{
				TaskID:          r.str("TaskID"),
				TaskName:        r.str("TaskName"),
				Category:        r.str("Category"),
				Duration:        r.num("Duration"),
				RequiredSkills:  r.str("RequiredSkills"),
				PreferredPhases: r.str("PreferredPhases"),
				MaxConcurrent:   r.num("MaxConcurrent"),
			})
		}
	}
	return issues, nil
}

// readRows reads a CSV stream into header-keyed rows. Header names are
// normalized so "Client ID", "client_id" and "ClientID" all map to the same key.
func readRows(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = normalizeHeader(h)
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(keys))
		for i, v := range record {
			if i < len(keys) {
				row[keys[i]] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if r == ' ' || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowReader struct {
	row    map[string]string
	file   string
	line   int
	issues *[]LoadIssue
}

func (r rowReader) str(column string) string {
	return r.row[normalizeHeader(column)]
}

func (r rowReader) issue(column, message string) {
	*r.issues = append(*r.issues, LoadIssue{File: r.file, Row: r.line, Column: column, Message: message})
}

func (r rowReader) num(column string) int {
	v := r.str(column)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		switch {
		case ferr != nil:
			r.issue(column, fmt.Sprintf("%q is not a number", v))
		case f != math.Trunc(f):
			r.issue(column, fmt.Sprintf("%q is not a whole number", v))
		case f < math.MinInt32 || f > math.MaxInt32:
			r.issue(column, fmt.Sprintf("%q is out of range", v))
		default:
			return int(f)
		}
		return 0
	}
	return n
}

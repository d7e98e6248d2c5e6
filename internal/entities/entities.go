package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Client is a customer requesting tasks. Field names match the uploaded
// spreadsheet headers.
type Client struct {
	ClientID         string `json:"ClientID"`
	ClientName       string `json:"ClientName"`
	PriorityLevel    int    `json:"PriorityLevel"`
	RequestedTaskIDs string `json:"RequestedTaskIDs"`
	GroupTag         string `json:"GroupTag"`
	AttributesJSON   string `json:"AttributesJSON"`
}

// Worker is a resource that can be allocated to tasks.
type Worker struct {
	WorkerID           string `json:"WorkerID"`
	WorkerName         string `json:"WorkerName"`
	Skills             string `json:"Skills"`
	AvailableSlots     string `json:"AvailableSlots"`
	MaxLoadPerPhase    int    `json:"MaxLoadPerPhase"`
	WorkerGroup        string `json:"WorkerGroup"`
	QualificationLevel int    `json:"QualificationLevel"`
}

// Task is a unit of work to be scheduled into one or more phases.
type Task struct {
	TaskID          string `json:"TaskID"`
	TaskName        string `json:"TaskName"`
	Category        string `json:"Category"`
	Duration        int    `json:"Duration"`
	RequiredSkills  string `json:"RequiredSkills"`
	PreferredPhases string `json:"PreferredPhases"`
	MaxConcurrent   int    `json:"MaxConcurrent"`
}

// RequestedTasks returns the client's requested task IDs.
func (c Client) RequestedTasks() []string { return SplitList(c.RequestedTaskIDs) }

// Attributes decodes AttributesJSON. An empty string yields an empty map.
func (c Client) Attributes() (map[string]any, error) {
	attrs := map[string]any{}
	if strings.TrimSpace(c.AttributesJSON) == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(c.AttributesJSON), &attrs); err != nil {
		return nil, fmt.Errorf("client %s: invalid AttributesJSON: %w", c.ClientID, err)
	}
	return attrs, nil
}

// SkillList returns the worker's skills.
func (w Worker) SkillList() []string { return SplitList(w.Skills) }

// Slots returns the phases the worker is available in.
func (w Worker) Slots() ([]int, error) { return ParsePhases(w.AvailableSlots) }

// SkillList returns the skills required by the task.
func (t Task) SkillList() []string { return SplitList(t.RequiredSkills) }

// Phases returns the task's preferred phases.
func (t Task) Phases() ([]int, error) { return ParsePhases(t.PreferredPhases) }

// Dataset is the read-only input handed to the rules core.
type Dataset struct {
	Clients []Client `json:"clients"`
	Workers []Worker `json:"workers"`
	Tasks   []Task   `json:"tasks"`
}

// Summary holds entity counts.
type Summary struct {
	Clients int `json:"clients"`
	Workers int `json:"workers"`
	Tasks   int `json:"tasks"`
}

// Summary returns the entity counts of the dataset.
func (d *Dataset) Summary() Summary {
	if d == nil {
		return Summary{}
	}
	return Summary{Clients: len(d.Clients), Workers: len(d.Workers), Tasks: len(d.Tasks)}
}

// IsEmpty reports whether the dataset holds no entities at all.
func (d *Dataset) IsEmpty() bool {
	s := d.Summary()
	return s.Clients == 0 && s.Workers == 0 && s.Tasks == 0
}

// TaskIDs returns all non-empty task identifiers in file order.
func (d *Dataset) TaskIDs() []string {
	if d == nil {
		return nil
	}
	var ids []string
	for _, t := range d.Tasks {
		if id := strings.TrimSpace(t.TaskID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// WorkerGroups returns the distinct worker groups in first-seen order.
func (d *Dataset) WorkerGroups() []string {
	if d == nil {
		return nil
	}
	var values []string
	for _, w := range d.Workers {
		values = append(values, w.WorkerGroup)
	}
	return distinct(values)
}

// ClientGroups returns the distinct client group tags in first-seen order.
func (d *Dataset) ClientGroups() []string {
	if d == nil {
		return nil
	}
	var values []string
	for _, c := range d.Clients {
		values = append(values, c.GroupTag)
	}
	return distinct(values)
}

// Skills returns every distinct skill mentioned by workers or tasks.
func (d *Dataset) Skills() []string {
	if d == nil {
		return nil
	}
	var values []string
	for _, w := range d.Workers {
		values = append(values, w.SkillList()...)
	}
	for _, t := range d.Tasks {
		values = append(values, t.SkillList()...)
	}
	return distinct(values)
}

// HasTask reports whether a task with the given ID exists (case-insensitive).
func (d *Dataset) HasTask(id string) bool {
	return containsFold(d.TaskIDs(), id)
}

// HasWorkerGroup reports whether any worker belongs to group (case-insensitive).
func (d *Dataset) HasWorkerGroup(group string) bool {
	return containsFold(d.WorkerGroups(), group)
}

// HasClientGroup reports whether any client carries the group tag (case-insensitive).
func (d *Dataset) HasClientGroup(group string) bool {
	return containsFold(d.ClientGroups(), group)
}

// WorkersInGroup returns the workers of a group (case-insensitive).
func (d *Dataset) WorkersInGroup(group string) []Worker {
	if d == nil {
		return nil
	}
	var out []Worker
	for _, w := range d.Workers {
		if strings.EqualFold(strings.TrimSpace(w.WorkerGroup), strings.TrimSpace(group)) {
			out = append(out, w)
		}
	}
	return out
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() Dataset {
	if d == nil {
		return Dataset{}
	}
	return Dataset{
		Clients: append([]Client(nil), d.Clients...),
		Workers: append([]Worker(nil), d.Workers...),
		Tasks:   append([]Task(nil), d.Tasks...),
	}
}

func distinct(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func containsFold(values []string, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// Package audit records who changed which rule, weight or dataset and when.
package audit

import "time"

// Action describes what was done.
type Action string

const (
	ActionRuleCreated      Action = "rule_created"
	ActionRuleUpdated      Action = "rule_updated"
	ActionRuleDeleted      Action = "rule_deleted"
	ActionRuleToggled      Action = "rule_toggled"
	ActionWeightsChanged   Action = "weights_changed"
	ActionDatasetLoaded    Action = "dataset_loaded"
	ActionSnapshotRestored Action = "snapshot_restored"
	ActionExported         Action = "exported"
)

// Subject is the kind of thing an action applies to.
type Subject string

const (
	SubjectRule     Subject = "rule"
	SubjectWeights  Subject = "weights"
	SubjectDataset  Subject = "dataset"
	SubjectSnapshot Subject = "snapshot"
	SubjectExport   Subject = "export"
)

// DefaultActor is recorded when a change has no named actor.
const DefaultActor = "system"

// Entry is a single audit trail record. PreviousValue and NewValue hold JSON
// encodings of the subject before and after the change.
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Actor         string    `json:"actor"`
	Action        Action    `json:"action"`
	Subject       Subject   `json:"subject"`
	SubjectID     string    `json:"subjectId,omitempty"`
	Summary       string    `json:"summary"`
	PreviousValue string    `json:"previousValue,omitempty"`
	NewValue      string    `json:"newValue,omitempty"`
}

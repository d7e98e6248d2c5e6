// Package snapshot persists versioned, checksummed copies of the workspace
// so it can be restored after a crash.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/weights"
)

// CurrentVersion is the snapshot format written by this build.
const CurrentVersion = "1.0"

var (
	ErrVersionMismatch  = errors.New("snapshot version mismatch")
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)

// Snapshot is the persisted state of a workspace.
type Snapshot struct {
	Version  string                  `json:"version"`
	SavedAt  time.Time               `json:"savedAt"`
	Rules    []rules.BusinessRule    `json:"rules"`
	Weights  weights.PriorityWeights `json:"weights"`
	Mode     weights.Mode            `json:"mode"`
	Ranking  []weights.Criterion     `json:"ranking,omitempty"`
	AHP      *weights.Matrix         `json:"ahp,omitempty"`
	Checksum string                  `json:"checksum"`
}

// Store saves and loads the most recent snapshot.
type Store interface {
	Save(ctx context.Context, s Snapshot) error
	// Load returns nil, nil when nothing has been saved yet.
	Load(ctx context.Context) (*Snapshot, error)
}

// Seal stamps the current version and checksum onto s.
func Seal(s Snapshot) (Snapshot, error) {
	s.Version = CurrentVersion
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}
	s.SavedAt = s.SavedAt.UTC()
	if s.Rules == nil {
		s.Rules = []rules.BusinessRule{}
	}
	sum, err := Checksum(s)
	if err != nil {
		return Snapshot{}, err
	}
	s.Checksum = sum
	return s, nil
}

// Checksum returns the hex SHA-256 of the canonical JSON encoding of s with
// the checksum field blank.
func Checksum(s Snapshot) (string, error) {
	s.Checksum = ""
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Verify rejects snapshots from another format version or whose content does
// not match their checksum.
func Verify(s Snapshot) error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, s.Version, CurrentVersion)
	}
	sum, err := Checksum(s)
	if err != nil {
		return err
	}
	if sum != s.Checksum {
		return ErrChecksumMismatch
	}
	return nil
}

// Decode parses and verifies a stored snapshot.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if err := Verify(s); err != nil {
		return nil, err
	}
	return &s, nil
}

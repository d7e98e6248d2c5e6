package confidence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/data-alchemist/internal/db"
)

// Store persists scoring history.
type Store struct {
	db *db.DB
}

// NewStore creates a new score history store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts a scoring event. If ID is empty, a new UUID is generated.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Source == "" {
		rec.Source = SourceHeuristic
	}
	factors, err := json.Marshal(rec.Factors)
	if err != nil {
		return fmt.Errorf("marshalling factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO confidence_scores (id, created_at, input, rule_type, overall, threshold, factors, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.UTC().Format(time.DateTime),
		rec.Input,
		rec.RuleType,
		rec.Overall,
		string(rec.Threshold),
		string(factors),
		string(rec.Source),
	)
	if err != nil {
		return fmt.Errorf("inserting score: %w", err)
	}
	return nil
}

// RecordResult stores a freshly calculated result.
func (s *Store) RecordResult(ctx context.Context, input string, t string, res Result, source Source) error {
	return s.Record(ctx, Record{
		Input:     input,
		RuleType:  t,
		Overall:   res.Overall,
		Threshold: res.Threshold,
		Factors:   res.Factors,
		Source:    source,
	})
}

// List returns score records matching the given filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	var conditions []string
	var args []interface{}

	if filter.RuleType != "" {
		conditions = append(conditions, "rule_type = ?")
		args = append(args, filter.RuleType)
	}
	if filter.Threshold != "" {
		conditions = append(conditions, "threshold = ?")
		args = append(args, string(filter.Threshold))
	}

	query := "SELECT id, created_at, input, rule_type, overall, threshold, factors, source FROM confidence_scores"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var (
			rec                  Record
			createdAt, threshold string
			factors, source      string
		)
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Input, &rec.RuleType, &rec.Overall, &threshold, &factors, &source); err != nil {
			return nil, err
		}
		rec.Threshold = Threshold(threshold)
		rec.Source = Source(source)
		if t, err := parseTime(createdAt); err == nil {
			rec.CreatedAt = t
		}
		if err := json.Unmarshal([]byte(factors), &rec.Factors); err != nil {
			return nil, fmt.Errorf("decoding factors of %s: %w", rec.ID, err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Stats returns aggregate counts of recorded scores.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByThreshold: make(map[Threshold]int)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT threshold, COUNT(*) FROM confidence_scores GROUP BY threshold`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var threshold string
		var n int
		if err := rows.Scan(&threshold, &n); err != nil {
			return nil, err
		}
		stats.ByThreshold[Threshold(threshold)] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if stats.Total > 0 {
		err = s.db.QueryRowContext(ctx, `SELECT AVG(overall) FROM confidence_scores`).Scan(&stats.MeanOverall)
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

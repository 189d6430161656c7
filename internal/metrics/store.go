package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mealplan-engine/internal/shared"
)

// GenerationMetric records metadata for a single LLM call made while
// generating a plan.
type GenerationMetric struct {
	PlanID           string
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	LatencyMS        int64
	Attempt          int
	Outcome          string
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m GenerationMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_metrics
		 (plan_id, agent_name, model, prompt_tokens, completion_tokens, total_tokens, latency_ms, attempt, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PlanID, m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens, m.TotalTokens, m.LatencyMS, m.Attempt, m.Outcome, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation metric: %w", err)
	}
	return nil
}

// RecordMeta records a metric directly from shared.AgentMeta.
func (s *Store) RecordMeta(ctx context.Context, planID, outcome string, meta shared.AgentMeta) error {
	return s.Record(ctx, GenerationMetric{
		PlanID:           planID,
		AgentName:        meta.AgentName,
		Model:            meta.Usage.Model,
		PromptTokens:     meta.Usage.PromptTokens,
		CompletionTokens: meta.Usage.CompletionTokens,
		TotalTokens:      meta.Usage.TotalTokens,
		LatencyMS:        meta.Latency.Milliseconds(),
		Attempt:          meta.Attempt,
		Outcome:          outcome,
	})
}

// ListByPlan retrieves every metric recorded for a stored plan, oldest first.
func (s *Store) ListByPlan(ctx context.Context, planID string) ([]GenerationMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT plan_id, agent_name, model, prompt_tokens, completion_tokens, total_tokens, latency_ms, attempt, outcome, created_at
		 FROM generation_metrics
		 WHERE plan_id = ?
		 ORDER BY created_at, id`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan metrics: %w", err)
	}
	defer rows.Close()

	var results []GenerationMetric
	for rows.Next() {
		var m GenerationMetric
		if err := rows.Scan(&m.PlanID, &m.AgentName, &m.Model, &m.PromptTokens, &m.CompletionTokens, &m.TotalTokens, &m.LatencyMS, &m.Attempt, &m.Outcome, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan plan metric: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	Calls           int
}

// GetDailyUsage retrieves usage for the last N days, oldest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx,
		`SELECT date(created_at) AS day,
		        COALESCE(SUM(prompt_tokens), 0),
		        COALESCE(SUM(completion_tokens), 0),
		        COUNT(*)
		 FROM generation_metrics
		 WHERE created_at >= ?
		 GROUP BY day ORDER BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.TotalPrompt, &u.TotalCompletion, &u.Calls); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup deletes metrics older than the retention window.
func (s *Store) Cleanup(ctx context.Context, retainDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retainDays)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM generation_metrics WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}

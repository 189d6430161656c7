package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/profile"
)

// StoredPlan is one generated plan as persisted.
type StoredPlan struct {
	ID             string
	PlanType       plan.Type
	Duration       int
	TargetCalories float64
	Profile        profile.UserProfile
	Plan           *plan.MealPlan
	CreatedAt      time.Time
}

// PlanRepository is a database-backed repository for generated meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *DB) *PlanRepository {
	return &PlanRepository{db: d.SQL}
}

// Save persists a generated plan with the request that produced it and
// returns the stored plan's id.
func (r *PlanRepository) Save(ctx context.Context, req plan.Request, p *plan.MealPlan) (string, error) {
	profileData, err := json.Marshal(req.Profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	planData, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, plan_type, duration, target_calories, profile_data, plan_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, string(req.PlanType), req.Duration, req.TargetCalories, profileData, planData, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return id, nil
}

// GetByID retrieves a single stored plan.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*StoredPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, plan_type, duration, target_calories, profile_data, plan_data, created_at
		 FROM meal_plans WHERE id = ?`, id)

	sp, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("meal plan %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan %s: %w", id, err)
	}
	return sp, nil
}

// ListRecent retrieves the N most recent stored plans, newest first.
func (r *PlanRepository) ListRecent(ctx context.Context, limit int) ([]*StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_type, duration, target_calories, profile_data, plan_data, created_at
		 FROM meal_plans ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	defer rows.Close()

	var plans []*StoredPlan
	for rows.Next() {
		sp, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, sp)
	}
	return plans, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (*StoredPlan, error) {
	var sp StoredPlan
	var planType string
	var profileData, planData []byte

	if err := s.Scan(&sp.ID, &planType, &sp.Duration, &sp.TargetCalories, &profileData, &planData, &sp.CreatedAt); err != nil {
		return nil, err
	}
	sp.PlanType = plan.Type(planType)

	if err := json.Unmarshal(profileData, &sp.Profile); err != nil {
		return nil, fmt.Errorf("corrupt profile data: %w", err)
	}
	sp.Plan = &plan.MealPlan{}
	if err := json.Unmarshal(planData, sp.Plan); err != nil {
		return nil, fmt.Errorf("corrupt plan data: %w", err)
	}
	return &sp, nil
}

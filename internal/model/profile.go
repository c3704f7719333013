package model

import "time"

// Plan is the entitlement tier stored on a profile.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Profile is the per-user row that carries the plan and the generation counter.
type Profile struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	Plan           Plan      `db:"plan" json:"plan"`
	ResourcesCount int       `db:"resources_count" json:"resources_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// IsPremium is the single entitlement predicate.
func (p *Profile) IsPremium() bool {
	return p != nil && p.Plan == PlanPremium
}

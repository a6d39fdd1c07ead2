package types

import "time"

// Entity carries the bookkeeping timestamps shared by persisted records.
// Embed this in domain types to get automatic timestamp handling.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity stamped with the given wall-clock time.
// A zero time falls back to time.Now.
func NewEntity(now time.Time) Entity {
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch moves UpdatedAt forward to now.
func (e *Entity) Touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	e.UpdatedAt = now.UTC()
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Package agent provides the field agent catalog. Agents carry stock on
// delivery trips and account for it on return.
package agent

import (
	"context"

	"ritel/internal/core/entity"
)

// Agent represents a field salesperson assigned to delivery trips.
type Agent struct {
	entity.Catalog

	// Phone is the contact number (optional)
	Phone string `db:"phone" json:"phone,omitempty"`

	// Active agents can be assigned to new trips
	Active bool `db:"active" json:"active"`
}

// NewAgent creates a new active agent.
func NewAgent(code, name string) *Agent {
	return &Agent{
		Catalog: entity.NewCatalog(code, name),
		Active:  true,
	}
}

// Validate implements entity.Validatable.
func (a *Agent) Validate(ctx context.Context) error {
	return a.Catalog.Validate(ctx)
}

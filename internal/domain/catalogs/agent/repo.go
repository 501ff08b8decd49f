package agent

import (
	"ritel/internal/domain"
)

// Repository defines the interface for Agent persistence.
type Repository interface {
	domain.CatalogRepository[*Agent]
}

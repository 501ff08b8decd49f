package catalog_repo

import (
	"ritel/internal/domain/catalogs/agent"
	"ritel/internal/infrastructure/storage/postgres"
)

// AgentRepo implements agent.Repository.
type AgentRepo struct {
	*BaseCatalogRepo[*agent.Agent]
}

var _ agent.Repository = (*AgentRepo)(nil)

// NewAgentRepo creates an agent repository.
func NewAgentRepo(txm *postgres.TxManager) *AgentRepo {
	return &AgentRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"agents",
			postgres.ExtractDBColumns[agent.Agent](),
			func() *agent.Agent { return &agent.Agent{} },
		),
	}
}

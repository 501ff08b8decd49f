package handlers

import (
	"ritel/internal/domain/catalogs/agent"
	"ritel/internal/domain/catalogs/customer"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/domain/catalogs/supplier"
	"ritel/internal/infrastructure/http/v1/dto"
)

// ItemHandler serves the item catalog.
type ItemHandler = CatalogHandler[*item.Item, dto.CreateItemRequest, dto.UpdateItemRequest]

// NewItemHandler creates the item catalog handler.
func NewItemHandler(base *BaseHandler, service *item.Service) *ItemHandler {
	return NewCatalogHandler(base, CatalogService[*item.Item](service),
		func(req dto.CreateItemRequest) *item.Item {
			return req.ToModel()
		},
		func(req dto.UpdateItemRequest, existing *item.Item) *item.Item {
			req.Apply(existing)
			return existing
		},
	)
}

// SupplierHandler serves the supplier catalog.
type SupplierHandler = CatalogHandler[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]

// NewSupplierHandler creates the supplier catalog handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	return NewCatalogHandler(base, CatalogService[*supplier.Supplier](service),
		func(req dto.CreateSupplierRequest) *supplier.Supplier {
			return req.ToModel()
		},
		func(req dto.UpdateSupplierRequest, existing *supplier.Supplier) *supplier.Supplier {
			req.Apply(existing)
			return existing
		},
	)
}

// CustomerHandler serves the customer catalog.
type CustomerHandler = CatalogHandler[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]

// NewCustomerHandler creates the customer catalog handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return NewCatalogHandler(base, CatalogService[*customer.Customer](service),
		func(req dto.CreateCustomerRequest) *customer.Customer {
			return req.ToModel()
		},
		func(req dto.UpdateCustomerRequest, existing *customer.Customer) *customer.Customer {
			req.Apply(existing)
			return existing
		},
	)
}

// AgentHandler serves the field agent catalog.
type AgentHandler = CatalogHandler[*agent.Agent, dto.CreateAgentRequest, dto.UpdateAgentRequest]

// NewAgentHandler creates the agent catalog handler.
func NewAgentHandler(base *BaseHandler, service *agent.Service) *AgentHandler {
	return NewCatalogHandler(base, CatalogService[*agent.Agent](service),
		func(req dto.CreateAgentRequest) *agent.Agent {
			return req.ToModel()
		},
		func(req dto.UpdateAgentRequest, existing *agent.Agent) *agent.Agent {
			req.Apply(existing)
			return existing
		},
	)
}

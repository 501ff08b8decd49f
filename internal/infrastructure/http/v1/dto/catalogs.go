package dto

import (
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/agent"
	"ritel/internal/domain/catalogs/customer"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/domain/catalogs/supplier"
)

// --- Items ---

// CreateItemRequest for creating items.
type CreateItemRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name" binding:"required"`
	UnitsPerPackage int64  `json:"unitsPerPackage" binding:"required,min=1"`
	DailySaleLimit  *int64 `json:"dailySaleLimit"`
	CostPrice       int64  `json:"costPrice" binding:"min=0"`
	SalePrice       int64  `json:"salePrice" binding:"min=0"`
}

// ToModel builds the catalog entity.
func (r CreateItemRequest) ToModel() *item.Item {
	it := item.NewItem(r.Code, r.Name, types.Quantity(r.UnitsPerPackage))
	if r.DailySaleLimit != nil {
		limit := types.Quantity(*r.DailySaleLimit)
		it.DailySaleLimit = &limit
	}
	it.CostPrice = types.MinorUnits(r.CostPrice)
	it.SalePrice = types.MinorUnits(r.SalePrice)
	return it
}

// UpdateItemRequest for updating items. OnHand is not writable over HTTP;
// stock changes go through documents.
type UpdateItemRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name" binding:"required"`
	UnitsPerPackage int64  `json:"unitsPerPackage" binding:"required,min=1"`
	DailySaleLimit  *int64 `json:"dailySaleLimit"`
	CostPrice       int64  `json:"costPrice" binding:"min=0"`
	SalePrice       int64  `json:"salePrice" binding:"min=0"`
	Version         int    `json:"version" binding:"required,min=1"`
}

// Apply writes the request fields onto an existing item.
func (r UpdateItemRequest) Apply(it *item.Item) {
	it.Code = r.Code
	it.Name = r.Name
	it.UnitsPerPackage = types.Quantity(r.UnitsPerPackage)
	it.DailySaleLimit = nil
	if r.DailySaleLimit != nil {
		limit := types.Quantity(*r.DailySaleLimit)
		it.DailySaleLimit = &limit
	}
	it.CostPrice = types.MinorUnits(r.CostPrice)
	it.SalePrice = types.MinorUnits(r.SalePrice)
	it.Version = r.Version
}

// AdjustStockRequest applies an operator stock correction outside any
// document. Delta is signed; the note explains the correction.
type AdjustStockRequest struct {
	Delta int64  `json:"delta" binding:"required"`
	Note  string `json:"note" binding:"required,max=200"`
}

// --- Suppliers ---

// CreateSupplierRequest for creating suppliers.
type CreateSupplierRequest struct {
	Code  string `json:"code"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// ToModel builds the catalog entity.
func (r CreateSupplierRequest) ToModel() *supplier.Supplier {
	s := supplier.NewSupplier(r.Code, r.Name)
	s.Phone = r.Phone
	return s
}

// UpdateSupplierRequest for updating suppliers. Payable is derived.
type UpdateSupplierRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Version int    `json:"version" binding:"required,min=1"`
}

// Apply writes the request fields onto an existing supplier.
func (r UpdateSupplierRequest) Apply(s *supplier.Supplier) {
	s.Code = r.Code
	s.Name = r.Name
	s.Phone = r.Phone
	s.Version = r.Version
}

// --- Customers ---

// CreateCustomerRequest for creating customers. A credit limit of zero
// means unlimited credit.
type CreateCustomerRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone"`
	CreditLimit int64  `json:"creditLimit" binding:"min=0"`
}

// ToModel builds the catalog entity.
func (r CreateCustomerRequest) ToModel() *customer.Customer {
	c := customer.NewCustomer(r.Code, r.Name, types.MinorUnits(r.CreditLimit))
	c.Phone = r.Phone
	return c
}

// UpdateCustomerRequest for updating customers. Receivable is derived.
type UpdateCustomerRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone"`
	CreditLimit int64  `json:"creditLimit" binding:"min=0"`
	Version     int    `json:"version" binding:"required,min=1"`
}

// Apply writes the request fields onto an existing customer.
func (r UpdateCustomerRequest) Apply(c *customer.Customer) {
	c.Code = r.Code
	c.Name = r.Name
	c.Phone = r.Phone
	c.CreditLimit = types.MinorUnits(r.CreditLimit)
	c.Version = r.Version
}

// --- Agents ---

// CreateAgentRequest for creating field agents.
type CreateAgentRequest struct {
	Code  string `json:"code"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// ToModel builds the catalog entity.
func (r CreateAgentRequest) ToModel() *agent.Agent {
	a := agent.NewAgent(r.Code, r.Name)
	a.Phone = r.Phone
	return a
}

// UpdateAgentRequest for updating agents.
type UpdateAgentRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Active  bool   `json:"active"`
	Version int    `json:"version" binding:"required,min=1"`
}

// Apply writes the request fields onto an existing agent.
func (r UpdateAgentRequest) Apply(a *agent.Agent) {
	a.Code = r.Code
	a.Name = r.Name
	a.Phone = r.Phone
	a.Active = r.Active
	a.Version = r.Version
}

package dto

import (
	"time"

	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/domain/documents"
	"ritel/internal/domain/documents/purchase"
	"ritel/internal/domain/documents/sale"
)

// --- Purchases ---

// CreatePurchaseRequest opens a purchase cart.
type CreatePurchaseRequest struct {
	SupplierID string `json:"supplierId" binding:"required,uuid"`
}

// AddPurchaseItemRequest puts packages of an item on the cart. Discount is
// the supplier discount per package.
type AddPurchaseItemRequest struct {
	ItemID      string `json:"itemId" binding:"required,uuid"`
	Packages    int64  `json:"packages" binding:"required,min=1"`
	PackageCost int64  `json:"packageCost" binding:"min=0"`
	Discount    int64  `json:"discount" binding:"min=0"`
}

// --- Sales ---

// CreateSaleRequest opens a sale cart. CustomerID is omitted for walk-ins.
type CreateSaleRequest struct {
	CustomerID string `json:"customerId" binding:"omitempty,uuid"`
}

// AddSaleItemRequest puts pieces of an item on the cart. A negative or
// omitted unit price uses the item's current sale price. Discount is granted
// per full package; loose pieces get a prorated share.
type AddSaleItemRequest struct {
	ItemID    string `json:"itemId" binding:"required,uuid"`
	Qty       int64  `json:"qty" binding:"required,min=1"`
	UnitPrice *int64 `json:"unitPrice"`
	Discount  int64  `json:"discount" binding:"min=0"`
}

// AdjustSaleRequest modifies a completed sale in place.
type AdjustSaleRequest struct {
	ItemID string `json:"itemId" binding:"required,uuid"`
	Kind   string `json:"kind" binding:"required,oneof=RETURN ADD"`
	Qty    int64  `json:"qty" binding:"required,min=1"`
}

// --- Shared checkout / payments ---

// CheckoutRequest finalizes a cart with its settlement.
type CheckoutRequest struct {
	Paid    int64      `json:"paid" binding:"min=0"`
	Method  string     `json:"method" binding:"omitempty,oneof=CASH TRANSFER"`
	DueDate *time.Time `json:"dueDate"`
}

// PayMethod returns the settlement method, defaulting to cash.
func (r CheckoutRequest) PayMethod() documents.PaymentMethod {
	if r.Method == "" {
		return documents.MethodCash
	}
	return documents.PaymentMethod(r.Method)
}

// PaymentRequest settles part or all of an outstanding document.
type PaymentRequest struct {
	Amount int64  `json:"amount" binding:"required,min=1"`
	Method string `json:"method" binding:"omitempty,oneof=CASH TRANSFER"`
}

// PayMethod returns the payment method, defaulting to cash.
func (r PaymentRequest) PayMethod() documents.PaymentMethod {
	if r.Method == "" {
		return documents.MethodCash
	}
	return documents.PaymentMethod(r.Method)
}

// PaymentResponse is one settlement row.
type PaymentResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// FromPayment converts a payment row.
func FromPayment(p documents.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		Code:      p.Code,
		Amount:    int64(p.Amount),
		Method:    string(p.Method),
		CreatedAt: p.CreatedAt,
		CreatedBy: p.CreatedBy,
	}
}

// FromPayments converts a settlement history.
func FromPayments(ps []documents.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromPayment(p))
	}
	return out
}

// --- List filters ---

// DocumentListRequest narrows document listings.
type DocumentListRequest struct {
	SupplierID string     `form:"supplierId" binding:"omitempty,uuid"`
	CustomerID string     `form:"customerId" binding:"omitempty,uuid"`
	Status     string     `form:"status" binding:"omitempty,oneof=CART COMPLETED CANCELLED"`
	PayStatus  string     `form:"payStatus" binding:"omitempty,oneof=PAID OWED"`
	DateFrom   *time.Time `form:"dateFrom"`
	DateTo     *time.Time `form:"dateTo"`
	Limit      int        `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset     int        `form:"offset" binding:"omitempty,min=0"`
}

// PurchaseFilter converts the request into a repository filter.
func (r DocumentListRequest) PurchaseFilter() (purchase.ListFilter, error) {
	f := purchase.ListFilter{
		DateFrom: r.DateFrom,
		DateTo:   r.DateTo,
		Limit:    r.Limit,
		Offset:   r.Offset,
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if r.SupplierID != "" {
		sid, err := id.Parse(r.SupplierID)
		if err != nil {
			return f, err
		}
		f.SupplierID = &sid
	}
	if r.Status != "" {
		st := entity.DocStatus(r.Status)
		f.Status = &st
	}
	if r.PayStatus != "" {
		ps := entity.PayStatus(r.PayStatus)
		f.PayStatus = &ps
	}
	return f, nil
}

// SaleFilter converts the request into a repository filter.
func (r DocumentListRequest) SaleFilter() (sale.ListFilter, error) {
	f := sale.ListFilter{
		DateFrom: r.DateFrom,
		DateTo:   r.DateTo,
		Limit:    r.Limit,
		Offset:   r.Offset,
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if r.CustomerID != "" {
		cid, err := id.Parse(r.CustomerID)
		if err != nil {
			return f, err
		}
		f.CustomerID = &cid
	}
	if r.Status != "" {
		st := entity.DocStatus(r.Status)
		f.Status = &st
	}
	if r.PayStatus != "" {
		ps := entity.PayStatus(r.PayStatus)
		f.PayStatus = &ps
	}
	return f, nil
}

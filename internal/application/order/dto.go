package order

import (
	"time"

	"github.com/farmtohome/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddressInput carries the delivery address of a new order
type AddressInput struct {
	FullName  string   `json:"full_name" binding:"required,min=1,max=120"`
	Phone     string   `json:"phone" binding:"required,min=8,max=20"`
	Street    string   `json:"street" binding:"required,min=1,max=300"`
	City      string   `json:"city" binding:"required,min=1,max=100"`
	State     string   `json:"state" binding:"required,min=1,max=100"`
	Pincode   string   `json:"pincode" binding:"required,len=6"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// PlaceOrderRequest represents a request to convert the cart into an order
type PlaceOrderRequest struct {
	Address       AddressInput `json:"address" binding:"required"`
	PaymentMethod string       `json:"payment_method" binding:"required,oneof=cod upi card"`
}

// StatusUpdateRequest represents a farmer/admin fulfilment transition
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected processing shipped delivered"`
	Note   string `json:"note" binding:"max=500"`
}

// CancelOrderRequest represents a customer cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReturnRequestInput represents a customer return request
type ReturnRequestInput struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ResolveReturnRequest represents the admin resolution of a return
type ResolveReturnRequest struct {
	Note          string          `json:"note" binding:"max=500"`
	RefundAmount  decimal.Decimal `json:"refund_amount" binding:"required"`
	RefundMethod  string          `json:"refund_method" binding:"required,oneof=original bank_transfer"`
	AccountHolder string          `json:"account_holder"`
	AccountNumber string          `json:"account_number"`
	IFSC          string          `json:"ifsc"`
}

// OrderListFilter represents filter options for order lists
type OrderListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderItemResponse represents one order line snapshot
type OrderItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	FarmerID    uuid.UUID       `json:"farmer_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// StatusEntryResponse represents one status history row
type StatusEntryResponse struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ActorID   uuid.UUID `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID             uuid.UUID             `json:"id"`
	CustomerID     uuid.UUID             `json:"customer_id"`
	Items          []OrderItemResponse   `json:"items"`
	Address        AddressInput          `json:"address"`
	PaymentMethod  string                `json:"payment_method"`
	Status         string                `json:"status"`
	StatusHistory  []StatusEntryResponse `json:"status_history"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DeliveryCharge decimal.Decimal       `json:"delivery_charge"`
	Tax            decimal.Decimal       `json:"tax"`
	Total          decimal.Decimal       `json:"total"`
	TotalDisplay   string                `json:"total_display"`
	DeliveredAt    *time.Time            `json:"delivered_at,omitempty"`
	RefundAmount   *decimal.Decimal      `json:"refund_amount,omitempty"`
	RefundMethod   string                `json:"refund_method,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ToOrderResponse converts an order aggregate to its API representation
func ToOrderResponse(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = OrderItemResponse{
			ProductID:   item.ProductID,
			FarmerID:    item.FarmerID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.Amount(),
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			Subtotal:    item.Subtotal.Amount(),
		}
	}

	history := make([]StatusEntryResponse, len(o.StatusHistory))
	for i := range o.StatusHistory {
		entry := &o.StatusHistory[i]
		history[i] = StatusEntryResponse{
			Status:    string(entry.Status),
			Note:      entry.Note,
			ActorID:   entry.ActorID,
			ActorRole: string(entry.ActorRole),
			Timestamp: entry.CreatedAt,
		}
	}

	resp := &OrderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Items:      items,
		Address: AddressInput{
			FullName: o.DeliveryAddress.FullName,
			Phone:    o.DeliveryAddress.Phone,
			Street:   o.DeliveryAddress.Street,
			City:     o.DeliveryAddress.City,
			State:    o.DeliveryAddress.State,
			Pincode:  o.DeliveryAddress.Pincode,
		},
		PaymentMethod:  string(o.PaymentMethod),
		Status:         string(o.Status),
		StatusHistory:  history,
		Subtotal:       o.Subtotal.Amount(),
		DeliveryCharge: o.DeliveryCharge.Amount(),
		Tax:            o.Tax.Amount(),
		Total:          o.Total.Amount(),
		TotalDisplay:   o.Total.Display(),
		DeliveredAt:    o.DeliveredAt,
		RefundMethod:   string(o.RefundMethod),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.DeliveryAddress.Geo != nil {
		lat, lng := o.DeliveryAddress.Geo.Latitude, o.DeliveryAddress.Geo.Longitude
		resp.Address.Latitude = &lat
		resp.Address.Longitude = &lng
	}
	if o.RefundAmount != nil {
		amount := o.RefundAmount.Amount()
		resp.RefundAmount = &amount
	}
	return resp
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = *ToOrderResponse(&orders[i])
	}
	return responses
}

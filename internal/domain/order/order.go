// Package order contains the order aggregate, its status machine and
// the append-only status history.
package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentMethod is how the customer pays for the order
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"
	PaymentUPI  PaymentMethod = "upi"
	PaymentCard PaymentMethod = "card"
)

// IsValid checks if the payment method is one of the defined methods
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentCOD, PaymentUPI, PaymentCard:
		return true
	}
	return false
}

// RefundMethod is how a resolved return is paid back
type RefundMethod string

const (
	RefundOriginal     RefundMethod = "original"
	RefundBankTransfer RefundMethod = "bank_transfer"
)

// IsValid checks if the refund method is one of the defined methods
func (r RefundMethod) IsValid() bool {
	return r == RefundOriginal || r == RefundBankTransfer
}

// BankDetails holds the account a bank-transfer refund is sent to.
// Stored as a JSON column on the order.
type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}

// IsComplete reports whether all fields needed for a transfer are present
func (b BankDetails) IsComplete() bool {
	return strings.TrimSpace(b.AccountHolder) != "" &&
		strings.TrimSpace(b.AccountNumber) != "" &&
		strings.TrimSpace(b.IFSC) != ""
}

// Value implements driver.Valuer
func (b BankDetails) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner
func (b *BankDetails) Scan(value any) error {
	if value == nil {
		*b = BankDetails{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("cannot scan %T into BankDetails", value)
	}
}

// OrderItem is an immutable snapshot of one purchased line. Product edits
// after placement never alter these values.
type OrderItem struct {
	shared.BaseEntity
	OrderID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	FarmerID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductName string            `gorm:"size:200;not null"`
	UnitPrice   valueobject.Money `gorm:"type:decimal(12,2);not null"`
	Quantity    int               `gorm:"not null"`
	Unit        string            `gorm:"size:20;not null"`
	Subtotal    valueobject.Money `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the database table name
func (OrderItem) TableName() string {
	return "order_items"
}

// StatusEntry is one row of the append-only status history
type StatusEntry struct {
	shared.BaseEntity
	OrderID   uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status    OrderStatus   `gorm:"size:30;not null"`
	Note      string        `gorm:"size:500"`
	ActorID   uuid.UUID     `gorm:"type:uuid;not null"`
	ActorRole identity.Role `gorm:"size:20;not null"`
}

// TableName returns the database table name
func (StatusEntry) TableName() string {
	return "order_status_history"
}

// Order is the committed purchase record. Item snapshots and monetary
// totals are fixed at creation; only the status flow and refund fields
// change afterwards.
type Order struct {
	shared.BaseAggregateRoot
	CustomerID      uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Items           []OrderItem                 `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveryAddress valueobject.DeliveryAddress `gorm:"type:jsonb;not null"`
	PaymentMethod   PaymentMethod               `gorm:"size:20;not null"`
	Status          OrderStatus                 `gorm:"size:30;not null;index"`
	StatusHistory   []StatusEntry               `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal        valueobject.Money           `gorm:"type:decimal(12,2);not null"`
	DeliveryCharge  valueobject.Money           `gorm:"type:decimal(12,2);not null"`
	Tax             valueobject.Money           `gorm:"type:decimal(12,2);not null"`
	Total           valueobject.Money           `gorm:"type:decimal(12,2);not null"`
	DeliveredAt     *time.Time                  `gorm:"index"`
	RefundAmount    *valueobject.Money          `gorm:"type:decimal(12,2)"`
	RefundMethod    RefundMethod                `gorm:"size:20"`
	BankDetails     *BankDetails                `gorm:"type:jsonb"`
}

// TableName returns the database table name
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a pending order from pre-validated snapshots and totals.
// The checkout service computes totals; this constructor verifies their
// consistency and writes the first history entry.
func NewOrder(
	customerID uuid.UUID,
	items []OrderItem,
	address valueobject.DeliveryAddress,
	paymentMethod PaymentMethod,
	subtotal, deliveryCharge, tax, total valueobject.Money,
) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID is required")
	}
	if len(items) == 0 {
		return nil, shared.ErrCartEmpty
	}
	if address.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Delivery address is required")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown payment method")
	}

	expected := subtotal.MustAdd(deliveryCharge).MustAdd(tax)
	if !expected.Equals(total) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order total does not equal subtotal plus delivery and tax")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		DeliveryAddress:   address,
		PaymentMethod:     paymentMethod,
		Status:            StatusPending,
		Subtotal:          subtotal,
		DeliveryCharge:    deliveryCharge,
		Tax:               tax,
		Total:             total,
	}

	o.Items = make([]OrderItem, len(items))
	for i, item := range items {
		item.BaseEntity = shared.NewBaseEntity()
		item.OrderID = o.ID
		o.Items[i] = item
	}

	o.appendHistory(StatusPending, "Order placed", customerID, identity.RoleCustomer)
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

func (o *Order) appendHistory(status OrderStatus, note string, actorID uuid.UUID, actorRole identity.Role) {
	o.StatusHistory = append(o.StatusHistory, StatusEntry{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    o.ID,
		Status:     status,
		Note:       note,
		ActorID:    actorID,
		ActorRole:  actorRole,
	})
}

// transition performs the shared state-machine checks and records history
func (o *Order) transition(target OrderStatus, note string, actorID uuid.UUID, actorRole identity.Role) error {
	if !target.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Unknown order status")
	}
	if !target.CanBeTriggeredBy(actorRole) {
		return shared.ErrUnauthorized
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}

	from := o.Status
	o.Status = target
	o.appendHistory(target, note, actorID, actorRole)
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, target, actorID, actorRole))
	return nil
}

// Accept marks the order accepted by the farmer
func (o *Order) Accept(actorID uuid.UUID, actorRole identity.Role, note string) error {
	return o.transition(StatusAccepted, note, actorID, actorRole)
}

// Reject declines the order before fulfilment begins
func (o *Order) Reject(actorID uuid.UUID, actorRole identity.Role, note string) error {
	return o.transition(StatusRejected, note, actorID, actorRole)
}

// StartProcessing marks the order as being prepared
func (o *Order) StartProcessing(actorID uuid.UUID, actorRole identity.Role, note string) error {
	return o.transition(StatusProcessing, note, actorID, actorRole)
}

// Ship marks the order as dispatched
func (o *Order) Ship(actorID uuid.UUID, actorRole identity.Role, note string) error {
	return o.transition(StatusShipped, note, actorID, actorRole)
}

// MarkDelivered marks the order delivered and starts the return window
func (o *Order) MarkDelivered(actorID uuid.UUID, actorRole identity.Role, note string, deliveredAt time.Time) error {
	if err := o.transition(StatusDelivered, note, actorID, actorRole); err != nil {
		return err
	}
	o.DeliveredAt = &deliveredAt
	return nil
}

// Cancel cancels the order. Allowed only from pending or accepted; the
// persistence layer restores stock in the same transaction.
func (o *Order) Cancel(actorID uuid.UUID, actorRole identity.Role, note string) error {
	if o.Status != StatusPending && o.Status != StatusAccepted {
		return shared.ErrCannotCancel
	}
	if !StatusCancelled.CanBeTriggeredBy(actorRole) {
		return shared.ErrUnauthorized
	}

	from := o.Status
	o.Status = StatusCancelled
	o.appendHistory(StatusCancelled, note, actorID, actorRole)
	o.RefundAmount = &o.Total
	o.AddDomainEvent(NewOrderCancelledEvent(o, from, actorID, actorRole))
	return nil
}

// CanRequestReturn reports whether a return is possible at the given time.
// The window is inclusive: a request at exactly deliveredAt+window is accepted.
func (o *Order) CanRequestReturn(now time.Time, window time.Duration) error {
	if o.Status != StatusDelivered || o.DeliveredAt == nil {
		return shared.NewDomainError("INVALID_STATE", "Only delivered orders can be returned")
	}
	if now.Sub(*o.DeliveredAt) > window {
		return shared.ErrReturnWindowExpired
	}
	return nil
}

// RequestReturn opens a return for a delivered order within the window
func (o *Order) RequestReturn(actorID uuid.UUID, actorRole identity.Role, note string, now time.Time, window time.Duration) error {
	if !StatusReturnRequested.CanBeTriggeredBy(actorRole) {
		return shared.ErrUnauthorized
	}
	if err := o.CanRequestReturn(now, window); err != nil {
		return err
	}
	return o.transition(StatusReturnRequested, note, actorID, actorRole)
}

// Resolve closes a return request with a refund. Bank-transfer refunds
// require complete bank details.
func (o *Order) Resolve(actorID uuid.UUID, actorRole identity.Role, note string,
	refundAmount valueobject.Money, refundMethod RefundMethod, bankDetails *BankDetails) error {

	if !refundMethod.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Unknown refund method")
	}
	if refundAmount.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Refund amount cannot be negative")
	}
	exceeds, err := o.Total.LessThan(refundAmount)
	if err != nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Refund currency does not match the order")
	}
	if exceeds {
		return shared.NewDomainError("VALIDATION_ERROR", "Refund cannot exceed the order total")
	}
	if refundMethod == RefundBankTransfer && (bankDetails == nil || !bankDetails.IsComplete()) {
		return shared.NewDomainError("VALIDATION_ERROR", "Bank account details are required for a bank transfer refund")
	}

	if err := o.transition(StatusResolved, note, actorID, actorRole); err != nil {
		return err
	}

	o.RefundAmount = &refundAmount
	o.RefundMethod = refundMethod
	o.BankDetails = bankDetails
	return nil
}

// ContainsFarmer reports whether any line in the order belongs to the farmer
func (o *Order) ContainsFarmer(farmerID uuid.UUID) bool {
	for i := range o.Items {
		if o.Items[i].FarmerID == farmerID {
			return true
		}
	}
	return false
}

// IsOwnedBy reports whether the order belongs to the given customer
func (o *Order) IsOwnedBy(customerID uuid.UUID) bool {
	return o.CustomerID == customerID
}

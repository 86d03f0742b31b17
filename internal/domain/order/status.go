package order

import "github.com/farmtohome/backend/internal/domain/identity"

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusAccepted        OrderStatus = "accepted"
	StatusProcessing      OrderStatus = "processing"
	StatusShipped         OrderStatus = "shipped"
	StatusDelivered       OrderStatus = "delivered"
	StatusRejected        OrderStatus = "rejected"
	StatusCancelled       OrderStatus = "cancelled"
	StatusReturnRequested OrderStatus = "return_requested"
	StatusResolved        OrderStatus = "resolved"
)

// IsValid checks if the status is one of the defined statuses
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusProcessing, StatusShipped,
		StatusDelivered, StatusRejected, StatusCancelled, StatusReturnRequested, StatusResolved:
		return true
	}
	return false
}

// allowedTransitions is the forward-only state machine. Delivered is
// terminal except for the return flow, which the aggregate additionally
// gates on the return window.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:         {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:        {StatusProcessing, StatusRejected, StatusCancelled},
	StatusProcessing:      {StatusShipped},
	StatusShipped:         {StatusDelivered},
	StatusDelivered:       {StatusReturnRequested},
	StatusReturnRequested: {StatusResolved},
}

// CanTransitionTo checks if a transition from this status to the target is allowed
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// transitionActors lists which roles may trigger a transition INTO each
// status. Admin may trigger any transition.
var transitionActors = map[OrderStatus][]identity.Role{
	StatusAccepted:        {identity.RoleFarmer},
	StatusRejected:        {identity.RoleFarmer},
	StatusProcessing:      {identity.RoleFarmer},
	StatusShipped:         {identity.RoleFarmer},
	StatusDelivered:       {identity.RoleFarmer},
	StatusCancelled:       {identity.RoleCustomer},
	StatusReturnRequested: {identity.RoleCustomer},
	StatusResolved:        {},
}

// CanBeTriggeredBy checks whether the given role may move an order into
// this status. Ownership checks (own order, own product) belong to the
// application layer.
func (s OrderStatus) CanBeTriggeredBy(role identity.Role) bool {
	if role == identity.RoleAdmin {
		return true
	}
	actors, known := transitionActors[s]
	if !known {
		return false
	}
	for _, r := range actors {
		if r == role {
			return true
		}
	}
	return false
}

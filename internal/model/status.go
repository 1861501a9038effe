package model

// PaymentStatus is the payment dimension of an order's lifecycle. Every
// non-pending value is terminal except challenge, which (like pending) may
// still receive a later terminal notification.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentExpired   PaymentStatus = "expired"
	PaymentCancel    PaymentStatus = "cancel"
	PaymentChallenge PaymentStatus = "challenge"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed, PaymentExpired, PaymentCancel, PaymentChallenge:
		return true
	}
	return false
}

// Open reports whether the status may still be changed by a notification.
func (s PaymentStatus) Open() bool {
	return s == PaymentPending || s == PaymentChallenge
}

// ShippingStatus is the fulfillment dimension. The zero value means the
// order has not been paid yet.
type ShippingStatus string

const (
	ShippingNone       ShippingStatus = ""
	ShippingProcessing ShippingStatus = "processing"
	ShippingShipped    ShippingStatus = "shipped"
	ShippingDelivered  ShippingStatus = "delivered"
	ShippingCancelled  ShippingStatus = "cancelled"
)

var shippingFlow = map[ShippingStatus][]ShippingStatus{
	ShippingNone:       {ShippingProcessing},
	ShippingProcessing: {ShippingShipped, ShippingCancelled},
	ShippingShipped:    {ShippingDelivered, ShippingCancelled},
	ShippingDelivered:  {},
	ShippingCancelled:  {},
}

// AllowedNext returns the shipping states reachable from s. The slice is
// never nil so callers can report it directly.
func (s ShippingStatus) AllowedNext() []ShippingStatus {
	next, ok := shippingFlow[s]
	if !ok {
		return []ShippingStatus{}
	}
	out := make([]ShippingStatus, len(next))
	copy(out, next)
	return out
}

func (s ShippingStatus) CanTransitionTo(next ShippingStatus) bool {
	for _, allowed := range shippingFlow[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ShippingStatus) Terminal() bool {
	return s == ShippingDelivered || s == ShippingCancelled
}

package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Cost goes out as a JSON number, the way dashboards expect it.
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderAccepted OrderStatus = "accepted"
	OrderRejected OrderStatus = "rejected"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderRejected:
		return true
	}
	return false
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
)

func (s DeliveryStatus) Valid() bool {
	return s == DeliveryPending || s == DeliveryDelivered
}

// Order is a ration order as stored in ration_orders.
//
// Paid maps the pay_history column. The name reads like the household's
// payment record, while the dashboard shows it as "Paid / Not Paid" for the
// order on screen. We take the second reading: Paid reports whether this
// order has been paid.
type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	PhoneNo        string          `json:"phone_no"`
	Items          Items           `json:"items"`
	Cost           decimal.Decimal `json:"cost"`
	Paid           bool            `json:"pay_history"`
	VisitTime      time.Time       `json:"visit_time"`
	OrderStatus    OrderStatus     `json:"order_status"`
	DeliveryStatus DeliveryStatus  `json:"delivery_status,omitempty"` // set only once accepted
	CreatedAt      time.Time       `json:"created_at"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	type Alias Order
	createdAt := ""
	if !o.CreatedAt.IsZero() {
		createdAt = o.CreatedAt.Format(time.RFC3339)
	}
	return json.Marshal(&struct {
		VisitTime string `json:"visit_time"`
		CreatedAt string `json:"created_at,omitempty"`
		*Alias
	}{
		VisitTime: o.VisitTime.Format(time.RFC3339),
		CreatedAt: createdAt,
		Alias:     (*Alias)(&o),
	})
}

// Accepted returns a copy of o moved to accepted with delivery pending.
func (o Order) Accepted() Order {
	o.OrderStatus = OrderAccepted
	o.DeliveryStatus = DeliveryPending
	return o
}

// Patch is a partial update of an order keyed by its id. Nil fields are left
// untouched.
type Patch struct {
	OrderStatus    *OrderStatus    `json:"order_status,omitempty"`
	DeliveryStatus *DeliveryStatus `json:"delivery_status,omitempty"`
}

func AcceptPatch() Patch {
	s, d := OrderAccepted, DeliveryPending
	return Patch{OrderStatus: &s, DeliveryStatus: &d}
}

func RejectPatch() Patch {
	s := OrderRejected
	return Patch{OrderStatus: &s}
}

func DeliveryPatch(status DeliveryStatus) Patch {
	return Patch{DeliveryStatus: &status}
}

func (p Patch) Empty() bool {
	return p.OrderStatus == nil && p.DeliveryStatus == nil
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SampleOrders is the built-in pending set shown when the remote store is
// unreachable or has nothing pending. Visit times step back one hour each
// from now.
func SampleOrders(now time.Time) []Order {
	type seed struct {
		id, user, phone string
		lines           []Item
		cost            int64
		paid            bool
	}
	seeds := []seed{
		{"1", "USR001", "9876543210", []Item{{"Rice", "5 kg"}, {"Wheat", "3 kg"}, {"Sugar", "2 kg"}}, 450, true},
		{"2", "USR002", "9123456789", []Item{{"Rice", "10 kg"}, {"Dal", "2 kg"}, {"Oil", "1 L"}}, 650, false},
		{"3", "USR003", "9988776655", []Item{{"Wheat", "8 kg"}, {"Sugar", "3 kg"}, {"Salt", "1 kg"}}, 380, true},
		{"4", "USR004", "9445566778", []Item{{"Rice", "7 kg"}, {"Dal", "3 kg"}, {"Tea", "500 g"}}, 520, true},
		{"5", "USR005", "9334455667", []Item{{"Wheat", "6 kg"}, {"Sugar", "4 kg"}, {"Oil", "2 L"}}, 720, false},
	}

	orders := make([]Order, 0, len(seeds))
	for n, s := range seeds {
		visit := now.Add(-time.Duration(n) * time.Hour).UTC()
		orders = append(orders, Order{
			ID:          s.id,
			UserID:      s.user,
			PhoneNo:     s.phone,
			Items:       StructuredItems(s.lines...),
			Cost:        decimal.NewFromInt(s.cost),
			Paid:        s.paid,
			VisitTime:   visit,
			OrderStatus: OrderPending,
			CreatedAt:   visit,
		})
	}
	return orders
}
